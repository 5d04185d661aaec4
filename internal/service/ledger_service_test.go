package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"retail-banking-core/internal/core/domain"
	"retail-banking-core/internal/core/ports"
	"retail-banking-core/internal/core/ports/mocks"
	"retail-banking-core/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type ledgerDeps struct {
	accountRepo *mocks.MockAccountRepository
	cardRepo    *mocks.MockCardRepository
	txRepo      *mocks.MockTransactionRepository
	userRepo    *mocks.MockUserRepository
	transactor  *mocks.MockDBTransactor
	sender      *mocks.MockNotificationSender
}

var ledgerTestNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func setupLedgerService(t *testing.T) (*LedgerServiceImpl, ledgerDeps, *gomock.Controller) {
	ctrl := gomock.NewController(t)
	d := ledgerDeps{
		accountRepo: mocks.NewMockAccountRepository(ctrl),
		cardRepo:    mocks.NewMockCardRepository(ctrl),
		txRepo:      mocks.NewMockTransactionRepository(ctrl),
		userRepo:    mocks.NewMockUserRepository(ctrl),
		transactor:  mocks.NewMockDBTransactor(ctrl),
		sender:      mocks.NewMockNotificationSender(ctrl),
	}
	svc := NewLedgerService(d.accountRepo, d.cardRepo, d.txRepo, d.userRepo, d.transactor, d.sender, newTestLogger())
	svc.now = func() time.Time { return ledgerTestNow }
	svc.recorder.now = svc.now
	return svc, d, ctrl
}

// allowNotifications lets post-commit notifications through without
// asserting on them.
func (d ledgerDeps) allowNotifications() {
	d.userRepo.EXPECT().GetByID(gomock.Any(), gomock.Any()).
		Return(&domain.User{Email: "owner@example.com"}, nil).AnyTimes()
	d.sender.EXPECT().Notify(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil).AnyTimes()
}

func activeAccount(number string, owner uuid.UUID, balance string) *domain.Account {
	return &domain.Account{
		ID:             uuid.New(),
		Number:         number,
		UserID:         owner,
		Currency:       domain.CurrencyEGP,
		Type:           domain.AccountTypeCurrent,
		Balance:        decimal.RequireFromString(balance),
		Status:         domain.AccountStatusActive,
		KYCSubmitted:   true,
		KYCVerified:    true,
		FullyActivated: true,
	}
}

func TestLedgerService_Deposit_Success(t *testing.T) {
	svc, d, ctrl := setupLedgerService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	teller := uuid.New()
	owner := uuid.New()
	account := activeAccount("1001", owner, "100.00")

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetByNumberForUpdate(ctx, tx, "1001").Return(account, nil)
	d.accountRepo.EXPECT().UpdateBalance(ctx, tx, account.ID, decEq("150.25")).Return(nil)

	var recorded *domain.Transaction
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ any, txn *domain.Transaction) error {
			recorded = txn
			return nil
		})
	d.userRepo.EXPECT().GetByID(ctx, owner).Return(&domain.User{ID: owner, Email: "owner@example.com"}, nil)
	d.sender.EXPECT().Notify(ctx, domain.NotificationDeposit, "owner@example.com", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.NotificationKind, _ string, data map[string]string) error {
			assert.Equal(t, "150.25", data["balance"])
			return nil
		})

	txn, err := svc.Deposit(ctx, ports.DepositRequest{
		PerformedBy:   teller,
		AccountNumber: "1001",
		Amount:        decimal.RequireFromString("50.25"),
	})
	require.NoError(t, err)
	assert.True(t, tx.committed)
	assert.Same(t, recorded, txn)
	assert.Equal(t, domain.TransactionTypeDeposit, txn.Type)
	assert.Equal(t, domain.TransactionStatusSuccess, txn.Status)
	assert.Equal(t, teller, txn.UserID)
	assert.Nil(t, txn.SenderAccountID)
	require.NotNil(t, txn.ReceiverAccountID)
	assert.Equal(t, account.ID, *txn.ReceiverAccountID)
	assert.Equal(t, ledgerTestNow, txn.CreatedAt)
}

func TestLedgerService_Deposit_InvalidAmount(t *testing.T) {
	svc, _, ctrl := setupLedgerService(t)
	defer ctrl.Finish()

	for _, amount := range []string{"0", "-5", "10.001"} {
		_, err := svc.Deposit(context.Background(), ports.DepositRequest{
			AccountNumber: "1001",
			Amount:        decimal.RequireFromString(amount),
		})
		assert.Error(t, err, amount)
	}
	_, err := svc.Deposit(context.Background(), ports.DepositRequest{Amount: decimal.Zero})
	assert.Equal(t, apperror.CodeInvalidAmount, apperror.CodeOf(err))
}

func TestLedgerService_Deposit_UnknownAccount(t *testing.T) {
	svc, d, ctrl := setupLedgerService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetByNumberForUpdate(ctx, tx, "404").Return(nil, nil)

	_, err := svc.Deposit(ctx, ports.DepositRequest{AccountNumber: "404", Amount: decimal.NewFromInt(10)})
	assert.Equal(t, apperror.CodeInvalidAccount, apperror.CodeOf(err))
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestLedgerService_Deposit_NotActivated(t *testing.T) {
	svc, d, ctrl := setupLedgerService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	account := activeAccount("1001", uuid.New(), "0")
	account.FullyActivated = false

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetByNumberForUpdate(ctx, tx, "1001").Return(account, nil)

	_, err := svc.Deposit(ctx, ports.DepositRequest{AccountNumber: "1001", Amount: decimal.NewFromInt(10)})
	assert.Equal(t, apperror.CodeNotActivated, apperror.CodeOf(err))
}

func TestLedgerService_Deposit_RecordFailureRollsBack(t *testing.T) {
	svc, d, ctrl := setupLedgerService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	account := activeAccount("1001", uuid.New(), "10")

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetByNumberForUpdate(ctx, tx, "1001").Return(account, nil)
	d.accountRepo.EXPECT().UpdateBalance(ctx, tx, account.ID, decEq("20")).Return(nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(errors.New("disk full"))

	_, err := svc.Deposit(ctx, ports.DepositRequest{AccountNumber: "1001", Amount: decimal.NewFromInt(10)})
	assert.Equal(t, apperror.CodeInternal, apperror.CodeOf(err))
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestLedgerService_Withdraw_Success(t *testing.T) {
	svc, d, ctrl := setupLedgerService(t)
	defer ctrl.Finish()
	d.allowNotifications()

	ctx := context.Background()
	tx := &mockTx{}
	owner := uuid.New()
	account := activeAccount("1001", owner, "100")

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetByNumberForUpdate(ctx, tx, "1001").Return(account, nil)
	d.accountRepo.EXPECT().UpdateBalance(ctx, tx, account.ID, decEq("0")).Return(nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)

	txn, err := svc.Withdraw(ctx, ports.WithdrawRequest{UserID: owner, AccountNumber: "1001", Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)
	assert.True(t, tx.committed)
	assert.Equal(t, domain.TransactionTypeWithdraw, txn.Type)
	require.NotNil(t, txn.SenderAccountID)
	assert.Equal(t, account.ID, *txn.SenderAccountID)
	assert.Nil(t, txn.ReceiverAccountID)
}

func TestLedgerService_Withdraw_InsufficientFunds(t *testing.T) {
	svc, d, ctrl := setupLedgerService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	owner := uuid.New()
	account := activeAccount("1001", owner, "99.99")

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetByNumberForUpdate(ctx, tx, "1001").Return(account, nil)
	// no UpdateBalance, no record

	_, err := svc.Withdraw(ctx, ports.WithdrawRequest{UserID: owner, AccountNumber: "1001", Amount: decimal.NewFromInt(100)})
	assert.Equal(t, apperror.CodeInsufficientFunds, apperror.CodeOf(err))
	assert.False(t, tx.committed)
}

func TestLedgerService_Withdraw_ForeignAccount(t *testing.T) {
	svc, d, ctrl := setupLedgerService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	account := activeAccount("1001", uuid.New(), "500")

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetByNumberForUpdate(ctx, tx, "1001").Return(account, nil)

	_, err := svc.Withdraw(ctx, ports.WithdrawRequest{UserID: uuid.New(), AccountNumber: "1001", Amount: decimal.NewFromInt(1)})
	assert.Equal(t, apperror.CodeInvalidAccount, apperror.CodeOf(err))
}

func TestLedgerService_Transfer_Success(t *testing.T) {
	svc, d, ctrl := setupLedgerService(t)
	defer ctrl.Finish()
	d.allowNotifications()

	ctx := context.Background()
	tx := &mockTx{}
	alice := uuid.New()
	bob := uuid.New()
	from := activeAccount("2002", alice, "300")
	to := activeAccount("1001", bob, "50")

	gomock.InOrder(
		d.transactor.EXPECT().Begin(ctx).Return(tx, nil),
		// ascending number order: 1001 before 2002
		d.accountRepo.EXPECT().GetByNumberForUpdate(ctx, tx, "1001").Return(to, nil),
		d.accountRepo.EXPECT().GetByNumberForUpdate(ctx, tx, "2002").Return(from, nil),
		d.accountRepo.EXPECT().UpdateBalance(ctx, tx, from.ID, decEq("200")).Return(nil),
		d.accountRepo.EXPECT().UpdateBalance(ctx, tx, to.ID, decEq("150")).Return(nil),
		d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil),
	)

	txn, err := svc.Transfer(ctx, ports.TransferRequest{
		UserID:                alice,
		SenderAccountNumber:   "2002",
		ReceiverAccountNumber: "1001",
		Amount:                decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	assert.True(t, tx.committed)
	assert.Equal(t, domain.TransactionTypeTransfer, txn.Type)
	assert.Equal(t, alice, *txn.SenderID)
	assert.Equal(t, bob, *txn.ReceiverID)
	assert.Equal(t, from.ID, *txn.SenderAccountID)
	assert.Equal(t, to.ID, *txn.ReceiverAccountID)
}

func TestLedgerService_Transfer_SameAccount(t *testing.T) {
	svc, _, ctrl := setupLedgerService(t)
	defer ctrl.Finish()

	_, err := svc.Transfer(context.Background(), ports.TransferRequest{
		UserID:                uuid.New(),
		SenderAccountNumber:   "1001",
		ReceiverAccountNumber: "1001",
		Amount:                decimal.NewFromInt(1),
	})
	assert.Equal(t, apperror.CodeSameAccount, apperror.CodeOf(err))
}

func TestLedgerService_Transfer_CurrencyMismatch(t *testing.T) {
	svc, d, ctrl := setupLedgerService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	alice := uuid.New()
	from := activeAccount("1001", alice, "300")
	to := activeAccount("2002", uuid.New(), "0")
	to.Currency = domain.CurrencyUSD

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetByNumberForUpdate(ctx, tx, "1001").Return(from, nil)
	d.accountRepo.EXPECT().GetByNumberForUpdate(ctx, tx, "2002").Return(to, nil)

	_, err := svc.Transfer(ctx, ports.TransferRequest{
		UserID: alice, SenderAccountNumber: "1001", ReceiverAccountNumber: "2002", Amount: decimal.NewFromInt(10),
	})
	assert.Equal(t, apperror.CodeCurrencyMismatch, apperror.CodeOf(err))
	assert.False(t, tx.committed)
	assert.True(t, from.Balance.Equal(decimal.NewFromInt(300)))
}

func TestLedgerService_Transfer_UnknownReceiver(t *testing.T) {
	svc, d, ctrl := setupLedgerService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	alice := uuid.New()
	from := activeAccount("1001", alice, "300")

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetByNumberForUpdate(ctx, tx, "1001").Return(from, nil)
	d.accountRepo.EXPECT().GetByNumberForUpdate(ctx, tx, "9999").Return(nil, nil)

	_, err := svc.Transfer(ctx, ports.TransferRequest{
		UserID: alice, SenderAccountNumber: "1001", ReceiverAccountNumber: "9999", Amount: decimal.NewFromInt(10),
	})
	assert.Equal(t, apperror.CodeInvalidAccount, apperror.CodeOf(err))
}

func TestLedgerService_Transfer_ReceiverInactive(t *testing.T) {
	svc, d, ctrl := setupLedgerService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	alice := uuid.New()
	from := activeAccount("1001", alice, "300")
	to := activeAccount("2002", uuid.New(), "0")
	to.Status = domain.AccountStatusInactive

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetByNumberForUpdate(ctx, tx, "1001").Return(from, nil)
	d.accountRepo.EXPECT().GetByNumberForUpdate(ctx, tx, "2002").Return(to, nil)

	_, err := svc.Transfer(ctx, ports.TransferRequest{
		UserID: alice, SenderAccountNumber: "1001", ReceiverAccountNumber: "2002", Amount: decimal.NewFromInt(10),
	})
	assert.Equal(t, apperror.CodeNotActivated, apperror.CodeOf(err))
}

func TestLedgerService_Transfer_NotificationFailureKeepsCommit(t *testing.T) {
	svc, d, ctrl := setupLedgerService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	alice := uuid.New()
	from := activeAccount("1001", alice, "10")
	to := activeAccount("2002", uuid.New(), "0")

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetByNumberForUpdate(ctx, tx, gomock.Any()).Return(from, nil)
	d.accountRepo.EXPECT().GetByNumberForUpdate(ctx, tx, gomock.Any()).Return(to, nil)
	d.accountRepo.EXPECT().UpdateBalance(ctx, tx, gomock.Any(), gomock.Any()).Return(nil).Times(2)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.userRepo.EXPECT().GetByID(ctx, gomock.Any()).Return(&domain.User{Email: "x@example.com"}, nil).Times(2)
	d.sender.EXPECT().Notify(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("broker down")).Times(2)

	txn, err := svc.Transfer(ctx, ports.TransferRequest{
		UserID: alice, SenderAccountNumber: "1001", ReceiverAccountNumber: "2002", Amount: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	assert.NotNil(t, txn)
	assert.True(t, tx.committed)
}

func TestLedgerService_CardTopUp_Success(t *testing.T) {
	svc, d, ctrl := setupLedgerService(t)
	defer ctrl.Finish()
	d.allowNotifications()

	ctx := context.Background()
	tx := &mockTx{}
	owner := uuid.New()
	account := activeAccount("1001", owner, "500")
	card := &domain.Card{
		ID: uuid.New(), UserID: owner, AccountID: account.ID, Number: "4000001234567899",
		ExpiryDate: ledgerTestNow.AddDate(3, 0, 0), Balance: decimal.NewFromInt(20), Status: domain.CardStatusActive,
	}

	gomock.InOrder(
		d.transactor.EXPECT().Begin(ctx).Return(tx, nil),
		d.accountRepo.EXPECT().GetByNumberForUpdate(ctx, tx, "1001").Return(account, nil),
		d.cardRepo.EXPECT().GetByIDForUpdate(ctx, tx, card.ID).Return(card, nil),
		d.accountRepo.EXPECT().UpdateBalance(ctx, tx, account.ID, decEq("400")).Return(nil),
		d.cardRepo.EXPECT().UpdateBalance(ctx, tx, card.ID, decEq("120")).Return(nil),
		d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil),
	)

	txn, err := svc.CardTopUp(ctx, ports.CardTopUpRequest{
		UserID: owner, AccountNumber: "1001", CardID: card.ID, Amount: decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	assert.True(t, tx.committed)
	assert.Equal(t, domain.TransactionTypeDeposit, txn.Type)
	assert.Contains(t, txn.Description, "7899")
}

func TestLedgerService_CardTopUp_ExpiredCard(t *testing.T) {
	svc, d, ctrl := setupLedgerService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	owner := uuid.New()
	account := activeAccount("1001", owner, "500")
	card := &domain.Card{ID: uuid.New(), UserID: owner, AccountID: account.ID, ExpiryDate: ledgerTestNow.Add(-time.Hour), Status: domain.CardStatusActive}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetByNumberForUpdate(ctx, tx, "1001").Return(account, nil)
	d.cardRepo.EXPECT().GetByIDForUpdate(ctx, tx, card.ID).Return(card, nil)

	_, err := svc.CardTopUp(ctx, ports.CardTopUpRequest{UserID: owner, AccountNumber: "1001", CardID: card.ID, Amount: decimal.NewFromInt(1)})
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))
}

func TestLedgerService_CardTopUp_ForeignCard(t *testing.T) {
	svc, d, ctrl := setupLedgerService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	owner := uuid.New()
	account := activeAccount("1001", owner, "500")
	card := &domain.Card{ID: uuid.New(), UserID: uuid.New(), ExpiryDate: ledgerTestNow.AddDate(1, 0, 0), Status: domain.CardStatusActive}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetByNumberForUpdate(ctx, tx, "1001").Return(account, nil)
	d.cardRepo.EXPECT().GetByIDForUpdate(ctx, tx, card.ID).Return(card, nil)

	_, err := svc.CardTopUp(ctx, ports.CardTopUpRequest{UserID: owner, AccountNumber: "1001", CardID: card.ID, Amount: decimal.NewFromInt(1)})
	assert.Equal(t, apperror.CodeNotFound, apperror.CodeOf(err))
}

func TestLedgerService_CardTopUp_UnlinkedAccount(t *testing.T) {
	svc, d, ctrl := setupLedgerService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	owner := uuid.New()
	linked := activeAccount("1001", owner, "500")
	other := activeAccount("2002", owner, "500")
	other.Currency = domain.CurrencyUSD
	card := &domain.Card{
		ID: uuid.New(), UserID: owner, AccountID: linked.ID, Number: "4000001234567899",
		ExpiryDate: ledgerTestNow.AddDate(3, 0, 0), Balance: decimal.NewFromInt(20), Status: domain.CardStatusActive,
	}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetByNumberForUpdate(ctx, tx, "2002").Return(other, nil)
	d.cardRepo.EXPECT().GetByIDForUpdate(ctx, tx, card.ID).Return(card, nil)
	// no balance updates and no record

	txn, err := svc.CardTopUp(ctx, ports.CardTopUpRequest{
		UserID: owner, AccountNumber: "2002", CardID: card.ID, Amount: decimal.NewFromInt(100),
	})
	assert.Nil(t, txn)
	assert.Equal(t, apperror.CodeInvalidAccount, apperror.CodeOf(err))
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestLedgerService_ApplyDailyInterest_Savings(t *testing.T) {
	svc, d, ctrl := setupLedgerService(t)
	defer ctrl.Finish()
	d.allowNotifications()

	ctx := context.Background()
	tx := &mockTx{}
	account := activeAccount("1001", uuid.New(), "50000")
	account.Type = domain.AccountTypeSaving

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetByIDForUpdate(ctx, tx, account.ID).Return(account, nil)
	d.accountRepo.EXPECT().UpdateBalance(ctx, tx, account.ID, decEq("50000.68")).Return(nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)

	txn, err := svc.ApplyDailyInterest(ctx, account.ID)
	require.NoError(t, err)
	require.NotNil(t, txn)
	assert.True(t, txn.Amount.Equal(decimal.RequireFromString("0.68")))
	assert.Equal(t, domain.TransactionTypeInterest, txn.Type)
	require.NotNil(t, txn.SenderAccountID)
	require.NotNil(t, txn.ReceiverAccountID)
	assert.Equal(t, account.ID, *txn.SenderAccountID)
	assert.Equal(t, account.ID, *txn.ReceiverAccountID)
	assert.True(t, tx.committed)
}

func TestLedgerService_ApplyDailyInterest_CurrentAccountSkipped(t *testing.T) {
	svc, d, ctrl := setupLedgerService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	account := activeAccount("1001", uuid.New(), "50000")

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetByIDForUpdate(ctx, tx, account.ID).Return(account, nil)

	txn, err := svc.ApplyDailyInterest(ctx, account.ID)
	require.NoError(t, err)
	assert.Nil(t, txn)
	assert.False(t, tx.committed)
}

func TestLedgerService_ApplyDailyInterest_NothingAccrues(t *testing.T) {
	svc, d, ctrl := setupLedgerService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	account := activeAccount("1001", uuid.New(), "0.50")
	account.Type = domain.AccountTypeSaving

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetByIDForUpdate(ctx, tx, account.ID).Return(account, nil)

	txn, err := svc.ApplyDailyInterest(ctx, account.ID)
	require.NoError(t, err)
	assert.Nil(t, txn)
}

func TestLedgerService_BeginFails(t *testing.T) {
	svc, d, ctrl := setupLedgerService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	d.transactor.EXPECT().Begin(ctx).Return(nil, errors.New("pool exhausted"))

	_, err := svc.Withdraw(ctx, ports.WithdrawRequest{UserID: uuid.New(), AccountNumber: "1001", Amount: decimal.NewFromInt(1)})
	assert.Equal(t, apperror.CodeInternal, apperror.CodeOf(err))
}

func TestLedgerService_CommitFails(t *testing.T) {
	svc, d, ctrl := setupLedgerService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{commitErr: errors.New("serialization failure")}
	owner := uuid.New()
	account := activeAccount("1001", owner, "100")

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetByNumberForUpdate(ctx, tx, "1001").Return(account, nil)
	d.accountRepo.EXPECT().UpdateBalance(ctx, tx, account.ID, gomock.Any()).Return(nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)

	txn, err := svc.Withdraw(ctx, ports.WithdrawRequest{UserID: owner, AccountNumber: "1001", Amount: decimal.NewFromInt(1)})
	assert.Nil(t, txn)
	assert.Equal(t, apperror.CodeInternal, apperror.CodeOf(err))
	assert.ErrorIs(t, err, domain.ErrCommitOutcomeUnknown)
}

func TestLedgerService_ApplyDailyInterest_FailureBeforeCommit(t *testing.T) {
	svc, d, ctrl := setupLedgerService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	account := activeAccount("1001", uuid.New(), "50000")
	account.Type = domain.AccountTypeSaving

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetByIDForUpdate(ctx, tx, account.ID).Return(account, nil)
	d.accountRepo.EXPECT().UpdateBalance(ctx, tx, account.ID, gomock.Any()).Return(errors.New("deadlock detected"))

	_, err := svc.ApplyDailyInterest(ctx, account.ID)
	assert.Equal(t, apperror.CodeInternal, apperror.CodeOf(err))
	assert.NotErrorIs(t, err, domain.ErrCommitOutcomeUnknown)
	assert.True(t, tx.rolledBack)
}

func TestLedgerService_ApplyDailyInterest_CommitFails(t *testing.T) {
	svc, d, ctrl := setupLedgerService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{commitErr: errors.New("i/o timeout")}
	account := activeAccount("1001", uuid.New(), "50000")
	account.Type = domain.AccountTypeSaving

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.accountRepo.EXPECT().GetByIDForUpdate(ctx, tx, account.ID).Return(account, nil)
	d.accountRepo.EXPECT().UpdateBalance(ctx, tx, account.ID, decEq("50000.68")).Return(nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)

	txn, err := svc.ApplyDailyInterest(ctx, account.ID)
	assert.Nil(t, txn)
	assert.ErrorIs(t, err, domain.ErrCommitOutcomeUnknown)
}
