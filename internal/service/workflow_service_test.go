package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"retail-banking-core/config"
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

// memStaged is an in-process StagedStore keyed by token.
type memStaged struct {
	mu  sync.Mutex
	ops map[uuid.UUID]domain.StagedOperation
}

func newMemStaged() *memStaged {
	return &memStaged{ops: make(map[uuid.UUID]domain.StagedOperation)}
}

func (m *memStaged) Save(_ context.Context, op *domain.StagedOperation, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops[op.Token] = *op
	return nil
}

func (m *memStaged) Get(_ context.Context, token uuid.UUID) (*domain.StagedOperation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	op, ok := m.ops[token]
	if !ok {
		return nil, nil
	}
	return &op, nil
}

func (m *memStaged) UpdateState(_ context.Context, op *domain.StagedOperation) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.ops[op.Token]
	if !ok {
		return false, nil
	}
	cur.State = op.State
	m.ops[op.Token] = cur
	return true, nil
}

func (m *memStaged) Take(_ context.Context, token uuid.UUID) (*domain.StagedOperation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	op, ok := m.ops[token]
	if !ok {
		return nil, nil
	}
	delete(m.ops, token)
	return &op, nil
}

func (m *memStaged) Delete(_ context.Context, token uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.ops, token)
	return nil
}

var _ ports.StagedStore = (*memStaged)(nil)

type workflowDeps struct {
	accounts *mocks.MockAccountRepository
	users    *mocks.MockUserRepository
	otp      *mocks.MockOTPService
	hash     *mocks.MockHashService
	ledger   *mocks.MockLedgerService
	sender   *mocks.MockNotificationSender
	staged   *memStaged
	user     *domain.User
	clock    *time.Time
}

func setupWorkflowService(t *testing.T) (*WorkflowServiceImpl, workflowDeps, *gomock.Controller) {
	ctrl := gomock.NewController(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	d := workflowDeps{
		accounts: mocks.NewMockAccountRepository(ctrl),
		users:    mocks.NewMockUserRepository(ctrl),
		otp:      mocks.NewMockOTPService(ctrl),
		hash:     mocks.NewMockHashService(ctrl),
		ledger:   mocks.NewMockLedgerService(ctrl),
		sender:   mocks.NewMockNotificationSender(ctrl),
		staged:   newMemStaged(),
		user: &domain.User{
			ID:                 uuid.New(),
			Username:           "mona",
			Email:              "mona@example.com",
			SecurityAnswerHash: "$argon2id$answer",
		},
		clock: &now,
	}
	cfg := config.WorkflowConfig{StagedTTL: 10 * time.Minute}
	svc := NewWorkflowService(d.accounts, d.users, d.staged, d.otp, d.hash, d.ledger, d.sender, cfg, newTestLogger())
	svc.now = func() time.Time { return *d.clock }

	d.users.EXPECT().GetByID(gomock.Any(), d.user.ID).Return(d.user, nil).AnyTimes()
	d.sender.EXPECT().Notify(gomock.Any(), domain.NotificationStagedStep, gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	return svc, d, ctrl
}

func (d workflowDeps) ownAccount(number, balance string) *domain.Account {
	a := activeAccount(number, d.user.ID, balance)
	d.accounts.EXPECT().GetByNumber(gomock.Any(), number).Return(a, nil).AnyTimes()
	return a
}

func (d workflowDeps) otherAccount(number string, currency domain.Currency) *domain.Account {
	a := activeAccount(number, uuid.New(), "0")
	a.Currency = currency
	d.accounts.EXPECT().GetByNumber(gomock.Any(), number).Return(a, nil).AnyTimes()
	return a
}

func (d workflowDeps) stageTransfer(t *testing.T, svc *WorkflowServiceImpl) *domain.StagedOperation {
	d.ownAccount("1001", "500")
	d.otherAccount("2002", domain.CurrencyEGP)
	op, err := svc.InitiateTransfer(context.Background(), ports.TransferRequest{
		UserID:                d.user.ID,
		SenderAccountNumber:   "1001",
		ReceiverAccountNumber: "2002",
		Amount:                decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	return op
}

func TestWorkflow_Withdrawal_HappyPath(t *testing.T) {
	svc, d, ctrl := setupWorkflowService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	d.ownAccount("1001", "500")

	op, err := svc.InitiateWithdrawal(ctx, ports.WithdrawRequest{
		UserID: d.user.ID, AccountNumber: "1001", Amount: decimal.NewFromInt(200),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StagedStateInitiated, op.State)
	assert.Equal(t, d.clock.Add(10*time.Minute), op.ExpiresAt)

	_, err = svc.VerifyWithdrawalUsername(ctx, d.user.ID, op.Token, " mona ")
	require.NoError(t, err)

	want := &domain.Transaction{ID: uuid.New()}
	d.ledger.EXPECT().Withdraw(ctx, ports.WithdrawRequest{
		UserID: d.user.ID, AccountNumber: "1001", Amount: decimal.NewFromInt(200),
	}).Return(want, nil)

	txn, err := svc.Commit(ctx, d.user.ID, op.Token)
	require.NoError(t, err)
	assert.Same(t, want, txn)
}

func TestWorkflow_Withdrawal_WrongUsername(t *testing.T) {
	svc, d, ctrl := setupWorkflowService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	d.ownAccount("1001", "500")

	op, err := svc.InitiateWithdrawal(ctx, ports.WithdrawRequest{UserID: d.user.ID, AccountNumber: "1001", Amount: decimal.NewFromInt(1)})
	require.NoError(t, err)

	_, err = svc.VerifyWithdrawalUsername(ctx, d.user.ID, op.Token, "mallory")
	assert.Equal(t, apperror.CodeIdentityProofMismatch, apperror.CodeOf(err))

	// unconfirmed operations cannot commit and stay staged
	_, err = svc.Commit(ctx, d.user.ID, op.Token)
	assert.Equal(t, apperror.CodeIdentityProofMismatch, apperror.CodeOf(err))
	still, _ := d.staged.Get(ctx, op.Token)
	assert.NotNil(t, still)
}

func TestWorkflow_InitiateWithdrawal_Checks(t *testing.T) {
	svc, d, ctrl := setupWorkflowService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	d.ownAccount("1001", "50")
	unverified := activeAccount("1002", d.user.ID, "1000")
	unverified.KYCVerified = false
	d.accounts.EXPECT().GetByNumber(gomock.Any(), "1002").Return(unverified, nil).AnyTimes()
	d.otherAccount("2002", domain.CurrencyEGP)
	d.accounts.EXPECT().GetByNumber(gomock.Any(), "9999").Return(nil, nil).AnyTimes()

	tests := []struct {
		name    string
		account string
		amount  string
		code    string
	}{
		{"insufficient", "1001", "51", apperror.CodeInsufficientFunds},
		{"not verified", "1002", "1", apperror.CodeNotActivated},
		{"foreign", "2002", "1", apperror.CodeInvalidAccount},
		{"unknown", "9999", "1", apperror.CodeInvalidAccount},
		{"zero", "1001", "0", apperror.CodeInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.InitiateWithdrawal(ctx, ports.WithdrawRequest{
				UserID: d.user.ID, AccountNumber: tt.account, Amount: decimal.RequireFromString(tt.amount),
			})
			assert.Equal(t, tt.code, apperror.CodeOf(err))
		})
	}
}

func TestWorkflow_InitiateTransfer_Checks(t *testing.T) {
	svc, d, ctrl := setupWorkflowService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	d.ownAccount("1001", "500")
	d.otherAccount("2002", domain.CurrencyUSD)
	d.accounts.EXPECT().GetByNumber(gomock.Any(), "9999").Return(nil, nil).AnyTimes()

	_, err := svc.InitiateTransfer(ctx, ports.TransferRequest{UserID: d.user.ID, SenderAccountNumber: "1001", ReceiverAccountNumber: "1001", Amount: decimal.NewFromInt(1)})
	assert.Equal(t, apperror.CodeSameAccount, apperror.CodeOf(err))

	_, err = svc.InitiateTransfer(ctx, ports.TransferRequest{UserID: d.user.ID, SenderAccountNumber: "1001", ReceiverAccountNumber: "2002", Amount: decimal.NewFromInt(1)})
	assert.Equal(t, apperror.CodeCurrencyMismatch, apperror.CodeOf(err))

	_, err = svc.InitiateTransfer(ctx, ports.TransferRequest{UserID: d.user.ID, SenderAccountNumber: "1001", ReceiverAccountNumber: "9999", Amount: decimal.NewFromInt(1)})
	assert.Equal(t, apperror.CodeInvalidAccount, apperror.CodeOf(err))
}

func TestWorkflow_Transfer_HappyPath(t *testing.T) {
	svc, d, ctrl := setupWorkflowService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	op := d.stageTransfer(t, svc)

	d.hash.EXPECT().Verify("alexandria", d.user.SecurityAnswerHash).Return(true, nil)
	d.otp.EXPECT().Issue(ctx, d.user, ports.OTPPurposeTransfer).Return("654321", nil)

	got, err := svc.VerifySecurityAnswer(ctx, d.user.ID, op.Token, "  Alexandria")
	require.NoError(t, err)
	assert.Equal(t, domain.StagedStateSecurityAnswered, got.State)

	d.otp.EXPECT().Verify(ctx, d.user.ID, ports.OTPPurposeTransfer, "654321").Return(true, nil)
	got, err = svc.VerifyTransferOTP(ctx, d.user.ID, op.Token, "654321")
	require.NoError(t, err)
	assert.Equal(t, domain.StagedStateOTPVerified, got.State)

	want := &domain.Transaction{ID: uuid.New()}
	d.ledger.EXPECT().Transfer(ctx, ports.TransferRequest{
		UserID:                d.user.ID,
		SenderAccountNumber:   "1001",
		ReceiverAccountNumber: "2002",
		Amount:                decimal.NewFromInt(100),
	}).Return(want, nil).Times(1)

	txn, err := svc.Commit(ctx, d.user.ID, op.Token)
	require.NoError(t, err)
	assert.Same(t, want, txn)

	// the token is spent
	_, err = svc.Commit(ctx, d.user.ID, op.Token)
	assert.Equal(t, apperror.CodeNoStagedOperation, apperror.CodeOf(err))
}

func TestWorkflow_Transfer_WrongAnswerBlocksCommit(t *testing.T) {
	svc, d, ctrl := setupWorkflowService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	op := d.stageTransfer(t, svc)

	d.hash.EXPECT().Verify("cairo", d.user.SecurityAnswerHash).Return(false, nil)

	_, err := svc.VerifySecurityAnswer(ctx, d.user.ID, op.Token, "Cairo")
	assert.Equal(t, apperror.CodeIdentityProofMismatch, apperror.CodeOf(err))

	// ledger must not be reached
	_, err = svc.Commit(ctx, d.user.ID, op.Token)
	assert.Equal(t, apperror.CodeIdentityProofMismatch, apperror.CodeOf(err))
}

func TestWorkflow_Transfer_RepeatedAnswerResendsOTPOnly(t *testing.T) {
	svc, d, ctrl := setupWorkflowService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	op := d.stageTransfer(t, svc)

	d.hash.EXPECT().Verify("alexandria", d.user.SecurityAnswerHash).Return(true, nil)
	d.otp.EXPECT().Issue(ctx, d.user, ports.OTPPurposeTransfer).Return("654321", nil)
	_, err := svc.VerifySecurityAnswer(ctx, d.user.ID, op.Token, "alexandria")
	require.NoError(t, err)

	// The OTP step completes while the second answer is being checked.
	d.otp.EXPECT().Verify(ctx, d.user.ID, ports.OTPPurposeTransfer, "654321").Return(true, nil)
	d.hash.EXPECT().Verify("alexandria", d.user.SecurityAnswerHash).DoAndReturn(func(string, string) (bool, error) {
		got, err := svc.VerifyTransferOTP(ctx, d.user.ID, op.Token, "654321")
		require.NoError(t, err)
		require.Equal(t, domain.StagedStateOTPVerified, got.State)
		return true, nil
	})
	d.otp.EXPECT().Issue(ctx, d.user, ports.OTPPurposeTransfer).Return("777777", nil)

	got, err := svc.VerifySecurityAnswer(ctx, d.user.ID, op.Token, "alexandria")
	require.NoError(t, err)
	assert.Equal(t, domain.StagedStateSecurityAnswered, got.State)

	cur, _ := d.staged.Get(ctx, op.Token)
	assert.Equal(t, domain.StagedStateOTPVerified, cur.State, "a repeated answer must not roll the state back")

	d.ledger.EXPECT().Transfer(ctx, gomock.Any()).Return(&domain.Transaction{ID: uuid.New()}, nil).Times(1)
	_, err = svc.Commit(ctx, d.user.ID, op.Token)
	assert.NoError(t, err)
}

func TestWorkflow_Transfer_OTPBeforeAnswer(t *testing.T) {
	svc, d, ctrl := setupWorkflowService(t)
	defer ctrl.Finish()

	op := d.stageTransfer(t, svc)

	_, err := svc.VerifyTransferOTP(context.Background(), d.user.ID, op.Token, "123456")
	assert.Equal(t, apperror.CodeIdentityProofMismatch, apperror.CodeOf(err))
}

func TestWorkflow_Transfer_WrongOTP(t *testing.T) {
	svc, d, ctrl := setupWorkflowService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	op := d.stageTransfer(t, svc)

	d.hash.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(true, nil)
	d.otp.EXPECT().Issue(ctx, d.user, ports.OTPPurposeTransfer).Return("654321", nil)
	_, err := svc.VerifySecurityAnswer(ctx, d.user.ID, op.Token, "alexandria")
	require.NoError(t, err)

	d.otp.EXPECT().Verify(ctx, d.user.ID, ports.OTPPurposeTransfer, "111111").Return(false, nil)
	_, err = svc.VerifyTransferOTP(ctx, d.user.ID, op.Token, "111111")
	assert.Equal(t, apperror.CodeIdentityProofMismatch, apperror.CodeOf(err))

	cur, _ := d.staged.Get(ctx, op.Token)
	assert.Equal(t, domain.StagedStateSecurityAnswered, cur.State)
}

func TestWorkflow_Expired(t *testing.T) {
	svc, d, ctrl := setupWorkflowService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	d.ownAccount("1001", "500")
	op, err := svc.InitiateWithdrawal(ctx, ports.WithdrawRequest{UserID: d.user.ID, AccountNumber: "1001", Amount: decimal.NewFromInt(1)})
	require.NoError(t, err)

	*d.clock = d.clock.Add(11 * time.Minute)

	_, err = svc.VerifyWithdrawalUsername(ctx, d.user.ID, op.Token, "mona")
	assert.Equal(t, apperror.CodeNoStagedOperation, apperror.CodeOf(err))
}

func TestWorkflow_ForeignToken(t *testing.T) {
	svc, d, ctrl := setupWorkflowService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	op := d.stageTransfer(t, svc)

	_, err := svc.Commit(ctx, uuid.New(), op.Token)
	assert.Equal(t, apperror.CodeNoStagedOperation, apperror.CodeOf(err))

	err = svc.Cancel(ctx, uuid.New(), op.Token)
	assert.Equal(t, apperror.CodeNoStagedOperation, apperror.CodeOf(err))
}

func TestWorkflow_KindMismatch(t *testing.T) {
	svc, d, ctrl := setupWorkflowService(t)
	defer ctrl.Finish()

	op := d.stageTransfer(t, svc)

	_, err := svc.VerifyWithdrawalUsername(context.Background(), d.user.ID, op.Token, "mona")
	assert.Equal(t, apperror.CodeNoStagedOperation, apperror.CodeOf(err))
}

func TestWorkflow_Cancel(t *testing.T) {
	svc, d, ctrl := setupWorkflowService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	op := d.stageTransfer(t, svc)

	require.NoError(t, svc.Cancel(ctx, d.user.ID, op.Token))

	_, err := svc.Commit(ctx, d.user.ID, op.Token)
	assert.Equal(t, apperror.CodeNoStagedOperation, apperror.CodeOf(err))
}

func TestWorkflow_CommitLedgerError(t *testing.T) {
	svc, d, ctrl := setupWorkflowService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	d.ownAccount("1001", "500")
	op, err := svc.InitiateWithdrawal(ctx, ports.WithdrawRequest{UserID: d.user.ID, AccountNumber: "1001", Amount: decimal.NewFromInt(400)})
	require.NoError(t, err)
	_, err = svc.VerifyWithdrawalUsername(ctx, d.user.ID, op.Token, "mona")
	require.NoError(t, err)

	// balance dropped between staging and commit
	d.ledger.EXPECT().Withdraw(ctx, gomock.Any()).Return(nil, apperror.ErrInsufficientFunds())

	_, err = svc.Commit(ctx, d.user.ID, op.Token)
	assert.Equal(t, apperror.CodeInsufficientFunds, apperror.CodeOf(err))
}

func TestWorkflow_ConcurrentCommitsRunOnce(t *testing.T) {
	svc, d, ctrl := setupWorkflowService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	d.ownAccount("1001", "500")
	op, err := svc.InitiateWithdrawal(ctx, ports.WithdrawRequest{UserID: d.user.ID, AccountNumber: "1001", Amount: decimal.NewFromInt(10)})
	require.NoError(t, err)
	_, err = svc.VerifyWithdrawalUsername(ctx, d.user.ID, op.Token, "mona")
	require.NoError(t, err)

	d.ledger.EXPECT().Withdraw(gomock.Any(), gomock.Any()).Return(&domain.Transaction{}, nil).Times(1)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Commit(ctx, d.user.ID, op.Token)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok int
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.Equal(t, apperror.CodeNoStagedOperation, apperror.CodeOf(err))
	}
	assert.Equal(t, 1, ok)
}

func TestWorkflow_StoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	staged := mocks.NewMockStagedStore(ctrl)
	svc := NewWorkflowService(nil, nil, staged, nil, nil, nil, nil, config.WorkflowConfig{}, newTestLogger())
	staged.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, errors.New("redis down"))

	err := svc.Cancel(context.Background(), uuid.New(), uuid.New())
	assert.Equal(t, apperror.CodeInternal, apperror.CodeOf(err))
}
