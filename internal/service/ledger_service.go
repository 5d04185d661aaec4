package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"retail-banking-core/internal/core/domain"
	"retail-banking-core/internal/core/ports"
	"retail-banking-core/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// LedgerServiceImpl implements ports.LedgerService. Every operation runs in
// one database transaction: rows are locked FOR UPDATE, checked, mutated and
// recorded, then committed. Any early return rolls everything back.
type LedgerServiceImpl struct {
	accountRepo ports.AccountRepository
	cardRepo    ports.CardRepository
	recorder    *TransactionRecorder
	transactor  ports.DBTransactor
	notify      notifier
	log         zerolog.Logger
	now         func() time.Time
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	accountRepo ports.AccountRepository,
	cardRepo ports.CardRepository,
	txRepo ports.TransactionRepository,
	userRepo ports.UserRepository,
	transactor ports.DBTransactor,
	sender ports.NotificationSender,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		accountRepo: accountRepo,
		cardRepo:    cardRepo,
		recorder:    NewTransactionRecorder(txRepo),
		transactor:  transactor,
		notify:      notifier{users: userRepo, sender: sender, log: log},
		log:         log,
		now:         time.Now,
	}
}

// Deposit credits an account. Any operational account may receive a deposit;
// the caller is the teller performing it.
func (s *LedgerServiceImpl) Deposit(ctx context.Context, req ports.DepositRequest) (*domain.Transaction, error) {
	if err := validateAmount(req.Amount); err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	account, err := s.accountRepo.GetByNumberForUpdate(ctx, dbTx, req.AccountNumber)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrInvalidAccount()
	}
	if !account.IsOperational() {
		return nil, apperror.ErrNotActivated()
	}

	newBalance := account.Balance.Add(req.Amount)
	if err := s.accountRepo.UpdateBalance(ctx, dbTx, account.ID, newBalance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}

	description := req.Description
	if description == "" {
		description = fmt.Sprintf("Deposit of %s to account %s", req.Amount.StringFixed(2), account.Number)
	}
	txn, err := s.recorder.Record(ctx, dbTx, RecordEntry{
		UserID:            req.PerformedBy,
		Amount:            req.Amount,
		Type:              domain.TransactionTypeDeposit,
		Description:       description,
		ReceiverID:        &account.UserID,
		ReceiverAccountID: &account.ID,
	})
	if err != nil {
		return nil, asInternal("record deposit", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, commitFailed(err)
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("account", account.Number).
		Str("teller_id", req.PerformedBy.String()).
		Str("amount", req.Amount.StringFixed(2)).
		Msg("deposit processed")

	s.notify.toUser(ctx, account.UserID, domain.NotificationDeposit, map[string]string{
		"account_number": account.Number,
		"amount":         req.Amount.StringFixed(2),
		"currency":       string(account.Currency),
		"balance":        newBalance.StringFixed(2),
	})
	return txn, nil
}

// Withdraw debits an account owned by the caller.
func (s *LedgerServiceImpl) Withdraw(ctx context.Context, req ports.WithdrawRequest) (*domain.Transaction, error) {
	if err := validateAmount(req.Amount); err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	account, err := s.accountRepo.GetByNumberForUpdate(ctx, dbTx, req.AccountNumber)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock account: %w", err))
	}
	if account == nil || account.UserID != req.UserID {
		return nil, apperror.ErrInvalidAccount()
	}
	if !account.IsOperational() {
		return nil, apperror.ErrNotActivated()
	}
	if !account.CanCover(req.Amount) {
		return nil, apperror.ErrInsufficientFunds()
	}

	newBalance := account.Balance.Sub(req.Amount)
	if err := s.accountRepo.UpdateBalance(ctx, dbTx, account.ID, newBalance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}

	description := req.Description
	if description == "" {
		description = fmt.Sprintf("Withdrawal of %s from account %s", req.Amount.StringFixed(2), account.Number)
	}
	txn, err := s.recorder.Record(ctx, dbTx, RecordEntry{
		UserID:          req.UserID,
		Amount:          req.Amount,
		Type:            domain.TransactionTypeWithdraw,
		Description:     description,
		SenderID:        &account.UserID,
		SenderAccountID: &account.ID,
	})
	if err != nil {
		return nil, asInternal("record withdrawal", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, commitFailed(err)
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("account", account.Number).
		Str("amount", req.Amount.StringFixed(2)).
		Msg("withdrawal processed")

	s.notify.toUser(ctx, account.UserID, domain.NotificationWithdrawal, map[string]string{
		"account_number": account.Number,
		"amount":         req.Amount.StringFixed(2),
		"currency":       string(account.Currency),
		"balance":        newBalance.StringFixed(2),
	})
	return txn, nil
}

// Transfer moves funds between two accounts of the same currency. Both rows
// are locked in ascending account-number order, so two transfers crossing
// in opposite directions queue instead of deadlocking.
func (s *LedgerServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (*domain.Transaction, error) {
	if err := validateAmount(req.Amount); err != nil {
		return nil, err
	}
	if req.SenderAccountNumber == req.ReceiverAccountNumber {
		return nil, apperror.ErrSameAccount()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	sender, receiver, err := s.lockPair(ctx, dbTx, req.SenderAccountNumber, req.ReceiverAccountNumber)
	if err != nil {
		return nil, err
	}
	if sender == nil || sender.UserID != req.UserID || receiver == nil {
		return nil, apperror.ErrInvalidAccount()
	}
	if !sender.IsOperational() || !receiver.IsOperational() {
		return nil, apperror.ErrNotActivated()
	}
	if sender.Currency != receiver.Currency {
		return nil, apperror.ErrCurrencyMismatch()
	}
	if !sender.CanCover(req.Amount) {
		return nil, apperror.ErrInsufficientFunds()
	}

	senderBalance := sender.Balance.Sub(req.Amount)
	receiverBalance := receiver.Balance.Add(req.Amount)
	if err := s.accountRepo.UpdateBalance(ctx, dbTx, sender.ID, senderBalance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("debit sender: %w", err))
	}
	if err := s.accountRepo.UpdateBalance(ctx, dbTx, receiver.ID, receiverBalance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("credit receiver: %w", err))
	}

	description := req.Description
	if description == "" {
		description = fmt.Sprintf("Transfer of %s from %s to %s",
			req.Amount.StringFixed(2), sender.Number, receiver.Number)
	}
	txn, err := s.recorder.Record(ctx, dbTx, RecordEntry{
		UserID:            req.UserID,
		Amount:            req.Amount,
		Type:              domain.TransactionTypeTransfer,
		Description:       description,
		SenderID:          &sender.UserID,
		ReceiverID:        &receiver.UserID,
		SenderAccountID:   &sender.ID,
		ReceiverAccountID: &receiver.ID,
	})
	if err != nil {
		return nil, asInternal("record transfer", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, commitFailed(err)
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("from", sender.Number).
		Str("to", receiver.Number).
		Str("amount", req.Amount.StringFixed(2)).
		Msg("transfer processed")

	amount := req.Amount.StringFixed(2)
	s.notify.toUser(ctx, sender.UserID, domain.NotificationTransferSent, map[string]string{
		"account_number": sender.Number,
		"counterparty":   receiver.Number,
		"amount":         amount,
		"currency":       string(sender.Currency),
		"balance":        senderBalance.StringFixed(2),
	})
	s.notify.toUser(ctx, receiver.UserID, domain.NotificationTransferReceived, map[string]string{
		"account_number": receiver.Number,
		"counterparty":   sender.Number,
		"amount":         amount,
		"currency":       string(receiver.Currency),
		"balance":        receiverBalance.StringFixed(2),
	})
	return txn, nil
}

// lockPair locks both accounts in ascending number order and returns them
// as (sender, receiver). Missing accounts come back nil.
func (s *LedgerServiceImpl) lockPair(ctx context.Context, dbTx pgx.Tx, senderNumber, receiverNumber string) (*domain.Account, *domain.Account, error) {
	first, second := senderNumber, receiverNumber
	if second < first {
		first, second = second, first
	}

	a, err := s.accountRepo.GetByNumberForUpdate(ctx, dbTx, first)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("lock account %s: %w", first, err))
	}
	b, err := s.accountRepo.GetByNumberForUpdate(ctx, dbTx, second)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("lock account %s: %w", second, err))
	}

	if first == senderNumber {
		return a, b, nil
	}
	return b, a, nil
}

// CardTopUp moves funds from the caller's account onto one of their cards.
// The account row is locked before the card row.
func (s *LedgerServiceImpl) CardTopUp(ctx context.Context, req ports.CardTopUpRequest) (*domain.Transaction, error) {
	if err := validateAmount(req.Amount); err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	account, err := s.accountRepo.GetByNumberForUpdate(ctx, dbTx, req.AccountNumber)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock account: %w", err))
	}
	if account == nil || account.UserID != req.UserID {
		return nil, apperror.ErrInvalidAccount()
	}
	if !account.IsOperational() {
		return nil, apperror.ErrNotActivated()
	}

	card, err := s.cardRepo.GetByIDForUpdate(ctx, dbTx, req.CardID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock card: %w", err))
	}
	if card == nil || card.UserID != req.UserID {
		return nil, apperror.ErrNotFound("Card")
	}
	// A card is only ever funded from the account it is linked to.
	if card.AccountID != account.ID {
		return nil, apperror.ErrInvalidAccount()
	}
	if !card.IsUsable(s.now()) {
		return nil, apperror.Validation("Card is not active or has expired")
	}
	if !account.CanCover(req.Amount) {
		return nil, apperror.ErrInsufficientFunds()
	}

	newBalance := account.Balance.Sub(req.Amount)
	newCardBalance := card.Balance.Add(req.Amount)
	if err := s.accountRepo.UpdateBalance(ctx, dbTx, account.ID, newBalance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("debit account: %w", err))
	}
	if err := s.cardRepo.UpdateBalance(ctx, dbTx, card.ID, newCardBalance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("credit card: %w", err))
	}

	txn, err := s.recorder.Record(ctx, dbTx, RecordEntry{
		UserID:            req.UserID,
		Amount:            req.Amount,
		Type:              domain.TransactionTypeDeposit,
		Description:       fmt.Sprintf("Top-up for card ending in %s", card.LastFour()),
		SenderID:          &account.UserID,
		ReceiverID:        &account.UserID,
		SenderAccountID:   &account.ID,
		ReceiverAccountID: &account.ID,
	})
	if err != nil {
		return nil, asInternal("record card top-up", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, commitFailed(err)
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("account", account.Number).
		Str("card_id", card.ID.String()).
		Str("amount", req.Amount.StringFixed(2)).
		Msg("card top-up processed")

	s.notify.toUser(ctx, account.UserID, domain.NotificationCardTopUp, map[string]string{
		"card_last_four": card.LastFour(),
		"amount":         req.Amount.StringFixed(2),
		"currency":       string(account.Currency),
		"card_balance":   newCardBalance.StringFixed(2),
	})
	return txn, nil
}

// ApplyDailyInterest credits one day of interest to a savings account. It
// does not remember earlier runs; the scheduler guards against crediting the
// same day twice.
func (s *LedgerServiceImpl) ApplyDailyInterest(ctx context.Context, accountID uuid.UUID) (*domain.Transaction, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	account, err := s.accountRepo.GetByIDForUpdate(ctx, dbTx, accountID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrInvalidAccount()
	}
	if account.Type != domain.AccountTypeSaving {
		return nil, nil
	}
	if !account.IsOperational() {
		return nil, apperror.ErrNotActivated()
	}

	rate := account.InterestRate()
	interest := domain.DailyInterest(account.Balance, rate)
	if !interest.IsPositive() {
		return nil, nil
	}

	newBalance := account.Balance.Add(interest)
	if err := s.accountRepo.UpdateBalance(ctx, dbTx, account.ID, newBalance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}

	txn, err := s.recorder.Record(ctx, dbTx, RecordEntry{
		UserID:            account.UserID,
		Amount:            interest,
		Type:              domain.TransactionTypeInterest,
		Description:       fmt.Sprintf("Daily interest at %s%% annual", rate.Mul(decimal.NewFromInt(100)).StringFixed(2)),
		SenderID:          &account.UserID,
		ReceiverID:        &account.UserID,
		SenderAccountID:   &account.ID,
		ReceiverAccountID: &account.ID,
	})
	if err != nil {
		return nil, asInternal("record interest", err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, commitFailed(err)
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("account", account.Number).
		Str("interest", interest.StringFixed(2)).
		Msg("daily interest applied")

	s.notify.toUser(ctx, account.UserID, domain.NotificationInterestApplied, map[string]string{
		"account_number": account.Number,
		"amount":         interest.StringFixed(2),
		"currency":       string(account.Currency),
		"balance":        newBalance.StringFixed(2),
	})
	return txn, nil
}

// validateAmount rejects non-positive amounts and sub-cent precision.
func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperror.ErrInvalidAmount()
	}
	if !amount.Equal(amount.Truncate(2)) {
		return apperror.Validation("Amount must have at most 2 decimal places")
	}
	return nil
}

// commitFailed wraps a COMMIT error. The server may have applied the
// transaction before the error reached us, so callers must not assume it
// rolled back.
func commitFailed(err error) error {
	return apperror.InternalError(fmt.Errorf("commit tx: %w: %w", domain.ErrCommitOutcomeUnknown, err))
}

// asInternal passes AppErrors through and wraps anything else.
func asInternal(op string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.InternalError(fmt.Errorf("%s: %w", op, err))
}
