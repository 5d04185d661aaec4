package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"retail-banking-core/config"
	"retail-banking-core/internal/core/domain"
	"retail-banking-core/internal/core/ports"
	"retail-banking-core/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WorkflowServiceImpl implements ports.WorkflowService. A staged operation
// only ever advances; failed proofs leave it as it was so the user can retry
// until it expires.
type WorkflowServiceImpl struct {
	accountRepo ports.AccountRepository
	userRepo    ports.UserRepository
	staged      ports.StagedStore
	otp         ports.OTPService
	hashSvc     ports.HashService
	ledger      ports.LedgerService
	notify      notifier
	ttl         time.Duration
	log         zerolog.Logger
	now         func() time.Time
}

// NewWorkflowService creates a new WorkflowServiceImpl.
func NewWorkflowService(
	accountRepo ports.AccountRepository,
	userRepo ports.UserRepository,
	staged ports.StagedStore,
	otp ports.OTPService,
	hashSvc ports.HashService,
	ledger ports.LedgerService,
	sender ports.NotificationSender,
	cfg config.WorkflowConfig,
	log zerolog.Logger,
) *WorkflowServiceImpl {
	return &WorkflowServiceImpl{
		accountRepo: accountRepo,
		userRepo:    userRepo,
		staged:      staged,
		otp:         otp,
		hashSvc:     hashSvc,
		ledger:      ledger,
		notify:      notifier{users: userRepo, sender: sender, log: log},
		ttl:         cfg.StagedTTL,
		log:         log,
		now:         time.Now,
	}
}

// NormalizeAnswer is applied to security answers before hashing and before
// comparison.
func NormalizeAnswer(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}

// InitiateWithdrawal checks the request against the current balance and
// stages it. Funds are checked again under lock at commit.
func (s *WorkflowServiceImpl) InitiateWithdrawal(ctx context.Context, req ports.WithdrawRequest) (*domain.StagedOperation, error) {
	if err := validateAmount(req.Amount); err != nil {
		return nil, err
	}

	account, err := s.ownedVerifiedAccount(ctx, req.UserID, req.AccountNumber)
	if err != nil {
		return nil, err
	}
	if !account.CanCover(req.Amount) {
		return nil, apperror.ErrInsufficientFunds()
	}

	return s.stage(ctx, &domain.StagedOperation{
		Kind:          domain.StagedKindWithdrawal,
		UserID:        req.UserID,
		AccountNumber: account.Number,
		Amount:        req.Amount,
		Description:   req.Description,
	})
}

// VerifyWithdrawalUsername confirms a staged withdrawal by re-entering the
// username.
func (s *WorkflowServiceImpl) VerifyWithdrawalUsername(ctx context.Context, userID, token uuid.UUID, username string) (*domain.StagedOperation, error) {
	op, err := s.load(ctx, userID, token, domain.StagedKindWithdrawal)
	if err != nil {
		return nil, err
	}

	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Username != strings.TrimSpace(username) {
		return nil, apperror.ErrIdentityProofMismatch()
	}

	return s.advance(ctx, op, user, domain.StagedStateConfirmed)
}

// InitiateTransfer validates both accounts and stages the transfer.
func (s *WorkflowServiceImpl) InitiateTransfer(ctx context.Context, req ports.TransferRequest) (*domain.StagedOperation, error) {
	if err := validateAmount(req.Amount); err != nil {
		return nil, err
	}
	if req.SenderAccountNumber == req.ReceiverAccountNumber {
		return nil, apperror.ErrSameAccount()
	}

	sender, err := s.ownedVerifiedAccount(ctx, req.UserID, req.SenderAccountNumber)
	if err != nil {
		return nil, err
	}
	receiver, err := s.accountRepo.GetByNumber(ctx, req.ReceiverAccountNumber)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get receiver account: %w", err))
	}
	if receiver == nil {
		return nil, apperror.ErrInvalidAccount()
	}
	if sender.Currency != receiver.Currency {
		return nil, apperror.ErrCurrencyMismatch()
	}
	if !sender.CanCover(req.Amount) {
		return nil, apperror.ErrInsufficientFunds()
	}

	return s.stage(ctx, &domain.StagedOperation{
		Kind:                  domain.StagedKindTransfer,
		UserID:                req.UserID,
		AccountNumber:         sender.Number,
		ReceiverAccountNumber: receiver.Number,
		Amount:                req.Amount,
		Description:           req.Description,
	})
}

// VerifySecurityAnswer checks the answer and sends a transfer OTP. Only an
// INITIATED transfer advances.
func (s *WorkflowServiceImpl) VerifySecurityAnswer(ctx context.Context, userID, token uuid.UUID, answer string) (*domain.StagedOperation, error) {
	op, err := s.load(ctx, userID, token, domain.StagedKindTransfer)
	if err != nil {
		return nil, err
	}
	switch op.State {
	case domain.StagedStateOTPVerified:
		return op, nil
	case domain.StagedStateInitiated, domain.StagedStateSecurityAnswered:
	default:
		return nil, apperror.ErrIdentityProofMismatch()
	}

	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	ok, err := s.hashSvc.Verify(NormalizeAnswer(answer), user.SecurityAnswerHash)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("verify security answer: %w", err))
	}
	if !ok {
		return nil, apperror.ErrIdentityProofMismatch()
	}

	// A repeated answer only re-sends the OTP; the state is written once.
	if op.State == domain.StagedStateInitiated {
		op, err = s.advance(ctx, op, user, domain.StagedStateSecurityAnswered)
		if err != nil {
			return nil, err
		}
	}
	if _, err := s.otp.Issue(ctx, user, ports.OTPPurposeTransfer); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("issue transfer otp: %w", err))
	}
	return op, nil
}

// VerifyTransferOTP accepts the code sent after the security answer.
func (s *WorkflowServiceImpl) VerifyTransferOTP(ctx context.Context, userID, token uuid.UUID, code string) (*domain.StagedOperation, error) {
	op, err := s.load(ctx, userID, token, domain.StagedKindTransfer)
	if err != nil {
		return nil, err
	}
	if op.State != domain.StagedStateSecurityAnswered {
		return nil, apperror.ErrIdentityProofMismatch()
	}

	ok, err := s.otp.Verify(ctx, userID, ports.OTPPurposeTransfer, strings.TrimSpace(code))
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("verify transfer otp: %w", err))
	}
	if !ok {
		return nil, apperror.ErrIdentityProofMismatch()
	}

	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.advance(ctx, op, user, domain.StagedStateOTPVerified)
}

// Commit removes the staged operation and hands it to the ledger. The
// removal is atomic, so a token commits at most once even when two commits
// race.
func (s *WorkflowServiceImpl) Commit(ctx context.Context, userID, token uuid.UUID) (*domain.Transaction, error) {
	op, err := s.load(ctx, userID, token, "")
	if err != nil {
		return nil, err
	}
	if !op.Ready() {
		return nil, apperror.ErrIdentityProofMismatch()
	}

	taken, err := s.staged.Take(ctx, token)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("take staged operation: %w", err))
	}
	if taken == nil || taken.UserID != userID || !taken.Ready() || taken.Expired(s.now()) {
		return nil, apperror.ErrNoStagedOperation()
	}

	s.log.Info().
		Str("token", token.String()).
		Str("kind", string(taken.Kind)).
		Str("user_id", userID.String()).
		Msg("committing staged operation")

	switch taken.Kind {
	case domain.StagedKindWithdrawal:
		return s.ledger.Withdraw(ctx, ports.WithdrawRequest{
			UserID:        taken.UserID,
			AccountNumber: taken.AccountNumber,
			Amount:        taken.Amount,
			Description:   taken.Description,
		})
	case domain.StagedKindTransfer:
		return s.ledger.Transfer(ctx, ports.TransferRequest{
			UserID:                taken.UserID,
			SenderAccountNumber:   taken.AccountNumber,
			ReceiverAccountNumber: taken.ReceiverAccountNumber,
			Amount:                taken.Amount,
			Description:           taken.Description,
		})
	}
	return nil, apperror.InternalError(fmt.Errorf("unknown staged kind %q", taken.Kind))
}

// Cancel abandons a staged operation.
func (s *WorkflowServiceImpl) Cancel(ctx context.Context, userID, token uuid.UUID) error {
	if _, err := s.load(ctx, userID, token, ""); err != nil {
		return err
	}
	if err := s.staged.Delete(ctx, token); err != nil {
		return apperror.InternalError(fmt.Errorf("delete staged operation: %w", err))
	}
	s.log.Info().Str("token", token.String()).Msg("staged operation cancelled")
	return nil
}

func (s *WorkflowServiceImpl) ownedVerifiedAccount(ctx context.Context, userID uuid.UUID, number string) (*domain.Account, error) {
	account, err := s.accountRepo.GetByNumber(ctx, number)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if account == nil || account.UserID != userID {
		return nil, apperror.ErrInvalidAccount()
	}
	if !account.IsOperational() || !account.KYCVerified {
		return nil, apperror.ErrAccountNotVerified()
	}
	return account, nil
}

func (s *WorkflowServiceImpl) stage(ctx context.Context, op *domain.StagedOperation) (*domain.StagedOperation, error) {
	now := s.now().UTC()
	op.Token = uuid.New()
	op.State = domain.StagedStateInitiated
	op.CreatedAt = now
	op.ExpiresAt = now.Add(s.ttl)

	if err := s.staged.Save(ctx, op, s.ttl); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("save staged operation: %w", err))
	}

	s.log.Info().
		Str("token", op.Token.String()).
		Str("kind", string(op.Kind)).
		Str("account", op.AccountNumber).
		Str("amount", op.Amount.StringFixed(2)).
		Msg("operation staged")

	s.notify.toUser(ctx, op.UserID, domain.NotificationStagedStep, stepData(op))
	return op, nil
}

// load returns the caller's live staged operation. Unknown, expired and
// foreign tokens all look the same to the caller.
func (s *WorkflowServiceImpl) load(ctx context.Context, userID, token uuid.UUID, kind domain.StagedKind) (*domain.StagedOperation, error) {
	op, err := s.staged.Get(ctx, token)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get staged operation: %w", err))
	}
	if op == nil || op.UserID != userID || op.Expired(s.now()) {
		return nil, apperror.ErrNoStagedOperation()
	}
	if kind != "" && op.Kind != kind {
		return nil, apperror.ErrNoStagedOperation()
	}
	return op, nil
}

func (s *WorkflowServiceImpl) advance(ctx context.Context, op *domain.StagedOperation, user *domain.User, state domain.StagedState) (*domain.StagedOperation, error) {
	op.State = state
	ok, err := s.staged.UpdateState(ctx, op)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update staged operation: %w", err))
	}
	if !ok {
		return nil, apperror.ErrNoStagedOperation()
	}
	s.notify.to(ctx, user.Email, domain.NotificationStagedStep, stepData(op))
	return op, nil
}

func (s *WorkflowServiceImpl) user(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrNotFound("User")
	}
	return user, nil
}

func stepData(op *domain.StagedOperation) map[string]string {
	return map[string]string{
		"kind":           string(op.Kind),
		"state":          string(op.State),
		"account_number": op.AccountNumber,
		"amount":         op.Amount.StringFixed(2),
		"expires_at":     op.ExpiresAt.Format(time.RFC3339),
	}
}
