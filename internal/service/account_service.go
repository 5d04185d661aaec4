package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"retail-banking-core/internal/core/domain"
	"retail-banking-core/internal/core/ports"
	"retail-banking-core/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// AccountServiceImpl implements ports.AccountService. New accounts start
// inactive and only join the ledger once an account executive verifies KYC.
type AccountServiceImpl struct {
	accountRepo ports.AccountRepository
	profileRepo ports.ProfileRepository
	numbers     ports.AccountNumberGenerator
	transactor  ports.DBTransactor
	notify      notifier
	log         zerolog.Logger
	now         func() time.Time
}

// NewAccountService creates a new AccountServiceImpl.
func NewAccountService(
	accountRepo ports.AccountRepository,
	profileRepo ports.ProfileRepository,
	userRepo ports.UserRepository,
	numbers ports.AccountNumberGenerator,
	transactor ports.DBTransactor,
	sender ports.NotificationSender,
	log zerolog.Logger,
) *AccountServiceImpl {
	return &AccountServiceImpl{
		accountRepo: accountRepo,
		profileRepo: profileRepo,
		numbers:     numbers,
		transactor:  transactor,
		notify:      notifier{users: userRepo, sender: sender, log: log},
		log:         log,
		now:         time.Now,
	}
}

// Open creates an account for the user. The profile must be complete and a
// user holds at most one account per currency and type. The first account
// becomes the primary one.
func (s *AccountServiceImpl) Open(ctx context.Context, userID uuid.UUID, currency domain.Currency, accountType domain.AccountType) (*domain.Account, error) {
	if !currency.Valid() {
		return nil, apperror.Validation("unsupported currency")
	}
	if !accountType.Valid() {
		return nil, apperror.Validation("unknown account type")
	}

	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get profile: %w", err))
	}
	if profile == nil || !profile.IsComplete() {
		return nil, apperror.Validation("complete your profile before opening an account")
	}

	existing, err := s.accountRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list accounts: %w", err))
	}
	for _, a := range existing {
		if a.Currency == currency && a.Type == accountType {
			return nil, apperror.ErrConflict(fmt.Sprintf("a %s %s account already exists", currency, strings.ToLower(string(accountType))))
		}
	}

	number, err := s.numbers.Next(ctx, currency)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate account number: %w", err))
	}

	now := s.now().UTC()
	account := &domain.Account{
		ID:        uuid.New(),
		Number:    number,
		UserID:    userID,
		Currency:  currency,
		Type:      accountType,
		Balance:   decimal.Zero,
		Status:    domain.AccountStatusInactive,
		IsPrimary: len(existing) == 0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create account: %w", err))
	}

	s.log.Info().
		Str("user_id", userID.String()).
		Str("account", account.Number).
		Str("currency", string(currency)).
		Str("type", string(accountType)).
		Msg("account opened")
	return account, nil
}

// List returns the user's accounts.
func (s *AccountServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list accounts: %w", err))
	}
	return accounts, nil
}

// Get returns one of the user's accounts by number.
func (s *AccountServiceImpl) Get(ctx context.Context, userID uuid.UUID, number string) (*domain.Account, error) {
	account, err := s.accountRepo.GetByNumber(ctx, number)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if account == nil || account.UserID != userID {
		return nil, apperror.ErrInvalidAccount()
	}
	return account, nil
}

// SetPrimary makes the account the user's only primary account.
func (s *AccountServiceImpl) SetPrimary(ctx context.Context, userID uuid.UUID, number string) (*domain.Account, error) {
	account, err := s.Get(ctx, userID, number)
	if err != nil {
		return nil, err
	}
	if account.IsPrimary {
		return account, nil
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.accountRepo.SetPrimary(ctx, dbTx, userID, account.ID); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("set primary: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	account.IsPrimary = true
	return account, nil
}

// SubmitKYC marks the account as waiting for executive review.
func (s *AccountServiceImpl) SubmitKYC(ctx context.Context, userID uuid.UUID, number string) (*domain.Account, error) {
	account, err := s.Get(ctx, userID, number)
	if err != nil {
		return nil, err
	}
	if account.KYCVerified {
		return nil, apperror.ErrConflict("account is already verified")
	}
	if account.KYCSubmitted {
		return account, nil
	}

	account.KYCSubmitted = true
	account.UpdatedAt = s.now().UTC()
	if err := s.accountRepo.UpdateKYC(ctx, account); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("submit kyc: %w", err))
	}

	s.log.Info().Str("account", account.Number).Msg("kyc submitted")
	return account, nil
}

// VerifyKYC records an executive's decision. Approval activates the
// account; rejection sends it back to the customer for resubmission.
func (s *AccountServiceImpl) VerifyKYC(ctx context.Context, req ports.KYCReview) (*domain.Account, error) {
	account, err := s.accountRepo.GetByNumber(ctx, req.AccountNumber)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrInvalidAccount()
	}
	if !account.KYCSubmitted {
		return nil, apperror.Validation("kyc has not been submitted for this account")
	}
	if account.KYCVerified {
		return nil, apperror.ErrConflict("account is already verified")
	}

	now := s.now().UTC()
	executive := req.ExecutiveID
	account.VerifiedBy = &executive
	account.VerificationDate = &now
	account.VerificationNotes = req.Notes
	account.UpdatedAt = now
	if req.Verified {
		account.KYCVerified = true
		account.FullyActivated = true
		account.Status = domain.AccountStatusActive
	} else {
		account.KYCSubmitted = false
	}

	if err := s.accountRepo.UpdateKYC(ctx, account); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("verify kyc: %w", err))
	}

	s.log.Info().
		Str("account", account.Number).
		Str("executive_id", executive.String()).
		Bool("verified", req.Verified).
		Msg("kyc reviewed")

	if req.Verified {
		s.notify.toUser(ctx, account.UserID, domain.NotificationAccountActivated, map[string]string{
			"account_number": account.Number,
			"currency":       string(account.Currency),
			"account_type":   string(account.Type),
		})
	}
	return account, nil
}
