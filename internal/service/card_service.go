package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"retail-banking-core/config"
	"retail-banking-core/internal/core/domain"
	"retail-banking-core/internal/core/ports"
	"retail-banking-core/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const cvvDigits = 3

// CardServiceImpl implements ports.CardService. The CVV is derived from the
// card number and expiry with a keyed HMAC, stored only encrypted, and
// returned in plaintext once at issue time.
type CardServiceImpl struct {
	cardRepo    ports.CardRepository
	accountRepo ports.AccountRepository
	numbers     ports.CardNumberGenerator
	signer      ports.SignatureService
	encSvc      ports.EncryptionService
	ledger      ports.LedgerService
	cfg         config.CardConfig
	log         zerolog.Logger
	now         func() time.Time
}

// NewCardService creates a new CardServiceImpl.
func NewCardService(
	cardRepo ports.CardRepository,
	accountRepo ports.AccountRepository,
	numbers ports.CardNumberGenerator,
	signer ports.SignatureService,
	encSvc ports.EncryptionService,
	ledger ports.LedgerService,
	cfg config.CardConfig,
	log zerolog.Logger,
) *CardServiceImpl {
	return &CardServiceImpl{
		cardRepo:    cardRepo,
		accountRepo: accountRepo,
		numbers:     numbers,
		signer:      signer,
		encSvc:      encSvc,
		ledger:      ledger,
		cfg:         cfg,
		log:         log,
		now:         time.Now,
	}
}

// Issue creates a virtual card linked to one of the user's accounts.
func (s *CardServiceImpl) Issue(ctx context.Context, userID uuid.UUID, accountNumber string) (*ports.IssuedCard, error) {
	count, err := s.cardRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("count cards: %w", err))
	}
	if count >= s.cfg.MaxPerUser {
		return nil, apperror.ErrCardLimitReached(s.cfg.MaxPerUser)
	}

	account, err := s.accountRepo.GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if account == nil || account.UserID != userID {
		return nil, apperror.ErrInvalidAccount()
	}

	number, err := s.numbers.Next(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate card number: %w", err))
	}

	now := s.now().UTC()
	expiry := time.Date(now.Year()+s.cfg.ValidityYears, now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	cvv := s.deriveCVV(number, expiry)
	encryptedCVV, err := s.encSvc.Encrypt(cvv)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("encrypt cvv: %w", err))
	}

	card := &domain.Card{
		ID:           uuid.New(),
		UserID:       userID,
		AccountID:    account.ID,
		Number:       number,
		ExpiryDate:   expiry,
		CVVEncrypted: encryptedCVV,
		Balance:      decimal.Zero,
		Status:       domain.CardStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.cardRepo.Create(ctx, card); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create card: %w", err))
	}

	s.log.Info().
		Str("user_id", userID.String()).
		Str("card_id", card.ID.String()).
		Str("last_four", card.LastFour()).
		Msg("card issued")
	return &ports.IssuedCard{Card: card, Number: number, CVV: cvv}, nil
}

func (s *CardServiceImpl) deriveCVV(number string, expiry time.Time) string {
	sig := s.signer.Sign(s.cfg.CVVSecret, number+"-"+expiry.Format("2006-01-02"))
	return digitsFromSignature(sig, cvvDigits)
}

// List returns the user's cards.
func (s *CardServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]domain.Card, error) {
	cards, err := s.cardRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list cards: %w", err))
	}
	return cards, nil
}

// TopUp funds a card through the ledger.
func (s *CardServiceImpl) TopUp(ctx context.Context, req ports.CardTopUpRequest) (*domain.Transaction, error) {
	return s.ledger.CardTopUp(ctx, req)
}

// Delete removes a card that no longer holds funds.
func (s *CardServiceImpl) Delete(ctx context.Context, userID, cardID uuid.UUID) error {
	card, err := s.cardRepo.GetByID(ctx, cardID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get card: %w", err))
	}
	if card == nil || card.UserID != userID {
		return apperror.ErrNotFound("Card")
	}
	if !card.Balance.IsZero() {
		return apperror.Validation("Card balance must be zero before deletion")
	}

	if err := s.cardRepo.Delete(ctx, cardID); err != nil {
		if errors.Is(err, domain.ErrCardNotEmpty) {
			// topped up since the read above
			return apperror.Validation("Card balance must be zero before deletion")
		}
		return apperror.InternalError(fmt.Errorf("delete card: %w", err))
	}

	s.log.Info().Str("card_id", cardID.String()).Msg("card deleted")
	return nil
}
