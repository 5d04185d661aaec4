package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"retail-banking-core/internal/core/domain"
	"retail-banking-core/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const otpDigits = 6

// OTPServiceImpl implements ports.OTPService on top of an OTPStore.
type OTPServiceImpl struct {
	store  ports.OTPStore
	sender ports.NotificationSender
	expiry time.Duration
	log    zerolog.Logger
}

// NewOTPService creates a new OTPServiceImpl. Codes expire after expiry.
func NewOTPService(store ports.OTPStore, sender ports.NotificationSender, expiry time.Duration, log zerolog.Logger) *OTPServiceImpl {
	return &OTPServiceImpl{
		store:  store,
		sender: sender,
		expiry: expiry,
		log:    log,
	}
}

func otpKey(purpose ports.OTPPurpose, userID uuid.UUID) string {
	return string(purpose) + ":" + userID.String()
}

// Issue generates a code, stores it and sends it to the user's email. A new
// code replaces any earlier one for the same purpose.
func (s *OTPServiceImpl) Issue(ctx context.Context, user *domain.User, purpose ports.OTPPurpose) (string, error) {
	code, err := generateOTP()
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	if err := s.store.Save(ctx, otpKey(purpose, user.ID), code, s.expiry); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}

	kind := domain.NotificationLoginOTP
	if purpose == ports.OTPPurposeTransfer {
		kind = domain.NotificationTransferOTP
	}
	n := notifier{sender: s.sender, log: s.log}
	n.to(ctx, user.Email, kind, map[string]string{
		"otp":        code,
		"expires_in": s.expiry.String(),
		"name":       user.FullName(),
	})
	return code, nil
}

// Verify consumes the code when it matches.
func (s *OTPServiceImpl) Verify(ctx context.Context, userID uuid.UUID, purpose ports.OTPPurpose, code string) (bool, error) {
	if len(code) != otpDigits {
		return false, nil
	}
	ok, err := s.store.Consume(ctx, otpKey(purpose, userID), code)
	if err != nil {
		return false, fmt.Errorf("consume otp: %w", err)
	}
	return ok, nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}
