package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StagedKind names the ledger operation waiting for confirmation.
type StagedKind string

const (
	StagedKindWithdrawal StagedKind = "WITHDRAWAL"
	StagedKindTransfer   StagedKind = "TRANSFER"
)

// StagedState is a step of the confirmation flow.
//
//	withdrawal: INITIATED -> CONFIRMED
//	transfer:   INITIATED -> SECURITY_ANSWERED -> OTP_VERIFIED
type StagedState string

const (
	StagedStateInitiated        StagedState = "INITIATED"
	StagedStateConfirmed        StagedState = "CONFIRMED"
	StagedStateSecurityAnswered StagedState = "SECURITY_ANSWERED"
	StagedStateOTPVerified      StagedState = "OTP_VERIFIED"
)

// StagedOperation is a withdrawal or transfer held outside the ledger until
// the user proves identity. It is committed at most once.
type StagedOperation struct {
	Token                 uuid.UUID       `json:"token"`
	Kind                  StagedKind      `json:"kind"`
	UserID                uuid.UUID       `json:"user_id"`
	AccountNumber         string          `json:"account_number"`
	ReceiverAccountNumber string          `json:"receiver_account_number,omitempty"`
	Amount                decimal.Decimal `json:"amount"`
	Description           string          `json:"description,omitempty"`
	State                 StagedState     `json:"state"`
	CreatedAt             time.Time       `json:"created_at"`
	ExpiresAt             time.Time       `json:"expires_at"`
}

// Ready reports whether every identity proof for the kind has passed.
func (s *StagedOperation) Ready() bool {
	switch s.Kind {
	case StagedKindWithdrawal:
		return s.State == StagedStateConfirmed
	case StagedKindTransfer:
		return s.State == StagedStateOTPVerified
	}
	return false
}

// Expired reports whether the operation can no longer be confirmed.
func (s *StagedOperation) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
