package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FindingKind names the detector that produced a Finding.
type FindingKind string

const (
	FindingLargeTransaction FindingKind = "LARGE_TRANSACTION"
	FindingFrequentActivity FindingKind = "FREQUENT_ACTIVITY"
	FindingUnbalancedFlow   FindingKind = "UNBALANCED_FLOW"
)

// Finding is one line of a suspicious-activity report.
type Finding struct {
	Kind    FindingKind `json:"kind"`
	Subject string      `json:"subject"`
	Message string      `json:"message"`
}

// UserActivity is the number of transactions a user initiated in a window.
type UserActivity struct {
	UserID   uuid.UUID
	Username string
	Count    int
}

// AccountFlow sums money sent from and received into one account.
type AccountFlow struct {
	AccountID     uuid.UUID
	AccountNumber string
	Sent          decimal.Decimal
	Received      decimal.Decimal
}

// Net is sent minus received.
func (f AccountFlow) Net() decimal.Decimal {
	return f.Sent.Sub(f.Received)
}
