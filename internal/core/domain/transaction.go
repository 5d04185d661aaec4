package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrCommitOutcomeUnknown marks a ledger error raised by COMMIT itself. The
// mutation may or may not have been applied.
var ErrCommitOutcomeUnknown = errors.New("commit outcome unknown")

// TransactionType represents the kind of money movement.
type TransactionType string

const (
	TransactionTypeDeposit  TransactionType = "DEPOSIT"
	TransactionTypeWithdraw TransactionType = "WITHDRAW"
	TransactionTypeTransfer TransactionType = "TRANSFER"
	TransactionTypeInterest TransactionType = "INTEREST"
)

// TransactionStatus represents the lifecycle state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "PENDING"
	TransactionStatusSuccess TransactionStatus = "SUCCESS"
	TransactionStatusFailed  TransactionStatus = "FAILED"
)

// Transaction is an immutable ledger record. The party fields are optional:
// a deposit has no sender, a withdrawal has no receiver.
type Transaction struct {
	ID                uuid.UUID         `json:"id"`
	UserID            uuid.UUID         `json:"user_id"`
	Amount            decimal.Decimal   `json:"amount"`
	Description       string            `json:"description"`
	SenderID          *uuid.UUID        `json:"sender_id,omitempty"`
	ReceiverID        *uuid.UUID        `json:"receiver_id,omitempty"`
	SenderAccountID   *uuid.UUID        `json:"sender_account_id,omitempty"`
	ReceiverAccountID *uuid.UUID        `json:"receiver_account_id,omitempty"`
	Type              TransactionType   `json:"transaction_type"`
	Status            TransactionStatus `json:"status"`
	CreatedAt         time.Time         `json:"created_at"`
}

// IsTerminal returns true if the transaction is in a final state.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusSuccess || t.Status == TransactionStatusFailed
}

// Touches reports whether the record moved money into or out of accountID.
func (t *Transaction) Touches(accountID uuid.UUID) bool {
	return (t.SenderAccountID != nil && *t.SenderAccountID == accountID) ||
		(t.ReceiverAccountID != nil && *t.ReceiverAccountID == accountID)
}
