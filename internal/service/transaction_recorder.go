package service

import (
	"context"
	"fmt"
	"time"

	"retail-banking-core/internal/core/domain"
	"retail-banking-core/internal/core/ports"
	"retail-banking-core/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// RecordEntry describes one balance mutation. Party fields are nil when the
// side does not exist (a deposit has no sender).
type RecordEntry struct {
	UserID            uuid.UUID
	Amount            decimal.Decimal
	Type              domain.TransactionType
	Description       string
	SenderID          *uuid.UUID
	ReceiverID        *uuid.UUID
	SenderAccountID   *uuid.UUID
	ReceiverAccountID *uuid.UUID
}

// TransactionRecorder appends ledger records. It only ever inserts, and
// always inside the caller's database transaction so the record commits or
// rolls back with the balance change it describes.
type TransactionRecorder struct {
	txRepo ports.TransactionRepository
	now    func() time.Time
}

// NewTransactionRecorder creates a new TransactionRecorder.
func NewTransactionRecorder(txRepo ports.TransactionRepository) *TransactionRecorder {
	return &TransactionRecorder{txRepo: txRepo, now: time.Now}
}

// Record inserts one SUCCESS record for entry.
func (r *TransactionRecorder) Record(ctx context.Context, dbTx pgx.Tx, entry RecordEntry) (*domain.Transaction, error) {
	if !entry.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	txn := &domain.Transaction{
		ID:                uuid.New(),
		UserID:            entry.UserID,
		Amount:            entry.Amount,
		Description:       entry.Description,
		SenderID:          entry.SenderID,
		ReceiverID:        entry.ReceiverID,
		SenderAccountID:   entry.SenderAccountID,
		ReceiverAccountID: entry.ReceiverAccountID,
		Type:              entry.Type,
		Status:            domain.TransactionStatusSuccess,
		CreatedAt:         r.now().UTC(),
	}
	if err := r.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	return txn, nil
}
