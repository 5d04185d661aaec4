package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"retail-banking-core/internal/core/domain"
	"retail-banking-core/internal/core/ports/mocks"
	"retail-banking-core/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestTransactionRecorder_Record(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	txRepo := mocks.NewMockTransactionRepository(ctrl)
	rec := NewTransactionRecorder(txRepo)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("EET", 2*3600))
	rec.now = func() time.Time { return fixed }

	ctx := context.Background()
	tx := &mockTx{}
	user := uuid.New()
	account := uuid.New()

	txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)

	txn, err := rec.Record(ctx, tx, RecordEntry{
		UserID:          user,
		Amount:          decimal.RequireFromString("12.50"),
		Type:            domain.TransactionTypeWithdraw,
		Description:     "ATM",
		SenderID:        &user,
		SenderAccountID: &account,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, txn.ID)
	assert.Equal(t, domain.TransactionStatusSuccess, txn.Status)
	assert.Equal(t, time.UTC, txn.CreatedAt.Location())
	assert.True(t, fixed.Equal(txn.CreatedAt))
	assert.Nil(t, txn.ReceiverAccountID)
}

func TestTransactionRecorder_RejectsNonPositive(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	rec := NewTransactionRecorder(mocks.NewMockTransactionRepository(ctrl))

	_, err := rec.Record(context.Background(), &mockTx{}, RecordEntry{Amount: decimal.Zero})
	assert.Equal(t, apperror.CodeInvalidAmount, apperror.CodeOf(err))
}

func TestTransactionRecorder_RepoError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	txRepo := mocks.NewMockTransactionRepository(ctrl)
	rec := NewTransactionRecorder(txRepo)
	dbErr := errors.New("unique violation")
	txRepo.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(dbErr)

	_, err := rec.Record(context.Background(), &mockTx{}, RecordEntry{Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, dbErr)
}
