package service

import (
	"context"
	"testing"
	"time"

	"retail-banking-core/internal/core/domain"
	"retail-banking-core/internal/core/ports"
	"retail-banking-core/internal/core/ports/mocks"
	"retail-banking-core/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var statementTestNow = time.Date(2026, 3, 31, 8, 0, 0, 0, time.UTC)

func setupStatementService(t *testing.T) (*StatementServiceImpl, *mocks.MockTransactionRepository, *mocks.MockAccountRepository, *mocks.MockReportExporter, *gomock.Controller) {
	ctrl := gomock.NewController(t)
	txRepo := mocks.NewMockTransactionRepository(ctrl)
	accounts := mocks.NewMockAccountRepository(ctrl)
	exporter := mocks.NewMockReportExporter(ctrl)
	svc := NewStatementService(txRepo, accounts, exporter, newTestLogger())
	svc.now = func() time.Time { return statementTestNow }
	return svc, txRepo, accounts, exporter, ctrl
}

func TestStatementService_List_ClampsPaging(t *testing.T) {
	svc, txRepo, _, _, ctrl := setupStatementService(t)
	defer ctrl.Finish()

	userID := uuid.New()
	txRepo.EXPECT().List(gomock.Any(), ports.TransactionListParams{UserID: userID, Page: 1, PageSize: 100}).
		Return([]domain.Transaction{{ID: uuid.New()}}, int64(1), nil)

	txns, total, err := svc.List(context.Background(), ports.TransactionListParams{UserID: userID, PageSize: 1000})
	require.NoError(t, err)
	assert.Len(t, txns, 1)
	assert.Equal(t, int64(1), total)
}

func TestStatementService_List_ForeignAccount(t *testing.T) {
	svc, _, accounts, _, ctrl := setupStatementService(t)
	defer ctrl.Finish()

	accountID := uuid.New()
	accounts.EXPECT().GetByID(gomock.Any(), accountID).Return(&domain.Account{ID: accountID, UserID: uuid.New()}, nil)

	_, _, err := svc.List(context.Background(), ports.TransactionListParams{UserID: uuid.New(), AccountID: &accountID})
	assert.Equal(t, apperror.CodeInvalidAccount, apperror.CodeOf(err))
}

func TestStatementService_List_BadRange(t *testing.T) {
	svc, _, _, _, ctrl := setupStatementService(t)
	defer ctrl.Finish()

	from := statementTestNow
	to := statementTestNow.Add(-time.Hour)
	_, _, err := svc.List(context.Background(), ports.TransactionListParams{UserID: uuid.New(), From: &from, To: &to})
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))
}

func TestStatementService_Export_DefaultPeriod(t *testing.T) {
	svc, txRepo, _, exporter, ctrl := setupStatementService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	from := statementTestNow.Add(-30 * 24 * time.Hour)
	txns := []domain.Transaction{{ID: uuid.New()}}

	txRepo.EXPECT().List(ctx, ports.TransactionListParams{UserID: userID, From: &from, To: &statementTestNow}).
		Return(txns, int64(1), nil)
	exporter.EXPECT().Export(ctx, txns, from, statementTestNow).Return([]byte("csv"), "text/csv", nil)

	body, contentType, err := svc.Export(ctx, ports.TransactionListParams{UserID: userID, Page: 3, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, []byte("csv"), body)
	assert.Equal(t, "text/csv", contentType)
}

func TestStatementService_Export_TooLong(t *testing.T) {
	svc, _, _, _, ctrl := setupStatementService(t)
	defer ctrl.Finish()

	from := statementTestNow.AddDate(-2, 0, 0)
	_, _, err := svc.Export(context.Background(), ports.TransactionListParams{UserID: uuid.New(), From: &from})
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))
}
