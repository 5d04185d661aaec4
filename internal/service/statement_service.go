package service

import (
	"context"
	"fmt"
	"time"

	"retail-banking-core/internal/core/domain"
	"retail-banking-core/internal/core/ports"
	"retail-banking-core/pkg/apperror"

	"github.com/rs/zerolog"
)

const (
	defaultPageSize   = 20
	maxPageSize       = 100
	defaultStatement  = 30 * 24 * time.Hour
	maxStatementRange = 366 * 24 * time.Hour
)

// StatementServiceImpl implements ports.StatementService.
type StatementServiceImpl struct {
	txRepo      ports.TransactionRepository
	accountRepo ports.AccountRepository
	exporter    ports.ReportExporter
	log         zerolog.Logger
	now         func() time.Time
}

// NewStatementService creates a new StatementServiceImpl.
func NewStatementService(
	txRepo ports.TransactionRepository,
	accountRepo ports.AccountRepository,
	exporter ports.ReportExporter,
	log zerolog.Logger,
) *StatementServiceImpl {
	return &StatementServiceImpl{
		txRepo:      txRepo,
		accountRepo: accountRepo,
		exporter:    exporter,
		log:         log,
		now:         time.Now,
	}
}

// List returns one page of the user's transactions, newest first.
func (s *StatementServiceImpl) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	if err := s.checkFilter(ctx, params); err != nil {
		return nil, 0, err
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = defaultPageSize
	}
	if params.PageSize > maxPageSize {
		params.PageSize = maxPageSize
	}

	txns, total, err := s.txRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return txns, total, nil
}

// Export renders every matching transaction in the period. The period
// defaults to the last 30 days and may not exceed a year.
func (s *StatementServiceImpl) Export(ctx context.Context, params ports.TransactionListParams) ([]byte, string, error) {
	now := s.now().UTC()
	to := now
	if params.To != nil {
		to = *params.To
	}
	from := to.Add(-defaultStatement)
	if params.From != nil {
		from = *params.From
	}
	if to.Sub(from) > maxStatementRange {
		return nil, "", apperror.Validation("statement period may not exceed one year")
	}
	params.From, params.To = &from, &to
	params.Page, params.PageSize = 0, 0

	if err := s.checkFilter(ctx, params); err != nil {
		return nil, "", err
	}

	txns, _, err := s.txRepo.List(ctx, params)
	if err != nil {
		return nil, "", apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}

	body, contentType, err := s.exporter.Export(ctx, txns, from, to)
	if err != nil {
		return nil, "", apperror.InternalError(fmt.Errorf("export statement: %w", err))
	}

	s.log.Info().
		Str("user_id", params.UserID.String()).
		Int("rows", len(txns)).
		Msg("statement exported")
	return body, contentType, nil
}

func (s *StatementServiceImpl) checkFilter(ctx context.Context, params ports.TransactionListParams) error {
	if params.From != nil && params.To != nil && params.From.After(*params.To) {
		return apperror.Validation("from must not be after to")
	}
	if params.Type != nil {
		switch *params.Type {
		case domain.TransactionTypeDeposit, domain.TransactionTypeWithdraw,
			domain.TransactionTypeTransfer, domain.TransactionTypeInterest:
		default:
			return apperror.Validation("unknown transaction type")
		}
	}
	if params.AccountID == nil {
		return nil
	}

	account, err := s.accountRepo.GetByID(ctx, *params.AccountID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if account == nil || account.UserID != params.UserID {
		return apperror.ErrInvalidAccount()
	}
	return nil
}
