package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"retail-banking-core/internal/core/domain"
	"retail-banking-core/internal/core/ports"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, user_id, amount, description, sender_id, receiver_id,
		sender_account_id, receiver_account_id, transaction_type, status, created_at`

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts a ledger record within a database transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.UserID, t.Amount, t.Description, t.SenderID, t.ReceiverID,
		t.SenderAccountID, t.ReceiverAccountID, t.Type, t.Status, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// List fetches the user's transactions with filtering and pagination.
// A record belongs to the user when they are its sender or receiver.
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, fmt.Sprintf("(sender_id = $%d OR receiver_id = $%d)", argIdx, argIdx))
	args = append(args, params.UserID)
	argIdx++

	if params.AccountID != nil {
		conditions = append(conditions, fmt.Sprintf("(sender_account_id = $%d OR receiver_account_id = $%d)", argIdx, argIdx))
		args = append(args, *params.AccountID)
		argIdx++
	}
	if params.Type != nil {
		conditions = append(conditions, fmt.Sprintf("transaction_type = $%d", argIdx))
		args = append(args, *params.Type)
		argIdx++
	}
	if params.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, *params.From)
		argIdx++
	}
	if params.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argIdx))
		args = append(args, *params.To)
		argIdx++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	var total int64
	err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM transactions %s", where), args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+transactionColumns+`
		FROM transactions %s ORDER BY created_at DESC`, where)
	if params.PageSize > 0 {
		page := params.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
		args = append(args, params.PageSize, (page-1)*params.PageSize)
	}

	txns, err := r.query(ctx, "list transactions", query, args...)
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// ListLargeSince returns records created at or after since whose amount is
// at least threshold.
func (r *TransactionRepo) ListLargeSince(ctx context.Context, since time.Time, threshold decimal.Decimal) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE created_at >= $1 AND amount >= $2 AND status = 'SUCCESS'
		ORDER BY amount DESC`
	return r.query(ctx, "list large transactions", query, since, threshold)
}

// CountByUserSince returns users who initiated at least minCount records
// since the given time.
func (r *TransactionRepo) CountByUserSince(ctx context.Context, since time.Time, minCount int) ([]domain.UserActivity, error) {
	query := `SELECT t.user_id, u.username, COUNT(*) AS tx_count
		FROM transactions t JOIN users u ON u.id = t.user_id
		WHERE t.created_at >= $1 AND t.status = 'SUCCESS'
		GROUP BY t.user_id, u.username
		HAVING COUNT(*) >= $2
		ORDER BY tx_count DESC`

	rows, err := r.pool.Query(ctx, query, since, minCount)
	if err != nil {
		return nil, fmt.Errorf("count transactions by user: %w", err)
	}
	defer rows.Close()

	var out []domain.UserActivity
	for rows.Next() {
		var a domain.UserActivity
		if err := rows.Scan(&a.UserID, &a.Username, &a.Count); err != nil {
			return nil, fmt.Errorf("scan user activity: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user activity rows: %w", err)
	}
	return out, nil
}

// NetFlowsSince returns accounts whose |sent - received| since the given
// time exceeds threshold.
func (r *TransactionRepo) NetFlowsSince(ctx context.Context, since time.Time, threshold decimal.Decimal) ([]domain.AccountFlow, error) {
	query := `SELECT f.account_id, a.account_number, SUM(f.sent) AS sent, SUM(f.received) AS received
		FROM (
			SELECT sender_account_id AS account_id, amount AS sent, 0::numeric AS received
			FROM transactions
			WHERE sender_account_id IS NOT NULL AND created_at >= $1 AND status = 'SUCCESS'
			UNION ALL
			SELECT receiver_account_id, 0::numeric, amount
			FROM transactions
			WHERE receiver_account_id IS NOT NULL AND created_at >= $1 AND status = 'SUCCESS'
		) f
		JOIN accounts a ON a.id = f.account_id
		GROUP BY f.account_id, a.account_number
		HAVING ABS(SUM(f.sent) - SUM(f.received)) > $2
		ORDER BY a.account_number`

	rows, err := r.pool.Query(ctx, query, since, threshold)
	if err != nil {
		return nil, fmt.Errorf("net flows by account: %w", err)
	}
	defer rows.Close()

	var out []domain.AccountFlow
	for rows.Next() {
		var f domain.AccountFlow
		if err := rows.Scan(&f.AccountID, &f.AccountNumber, &f.Sent, &f.Received); err != nil {
			return nil, fmt.Errorf("scan account flow: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate account flow rows: %w", err)
	}
	return out, nil
}

func (r *TransactionRepo) query(ctx context.Context, op, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t := domain.Transaction{}
		err := rows.Scan(
			&t.ID, &t.UserID, &t.Amount, &t.Description, &t.SenderID, &t.ReceiverID,
			&t.SenderAccountID, &t.ReceiverAccountID, &t.Type, &t.Status, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, nil
}
