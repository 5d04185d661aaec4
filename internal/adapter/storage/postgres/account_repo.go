package postgres

import (
	"context"
	"errors"
	"fmt"

	"retail-banking-core/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const accountColumns = `id, account_number, user_id, currency, account_type, balance, status, is_primary,
		kyc_submitted, kyc_verified, fully_activated, verified_by, verification_date, verification_notes,
		created_at, updated_at`

// AccountRepo implements ports.AccountRepository.
type AccountRepo struct {
	pool Pool
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(pool Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// Create inserts a new account.
func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	query := `INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := r.pool.Exec(ctx, query,
		a.ID, a.Number, a.UserID, a.Currency, a.Type, a.Balance, a.Status, a.IsPrimary,
		a.KYCSubmitted, a.KYCVerified, a.FullyActivated, a.VerifiedBy, a.VerificationDate, a.VerificationNotes,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByID fetches an account by its UUID (without locking).
func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.pool.QueryRow(ctx, query, id), "get account by id")
}

// GetByNumber fetches an account by its account number (without locking).
func (r *AccountRepo) GetByNumber(ctx context.Context, number string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`
	return scanAccount(r.pool.QueryRow(ctx, query, number), "get account by number")
}

// GetByNumberForUpdate fetches an account by number with a row lock.
// This MUST be called within a transaction.
func (r *AccountRepo) GetByNumberForUpdate(ctx context.Context, tx pgx.Tx, number string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1 FOR UPDATE`
	return scanAccount(tx.QueryRow(ctx, query, number), "get account for update by number")
}

// GetByIDForUpdate fetches an account by ID with a row lock.
// This MUST be called within a transaction.
func (r *AccountRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	return scanAccount(tx.QueryRow(ctx, query, id), "get account for update by id")
}

// UpdateBalance writes a new balance within a transaction. The CHECK
// constraint on the column rejects negative values as a last line.
func (r *AccountRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, balance decimal.Decimal) error {
	query := `UPDATE accounts SET balance = $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, balance, id)
	if err != nil {
		return fmt.Errorf("update account balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account not found: %s", id)
	}
	return nil
}

// ListByUser returns every account owned by userID, primary first.
func (r *AccountRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1
		ORDER BY is_primary DESC, created_at`
	return r.list(ctx, "list accounts by user", query, userID)
}

// ListInterestBearing returns the savings accounts the interest job visits.
func (r *AccountRepo) ListInterestBearing(ctx context.Context) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts
		WHERE account_type = 'SAVING' AND status = 'ACTIVE' AND fully_activated AND balance > 0
		ORDER BY account_number`
	return r.list(ctx, "list interest bearing accounts", query)
}

// ExistsByNumber reports whether an account number is taken.
func (r *AccountRepo) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE account_number = $1)`, number).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check account number: %w", err)
	}
	return exists, nil
}

// UpdateKYC persists KYC and activation fields.
func (r *AccountRepo) UpdateKYC(ctx context.Context, a *domain.Account) error {
	query := `UPDATE accounts SET kyc_submitted = $1, kyc_verified = $2, fully_activated = $3, status = $4,
		verified_by = $5, verification_date = $6, verification_notes = $7, updated_at = NOW()
		WHERE id = $8`

	tag, err := r.pool.Exec(ctx, query,
		a.KYCSubmitted, a.KYCVerified, a.FullyActivated, a.Status,
		a.VerifiedBy, a.VerificationDate, a.VerificationNotes, a.ID,
	)
	if err != nil {
		return fmt.Errorf("update account kyc: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account not found: %s", a.ID)
	}
	return nil
}

// SetPrimary marks accountID as the user's only primary account.
func (r *AccountRepo) SetPrimary(ctx context.Context, tx pgx.Tx, userID, accountID uuid.UUID) error {
	query := `UPDATE accounts SET is_primary = (id = $2), updated_at = NOW() WHERE user_id = $1`

	tag, err := tx.Exec(ctx, query, userID, accountID)
	if err != nil {
		return fmt.Errorf("set primary account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no accounts for user: %s", userID)
	}
	return nil
}

func (r *AccountRepo) list(ctx context.Context, op, query string, args ...any) ([]domain.Account, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows, op)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate rows: %w", op, err)
	}
	return accounts, nil
}

func scanAccount(row pgx.Row, op string) (*domain.Account, error) {
	a := &domain.Account{}
	err := row.Scan(
		&a.ID, &a.Number, &a.UserID, &a.Currency, &a.Type, &a.Balance, &a.Status, &a.IsPrimary,
		&a.KYCSubmitted, &a.KYCVerified, &a.FullyActivated, &a.VerifiedBy, &a.VerificationDate, &a.VerificationNotes,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}
