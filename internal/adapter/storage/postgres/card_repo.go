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

const cardColumns = `id, user_id, account_id, card_number, expiry_date, cvv_encrypted, balance, status,
		created_at, updated_at`

// CardRepo implements ports.CardRepository.
type CardRepo struct {
	pool Pool
}

// NewCardRepo creates a new CardRepo.
func NewCardRepo(pool Pool) *CardRepo {
	return &CardRepo{pool: pool}
}

func (r *CardRepo) Create(ctx context.Context, c *domain.Card) error {
	query := `INSERT INTO cards (` + cardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		c.ID, c.UserID, c.AccountID, c.Number, c.ExpiryDate, c.CVVEncrypted, c.Balance, c.Status,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert card: %w", err)
	}
	return nil
}

func (r *CardRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`
	return scanCard(r.pool.QueryRow(ctx, query, id), "get card by id")
}

// GetByIDForUpdate locks the card row. Callers lock the funding account first.
func (r *CardRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1 FOR UPDATE`
	return scanCard(tx.QueryRow(ctx, query, id), "get card for update")
}

func (r *CardRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE user_id = $1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		c, err := scanCard(rows, "scan card row")
		if err != nil {
			return nil, err
		}
		cards = append(cards, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate card rows: %w", err)
	}
	return cards, nil
}

func (r *CardRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cards WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cards: %w", err)
	}
	return n, nil
}

func (r *CardRepo) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM cards WHERE card_number = $1)`, number).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check card number: %w", err)
	}
	return exists, nil
}

func (r *CardRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, balance decimal.Decimal) error {
	tag, err := tx.Exec(ctx, `UPDATE cards SET balance = $1, updated_at = NOW() WHERE id = $2`, balance, id)
	if err != nil {
		return fmt.Errorf("update card balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("card not found: %s", id)
	}
	return nil
}

// Delete removes an empty card. The balance guard lives in SQL so a
// concurrent top-up cannot slip in between check and delete.
func (r *CardRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cards WHERE id = $1 AND balance = 0`, id)
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCardNotEmpty
	}
	return nil
}

func scanCard(row pgx.Row, op string) (*domain.Card, error) {
	c := &domain.Card{}
	err := row.Scan(
		&c.ID, &c.UserID, &c.AccountID, &c.Number, &c.ExpiryDate, &c.CVVEncrypted, &c.Balance, &c.Status,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}
