package postgres

import (
	"context"
	"testing"
	"time"

	"retail-banking-core/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCard() *domain.Card {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Card{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		AccountID:    uuid.New(),
		Number:       "4171234567890123",
		ExpiryDate:   now.AddDate(3, 0, 0),
		CVVEncrypted: "ciphertext",
		Balance:      decimal.Zero,
		Status:       domain.CardStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func cardColumnNames() []string {
	return []string{"id", "user_id", "account_id", "card_number", "expiry_date", "cvv_encrypted", "balance",
		"status", "created_at", "updated_at"}
}

func cardRow(c *domain.Card) *pgxmock.Rows {
	return pgxmock.NewRows(cardColumnNames()).AddRow(
		c.ID, c.UserID, c.AccountID, c.Number, c.ExpiryDate, c.CVVEncrypted, c.Balance,
		c.Status, c.CreatedAt, c.UpdatedAt,
	)
}

func TestCardRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCardRepo(mock)
	c := newTestCard()

	mock.ExpectExec("INSERT INTO cards").
		WithArgs(c.ID, c.UserID, c.AccountID, c.Number, c.ExpiryDate, c.CVVEncrypted, decimalEq("0"), c.Status,
			c.CreatedAt, c.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, repo.Create(context.Background(), c))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardRepo_GetByIDForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCardRepo(mock)
	c := newTestCard()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM cards WHERE id = \\$1 FOR UPDATE").
		WithArgs(c.ID).
		WillReturnRows(cardRow(c))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	got, err := repo.GetByIDForUpdate(context.Background(), tx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, c.Number, got.Number)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardRepo_CountByUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCardRepo(mock)
	userID := uuid.New()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))

	n, err := repo.CountByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCardRepo_ListByUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCardRepo(mock)
	c := newTestCard()

	mock.ExpectQuery("SELECT .+ FROM cards WHERE user_id").
		WithArgs(c.UserID).
		WillReturnRows(cardRow(c))

	cards, err := repo.ListByUser(context.Background(), c.UserID)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "0123", cards[0].LastFour())
}

func TestCardRepo_UpdateBalance(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCardRepo(mock)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE cards SET balance").
		WithArgs(decimalEq("75"), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	assert.NoError(t, repo.UpdateBalance(context.Background(), tx, id, decimal.NewFromInt(75)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardRepo_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCardRepo(mock)
	id := uuid.New()

	mock.ExpectExec("DELETE FROM cards WHERE id = \\$1 AND balance = 0").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	assert.NoError(t, repo.Delete(context.Background(), id))
}

func TestCardRepo_Delete_NotEmpty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCardRepo(mock)

	mock.ExpectExec("DELETE FROM cards").
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), uuid.New()), domain.ErrCardNotEmpty)
}
