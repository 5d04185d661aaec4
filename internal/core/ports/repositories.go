package ports

import (
	"context"
	"time"

	"retail-banking-core/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// AccountRepository defines persistence operations for bank accounts.
// Methods accepting pgx.Tx are used inside ledger transactions and take a
// row lock that lasts until the transaction ends.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByNumber(ctx context.Context, number string) (*domain.Account, error)
	GetByNumberForUpdate(ctx context.Context, tx pgx.Tx, number string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, balance decimal.Decimal) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Account, error)
	ListInterestBearing(ctx context.Context) ([]domain.Account, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	UpdateKYC(ctx context.Context, account *domain.Account) error
	SetPrimary(ctx context.Context, tx pgx.Tx, userID, accountID uuid.UUID) error
}

// TransactionRepository defines persistence operations for ledger records.
// Records are append-only: there is no update or delete.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	// Monitor queries over [since, now).
	ListLargeSince(ctx context.Context, since time.Time, threshold decimal.Decimal) ([]domain.Transaction, error)
	CountByUserSince(ctx context.Context, since time.Time, minCount int) ([]domain.UserActivity, error)
	NetFlowsSince(ctx context.Context, since time.Time, threshold decimal.Decimal) ([]domain.AccountFlow, error)
}

// TransactionListParams holds filter + pagination for listing transactions.
// UserID restricts results to records where the user is initiator or a party.
type TransactionListParams struct {
	UserID    uuid.UUID
	AccountID *uuid.UUID
	Type      *domain.TransactionType
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}

// CardRepository defines persistence operations for virtual cards.
type CardRepository interface {
	Create(ctx context.Context, card *domain.Card) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Card, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Card, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, balance decimal.Decimal) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	// UpdateLoginState persists status, failed attempts and last failure time.
	UpdateLoginState(ctx context.Context, user *domain.User) error
}

// ProfileRepository defines persistence operations for user profiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	Update(ctx context.Context, profile *domain.Profile) error
}

// AuditRepository persists audit log entries.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
