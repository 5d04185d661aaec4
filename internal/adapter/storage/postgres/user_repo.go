package postgres

import (
	"context"
	"errors"
	"fmt"

	"retail-banking-core/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, username, email, first_name, last_name, password_hash, security_question,
		security_answer_hash, role, status, failed_login_attempts, last_failed_login, created_at, updated_at`

// UserRepo implements ports.UserRepository.
type UserRepo struct {
	pool Pool
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(pool Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.pool.Exec(ctx, query,
		u.ID, u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.SecurityQuestion,
		u.SecurityAnswerHash, u.Role, u.Status, u.FailedLoginAttempts, u.LastFailedLogin,
		u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id), "get user by id")
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email), "get user by email")
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.pool.QueryRow(ctx, query, username), "get user by username")
}

func (r *UserRepo) UpdateLoginState(ctx context.Context, u *domain.User) error {
	query := `UPDATE users SET status = $1, failed_login_attempts = $2, last_failed_login = $3, updated_at = NOW()
		WHERE id = $4`

	tag, err := r.pool.Exec(ctx, query, u.Status, u.FailedLoginAttempts, u.LastFailedLogin, u.ID)
	if err != nil {
		return fmt.Errorf("update login state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %s", u.ID)
	}
	return nil
}

func scanUser(row pgx.Row, op string) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.SecurityQuestion,
		&u.SecurityAnswerHash, &u.Role, &u.Status, &u.FailedLoginAttempts, &u.LastFailedLogin,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// ProfileRepo implements ports.ProfileRepository.
type ProfileRepo struct {
	pool Pool
}

// NewProfileRepo creates a new ProfileRepo.
func NewProfileRepo(pool Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

func (r *ProfileRepo) Create(ctx context.Context, p *domain.Profile) error {
	query := `INSERT INTO profiles (user_id, phone, address, city, country, account_currency, account_type, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		p.UserID, p.Phone, p.Address, p.City, p.Country, p.AccountCurrency, p.AccountType, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (r *ProfileRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	query := `SELECT user_id, phone, address, city, country, account_currency, account_type, updated_at
		FROM profiles WHERE user_id = $1`

	p := &domain.Profile{}
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.Phone, &p.Address, &p.City, &p.Country, &p.AccountCurrency, &p.AccountType, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (r *ProfileRepo) Update(ctx context.Context, p *domain.Profile) error {
	query := `UPDATE profiles SET phone = $1, address = $2, city = $3, country = $4,
		account_currency = $5, account_type = $6, updated_at = $7
		WHERE user_id = $8`

	tag, err := r.pool.Exec(ctx, query,
		p.Phone, p.Address, p.City, p.Country, p.AccountCurrency, p.AccountType, p.UpdatedAt, p.UserID,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profile not found: %s", p.UserID)
	}
	return nil
}
