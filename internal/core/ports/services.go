package ports

import (
	"context"
	"time"

	"retail-banking-core/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EncryptionService handles AES-256-GCM encryption/decryption.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// SignatureService handles HMAC-SHA256 signing and verification.
type SignatureService interface {
	Sign(secretKey string, payload string) string
	Verify(secretKey string, payload string, signature string) bool
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID uuid.UUID, role domain.Role) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
	Role   domain.Role
}

// StagedStore keeps staged operations between the confirmation steps.
// Get and Take return nil, nil when the token is unknown or has expired.
type StagedStore interface {
	Save(ctx context.Context, op *domain.StagedOperation, ttl time.Duration) error
	Get(ctx context.Context, token uuid.UUID) (*domain.StagedOperation, error)
	// UpdateState rewrites the state and keeps the remaining TTL.
	// Returns false if the operation disappeared in the meantime.
	UpdateState(ctx context.Context, op *domain.StagedOperation) (bool, error)
	// Take atomically reads and removes the operation.
	Take(ctx context.Context, token uuid.UUID) (*domain.StagedOperation, error)
	Delete(ctx context.Context, token uuid.UUID) error
}

// OTPStore holds one-time codes keyed by purpose and user.
type OTPStore interface {
	Save(ctx context.Context, key string, code string, ttl time.Duration) error
	// Consume deletes the code only when it matches. Returns true on match.
	Consume(ctx context.Context, key string, code string) (bool, error)
}

// InterestGuard makes daily interest at-most-once per account and day.
type InterestGuard interface {
	Acquire(ctx context.Context, accountID uuid.UUID, day time.Time) (bool, error)
	Release(ctx context.Context, accountID uuid.UUID, day time.Time) error
}

// NotificationSender delivers a templated message to a recipient (email
// address or ops mailbox). Delivery is best effort.
type NotificationSender interface {
	Notify(ctx context.Context, kind domain.NotificationKind, recipient string, data map[string]string) error
}

// ReportExporter renders transactions into a downloadable document.
type ReportExporter interface {
	Export(ctx context.Context, txns []domain.Transaction, from, to time.Time) ([]byte, string, error) // body, content type
}

// AccountNumberGenerator produces unused account numbers.
type AccountNumberGenerator interface {
	Next(ctx context.Context, currency domain.Currency) (string, error)
}

// CardNumberGenerator produces unused card numbers.
type CardNumberGenerator interface {
	Next(ctx context.Context) (string, error)
}

// --- Service Ports (Business Logic) ---

// LedgerService is the only path through which balances change. Every call
// commits the balance mutation and its record atomically or not at all.
type LedgerService interface {
	Deposit(ctx context.Context, req DepositRequest) (*domain.Transaction, error)
	Withdraw(ctx context.Context, req WithdrawRequest) (*domain.Transaction, error)
	Transfer(ctx context.Context, req TransferRequest) (*domain.Transaction, error)
	CardTopUp(ctx context.Context, req CardTopUpRequest) (*domain.Transaction, error)
	// ApplyDailyInterest returns nil, nil when nothing accrues.
	ApplyDailyInterest(ctx context.Context, accountID uuid.UUID) (*domain.Transaction, error)
}

// DepositRequest credits an account. PerformedBy is the teller.
type DepositRequest struct {
	PerformedBy   uuid.UUID
	AccountNumber string
	Amount        decimal.Decimal
	Description   string
}

// WithdrawRequest debits an account owned by UserID.
type WithdrawRequest struct {
	UserID        uuid.UUID
	AccountNumber string
	Amount        decimal.Decimal
	Description   string
}

// TransferRequest moves funds from an account owned by UserID.
type TransferRequest struct {
	UserID                uuid.UUID
	SenderAccountNumber   string
	ReceiverAccountNumber string
	Amount                decimal.Decimal
	Description           string
}

// CardTopUpRequest moves funds from an account onto a card of the same user.
type CardTopUpRequest struct {
	UserID        uuid.UUID
	AccountNumber string
	CardID        uuid.UUID
	Amount        decimal.Decimal
}

// WorkflowService stages withdrawals and transfers until identity is proven.
type WorkflowService interface {
	InitiateWithdrawal(ctx context.Context, req WithdrawRequest) (*domain.StagedOperation, error)
	VerifyWithdrawalUsername(ctx context.Context, userID, token uuid.UUID, username string) (*domain.StagedOperation, error)
	InitiateTransfer(ctx context.Context, req TransferRequest) (*domain.StagedOperation, error)
	VerifySecurityAnswer(ctx context.Context, userID, token uuid.UUID, answer string) (*domain.StagedOperation, error)
	VerifyTransferOTP(ctx context.Context, userID, token uuid.UUID, code string) (*domain.StagedOperation, error)
	Commit(ctx context.Context, userID, token uuid.UUID) (*domain.Transaction, error)
	Cancel(ctx context.Context, userID, token uuid.UUID) error
}

// MonitorService scans recent ledger activity and alerts operations staff.
type MonitorService interface {
	Run(ctx context.Context) (int, error)
}

// OTPService issues and checks one-time codes.
type OTPService interface {
	Issue(ctx context.Context, user *domain.User, purpose OTPPurpose) (string, error)
	Verify(ctx context.Context, userID uuid.UUID, purpose OTPPurpose, code string) (bool, error)
}

// OTPPurpose scopes a code so a login code cannot confirm a transfer.
type OTPPurpose string

const (
	OTPPurposeLogin    OTPPurpose = "login"
	OTPPurposeTransfer OTPPurpose = "transfer"
)

// AuthService defines authentication business logic.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.User, error)
	// Login checks the password and sends a login OTP.
	Login(ctx context.Context, email, password string) error
	VerifyLoginOTP(ctx context.Context, email, code string) (string, time.Time, error) // token, expiry, error
}

// RegisterRequest holds input for user registration.
type RegisterRequest struct {
	Username         string
	Email            string
	FirstName        string
	LastName         string
	Password         string
	SecurityQuestion domain.SecurityQuestion
	SecurityAnswer   string
	Role             domain.Role
}

// ProfileService reads and edits the personal details attached to a user.
type ProfileService interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	Update(ctx context.Context, userID uuid.UUID, req ProfileUpdate) (*domain.Profile, error)
}

// ProfileUpdate carries optional profile changes; nil fields are left as is.
type ProfileUpdate struct {
	Phone           *string
	Address         *string
	City            *string
	Country         *string
	AccountCurrency *domain.Currency
	AccountType     *domain.AccountType
}

// AccountService opens accounts and drives KYC.
type AccountService interface {
	Open(ctx context.Context, userID uuid.UUID, currency domain.Currency, accountType domain.AccountType) (*domain.Account, error)
	List(ctx context.Context, userID uuid.UUID) ([]domain.Account, error)
	Get(ctx context.Context, userID uuid.UUID, number string) (*domain.Account, error)
	SetPrimary(ctx context.Context, userID uuid.UUID, number string) (*domain.Account, error)
	SubmitKYC(ctx context.Context, userID uuid.UUID, number string) (*domain.Account, error)
	VerifyKYC(ctx context.Context, req KYCReview) (*domain.Account, error)
}

// KYCReview is an account executive's decision on a submitted account.
type KYCReview struct {
	ExecutiveID   uuid.UUID
	AccountNumber string
	Verified      bool
	Notes         string
}

// CardService issues and funds virtual cards.
type CardService interface {
	Issue(ctx context.Context, userID uuid.UUID, accountNumber string) (*IssuedCard, error)
	List(ctx context.Context, userID uuid.UUID) ([]domain.Card, error)
	TopUp(ctx context.Context, req CardTopUpRequest) (*domain.Transaction, error)
	Delete(ctx context.Context, userID, cardID uuid.UUID) error
}

// IssuedCard carries the plaintext number and CVV, returned only at issue time.
type IssuedCard struct {
	Card   *domain.Card
	Number string
	CVV    string
}

// StatementService lists and exports a user's transactions.
type StatementService interface {
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	Export(ctx context.Context, params TransactionListParams) ([]byte, string, error)
}

// AuditService records audit entries without blocking the caller.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}
