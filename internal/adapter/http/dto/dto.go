package dto

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Username         string `json:"username" binding:"required,min=3,max=50,safe_id"`
	Email            string `json:"email" binding:"required,email,max=254"`
	FirstName        string `json:"first_name" binding:"required,max=100"`
	LastName         string `json:"last_name" binding:"max=100"`
	Password         string `json:"password" binding:"required,min=8,max=128" sanitize:"-"`
	SecurityQuestion string `json:"security_question" binding:"required,oneof=MAIDEN_NAME FAVOURITE_COLOR BIRTH_CITY CHILDHOOD_FRIEND"`
	SecurityAnswer   string `json:"security_answer" binding:"required,max=100" sanitize:"-"`
}

// RegisterResponse is the response body for successful registration.
type RegisterResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// LoginRequest is the request body for the password step of login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required" sanitize:"-"`
}

// VerifyOTPRequest completes login with the emailed code.
type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,numeric,len=6"`
}

// LoginResponse is the response body for a completed login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// ProfileUpdateRequest carries optional profile changes.
type ProfileUpdateRequest struct {
	Phone           *string `json:"phone,omitempty" binding:"omitempty,max=20"`
	Address         *string `json:"address,omitempty" binding:"omitempty,max=200"`
	City            *string `json:"city,omitempty" binding:"omitempty,max=100"`
	Country         *string `json:"country,omitempty" binding:"omitempty,max=100"`
	AccountCurrency *string `json:"account_currency,omitempty" binding:"omitempty,currency_code"`
	AccountType     *string `json:"account_type,omitempty" binding:"omitempty,oneof=CURRENT SAVING"`
}

// OpenAccountRequest opens a new account for the caller.
type OpenAccountRequest struct {
	Currency    string `json:"currency" binding:"required,currency_code"`
	AccountType string `json:"account_type" binding:"required,oneof=CURRENT SAVING"`
}

// KYCReviewRequest is an account executive's decision.
type KYCReviewRequest struct {
	Verified *bool  `json:"verified" binding:"required"`
	Notes    string `json:"notes" binding:"max=500"`
}

// DepositRequest is a teller deposit.
type DepositRequest struct {
	AccountNumber string `json:"account_number" binding:"required,numeric"`
	Amount        string `json:"amount" binding:"required,money"`
	Description   string `json:"description" binding:"max=200"`
}

// WithdrawalRequest starts a staged withdrawal.
type WithdrawalRequest struct {
	AccountNumber string `json:"account_number" binding:"required,numeric"`
	Amount        string `json:"amount" binding:"required,money"`
	Description   string `json:"description" binding:"max=200"`
}

// TransferRequest starts a staged transfer.
type TransferRequest struct {
	SenderAccountNumber   string `json:"sender_account_number" binding:"required,numeric"`
	ReceiverAccountNumber string `json:"receiver_account_number" binding:"required,numeric"`
	Amount                string `json:"amount" binding:"required,money"`
	Description           string `json:"description" binding:"max=200"`
}

// StagedTokenRequest names a staged operation.
type StagedTokenRequest struct {
	Token string `json:"token" binding:"required,uuid"`
}

// VerifyUsernameRequest is the withdrawal identity proof.
type VerifyUsernameRequest struct {
	Token    string `json:"token" binding:"required,uuid"`
	Username string `json:"username" binding:"required"`
}

// SecurityAnswerRequest is the first transfer identity proof.
type SecurityAnswerRequest struct {
	Token  string `json:"token" binding:"required,uuid"`
	Answer string `json:"answer" binding:"required,max=100" sanitize:"-"`
}

// TransferOTPRequest is the second transfer identity proof.
type TransferOTPRequest struct {
	Token string `json:"token" binding:"required,uuid"`
	Code  string `json:"code" binding:"required,numeric,len=6"`
}

// StagedResponse describes a staged operation and its current step.
type StagedResponse struct {
	Token                 string `json:"token"`
	Kind                  string `json:"kind"`
	State                 string `json:"state"`
	AccountNumber         string `json:"account_number"`
	ReceiverAccountNumber string `json:"receiver_account_number,omitempty"`
	Amount                string `json:"amount"`
	ExpiresAt             string `json:"expires_at"`
}

// IssueCardRequest issues a card against one of the caller's accounts.
type IssueCardRequest struct {
	AccountNumber string `json:"account_number" binding:"required,numeric"`
}

// CardTopUpRequest funds a card from an account.
type CardTopUpRequest struct {
	AccountNumber string `json:"account_number" binding:"required,numeric"`
	Amount        string `json:"amount" binding:"required,money"`
}

// CardResponse shows a card without its full number.
type CardResponse struct {
	ID         string `json:"id"`
	AccountID  string `json:"account_id"`
	Number     string `json:"number"`
	ExpiryDate string `json:"expiry_date"`
	Balance    string `json:"balance"`
	Status     string `json:"status"`
}

// IssuedCardResponse is returned once, at issue time, with the full number and CVV.
type IssuedCardResponse struct {
	CardResponse
	CVV string `json:"cvv"`
}

// AccountResponse is the public view of an account.
type AccountResponse struct {
	ID             string `json:"id"`
	AccountNumber  string `json:"account_number"`
	Currency       string `json:"currency"`
	AccountType    string `json:"account_type"`
	Balance        string `json:"balance"`
	Status         string `json:"status"`
	IsPrimary      bool   `json:"is_primary"`
	KYCSubmitted   bool   `json:"kyc_submitted"`
	KYCVerified    bool   `json:"kyc_verified"`
	FullyActivated bool   `json:"fully_activated"`
	CreatedAt      string `json:"created_at"`
}

// TransactionResponse is the response body for transaction results.
type TransactionResponse struct {
	ID                string  `json:"id"`
	Type              string  `json:"transaction_type"`
	Amount            string  `json:"amount"`
	Description       string  `json:"description,omitempty"`
	Status            string  `json:"status"`
	SenderAccountID   *string `json:"sender_account_id,omitempty"`
	ReceiverAccountID *string `json:"receiver_account_id,omitempty"`
	CreatedAt         string  `json:"created_at"`
}

// TransactionListQuery binds statement filters from the query string.
type TransactionListQuery struct {
	Type     string `form:"type" binding:"omitempty,oneof=DEPOSIT WITHDRAW TRANSFER INTEREST"`
	From     string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To       string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// TransactionListResponse wraps paginated transaction list.
type TransactionListResponse struct {
	Items      []TransactionResponse `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}
