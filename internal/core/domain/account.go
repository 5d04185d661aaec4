package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 code supported by the bank.
type Currency string

const (
	CurrencyEGP Currency = "EGP"
	CurrencySAR Currency = "SAR"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// Valid reports whether c is one of the supported currencies.
func (c Currency) Valid() bool {
	switch c {
	case CurrencyEGP, CurrencySAR, CurrencyUSD, CurrencyEUR:
		return true
	}
	return false
}

// AccountType distinguishes interest-bearing accounts from current accounts.
type AccountType string

const (
	AccountTypeCurrent AccountType = "CURRENT"
	AccountTypeSaving  AccountType = "SAVING"
)

func (t AccountType) Valid() bool {
	return t == AccountTypeCurrent || t == AccountTypeSaving
}

// AccountStatus represents whether an account may take part in ledger operations.
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "ACTIVE"
	AccountStatusInactive AccountStatus = "INACTIVE"
)

// Account is a customer bank account. Balance only ever changes through the
// ledger engine, inside the same database transaction that writes the
// matching Transaction row.
type Account struct {
	ID                uuid.UUID       `json:"id"`
	Number            string          `json:"account_number"`
	UserID            uuid.UUID       `json:"user_id"`
	Currency          Currency        `json:"currency"`
	Type              AccountType     `json:"account_type"`
	Balance           decimal.Decimal `json:"balance"`
	Status            AccountStatus   `json:"status"`
	IsPrimary         bool            `json:"is_primary"`
	KYCSubmitted      bool            `json:"kyc_submitted"`
	KYCVerified       bool            `json:"kyc_verified"`
	FullyActivated    bool            `json:"fully_activated"`
	VerifiedBy        *uuid.UUID      `json:"verified_by,omitempty"`
	VerificationDate  *time.Time      `json:"verification_date,omitempty"`
	VerificationNotes string          `json:"verification_notes,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// IsOperational reports whether the account may be debited or credited.
func (a *Account) IsOperational() bool {
	return a.FullyActivated && a.Status == AccountStatusActive
}

// CanCover reports whether the balance covers amount without going negative.
func (a *Account) CanCover(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// InterestRate returns the annual rate for the account's current balance
// tier. Current accounts earn nothing.
func (a *Account) InterestRate() decimal.Decimal {
	if a.Type != AccountTypeSaving {
		return decimal.Zero
	}
	return AnnualRateFor(a.Balance)
}
