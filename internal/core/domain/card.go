package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CardStatus represents the lifecycle of a virtual card.
type CardStatus string

const (
	CardStatusActive   CardStatus = "ACTIVE"
	CardStatusInactive CardStatus = "INACTIVE"
	CardStatusExpired  CardStatus = "EXPIRED"
	CardStatusLocked   CardStatus = "LOCKED"
)

// ErrCardNotEmpty is returned when deleting a card that is gone or still
// holds funds.
var ErrCardNotEmpty = errors.New("card missing or balance not zero")

// Card is a virtual card funded from a linked bank account.
type Card struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	AccountID    uuid.UUID       `json:"account_id"`
	Number       string          `json:"-"`
	ExpiryDate   time.Time       `json:"expiry_date"`
	CVVEncrypted string          `json:"-"`
	Balance      decimal.Decimal `json:"balance"`
	Status       CardStatus      `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// LastFour returns the trailing four digits, the only part ever shown.
func (c *Card) LastFour() string {
	if len(c.Number) < 4 {
		return c.Number
	}
	return c.Number[len(c.Number)-4:]
}

// Masked renders the number as "**** **** **** 1234".
func (c *Card) Masked() string {
	return "**** **** **** " + c.LastFour()
}

// IsUsable reports whether the card can receive funds at the given time.
func (c *Card) IsUsable(now time.Time) bool {
	return c.Status == CardStatusActive && now.Before(c.ExpiryDate)
}
