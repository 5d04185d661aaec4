// Package generator produces account and card numbers that carry a Luhn
// check digit and are unique against the store.
package generator

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"retail-banking-core/config"
	"retail-banking-core/internal/core/domain"
)

const (
	// AccountNumberLength and CardNumberLength include the check digit.
	AccountNumberLength = 16
	CardNumberLength    = 16

	maxAttempts = 10
)

// ErrExhausted is returned when every attempt collided with an existing number.
var ErrExhausted = errors.New("generator: no unused number after retries")

// ExistsFunc reports whether a number is already taken.
type ExistsFunc func(ctx context.Context, number string) (bool, error)

// AccountNumbers builds numbers as bank code + branch code + currency code +
// random digits + check digit.
type AccountNumbers struct {
	bankCode      string
	branchCode    string
	currencyCodes map[domain.Currency]string
	exists        ExistsFunc
}

// NewAccountNumbers validates the numbering scheme and returns a generator.
func NewAccountNumbers(cfg config.LedgerConfig, exists ExistsFunc) (*AccountNumbers, error) {
	codes := make(map[domain.Currency]string, len(cfg.CurrencyCodes))
	for cur, code := range cfg.CurrencyCodes {
		// viper lower-cases map keys
		codes[domain.Currency(strings.ToUpper(cur))] = code
	}
	g := &AccountNumbers{
		bankCode:      cfg.BankCode,
		branchCode:    cfg.BranchCode,
		currencyCodes: codes,
		exists:        exists,
	}
	for cur, code := range codes {
		prefix := g.bankCode + g.branchCode + code
		if !digitsOnly(prefix) {
			return nil, fmt.Errorf("account number prefix for %s is not numeric", cur)
		}
		if len(prefix) >= AccountNumberLength-1 {
			return nil, fmt.Errorf("account number prefix for %s leaves no random digits", cur)
		}
	}
	return g, nil
}

// Next returns an unused account number for currency.
func (g *AccountNumbers) Next(ctx context.Context, currency domain.Currency) (string, error) {
	code, ok := g.currencyCodes[currency]
	if !ok {
		return "", fmt.Errorf("no currency code configured for %q", currency)
	}
	return nextUnused(ctx, g.bankCode+g.branchCode+code, AccountNumberLength, g.exists)
}

// CardNumbers builds numbers as card prefix + network code + random digits
// + check digit.
type CardNumbers struct {
	prefix string
	exists ExistsFunc
}

// NewCardNumbers validates the card prefix and returns a generator.
func NewCardNumbers(cfg config.LedgerConfig, exists ExistsFunc) (*CardNumbers, error) {
	prefix := cfg.CardPrefix + cfg.CardNetworkCode
	if !digitsOnly(prefix) {
		return nil, errors.New("card prefix is not numeric")
	}
	if len(prefix) >= CardNumberLength-1 {
		return nil, errors.New("card prefix and network code are too long")
	}
	return &CardNumbers{prefix: prefix, exists: exists}, nil
}

// Next returns an unused card number.
func (g *CardNumbers) Next(ctx context.Context) (string, error) {
	return nextUnused(ctx, g.prefix, CardNumberLength, g.exists)
}

func nextUnused(ctx context.Context, prefix string, length int, exists ExistsFunc) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		number, err := compose(prefix, length)
		if err != nil {
			return "", err
		}
		if exists == nil {
			return number, nil
		}
		taken, err := exists(ctx, number)
		if err != nil {
			return "", fmt.Errorf("check number uniqueness: %w", err)
		}
		if !taken {
			return number, nil
		}
	}
	return "", ErrExhausted
}

// compose fills prefix with random digits up to length-1 and appends the
// Luhn check digit.
func compose(prefix string, length int) (string, error) {
	var b strings.Builder
	b.Grow(length)
	b.WriteString(prefix)
	ten := big.NewInt(10)
	for b.Len() < length-1 {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("read random digit: %w", err)
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	payload := b.String()
	return payload + string(LuhnCheckDigit(payload)), nil
}

func digitsOnly(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
