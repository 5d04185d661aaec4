package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAnnualRateFor_Tiers(t *testing.T) {
	tests := []struct {
		name    string
		balance string
		want    string
	}{
		{"zero", "0", "0.005"},
		{"just below mid", "99999.99", "0.005"},
		{"mid boundary", "100000", "0.01"},
		{"just below high", "499999.99", "0.01"},
		{"high boundary", "500000", "0.015"},
		{"very large", "12000000", "0.015"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, dec(tt.want).Equal(AnnualRateFor(dec(tt.balance))))
		})
	}
}

func TestDailyInterest(t *testing.T) {
	tests := []struct {
		name    string
		balance string
		want    string
	}{
		{"fifty thousand", "50000", "0.68"},
		{"one hundred thousand", "100000", "2.74"},
		{"five hundred thousand", "500000", "20.55"},
		{"rounds half up", "365", "0.01"},
		{"rounds down to zero", "100", "0"},
		{"zero balance", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := dec(tt.balance)
			got := DailyInterest(b, AnnualRateFor(b))
			assert.True(t, dec(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestAccount_InterestRate(t *testing.T) {
	saving := &Account{Type: AccountTypeSaving, Balance: dec("150000")}
	current := &Account{Type: AccountTypeCurrent, Balance: dec("150000")}

	assert.True(t, dec("0.01").Equal(saving.InterestRate()))
	assert.True(t, current.InterestRate().IsZero())
}

func TestAccount_IsOperational(t *testing.T) {
	tests := []struct {
		name      string
		activated bool
		status    AccountStatus
		want      bool
	}{
		{"activated and active", true, AccountStatusActive, true},
		{"activated but inactive", true, AccountStatusInactive, false},
		{"active but not activated", false, AccountStatusActive, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Account{FullyActivated: tt.activated, Status: tt.status}
			assert.Equal(t, tt.want, a.IsOperational())
		})
	}
}

func TestAccount_CanCover(t *testing.T) {
	a := &Account{Balance: dec("100.00")}
	assert.True(t, a.CanCover(dec("100")))
	assert.True(t, a.CanCover(dec("0.01")))
	assert.False(t, a.CanCover(dec("100.01")))
}

func TestCurrency_Valid(t *testing.T) {
	assert.True(t, CurrencyEGP.Valid())
	assert.True(t, CurrencyEUR.Valid())
	assert.False(t, Currency("GBP").Valid())
	assert.True(t, AccountTypeSaving.Valid())
	assert.False(t, AccountType("BROKERAGE").Valid())
}

func TestTransaction_IsTerminal(t *testing.T) {
	tests := []struct {
		name   string
		status TransactionStatus
		want   bool
	}{
		{"pending", TransactionStatusPending, false},
		{"success", TransactionStatusSuccess, true},
		{"failed", TransactionStatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := &Transaction{Status: tt.status}
			assert.Equal(t, tt.want, tx.IsTerminal())
		})
	}
}

func TestTransaction_Touches(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	tx := &Transaction{SenderAccountID: &a, ReceiverAccountID: &b}

	assert.True(t, tx.Touches(a))
	assert.True(t, tx.Touches(b))
	assert.False(t, tx.Touches(c))
	assert.False(t, (&Transaction{}).Touches(a))
}

func TestCard_Masking(t *testing.T) {
	c := &Card{Number: "4170000000001234"}
	assert.Equal(t, "1234", c.LastFour())
	assert.Equal(t, "**** **** **** 1234", c.Masked())
}

func TestCard_IsUsable(t *testing.T) {
	now := time.Now()
	assert.True(t, (&Card{Status: CardStatusActive, ExpiryDate: now.Add(time.Hour)}).IsUsable(now))
	assert.False(t, (&Card{Status: CardStatusActive, ExpiryDate: now.Add(-time.Hour)}).IsUsable(now))
	assert.False(t, (&Card{Status: CardStatusLocked, ExpiryDate: now.Add(time.Hour)}).IsUsable(now))
}

func TestUser_IsLocked(t *testing.T) {
	now := time.Now()
	recent := now.Add(-10 * time.Minute)
	old := now.Add(-45 * time.Minute)

	assert.True(t, (&User{Status: UserStatusLocked, LastFailedLogin: &recent}).IsLocked(now, 30*time.Minute))
	assert.False(t, (&User{Status: UserStatusLocked, LastFailedLogin: &old}).IsLocked(now, 30*time.Minute))
	assert.False(t, (&User{Status: UserStatusActive, LastFailedLogin: &recent}).IsLocked(now, 30*time.Minute))
}

func TestUser_HasRole(t *testing.T) {
	u := &User{Role: RoleTeller}
	assert.True(t, u.HasRole(RoleTeller, RoleBranchManager))
	assert.False(t, u.HasRole(RoleCustomer))
}

func TestProfile_IsComplete(t *testing.T) {
	p := &Profile{Phone: "+201000000000", Address: "1 Nile St", City: "Cairo", Country: "EG",
		AccountCurrency: CurrencyEGP, AccountType: AccountTypeSaving}
	assert.True(t, p.IsComplete())

	p.City = ""
	assert.False(t, p.IsComplete())
}

func TestStagedOperation_Ready(t *testing.T) {
	tests := []struct {
		name  string
		kind  StagedKind
		state StagedState
		want  bool
	}{
		{"withdrawal initiated", StagedKindWithdrawal, StagedStateInitiated, false},
		{"withdrawal confirmed", StagedKindWithdrawal, StagedStateConfirmed, true},
		{"transfer initiated", StagedKindTransfer, StagedStateInitiated, false},
		{"transfer security answered", StagedKindTransfer, StagedStateSecurityAnswered, false},
		{"transfer otp verified", StagedKindTransfer, StagedStateOTPVerified, true},
		{"transfer with withdrawal state", StagedKindTransfer, StagedStateConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := &StagedOperation{Kind: tt.kind, State: tt.state}
			assert.Equal(t, tt.want, op.Ready())
		})
	}
}

func TestStagedOperation_Expired(t *testing.T) {
	now := time.Now()
	assert.False(t, (&StagedOperation{ExpiresAt: now.Add(time.Minute)}).Expired(now))
	assert.True(t, (&StagedOperation{ExpiresAt: now}).Expired(now))
	assert.False(t, (&StagedOperation{}).Expired(now))
}

func TestAccountFlow_Net(t *testing.T) {
	f := AccountFlow{Sent: dec("1500.50"), Received: dec("200.25")}
	assert.True(t, dec("1300.25").Equal(f.Net()))
}

func TestTransactionType_Constants(t *testing.T) {
	assert.Equal(t, TransactionType("DEPOSIT"), TransactionTypeDeposit)
	assert.Equal(t, TransactionType("WITHDRAW"), TransactionTypeWithdraw)
	assert.Equal(t, TransactionType("TRANSFER"), TransactionTypeTransfer)
	assert.Equal(t, TransactionType("INTEREST"), TransactionTypeInterest)
}
