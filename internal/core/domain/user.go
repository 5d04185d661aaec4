package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role decides which back-office operations a user may perform.
type Role string

const (
	RoleCustomer         Role = "CUSTOMER"
	RoleAccountExecutive Role = "ACCOUNT_EXECUTIVE"
	RoleTeller           Role = "TELLER"
	RoleBranchManager    Role = "BRANCH_MANAGER"
)

type UserStatus string

const (
	UserStatusActive UserStatus = "ACTIVE"
	UserStatusLocked UserStatus = "LOCKED"
)

// SecurityQuestion is the prompt a user answers to confirm a transfer.
type SecurityQuestion string

const (
	SecurityQuestionMaidenName      SecurityQuestion = "MAIDEN_NAME"
	SecurityQuestionFavouriteColor  SecurityQuestion = "FAVOURITE_COLOR"
	SecurityQuestionBirthCity       SecurityQuestion = "BIRTH_CITY"
	SecurityQuestionChildhoodFriend SecurityQuestion = "CHILDHOOD_FRIEND"
)

func (q SecurityQuestion) Valid() bool {
	switch q {
	case SecurityQuestionMaidenName, SecurityQuestionFavouriteColor,
		SecurityQuestionBirthCity, SecurityQuestionChildhoodFriend:
		return true
	}
	return false
}

// User is a bank customer or staff member.
type User struct {
	ID                  uuid.UUID        `json:"id"`
	Username            string           `json:"username"`
	Email               string           `json:"email"`
	FirstName           string           `json:"first_name"`
	LastName            string           `json:"last_name"`
	PasswordHash        string           `json:"-"`
	SecurityQuestion    SecurityQuestion `json:"security_question"`
	SecurityAnswerHash  string           `json:"-"`
	Role                Role             `json:"role"`
	Status              UserStatus       `json:"status"`
	FailedLoginAttempts int              `json:"-"`
	LastFailedLogin     *time.Time       `json:"-"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// FullName joins first and last name.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// IsLocked reports whether a lockout is still in force at now.
func (u *User) IsLocked(now time.Time, lockout time.Duration) bool {
	if u.Status != UserStatusLocked || u.LastFailedLogin == nil {
		return false
	}
	return now.Sub(*u.LastFailedLogin) < lockout
}

// HasRole reports whether the user holds any of roles.
func (u *User) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// Profile carries the personal details required before an account can be opened.
type Profile struct {
	UserID          uuid.UUID   `json:"user_id"`
	Phone           string      `json:"phone"`
	Address         string      `json:"address"`
	City            string      `json:"city"`
	Country         string      `json:"country"`
	AccountCurrency Currency    `json:"account_currency"`
	AccountType     AccountType `json:"account_type"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// IsComplete reports whether every field needed to open an account is set.
func (p *Profile) IsComplete() bool {
	return p.Phone != "" && p.Address != "" && p.City != "" && p.Country != "" &&
		p.AccountCurrency != "" && p.AccountType != ""
}
