// FILE: internal/entity/user_entity.go
package entity

import (
	"strings"
	"time"
)

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

type User struct {
	Id           uint
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         UserRole
	// Enabled flips to true once the email address is verified.
	Enabled          bool
	StripeCustomerId *string
	LastLoginAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) HasBillingCustomer() bool {
	return u.StripeCustomerId != nil && *u.StripeCustomerId != ""
}

type PasswordResetToken struct {
	Id        uint
	UserId    uint
	Token     string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

type EmailVerificationToken struct {
	Id        uint
	UserId    uint
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}
