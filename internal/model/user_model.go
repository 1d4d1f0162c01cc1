package model

import (
	"time"
)

type User struct {
	Id               uint    `gorm:"primaryKey;autoIncrement"`
	Email            string  `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash     string  `gorm:"type:varchar(255);not null"`
	FirstName        string  `gorm:"type:varchar(100);not null"`
	LastName         string  `gorm:"type:varchar(100)"`
	Role             string  `gorm:"type:varchar(50);not null;default:'user'"`
	Enabled          bool    `gorm:"not null;default:false"`
	StripeCustomerId *string `gorm:"type:varchar(255);uniqueIndex"`
	LastLoginAt      *time.Time
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

type PasswordResetToken struct {
	Id        uint      `gorm:"primaryKey;autoIncrement"`
	UserId    uint      `gorm:"not null;index"`
	Token     string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"not null"`
	Used      bool      `gorm:"default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}

type EmailVerificationToken struct {
	Id        uint      `gorm:"primaryKey;autoIncrement"`
	UserId    uint      `gorm:"not null;index"`
	Token     string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (EmailVerificationToken) TableName() string {
	return "email_verification_tokens"
}
