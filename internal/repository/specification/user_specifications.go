package specification

import (
	"gorm.io/gorm"
)

type ByEmail struct {
	Email string
}

func (s ByEmail) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("email = ?", s.Email)
}

type UserOwnedBy struct {
	UserID uint
}

func (s UserOwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

type EnabledUsers struct{}

func (s EnabledUsers) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("enabled = ?", true)
}

type ByStripeCustomerId struct {
	CustomerId string
}

func (s ByStripeCustomerId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("stripe_customer_id = ?", s.CustomerId)
}

// Token Specs

type ByToken struct {
	Token string
}

func (s ByToken) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("token = ?", s.Token)
}

type UnusedToken struct{}

func (s UnusedToken) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("used = ?", false)
}
