package model

import (
	"time"

	"gorm.io/datatypes"
)

type Subscription struct {
	Id                   uint      `gorm:"primaryKey;autoIncrement"`
	UserId               uint      `gorm:"not null;index"`
	Plan                 string    `gorm:"type:varchar(20);not null"`
	Status               string    `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Amount               float64   `gorm:"type:decimal(10,2);not null"`
	Currency             string    `gorm:"type:varchar(3);not null;default:'USD'"`
	CurrentPeriodStart   time.Time `gorm:"not null"`
	CurrentPeriodEnd     time.Time `gorm:"not null"`
	StripeSubscriptionId *string   `gorm:"type:varchar(255);uniqueIndex"`
	StripeCustomerId     string    `gorm:"type:varchar(255);not null;index"`
	CheckoutSessionId    *string   `gorm:"type:varchar(255);index"`
	CanceledAt           *time.Time
	CancelReason         *string   `gorm:"type:text"`
	CreatedAt            time.Time `gorm:"autoCreateTime"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

type SubscriptionAudit struct {
	Id              uint              `gorm:"primaryKey;autoIncrement"`
	UserId          uint              `gorm:"not null;index"`
	Plan            string            `gorm:"type:varchar(20);not null"`
	StripeSessionId *string           `gorm:"type:varchar(255);index"`
	Status          string            `gorm:"type:varchar(50);not null"`
	ErrorMessage    *string           `gorm:"type:text"`
	Details         datatypes.JSONMap `gorm:"type:json"`
	CreatedAt       time.Time         `gorm:"autoCreateTime"`
}

func (SubscriptionAudit) TableName() string {
	return "subscription_audits"
}

// PostMigrationSQL holds constraints AutoMigrate cannot express. The partial
// unique index keeps a second ACTIVE row per user out of the table even if a
// code path skips the activation guard. Valid on PostgreSQL and SQLite.
var PostMigrationSQL = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_subscriptions_one_active_per_user ON subscriptions (user_id) WHERE status = 'ACTIVE'`,
}
