package model

import "time"

type Payment struct {
	Id                    uint    `gorm:"primaryKey;autoIncrement"`
	UserId                uint    `gorm:"not null;index"`
	SubscriptionId        uint    `gorm:"not null;index"`
	Amount                float64 `gorm:"type:decimal(10,2);not null"`
	Currency              string  `gorm:"type:varchar(3);not null"`
	Status                string  `gorm:"type:varchar(20);not null;default:'PENDING'"`
	StripeInvoiceId       string  `gorm:"type:varchar(255);not null;uniqueIndex"`
	StripePaymentIntentId *string `gorm:"type:varchar(255)"`
	StripeChargeId        *string `gorm:"type:varchar(255)"`
	PaidAt                *time.Time
	FailureReason         *string   `gorm:"type:text"`
	ReceiptUrl            *string   `gorm:"type:text"`
	CreatedAt             time.Time `gorm:"autoCreateTime"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime"`
}

func (Payment) TableName() string {
	return "payments"
}

type Invoice struct {
	Id              uint      `gorm:"primaryKey;autoIncrement"`
	UserId          uint      `gorm:"not null;index"`
	SubscriptionId  uint      `gorm:"not null;index"`
	PaymentId       *uint     `gorm:"index"`
	InvoiceNumber   string    `gorm:"type:varchar(20);not null;uniqueIndex"`
	StripeInvoiceId string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	Amount          float64   `gorm:"type:decimal(10,2);not null"`
	Currency        string    `gorm:"type:varchar(3);not null"`
	Status          string    `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	DueDate         time.Time `gorm:"not null"`
	PaidAt          *time.Time
	HostedUrl       *string   `gorm:"type:text"`
	PdfUrl          *string   `gorm:"type:text"`
	EmailSent       bool      `gorm:"default:false"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (Invoice) TableName() string {
	return "invoices"
}
