// FILE: internal/entity/billing_entity.go
package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSucceeded PaymentStatus = "SUCCEEDED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

type Payment struct {
	Id                    uint
	UserId                uint
	SubscriptionId        uint
	Amount                float64
	Currency              string
	Status                PaymentStatus
	StripeInvoiceId       string
	StripePaymentIntentId *string
	StripeChargeId        *string
	PaidAt                *time.Time
	FailureReason         *string
	ReceiptUrl            *string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "DRAFT"
	InvoiceStatusSent    InvoiceStatus = "SENT"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
	InvoiceStatusVoid    InvoiceStatus = "VOID"
	InvoiceStatusOverdue InvoiceStatus = "OVERDUE"
)

// InvoiceDueAfter is the payment term printed on every invoice.
const InvoiceDueAfter = 30 * 24 * time.Hour

type Invoice struct {
	Id              uint
	UserId          uint
	SubscriptionId  uint
	PaymentId       *uint
	InvoiceNumber   string
	StripeInvoiceId string
	Amount          float64
	Currency        string
	Status          InvoiceStatus
	DueDate         time.Time
	PaidAt          *time.Time
	HostedUrl       *string
	PdfUrl          *string
	EmailSent       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewInvoiceNumber returns "INV-" followed by eight upper-case hex characters.
func NewInvoiceNumber() string {
	return "INV-" + strings.ToUpper(uuid.New().String()[:8])
}
