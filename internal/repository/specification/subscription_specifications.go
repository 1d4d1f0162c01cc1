package specification

import (
	"saas-billing-be/internal/entity"

	"gorm.io/gorm"
)

type ByStatus struct {
	Status entity.SubscriptionStatus
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", string(s.Status))
}

type ByStripeSubscriptionId struct {
	SubscriptionId string
}

func (s ByStripeSubscriptionId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("stripe_subscription_id = ?", s.SubscriptionId)
}

type ByCheckoutSessionId struct {
	SessionId string
}

func (s ByCheckoutSessionId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("checkout_session_id = ?", s.SessionId)
}

type ByStripeInvoiceId struct {
	InvoiceId string
}

func (s ByStripeInvoiceId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("stripe_invoice_id = ?", s.InvoiceId)
}

// Newest orders by creation time, most recent first.
type Newest struct{}

func (s Newest) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}
