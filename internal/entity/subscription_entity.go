// FILE: internal/entity/subscription_entity.go
package entity

import (
	"strings"
	"time"
)

type PlanTier string

const (
	PlanFree       PlanTier = "FREE"
	PlanBasic      PlanTier = "BASIC"
	PlanPremium    PlanTier = "PREMIUM"
	PlanEnterprise PlanTier = "ENTERPRISE"
)

// ParsePlanTier is case-insensitive and reports false for anything outside the enumeration.
func ParsePlanTier(s string) (PlanTier, bool) {
	switch tier := PlanTier(strings.ToUpper(strings.TrimSpace(s))); tier {
	case PlanFree, PlanBasic, PlanPremium, PlanEnterprise:
		return tier, true
	default:
		return "", false
	}
}

type SubscriptionStatus string

const (
	SubscriptionStatusPending  SubscriptionStatus = "PENDING"
	SubscriptionStatusActive   SubscriptionStatus = "ACTIVE"
	SubscriptionStatusCanceled SubscriptionStatus = "CANCELED"
	SubscriptionStatusPastDue  SubscriptionStatus = "PAST_DUE"
	SubscriptionStatusUnpaid   SubscriptionStatus = "UNPAID"
	SubscriptionStatusTrial    SubscriptionStatus = "TRIAL"
)

// Fixed cancellation reasons.
const (
	CancelReasonProvider   = "canceled via provider"
	CancelReasonUser       = "canceled by user"
	CancelReasonAbandoned  = "checkout abandoned"
	CancelReasonSuperseded = "superseded by active subscription"
)

type Subscription struct {
	Id                   uint
	UserId               uint
	Plan                 PlanTier
	Status               SubscriptionStatus
	Amount               float64
	Currency             string
	CurrentPeriodStart   time.Time
	CurrentPeriodEnd     time.Time
	StripeSubscriptionId *string
	StripeCustomerId     string
	CheckoutSessionId    *string
	CanceledAt           *time.Time
	CancelReason         *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive
}

func (s *Subscription) Cancel(at time.Time, reason string) {
	s.Status = SubscriptionStatusCanceled
	s.CanceledAt = &at
	s.CancelReason = &reason
}

// Audit status tags.
const (
	AuditCheckoutCreated       = "CHECKOUT_CREATED"
	AuditCheckoutFailed        = "CHECKOUT_FAILED"
	AuditCheckoutAbandoned     = "CHECKOUT_ABANDONED"
	AuditSubscriptionActivated = "SUBSCRIPTION_ACTIVATED"
	AuditActivationFailed      = "ACTIVATION_FAILED"
	AuditActivationRejected    = "ACTIVATION_REJECTED"
	AuditStatusChanged         = "SUBSCRIPTION_STATUS_CHANGED"
	AuditSubscriptionCanceled  = "SUBSCRIPTION_CANCELED"
	AuditCancelFailed          = "CANCEL_FAILED"
)

// SubscriptionAudit is append-only.
type SubscriptionAudit struct {
	Id              uint
	UserId          uint
	Plan            PlanTier
	StripeSessionId *string
	Status          string
	ErrorMessage    *string
	Details         map[string]interface{}
	CreatedAt       time.Time
}
