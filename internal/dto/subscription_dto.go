package dto

import (
	"time"
)

type CreateCheckoutRequest struct {
	Plan string `json:"plan" validate:"required"`
}

type CheckoutSessionResponse struct {
	SessionId      string `json:"session_id"`
	URL            string `json:"url"`
	SubscriptionId uint   `json:"subscription_id"`
}

type SubscriptionResponse struct {
	Id                   uint       `json:"id"`
	UserId               uint       `json:"user_id"`
	Plan                 string     `json:"plan"`
	Status               string     `json:"status"`
	Amount               float64    `json:"amount"`
	Currency             string     `json:"currency"`
	CurrentPeriodStart   time.Time  `json:"current_period_start"`
	CurrentPeriodEnd     time.Time  `json:"current_period_end"`
	StripeSubscriptionId *string    `json:"stripe_subscription_id,omitempty"`
	CanceledAt           *time.Time `json:"canceled_at,omitempty"`
	CancelReason         *string    `json:"cancel_reason,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

type PortalSessionResponse struct {
	URL string `json:"url"`
}

type SubscriptionAuditResponse struct {
	Id              uint                   `json:"id"`
	UserId          uint                   `json:"user_id"`
	Plan            string                 `json:"plan"`
	StripeSessionId *string                `json:"stripe_session_id,omitempty"`
	Status          string                 `json:"status"`
	ErrorMessage    *string                `json:"error_message,omitempty"`
	Details         map[string]interface{} `json:"details,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}

type AuditListResponse struct {
	Audits []*SubscriptionAuditResponse `json:"audits"`
	Total  int64                        `json:"total"`
}
