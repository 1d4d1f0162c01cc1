// Package gateway is the boundary to the billing provider. Everything above it
// works with the plain structs declared here, never with provider SDK types.
package gateway

import (
	"context"
	"encoding/json"
	"time"
)

// Provider event types the reconciler acts on.
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventSubscriptionUpdated      = "customer.subscription.updated"
	EventSubscriptionDeleted      = "customer.subscription.deleted"
	EventInvoicePaid              = "invoice.paid"
)

type Price struct {
	ID         string
	UnitAmount int64 // minor units
	Currency   string
}

type CheckoutRequest struct {
	CustomerID        string
	PriceID           string
	SuccessURL        string
	CancelURL         string
	ClientReferenceID string
	Metadata          map[string]string
}

type CheckoutSession struct {
	ID                string
	URL               string
	CustomerID        string
	SubscriptionID    string
	ClientReferenceID string
	Status            string
	PaymentStatus     string
	Metadata          map[string]string
}

// Completed reports whether the customer finished the hosted flow.
func (s *CheckoutSession) Completed() bool {
	return s.Status == "complete"
}

func (s *CheckoutSession) Expired() bool {
	return s.Status == "expired"
}

type Subscription struct {
	ID                 string
	CustomerID         string
	Status             string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
}

type Invoice struct {
	ID               string
	Number           string
	CustomerID       string
	SubscriptionID   string
	PaymentIntentID  string
	ChargeID         string
	HostedInvoiceURL string
	InvoicePDF       string
	AmountPaid       int64
	Currency         string
	PaidAt           time.Time
}

type Event struct {
	ID   string
	Type string
	Raw  json.RawMessage // the event's data.object
}

// BillingGateway is the set of synchronous provider calls the system makes.
type BillingGateway interface {
	CreateCustomer(ctx context.Context, email, name string, metadata map[string]string) (string, error)
	RetrievePrice(ctx context.Context, priceID string) (*Price, error)
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	RetrieveCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
	// ExpireCheckoutSession closes an open session so it can no longer be paid.
	// The provider rejects sessions that already completed.
	ExpireCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
	RetrieveSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
}

// EventVerifier authenticates an inbound webhook body against its signature header.
type EventVerifier interface {
	Verify(payload []byte, signature string) (*Event, error)
}

// MinorToMajor converts a provider amount in minor units (cents) to a decimal amount.
func MinorToMajor(amount int64) float64 {
	return float64(amount) / 100
}
