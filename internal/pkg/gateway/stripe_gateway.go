package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	portalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/price"
	"github.com/stripe/stripe-go/v82/subscription"
)

// StripeGateway implements BillingGateway with the Stripe API.
// The SDK keeps its key in package state, so one instance per process.
type StripeGateway struct{}

func NewStripeGateway(apiKey string) *StripeGateway {
	stripe.Key = apiKey
	return &StripeGateway{}
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, email, name string, metadata map[string]string) (string, error) {
	params := &stripe.CustomerParams{
		Email:    stripe.String(email),
		Name:     stripe.String(name),
		Metadata: metadata,
	}
	params.Context = ctx
	c, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: create customer: %w", err)
	}
	return c.ID, nil
}

func (g *StripeGateway) RetrievePrice(ctx context.Context, priceID string) (*Price, error) {
	params := &stripe.PriceParams{}
	params.Context = ctx
	p, err := price.Get(priceID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: retrieve price %s: %w", priceID, err)
	}
	return &Price{ID: p.ID, UnitAmount: p.UnitAmount, Currency: string(p.Currency)}, nil
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(req.CustomerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.ClientReferenceID),
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return checkoutFromResource(s), nil
}

func (g *StripeGateway) RetrieveCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := session.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: retrieve checkout session %s: %w", sessionID, err)
	}
	return checkoutFromResource(s), nil
}

func (g *StripeGateway) ExpireCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx
	s, err := session.Expire(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: expire checkout session %s: %w", sessionID, err)
	}
	return checkoutFromResource(s), nil
}

// RetrieveSubscription decodes the raw response so the billing period is read
// from wherever the API version in use places it.
func (g *StripeGateway) RetrieveSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	s, err := subscription.Get(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: retrieve subscription %s: %w", subscriptionID, err)
	}
	if s.LastResponse != nil && len(s.LastResponse.RawJSON) > 0 {
		return DecodeSubscription(s.LastResponse.RawJSON)
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("stripe: encode subscription %s: %w", subscriptionID, err)
	}
	return DecodeSubscription(raw)
}

func (g *StripeGateway) CancelSubscription(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx
	if _, err := subscription.Cancel(subscriptionID, params); err != nil {
		return fmt.Errorf("stripe: cancel subscription %s: %w", subscriptionID, err)
	}
	return nil
}

func (g *StripeGateway) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx
	s, err := portalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: create portal session: %w", err)
	}
	return s.URL, nil
}

func checkoutFromResource(s *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:                s.ID,
		URL:               s.URL,
		ClientReferenceID: s.ClientReferenceID,
		Status:            string(s.Status),
		PaymentStatus:     string(s.PaymentStatus),
		Metadata:          s.Metadata,
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.Subscription != nil {
		out.SubscriptionID = s.Subscription.ID
	}
	return out
}
