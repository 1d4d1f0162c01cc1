package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"saas-billing-be/internal/pkg/gateway"
	"saas-billing-be/internal/pkg/mailer"
	"saas-billing-be/pkg/events"
)

var ErrFakeProvider = errors.New("fake provider: service unavailable")

// FakeGateway is an in-memory BillingGateway. Set the *Err fields to make the
// matching call fail.
type FakeGateway struct {
	mu sync.Mutex

	Prices        map[string]*gateway.Price
	Sessions      map[string]*gateway.CheckoutSession
	Subscriptions map[string]*gateway.Subscription
	Canceled      []string

	CreateCustomerErr       error
	RetrievePriceErr        error
	CreateCheckoutErr       error
	RetrieveSubscriptionErr error
	CancelErr               error
	ExpireErr               error

	calls map[string]int
	seq   int
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		Prices: map[string]*gateway.Price{
			"price_basic":      {ID: "price_basic", UnitAmount: 900, Currency: "usd"},
			"price_premium":    {ID: "price_premium", UnitAmount: 2900, Currency: "usd"},
			"price_enterprise": {ID: "price_enterprise", UnitAmount: 9900, Currency: "eur"},
		},
		Sessions:      map[string]*gateway.CheckoutSession{},
		Subscriptions: map[string]*gateway.Subscription{},
		calls:         map[string]int{},
	}
}

// PriceIDs matches the prices NewFakeGateway knows about.
func PriceIDs() map[string]string {
	return map[string]string{
		"BASIC":      "price_basic",
		"PREMIUM":    "price_premium",
		"ENTERPRISE": "price_enterprise",
	}
}

func (g *FakeGateway) Calls(method string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[method]
}

func (g *FakeGateway) record(method string) {
	g.calls[method]++
	g.seq++
}

func (g *FakeGateway) CreateCustomer(ctx context.Context, email, name string, metadata map[string]string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("CreateCustomer")
	if g.CreateCustomerErr != nil {
		return "", g.CreateCustomerErr
	}
	return fmt.Sprintf("cus_%d", g.seq), nil
}

func (g *FakeGateway) RetrievePrice(ctx context.Context, priceID string) (*gateway.Price, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("RetrievePrice")
	if g.RetrievePriceErr != nil {
		return nil, g.RetrievePriceErr
	}
	p, ok := g.Prices[priceID]
	if !ok {
		return nil, fmt.Errorf("no such price: %s", priceID)
	}
	cp := *p
	return &cp, nil
}

func (g *FakeGateway) CreateCheckoutSession(ctx context.Context, req gateway.CheckoutRequest) (*gateway.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("CreateCheckoutSession")
	if g.CreateCheckoutErr != nil {
		return nil, g.CreateCheckoutErr
	}
	id := fmt.Sprintf("cs_test_%d", g.seq)
	s := &gateway.CheckoutSession{
		ID:                id,
		URL:               "https://checkout.test/" + id,
		CustomerID:        req.CustomerID,
		ClientReferenceID: req.ClientReferenceID,
		Status:            "open",
		Metadata:          req.Metadata,
	}
	g.Sessions[id] = s
	cp := *s
	return &cp, nil
}

func (g *FakeGateway) RetrieveCheckoutSession(ctx context.Context, sessionID string) (*gateway.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("RetrieveCheckoutSession")
	s, ok := g.Sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("no such checkout session: %s", sessionID)
	}
	cp := *s
	return &cp, nil
}

// ExpireCheckoutSession follows the provider: only open sessions can be expired.
func (g *FakeGateway) ExpireCheckoutSession(ctx context.Context, sessionID string) (*gateway.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("ExpireCheckoutSession")
	if g.ExpireErr != nil {
		return nil, g.ExpireErr
	}
	s, ok := g.Sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("no such checkout session: %s", sessionID)
	}
	if s.Status != "open" {
		return nil, fmt.Errorf("checkout session %s is %s, only open sessions can be expired", sessionID, s.Status)
	}
	s.Status = "expired"
	cp := *s
	return &cp, nil
}

func (g *FakeGateway) RetrieveSubscription(ctx context.Context, subscriptionID string) (*gateway.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("RetrieveSubscription")
	if g.RetrieveSubscriptionErr != nil {
		return nil, g.RetrieveSubscriptionErr
	}
	s, ok := g.Subscriptions[subscriptionID]
	if !ok {
		return nil, fmt.Errorf("no such subscription: %s", subscriptionID)
	}
	cp := *s
	return &cp, nil
}

func (g *FakeGateway) CancelSubscription(ctx context.Context, subscriptionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("CancelSubscription")
	if g.CancelErr != nil {
		return g.CancelErr
	}
	g.Canceled = append(g.Canceled, subscriptionID)
	if s, ok := g.Subscriptions[subscriptionID]; ok {
		s.Status = "canceled"
	}
	return nil
}

func (g *FakeGateway) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("CreatePortalSession")
	return "https://billing.test/portal/" + customerID, nil
}

// OpenSession registers an open checkout session for rows created directly in
// the database rather than through the initiator.
func (g *FakeGateway) OpenSession(sessionID, customerID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Sessions[sessionID] = &gateway.CheckoutSession{
		ID:         sessionID,
		URL:        "https://checkout.test/" + sessionID,
		CustomerID: customerID,
		Status:     "open",
	}
}

func (g *FakeGateway) SessionStatus(sessionID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if s, ok := g.Sessions[sessionID]; ok {
		return s.Status
	}
	return ""
}

// CompleteCheckout simulates the customer paying: the session completes and
// the provider now knows an active subscription with the given period.
func (g *FakeGateway) CompleteCheckout(sessionID, subscriptionID string, start, end time.Time) *gateway.CheckoutSession {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.Sessions[sessionID]
	if !ok {
		s = &gateway.CheckoutSession{ID: sessionID}
		g.Sessions[sessionID] = s
	}
	s.Status = "complete"
	s.PaymentStatus = "paid"
	s.SubscriptionID = subscriptionID
	g.Subscriptions[subscriptionID] = &gateway.Subscription{
		ID:                 subscriptionID,
		CustomerID:         s.CustomerID,
		Status:             "active",
		CurrentPeriodStart: start.UTC().Truncate(time.Second),
		CurrentPeriodEnd:   end.UTC().Truncate(time.Second),
	}
	cp := *s
	return &cp
}

// RecordingPublisher keeps every published event.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	Err    error
}

func (p *RecordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *RecordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

func (p *RecordingPublisher) Last(eventType string) events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].EventType() == eventType {
			return p.events[i]
		}
	}
	return nil
}

type SentMail struct {
	To       string
	Template mailer.Template
	Vars     map[string]interface{}
}

type FakeMailer struct {
	mu   sync.Mutex
	Sent []SentMail
	Err  error
}

func (m *FakeMailer) SendTemplate(toEmail string, tmpl mailer.Template, vars map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, SentMail{To: toEmail, Template: tmpl, Vars: vars})
	return nil
}

func (m *FakeMailer) Templates() []mailer.Template {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mailer.Template, len(m.Sent))
	for i, s := range m.Sent {
		out[i] = s.Template
	}
	return out
}
