package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
)

// expandableID accepts either a bare id or an expanded object carrying "id".
type expandableID string

func (e *expandableID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*e = expandableID(id)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*e = expandableID(obj.ID)
	return nil
}

func unixTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// DecodeCheckoutSession reads a checkout.session event object with the SDK's
// own type, which resolves customer and subscription whether expanded or not.
func DecodeCheckoutSession(raw []byte) (*CheckoutSession, error) {
	var s stripe.CheckoutSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	if s.ID == "" {
		return nil, fmt.Errorf("decode checkout session: missing id")
	}
	return checkoutFromResource(&s), nil
}

type periodFields struct {
	CurrentPeriodStart int64 `json:"current_period_start"`
	CurrentPeriodEnd   int64 `json:"current_period_end"`
}

type subscriptionPayload struct {
	ID       string       `json:"id"`
	Customer expandableID `json:"customer"`
	Status   string       `json:"status"`
	periodFields
	Items struct {
		Data []periodFields `json:"data"`
	} `json:"items"`
}

// DecodeSubscription reads the billing period from the subscription itself
// and falls back to its first item, where newer API versions put it.
func DecodeSubscription(raw []byte) (*Subscription, error) {
	var p subscriptionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode subscription: %w", err)
	}
	if p.ID == "" {
		return nil, fmt.Errorf("decode subscription: missing id")
	}
	period := p.periodFields
	if period.CurrentPeriodStart == 0 && len(p.Items.Data) > 0 {
		period = p.Items.Data[0]
	}
	return &Subscription{
		ID:                 p.ID,
		CustomerID:         string(p.Customer),
		Status:             p.Status,
		CurrentPeriodStart: unixTime(period.CurrentPeriodStart),
		CurrentPeriodEnd:   unixTime(period.CurrentPeriodEnd),
	}, nil
}

type invoicePayload struct {
	ID               string       `json:"id"`
	Number           string       `json:"number"`
	Customer         expandableID `json:"customer"`
	Subscription     expandableID `json:"subscription"`
	PaymentIntent    expandableID `json:"payment_intent"`
	Charge           expandableID `json:"charge"`
	HostedInvoiceURL string       `json:"hosted_invoice_url"`
	InvoicePDF       string       `json:"invoice_pdf"`
	AmountPaid       int64        `json:"amount_paid"`
	Currency         string       `json:"currency"`
	Created          int64        `json:"created"`
	Parent           struct {
		SubscriptionDetails struct {
			Subscription expandableID `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
	StatusTransitions struct {
		PaidAt int64 `json:"paid_at"`
	} `json:"status_transitions"`
}

func DecodeInvoice(raw []byte) (*Invoice, error) {
	var p invoicePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode invoice: %w", err)
	}
	if p.ID == "" {
		return nil, fmt.Errorf("decode invoice: missing id")
	}
	subID := string(p.Subscription)
	if subID == "" {
		subID = string(p.Parent.SubscriptionDetails.Subscription)
	}
	paidAt := unixTime(p.StatusTransitions.PaidAt)
	if paidAt.IsZero() {
		paidAt = unixTime(p.Created)
	}
	return &Invoice{
		ID:               p.ID,
		Number:           p.Number,
		CustomerID:       string(p.Customer),
		SubscriptionID:   subID,
		PaymentIntentID:  string(p.PaymentIntent),
		ChargeID:         string(p.Charge),
		HostedInvoiceURL: p.HostedInvoiceURL,
		InvoicePDF:       p.InvoicePDF,
		AmountPaid:       p.AmountPaid,
		Currency:         p.Currency,
		PaidAt:           paidAt,
	}, nil
}
