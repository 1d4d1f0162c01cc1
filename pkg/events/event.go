package events

import (
	"context"
	"time"
)

// Billing event types. The NATS subject for each is "events.<type>".
const (
	TypeCheckoutCreated          = "CHECKOUT_CREATED"
	TypeSubscriptionActivated    = "SUBSCRIPTION_ACTIVATED"
	TypeSubscriptionStatusChange = "SUBSCRIPTION_STATUS_CHANGED"
	TypeSubscriptionCanceled     = "SUBSCRIPTION_CANCELED"
	TypeInvoicePaid              = "INVOICE_PAID"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "INVOICE_PAID").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Handler processes one delivered event. A returned error asks the transport
// to redeliver where it supports that.
type Handler func(ctx context.Context, event Event) error

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Subscriber delivers events of one type to a handler until ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, eventType string, handler Handler) error
}
