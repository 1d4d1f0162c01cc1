package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeRoundTripKeepsTypeAndPayload(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	data, err := Encode(BaseEvent{Type: TypeInvoicePaid, Data: map[string]interface{}{"invoice_id": "in_1"}, OccurredAt: at})
	require.NoError(t, err)

	evt, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, TypeInvoicePaid, evt.EventType())
	assert.Equal(t, "in_1", evt.Payload()["invoice_id"])
	assert.True(t, at.Equal(evt.Timestamp()))
}

func TestDecodeRejectsEventsWithoutType(t *testing.T) {
	_, err := Decode([]byte(`{"data":{}}`))
	assert.Error(t, err)
}

func TestChannelBusDeliversToSubscriber(t *testing.T) {
	bus := NewChannelBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Event, 2)
	require.NoError(t, bus.Subscribe(ctx, TypeSubscriptionActivated, func(ctx context.Context, e Event) error {
		received <- e
		return errors.New("handler failures do not block the next message")
	}))

	for _, sub := range []string{"sub_1", "sub_2"} {
		require.NoError(t, bus.Publish(ctx, BaseEvent{
			Type: TypeSubscriptionActivated,
			Data: map[string]interface{}{"subscription_id": sub},
		}))
	}

	// gochannel does not order deliveries across messages.
	var got []interface{}
	for len(got) < 2 {
		select {
		case e := <-received:
			got = append(got, e.Payload()["subscription_id"])
		case <-time.After(2 * time.Second):
			t.Fatalf("delivered %v, want two events", got)
		}
	}
	assert.ElementsMatch(t, []interface{}{"sub_1", "sub_2"}, got)
}

func TestChannelBusIgnoresOtherTypes(t *testing.T) {
	bus := NewChannelBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Event, 1)
	require.NoError(t, bus.Subscribe(ctx, TypeInvoicePaid, func(ctx context.Context, e Event) error {
		received <- e
		return nil
	}))
	require.NoError(t, bus.Publish(ctx, BaseEvent{Type: TypeCheckoutCreated}))

	select {
	case e := <-received:
		t.Fatalf("unexpected delivery of %s", e.EventType())
	case <-time.After(100 * time.Millisecond):
	}
}
