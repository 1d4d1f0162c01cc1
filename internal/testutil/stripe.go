package testutil

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
)

const WebhookSecret = "whsec_test_secret"

// SignedEvent wraps object in a provider event envelope and signs it with
// WebhookSecret. It returns the body and the Stripe-Signature header.
func SignedEvent(t *testing.T, eventID, eventType string, object map[string]interface{}) ([]byte, string) {
	t.Helper()

	body, err := json.Marshal(map[string]interface{}{
		"id":          eventID,
		"object":      "event",
		"type":        eventType,
		"api_version": "2025-03-31.basil",
		"created":     time.Now().Unix(),
		"data":        map[string]interface{}{"object": object},
	})
	require.NoError(t, err)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   body,
		Secret:    WebhookSecret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

// CheckoutCompleted is the data.object of a checkout.session.completed event.
func CheckoutCompleted(sessionID, customerID, subscriptionID string) map[string]interface{} {
	return map[string]interface{}{
		"id":           sessionID,
		"object":       "checkout.session",
		"customer":     customerID,
		"subscription": subscriptionID,
		"status":       "complete",
	}
}
