package gateway

import (
	"testing"
	"time"

	"saas-billing-be/internal/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
)

const testSecret = "whsec_test_secret"

func signedPayload(t *testing.T, payload string, secret string) *webhook.SignedPayload {
	t.Helper()
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    secret,
		Timestamp: time.Now(),
	})
}

func TestStripeVerifierAcceptsValidSignature(t *testing.T) {
	body := `{"id":"evt_1","object":"event","type":"invoice.paid","data":{"object":{"id":"in_1","object":"invoice"}}}`
	signed := signedPayload(t, body, testSecret)

	evt, err := NewStripeVerifier(testSecret).Verify(signed.Payload, signed.Header)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", evt.ID)
	assert.Equal(t, EventInvoicePaid, evt.Type)
	assert.JSONEq(t, `{"id":"in_1","object":"invoice"}`, string(evt.Raw))
}

func TestStripeVerifierRejectsBadSignatures(t *testing.T) {
	body := `{"id":"evt_1","object":"event","type":"invoice.paid","data":{"object":{}}}`
	v := NewStripeVerifier(testSecret)

	t.Run("wrong secret", func(t *testing.T) {
		signed := signedPayload(t, body, "whsec_other")
		_, err := v.Verify(signed.Payload, signed.Header)
		assert.ErrorIs(t, err, apperror.ErrSignatureInvalid)
	})

	t.Run("tampered body", func(t *testing.T) {
		signed := signedPayload(t, body, testSecret)
		_, err := v.Verify([]byte(body+" "), signed.Header)
		assert.ErrorIs(t, err, apperror.ErrSignatureInvalid)
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := v.Verify([]byte(body), "")
		assert.ErrorIs(t, err, apperror.ErrSignatureInvalid)
	})

	t.Run("unconfigured secret", func(t *testing.T) {
		signed := signedPayload(t, body, testSecret)
		_, err := NewStripeVerifier("").Verify(signed.Payload, signed.Header)
		assert.ErrorIs(t, err, apperror.ErrSignatureInvalid)
	})
}
