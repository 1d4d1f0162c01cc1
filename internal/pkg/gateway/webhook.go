package gateway

import (
	"saas-billing-be/internal/pkg/apperror"

	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeVerifier checks the Stripe-Signature header with the endpoint secret.
type StripeVerifier struct {
	secret string
}

func NewStripeVerifier(secret string) *StripeVerifier {
	return &StripeVerifier{secret: secret}
}

func (v *StripeVerifier) Verify(payload []byte, signature string) (*Event, error) {
	if v.secret == "" || signature == "" {
		return nil, apperror.ErrSignatureInvalid
	}
	evt, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, apperror.ErrSignatureInvalid.Wrap(err)
	}
	return &Event{ID: evt.ID, Type: string(evt.Type), Raw: evt.Data.Raw}, nil
}
