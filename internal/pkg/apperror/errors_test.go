package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrappedErrorsMatchTheirSentinel(t *testing.T) {
	err := fmt.Errorf("checkout: %w", ProviderUnavailable(errors.New("dial tcp: timeout")))

	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.NotErrorIs(t, err, ErrSignatureInvalid)
	assert.Contains(t, err.Error(), "dial tcp: timeout")
	assert.Equal(t, "PROVIDER_UNAVAILABLE", Code(err))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"provider outage", ProviderUnavailable(errors.New("503")), true},
		{"subscription not synced", ErrSubscriptionNotSynced, true},
		{"database failure", errors.New("connection reset"), true},
		{"unknown customer", ErrAccountNotFound, false},
		{"redelivered activation", ErrNoPendingSubscription, false},
		{"unknown subscription", ErrSubscriptionNotFound, false},
		{"second active row", ErrAlreadySubscribed, false},
		{"bad payload", Validation("malformed event"), false},
		{"bad signature", ErrSignatureInvalid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrInvalidPlan))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrSignatureInvalid))
	assert.Equal(t, http.StatusConflict, HTTPStatus(ErrEmailTaken))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(ErrForbidden))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrSubscriptionNotFound))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(ProviderUnavailable(nil)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}
