package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"saas-billing-be/internal/pkg/apperror"
	"saas-billing-be/internal/pkg/serverutils"
	"saas-billing-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWebhookService struct {
	payload   []byte
	signature string
	result    *service.WebhookResult
	err       error
}

func (s *stubWebhookService) HandleStripeEvent(ctx context.Context, payload []byte, signature string) (*service.WebhookResult, error) {
	s.payload = payload
	s.signature = signature
	return s.result, s.err
}

func newWebhookApp(svc service.IWebhookService) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	NewWebhookController(svc).RegisterRoutes(app.Group("/api"))
	return app
}

func postWebhook(t *testing.T, app *fiber.App, body string) (int, serverutils.BaseResponse[map[string]interface{}]) {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/webhook/stripe", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")

	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out serverutils.BaseResponse[map[string]interface{}]
	require.NoError(t, json.Unmarshal(raw, &out))
	return resp.StatusCode, out
}

func TestStripeWebhookAcknowledgesHandledEvents(t *testing.T) {
	svc := &stubWebhookService{result: &service.WebhookResult{EventId: "evt_1", Type: "invoice.paid", Outcome: service.OutcomeProcessed}}
	app := newWebhookApp(svc)

	status, body := postWebhook(t, app, `{"id":"evt_1"}`)

	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, body.Success)
	assert.Equal(t, "processed", body.Data["outcome"])
	assert.Equal(t, `{"id":"evt_1"}`, string(svc.payload))
	assert.Equal(t, "t=1,v1=abc", svc.signature)
}

func TestStripeWebhookAcknowledgesIgnoredEvents(t *testing.T) {
	svc := &stubWebhookService{result: &service.WebhookResult{EventId: "evt_2", Outcome: service.OutcomeIgnored}}

	status, body := postWebhook(t, newWebhookApp(svc), `{}`)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ignored", body.Data["outcome"])
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	svc := &stubWebhookService{err: apperror.ErrSignatureInvalid.Wrap(errors.New("no valid signature"))}

	status, body := postWebhook(t, newWebhookApp(svc), `{}`)

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.False(t, body.Success)
}

func TestStripeWebhookAsksForRedelivery(t *testing.T) {
	svc := &stubWebhookService{err: apperror.ErrSubscriptionNotSynced}

	status, body := postWebhook(t, newWebhookApp(svc), `{}`)

	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "SUBSCRIPTION_NOT_SYNCED", body.Error)
}
