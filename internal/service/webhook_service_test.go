package service

import (
	"context"
	"testing"
	"time"

	"saas-billing-be/internal/entity"
	"saas-billing-be/internal/pkg/apperror"
	"saas-billing-be/internal/pkg/gateway"
	"saas-billing-be/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookRejectsBadSignatureWithoutSideEffects(t *testing.T) {
	h := newBillingHarness(t)
	testutil.CreateUser(t, h.db, testutil.WithCustomer("cus_1"))
	body, _ := testutil.SignedEvent(t, "evt_1", gateway.EventCheckoutSessionCompleted,
		testutil.CheckoutCompleted("cs_1", "cus_1", "sub_1"))

	_, err := h.webhooks.HandleStripeEvent(context.Background(), body, "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, apperror.ErrSignatureInvalid)
	assert.Zero(t, testutil.CountAudits(t, h.db))
	assert.False(t, h.redis.Exists("billing:webhook:evt_1:attempts"))
}

func TestWebhookDropsEventsThatCannotSucceed(t *testing.T) {
	h := newBillingHarness(t)
	body, sig := testutil.SignedEvent(t, "evt_orphan", gateway.EventCheckoutSessionCompleted,
		testutil.CheckoutCompleted("cs_1", "cus_unknown", "sub_1"))

	res, err := h.webhooks.HandleStripeEvent(context.Background(), body, sig)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, res.Outcome)
	assert.Equal(t, int64(1), res.Attempt)

	outcome, err := h.tracker.Outcome(context.Background(), "evt_orphan")
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)
}

func TestWebhookAcknowledgesUnhandledTypes(t *testing.T) {
	h := newBillingHarness(t)
	body, sig := testutil.SignedEvent(t, "evt_cus", "customer.created", map[string]interface{}{"id": "cus_9", "object": "customer"})

	res, err := h.webhooks.HandleStripeEvent(context.Background(), body, sig)
	require.NoError(t, err)
	assert.Equal(t, "customer.created", res.Type)
	assert.Equal(t, OutcomeProcessed, res.Outcome)
}

func TestWebhookAsksForRedeliveryOnProviderOutage(t *testing.T) {
	h := newBillingHarness(t)
	user := testutil.CreateUser(t, h.db, testutil.WithCustomer("cus_1"))
	session := "cs_1"
	testutil.CreateSubscription(t, h.db, &entity.Subscription{
		UserId: user.Id, Status: entity.SubscriptionStatusPending, StripeCustomerId: "cus_1", CheckoutSessionId: &session,
	})
	h.gw.CompleteCheckout(session, "sub_1", time.Now(), time.Now().AddDate(0, 1, 0))
	h.gw.RetrieveSubscriptionErr = testutil.ErrFakeProvider
	body, sig := testutil.SignedEvent(t, "evt_retry", gateway.EventCheckoutSessionCompleted,
		testutil.CheckoutCompleted(session, "cus_1", "sub_1"))

	res, err := h.webhooks.HandleStripeEvent(context.Background(), body, sig)
	assert.ErrorIs(t, err, apperror.ErrProviderUnavailable)
	assert.Equal(t, OutcomeRetry, res.Outcome)

	h.gw.RetrieveSubscriptionErr = nil
	res, err = h.webhooks.HandleStripeEvent(context.Background(), body, sig)
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, res.Outcome)
	assert.Equal(t, int64(2), res.Attempt)
	assert.Equal(t, []string{entity.AuditActivationFailed, entity.AuditSubscriptionActivated}, testutil.Audits(t, h.db, user.Id))
}

func TestWebhookSurvivesRedisOutage(t *testing.T) {
	h := newBillingHarness(t)
	h.redis.Close()
	body, sig := testutil.SignedEvent(t, "evt_cus", "customer.created", map[string]interface{}{"id": "cus_9"})

	res, err := h.webhooks.HandleStripeEvent(context.Background(), body, sig)
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, res.Outcome)
	assert.Zero(t, res.Attempt)
}
