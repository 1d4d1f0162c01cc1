package service

import (
	"context"
	"testing"
	"time"

	"saas-billing-be/internal/dto"
	"saas-billing-be/internal/entity"
	"saas-billing-be/internal/pkg/apperror"
	"saas-billing-be/internal/pkg/gateway"
	"saas-billing-be/internal/testutil"
	pkgEvents "saas-billing-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutThroughActivation(t *testing.T) {
	h := newBillingHarness(t)
	user := testutil.CreateUser(t, h.db)

	active := h.subscribe(t, user, "premium", "sub_1")

	assert.Equal(t, "PREMIUM", active.Plan)
	assert.Equal(t, 29.0, active.Amount)
	assert.Equal(t, "USD", active.Currency)
	require.NotNil(t, active.StripeSubscriptionId)
	assert.Equal(t, "sub_1", *active.StripeSubscriptionId)
	assert.Equal(t, []string{entity.AuditCheckoutCreated, entity.AuditSubscriptionActivated}, testutil.Audits(t, h.db, user.Id))
	assert.Equal(t, []string{pkgEvents.TypeCheckoutCreated, pkgEvents.TypeSubscriptionActivated}, h.published.Types())

	_, err := h.subscriptions.CreateCheckoutSession(context.Background(), testutil.PrincipalOf(user), &dto.CreateCheckoutRequest{Plan: "BASIC"})
	assert.ErrorIs(t, err, apperror.ErrAlreadySubscribed)
}

func TestCancelSubscriptionByOwner(t *testing.T) {
	h := newBillingHarness(t)
	user := testutil.CreateUser(t, h.db)
	active := h.subscribe(t, user, "BASIC", "sub_1")

	stranger := testutil.CreateUser(t, h.db)
	_, err := h.subscriptions.CancelSubscription(context.Background(), testutil.PrincipalOf(stranger), active.Id)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	canceled, err := h.subscriptions.CancelSubscription(context.Background(), testutil.PrincipalOf(user), active.Id)
	require.NoError(t, err)
	assert.Equal(t, "CANCELED", canceled.Status)
	require.NotNil(t, canceled.CancelReason)
	assert.Equal(t, entity.CancelReasonUser, *canceled.CancelReason)
	assert.Equal(t, []string{"sub_1"}, h.gw.Canceled)
	assert.Contains(t, h.published.Types(), pkgEvents.TypeSubscriptionCanceled)

	// The provider's deletion event that follows changes nothing.
	body, sig := testutil.SignedEvent(t, "evt_deleted", gateway.EventSubscriptionDeleted,
		map[string]interface{}{"id": "sub_1", "object": "subscription", "status": "canceled"})
	res, err := h.webhooks.HandleStripeEvent(context.Background(), body, sig)
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, res.Outcome)

	subs := testutil.Subscriptions(t, h.db, user.Id)
	require.Len(t, subs, 1)
	assert.Equal(t, entity.CancelReasonUser, *subs[0].CancelReason)

	_, err = h.subscriptions.CancelSubscription(context.Background(), testutil.PrincipalOf(user), active.Id)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestCancelSubscriptionProviderFailure(t *testing.T) {
	h := newBillingHarness(t)
	user := testutil.CreateUser(t, h.db)
	active := h.subscribe(t, user, "BASIC", "sub_1")
	h.gw.CancelErr = testutil.ErrFakeProvider

	_, err := h.subscriptions.CancelSubscription(context.Background(), testutil.PrincipalOf(user), active.Id)
	assert.ErrorIs(t, err, apperror.ErrProviderUnavailable)

	sub, err := h.subscriptions.GetActiveByUser(context.Background(), testutil.PrincipalOf(user), user.Id)
	require.NoError(t, err)
	assert.Equal(t, active.Id, sub.Id)
	assert.Contains(t, testutil.Audits(t, h.db, user.Id), entity.AuditCancelFailed)
}

func TestActivateFromSessionThroughService(t *testing.T) {
	h := newBillingHarness(t)
	user := testutil.CreateUser(t, h.db)
	session, err := h.subscriptions.CreateCheckoutSession(context.Background(), testutil.PrincipalOf(user), &dto.CreateCheckoutRequest{Plan: "BASIC"})
	require.NoError(t, err)

	_, err = h.subscriptions.ActivateFromSession(context.Background(), testutil.PrincipalOf(user), session.SessionId)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err), "session still open")

	start := h.gw.CompleteCheckout(session.SessionId, "sub_manual", time.Now(), time.Now().AddDate(0, 1, 0))
	require.NotNil(t, start)

	sub, err := h.subscriptions.ActivateFromSession(context.Background(), testutil.PrincipalOf(user), session.SessionId)
	require.NoError(t, err)
	assert.Equal(t, "ACTIVE", sub.Status)
	assert.Equal(t, session.SubscriptionId, sub.Id)
}

func TestCreatePortalSession(t *testing.T) {
	h := newBillingHarness(t)
	fresh := testutil.CreateUser(t, h.db)
	linked := testutil.CreateUser(t, h.db, testutil.WithCustomer("cus_42"))

	_, err := h.subscriptions.CreatePortalSession(context.Background(), testutil.PrincipalOf(fresh))
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	portal, err := h.subscriptions.CreatePortalSession(context.Background(), testutil.PrincipalOf(linked))
	require.NoError(t, err)
	assert.Equal(t, "https://billing.test/portal/cus_42", portal.URL)
}

func TestListAuditsThroughService(t *testing.T) {
	h := newBillingHarness(t)
	user := testutil.CreateUser(t, h.db)
	admin := testutil.CreateUser(t, h.db, testutil.Admin())
	h.subscribe(t, user, "BASIC", "sub_1")

	_, err := h.subscriptions.ListAudits(context.Background(), testutil.PrincipalOf(user), user.Id, 10, 0)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	res, err := h.subscriptions.ListAudits(context.Background(), testutil.PrincipalOf(admin), user.Id, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Total)
	require.Len(t, res.Audits, 2)
	assert.Equal(t, entity.AuditSubscriptionActivated, res.Audits[0].Status)
	assert.Equal(t, "sub_1", res.Audits[0].Details["stripe_subscription_id"])
}
