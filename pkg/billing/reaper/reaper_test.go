package reaper

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"saas-billing-be/internal/entity"
	"saas-billing-be/internal/pkg/gateway"
	"saas-billing-be/internal/pkg/logger"
	"saas-billing-be/internal/testutil"
	"saas-billing-be/pkg/billing/audit"
	billingEvents "saas-billing-be/pkg/billing/events"
	"saas-billing-be/pkg/billing/reconciler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staleAt(r *Reaper, d time.Duration) time.Time {
	later := time.Now().Add(d)
	r.now = func() time.Time { return later }
	return later
}

func TestExpireAbandonedCancelsStalePendingRows(t *testing.T) {
	factory, db := testutil.NewFactory(t)
	gw := testutil.NewFakeGateway()
	log := logger.NewNopLogger()
	user := testutil.CreateUser(t, db, testutil.WithCustomer("cus_stale"))
	session := "cs_stale"
	gw.OpenSession(session, "cus_stale")
	pending := testutil.CreateSubscription(t, db, &entity.Subscription{
		UserId: user.Id, Status: entity.SubscriptionStatusPending, CheckoutSessionId: &session,
	})
	active := testutil.CreateSubscription(t, db, &entity.Subscription{UserId: user.Id, Status: entity.SubscriptionStatusActive})

	r := NewReaper(factory, gw, audit.NewWriter(factory, log), log, 24*time.Hour)

	n, err := r.ExpireAbandoned(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "fresh checkouts are left alone")
	assert.Zero(t, gw.Calls("ExpireCheckoutSession"))

	later := staleAt(r, 48*time.Hour)

	n, err = r.ExpireAbandoned(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "expired", gw.SessionStatus(session), "the session can no longer be paid")

	byId := map[uint]*entity.Subscription{}
	for _, s := range testutil.Subscriptions(t, db, user.Id) {
		byId[s.Id] = s
	}
	expired := byId[pending.Id]
	assert.Equal(t, entity.SubscriptionStatusCanceled, expired.Status)
	require.NotNil(t, expired.CancelReason)
	assert.Equal(t, entity.CancelReasonAbandoned, *expired.CancelReason)
	require.NotNil(t, expired.CanceledAt)
	assert.WithinDuration(t, later, *expired.CanceledAt, time.Second)
	assert.Equal(t, entity.SubscriptionStatusActive, byId[active.Id].Status)
	assert.Equal(t, []string{entity.AuditCheckoutAbandoned}, testutil.Audits(t, db, user.Id))

	n, err = r.ExpireAbandoned(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, gw.Calls("ExpireCheckoutSession"))
}

func TestCompletedCheckoutSurvivesSweepAndActivates(t *testing.T) {
	factory, db := testutil.NewFactory(t)
	gw := testutil.NewFakeGateway()
	log := logger.NewNopLogger()
	user := testutil.CreateUser(t, db, testutil.WithCustomer("cus_late"))
	session := "cs_late"
	gw.OpenSession(session, "cus_late")
	testutil.CreateSubscription(t, db, &entity.Subscription{
		UserId:            user.Id,
		Plan:              entity.PlanBasic,
		Status:            entity.SubscriptionStatusPending,
		StripeCustomerId:  "cus_late",
		CheckoutSessionId: &session,
	})
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	gw.CompleteCheckout(session, "sub_late", start, start.AddDate(0, 1, 0))

	r := NewReaper(factory, gw, audit.NewWriter(factory, log), log, time.Millisecond)
	staleAt(r, time.Hour)

	n, err := r.ExpireAbandoned(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, gw.Calls("ExpireCheckoutSession"))
	assert.Equal(t, entity.SubscriptionStatusPending, testutil.Subscriptions(t, db, user.Id)[0].Status)
	assert.Empty(t, testutil.Audits(t, db, user.Id))

	rec := reconciler.NewReconciler(factory, gw, audit.NewWriter(factory, log), billingEvents.NewBusPublisher(&testutil.RecordingPublisher{}, log), log)
	raw, err := json.Marshal(testutil.CheckoutCompleted(session, "cus_late", "sub_late"))
	require.NoError(t, err)
	require.NoError(t, rec.Handle(context.Background(), &gateway.Event{ID: "evt_late", Type: gateway.EventCheckoutSessionCompleted, Raw: raw}))

	sub := testutil.Subscriptions(t, db, user.Id)[0]
	assert.Equal(t, entity.SubscriptionStatusActive, sub.Status)
	require.NotNil(t, sub.StripeSubscriptionId)
	assert.Equal(t, "sub_late", *sub.StripeSubscriptionId)
	assert.Empty(t, gw.Canceled)
}

func TestProviderFailureLeavesRowPending(t *testing.T) {
	factory, db := testutil.NewFactory(t)
	gw := testutil.NewFakeGateway()
	log := logger.NewNopLogger()
	user := testutil.CreateUser(t, db, testutil.WithCustomer("cus_down"))
	session := "cs_down"
	gw.OpenSession(session, "cus_down")
	testutil.CreateSubscription(t, db, &entity.Subscription{
		UserId: user.Id, Status: entity.SubscriptionStatusPending, CheckoutSessionId: &session,
	})
	gw.ExpireErr = testutil.ErrFakeProvider

	r := NewReaper(factory, gw, audit.NewWriter(factory, log), log, time.Hour)
	staleAt(r, 2*time.Hour)

	n, err := r.ExpireAbandoned(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, entity.SubscriptionStatusPending, testutil.Subscriptions(t, db, user.Id)[0].Status)
	assert.Equal(t, "open", gw.SessionStatus(session))

	gw.ExpireErr = nil
	n, err = r.ExpireAbandoned(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDisabledReaperDoesNothing(t *testing.T) {
	factory, db := testutil.NewFactory(t)
	log := logger.NewNopLogger()
	user := testutil.CreateUser(t, db)
	testutil.CreateSubscription(t, db, &entity.Subscription{
		UserId: user.Id, Status: entity.SubscriptionStatusPending, CreatedAt: time.Now().Add(-240 * time.Hour),
	})

	r := NewReaper(factory, testutil.NewFakeGateway(), audit.NewWriter(factory, log), log, 0)
	assert.False(t, r.Enabled())

	n, err := r.ExpireAbandoned(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, entity.SubscriptionStatusPending, testutil.Subscriptions(t, db, user.Id)[0].Status)
}

func TestRunStopsWithContext(t *testing.T) {
	factory, db := testutil.NewFactory(t)
	log := logger.NewNopLogger()
	user := testutil.CreateUser(t, db)
	testutil.CreateSubscription(t, db, &entity.Subscription{
		UserId: user.Id, Status: entity.SubscriptionStatusPending, CreatedAt: time.Now().Add(-48 * time.Hour),
	})

	r := NewReaper(factory, testutil.NewFakeGateway(), audit.NewWriter(factory, log), log, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return testutil.Subscriptions(t, db, user.Id)[0].Status == entity.SubscriptionStatusCanceled
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
