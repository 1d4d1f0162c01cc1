package service

import (
	"context"
	"testing"
	"time"

	"saas-billing-be/internal/dto"
	"saas-billing-be/internal/entity"
	"saas-billing-be/internal/pkg/gateway"
	"saas-billing-be/internal/pkg/logger"
	"saas-billing-be/internal/repository/redisstore"
	"saas-billing-be/internal/testutil"
	"saas-billing-be/pkg/billing/audit"
	"saas-billing-be/pkg/billing/checkout"
	"saas-billing-be/pkg/billing/customer"
	billingEvents "saas-billing-be/pkg/billing/events"
	"saas-billing-be/pkg/billing/query"
	"saas-billing-be/pkg/billing/reconciler"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type billingHarness struct {
	db        *gorm.DB
	gw        *testutil.FakeGateway
	mail      *testutil.FakeMailer
	published *testutil.RecordingPublisher
	redis     *miniredis.Miniredis
	tracker   *redisstore.DeliveryTracker

	subscriptions ISubscriptionService
	webhooks      IWebhookService
	invoices      IInvoiceService
}

func newBillingHarness(t *testing.T) *billingHarness {
	factory, db := testutil.NewFactory(t)
	gw := testutil.NewFakeGateway()
	pub := &testutil.RecordingPublisher{}
	mail := &testutil.FakeMailer{}
	log := logger.NewNopLogger()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	tracker := redisstore.NewDeliveryTracker(rdb, time.Hour)

	auditWriter := audit.NewWriter(factory, log)
	publisher := billingEvents.NewBusPublisher(pub, log)
	initiator := checkout.NewInitiator(factory, gw, gw, customer.NewLinker(gw, log), auditWriter, publisher, log, checkout.Config{
		PriceIDs:   testutil.PriceIDs(),
		SuccessURL: "https://app.test/success",
		CancelURL:  "https://app.test/cancel",
	})
	rec := reconciler.NewReconciler(factory, gw, auditWriter, publisher, log)

	return &billingHarness{
		db:        db,
		gw:        gw,
		mail:      mail,
		published: pub,
		redis:     mr,
		tracker:   tracker,
		subscriptions: NewSubscriptionService(factory, gw, initiator, rec, query.NewFacade(factory),
			auditWriter, publisher, log, "https://app.test/account"),
		webhooks: NewWebhookService(gateway.NewStripeVerifier(testutil.WebhookSecret), rec, tracker, log),
		invoices: NewInvoiceService(factory, mail, log),
	}
}

// subscribe runs a user through checkout and the completion webhook and
// returns the active subscription.
func (h *billingHarness) subscribe(t *testing.T, user *entity.User, plan, providerSubId string) *dto.SubscriptionResponse {
	t.Helper()
	ctx := context.Background()

	session, err := h.subscriptions.CreateCheckoutSession(ctx, testutil.PrincipalOf(user), &dto.CreateCheckoutRequest{Plan: plan})
	require.NoError(t, err)

	start := time.Now().UTC().Truncate(time.Second)
	completed := h.gw.CompleteCheckout(session.SessionId, providerSubId, start, start.AddDate(0, 1, 0))

	body, sig := testutil.SignedEvent(t, "evt_"+session.SessionId, gateway.EventCheckoutSessionCompleted,
		testutil.CheckoutCompleted(session.SessionId, completed.CustomerID, providerSubId))
	res, err := h.webhooks.HandleStripeEvent(ctx, body, sig)
	require.NoError(t, err)
	require.Equal(t, OutcomeProcessed, res.Outcome)

	active, err := h.subscriptions.GetActiveByUser(ctx, testutil.PrincipalOf(user), user.Id)
	require.NoError(t, err)
	return active
}
