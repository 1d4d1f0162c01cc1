package checkout

import (
	"context"
	"testing"

	"saas-billing-be/internal/entity"
	"saas-billing-be/internal/pkg/apperror"
	"saas-billing-be/internal/pkg/logger"
	"saas-billing-be/internal/repository/implementation"
	"saas-billing-be/internal/repository/memory"
	"saas-billing-be/internal/repository/specification"
	"saas-billing-be/internal/testutil"
	"saas-billing-be/pkg/billing/audit"
	"saas-billing-be/pkg/billing/customer"
	billingEvents "saas-billing-be/pkg/billing/events"
	pkgEvents "saas-billing-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type harness struct {
	db        *gorm.DB
	gw        *testutil.FakeGateway
	published *testutil.RecordingPublisher
	initiator *Initiator
}

func newHarness(t *testing.T) *harness {
	factory, db := testutil.NewFactory(t)
	gw := testutil.NewFakeGateway()
	pub := &testutil.RecordingPublisher{}
	log := logger.NewNopLogger()

	i := NewInitiator(
		factory,
		gw,
		memory.NewPriceCatalog(gw, 0),
		customer.NewLinker(gw, log),
		audit.NewWriter(factory, log),
		billingEvents.NewBusPublisher(pub, log),
		log,
		Config{
			PriceIDs:   map[string]string{"BASIC": "price_basic", "PREMIUM": "price_premium"},
			SuccessURL: "https://app.test/success?session_id={CHECKOUT_SESSION_ID}",
			CancelURL:  "https://app.test/cancel",
		},
	)
	return &harness{db: db, gw: gw, published: pub, initiator: i}
}

func TestInitiateCreatesPendingSubscription(t *testing.T) {
	h := newHarness(t)
	user := testutil.CreateUser(t, h.db)

	res, err := h.initiator.Initiate(context.Background(), testutil.PrincipalOf(user), "basic")
	require.NoError(t, err)
	assert.NotEmpty(t, res.SessionId)
	assert.Contains(t, res.URL, res.SessionId)

	subs := testutil.Subscriptions(t, h.db, user.Id)
	require.Len(t, subs, 1)
	sub := subs[0]
	assert.Equal(t, entity.SubscriptionStatusPending, sub.Status)
	assert.Equal(t, entity.PlanBasic, sub.Plan)
	assert.Equal(t, 9.0, sub.Amount)
	assert.Equal(t, "USD", sub.Currency)
	assert.Nil(t, sub.StripeSubscriptionId)
	require.NotNil(t, sub.CheckoutSessionId)
	assert.Equal(t, res.SessionId, *sub.CheckoutSessionId)
	assert.Equal(t, res.SubscriptionId, sub.Id)
	assert.True(t, sub.CurrentPeriodEnd.After(sub.CurrentPeriodStart))
	assert.NotEmpty(t, sub.StripeCustomerId)

	assert.Equal(t, []string{entity.AuditCheckoutCreated}, testutil.Audits(t, h.db, user.Id))
	assert.Equal(t, []string{pkgEvents.TypeCheckoutCreated}, h.published.Types())
}

func TestInitiateRejectsInvalidPlansWithoutSideEffects(t *testing.T) {
	for _, plan := range []string{"FREE", "GOLD", "", "ENTERPRISE"} {
		t.Run(plan, func(t *testing.T) {
			h := newHarness(t)
			user := testutil.CreateUser(t, h.db)

			_, err := h.initiator.Initiate(context.Background(), testutil.PrincipalOf(user), plan)
			assert.ErrorIs(t, err, apperror.ErrInvalidPlan)
			assert.Empty(t, testutil.Subscriptions(t, h.db, user.Id))
			assert.Zero(t, testutil.CountAudits(t, h.db))
			assert.Zero(t, h.gw.Calls("CreateCustomer"))
		})
	}
}

func TestInitiateForActiveAccountFailsAlreadySubscribed(t *testing.T) {
	h := newHarness(t)
	user := testutil.CreateUser(t, h.db, testutil.WithCustomer("cus_1"))
	subId := "sub_live"
	testutil.CreateSubscription(t, h.db, &entity.Subscription{
		UserId:               user.Id,
		Status:               entity.SubscriptionStatusActive,
		StripeCustomerId:     "cus_1",
		StripeSubscriptionId: &subId,
	})

	_, err := h.initiator.Initiate(context.Background(), testutil.PrincipalOf(user), "PREMIUM")
	assert.ErrorIs(t, err, apperror.ErrAlreadySubscribed)
	assert.Len(t, testutil.Subscriptions(t, h.db, user.Id), 1)
	assert.Zero(t, testutil.CountAudits(t, h.db))
	assert.Zero(t, h.gw.Calls("CreateCheckoutSession"))
}

func TestInitiateForDisabledAccountFails(t *testing.T) {
	h := newHarness(t)
	user := testutil.CreateUser(t, h.db, testutil.Disabled())

	_, err := h.initiator.Initiate(context.Background(), testutil.PrincipalOf(user), "BASIC")
	assert.ErrorIs(t, err, apperror.ErrAccountDisabled)
	assert.Empty(t, testutil.Subscriptions(t, h.db, user.Id))
	assert.Zero(t, testutil.CountAudits(t, h.db))
}

func TestInitiateAuditsProviderFailure(t *testing.T) {
	h := newHarness(t)
	h.gw.CreateCheckoutErr = testutil.ErrFakeProvider
	user := testutil.CreateUser(t, h.db)

	_, err := h.initiator.Initiate(context.Background(), testutil.PrincipalOf(user), "BASIC")
	assert.ErrorIs(t, err, apperror.ErrProviderUnavailable)
	assert.True(t, apperror.IsRetryable(err))

	assert.Empty(t, testutil.Subscriptions(t, h.db, user.Id))
	assert.Equal(t, []string{entity.AuditCheckoutFailed}, testutil.Audits(t, h.db, user.Id))
	assert.Empty(t, h.published.Types())
}

func TestInitiateLinkerFailureLeavesAccountUnlinked(t *testing.T) {
	h := newHarness(t)
	h.gw.CreateCustomerErr = testutil.ErrFakeProvider
	user := testutil.CreateUser(t, h.db)

	_, err := h.initiator.Initiate(context.Background(), testutil.PrincipalOf(user), "BASIC")
	assert.ErrorIs(t, err, apperror.ErrProviderUnavailable)

	stored, err := implementation.NewUserRepository(h.db).FindOne(context.Background(), specification.ByID{ID: user.Id})
	require.NoError(t, err)
	assert.Nil(t, stored.StripeCustomerId)
	assert.Equal(t, []string{entity.AuditCheckoutFailed}, testutil.Audits(t, h.db, user.Id))
	assert.Zero(t, h.gw.Calls("CreateCheckoutSession"))
}

func TestInitiateReusesCachedPrice(t *testing.T) {
	h := newHarness(t)
	first := testutil.CreateUser(t, h.db)
	second := testutil.CreateUser(t, h.db)

	_, err := h.initiator.Initiate(context.Background(), testutil.PrincipalOf(first), "PREMIUM")
	require.NoError(t, err)
	_, err = h.initiator.Initiate(context.Background(), testutil.PrincipalOf(second), "PREMIUM")
	require.NoError(t, err)

	assert.Equal(t, 1, h.gw.Calls("RetrievePrice"))
}
