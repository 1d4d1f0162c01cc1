// Package checkout opens hosted checkout sessions and records the PENDING
// subscription placeholder each one resolves into.
package checkout

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"saas-billing-be/internal/entity"
	"saas-billing-be/internal/pkg/apperror"
	"saas-billing-be/internal/pkg/gateway"
	"saas-billing-be/internal/pkg/logger"
	"saas-billing-be/internal/repository/specification"
	"saas-billing-be/internal/repository/unitofwork"
	"saas-billing-be/pkg/billing/audit"
	"saas-billing-be/pkg/billing/customer"
	billingEvents "saas-billing-be/pkg/billing/events"
	"saas-billing-be/pkg/billing/metrics"
)

// PriceSource resolves a provider price id. The cached catalog and the raw
// gateway both satisfy it.
type PriceSource interface {
	RetrievePrice(ctx context.Context, priceID string) (*gateway.Price, error)
}

type Config struct {
	PriceIDs   map[string]string // plan tier name -> provider price id
	SuccessURL string
	CancelURL  string
}

type Result struct {
	SessionId      string
	URL            string
	SubscriptionId uint
}

type Initiator struct {
	uowFactory unitofwork.RepositoryFactory
	gateway    gateway.BillingGateway
	prices     PriceSource
	linker     *customer.Linker
	audit      *audit.Writer
	publisher  billingEvents.Publisher
	logger     logger.ILogger
	cfg        Config
	now        func() time.Time
}

func NewInitiator(
	uowFactory unitofwork.RepositoryFactory,
	gw gateway.BillingGateway,
	prices PriceSource,
	linker *customer.Linker,
	auditWriter *audit.Writer,
	publisher billingEvents.Publisher,
	logger logger.ILogger,
	cfg Config,
) *Initiator {
	return &Initiator{
		uowFactory: uowFactory,
		gateway:    gw,
		prices:     prices,
		linker:     linker,
		audit:      auditWriter,
		publisher:  publisher,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// Initiate validates the caller's eligibility for plan and opens a checkout
// session. Validation failures have no side effects. Any later failure is
// audited as CHECKOUT_FAILED before it is returned.
func (i *Initiator) Initiate(ctx context.Context, principal entity.Principal, plan string) (*Result, error) {
	tier, priceId, err := i.resolvePlan(plan)
	if err != nil {
		metrics.CheckoutsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	uow := i.uowFactory.NewUnitOfWork(ctx)
	user, err := i.validateAccount(ctx, uow, principal)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindValidation {
			metrics.CheckoutsTotal.WithLabelValues("invalid").Inc()
		}
		return nil, err
	}

	res, sessionId, err := i.open(ctx, uow, user, tier, priceId)
	if err != nil {
		i.logger.Error("BILLING", "Checkout failed", map[string]interface{}{
			"user_id": user.Id,
			"plan":    string(tier),
			"error":   err.Error(),
		})
		i.audit.WriteDetached(ctx, audit.Failure(user.Id, tier, sessionId, entity.AuditCheckoutFailed, err))
		metrics.CheckoutsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	metrics.CheckoutsTotal.WithLabelValues("created").Inc()
	return res, nil
}

// FREE is the implicit tier of an account without a subscription, never a
// purchase target. Tiers without a configured price are not for sale either.
func (i *Initiator) resolvePlan(plan string) (entity.PlanTier, string, error) {
	tier, ok := entity.ParsePlanTier(plan)
	if !ok || tier == entity.PlanFree {
		return "", "", apperror.ErrInvalidPlan
	}
	priceId, ok := i.cfg.PriceIDs[string(tier)]
	if !ok || priceId == "" {
		return "", "", apperror.ErrInvalidPlan
	}
	return tier, priceId, nil
}

func (i *Initiator) validateAccount(ctx context.Context, uow unitofwork.UnitOfWork, principal entity.Principal) (*entity.User, error) {
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: principal.UserId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.ErrNotFound
	}

	active, err := uow.SubscriptionRepository().Count(ctx,
		specification.UserOwnedBy{UserID: user.Id},
		specification.ByStatus{Status: entity.SubscriptionStatusActive},
	)
	if err != nil {
		return nil, err
	}
	if active > 0 {
		return nil, apperror.ErrAlreadySubscribed
	}

	if !user.Enabled {
		return nil, apperror.ErrAccountDisabled
	}
	return user, nil
}

// open returns the session id it got as far as creating, so a failure after
// that point is audited against it.
func (i *Initiator) open(ctx context.Context, uow unitofwork.UnitOfWork, user *entity.User, tier entity.PlanTier, priceId string) (*Result, string, error) {
	customerId, err := i.linker.EnsureCustomer(ctx, uow, user)
	if err != nil {
		return nil, "", err
	}

	price, err := i.prices.RetrievePrice(ctx, priceId)
	if err != nil {
		return nil, "", apperror.ProviderUnavailable(err)
	}

	userRef := strconv.FormatUint(uint64(user.Id), 10)
	session, err := i.gateway.CreateCheckoutSession(ctx, gateway.CheckoutRequest{
		CustomerID:        customerId,
		PriceID:           priceId,
		SuccessURL:        i.cfg.SuccessURL,
		CancelURL:         i.cfg.CancelURL,
		ClientReferenceID: userRef,
		Metadata: map[string]string{
			"user_id": userRef,
			"plan":    string(tier),
		},
	})
	if err != nil {
		return nil, "", apperror.ProviderUnavailable(err)
	}

	now := i.now()
	sub := &entity.Subscription{
		UserId:             user.Id,
		Plan:               tier,
		Status:             entity.SubscriptionStatusPending,
		Amount:             gateway.MinorToMajor(price.UnitAmount),
		Currency:           strings.ToUpper(price.Currency),
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.AddDate(0, 1, 0),
		StripeCustomerId:   customerId,
		CheckoutSessionId:  &session.ID,
	}

	txUow := i.uowFactory.NewUnitOfWork(ctx)
	if err := txUow.Begin(ctx); err != nil {
		return nil, session.ID, err
	}
	defer txUow.Rollback()

	if err := txUow.SubscriptionRepository().Create(ctx, sub); err != nil {
		return nil, session.ID, fmt.Errorf("create pending subscription: %w", err)
	}

	entry := audit.Entry(user.Id, tier, session.ID, entity.AuditCheckoutCreated)
	entry.Details = map[string]interface{}{
		"subscription_id": sub.Id,
		"price_id":        priceId,
		"amount":          sub.Amount,
		"currency":        sub.Currency,
	}
	if err := i.audit.Write(ctx, txUow, entry); err != nil {
		return nil, session.ID, fmt.Errorf("write checkout audit: %w", err)
	}

	if err := txUow.Commit(); err != nil {
		return nil, session.ID, err
	}

	i.logger.Info("BILLING", "Checkout session created", map[string]interface{}{
		"user_id":         user.Id,
		"plan":            string(tier),
		"session_id":      session.ID,
		"subscription_id": sub.Id,
	})
	i.publisher.PublishCheckoutCreated(ctx, sub, session.ID)

	return &Result{SessionId: session.ID, URL: session.URL, SubscriptionId: sub.Id}, session.ID, nil
}
