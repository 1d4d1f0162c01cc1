// Package reconciler applies billing provider events to local subscriptions.
//
// Every handler runs its lookup and update in one transaction with the rows
// locked, and every transition is conditional on the state it starts from, so
// a redelivered or concurrently delivered event applies at most once.
package reconciler

import (
	"context"
	"fmt"
	"time"

	"saas-billing-be/internal/entity"
	"saas-billing-be/internal/pkg/apperror"
	"saas-billing-be/internal/pkg/gateway"
	"saas-billing-be/internal/pkg/logger"
	"saas-billing-be/internal/repository/unitofwork"
	"saas-billing-be/pkg/billing/audit"
	billingEvents "saas-billing-be/pkg/billing/events"
)

const module = "WEBHOOK"

type Reconciler struct {
	uowFactory unitofwork.RepositoryFactory
	gateway    gateway.BillingGateway
	audit      *audit.Writer
	publisher  billingEvents.Publisher
	logger     logger.ILogger
	now        func() time.Time
}

func NewReconciler(
	uowFactory unitofwork.RepositoryFactory,
	gw gateway.BillingGateway,
	auditWriter *audit.Writer,
	publisher billingEvents.Publisher,
	logger logger.ILogger,
) *Reconciler {
	return &Reconciler{
		uowFactory: uowFactory,
		gateway:    gw,
		audit:      auditWriter,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
	}
}

// Handle dispatches a verified provider event. Event types the system does not
// act on are acknowledged and logged.
func (r *Reconciler) Handle(ctx context.Context, evt *gateway.Event) error {
	switch evt.Type {
	case gateway.EventCheckoutSessionCompleted:
		session, err := gateway.DecodeCheckoutSession(evt.Raw)
		if err != nil {
			return apperror.Validation(err.Error())
		}
		return r.checkoutCompleted(ctx, session)

	case gateway.EventSubscriptionUpdated:
		sub, err := gateway.DecodeSubscription(evt.Raw)
		if err != nil {
			return apperror.Validation(err.Error())
		}
		return r.subscriptionUpdated(ctx, sub)

	case gateway.EventSubscriptionDeleted:
		sub, err := gateway.DecodeSubscription(evt.Raw)
		if err != nil {
			return apperror.Validation(err.Error())
		}
		return r.subscriptionDeleted(ctx, sub)

	case gateway.EventInvoicePaid:
		inv, err := gateway.DecodeInvoice(evt.Raw)
		if err != nil {
			return apperror.Validation(err.Error())
		}
		return r.invoicePaid(ctx, inv)

	default:
		r.logger.Info(module, "Ignoring unhandled event type", map[string]interface{}{
			"event_id": evt.ID,
			"type":     evt.Type,
		})
		return nil
	}
}

func (r *Reconciler) checkoutCompleted(ctx context.Context, session *gateway.CheckoutSession) error {
	if session.CustomerID == "" || session.SubscriptionID == "" {
		return apperror.Validation(fmt.Sprintf("checkout session %s has no customer or subscription", session.ID))
	}
	_, err := r.activate(ctx, activation{
		customerId:     session.CustomerID,
		subscriptionId: session.SubscriptionID,
		sessionId:      session.ID,
	})
	return err
}

func refreshPeriod(sub *entity.Subscription, live *gateway.Subscription) {
	if !live.CurrentPeriodStart.IsZero() {
		sub.CurrentPeriodStart = live.CurrentPeriodStart
	}
	if !live.CurrentPeriodEnd.IsZero() {
		sub.CurrentPeriodEnd = live.CurrentPeriodEnd
	}
}
