package reconciler

import (
	"context"
	"fmt"

	"saas-billing-be/internal/entity"
	"saas-billing-be/internal/pkg/apperror"
	"saas-billing-be/internal/repository/specification"
	"saas-billing-be/internal/repository/unitofwork"
	"saas-billing-be/pkg/billing/audit"
	"saas-billing-be/pkg/billing/metrics"
)

type activation struct {
	customerId     string
	subscriptionId string
	sessionId      string
}

// ActivateFromSession is the manual path: the customer returns from checkout
// with a session id and asks to be activated without waiting for the webhook.
// It applies exactly the same transition.
func (r *Reconciler) ActivateFromSession(ctx context.Context, principal entity.Principal, sessionId string) (*entity.Subscription, error) {
	if sessionId == "" {
		return nil, apperror.Validation("session_id is required")
	}

	uow := r.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: principal.UserId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.ErrNotFound
	}

	session, err := r.gateway.RetrieveCheckoutSession(ctx, sessionId)
	if err != nil {
		return nil, apperror.ProviderUnavailable(err)
	}
	owns := user.HasBillingCustomer() && session.CustomerID == *user.StripeCustomerId
	if !owns && !principal.IsAdmin() {
		return nil, apperror.ErrForbidden
	}
	if !session.Completed() || session.SubscriptionID == "" {
		return nil, apperror.Validation("checkout session is not complete")
	}

	return r.activate(ctx, activation{
		customerId:     session.CustomerID,
		subscriptionId: session.SubscriptionID,
		sessionId:      session.ID,
	})
}

// activate moves the account's PENDING subscription to ACTIVE with the
// provider's billing period.
func (r *Reconciler) activate(ctx context.Context, a activation) (*entity.Subscription, error) {
	if a.subscriptionId == "" {
		return nil, apperror.Validation("missing provider subscription id")
	}
	log := map[string]interface{}{
		"customer_id":     a.customerId,
		"subscription_id": a.subscriptionId,
		"session_id":      a.sessionId,
	}

	uow := r.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().FindOne(ctx,
		specification.ByStripeCustomerId{CustomerId: a.customerId},
		specification.ForUpdate{},
	)
	if err != nil {
		return nil, err
	}
	if user == nil {
		r.logger.Warn(module, "No account for billing customer", log)
		metrics.ActivationsTotal.WithLabelValues("account_not_found").Inc()
		return nil, apperror.ErrAccountNotFound
	}

	// Already applied: this provider subscription is on a local row.
	applied, err := uow.SubscriptionRepository().Count(ctx, specification.ByStripeSubscriptionId{SubscriptionId: a.subscriptionId})
	if err != nil {
		return nil, err
	}
	if applied > 0 {
		r.logger.Info(module, "Activation already applied", log)
		metrics.ActivationsTotal.WithLabelValues("duplicate").Inc()
		return nil, apperror.ErrNoPendingSubscription
	}

	pending, err := r.findPending(ctx, uow, user.Id, a.sessionId)
	if err != nil {
		return nil, err
	}
	if pending == nil {
		r.logger.Warn(module, "No pending subscription to activate", log)
		metrics.ActivationsTotal.WithLabelValues("no_pending").Inc()
		return nil, apperror.ErrNoPendingSubscription
	}

	live, err := r.gateway.RetrieveSubscription(ctx, a.subscriptionId)
	if err != nil {
		uow.Rollback()
		log["error"] = err.Error()
		r.logger.Error(module, "Failed to fetch provider subscription", log)
		r.audit.WriteDetached(ctx, audit.Failure(user.Id, pending.Plan, a.sessionId, entity.AuditActivationFailed, err))
		metrics.ActivationsTotal.WithLabelValues("provider_error").Inc()
		return nil, apperror.ProviderUnavailable(err)
	}

	active, err := uow.SubscriptionRepository().FindOne(ctx,
		specification.UserOwnedBy{UserID: user.Id},
		specification.ByStatus{Status: entity.SubscriptionStatusActive},
	)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, r.supersede(ctx, uow, pending, active, a)
	}

	pending.StripeSubscriptionId = &a.subscriptionId
	pending.StripeCustomerId = a.customerId
	refreshPeriod(pending, live)

	ok, err := uow.SubscriptionRepository().ActivatePending(ctx, pending)
	if err != nil {
		return nil, fmt.Errorf("activate subscription %d: %w", pending.Id, err)
	}
	if !ok {
		metrics.ActivationsTotal.WithLabelValues("no_pending").Inc()
		return nil, apperror.ErrNoPendingSubscription
	}

	entry := audit.Entry(user.Id, pending.Plan, a.sessionId, entity.AuditSubscriptionActivated)
	entry.Details = map[string]interface{}{
		"subscription_id":        pending.Id,
		"stripe_subscription_id": a.subscriptionId,
		"current_period_start":   pending.CurrentPeriodStart,
		"current_period_end":     pending.CurrentPeriodEnd,
	}
	if err := r.audit.Write(ctx, uow, entry); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	log["local_id"] = pending.Id
	r.logger.Info(module, "Subscription activated", log)
	metrics.ActivationsTotal.WithLabelValues("activated").Inc()
	r.publisher.PublishSubscriptionActivated(ctx, pending)
	return pending, nil
}

// findPending prefers the row opened by this checkout session and falls back
// to the account's newest PENDING row.
func (r *Reconciler) findPending(ctx context.Context, uow unitofwork.UnitOfWork, userId uint, sessionId string) (*entity.Subscription, error) {
	base := []specification.Specification{
		specification.UserOwnedBy{UserID: userId},
		specification.ByStatus{Status: entity.SubscriptionStatusPending},
	}

	if sessionId != "" {
		sub, err := uow.SubscriptionRepository().FindOne(ctx,
			append(base, specification.ByCheckoutSessionId{SessionId: sessionId}, specification.ForUpdate{})...)
		if err != nil || sub != nil {
			return sub, err
		}
	}
	return uow.SubscriptionRepository().FindOne(ctx, append(base, specification.Newest{}, specification.ForUpdate{})...)
}

// supersede closes a PENDING row whose checkout completed while the account
// already had an ACTIVE subscription. The second provider subscription is
// canceled after commit so the customer is not billed twice.
func (r *Reconciler) supersede(ctx context.Context, uow unitofwork.UnitOfWork, pending, active *entity.Subscription, a activation) error {
	pending.StripeSubscriptionId = &a.subscriptionId
	pending.Cancel(r.now(), entity.CancelReasonSuperseded)
	if err := uow.SubscriptionRepository().Update(ctx, pending); err != nil {
		return err
	}

	entry := audit.Failure(pending.UserId, pending.Plan, a.sessionId, entity.AuditActivationRejected, apperror.ErrAlreadySubscribed)
	entry.Details = map[string]interface{}{
		"subscription_id":        pending.Id,
		"active_subscription_id": active.Id,
		"stripe_subscription_id": a.subscriptionId,
	}
	if err := r.audit.Write(ctx, uow, entry); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	r.logger.Warn(module, "Activation rejected, account already active", map[string]interface{}{
		"user_id":                pending.UserId,
		"subscription_id":        pending.Id,
		"active_subscription_id": active.Id,
	})
	metrics.ActivationsTotal.WithLabelValues("superseded").Inc()

	if err := r.gateway.CancelSubscription(ctx, a.subscriptionId); err != nil {
		r.logger.Error(module, "Failed to cancel superseded provider subscription", map[string]interface{}{
			"stripe_subscription_id": a.subscriptionId,
			"error":                  err.Error(),
		})
	}
	return apperror.ErrAlreadySubscribed
}
