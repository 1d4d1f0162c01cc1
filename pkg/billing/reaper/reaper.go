// Package reaper cancels PENDING subscriptions whose checkout was never
// completed.
package reaper

import (
	"context"
	"time"

	"saas-billing-be/internal/entity"
	"saas-billing-be/internal/pkg/apperror"
	"saas-billing-be/internal/pkg/gateway"
	"saas-billing-be/internal/pkg/logger"
	"saas-billing-be/internal/repository/specification"
	"saas-billing-be/internal/repository/unitofwork"
	"saas-billing-be/pkg/billing/audit"
	"saas-billing-be/pkg/billing/metrics"
)

type Reaper struct {
	uowFactory unitofwork.RepositoryFactory
	gateway    gateway.BillingGateway
	audit      *audit.Writer
	logger     logger.ILogger
	ttl        time.Duration
	now        func() time.Time
}

// NewReaper returns a reaper that expires PENDING rows older than ttl. A ttl
// of zero or less disables it.
func NewReaper(uowFactory unitofwork.RepositoryFactory, gw gateway.BillingGateway, auditWriter *audit.Writer, logger logger.ILogger, ttl time.Duration) *Reaper {
	return &Reaper{
		uowFactory: uowFactory,
		gateway:    gw,
		audit:      auditWriter,
		logger:     logger,
		ttl:        ttl,
		now:        time.Now,
	}
}

func (r *Reaper) Enabled() bool {
	return r.ttl > 0
}

// ExpireAbandoned cancels every PENDING row created before now minus ttl and
// reports how many it canceled. The provider session is expired first so it can
// no longer be paid; a session that already completed keeps its row PENDING for
// the activation path. Each row is its own transaction and is re-checked under
// lock, so a checkout completing at the same moment wins.
func (r *Reaper) ExpireAbandoned(ctx context.Context) (int, error) {
	if !r.Enabled() {
		return 0, nil
	}

	cutoff := r.now().Add(-r.ttl)
	uow := r.uowFactory.NewUnitOfWork(ctx)
	candidates, err := uow.SubscriptionRepository().FindAll(ctx,
		specification.ByStatus{Status: entity.SubscriptionStatusPending},
		specification.CreatedBefore{Time: cutoff},
	)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, c := range candidates {
		closed, err := r.closeSession(ctx, c)
		if err != nil {
			r.logger.Error("BILLING", "Failed to expire checkout session", map[string]interface{}{
				"subscription_id": c.Id,
				"error":           err.Error(),
			})
			continue
		}
		if !closed {
			continue
		}

		ok, err := r.expire(ctx, c.Id)
		if err != nil {
			r.logger.Error("BILLING", "Failed to expire pending subscription", map[string]interface{}{
				"subscription_id": c.Id,
				"error":           err.Error(),
			})
			continue
		}
		if ok {
			expired++
		}
	}

	if expired > 0 {
		r.logger.Info("BILLING", "Expired abandoned checkouts", map[string]interface{}{
			"count":  expired,
			"cutoff": cutoff,
		})
	}
	return expired, nil
}

// closeSession reports whether the row's checkout can no longer complete.
// Rows without a session never reached the provider.
func (r *Reaper) closeSession(ctx context.Context, sub *entity.Subscription) (bool, error) {
	if sub.CheckoutSessionId == nil || *sub.CheckoutSessionId == "" {
		return true, nil
	}
	sessionId := *sub.CheckoutSessionId

	session, err := r.gateway.RetrieveCheckoutSession(ctx, sessionId)
	if err != nil {
		return false, apperror.ProviderUnavailable(err)
	}
	switch {
	case session.Completed():
		r.logger.Warn("BILLING", "Stale pending checkout already completed, leaving it for activation", map[string]interface{}{
			"subscription_id": sub.Id,
			"session_id":      sessionId,
		})
		return false, nil
	case session.Expired():
		return true, nil
	}

	if _, err := r.gateway.ExpireCheckoutSession(ctx, sessionId); err != nil {
		return false, apperror.ProviderUnavailable(err)
	}
	return true, nil
}

func (r *Reaper) expire(ctx context.Context, id uint) (bool, error) {
	uow := r.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return false, err
	}
	defer uow.Rollback()

	sub, err := uow.SubscriptionRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.ByStatus{Status: entity.SubscriptionStatusPending},
		specification.ForUpdate{},
	)
	if err != nil || sub == nil {
		return false, err
	}

	sub.Cancel(r.now(), entity.CancelReasonAbandoned)
	if err := uow.SubscriptionRepository().Update(ctx, sub); err != nil {
		return false, err
	}

	sessionId := ""
	if sub.CheckoutSessionId != nil {
		sessionId = *sub.CheckoutSessionId
	}
	entry := audit.Entry(sub.UserId, sub.Plan, sessionId, entity.AuditCheckoutAbandoned)
	entry.Details = map[string]interface{}{
		"subscription_id": sub.Id,
		"pending_since":   sub.CreatedAt,
	}
	if err := r.audit.Write(ctx, uow, entry); err != nil {
		return false, err
	}
	if err := uow.Commit(); err != nil {
		return false, err
	}

	metrics.AbandonedCheckoutsTotal.Inc()
	return true, nil
}

// Run calls ExpireAbandoned every interval until ctx is done.
func (r *Reaper) Run(ctx context.Context, interval time.Duration) {
	if !r.Enabled() {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.ExpireAbandoned(ctx); err != nil {
				r.logger.Error("BILLING", "Abandoned checkout sweep failed", map[string]interface{}{"error": err.Error()})
			}
		}
	}
}
