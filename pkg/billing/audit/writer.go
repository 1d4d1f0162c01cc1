// Package audit appends SubscriptionAudit rows. Rows are never updated.
package audit

import (
	"context"

	"saas-billing-be/internal/entity"
	"saas-billing-be/internal/pkg/logger"
	"saas-billing-be/internal/repository/unitofwork"
)

type Writer struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewWriter(uowFactory unitofwork.RepositoryFactory, logger logger.ILogger) *Writer {
	return &Writer{
		uowFactory: uowFactory,
		logger:     logger,
	}
}

// Entry builds an audit row. sessionId may be empty.
func Entry(userId uint, plan entity.PlanTier, sessionId, status string) *entity.SubscriptionAudit {
	a := &entity.SubscriptionAudit{
		UserId: userId,
		Plan:   plan,
		Status: status,
	}
	if sessionId != "" {
		a.StripeSessionId = &sessionId
	}
	return a
}

// Failure is Entry plus the error text.
func Failure(userId uint, plan entity.PlanTier, sessionId, status string, cause error) *entity.SubscriptionAudit {
	a := Entry(userId, plan, sessionId, status)
	if cause != nil {
		msg := cause.Error()
		a.ErrorMessage = &msg
	}
	return a
}

// Write appends inside the caller's unit of work, so the row commits or rolls
// back with the transition it describes.
func (w *Writer) Write(ctx context.Context, uow unitofwork.UnitOfWork, a *entity.SubscriptionAudit) error {
	return uow.SubscriptionAuditRepository().Create(ctx, a)
}

// WriteDetached appends outside any transaction. Used for failures, after the
// failed transaction has been rolled back. A write error is logged only, so the
// original failure is what the caller reports.
func (w *Writer) WriteDetached(ctx context.Context, a *entity.SubscriptionAudit) {
	uow := w.uowFactory.NewUnitOfWork(ctx)
	if err := uow.SubscriptionAuditRepository().Create(ctx, a); err != nil {
		w.logger.Error("BILLING", "Failed to write audit", map[string]interface{}{
			"user_id": a.UserId,
			"status":  a.Status,
			"error":   err.Error(),
		})
	}
}
