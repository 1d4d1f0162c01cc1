package reconciler

import (
	"context"
	"strings"

	"saas-billing-be/internal/entity"
	"saas-billing-be/internal/pkg/apperror"
	"saas-billing-be/internal/pkg/gateway"
	"saas-billing-be/internal/repository/specification"
	"saas-billing-be/pkg/billing/audit"
	"saas-billing-be/pkg/billing/metrics"
)

// subscriptionUpdated refreshes the billing period and mirrors the statuses
// that have a local equivalent. CANCELED rows are terminal.
func (r *Reconciler) subscriptionUpdated(ctx context.Context, live *gateway.Subscription) error {
	log := map[string]interface{}{
		"stripe_subscription_id": live.ID,
		"provider_status":        live.Status,
	}

	uow := r.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	sub, err := uow.SubscriptionRepository().FindOne(ctx,
		specification.ByStripeSubscriptionId{SubscriptionId: live.ID},
		specification.ForUpdate{},
	)
	if err != nil {
		return err
	}
	if sub == nil {
		r.logger.Warn(module, "Update for unknown subscription", log)
		return apperror.ErrSubscriptionNotFound
	}
	if sub.Status == entity.SubscriptionStatusCanceled {
		r.logger.Info(module, "Ignoring update for canceled subscription", log)
		return nil
	}

	previous := sub.Status
	refreshPeriod(sub, live)

	target, kind := gateway.TranslateSubscriptionStatus(live.Status)
	switch kind {
	case gateway.StatusMapped:
		if target == entity.SubscriptionStatusActive && previous != entity.SubscriptionStatusActive {
			other, err := uow.SubscriptionRepository().Count(ctx,
				specification.UserOwnedBy{UserID: sub.UserId},
				specification.ByStatus{Status: entity.SubscriptionStatusActive},
				specification.ExcludeID{ID: sub.Id},
			)
			if err != nil {
				return err
			}
			if other > 0 {
				r.logger.Warn(module, "Not reactivating, account has another active subscription", log)
				break
			}
		}
		sub.Status = target
	case gateway.StatusRetained:
		r.logger.Debug(module, "Provider status has no local transition", log)
	case gateway.StatusUnknown:
		r.logger.Warn(module, "Unknown provider subscription status", log)
		metrics.StatusAnomaliesTotal.WithLabelValues(live.Status).Inc()
	}

	if err := uow.SubscriptionRepository().Update(ctx, sub); err != nil {
		return err
	}

	changed := sub.Status != previous
	if changed {
		entry := audit.Entry(sub.UserId, sub.Plan, "", entity.AuditStatusChanged)
		entry.Details = map[string]interface{}{
			"subscription_id": sub.Id,
			"from":            string(previous),
			"to":              string(sub.Status),
			"provider_status": live.Status,
		}
		if err := r.audit.Write(ctx, uow, entry); err != nil {
			return err
		}
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	if changed {
		log["from"], log["to"] = string(previous), string(sub.Status)
		r.logger.Info(module, "Subscription status changed", log)
		r.publisher.PublishStatusChanged(ctx, sub, previous)
	}
	return nil
}

func (r *Reconciler) subscriptionDeleted(ctx context.Context, live *gateway.Subscription) error {
	log := map[string]interface{}{"stripe_subscription_id": live.ID}

	uow := r.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	sub, err := uow.SubscriptionRepository().FindOne(ctx,
		specification.ByStripeSubscriptionId{SubscriptionId: live.ID},
		specification.ForUpdate{},
	)
	if err != nil {
		return err
	}
	if sub == nil {
		r.logger.Warn(module, "Delete for unknown subscription", log)
		return apperror.ErrSubscriptionNotFound
	}
	if sub.Status == entity.SubscriptionStatusCanceled {
		r.logger.Info(module, "Subscription already canceled", log)
		return nil
	}

	previous := sub.Status
	sub.Cancel(r.now(), entity.CancelReasonProvider)
	if err := uow.SubscriptionRepository().Update(ctx, sub); err != nil {
		return err
	}

	entry := audit.Entry(sub.UserId, sub.Plan, "", entity.AuditSubscriptionCanceled)
	entry.Details = map[string]interface{}{
		"subscription_id": sub.Id,
		"from":            string(previous),
		"reason":          entity.CancelReasonProvider,
	}
	if err := r.audit.Write(ctx, uow, entry); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	r.logger.Info(module, "Subscription canceled via provider", log)
	r.publisher.PublishSubscriptionCanceled(ctx, sub)
	return nil
}

// invoicePaid records the payment and issues a local invoice. The provider
// invoice id makes it idempotent. An invoice for a subscription that is not
// active locally yet is retried, since invoice.paid can overtake the checkout
// completion event.
func (r *Reconciler) invoicePaid(ctx context.Context, inv *gateway.Invoice) error {
	log := map[string]interface{}{
		"stripe_invoice_id":      inv.ID,
		"stripe_subscription_id": inv.SubscriptionID,
	}
	if inv.SubscriptionID == "" {
		r.logger.Info(module, "Ignoring invoice without subscription", log)
		return nil
	}

	uow := r.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	existing, err := uow.BillingRepository().FindOnePayment(ctx, specification.ByStripeInvoiceId{InvoiceId: inv.ID})
	if err != nil {
		return err
	}
	if existing != nil {
		r.logger.Info(module, "Invoice already recorded", log)
		return nil
	}

	sub, err := uow.SubscriptionRepository().FindOne(ctx, specification.ByStripeSubscriptionId{SubscriptionId: inv.SubscriptionID})
	if err != nil {
		return err
	}
	if sub == nil {
		r.logger.Warn(module, "Invoice paid before subscription activation", log)
		return apperror.ErrSubscriptionNotSynced
	}

	currency := strings.ToUpper(inv.Currency)
	if currency == "" {
		currency = sub.Currency
	}
	paidAt := inv.PaidAt
	if paidAt.IsZero() {
		paidAt = r.now()
	}

	payment := &entity.Payment{
		UserId:                sub.UserId,
		SubscriptionId:        sub.Id,
		Amount:                gateway.MinorToMajor(inv.AmountPaid),
		Currency:              currency,
		Status:                entity.PaymentStatusSucceeded,
		StripeInvoiceId:       inv.ID,
		StripePaymentIntentId: optional(inv.PaymentIntentID),
		StripeChargeId:        optional(inv.ChargeID),
		PaidAt:                &paidAt,
		ReceiptUrl:            optional(inv.HostedInvoiceURL),
	}
	if err := uow.BillingRepository().CreatePayment(ctx, payment); err != nil {
		return err
	}

	invoice := &entity.Invoice{
		UserId:          sub.UserId,
		SubscriptionId:  sub.Id,
		PaymentId:       &payment.Id,
		InvoiceNumber:   entity.NewInvoiceNumber(),
		StripeInvoiceId: inv.ID,
		Amount:          payment.Amount,
		Currency:        currency,
		Status:          entity.InvoiceStatusPaid,
		DueDate:         paidAt.Add(entity.InvoiceDueAfter),
		PaidAt:          &paidAt,
		HostedUrl:       optional(inv.HostedInvoiceURL),
		PdfUrl:          optional(inv.InvoicePDF),
	}
	if err := uow.BillingRepository().CreateInvoice(ctx, invoice); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	log["invoice_number"] = invoice.InvoiceNumber
	r.logger.Info(module, "Invoice recorded", log)
	r.publisher.PublishInvoicePaid(ctx, invoice)
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
