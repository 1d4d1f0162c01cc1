package events

import (
	"context"
	"time"

	"saas-billing-be/internal/entity"
	"saas-billing-be/internal/pkg/logger"
	pkgEvents "saas-billing-be/pkg/events"
)

// Publisher emits billing domain events after the state change committed.
// Publishing is best effort: failures are logged, never returned.
type Publisher interface {
	PublishCheckoutCreated(ctx context.Context, sub *entity.Subscription, sessionId string)
	PublishSubscriptionActivated(ctx context.Context, sub *entity.Subscription)
	PublishStatusChanged(ctx context.Context, sub *entity.Subscription, previous entity.SubscriptionStatus)
	PublishSubscriptionCanceled(ctx context.Context, sub *entity.Subscription)
	PublishInvoicePaid(ctx context.Context, invoice *entity.Invoice)
}

// BusPublisher implements Publisher on any event transport (NATS or the
// in-process channel bus).
type BusPublisher struct {
	publisher pkgEvents.Publisher
	logger    logger.ILogger
}

func NewBusPublisher(publisher pkgEvents.Publisher, logger logger.ILogger) *BusPublisher {
	return &BusPublisher{
		publisher: publisher,
		logger:    logger,
	}
}

func (p *BusPublisher) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if p.publisher == nil {
		return
	}

	evt := pkgEvents.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
	if err := p.publisher.Publish(ctx, evt); err != nil {
		p.logger.Error("BILLING", "Failed to publish "+eventType+" event", map[string]interface{}{"error": err.Error()})
	}
}

func subscriptionData(sub *entity.Subscription) map[string]interface{} {
	data := map[string]interface{}{
		"subscription_id":      sub.Id,
		"user_id":              sub.UserId,
		"plan":                 string(sub.Plan),
		"status":               string(sub.Status),
		"amount":               sub.Amount,
		"currency":             sub.Currency,
		"current_period_start": sub.CurrentPeriodStart,
		"current_period_end":   sub.CurrentPeriodEnd,
		"entity_type":          "subscription",
	}
	if sub.StripeSubscriptionId != nil {
		data["stripe_subscription_id"] = *sub.StripeSubscriptionId
	}
	return data
}

func (p *BusPublisher) PublishCheckoutCreated(ctx context.Context, sub *entity.Subscription, sessionId string) {
	data := subscriptionData(sub)
	data["session_id"] = sessionId
	p.publish(ctx, pkgEvents.TypeCheckoutCreated, data)
}

func (p *BusPublisher) PublishSubscriptionActivated(ctx context.Context, sub *entity.Subscription) {
	p.publish(ctx, pkgEvents.TypeSubscriptionActivated, subscriptionData(sub))
}

func (p *BusPublisher) PublishStatusChanged(ctx context.Context, sub *entity.Subscription, previous entity.SubscriptionStatus) {
	data := subscriptionData(sub)
	data["previous_status"] = string(previous)
	p.publish(ctx, pkgEvents.TypeSubscriptionStatusChange, data)
}

func (p *BusPublisher) PublishSubscriptionCanceled(ctx context.Context, sub *entity.Subscription) {
	data := subscriptionData(sub)
	if sub.CanceledAt != nil {
		data["canceled_at"] = *sub.CanceledAt
	}
	if sub.CancelReason != nil {
		data["cancel_reason"] = *sub.CancelReason
	}
	p.publish(ctx, pkgEvents.TypeSubscriptionCanceled, data)
}

func (p *BusPublisher) PublishInvoicePaid(ctx context.Context, invoice *entity.Invoice) {
	p.publish(ctx, pkgEvents.TypeInvoicePaid, map[string]interface{}{
		"invoice_id":      invoice.Id,
		"invoice_number":  invoice.InvoiceNumber,
		"subscription_id": invoice.SubscriptionId,
		"user_id":         invoice.UserId,
		"amount":          invoice.Amount,
		"currency":        invoice.Currency,
		"entity_type":     "invoice",
	})
}
