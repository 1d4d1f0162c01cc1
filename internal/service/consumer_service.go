package service

import (
	"context"
	"fmt"

	"saas-billing-be/internal/entity"
	"saas-billing-be/internal/pkg/logger"
	"saas-billing-be/internal/pkg/mailer"
	"saas-billing-be/internal/repository/specification"
	"saas-billing-be/internal/repository/unitofwork"
	"saas-billing-be/pkg/events"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService turns billing events into customer email. It reloads the
// rows named in the event, so the mail always reflects committed state.
type consumerService struct {
	subscriber   events.Subscriber
	uowFactory   unitofwork.RepositoryFactory
	emailService mailer.IEmailService
	logger       logger.ILogger
}

func NewConsumerService(
	subscriber events.Subscriber,
	uowFactory unitofwork.RepositoryFactory,
	emailService mailer.IEmailService,
	logger logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber:   subscriber,
		uowFactory:   uowFactory,
		emailService: emailService,
		logger:       logger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	handlers := map[string]events.Handler{
		events.TypeSubscriptionActivated: cs.onSubscriptionActivated,
		events.TypeInvoicePaid:           cs.onInvoicePaid,
		events.TypeSubscriptionCanceled:  cs.onSubscriptionCanceled,
	}
	for eventType, handler := range handlers {
		if err := cs.subscriber.Subscribe(ctx, eventType, handler); err != nil {
			return fmt.Errorf("subscribe %s: %w", eventType, err)
		}
	}
	return nil
}

func (cs *consumerService) onSubscriptionActivated(ctx context.Context, event events.Event) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	sub, user, err := cs.loadSubscription(ctx, uow, event)
	if err != nil || sub == nil {
		return err
	}

	return cs.emailService.SendTemplate(user.Email, mailer.TemplateSubscriptionConfirmation, map[string]interface{}{
		"Name":        user.FullName(),
		"Plan":        string(sub.Plan),
		"Amount":      fmt.Sprintf("%.2f", sub.Amount),
		"Currency":    sub.Currency,
		"PeriodStart": sub.CurrentPeriodStart.Format("2 Jan 2006"),
		"PeriodEnd":   sub.CurrentPeriodEnd.Format("2 Jan 2006"),
	})
}

func (cs *consumerService) onSubscriptionCanceled(ctx context.Context, event events.Event) error {
	uow := cs.uowFactory.NewUnitOfWork(ctx)
	sub, user, err := cs.loadSubscription(ctx, uow, event)
	if err != nil || sub == nil {
		return err
	}

	canceledAt := ""
	if sub.CanceledAt != nil {
		canceledAt = sub.CanceledAt.Format("2 Jan 2006")
	}
	return cs.emailService.SendTemplate(user.Email, mailer.TemplateSubscriptionCanceled, map[string]interface{}{
		"Name":       user.FullName(),
		"Plan":       string(sub.Plan),
		"CanceledAt": canceledAt,
	})
}

// onInvoicePaid skips invoices already mailed, so redelivery sends once.
func (cs *consumerService) onInvoicePaid(ctx context.Context, event events.Event) error {
	id, ok := idFrom(event.Payload(), "invoice_id")
	if !ok {
		cs.logger.Warn("NOTIFICATION", "Invoice event without invoice_id", nil)
		return nil
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	inv, err := uow.BillingRepository().FindOneInvoice(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if inv == nil {
		cs.logger.Warn("NOTIFICATION", "Invoice not found", map[string]interface{}{"invoice_id": id})
		return nil
	}
	if inv.EmailSent {
		return nil
	}

	if err := sendInvoice(ctx, uow, cs.emailService, inv); err != nil {
		return err
	}
	cs.logger.Info("NOTIFICATION", "Invoice emailed", map[string]interface{}{"invoice_number": inv.InvoiceNumber})
	return nil
}

func (cs *consumerService) loadSubscription(ctx context.Context, uow unitofwork.UnitOfWork, event events.Event) (*entity.Subscription, *entity.User, error) {
	id, ok := idFrom(event.Payload(), "subscription_id")
	if !ok {
		cs.logger.Warn("NOTIFICATION", "Event without subscription_id", map[string]interface{}{"type": event.EventType()})
		return nil, nil, nil
	}

	sub, err := uow.SubscriptionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, nil, err
	}
	if sub == nil {
		return nil, nil, nil
	}
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: sub.UserId})
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, nil
	}
	return sub, user, nil
}

// idFrom reads a numeric id from an event payload. Payloads that crossed a
// transport carry float64, in-process ones carry uint.
func idFrom(data map[string]interface{}, key string) (uint, bool) {
	switch v := data[key].(type) {
	case uint:
		return v, v > 0
	case int:
		return uint(v), v > 0
	case int64:
		return uint(v), v > 0
	case float64:
		return uint(v), v > 0
	default:
		return 0, false
	}
}
