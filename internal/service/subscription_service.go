package service

import (
	"context"
	"time"

	"saas-billing-be/internal/dto"
	"saas-billing-be/internal/entity"
	"saas-billing-be/internal/pkg/apperror"
	"saas-billing-be/internal/pkg/gateway"
	"saas-billing-be/internal/pkg/logger"
	"saas-billing-be/internal/repository/specification"
	"saas-billing-be/internal/repository/unitofwork"
	"saas-billing-be/pkg/billing/audit"
	"saas-billing-be/pkg/billing/checkout"
	billingEvents "saas-billing-be/pkg/billing/events"
	"saas-billing-be/pkg/billing/query"
	"saas-billing-be/pkg/billing/reconciler"
)

type ISubscriptionService interface {
	CreateCheckoutSession(ctx context.Context, principal entity.Principal, req *dto.CreateCheckoutRequest) (*dto.CheckoutSessionResponse, error)
	ActivateFromSession(ctx context.Context, principal entity.Principal, sessionId string) (*dto.SubscriptionResponse, error)
	CancelSubscription(ctx context.Context, principal entity.Principal, subscriptionId uint) (*dto.SubscriptionResponse, error)
	CreatePortalSession(ctx context.Context, principal entity.Principal) (*dto.PortalSessionResponse, error)

	ListMine(ctx context.Context, principal entity.Principal) ([]*dto.SubscriptionResponse, error)
	ListByUser(ctx context.Context, principal entity.Principal, userId uint) ([]*dto.SubscriptionResponse, error)
	GetActiveByUser(ctx context.Context, principal entity.Principal, userId uint) (*dto.SubscriptionResponse, error)
	ListAudits(ctx context.Context, principal entity.Principal, userId uint, limit, offset int) (*dto.AuditListResponse, error)
}

type subscriptionService struct {
	uowFactory      unitofwork.RepositoryFactory
	gateway         gateway.BillingGateway
	initiator       *checkout.Initiator
	reconciler      *reconciler.Reconciler
	queries         *query.Facade
	audit           *audit.Writer
	publisher       billingEvents.Publisher
	logger          logger.ILogger
	portalReturnURL string
}

func NewSubscriptionService(
	uowFactory unitofwork.RepositoryFactory,
	gw gateway.BillingGateway,
	initiator *checkout.Initiator,
	reconciler *reconciler.Reconciler,
	queries *query.Facade,
	auditWriter *audit.Writer,
	publisher billingEvents.Publisher,
	logger logger.ILogger,
	portalReturnURL string,
) ISubscriptionService {
	return &subscriptionService{
		uowFactory:      uowFactory,
		gateway:         gw,
		initiator:       initiator,
		reconciler:      reconciler,
		queries:         queries,
		audit:           auditWriter,
		publisher:       publisher,
		logger:          logger,
		portalReturnURL: portalReturnURL,
	}
}

func (s *subscriptionService) CreateCheckoutSession(ctx context.Context, principal entity.Principal, req *dto.CreateCheckoutRequest) (*dto.CheckoutSessionResponse, error) {
	res, err := s.initiator.Initiate(ctx, principal, req.Plan)
	if err != nil {
		return nil, err
	}
	return &dto.CheckoutSessionResponse{
		SessionId:      res.SessionId,
		URL:            res.URL,
		SubscriptionId: res.SubscriptionId,
	}, nil
}

func (s *subscriptionService) ActivateFromSession(ctx context.Context, principal entity.Principal, sessionId string) (*dto.SubscriptionResponse, error) {
	sub, err := s.reconciler.ActivateFromSession(ctx, principal, sessionId)
	if err != nil {
		return nil, err
	}
	return toSubscriptionResponse(sub), nil
}

// CancelSubscription cancels at the provider first. The local row only moves
// to CANCELED once the provider accepted, and the subscription.deleted event
// that follows finds it already canceled.
func (s *subscriptionService) CancelSubscription(ctx context.Context, principal entity.Principal, subscriptionId uint) (*dto.SubscriptionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sub, err := uow.SubscriptionRepository().FindOne(ctx, specification.ByID{ID: subscriptionId})
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, apperror.ErrSubscriptionNotFound
	}
	if sub.UserId != principal.UserId {
		return nil, apperror.ErrForbidden
	}
	if sub.Status != entity.SubscriptionStatusActive {
		return nil, apperror.Validation("only an active subscription can be canceled")
	}

	if sub.StripeSubscriptionId != nil {
		if err := s.gateway.CancelSubscription(ctx, *sub.StripeSubscriptionId); err != nil {
			s.logger.Error("BILLING", "Provider rejected cancellation", map[string]interface{}{
				"subscription_id": sub.Id,
				"error":           err.Error(),
			})
			s.audit.WriteDetached(ctx, audit.Failure(sub.UserId, sub.Plan, "", entity.AuditCancelFailed, err))
			return nil, apperror.ProviderUnavailable(err)
		}
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	locked, err := uow.SubscriptionRepository().FindOne(ctx, specification.ByID{ID: sub.Id}, specification.ForUpdate{})
	if err != nil {
		return nil, err
	}
	if locked == nil {
		return nil, apperror.ErrSubscriptionNotFound
	}
	if locked.Status == entity.SubscriptionStatusCanceled {
		return toSubscriptionResponse(locked), nil
	}

	previous := locked.Status
	locked.Cancel(time.Now(), entity.CancelReasonUser)
	if err := uow.SubscriptionRepository().Update(ctx, locked); err != nil {
		return nil, err
	}

	entry := audit.Entry(locked.UserId, locked.Plan, "", entity.AuditSubscriptionCanceled)
	entry.Details = map[string]interface{}{
		"subscription_id": locked.Id,
		"from":            string(previous),
		"reason":          entity.CancelReasonUser,
	}
	if err := s.audit.Write(ctx, uow, entry); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.logger.Info("BILLING", "Subscription canceled by user", map[string]interface{}{
		"subscription_id": locked.Id,
		"user_id":         locked.UserId,
	})
	s.publisher.PublishSubscriptionCanceled(ctx, locked)
	return toSubscriptionResponse(locked), nil
}

func (s *subscriptionService) CreatePortalSession(ctx context.Context, principal entity.Principal) (*dto.PortalSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: principal.UserId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.ErrNotFound
	}
	if !user.HasBillingCustomer() {
		return nil, apperror.Validation("account has no billing profile yet")
	}

	url, err := s.gateway.CreatePortalSession(ctx, *user.StripeCustomerId, s.portalReturnURL)
	if err != nil {
		return nil, apperror.ProviderUnavailable(err)
	}
	return &dto.PortalSessionResponse{URL: url}, nil
}

func (s *subscriptionService) ListMine(ctx context.Context, principal entity.Principal) ([]*dto.SubscriptionResponse, error) {
	subs, err := s.queries.ListMine(ctx, principal)
	if err != nil {
		return nil, err
	}
	return toSubscriptionResponses(subs), nil
}

func (s *subscriptionService) ListByUser(ctx context.Context, principal entity.Principal, userId uint) ([]*dto.SubscriptionResponse, error) {
	subs, err := s.queries.ListByUser(ctx, principal, userId)
	if err != nil {
		return nil, err
	}
	return toSubscriptionResponses(subs), nil
}

func (s *subscriptionService) GetActiveByUser(ctx context.Context, principal entity.Principal, userId uint) (*dto.SubscriptionResponse, error) {
	sub, err := s.queries.GetActiveByUser(ctx, principal, userId)
	if err != nil {
		return nil, err
	}
	return toSubscriptionResponse(sub), nil
}

func (s *subscriptionService) ListAudits(ctx context.Context, principal entity.Principal, userId uint, limit, offset int) (*dto.AuditListResponse, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	audits, total, err := s.queries.ListAudits(ctx, principal, userId, limit, offset)
	if err != nil {
		return nil, err
	}

	res := &dto.AuditListResponse{
		Audits: make([]*dto.SubscriptionAuditResponse, 0, len(audits)),
		Total:  total,
	}
	for _, a := range audits {
		res.Audits = append(res.Audits, &dto.SubscriptionAuditResponse{
			Id:              a.Id,
			UserId:          a.UserId,
			Plan:            string(a.Plan),
			StripeSessionId: a.StripeSessionId,
			Status:          a.Status,
			ErrorMessage:    a.ErrorMessage,
			Details:         a.Details,
			CreatedAt:       a.CreatedAt,
		})
	}
	return res, nil
}

func toSubscriptionResponse(s *entity.Subscription) *dto.SubscriptionResponse {
	return &dto.SubscriptionResponse{
		Id:                   s.Id,
		UserId:               s.UserId,
		Plan:                 string(s.Plan),
		Status:               string(s.Status),
		Amount:               s.Amount,
		Currency:             s.Currency,
		CurrentPeriodStart:   s.CurrentPeriodStart,
		CurrentPeriodEnd:     s.CurrentPeriodEnd,
		StripeSubscriptionId: s.StripeSubscriptionId,
		CanceledAt:           s.CanceledAt,
		CancelReason:         s.CancelReason,
		CreatedAt:            s.CreatedAt,
	}
}

func toSubscriptionResponses(subs []*entity.Subscription) []*dto.SubscriptionResponse {
	out := make([]*dto.SubscriptionResponse, 0, len(subs))
	for _, s := range subs {
		out = append(out, toSubscriptionResponse(s))
	}
	return out
}
