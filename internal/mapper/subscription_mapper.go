package mapper

import (
	"saas-billing-be/internal/entity"
	"saas-billing-be/internal/model"

	"gorm.io/datatypes"
)

type SubscriptionMapper struct{}

func NewSubscriptionMapper() *SubscriptionMapper {
	return &SubscriptionMapper{}
}

func (m *SubscriptionMapper) ToEntity(s *model.Subscription) *entity.Subscription {
	if s == nil {
		return nil
	}
	return &entity.Subscription{
		Id:                   s.Id,
		UserId:               s.UserId,
		Plan:                 entity.PlanTier(s.Plan),
		Status:               entity.SubscriptionStatus(s.Status),
		Amount:               s.Amount,
		Currency:             s.Currency,
		CurrentPeriodStart:   s.CurrentPeriodStart,
		CurrentPeriodEnd:     s.CurrentPeriodEnd,
		StripeSubscriptionId: s.StripeSubscriptionId,
		StripeCustomerId:     s.StripeCustomerId,
		CheckoutSessionId:    s.CheckoutSessionId,
		CanceledAt:           s.CanceledAt,
		CancelReason:         s.CancelReason,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}
}

func (m *SubscriptionMapper) ToModel(s *entity.Subscription) *model.Subscription {
	if s == nil {
		return nil
	}
	return &model.Subscription{
		Id:                   s.Id,
		UserId:               s.UserId,
		Plan:                 string(s.Plan),
		Status:               string(s.Status),
		Amount:               s.Amount,
		Currency:             s.Currency,
		CurrentPeriodStart:   s.CurrentPeriodStart,
		CurrentPeriodEnd:     s.CurrentPeriodEnd,
		StripeSubscriptionId: s.StripeSubscriptionId,
		StripeCustomerId:     s.StripeCustomerId,
		CheckoutSessionId:    s.CheckoutSessionId,
		CanceledAt:           s.CanceledAt,
		CancelReason:         s.CancelReason,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}
}

func (m *SubscriptionMapper) ToEntities(subs []*model.Subscription) []*entity.Subscription {
	entities := make([]*entity.Subscription, len(subs))
	for i, s := range subs {
		entities[i] = m.ToEntity(s)
	}
	return entities
}

func (m *SubscriptionMapper) AuditToEntity(a *model.SubscriptionAudit) *entity.SubscriptionAudit {
	if a == nil {
		return nil
	}
	return &entity.SubscriptionAudit{
		Id:              a.Id,
		UserId:          a.UserId,
		Plan:            entity.PlanTier(a.Plan),
		StripeSessionId: a.StripeSessionId,
		Status:          a.Status,
		ErrorMessage:    a.ErrorMessage,
		Details:         map[string]interface{}(a.Details),
		CreatedAt:       a.CreatedAt,
	}
}

func (m *SubscriptionMapper) AuditToModel(a *entity.SubscriptionAudit) *model.SubscriptionAudit {
	if a == nil {
		return nil
	}
	return &model.SubscriptionAudit{
		Id:              a.Id,
		UserId:          a.UserId,
		Plan:            string(a.Plan),
		StripeSessionId: a.StripeSessionId,
		Status:          a.Status,
		ErrorMessage:    a.ErrorMessage,
		Details:         datatypes.JSONMap(a.Details),
		CreatedAt:       a.CreatedAt,
	}
}
