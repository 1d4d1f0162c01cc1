package implementation

import (
	"context"
	"errors"

	"saas-billing-be/internal/entity"
	"saas-billing-be/internal/mapper"
	"saas-billing-be/internal/model"
	"saas-billing-be/internal/repository/contract"
	"saas-billing-be/internal/repository/specification"

	"gorm.io/gorm"
)

type SubscriptionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SubscriptionMapper
}

func NewSubscriptionRepository(db *gorm.DB) contract.SubscriptionRepository {
	return &SubscriptionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSubscriptionMapper(),
	}
}

func (r *SubscriptionRepositoryImpl) Create(ctx context.Context, subscription *entity.Subscription) error {
	m := r.mapper.ToModel(subscription)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*subscription = *r.mapper.ToEntity(m)
	return nil
}

func (r *SubscriptionRepositoryImpl) Update(ctx context.Context, subscription *entity.Subscription) error {
	m := r.mapper.ToModel(subscription)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*subscription = *r.mapper.ToEntity(m)
	return nil
}

func (r *SubscriptionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Subscription, error) {
	var m model.Subscription
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *SubscriptionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Subscription, error) {
	var models []*model.Subscription
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *SubscriptionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Subscription{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *SubscriptionRepositoryImpl) ActivatePending(ctx context.Context, subscription *entity.Subscription) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("id = ? AND status = ?", subscription.Id, string(entity.SubscriptionStatusPending)).
		Updates(map[string]interface{}{
			"status":                 string(entity.SubscriptionStatusActive),
			"stripe_subscription_id": subscription.StripeSubscriptionId,
			"stripe_customer_id":     subscription.StripeCustomerId,
			"current_period_start":   subscription.CurrentPeriodStart,
			"current_period_end":     subscription.CurrentPeriodEnd,
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected != 1 {
		return false, nil
	}
	subscription.Status = entity.SubscriptionStatusActive
	return true, nil
}

// Audit Implementation

type SubscriptionAuditRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SubscriptionMapper
}

func NewSubscriptionAuditRepository(db *gorm.DB) contract.SubscriptionAuditRepository {
	return &SubscriptionAuditRepositoryImpl{
		db:     db,
		mapper: mapper.NewSubscriptionMapper(),
	}
}

func (r *SubscriptionAuditRepositoryImpl) Create(ctx context.Context, audit *entity.SubscriptionAudit) error {
	m := r.mapper.AuditToModel(audit)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*audit = *r.mapper.AuditToEntity(m)
	return nil
}

func (r *SubscriptionAuditRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SubscriptionAudit, error) {
	var models []*model.SubscriptionAudit
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	audits := make([]*entity.SubscriptionAudit, len(models))
	for i, m := range models {
		audits[i] = r.mapper.AuditToEntity(m)
	}
	return audits, nil
}

func (r *SubscriptionAuditRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.SubscriptionAudit{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
