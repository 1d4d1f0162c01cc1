package contract

import (
	"context"

	"saas-billing-be/internal/entity"
	"saas-billing-be/internal/repository/specification"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *entity.Subscription) error
	Update(ctx context.Context, subscription *entity.Subscription) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Subscription, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Subscription, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// ActivatePending writes the activation fields only while the row is still
	// PENDING. It reports false when the row already left PENDING.
	ActivatePending(ctx context.Context, subscription *entity.Subscription) (bool, error)
}

// SubscriptionAuditRepository is append-only: there is no update or delete.
type SubscriptionAuditRepository interface {
	Create(ctx context.Context, audit *entity.SubscriptionAudit) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.SubscriptionAudit, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
