package unitofwork

import (
	"context"

	"saas-billing-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	SubscriptionRepository() contract.SubscriptionRepository
	SubscriptionAuditRepository() contract.SubscriptionAuditRepository
	BillingRepository() contract.BillingRepository
}
