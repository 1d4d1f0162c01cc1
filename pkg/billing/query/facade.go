// Package query is the read side of subscriptions. Callers see their own rows
// only, unless they are admins.
package query

import (
	"context"

	"saas-billing-be/internal/entity"
	"saas-billing-be/internal/pkg/apperror"
	"saas-billing-be/internal/repository/specification"
	"saas-billing-be/internal/repository/unitofwork"
)

type Facade struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewFacade(uowFactory unitofwork.RepositoryFactory) *Facade {
	return &Facade{uowFactory: uowFactory}
}

func (f *Facade) ListMine(ctx context.Context, principal entity.Principal) ([]*entity.Subscription, error) {
	return f.ListByUser(ctx, principal, principal.UserId)
}

func (f *Facade) ListByUser(ctx context.Context, principal entity.Principal, userId uint) ([]*entity.Subscription, error) {
	if !principal.CanAccess(userId) {
		return nil, apperror.ErrForbidden
	}
	uow := f.uowFactory.NewUnitOfWork(ctx)
	return uow.SubscriptionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.Newest{},
	)
}

func (f *Facade) GetActiveByUser(ctx context.Context, principal entity.Principal, userId uint) (*entity.Subscription, error) {
	if !principal.CanAccess(userId) {
		return nil, apperror.ErrForbidden
	}
	uow := f.uowFactory.NewUnitOfWork(ctx)
	sub, err := uow.SubscriptionRepository().FindOne(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.ByStatus{Status: entity.SubscriptionStatusActive},
	)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, apperror.ErrSubscriptionNotFound
	}
	return sub, nil
}

// Get hides other users' rows behind NotFound rather than Forbidden.
func (f *Facade) Get(ctx context.Context, principal entity.Principal, id uint) (*entity.Subscription, error) {
	uow := f.uowFactory.NewUnitOfWork(ctx)
	sub, err := uow.SubscriptionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if sub == nil || !principal.CanAccess(sub.UserId) {
		return nil, apperror.ErrSubscriptionNotFound
	}
	return sub, nil
}

// ListAudits is admin only.
func (f *Facade) ListAudits(ctx context.Context, principal entity.Principal, userId uint, limit, offset int) ([]*entity.SubscriptionAudit, int64, error) {
	if !principal.IsAdmin() {
		return nil, 0, apperror.ErrForbidden
	}
	uow := f.uowFactory.NewUnitOfWork(ctx)
	owned := specification.UserOwnedBy{UserID: userId}

	total, err := uow.SubscriptionAuditRepository().Count(ctx, owned)
	if err != nil {
		return nil, 0, err
	}
	audits, err := uow.SubscriptionAuditRepository().FindAll(ctx,
		owned,
		specification.Newest{},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err != nil {
		return nil, 0, err
	}
	return audits, total, nil
}
