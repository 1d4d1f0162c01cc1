// Package customer maps local accounts to billing provider customers.
package customer

import (
	"context"
	"fmt"
	"strconv"

	"saas-billing-be/internal/entity"
	"saas-billing-be/internal/pkg/apperror"
	"saas-billing-be/internal/pkg/gateway"
	"saas-billing-be/internal/pkg/logger"
	"saas-billing-be/internal/repository/specification"
	"saas-billing-be/internal/repository/unitofwork"
)

type Linker struct {
	gateway gateway.BillingGateway
	logger  logger.ILogger
}

func NewLinker(gateway gateway.BillingGateway, logger logger.ILogger) *Linker {
	return &Linker{
		gateway: gateway,
		logger:  logger,
	}
}

// EnsureCustomer returns the account's customer id, creating a provider
// customer on first use. The account row is written only after the provider
// call succeeded, and only if no concurrent request linked one first; in that
// case the stored id wins and the extra provider customer is left unused.
func (l *Linker) EnsureCustomer(ctx context.Context, uow unitofwork.UnitOfWork, user *entity.User) (string, error) {
	if user.HasBillingCustomer() {
		return *user.StripeCustomerId, nil
	}

	customerId, err := l.gateway.CreateCustomer(ctx, user.Email, user.FullName(), map[string]string{
		"user_id": strconv.FormatUint(uint64(user.Id), 10),
	})
	if err != nil {
		l.logger.Error("BILLING", "Failed to create billing customer", map[string]interface{}{
			"user_id": user.Id,
			"error":   err.Error(),
		})
		return "", apperror.ProviderUnavailable(err)
	}

	linked, err := uow.UserRepository().LinkStripeCustomer(ctx, user.Id, customerId)
	if err != nil {
		return "", fmt.Errorf("link billing customer: %w", err)
	}
	if linked {
		user.StripeCustomerId = &customerId
		l.logger.Info("BILLING", "Linked billing customer", map[string]interface{}{
			"user_id":     user.Id,
			"customer_id": customerId,
		})
		return customerId, nil
	}

	current, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: user.Id})
	if err != nil {
		return "", err
	}
	if current == nil {
		return "", apperror.ErrNotFound
	}
	if !current.HasBillingCustomer() {
		return "", fmt.Errorf("link billing customer: user %d not updated", user.Id)
	}
	l.logger.Warn("BILLING", "Customer linked concurrently, using stored id", map[string]interface{}{
		"user_id":      user.Id,
		"stored_id":    *current.StripeCustomerId,
		"discarded_id": customerId,
	})
	user.StripeCustomerId = current.StripeCustomerId
	return *current.StripeCustomerId, nil
}
