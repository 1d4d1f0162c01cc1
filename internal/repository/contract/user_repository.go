package contract

import (
	"context"

	"saas-billing-be/internal/entity"
	"saas-billing-be/internal/repository/specification"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// LinkStripeCustomer stores customerId only if the user has none yet.
	// It reports false when another writer linked a customer first.
	LinkStripeCustomer(ctx context.Context, userId uint, customerId string) (bool, error)
	Enable(ctx context.Context, userId uint) error
	UpdatePassword(ctx context.Context, userId uint, hash string) error
	TouchLastLogin(ctx context.Context, userId uint) error

	// Token Management
	CreatePasswordResetToken(ctx context.Context, token *entity.PasswordResetToken) error
	FindPasswordResetToken(ctx context.Context, specs ...specification.Specification) (*entity.PasswordResetToken, error)
	MarkTokenUsed(ctx context.Context, id uint) error

	CreateEmailVerificationToken(ctx context.Context, token *entity.EmailVerificationToken) error
	FindEmailVerificationToken(ctx context.Context, specs ...specification.Specification) (*entity.EmailVerificationToken, error)
	DeleteEmailVerificationTokens(ctx context.Context, userId uint) error
}
