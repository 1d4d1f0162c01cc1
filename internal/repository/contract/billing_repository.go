package contract

import (
	"context"

	"saas-billing-be/internal/entity"
	"saas-billing-be/internal/repository/specification"
)

type BillingRepository interface {
	CreatePayment(ctx context.Context, payment *entity.Payment) error
	FindOnePayment(ctx context.Context, specs ...specification.Specification) (*entity.Payment, error)

	CreateInvoice(ctx context.Context, invoice *entity.Invoice) error
	FindOneInvoice(ctx context.Context, specs ...specification.Specification) (*entity.Invoice, error)
	FindAllInvoices(ctx context.Context, specs ...specification.Specification) ([]*entity.Invoice, error)
	MarkInvoiceEmailSent(ctx context.Context, id uint) error
}
