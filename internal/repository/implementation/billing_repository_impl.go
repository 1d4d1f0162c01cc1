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

type BillingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.BillingMapper
}

func NewBillingRepository(db *gorm.DB) contract.BillingRepository {
	return &BillingRepositoryImpl{
		db:     db,
		mapper: mapper.NewBillingMapper(),
	}
}

func (r *BillingRepositoryImpl) CreatePayment(ctx context.Context, payment *entity.Payment) error {
	m := r.mapper.PaymentToModel(payment)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*payment = *r.mapper.PaymentToEntity(m)
	return nil
}

func (r *BillingRepositoryImpl) FindOnePayment(ctx context.Context, specs ...specification.Specification) (*entity.Payment, error) {
	var m model.Payment
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.PaymentToEntity(&m), nil
}

func (r *BillingRepositoryImpl) CreateInvoice(ctx context.Context, invoice *entity.Invoice) error {
	m := r.mapper.InvoiceToModel(invoice)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*invoice = *r.mapper.InvoiceToEntity(m)
	return nil
}

func (r *BillingRepositoryImpl) FindOneInvoice(ctx context.Context, specs ...specification.Specification) (*entity.Invoice, error) {
	var m model.Invoice
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.InvoiceToEntity(&m), nil
}

func (r *BillingRepositoryImpl) FindAllInvoices(ctx context.Context, specs ...specification.Specification) ([]*entity.Invoice, error) {
	var models []*model.Invoice
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	invoices := make([]*entity.Invoice, len(models))
	for i, m := range models {
		invoices[i] = r.mapper.InvoiceToEntity(m)
	}
	return invoices, nil
}

func (r *BillingRepositoryImpl) MarkInvoiceEmailSent(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&model.Invoice{}).Where("id = ?", id).Update("email_sent", true).Error
}
