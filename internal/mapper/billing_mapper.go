package mapper

import (
	"saas-billing-be/internal/entity"
	"saas-billing-be/internal/model"
)

type BillingMapper struct{}

func NewBillingMapper() *BillingMapper {
	return &BillingMapper{}
}

func (m *BillingMapper) PaymentToEntity(p *model.Payment) *entity.Payment {
	if p == nil {
		return nil
	}
	return &entity.Payment{
		Id:                    p.Id,
		UserId:                p.UserId,
		SubscriptionId:        p.SubscriptionId,
		Amount:                p.Amount,
		Currency:              p.Currency,
		Status:                entity.PaymentStatus(p.Status),
		StripeInvoiceId:       p.StripeInvoiceId,
		StripePaymentIntentId: p.StripePaymentIntentId,
		StripeChargeId:        p.StripeChargeId,
		PaidAt:                p.PaidAt,
		FailureReason:         p.FailureReason,
		ReceiptUrl:            p.ReceiptUrl,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
}

func (m *BillingMapper) PaymentToModel(p *entity.Payment) *model.Payment {
	if p == nil {
		return nil
	}
	return &model.Payment{
		Id:                    p.Id,
		UserId:                p.UserId,
		SubscriptionId:        p.SubscriptionId,
		Amount:                p.Amount,
		Currency:              p.Currency,
		Status:                string(p.Status),
		StripeInvoiceId:       p.StripeInvoiceId,
		StripePaymentIntentId: p.StripePaymentIntentId,
		StripeChargeId:        p.StripeChargeId,
		PaidAt:                p.PaidAt,
		FailureReason:         p.FailureReason,
		ReceiptUrl:            p.ReceiptUrl,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
}

func (m *BillingMapper) InvoiceToEntity(i *model.Invoice) *entity.Invoice {
	if i == nil {
		return nil
	}
	return &entity.Invoice{
		Id:              i.Id,
		UserId:          i.UserId,
		SubscriptionId:  i.SubscriptionId,
		PaymentId:       i.PaymentId,
		InvoiceNumber:   i.InvoiceNumber,
		StripeInvoiceId: i.StripeInvoiceId,
		Amount:          i.Amount,
		Currency:        i.Currency,
		Status:          entity.InvoiceStatus(i.Status),
		DueDate:         i.DueDate,
		PaidAt:          i.PaidAt,
		HostedUrl:       i.HostedUrl,
		PdfUrl:          i.PdfUrl,
		EmailSent:       i.EmailSent,
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
	}
}

func (m *BillingMapper) InvoiceToModel(i *entity.Invoice) *model.Invoice {
	if i == nil {
		return nil
	}
	return &model.Invoice{
		Id:              i.Id,
		UserId:          i.UserId,
		SubscriptionId:  i.SubscriptionId,
		PaymentId:       i.PaymentId,
		InvoiceNumber:   i.InvoiceNumber,
		StripeInvoiceId: i.StripeInvoiceId,
		Amount:          i.Amount,
		Currency:        i.Currency,
		Status:          string(i.Status),
		DueDate:         i.DueDate,
		PaidAt:          i.PaidAt,
		HostedUrl:       i.HostedUrl,
		PdfUrl:          i.PdfUrl,
		EmailSent:       i.EmailSent,
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
	}
}
