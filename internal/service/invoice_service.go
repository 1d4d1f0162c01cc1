package service

import (
	"context"
	"fmt"

	"saas-billing-be/internal/dto"
	"saas-billing-be/internal/entity"
	"saas-billing-be/internal/pkg/apperror"
	"saas-billing-be/internal/pkg/logger"
	"saas-billing-be/internal/pkg/mailer"
	"saas-billing-be/internal/repository/specification"
	"saas-billing-be/internal/repository/unitofwork"
)

type IInvoiceService interface {
	ListMine(ctx context.Context, principal entity.Principal) ([]*dto.InvoiceResponse, error)
	Get(ctx context.Context, principal entity.Principal, id uint) (*dto.InvoiceResponse, error)
	Resend(ctx context.Context, principal entity.Principal, id uint) error
}

type invoiceService struct {
	uowFactory   unitofwork.RepositoryFactory
	emailService mailer.IEmailService
	logger       logger.ILogger
}

func NewInvoiceService(uowFactory unitofwork.RepositoryFactory, emailService mailer.IEmailService, logger logger.ILogger) IInvoiceService {
	return &invoiceService{
		uowFactory:   uowFactory,
		emailService: emailService,
		logger:       logger,
	}
}

func (s *invoiceService) ListMine(ctx context.Context, principal entity.Principal) ([]*dto.InvoiceResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	invoices, err := uow.BillingRepository().FindAllInvoices(ctx,
		specification.UserOwnedBy{UserID: principal.UserId},
		specification.Newest{},
	)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, toInvoiceResponse(inv))
	}
	return out, nil
}

func (s *invoiceService) Get(ctx context.Context, principal entity.Principal, id uint) (*dto.InvoiceResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	inv, err := uow.BillingRepository().FindOneInvoice(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if inv == nil || !principal.CanAccess(inv.UserId) {
		return nil, apperror.ErrNotFound
	}
	return toInvoiceResponse(inv), nil
}

func (s *invoiceService) Resend(ctx context.Context, principal entity.Principal, id uint) error {
	if !principal.IsAdmin() {
		return apperror.ErrForbidden
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	inv, err := uow.BillingRepository().FindOneInvoice(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if inv == nil {
		return apperror.ErrNotFound
	}
	return sendInvoice(ctx, uow, s.emailService, inv)
}

// sendInvoice mails inv to its owner and flags it as sent.
func sendInvoice(ctx context.Context, uow unitofwork.UnitOfWork, emailService mailer.IEmailService, inv *entity.Invoice) error {
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: inv.UserId})
	if err != nil {
		return err
	}
	if user == nil {
		return apperror.ErrNotFound
	}

	if err := emailService.SendTemplate(user.Email, mailer.TemplateInvoice, invoiceMailVars(user, inv)); err != nil {
		return fmt.Errorf("send invoice %s: %w", inv.InvoiceNumber, err)
	}
	return uow.BillingRepository().MarkInvoiceEmailSent(ctx, inv.Id)
}

func invoiceMailVars(user *entity.User, inv *entity.Invoice) map[string]interface{} {
	vars := map[string]interface{}{
		"Name":          user.FullName(),
		"InvoiceNumber": inv.InvoiceNumber,
		"Amount":        fmt.Sprintf("%.2f", inv.Amount),
		"Currency":      inv.Currency,
		"PaidAt":        "",
		"HostedUrl":     "",
		"PdfUrl":        "",
	}
	if inv.PaidAt != nil {
		vars["PaidAt"] = inv.PaidAt.Format("2 Jan 2006")
	}
	if inv.HostedUrl != nil {
		vars["HostedUrl"] = *inv.HostedUrl
	}
	if inv.PdfUrl != nil {
		vars["PdfUrl"] = *inv.PdfUrl
	}
	return vars
}

func toInvoiceResponse(inv *entity.Invoice) *dto.InvoiceResponse {
	return &dto.InvoiceResponse{
		Id:             inv.Id,
		InvoiceNumber:  inv.InvoiceNumber,
		SubscriptionId: inv.SubscriptionId,
		Amount:         inv.Amount,
		Currency:       inv.Currency,
		Status:         string(inv.Status),
		DueDate:        inv.DueDate,
		PaidAt:         inv.PaidAt,
		HostedUrl:      inv.HostedUrl,
		PdfUrl:         inv.PdfUrl,
		EmailSent:      inv.EmailSent,
		CreatedAt:      inv.CreatedAt,
	}
}
