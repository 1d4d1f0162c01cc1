package controller

import (
	"saas-billing-be/internal/pkg/serverutils"
	"saas-billing-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IInvoiceController interface {
	RegisterRoutes(r fiber.Router)
	ListMine(ctx *fiber.Ctx) error
	Get(ctx *fiber.Ctx) error
	Resend(ctx *fiber.Ctx) error
}

type invoiceController struct {
	service service.IInvoiceService
	auth    fiber.Handler
}

func NewInvoiceController(service service.IInvoiceService, auth fiber.Handler) IInvoiceController {
	return &invoiceController{service: service, auth: auth}
}

func (c *invoiceController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/invoices", c.auth)
	h.Get("/", c.ListMine)
	h.Get("/:id", c.Get)
	h.Post("/:id/send", serverutils.AdminOnly, c.Resend)
}

func (c *invoiceController) ListMine(ctx *fiber.Ctx) error {
	principal, err := serverutils.PrincipalFrom(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.ListMine(ctx.Context(), principal)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Invoices", res))
}

func (c *invoiceController) Get(ctx *fiber.Ctx) error {
	principal, err := serverutils.PrincipalFrom(ctx)
	if err != nil {
		return err
	}
	id, err := paramId(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.service.Get(ctx.Context(), principal, id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Invoice", res))
}

func (c *invoiceController) Resend(ctx *fiber.Ctx) error {
	principal, err := serverutils.PrincipalFrom(ctx)
	if err != nil {
		return err
	}
	id, err := paramId(ctx, "id")
	if err != nil {
		return err
	}

	if err := c.service.Resend(ctx.Context(), principal, id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Invoice sent", nil))
}
