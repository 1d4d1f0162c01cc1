package controller

import (
	"saas-billing-be/internal/pkg/apperror"
	"saas-billing-be/internal/pkg/serverutils"
	"saas-billing-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IWebhookController interface {
	RegisterRoutes(r fiber.Router)
	Stripe(ctx *fiber.Ctx) error
}

type webhookController struct {
	service service.IWebhookService
}

func NewWebhookController(service service.IWebhookService) IWebhookController {
	return &webhookController{service: service}
}

// RegisterRoutes mounts the provider endpoint without auth middleware; the
// signature header is the only credential.
func (c *webhookController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/webhook")
	h.Post("/stripe", c.Stripe)
}

// Stripe answers 400 for a bad signature, 500 when the event should be
// redelivered and 200 for everything else, including events that were dropped.
func (c *webhookController) Stripe(ctx *fiber.Ctx) error {
	// Body() is reused by fasthttp after the handler returns.
	payload := append([]byte(nil), ctx.Body()...)

	res, err := c.service.HandleStripeEvent(ctx.Context(), payload, ctx.Get("Stripe-Signature"))
	if err != nil {
		if apperror.KindOf(err) == apperror.KindSignature {
			return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "invalid signature"))
		}
		body := serverutils.ErrorResponse(fiber.StatusInternalServerError, "event not processed, retry")
		body.Error = apperror.Code(err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(body)
	}
	return ctx.JSON(serverutils.SuccessResponse("Event received", res))
}
