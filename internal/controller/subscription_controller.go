package controller

import (
	"saas-billing-be/internal/dto"
	"saas-billing-be/internal/pkg/apperror"
	"saas-billing-be/internal/pkg/serverutils"
	"saas-billing-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISubscriptionController interface {
	RegisterRoutes(r fiber.Router)
	CreateCheckoutSession(ctx *fiber.Ctx) error
	Activate(ctx *fiber.Ctx) error
	Cancel(ctx *fiber.Ctx) error
	CreatePortalSession(ctx *fiber.Ctx) error
	ListMine(ctx *fiber.Ctx) error
	ListByUser(ctx *fiber.Ctx) error
	GetActiveByUser(ctx *fiber.Ctx) error
	ListAudits(ctx *fiber.Ctx) error
}

type subscriptionController struct {
	service service.ISubscriptionService
	auth    fiber.Handler
}

func NewSubscriptionController(service service.ISubscriptionService, auth fiber.Handler) ISubscriptionController {
	return &subscriptionController{service: service, auth: auth}
}

func (c *subscriptionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/subscriptions", c.auth)
	h.Post("/create-checkout-session", c.CreateCheckoutSession)
	h.Post("/create-portal-session", c.CreatePortalSession)
	h.Post("/activate", c.Activate)
	h.Get("/", c.ListMine)
	h.Get("/user/:userId", c.ListByUser)
	h.Get("/active/user/:userId", c.GetActiveByUser)
	h.Get("/audits/user/:userId", c.ListAudits)
	h.Post("/:id/cancel", c.Cancel)
}

func (c *subscriptionController) CreateCheckoutSession(ctx *fiber.Ctx) error {
	principal, err := serverutils.PrincipalFrom(ctx)
	if err != nil {
		return err
	}
	var req dto.CreateCheckoutRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.CreateCheckoutSession(ctx.Context(), principal, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Checkout session created", res))
}

// Activate is called by the success page with the checkout session id. It
// reaches the same end state as the checkout.session.completed webhook.
func (c *subscriptionController) Activate(ctx *fiber.Ctx) error {
	principal, err := serverutils.PrincipalFrom(ctx)
	if err != nil {
		return err
	}
	sessionId := ctx.Query("session_id")
	if sessionId == "" {
		return apperror.Validation("session_id is required")
	}

	res, err := c.service.ActivateFromSession(ctx.Context(), principal, sessionId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Subscription activated", res))
}

func (c *subscriptionController) Cancel(ctx *fiber.Ctx) error {
	principal, err := serverutils.PrincipalFrom(ctx)
	if err != nil {
		return err
	}
	id, err := paramId(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.service.CancelSubscription(ctx.Context(), principal, id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Subscription canceled", res))
}

func (c *subscriptionController) CreatePortalSession(ctx *fiber.Ctx) error {
	principal, err := serverutils.PrincipalFrom(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.CreatePortalSession(ctx.Context(), principal)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Portal session created", res))
}

func (c *subscriptionController) ListMine(ctx *fiber.Ctx) error {
	principal, err := serverutils.PrincipalFrom(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.ListMine(ctx.Context(), principal)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Subscriptions", res))
}

func (c *subscriptionController) ListByUser(ctx *fiber.Ctx) error {
	principal, err := serverutils.PrincipalFrom(ctx)
	if err != nil {
		return err
	}
	userId, err := paramId(ctx, "userId")
	if err != nil {
		return err
	}

	res, err := c.service.ListByUser(ctx.Context(), principal, userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Subscriptions", res))
}

func (c *subscriptionController) GetActiveByUser(ctx *fiber.Ctx) error {
	principal, err := serverutils.PrincipalFrom(ctx)
	if err != nil {
		return err
	}
	userId, err := paramId(ctx, "userId")
	if err != nil {
		return err
	}

	res, err := c.service.GetActiveByUser(ctx.Context(), principal, userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Active subscription", res))
}

func (c *subscriptionController) ListAudits(ctx *fiber.Ctx) error {
	principal, err := serverutils.PrincipalFrom(ctx)
	if err != nil {
		return err
	}
	userId, err := paramId(ctx, "userId")
	if err != nil {
		return err
	}
	limit := ctx.QueryInt("limit", 50)
	offset := ctx.QueryInt("offset", 0)

	res, err := c.service.ListAudits(ctx.Context(), principal, userId, limit, offset)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Subscription audits", res))
}
