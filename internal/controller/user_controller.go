package controller

import (
	"saas-billing-be/internal/dto"
	"saas-billing-be/internal/pkg/serverutils"
	"saas-billing-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IUserController interface {
	RegisterRoutes(r fiber.Router)
	GetMe(ctx *fiber.Ctx) error
	GetUser(ctx *fiber.Ctx) error
	UpdateProfile(ctx *fiber.Ctx) error
	UpdatePassword(ctx *fiber.Ctx) error
	ListUsers(ctx *fiber.Ctx) error
}

type userController struct {
	service service.IUserService
	auth    fiber.Handler
}

func NewUserController(service service.IUserService, auth fiber.Handler) IUserController {
	return &userController{service: service, auth: auth}
}

func (c *userController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/users", c.auth)
	h.Get("/me", c.GetMe)
	h.Get("/", serverutils.AdminOnly, c.ListUsers)
	h.Get("/:id", c.GetUser)
	h.Put("/:id", c.UpdateProfile)
	h.Put("/:id/password", c.UpdatePassword)
}

func (c *userController) GetMe(ctx *fiber.Ctx) error {
	principal, err := serverutils.PrincipalFrom(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetMe(ctx.Context(), principal)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Profile", res))
}

func (c *userController) GetUser(ctx *fiber.Ctx) error {
	principal, err := serverutils.PrincipalFrom(ctx)
	if err != nil {
		return err
	}
	id, err := paramId(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.service.GetUserDetails(ctx.Context(), principal, id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("User details", res))
}

func (c *userController) UpdateProfile(ctx *fiber.Ctx) error {
	principal, err := serverutils.PrincipalFrom(ctx)
	if err != nil {
		return err
	}
	id, err := paramId(ctx, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateProfileRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.UpdateProfile(ctx.Context(), principal, id, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Profile updated", res))
}

func (c *userController) UpdatePassword(ctx *fiber.Ctx) error {
	principal, err := serverutils.PrincipalFrom(ctx)
	if err != nil {
		return err
	}
	id, err := paramId(ctx, "id")
	if err != nil {
		return err
	}
	var req dto.UpdatePasswordRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	if err := c.service.UpdatePassword(ctx.Context(), principal, id, &req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Password updated", nil))
}

func (c *userController) ListUsers(ctx *fiber.Ctx) error {
	principal, err := serverutils.PrincipalFrom(ctx)
	if err != nil {
		return err
	}
	page := ctx.QueryInt("page", 1)
	limit := ctx.QueryInt("limit", 20)

	res, err := c.service.ListUsers(ctx.Context(), principal, page, limit)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Users", res))
}
