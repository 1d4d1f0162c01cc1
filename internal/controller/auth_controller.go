package controller

import (
	"saas-billing-be/internal/dto"
	"saas-billing-be/internal/pkg/serverutils"
	"saas-billing-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAuthController interface {
	RegisterRoutes(r fiber.Router)
	Register(ctx *fiber.Ctx) error
	VerifyEmail(ctx *fiber.Ctx) error
	ResendVerification(ctx *fiber.Ctx) error
	Login(ctx *fiber.Ctx) error
	ForgotPassword(ctx *fiber.Ctx) error
	ResetPassword(ctx *fiber.Ctx) error
}

type authController struct {
	service service.IAuthService
}

func NewAuthController(service service.IAuthService) IAuthController {
	return &authController{service: service}
}

func (c *authController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/auth")
	h.Post("/register", c.Register)
	h.Post("/verify-email", c.VerifyEmail)
	h.Post("/resend-verification", c.ResendVerification)
	h.Post("/login", c.Login)
	h.Post("/forgot-password", c.ForgotPassword)
	h.Post("/reset-password", c.ResetPassword)
}

func (c *authController) Register(ctx *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.Register(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("User registered. Check your inbox to verify the email address.", res))
}

func (c *authController) VerifyEmail(ctx *fiber.Ctx) error {
	var req dto.VerifyEmailRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	if err := c.service.VerifyEmail(ctx.Context(), &req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Email verified successfully", nil))
}

func (c *authController) ResendVerification(ctx *fiber.Ctx) error {
	var req dto.ResendVerificationRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	if err := c.service.ResendVerification(ctx.Context(), &req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Verification email sent", nil))
}

func (c *authController) Login(ctx *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.Login(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Login successful", res))
}

// ForgotPassword always answers the same way so the endpoint cannot be used
// to discover which addresses are registered.
func (c *authController) ForgotPassword(ctx *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	if err := c.service.ForgotPassword(ctx.Context(), &req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("If the email is registered, a reset link has been sent", nil))
}

func (c *authController) ResetPassword(ctx *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}

	if err := c.service.ResetPassword(ctx.Context(), &req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Password has been reset", nil))
}
