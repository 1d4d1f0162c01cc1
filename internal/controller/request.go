package controller

import (
	"strconv"

	"saas-billing-be/internal/pkg/apperror"
	"saas-billing-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
)

func parseBody(ctx *fiber.Ctx, req interface{}) error {
	if err := ctx.BodyParser(req); err != nil {
		return apperror.Validation("invalid request body")
	}
	return serverutils.ValidateRequest(req)
}

func paramId(ctx *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(ctx.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Validation("invalid " + name)
	}
	return uint(id), nil
}
