package controller

import (
	"strconv"

	"saas-billing-be/internal/pkg/serverutils"
	"saas-billing-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	GetLogs(ctx *fiber.Ctx) error
	GetLogDetail(ctx *fiber.Ctx) error
}

type adminController struct {
	logService service.IAdminLogService
	auth       fiber.Handler
}

func NewAdminController(logService service.IAdminLogService, auth fiber.Handler) IAdminController {
	return &adminController{logService: logService, auth: auth}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin", c.auth, serverutils.AdminOnly)
	h.Get("/logs", c.GetLogs)
	h.Get("/logs/:id", c.GetLogDetail)
}

// GetLogs reads ?source=app|webhook, defaulting to the application log.
func (c *adminController) GetLogs(ctx *fiber.Ctx) error {
	page, _ := strconv.Atoi(ctx.Query("page", "1"))
	limit, _ := strconv.Atoi(ctx.Query("limit", "20"))
	level := ctx.Query("level", "")
	source := ctx.Query("source", service.LogSourceApp)

	logs, err := c.logService.GetLogs(ctx.Context(), source, level, page, limit)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("System logs", logs))
}

func (c *adminController) GetLogDetail(ctx *fiber.Ctx) error {
	source := ctx.Query("source", service.LogSourceApp)

	entry, err := c.logService.GetLogDetail(ctx.Context(), source, ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Log detail", entry))
}
