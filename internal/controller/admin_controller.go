// FILE: internal/controller/admin_controller.go
package controller

import (
	"kt-assistant-be/internal/dto"
	"kt-assistant-be/internal/pkg/serverutils"
	"kt-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	RunMaintenance(ctx *fiber.Ctx) error
	ListSessions(ctx *fiber.Ctx) error
}

type adminController struct {
	maintenanceService service.IMaintenanceService
	jwtSecret          string
}

func NewAdminController(maintenanceService service.IMaintenanceService, jwtSecret string) IAdminController {
	return &adminController{
		maintenanceService: maintenanceService,
		jwtSecret:          jwtSecret,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin/v1")
	h.Use(serverutils.AdminJwtMiddleware(c.jwtSecret))
	h.Post("maintenance", c.RunMaintenance)
	h.Get("sessions", c.ListSessions)
}

// RunMaintenance expires idle sessions and purges orphaned vectors on demand.
func (c *adminController) RunMaintenance(ctx *fiber.Ctx) error {
	res := c.maintenanceService.Run(ctx.UserContext())
	return ctx.JSON(serverutils.SuccessResponse("Success run maintenance", res))
}

func (c *adminController) ListSessions(ctx *fiber.Ctx) error {
	var req dto.SessionListRequest
	if err := ctx.QueryParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res := c.maintenanceService.ListSessions(ctx.UserContext(), &req)
	return ctx.JSON(serverutils.SuccessResponse("Success list sessions", res))
}
