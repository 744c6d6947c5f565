package router

import (
	"github.com/FabianKeller/PlanCart/app/controllers"
	"github.com/FabianKeller/PlanCart/internal/pkg/env"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
)

func (h HttpRouter) registerAdminRoutes(app *fiber.App) {
	adminGroup := app.Group("/admin", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("ADMIN_USER", "admin"): env.GetEnv("ADMIN_PASSWORD", "admin"),
		},
	}))
	adminGroup.Get("/", controllers.HandleAdminDashboard)
	adminGroup.Post("/wipe", controllers.HandleAdminWipe)
}
