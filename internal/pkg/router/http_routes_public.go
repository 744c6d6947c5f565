package router

import (
	"github.com/FabianKeller/PlanCart/app/controllers"
	"github.com/gofiber/fiber/v2"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Shop pages
	app.Get("/", controllers.HandleShopIndex)
	app.Get("/checkout/return", controllers.HandleCheckoutReturn)
	app.Get("/checkout/:plan", controllers.HandleCheckoutPage)

	// Billing provider webhooks (no CSRF, signature-verified in controller)
	app.Post("/webhooks/stripe", controllers.HandleStripeWebhook)
}
