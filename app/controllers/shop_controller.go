package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/FabianKeller/PlanCart/internal/pkg/billing"
	"github.com/FabianKeller/PlanCart/internal/pkg/env"
	"github.com/FabianKeller/PlanCart/internal/pkg/viewmodel"
)

// HandleShopIndex renders the plan cards.
func HandleShopIndex(c *fiber.Ctx) error {
	cards := make([]viewmodel.PlanCard, 0, 3)
	for _, plan := range billing.Plans() {
		price, err := billing.PriceDetails(plan.PriceID)
		if err != nil {
			// Render the card without an amount instead of failing the page.
			log.Printf("price lookup for plan %s failed: %v", plan.ID, err)
			price = nil
		}
		cards = append(cards, viewmodel.NewPlanCard(plan, price))
	}

	data := viewmodel.PageData(c, "shop", "PlanCart")
	data["Plans"] = cards
	return c.Render("index", data, "layouts/main")
}

// HandleCheckoutPage renders the email/promo form and the payment widget
// container for one plan.
func HandleCheckoutPage(c *fiber.Ctx) error {
	plan, err := billing.PlanByID(c.Params("plan"))
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Unknown plan"}).Redirect("/", fiber.StatusSeeOther)
	}

	price, err := billing.PriceDetails(plan.PriceID)
	if err != nil {
		log.Printf("price lookup for plan %s failed: %v", plan.ID, err)
	}

	data := viewmodel.PageData(c, "checkout", "Checkout "+plan.Name)
	data["Plan"] = viewmodel.NewPlanCard(plan, price)
	data["PublishableKey"] = env.GetEnv("STRIPE_PUBLISHABLE_KEY", "")
	return c.Render("checkout", data, "layouts/main")
}

// HandleCheckoutReturn is the post-payment landing page. The widget
// redirects here with a redirect_status query parameter.
func HandleCheckoutReturn(c *fiber.Ctx) error {
	status := c.Query("redirect_status")
	succeeded := status == "succeeded"

	data := viewmodel.PageData(c, "return", "Payment result")
	data["Succeeded"] = succeeded
	data["Status"] = status
	return c.Render("return", data, "layouts/main")
}
