package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/FabianKeller/PlanCart/app/models"
	"github.com/FabianKeller/PlanCart/internal/pkg/billing"
	"github.com/FabianKeller/PlanCart/internal/pkg/entitlements"
	"github.com/FabianKeller/PlanCart/internal/pkg/session"
	"github.com/FabianKeller/PlanCart/internal/pkg/store"
	"github.com/FabianKeller/PlanCart/internal/pkg/viewmodel"
)

// HandleAccountLookup renders the email lookup form (GET) and, on POST,
// the subscription status and feature access for the matched customer.
func HandleAccountLookup(c *fiber.Ctx) error {
	data := viewmodel.PageData(c, "account", "Your account")
	data["CsrfToken"] = c.Locals("csrf")
	data["LastEmail"] = ""

	if c.Method() == fiber.MethodGet {
		// Pre-fill the form with the last successful lookup.
		data["LastEmail"] = session.GetSessionValue(c, "account_email")
		return c.Render("account", data, "layouts/main")
	}

	var req models.AccountLookupRequest
	if err := c.BodyParser(&req); err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "The form could not be read"}).Redirect("/account", fiber.StatusSeeOther)
	}
	if err := req.Validate(); err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Please enter a valid email address"}).Redirect("/account", fiber.StatusSeeOther)
	}

	customer, err := store.GetStore().FindCustomerByEmail(req.Email)
	if err != nil {
		if errors.Is(err, store.ErrCustomerNotFound) {
			data["NotFound"] = true
			data["Email"] = req.Email
			data["LastEmail"] = req.Email
			return c.Render("account", data, "layouts/main")
		}
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Lookup failed"}).Redirect("/account", fiber.StatusSeeOther)
	}

	if err := session.SetSessionValue(c, "account_email", customer.Email); err != nil {
		log.Printf("could not store account email in session: %v", err)
	}

	data["Account"] = accountView(customer)
	data["LastEmail"] = customer.Email
	return c.Render("account", data, "layouts/main")
}

// accountView resolves the customer's feature access against the full
// feature list of the catalog, so blocked features render as blocked
// instead of disappearing.
func accountView(customer *models.Customer) viewmodel.AccountView {
	view := viewmodel.AccountView{
		Email:     customer.Email,
		Name:      customer.Name,
		Suspended: customer.Suspended,
	}
	if customer.Subscription != nil {
		view.SubscriptionStatus = customer.Subscription.Status
	}
	if customer.SuspensionInfo != nil {
		view.SuspensionReason = customer.SuspensionInfo.Reason
		view.FailedAttempts = customer.SuspensionInfo.AttemptCount
	}

	seen := map[string]bool{}
	for _, plan := range billing.Plans() {
		for _, feature := range plan.Features {
			if seen[feature] {
				continue
			}
			seen[feature] = true
			view.Features = append(view.Features, viewmodel.FeatureRow{
				LookupKey: feature,
				Granted:   entitlements.CanAccess(customer, feature),
			})
		}
	}
	return view
}
