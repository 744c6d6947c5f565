package controllers

import (
	"sort"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/FabianKeller/PlanCart/internal/pkg/store"
	"github.com/FabianKeller/PlanCart/internal/pkg/viewmodel"
)

// HandleAdminDashboard lists all stored customer records.
func HandleAdminDashboard(c *fiber.Ctx) error {
	customers := store.GetStore().ListCustomers()
	sort.Slice(customers, func(i, j int) bool {
		return customers[i].CreatedAt.Before(customers[j].CreatedAt)
	})

	type row struct {
		ID           string
		Email        string
		Status       string
		Suspended    bool
		Entitlements int
	}

	rows := make([]row, 0, len(customers))
	for _, customer := range customers {
		r := row{
			ID:           customer.ID,
			Email:        customer.Email,
			Suspended:    customer.Suspended,
			Entitlements: len(customer.Entitlements) + len(customer.SuspendedEntitlements),
		}
		if customer.Subscription != nil {
			r.Status = customer.Subscription.Status
		}
		rows = append(rows, r)
	}

	data := viewmodel.PageData(c, "admin", "Admin")
	data["Customers"] = rows
	data["Count"] = len(rows)
	return c.Render("admin", data, "layouts/main")
}

// HandleAdminWipe resets the store document. The only deletion path for
// customer records.
func HandleAdminWipe(c *fiber.Ctx) error {
	if err := store.GetStore().Wipe(); err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Wipe failed"}).Redirect("/admin", fiber.StatusSeeOther)
	}
	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "All customer records wiped"}).Redirect("/admin", fiber.StatusSeeOther)
}
