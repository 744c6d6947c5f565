package viewmodel

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/FabianKeller/PlanCart/internal/pkg/env"
)

// PageData builds the fields every rendered page shares. Controllers add
// their page-specific keys on top.
func PageData(c *fiber.Ctx, page, title string) fiber.Map {
	return fiber.Map{
		"Page":  page,
		"Title": title,
		"Msg":   flash.Get(c),
		"IsDev": env.IsDev(),
	}
}
