package controllers

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/FabianKeller/PlanCart/internal/pkg/billing"
	"github.com/FabianKeller/PlanCart/internal/pkg/store"
)

// stripeWebhookBodyLimit caps the payload size; real provider events are
// far smaller.
const stripeWebhookBodyLimit = 64 * 1024

// HandleStripeWebhook is the single entry point for billing provider
// events. Signature verification is the authentication mechanism for this
// endpoint; it is registered outside CSRF protection.
func HandleStripeWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	if len(rawBody) == 0 || len(rawBody) > stripeWebhookBodyLimit {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	signature := strings.TrimSpace(c.Get("Stripe-Signature"))
	event, err := billing.ConstructWebhookEvent(rawBody, signature)
	if err != nil {
		// Intentionally vague; a missing or wrong signature is invalid auth.
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_signature"})
	}

	fresh, err := billing.HandleEvent(store.GetStore(), event)
	if err != nil {
		log.Printf("webhook event %s (%s) failed: %v", event.ID, event.Type, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "event_processing_failed"})
	}
	if !fresh {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}
