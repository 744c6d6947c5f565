package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/FabianKeller/PlanCart/app/models"
	"github.com/FabianKeller/PlanCart/internal/pkg/billing"
	"github.com/FabianKeller/PlanCart/internal/pkg/store"
)

// HandleCheckoutSubscribe starts (or resumes) a subscription for the
// submitted email and returns the client secret for the payment widget.
func HandleCheckoutSubscribe(c *fiber.Ctx) error {
	var req models.SubscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "invalid_request",
			"message": "request body could not be parsed",
		})
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "validation_failed",
			"message": err.Error(),
		})
	}

	intent, err := billing.StartSubscription(store.GetStore(), req)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrPlanNotFound):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "unknown_plan",
				"message": "no such plan",
			})
		case errors.Is(err, billing.ErrPromotionCodeInvalid):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "invalid_promo_code",
				"field":   "promoCode",
				"message": "this promotion code is not valid",
			})
		case errors.Is(err, billing.ErrAlreadySubscribed):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":   "already_subscribed",
				"message": "this email already has an active subscription",
			})
		default:
			log.Printf("subscribe failed for plan %s: %v", req.Plan, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "subscribe_failed",
				"message": "the subscription could not be started",
			})
		}
	}

	return c.Status(fiber.StatusOK).JSON(intent)
}
