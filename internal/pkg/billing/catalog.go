package billing

import (
	"fmt"
	"log"
	"time"

	stripe "github.com/stripe/stripe-go/v74"

	"github.com/FabianKeller/PlanCart/app/models"
	"github.com/FabianKeller/PlanCart/internal/pkg/cache"
	"github.com/FabianKeller/PlanCart/internal/pkg/env"
)

// priceCacheTTL bounds how stale the shop page's price display can get.
const priceCacheTTL = 10 * time.Minute

// Plans returns the local catalog. Price ids come from the environment so
// the same build works against test and live provider accounts.
func Plans() []models.Plan {
	return []models.Plan{
		{
			ID:      "starter",
			Name:    "Starter",
			Blurb:   "Everything you need to try PlanCart out.",
			PriceID: env.GetEnv("STRIPE_PRICE_STARTER", ""),
			Features: []string{
				"basic-reports",
				"email-support",
			},
		},
		{
			ID:      "plus",
			Name:    "Plus",
			Blurb:   "For shops that outgrew the starter limits.",
			PriceID: env.GetEnv("STRIPE_PRICE_PLUS", ""),
			Features: []string{
				"basic-reports",
				"email-support",
				"advanced-reports",
				"custom-domains",
			},
		},
		{
			ID:      "max",
			Name:    "Max",
			Blurb:   "All features, no limits, priority support.",
			PriceID: env.GetEnv("STRIPE_PRICE_MAX", ""),
			Features: []string{
				"basic-reports",
				"email-support",
				"advanced-reports",
				"custom-domains",
				"priority-support",
				"api-access",
			},
		},
	}
}

// PlanByID looks up a catalog plan by its local id.
func PlanByID(id string) (models.Plan, error) {
	for _, p := range Plans() {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Plan{}, ErrPlanNotFound
}

// PlanByPriceID maps a provider price id back to the catalog plan.
func PlanByPriceID(priceID string) (models.Plan, bool) {
	if priceID == "" {
		return models.Plan{}, false
	}
	for _, p := range Plans() {
		if p.PriceID == priceID {
			return p, true
		}
	}
	return models.Plan{}, false
}

// PriceDetails fetches display data for a provider price, cached in Redis so
// shop page renders do not call the provider every time.
func PriceDetails(priceID string) (*models.PriceDetails, error) {
	if priceID == "" {
		return nil, fmt.Errorf("price id is required")
	}

	cacheKey := "price:" + priceID
	cached := &models.PriceDetails{}
	if err := cache.GetJSON(cacheKey, cached); err == nil {
		return cached, nil
	}

	params := &stripe.PriceParams{}
	params.AddExpand("product")

	price, err := GetClient().Prices.Get(priceID, params)
	if err != nil {
		return nil, fmt.Errorf("get price %s: %w", priceID, err)
	}

	details := &models.PriceDetails{
		PriceID:    price.ID,
		UnitAmount: price.UnitAmount,
		Currency:   string(price.Currency),
	}
	if price.Recurring != nil {
		details.Interval = string(price.Recurring.Interval)
	}
	if price.Product != nil {
		details.ProductID = price.Product.ID
		details.ProductName = price.Product.Name
	}

	if err := cache.SetJSON(cacheKey, details, priceCacheTTL); err != nil {
		log.Printf("Warning: could not cache price %s: %v", priceID, err)
	}
	return details, nil
}
