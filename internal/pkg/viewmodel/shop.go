package viewmodel

import (
	"fmt"
	"strings"

	"github.com/FabianKeller/PlanCart/app/models"
)

// PlanCard is one plan on the shop index.
type PlanCard struct {
	ID       string
	Name     string
	Blurb    string
	Price    string
	Features []string
}

// NewPlanCard combines the local catalog entry with the cached provider
// price snapshot. A nil price (provider unreachable) leaves the amount
// blank rather than failing the page.
func NewPlanCard(plan models.Plan, price *models.PriceDetails) PlanCard {
	card := PlanCard{
		ID:       plan.ID,
		Name:     plan.Name,
		Blurb:    plan.Blurb,
		Features: plan.Features,
	}
	if price != nil && price.UnitAmount > 0 {
		card.Price = FormatAmount(price.UnitAmount, price.Currency, price.Interval)
	}
	return card
}

// FormatAmount renders a minor-unit amount like "9.00 EUR / month".
func FormatAmount(unitAmount int64, currency, interval string) string {
	s := fmt.Sprintf("%d.%02d %s", unitAmount/100, unitAmount%100, strings.ToUpper(currency))
	if interval != "" {
		s += " / " + interval
	}
	return s
}

// AccountView is the account page's rendering of a customer record.
type AccountView struct {
	Email              string
	Name               string
	SubscriptionStatus string
	Suspended          bool
	SuspensionReason   string
	FailedAttempts     int64
	Features           []FeatureRow
}

// FeatureRow is one feature with its access state.
type FeatureRow struct {
	LookupKey string
	Granted   bool
}
