package viewmodel

import (
	"testing"

	"github.com/FabianKeller/PlanCart/app/models"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount   int64
		currency string
		interval string
		want     string
	}{
		{amount: 900, currency: "eur", interval: "month", want: "9.00 EUR / month"},
		{amount: 1950, currency: "usd", interval: "year", want: "19.50 USD / year"},
		{amount: 5, currency: "eur", interval: "", want: "0.05 EUR"},
	}

	for _, tt := range tests {
		if got := FormatAmount(tt.amount, tt.currency, tt.interval); got != tt.want {
			t.Fatalf("FormatAmount(%d, %q, %q) = %q, want %q",
				tt.amount, tt.currency, tt.interval, got, tt.want)
		}
	}
}

func TestNewPlanCardWithoutPrice(t *testing.T) {
	plan := models.Plan{ID: "starter", Name: "Starter", Features: []string{"basic-reports"}}

	card := NewPlanCard(plan, nil)
	if card.Price != "" {
		t.Fatalf("expected blank price when provider data is missing, got %q", card.Price)
	}
	if card.ID != "starter" || len(card.Features) != 1 {
		t.Fatalf("catalog fields not carried over: %+v", card)
	}
}

func TestNewPlanCardWithPrice(t *testing.T) {
	plan := models.Plan{ID: "plus", Name: "Plus"}
	price := &models.PriceDetails{UnitAmount: 1900, Currency: "eur", Interval: "month"}

	card := NewPlanCard(plan, price)
	if card.Price != "19.00 EUR / month" {
		t.Fatalf("unexpected price %q", card.Price)
	}
}
