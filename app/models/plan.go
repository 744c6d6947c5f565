package models

// Plan is a locally configured catalog entry. The provider owns the actual
// price and product objects; Plan only carries the reference plus marketing
// copy for the shop pages.
type Plan struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Blurb    string   `json:"blurb"`
	PriceID  string   `json:"price_id"`
	Features []string `json:"features"`
}

// PriceDetails is the cached snapshot of a provider price used for display.
type PriceDetails struct {
	PriceID     string `json:"price_id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitAmount  int64  `json:"unit_amount"`
	Currency    string `json:"currency"`
	Interval    string `json:"interval"`
}
