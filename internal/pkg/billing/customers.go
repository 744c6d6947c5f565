package billing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	stripe "github.com/stripe/stripe-go/v74"

	"github.com/FabianKeller/PlanCart/app/models"
)

// FindOrCreateCustomer resolves an email to a Stripe customer, creating one
// when no match exists. Creation carries an idempotency key so a double
// submit from the checkout form cannot produce two provider customers.
func FindOrCreateCustomer(email, name string) (*stripe.Customer, error) {
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	sc := GetClient()

	listParams := &stripe.CustomerListParams{Email: stripe.String(email)}
	listParams.Limit = stripe.Int64(1)

	iter := sc.Customers.List(listParams)
	for iter.Next() {
		cus := iter.Customer()
		if !cus.Deleted {
			return cus, nil
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	params := &stripe.CustomerParams{Email: stripe.String(email)}
	if name != "" {
		params.Name = stripe.String(name)
	}
	params.AddMetadata("source", "plancart-checkout")
	// Keyed on the email so a double submit cannot create two provider
	// customers for the same address.
	sum := sha256.Sum256([]byte(email))
	params.SetIdempotencyKey("cus-create-" + hex.EncodeToString(sum[:16]))

	cus, err := sc.Customers.New(params)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return cus, nil
}
