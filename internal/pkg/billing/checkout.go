package billing

import (
	"fmt"

	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v74"

	"github.com/FabianKeller/PlanCart/app/models"
	"github.com/FabianKeller/PlanCart/internal/pkg/store"
)

// CheckoutIntent is what the payment widget needs to collect a payment for a
// newly created (or resumed) subscription.
type CheckoutIntent struct {
	SubscriptionID string `json:"subscriptionId"`
	ClientSecret   string `json:"clientSecret"`
}

// StartSubscription runs the subscribe flow for a checkout submission:
// resolve the provider customer by email, guard against duplicate
// subscriptions, resolve an optional promotion code and create the
// subscription in default_incomplete mode so the widget can confirm the
// first payment.
//
// This path races the webhook handler for the same customer record; every
// local write goes through the store's read-modify-write helper and the
// resume path makes a second submit land on the already created provider
// subscription.
func StartSubscription(st *store.Store, req models.SubscribeRequest) (*CheckoutIntent, error) {
	plan, err := PlanByID(req.Plan)
	if err != nil {
		return nil, err
	}

	cus, err := FindOrCreateCustomer(req.Email, "")
	if err != nil {
		return nil, err
	}

	// Record the customer locally before touching the subscription so a
	// webhook event arriving mid-checkout finds the email already set.
	local, err := st.UpdateCustomer(cus.ID, func(c *models.Customer) {
		if c.Email == "" {
			c.Email = models.NormalizeEmail(req.Email)
		}
		if c.Name == "" {
			c.Name = cus.Name
		}
		c.Touch()
	})
	if err != nil {
		return nil, fmt.Errorf("save customer: %w", err)
	}

	if local.HasIncompleteSubscription() {
		return resumeSubscription(local.Subscription.ID)
	}
	if local.HasOpenSubscription() {
		return nil, ErrAlreadySubscribed
	}

	var promotionCodeID string
	if req.PromoCode != "" {
		promotionCodeID, err = resolvePromotionCode(req.PromoCode)
		if err != nil {
			return nil, err
		}
	}

	params := &stripe.SubscriptionParams{
		Customer: stripe.String(cus.ID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(plan.PriceID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
		PaymentSettings: &stripe.SubscriptionPaymentSettingsParams{
			SaveDefaultPaymentMethod: stripe.String("on_subscription"),
		},
	}
	if promotionCodeID != "" {
		params.PromotionCode = stripe.String(promotionCodeID)
	}
	params.AddMetadata("plan", plan.ID)
	params.AddMetadata("customer", cus.ID)
	params.AddExpand("latest_invoice.payment_intent")
	params.SetIdempotencyKey(uuid.NewString())

	sub, err := GetClient().Subscriptions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}

	// Snapshot the incomplete subscription locally; the webhook will confirm
	// it, but the resume path needs the id right away.
	if _, err := st.UpdateCustomer(cus.ID, func(c *models.Customer) {
		c.Subscription = subscriptionFromStripe(sub)
		c.Touch()
	}); err != nil {
		return nil, fmt.Errorf("save subscription: %w", err)
	}

	return intentFromSubscription(sub)
}

// resumeSubscription re-fetches an incomplete provider subscription and
// returns its payment intent client secret so the widget can finish the
// original payment instead of starting a second subscription.
func resumeSubscription(subscriptionID string) (*CheckoutIntent, error) {
	params := &stripe.SubscriptionParams{}
	params.AddExpand("latest_invoice.payment_intent")

	sub, err := GetClient().Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("get subscription %s: %w", subscriptionID, err)
	}
	return intentFromSubscription(sub)
}

func intentFromSubscription(sub *stripe.Subscription) (*CheckoutIntent, error) {
	if sub.LatestInvoice == nil || sub.LatestInvoice.PaymentIntent == nil ||
		sub.LatestInvoice.PaymentIntent.ClientSecret == "" {
		return nil, ErrNoClientSecret
	}
	return &CheckoutIntent{
		SubscriptionID: sub.ID,
		ClientSecret:   sub.LatestInvoice.PaymentIntent.ClientSecret,
	}, nil
}

// resolvePromotionCode maps a customer-facing redemption string to the
// provider's promotion code id. Validation rules (expiry, redemption caps,
// first-time-customer restrictions) stay with the provider.
func resolvePromotionCode(code string) (string, error) {
	params := &stripe.PromotionCodeListParams{
		Code:   stripe.String(code),
		Active: stripe.Bool(true),
	}
	params.Limit = stripe.Int64(1)

	iter := GetClient().PromotionCodes.List(params)
	for iter.Next() {
		return iter.PromotionCode().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("list promotion codes: %w", err)
	}
	return "", ErrPromotionCodeInvalid
}
