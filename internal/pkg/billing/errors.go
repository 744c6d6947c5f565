package billing

import "errors"

var (
	// ErrAlreadySubscribed is returned when a checkout attempt targets a
	// customer that already holds a non-terminal subscription.
	ErrAlreadySubscribed = errors.New("customer already has an open subscription")

	// ErrPromotionCodeInvalid is returned when the provider knows no active
	// promotion code for the submitted redemption string.
	ErrPromotionCodeInvalid = errors.New("promotion code is invalid or inactive")

	// ErrPlanNotFound is returned for checkout attempts against a plan id
	// missing from the catalog.
	ErrPlanNotFound = errors.New("plan not found")

	// ErrNoClientSecret is returned when the provider subscription carries no
	// payment intent client secret to hand to the payment widget.
	ErrNoClientSecret = errors.New("subscription has no payment intent client secret")
)
