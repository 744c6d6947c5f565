package models

import (
	"github.com/go-playground/validator/v10"
)

// SubscribeRequest is the JSON body of the checkout subscribe endpoint.
type SubscribeRequest struct {
	Email     string `json:"email" validate:"required,email,min=5,max=200"`
	Plan      string `json:"plan" validate:"required,min=1,max=50"`
	PromoCode string `json:"promoCode" validate:"omitempty,min=1,max=50"`
}

func (r *SubscribeRequest) Validate() error {
	v := validator.New()

	return v.Struct(r)
}

// AccountLookupRequest is the form body of the account lookup page.
type AccountLookupRequest struct {
	Email string `form:"email" validate:"required,email,min=5,max=200"`
}

func (r *AccountLookupRequest) Validate() error {
	v := validator.New()

	return v.Struct(r)
}
