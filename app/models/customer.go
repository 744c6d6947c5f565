package models

import (
	"strings"
	"time"
)

const (
	SubscriptionStatusActive            = "active"
	SubscriptionStatusTrialing          = "trialing"
	SubscriptionStatusPastDue           = "past_due"
	SubscriptionStatusCanceled          = "canceled"
	SubscriptionStatusIncomplete        = "incomplete"
	SubscriptionStatusIncompleteExpired = "incomplete_expired"
	SubscriptionStatusUnpaid            = "unpaid"
)

const (
	EntitlementStatusActive    = "active"
	EntitlementStatusSuspended = "suspended"
)

// SuspensionReasonPaymentFailed is the only suspension reason the webhook
// state machine currently produces.
const SuspensionReasonPaymentFailed = "payment_failed"

// Entitlement is a provider-computed feature grant, recorded as reported by
// the entitlement summary webhook event.
type Entitlement struct {
	ID        string `json:"id"`
	FeatureID string `json:"feature_id"`
	LookupKey string `json:"lookup_key"`
	Status    string `json:"status"`
}

// SuspensionInfo records why and when a customer was suspended.
type SuspensionInfo struct {
	Reason        string    `json:"reason"`
	SuspendedAt   time.Time `json:"suspended_at"`
	LastFailureAt time.Time `json:"last_failure_at"`
	AttemptCount  int64     `json:"attempt_count"`
}

// Subscription mirrors the provider subscription state for a customer.
type Subscription struct {
	ID                 string     `json:"id"`
	Status             string     `json:"status"`
	PriceID            string     `json:"price_id"`
	ProductID          string     `json:"product_id"`
	CurrentPeriodStart *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd  bool       `json:"cancel_at_period_end"`
	CanceledAt         *time.Time `json:"canceled_at,omitempty"`
}

// Customer is the local record for a billing-provider customer, keyed by the
// provider-assigned customer id. Webhook handlers mutate it in place; no
// history is retained.
//
// Invariant: Entitlements and SuspendedEntitlements are never simultaneously
// populated. Suspend/Restore move the whole set between the two maps.
type Customer struct {
	ID                    string                 `json:"id"`
	Email                 string                 `json:"email"`
	Name                  string                 `json:"name"`
	Suspended             bool                   `json:"suspended"`
	SuspensionInfo        *SuspensionInfo        `json:"suspension_info,omitempty"`
	Entitlements          map[string]Entitlement `json:"entitlements"`
	SuspendedEntitlements map[string]Entitlement `json:"suspended_entitlements"`
	Subscription          *Subscription          `json:"subscription,omitempty"`
	CreatedAt             time.Time              `json:"created_at"`
	UpdatedAt             time.Time              `json:"updated_at"`
}

// NewCustomer creates an empty customer record for a provider customer id.
func NewCustomer(id, email, name string) *Customer {
	now := time.Now().UTC()
	return &Customer{
		ID:                    id,
		Email:                 NormalizeEmail(email),
		Name:                  name,
		Entitlements:          map[string]Entitlement{},
		SuspendedEntitlements: map[string]Entitlement{},
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

// NormalizeEmail lowercases and trims an email for lookups. Customers are
// identified solely by email on the checkout side, so lookups must not be
// case-sensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Touch updates the modification timestamp.
func (c *Customer) Touch() {
	c.UpdatedAt = time.Now().UTC()
}

// ensureMaps guards against records loaded from hand-edited or older files
// where the maps were serialized as null.
func (c *Customer) ensureMaps() {
	if c.Entitlements == nil {
		c.Entitlements = map[string]Entitlement{}
	}
	if c.SuspendedEntitlements == nil {
		c.SuspendedEntitlements = map[string]Entitlement{}
	}
}

// ReplaceEntitlements replaces the customer's entitlement set with the
// provider-reported summary. While suspended the new set is parked in
// SuspendedEntitlements so the suspension gate stays closed.
func (c *Customer) ReplaceEntitlements(ents []Entitlement) {
	c.ensureMaps()

	active := make(map[string]Entitlement, len(ents))
	parked := make(map[string]Entitlement, len(ents))
	for _, e := range ents {
		e.Status = EntitlementStatusActive
		active[e.ID] = e
		e.Status = EntitlementStatusSuspended
		parked[e.ID] = e
	}

	if c.Suspended {
		c.Entitlements = map[string]Entitlement{}
		c.SuspendedEntitlements = parked
	} else {
		c.Entitlements = active
		c.SuspendedEntitlements = map[string]Entitlement{}
	}
	c.Touch()
}

// ClearEntitlements drops all grants, parked or active.
func (c *Customer) ClearEntitlements() {
	c.Entitlements = map[string]Entitlement{}
	c.SuspendedEntitlements = map[string]Entitlement{}
	c.Touch()
}

// Suspend gates the customer after a failed payment: entitlements move
// wholesale into the suspended set. Repeated failures only update the
// failure metadata.
func (c *Customer) Suspend(reason string, attemptCount int64, at time.Time) {
	c.ensureMaps()

	if c.Suspended {
		if c.SuspensionInfo != nil {
			c.SuspensionInfo.LastFailureAt = at
			if attemptCount > c.SuspensionInfo.AttemptCount {
				c.SuspensionInfo.AttemptCount = attemptCount
			}
		}
		c.Touch()
		return
	}

	c.Suspended = true
	c.SuspensionInfo = &SuspensionInfo{
		Reason:        reason,
		SuspendedAt:   at,
		LastFailureAt: at,
		AttemptCount:  attemptCount,
	}

	for id, e := range c.Entitlements {
		e.Status = EntitlementStatusSuspended
		c.SuspendedEntitlements[id] = e
	}
	c.Entitlements = map[string]Entitlement{}
	c.Touch()
}

// Restore lifts a suspension and moves parked entitlements back. Calling it
// on a customer that was never suspended is a no-op, which keeps the handler
// for paid invoices idempotent.
func (c *Customer) Restore() {
	c.ensureMaps()

	if !c.Suspended {
		return
	}

	c.Suspended = false
	c.SuspensionInfo = nil

	for id, e := range c.SuspendedEntitlements {
		e.Status = EntitlementStatusActive
		c.Entitlements[id] = e
	}
	c.SuspendedEntitlements = map[string]Entitlement{}
	c.Touch()
}

// HasOpenSubscription reports whether the customer holds a subscription the
// checkout flow must not duplicate (anything but canceled/expired).
func (c *Customer) HasOpenSubscription() bool {
	if c.Subscription == nil {
		return false
	}
	switch c.Subscription.Status {
	case SubscriptionStatusCanceled, SubscriptionStatusIncompleteExpired, "":
		return false
	default:
		return true
	}
}

// HasIncompleteSubscription reports whether checkout should resume an
// existing provider subscription instead of creating a new one.
func (c *Customer) HasIncompleteSubscription() bool {
	return c.Subscription != nil && c.Subscription.Status == SubscriptionStatusIncomplete
}
