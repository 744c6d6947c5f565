package billing

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"

	"github.com/FabianKeller/PlanCart/app/models"
	"github.com/FabianKeller/PlanCart/internal/pkg/store"
)

// Webhook event types this application reacts to. Everything else is
// acknowledged and ignored.
const (
	EventCustomerCreated           = "customer.created"
	EventCustomerUpdated           = "customer.updated"
	EventSubscriptionCreated       = "customer.subscription.created"
	EventSubscriptionUpdated       = "customer.subscription.updated"
	EventSubscriptionDeleted       = "customer.subscription.deleted"
	EventEntitlementSummaryUpdated = "entitlements.active_entitlement_summary.updated"
	EventInvoicePaymentFailed      = "invoice.payment_failed"
	EventInvoicePaid               = "invoice.paid"
)

// ConstructWebhookEvent verifies the provider signature and decodes the
// event. API version mismatches are ignored so the endpoint keeps working
// when the provider account is pinned to a newer version than the SDK.
func ConstructWebhookEvent(payload []byte, signature string) (*stripe.Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, GetClient().webhookSignKey,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// HandleEvent runs the entitlement state machine for one verified event.
// The returned bool is false when the event id was already processed; the
// caller acknowledges duplicates without reprocessing.
//
// The dedupe record is written only after the handler succeeds: a failed
// event stays unrecorded, the controller answers non-2xx and the provider's
// retry runs the handler again. Handlers stay idempotent on their own
// because a crash between handler and dedupe record replays the event
// against a handler that already ran.
func HandleEvent(st *store.Store, event *stripe.Event) (bool, error) {
	if st.HasProcessedEvent(event.ID) {
		return false, nil
	}

	occurredAt := time.Unix(event.Created, 0).UTC()

	var err error
	switch event.Type {
	case EventCustomerCreated, EventCustomerUpdated:
		err = handleCustomerUpserted(st, event.Data.Raw)
	case EventSubscriptionCreated, EventSubscriptionUpdated:
		err = handleSubscriptionUpserted(st, event.Data.Raw)
	case EventSubscriptionDeleted:
		err = handleSubscriptionDeleted(st, event.Data.Raw)
	case EventEntitlementSummaryUpdated:
		err = handleEntitlementSummary(st, event.Data.Raw)
	case EventInvoicePaymentFailed:
		err = handleInvoicePaymentFailed(st, event.Data.Raw, occurredAt)
	case EventInvoicePaid:
		err = handleInvoicePaid(st, event.Data.Raw)
	default:
		log.Printf("Unhandled webhook event type: %s", event.Type)
	}
	if err != nil {
		return true, err
	}

	if _, err := st.MarkEventProcessed(event.ID); err != nil {
		return true, fmt.Errorf("record event %s: %w", event.ID, err)
	}
	return true, nil
}

// handleCustomerUpserted records the provider customer identity locally.
// This is the regular creation path of the customer lifecycle.
func handleCustomerUpserted(st *store.Store, raw json.RawMessage) error {
	var cus stripe.Customer
	if err := json.Unmarshal(raw, &cus); err != nil {
		return fmt.Errorf("decode customer payload: %w", err)
	}
	if cus.ID == "" {
		return fmt.Errorf("customer payload without id")
	}

	_, err := st.UpdateCustomer(cus.ID, func(c *models.Customer) {
		if cus.Email != "" {
			c.Email = models.NormalizeEmail(cus.Email)
		}
		if cus.Name != "" {
			c.Name = cus.Name
		}
		c.Touch()
	})
	return err
}

func handleSubscriptionUpserted(st *store.Store, raw json.RawMessage) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return fmt.Errorf("decode subscription payload: %w", err)
	}
	if sub.Customer == nil || sub.Customer.ID == "" {
		return fmt.Errorf("subscription payload without customer")
	}

	_, err := st.UpdateCustomer(sub.Customer.ID, func(c *models.Customer) {
		c.Subscription = subscriptionFromStripe(&sub)
		c.Touch()
	})
	return err
}

// handleSubscriptionDeleted marks the subscription canceled and drops all
// grants. A canceled customer is not suspended, they simply have nothing.
func handleSubscriptionDeleted(st *store.Store, raw json.RawMessage) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return fmt.Errorf("decode subscription payload: %w", err)
	}
	if sub.Customer == nil || sub.Customer.ID == "" {
		return fmt.Errorf("subscription payload without customer")
	}

	_, err := st.UpdateCustomer(sub.Customer.ID, func(c *models.Customer) {
		snapshot := subscriptionFromStripe(&sub)
		snapshot.Status = models.SubscriptionStatusCanceled
		c.Subscription = snapshot
		c.Suspended = false
		c.SuspensionInfo = nil
		c.ClearEntitlements()
	})
	return err
}

func handleEntitlementSummary(st *store.Store, raw json.RawMessage) error {
	summary, err := parseEntitlementSummary(raw)
	if err != nil {
		return err
	}
	if summary.Customer == "" {
		return fmt.Errorf("entitlement summary without customer")
	}

	ents := make([]models.Entitlement, 0, len(summary.Entitlements.Data))
	for _, e := range summary.Entitlements.Data {
		ents = append(ents, models.Entitlement{
			ID:        e.ID,
			FeatureID: e.Feature.ID,
			LookupKey: e.LookupKey,
		})
	}

	_, err = st.UpdateCustomer(summary.Customer, func(c *models.Customer) {
		c.ReplaceEntitlements(ents)
	})
	return err
}

// handleInvoicePaymentFailed suspends the customer. An event arriving before
// customer.created still produces a suspended skeleton record, so ordering
// does not matter.
func handleInvoicePaymentFailed(st *store.Store, raw json.RawMessage, occurredAt time.Time) error {
	var inv stripe.Invoice
	if err := json.Unmarshal(raw, &inv); err != nil {
		return fmt.Errorf("decode invoice payload: %w", err)
	}
	if inv.Customer == nil || inv.Customer.ID == "" {
		return fmt.Errorf("invoice payload without customer")
	}

	_, err := st.UpdateCustomer(inv.Customer.ID, func(c *models.Customer) {
		c.Suspend(models.SuspensionReasonPaymentFailed, inv.AttemptCount, occurredAt)
		if c.Subscription != nil && c.Subscription.Status == models.SubscriptionStatusActive {
			c.Subscription.Status = models.SubscriptionStatusPastDue
		}
	})
	return err
}

func handleInvoicePaid(st *store.Store, raw json.RawMessage) error {
	var inv stripe.Invoice
	if err := json.Unmarshal(raw, &inv); err != nil {
		return fmt.Errorf("decode invoice payload: %w", err)
	}
	if inv.Customer == nil || inv.Customer.ID == "" {
		return fmt.Errorf("invoice payload without customer")
	}

	_, err := st.UpdateCustomer(inv.Customer.ID, func(c *models.Customer) {
		c.Restore()
	})
	return err
}

// subscriptionFromStripe maps the provider subscription object onto the
// local snapshot.
func subscriptionFromStripe(sub *stripe.Subscription) *models.Subscription {
	out := &models.Subscription{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		price := sub.Items.Data[0].Price
		out.PriceID = price.ID
		if price.Product != nil {
			out.ProductID = price.Product.ID
		}
	}
	if sub.CurrentPeriodStart > 0 {
		t := time.Unix(sub.CurrentPeriodStart, 0).UTC()
		out.CurrentPeriodStart = &t
	}
	if sub.CurrentPeriodEnd > 0 {
		t := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		out.CurrentPeriodEnd = &t
	}
	if sub.CanceledAt > 0 {
		t := time.Unix(sub.CanceledAt, 0).UTC()
		out.CanceledAt = &t
	}
	return out
}
