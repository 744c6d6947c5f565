package controllers

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v74/webhook"

	"github.com/FabianKeller/PlanCart/internal/pkg/billing"
	"github.com/FabianKeller/PlanCart/internal/pkg/store"
)

const testWebhookSecret = "whsec_test_secret"

func newWebhookApp(t *testing.T) *fiber.App {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "plancart.json"))
	require.NoError(t, err)
	store.SetStore(st)
	billing.SetClient(billing.NewClient(nil, testWebhookSecret))

	app := fiber.New()
	app.Post("/webhooks/stripe", HandleStripeWebhook)
	return app
}

func newSignedWebhookRequest(t *testing.T, payload []byte) *http.Request {
	t.Helper()

	now := time.Now()
	sig := webhook.ComputeSignature(now, payload, testWebhookSecret)
	header := fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig))

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", header)
	return req
}

func webhookEventPayload(id string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"type": "customer.created",
		"created": 1764579600,
		"data": {"object": {"id": "cus_1", "email": "jane@example.com", "name": "Jane"}}
	}`, id))
}

func TestHandleStripeWebhook_MissingSignature(t *testing.T) {
	app := newWebhookApp(t)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe",
		bytes.NewReader(webhookEventPayload("evt_1")))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "invalid_signature", body["error"])
}

func TestHandleStripeWebhook_WrongSecret(t *testing.T) {
	app := newWebhookApp(t)

	payload := webhookEventPayload("evt_1")
	now := time.Now()
	sig := webhook.ComputeSignature(now, payload, "whsec_some_other_secret")
	header := fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig))

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", header)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleStripeWebhook_EmptyBody(t *testing.T) {
	app := newWebhookApp(t)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", nil)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "invalid_payload", body["error"])
}

func TestHandleStripeWebhook_OversizedBody(t *testing.T) {
	app := newWebhookApp(t)

	payload := []byte("{" + strings.Repeat(" ", 70*1024) + "}")
	resp, err := app.Test(newSignedWebhookRequest(t, payload), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleStripeWebhook_ProcessesEvent(t *testing.T) {
	app := newWebhookApp(t)

	resp, err := app.Test(newSignedWebhookRequest(t, webhookEventPayload("evt_1")), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["ok"])
	assert.NotContains(t, body, "duplicate")

	c, err := store.GetStore().GetCustomer("cus_1")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", c.Email)
}

func TestHandleStripeWebhook_DuplicateEvent(t *testing.T) {
	app := newWebhookApp(t)

	resp, err := app.Test(newSignedWebhookRequest(t, webhookEventPayload("evt_1")), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(newSignedWebhookRequest(t, webhookEventPayload("evt_1")), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["duplicate"])
}
