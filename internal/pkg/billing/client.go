package billing

import (
	"log"

	"github.com/stripe/stripe-go/v74/client"

	"github.com/FabianKeller/PlanCart/internal/pkg/env"
)

var stripeClient *Client

// Client wraps the Stripe SDK client together with the webhook signing key
// so handlers do not reach into the environment themselves.
type Client struct {
	*client.API
	webhookSignKey string
}

// SetupClient initializes the global Stripe client from the environment.
func SetupClient() {
	apiKey := env.GetEnv("STRIPE_API_KEY", "")
	signKey := env.GetEnv("STRIPE_WEBHOOK_SECRET", "")
	if apiKey == "" {
		log.Printf("Warning: STRIPE_API_KEY is not set, billing calls will fail")
	}
	if signKey == "" {
		log.Printf("Warning: STRIPE_WEBHOOK_SECRET is not set, webhook verification will fail")
	}

	var api client.API
	api.Init(apiKey, nil)

	stripeClient = &Client{
		API:            &api,
		webhookSignKey: signKey,
	}
}

// NewClient builds a client around an existing SDK client with an explicit
// signing key. Used by tests.
func NewClient(api *client.API, webhookSignKey string) *Client {
	return &Client{API: api, webhookSignKey: webhookSignKey}
}

// GetClient returns the global Stripe client instance.
func GetClient() *Client {
	if stripeClient == nil {
		SetupClient()
	}
	return stripeClient
}

// SetClient swaps the global client. Used by tests.
func SetClient(c *Client) {
	stripeClient = c
}
