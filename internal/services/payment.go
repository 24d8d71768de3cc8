package services

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
)

// PaymentClient is a thin wrapper around the payment gateway's REST API.
// The rental lifecycle only consumes the boolean success signal; intent
// creation exists so the frontend can start a checkout.
type PaymentClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewPaymentClient() *PaymentClient {
	baseURL := os.Getenv("PAYMENT_GATEWAY_URL")
	if baseURL == "" {
		baseURL = "https://api.stripe.com"
	}
	return &PaymentClient{
		baseURL: baseURL,
		apiKey:  os.Getenv("PAYMENT_SECRET_KEY"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// PaymentIntent is the gateway-side checkout handle for a rental
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
	Status       string `json:"status"`
}

// CreatePaymentIntent registers a checkout for the rental with the gateway
func (c *PaymentClient) CreatePaymentIntent(ctx context.Context, rentalID uint, amount float64, currency string) (*PaymentIntent, error) {
	body := map[string]any{
		"amount":       amount,
		"currency":     currency,
		"reference":    fmt.Sprintf("rental:%d", rentalID),
		"capture_type": "automatic",
	}
	b, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/payment_intents", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	// Retries of the same checkout must not create a second charge
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("payment intent creation failed: %s", resp.Status)
	}

	var out struct {
		ID           string `json:"id"`
		ClientSecret string `json:"client_secret"`
		Status       string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &PaymentIntent{ID: out.ID, ClientSecret: out.ClientSecret, Status: out.Status}, nil
}

// PaymentSucceeded reports whether the gateway recorded a successful payment
// for the rental. Implements the rental core's PaymentGateway interface.
func (c *PaymentClient) PaymentSucceeded(ctx context.Context, rentalID uint) (bool, error) {
	url := fmt.Sprintf("%s/v1/payment_intents?reference=rental:%d", c.baseURL, rentalID)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return false, fmt.Errorf("payment status lookup failed: %s", resp.Status)
	}

	var out struct {
		Data []struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, err
	}
	for _, intent := range out.Data {
		if intent.Status == "succeeded" {
			return true, nil
		}
	}
	return false, nil
}

// VerifyWebhookSecret checks the shared secret carried by gateway webhooks
func VerifyWebhookSecret(header string) bool {
	secret := os.Getenv("PAYMENT_WEBHOOK_SECRET")
	if secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(header), []byte(secret)) == 1
}
