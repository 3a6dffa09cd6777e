package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"event-booking/internal/status"
	"event-booking/utils"

	"github.com/shopspring/decimal"
)

// Client talks to the payment provider over HMAC-signed HTTP requests.
type Client struct {
	// baseURL is the base url of the provider API.
	baseURL string

	// keyID identifies the merchant account.
	keyID string

	// secret is the server-held HMAC key. Never leaves this process.
	secret string

	// breaker fails order creation fast while the provider is down.
	breaker *utils.CircuitBreaker

	// hc is the http client.
	hc *http.Client
}

// NewClient creates a gateway client. The HTTP timeout bounds every
// provider call; expiry surfaces as ErrGatewayUnavailable.
func NewClient(cfg *Config) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		keyID:   cfg.KeyID,
		secret:  cfg.Secret,
		breaker: utils.NewCircuitBreaker("payment-gateway"),

		hc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type orderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type orderResponse struct {
	ID string `json:"id"`
}

// CreateOrder registers an order for the given amount. Amounts go over the
// wire in minor units. Network failures, timeouts and provider 5xx answers
// all surface as status.ErrGatewayUnavailable; no retry happens here.
func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (string, error) {
	body, err := json.Marshal(orderRequest{
		Amount:   amount.Mul(decimal.NewFromInt(100)).IntPart(),
		Currency: currency,
		Receipt:  receipt,
	})
	if err != nil {
		return "", fmt.Errorf("createOrder: marshal: %w", err)
	}

	result, err := c.breaker.Execute(ctx, func() (any, error) {
		return c.postOrder(ctx, body)
	})
	if err == utils.ErrBreakerOpen {
		return "", fmt.Errorf("createOrder: breaker open: %w", status.ErrGatewayUnavailable)
	}
	if err != nil {
		return "", err
	}

	return result.(string), nil
}

func (c *Client) postOrder(ctx context.Context, body []byte) (string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("createOrder: url.Parse: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s%s", base.String(), "/api/v1/orders"), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("createOrder: http.NewReq: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Key-Id", c.keyID)
	req.Header.Set("SignedHash", Hmac256(body, []byte(c.secret)))

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("createOrder: http.Do: %v: %w", err, status.ErrGatewayUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return "", fmt.Errorf("createOrder: resp.StatusCode: %d: %w", resp.StatusCode, status.ErrGatewayUnavailable)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("createOrder: unexpected status %d: %s", resp.StatusCode, raw)
	}

	var order orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return "", fmt.Errorf("createOrder: decode: %w", err)
	}
	if order.ID == "" {
		return "", fmt.Errorf("createOrder: provider returned empty order id")
	}

	return order.ID, nil
}
