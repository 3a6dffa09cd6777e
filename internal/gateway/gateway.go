package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

// PaymentGateway is the external payment provider contract consumed by the
// booking orchestrator. It is injected as a constructor dependency so tests
// can substitute a fake.
type PaymentGateway interface {
	// CreateOrder registers a payment order with the provider and returns
	// the external order id. The payer completes the payment out-of-band.
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (string, error)

	// VerifySignature checks that a payment confirmation genuinely
	// originated from the provider. Pure, no side effects, never errors:
	// a mismatch simply returns false.
	VerifySignature(orderID, paymentID, signature string) bool
}

// Config carries the provider credentials and endpoint.
type Config struct {
	BaseURL string `json:"base_url"`
	KeyID   string `json:"key_id"`

	// Secret keys both the request signing and the confirmation
	// signature verification.
	Secret string `json:"secret"`
}
