package models

import "github.com/shopspring/decimal"

// BookingLine is a requested ticket line. Prices are never taken from the
// client; the orchestrator resolves them from the event inventory.
type BookingLine struct {
	Type     string `json:"type"`
	Quantity int    `json:"quantity"`
}

// OrderRequest starts the gateway payment flow (no booking exists yet).
type OrderRequest struct {
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// VerifyPaymentRequest carries the gateway confirmation together with the
// original booking intent.
type VerifyPaymentRequest struct {
	PaymentID        string          `json:"payment_id"`
	OrderID          string          `json:"order_id"`
	Signature        string          `json:"signature"`
	EventID          string          `json:"event_id"`
	Tickets          []BookingLine   `json:"tickets"`
	CouponID         string          `json:"coupon_id"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	DiscountedAmount decimal.Decimal `json:"discounted_amount"`
}

// WalletBookingRequest is the direct wallet-paid booking intent.
type WalletBookingRequest struct {
	EventID          string          `json:"event_id"`
	Tickets          []BookingLine   `json:"tickets"`
	CouponID         string          `json:"coupon_id"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	DiscountedAmount decimal.Decimal `json:"discounted_amount"`
	PaymentMethod    string          `json:"payment_method"`
}

type CancelRequest struct {
	Reason string `json:"reason"`
}
