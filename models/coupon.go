package models

import "github.com/shopspring/decimal"

// CouponInfo is what the coupon validator reports back to the orchestrator:
// the code was accepted and this fixed amount comes off the subtotal.
type CouponInfo struct {
	ID       string          `json:"id"`
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
}
