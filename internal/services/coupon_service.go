package services

import (
	"context"
	"fmt"
	"time"

	"event-booking/internal/status"
	"event-booking/models"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

// CouponService answers whether a coupon applies to a proposed order. The
// booking core consults it and hard-fails the attempt on rejection; it never
// increments the redemption counter itself, that belongs to the coupon
// administration flow.
type CouponService struct {
	app core.App
}

func NewCouponService(app core.App) *CouponService {
	return &CouponService{app: app}
}

// Validate checks the coupon referenced by id against the order subtotal.
// Every rejection reason collapses into ErrCouponRejected; the reason detail
// stays in the wrapped message.
func (s *CouponService) Validate(ctx context.Context, couponID string, subtotal decimal.Decimal, userID string) (*models.CouponInfo, error) {
	rec, err := s.app.FindRecordById("coupons", couponID)
	if err != nil {
		return nil, fmt.Errorf("unknown coupon %q: %w", couponID, status.ErrCouponRejected)
	}

	if !rec.GetBool("active") {
		return nil, fmt.Errorf("coupon %q is inactive: %w", rec.GetString("code"), status.ErrCouponRejected)
	}

	now := time.Now().UTC()
	if startsAt := rec.GetDateTime("starts_at").Time(); !startsAt.IsZero() && now.Before(startsAt) {
		return nil, fmt.Errorf("coupon %q is not yet valid: %w", rec.GetString("code"), status.ErrCouponRejected)
	}
	if endsAt := rec.GetDateTime("ends_at").Time(); !endsAt.IsZero() && now.After(endsAt) {
		return nil, fmt.Errorf("coupon %q expired: %w", rec.GetString("code"), status.ErrCouponRejected)
	}

	if usageCap := rec.GetInt("usage_cap"); usageCap > 0 && rec.GetInt("used_count") >= usageCap {
		return nil, fmt.Errorf("coupon %q usage cap reached: %w", rec.GetString("code"), status.ErrCouponRejected)
	}

	if minOrder := decimal.NewFromFloat(rec.GetFloat("min_order_amount")); subtotal.LessThan(minOrder) {
		return nil, fmt.Errorf("order below coupon %q minimum of %s: %w",
			rec.GetString("code"), minOrder, status.ErrCouponRejected)
	}

	discount := decimal.NewFromFloat(rec.GetFloat("amount"))
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}

	return &models.CouponInfo{
		ID:       rec.Id,
		Code:     rec.GetString("code"),
		Discount: discount,
	}, nil
}
