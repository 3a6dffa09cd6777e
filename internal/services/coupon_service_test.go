package services

import (
	"context"
	"testing"
	"time"

	"event-booking/internal/status"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsActiveCoupon(t *testing.T) {
	app := setupTestApp(t)
	coupons := NewCouponService(app)

	id := seedCoupon(t, app, couponFixture{
		code:     "SAVE20",
		amount:   20,
		active:   true,
		startsAt: time.Now().Add(-time.Hour),
		endsAt:   time.Now().Add(time.Hour),
		usageCap: 100,
	})

	info, err := coupons.Validate(context.Background(), id, decimal.NewFromInt(100), "user1")
	require.NoError(t, err)
	assert.Equal(t, "SAVE20", info.Code)
	assert.True(t, info.Discount.Equal(decimal.NewFromInt(20)))
}

func TestValidateCapsDiscountAtSubtotal(t *testing.T) {
	app := setupTestApp(t)
	coupons := NewCouponService(app)

	id := seedCoupon(t, app, couponFixture{code: "BIG", amount: 500, active: true})

	info, err := coupons.Validate(context.Background(), id, decimal.NewFromInt(120), "user1")
	require.NoError(t, err)
	assert.True(t, info.Discount.Equal(decimal.NewFromInt(120)))
}

func TestValidateRejections(t *testing.T) {
	app := setupTestApp(t)
	coupons := NewCouponService(app)

	cases := []struct {
		name     string
		fixture  couponFixture
		subtotal decimal.Decimal
	}{
		{
			name:     "inactive",
			fixture:  couponFixture{code: "OFF", amount: 10, active: false},
			subtotal: decimal.NewFromInt(100),
		},
		{
			name:     "not yet valid",
			fixture:  couponFixture{code: "SOON", amount: 10, active: true, startsAt: time.Now().Add(time.Hour)},
			subtotal: decimal.NewFromInt(100),
		},
		{
			name:     "expired",
			fixture:  couponFixture{code: "LATE", amount: 10, active: true, endsAt: time.Now().Add(-time.Hour)},
			subtotal: decimal.NewFromInt(100),
		},
		{
			name:     "usage cap reached",
			fixture:  couponFixture{code: "FULL", amount: 10, active: true, usageCap: 5, usedCount: 5},
			subtotal: decimal.NewFromInt(100),
		},
		{
			name:     "below minimum order",
			fixture:  couponFixture{code: "MIN", amount: 10, active: true, minOrderAmount: 200},
			subtotal: decimal.NewFromInt(100),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id := seedCoupon(t, app, tc.fixture)
			_, err := coupons.Validate(context.Background(), id, tc.subtotal, "user1")
			assert.ErrorIs(t, err, status.ErrCouponRejected)
		})
	}
}

func TestValidateUnknownCoupon(t *testing.T) {
	app := setupTestApp(t)
	coupons := NewCouponService(app)

	_, err := coupons.Validate(context.Background(), "no-such-coupon", decimal.NewFromInt(100), "user1")
	assert.ErrorIs(t, err, status.ErrCouponRejected)
}
