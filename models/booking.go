package models

import (
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"

	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"

	MethodGateway = "gateway"
	MethodWallet  = "wallet"

	CancelledByUser = "user"
	CancelledByHost = "host"
)

// TicketLine is one ordered ticket type within a booking.
type TicketLine struct {
	Type      string          `json:"type"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Subtotal sums quantity * unit price across the lines.
func Subtotal(lines []TicketLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

type Booking struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id"`
	EventID          string          `json:"event_id"`
	Tickets          []TicketLine    `json:"tickets"`
	CouponID         string          `json:"coupon_id,omitempty"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	DiscountedAmount decimal.Decimal `json:"discounted_amount"`
	Status           string          `json:"status"`
	PaymentMethod    string          `json:"payment_method"`
	PaymentStatus    string          `json:"payment_status"`
	PaymentID        string          `json:"payment_id"`
	OrderID          string          `json:"order_id,omitempty"`
	TicketNumber     string          `json:"ticket_number"`
	CancelledBy      string          `json:"cancelled_by,omitempty"`
	CancelledAt      *time.Time      `json:"cancelled_at,omitempty"`
	CancelReason     string          `json:"cancel_reason,omitempty"`
	Created          time.Time       `json:"created"`
}

// BookingFromRecord maps a bookings record to the API shape.
func BookingFromRecord(r *core.Record) *Booking {
	b := &Booking{
		ID:               r.Id,
		UserID:           r.GetString("user"),
		EventID:          r.GetString("event"),
		CouponID:         r.GetString("coupon"),
		TotalAmount:      decimal.NewFromFloat(r.GetFloat("total_amount")),
		DiscountedAmount: decimal.NewFromFloat(r.GetFloat("discounted_amount")),
		Status:           r.GetString("status"),
		PaymentMethod:    r.GetString("payment_method"),
		PaymentStatus:    r.GetString("payment_status"),
		PaymentID:        r.GetString("payment_id"),
		OrderID:          r.GetString("order_id"),
		TicketNumber:     r.GetString("ticket_number"),
		CancelledBy:      r.GetString("cancelled_by"),
		CancelReason:     r.GetString("cancel_reason"),
		Created:          r.GetDateTime("created").Time(),
	}

	_ = r.UnmarshalJSONField("tickets", &b.Tickets)

	if cancelledAt := r.GetDateTime("cancelled_at").Time(); !cancelledAt.IsZero() {
		b.CancelledAt = &cancelledAt
	}

	return b
}
