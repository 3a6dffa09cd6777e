package services

import (
	"testing"
	"time"

	"event-booking/models"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tests"
	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/stretchr/testify/require"
)

// setupTestApp returns an isolated app with the booking collections
// installed. Relation fields are plain text here so fixtures don't have to
// create auth records for every test user.
func setupTestApp(t *testing.T) *tests.TestApp {
	t.Helper()

	app, err := tests.NewTestApp()
	require.NoError(t, err)
	t.Cleanup(app.Cleanup)

	createTestCollections(t, app)

	return app
}

func createTestCollections(t *testing.T, app core.App) {
	t.Helper()

	events := core.NewBaseCollection("events")
	events.Fields.Add(
		&core.TextField{Name: "title"},
		&core.TextField{Name: "host"},
		&core.SelectField{Name: "status", MaxSelect: 1, Values: []string{"scheduled", "cancelled", "completed"}},
		&core.AutodateField{Name: "created", OnCreate: true},
	)
	require.NoError(t, app.Save(events))

	tickets := core.NewBaseCollection("event_tickets")
	tickets.Fields.Add(
		&core.TextField{Name: "event"},
		&core.TextField{Name: "name"},
		&core.NumberField{Name: "price"},
		&core.NumberField{Name: "capacity"},
		&core.NumberField{Name: "remaining"},
	)
	tickets.AddIndex("idx_test_event_tickets", true, "event, name", "")
	require.NoError(t, app.Save(tickets))

	coupons := core.NewBaseCollection("coupons")
	coupons.Fields.Add(
		&core.TextField{Name: "code"},
		&core.NumberField{Name: "amount"},
		&core.BoolField{Name: "active"},
		&core.DateField{Name: "starts_at"},
		&core.DateField{Name: "ends_at"},
		&core.NumberField{Name: "usage_cap"},
		&core.NumberField{Name: "used_count"},
		&core.NumberField{Name: "min_order_amount"},
	)
	require.NoError(t, app.Save(coupons))

	bookings := core.NewBaseCollection("bookings")
	bookings.Fields.Add(
		&core.TextField{Name: "user"},
		&core.TextField{Name: "event"},
		&core.JSONField{Name: "tickets", MaxSize: 5000},
		&core.TextField{Name: "coupon"},
		&core.NumberField{Name: "total_amount"},
		&core.NumberField{Name: "discounted_amount"},
		&core.SelectField{Name: "status", MaxSelect: 1, Values: []string{"pending", "confirmed", "cancelled"}},
		&core.SelectField{Name: "payment_method", MaxSelect: 1, Values: []string{"gateway", "wallet"}},
		&core.SelectField{Name: "payment_status", MaxSelect: 1, Values: []string{"pending", "paid", "refunded"}},
		&core.TextField{Name: "payment_id"},
		&core.TextField{Name: "order_id"},
		&core.TextField{Name: "ticket_number"},
		&core.SelectField{Name: "cancelled_by", MaxSelect: 1, Values: []string{"user", "host"}},
		&core.DateField{Name: "cancelled_at"},
		&core.TextField{Name: "cancel_reason"},
		&core.AutodateField{Name: "created", OnCreate: true},
	)
	bookings.AddIndex("idx_test_bookings_payment_id", true, "payment_id", "payment_id != ''")
	require.NoError(t, app.Save(bookings))

	wallets := core.NewBaseCollection("wallets")
	wallets.Fields.Add(
		&core.TextField{Name: "user"},
		&core.NumberField{Name: "balance"},
	)
	wallets.AddIndex("idx_test_wallets_user", true, "user", "")
	require.NoError(t, app.Save(wallets))

	walletTxns := core.NewBaseCollection("wallet_transactions")
	walletTxns.Fields.Add(
		&core.TextField{Name: "wallet"},
		&core.SelectField{Name: "type", MaxSelect: 1, Values: []string{"credit", "debit"}},
		&core.NumberField{Name: "amount"},
		&core.TextField{Name: "description"},
		&core.TextField{Name: "payment_id"},
		&core.AutodateField{Name: "created", OnCreate: true},
	)
	require.NoError(t, app.Save(walletTxns))
}

func seedEvent(t *testing.T, app core.App, hostID string) string {
	t.Helper()

	collection, err := app.FindCollectionByNameOrId("events")
	require.NoError(t, err)

	rec := core.NewRecord(collection)
	rec.Set("title", "test event")
	rec.Set("host", hostID)
	rec.Set("status", "scheduled")
	require.NoError(t, app.Save(rec))

	return rec.Id
}

func seedTicketType(t *testing.T, app core.App, eventID, name string, price float64, remaining int) {
	t.Helper()

	collection, err := app.FindCollectionByNameOrId("event_tickets")
	require.NoError(t, err)

	rec := core.NewRecord(collection)
	rec.Set("event", eventID)
	rec.Set("name", name)
	rec.Set("price", price)
	rec.Set("capacity", remaining)
	rec.Set("remaining", remaining)
	require.NoError(t, app.Save(rec))
}

func remainingStock(t *testing.T, app core.App, eventID, name string) int {
	t.Helper()

	rec, err := app.FindFirstRecordByFilter(
		"event_tickets",
		"event = {:event} && name = {:name}",
		map[string]any{"event": eventID, "name": name},
	)
	require.NoError(t, err)

	return rec.GetInt("remaining")
}

type couponFixture struct {
	code           string
	amount         float64
	active         bool
	startsAt       time.Time
	endsAt         time.Time
	usageCap       int
	usedCount      int
	minOrderAmount float64
}

func seedCoupon(t *testing.T, app core.App, fx couponFixture) string {
	t.Helper()

	collection, err := app.FindCollectionByNameOrId("coupons")
	require.NoError(t, err)

	rec := core.NewRecord(collection)
	rec.Set("code", fx.code)
	rec.Set("amount", fx.amount)
	rec.Set("active", fx.active)
	if !fx.startsAt.IsZero() {
		startsAt, err := types.ParseDateTime(fx.startsAt)
		require.NoError(t, err)
		rec.Set("starts_at", startsAt)
	}
	if !fx.endsAt.IsZero() {
		endsAt, err := types.ParseDateTime(fx.endsAt)
		require.NoError(t, err)
		rec.Set("ends_at", endsAt)
	}
	rec.Set("usage_cap", fx.usageCap)
	rec.Set("used_count", fx.usedCount)
	rec.Set("min_order_amount", fx.minOrderAmount)
	require.NoError(t, app.Save(rec))

	return rec.Id
}

func lines(pairs ...any) []models.BookingLine {
	out := make([]models.BookingLine, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, models.BookingLine{
			Type:     pairs[i].(string),
			Quantity: pairs[i+1].(int),
		})
	}
	return out
}
