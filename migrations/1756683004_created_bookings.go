package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}
		events, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}
		coupons, err := app.FindCollectionByNameOrId("coupons")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("bookings")

		collection.Fields.Add(
			&core.RelationField{Name: "user", Required: true, MaxSelect: 1, CollectionId: users.Id},
			&core.RelationField{Name: "event", Required: true, MaxSelect: 1, CollectionId: events.Id},
			&core.JSONField{Name: "tickets", Required: true, MaxSize: 5000},
			&core.RelationField{Name: "coupon", MaxSelect: 1, CollectionId: coupons.Id},
			&core.NumberField{Name: "total_amount", Required: true, Min: types.Pointer(0.0)},
			&core.NumberField{Name: "discounted_amount", Min: types.Pointer(0.0)},
			&core.SelectField{
				Name:      "status",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"pending", "confirmed", "cancelled"},
			},
			&core.SelectField{
				Name:      "payment_method",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"gateway", "wallet"},
			},
			&core.SelectField{
				Name:      "payment_status",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"pending", "paid", "refunded"},
			},
			&core.TextField{Name: "payment_id", Max: 100},
			&core.TextField{Name: "order_id", Max: 100},
			&core.TextField{Name: "ticket_number", Required: true, Max: 50},
			&core.SelectField{
				Name:      "cancelled_by",
				MaxSelect: 1,
				Values:    []string{"user", "host"},
			},
			&core.DateField{Name: "cancelled_at"},
			&core.TextField{Name: "cancel_reason", Max: 500},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		// payment_id uniqueness is the last line of defense against a
		// double-confirmed payment
		collection.AddIndex("idx_bookings_payment_id", true, "payment_id", "payment_id != ''")
		collection.AddIndex("idx_bookings_ticket_number", true, "ticket_number", "")
		collection.AddIndex("idx_bookings_user", false, "user", "")
		collection.AddIndex("idx_bookings_event_status", false, "event, status", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("bookings")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
