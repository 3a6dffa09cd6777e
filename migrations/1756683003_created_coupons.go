package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("coupons")

		collection.Fields.Add(
			&core.TextField{Name: "code", Required: true, Max: 50},
			&core.NumberField{Name: "amount", Required: true, Min: types.Pointer(0.0)},
			&core.BoolField{Name: "active"},
			&core.DateField{Name: "starts_at"},
			&core.DateField{Name: "ends_at"},
			&core.NumberField{Name: "usage_cap", OnlyInt: true, Min: types.Pointer(0.0)},
			&core.NumberField{Name: "used_count", OnlyInt: true, Min: types.Pointer(0.0)},
			&core.NumberField{Name: "min_order_amount", Min: types.Pointer(0.0)},
			&core.AutodateField{Name: "created", OnCreate: true},
			&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
		)

		collection.AddIndex("idx_coupons_code", true, "code", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("coupons")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
