package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		wallets, err := app.FindCollectionByNameOrId("wallets")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("wallet_transactions")

		collection.Fields.Add(
			&core.RelationField{Name: "wallet", Required: true, MaxSelect: 1, CollectionId: wallets.Id, CascadeDelete: true},
			&core.SelectField{
				Name:      "type",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"credit", "debit"},
			},
			&core.NumberField{Name: "amount", Required: true, Min: types.Pointer(0.0)},
			&core.TextField{Name: "description", Max: 500},
			&core.TextField{Name: "payment_id", Max: 100},
			&core.AutodateField{Name: "created", OnCreate: true},
		)

		collection.AddIndex("idx_wallet_transactions_wallet", false, "wallet", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("wallet_transactions")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
