package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"event-booking/internal/status"
	"event-booking/models"
	"event-booking/monitoring"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

// WalletService owns the per-user wallet balances and their append-only
// transaction log. Balance mutations and their log entries always commit in
// the same transaction.
type WalletService struct {
	app core.App
}

func NewWalletService(app core.App) *WalletService {
	return &WalletService{app: app}
}

// Get returns the user's wallet, creating an empty one on first use.
func (s *WalletService) Get(ctx context.Context, userID string) (*models.Wallet, error) {
	rec, err := s.findOrCreate(ctx, s.app, userID)
	if err != nil {
		return nil, err
	}
	return models.WalletFromRecord(rec), nil
}

func (s *WalletService) GetBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	w, err := s.Get(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return w.Balance, nil
}

// Credit increases the balance and appends a credit entry. The wallet is
// created on first use.
func (s *WalletService) Credit(ctx context.Context, userID string, amount decimal.Decimal, paymentID, description string) error {
	if !amount.IsPositive() {
		return fmt.Errorf("credit: amount must be positive, got %s", amount)
	}

	err := s.app.RunInTransaction(func(txApp core.App) error {
		wallet, err := s.findOrCreate(ctx, txApp, userID)
		if err != nil {
			return err
		}

		_, err = txApp.DB().
			NewQuery("UPDATE wallets SET balance = balance + {:amount} WHERE id = {:id}").
			Bind(dbx.Params{"amount": amount.InexactFloat64(), "id": wallet.Id}).
			WithContext(ctx).
			Execute()
		if err != nil {
			return fmt.Errorf("credit: %w", err)
		}

		return s.appendTransaction(ctx, txApp, wallet.Id, models.TxnCredit, amount, paymentID, description)
	})
	if err != nil {
		return err
	}

	monitoring.RecordWalletTransaction(models.TxnCredit)
	return nil
}

// Debit decreases the balance and appends a debit entry. The decrement is a
// conditional single-statement update, so the balance can never go negative
// even under concurrent debits; a debit exceeding the balance fails with
// ErrInsufficientFunds and changes nothing.
func (s *WalletService) Debit(ctx context.Context, userID string, amount decimal.Decimal, paymentID, description string) error {
	if !amount.IsPositive() {
		return fmt.Errorf("debit: amount must be positive, got %s", amount)
	}

	err := s.app.RunInTransaction(func(txApp core.App) error {
		wallet, err := s.find(ctx, txApp, userID)
		if errors.Is(err, sql.ErrNoRows) {
			// no wallet means zero balance
			return status.ErrInsufficientFunds
		}
		if err != nil {
			return err
		}

		res, err := txApp.DB().
			NewQuery("UPDATE wallets SET balance = balance - {:amount} WHERE id = {:id} AND balance >= {:amount}").
			Bind(dbx.Params{"amount": amount.InexactFloat64(), "id": wallet.Id}).
			WithContext(ctx).
			Execute()
		if err != nil {
			return fmt.Errorf("debit: %w", err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("debit: %w", err)
		}
		if affected == 0 {
			return status.ErrInsufficientFunds
		}

		return s.appendTransaction(ctx, txApp, wallet.Id, models.TxnDebit, amount, paymentID, description)
	})
	if err != nil {
		return err
	}

	monitoring.RecordWalletTransaction(models.TxnDebit)
	return nil
}

// Transactions lists the user's ledger entries, newest first.
func (s *WalletService) Transactions(ctx context.Context, userID string, page, perPage int) ([]*models.WalletTransaction, error) {
	wallet, err := s.find(ctx, s.app, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return []*models.WalletTransaction{}, nil
	}
	if err != nil {
		return nil, err
	}

	limit, offset := pageWindow(page, perPage)
	records, err := s.app.FindRecordsByFilter(
		"wallet_transactions",
		"wallet = {:wallet}",
		"-created",
		limit,
		offset,
		dbx.Params{"wallet": wallet.Id},
	)
	if err != nil {
		return nil, fmt.Errorf("transactions: %w", err)
	}

	txns := make([]*models.WalletTransaction, 0, len(records))
	for _, r := range records {
		txns = append(txns, models.WalletTransactionFromRecord(r))
	}

	return txns, nil
}

func (s *WalletService) find(ctx context.Context, app core.App, userID string) (*core.Record, error) {
	return app.FindFirstRecordByFilter("wallets", "user = {:user}", dbx.Params{"user": userID})
}

func (s *WalletService) findOrCreate(ctx context.Context, app core.App, userID string) (*core.Record, error) {
	rec, err := s.find(ctx, app, userID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("wallet lookup: %w", err)
	}

	collection, err := app.FindCollectionByNameOrId("wallets")
	if err != nil {
		return nil, fmt.Errorf("wallet collection: %w", err)
	}

	rec = core.NewRecord(collection)
	rec.Set("user", userID)
	rec.Set("balance", 0)
	if err := app.SaveWithContext(ctx, rec); err != nil {
		return nil, fmt.Errorf("wallet create: %w", err)
	}

	return rec, nil
}

func (s *WalletService) appendTransaction(ctx context.Context, app core.App, walletID, txnType string, amount decimal.Decimal, paymentID, description string) error {
	collection, err := app.FindCollectionByNameOrId("wallet_transactions")
	if err != nil {
		return fmt.Errorf("wallet_transactions collection: %w", err)
	}

	rec := core.NewRecord(collection)
	rec.Set("wallet", walletID)
	rec.Set("type", txnType)
	rec.Set("amount", amount.InexactFloat64())
	rec.Set("payment_id", paymentID)
	rec.Set("description", description)

	if err := app.SaveWithContext(ctx, rec); err != nil {
		return fmt.Errorf("ledger append: %w", err)
	}

	return nil
}

// pageWindow normalizes pagination input into a limit/offset pair.
func pageWindow(page, perPage int) (int, int) {
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	if page < 1 {
		page = 1
	}
	return perPage, (page - 1) * perPage
}
