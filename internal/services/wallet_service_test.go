package services

import (
	"context"
	"sync"
	"testing"

	"event-booking/internal/status"
	"event-booking/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletCreatedOnFirstAccess(t *testing.T) {
	app := setupTestApp(t)
	wallet := NewWalletService(app)

	w, err := wallet.Get(context.Background(), "user1")
	require.NoError(t, err)
	assert.Equal(t, "user1", w.UserID)
	assert.True(t, w.Balance.IsZero())
}

func TestCreditAndDebit(t *testing.T) {
	app := setupTestApp(t)
	wallet := NewWalletService(app)
	ctx := context.Background()

	require.NoError(t, wallet.Credit(ctx, "user1", decimal.NewFromInt(200), "pay_1", "top up"))
	require.NoError(t, wallet.Debit(ctx, "user1", decimal.NewFromFloat(49.50), "pay_2", "purchase"))

	balance, err := wallet.GetBalance(ctx, "user1")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromFloat(150.50)), "got %s", balance)
}

func TestDebitRejectsOverdraft(t *testing.T) {
	app := setupTestApp(t)
	wallet := NewWalletService(app)
	ctx := context.Background()

	require.NoError(t, wallet.Credit(ctx, "user1", decimal.NewFromInt(100), "pay_1", "top up"))

	err := wallet.Debit(ctx, "user1", decimal.NewFromFloat(100.01), "pay_2", "purchase")
	assert.ErrorIs(t, err, status.ErrInsufficientFunds)

	balance, err := wallet.GetBalance(ctx, "user1")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(100)))
}

func TestDebitWithoutWallet(t *testing.T) {
	app := setupTestApp(t)
	wallet := NewWalletService(app)

	err := wallet.Debit(context.Background(), "ghost", decimal.NewFromInt(1), "pay_1", "purchase")
	assert.ErrorIs(t, err, status.ErrInsufficientFunds)
}

func TestConcurrentDebitsNeverGoNegative(t *testing.T) {
	app := setupTestApp(t)
	wallet := NewWalletService(app)
	ctx := context.Background()

	require.NoError(t, wallet.Credit(ctx, "user1", decimal.NewFromInt(50), "pay_seed", "top up"))

	const attempts = 10
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- wallet.Debit(ctx, "user1", decimal.NewFromInt(10), "", "purchase")
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, status.ErrInsufficientFunds)
		}
	}

	assert.Equal(t, 5, succeeded)

	balance, err := wallet.GetBalance(ctx, "user1")
	require.NoError(t, err)
	assert.True(t, balance.IsZero(), "got %s", balance)
}

func TestTransactionsLedger(t *testing.T) {
	app := setupTestApp(t)
	wallet := NewWalletService(app)
	ctx := context.Background()

	require.NoError(t, wallet.Credit(ctx, "user1", decimal.NewFromInt(200), "pay_1", "top up"))
	require.NoError(t, wallet.Debit(ctx, "user1", decimal.NewFromInt(80), "pay_2", "purchase"))
	require.NoError(t, wallet.Credit(ctx, "user1", decimal.NewFromInt(80), "pay_2", "refund"))

	txns, err := wallet.Transactions(ctx, "user1", 1, 10)
	require.NoError(t, err)
	require.Len(t, txns, 3)

	types := map[string]int{}
	for _, txn := range txns {
		types[txn.Type]++
		assert.True(t, txn.Amount.IsPositive())
	}
	assert.Equal(t, 2, types[models.TxnCredit])
	assert.Equal(t, 1, types[models.TxnDebit])
}

func TestTransactionsWithoutWallet(t *testing.T) {
	app := setupTestApp(t)
	wallet := NewWalletService(app)

	txns, err := wallet.Transactions(context.Background(), "ghost", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, txns)
}
