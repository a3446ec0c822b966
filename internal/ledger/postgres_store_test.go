package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraudlens/fraudlens/internal/decision"
	"github.com/fraudlens/fraudlens/internal/testutil"
)

func TestPostgresStoreRoundTrip(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPostgresStore(db)

	txn := &ScoredTransaction{
		CustomerID: 1,
		Merchant:   "Acme Mart",
		Amount:     120.50,
		FraudScore: 0.0131,
		Status:     decision.StatusApprove,
	}
	require.NoError(t, store.Record(ctx, txn))
	require.NotZero(t, txn.ID)
	require.False(t, txn.Timestamp.IsZero())

	got, err := store.Get(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, txn.Merchant, got.Merchant)
	assert.Equal(t, txn.FraudScore, got.FraudScore)
	assert.Equal(t, decision.StatusApprove, got.Status)

	_, err = store.Get(ctx, txn.ID+1000)
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestPostgresStoreListAndUpdate(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPostgresStore(db)

	for _, tc := range []struct {
		customerID int64
		score      float64
		status     decision.Status
	}{
		{1, 0.1, decision.StatusApprove},
		{1, 0.6, decision.StatusEscalate},
		{2, 0.9, decision.StatusDecline},
	} {
		require.NoError(t, store.Record(ctx, &ScoredTransaction{
			CustomerID: tc.customerID,
			Merchant:   "M",
			Amount:     10,
			FraudScore: tc.score,
			Status:     tc.status,
		}))
	}

	byCustomer, err := store.List(ctx, Query{CustomerID: 1})
	require.NoError(t, err)
	assert.Len(t, byCustomer, 2)

	escalated, err := store.List(ctx, Query{Status: decision.StatusEscalate})
	require.NoError(t, err)
	require.Len(t, escalated, 1)

	require.NoError(t, store.UpdateStatus(ctx, escalated[0].ID, decision.StatusApprove))
	got, err := store.Get(ctx, escalated[0].ID)
	require.NoError(t, err)
	assert.Equal(t, decision.StatusApprove, got.Status)

	count, last, avg, err := store.CustomerActivity(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.NotNil(t, last)
	assert.InDelta(t, 0.35, avg, 1e-9)
}

func TestPostgresStoreAnalytics(t *testing.T) {
	db, cleanup := testutil.PGTest(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPostgresStore(db)

	for i := 0; i < MinMerchantTransactions; i++ {
		require.NoError(t, store.Record(ctx, &ScoredTransaction{
			CustomerID: 1, Merchant: "Shady Deals", Amount: 50,
			FraudScore: 0.95, Status: decision.StatusDecline,
		}))
	}
	require.NoError(t, store.Record(ctx, &ScoredTransaction{
		CustomerID: 2, Merchant: "One-off", Amount: 10,
		FraudScore: 1.0, Status: decision.StatusDecline,
	}))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalTransactions)
	assert.Equal(t, int64(4), stats.DeclinedToday)

	merchants, err := store.RiskyMerchants(ctx, 10)
	require.NoError(t, err)
	require.Len(t, merchants, 1)
	assert.Equal(t, "Shady Deals", merchants[0].Merchant)

	trends, err := store.Trends(ctx)
	require.NoError(t, err)
	require.Len(t, trends, 1)
	assert.Equal(t, 4, trends[0].Transactions)
}
