package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraudlens/fraudlens/internal/decision"
)

func record(t *testing.T, store Store, customerID int64, merchant string, amount, score float64, status decision.Status) *ScoredTransaction {
	t.Helper()
	txn := &ScoredTransaction{
		CustomerID: customerID,
		Merchant:   merchant,
		Amount:     amount,
		FraudScore: score,
		Status:     status,
	}
	require.NoError(t, store.Record(context.Background(), txn))
	return txn
}

func TestMemoryStoreRecordAssignsIDAndTimestamp(t *testing.T) {
	store := NewMemoryStore()

	txn := record(t, store, 1, "Acme Mart", 120.50, 0.0131, decision.StatusApprove)
	assert.Equal(t, int64(1), txn.ID)
	assert.False(t, txn.Timestamp.IsZero())

	txn2 := record(t, store, 1, "Acme Mart", 99, 0.9, decision.StatusDecline)
	assert.Equal(t, int64(2), txn2.ID)
}

func TestMemoryStoreListFilters(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	record(t, store, 1, "A", 10, 0.1, decision.StatusApprove)
	record(t, store, 2, "B", 20, 0.6, decision.StatusEscalate)
	record(t, store, 1, "C", 30, 0.9, decision.StatusDecline)

	byCustomer, err := store.List(ctx, Query{CustomerID: 1})
	require.NoError(t, err)
	assert.Len(t, byCustomer, 2)

	byStatus, err := store.List(ctx, Query{Status: decision.StatusEscalate})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "B", byStatus[0].Merchant)

	limited, err := store.List(ctx, Query{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	// Newest first
	assert.Equal(t, "C", limited[0].Merchant)
}

func TestMemoryStoreUpdateStatus(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	txn := record(t, store, 1, "A", 10, 0.6, decision.StatusEscalate)

	require.NoError(t, store.UpdateStatus(ctx, txn.ID, decision.StatusApprove))
	got, err := store.Get(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, decision.StatusApprove, got.Status)

	assert.ErrorIs(t, store.UpdateStatus(ctx, 99, decision.StatusApprove), ErrTransactionNotFound)
}

func TestMemoryStoreCustomerActivity(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	count, last, avg, err := store.CustomerActivity(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Nil(t, last)
	assert.Zero(t, avg)

	record(t, store, 1, "A", 10, 0.2, decision.StatusApprove)
	record(t, store, 1, "B", 20, 0.8, decision.StatusDecline)
	record(t, store, 2, "C", 30, 1.0, decision.StatusDecline)

	count, last, avg, err = store.CustomerActivity(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.NotNil(t, last)
	assert.InDelta(t, 0.5, avg, 1e-9)
}

func TestMemoryStoreStats(t *testing.T) {
	store := NewMemoryStore()
	record(t, store, 1, "A", 100, 0.1, decision.StatusApprove)
	record(t, store, 1, "B", 200, 0.6, decision.StatusEscalate)
	record(t, store, 2, "C", 300, 0.9, decision.StatusDecline)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalTransactions)
	assert.Equal(t, int64(1), stats.ApprovedToday)
	assert.Equal(t, int64(1), stats.EscalatedToday)
	assert.Equal(t, int64(1), stats.DeclinedToday)
	assert.InDelta(t, (0.1+0.6+0.9)/3, stats.AverageScore, 1e-9)
	assert.InDelta(t, 600, stats.TotalVolume, 1e-9)
}

func TestRiskyMerchantsMinimumVolume(t *testing.T) {
	store := NewMemoryStore()
	// Shady Deals: 3 txns, high scores — qualifies
	for i := 0; i < 3; i++ {
		record(t, store, 1, "Shady Deals", 50, 0.95, decision.StatusDecline)
	}
	// One-off: single very high score — excluded by the volume floor
	record(t, store, 2, "One-off", 10, 1.0, decision.StatusDecline)
	// Corner Store: 4 txns, low scores — qualifies but ranks below
	for i := 0; i < 4; i++ {
		record(t, store, 3, "Corner Store", 5, 0.01, decision.StatusApprove)
	}

	merchants, err := store.RiskyMerchants(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, merchants, 2)
	assert.Equal(t, "Shady Deals", merchants[0].Merchant)
	assert.Equal(t, 3, merchants[0].Declines)
	assert.Equal(t, "Corner Store", merchants[1].Merchant)
}

func TestTrendsGroupByDay(t *testing.T) {
	store := NewMemoryStore()
	record(t, store, 1, "A", 10, 0.2, decision.StatusApprove)
	record(t, store, 1, "B", 20, 0.8, decision.StatusDecline)

	trends, err := store.Trends(context.Background())
	require.NoError(t, err)
	require.Len(t, trends, 1)
	assert.Equal(t, time.Now().Format("2006-01-02"), trends[0].Day)
	assert.Equal(t, 2, trends[0].Transactions)
	assert.Equal(t, 1, trends[0].Declines)
}

// stubNames resolves every id to the same name.
type stubNames struct{ name string }

func (s stubNames) CustomerName(context.Context, int64) (string, error) { return s.name, nil }

func setupLedgerRouter(store Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(store, stubNames{name: "Ada Lovelace"}).RegisterRoutes(r.Group("/api"))
	return r
}

func TestRecentTransactionsHTTP(t *testing.T) {
	store := NewMemoryStore()
	record(t, store, 1, "Acme Mart", 120.50, 0.0131, decision.StatusApprove)
	r := setupLedgerRouter(store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/transactions/recent", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var recent []RecentTransaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recent))
	require.Len(t, recent, 1)
	assert.Equal(t, "Ada Lovelace", recent[0].CustomerName)
	assert.Equal(t, 0.0131, recent[0].FraudScore)
}

func TestDecideHTTP(t *testing.T) {
	store := NewMemoryStore()
	txn := record(t, store, 1, "A", 10, 0.6, decision.StatusEscalate)
	r := setupLedgerRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/transactions/1/decide",
		bytes.NewReader([]byte(`{"status":"Decline"}`)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	got, err := store.Get(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, decision.StatusDecline, got.Status)
}

func TestDecideRejectsUnknownStatus(t *testing.T) {
	store := NewMemoryStore()
	record(t, store, 1, "A", 10, 0.6, decision.StatusEscalate)
	r := setupLedgerRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/transactions/1/decide",
		bytes.NewReader([]byte(`{"status":"Maybe"}`)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListTransactionsHTTPStatusFilter(t *testing.T) {
	store := NewMemoryStore()
	record(t, store, 1, "A", 10, 0.1, decision.StatusApprove)
	record(t, store, 1, "B", 20, 0.9, decision.StatusDecline)
	r := setupLedgerRouter(store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/transactions?status=Decline", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var txns []ScoredTransaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &txns))
	require.Len(t, txns, 1)
	assert.Equal(t, "B", txns[0].Merchant)
}

func TestDashboardEndpoints(t *testing.T) {
	store := NewMemoryStore()
	record(t, store, 1, "A", 10, 0.1, decision.StatusApprove)
	r := setupLedgerRouter(store)

	for _, path := range []string{
		"/api/dashboard/stats",
		"/api/dashboard/risky-merchants",
		"/api/dashboard/trends",
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}
