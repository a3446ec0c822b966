package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraudlens/fraudlens/internal/decision"
)

func TestMemoryStoreSetGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	err := store.Set(ctx, &Setting{Key: KeyDeclineThreshold, Value: "0.8", Description: "auto-decline cutoff"})
	require.NoError(t, err)

	got, err := store.Get(ctx, KeyDeclineThreshold)
	require.NoError(t, err)
	assert.Equal(t, "0.8", got.Value)
	assert.Equal(t, "auto-decline cutoff", got.Description)

	// Upsert without description keeps the old one
	require.NoError(t, store.Set(ctx, &Setting{Key: KeyDeclineThreshold, Value: "0.9"}))
	got, err = store.Get(ctx, KeyDeclineThreshold)
	require.NoError(t, err)
	assert.Equal(t, "0.9", got.Value)
	assert.Equal(t, "auto-decline cutoff", got.Description)
}

func TestMemoryStoreNotFound(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSettingNotFound)
}

func TestMemoryStoreListSorted(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Set(ctx, &Setting{Key: "b", Value: "2"})
	_ = store.Set(ctx, &Setting{Key: "a", Value: "1"})

	settings, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, settings, 2)
	assert.Equal(t, "a", settings[0].Key)
}

func TestFloatParseOrDefault(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	// Absent → default
	assert.Equal(t, 0.7, Float(ctx, store, KeyDeclineThreshold, 0.7))

	// Present and parsable → stored value
	_ = store.Set(ctx, &Setting{Key: KeyDeclineThreshold, Value: " 0.85 "})
	assert.Equal(t, 0.85, Float(ctx, store, KeyDeclineThreshold, 0.7))

	// Present but garbage → default, not an error
	_ = store.Set(ctx, &Setting{Key: KeyDeclineThreshold, Value: "very high"})
	assert.Equal(t, 0.7, Float(ctx, store, KeyDeclineThreshold, 0.7))
}

func TestThresholdsDefaults(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	dt, rt := Thresholds(ctx, store)
	assert.Equal(t, decision.DefaultDeclineThreshold, dt)
	assert.Equal(t, decision.DefaultReviewThreshold, rt)
}

func TestThresholdsReadFresh(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	dt, _ := Thresholds(ctx, store)
	assert.Equal(t, 0.70, dt)

	// An operator change is visible on the very next read
	_ = store.Set(ctx, &Setting{Key: KeyDeclineThreshold, Value: "0.95"})
	dt, _ = Thresholds(ctx, store)
	assert.Equal(t, 0.95, dt)
}

func TestThresholdsIdempotentWhenUnchanged(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Set(ctx, &Setting{Key: KeyReviewThreshold, Value: "0.40"})

	d1, r1 := Thresholds(ctx, store)
	d2, r2 := Thresholds(ctx, store)
	assert.Equal(t, d1, d2)
	assert.Equal(t, r1, r2)
}

func setupRouter(store Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(store).RegisterRoutes(r.Group("/api"))
	return r
}

func TestUpdateAndListConfigHTTP(t *testing.T) {
	store := NewMemoryStore()
	r := setupRouter(store)

	body, _ := json.Marshal(ConfigUpdate{Key: KeyReviewThreshold, Value: "0.45", Description: "manual review cutoff"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/admin/config", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/admin/config", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var out []ConfigUpdate
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "0.45", out[0].Value)
}

func TestUpdateConfigRejectsMissingKey(t *testing.T) {
	r := setupRouter(NewMemoryStore())

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/admin/config", bytes.NewReader([]byte(`{"value":"1"}`)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
