package customer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateFrozenCustomer(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	c := &Customer{FullName: "Frozen", Email: "frozen@example.com"}
	require.NoError(t, store.Create(ctx, c))
	require.NoError(t, store.SetFrozen(ctx, c.ID, true))

	gate := NewGate(store)
	frozen, err := gate.Check(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, frozen)
}

func TestGateActiveCustomer(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	c := &Customer{FullName: "Fine", Email: "fine@example.com"}
	require.NoError(t, store.Create(ctx, c))

	gate := NewGate(store)
	frozen, err := gate.Check(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, frozen)
}

func TestGateUnknownCustomerPassesThrough(t *testing.T) {
	gate := NewGate(NewMemoryStore())
	frozen, err := gate.Check(context.Background(), 12345)
	require.NoError(t, err)
	assert.False(t, frozen)
}

type failingStore struct {
	Store
	err error
}

func (f *failingStore) Get(context.Context, int64) (*Customer, error) { return nil, f.err }

func TestGatePropagatesStoreErrors(t *testing.T) {
	wantErr := errors.New("connection refused")
	gate := NewGate(&failingStore{err: wantErr})

	_, err := gate.Check(context.Background(), 1)
	assert.ErrorIs(t, err, wantErr)
}
