// Package customer manages card-holder accounts and the frozen-account gate.
//
// Customers are owned by account management; the decision pipeline only ever
// reads the frozen flag. Freezing is an operator action (dashboard toggle),
// deactivation is a soft delete that removes the customer from the
// simulator's pick list.
package customer

import (
	"context"
	"errors"
	"time"
)

// Errors
var (
	ErrCustomerNotFound = errors.New("customer: not found")
	ErrEmailTaken       = errors.New("customer: email already registered")
)

// Customer is a card holder whose transactions flow through the pipeline.
type Customer struct {
	ID           int64     `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	CardType     string    `json:"card_type"`
	CardLastFour string    `json:"card_last_four"`
	Frozen       bool      `json:"is_frozen"`
	Active       bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Query filters customer listings.
type Query struct {
	Search string // matches name or email, case-insensitive substring
}

// Store persists customers.
type Store interface {
	Create(ctx context.Context, c *Customer) error
	Get(ctx context.Context, id int64) (*Customer, error)
	List(ctx context.Context, q Query) ([]*Customer, error)
	SetFrozen(ctx context.Context, id int64, frozen bool) error
	SetActive(ctx context.Context, id int64, active bool) error
	ListActiveIDs(ctx context.Context) ([]int64, error)
}

// Gate is the pre-scoring frozen-account check. It is read-only and writes
// no ledger row: a frozen-account decline never reaches the ledger, which
// skews daily decline counts relative to scored declines. That asymmetry
// matches product behavior today.
type Gate struct {
	store Store
}

// NewGate creates a gate over the given customer store.
func NewGate(store Store) *Gate {
	return &Gate{store: store}
}

// Check reports whether the account is frozen. Unknown accounts are not
// auto-declined; only a positive frozen flag gates the transaction.
func (g *Gate) Check(ctx context.Context, customerID int64) (frozen bool, err error) {
	c, err := g.store.Get(ctx, customerID)
	if errors.Is(err, ErrCustomerNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return c.Frozen, nil
}
