// Package ledger is the authoritative record of scored transactions.
//
// Exactly one row is written per scored transaction, after the decision is
// made and before any notifications go out. Frozen-account declines never
// reach the ledger; they are rejected before scoring.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/fraudlens/fraudlens/internal/decision"
)

// Errors
var (
	ErrTransactionNotFound = errors.New("ledger: transaction not found")
)

// ScoredTransaction is one pipeline outcome.
type ScoredTransaction struct {
	ID           int64           `json:"id"`
	CustomerID   int64           `json:"customer_id"`
	Merchant     string          `json:"merchant"`
	Amount       float64         `json:"amount"`
	FraudScore   float64         `json:"fraud_score"`
	Status       decision.Status `json:"status"`
	ProcessingMs float64         `json:"processing_time_ms"`
	Timestamp    time.Time       `json:"timestamp"`
}

// Query filters transaction listings.
type Query struct {
	CustomerID int64           // 0 means any customer
	Status     decision.Status // empty means any status
	Limit      int             // 0 means no limit
}

// Store persists scored transactions.
type Store interface {
	// Record writes one ledger row and assigns ID and Timestamp.
	Record(ctx context.Context, txn *ScoredTransaction) error
	Get(ctx context.Context, id int64) (*ScoredTransaction, error)
	List(ctx context.Context, q Query) ([]*ScoredTransaction, error)
	// Recent returns the newest transactions, newest first.
	Recent(ctx context.Context, limit int) ([]*ScoredTransaction, error)
	// UpdateStatus is the manual-override path from the review queue.
	UpdateStatus(ctx context.Context, id int64, status decision.Status) error
	// CustomerActivity returns per-customer aggregates for listings.
	CustomerActivity(ctx context.Context, customerID int64) (txnCount int, lastActivity *time.Time, avgScore float64, err error)

	Analytics
}
