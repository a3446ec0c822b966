package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fraudlens/fraudlens/internal/decision"
)

// MemoryStore is an in-memory transaction ledger for tests and demo mode.
type MemoryStore struct {
	mu     sync.RWMutex
	txns   map[int64]*ScoredTransaction
	nextID int64
}

// NewMemoryStore creates a new in-memory ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		txns: make(map[int64]*ScoredTransaction),
	}
}

func (m *MemoryStore) Record(_ context.Context, txn *ScoredTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	txn.ID = m.nextID
	if txn.Timestamp.IsZero() {
		txn.Timestamp = time.Now()
	}
	cp := *txn
	m.txns[txn.ID] = &cp
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id int64) (*ScoredTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	txn, ok := m.txns[id]
	if !ok {
		return nil, ErrTransactionNotFound
	}
	cp := *txn
	return &cp, nil
}

func (m *MemoryStore) List(_ context.Context, q Query) ([]*ScoredTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*ScoredTransaction
	for _, txn := range m.txns {
		if q.CustomerID != 0 && txn.CustomerID != q.CustomerID {
			continue
		}
		if q.Status != "" && txn.Status != q.Status {
			continue
		}
		cp := *txn
		result = append(result, &cp)
	}

	// Newest first, id as tiebreaker for same-instant writes
	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].ID > result[j].ID
		}
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	if q.Limit > 0 && len(result) > q.Limit {
		result = result[:q.Limit]
	}
	return result, nil
}

func (m *MemoryStore) Recent(ctx context.Context, limit int) ([]*ScoredTransaction, error) {
	return m.List(ctx, Query{Limit: limit})
}

func (m *MemoryStore) UpdateStatus(_ context.Context, id int64, status decision.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	txn, ok := m.txns[id]
	if !ok {
		return ErrTransactionNotFound
	}
	txn.Status = status
	return nil
}

func (m *MemoryStore) CustomerActivity(_ context.Context, customerID int64) (int, *time.Time, float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var (
		count int
		sum   float64
		last  time.Time
	)
	for _, txn := range m.txns {
		if txn.CustomerID != customerID {
			continue
		}
		count++
		sum += txn.FraudScore
		if txn.Timestamp.After(last) {
			last = txn.Timestamp
		}
	}
	if count == 0 {
		return 0, nil, 0, nil
	}
	avg := sum / float64(count)
	return count, &last, avg, nil
}

func (m *MemoryStore) Stats(_ context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &Stats{}
	var scoreSum float64
	today := time.Now().Truncate(24 * time.Hour)
	for _, txn := range m.txns {
		stats.TotalTransactions++
		scoreSum += txn.FraudScore
		stats.TotalVolume += txn.Amount

		if txn.Timestamp.Before(today) {
			continue
		}
		switch txn.Status {
		case decision.StatusApprove:
			stats.ApprovedToday++
		case decision.StatusEscalate:
			stats.EscalatedToday++
		case decision.StatusDecline:
			stats.DeclinedToday++
		}
	}
	if stats.TotalTransactions > 0 {
		stats.AverageScore = scoreSum / float64(stats.TotalTransactions)
	}
	return stats, nil
}

func (m *MemoryStore) RiskyMerchants(_ context.Context, limit int) ([]MerchantRisk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type agg struct {
		count    int
		scoreSum float64
		declines int
	}
	byMerchant := make(map[string]*agg)
	for _, txn := range m.txns {
		a := byMerchant[txn.Merchant]
		if a == nil {
			a = &agg{}
			byMerchant[txn.Merchant] = a
		}
		a.count++
		a.scoreSum += txn.FraudScore
		if txn.Status == decision.StatusDecline {
			a.declines++
		}
	}

	var result []MerchantRisk
	for merchant, a := range byMerchant {
		if a.count < MinMerchantTransactions {
			continue
		}
		result = append(result, MerchantRisk{
			Merchant:     merchant,
			Transactions: a.count,
			AverageScore: a.scoreSum / float64(a.count),
			Declines:     a.declines,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].AverageScore == result[j].AverageScore {
			return result[i].Merchant < result[j].Merchant
		}
		return result[i].AverageScore > result[j].AverageScore
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MemoryStore) Trends(_ context.Context) ([]TrendPoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cutoff := time.Now().AddDate(0, 0, -TrendDays)
	type agg struct {
		count    int
		scoreSum float64
		declines int
	}
	byDay := make(map[string]*agg)
	for _, txn := range m.txns {
		if txn.Timestamp.Before(cutoff) {
			continue
		}
		day := txn.Timestamp.Format("2006-01-02")
		a := byDay[day]
		if a == nil {
			a = &agg{}
			byDay[day] = a
		}
		a.count++
		a.scoreSum += txn.FraudScore
		if txn.Status == decision.StatusDecline {
			a.declines++
		}
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	result := make([]TrendPoint, 0, len(days))
	for _, day := range days {
		a := byDay[day]
		result = append(result, TrendPoint{
			Day:          day,
			Transactions: a.count,
			AverageScore: a.scoreSum / float64(a.count),
			Declines:     a.declines,
		})
	}
	return result, nil
}

var _ Store = (*MemoryStore)(nil)
