package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/fraudlens/fraudlens/internal/decision"
)

// PostgresStore persists the transaction ledger in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed ledger.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Record(ctx context.Context, txn *ScoredTransaction) error {
	return p.db.QueryRowContext(ctx, `
		INSERT INTO transactions (customer_id, merchant, amount, fraud_score, status, processing_time_ms)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, timestamp`,
		txn.CustomerID, txn.Merchant, txn.Amount, txn.FraudScore, string(txn.Status), txn.ProcessingMs,
	).Scan(&txn.ID, &txn.Timestamp)
}

const txnColumns = `id, customer_id, merchant, amount, fraud_score, status, processing_time_ms, timestamp`

func scanTxn(scanner interface{ Scan(...any) error }) (*ScoredTransaction, error) {
	txn := &ScoredTransaction{}
	var status string
	err := scanner.Scan(&txn.ID, &txn.CustomerID, &txn.Merchant, &txn.Amount,
		&txn.FraudScore, &status, &txn.ProcessingMs, &txn.Timestamp)
	if err != nil {
		return nil, err
	}
	txn.Status = decision.Status(status)
	return txn, nil
}

func (p *PostgresStore) Get(ctx context.Context, id int64) (*ScoredTransaction, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+txnColumns+` FROM transactions WHERE id = $1`, id)
	txn, err := scanTxn(row)
	if err == sql.ErrNoRows {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (p *PostgresStore) List(ctx context.Context, q Query) ([]*ScoredTransaction, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 1000
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+txnColumns+` FROM transactions
		WHERE ($1 = 0 OR customer_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY timestamp DESC, id DESC
		LIMIT $3`,
		q.CustomerID, string(q.Status), limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var result []*ScoredTransaction
	for rows.Next() {
		txn, err := scanTxn(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, txn)
	}
	return result, rows.Err()
}

func (p *PostgresStore) Recent(ctx context.Context, limit int) ([]*ScoredTransaction, error) {
	return p.List(ctx, Query{Limit: limit})
}

func (p *PostgresStore) UpdateStatus(ctx context.Context, id int64, status decision.Status) error {
	result, err := p.db.ExecContext(ctx,
		`UPDATE transactions SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (p *PostgresStore) CustomerActivity(ctx context.Context, customerID int64) (int, *time.Time, float64, error) {
	var (
		count int
		last  sql.NullTime
		avg   sql.NullFloat64
	)
	err := p.db.QueryRowContext(ctx, `
		SELECT COUNT(*), MAX(timestamp), AVG(fraud_score)
		FROM transactions WHERE customer_id = $1`, customerID).
		Scan(&count, &last, &avg)
	if err != nil {
		return 0, nil, 0, err
	}
	var lastPtr *time.Time
	if last.Valid {
		lastPtr = &last.Time
	}
	return count, lastPtr, avg.Float64, nil
}

func (p *PostgresStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	var avg, volume sql.NullFloat64
	err := p.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = $1 AND timestamp >= CURRENT_DATE),
		       COUNT(*) FILTER (WHERE status = $2 AND timestamp >= CURRENT_DATE),
		       COUNT(*) FILTER (WHERE status = $3 AND timestamp >= CURRENT_DATE),
		       AVG(fraud_score),
		       SUM(amount)
		FROM transactions`,
		string(decision.StatusApprove), string(decision.StatusEscalate), string(decision.StatusDecline)).
		Scan(&stats.TotalTransactions, &stats.ApprovedToday, &stats.EscalatedToday,
			&stats.DeclinedToday, &avg, &volume)
	if err != nil {
		return nil, err
	}
	stats.AverageScore = avg.Float64
	stats.TotalVolume = volume.Float64
	return stats, nil
}

func (p *PostgresStore) RiskyMerchants(ctx context.Context, limit int) ([]MerchantRisk, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT merchant, COUNT(*), AVG(fraud_score),
		       COUNT(*) FILTER (WHERE status = $1)
		FROM transactions
		GROUP BY merchant
		HAVING COUNT(*) >= $2
		ORDER BY AVG(fraud_score) DESC, merchant
		LIMIT $3`,
		string(decision.StatusDecline), MinMerchantTransactions, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var result []MerchantRisk
	for rows.Next() {
		var m MerchantRisk
		if err := rows.Scan(&m.Merchant, &m.Transactions, &m.AverageScore, &m.Declines); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (p *PostgresStore) Trends(ctx context.Context) ([]TrendPoint, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT TO_CHAR(timestamp::date, 'YYYY-MM-DD'), COUNT(*), AVG(fraud_score),
		       COUNT(*) FILTER (WHERE status = $1)
		FROM transactions
		WHERE timestamp >= CURRENT_DATE - $2::int
		GROUP BY timestamp::date
		ORDER BY timestamp::date`,
		string(decision.StatusDecline), TrendDays)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var result []TrendPoint
	for rows.Next() {
		var tp TrendPoint
		if err := rows.Scan(&tp.Day, &tp.Transactions, &tp.AverageScore, &tp.Declines); err != nil {
			return nil, err
		}
		result = append(result, tp)
	}
	return result, rows.Err()
}

// Migrate creates the transactions table if it doesn't exist.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS transactions (
			id                 BIGSERIAL PRIMARY KEY,
			customer_id        BIGINT NOT NULL,
			merchant           TEXT NOT NULL,
			amount             DOUBLE PRECISION NOT NULL,
			fraud_score        DOUBLE PRECISION NOT NULL,
			status             TEXT NOT NULL,
			processing_time_ms DOUBLE PRECISION NOT NULL DEFAULT 0,
			timestamp          TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_transactions_customer ON transactions (customer_id);
		CREATE INDEX IF NOT EXISTS idx_transactions_timestamp ON transactions (timestamp DESC);
	`)
	return err
}

var _ Store = (*PostgresStore)(nil)
