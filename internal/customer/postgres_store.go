package customer

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
)

// PostgresStore persists customers in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed customer store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Create(ctx context.Context, c *Customer) error {
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO customers (full_name, email, card_type, card_last_four, is_frozen, is_active)
		VALUES ($1, $2, $3, $4, FALSE, TRUE)
		RETURNING id, created_at`,
		c.FullName, c.Email, c.CardType, c.CardLastFour,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrEmailTaken
		}
		return err
	}
	c.Frozen = false
	c.Active = true
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, id int64) (*Customer, error) {
	c := &Customer{}
	err := p.db.QueryRowContext(ctx, `
		SELECT id, full_name, email, card_type, card_last_four, is_frozen, is_active, created_at
		FROM customers WHERE id = $1`, id).
		Scan(&c.ID, &c.FullName, &c.Email, &c.CardType, &c.CardLastFour, &c.Frozen, &c.Active, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (p *PostgresStore) List(ctx context.Context, q Query) ([]*Customer, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, full_name, email, card_type, card_last_four, is_frozen, is_active, created_at
		FROM customers
		WHERE $1 = '' OR full_name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%'
		ORDER BY id`, q.Search)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var result []*Customer
	for rows.Next() {
		c := &Customer{}
		if err := rows.Scan(&c.ID, &c.FullName, &c.Email, &c.CardType, &c.CardLastFour,
			&c.Frozen, &c.Active, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (p *PostgresStore) SetFrozen(ctx context.Context, id int64, frozen bool) error {
	return p.setFlag(ctx, id, "is_frozen", frozen)
}

func (p *PostgresStore) SetActive(ctx context.Context, id int64, active bool) error {
	return p.setFlag(ctx, id, "is_active", active)
}

func (p *PostgresStore) setFlag(ctx context.Context, id int64, column string, value bool) error {
	// column is one of two compile-time constants, never user input
	result, err := p.db.ExecContext(ctx, `UPDATE customers SET `+column+` = $1 WHERE id = $2`, value, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

func (p *PostgresStore) ListActiveIDs(ctx context.Context) ([]int64, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id FROM customers WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Migrate creates the customers table if it doesn't exist.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS customers (
			id             BIGSERIAL PRIMARY KEY,
			full_name      TEXT NOT NULL,
			email          TEXT NOT NULL UNIQUE,
			card_type      TEXT NOT NULL DEFAULT 'Visa',
			card_last_four TEXT NOT NULL DEFAULT '0000',
			is_frozen      BOOLEAN NOT NULL DEFAULT FALSE,
			is_active      BOOLEAN NOT NULL DEFAULT TRUE,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	return err
}

var _ Store = (*PostgresStore)(nil)
