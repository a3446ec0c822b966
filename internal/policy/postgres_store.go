package policy

import (
	"context"
	"database/sql"
)

// PostgresStore persists settings in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed setting store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Get(ctx context.Context, key string) (*Setting, error) {
	s := &Setting{}
	err := p.db.QueryRowContext(ctx, `
		SELECT key, value, COALESCE(description, '')
		FROM system_config WHERE key = $1`, key).
		Scan(&s.Key, &s.Value, &s.Description)
	if err == sql.ErrNoRows {
		return nil, ErrSettingNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (p *PostgresStore) Set(ctx context.Context, s *Setting) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO system_config (key, value, description)
		VALUES ($1, $2, NULLIF($3, ''))
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    description = COALESCE(EXCLUDED.description, system_config.description)`,
		s.Key, s.Value, s.Description)
	return err
}

func (p *PostgresStore) List(ctx context.Context) ([]*Setting, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT key, value, COALESCE(description, '')
		FROM system_config ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var result []*Setting
	for rows.Next() {
		s := &Setting{}
		if err := rows.Scan(&s.Key, &s.Value, &s.Description); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// Migrate creates the system_config table if it doesn't exist.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS system_config (
			key         TEXT PRIMARY KEY,
			value       TEXT NOT NULL,
			description TEXT
		);
	`)
	return err
}

var _ Store = (*PostgresStore)(nil)
