package subscriber

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"
)

// PostgresStore persists subscribers in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed subscriber store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Create(ctx context.Context, s *Subscriber) error {
	if s.Preferences == nil {
		s.Preferences = json.RawMessage(`{}`)
	}
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO subscribers (email, preferences)
		VALUES ($1, $2)
		RETURNING id`,
		s.Email, string(s.Preferences),
	).Scan(&s.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, id int64) (*Subscriber, error) {
	s := &Subscriber{}
	var prefs string
	err := p.db.QueryRowContext(ctx, `
		SELECT id, email, preferences FROM subscribers WHERE id = $1`, id).
		Scan(&s.ID, &s.Email, &prefs)
	if err == sql.ErrNoRows {
		return nil, ErrSubscriberNotFound
	}
	if err != nil {
		return nil, err
	}
	s.Preferences = json.RawMessage(prefs)
	return s, nil
}

func (p *PostgresStore) List(ctx context.Context) ([]*Subscriber, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, email, preferences FROM subscribers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var result []*Subscriber
	for rows.Next() {
		s := &Subscriber{}
		var prefs string
		if err := rows.Scan(&s.ID, &s.Email, &prefs); err != nil {
			return nil, err
		}
		s.Preferences = json.RawMessage(prefs)
		result = append(result, s)
	}
	return result, rows.Err()
}

func (p *PostgresStore) UpdatePreferences(ctx context.Context, id int64, prefs json.RawMessage) error {
	result, err := p.db.ExecContext(ctx,
		`UPDATE subscribers SET preferences = $1 WHERE id = $2`, string(prefs), id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrSubscriberNotFound
	}
	return nil
}

// Migrate creates the subscribers table if it doesn't exist.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS subscribers (
			id          BIGSERIAL PRIMARY KEY,
			email       TEXT NOT NULL UNIQUE,
			preferences TEXT NOT NULL DEFAULT '{}'
		);
	`)
	return err
}

var _ Store = (*PostgresStore)(nil)
