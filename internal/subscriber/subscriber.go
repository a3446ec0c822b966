// Package subscriber manages alert recipients and their notification
// preferences.
//
// Preferences are stored as a raw JSON document so the dashboard can add
// new toggles without a migration. Readers must treat a malformed document
// as "everything off" rather than fail the surrounding operation; alert
// fan-out is best-effort end to end.
package subscriber

import (
	"context"
	"encoding/json"
	"errors"
)

// Errors
var (
	ErrSubscriberNotFound = errors.New("subscriber: not found")
	ErrEmailTaken         = errors.New("subscriber: email already registered")
)

// Subscriber is an alert recipient.
type Subscriber struct {
	ID          int64           `json:"id"`
	Email       string          `json:"email"`
	Preferences json.RawMessage `json:"preferences"`
}

// Preferences are the parsed notification toggles. The zero value disables
// everything.
type Preferences struct {
	EmailHighRisk bool `json:"email_high_risk"`
}

// ParsePreferences decodes a raw preference document. Malformed or empty
// documents yield the zero value; a bad row never blocks alert fan-out.
func ParsePreferences(raw json.RawMessage) Preferences {
	var p Preferences
	if len(raw) == 0 {
		return Preferences{}
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return Preferences{}
	}
	return p
}

// Store persists subscribers.
type Store interface {
	Create(ctx context.Context, s *Subscriber) error
	Get(ctx context.Context, id int64) (*Subscriber, error)
	List(ctx context.Context) ([]*Subscriber, error)
	UpdatePreferences(ctx context.Context, id int64, prefs json.RawMessage) error
}
