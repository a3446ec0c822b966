// Package policy provides the durable key→value configuration that drives
// decision behavior at runtime.
//
// Settings are stored as strings and parsed on read at a single conversion
// point (Float), so operators can change thresholds from the admin panel and
// see the effect on the very next transaction. A missing or unparsable value
// silently falls back to the compiled default: a policy lookup miss is not
// an error.
package policy

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/fraudlens/fraudlens/internal/decision"
)

// Errors
var (
	ErrSettingNotFound = errors.New("policy: setting not found")
)

// Well-known setting keys.
const (
	KeyDeclineThreshold = "fraud_threshold_decline"
	KeyReviewThreshold  = "fraud_threshold_review"
	KeySlackWebhookURL  = "slack_webhook_url"
)

// Setting is a single operator-configurable key/value pair.
type Setting struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

// Store persists settings.
type Store interface {
	Get(ctx context.Context, key string) (*Setting, error)
	Set(ctx context.Context, s *Setting) error
	List(ctx context.Context) ([]*Setting, error)
}

// Float reads a setting and parses it as a float64. Absent keys and values
// that fail to parse both resolve to def; store errors also default rather
// than fail the decision path.
func Float(ctx context.Context, store Store, key string, def float64) float64 {
	s, err := store.Get(ctx, key)
	if err != nil {
		return def
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s.Value), 64)
	if err != nil {
		return def
	}
	return v
}

// String reads a setting's raw value, or "" when absent.
func String(ctx context.Context, store Store, key string) string {
	s, err := store.Get(ctx, key)
	if err != nil {
		return ""
	}
	return s.Value
}

// Thresholds returns the current decision thresholds, reading the store
// fresh on every call (no caching) so operator changes apply immediately.
// No ordering invariant between the two is enforced.
func Thresholds(ctx context.Context, store Store) (declineThreshold, reviewThreshold float64) {
	declineThreshold = Float(ctx, store, KeyDeclineThreshold, decision.DefaultDeclineThreshold)
	reviewThreshold = Float(ctx, store, KeyReviewThreshold, decision.DefaultReviewThreshold)
	return declineThreshold, reviewThreshold
}
