// Package notify fans out alerts for high-risk transactions.
//
// Two tiers, evaluated independently on the percentage score:
//
//	> 70  team channel via Slack webhook
//	> 90  individual emails to opted-in subscribers
//
// Everything here is best-effort. A dead webhook or SMTP outage is logged
// and counted but never fails the transaction; the decision and the ledger
// row already exist by the time this code runs.
package notify

import (
	"context"
	"fmt"

	"github.com/fraudlens/fraudlens/internal/ledger"
	"github.com/fraudlens/fraudlens/internal/logging"
	"github.com/fraudlens/fraudlens/internal/metrics"
	"github.com/fraudlens/fraudlens/internal/policy"
	"github.com/fraudlens/fraudlens/internal/subscriber"
)

// Tier thresholds on the percentage scale (score * 100).
const (
	SlackTierPercent = 70.0
	EmailTierPercent = 90.0
)

// Metric label values per tier.
const (
	tierSlack = "slack"
	tierEmail = "email"
)

// SlackPoster delivers one message to a webhook URL.
type SlackPoster interface {
	Post(ctx context.Context, webhookURL, message string) error
}

// Dispatcher routes transaction alerts to the right channels.
type Dispatcher struct {
	settings    policy.Store
	subscribers subscriber.Store
	slack       SlackPoster
	email       Sender
}

// NewDispatcher creates a dispatcher. The webhook URL is not captured here;
// it is read from the policy store on every dispatch so operators can rotate
// it without a restart.
func NewDispatcher(settings policy.Store, subscribers subscriber.Store, slack SlackPoster, email Sender) *Dispatcher {
	return &Dispatcher{
		settings:    settings,
		subscribers: subscribers,
		slack:       slack,
		email:       email,
	}
}

// Notify evaluates both tiers for a scored transaction. It never returns an
// error; failures are logged and counted.
func (d *Dispatcher) Notify(ctx context.Context, txn *ledger.ScoredTransaction) {
	percent := txn.FraudScore * 100

	if percent > SlackTierPercent {
		d.notifySlack(ctx, txn, percent)
	}
	if percent > EmailTierPercent {
		d.notifyEmail(ctx, txn, percent)
	}
}

func (d *Dispatcher) notifySlack(ctx context.Context, txn *ledger.ScoredTransaction, percent float64) {
	log := logging.L(ctx)

	webhookURL := policy.String(ctx, d.settings, policy.KeySlackWebhookURL)
	if webhookURL == "" {
		// Unconfigured is a valid deployment state, not an error
		return
	}

	msg := fmt.Sprintf("🚨 High-risk transaction #%d: %.1f%% fraud score, %s, $%.2f at %s (customer %d)",
		txn.ID, percent, txn.Status, txn.Amount, txn.Merchant, txn.CustomerID)

	if err := d.slack.Post(ctx, webhookURL, msg); err != nil {
		metrics.AlertErrorsTotal.WithLabelValues(tierSlack).Inc()
		log.Warn("slack alert failed", "transaction_id", txn.ID, "error", err)
		return
	}
	metrics.AlertsTotal.WithLabelValues(tierSlack).Inc()
}

func (d *Dispatcher) notifyEmail(ctx context.Context, txn *ledger.ScoredTransaction, percent float64) {
	log := logging.L(ctx)

	subs, err := d.subscribers.List(ctx)
	if err != nil {
		metrics.AlertErrorsTotal.WithLabelValues(tierEmail).Inc()
		log.Warn("subscriber lookup failed", "transaction_id", txn.ID, "error", err)
		return
	}

	subject := fmt.Sprintf("Critical fraud alert: transaction #%d", txn.ID)
	body := fmt.Sprintf(
		"A transaction scored %.1f%% fraud probability.\n\nMerchant: %s\nAmount: $%.2f\nDecision: %s\nCustomer: %d\n",
		percent, txn.Merchant, txn.Amount, txn.Status, txn.CustomerID)

	for _, sub := range subs {
		if !subscriber.ParsePreferences(sub.Preferences).EmailHighRisk {
			continue
		}
		if err := d.email.Send(ctx, sub.Email, subject, body); err != nil {
			metrics.AlertErrorsTotal.WithLabelValues(tierEmail).Inc()
			log.Warn("email alert failed", "transaction_id", txn.ID, "recipient", sub.Email, "error", err)
			continue
		}
		metrics.AlertsTotal.WithLabelValues(tierEmail).Inc()
	}
}
