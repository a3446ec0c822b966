// Package pipeline runs a card transaction through the full risk flow:
// frozen-account gate, fraud scoring, threshold decision, ledger write,
// then alert fan-out.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/fraudlens/fraudlens/internal/customer"
	"github.com/fraudlens/fraudlens/internal/decision"
	"github.com/fraudlens/fraudlens/internal/ledger"
	"github.com/fraudlens/fraudlens/internal/logging"
	"github.com/fraudlens/fraudlens/internal/metrics"
	"github.com/fraudlens/fraudlens/internal/policy"
	"github.com/fraudlens/fraudlens/internal/traces"
)

// Scorer produces a fraud probability for a feature vector. Satisfied by
// scoring.Adapter.
type Scorer interface {
	Score(ctx context.Context, features []float64) (float64, error)
}

// Notifier fans out alerts for a recorded transaction. Satisfied by
// notify.Dispatcher.
type Notifier interface {
	Notify(ctx context.Context, txn *ledger.ScoredTransaction)
}

// Broadcaster pushes a scored transaction to live dashboard clients.
// Satisfied by realtime.Hub.
type Broadcaster interface {
	BroadcastTransaction(txn *ledger.ScoredTransaction)
}

// Request is one transaction to evaluate.
type Request struct {
	Features   []float64
	CustomerID int64
	Merchant   string
	Amount     float64
}

// Result is the pipeline's terminal answer.
type Result struct {
	FraudScore float64         `json:"fraud_score"`
	Status     decision.Status `json:"status"`
	Reason     string          `json:"decision_reason"`
}

// Service orchestrates one transaction end to end.
type Service struct {
	gate        *customer.Gate
	scorer      Scorer
	settings    policy.Store
	txns        ledger.Store
	notifier    Notifier
	broadcaster Broadcaster
}

// NewService wires the pipeline. notifier and broadcaster may be nil; those
// stages are then skipped.
func NewService(gate *customer.Gate, scorer Scorer, settings policy.Store, txns ledger.Store, notifier Notifier, broadcaster Broadcaster) *Service {
	return &Service{
		gate:        gate,
		scorer:      scorer,
		settings:    settings,
		txns:        txns,
		notifier:    notifier,
		broadcaster: broadcaster,
	}
}

// Process runs the full flow. A frozen account short-circuits before scoring
// with a fixed 1.0 score and writes no ledger row. Scoring and ledger
// failures fail the request; notification and broadcast failures do not.
func (s *Service) Process(ctx context.Context, req *Request) (*Result, error) {
	ctx, span := traces.StartSpan(ctx, "pipeline.Process",
		traces.CustomerID(req.CustomerID), traces.Merchant(req.Merchant))
	defer span.End()

	start := time.Now()
	log := logging.L(ctx)

	frozen, err := s.gate.Check(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("account gate: %w", err)
	}
	if frozen {
		metrics.GatedTransactionsTotal.Inc()
		log.Info("transaction gated, account frozen", "customer_id", req.CustomerID)
		span.SetAttributes(traces.DecisionStatus(string(decision.StatusDecline)))
		return &Result{
			FraudScore: 1.0,
			Status:     decision.StatusDecline,
			Reason:     decision.ReasonFrozen,
		}, nil
	}

	score, err := s.scorer.Score(ctx, req.Features)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(traces.FraudScore(score))

	declineThreshold, reviewThreshold := policy.Thresholds(ctx, s.settings)
	status, reason := decision.Decide(score, declineThreshold, reviewThreshold)
	span.SetAttributes(traces.DecisionStatus(string(status)))

	txn := &ledger.ScoredTransaction{
		CustomerID:   req.CustomerID,
		Merchant:     req.Merchant,
		Amount:       req.Amount,
		FraudScore:   score,
		Status:       status,
		ProcessingMs: float64(time.Since(start).Microseconds()) / 1000,
	}
	if err := s.txns.Record(ctx, txn); err != nil {
		return nil, fmt.Errorf("record transaction: %w", err)
	}
	span.SetAttributes(traces.TransactionID(txn.ID))
	metrics.DecisionsTotal.WithLabelValues(string(status)).Inc()

	log.Info("transaction scored",
		"transaction_id", txn.ID,
		"customer_id", req.CustomerID,
		"merchant", req.Merchant,
		"fraud_score", score,
		"status", status,
		"processing_ms", txn.ProcessingMs,
	)

	// Alerts and the live feed run after the row is durable; their failures
	// never surface to the caller.
	if s.notifier != nil {
		s.notifier.Notify(ctx, txn)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastTransaction(txn)
	}

	return &Result{FraudScore: score, Status: status, Reason: reason}, nil
}
