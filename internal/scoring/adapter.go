package scoring

import (
	"context"
	"math"
	"time"

	"github.com/fraudlens/fraudlens/internal/metrics"
)

// Adapter validates and normalizes feature vectors before handing them to
// the classifier, then rounds the returned probability for stable display
// and storage.
type Adapter struct {
	classifier Classifier
}

// NewAdapter creates an adapter over the given classifier. A nil classifier
// is allowed; every Score call then fails fast with ErrClassifierUnavailable.
func NewAdapter(classifier Classifier) *Adapter {
	return &Adapter{classifier: classifier}
}

// Score normalizes the amount element, invokes the classifier and returns
// the probability rounded to four decimal places. The caller's slice is
// never mutated.
func (a *Adapter) Score(ctx context.Context, features []float64) (float64, error) {
	if a.classifier == nil {
		return 0, ErrClassifierUnavailable
	}
	if len(features) != FeatureCount {
		return 0, &ErrFeatureCount{Got: len(features)}
	}

	normalized := make([]float64, FeatureCount)
	copy(normalized, features)
	normalized[AmountIndex] /= ConversionRate

	start := time.Now()
	p, err := a.classifier.Score(ctx, normalized)
	metrics.ScoringDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return 0, err
	}

	return Round(p), nil
}

// Round truncates a probability to four decimal places, half away from zero.
func Round(p float64) float64 {
	return math.Round(p*10000) / 10000
}
