// Package scoring bridges transaction feature vectors to the fraud
// classifier and normalizes what goes in and comes out.
package scoring

import (
	"context"
	"errors"
	"fmt"
)

// Errors
var (
	ErrClassifierUnavailable = errors.New("scoring: classifier unavailable")
)

const (
	// FeatureCount is the exact length of a transaction feature vector.
	FeatureCount = 30

	// AmountIndex is the position of the raw transaction amount within the
	// feature vector. Every other element is a pre-computed PCA component.
	AmountIndex = 29

	// ConversionRate converts the raw LKR amount to the USD scale the
	// classifier was trained on. Hard-coded on purpose: the model and this
	// constant version together.
	ConversionRate = 300.0
)

// Classifier produces a fraud probability in [0,1] for a feature vector.
type Classifier interface {
	Score(ctx context.Context, features []float64) (float64, error)
}

// ErrFeatureCount reports a feature vector of the wrong length.
type ErrFeatureCount struct {
	Got int
}

func (e *ErrFeatureCount) Error() string {
	return fmt.Sprintf("scoring: expected %d features, got %d", FeatureCount, e.Got)
}
