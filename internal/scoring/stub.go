package scoring

import (
	"context"
	"math"
)

// StubClassifier is a deterministic stand-in for demo mode when no model
// endpoint is configured. It squashes the magnitude of the feature vector
// through a logistic curve, so larger anomalous components score higher.
// Not a fraud model; just plausible-looking output.
type StubClassifier struct{}

func (StubClassifier) Score(_ context.Context, features []float64) (float64, error) {
	var sum float64
	for i, f := range features {
		if i == AmountIndex {
			continue
		}
		sum += f * f
	}
	magnitude := math.Sqrt(sum)
	return 1 / (1 + math.Exp(4-magnitude)), nil
}

var _ Classifier = StubClassifier{}
