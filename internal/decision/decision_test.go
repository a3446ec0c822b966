package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecideDefaultThresholds(t *testing.T) {
	tests := []struct {
		name        string
		probability float64
		want        Status
		wantReason  string
	}{
		{"well below review", 0.10, StatusApprove, ReasonApprove},
		{"just below review", 0.4999, StatusApprove, ReasonApprove},
		{"exactly review", 0.50, StatusEscalate, ReasonEscalate},
		{"between thresholds", 0.69, StatusEscalate, ReasonEscalate},
		{"exactly decline", 0.70, StatusDecline, ReasonDecline},
		{"above decline", 0.85, StatusDecline, ReasonDecline},
		{"certain fraud", 1.0, StatusDecline, ReasonDecline},
		{"zero", 0.0, StatusApprove, ReasonApprove},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, reason := Decide(tt.probability, DefaultDeclineThreshold, DefaultReviewThreshold)
			assert.Equal(t, tt.want, status)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestDecideCustomThresholds(t *testing.T) {
	status, _ := Decide(0.30, 0.60, 0.25)
	assert.Equal(t, StatusEscalate, status)

	status, _ = Decide(0.65, 0.60, 0.25)
	assert.Equal(t, StatusDecline, status)
}

// An inverted policy (review above decline) is not corrected: the decline
// rule is evaluated first and dominates the overlap.
func TestDecideInvertedThresholds(t *testing.T) {
	status, reason := Decide(0.55, 0.50, 0.80)
	assert.Equal(t, StatusDecline, status)
	assert.Equal(t, ReasonDecline, reason)

	status, _ = Decide(0.40, 0.50, 0.80)
	assert.Equal(t, StatusApprove, status)
}

func TestDecideIsDeterministic(t *testing.T) {
	s1, r1 := Decide(0.64, DefaultDeclineThreshold, DefaultReviewThreshold)
	s2, r2 := Decide(0.64, DefaultDeclineThreshold, DefaultReviewThreshold)
	assert.Equal(t, s1, s2)
	assert.Equal(t, r1, r2)
}
