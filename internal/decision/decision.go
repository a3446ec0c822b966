// Package decision maps a fraud probability to a terminal decision state.
//
// The mapping is a two-threshold ladder evaluated top to bottom, first match
// wins. Thresholds are operator-configurable and read fresh for every call;
// nothing here validates their ordering. If an operator sets the review
// threshold above the decline threshold, the decline rule still dominates
// mechanically; that misconfiguration is visible in /api/admin/config and is
// deliberately not corrected here.
package decision

// Status is the pipeline's terminal output per transaction.
type Status string

const (
	StatusApprove  Status = "Approve"
	StatusEscalate Status = "Escalate"
	StatusDecline  Status = "Decline"
)

// Valid reports whether s is one of the three terminal states.
func (s Status) Valid() bool {
	switch s {
	case StatusApprove, StatusEscalate, StatusDecline:
		return true
	}
	return false
}

// Compiled fallbacks used when a threshold key is absent from the policy store.
const (
	DefaultDeclineThreshold = 0.70
	DefaultReviewThreshold  = 0.50
)

// Decision reasons returned to the caller and shown on the dashboard.
const (
	ReasonDecline  = "critical risk score, auto-decline threshold met"
	ReasonEscalate = "medium risk score, requires manual review"
	ReasonApprove  = "low risk score"
	ReasonFrozen   = "account frozen"
)

// Decide maps a probability plus the two thresholds to a decision state with
// a reason. Pure function; no clamping of either input.
func Decide(probability, declineThreshold, reviewThreshold float64) (Status, string) {
	switch {
	case probability >= declineThreshold:
		return StatusDecline, ReasonDecline
	case probability >= reviewThreshold:
		return StatusEscalate, ReasonEscalate
	default:
		return StatusApprove, ReasonApprove
	}
}
