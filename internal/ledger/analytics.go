package ledger

import "context"

// Dashboard aggregation rules:
//   - a merchant appears in the risky list only with at least
//     MinMerchantTransactions ledger rows, so one bad swipe doesn't
//     top the chart
//   - trends cover the trailing TrendDays calendar days
const (
	MinMerchantTransactions = 3
	TrendDays               = 7
)

// Stats is the dashboard headline block.
type Stats struct {
	TotalTransactions int64   `json:"total_transactions"`
	ApprovedToday     int64   `json:"approved_today"`
	EscalatedToday    int64   `json:"escalated_today"`
	DeclinedToday     int64   `json:"declined_today"`
	AverageScore      float64 `json:"average_score"`
	TotalVolume       float64 `json:"total_volume"`
}

// MerchantRisk is one row of the risky-merchant board.
type MerchantRisk struct {
	Merchant     string  `json:"merchant"`
	Transactions int     `json:"transaction_count"`
	AverageScore float64 `json:"average_score"`
	Declines     int     `json:"declines"`
}

// TrendPoint is one day of the fraud trend chart.
type TrendPoint struct {
	Day          string  `json:"day"` // YYYY-MM-DD
	Transactions int     `json:"transaction_count"`
	AverageScore float64 `json:"average_score"`
	Declines     int     `json:"declines"`
}

// Analytics are the dashboard aggregation queries.
type Analytics interface {
	Stats(ctx context.Context) (*Stats, error)
	// RiskyMerchants returns merchants ordered by average score, highest
	// first, limited to limit rows.
	RiskyMerchants(ctx context.Context, limit int) ([]MerchantRisk, error)
	// Trends returns one point per day for the trailing window, oldest
	// first. Days with no traffic are omitted.
	Trends(ctx context.Context) ([]TrendPoint, error)
}
