package models

import "time"

// ProjectionStatus indicates urgency level for budget depletion.
type ProjectionStatus string

const (
	ProjectionSafe     ProjectionStatus = "SAFE"
	ProjectionWarning  ProjectionStatus = "WARNING"
	ProjectionCritical ProjectionStatus = "CRITICAL"
	ProjectionUnknown  ProjectionStatus = "UNKNOWN"
)

// BudgetProjection forecasts today's request usage from the pace so far.
type BudgetProjection struct {
	DepleteAt      time.Time        // Predicted exhaustion time, zero if not expected
	Status         ProjectionStatus // SAFE, WARNING, CRITICAL, UNKNOWN
	Confidence     string           // "low", "medium", "high"
	VsHistorical   string           // Comparison text vs the recent daily average
	Rate           float64          // Requests per hour today
	HistoricalAvg  float64          // Average requests per active day before today
	HoursLeft      float64          // Hours until exhaustion at Rate
	TimeUntilReset time.Duration    // Until the budget day rolls over
	Used           int
	Limit          int
	ProjectedTotal int  // Requests by end of day at Rate, capped at Limit
	ActiveDays     int  // Days before today with at least one request
	WillDeplete    bool // True if Rate exhausts the budget before the reset
}
