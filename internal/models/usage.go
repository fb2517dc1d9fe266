package models

import "time"

// EndpointUsage is the request count for one endpoint on one day.
type EndpointUsage struct {
	Endpoint string
	Date     string
	Count    int
}

// DailyUsage is the total request count for one day.
type DailyUsage struct {
	Date  time.Time
	Count int
}

// BudgetStatus is a snapshot of the daily request budget.
type BudgetStatus struct {
	Date  string
	Used  int
	Limit int
}

// Remaining returns how many requests are left today, never negative.
func (b BudgetStatus) Remaining() int {
	if b.Used >= b.Limit {
		return 0
	}
	return b.Limit - b.Used
}

// Exhausted reports whether no requests are left today.
func (b BudgetStatus) Exhausted() bool {
	return b.Used >= b.Limit
}

// Fraction returns the used share of the budget in [0, 1].
func (b BudgetStatus) Fraction() float64 {
	if b.Limit <= 0 {
		return 1
	}
	f := float64(b.Used) / float64(b.Limit)
	if f > 1 {
		return 1
	}
	return f
}
