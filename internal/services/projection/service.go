// Package projection forecasts when the daily request budget runs out.
package projection

import (
	"fmt"
	"math"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/j-veylop/fincache-tui/internal/models"
)

const (
	lowConfThreshold = 3
	medConfThreshold = 7

	// Pace is measured over at least this long so the first request of the
	// day does not project an absurd rate.
	minElapsed = 30 * time.Minute
)

// Service computes budget projections.
type Service struct {
	clock clockwork.Clock
}

// New creates a projection service.
func New(clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{clock: clock}
}

// Calculate projects today's usage. history holds one point per day ending
// today, as returned by the cache manager; today's point is ignored in favor
// of status.
func (s *Service) Calculate(status models.BudgetStatus, history []models.DailyUsage) *models.BudgetProjection {
	now := s.clock.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	reset := midnight.AddDate(0, 0, 1)

	proj := &models.BudgetProjection{
		Used:           status.Used,
		Limit:          status.Limit,
		ProjectedTotal: status.Used,
		TimeUntilReset: reset.Sub(now),
		Status:         models.ProjectionUnknown,
		HoursLeft:      math.Inf(1),
	}

	var total int
	for _, d := range history {
		if !d.Date.Before(midnight) || d.Count == 0 {
			continue
		}
		proj.ActiveDays++
		total += d.Count
	}
	if proj.ActiveDays > 0 {
		proj.HistoricalAvg = float64(total) / float64(proj.ActiveDays)
	}

	switch {
	case proj.ActiveDays < lowConfThreshold:
		proj.Confidence = "low"
	case proj.ActiveDays < medConfThreshold:
		proj.Confidence = "medium"
	default:
		proj.Confidence = "high"
	}

	if status.Exhausted() {
		proj.Status = models.ProjectionCritical
		proj.WillDeplete = true
		proj.HoursLeft = 0
		proj.ProjectedTotal = status.Limit
		proj.VsHistorical = formatHistoricalComparison(float64(status.Limit), proj.HistoricalAvg)
		return proj
	}

	elapsed := max(now.Sub(midnight), minElapsed)
	proj.Rate = float64(status.Used) / elapsed.Hours()

	if proj.Rate <= 0 {
		if proj.ActiveDays > 0 {
			proj.Status = models.ProjectionSafe
		}
		proj.VsHistorical = formatHistoricalComparison(0, proj.HistoricalAvg)
		return proj
	}

	remaining := float64(status.Remaining())
	proj.HoursLeft = remaining / proj.Rate
	projected := float64(status.Used) + proj.Rate*proj.TimeUntilReset.Hours()
	proj.ProjectedTotal = min(int(math.Round(projected)), status.Limit)
	proj.WillDeplete = projected >= float64(status.Limit)
	proj.VsHistorical = formatHistoricalComparison(projected, proj.HistoricalAvg)

	if proj.WillDeplete {
		proj.DepleteAt = now.Add(time.Duration(proj.HoursLeft * float64(time.Hour)))
		if proj.HoursLeft < 1 {
			proj.Status = models.ProjectionCritical
		} else {
			proj.Status = models.ProjectionWarning
		}
	} else {
		proj.Status = models.ProjectionSafe
	}

	return proj
}

func formatHistoricalComparison(projected, avg float64) string {
	if avg <= 0 {
		return "Building history..."
	}
	diff := ((projected - avg) / avg) * 100
	if math.Abs(diff) < 15 {
		return "Typical for you"
	} else if diff > 0 {
		return fmt.Sprintf("%.0f%% above your daily average", diff)
	}
	return fmt.Sprintf("%.0f%% below your daily average", -diff)
}
