// Package components provides reusable UI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/fincache-tui/internal/logger"
	"github.com/j-veylop/fincache-tui/internal/models"
	"github.com/j-veylop/fincache-tui/internal/ui/styles"
)

// BudgetBar renders today's request usage against the daily budget.
type BudgetBar struct {
	progress progress.Model
}

// NewBudgetBar creates a budget bar that shifts from green to red as the
// budget is used.
func NewBudgetBar() BudgetBar {
	p := progress.New(
		progress.WithScaledGradient("#51cf66", "#ff6b6b"),
		progress.WithWidth(30),
		progress.WithoutPercentage(),
	)
	return BudgetBar{progress: p}
}

// View renders the bar with a "used/limit" label sized to width.
func (b BudgetBar) View(status models.BudgetStatus, width int) string {
	barWidth := width - 24
	if barWidth < 10 {
		barWidth = 10
	}
	b.progress.Width = barWidth

	fraction := status.Fraction()
	bar := b.progress.ViewAs(fraction)

	label := styles.GetBudgetStyle(fraction).
		Width(10).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%d/%d", status.Used, status.Limit))

	title := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Width(12).
		Render("API budget")

	return lipgloss.JoinHorizontal(lipgloss.Center, title, bar, " ", label)
}

// SimpleBudgetBar renders a plain bracketed bar without the progress model.
func SimpleBudgetBar(status models.BudgetStatus, width int) string {
	label := fmt.Sprintf("%d/%d", status.Used, status.Limit)
	barWidth := width - len(label) - 4
	if barWidth < 5 {
		barWidth = 5
	}

	bar := RenderGradientBar(status.Fraction(), barWidth)
	return fmt.Sprintf("[%s] %s", bar, styles.GetBudgetStyle(status.Fraction()).Render(label))
}

// RenderGradientBar renders the filled share (0..1) of a bar with gradient
// colors.
func RenderGradientBar(fraction float64, width int) string {
	if width < 1 {
		return ""
	}

	filled := int(float64(width) * fraction)
	filled = min(max(filled, 0), width)

	var b strings.Builder
	for i := 0; i < width; i++ {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			color := interpolateColor("#51cf66", "#ff6b6b", t)
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("█"))
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Subtle).Render("░"))
		}
	}
	return b.String()
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		logger.Error("failed to parse hex color", "hex", hex, "error", err)
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}
