package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestGetBudgetStyle(t *testing.T) {
	tests := []struct {
		name     string
		fraction float64
		want     lipgloss.Color
	}{
		{"empty", 0, Success},
		{"below warn", 0.79, Success},
		{"warn", 0.8, Warning},
		{"spent", 1, Error},
		{"over", 1.2, Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetBudgetStyle(tt.fraction).GetForeground()
			if got != tt.want {
				t.Errorf("GetBudgetStyle(%v) foreground = %v, want %v", tt.fraction, got, tt.want)
			}
		})
	}
}

func TestCenter(t *testing.T) {
	if CenterHorizontal("x", 10) == "" {
		t.Error("CenterHorizontal returned empty")
	}
	if CenterBoth("x", 10, 3) == "" {
		t.Error("CenterBoth returned empty")
	}
}
