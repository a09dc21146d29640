package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathquest/internal/ui/theme"
)

// ProgressBar renders done out of total as a filled bar.
type ProgressBar struct {
	Done  int
	Total int
	Width int
}

// View renders the bar followed by "done/total".
func (p ProgressBar) View() string {
	if p.Total <= 0 {
		return ""
	}
	label := fmt.Sprintf("  %d/%d", p.Done, p.Total)
	barWidth := p.Width - len(label)
	if barWidth < 4 {
		barWidth = 4
	}
	filled := barWidth * p.Done / p.Total
	filled = min(max(filled, 0), barWidth)

	return lipgloss.NewStyle().Background(theme.Secondary).Render(strings.Repeat(" ", filled)) +
		lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", barWidth-filled)) +
		theme.Dim.Render(label)
}
