package pmugraph

import (
	"github.com/charmbracelet/lipgloss"
)

// Horizontal renders panes side by side
func Horizontal(panes ...Pane) string {
	if len(panes) == 0 {
		return ""
	}

	views := make([]string, len(panes))
	for i, pane := range panes {
		views[i] = pane.Render()
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, views...)
}

// Vertical renders panes stacked vertically
func Vertical(panes ...Pane) string {
	if len(panes) == 0 {
		return ""
	}

	views := make([]string, len(panes))
	for i, pane := range panes {
		views[i] = pane.Render()
	}

	return lipgloss.JoinVertical(lipgloss.Left, views...)
}

// Wrap renders panes in rows of the given number of columns
func Wrap(columns int, panes ...Pane) string {
	if len(panes) == 0 {
		return ""
	}
	columns = max(columns, 1)

	var rows []string
	for i := 0; i < len(panes); i += columns {
		end := min(i+columns, len(panes))
		rows = append(rows, Horizontal(panes[i:end]...))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// gridColumns returns how many columns n chart panes are laid out in
func gridColumns(n int) int {
	switch {
	case n <= 2:
		return 1
	case n <= 6:
		return 2
	default:
		return 3
	}
}
