package pmugraph

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// renderValues tabulates the latest reading of every event
func renderValues(readings []Reading, settings *SettingsTree, maxHeight int) string {
	if len(readings) == 0 {
		return "No events"
	}

	rows := make([][]string, 0, len(readings))
	for _, r := range readings {
		value := "-"
		if r.OK {
			value = formatValue(r.Value, r.Event.EventType().Unit())
		}
		status := "ok"
		if r.Err != nil {
			status = "error"
		} else if !r.OK {
			status = "waiting"
		}
		rows = append(rows, []string{r.Event.Name(), value, status})
	}

	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("160")).Padding(0, 1)
	hiddenStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	headerStyle := cellStyle.Bold(true)

	return NewWrapTable().
		MaxHeight(maxHeight).
		Headers("Event", "Value", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row < 0 || row >= len(readings) {
				return headerStyle
			}
			r := readings[row]
			if col == 2 && r.Err != nil {
				return errorStyle
			}
			s, ok := settings.Get(r.Event.Name())
			if ok && !s.Plot {
				return hiddenStyle
			}
			if ok && col == 0 {
				return cellStyle.Foreground(lipgloss.Color(string(s.Color)))
			}
			return cellStyle
		}).
		Render()
}

// renderErrors lists the failing events, one line each
func renderErrors(readings []Reading, width int) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
	var lines []string
	for _, r := range readings {
		if r.Err != nil {
			lines = append(lines, style.Render(truncate(fmt.Sprintf("%s: %v", r.Event.Name(), r.Err), width)))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
