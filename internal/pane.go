package pmugraph

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	paneBorderColor  = lipgloss.Color("240")
	paneFocusedColor = lipgloss.Color("170")
)

// Pane is a bordered panel of the dashboard. Width and height are the
// content size; the border adds one cell on every side.
//
//	pane := NewPane("Events", 30, 10).
//	    SetContent(tree.Render(true)).
//	    SetFocused(true)
//	fmt.Println(pane.Render())
type Pane struct {
	title   string
	content string
	width   int
	height  int
	focused bool
}

func NewPane(title string, width, height int) Pane {
	return Pane{title: title, width: width, height: height}
}

func (p Pane) SetTitle(title string) Pane {
	p.title = title
	return p
}

func (p Pane) SetContent(content string) Pane {
	p.content = content
	return p
}

func (p Pane) SetSize(width, height int) Pane {
	p.width, p.height = width, height
	return p
}

// SetFocused highlights the border
func (p Pane) SetFocused(focused bool) Pane {
	p.focused = focused
	return p
}

// ContentHeight is the number of lines left for content under the title
func (p Pane) ContentHeight() int {
	if p.title != "" {
		return max(p.height-1, 0)
	}
	return p.height
}

// Render draws the pane, cutting content that doesn't fit
func (p Pane) Render() string {
	var lines []string
	if p.title != "" {
		title := lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true).
			Render(p.title)
		lines = append(lines, title)
	}
	if p.content != "" {
		lines = append(lines, strings.Split(p.content, "\n")...)
	}
	if len(lines) > p.height {
		lines = lines[:max(p.height, 0)]
	}

	content := lipgloss.NewStyle().
		MaxWidth(p.width).
		Render(strings.Join(lines, "\n"))

	border := paneBorderColor
	if p.focused {
		border = paneFocusedColor
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(p.width).
		Height(p.height).
		Render(content)
}
