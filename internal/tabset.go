package pmugraph

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TabSet holds the charts of one event type and shows the active one under
// a one line tab bar
type TabSet struct {
	charts []*ChartView
	active int
	width  int
	height int
}

func NewTabSet() *TabSet {
	return &TabSet{width: 40, height: 10}
}

// AddChart appends a tab
func (ts *TabSet) AddChart(chart *ChartView) *TabSet {
	ts.charts = append(ts.charts, chart)
	return ts
}

// SetSize sets the area the tab bar and chart are drawn into
func (ts *TabSet) SetSize(width, height int) *TabSet {
	ts.width, ts.height = width, height
	return ts
}

// SelectTab activates tab i, ignoring out of range indexes
func (ts *TabSet) SelectTab(i int) *TabSet {
	if i >= 0 && i < len(ts.charts) {
		ts.active = i
	}
	return ts
}

func (ts *TabSet) NextTab() *TabSet {
	return ts.move(1)
}

func (ts *TabSet) PrevTab() *TabSet {
	return ts.move(-1)
}

func (ts *TabSet) move(step int) *TabSet {
	if n := len(ts.charts); n > 0 {
		ts.active = (ts.active + step + n) % n
	}
	return ts
}

func (ts *TabSet) GetSelectedTab() int {
	return ts.active
}

// Selected returns the chart of the active tab, nil when empty
func (ts *TabSet) Selected() *ChartView {
	if len(ts.charts) == 0 {
		return nil
	}
	return ts.charts[ts.active]
}

func (ts *TabSet) Render() string {
	chart := ts.Selected()
	if chart == nil {
		return "No charts available"
	}
	if len(ts.charts) == 1 {
		return chart.Render(ts.width, ts.height)
	}
	return ts.tabBar() + "\n" + chart.Render(ts.width, ts.height-1)
}

func tabLabel(chart *ChartView) string {
	if chart.Bounded() {
		return "Window"
	}
	return "History"
}

func (ts *TabSet) tabBar() string {
	active := lipgloss.NewStyle().
		Foreground(lipgloss.Color("170")).
		Background(lipgloss.Color("235")).
		Bold(true).
		Padding(0, 1)
	inactive := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Padding(0, 1)

	labels := make([]string, len(ts.charts))
	for i, chart := range ts.charts {
		style := inactive
		if i == ts.active {
			style = active
		}
		labels[i] = style.Render(tabLabel(chart))
	}
	return strings.Join(labels, " ")
}
