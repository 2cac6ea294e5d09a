package pmugraph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type dashboardModel struct {
	store        *Store
	settings     *SettingsTree
	panes        []*TabSet // one per event type, window and history tabs
	charts       []*ChartView
	help         help.Model
	interval     time.Duration
	selectedPane int
	width        int
	height       int
	ready        bool
}

type tickMsg time.Time

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// NewDashboard builds the settings tree and one tab set of charts per event
// type for the events of store
func NewDashboard(store *Store, interval time.Duration) *dashboardModel {
	events := store.Events()
	m := &dashboardModel{
		store:    store,
		settings: NewSettingsTree(events),
		help:     help.New(),
		interval: interval,
	}

	types := make(map[string]EventType)
	for _, e := range events {
		if _, ok := types[e.EventType().Name()]; !ok {
			types[e.EventType().Name()] = e.EventType()
		}
	}

	for _, g := range m.settings.Groups() {
		window := NewChartView(types[g.Name], true)
		history := NewChartView(types[g.Name], false)
		for _, leaf := range g.Events {
			window.AddCurve(leaf.Name, *leaf)
			history.AddCurve(leaf.Name, *leaf)
		}
		m.charts = append(m.charts, window, history)
		m.panes = append(m.panes, NewTabSet().AddChart(window).AddChart(history))
	}

	charts := m.charts
	settings := m.settings
	m.settings.OnChange(func() {
		for _, chart := range charts {
			chart.ApplySettings(settings)
		}
	})

	return m
}

func (m dashboardModel) Init() tea.Cmd {
	return tickCmd(m.interval)
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			m.settings.Prev()
		case key.Matches(msg, keys.Down):
			m.settings.Next()
		case key.Matches(msg, keys.Toggle):
			m.settings.Toggle()
		case key.Matches(msg, keys.Color):
			m.settings.CycleColor()
		case key.Matches(msg, keys.NextPane):
			if len(m.panes) > 0 {
				m.selectedPane = (m.selectedPane + 1) % len(m.panes)
			}
		case key.Matches(msg, keys.PrevPane):
			if len(m.panes) > 0 {
				m.selectedPane = (m.selectedPane - 1 + len(m.panes)) % len(m.panes)
			}
		case key.Matches(msg, keys.NextTab):
			if m.selectedPane < len(m.panes) {
				m.panes[m.selectedPane].NextTab()
			}
		case key.Matches(msg, keys.PrevTab):
			if m.selectedPane < len(m.panes) {
				m.panes[m.selectedPane].PrevTab()
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true

	case tickMsg:
		m.store.Tick()
		for _, chart := range m.charts {
			chart.Update(m.store)
		}
		return m, tickCmd(m.interval)
	}

	return m, nil
}

// leftWidth is the content width of the settings and values column
func (m dashboardModel) leftWidth() int {
	w := max(m.settings.Width()+2, 36)
	return min(w, max(m.width/3, 20))
}

func (m dashboardModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	readings := m.store.Readings()

	helpBar := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Width(m.width).
		Render(m.help.View(keys))
	errorsView := renderErrors(readings, m.width)

	availableHeight := m.height - lipgloss.Height(helpBar)
	if errorsView != "" {
		availableHeight -= lipgloss.Height(errorsView)
	}

	// Left column: settings tree above the values table
	leftWidth := m.leftWidth()
	treeHeight := max(availableHeight/2-2, 3)
	valuesHeight := max(availableHeight-treeHeight-4, 3)
	treePane := NewPane("Events", leftWidth, treeHeight).
		SetContent(m.settings.Render(true)).
		SetFocused(true)
	valuesPane := NewPane("Values", leftWidth, valuesHeight).
		SetContent(renderValues(readings, m.settings, valuesHeight-1))
	left := Vertical(treePane, valuesPane)

	// Right side: one pane per event type
	columns := gridColumns(len(m.panes))
	rows := (len(m.panes) + columns - 1) / max(columns, 1)
	rightWidth := m.width - leftWidth - 2
	paneWidth := max(rightWidth/columns-2, 10)
	paneHeight := max(availableHeight/max(rows, 1)-2, 4)

	var renderedPanes []Pane
	for i, tabSet := range m.panes {
		pane := NewPane(tabSet.Selected().Title(), paneWidth, paneHeight)
		tabSet.SetSize(paneWidth, pane.ContentHeight())
		pane = pane.SetContent(tabSet.Render())
		if i == m.selectedPane {
			pane = pane.SetFocused(true)
		}
		renderedPanes = append(renderedPanes, pane)
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, Wrap(columns, renderedPanes...))
	if errorsView != "" {
		return lipgloss.JoinVertical(lipgloss.Left, body, errorsView, helpBar)
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, helpBar)
}

// Dashboard runs the terminal UI until the user quits or ctx is done. The
// store is closed on return, whatever the outcome. opts are applied after
// the defaults.
func Dashboard(ctx context.Context, store *Store, interval time.Duration, opts ...tea.ProgramOption) (err error) {
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	m := NewDashboard(store, interval)
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(m, opts...)

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("error running bubbletea program: %w", err)
	}
	return nil
}
