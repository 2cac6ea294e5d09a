package pmugraph

import (
	"context"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDashboard(t *testing.T) (dashboardModel, *Store) {
	t.Helper()
	load := newRangedEventType("load", "%", 0, 100)
	store := newTestStore(t, 10,
		newFakeEvent("cpu-cycles", testType),
		newFakeEvent("instructions", testType),
		newFakeEvent("cpu-load", load, 10, 20, 30),
	)
	return *NewDashboard(store, 100*time.Millisecond), store
}

func update(t *testing.T, m dashboardModel, msg tea.Msg) (dashboardModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	dm, ok := next.(dashboardModel)
	require.True(t, ok)
	return dm, cmd
}

func TestDashboardBuildsTabSetPerEventType(t *testing.T) {
	m, _ := newTestDashboard(t)
	require.Len(t, m.panes, 2)
	assert.Len(t, m.charts, 4)
	assert.Equal(t, "hardware", m.panes[0].Selected().EventType().Name())
	assert.True(t, m.panes[0].Selected().Bounded())
	assert.Equal(t, "load", m.panes[1].Selected().EventType().Name())
}

func TestDashboardTickUpdatesCharts(t *testing.T) {
	m, store := newTestDashboard(t)

	var cmd tea.Cmd
	for i := 0; i < 3; i++ {
		m, cmd = update(t, m, tickMsg(time.Now()))
		assert.NotNil(t, cmd)
	}

	for _, r := range store.Readings() {
		assert.Equal(t, 3, r.Samples, r.Event.Name())
	}
	curve, ok := m.charts[2].Curve("cpu-load")
	require.True(t, ok)
	assert.Equal(t, []float64{10, 20, 30}, curve.Ys)
}

func TestDashboardToggleHidesCurve(t *testing.T) {
	m, _ := newTestDashboard(t)
	m, _ = update(t, m, tickMsg(time.Now()))
	m, _ = update(t, m, tickMsg(time.Now()))

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	s, _ := m.settings.Get("cpu-cycles")
	assert.False(t, s.Plot)
	for _, chart := range m.charts[:2] {
		curve, _ := chart.Curve("cpu-cycles")
		assert.False(t, curve.Visible)
		assert.Len(t, curve.Ys, 2)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	s, _ = m.settings.Get("instructions")
	assert.Equal(t, Palette[2], s.Color)
	curve, _ := m.charts[0].Curve("instructions")
	assert.Equal(t, Palette[2], curve.Color)
}

func TestDashboardPaneAndTabNavigation(t *testing.T) {
	m, _ := newTestDashboard(t)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 1, m.selectedPane)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 0, m.selectedPane)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, 1, m.selectedPane)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{']'}})
	assert.False(t, m.panes[1].Selected().Bounded())
	assert.True(t, m.panes[0].Selected().Bounded())
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'['}})
	assert.True(t, m.panes[1].Selected().Bounded())
}

func TestDashboardQuit(t *testing.T) {
	m, _ := newTestDashboard(t)
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestDashboardView(t *testing.T) {
	m, _ := newTestDashboard(t)
	assert.Equal(t, "Initializing...", m.View())

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 160, Height: 48})
	m, _ = update(t, m, tickMsg(time.Now()))
	m, _ = update(t, m, tickMsg(time.Now()))

	view := m.View()
	assert.Contains(t, view, "Events")
	assert.Contains(t, view, "Values")
	assert.Contains(t, view, "cpu-cycles")
	assert.Contains(t, view, "instructions")
	assert.Contains(t, view, "cpu-load")
	assert.Contains(t, view, "quit")
}

func TestDashboardCancelledContextClosesStoreOnce(t *testing.T) {
	cycles := newFakeEvent("cpu-cycles", testType)
	load := newFakeEvent("cpu-load", newRangedEventType("load", "%", 0, 100))
	store := newTestStore(t, 10, cycles, load)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Dashboard(ctx, store, time.Hour, tea.WithInput(nil), tea.WithOutput(io.Discard))
	require.NoError(t, err)
	assert.Equal(t, 1, cycles.disabled)
	assert.Equal(t, 1, load.disabled)

	// the deferred Close in main must not disable anything twice
	require.NoError(t, store.Close())
	assert.Equal(t, 1, cycles.disabled)
	assert.Equal(t, 1, load.disabled)
	assert.Empty(t, store.Tick())
}
