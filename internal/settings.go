package pmugraph

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is a "#RRGGBB" line colour
type Color string

// Palette seeds event colours round-robin
var Palette = []Color{
	"#0088FF", "#FF5500", "#449900", "#AA00AA",
	"#4444FF", "#994400", "#99AA00", "#990000",
}

var cubeLevels = [6]int{0, 95, 135, 175, 215, 255}

// ANSI256 returns the closest colour of the xterm 6x6x6 cube, or -1 when the
// colour can't be parsed
func (c Color) ANSI256() int {
	parsed, err := colorful.Hex(string(c))
	if err != nil {
		return -1
	}
	r, g, b := parsed.RGB255()
	return 16 + 36*nearestCubeLevel(r) + 6*nearestCubeLevel(g) + nearestCubeLevel(b)
}

func nearestCubeLevel(v uint8) int {
	best, bestDist := 0, 256
	for i, level := range cubeLevels {
		d := int(v) - level
		if d < 0 {
			d = -d
		}
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// EventSettings are the display options of one event
type EventSettings struct {
	Type  string
	Name  string
	Plot  bool
	Color Color
}

// SettingsGroup holds the events of one event type
type SettingsGroup struct {
	Name   string
	Events []*EventSettings
}

// SettingsTree holds per-event display options grouped by event type. Any
// change notifies every observer; observers re-read what they need.
type SettingsTree struct {
	groups    []*SettingsGroup
	leaves    []*EventSettings
	byName    map[string]*EventSettings
	cursor    int
	observers []func()
}

// NewSettingsTree creates one group per event type, in order of first
// appearance, with every event plotted and coloured from the palette
func NewSettingsTree(events []Event) *SettingsTree {
	t := &SettingsTree{byName: make(map[string]*EventSettings)}
	groupByName := make(map[string]*SettingsGroup)
	for _, e := range events {
		typeName := e.EventType().Name()
		g, ok := groupByName[typeName]
		if !ok {
			g = &SettingsGroup{Name: typeName}
			groupByName[typeName] = g
			t.groups = append(t.groups, g)
		}
		g.Events = append(g.Events, &EventSettings{
			Type: typeName,
			Name: e.Name(),
			Plot: true,
		})
	}
	// leaves follow the displayed order, colours are handed out the same way
	for _, g := range t.groups {
		for _, leaf := range g.Events {
			leaf.Color = Palette[len(t.leaves)%len(Palette)]
			t.leaves = append(t.leaves, leaf)
			t.byName[leaf.Name] = leaf
		}
	}
	return t
}

// OnChange registers fn to be called after every change
func (t *SettingsTree) OnChange(fn func()) {
	t.observers = append(t.observers, fn)
}

func (t *SettingsTree) changed() {
	for _, fn := range t.observers {
		fn()
	}
}

// Groups returns a copy of the tree
func (t *SettingsTree) Groups() []SettingsGroup {
	groups := make([]SettingsGroup, len(t.groups))
	for i, g := range t.groups {
		events := make([]*EventSettings, len(g.Events))
		for j, leaf := range g.Events {
			c := *leaf
			events[j] = &c
		}
		groups[i] = SettingsGroup{Name: g.Name, Events: events}
	}
	return groups
}

// Get returns a copy of the settings of the named event
func (t *SettingsTree) Get(name string) (EventSettings, bool) {
	leaf, ok := t.byName[name]
	if !ok {
		return EventSettings{}, false
	}
	return *leaf, true
}

func (t *SettingsTree) SetPlot(name string, plot bool) bool {
	leaf, ok := t.byName[name]
	if !ok {
		return false
	}
	leaf.Plot = plot
	t.changed()
	return true
}

func (t *SettingsTree) SetColor(name string, color Color) bool {
	leaf, ok := t.byName[name]
	if !ok {
		return false
	}
	leaf.Color = color
	t.changed()
	return true
}

// Selected returns the event under the cursor
func (t *SettingsTree) Selected() (EventSettings, bool) {
	if len(t.leaves) == 0 {
		return EventSettings{}, false
	}
	return *t.leaves[t.cursor], true
}

func (t *SettingsTree) Next() {
	if t.cursor < len(t.leaves)-1 {
		t.cursor++
	}
}

func (t *SettingsTree) Prev() {
	if t.cursor > 0 {
		t.cursor--
	}
}

// Toggle flips the plot option of the event under the cursor
func (t *SettingsTree) Toggle() {
	if leaf, ok := t.Selected(); ok {
		t.SetPlot(leaf.Name, !leaf.Plot)
	}
}

// CycleColor moves the event under the cursor to the next palette colour
func (t *SettingsTree) CycleColor() {
	leaf, ok := t.Selected()
	if !ok {
		return
	}
	next := Palette[0]
	for i, c := range Palette {
		if strings.EqualFold(string(c), string(leaf.Color)) {
			next = Palette[(i+1)%len(Palette)]
			break
		}
	}
	t.SetColor(leaf.Name, next)
}

// Render draws the tree, highlighting the cursor when focused
func (t *SettingsTree) Render(focused bool) string {
	groupStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")).
		Bold(true)

	selectedStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("170")).
		Bold(true)

	hiddenStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240"))

	var trees []string
	for _, g := range t.groups {
		root := tree.New().Root(groupStyle.Render(g.Name))
		for _, leaf := range g.Events {
			check := "[x]"
			nameStyle := lipgloss.NewStyle()
			if !leaf.Plot {
				check = "[ ]"
				nameStyle = hiddenStyle
			}
			swatch := lipgloss.NewStyle().
				Foreground(lipgloss.Color(string(leaf.Color))).
				Render("■")

			label := check + " " + swatch + " " + leaf.Name
			if focused && t.leaves[t.cursor] == leaf {
				label = selectedStyle.Render("▶ " + check + " ") + swatch + selectedStyle.Render(" "+leaf.Name)
			} else {
				label = nameStyle.Render(label)
			}
			root = root.Child(label)
		}
		trees = append(trees, root.String())
	}
	return strings.Join(trees, "\n")
}

// Width returns the width of the widest rendered line
func (t *SettingsTree) Width() int {
	return lipgloss.Width(t.Render(true))
}
