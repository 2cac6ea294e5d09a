package pmugraph

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Toggle   key.Binding
	Color    key.Binding
	NextPane key.Binding
	PrevPane key.Binding
	NextTab  key.Binding
	PrevTab  key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("↓/j", "down"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" ", "enter"),
		key.WithHelp("space", "plot on/off"),
	),
	Color: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "next colour"),
	),
	NextPane: key.NewBinding(
		key.WithKeys("tab", "l", "right"),
		key.WithHelp("tab", "next chart"),
	),
	PrevPane: key.NewBinding(
		key.WithKeys("shift+tab", "h", "left"),
		key.WithHelp("shift+tab", "previous chart"),
	),
	NextTab: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("[/]", "window/history"),
	),
	PrevTab: key.NewBinding(
		key.WithKeys("["),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Color, k.NextPane, k.NextTab, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.Color},
		{k.NextPane, k.PrevPane, k.NextTab, k.Quit},
	}
}
