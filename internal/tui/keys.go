package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the dashboard's keyboard bindings.
type keyMap struct {
	Toggle     key.Binding
	Save       key.Binding
	RowUp      key.Binding
	RowDown    key.Binding
	StitchUp   key.Binding
	StitchDown key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Toggle: key.NewBinding(
			key.WithKeys(" ", "s"),
			key.WithHelp("space/s", "Start / pause & save"),
		),
		Save: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "Save now"),
		),
		RowUp: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Row +1"),
		),
		RowDown: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "Row -1"),
		),
		StitchUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "Stitch +1"),
		),
		StitchDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "Stitch -1"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "Quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Save, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Save},
		{k.RowUp, k.RowDown, k.StitchUp, k.StitchDown},
		{k.Help, k.Quit},
	}
}
