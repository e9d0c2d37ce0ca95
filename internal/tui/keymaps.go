package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the dashboard key bindings
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	NextTab key.Binding
	PrevTab key.Binding
	Sync    key.Binding
	Wizard  key.Binding
	Push    key.Binding
	Stage   key.Binding
	Delete  key.Binding
	Follow  key.Binding
	Unlink  key.Binding
	Revert  key.Binding
	About   key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the standard bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous tab"),
		),
		Sync: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "sync"),
		),
		Wizard: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "wizard"),
		),
		Push: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "push staged"),
		),
		Stage: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "stage"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Follow: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "follow sprint"),
		),
		Unlink: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "unlink"),
		),
		Revert: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "revert push"),
		),
		About: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "about"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
