package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	back    key.Binding
	create  key.Binding
	edit    key.Binding
	remove  key.Binding
	archive key.Binding
	toggle  key.Binding
	refresh key.Binding
	open    key.Binding
	logout  key.Binding
	next    key.Binding
	save    key.Binding
	yes     key.Binding
	no      key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "log in")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		create:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		edit:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		remove:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		archive: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "archive")),
		toggle:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "recent/all")),
		refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		open:    key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open")),
		logout:  key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log out")),
		next:    key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "next field")),
		save:    key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		yes:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:      key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.create, k.edit, k.remove, k.archive, k.toggle, k.refresh, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.toggle},
		{k.create, k.edit, k.remove, k.archive},
		{k.refresh, k.open, k.logout, k.quit},
	}
}
