package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up            key.Binding
	Down          key.Binding
	Activate      key.Binding
	PickDropInto  key.Binding
	DropBefore    key.Binding
	DropAfter     key.Binding
	Cancel        key.Binding
	NewTab        key.Binding
	NewChild      key.Binding
	Close         key.Binding
	Pin           key.Binding
	Favorite      key.Binding
	Move          key.Binding
	NextContainer key.Binding
	Filter        key.Binding
	Quit          key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:            key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
		Down:          key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
		Activate:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "activate")),
		PickDropInto:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "drag/drop into")),
		DropBefore:    key.NewBinding(key.WithKeys("["), key.WithHelp("[", "drop before")),
		DropAfter:     key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "drop after")),
		Cancel:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		NewTab:        key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new tab")),
		NewChild:      key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "new child")),
		Close:         key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "close")),
		Pin:           key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pin")),
		Favorite:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "favorite")),
		Move:          key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "move")),
		NextContainer: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next space")),
		Filter:        key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) help() []key.Binding {
	return []key.Binding{k.Activate, k.PickDropInto, k.DropBefore, k.DropAfter, k.NewTab, k.Close, k.Pin, k.Favorite, k.Move, k.NextContainer, k.Filter, k.Quit}
}
