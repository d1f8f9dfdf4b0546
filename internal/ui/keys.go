package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	SearchTab       key.Binding
	ApplicationsTab key.Binding
	Quit            key.Binding
	Back            key.Binding
	NextField       key.Binding
	PrevField       key.Binding
	Submit          key.Binding
	NextPage        key.Binding
	PrevPage        key.Binding
	Apply           key.Binding
	Delete          key.Binding
	CycleFilter     key.Binding
	Refresh         key.Binding
}

var keys = keyMap{
	SearchTab: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1", "search"),
	),
	ApplicationsTab: key.NewBinding(
		key.WithKeys("2"),
		key.WithHelp("2", "applications"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	NextField: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next field"),
	),
	PrevField: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "prev field"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "search"),
	),
	NextPage: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "next page"),
	),
	PrevPage: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "prev page"),
	),
	Apply: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "track application"),
	),
	Delete: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "remove"),
	),
	CycleFilter: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "filter status"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
}
