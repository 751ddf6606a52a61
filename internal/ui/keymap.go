package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit        key.Binding
	Tab         key.Binding
	Up          key.Binding
	Down        key.Binding
	Select      key.Binding
	Refresh     key.Binding
	MarkAllRead key.Binding
	Toggle      key.Binding
	Next        key.Binding
	Previous    key.Binding
	SeekBack    key.Binding
	SeekForward key.Binding
	VolumeUp    key.Binding
	VolumeDown  key.Binding
	Repeat      key.Binding
	Shuffle     key.Binding
	Expand      key.Binding
}

var keys = keyMap{
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c")),
	Tab:         key.NewBinding(key.WithKeys("tab")),
	Up:          key.NewBinding(key.WithKeys("k", "up")),
	Down:        key.NewBinding(key.WithKeys("j", "down")),
	Select:      key.NewBinding(key.WithKeys("enter")),
	Refresh:     key.NewBinding(key.WithKeys("r")),
	MarkAllRead: key.NewBinding(key.WithKeys("A")),
	Toggle:      key.NewBinding(key.WithKeys(" ")),
	Next:        key.NewBinding(key.WithKeys("pgdown", "n")),
	Previous:    key.NewBinding(key.WithKeys("pgup", "b")),
	SeekBack:    key.NewBinding(key.WithKeys("shift+left")),
	SeekForward: key.NewBinding(key.WithKeys("shift+right")),
	VolumeUp:    key.NewBinding(key.WithKeys("+", "=")),
	VolumeDown:  key.NewBinding(key.WithKeys("-")),
	Repeat:      key.NewBinding(key.WithKeys("R")),
	Shuffle:     key.NewBinding(key.WithKeys("S")),
	Expand:      key.NewBinding(key.WithKeys("v")),
}
