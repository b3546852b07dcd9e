package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	enter   key.Binding
	back    key.Binding
	toggle  key.Binding
	stop    key.Binding
	skip    key.Binding
	shuffle key.Binding
	random  key.Binding
	imports key.Binding
	cancel  key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		toggle:  key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "play/pause")),
		stop:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		skip:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "skip")),
		shuffle: key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "shuffle")),
		random:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "random")),
		imports: key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "import")),
		cancel:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop polling")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggle, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.enter, k.back},
		{k.toggle, k.stop, k.skip, k.shuffle, k.random},
		{k.imports, k.cancel, k.quit},
	}
}
