package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	enter    key.Binding
	back     key.Binding
	filter   key.Binding
	sort     key.Binding
	rate     key.Binding
	add      key.Binding
	remove   key.Binding
	start    key.Binding
	resume   key.Binding
	next     key.Binding
	previous key.Binding
	ended    key.Binding
	stop     key.Binding
	yes      key.Binding
	no       key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		filter:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		sort:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		rate:     key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9", "0"), key.WithHelp("1-0", "rate")),
		add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		remove:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		start:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "play all")),
		resume:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "resume")),
		next:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		previous: key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "previous")),
		ended:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "finished")),
		stop:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop")),
		yes:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:       key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.enter, k.back, k.filter, k.sort},
		{k.rate, k.add, k.remove},
		{k.start, k.resume, k.next, k.previous, k.ended, k.stop},
		{k.quit},
	}
}
