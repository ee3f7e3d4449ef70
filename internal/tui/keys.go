package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Record key.Binding
	Prompt key.Binding
	Style  key.Binding
	Reset  key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Record: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "record")),
		Prompt: key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new text")),
		Style:  key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "pixels")),
		Reset:  key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "reset")),
		Quit:   key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Record, k.Prompt, k.Style, k.Reset, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
