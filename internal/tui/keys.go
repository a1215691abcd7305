package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stemsi/exstem-learn/internal/exam"
)

// keyMap holds the terminal bindings. Question navigation and answering are
// dispatched through the session's exam.KeyMap; the bindings here only
// cover the dialog itself and the help line.
type keyMap struct {
	Previous key.Binding
	Next     key.Binding
	Answer   key.Binding
	FocusFwd key.Binding
	FocusBck key.Binding
	Activate key.Binding
	Submit   key.Binding
	Quit     key.Binding
	Reload   key.Binding
	Yes      key.Binding
	No       key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Previous: key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "previous")),
		Next:     key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "next")),
		Answer:   key.NewBinding(key.WithKeys("1", "2", "3", "4"), key.WithHelp("1-4", "answer A-D")),
		FocusFwd: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "focus")),
		FocusBck: key.NewBinding(key.WithKeys("shift+tab")),
		Activate: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "press")),
		Submit:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "submit")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Yes:      key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "yes")),
		No:       key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n", "no")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Previous, k.Next, k.Answer, k.Submit, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Previous, k.Next, k.Answer},
		{k.FocusFwd, k.Activate, k.Submit, k.Quit},
	}
}

// examKey normalizes a key press for the session key map.
func examKey(msg tea.KeyMsg) exam.Key {
	return exam.Key(msg.String())
}
