package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap contains the key bindings of the registration wizard.
type KeyMap struct {
	// Field focus
	NextField key.Binding
	PrevField key.Binding

	// Choice fields
	NextOption key.Binding
	PrevOption key.Binding

	// Flag fields
	Toggle key.Binding

	// Step actions
	Forward key.Binding
	Back    key.Binding

	// Dialog answers
	Accept key.Binding
	Reject key.Binding
	Left   key.Binding
	Right  key.Binding

	Quit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab/↓", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab/↑", "previous field"),
		),
		NextOption: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "next option"),
		),
		PrevOption: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "previous option"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle"),
		),
		Forward: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "continue"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Accept: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "yes"),
		),
		Reject: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "no"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "right"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// HelpLine renders the short help of the given bindings on one line.
func (s Styles) HelpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if !b.Enabled() {
			continue
		}
		h := b.Help()
		parts = append(parts, s.HelpKey.Render(h.Key)+" "+s.Help.Render(h.Desc))
	}
	return strings.Join(parts, s.Help.Render(" • "))
}

// IsForward returns true if the key message matches the forward action.
func (k KeyMap) IsForward(msg tea.KeyMsg) bool {
	return key.Matches(msg, k.Forward)
}

// IsBack returns true if the key message matches the back action.
func (k KeyMap) IsBack(msg tea.KeyMsg) bool {
	return key.Matches(msg, k.Back)
}
