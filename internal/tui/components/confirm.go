// Package components holds reusable Bubble Tea widgets of the registration wizard.
package components

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/bikereg/internal/tui/ui"
)

// Confirm is a yes/no confirmation dialog. Answers are delivered as
// ui.ConfirmedMsg.
type Confirm struct {
	message  string
	yesLabel string
	noLabel  string
	focused  bool // true = yes, false = no
	width    int
	keys     ui.KeyMap
	styles   ui.Styles
}

// NewConfirm creates a new confirmation dialog with "yes" focused.
func NewConfirm(message string) Confirm {
	return Confirm{
		message:  message,
		yesLabel: "Yes",
		noLabel:  "No",
		focused:  true,
		width:    ui.DefaultDialogWidth,
		keys:     ui.DefaultKeyMap(),
		styles:   ui.DefaultStyles(),
	}
}

// Message returns the confirmation message.
func (c Confirm) Message() string {
	return c.message
}

// Focused returns true if yes is focused, false if no is focused.
func (c Confirm) Focused() bool {
	return c.focused
}

// WithMessage sets the message.
func (c Confirm) WithMessage(message string) Confirm {
	c.message = message
	return c
}

// WithYesLabel sets the yes button label.
func (c Confirm) WithYesLabel(label string) Confirm {
	c.yesLabel = label
	return c
}

// WithNoLabel sets the no button label.
func (c Confirm) WithNoLabel(label string) Confirm {
	c.noLabel = label
	return c
}

// WithWidth sets the dialog width.
func (c Confirm) WithWidth(width int) Confirm {
	c.width = width
	return c
}

// Reset focuses "yes" again.
func (c Confirm) Reset() Confirm {
	c.focused = true
	return c
}

// Update handles key input.
func (c Confirm) Update(msg tea.Msg) (Confirm, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil
	}

	switch {
	case key.Matches(keyMsg, c.keys.Left):
		c.focused = true
	case key.Matches(keyMsg, c.keys.Right):
		c.focused = false
	case key.Matches(keyMsg, c.keys.Forward):
		return c, answer(c.focused)
	case key.Matches(keyMsg, c.keys.Accept):
		return c, answer(true)
	case key.Matches(keyMsg, c.keys.Reject), key.Matches(keyMsg, c.keys.Back):
		return c, answer(false)
	}
	return c, nil
}

func answer(confirmed bool) tea.Cmd {
	return func() tea.Msg {
		return ui.NewConfirmedMsg(confirmed)
	}
}

// View renders the confirmation dialog.
func (c Confirm) View() string {
	yesStyle := c.styles.Button
	noStyle := c.styles.Button
	if c.focused {
		yesStyle = c.styles.ButtonActive
	} else {
		noStyle = c.styles.ButtonActive
	}

	message := c.styles.Paragraph.Width(c.width).Render(c.message)
	buttons := lipgloss.JoinHorizontal(lipgloss.Center, yesStyle.Render(c.yesLabel), "  ", noStyle.Render(c.noLabel))
	buttonRow := lipgloss.NewStyle().Width(c.width).Align(lipgloss.Center).Render(buttons)

	return lipgloss.JoinVertical(lipgloss.Left, message, "", buttonRow)
}
