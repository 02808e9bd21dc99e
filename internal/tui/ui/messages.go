package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/bikereg/internal/ports"
)

// VerifiedMsg carries the settled result of a serial number verification.
type VerifiedMsg struct {
	Details ports.BikeDetails
	Err     error
}

// SubmittedMsg carries the settled result of a registration submission.
type SubmittedMsg struct {
	Receipt ports.RegistrationReceipt
	Err     error
}

// ConfirmedMsg indicates a confirmation dialog was answered.
type ConfirmedMsg struct {
	Confirmed bool
}

// NewVerifiedMsg creates a verification result message.
func NewVerifiedMsg(details ports.BikeDetails, err error) tea.Msg {
	return VerifiedMsg{Details: details, Err: err}
}

// NewSubmittedMsg creates a submission result message.
func NewSubmittedMsg(receipt ports.RegistrationReceipt, err error) tea.Msg {
	return SubmittedMsg{Receipt: receipt, Err: err}
}

// NewConfirmedMsg creates a new confirmation message.
func NewConfirmedMsg(confirmed bool) tea.Msg {
	return ConfirmedMsg{Confirmed: confirmed}
}
