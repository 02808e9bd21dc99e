// Package tui provides the terminal registration wizard.
package tui

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/bikereg/internal/domain/workflow"
	"github.com/felixgeelhaar/bikereg/internal/ports"
)

// WizardOptions configures the registration wizard.
type WizardOptions struct {
	// Serial prefills the serial number field.
	Serial string
	// Input and Output override the terminal streams, mainly for tests.
	Input  io.Reader
	Output io.Writer
}

// NewWizardOptions creates default wizard options.
func NewWizardOptions() WizardOptions {
	return WizardOptions{}
}

// WithSerial prefills the serial number.
func (o WizardOptions) WithSerial(serial string) WizardOptions {
	o.Serial = serial
	return o
}

// WithIO sets the input and output streams.
func (o WizardOptions) WithIO(in io.Reader, out io.Writer) WizardOptions {
	o.Input = in
	o.Output = out
	return o
}

// WizardResult holds the outcome of the registration wizard.
type WizardResult struct {
	SessionID    string
	Confirmation *workflow.Confirmation
	Cancelled    bool
}

// Submitted reports whether the wizard reached the confirmation step.
func (r *WizardResult) Submitted() bool {
	return r.Confirmation != nil
}

// RunRegistrationWizard runs the interactive wizard over session. Backend
// calls go through backend, which should be the session's own backend.
func RunRegistrationWizard(ctx context.Context, session *workflow.Orchestrator, backend ports.BikeRegistryPort, opts WizardOptions) (*WizardResult, error) {
	model := newRegistrationWizardModel(ctx, session, backend, opts)

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.Input != nil {
		programOpts = append(programOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		programOpts = append(programOpts, tea.WithOutput(opts.Output))
	}

	p := tea.NewProgram(model, programOpts...)
	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("registration wizard failed: %w", err)
	}

	m, ok := finalModel.(registrationWizardModel)
	if !ok {
		return nil, fmt.Errorf("unexpected model type")
	}

	return m.result(), nil
}

func (m registrationWizardModel) result() *WizardResult {
	res := &WizardResult{
		SessionID: m.session.SessionID(),
		Cancelled: m.cancelled,
	}
	if m.snap.Confirmation != nil {
		c := *m.snap.Confirmation
		res.Confirmation = &c
	}
	return res
}
