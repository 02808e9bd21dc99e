package tui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/bikereg/internal/domain/registration"
	"github.com/felixgeelhaar/bikereg/internal/domain/workflow"
	"github.com/felixgeelhaar/bikereg/internal/ports"
	"github.com/felixgeelhaar/bikereg/internal/tui/components"
	"github.com/felixgeelhaar/bikereg/internal/tui/ui"
)

const (
	noticeFixFields = "Please fix the highlighted fields."
	hintDateFormat  = "Use the format " + registration.DateLayout
)

// wizardField is the editing state of one field of the active step.
type wizardField struct {
	view   workflow.FieldView
	input  textinput.Model // text and date fields
	option int             // selected option of a choice field, -1 when unset
	hint   string          // local input problem not yet known to the workflow
}

func (f wizardField) editable() bool {
	return !f.view.ReadOnly
}

func (f wizardField) usesInput() bool {
	return f.view.Kind == registration.KindText || f.view.Kind == registration.KindDate
}

// registrationWizardModel drives a workflow session through the terminal.
// All session mutations happen in Update; backend calls run in commands and
// their results are applied when the messages arrive.
type registrationWizardModel struct {
	ctx     context.Context
	session *workflow.Orchestrator
	backend ports.BikeRegistryPort

	snap      workflow.Snapshot
	fields    []wizardField
	focus     int
	indicator components.StepIndicator
	confirm   components.Confirm
	spinner   spinner.Model

	confirming bool
	notice     string
	cancelled  bool
	finished   bool

	styles ui.Styles
	keys   ui.KeyMap
	width  int
	height int
}

func newRegistrationWizardModel(ctx context.Context, session *workflow.Orchestrator, backend ports.BikeRegistryPort, opts WizardOptions) registrationWizardModel {
	styles := ui.DefaultStyles()

	spin := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(styles.Spinner),
	)

	if opts.Serial != "" {
		// An invalid prefill is left for the user to correct.
		_ = session.UpdateField(registration.FieldSerialNumber, opts.Serial)
	}

	snap := session.Snapshot()
	m := registrationWizardModel{
		ctx:       ctx,
		session:   session,
		backend:   backend,
		snap:      snap,
		indicator: components.NewStepIndicator(snap.Steps),
		confirm: components.NewConfirm("Submit this registration?").
			WithYesLabel("Submit").
			WithNoLabel("Review"),
		spinner: spin,
		styles:  styles,
		keys:    ui.DefaultKeyMap(),
		width:   ui.DefaultWidth,
		height:  ui.DefaultHeight,
	}
	m.rebuildFields()
	return m
}

func (m registrationWizardModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m registrationWizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.styles = m.styles.WithWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case ui.VerifiedMsg:
		m.session.CompleteVerification(msg.Details, msg.Err)
		m.refresh()
		return m, m.focusCmd()

	case ui.SubmittedMsg:
		m.session.CompleteSubmission(msg.Receipt, msg.Err)
		m.refresh()
		return m, nil

	case ui.ConfirmedMsg:
		m.confirming = false
		if !msg.Confirmed {
			return m, nil
		}
		return m.startSubmission()

	case spinner.TickMsg:
		if !m.snap.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// Cursor blink and other input housekeeping.
	if f, ok := m.focused(); ok && f.usesInput() {
		var cmd tea.Cmd
		m.fields[m.focus].input, cmd = f.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m registrationWizardModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.cancelled = true
		return m, tea.Quit
	}
	if m.confirming {
		var cmd tea.Cmd
		m.confirm, cmd = m.confirm.Update(msg)
		return m, cmd
	}
	if m.snap.Busy() {
		return m, nil
	}
	if m.snap.Step.Terminal {
		if m.keys.IsForward(msg) || m.keys.IsBack(msg) {
			m.finished = true
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case m.keys.IsForward(msg):
		return m.forward()
	case m.keys.IsBack(msg):
		return m.back()
	case key.Matches(msg, m.keys.NextField):
		return m, m.moveFocus(1)
	case key.Matches(msg, m.keys.PrevField):
		return m, m.moveFocus(-1)
	}

	return m.editFocused(msg)
}

// forward performs the step's forward action: verification on the serial
// step, submission on the submitting step, validation and advance elsewhere.
func (m registrationWizardModel) forward() (tea.Model, tea.Cmd) {
	m.notice = ""
	step := m.snap.Step

	switch {
	case step.RequiresVerification:
		if m.snap.CanAdvance {
			m.session.Next()
			m.refresh()
			return m, m.focusCmd()
		}
		return m.startVerification()

	case step.Submits:
		if m.snap.CanAdvance {
			m.confirming = true
			m.confirm = m.confirm.Reset().
				WithMessage(fmt.Sprintf("Submit the registration of %s?", m.snap.Record.SerialNumber))
			return m, nil
		}
		return m.startSubmission()

	default:
		if !m.session.Next() {
			m.notice = noticeFixFields
		}
		m.refresh()
		return m, m.focusCmd()
	}
}

// back retreats one step; on the first step it leaves the wizard.
func (m registrationWizardModel) back() (tea.Model, tea.Cmd) {
	m.notice = ""
	if m.snap.Index == 0 {
		m.cancelled = true
		return m, tea.Quit
	}
	m.session.Prev()
	m.refresh()
	return m, m.focusCmd()
}

func (m registrationWizardModel) startVerification() (tea.Model, tea.Cmd) {
	serial, err := m.session.BeginVerification()
	if err != nil {
		m.notice = actionNotice(err, "Enter a serial number to verify.")
		m.refresh()
		return m, nil
	}
	m.refresh()

	ctx, backend := m.ctx, m.backend
	call := func() tea.Msg {
		details, err := backend.VerifySerial(ctx, serial)
		return ui.NewVerifiedMsg(details, err)
	}
	return m, tea.Batch(call, m.spinner.Tick)
}

func (m registrationWizardModel) startSubmission() (tea.Model, tea.Cmd) {
	req, err := m.session.BeginSubmission()
	if err != nil {
		m.notice = actionNotice(err, noticeFixFields)
		m.refresh()
		return m, nil
	}
	m.refresh()

	ctx, backend := m.ctx, m.backend
	opts := ports.CallOptions{IdempotencyKey: m.session.SessionID()}
	call := func() tea.Msg {
		receipt, err := backend.Register(ctx, req, opts)
		return ui.NewSubmittedMsg(receipt, err)
	}
	return m, tea.Batch(call, m.spinner.Tick)
}

func actionNotice(err error, notReady string) string {
	switch {
	case errors.Is(err, workflow.ErrOperationPending):
		return "Please wait for the current request to finish."
	case errors.Is(err, workflow.ErrNotReady):
		return notReady
	default:
		return err.Error()
	}
}

// editFocused applies a key to the focused field.
func (m registrationWizardModel) editFocused(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f, ok := m.focused()
	if !ok {
		return m, nil
	}

	switch f.view.Kind {
	case registration.KindChoice:
		delta := 0
		switch {
		case key.Matches(msg, m.keys.NextOption):
			delta = 1
		case key.Matches(msg, m.keys.PrevOption):
			delta = -1
		}
		if delta == 0 || len(f.view.Options) == 0 {
			return m, nil
		}
		n := len(f.view.Options)
		next := (f.option + delta + n) % n
		if f.option < 0 && delta < 0 {
			next = n - 1
		}
		m.fields[m.focus].option = next
		m.apply(f.view.Field, f.view.Options[next].Value)
		return m, nil

	case registration.KindFlag:
		if !key.Matches(msg, m.keys.Toggle) {
			return m, nil
		}
		m.apply(f.view.Field, f.view.Value != "true")
		return m, nil
	}

	before := f.input.Value()
	input, cmd := f.input.Update(msg)
	m.fields[m.focus].input = input
	if input.Value() == before {
		return m, cmd
	}

	value := input.Value()
	if f.view.Kind == registration.KindDate && strings.TrimSpace(value) != "" {
		if _, err := registration.ParseDate(value); err != nil {
			m.fields[m.focus].hint = hintDateFormat
			return m, cmd
		}
	}
	m.fields[m.focus].hint = ""
	m.apply(f.view.Field, value)
	return m, cmd
}

func (m *registrationWizardModel) apply(f registration.Field, value any) {
	if err := m.session.UpdateField(f, value); err != nil {
		m.notice = err.Error()
	} else {
		m.notice = ""
	}
	m.refresh()
}

// refresh pulls a new snapshot. Field editors are rebuilt when the step
// changed; otherwise only their views are updated so typing state survives.
func (m *registrationWizardModel) refresh() {
	previous := m.snap.Index
	m.snap = m.session.Snapshot()
	m.indicator = m.indicator.SetState(m.snap.Index, m.snap.Completed)

	if m.snap.Index != previous || len(m.fields) != len(m.snap.Step.Fields) {
		m.rebuildFields()
		return
	}
	for i, view := range m.snap.Fields() {
		m.fields[i].view = view
		if view.Kind == registration.KindChoice {
			m.fields[i].option = optionIndex(view)
		}
	}
}

func (m *registrationWizardModel) rebuildFields() {
	views := m.snap.Fields()
	m.fields = make([]wizardField, 0, len(views))
	for _, view := range views {
		field := wizardField{view: view, option: -1}
		if field.usesInput() {
			spec, _ := registration.SpecFor(view.Field)
			ti := textinput.New()
			ti.Prompt = ""
			ti.Placeholder = spec.Placeholder
			ti.CharLimit = ui.DefaultInputCharLimit
			ti.Width = ui.DefaultInputWidth
			ti.SetValue(view.Value)
			field.input = ti
		}
		if view.Kind == registration.KindChoice {
			field.option = optionIndex(view)
		}
		m.fields = append(m.fields, field)
	}

	m.focus = -1
	for i, f := range m.fields {
		if f.editable() {
			m.focus = i
			break
		}
	}
	m.focusCmd()
}

func optionIndex(view workflow.FieldView) int {
	for i, opt := range view.Options {
		if opt.Value == view.Value {
			return i
		}
	}
	return -1
}

func (m registrationWizardModel) focused() (wizardField, bool) {
	if m.focus < 0 || m.focus >= len(m.fields) {
		return wizardField{}, false
	}
	return m.fields[m.focus], true
}

// moveFocus moves to the next editable field in direction delta, wrapping.
func (m *registrationWizardModel) moveFocus(delta int) tea.Cmd {
	n := len(m.fields)
	if n == 0 || m.focus < 0 {
		return nil
	}
	for i := 1; i <= n; i++ {
		next := ((m.focus+delta*i)%n + n) % n
		if m.fields[next].editable() {
			m.focus = next
			break
		}
	}
	return m.focusCmd()
}

// focusCmd focuses the text input of the focused field and blurs the others.
func (m *registrationWizardModel) focusCmd() tea.Cmd {
	var cmd tea.Cmd
	for i := range m.fields {
		if !m.fields[i].usesInput() {
			continue
		}
		if i == m.focus {
			cmd = m.fields[i].input.Focus()
		} else {
			m.fields[i].input.Blur()
		}
	}
	return cmd
}

func (m registrationWizardModel) View() string {
	header := m.styles.Title.Render("Bike Registration") + "\n" +
		m.indicator.View() + "\n" +
		m.styles.Help.Render(m.indicator.Position())

	var body string
	if m.snap.Step.Terminal {
		body = m.viewConfirmation()
	} else {
		body = m.viewStep()
	}

	return m.styles.App.Render(header + "\n\n" + body)
}

func (m registrationWizardModel) viewStep() string {
	var b strings.Builder
	b.WriteString(m.styles.Subtitle.Render(m.snap.Step.Title) + "\n")
	b.WriteString(m.styles.Paragraph.Render(m.snap.Step.Description) + "\n\n")

	for i, f := range m.fields {
		b.WriteString(m.viewField(f, i == m.focus))
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString("\n" + m.styles.Error.Render(m.notice) + "\n")
	}

	switch {
	case m.snap.Verification.Pending():
		b.WriteString("\n" + m.spinner.View() + " Verifying serial number...\n")
	case m.snap.Submission.Pending():
		b.WriteString("\n" + m.spinner.View() + " Submitting registration...\n")
	}

	if m.confirming {
		b.WriteString("\n" + m.confirm.View() + "\n")
		return b.String()
	}

	b.WriteString("\n" + m.viewHelp())
	return b.String()
}

func (m registrationWizardModel) viewField(f wizardField, focused bool) string {
	label := m.styles.Label
	cursor := "  "
	if focused {
		label = m.styles.LabelFocused
		cursor = "› "
	}

	var value string
	switch {
	case f.view.ReadOnly:
		value = m.styles.ReadOnlyValue.Render(f.view.Value)
	case f.view.Kind == registration.KindChoice:
		value = m.viewChoice(f)
	case f.view.Kind == registration.KindFlag:
		box := "[ ]"
		if f.view.Value == "true" {
			box = "[x]"
		}
		return cursor + box + " " + label.Render(f.view.Label) + m.viewFieldError(f)
	default:
		value = f.input.View()
	}

	return cursor + label.Render(f.view.Label+":") + " " + value + m.viewFieldError(f)
}

func (m registrationWizardModel) viewChoice(f wizardField) string {
	if f.option < 0 || f.option >= len(f.view.Options) {
		return m.styles.Help.Render("‹ select ›")
	}
	return "‹ " + f.view.Options[f.option].Label + " ›"
}

func (m registrationWizardModel) viewFieldError(f wizardField) string {
	msg := f.hint
	if msg == "" {
		msg = f.view.Error
	}
	if msg == "" {
		return ""
	}
	return "\n" + m.styles.FieldError.Render(msg)
}

func (m registrationWizardModel) viewHelp() string {
	keys := m.keys
	step := m.snap.Step
	switch {
	case step.RequiresVerification:
		keys.Forward.SetHelp("enter", "verify")
		keys.Back.SetHelp("esc", "quit")
	case step.Submits:
		keys.Forward.SetHelp("enter", "submit")
	case step.Index == 1:
		keys.Back.SetHelp("esc", "not my bike")
	}

	bindings := []key.Binding{keys.Forward, keys.Back, keys.NextField}
	if f, ok := m.focused(); ok {
		switch f.view.Kind {
		case registration.KindChoice:
			bindings = append(bindings, keys.NextOption)
		case registration.KindFlag:
			bindings = append(bindings, keys.Toggle)
		}
	}
	bindings = append(bindings, keys.Quit)
	return m.styles.HelpLine(bindings...)
}

func (m registrationWizardModel) viewConfirmation() string {
	c := m.snap.Confirmation
	if c == nil {
		return ""
	}

	var b strings.Builder
	if c.Success {
		b.WriteString(m.styles.Success.Render("✓ "+c.Message) + "\n")
		if c.ID != "" {
			b.WriteString(m.styles.Paragraph.Render(fmt.Sprintf("Registration ID: %s", c.ID)) + "\n")
		}
	} else {
		b.WriteString(m.styles.Error.Render("✗ "+c.Message) + "\n")
		keys := make([]string, 0, len(c.FieldErrors))
		for k := range c.FieldErrors {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(m.styles.FieldError.Render(k+": "+c.FieldErrors[k]) + "\n")
		}
	}

	summary := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Label.Render("Bike: "+m.snap.Record.ModelDescription),
		m.styles.Label.Render("Serial: "+m.snap.Record.SerialNumber),
		m.styles.Label.Render("Owner: "+strings.TrimSpace(m.snap.Record.FirstName+" "+m.snap.Record.LastName)),
	)
	b.WriteString("\n" + m.styles.Panel.Render(summary) + "\n\n")
	b.WriteString(m.styles.Help.Render("Press enter to exit."))
	return b.String()
}
