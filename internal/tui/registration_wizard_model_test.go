package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/bikereg/internal/domain/registration"
	"github.com/felixgeelhaar/bikereg/internal/domain/workflow"
	"github.com/felixgeelhaar/bikereg/internal/ports"
	"github.com/felixgeelhaar/bikereg/internal/testutil"
	"github.com/felixgeelhaar/bikereg/internal/testutil/mocks"
	"github.com/felixgeelhaar/bikereg/internal/tui/ui"
)

// --- helpers ---

func newTestWizard(t *testing.T, opts WizardOptions) (registrationWizardModel, *mocks.BikeRegistry) {
	t.Helper()

	registry := mocks.NewBikeRegistry()
	registry.AddBike(ports.BikeDetails{
		SerialNumber:     testutil.SparkSerial,
		ModelDescription: testutil.SparkModel,
		ShopName:         testutil.SparkShop,
	})
	schema := registration.NewSchema(registration.WithClock(func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}))
	session, err := workflow.New(registry, workflow.WithSchema(schema))
	require.NoError(t, err)
	t.Cleanup(session.Close)

	return newRegistrationWizardModel(context.Background(), session, registry, opts), registry
}

func update(t *testing.T, m registrationWizardModel, msg tea.Msg) (registrationWizardModel, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	model, ok := updated.(registrationWizardModel)
	require.True(t, ok, "Update should return registrationWizardModel")
	return model, cmd
}

func press(t *testing.T, m registrationWizardModel, keyType tea.KeyType) (registrationWizardModel, tea.Cmd) {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: keyType})
}

func typeText(t *testing.T, m registrationWizardModel, text string) registrationWizardModel {
	t.Helper()
	for _, r := range text {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

// settle runs an asynchronous action command and feeds its results back.
// Only backend results and dialog answers are delivered; cursor and spinner
// ticks are dropped.
func settle(t *testing.T, m registrationWizardModel, cmd tea.Cmd) registrationWizardModel {
	t.Helper()
	if cmd == nil {
		return m
	}

	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, sub := range msg {
			m = settle(t, m, sub)
		}
	case ui.VerifiedMsg, ui.SubmittedMsg:
		m, _ = update(t, m, msg)
	case ui.ConfirmedMsg:
		var next tea.Cmd
		m, next = update(t, m, msg)
		m = settle(t, m, next)
	}
	return m
}

func focusOn(t *testing.T, m registrationWizardModel, f registration.Field) registrationWizardModel {
	t.Helper()
	for i := 0; i < len(m.fields); i++ {
		if cur, ok := m.focused(); ok && cur.view.Field == f {
			return m
		}
		m, _ = press(t, m, tea.KeyTab)
	}
	require.Failf(t, "field not focusable", "%s", f)
	return m
}

func verified(t *testing.T) (registrationWizardModel, *mocks.BikeRegistry) {
	t.Helper()
	m, registry := newTestWizard(t, NewWizardOptions().WithSerial(testutil.SparkSerial))
	m, cmd := press(t, m, tea.KeyEnter)
	return settle(t, m, cmd), registry
}

func onPersonalStep(t *testing.T) (registrationWizardModel, *mocks.BikeRegistry) {
	t.Helper()
	m, registry := verified(t)
	m = focusOn(t, m, registration.FieldDateOfPurchase)
	m = typeText(t, m, "2024-03-15")
	m, _ = press(t, m, tea.KeyEnter)
	require.Equal(t, 2, m.snap.Index)
	return m, registry
}

func fillPersonal(t *testing.T, m registrationWizardModel) registrationWizardModel {
	t.Helper()
	for f, text := range map[registration.Field]string{
		registration.FieldFirstName:   "Jane",
		registration.FieldLastName:    "Doe",
		registration.FieldEmail:       "jane@example.com",
		registration.FieldDateOfBirth: "1990-05-20",
	} {
		m = focusOn(t, m, f)
		m = typeText(t, m, text)
	}
	for _, f := range []registration.Field{registration.FieldCountry, registration.FieldPreferredLanguage, registration.FieldGender} {
		m = focusOn(t, m, f)
		m, _ = press(t, m, tea.KeyRight)
	}
	m = focusOn(t, m, registration.FieldConsent)
	m, _ = press(t, m, tea.KeySpace)
	return m
}

// --- tests ---

func TestNewRegistrationWizardModel(t *testing.T) {
	t.Parallel()

	m, _ := newTestWizard(t, NewWizardOptions())

	assert.Equal(t, 0, m.snap.Index)
	require.Len(t, m.fields, 1)
	assert.Equal(t, registration.FieldSerialNumber, m.fields[0].view.Field)
	assert.Equal(t, 0, m.focus)
	assert.Equal(t, ui.DefaultWidth, m.width)
	assert.NotNil(t, m.Init())
	assert.Contains(t, m.View(), "Step 1 of 4")
}

func TestRegistrationWizard_PrefilledSerial(t *testing.T) {
	t.Parallel()

	m, _ := newTestWizard(t, NewWizardOptions().WithSerial(testutil.SparkSerial))

	assert.Equal(t, testutil.SparkSerial, m.fields[0].input.Value())
	assert.Equal(t, testutil.SparkSerial, m.snap.Record.SerialNumber)
}

func TestRegistrationWizard_WindowSize(t *testing.T) {
	t.Parallel()

	m, _ := newTestWizard(t, NewWizardOptions())
	m, cmd := update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.Nil(t, cmd)
	assert.Equal(t, 120, m.width)
	assert.Equal(t, 40, m.height)
}

func TestRegistrationWizard_Verify(t *testing.T) {
	t.Parallel()

	m, registry := newTestWizard(t, NewWizardOptions())
	m = typeText(t, m, testutil.SparkSerial)
	assert.Equal(t, testutil.SparkSerial, m.snap.Record.SerialNumber)

	m, cmd := press(t, m, tea.KeyEnter)
	require.NotNil(t, cmd)
	assert.True(t, m.snap.Verification.Pending())
	assert.Contains(t, m.View(), "Verifying serial number")

	// Keys are ignored while the call is in flight.
	m, _ = press(t, m, tea.KeyEnter)
	assert.True(t, m.snap.Busy())

	m = settle(t, m, cmd)
	assert.Equal(t, 1, m.snap.Index)
	assert.Equal(t, []string{testutil.SparkSerial}, registry.VerifyCalls())

	view := m.View()
	assert.Contains(t, view, testutil.SparkModel)
	assert.Contains(t, view, testutil.SparkShop)
	assert.Contains(t, view, "✓ Serial number")

	f, ok := m.focused()
	require.True(t, ok)
	assert.Equal(t, registration.FieldDateOfPurchase, f.view.Field)
}

func TestRegistrationWizard_VerifyFailure(t *testing.T) {
	t.Parallel()

	m, _ := newTestWizard(t, NewWizardOptions().WithSerial("UNKNOWN123"))
	m, cmd := press(t, m, tea.KeyEnter)
	m = settle(t, m, cmd)

	assert.Equal(t, 0, m.snap.Index)
	assert.True(t, m.snap.Verification.Failed())
	assert.Equal(t, mocks.NotFoundMessage, m.fields[0].view.Error)
	assert.Contains(t, m.View(), mocks.NotFoundMessage)

	// Editing the serial clears the remote error.
	m = typeText(t, m, "X")
	assert.Empty(t, m.fields[0].view.Error)
}

func TestRegistrationWizard_VerifyEmptySerial(t *testing.T) {
	t.Parallel()

	m, registry := newTestWizard(t, NewWizardOptions())
	m, cmd := press(t, m, tea.KeyEnter)

	assert.Nil(t, cmd)
	assert.Equal(t, "Enter a serial number to verify.", m.notice)
	assert.Empty(t, registry.VerifyCalls())
}

func TestRegistrationWizard_BikeStepValidation(t *testing.T) {
	t.Parallel()

	m, _ := verified(t)

	m, _ = press(t, m, tea.KeyEnter)
	assert.Equal(t, 1, m.snap.Index)
	assert.Equal(t, noticeFixFields, m.notice)
	assert.Contains(t, m.View(), "Date of Purchase is required")

	m = typeText(t, m, "2024-03")
	f, _ := m.focused()
	assert.Equal(t, hintDateFormat, f.hint)

	m = typeText(t, m, "-15")
	f, _ = m.focused()
	assert.Empty(t, f.hint)
	assert.Equal(t, "2024-03-15", m.snap.Record.Text(registration.FieldDateOfPurchase))

	m, _ = press(t, m, tea.KeyEnter)
	assert.Equal(t, 2, m.snap.Index)
	assert.Empty(t, m.notice)
}

func TestRegistrationWizard_ReadOnlyFieldsAreSkipped(t *testing.T) {
	t.Parallel()

	m, _ := verified(t)

	for i := 0; i < 3; i++ {
		m, _ = press(t, m, tea.KeyTab)
		f, ok := m.focused()
		require.True(t, ok)
		assert.Equal(t, registration.FieldDateOfPurchase, f.view.Field)
	}
}

func TestRegistrationWizard_NotMyBike(t *testing.T) {
	t.Parallel()

	m, registry := verified(t)

	m, _ = press(t, m, tea.KeyEsc)
	assert.Equal(t, 0, m.snap.Index)
	assert.False(t, m.cancelled)
	assert.True(t, m.snap.CanAdvance, "going back keeps the verification")

	m, cmd := press(t, m, tea.KeyEnter)
	m = settle(t, m, cmd)
	assert.Equal(t, 1, m.snap.Index)
	assert.Len(t, registry.VerifyCalls(), 1)
}

func TestRegistrationWizard_ChoiceAndFlagFields(t *testing.T) {
	t.Parallel()

	m, _ := onPersonalStep(t)

	m = focusOn(t, m, registration.FieldCountry)
	m, _ = press(t, m, tea.KeyRight)
	assert.Equal(t, "AT", m.snap.Record.Country)
	m, _ = press(t, m, tea.KeyRight)
	assert.Equal(t, "BE", m.snap.Record.Country)
	m, _ = press(t, m, tea.KeyLeft)
	m, _ = press(t, m, tea.KeyLeft)
	assert.Equal(t, "US", m.snap.Record.Country, "options wrap around")
	assert.Contains(t, m.View(), "‹ United States ›")

	m = focusOn(t, m, registration.FieldNewsOptIn)
	m, _ = press(t, m, tea.KeySpace)
	assert.True(t, m.snap.Record.NewsOptIn)
	assert.Contains(t, m.View(), "[x] I agree to receive News and Updates.")
	m, _ = press(t, m, tea.KeySpace)
	assert.False(t, m.snap.Record.NewsOptIn)
}

func TestRegistrationWizard_SubmitInvalid(t *testing.T) {
	t.Parallel()

	m, registry := onPersonalStep(t)

	m, cmd := press(t, m, tea.KeyEnter)
	assert.Nil(t, cmd)
	assert.False(t, m.confirming)
	assert.Equal(t, noticeFixFields, m.notice)
	assert.Contains(t, m.View(), "First Name is required")
	assert.Empty(t, registry.RegisterCalls())
}

func TestRegistrationWizard_Submit(t *testing.T) {
	t.Parallel()

	m, registry := onPersonalStep(t)
	m = fillPersonal(t, m)
	require.True(t, m.snap.CanAdvance, "errors: %v", m.snap.Errors())

	m, cmd := press(t, m, tea.KeyEnter)
	assert.Nil(t, cmd)
	assert.True(t, m.confirming)
	assert.Contains(t, m.View(), "Submit the registration of "+testutil.SparkSerial+"?")

	m, cmd = press(t, m, tea.KeyEnter)
	m = settle(t, m, cmd)

	assert.False(t, m.confirming)
	assert.Equal(t, 3, m.snap.Index)
	calls := registry.RegisterCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, m.session.SessionID(), calls[0].Options.IdempotencyKey)
	assert.Equal(t, "AT", calls[0].Request.Country)
	assert.Equal(t, "en", calls[0].Request.PreferredLanguage)
	assert.Equal(t, "female", calls[0].Request.Gender)

	view := m.View()
	assert.Contains(t, view, "Your bike has been registered.")
	assert.Contains(t, view, "Registration ID: reg-1")
	assert.Contains(t, view, "Owner: Jane Doe")

	m, cmd = press(t, m, tea.KeyEnter)
	assert.NotNil(t, cmd)
	assert.True(t, m.finished)

	res := m.result()
	assert.False(t, res.Cancelled)
	require.True(t, res.Submitted())
	assert.Equal(t, "reg-1", res.Confirmation.ID)
}

func TestRegistrationWizard_ReviewInsteadOfSubmit(t *testing.T) {
	t.Parallel()

	m, registry := onPersonalStep(t)
	m = fillPersonal(t, m)

	m, _ = press(t, m, tea.KeyEnter)
	require.True(t, m.confirming)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	m = settle(t, m, cmd)

	assert.False(t, m.confirming)
	assert.Equal(t, 2, m.snap.Index)
	assert.Empty(t, registry.RegisterCalls())
}

func TestRegistrationWizard_SubmitRejected(t *testing.T) {
	t.Parallel()

	m, registry := onPersonalStep(t)
	rejection := ports.NewRegistryError(ports.KindValidation, 409, "duplicate registration")
	rejection.Fields = map[string]string{"serialNumber": "already registered"}
	registry.FailRegistration(rejection)
	m = fillPersonal(t, m)

	m, _ = press(t, m, tea.KeyEnter)
	m, cmd := press(t, m, tea.KeyEnter)
	m = settle(t, m, cmd)

	assert.Equal(t, 3, m.snap.Index)
	view := m.View()
	assert.Contains(t, view, "✗ duplicate registration")
	assert.Contains(t, view, "serialNumber: already registered")

	// The terminal step cannot be left backwards.
	m, _ = press(t, m, tea.KeyEsc)
	assert.True(t, m.finished)
	assert.Equal(t, 3, m.snap.Index)
}

func TestRegistrationWizard_Cancel(t *testing.T) {
	t.Parallel()

	t.Run("esc on first step", func(t *testing.T) {
		t.Parallel()
		m, _ := newTestWizard(t, NewWizardOptions())
		m, cmd := press(t, m, tea.KeyEsc)
		assert.True(t, m.cancelled)
		assert.NotNil(t, cmd)
	})

	t.Run("ctrl+c anywhere", func(t *testing.T) {
		t.Parallel()
		m, _ := verified(t)
		m, cmd := press(t, m, tea.KeyCtrlC)
		assert.True(t, m.cancelled)
		assert.NotNil(t, cmd)

		res := m.result()
		assert.True(t, res.Cancelled)
		assert.False(t, res.Submitted())
	})
}
