package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/bikereg/internal/app"
	"github.com/felixgeelhaar/bikereg/internal/domain/registration"
	"github.com/felixgeelhaar/bikereg/internal/domain/stepper"
	"github.com/felixgeelhaar/bikereg/internal/ports"
	"github.com/felixgeelhaar/bikereg/internal/testutil"
	"github.com/felixgeelhaar/bikereg/internal/testutil/mocks"
)

// --- helpers ---

func newTestServer(t *testing.T) (*mcp.Server, *mocks.BikeRegistry) {
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
	registrar := app.NewRegistrar(registry, mocks.NewFileSystem(), &bytes.Buffer{}, app.WithSchema(schema))

	srv := mcp.NewServer(mcp.ServerInfo{Name: "bikereg-test", Version: "1.0.0"})
	RegisterAll(srv, registrar, VersionInfo{Version: "1.0.0", Commit: "abc123", BuildDate: "2026-01-01"})
	return srv, registry
}

// executeTool retrieves and executes a registered tool by name.
func executeTool(t *testing.T, srv *mcp.Server, toolName string, input interface{}) (interface{}, error) {
	t.Helper()
	tool, ok := srv.GetTool(toolName)
	require.True(t, ok, "tool %q should be registered", toolName)

	data, err := json.Marshal(input)
	require.NoError(t, err)

	return tool.Execute(context.Background(), data)
}

func validFields() RecordFields {
	return RecordFields{
		SerialNumber:      testutil.SparkSerial,
		DateOfPurchase:    "2024-03-15",
		FirstName:         "Jane",
		LastName:          "Doe",
		Email:             "jane@example.com",
		Country:           "CH",
		PreferredLanguage: "German",
		Gender:            "diverse",
		DateOfBirth:       "1990-05-20",
		Consent:           true,
	}
}

// --- tests ---

func TestRegisterAll(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	names := make(map[string]bool)
	for _, tool := range srv.Tools() {
		names[tool.Name] = true
	}
	for _, name := range []string{"bikereg_steps", "bikereg_verify_serial", "bikereg_validate", "bikereg_register", "bikereg_status"} {
		assert.True(t, names[name], "%s should be registered", name)
	}
}

func TestStepsTool(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	result, err := executeTool(t, srv, "bikereg_steps", StepsInput{})
	require.NoError(t, err)
	output, ok := result.(*StepsOutput)
	require.True(t, ok, "result should be *StepsOutput")

	require.Len(t, output.Steps, 4)
	assert.Equal(t, stepper.StepSerialNumber, output.Steps[0].ID)
	assert.Equal(t, "remote", output.Steps[0].Gate)
	assert.True(t, output.Steps[0].RequiresVerification)
	assert.True(t, output.Steps[2].Submits)
	assert.Empty(t, output.Steps[3].Fields)

	var country *FieldInfo
	for i, f := range output.Steps[2].Fields {
		if f.Name == "country" {
			country = &output.Steps[2].Fields[i]
		}
	}
	require.NotNil(t, country)
	assert.Equal(t, "choice", country.Kind)
	assert.Contains(t, country.Options, "CH")

	bike := output.Steps[1].Fields
	require.NotEmpty(t, bike)
	assert.True(t, bike[0].ReadOnly)
}

func TestVerifyTool(t *testing.T) {
	t.Parallel()

	srv, registry := newTestServer(t)

	result, err := executeTool(t, srv, "bikereg_verify_serial", VerifyInput{SerialNumber: "stm34d30l24110132n"})
	require.NoError(t, err)
	output := result.(*VerifyOutput)
	assert.True(t, output.Verified)
	assert.Equal(t, testutil.SparkModel, output.ModelDescription)
	assert.Equal(t, testutil.SparkShop, output.ShopName)

	result, err = executeTool(t, srv, "bikereg_verify_serial", VerifyInput{SerialNumber: "UNKNOWN123"})
	require.NoError(t, err)
	output = result.(*VerifyOutput)
	assert.False(t, output.Verified)
	assert.Equal(t, mocks.NotFoundMessage, output.Message)

	assert.Len(t, registry.VerifyCalls(), 2)
}

func TestVerifyTool_InvalidInput(t *testing.T) {
	t.Parallel()

	srv, registry := newTestServer(t)

	_, err := executeTool(t, srv, "bikereg_verify_serial", VerifyInput{SerialNumber: "STM;rm -rf"})
	assert.Error(t, err)
	_, err = executeTool(t, srv, "bikereg_verify_serial", VerifyInput{})
	assert.Error(t, err)
	assert.Empty(t, registry.VerifyCalls())
}

func TestValidateTool(t *testing.T) {
	t.Parallel()

	srv, registry := newTestServer(t)

	result, err := executeTool(t, srv, "bikereg_validate", validFields())
	require.NoError(t, err)
	output := result.(*ValidateOutput)
	assert.True(t, output.Valid)
	assert.Empty(t, output.Errors)

	fields := validFields()
	fields.Email = "nope"
	fields.Consent = false
	result, err = executeTool(t, srv, "bikereg_validate", fields)
	require.NoError(t, err)
	output = result.(*ValidateOutput)
	assert.False(t, output.Valid)
	assert.Equal(t, "Invalid email address", output.Errors["email"])
	assert.Equal(t, "You must accept the privacy policy", output.Errors["consent"])

	fields = validFields()
	fields.FirstName = "Jane\x00"
	_, err = executeTool(t, srv, "bikereg_validate", fields)
	assert.Error(t, err)

	assert.Empty(t, registry.VerifyCalls())
}

func TestRegisterTool_RequiresConfirm(t *testing.T) {
	t.Parallel()

	srv, registry := newTestServer(t)

	result, err := executeTool(t, srv, "bikereg_register", RegisterInput{Registration: validFields()})
	require.NoError(t, err)
	output := result.(*RegisterOutput)
	assert.False(t, output.Submitted)
	assert.Contains(t, output.Message, "confirm=true")
	assert.Empty(t, registry.VerifyCalls())
	assert.Empty(t, registry.RegisterCalls())
}

func TestRegisterTool_Submits(t *testing.T) {
	t.Parallel()

	srv, registry := newTestServer(t)

	result, err := executeTool(t, srv, "bikereg_register", RegisterInput{Registration: validFields(), Confirm: true})
	require.NoError(t, err)
	output := result.(*RegisterOutput)
	assert.True(t, output.Submitted)
	assert.True(t, output.Success)
	assert.Equal(t, "reg-1", output.ID)
	assert.Equal(t, stepper.StepConfirmation, output.Step)

	calls := registry.RegisterCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "de", calls[0].Request.PreferredLanguage)
}

func TestRegisterTool_StopsOnInvalidStep(t *testing.T) {
	t.Parallel()

	srv, registry := newTestServer(t)

	fields := validFields()
	fields.LastName = ""
	result, err := executeTool(t, srv, "bikereg_register", RegisterInput{Registration: fields, Confirm: true})
	require.NoError(t, err)
	output := result.(*RegisterOutput)
	assert.False(t, output.Submitted)
	assert.Equal(t, stepper.StepPersonalInformation, output.Step)
	assert.Equal(t, "Last Name is required", output.FieldErrors["lastName"])
	assert.Empty(t, registry.RegisterCalls())
}

func TestRegisterTool_BackendFailure(t *testing.T) {
	t.Parallel()

	srv, registry := newTestServer(t)
	registry.FailRegistration(ports.NewRegistryError(ports.KindServer, 500, ""))

	result, err := executeTool(t, srv, "bikereg_register", RegisterInput{Registration: validFields(), Confirm: true})
	require.NoError(t, err)
	output := result.(*RegisterOutput)
	assert.True(t, output.Submitted)
	assert.False(t, output.Success)
	assert.Equal(t, "Registration failed. Please try again.", output.Message)
}

func TestStatusTool(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	result, err := executeTool(t, srv, "bikereg_status", StepsInput{})
	require.NoError(t, err)
	output := result.(*StatusOutput)
	assert.Equal(t, "1.0.0", output.Version)
	assert.Equal(t, "abc123", output.Commit)
	assert.Equal(t, 4, output.StepCount)
}
