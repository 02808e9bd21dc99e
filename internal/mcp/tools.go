// Package mcp exposes the registration workflow as MCP (Model Context
// Protocol) tools.
package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/bikereg/internal/app"
	"github.com/felixgeelhaar/bikereg/internal/domain/registration"
	"github.com/felixgeelhaar/bikereg/internal/domain/stepper"
)

// VersionInfo contains version metadata for the MCP server.
type VersionInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

// StepsInput is the input for the bikereg_steps tool.
type StepsInput struct{}

// StepsOutput describes the registration steps and their fields.
type StepsOutput struct {
	Steps []StepInfo `json:"steps"`
}

// StepInfo describes one step.
type StepInfo struct {
	Index                int         `json:"index"`
	ID                   string      `json:"id"`
	Title                string      `json:"title"`
	Description          string      `json:"description"`
	Gate                 string      `json:"gate"`
	RequiresVerification bool        `json:"requires_verification"`
	Submits              bool        `json:"submits"`
	Fields               []FieldInfo `json:"fields,omitempty"`
}

// FieldInfo describes one form field.
type FieldInfo struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Kind     string   `json:"kind"`
	Required bool     `json:"required"`
	ReadOnly bool     `json:"read_only"`
	Options  []string `json:"options,omitempty"`
}

// VerifyInput is the input for the bikereg_verify_serial tool.
type VerifyInput struct {
	SerialNumber string `json:"serial_number" jsonschema:"required,description=Frame serial number to verify"`
}

// VerifyOutput is the output for the bikereg_verify_serial tool.
type VerifyOutput struct {
	Verified         bool   `json:"verified"`
	SerialNumber     string `json:"serial_number"`
	ModelDescription string `json:"model_description,omitempty"`
	ShopName         string `json:"shop_name,omitempty"`
	Message          string `json:"message,omitempty"`
}

// RecordFields are the user-entered registration fields shared by the
// validate and register tools.
type RecordFields struct {
	SerialNumber      string `json:"serial_number" jsonschema:"required,description=Frame serial number"`
	DateOfPurchase    string `json:"date_of_purchase" jsonschema:"description=Purchase date (YYYY-MM-DD)"`
	FirstName         string `json:"first_name" jsonschema:"description=Owner first name"`
	LastName          string `json:"last_name" jsonschema:"description=Owner last name"`
	Email             string `json:"email" jsonschema:"description=Owner email address"`
	Country           string `json:"country" jsonschema:"description=Country code or name (e.g. CH or Switzerland)"`
	PreferredLanguage string `json:"preferred_language" jsonschema:"description=Language tag or name (e.g. en or German)"`
	Gender            string `json:"gender" jsonschema:"description=female, male, diverse or unspecified"`
	DateOfBirth       string `json:"date_of_birth" jsonschema:"description=Owner date of birth (YYYY-MM-DD)"`
	NewsOptIn         bool   `json:"news_opt_in,omitempty" jsonschema:"description=Subscribe to the newsletter"`
	Consent           bool   `json:"consent" jsonschema:"description=Owner accepted the privacy policy"`
}

func (f RecordFields) input() app.RecordInput {
	return app.RecordInput{
		SerialNumber:      f.SerialNumber,
		DateOfPurchase:    f.DateOfPurchase,
		FirstName:         f.FirstName,
		LastName:          f.LastName,
		Email:             f.Email,
		Country:           f.Country,
		PreferredLanguage: f.PreferredLanguage,
		Gender:            f.Gender,
		DateOfBirth:       f.DateOfBirth,
		NewsOptIn:         f.NewsOptIn,
		Consent:           f.Consent,
	}
}

// ValidateOutput is the output for the bikereg_validate tool.
type ValidateOutput struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
}

// RegisterInput is the input for the bikereg_register tool.
type RegisterInput struct {
	Registration RecordFields `json:"registration" jsonschema:"required,description=Registration fields as accepted by bikereg_validate"`
	Confirm      bool         `json:"confirm" jsonschema:"required,description=Must be true to submit the registration (safety confirmation)"`
}

// RegisterOutput is the output for the bikereg_register tool.
type RegisterOutput struct {
	Submitted   bool              `json:"submitted"`
	Success     bool              `json:"success"`
	ID          string            `json:"id,omitempty"`
	Message     string            `json:"message"`
	Step        string            `json:"step,omitempty"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

// StatusOutput is the output for the bikereg_status tool.
type StatusOutput struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	StepCount int    `json:"step_count"`
}

// RegisterAll registers every bikereg tool on srv.
func RegisterAll(srv *mcp.Server, registrar *app.Registrar, versionInfo VersionInfo) {
	registerStepsTool(srv)
	registerVerifyTool(srv, registrar)
	registerValidateTool(srv, registrar)
	registerRegisterTool(srv, registrar)
	registerStatusTool(srv, versionInfo)
}

func registerStepsTool(srv *mcp.Server) {
	srv.Tool("bikereg_steps").
		Description("List the registration steps, their fields, and the allowed values for choice fields.").
		ReadOnly().
		Handler(func(_ context.Context, _ StepsInput) (*StepsOutput, error) {
			return describeSteps(stepper.DefaultRegistry()), nil
		})
}

func registerVerifyTool(srv *mcp.Server, registrar *app.Registrar) {
	srv.Tool("bikereg_verify_serial").
		Description("Verify a bike serial number with the registration backend and return the bike model and selling shop.").
		ReadOnly().
		Handler(func(ctx context.Context, in VerifyInput) (*VerifyOutput, error) {
			if err := ValidateVerifyInput(&in); err != nil {
				return nil, err
			}

			bike, err := registrar.Verify(ctx, in.SerialNumber)
			if err != nil {
				var stepErr *app.StepError
				if errors.As(err, &stepErr) {
					return &VerifyOutput{
						SerialNumber: in.SerialNumber,
						Message:      stepErr.Message,
					}, nil
				}
				return nil, err
			}

			return &VerifyOutput{
				Verified:         true,
				SerialNumber:     bike.SerialNumber,
				ModelDescription: bike.ModelDescription,
				ShopName:         bike.ShopName,
			}, nil
		})
}

func registerValidateTool(srv *mcp.Server, registrar *app.Registrar) {
	srv.Tool("bikereg_validate").
		Description("Check registration fields against the form rules without contacting the backend.").
		ReadOnly().
		Handler(func(_ context.Context, in RecordFields) (*ValidateOutput, error) {
			if err := ValidateRecordFields(&in); err != nil {
				return nil, err
			}

			errs, err := registrar.Validate(in.input())
			if err != nil {
				return nil, err
			}
			return &ValidateOutput{
				Valid:  errs.Valid(),
				Errors: fieldErrors(errs),
			}, nil
		})
}

func registerRegisterTool(srv *mcp.Server, registrar *app.Registrar) {
	srv.Tool("bikereg_register").
		Description("Verify the serial number and submit a complete bike registration. REQUIRES confirm=true.").
		Destructive().
		Handler(func(ctx context.Context, in RegisterInput) (*RegisterOutput, error) {
			if !in.Confirm {
				return &RegisterOutput{
					Message: "Set confirm=true to submit the registration.",
				}, nil
			}
			if err := ValidateRecordFields(&in.Registration); err != nil {
				return nil, err
			}

			confirmation, err := registrar.Submit(ctx, in.Registration.input())
			if err != nil {
				var stepErr *app.StepError
				if errors.As(err, &stepErr) {
					return &RegisterOutput{
						Message:     stepErr.Message,
						Step:        stepErr.Step,
						FieldErrors: fieldErrors(stepErr.Fields),
					}, nil
				}
				return nil, err
			}

			return &RegisterOutput{
				Submitted:   true,
				Success:     confirmation.Success,
				ID:          confirmation.ID,
				Message:     confirmation.Message,
				Step:        stepper.StepConfirmation,
				FieldErrors: confirmation.FieldErrors,
			}, nil
		})
}

func registerStatusTool(srv *mcp.Server, versionInfo VersionInfo) {
	srv.Tool("bikereg_status").
		Description("Report the bikereg version.").
		ReadOnly().
		Handler(func(_ context.Context, _ StepsInput) (*StatusOutput, error) {
			return &StatusOutput{
				Version:   versionInfo.Version,
				Commit:    versionInfo.Commit,
				BuildDate: versionInfo.BuildDate,
				StepCount: stepper.DefaultRegistry().Len(),
			}, nil
		})
}

func describeSteps(registry *stepper.Registry) *StepsOutput {
	out := &StepsOutput{Steps: make([]StepInfo, 0, registry.Len())}
	for _, def := range registry.All() {
		info := StepInfo{
			Index:                def.Index,
			ID:                   def.ID,
			Title:                def.Title,
			Description:          def.Description,
			Gate:                 def.Gate().String(),
			RequiresVerification: def.RequiresVerification,
			Submits:              def.Submits,
		}
		for _, f := range def.Fields {
			spec, _ := registration.SpecFor(f)
			field := FieldInfo{
				Name:     f.String(),
				Label:    spec.Label,
				Kind:     spec.Kind.String(),
				Required: spec.Required,
				ReadOnly: spec.ReadOnly,
			}
			for _, opt := range registration.OptionsFor(f) {
				field.Options = append(field.Options, opt.Value)
			}
			info.Fields = append(info.Fields, field)
		}
		out.Steps = append(out.Steps, info)
	}
	return out
}

func fieldErrors(errs registration.ValidationErrors) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	out := make(map[string]string, len(errs))
	for f, msg := range errs {
		out[f.String()] = msg
	}
	return out
}
