package workflow

import (
	"github.com/felixgeelhaar/bikereg/internal/domain/operation"
	"github.com/felixgeelhaar/bikereg/internal/domain/registration"
	"github.com/felixgeelhaar/bikereg/internal/domain/stepper"
	"github.com/felixgeelhaar/bikereg/internal/ports"
)

// Confirmation is the outcome shown on the terminal step.
type Confirmation struct {
	Success     bool              `json:"success" yaml:"success"`
	Message     string            `json:"message" yaml:"message"`
	ID          string            `json:"id,omitempty" yaml:"id,omitempty"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty" yaml:"fieldErrors,omitempty"`
}

// FieldView is the presentation view of one field of the active step.
type FieldView struct {
	Field    registration.Field
	Label    string
	Kind     registration.Kind
	ReadOnly bool
	Value    string
	Error    string // Remote error, or schema error once the field was touched
	Options  []registration.Option
}

// Snapshot is an immutable, consistent view of the workflow.
type Snapshot struct {
	SessionID    string
	Index        int
	Step         stepper.Definition
	Steps        []stepper.Definition
	Completed    []bool
	Record       registration.Record
	SchemaErrors registration.ValidationErrors
	RemoteErrors registration.ValidationErrors
	Touched      map[registration.Field]bool
	CanAdvance   bool
	Verification operation.State[ports.BikeDetails]
	Submission   operation.State[ports.RegistrationReceipt]
	Confirmation *Confirmation
}

// Errors returns every current error; remote errors win over schema errors.
func (s Snapshot) Errors() registration.ValidationErrors {
	out := s.SchemaErrors.Clone()
	for f, msg := range s.RemoteErrors {
		out[f] = msg
	}
	return out
}

// VisibleErrors returns the errors worth showing: remote errors always,
// schema errors only for fields the user has edited.
func (s Snapshot) VisibleErrors() registration.ValidationErrors {
	out := make(registration.ValidationErrors)
	for f, msg := range s.SchemaErrors {
		if s.Touched[f] {
			out[f] = msg
		}
	}
	for f, msg := range s.RemoteErrors {
		out[f] = msg
	}
	return out
}

// Busy reports whether a network call is in flight.
func (s Snapshot) Busy() bool {
	return s.Verification.Pending() || s.Submission.Pending()
}

// Fields returns the views of the active step's fields.
func (s Snapshot) Fields() []FieldView {
	visible := s.VisibleErrors()
	out := make([]FieldView, 0, len(s.Step.Fields))
	for _, f := range s.Step.Fields {
		spec, _ := registration.SpecFor(f)
		out = append(out, FieldView{
			Field:    f,
			Label:    spec.Label,
			Kind:     spec.Kind,
			ReadOnly: spec.ReadOnly,
			Value:    s.Record.Text(f),
			Error:    visible[f],
			Options:  registration.OptionsFor(f),
		})
	}
	return out
}
