// Package stepper tracks the position in the registration workflow and which
// steps have been completed.
package stepper

import (
	"github.com/felixgeelhaar/bikereg/internal/domain/registration"
)

// Step identifiers. They are also the state names of the step machine.
const (
	StepSerialNumber        = "serial_number"
	StepBikeInformation     = "bike_information"
	StepPersonalInformation = "personal_information"
	StepConfirmation        = "confirmation"
)

// Gate describes what must happen before a step can be left forwards.
type Gate int

const (
	// GateLocal steps advance once their own fields validate.
	GateLocal Gate = iota
	// GateRemote steps advance only after a successful backend verification.
	GateRemote
	// GateNone marks the terminal step, which has no forward transition.
	GateNone
)

// String implements fmt.Stringer.
func (g Gate) String() string {
	switch g {
	case GateLocal:
		return "local"
	case GateRemote:
		return "remote"
	case GateNone:
		return "none"
	default:
		return "unknown"
	}
}

// Definition is a static description of one workflow step.
type Definition struct {
	Index                int
	ID                   string
	Title                string
	Description          string
	Fields               []registration.Field
	RequiresVerification bool
	Submits              bool // Leaving this step forwards is the registration submission
	Terminal             bool
}

// Gate returns the gating kind of the step.
func (d Definition) Gate() Gate {
	switch {
	case d.Terminal:
		return GateNone
	case d.RequiresVerification:
		return GateRemote
	default:
		return GateLocal
	}
}

// Owns reports whether the step owns field f.
func (d Definition) Owns(f registration.Field) bool {
	for _, owned := range d.Fields {
		if owned == f {
			return true
		}
	}
	return false
}

func (d Definition) clone() Definition {
	d.Fields = append([]registration.Field(nil), d.Fields...)
	return d
}

// Registry is the ordered, immutable list of step definitions.
type Registry struct {
	defs []Definition
}

// DefaultRegistry returns the bike registration steps.
func DefaultRegistry() *Registry {
	return &Registry{defs: []Definition{
		{
			Index:                0,
			ID:                   StepSerialNumber,
			Title:                "Serial number",
			Description:          "Enter the serial number printed on your frame.",
			Fields:               []registration.Field{registration.FieldSerialNumber},
			RequiresVerification: true,
		},
		{
			Index:       1,
			ID:          StepBikeInformation,
			Title:       "Bike information",
			Description: "Check your bike and tell us when you bought it.",
			Fields: []registration.Field{
				registration.FieldModelDescription,
				registration.FieldShopName,
				registration.FieldDateOfPurchase,
			},
		},
		{
			Index:       2,
			ID:          StepPersonalInformation,
			Title:       "Personal information",
			Description: "Tell us who owns the bike.",
			Fields: []registration.Field{
				registration.FieldFirstName,
				registration.FieldLastName,
				registration.FieldEmail,
				registration.FieldCountry,
				registration.FieldPreferredLanguage,
				registration.FieldGender,
				registration.FieldDateOfBirth,
				registration.FieldNewsOptIn,
				registration.FieldConsent,
			},
			Submits: true,
		},
		{
			Index:    3,
			ID:       StepConfirmation,
			Title:    "Registration confirmation",
			Terminal: true,
		},
	}}
}

// Len returns the number of steps.
func (r *Registry) Len() int {
	return len(r.defs)
}

// At returns a copy of the definition at index i.
func (r *Registry) At(i int) (Definition, bool) {
	if i < 0 || i >= len(r.defs) {
		return Definition{}, false
	}
	return r.defs[i].clone(), true
}

// All returns copies of every definition in order.
func (r *Registry) All() []Definition {
	out := make([]Definition, len(r.defs))
	for i, d := range r.defs {
		out[i] = d.clone()
	}
	return out
}

// IndexOf returns the index of the step with the given ID.
func (r *Registry) IndexOf(id string) (int, bool) {
	for _, d := range r.defs {
		if d.ID == id {
			return d.Index, true
		}
	}
	return -1, false
}

// Owner returns the index of the step owning field f.
func (r *Registry) Owner(f registration.Field) (int, bool) {
	for _, d := range r.defs {
		if d.Owns(f) {
			return d.Index, true
		}
	}
	return -1, false
}

// SubmitIndex returns the index of the step whose forward transition submits.
func (r *Registry) SubmitIndex() int {
	for _, d := range r.defs {
		if d.Submits {
			return d.Index
		}
	}
	return -1
}
