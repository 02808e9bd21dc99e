package registration

import (
	"errors"
	"sort"
	"strings"
)

// Sentinel errors for record edits.
var (
	ErrUnknownField  = errors.New("unknown field")
	ErrReadOnlyField = errors.New("field is read-only")
	ErrInvalidValue  = errors.New("invalid value")
)

// ValidationErrors maps fields to their first failing rule message.
// A field absent from the map is valid.
type ValidationErrors map[Field]string

// Valid reports whether no field failed.
func (e ValidationErrors) Valid() bool {
	return len(e) == 0
}

// For returns the subset of errors belonging to the given fields.
func (e ValidationErrors) For(fields ...Field) ValidationErrors {
	out := make(ValidationErrors)
	for _, f := range fields {
		if msg, ok := e[f]; ok {
			out[f] = msg
		}
	}
	return out
}

// Fields returns the failing fields in sorted order.
func (e ValidationErrors) Fields() []Field {
	out := make([]Field, 0, len(e))
	for f := range e {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Error implements the error interface so a failed validation can be returned.
func (e ValidationErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, f := range e.Fields() {
		parts = append(parts, string(f)+": "+e[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Clone returns an independent copy.
func (e ValidationErrors) Clone() ValidationErrors {
	out := make(ValidationErrors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}
