package ports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorKind classifies a failure reported by the bike registry backend.
type ErrorKind string

const (
	// KindNotFound means the serial number did not match any bike.
	KindNotFound ErrorKind = "not_found"
	// KindValidation means the backend rejected the request as malformed.
	KindValidation ErrorKind = "validation"
	// KindServer covers 5xx responses and transport failures.
	KindServer ErrorKind = "server_error"
)

// RegistryError is the normalized failure returned by a BikeRegistryPort.
type RegistryError struct {
	Kind       ErrorKind
	Message    string            // Human-readable message suitable for display
	StatusCode int               // HTTP status, zero for transport failures
	Fields     map[string]string // Server-side field details, if any
	Err        error
}

// Error implements the error interface.
func (e *RegistryError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Err.Error()
	}
	return string(e.Kind)
}

// Unwrap returns the underlying error.
func (e *RegistryError) Unwrap() error {
	return e.Err
}

// Is matches another RegistryError by kind.
func (e *RegistryError) Is(target error) bool {
	t, ok := target.(*RegistryError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel values for errors.Is comparisons.
var (
	ErrNotFound   = &RegistryError{Kind: KindNotFound}
	ErrValidation = &RegistryError{Kind: KindValidation}
	ErrServer     = &RegistryError{Kind: KindServer}
)

// NewRegistryError creates a RegistryError of the given kind.
func NewRegistryError(kind ErrorKind, status int, message string) *RegistryError {
	return &RegistryError{Kind: kind, StatusCode: status, Message: message}
}

// ErrorMessage extracts a display message from err, falling back when err
// carries no structured message.
func ErrorMessage(err error, fallback string) string {
	var regErr *RegistryError
	if errors.As(err, &regErr) && regErr.Message != "" {
		return regErr.Message
	}
	return fallback
}

// BikeDetails is the verified bike returned by a serial number lookup.
type BikeDetails struct {
	SerialNumber     string `json:"serialNumber"`
	ModelDescription string `json:"modelDescription"`
	ShopName         string `json:"shopName"`
}

// RegistrationRequest is the wire form of a complete registration.
// Dates are ISO-8601 timestamps.
type RegistrationRequest struct {
	SerialNumber      string `json:"serialNumber"`
	ModelDescription  string `json:"modelDescription"`
	ShopName          string `json:"shopName"`
	DateOfPurchase    string `json:"dateOfPurchase,omitempty"`
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	Email             string `json:"email"`
	Country           string `json:"country"`
	PreferredLanguage string `json:"preferredLanguage"`
	Gender            string `json:"gender"`
	DateOfBirth       string `json:"dateOfBirth,omitempty"`
	NewsOptIn         bool   `json:"newsOptIn"`
	Consent           bool   `json:"consent"`
}

// RegistrationReceipt is the backend's answer to a registration.
type RegistrationReceipt struct {
	Success bool            `json:"success"`
	ID      string          `json:"id,omitempty"`
	Message string          `json:"message"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CallOptions carries per-call metadata for registry requests.
type CallOptions struct {
	// IdempotencyKey deduplicates submissions on the backend side.
	IdempotencyKey string
}

// BikeRegistryPort defines the backend collaborator of the registration workflow.
type BikeRegistryPort interface {
	// VerifySerial looks up a serial number. Failures are *RegistryError.
	VerifySerial(ctx context.Context, serialNumber string) (BikeDetails, error)

	// Register submits a complete registration. Failures are *RegistryError.
	Register(ctx context.Context, req RegistrationRequest, opts CallOptions) (RegistrationReceipt, error)
}

// String implements fmt.Stringer for log output.
func (b BikeDetails) String() string {
	return fmt.Sprintf("%s (%s, %s)", b.SerialNumber, b.ModelDescription, b.ShopName)
}
