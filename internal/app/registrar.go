// Package app provides the headless application logic for bikereg: it drives
// a registration session from input files and reports the outcome.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/bikereg/internal/adapters/backend"
	"github.com/felixgeelhaar/bikereg/internal/adapters/filesystem"
	"github.com/felixgeelhaar/bikereg/internal/adapters/logging"
	"github.com/felixgeelhaar/bikereg/internal/domain/config"
	"github.com/felixgeelhaar/bikereg/internal/domain/registration"
	"github.com/felixgeelhaar/bikereg/internal/domain/stepper"
	"github.com/felixgeelhaar/bikereg/internal/domain/workflow"
	"github.com/felixgeelhaar/bikereg/internal/ports"
)

// ErrVerificationFailed is wrapped by StepError when the serial number
// could not be verified.
var ErrVerificationFailed = errors.New("serial number verification failed")

// StepError reports why a headless session stopped on a step.
type StepError struct {
	Step    string
	Message string
	Fields  registration.ValidationErrors
	Err     error
}

// Error returns the user-facing reason, followed by any field errors.
func (e *StepError) Error() string {
	var b strings.Builder
	b.WriteString(e.Step)
	b.WriteString(": ")
	b.WriteString(e.Message)
	for _, f := range e.Fields.Fields() {
		fmt.Fprintf(&b, "\n  %s: %s", f, e.Fields[f])
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *StepError) Unwrap() error {
	return e.Err
}

// Registrar runs registration sessions without a terminal UI.
type Registrar struct {
	backend ports.BikeRegistryPort
	fs      ports.FileSystem
	logger  ports.Logger
	schema  *registration.Schema
	out     io.Writer
}

// Option configures a Registrar.
type Option func(*Registrar)

// WithLogger sets the logger passed to every session.
func WithLogger(logger ports.Logger) Option {
	return func(r *Registrar) {
		r.logger = logger
	}
}

// WithSchema sets the validation schema passed to every session.
func WithSchema(schema *registration.Schema) Option {
	return func(r *Registrar) {
		r.schema = schema
	}
}

// NewRegistrar creates a Registrar over the given adapters.
func NewRegistrar(registry ports.BikeRegistryPort, fs ports.FileSystem, out io.Writer, opts ...Option) *Registrar {
	r := &Registrar{
		backend: registry,
		fs:      fs,
		logger:  ports.NewNopLogger(),
		schema:  registration.NewSchema(),
		out:     out,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FromSettings creates a Registrar using the HTTP backend, the real
// filesystem and a console logger writing to logOut.
func FromSettings(settings config.Settings, out, logOut io.Writer) *Registrar {
	client := backend.NewClient(backend.ClientConfig{
		BaseURL:   settings.Backend.BaseURL,
		Timeout:   settings.Backend.Timeout,
		UserAgent: settings.Backend.UserAgent,
	})
	logger := logging.NewConsoleLogger(
		logging.WithOutput(logOut),
		logging.WithLevel(settings.Log.Level),
		logging.WithJSONFormat(settings.Log.JSON),
	)
	schema := registration.NewSchema(registration.WithMinPurchaseDate(settings.Schema.MinPurchaseDate))

	return NewRegistrar(client, filesystem.NewRealFileSystem(), out,
		WithLogger(logger),
		WithSchema(schema),
	)
}

// Backend returns the registry port sessions talk to.
func (r *Registrar) Backend() ports.BikeRegistryPort {
	return r.backend
}

// Logger returns the logger passed to sessions.
func (r *Registrar) Logger() ports.Logger {
	return r.logger
}

// Schema returns the validation schema sessions use.
func (r *Registrar) Schema() *registration.Schema {
	return r.schema
}

// Validate checks the input against the schema without contacting the
// backend. Malformed values such as unparsable dates are returned as errors.
func (r *Registrar) Validate(in RecordInput) (registration.ValidationErrors, error) {
	record, err := in.Record()
	if err != nil {
		return nil, err
	}
	return r.schema.Validate(record), nil
}

// NewSession starts a registration workflow on its first step.
func (r *Registrar) NewSession(opts ...workflow.Option) (*workflow.Orchestrator, error) {
	base := []workflow.Option{
		workflow.WithLogger(r.logger),
		workflow.WithSchema(r.schema),
	}
	return workflow.New(r.backend, append(base, opts...)...)
}

// Verify looks up a serial number through a fresh session.
func (r *Registrar) Verify(ctx context.Context, serial string) (ports.BikeDetails, error) {
	session, err := r.NewSession()
	if err != nil {
		return ports.BikeDetails{}, err
	}
	defer session.Close()

	if err := r.verify(ctx, session, serial); err != nil {
		return ports.BikeDetails{}, err
	}
	return session.Snapshot().Verification.Value, nil
}

// Submit drives a session through every step with the given input and
// returns the confirmation. A StepError is returned when the session stops
// before submission.
func (r *Registrar) Submit(ctx context.Context, in RecordInput) (*workflow.Confirmation, error) {
	session, err := r.NewSession()
	if err != nil {
		return nil, err
	}
	defer session.Close()

	if err := r.verify(ctx, session, in.SerialNumber); err != nil {
		return nil, err
	}

	if err := fill(session, in.bikeValues()); err != nil {
		return nil, err
	}
	if !session.Next() {
		return nil, stepError(session.Snapshot(), "bike information is incomplete", nil)
	}

	if err := fill(session, in.personalValues()); err != nil {
		return nil, err
	}
	if err := session.TriggerSubmission(ctx); err != nil {
		return nil, stepError(session.Snapshot(), "personal information is incomplete", err)
	}

	snap := session.Snapshot()
	if snap.Confirmation == nil {
		return nil, fmt.Errorf("submission finished without a confirmation")
	}
	return snap.Confirmation, nil
}

func (r *Registrar) verify(ctx context.Context, session *workflow.Orchestrator, serial string) error {
	if err := session.UpdateField(registration.FieldSerialNumber, serial); err != nil {
		return err
	}
	if strings.TrimSpace(serial) == "" {
		return &StepError{
			Step:    stepper.StepSerialNumber,
			Message: "Serial Number is required",
			Err:     workflow.ErrNotReady,
		}
	}
	if err := session.TriggerVerification(ctx); err != nil {
		message := "serial number cannot be verified on this step"
		if errors.Is(err, workflow.ErrOperationPending) {
			message = "serial number verification is already in progress"
		}
		return &StepError{
			Step:    stepper.StepSerialNumber,
			Message: message,
			Err:     err,
		}
	}

	snap := session.Snapshot()
	if snap.Verification.Failed() {
		return &StepError{
			Step:    stepper.StepSerialNumber,
			Message: snap.Verification.Message,
			Err:     fmt.Errorf("%w: %w", ErrVerificationFailed, snap.Verification.Err),
		}
	}
	return nil
}

func fill(session *workflow.Orchestrator, values []fieldValue) error {
	for _, v := range values {
		if err := session.UpdateField(v.field, v.value); err != nil {
			return &StepError{
				Step:    session.Snapshot().Step.ID,
				Message: fmt.Sprintf("invalid %s", v.field),
				Err:     err,
			}
		}
	}
	return nil
}

func stepError(snap workflow.Snapshot, message string, err error) *StepError {
	fields := make(registration.ValidationErrors)
	for f, msg := range snap.VisibleErrors() {
		if snap.Step.Owns(f) {
			fields[f] = msg
		}
	}
	return &StepError{
		Step:    snap.Step.ID,
		Message: message,
		Fields:  fields,
		Err:     err,
	}
}

// LoadInput reads a record input file. YAML and JSON are accepted.
func (r *Registrar) LoadInput(path string) (RecordInput, error) {
	data, err := r.fs.ReadFile(path)
	if err != nil {
		if !r.fs.Exists(path) {
			return RecordInput{}, config.NewFileNotFoundError(path)
		}
		return RecordInput{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseInput(path, data)
}

// WriteConfirmation stores the confirmation as YAML or JSON, chosen by the
// file extension.
func (r *Registrar) WriteConfirmation(path string, c *workflow.Confirmation) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("failed to encode confirmation: %w", err)
	}
	if err := r.fs.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// PrintBike writes verified bike details.
func (r *Registrar) PrintBike(bike ports.BikeDetails) {
	r.printf("✓ Serial number verified\n\n")
	r.printf("  Serial Number: %s\n", bike.SerialNumber)
	r.printf("  Model:         %s\n", bike.ModelDescription)
	r.printf("  Shop:          %s\n", bike.ShopName)
}

// PrintConfirmation writes the submission outcome.
func (r *Registrar) PrintConfirmation(c *workflow.Confirmation) {
	if c.Success {
		r.printf("✓ %s\n", c.Message)
		if c.ID != "" {
			r.printf("  Registration ID: %s\n", c.ID)
		}
		return
	}

	r.printf("✗ %s\n", c.Message)
	keys := make([]string, 0, len(c.FieldErrors))
	for k := range c.FieldErrors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		r.printf("  %s: %s\n", k, c.FieldErrors[k])
	}
}

func (r *Registrar) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}
