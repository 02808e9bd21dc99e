// Package workflow binds the registration record, the step machine and the
// two network-bound operations into one orchestrated registration session.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/bikereg/internal/domain/operation"
	"github.com/felixgeelhaar/bikereg/internal/domain/registration"
	"github.com/felixgeelhaar/bikereg/internal/domain/stepper"
	"github.com/felixgeelhaar/bikereg/internal/ports"
)

// Sentinel errors for orchestrator actions.
var (
	// ErrOperationPending is returned when a network action is already in flight.
	ErrOperationPending = operation.ErrPending
	// ErrNotReady is returned when an action's preconditions do not hold.
	ErrNotReady = errors.New("workflow not ready")
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(logger ports.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSchema sets the validation schema.
func WithSchema(schema *registration.Schema) Option {
	return func(o *Orchestrator) {
		if schema != nil {
			o.schema = schema
		}
	}
}

// WithSessionID overrides the generated session id.
func WithSessionID(id string) Option {
	return func(o *Orchestrator) {
		if id != "" {
			o.sessionID = id
		}
	}
}

// Orchestrator owns the registration record for one session and coordinates
// validation, step navigation and the verification and submission calls.
// It is safe for concurrent use; listeners registered with OnChange are
// notified outside the lock.
type Orchestrator struct {
	mu sync.RWMutex

	sessionID string
	backend   ports.BikeRegistryPort
	schema    *registration.Schema
	logger    ports.Logger
	steps     *stepper.Stepper

	record       registration.Record
	schemaErrors registration.ValidationErrors
	remoteErrors registration.ValidationErrors
	touched      map[registration.Field]bool
	confirmation *Confirmation

	verification *operation.Controller[ports.BikeDetails]
	submission   *operation.Controller[ports.RegistrationReceipt]

	listenerSeq int
	listeners   map[int]func(Snapshot)
}

// New creates an orchestrator positioned on the first step with an empty record.
func New(backend ports.BikeRegistryPort, opts ...Option) (*Orchestrator, error) {
	if backend == nil {
		return nil, fmt.Errorf("bike registry backend is required")
	}

	o := &Orchestrator{
		sessionID:    uuid.New().String(),
		backend:      backend,
		schema:       registration.NewSchema(),
		logger:       ports.NewNopLogger(),
		remoteErrors: make(registration.ValidationErrors),
		touched:      make(map[registration.Field]bool),
		listeners:    make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With(ports.F("session", o.sessionID))

	steps, err := stepper.New(stepper.DefaultRegistry())
	if err != nil {
		return nil, err
	}
	o.steps = steps

	o.verification, err = operation.NewController[ports.BikeDetails]("verification", operation.FallbackVerification)
	if err != nil {
		return nil, err
	}
	o.verification.OnSuccess(o.verified)
	o.verification.OnFailure(o.verificationFailed)

	o.submission, err = operation.NewController[ports.RegistrationReceipt]("submission", operation.FallbackRegistration)
	if err != nil {
		return nil, err
	}
	o.submission.OnSuccess(o.submitted)
	o.submission.OnFailure(o.submissionFailed)

	o.schemaErrors = o.schema.Validate(o.record)
	return o, nil
}

// SessionID returns the session id, also used as the submission idempotency key.
func (o *Orchestrator) SessionID() string {
	return o.sessionID
}

// Close releases the step and operation machines.
func (o *Orchestrator) Close() {
	o.steps.Stop()
	o.verification.Stop()
	o.submission.Stop()
}

// OnChange registers fn to receive a snapshot after every state change.
// The returned function unregisters it.
func (o *Orchestrator) OnChange(fn func(Snapshot)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.listenerSeq++
	id := o.listenerSeq
	o.listeners[id] = fn
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.listeners, id)
	}
}

// Snapshot returns a consistent view of the workflow.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.snapshotLocked()
}

// ActiveStepFields returns the views of the current step's fields.
func (o *Orchestrator) ActiveStepFields() []FieldView {
	return o.Snapshot().Fields()
}

// CanAdvance reports whether the forward action of the current step is enabled.
func (o *Orchestrator) CanAdvance() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.canAdvanceLocked()
}

// Next performs the forward action of a locally gated step, or advances past
// a verified step. It is a no-op on the submitting and terminal steps. An
// invalid step has its fields marked touched so their errors become visible.
func (o *Orchestrator) Next() bool {
	o.mu.Lock()
	def := o.steps.Current()
	moved := false

	switch def.Gate() {
	case stepper.GateRemote:
		moved = o.steps.Advance()
	case stepper.GateLocal:
		if def.Submits {
			break
		}
		if o.stepValidLocked(def) {
			o.steps.MarkComplete(def.Index, true)
			moved = o.steps.Advance()
		} else {
			o.touchLocked(def.Fields...)
		}
	}
	if moved {
		o.logger.Debug(context.Background(), "step advanced", ports.F("from", def.ID), ports.F("to", o.steps.Current().ID))
	}
	o.mu.Unlock()

	o.notify()
	return moved
}

// Prev moves back one step without touching completion. It is a no-op on the
// first and terminal steps.
func (o *Orchestrator) Prev() bool {
	o.mu.Lock()
	def := o.steps.Current()
	moved := false
	if !def.Terminal {
		moved = o.steps.Retreat()
	}
	if moved {
		o.logger.Debug(context.Background(), "step retreated", ports.F("from", def.ID), ports.F("to", o.steps.Current().ID))
	}
	o.mu.Unlock()

	if moved {
		o.notify()
	}
	return moved
}

// UpdateField assigns a field value, clears the field's remote error and
// re-validates the record. A changed value revokes the completion of its
// owning step when that step is not the current one; a changed serial number
// also revokes the serial step while it is current.
func (o *Orchestrator) UpdateField(f registration.Field, value any) error {
	spec, ok := registration.SpecFor(f)
	if !ok {
		return fmt.Errorf("%w: %q", registration.ErrUnknownField, f)
	}
	if spec.ReadOnly {
		return fmt.Errorf("%w: %s", registration.ErrReadOnlyField, f)
	}
	if s, isText := value.(string); isText && spec.Kind == registration.KindChoice {
		value = registration.NormalizeChoice(f, s)
	}

	o.mu.Lock()
	if o.steps.Current().Terminal {
		o.mu.Unlock()
		return fmt.Errorf("%w: registration already submitted", ErrNotReady)
	}

	before := o.record.Text(f)
	if err := o.record.Set(f, value); err != nil {
		o.mu.Unlock()
		return err
	}
	changed := o.record.Text(f) != before

	o.touched[f] = true
	delete(o.remoteErrors, f)
	o.schemaErrors = o.schema.Validate(o.record)

	if changed {
		current := o.steps.Index()
		owner, _ := o.steps.Registry().Owner(f)
		if owner != current && o.steps.IsComplete(owner) {
			o.steps.MarkComplete(owner, false)
			o.logger.Debug(context.Background(), "step completion revoked", ports.F("step", owner), ports.F("field", f))
		}
		if f == registration.FieldSerialNumber && current == owner && o.steps.IsComplete(owner) {
			o.steps.MarkComplete(owner, false)
		}
	}
	o.mu.Unlock()

	o.notify()
	return nil
}

// TriggerVerification verifies the entered serial number against the backend
// and waits for the result. Remote failures are not returned; they surface as
// a failed verification status and an error on the serial number field.
func (o *Orchestrator) TriggerVerification(ctx context.Context) error {
	serial, err := o.BeginVerification()
	if err != nil {
		return err
	}
	details, callErr := o.backend.VerifySerial(ctx, serial)
	o.CompleteVerification(details, callErr)
	return nil
}

// BeginVerification moves the verification to pending and returns the
// trimmed serial number to verify.
func (o *Orchestrator) BeginVerification() (string, error) {
	o.mu.Lock()
	if !o.steps.Current().RequiresVerification {
		o.mu.Unlock()
		return "", fmt.Errorf("%w: verification belongs to the serial number step", ErrNotReady)
	}
	serial := strings.TrimSpace(o.record.SerialNumber)
	if serial == "" {
		o.mu.Unlock()
		return "", fmt.Errorf("%w: serial number is empty", ErrNotReady)
	}
	if !o.verification.Begin() {
		o.mu.Unlock()
		return "", ErrOperationPending
	}
	o.touched[registration.FieldSerialNumber] = true
	delete(o.remoteErrors, registration.FieldSerialNumber)
	o.mu.Unlock()

	o.logger.Debug(context.Background(), "verifying serial number", ports.F("serial", serial))
	o.notify()
	return serial, nil
}

// CompleteVerification settles a verification started with BeginVerification.
func (o *Orchestrator) CompleteVerification(details ports.BikeDetails, err error) {
	o.verification.Settle(details, err)
}

// TriggerSubmission re-validates the record, submits it and waits for the
// result. The workflow reaches the confirmation step whatever the backend
// answers; only local precondition failures are returned.
func (o *Orchestrator) TriggerSubmission(ctx context.Context) error {
	req, err := o.BeginSubmission()
	if err != nil {
		return err
	}
	receipt, callErr := o.backend.Register(ctx, req, ports.CallOptions{IdempotencyKey: o.sessionID})
	o.CompleteSubmission(receipt, callErr)
	return nil
}

// BeginSubmission moves the submission to pending and returns the request to
// send. It fails with ErrNotReady, wrapping the validation errors, when the
// record is invalid or an earlier step is incomplete.
func (o *Orchestrator) BeginSubmission() (ports.RegistrationRequest, error) {
	o.mu.Lock()
	def := o.steps.Current()
	if o.confirmation != nil {
		o.mu.Unlock()
		return ports.RegistrationRequest{}, fmt.Errorf("%w: registration already submitted", ErrNotReady)
	}
	if !def.Submits {
		o.mu.Unlock()
		return ports.RegistrationRequest{}, fmt.Errorf("%w: submission belongs to the %s step", ErrNotReady, stepper.StepPersonalInformation)
	}
	if !o.steps.AllCompleteBefore(def.Index) {
		o.mu.Unlock()
		return ports.RegistrationRequest{}, fmt.Errorf("%w: earlier steps are incomplete", ErrNotReady)
	}
	o.schemaErrors = o.schema.Validate(o.record)
	if !o.schemaErrors.Valid() {
		errs := o.schemaErrors.Clone()
		o.touchLocked(def.Fields...)
		o.mu.Unlock()
		o.notify()
		return ports.RegistrationRequest{}, fmt.Errorf("%w: %w", ErrNotReady, errs)
	}
	if !o.submission.Begin() {
		o.mu.Unlock()
		return ports.RegistrationRequest{}, ErrOperationPending
	}
	req := BuildRequest(o.record)
	o.mu.Unlock()

	o.logger.Debug(context.Background(), "submitting registration", ports.F("serial", req.SerialNumber))
	o.notify()
	return req, nil
}

// CompleteSubmission settles a submission started with BeginSubmission.
func (o *Orchestrator) CompleteSubmission(receipt ports.RegistrationReceipt, err error) {
	o.submission.Settle(receipt, err)
}

func (o *Orchestrator) verified(details ports.BikeDetails) {
	o.mu.Lock()
	serial := details.SerialNumber
	if serial == "" {
		serial = strings.TrimSpace(o.record.SerialNumber)
	}
	o.record.ApplyBike(serial, details.ModelDescription, details.ShopName)
	delete(o.remoteErrors, registration.FieldSerialNumber)
	o.schemaErrors = o.schema.Validate(o.record)
	o.steps.MarkComplete(0, true)
	if o.steps.Index() == 0 {
		o.steps.Advance()
	}
	o.mu.Unlock()

	o.logger.Info(context.Background(), "serial number verified",
		ports.F("serial", serial),
		ports.F("model", details.ModelDescription),
	)
	o.notify()
}

func (o *Orchestrator) verificationFailed(message string, err error) {
	o.mu.Lock()
	o.remoteErrors[registration.FieldSerialNumber] = message
	o.steps.MarkComplete(0, false)
	o.mu.Unlock()

	o.logger.Warn(context.Background(), "serial number verification failed",
		ports.F("kind", errorKind(err)),
		ports.F("error", err),
	)
	o.notify()
}

func (o *Orchestrator) submitted(receipt ports.RegistrationReceipt) {
	o.mu.Lock()
	o.confirmation = &Confirmation{
		Success: receipt.Success,
		Message: receipt.Message,
		ID:      receipt.ID,
	}
	o.finishSubmissionLocked()
	email := o.record.Email
	o.mu.Unlock()

	o.logger.Info(context.Background(), "registration submitted",
		ports.F("id", receipt.ID),
		ports.F("success", receipt.Success),
		ports.F("email", registration.Fingerprint(email)),
	)
	o.notify()
}

func (o *Orchestrator) submissionFailed(message string, err error) {
	conf := &Confirmation{Message: message}
	var regErr *ports.RegistryError
	if errors.As(err, &regErr) && len(regErr.Fields) > 0 {
		conf.FieldErrors = make(map[string]string, len(regErr.Fields))
		for k, v := range regErr.Fields {
			conf.FieldErrors[k] = v
		}
	}

	o.mu.Lock()
	o.confirmation = conf
	o.finishSubmissionLocked()
	o.mu.Unlock()

	o.logger.Warn(context.Background(), "registration failed",
		ports.F("kind", errorKind(err)),
		ports.F("error", err),
	)
	o.notify()
}

// finishSubmissionLocked marks the submitting step complete and moves to the
// confirmation, whatever the submission outcome and wherever the user
// navigated while it was pending.
func (o *Orchestrator) finishSubmissionLocked() {
	o.steps.MarkComplete(o.steps.Registry().SubmitIndex(), true)
	o.steps.Finish()
}

func (o *Orchestrator) canAdvanceLocked() bool {
	def := o.steps.Current()
	switch def.Gate() {
	case stepper.GateRemote:
		return o.steps.IsComplete(def.Index)
	case stepper.GateLocal:
		if !o.stepValidLocked(def) {
			return false
		}
		if def.Submits {
			return o.steps.AllCompleteBefore(def.Index) && !o.submission.State().Pending()
		}
		return true
	default:
		return false
	}
}

func (o *Orchestrator) stepValidLocked(def stepper.Definition) bool {
	for _, f := range def.Fields {
		if _, bad := o.schemaErrors[f]; bad {
			return false
		}
		if _, bad := o.remoteErrors[f]; bad {
			return false
		}
	}
	return true
}

func (o *Orchestrator) touchLocked(fields ...registration.Field) {
	for _, f := range fields {
		o.touched[f] = true
	}
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	touched := make(map[registration.Field]bool, len(o.touched))
	for f, v := range o.touched {
		touched[f] = v
	}
	var conf *Confirmation
	if o.confirmation != nil {
		c := *o.confirmation
		conf = &c
	}

	return Snapshot{
		SessionID:    o.sessionID,
		Index:        o.steps.Index(),
		Step:         o.steps.Current(),
		Steps:        o.steps.Registry().All(),
		Completed:    o.steps.Completed(),
		Record:       o.record,
		SchemaErrors: o.schemaErrors.Clone(),
		RemoteErrors: o.remoteErrors.Clone(),
		Touched:      touched,
		CanAdvance:   o.canAdvanceLocked(),
		Verification: o.verification.State(),
		Submission:   o.submission.State(),
		Confirmation: conf,
	}
}

func (o *Orchestrator) notify() {
	o.mu.RLock()
	if len(o.listeners) == 0 {
		o.mu.RUnlock()
		return
	}
	snap := o.snapshotLocked()
	listeners := make([]func(Snapshot), 0, len(o.listeners))
	for _, fn := range o.listeners {
		listeners = append(listeners, fn)
	}
	o.mu.RUnlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

func errorKind(err error) string {
	var regErr *ports.RegistryError
	if errors.As(err, &regErr) {
		return string(regErr.Kind)
	}
	return string(ports.KindServer)
}
