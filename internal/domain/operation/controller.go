// Package operation models the lifecycle of a user-triggered network call:
// idle, pending, then succeeded or failed, with re-triggering allowed once
// settled.
package operation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/felixgeelhaar/bikereg/internal/ports"
	"github.com/felixgeelhaar/statekit"
)

// Status is the lifecycle state of an operation.
type Status string

// Operation states. They are also the state names of the lifecycle machine.
const (
	StatusIdle      Status = "idle"
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Lifecycle machine states, matching the Status values.
const (
	stateIdle      = "idle"
	statePending   = "pending"
	stateSucceeded = "succeeded"
	stateFailed    = "failed"
)

// Events of the lifecycle machine.
const (
	EventTrigger = "TRIGGER"
	EventResolve = "RESOLVE"
	EventReject  = "REJECT"
)

// Fallback messages used when a failure carries no display message.
const (
	FallbackVerification = "Failed to verify serial number"
	FallbackRegistration = "Registration failed. Please try again."
)

// ErrPending is returned when an operation is triggered while a call is in flight.
var ErrPending = errors.New("operation already pending")

// Lifecycle is the lifecycle machine context.
type Lifecycle struct {
	Attempts int
}

// State is a point-in-time view of a controller.
type State[T any] struct {
	Status   Status
	Value    T      // Set when Status is succeeded
	Message  string // Set when Status is failed
	Err      error  // Underlying failure, when Status is failed
	Attempts int
}

// Pending reports whether a call is in flight.
func (s State[T]) Pending() bool { return s.Status == StatusPending }

// Succeeded reports whether the last call succeeded.
func (s State[T]) Succeeded() bool { return s.Status == StatusSucceeded }

// Failed reports whether the last call failed.
func (s State[T]) Failed() bool { return s.Status == StatusFailed }

// Controller wraps one network-bound action. At most one call is in flight
// per controller; failures never propagate past it and are exposed as a
// failed status with a display message.
type Controller[T any] struct {
	name     string
	fallback string

	mu        sync.Mutex
	interp    *statekit.Interpreter[Lifecycle]
	lifecycle *Lifecycle
	value     T
	message   string
	err       error

	onSuccess func(T)
	onFailure func(message string, err error)
}

// NewController creates an idle controller. fallback is the failure message
// used when an error carries none.
func NewController[T any](name, fallback string) (*Controller[T], error) {
	lifecycle := &Lifecycle{}
	interp, err := buildLifecycleMachine(lifecycle)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s lifecycle: %w", name, err)
	}
	interp.Start()

	return &Controller[T]{
		name:      name,
		fallback:  fallback,
		interp:    interp,
		lifecycle: lifecycle,
	}, nil
}

func buildLifecycleMachine(lifecycle *Lifecycle) (*statekit.Interpreter[Lifecycle], error) {
	machine, err := statekit.NewMachine[Lifecycle]("async-operation").
		WithInitial(stateIdle).
		WithContext(Lifecycle{}).
		WithAction("countAttempt", func(_ *Lifecycle, _ statekit.Event) {
			lifecycle.Attempts++
		}).
		State(stateIdle).
		On(EventTrigger).Target(statePending).Done().
		// No TRIGGER while pending: one call in flight at a time.
		State(statePending).
		OnEntry("countAttempt").
		On(EventResolve).Target(stateSucceeded).
		On(EventReject).Target(stateFailed).Done().
		State(stateSucceeded).
		On(EventTrigger).Target(statePending).Done().
		State(stateFailed).
		On(EventTrigger).Target(statePending).Done().
		Build()
	if err != nil {
		return nil, err
	}
	return statekit.NewInterpreter(machine), nil
}

// OnSuccess registers the hook run after a call succeeds.
func (c *Controller[T]) OnSuccess(fn func(T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSuccess = fn
}

// OnFailure registers the hook run after a call fails.
func (c *Controller[T]) OnFailure(fn func(message string, err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFailure = fn
}

// Name returns the controller name.
func (c *Controller[T]) Name() string {
	return c.name
}

// Status returns the current lifecycle status.
func (c *Controller[T]) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status()
}

// State returns a snapshot of the controller.
func (c *Controller[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := State[T]{Status: c.status(), Attempts: c.lifecycle.Attempts}
	switch st.Status {
	case StatusSucceeded:
		st.Value = c.value
	case StatusFailed:
		st.Message = c.message
		st.Err = c.err
	}
	return st
}

// Begin moves the controller to pending. It returns false, leaving the
// controller untouched, when a call is already in flight.
func (c *Controller[T]) Begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status() == StatusPending {
		return false
	}
	c.interp.Send(statekit.Event{Type: EventTrigger})
	return c.status() == StatusPending
}

// Settle resolves the in-flight call with its result and runs the matching
// hook. It returns false when no call was pending.
func (c *Controller[T]) Settle(value T, err error) bool {
	c.mu.Lock()
	if c.status() != StatusPending {
		c.mu.Unlock()
		return false
	}

	var zero T
	if err == nil {
		c.value = value
		c.message = ""
		c.err = nil
		c.interp.Send(statekit.Event{Type: EventResolve, Payload: value})
	} else {
		c.value = zero
		c.message = ports.ErrorMessage(err, c.fallback)
		c.err = err
		c.interp.Send(statekit.Event{Type: EventReject, Payload: c.message})
	}
	onSuccess, onFailure, message := c.onSuccess, c.onFailure, c.message
	c.mu.Unlock()

	// Hooks run unlocked so they may read the controller.
	if err == nil {
		if onSuccess != nil {
			onSuccess(value)
		}
	} else if onFailure != nil {
		onFailure(message, err)
	}
	return true
}

// Run begins the operation, performs call and settles with its result.
// It returns ErrPending without calling when a call is already in flight.
func (c *Controller[T]) Run(ctx context.Context, call func(context.Context) (T, error)) (T, error) {
	var zero T
	if !c.Begin() {
		return zero, ErrPending
	}
	value, err := call(ctx)
	c.Settle(value, err)
	return value, err
}

// Stop releases the lifecycle machine.
func (c *Controller[T]) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interp.Stop()
}

func (c *Controller[T]) status() Status {
	return Status(c.interp.State().Value)
}
