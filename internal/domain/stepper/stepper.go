package stepper

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Events of the step machine.
const (
	EventNext   = "NEXT"
	EventBack   = "BACK"
	EventFinish = "FINISH"
)

// Trail is the step machine context: the step IDs entered, in order.
type Trail struct {
	Visited []string
}

// Stepper is the finite-state position tracker of the workflow. The position
// lives in a statekit machine; the completion map is kept alongside it and
// only changes through MarkComplete.
//
// A Stepper is not safe for concurrent use; the workflow orchestrator
// serializes access to it.
type Stepper struct {
	registry  *Registry
	interp    *statekit.Interpreter[Trail]
	trail     *Trail
	completed []bool
}

// New creates a stepper positioned on the first step with nothing completed.
func New(registry *Registry) (*Stepper, error) {
	if registry == nil {
		registry = DefaultRegistry()
	}
	for i, id := range []string{StepSerialNumber, StepBikeInformation, StepPersonalInformation, StepConfirmation} {
		d, ok := registry.At(i)
		if !ok || d.ID != id {
			return nil, fmt.Errorf("step registry does not match the registration flow at index %d", i)
		}
	}
	if registry.Len() != 4 {
		return nil, fmt.Errorf("step registry has %d steps, want 4", registry.Len())
	}

	trail := &Trail{}
	interp, err := buildStepMachine(trail)
	if err != nil {
		return nil, fmt.Errorf("failed to build step machine: %w", err)
	}
	interp.Start()
	if len(trail.Visited) == 0 {
		trail.Visited = append(trail.Visited, StepSerialNumber)
	}

	return &Stepper{
		registry:  registry,
		interp:    interp,
		trail:     trail,
		completed: make([]bool, registry.Len()),
	}, nil
}

// buildStepMachine constructs the linear step machine. The trail pointer is
// captured by the entry action so visits are recorded on the caller's copy.
func buildStepMachine(trail *Trail) (*statekit.Interpreter[Trail], error) {
	machine, err := statekit.NewMachine[Trail]("bike-registration-steps").
		WithInitial(StepSerialNumber).
		WithContext(Trail{}).
		WithAction("recordVisit", func(_ *Trail, event statekit.Event) {
			if id, ok := event.Payload.(string); ok {
				trail.Visited = append(trail.Visited, id)
			}
		}).
		State(StepSerialNumber).
		OnEntry("recordVisit").
		On(EventNext).Target(StepBikeInformation).
		On(EventFinish).Target(StepConfirmation).Done().
		State(StepBikeInformation).
		OnEntry("recordVisit").
		On(EventNext).Target(StepPersonalInformation).
		On(EventBack).Target(StepSerialNumber).
		On(EventFinish).Target(StepConfirmation).Done().
		State(StepPersonalInformation).
		OnEntry("recordVisit").
		On(EventNext).Target(StepConfirmation).
		On(EventBack).Target(StepBikeInformation).
		On(EventFinish).Target(StepConfirmation).Done().
		State(StepConfirmation).
		OnEntry("recordVisit").
		On(EventBack).Target(StepPersonalInformation).Done().
		Build()
	if err != nil {
		return nil, err
	}
	return statekit.NewInterpreter(machine), nil
}

// Index returns the current step index.
func (s *Stepper) Index() int {
	idx, ok := s.registry.IndexOf(string(s.interp.State().Value))
	if !ok {
		return 0
	}
	return idx
}

// Current returns the definition of the current step.
func (s *Stepper) Current() Definition {
	d, _ := s.registry.At(s.Index())
	return d
}

// Registry returns the step registry.
func (s *Stepper) Registry() *Registry {
	return s.registry
}

// Len returns the number of steps.
func (s *Stepper) Len() int {
	return len(s.completed)
}

// IsComplete reports whether step i is complete. Out-of-range indices are never complete.
func (s *Stepper) IsComplete(i int) bool {
	if i < 0 || i >= len(s.completed) {
		return false
	}
	return s.completed[i]
}

// Completed returns a copy of the completion map.
func (s *Stepper) Completed() []bool {
	return append([]bool(nil), s.completed...)
}

// AllCompleteBefore reports whether every step before i is complete.
func (s *Stepper) AllCompleteBefore(i int) bool {
	for j := 0; j < i && j < len(s.completed); j++ {
		if !s.completed[j] {
			return false
		}
	}
	return true
}

// MarkComplete sets the completion flag of step i. It is idempotent and
// ignores out-of-range indices.
func (s *Stepper) MarkComplete(i int, value bool) {
	if i < 0 || i >= len(s.completed) {
		return
	}
	s.completed[i] = value
}

// Advance moves one step forward if the current step is complete and is not
// the last one. It reports whether the position changed.
func (s *Stepper) Advance() bool {
	from := s.Index()
	if !s.IsComplete(from) || from >= s.Len()-1 {
		return false
	}
	return s.send(EventNext, from+1)
}

// Retreat moves one step back if not on the first step. Completion is untouched.
func (s *Stepper) Retreat() bool {
	from := s.Index()
	if from == 0 {
		return false
	}
	return s.send(EventBack, from-1)
}

// Finish moves to the last step from any position once the submitting step
// is complete. It reports whether the position changed.
func (s *Stepper) Finish() bool {
	last := s.Len() - 1
	if s.Index() == last || !s.IsComplete(s.registry.SubmitIndex()) {
		return false
	}
	return s.send(EventFinish, last)
}

// Visited returns the step IDs entered since the stepper started, in order.
func (s *Stepper) Visited() []string {
	return append([]string(nil), s.trail.Visited...)
}

// Stop releases the step machine.
func (s *Stepper) Stop() {
	s.interp.Stop()
}

func (s *Stepper) send(event string, to int) bool {
	from := s.Index()
	target, _ := s.registry.At(to)
	s.interp.Send(statekit.Event{Type: statekit.EventType(event), Payload: target.ID})
	return s.Index() != from
}
