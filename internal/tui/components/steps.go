package components

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/bikereg/internal/domain/stepper"
	"github.com/felixgeelhaar/bikereg/internal/tui/ui"
)

// Step indicator marks.
const (
	markDone    = "✓"
	markActive  = "●"
	markPending = "○"
)

// StepIndicator renders the workflow steps with their completion marks.
type StepIndicator struct {
	steps     []stepper.Definition
	completed []bool
	current   int
	styles    ui.Styles
}

// NewStepIndicator creates an indicator for the given steps.
func NewStepIndicator(steps []stepper.Definition) StepIndicator {
	return StepIndicator{
		steps:     steps,
		completed: make([]bool, len(steps)),
		styles:    ui.DefaultStyles(),
	}
}

// SetState updates the current step and the completion flags.
func (s StepIndicator) SetState(current int, completed []bool) StepIndicator {
	s.current = current
	s.completed = append([]bool(nil), completed...)
	return s
}

// Current returns the index of the active step.
func (s StepIndicator) Current() int {
	return s.current
}

// Position returns the "Step n of m" caption.
func (s StepIndicator) Position() string {
	return fmt.Sprintf("Step %d of %d", s.current+1, len(s.steps))
}

// View renders every step title with its mark on one line.
func (s StepIndicator) View() string {
	parts := make([]string, 0, len(s.steps))
	for i, def := range s.steps {
		done := i < len(s.completed) && s.completed[i]
		switch {
		case i == s.current:
			mark := markActive
			if done {
				mark = markDone
			}
			parts = append(parts, s.styles.StepActive.Render(mark+" "+def.Title))
		case done:
			parts = append(parts, s.styles.StepDone.Render(markDone+" "+def.Title))
		default:
			parts = append(parts, s.styles.StepPending.Render(markPending+" "+def.Title))
		}
	}
	return strings.Join(parts, s.styles.StepPending.Render("  ›  "))
}
