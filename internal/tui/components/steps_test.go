package components

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/felixgeelhaar/bikereg/internal/domain/stepper"
)

func TestStepIndicator(t *testing.T) {
	t.Parallel()

	steps := stepper.DefaultRegistry().All()
	indicator := NewStepIndicator(steps)

	assert.Equal(t, 0, indicator.Current())
	assert.Equal(t, "Step 1 of 4", indicator.Position())

	view := indicator.View()
	assert.Contains(t, view, markActive+" Serial number")
	assert.Contains(t, view, markPending+" Bike information")

	indicator = indicator.SetState(2, []bool{true, true, false, false})
	assert.Equal(t, "Step 3 of 4", indicator.Position())

	view = indicator.View()
	assert.Contains(t, view, markDone+" Serial number")
	assert.Contains(t, view, markDone+" Bike information")
	assert.Contains(t, view, markActive+" Personal information")
	assert.Contains(t, view, markPending+" Registration confirmation")
}

func TestStepIndicator_CompletedCurrentStep(t *testing.T) {
	t.Parallel()

	indicator := NewStepIndicator(stepper.DefaultRegistry().All()).
		SetState(0, []bool{true, false, false, false})

	assert.Contains(t, indicator.View(), markDone+" Serial number")
}

func TestStepIndicator_SetStateCopies(t *testing.T) {
	t.Parallel()

	completed := []bool{true, false, false, false}
	indicator := NewStepIndicator(stepper.DefaultRegistry().All()).SetState(1, completed)
	completed[0] = false

	assert.Contains(t, indicator.View(), markDone+" Serial number")
}
