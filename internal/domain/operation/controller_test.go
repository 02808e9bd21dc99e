package operation

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/felixgeelhaar/bikereg/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newController(t *testing.T) *Controller[string] {
	t.Helper()
	c, err := NewController[string]("verification", FallbackVerification)
	require.NoError(t, err)
	t.Cleanup(c.Stop)
	return c
}

func TestController_StartsIdle(t *testing.T) {
	t.Parallel()

	c := newController(t)
	st := c.State()
	assert.Equal(t, StatusIdle, st.Status)
	assert.Zero(t, st.Attempts)
	assert.Equal(t, "verification", c.Name())
}

func TestController_Success(t *testing.T) {
	t.Parallel()

	c := newController(t)
	var got string
	c.OnSuccess(func(v string) { got = v })
	c.OnFailure(func(string, error) { t.Fatal("failure hook must not run") })

	require.True(t, c.Begin())
	assert.True(t, c.State().Pending())

	require.True(t, c.Settle("bike", nil))
	st := c.State()
	assert.True(t, st.Succeeded())
	assert.Equal(t, "bike", st.Value)
	assert.Equal(t, "bike", got)
	assert.Equal(t, 1, st.Attempts)
}

func TestController_FailureUsesRegistryMessage(t *testing.T) {
	t.Parallel()

	c := newController(t)
	var msg string
	var cause error
	c.OnFailure(func(m string, err error) { msg, cause = m, err })

	regErr := ports.NewRegistryError(ports.KindNotFound, http.StatusNotFound, "Your Serial Number is wrong. Please check and try again.")
	require.True(t, c.Begin())
	require.True(t, c.Settle("", regErr))

	st := c.State()
	assert.True(t, st.Failed())
	assert.Equal(t, "Your Serial Number is wrong. Please check and try again.", st.Message)
	assert.Equal(t, msg, st.Message)
	assert.True(t, errors.Is(cause, ports.ErrNotFound))
}

func TestController_FailureFallback(t *testing.T) {
	t.Parallel()

	c := newController(t)
	require.True(t, c.Begin())
	require.True(t, c.Settle("", errors.New("connection refused")))

	assert.Equal(t, FallbackVerification, c.State().Message)
}

func TestController_RejectsSecondBeginWhilePending(t *testing.T) {
	t.Parallel()

	c := newController(t)
	require.True(t, c.Begin())
	assert.False(t, c.Begin())
	assert.Equal(t, StatusPending, c.Status())
	assert.Equal(t, 1, c.State().Attempts)
}

func TestController_SettleWithoutBeginIsIgnored(t *testing.T) {
	t.Parallel()

	c := newController(t)
	assert.False(t, c.Settle("late", nil))
	assert.Equal(t, StatusIdle, c.Status())
}

func TestController_RetriggerAfterSettle(t *testing.T) {
	t.Parallel()

	c := newController(t)

	require.True(t, c.Begin())
	c.Settle("", errors.New("boom"))
	require.True(t, c.Begin(), "failed operations can be retried")
	c.Settle("ok", nil)
	require.True(t, c.Begin(), "succeeded operations can be re-triggered")

	st := c.State()
	assert.True(t, st.Pending())
	assert.Empty(t, st.Value)
	assert.Equal(t, 3, st.Attempts)
}

func TestController_Run(t *testing.T) {
	t.Parallel()

	c := newController(t)
	calls := 0

	v, err := c.Run(context.Background(), func(context.Context) (string, error) {
		calls++
		return "done", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "done", v)
	assert.True(t, c.State().Succeeded())

	require.True(t, c.Begin())
	_, err = c.Run(context.Background(), func(context.Context) (string, error) {
		calls++
		return "", nil
	})
	assert.ErrorIs(t, err, ErrPending)
	assert.Equal(t, 1, calls)
}

func TestController_HooksMayReadController(t *testing.T) {
	t.Parallel()

	c := newController(t)
	var seen Status
	c.OnSuccess(func(string) { seen = c.Status() })

	_, _ = c.Run(context.Background(), func(context.Context) (string, error) { return "x", nil })
	assert.Equal(t, StatusSucceeded, seen)
}
