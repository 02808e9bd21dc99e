package mocks

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/felixgeelhaar/bikereg/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBikeRegistry_VerifySerial(t *testing.T) {
	t.Parallel()

	reg := NewBikeRegistry()
	reg.AddBike(ports.BikeDetails{SerialNumber: "STM34D30L24110132N", ModelDescription: "Spark", ShopName: "Shop"})

	bike, err := reg.VerifySerial(context.Background(), " stm34d30l24110132n ")
	require.NoError(t, err)
	assert.Equal(t, "Spark", bike.ModelDescription)

	_, err = reg.VerifySerial(context.Background(), "UNKNOWN123")
	assert.True(t, errors.Is(err, ports.ErrNotFound))
	assert.Equal(t, NotFoundMessage, err.Error())

	_, err = reg.VerifySerial(context.Background(), "  ")
	assert.True(t, errors.Is(err, ports.ErrValidation))

	assert.Len(t, reg.VerifyCalls(), 3)
}

func TestBikeRegistry_Register(t *testing.T) {
	t.Parallel()

	reg := NewBikeRegistry()
	receipt, err := reg.Register(context.Background(), ports.RegistrationRequest{SerialNumber: "A"}, ports.CallOptions{IdempotencyKey: "k"})
	require.NoError(t, err)
	assert.True(t, receipt.Success)

	reg.FailRegistration(ports.NewRegistryError(ports.KindServer, 500, "down"))
	_, err = reg.Register(context.Background(), ports.RegistrationRequest{}, ports.CallOptions{})
	assert.True(t, errors.Is(err, ports.ErrServer))

	calls := reg.RegisterCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "k", calls[0].Options.IdempotencyKey)
}

func TestBikeRegistry_ThreadSafety(t *testing.T) {
	t.Parallel()

	reg := NewBikeRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = reg.VerifySerial(context.Background(), "X")
			_ = reg.VerifyCalls()
		}()
	}
	wg.Wait()

	assert.Len(t, reg.VerifyCalls(), 50)
}
