// Package mocks provides test doubles for testing.
package mocks

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/felixgeelhaar/bikereg/internal/ports"
)

// Messages returned by BikeRegistry for unknown serial numbers.
const (
	NotFoundMessage = "Your Serial Number is wrong. Please check and try again."
)

// RegisterCall records one Register invocation.
type RegisterCall struct {
	Request ports.RegistrationRequest
	Options ports.CallOptions
}

// BikeRegistry is a thread-safe test double for ports.BikeRegistryPort.
// Serial numbers match case-insensitively after trimming.
type BikeRegistry struct {
	mu            sync.RWMutex
	bikes         map[string]ports.BikeDetails
	verifyErr     error
	receipt       ports.RegistrationReceipt
	registerErr   error
	verifyCalls   []string
	registerCalls []RegisterCall
}

// NewBikeRegistry creates a BikeRegistry whose registrations succeed.
func NewBikeRegistry() *BikeRegistry {
	return &BikeRegistry{
		bikes: make(map[string]ports.BikeDetails),
		receipt: ports.RegistrationReceipt{
			Success: true,
			ID:      "reg-1",
			Message: "Your bike has been registered.",
		},
	}
}

// AddBike registers a bike that VerifySerial will find.
func (m *BikeRegistry) AddBike(bike ports.BikeDetails) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bikes[normalize(bike.SerialNumber)] = bike
}

// FailVerification makes every VerifySerial call return err.
func (m *BikeRegistry) FailVerification(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifyErr = err
}

// SetReceipt sets the receipt returned by successful registrations.
func (m *BikeRegistry) SetReceipt(receipt ports.RegistrationReceipt) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receipt = receipt
}

// FailRegistration makes every Register call return err.
func (m *BikeRegistry) FailRegistration(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registerErr = err
}

// VerifySerial looks up a registered bike.
func (m *BikeRegistry) VerifySerial(_ context.Context, serialNumber string) (ports.BikeDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifyCalls = append(m.verifyCalls, serialNumber)

	if m.verifyErr != nil {
		return ports.BikeDetails{}, m.verifyErr
	}
	if strings.TrimSpace(serialNumber) == "" {
		return ports.BikeDetails{}, ports.NewRegistryError(ports.KindValidation, http.StatusBadRequest, "serialNumber is required")
	}
	bike, ok := m.bikes[normalize(serialNumber)]
	if !ok {
		return ports.BikeDetails{}, ports.NewRegistryError(ports.KindNotFound, http.StatusNotFound, NotFoundMessage)
	}
	return bike, nil
}

// Register records the request and returns the configured outcome.
func (m *BikeRegistry) Register(_ context.Context, req ports.RegistrationRequest, opts ports.CallOptions) (ports.RegistrationReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registerCalls = append(m.registerCalls, RegisterCall{Request: req, Options: opts})

	if m.registerErr != nil {
		return ports.RegistrationReceipt{}, m.registerErr
	}
	return m.receipt, nil
}

// VerifyCalls returns the serial numbers passed to VerifySerial.
func (m *BikeRegistry) VerifyCalls() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.verifyCalls...)
}

// RegisterCalls returns the recorded Register invocations.
func (m *BikeRegistry) RegisterCalls() []RegisterCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RegisterCall(nil), m.registerCalls...)
}

func normalize(serial string) string {
	return strings.ToUpper(strings.TrimSpace(serial))
}

var _ ports.BikeRegistryPort = (*BikeRegistry)(nil)
