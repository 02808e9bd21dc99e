package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/bikereg/internal/testutil"
	"github.com/felixgeelhaar/bikereg/internal/validation"
)

func TestVerifyCommand(t *testing.T) {
	fb := newFakeBackend(t)
	cfg := writeConfig(t, t.TempDir(), fb)

	out, err := executeCommand(t, "verify", testutil.SparkSerial, "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "Serial number verified")
	assert.Contains(t, out, testutil.SparkModel)
	assert.Contains(t, out, testutil.SparkShop)
}

func TestVerifyCommand_UnknownSerial(t *testing.T) {
	fb := newFakeBackend(t)
	cfg := writeConfig(t, t.TempDir(), fb)

	_, err := executeCommand(t, "verify", "UNKNOWN123", "--config", cfg)
	require.Error(t, err)
	assert.Equal(t, "Your Serial Number is wrong. Please check and try again.", err.Error())
}

func TestVerifyCommand_InvalidSerial(t *testing.T) {
	_, err := executeCommand(t, "verify", "STM;ls")
	assert.ErrorIs(t, err, validation.ErrInvalidSerial)
}

func TestVerifyCommand_RequiresSerial(t *testing.T) {
	_, err := executeCommand(t, "verify")
	assert.Error(t, err)
}
