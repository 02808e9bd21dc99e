package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/bikereg/internal/domain/registration"
)

func TestRecordBuilder_DefaultIsValid(t *testing.T) {
	t.Parallel()

	schema := registration.NewSchema(registration.WithClock(func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}))

	record := NewRecordBuilder().Build()
	assert.True(t, schema.Validate(record).Valid())
	assert.Equal(t, SparkSerial, record.SerialNumber)
}

func TestRecordBuilder_Overrides(t *testing.T) {
	t.Parallel()

	record := NewRecordBuilder().
		WithSerial("ABC").
		WithName("Max", "Muster").
		WithEmail("max@example.ch").
		WithCountry("DE").
		WithConsent(false).
		WithNewsOptIn(true).
		WithPurchaseDate(time.Time{}).
		Build()

	assert.Equal(t, "ABC", record.SerialNumber)
	assert.Equal(t, "Max", record.FirstName)
	assert.Equal(t, "Muster", record.LastName)
	assert.Equal(t, "max@example.ch", record.Email)
	assert.Equal(t, "DE", record.Country)
	assert.False(t, record.Consent)
	assert.True(t, record.NewsOptIn)
	assert.True(t, record.DateOfPurchase.IsZero())
}

func TestRecordBuilder_ToYAML(t *testing.T) {
	t.Parallel()

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(NewRecordBuilder().ToYAML()), &decoded))

	assert.Equal(t, SparkSerial, decoded["serialNumber"])
	assert.Equal(t, true, decoded["consent"])
	assert.NotContains(t, decoded, "modelDescription")

	out := NewRecordBuilder().WithPurchaseDate(time.Time{}).ToYAML()
	assert.NotContains(t, out, "dateOfPurchase")
}
