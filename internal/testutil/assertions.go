package testutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// AssertFileContains asserts that a file contains the expected substring.
func AssertFileContains(t testing.TB, path, expected string, msgAndArgs ...interface{}) {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read file: %s", path)

	assert.Contains(t, string(content), expected, msgAndArgs...)
}

// AssertYAMLEquals asserts that two YAML strings are semantically equal.
func AssertYAMLEquals(t testing.TB, expected, actual string, msgAndArgs ...interface{}) {
	t.Helper()

	var expectedMap, actualMap interface{}

	require.NoError(t, yaml.Unmarshal([]byte(expected), &expectedMap), "failed to parse expected YAML")
	require.NoError(t, yaml.Unmarshal([]byte(actual), &actualMap), "failed to parse actual YAML")

	assert.Equal(t, expectedMap, actualMap, msgAndArgs...)
}

// AssertFieldError asserts that errs holds exactly message for field.
// errs is keyed by field name as in ValidationErrors or Confirmation.FieldErrors.
func AssertFieldError[K ~string](t testing.TB, errs map[K]string, field K, message string) {
	t.Helper()

	got, ok := errs[field]
	if !assert.True(t, ok, "expected an error for %q, got %v", field, errs) {
		return
	}
	assert.Equal(t, message, got)
}

// AssertErrorContains asserts that err contains the expected message.
func AssertErrorContains(t testing.TB, err error, expected string, msgAndArgs ...interface{}) {
	t.Helper()

	require.Error(t, err)
	assert.Contains(t, err.Error(), expected, msgAndArgs...)
}
