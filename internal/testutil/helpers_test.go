package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTempFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := WriteTempFile(t, dir, "bikereg.yaml", "log:\n  level: debug\n")

	assert.Equal(t, filepath.Join(dir, "bikereg.yaml"), path)
	AssertFileContains(t, path, "level: debug")
}

func TestLoadFixture(t *testing.T) {
	t.Parallel()

	assert.Contains(t, string(LoadFixture(t, "bikereg.yaml")), "base_url:")
	assert.Contains(t, string(LoadFixture(t, "record.yaml")), "STM34D30L24110132N")
}

func TestWriteFixtureToDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := WriteFixtureToDir(t, dir, "record.yaml", "input.yaml")

	assert.Equal(t, string(LoadFixture(t, "record.yaml")), readFile(t, path))
}

func TestChangeDir(t *testing.T) {
	dir := t.TempDir()
	ChangeDir(t, dir)

	wd, err := os.Getwd()
	require.NoError(t, err)

	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	actual, err := filepath.EvalSymlinks(wd)
	require.NoError(t, err)
	assert.Equal(t, resolved, actual)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
