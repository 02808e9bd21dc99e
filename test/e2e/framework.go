// Package e2e provides end-to-end testing utilities for the bikereg CLI.
package e2e

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// Harness runs the bikereg binary against a local registration backend.
type Harness struct {
	T            *testing.T
	BinaryPath   string
	WorkDir      string
	Backend      *Backend
	EnvVars      map[string]string
	Timeout      time.Duration
	LastOutput   string
	LastError    string
	LastExitCode int
}

// NewHarness creates a new end-to-end test harness.
// It builds the bikereg binary if needed.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	backend := NewBackend(t)

	return &Harness{
		T:          t,
		BinaryPath: getBinary(t),
		WorkDir:    t.TempDir(),
		Backend:    backend,
		EnvVars: map[string]string{
			"BIKEREG_BACKEND_URL": backend.URL + "/api",
			"BIKEREG_LOG_LEVEL":   "error",
		},
		Timeout: 30 * time.Second,
	}
}

// getBinary returns the path to the bikereg binary.
// BIKEREG_BINARY points at a prebuilt one; otherwise it is built.
func getBinary(t *testing.T) string {
	t.Helper()

	if path := os.Getenv("BIKEREG_BINARY"); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	binaryPath := filepath.Join(t.TempDir(), "bikereg-test")

	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/bikereg")
	cmd.Dir = findProjectRoot(t)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.Fatalf("failed to build bikereg binary: %v\n%s", err, stderr.String())
	}

	return binaryPath
}

// findProjectRoot walks up from the working directory to go.mod.
func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("could not find project root (no go.mod found)")
		}
		dir = parent
	}
}

// WithEnv sets an environment variable for commands.
func (h *Harness) WithEnv(key, value string) *Harness {
	h.EnvVars[key] = value
	return h
}

// Run executes a bikereg command and returns the exit code.
func (h *Harness) Run(args ...string) int {
	h.T.Helper()

	cmd := exec.Command(h.BinaryPath, args...)
	cmd.Dir = h.WorkDir
	cmd.Env = append(os.Environ(), fmt.Sprintf("HOME=%s", h.WorkDir))
	for k, v := range h.EnvVars {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	done := make(chan error, 1)
	go func() {
		done <- cmd.Run()
	}()

	select {
	case err := <-done:
		h.LastOutput = stdout.String()
		h.LastError = stderr.String()
		h.LastExitCode = 0
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				h.LastExitCode = exitErr.ExitCode()
			} else {
				h.LastExitCode = -1
			}
		}
	case <-time.After(h.Timeout):
		_ = cmd.Process.Kill()
		h.T.Fatalf("command timed out after %v: %v", h.Timeout, args)
	}

	return h.LastExitCode
}

// RunSuccess executes a command and expects it to succeed.
func (h *Harness) RunSuccess(args ...string) string {
	h.T.Helper()

	if code := h.Run(args...); code != 0 {
		h.T.Fatalf("command failed with exit code %d: %v\nOutput: %s\nStderr: %s",
			code, args, h.LastOutput, h.LastError)
	}
	return h.LastOutput
}

// RunFail executes a command and expects it to fail.
func (h *Harness) RunFail(args ...string) string {
	h.T.Helper()

	if h.Run(args...) == 0 {
		h.T.Fatalf("command succeeded but expected failure: %v\nOutput: %s", args, h.LastOutput)
	}
	return h.LastOutput + h.LastError
}

// CreateFile writes a file in the working directory and returns its path.
func (h *Harness) CreateFile(relativePath, content string) string {
	h.T.Helper()

	path := filepath.Join(h.WorkDir, relativePath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		h.T.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		h.T.Fatalf("failed to write file %s: %v", path, err)
	}
	return path
}

// ReadFile reads a file from the working directory.
func (h *Harness) ReadFile(relativePath string) string {
	h.T.Helper()

	content, err := os.ReadFile(filepath.Join(h.WorkDir, relativePath))
	if err != nil {
		h.T.Fatalf("failed to read file %s: %v", relativePath, err)
	}
	return string(content)
}

// AssertOutputContains asserts the last output contains a string.
func (h *Harness) AssertOutputContains(s string) {
	h.T.Helper()

	if !strings.Contains(h.LastOutput, s) && !strings.Contains(h.LastError, s) {
		h.T.Errorf("expected output to contain %q, got:\n%s", s, h.LastOutput+h.LastError)
	}
}

// Backend is an in-process registration API that knows a fixed set of
// serial numbers.
type Backend struct {
	*httptest.Server

	mu          sync.Mutex
	bikes       map[string][2]string
	registered  map[string]bool
	submissions int
}

// NewBackend starts a backend that is closed with the test.
func NewBackend(t *testing.T) *Backend {
	t.Helper()

	b := &Backend{
		bikes:      make(map[string][2]string),
		registered: make(map[string]bool),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/verify-serial-number", b.verify)
	mux.HandleFunc("/api/register", b.register)
	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Close)
	return b
}

// AddBike makes a serial number known to the backend.
func (b *Backend) AddBike(serial, model, shop string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bikes[strings.ToUpper(serial)] = [2]string{model, shop}
}

// Submissions returns how many registrations were posted.
func (b *Backend) Submissions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.submissions
}

func (b *Backend) verify(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SerialNumber string `json:"serialNumber"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	serial := strings.ToUpper(strings.TrimSpace(body.SerialNumber))

	b.mu.Lock()
	bike, ok := b.bikes[serial]
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Your Serial Number is wrong. Please check and try again.","status_code":404}`))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"data": map[string]string{
			"serialNumber":     serial,
			"modelDescription": bike[0],
			"shopName":         bike[1],
		},
		"status_code": http.StatusOK,
	})
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SerialNumber string `json:"serialNumber"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	serial := strings.ToUpper(body.SerialNumber)

	b.mu.Lock()
	b.submissions++
	duplicate := b.registered[serial]
	b.registered[serial] = true
	n := b.submissions
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if duplicate {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"This bike is already registered","errors":{"serialNumber":"already registered"}}`))
		return
	}
	_, _ = fmt.Fprintf(w, `{"success":true,"id":"reg-%d","message":"Your bike has been registered."}`, n)
}
