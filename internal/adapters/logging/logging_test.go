package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/bikereg/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleLogger_TextOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	fixed := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	logger := NewConsoleLogger(
		WithOutput(&buf),
		WithLevel(ports.LevelDebug),
		WithClock(func() time.Time { return fixed }),
	)

	logger.Info(context.Background(), "serial verified", ports.F("step", 0), ports.F("serial", "STM34D30L24110132N"))

	assert.Equal(t, "09:26:53 [INFO] serial verified step=0 serial=STM34D30L24110132N\n", buf.String())
}

func TestConsoleLogger_JSONOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewConsoleLogger(
		WithOutput(&buf),
		WithJSONFormat(true),
		WithTimestamp(false),
	)

	logger.Warn(context.Background(), "verification failed", ports.F("error", errors.New("not found")))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "verification failed", entry["msg"])
	assert.Equal(t, "not found", entry["error"])
	assert.NotContains(t, entry, "time")
}

func TestConsoleLogger_LevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewConsoleLogger(
		WithOutput(&buf),
		WithLevel(ports.LevelWarn),
		WithTimestamp(false),
	)
	ctx := context.Background()

	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	assert.Empty(t, buf.String())

	logger.Warn(ctx, "warn message")
	assert.Contains(t, buf.String(), "warn message")

	buf.Reset()
	logger.SetLevel(ports.LevelDebug)
	logger.Debug(ctx, "debug again")
	assert.Contains(t, buf.String(), "debug again")
}

func TestConsoleLogger_With(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewConsoleLogger(
		WithOutput(&buf),
		WithTimestamp(false),
		WithLevelLabel(false),
	)
	ctx := context.Background()

	session := logger.With(ports.F("session", "abc"))
	session.Info(ctx, "step advanced", ports.F("to", 1))
	logger.Info(ctx, "plain")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Equal(t, "step advanced session=abc to=1", string(lines[0]))
	assert.Equal(t, "plain", string(lines[1]))
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    ports.Level
		wantErr bool
	}{
		{"debug", ports.LevelDebug, false},
		{"INFO", ports.LevelInfo, false},
		{"", ports.LevelInfo, false},
		{"warning", ports.LevelWarn, false},
		{" error ", ports.LevelError, false},
		{"verbose", ports.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ports.ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevel_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "DEBUG", ports.LevelDebug.String())
	assert.Equal(t, "ERROR", ports.LevelError.String())
	assert.Equal(t, "UNKNOWN", ports.Level(99).String())
}

func TestLoggerContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.Nil(t, ports.LoggerFromContext(ctx))

	logger := NewConsoleLogger()
	assert.Same(t, logger, ports.LoggerFromContext(ports.ContextWithLogger(ctx, logger)))
}
