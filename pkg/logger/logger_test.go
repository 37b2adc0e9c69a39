package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-t1/backend/pkg/config"
)

func newBufferLogger(level string) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cfg := &config.Config{Env: "test", LogLevel: level, LogFormat: "json"}
	return NewWithWriter(cfg, buf), buf
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"bogus", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	log, buf := newBufferLogger("warn")

	log.Debug("hidden")
	log.Info("hidden")
	assert.Empty(t, buf.String())

	log.Warnf("batch %d failed", 3)
	entry := lastLine(t, buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "batch 3 failed", entry["message"])
	assert.Equal(t, "test", entry["env"])
}

func TestWithFields(t *testing.T) {
	log, buf := newBufferLogger("debug")

	log.WithComponent("fetch").WithFields(map[string]interface{}{
		"attempted": 10,
		"succeeded": 9,
	}).Info("fan-out done")

	entry := lastLine(t, buf)
	assert.Equal(t, "fetch", entry["component"])
	assert.EqualValues(t, 10, entry["attempted"])
	assert.EqualValues(t, 9, entry["succeeded"])
}

func TestWithError(t *testing.T) {
	log, buf := newBufferLogger("debug")

	log.WithError(errors.New("timeout")).Error("candles unavailable")

	entry := lastLine(t, buf)
	assert.Equal(t, "timeout", entry["error"])
	assert.Equal(t, "error", entry["level"])
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().WithField("k", "v").Infof("nothing %s", "here")
	})
}
