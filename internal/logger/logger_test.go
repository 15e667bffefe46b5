package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T, level string, format OutputFormat, fn func()) string {
	t.Helper()
	buf := &bytes.Buffer{}
	SetTestOutput(buf)
	defer func() {
		UnsetTestOutput()
		InitLogger("info", FormatText)
	}()

	InitLogger(level, format)
	fn()

	return buf.String()
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		format   OutputFormat
		logFn    func()
		contains []string
		excludes []string
	}{
		{
			name:     "info log",
			level:    "info",
			logFn:    func() { Info("resolved date", Fields{"date": "2023-06-15"}) },
			contains: []string{"resolved date", "date=2023-06-15"},
		},
		{
			name:     "debug hidden at info",
			level:    "info",
			logFn:    func() { Debug("request sent") },
			excludes: []string{"request sent"},
		},
		{
			name:     "debug shown at debug",
			level:    "debug",
			logFn:    func() { Debug("request sent") },
			contains: []string{"request sent", "level=DEBUG"},
		},
		{
			name:     "warn with fields",
			level:    "warn",
			logFn:    func() { Warn("image failed", Fields{"identifier": "epic_1b_1"}) },
			contains: []string{"image failed", "level=WARN", "identifier=epic_1b_1"},
		},
		{
			name:     "success",
			level:    "info",
			logFn:    func() { Success("run complete") },
			contains: []string{"run complete", "status=success"},
		},
		{
			name:     "json format",
			level:    "info",
			format:   FormatJSON,
			logFn:    func() { Error("fatal", Fields{"run_id": "abc"}) },
			contains: []string{`"msg":"fatal"`, `"run_id":"abc"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := captureOutput(t, tt.level, tt.format, tt.logFn)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}
