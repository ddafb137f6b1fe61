package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEntries(t *testing.T, buf *bytes.Buffer) []LogEntry {
	t.Helper()
	var entries []LogEntry
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var e LogEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		entries = append(entries, e)
	}
	return entries
}

func TestLoggerWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	l.Info("database", "connected")
	l.Error("REMINDER", "send failed")

	entries := decodeEntries(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "INFO", entries[0].Level)
	assert.Equal(t, "DATABASE", entries[0].Category)
	assert.Equal(t, "connected", entries[0].Message)
	assert.Equal(t, "logger_test.go", entries[0].File)
	assert.Equal(t, "ERROR", entries[1].Level)
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.SetLevel(WARN)

	l.Debug("APP", "hidden")
	l.Info("APP", "hidden")
	l.Warn("APP", "shown")

	entries := decodeEntries(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "shown", entries[0].Message)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel(" warning "))
	assert.Equal(t, ERROR, ParseLevel("ERROR"))
	assert.Equal(t, INFO, ParseLevel("loud"))
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() { l.Info("APP", "nothing") })
}

func TestMiddlewareLogsStatus(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/events", nil))

	entries := decodeEntries(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "API", entries[0].Category)
	assert.Contains(t, entries[0].Message, "GET /events - 418")
}

func TestTerminalFormat(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	l := &Logger{}
	out := l.formatTerminalOutput(LogEntry{
		Timestamp: "2025-05-10T09:30:00.000Z",
		Level:     "WARN",
		Category:  "CACHE",
		Message:   "miss",
		File:      "cache.go",
		Line:      42,
	})
	assert.Equal(t, "09:30:00 WARN  [CACHE     ] miss (cache.go:42)\n", out)

	out = l.formatTerminalOutput(LogEntry{Timestamp: "2025-05-10T09:30:00.000Z", Level: "INFO", Category: "APP", Message: "up"})
	assert.Equal(t, "09:30:00 INFO  [APP       ] up\n", out)
}

func TestLevelToString(t *testing.T) {
	l := &Logger{}
	assert.Equal(t, "FATAL", l.levelToString(FATAL))
	assert.Equal(t, "INFO", l.levelToString(LogLevel(42)))
}
