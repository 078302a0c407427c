package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogger(level Level, redact bool) (*Logger, *bytes.Buffer) {
	l := New(level, redact)
	var buf bytes.Buffer
	l.console = &buf
	return l, &buf
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestLogLevelFiltering(t *testing.T) {
	l, buf := captureLogger(WARN, false)

	l.Debug("debug msg")
	l.Info("info msg")
	assert.Empty(t, buf.String())

	l.Warn("warn msg")
	l.Error("error msg")
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
}

func TestLogStructuredFields(t *testing.T) {
	l, buf := captureLogger(INFO, false)
	l.Info("checked", "account", "parent", "list", "bounces")

	entry := lastEntry(t, buf)
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "checked", entry["msg"])
	assert.Equal(t, "parent", entry["account"])
	assert.Equal(t, "bounces", entry["list"])
}

func TestRedactionByKey(t *testing.T) {
	l, buf := captureLogger(INFO, true)
	l.Info("checking", "email", "alice@example.com")

	entry := lastEntry(t, buf)
	val := entry["email"].(string)
	assert.NotEqual(t, "alice@example.com", val)
	assert.Contains(t, val, "@example.com", "domain survives for debugging")
	assert.Contains(t, val, "a")
}

func TestRedactionSweepsValues(t *testing.T) {
	l, buf := captureLogger(INFO, true)
	l.Info("failed", "error", "delete rejected for bob@example.com by upstream")

	entry := lastEntry(t, buf)
	assert.NotContains(t, entry["error"], "bob@example.com")
}

func TestRedactionDisabled(t *testing.T) {
	l, buf := captureLogger(INFO, false)
	l.Info("checking", "email", "alice@example.com")

	entry := lastEntry(t, buf)
	assert.Equal(t, "alice@example.com", entry["email"])
}

func TestRedactEmailShapes(t *testing.T) {
	assert.Equal(t, "jo***@example.com", RedactEmail("john.doe@example.com"))
	assert.Equal(t, "***@example.com", RedactEmail("ab@example.com"))
	assert.Equal(t, "***@***", RedactEmail("not-an-address"))
	assert.Equal(t, "***@***", RedactEmail("@example.com"))
	assert.Equal(t, "***@***", RedactEmail("trailing@"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel(" WARN "))
	assert.Equal(t, ERROR, ParseLevel("Error"))
	assert.Equal(t, INFO, ParseLevel(""))
	assert.Equal(t, INFO, ParseLevel("mystery"))
}

func TestOpenFileSink(t *testing.T) {
	l, _ := captureLogger(INFO, false)
	dir := filepath.Join(t.TempDir(), "audit")

	f, path, err := l.OpenFileSink(dir, "suppression_remove", "run-1")
	require.NoError(t, err)
	defer f.Close()

	assert.True(t, strings.HasPrefix(filepath.Base(path), "suppression_remove_"))
	assert.True(t, strings.HasSuffix(path, "_run-1.log"))

	l.Info("audit line", "run_id", "run-1")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "audit line")
}
