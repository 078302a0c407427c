// Package logger provides structured JSON logging with optional PII
// redaction and an append-only file sink, so every destructive run
// leaves an auditable trail.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log entry.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

// ParseLevel converts a level name to a Level. Unknown names map to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "WARN":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Logger emits structured JSON log lines to stderr and, optionally, to
// an append-only file sink.
type Logger struct {
	mu        sync.Mutex
	level     Level
	redactPII bool
	console   io.Writer
	sink      io.Writer
}

// New creates a logger writing to stderr.
func New(level Level, redactPII bool) *Logger {
	return &Logger{level: level, redactPII: redactPII, console: os.Stderr}
}

var defaultLogger = New(INFO, true)

// Default returns the process-wide logger.
func Default() *Logger { return defaultLogger }

// SetLevel sets the minimum log level for the default logger.
func SetLevel(l Level) { defaultLogger.level = l }

// SetRedactPII enables or disables PII redaction for the default logger.
func SetRedactPII(r bool) { defaultLogger.redactPII = r }

// Debug emits a DEBUG-level entry on the default logger.
func Debug(msg string, fields ...interface{}) { defaultLogger.Debug(msg, fields...) }

// Info emits an INFO-level entry on the default logger.
func Info(msg string, fields ...interface{}) { defaultLogger.Info(msg, fields...) }

// Warn emits a WARN-level entry on the default logger.
func Warn(msg string, fields ...interface{}) { defaultLogger.Warn(msg, fields...) }

// Error emits an ERROR-level entry on the default logger.
func Error(msg string, fields ...interface{}) { defaultLogger.Error(msg, fields...) }

// Debug emits a DEBUG-level structured log entry.
func (l *Logger) Debug(msg string, fields ...interface{}) { l.log(DEBUG, msg, fields...) }

// Info emits an INFO-level structured log entry.
func (l *Logger) Info(msg string, fields ...interface{}) { l.log(INFO, msg, fields...) }

// Warn emits a WARN-level structured log entry.
func (l *Logger) Warn(msg string, fields ...interface{}) { l.log(WARN, msg, fields...) }

// Error emits an ERROR-level structured log entry.
func (l *Logger) Error(msg string, fields ...interface{}) { l.log(ERROR, msg, fields...) }

// SetSink adds an extra writer that receives every entry regardless of
// console settings. Pass nil to remove it.
func (l *Logger) SetSink(w io.Writer) {
	l.mu.Lock()
	l.sink = w
	l.mu.Unlock()
}

// OpenFileSink creates dir if needed, opens an append-only log file
// named <prefix>_<timestamp>_<runID>.log and attaches it as the sink.
// The returned path is suitable for telling the operator where the
// audit trail lives. The caller owns closing the file.
func (l *Logger) OpenFileSink(dir, prefix, runID string) (*os.File, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", fmt.Errorf("creating log directory: %w", err)
	}
	name := fmt.Sprintf("%s_%s_%s.log", prefix, time.Now().Format("20060102_150405"), runID)
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, "", fmt.Errorf("opening log file: %w", err)
	}
	l.SetSink(f)
	return f, path, nil
}

func (l *Logger) log(level Level, msg string, fields ...interface{}) {
	if level < l.level {
		return
	}

	entry := map[string]interface{}{
		"time":  time.Now().UTC().Format(time.RFC3339),
		"level": levelNames[level],
		"msg":   msg,
	}

	for i := 0; i < len(fields)-1; i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		val := fmt.Sprintf("%v", fields[i+1])
		if l.redactPII {
			val = redactPIIValue(key, val)
		}
		entry[key] = val
	}

	data, _ := json.Marshal(entry)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.console != nil {
		fmt.Fprintln(l.console, string(data))
	}
	if l.sink != nil {
		fmt.Fprintln(l.sink, string(data))
	}
}
