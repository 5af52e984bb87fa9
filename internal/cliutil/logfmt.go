package cliutil

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/lifeos-app/shell/internal/launch"
)

// LogRecord represents a structured backend log event ready for JSON
// encoding.
type LogRecord struct {
	Timestamp time.Time `json:"ts"`
	Service   string    `json:"service"`
	Level     string    `json:"level"`
	Message   string    `json:"msg"`
	Source    string    `json:"source"`
}

// NewLogRecord converts a launch log entry into a structured log record.
func NewLogRecord(entry launch.LogEntry) LogRecord {
	level := entry.Level
	if level == "" {
		if inferred := inferLogLevel(entry.Message); inferred != "" {
			level = inferred
		} else {
			level = "info"
		}
	}
	source := entry.Source
	if source == "" {
		source = launch.LogSourceSystem
	}
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return LogRecord{
		Timestamp: ts,
		Service:   "backend",
		Level:     level,
		Message:   entry.Message,
		Source:    source,
	}
}

var levelTokenPattern = regexp.MustCompile(`(?i)\b(error|warn|info)\b`)

func inferLogLevel(message string) string {
	matches := levelTokenPattern.FindStringSubmatch(message)
	if len(matches) < 2 {
		return ""
	}
	switch strings.ToLower(matches[1]) {
	case "error":
		return "error"
	case "warn":
		return "warn"
	case "info":
		return "info"
	default:
		return ""
	}
}

// EncodeLogEntry encodes a log entry to JSON, reporting errors to stderr if
// needed.
func EncodeLogEntry(enc *json.Encoder, stderr io.Writer, entry launch.LogEntry) {
	if enc == nil {
		return
	}
	record := NewLogRecord(entry)
	if err := enc.Encode(&record); err != nil {
		fmt.Fprintf(stderr, "error: encode log: %v\n", err)
	}
}

// FormatHuman renders a log entry for interactive terminals.
func FormatHuman(entry launch.LogEntry) string {
	record := NewLogRecord(entry)
	return fmt.Sprintf("%s %-5s backend %s", record.Timestamp.Format("15:04:05"), strings.ToUpper(record.Level), record.Message)
}
