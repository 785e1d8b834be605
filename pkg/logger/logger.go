/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"strings"
	"time"
)

// Level represents the severity level of log messages
type Level int

const (
	TraceLevel Level = iota
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case TraceLevel:
		return "TRACE"
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a flag value to a Level. Unknown values fall back to InfoLevel.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return TraceLevel
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Config holds the logger configuration
type Config struct {
	Level     Level
	UseColor  bool
	JSON      bool
	Component string
	// DryRun tags every line so simulated operations are never mistaken for real ones.
	DryRun bool
	// Output defaults to os.Stderr.
	Output io.Writer
}

// Logger represents the logger instance
type Logger struct {
	config Config
	logger *log.Logger
}

var defaultLogger *Logger

// New builds a standalone logger; most callers use the package-level helpers instead.
func New(config Config) *Logger {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	return &Logger{config: config, logger: log.New(out, "", 0)}
}

// Initialize sets up the default logger
func Initialize(config Config) error {
	if config.Component == "" {
		config.Component = "docmaint"
	}
	defaultLogger = New(config)
	return nil
}

// Log writes a log message
func (l *Logger) Log(level Level, message string, fields ...Field) {
	if level < l.config.Level {
		return
	}

	entry := LogEntry{
		Time:      time.Now(),
		Level:     level.String(),
		Message:   message,
		Component: l.config.Component,
		DryRun:    l.config.DryRun,
	}

	if level <= DebugLevel {
		_, file, line, ok := runtime.Caller(2)
		if ok {
			entry.File = file
			entry.Line = line
		}
	}

	if len(fields) > 0 {
		entry.Fields = make(map[string]interface{}, len(fields))
		for _, field := range fields {
			entry.Fields[field.Key] = field.Value
		}
	}

	var output string
	if l.config.JSON {
		jsonBytes, _ := json.Marshal(entry)
		output = string(jsonBytes)
	} else {
		output = l.formatPretty(entry, fields)
	}

	l.logger.Print(output)
}

func (l *Logger) colorize(code, s string) string {
	if !l.config.UseColor {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

// formatPretty keeps fields in call order so output is stable across runs.
func (l *Logger) formatPretty(entry LogEntry, fields []Field) string {
	var builder strings.Builder

	builder.WriteString(entry.Time.Format("2006-01-02 15:04:05"))

	level := entry.Level
	switch entry.Level {
	case "TRACE":
		level = l.colorize("37", level)
	case "DEBUG":
		level = l.colorize("36", level)
	case "INFO":
		level = l.colorize("32", level)
	case "WARN":
		level = l.colorize("33", level)
	case "ERROR":
		level = l.colorize("31", level)
	}
	fmt.Fprintf(&builder, " [%s]", level)

	if entry.Component != "" {
		fmt.Fprintf(&builder, " %s:", entry.Component)
	}

	if entry.DryRun {
		builder.WriteString(" " + l.colorize("35", "[DRY-RUN]"))
	}

	fmt.Fprintf(&builder, " %s", entry.Message)

	if len(fields) > 0 {
		builder.WriteString(" {")
		for i, f := range fields {
			if i > 0 {
				builder.WriteString(", ")
			}
			fmt.Fprintf(&builder, "%s=%v", f.Key, f.Value)
		}
		builder.WriteString("}")
	}

	if entry.File != "" {
		fmt.Fprintf(&builder, " (%s:%d)", entry.File, entry.Line)
	}

	return builder.String()
}

// Field represents a structured field in a log entry
type Field struct {
	Key   string
	Value interface{}
}

// String creates a string field
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an int field
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a bool field
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Err creates an error field
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: "<nil>"}
	}
	return Field{Key: "error", Value: err.Error()}
}

// LogEntry represents a log entry
type LogEntry struct {
	Time      time.Time              `json:"time"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Component string                 `json:"component,omitempty"`
	DryRun    bool                   `json:"dry_run,omitempty"`
	File      string                 `json:"file,omitempty"`
	Line      int                    `json:"line,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Convenience functions for default logger
func Trace(message string, fields ...Field) {
	if defaultLogger != nil {
		defaultLogger.Log(TraceLevel, message, fields...)
	}
}

func Debug(message string, fields ...Field) {
	if defaultLogger != nil {
		defaultLogger.Log(DebugLevel, message, fields...)
	}
}

func Info(message string, fields ...Field) {
	if defaultLogger != nil {
		defaultLogger.Log(InfoLevel, message, fields...)
	}
}

func Warn(message string, fields ...Field) {
	if defaultLogger != nil {
		defaultLogger.Log(WarnLevel, message, fields...)
	}
}

func Error(message string, fields ...Field) {
	if defaultLogger != nil {
		defaultLogger.Log(ErrorLevel, message, fields...)
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "[ERROR] docmaint: %s\n", message)
	}
}

// SetOutput sets the output writer for the logger
func SetOutput(w io.Writer) {
	if defaultLogger != nil {
		defaultLogger.logger.SetOutput(w)
	}
}
