// Package logging provides structured logging for the shell. Output goes
// through pluggable formatters and writers so interactive sessions can log
// to a file without polluting the terminal.
package logging

import (
	"fmt"
	"os"
	"time"

	"valyxo/errors"
)

// LogLevel represents the severity level of a log entry
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelFatal
)

// String returns the string representation of a log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// LogField represents a key-value pair for structured logging
type LogField struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// LogEntry represents a single log entry
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     LogLevel               `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Component string                 `json:"component,omitempty"`
	Error     error                  `json:"error,omitempty"`
}

// Logger defines the interface for structured logging
type Logger interface {
	Debug(msg string, fields ...LogField)
	Info(msg string, fields ...LogField)
	Warn(msg string, fields ...LogField)
	Error(msg string, fields ...LogField)

	// ErrorScript logs a script error with its code, line and hint broken
	// out into fields
	ErrorScript(err error, fields ...LogField)

	// Fatal logs a fatal message and exits the program
	Fatal(msg string, fields ...LogField)

	// WithFields returns a new logger with the specified fields attached
	// to every entry
	WithFields(fields ...LogField) Logger

	// WithError returns a new logger with the specified error
	WithError(err error) Logger

	// WithComponent returns a new logger tagged with a component name
	WithComponent(component string) Logger

	SetLevel(level LogLevel)
	GetLevel() LogLevel
}

// Formatter defines the interface for log formatting
type Formatter interface {
	Format(entry *LogEntry) ([]byte, error)
	GetName() string
}

// Writer defines the interface for log output
type Writer interface {
	Write(data []byte) error
	Flush() error
	Close() error
	GetName() string
}

// LoggerConfig contains configuration for the logger
type LoggerConfig struct {
	Level      LogLevel
	Formatters []Formatter
	Writers    []Writer
	Rotation   *RotationConfig
}

// RotationConfig contains configuration for log rotation
type RotationConfig struct {
	MaxSize    int64 // bytes before rotation
	MaxBackups int   // backup files to keep
}

// ApplyLogLevel applies a log level from its string form
func (lc *LoggerConfig) ApplyLogLevel(levelStr string) {
	switch levelStr {
	case "debug":
		lc.Level = LevelDebug
	case "info":
		lc.Level = LevelInfo
	case "warning", "warn":
		lc.Level = LevelWarning
	case "error":
		lc.Level = LevelError
	case "fatal":
		lc.Level = LevelFatal
	default:
		lc.Level = LevelInfo
	}
}

// DefaultLogger is the default implementation of Logger
type DefaultLogger struct {
	level      LogLevel
	fields     map[string]interface{}
	error      error
	component  string
	formatters []Formatter
	writers    []Writer
}

// NewDefaultLogger creates a logger that writes text to stderr at info level
func NewDefaultLogger() *DefaultLogger {
	return &DefaultLogger{
		level:      LevelInfo,
		fields:     make(map[string]interface{}),
		formatters: []Formatter{NewTextFormatter()},
		writers:    []Writer{NewConsoleWriterWithFile(os.Stderr)},
	}
}

// NewDefaultLoggerWithConfig creates a logger from configuration
func NewDefaultLoggerWithConfig(config LoggerConfig) *DefaultLogger {
	logger := &DefaultLogger{
		level:      config.Level,
		fields:     make(map[string]interface{}),
		formatters: config.Formatters,
		writers:    config.Writers,
	}
	if logger.formatters == nil {
		logger.formatters = []Formatter{NewTextFormatter()}
	}
	if logger.writers == nil {
		logger.writers = []Writer{NewConsoleWriterWithFile(os.Stderr)}
	}
	return logger
}

func (l *DefaultLogger) Debug(msg string, fields ...LogField) {
	l.log(LevelDebug, msg, fields...)
}

func (l *DefaultLogger) Info(msg string, fields ...LogField) {
	l.log(LevelInfo, msg, fields...)
}

func (l *DefaultLogger) Warn(msg string, fields ...LogField) {
	l.log(LevelWarning, msg, fields...)
}

func (l *DefaultLogger) Error(msg string, fields ...LogField) {
	l.log(LevelError, msg, fields...)
}

// ErrorScript logs a script error with its structured parts broken out
func (l *DefaultLogger) ErrorScript(err error, fields ...LogField) {
	if scriptErr, ok := errors.AsScriptError(err); ok {
		errFields := append(fields,
			LogField{Key: "error_code", Value: scriptErr.Code},
			LogField{Key: "error_type", Value: string(scriptErr.Type)})
		if scriptErr.Line > 0 {
			errFields = append(errFields, LogField{Key: "line", Value: scriptErr.Line})
		}
		if scriptErr.Hint != "" {
			errFields = append(errFields, LogField{Key: "hint", Value: scriptErr.Hint})
		}
		l.log(LevelError, scriptErr.Message, errFields...)
		return
	}
	l.log(LevelError, err.Error(), append(fields, LogField{Key: "error", Value: err.Error()})...)
}

// Fatal logs a fatal message and exits the program
func (l *DefaultLogger) Fatal(msg string, fields ...LogField) {
	l.log(LevelFatal, msg, fields...)
	l.flush()
	os.Exit(1)
}

func (l *DefaultLogger) WithFields(fields ...LogField) Logger {
	newLogger := l.copy()
	for _, field := range fields {
		newLogger.fields[field.Key] = field.Value
	}
	return newLogger
}

func (l *DefaultLogger) WithError(err error) Logger {
	newLogger := l.copy()
	newLogger.error = err
	return newLogger
}

func (l *DefaultLogger) WithComponent(component string) Logger {
	newLogger := l.copy()
	newLogger.component = component
	return newLogger
}

func (l *DefaultLogger) SetLevel(level LogLevel) {
	l.level = level
}

func (l *DefaultLogger) GetLevel() LogLevel {
	return l.level
}

func (l *DefaultLogger) log(level LogLevel, msg string, fields ...LogField) {
	if level < l.level {
		return
	}

	entry := &LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   msg,
		Fields:    make(map[string]interface{}),
		Component: l.component,
		Error:     l.error,
	}
	for k, v := range l.fields {
		entry.Fields[k] = v
	}
	for _, field := range fields {
		entry.Fields[field.Key] = field.Value
	}

	for _, formatter := range l.formatters {
		data, err := formatter.Format(entry)
		if err != nil {
			l.writeToAllWriters([]byte(fmt.Sprintf("failed to format log entry: %v\n", err)))
			continue
		}
		l.writeToAllWriters(data)
	}
}

func (l *DefaultLogger) writeToAllWriters(data []byte) {
	for _, writer := range l.writers {
		if err := writer.Write(data); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write log: %v\n", err)
		}
	}
}

func (l *DefaultLogger) flush() {
	for _, writer := range l.writers {
		if err := writer.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to flush log writer: %v\n", err)
		}
	}
}

func (l *DefaultLogger) copy() *DefaultLogger {
	newLogger := &DefaultLogger{
		level:      l.level,
		fields:     make(map[string]interface{}),
		error:      l.error,
		component:  l.component,
		formatters: l.formatters,
		writers:    l.writers,
	}
	for k, v := range l.fields {
		newLogger.fields[k] = v
	}
	return newLogger
}

// Field creates a new field
func Field(key string, value interface{}) LogField {
	return LogField{Key: key, Value: value}
}

// StringField creates a new string field
func StringField(key, value string) LogField {
	return LogField{Key: key, Value: value}
}

// IntField creates a new int field
func IntField(key string, value int) LogField {
	return LogField{Key: key, Value: value}
}

// BoolField creates a new bool field
func BoolField(key string, value bool) LogField {
	return LogField{Key: key, Value: value}
}

// ErrorField creates a new error field
func ErrorField(key string, value error) LogField {
	return LogField{Key: key, Value: value.Error()}
}

// DurationField creates a new duration field
func DurationField(key string, value time.Duration) LogField {
	return LogField{Key: key, Value: value.String()}
}
