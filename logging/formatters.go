package logging

import (
	"encoding/json"
	"fmt"
	"time"
)

// JSONFormatter formats log entries as JSON, one object per line
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format formats a log entry as JSON
func (f *JSONFormatter) Format(entry *LogEntry) ([]byte, error) {
	output := make(map[string]interface{})
	output["timestamp"] = entry.Timestamp.Format(time.RFC3339)
	output["level"] = entry.Level.String()
	output["message"] = entry.Message

	if entry.Component != "" {
		output["component"] = entry.Component
	}
	if entry.Error != nil {
		output["error"] = entry.Error.Error()
	}
	if len(entry.Fields) > 0 {
		output["fields"] = entry.Fields
	}

	data, err := json.Marshal(output)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// GetName returns the name of the formatter
func (f *JSONFormatter) GetName() string {
	return "json"
}

// TextFormatter formats log entries as plain text
type TextFormatter struct {
	IncludeTimestamp bool
	IncludeLevel     bool
	ColorOutput      bool
}

// NewTextFormatter creates a new text formatter with default settings
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{
		IncludeTimestamp: true,
		IncludeLevel:     true,
	}
}

// NewConsoleFormatter creates a text formatter with ANSI colored levels
func NewConsoleFormatter() *TextFormatter {
	return &TextFormatter{
		IncludeTimestamp: true,
		IncludeLevel:     true,
		ColorOutput:      true,
	}
}

// Format formats a log entry as plain text
func (f *TextFormatter) Format(entry *LogEntry) ([]byte, error) {
	var output string

	if f.IncludeTimestamp {
		output += fmt.Sprintf("[%s] ", entry.Timestamp.Format("2006-01-02 15:04:05.000"))
	}

	if f.IncludeLevel {
		levelStr := entry.Level.String()
		if f.ColorOutput {
			levelStr = f.colorizeLevel(levelStr, entry.Level)
		}
		output += fmt.Sprintf("[%s] ", levelStr)
	}

	if entry.Component != "" {
		output += fmt.Sprintf("[%s] ", entry.Component)
	}

	output += entry.Message

	fields := entry.Fields
	if line, ok := fields["line"].(int); ok {
		output += fmt.Sprintf(" (at line %d)", line)
		fields = make(map[string]interface{}, len(entry.Fields)-1)
		for key, value := range entry.Fields {
			if key != "line" {
				fields[key] = value
			}
		}
	}

	if entry.Error != nil {
		output += fmt.Sprintf(" (error: %s)", entry.Error.Error())
	}

	if len(fields) > 0 {
		output += " " + f.formatFields(fields)
	}

	output += "\n"
	return []byte(output), nil
}

// GetName returns the name of the formatter
func (f *TextFormatter) GetName() string {
	if f.ColorOutput {
		return "console"
	}
	return "text"
}

func (f *TextFormatter) formatFields(fields map[string]interface{}) string {
	output := "["
	first := true
	for key, value := range fields {
		if !first {
			output += ", "
		}
		output += fmt.Sprintf("%s=%v", key, value)
		first = false
	}
	output += "]"
	return output
}

func (f *TextFormatter) colorizeLevel(level string, logLevel LogLevel) string {
	switch logLevel {
	case LevelDebug:
		return fmt.Sprintf("\x1b[36m%s\x1b[0m", level)
	case LevelInfo:
		return fmt.Sprintf("\x1b[32m%s\x1b[0m", level)
	case LevelWarning:
		return fmt.Sprintf("\x1b[33m%s\x1b[0m", level)
	case LevelError:
		return fmt.Sprintf("\x1b[31m%s\x1b[0m", level)
	case LevelFatal:
		return fmt.Sprintf("\x1b[35m%s\x1b[0m", level)
	default:
		return level
	}
}
