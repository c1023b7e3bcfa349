package errors

import (
	"fmt"
	"strings"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeSyntax     ErrorType = "SYNTAX"
	ErrorTypeEvaluation ErrorType = "EVALUATION"
	ErrorTypeLimit      ErrorType = "LIMIT"
	ErrorTypeSystem     ErrorType = "SYSTEM"
	ErrorTypeUser       ErrorType = "USER"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityInfo    ErrorSeverity = "INFO"
	SeverityWarning ErrorSeverity = "WARNING"
	SeverityError   ErrorSeverity = "ERROR"
	SeverityFatal   ErrorSeverity = "FATAL"
)

// ScriptError represents a structured error with detailed information.
// Line is 1-based; zero means no line is known. Context carries the
// offending source text and Hint a short corrective suggestion.
type ScriptError struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Line      int                    `json:"line,omitempty"`
	Context   string                 `json:"context,omitempty"`
	Hint      string                 `json:"hint,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Severity  ErrorSeverity          `json:"severity"`
	Type      ErrorType              `json:"type"`
	Cause     error                  `json:"-"`
}

// Error implements the error interface
func (e *ScriptError) Error() string {
	var builder strings.Builder

	// Format: [TYPE][CODE] message
	builder.WriteString(fmt.Sprintf("[%s][%s] %s", e.Type, e.Code, e.Message))

	if e.Line > 0 {
		builder.WriteString(fmt.Sprintf(" [line %d]", e.Line))
	}
	if e.Context != "" {
		builder.WriteString(fmt.Sprintf("\n  Context: %s", e.Context))
	}
	if e.Hint != "" {
		builder.WriteString(fmt.Sprintf("\n  Hint: %s", e.Hint))
	}

	return builder.String()
}

// Unwrap returns the underlying error
func (e *ScriptError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target
func (e *ScriptError) Is(target error) bool {
	if other, ok := target.(*ScriptError); ok {
		return e.Code == other.Code && e.Type == other.Type
	}
	return false
}

// WithLine sets the source line for the error
func (e *ScriptError) WithLine(line int) *ScriptError {
	e.Line = line
	return e
}

// WithContext attaches the offending source text to the error
func (e *ScriptError) WithContext(context string) *ScriptError {
	e.Context = context
	return e
}

// WithHint attaches a corrective suggestion to the error
func (e *ScriptError) WithHint(hint string) *ScriptError {
	e.Hint = hint
	return e
}

// WithSeverity sets the severity level for the error
func (e *ScriptError) WithSeverity(severity ErrorSeverity) *ScriptError {
	e.Severity = severity
	return e
}

// WithType sets the error type
func (e *ScriptError) WithType(errorType ErrorType) *ScriptError {
	e.Type = errorType
	return e
}

// WithField adds a named detail to the error
func (e *ScriptError) WithField(key string, value interface{}) *ScriptError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// Wrap records the underlying cause
func (e *ScriptError) Wrap(err error) *ScriptError {
	e.Cause = err
	return e
}

func newError(code, message string, errorType ErrorType, severity ErrorSeverity) *ScriptError {
	return &ScriptError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Severity:  severity,
		Type:      errorType,
	}
}

// NewSyntaxError creates a new syntax error
func NewSyntaxError(code, message string) *ScriptError {
	return newError(code, message, ErrorTypeSyntax, SeverityError)
}

// NewEvaluationError creates a new evaluation error
func NewEvaluationError(code, message string) *ScriptError {
	return newError(code, message, ErrorTypeEvaluation, SeverityError)
}

// NewLimitError creates a new resource-limit error. Limit errors are always
// fatal and must never be swallowed by callers.
func NewLimitError(code, message string) *ScriptError {
	return newError(code, message, ErrorTypeLimit, SeverityFatal)
}

// NewSystemError creates a new system error
func NewSystemError(code, message string) *ScriptError {
	return newError(code, message, ErrorTypeSystem, SeverityError)
}

// NewUserError creates a new user error
func NewUserError(code, message string) *ScriptError {
	return newError(code, message, ErrorTypeUser, SeverityInfo)
}

// WrapError wraps an existing error into a ScriptError
func WrapError(err error, code, message string) *ScriptError {
	return NewSystemError(code, message).Wrap(err)
}

// IsScriptError checks if an error is a ScriptError
func IsScriptError(err error) bool {
	_, ok := err.(*ScriptError)
	return ok
}

// AsScriptError converts an error to ScriptError if possible
func AsScriptError(err error) (*ScriptError, bool) {
	if scriptErr, ok := err.(*ScriptError); ok {
		return scriptErr, true
	}
	return nil, false
}

// IsLimitError reports whether the error is a resource-limit error.
// Loop executors use this to keep ceiling violations from being treated
// as an ordinary false condition.
func IsLimitError(err error) bool {
	if scriptErr, ok := AsScriptError(err); ok {
		return scriptErr.Type == ErrorTypeLimit
	}
	return false
}

// IsEvaluationError reports whether the error came out of the expression
// evaluator.
func IsEvaluationError(err error) bool {
	if scriptErr, ok := AsScriptError(err); ok {
		return scriptErr.Type == ErrorTypeEvaluation
	}
	return false
}
