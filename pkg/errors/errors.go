package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode represents a unique error code for categorizing errors
type ErrorCode string

const (
	// Connection errors (1xxx)
	ErrCodeConnectionFailed     ErrorCode = "SMIG1001"
	ErrCodeConnectionTimeout    ErrorCode = "SMIG1002"
	ErrCodeAuthenticationFailed ErrorCode = "SMIG1003"
	ErrCodeNetworkUnavailable   ErrorCode = "SMIG1004"

	// Configuration errors (2xxx)
	ErrCodeConfigNotFound   ErrorCode = "SMIG2001"
	ErrCodeConfigInvalid    ErrorCode = "SMIG2002"
	ErrCodeConfigMissing    ErrorCode = "SMIG2003"
	ErrCodeConfigPermission ErrorCode = "SMIG2004"

	// Mapping file errors (3xxx)
	ErrCodeMappingNotFound  ErrorCode = "SMIG3001"
	ErrCodeMappingMalformed ErrorCode = "SMIG3002"
	ErrCodeMappingConflict  ErrorCode = "SMIG3003"
	ErrCodeMappingEmpty     ErrorCode = "SMIG3004"

	// SQL execution errors (4xxx)
	ErrCodeSQLSyntax         ErrorCode = "SMIG4001"
	ErrCodeSQLPermission     ErrorCode = "SMIG4002"
	ErrCodeSQLTimeout        ErrorCode = "SMIG4003"
	ErrCodeSQLObjectNotFound ErrorCode = "SMIG4004"
	ErrCodeSQLExecution      ErrorCode = "SMIG4005"
	ErrCodeNoResults         ErrorCode = "SMIG4006"
	ErrCodeUnknown           ErrorCode = "SMIG4999"

	// File system errors (5xxx)
	ErrCodeFileNotFound   ErrorCode = "SMIG5001"
	ErrCodeFilePermission ErrorCode = "SMIG5002"
	ErrCodeFileOperation  ErrorCode = "SMIG5003"

	// Validation errors (6xxx)
	ErrCodeValidationFailed  ErrorCode = "SMIG6001"
	ErrCodeInvalidInput      ErrorCode = "SMIG6002"
	ErrCodeRequiredField     ErrorCode = "SMIG6003"
	ErrCodeReservedDelimiter ErrorCode = "SMIG6004"

	// Security errors (7xxx)
	ErrCodeSecurityViolation ErrorCode = "SMIG7001"
	ErrCodeEncryptionFailed  ErrorCode = "SMIG7002"
	ErrCodeCredentialsAbsent ErrorCode = "SMIG7003"

	// System errors (9xxx)
	ErrCodeInternal           ErrorCode = "SMIG9001"
	ErrCodeTimeout            ErrorCode = "SMIG9002"
	ErrCodeResourceExhausted  ErrorCode = "SMIG9003"
	ErrCodeServiceUnavailable ErrorCode = "SMIG9004"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "CRITICAL" // System failure, requires immediate attention
	SeverityError    ErrorSeverity = "ERROR"    // Operation failed, but system continues
	SeverityWarning  ErrorSeverity = "WARNING"  // Operation succeeded with issues
	SeverityInfo     ErrorSeverity = "INFO"     // Informational, not an error
)

// AppError represents a structured application error with context
type AppError struct {
	Code        ErrorCode
	Message     string
	Severity    ErrorSeverity
	Context     map[string]interface{}
	Cause       error
	Stack       string
	Timestamp   time.Time
	Recoverable bool
	Suggestions []string
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s: %s", e.Code, e.Severity, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\nCaused by: %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}

	return b.String()
}

// Unwrap returns the cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:        code,
		Message:     message,
		Severity:    SeverityError,
		Context:     make(map[string]interface{}),
		Stack:       captureStack(),
		Timestamp:   time.Now(),
		Recoverable: false,
	}
}

// Wrap wraps an existing error with AppError
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	appErr := New(code, message)
	appErr.Cause = err

	// If wrapping another AppError, inherit some properties
	if ae, ok := err.(*AppError); ok {
		for k, v := range ae.Context {
			appErr.Context[k] = v
		}
	}

	return appErr
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity sets the error severity
func (e *AppError) WithSeverity(severity ErrorSeverity) *AppError {
	e.Severity = severity
	return e
}

// WithSuggestions adds recovery suggestions
func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// AsRecoverable marks the error as recoverable
func (e *AppError) AsRecoverable() *AppError {
	e.Recoverable = true
	return e
}

// captureStack captures the current stack trace
func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			b.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return b.String()
}

// Common error constructors

// ConnectionError creates a connection-related error
func ConnectionError(message string, cause error) *AppError {
	return Wrap(cause, ErrCodeConnectionFailed, message).
		WithSeverity(SeverityError).
		WithSuggestions(
			"Check your network connection",
			"Verify the Snowflake account identifier",
			"Confirm the user and role exist on the account",
		)
}

// MissingConfigError reports every absent required setting in one error.
func MissingConfigError(names []string) *AppError {
	return New(ErrCodeConfigMissing,
		fmt.Sprintf("missing required configuration: %s", strings.Join(names, ", "))).
		WithContext("missing", names).
		WithSuggestions(
			"Set the variables in the environment or a .env file",
			"Run 'snowshift init' to write a starter configuration",
		)
}

// SQLError creates an SQL execution error
func SQLError(message string, query string, cause error) *AppError {
	err := Wrap(cause, ErrCodeSQLExecution, message).
		WithContext("query", truncateString(query, 200))

	if strings.Contains(message, "permission") || strings.Contains(message, "access denied") {
		err.Code = ErrCodeSQLPermission
		_ = err.WithSuggestions(
			"Check user permissions in Snowflake",
			"Verify the role has required privileges",
			"Contact your Snowflake administrator",
		)
	} else if strings.Contains(message, "timeout") {
		err.Code = ErrCodeSQLTimeout
		_ = err.WithSuggestions(
			"Increase the statement timeout setting",
			"Check Snowflake warehouse size",
		)
	}

	return err
}

// MappingError creates a mapping file error
func MappingError(message string, path string, cause error) *AppError {
	err := Wrap(cause, ErrCodeMappingMalformed, message)
	if err == nil {
		err = New(ErrCodeMappingMalformed, message)
	}
	return err.WithContext("path", path).
		WithSuggestions(
			"Regenerate the mapping with 'snowshift map'",
			"Check the file for hand edits",
		)
}

// IsRecoverable checks if an error is recoverable
func IsRecoverable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Recoverable
	}
	return false
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// truncateString truncates a string to maxLen characters
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
