package errors

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"snowshift/internal/common"
)

// ErrorHandler appends failures to a log file for postmortems. Showing
// errors to the user is the ui package's job; the handler only records.
type ErrorHandler struct {
	logFile   *os.File
	logWriter io.Writer
	mu        sync.Mutex
	config    ErrorHandlerConfig
}

// ErrorHandlerConfig configures the error handler
type ErrorHandlerConfig struct {
	LogToFile   bool
	LogFilePath string
}

// ErrorLogEntry is one logged failure, written as a JSON line.
type ErrorLogEntry struct {
	Timestamp   time.Time              `json:"timestamp"`
	Code        ErrorCode              `json:"code"`
	Severity    ErrorSeverity          `json:"severity"`
	Message     string                 `json:"message"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Stack       string                 `json:"stack,omitempty"`
	Recoverable bool                   `json:"recoverable"`
}

// DefaultErrorHandlerConfig returns default configuration
func DefaultErrorHandlerConfig() ErrorHandlerConfig {
	homeDir, _ := os.UserHomeDir()
	return ErrorHandlerConfig{
		LogToFile:   true,
		LogFilePath: filepath.Join(homeDir, common.AppDirName, "errors.log"),
	}
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(config ErrorHandlerConfig) (*ErrorHandler, error) {
	handler := &ErrorHandler{config: config}

	if config.LogToFile {
		logDir := filepath.Dir(config.LogFilePath)
		if err := os.MkdirAll(logDir, common.DirPermissionNormal); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		file, err := os.OpenFile(config.LogFilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}

		handler.logFile = file
		handler.logWriter = file
	} else {
		handler.logWriter = io.Discard
	}

	return handler, nil
}

// Handle records an error in the log. Nil errors are ignored.
func (h *ErrorHandler) Handle(err error) {
	if err == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	appErr, ok := err.(*AppError)
	if !ok {
		appErr = Wrap(err, ErrCodeInternal, err.Error())
	}

	h.writeLog(ErrorLogEntry{
		Timestamp:   appErr.Timestamp,
		Code:        appErr.Code,
		Severity:    appErr.Severity,
		Message:     appErr.Message,
		Context:     appErr.Context,
		Stack:       appErr.Stack,
		Recoverable: appErr.Recoverable,
	})
}

// writeLog writes an error entry to the log
func (h *ErrorHandler) writeLog(entry ErrorLogEntry) {
	jsonData, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(h.logWriter, "Failed to marshal error log: %v\n", err)
		return
	}

	fmt.Fprintln(h.logWriter, string(jsonData))
}

// Close closes the error handler and releases resources
func (h *ErrorHandler) Close() error {
	if h.logFile != nil {
		return h.logFile.Close()
	}
	return nil
}

// GlobalErrorHandler is a singleton instance
var globalHandler *ErrorHandler
var globalHandlerOnce sync.Once

// GetGlobalErrorHandler returns the global error handler instance
func GetGlobalErrorHandler() *ErrorHandler {
	globalHandlerOnce.Do(func() {
		handler, err := NewErrorHandler(DefaultErrorHandlerConfig())
		if err != nil {
			handler = &ErrorHandler{logWriter: io.Discard}
		}
		globalHandler = handler
	})
	return globalHandler
}
