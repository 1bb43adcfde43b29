package ui

import (
	"errors"
	"io"
	"os"
	"strings"
	"testing"
)

// captureOutput redirects stdout while fn runs and returns what was printed
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create pipe: %v", err)
	}
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = oldStdout

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("Failed to read captured output: %v", err)
	}

	return string(data)
}

func TestColorFunc(t *testing.T) {
	originalSupportsColor := supportsColor
	defer func() {
		supportsColor = originalSupportsColor
	}()

	supportsColor = false
	if got := ColorSuccess("plain"); got != "plain" {
		t.Errorf("Expected passthrough without color support, got %q", got)
	}

	supportsColor = true
	if got := ColorSuccess("plain"); got == "plain" {
		t.Error("Expected colored output with color support")
	}
}

func TestShowHeader(t *testing.T) {
	output := captureOutput(t, func() {
		ShowHeader("Account Merge")
	})

	if !strings.Contains(output, "Account Merge") {
		t.Error("Header title not displayed")
	}

	if !strings.Contains(output, "+") || !strings.Contains(output, "-") {
		t.Error("Header border not displayed")
	}
}

func TestShowSuccess(t *testing.T) {
	output := captureOutput(t, func() {
		ShowSuccess("mapping written")
	})

	if !strings.Contains(output, "SUCCESS:") {
		t.Error("Success prefix not displayed")
	}

	if !strings.Contains(output, "mapping written") {
		t.Error("Success message not displayed")
	}
}

func TestShowWarning(t *testing.T) {
	output := captureOutput(t, func() {
		ShowWarning("2 schemas skipped")
	})

	if !strings.Contains(output, "WARNING:") {
		t.Error("Warning prefix not displayed")
	}

	if !strings.Contains(output, "2 schemas skipped") {
		t.Error("Warning message not displayed")
	}
}

func TestShowInfo(t *testing.T) {
	output := captureOutput(t, func() {
		ShowInfo("using role ACCOUNTADMIN")
	})

	if !strings.Contains(output, "INFO:") {
		t.Error("Info prefix not displayed")
	}

	if !strings.Contains(output, "using role ACCOUNTADMIN") {
		t.Error("Info message not displayed")
	}
}

func TestShowError(t *testing.T) {
	output := captureOutput(t, func() {
		ShowError(errors.New("statement failed"))
	})

	if !strings.Contains(output, "ERROR:") {
		t.Error("Error prefix not displayed")
	}

	if !strings.Contains(output, "statement failed") {
		t.Error("Error message not displayed")
	}
}

func TestShowErrorMultiLine(t *testing.T) {
	output := captureOutput(t, func() {
		ShowError(errors.New("clone failed\nCaused by: warehouse suspended"))
	})

	if !strings.Contains(output, "clone failed") {
		t.Error("First line not displayed")
	}

	if !strings.Contains(output, "Caused by: warehouse suspended") {
		t.Error("Continuation line not displayed")
	}
}

func TestShowErrorSuggestion(t *testing.T) {
	output := captureOutput(t, func() {
		ShowError(errors.New("authentication failed for user LOADER"))
	})

	if !strings.Contains(output, "TIP:") {
		t.Error("Suggestion prefix not displayed")
	}

	if !strings.Contains(output, "snowshift auth set") {
		t.Error("Suggestion text not displayed")
	}
}

func TestGetSuggestion(t *testing.T) {
	tests := []struct {
		name     string
		error    string
		expected string
	}{
		{
			name:     "authentication",
			error:    "Authentication failed for user LOADER",
			expected: "snowshift auth set",
		},
		{
			name:     "connection refused",
			error:    "dial tcp: connection refused",
			expected: "account identifier",
		},
		{
			name:     "unknown host",
			error:    "dial tcp: lookup xy12345: no such host",
			expected: "account identifier",
		},
		{
			name:     "privileges",
			error:    "SQL access control error: Insufficient privileges to operate on database 'SALES'",
			expected: "ACCOUNTADMIN",
		},
		{
			name:     "missing object",
			error:    "Object 'SALES.PUBLIC.ORDERS' does not exist or not authorized",
			expected: "role is allowed to see it",
		},
		{
			name:     "timeout",
			error:    "Statement reached its statement or warehouse timeout",
			expected: "worker counts",
		},
		{
			name:     "no suggestion",
			error:    "something else entirely",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := getSuggestion(tt.error)

			if tt.expected == "" {
				if result != "" {
					t.Errorf("Expected no suggestion, got %q", result)
				}
				return
			}

			if !strings.Contains(result, tt.expected) {
				t.Errorf("Expected suggestion containing %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		defaultValue bool
		expected     bool
	}{
		{"yes", "y\n", false, true},
		{"yes long form", "yes\n", false, true},
		{"no", "n\n", true, false},
		{"empty uses default true", "\n", true, true},
		{"empty uses default false", "\n", false, false},
		{"unrecognized input", "maybe\n", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldStdin := os.Stdin
			r, w, err := os.Pipe()
			if err != nil {
				t.Fatalf("Failed to create pipe: %v", err)
			}
			os.Stdin = r

			if _, err := w.WriteString(tt.input); err != nil {
				t.Fatalf("Failed to write input: %v", err)
			}
			w.Close()

			var result bool
			var confirmErr error
			captureOutput(t, func() {
				result, confirmErr = Confirm("Proceed?", tt.defaultValue)
			})

			os.Stdin = oldStdin

			if confirmErr != nil {
				t.Fatalf("Confirm returned error: %v", confirmErr)
			}

			if result != tt.expected {
				t.Errorf("Confirm() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestConfirmPromptSuffix(t *testing.T) {
	oldStdin := os.Stdin
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create pipe: %v", err)
	}
	os.Stdin = r

	if _, err := w.WriteString("y\n"); err != nil {
		t.Fatalf("Failed to write input: %v", err)
	}
	w.Close()

	output := captureOutput(t, func() {
		_, _ = Confirm("Apply 12 statements?", true)
	})

	os.Stdin = oldStdin

	if !strings.Contains(output, "[Y/n]") {
		t.Errorf("Expected prompt to show default, got %q", output)
	}
}

// BenchmarkGetSuggestion benchmarks error suggestion lookup
func BenchmarkGetSuggestion(b *testing.B) {
	for i := 0; i < b.N; i++ {
		getSuggestion("Object 'SALES.PUBLIC.ORDERS' does not exist or not authorized")
	}
}
