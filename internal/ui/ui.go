package ui

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
)

// UI wraps terminal output with verbosity and quiet controls
type UI struct {
	Verbose bool
	Quiet   bool
	spinner *Spinner
}

// NewUI creates a new UI instance
func NewUI(verbose, quiet bool) *UI {
	return &UI{
		Verbose: verbose,
		Quiet:   quiet,
	}
}

// IsVerbose returns true if verbose mode is enabled
func (u *UI) IsVerbose() bool {
	return u.Verbose
}

// IsQuiet returns true if quiet mode is enabled
func (u *UI) IsQuiet() bool {
	return u.Quiet
}

// Printf prints formatted output if not in quiet mode
func (u *UI) Printf(format string, args ...interface{}) {
	if !u.Quiet {
		fmt.Printf(format, args...)
	}
}

// Println prints a line if not in quiet mode
func (u *UI) Println(args ...interface{}) {
	if !u.Quiet {
		fmt.Println(args...)
	}
}

// VerbosePrintf prints formatted output only in verbose mode
func (u *UI) VerbosePrintf(format string, args ...interface{}) {
	if u.Verbose && !u.Quiet {
		fmt.Printf(format, args...)
	}
}

// StartProgress starts a progress indicator with a message
func (u *UI) StartProgress(message string) {
	if !u.Quiet {
		u.spinner = NewSpinner(message)
		u.spinner.Start()
	}
}

// StopProgress stops the progress indicator
func (u *UI) StopProgress() {
	if u.spinner != nil && !u.Quiet {
		u.spinner.Stop(true, "Done")
		u.spinner = nil
	}
}

// StopProgressWith stops the progress indicator with an explicit outcome
func (u *UI) StopProgressWith(success bool, message string) {
	if u.spinner != nil && !u.Quiet {
		u.spinner.Stop(success, message)
		u.spinner = nil
	}
}

// Warning prints a warning message
func (u *UI) Warning(message string) {
	if !u.Quiet {
		ShowWarning(message)
	}
}

// Error prints an error message
func (u *UI) Error(message string) {
	if !u.Quiet {
		fmt.Printf("%s %s\n", ColorError("✗"), message)
	}
}

// Info prints an information message
func (u *UI) Info(message string) {
	if !u.Quiet {
		ShowInfo(message)
	}
}

// Success prints a success message
func (u *UI) Success(message string) {
	if !u.Quiet {
		ShowSuccess(message)
	}
}

// PrintSection prints a section header
func PrintSection(title string) {
	fmt.Printf("\n%s %s\n", ColorBold("▶"), ColorBold(title))
	fmt.Println(strings.Repeat("─", 50))
}

// PrintKeyValue prints a key-value pair in a formatted way
func PrintKeyValue(key, value string) {
	fmt.Printf("  %-20s %s\n", ColorDim(key+":"), value)
}

// Input displays a text input prompt
func Input(message, defaultValue, help string) (string, error) {
	var result string
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
		Help:    help,
	}

	err := survey.AskOne(prompt, &result)
	return result, err
}

// Password displays a password input prompt
func Password(message, help string) (string, error) {
	var result string
	prompt := &survey.Password{
		Message: message,
		Help:    help,
	}

	err := survey.AskOne(prompt, &result)
	return result, err
}

// ShowStatementExecution displays the statement about to run
func ShowStatementExecution(object string, current, total int) {
	fmt.Printf("\n%s Executing [%d/%d]: %s\n",
		ColorProgress("►"),
		current,
		total,
		ColorBold(object),
	)
}

// ShowStatementResult displays the outcome of a single statement
func ShowStatementResult(object string, success bool, message string, duration string) {
	if success {
		fmt.Printf("  %s %s (%s)\n",
			ColorSuccess("✓"),
			object,
			ColorDim(duration),
		)
	} else {
		fmt.Printf("  %s %s\n",
			ColorError("✗"),
			object,
		)
		if message != "" {
			fmt.Printf("    %s\n", ColorError(message))
		}
	}
}
