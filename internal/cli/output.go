package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Validation or scenario failure, engine error, no ping replies
	ExitCommandError = 2 // Command error (invalid paths, bad configuration, transport unavailable)
)

// Error codes carried in CLIError.
const (
	ErrCodeSceneLoad  = "E_SCENE_LOAD"
	ErrCodeSceneBuild = "E_SCENE_BUILD"
	ErrCodeTestFailed = "E_TEST_FAILED"
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter writes a command's result either as a CLIResponse
// envelope or as text.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // verbose output; keeps stdout parseable in json mode
	Verbose   bool
}

// newOutputFormatter binds a formatter to cmd's output streams.
func newOutputFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string      `json:"status"`          // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`  // command result
	Error  *CLIError   `json:"error,omitempty"` // set when Status is "error"
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"` // one of the ErrCode constants
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// JSON reports whether results are written as a CLIResponse.
func (f *OutputFormatter) JSON() bool { return f.Format == "json" }

// Success writes data with status "ok". In text mode text renders it instead.
func (f *OutputFormatter) Success(data interface{}, text func(w io.Writer)) error {
	if f.JSON() {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	if text != nil {
		text(f.Writer)
	}
	return nil
}

// Failure writes data and cliErr with status "error". In text mode text
// renders it instead. The command still returns its own ExitError.
func (f *OutputFormatter) Failure(data interface{}, cliErr *CLIError, text func(w io.Writer)) error {
	if f.JSON() {
		return f.encode(CLIResponse{Status: "error", Data: data, Error: cliErr})
	}
	if text != nil {
		text(f.Writer)
	}
	return nil
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// VerboseLog writes a diagnostic line when verbose mode is enabled, to
// ErrWriter when set.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}
