package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/roach88/facet/internal/facade"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Query failure (engine error, unresolvable table, etc.)
	ExitCommandError = 2 // Command error (bad flags, unreadable config, no engine)
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

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code        string   `json:"code"` // facade error type or "command_error"
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, suggestions []string) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:        code,
				Message:     message,
				Suggestions: suggestions,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	for _, s := range suggestions {
		fmt.Fprintf(f.Writer, "  - %s\n", s)
	}
	return nil
}

// QueryResult renders a facade result. On failure it returns an ExitError
// carrying ExitFailure so the process exit code reflects the outcome.
func (f *OutputFormatter) QueryResult(res facade.Result) error {
	if f.Format == "json" {
		if err := json.NewEncoder(f.Writer).Encode(CLIResponse{Status: status(res), Data: res}); err != nil {
			return err
		}
		if !res.Success {
			return NewExitError(ExitFailure, res.Error)
		}
		return nil
	}

	if !res.Success {
		if err := f.Error(string(res.ErrorType), res.Error, res.Suggestions); err != nil {
			return err
		}
		return NewExitError(ExitFailure, res.Error)
	}

	f.renderTable(res)
	return nil
}

func status(res facade.Result) string {
	if res.Success {
		return "ok"
	}
	return "error"
}

// renderTable writes a plain tab-separated view with a summary footer.
func (f *OutputFormatter) renderTable(res facade.Result) {
	cols := res.Columns
	if len(cols) == 0 && len(res.Rows) > 0 {
		for k := range res.Rows[0] {
			cols = append(cols, k)
		}
		sort.Strings(cols)
	}

	if len(cols) > 0 {
		fmt.Fprintln(f.Writer, strings.Join(cols, "\t"))
	}
	for _, row := range res.Rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = cellString(row[c])
		}
		fmt.Fprintln(f.Writer, strings.Join(cells, "\t"))
	}

	var notes []string
	if res.Cache.Hit {
		notes = append(notes, fmt.Sprintf("cache hit, age %.0fs", res.Cache.AgeSeconds))
	}
	if res.Truncated {
		notes = append(notes, "truncated")
	}
	if res.ClientFiltered {
		notes = append(notes, "client filtered")
	}
	if res.TableReferenceUsed != "" {
		notes = append(notes, "via "+res.TableReferenceUsed)
	}
	summary := fmt.Sprintf("%d rows in %.1fms", res.RowCount, res.ExecutionMs)
	if len(notes) > 0 {
		summary += " (" + strings.Join(notes, ", ") + ")"
	}
	fmt.Fprintln(f.Writer, summary)
}

func cellString(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
