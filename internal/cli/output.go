package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/taxon/internal/engine"
	"github.com/roach88/taxon/internal/model"
	"github.com/roach88/taxon/internal/validate"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Rejected operation or failed check (cycle, has children, violation, failed scenarios)
	ExitCommandError = 2 // Command error (bad arguments, database not found, storage failure)
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
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status  string      `json:"status"`             // "ok" or "error"
	Data    interface{} `json:"data,omitempty"`     // success payload
	Error   *CLIError   `json:"error,omitempty"`    // error details
	TraceID string      `json:"trace_id,omitempty"` // optional trace correlation
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"`              // engine error code, "E_USAGE", "E_TEST_FAILED"
	Message string      `json:"message"`           // human-readable message
	Details interface{} `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
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

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// ErrorDetails is the details payload for engine errors.
type ErrorDetails struct {
	Op         string              `json:"op"`
	CategoryID model.CategoryID    `json:"category_id,omitempty"`
	Related    []model.CategoryID  `json:"related,omitempty"`
	Violation  *validate.Violation `json:"violation,omitempty"`
}

func (d ErrorDetails) String() string {
	parts := []string{"op=" + d.Op}
	if d.CategoryID != 0 {
		parts = append(parts, "category="+d.CategoryID.String())
	}
	if len(d.Related) > 0 {
		parts = append(parts, "related="+joinIDs(d.Related))
	}
	if d.Violation != nil {
		parts = append(parts, "violation="+string(d.Violation.Invariant))
	}
	return strings.Join(parts, " ")
}

// EngineError reports an engine failure and returns the matching ExitError.
// Rejected operations exit with ExitFailure; storage failures and errors
// from outside the engine exit with ExitCommandError.
func (f *OutputFormatter) EngineError(err error) error {
	var e *engine.Error
	if !errors.As(err, &e) {
		_ = f.Error("E_COMMAND", err.Error(), nil)
		return WrapExitError(ExitCommandError, "command failed", err)
	}

	_ = f.Error(string(e.Code), err.Error(), ErrorDetails{
		Op:         e.Op,
		CategoryID: e.CategoryID,
		Related:    e.Related,
		Violation:  e.Violation,
	})

	code := ExitFailure
	if e.Code == engine.ErrCodeStorageUnavailable {
		code = ExitCommandError
	}
	return WrapExitError(code, string(e.Code), err)
}

// UsageError reports a malformed argument and returns an ExitCommandError.
func (f *OutputFormatter) UsageError(err error) error {
	_ = f.Error("E_USAGE", err.Error(), nil)
	return WrapExitError(ExitCommandError, "invalid argument", err)
}

// categoryList renders one "id name" line per category in text mode and a
// JSON array (never null) in JSON mode.
type categoryList []model.Category

func newCategoryList(cats []model.Category) categoryList {
	if cats == nil {
		return categoryList{}
	}
	return categoryList(cats)
}

func (l categoryList) String() string {
	if len(l) == 0 {
		return "(none)"
	}
	lines := make([]string, len(l))
	for i, c := range l {
		lines[i] = c.String()
	}
	return strings.Join(lines, "\n")
}

// parentResult is the output of the parent command.
type parentResult struct {
	Parent *model.Category `json:"parent"`
}

func (r parentResult) String() string {
	if r.Parent == nil {
		return "(root)"
	}
	return r.Parent.String()
}

// moveResult is the output of the move command.
type moveResult struct {
	ID     model.CategoryID  `json:"category_id"`
	Parent *model.CategoryID `json:"parent_id"`
}

func (r moveResult) String() string {
	if r.Parent == nil {
		return fmt.Sprintf("moved %d to root", r.ID)
	}
	return fmt.Sprintf("moved %d under %d", r.ID, *r.Parent)
}

// removeResult is the output of the rm command.
type removeResult struct {
	ID     model.CategoryID   `json:"category_id"`
	Policy model.RemovePolicy `json:"policy"`
}

func (r removeResult) String() string {
	return fmt.Sprintf("removed %d (policy %s)", r.ID, r.Policy)
}

// initResult is the output of the init command.
type initResult struct {
	Database      string `json:"db"`
	SchemaVersion int    `json:"schema_version"`
}

func (r initResult) String() string {
	return fmt.Sprintf("initialized %s (schema version %d)", r.Database, r.SchemaVersion)
}

// checkResult is the output of a passing check command.
type checkResult engine.ConsistencyReport

func (r checkResult) String() string {
	return fmt.Sprintf("ok: %d categories, %d paths", r.Categories, r.Paths)
}

func joinIDs(ids []model.CategoryID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ",")
}
