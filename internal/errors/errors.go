// Package errors defines the failure taxonomy of a capture session.
//
// A session ends in exactly one of these outcomes:
//   - ErrSelectionCancelled: the user backed out of region selection. Not a failure.
//   - ToolSpawnError: an external program could not be started at all.
//   - ToolExecutionError: an external program ran and exited non-zero.
//   - SignalError: the stop signal could not be delivered to a running capture.
//     Callers downgrade this to a warning and keep waiting on the process.
//   - IOError: output or scratch files could not be written, found, or removed.
//
// Nothing in this taxonomy is retryable. Every external tool is assumed to behave
// the same way on a second run in the same environment.
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions so callers only need this package.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// ErrSelectionCancelled indicates the user dismissed the region selector.
var ErrSelectionCancelled = New("selection cancelled")

// ErrUnsupported indicates the requested capture mode has no backend on this platform.
var ErrUnsupported = New("capture mode not supported on this platform")

// Exit codes reported by the drop binary.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitCancelled = 2
)

// ToolSpawnError is returned when an external program could not be started.
type ToolSpawnError struct {
	Tool string
	Err  error
}

// NewToolSpawnError creates a new ToolSpawnError.
func NewToolSpawnError(tool string, err error) *ToolSpawnError {
	return &ToolSpawnError{Tool: tool, Err: err}
}

func (e *ToolSpawnError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Tool, e.Err)
}

func (e *ToolSpawnError) Unwrap() error { return e.Err }

// ToolExecutionError is returned when an external program exits unsuccessfully.
// Op is the user-facing description of what failed, e.g. "failed to take screenshot".
type ToolExecutionError struct {
	Op   string
	Tool string
	Code int
	Err  error
}

// NewToolExecutionError creates a new ToolExecutionError for a non-zero exit.
func NewToolExecutionError(op, tool string, code int) *ToolExecutionError {
	return &ToolExecutionError{Op: op, Tool: tool, Code: code}
}

// WithCause attaches the underlying error, e.g. a failed wait.
func (e *ToolExecutionError) WithCause(err error) *ToolExecutionError {
	e.Err = err
	return e
}

func (e *ToolExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Tool, e.Err)
	}
	return fmt.Sprintf("%s: %s exited with status %d", e.Op, e.Tool, e.Code)
}

func (e *ToolExecutionError) Unwrap() error { return e.Err }

// SignalError is returned when a termination signal could not be delivered.
type SignalError struct {
	Tool string
	Pid  int
	Err  error
}

// NewSignalError creates a new SignalError.
func NewSignalError(tool string, pid int, err error) *SignalError {
	return &SignalError{Tool: tool, Pid: pid, Err: err}
}

func (e *SignalError) Error() string {
	return fmt.Sprintf("failed to signal %s (pid %d): %v", e.Tool, e.Pid, e.Err)
}

func (e *SignalError) Unwrap() error { return e.Err }

// IOError is returned when managing output or scratch files fails.
type IOError struct {
	Op   string
	Path string
	Err  error
}

// NewIOError creates a new IOError.
func NewIOError(op, path string, err error) *IOError {
	return &IOError{Op: op, Path: path, Err: err}
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// IsCancelled reports whether err represents a user cancellation.
func IsCancelled(err error) bool {
	return Is(err, ErrSelectionCancelled)
}

// ExitCode maps a session outcome to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case IsCancelled(err):
		return ExitCancelled
	default:
		return ExitFailure
	}
}
