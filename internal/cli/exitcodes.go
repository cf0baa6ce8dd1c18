package cli

import (
	"errors"
	"fmt"
)

// Exit codes for CLI commands.
// These codes follow Unix conventions and provide consistent error reporting
// across all CLI commands.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitError indicates a general error occurred.
	// Use for: Database errors, unexpected failures, or any error that
	// doesn't fit the specific categories below.
	ExitError = 1

	// ExitUsage indicates incorrect command usage.
	// Use for: Missing required flags, malformed dates or IDs.
	ExitUsage = 2

	// ExitNotFound indicates a requested resource was not found.
	// Use for: Unknown project, work package, relation, custom field,
	// hierarchy item, webhook or user.
	ExitNotFound = 3

	// ExitDataErr indicates the data changed underneath the command.
	// Use for: Stale lock versions.
	ExitDataErr = 4

	// ExitValidation indicates a contract rejected the change.
	ExitValidation = 5
)

// CodeError carries the process exit code for a reported failure
type CodeError struct {
	Code int
	Err  error
}

func (e *CodeError) Error() string { return e.Err.Error() }

func (e *CodeError) Unwrap() error { return e.Err }

// UsageError reports incorrect command usage
func UsageError(format string, args ...any) error {
	return &CodeError{Code: ExitUsage, Err: fmt.Errorf(format, args...)}
}

// ExitCode returns the process exit code for err
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ExitError
}
