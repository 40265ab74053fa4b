package exitcode

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/alexshd/feasibility"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates every analyzed task set is feasible
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage or a rejected task set
	UsageError = 2

	// Infeasible indicates at least one task set cannot meet its deadlines
	Infeasible = 3

	// Interrupted indicates the run was cancelled by a signal
	Interrupted = 130
)

// ErrInfeasible is returned by commands that found an infeasible task set.
var ErrInfeasible = errors.New("infeasible task set")

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	Exit(DetermineExitCode(err))
}

// DetermineExitCode analyzes an error and returns the appropriate exit code
func DetermineExitCode(err error) int {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, ErrInfeasible):
		return Infeasible
	case errors.Is(err, context.Canceled):
		return Interrupted
	case errors.Is(err, feasibility.ErrInvalidInput):
		return UsageError
	}

	// cobra reports usage problems as plain errors
	errMsg := strings.ToLower(err.Error())
	for _, marker := range []string{"unknown command", "unknown flag", "unknown shorthand", "invalid argument", "required flag", "accepts", "requires at least"} {
		if strings.Contains(errMsg, marker) {
			return UsageError
		}
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags, arguments or task set)"
	case Infeasible:
		return "Infeasible task set"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
