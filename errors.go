package feasibility

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput is matched by every task-set rejection.
//
//	if errors.Is(err, feasibility.ErrInvalidInput) { ... }
var ErrInvalidInput = errors.New("invalid task set")

// ErrHorizonTooLarge is returned by Simulate when the hyperperiod cannot be
// simulated within the configured horizon.
var ErrHorizonTooLarge = errors.New("simulation horizon too large")

// ErrorCode identifies the kind of input rejection.
type ErrorCode string

const (
	CodeEmptyTaskSet  ErrorCode = "INPUT-001"
	CodeNonPositive   ErrorCode = "INPUT-002"
	CodePriorityOrder ErrorCode = "INPUT-003"
	CodeUnknownPolicy ErrorCode = "INPUT-004"
	CodeShape         ErrorCode = "INPUT-005"
)

// InputError describes why a task set was rejected before analysis.
type InputError struct {
	Code    ErrorCode
	Index   int    // Offending task index, -1 when the whole set is at fault
	Field   string // "period", "wcet", "deadline" or "" for set-level errors
	Value   int64
	Message string
}

func (e *InputError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Index >= 0 {
		fmt.Fprintf(&b, " (task %d", e.Index+1)
		if e.Field != "" {
			fmt.Fprintf(&b, ", %s=%d", e.Field, e.Value)
		}
		b.WriteString(")")
	}
	return b.String()
}

// Is reports ErrInvalidInput as a match so callers need not know the concrete type.
func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func inputError(code ErrorCode, index int, field string, value int64, format string, args ...any) *InputError {
	return &InputError{
		Code:    code,
		Index:   index,
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf(format, args...),
	}
}
