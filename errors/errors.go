package errors

import (
	"fmt"

	"shift-scheduler/models"
)

// RangeError reports a time range that could not be turned into hours.
type RangeError struct {
	Employee string
	Day      models.Day
	Field    string
	Index    int
	Input    string
	Err      error
}

func (e *RangeError) Error() string {
	if e.Employee == "" {
		return fmt.Sprintf("range %d %q: %v", e.Index, e.Input, e.Err)
	}
	return fmt.Sprintf("employee %q %s %s range %d %q: %v", e.Employee, e.Day, e.Field, e.Index, e.Input, e.Err)
}

func (e *RangeError) Unwrap() error {
	return e.Err
}

// ConfigError points at the configuration or employee field that is invalid.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error at %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// SolveStatus records why no schedule was produced. Proven infeasibility and
// an exhausted time budget are both reported through DiagnosticError.
type SolveStatus string

const (
	StatusInfeasible SolveStatus = "infeasible"
	StatusTimedOut   SolveStatus = "timed_out"
)

// DiagnosticError explains a failed solve. Violation is the first staffing
// requirement found uncoverable, or nil when the conflict lies in shift length
// or hour caps.
type DiagnosticError struct {
	Message   string
	Violation *models.Violation
	Status    SolveStatus
}

func (e *DiagnosticError) Error() string {
	return e.Message
}

// Define specific error types for better error handling
var (
	ErrInvalidRange      = fmt.Errorf("invalid time range")
	ErrInvertedRange     = fmt.Errorf("end hour must be after start hour")
	ErrMissingField      = fmt.Errorf("missing required field")
	ErrInvalidConfig     = fmt.Errorf("invalid configuration")
	ErrUnknownDay        = fmt.Errorf("unknown day")
	ErrInvalidHour       = fmt.Errorf("invalid hour")
	ErrDuplicateEmployee = fmt.Errorf("duplicate employee name")
	ErrDuplicateDay      = fmt.Errorf("day listed more than once")
	ErrNoEmployees       = fmt.Errorf("no employees")
	ErrEngine            = fmt.Errorf("solver engine failure")
	ErrInvalidAssignment = fmt.Errorf("assignment violates constraints")
	ErrMalformedDocument = fmt.Errorf("malformed document")
)
