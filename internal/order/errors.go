package order

import (
	"errors"
	"fmt"
)

// Code categorizes construction errors.
type Code string

const (
	// CodeDuplicateID indicates AddPoint was called with an ID already present.
	CodeDuplicateID Code = "DUPLICATE_ID"

	// CodeUnknownPoint indicates a relation referenced an ID that is not present.
	CodeUnknownPoint Code = "UNKNOWN_POINT"

	// CodeCycleViolation indicates a relation would make some ID precede itself.
	CodeCycleViolation Code = "CYCLE_VIOLATION"
)

// Error is returned by mutating operations on an Order.
//
// The offending mutation is aborted; the order stays in its last valid state.
type Error struct {
	Code Code
	Op   string // "add_point" or "add_relation"
	A    string
	B    string // empty for add_point
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Code {
	case CodeDuplicateID:
		return fmt.Sprintf("%s: %s: %q already present", e.Code, e.Op, e.A)
	case CodeUnknownPoint:
		if e.B == "" {
			return fmt.Sprintf("%s: %s: %q", e.Code, e.Op, e.A)
		}
		return fmt.Sprintf("%s: %s: %q -> %q references an unknown point", e.Code, e.Op, e.A, e.B)
	case CodeCycleViolation:
		return fmt.Sprintf("%s: %s: %q -> %q would create a cycle", e.Code, e.Op, e.A, e.B)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Op)
	}
}

func hasCode(err error, code Code) bool {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Code == code
	}
	return false
}

// IsDuplicateID returns true if err is (or wraps) a DUPLICATE_ID error.
func IsDuplicateID(err error) bool { return hasCode(err, CodeDuplicateID) }

// IsUnknownPoint returns true if err is (or wraps) an UNKNOWN_POINT error.
func IsUnknownPoint(err error) bool { return hasCode(err, CodeUnknownPoint) }

// IsCycleViolation returns true if err is (or wraps) a CYCLE_VIOLATION error.
func IsCycleViolation(err error) bool { return hasCode(err, CodeCycleViolation) }
