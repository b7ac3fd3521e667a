package model

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationCode categorizes whole-structure validation failures.
type ValidationCode string

const (
	CodeInvalidProcess        ValidationCode = "INVALID_PROCESS"
	CodeInvalidImplementation ValidationCode = "INVALID_IMPLEMENTATION"
	CodeInvalidSpacetime      ValidationCode = "INVALID_SPACETIME"
)

// ValidationError reports every structural problem found in one subject.
//
// Validation does not fail fast: callers get the complete list so a CUE
// author can fix all problems in one pass.
type ValidationError struct {
	Code     ValidationCode `json:"code"`
	Subject  string         `json:"subject,omitempty"`
	Problems []string       `json:"problems"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	msg := strings.Join(e.Problems, "; ")
	if e.Subject != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Subject, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func hasValidationCode(err error, code ValidationCode) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code == code
	}
	return false
}

// IsInvalidProcess returns true if err is (or wraps) an INVALID_PROCESS error.
func IsInvalidProcess(err error) bool { return hasValidationCode(err, CodeInvalidProcess) }

// IsInvalidImplementation returns true if err is (or wraps) an
// INVALID_IMPLEMENTATION error.
func IsInvalidImplementation(err error) bool {
	return hasValidationCode(err, CodeInvalidImplementation)
}

// IsInvalidSpacetime returns true if err is (or wraps) an INVALID_SPACETIME error.
func IsInvalidSpacetime(err error) bool { return hasValidationCode(err, CodeInvalidSpacetime) }

// problems accumulates messages for a ValidationError.
type problems []string

func (p *problems) addf(format string, args ...any) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

func (p problems) err(code ValidationCode, subject string) error {
	if len(p) == 0 {
		return nil
	}
	return &ValidationError{Code: code, Subject: subject, Problems: p}
}
