package compiler

import (
	"errors"
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/stembed/internal/model"
)

// Error codes, shared with the CLI.
const (
	ErrCodeGeneric     = "E001" // generic/unknown error
	ErrCodeScanError   = "E002" // directory scan error
	ErrCodeNoFiles     = "E003" // no CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // path not found
	ErrCodeBuildFailed = "E006" // CUE build failed

	ErrCodeInvalidProcess        = "E201" // process failed validation
	ErrCodeInvalidImplementation = "E202" // implementation failed validation
	ErrCodeInvalidSpacetime      = "E203" // spacetime failed validation
	ErrCodeUnknownProcess        = "E204" // implementation names an undefined process
)

// CompileError represents a compilation error with source position.
type CompileError struct {
	Code    string
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
}

// ErrorCode returns the code carried by err, or ErrCodeGeneric.
func ErrorCode(err error) string {
	var ce *CompileError
	if errors.As(err, &ce) && ce.Code != "" {
		return ce.Code
	}
	return ErrCodeGeneric
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := cueerrors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Code:    ErrCodeGeneric,
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}

// modelError converts a model failure into a CompileError, keeping the
// full problem list in the message. Errors that carry no validation code
// (order errors raised while building) get fallback.
func modelError(err error, fallback, field string, pos token.Pos) error {
	code := fallback
	switch {
	case model.IsInvalidProcess(err):
		code = ErrCodeInvalidProcess
	case model.IsInvalidImplementation(err):
		code = ErrCodeInvalidImplementation
	case model.IsInvalidSpacetime(err):
		code = ErrCodeInvalidSpacetime
	}
	return &CompileError{Code: code, Field: field, Message: err.Error(), Pos: pos}
}
