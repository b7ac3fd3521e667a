package embed

import (
	"errors"
	"fmt"
)

// LocalisationError reports an invalid boundary pin.
type LocalisationError struct {
	Node   string
	Point  string
	Reason string
}

// Error implements the error interface.
func (e *LocalisationError) Error() string {
	return fmt.Sprintf("INVALID_LOCALISATION: pin %s=%s: %s", e.Node, e.Point, e.Reason)
}

// IsInvalidLocalisation returns true if err is (or wraps) a LocalisationError.
func IsInvalidLocalisation(err error) bool {
	var le *LocalisationError
	return errors.As(err, &le)
}
