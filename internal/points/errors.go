package points

import (
	"errors"

	"github.com/rotisserie/eris"
)

// InvalidDatasetError reports malformed or insufficient point input.
type InvalidDatasetError struct {
	Reason string
	Err    error
}

func (e *InvalidDatasetError) Error() string {
	if e.Err != nil {
		return "points: invalid dataset: " + e.Reason + ": " + e.Err.Error()
	}
	return "points: invalid dataset: " + e.Reason
}

func (e *InvalidDatasetError) Unwrap() error { return e.Err }

// IsInvalid reports whether err is or wraps an InvalidDatasetError.
func IsInvalid(err error) bool {
	var target *InvalidDatasetError
	return errors.As(err, &target)
}

func invalid(reason string, cause error) error {
	if cause != nil {
		cause = eris.Wrap(cause, "points: parse")
	}
	return &InvalidDatasetError{Reason: reason, Err: cause}
}
