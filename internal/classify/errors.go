package classify

import (
	"errors"
	"fmt"
)

// ClassificationError reports breaks that cannot be computed or applied
// without conflating valid data with nodata.
type ClassificationError struct {
	Reason string
	Err    error
}

func (e *ClassificationError) Error() string {
	if e.Err != nil {
		return "classify: " + e.Reason + ": " + e.Err.Error()
	}
	return "classify: " + e.Reason
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// IsClassification reports whether err is or wraps a ClassificationError.
func IsClassification(err error) bool {
	var target *ClassificationError
	return errors.As(err, &target)
}

func failf(format string, args ...any) error {
	return &ClassificationError{Reason: fmt.Sprintf(format, args...)}
}
