package interp

import (
	"errors"
	"strconv"
)

// MinPoints is the fewest set cells linear and cubic interpolation accept.
// Nearest needs one.
const MinPoints = 3

// InsufficientDataError reports that the set cells cannot support
// interpolation.
type InsufficientDataError struct {
	Valid  int
	Reason string
}

func (e *InsufficientDataError) Error() string {
	return "interp: insufficient data: " + e.Reason + " (" + strconv.Itoa(e.Valid) + " valid cells)"
}

// IsInsufficient reports whether err is or wraps an InsufficientDataError.
func IsInsufficient(err error) bool {
	var target *InsufficientDataError
	return errors.As(err, &target)
}
