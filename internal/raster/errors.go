package raster

import "errors"

// IOError reports a failed raster read or write.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return "raster: " + e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *IOError) Unwrap() error { return e.Err }

// IsIOError reports whether err is or wraps an IOError.
func IsIOError(err error) bool {
	var target *IOError
	return errors.As(err, &target)
}
