package imaging

import (
	"errors"
	"fmt"
)

// ErrDegenerateInput is returned when color reduction finds no usable pixels.
var ErrDegenerateInput = errors.New("no usable pixels for color reduction")

// UnreadableImageError reports a file that exists but could not be decoded.
type UnreadableImageError struct {
	Path string
	Err  error
}

func (e *UnreadableImageError) Error() string {
	return fmt.Sprintf("unreadable image %s: %v", e.Path, e.Err)
}

func (e *UnreadableImageError) Unwrap() error { return e.Err }
