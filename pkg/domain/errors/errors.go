package errors

import "errors"

// requested record does not exist.
var ErrMissing = errors.New("missing record")

// more records exist than the operation expects.
var ErrTooMuch = errors.New("too much records")
