package facematch

import "errors"

// ErrInvalidInput marks malformed client input (bad descriptor, missing name).
// It is returned before any comparison runs.
var ErrInvalidInput = errors.New("invalid input")
