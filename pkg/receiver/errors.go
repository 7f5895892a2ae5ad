package receiver

import "errors"

// ErrTimeout means no frame started before the deadline, or the capture
// stream ended first.
var ErrTimeout = errors.New("receive timed out")
