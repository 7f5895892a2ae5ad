//go:build !windows

package device

import "fmt"

// NewASIO returns a Device that refuses to start; ASIO drivers exist
// only on windows.
func NewASIO(name string) Device {
	return unavailable{name}
}

type unavailable struct{ name string }

func (u unavailable) Start(func(in, out []int32)) error {
	return fmt.Errorf("%w: asio %q", ErrUnsupportedBackend, u.name)
}

func (unavailable) Stop() error { return ErrNotStarted }
