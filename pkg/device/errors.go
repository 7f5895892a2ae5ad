package device

import "errors"

var (
	ErrDevice             = errors.New("audio device error")
	ErrUnsupportedFormat  = errors.New("unsupported audio format")
	ErrUnsupportedBackend = errors.New("audio backend not available on this platform")
	ErrNotStarted         = errors.New("device not started")
	ErrClosed             = errors.New("device closed")
	ErrBusy               = errors.New("playback already in progress")
)
