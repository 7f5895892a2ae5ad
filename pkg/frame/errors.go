package frame

import "errors"

var (
	ErrInsufficientBits = errors.New("insufficient bits")
	ErrInvalidLength    = errors.New("invalid length")
	ErrCrcMismatch      = errors.New("crc mismatch")

	ErrEmptyPayload    = errors.New("payload is empty")
	ErrPayloadTooLarge = errors.New("payload exceeds 16-bit length field")
)
