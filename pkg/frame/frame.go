// Package frame implements the acoustic link framing:
//
//	| length (u16 BE) | payload (length bytes) | crc16 (u16 BE) |
//
// The CRC is CRC16-CCITT (poly 0x1021, init 0xFFFF) over the length and
// payload bytes.
package frame

import (
	"encoding/binary"
	"fmt"
	"math"

	"Aethermodem/pkg/crc"
)

const (
	HeaderSize  = 2
	TrailerSize = 2

	// MaxPayload is the largest length a receiver accepts.
	MaxPayload = 8192

	// MinBits is the smallest bit sequence Decode looks at.
	MinBits = (HeaderSize + TrailerSize) * 8
)

type Frame struct {
	payload []byte
	crc     uint16
}

// New builds the frame for payload. The payload is copied.
func New(payload []byte) (Frame, error) {
	if len(payload) == 0 {
		return Frame{}, ErrEmptyPayload
	}
	if len(payload) > math.MaxUint16 {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	p := append([]byte(nil), payload...)
	return Frame{payload: p, crc: checksum(uint16(len(p)), p)}, nil
}

func (f Frame) Length() int { return len(f.payload) }

func (f Frame) Payload() []byte { return append([]byte(nil), f.payload...) }

func (f Frame) CRC() uint16 { return f.crc }

// Bytes returns the wire form of the frame.
func (f Frame) Bytes() []byte {
	out := make([]byte, HeaderSize+len(f.payload)+TrailerSize)
	binary.BigEndian.PutUint16(out, uint16(len(f.payload)))
	copy(out[HeaderSize:], f.payload)
	binary.BigEndian.PutUint16(out[HeaderSize+len(f.payload):], f.crc)
	return out
}

func (f Frame) Bits() []bool {
	return BytesToBits(f.Bytes())
}

// Encode frames message and expands it into bits, MSB first.
func Encode(message []byte) ([]bool, error) {
	f, err := New(message)
	if err != nil {
		return nil, err
	}
	return f.Bits(), nil
}

// Decode validates a demodulated bit sequence and returns its payload.
// Bits after the CRC are ignored.
func Decode(bits []bool) ([]byte, error) {
	if len(bits) < MinBits {
		return nil, fmt.Errorf("%w: got %d, need at least %d", ErrInsufficientBits, len(bits), MinBits)
	}

	length := int(bitsToUint16(bits[:16]))
	if length <= 0 || length > MaxPayload {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}

	required := 16 + length*8 + 16
	if len(bits) < required {
		return nil, fmt.Errorf("%w: got %d, need %d", ErrInsufficientBits, len(bits), required)
	}

	payload := BitsToBytes(bits[16 : 16+length*8])
	received := bitsToUint16(bits[16+length*8 : required])
	calculated := checksum(uint16(length), payload)
	if received != calculated {
		return nil, fmt.Errorf("%w: received %#04x, calculated %#04x", ErrCrcMismatch, received, calculated)
	}

	return payload, nil
}

// Parse is the byte-level counterpart of Decode.
func Parse(data []byte) (Frame, error) {
	if len(data) < HeaderSize+TrailerSize {
		return Frame{}, fmt.Errorf("%w: got %d bytes", ErrInsufficientBits, len(data))
	}
	length := int(binary.BigEndian.Uint16(data))
	if length <= 0 || length > MaxPayload {
		return Frame{}, fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}
	if len(data) < HeaderSize+length+TrailerSize {
		return Frame{}, fmt.Errorf("%w: got %d bytes, need %d", ErrInsufficientBits, len(data), HeaderSize+length+TrailerSize)
	}
	payload := data[HeaderSize : HeaderSize+length]
	received := binary.BigEndian.Uint16(data[HeaderSize+length:])
	if calculated := checksum(uint16(length), payload); received != calculated {
		return Frame{}, fmt.Errorf("%w: received %#04x, calculated %#04x", ErrCrcMismatch, received, calculated)
	}
	return Frame{payload: append([]byte(nil), payload...), crc: received}, nil
}

func checksum(length uint16, payload []byte) uint16 {
	c := crc.New()
	c.Update(byte(length >> 8))
	c.Update(byte(length))
	c.Write(payload)
	return c.Sum16()
}
