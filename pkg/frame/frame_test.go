package frame

import (
	"bytes"
	"crypto/rand"
	"errors"
	"reflect"
	"testing"

	"Aethermodem/pkg/crc"
)

func TestEncodeHI(t *testing.T) {
	t.Parallel()

	bits, err := Encode([]byte("HI"))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(bits) != 48 {
		t.Fatalf("len(bits) = %d, want 48", len(bits))
	}

	data := BitsToBytes(bits)
	wantCRC := crc.Checksum([]byte{0x00, 0x02, 0x48, 0x49})
	want := []byte{0x00, 0x02, 0x48, 0x49, byte(wantCRC >> 8), byte(wantCRC)}
	if !bytes.Equal(data, want) {
		t.Errorf("frame bytes = % x, want % x", data, want)
	}

	got, err := Decode(bits)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if string(got) != "HI" {
		t.Errorf("Decode() = %q, want %q", got, "HI")
	}
}

func TestBitsMSBFirst(t *testing.T) {
	t.Parallel()

	bits := BytesToBits([]byte{0x80, 0x01})
	want := []bool{
		true, false, false, false, false, false, false, false,
		false, false, false, false, false, false, false, true,
	}
	if !reflect.DeepEqual(bits, want) {
		t.Errorf("BytesToBits = %v, want %v", bits, want)
	}
	if got := BitsToBytes(append(bits, true, true)); !bytes.Equal(got, []byte{0x80, 0x01}) {
		t.Errorf("BitsToBytes = % x, want 80 01", got)
	}
}

func TestEncodeRejects(t *testing.T) {
	t.Parallel()

	if _, err := Encode(nil); !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("Encode(nil) error = %v, want ErrEmptyPayload", err)
	}
	if _, err := Encode(make([]byte, 65536)); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("Encode(65536 bytes) error = %v, want ErrPayloadTooLarge", err)
	}
	if _, err := Encode(make([]byte, 65535)); err != nil {
		t.Errorf("Encode(65535 bytes) error = %v, want nil", err)
	}
}

// rawFrame builds a frame with an arbitrary length field and a correct
// CRC over whatever bytes are given.
func rawFrame(length uint16, payload []byte) []bool {
	c := crc.New()
	c.Update(byte(length >> 8))
	c.Update(byte(length))
	c.Write(payload)
	sum := c.Sum16()
	data := append([]byte{byte(length >> 8), byte(length)}, payload...)
	data = append(data, byte(sum>>8), byte(sum))
	return BytesToBits(data)
}

func TestDecodeLengthBoundary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		length  uint16
		payload int
		wantErr error
	}{
		{"zero length", 0, 0, ErrInvalidLength},
		{"one byte", 1, 1, nil},
		{"max payload", MaxPayload, MaxPayload, nil},
		{"over max payload", MaxPayload + 1, MaxPayload + 1, ErrInvalidLength},
		{"all ones length", 0xFFFF, 8, ErrInvalidLength},
		{"truncated payload", 10, 4, ErrInsufficientBits},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := make([]byte, tt.payload)
			rand.Read(payload)
			got, err := Decode(rawFrame(tt.length, payload))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Decode() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && !bytes.Equal(got, payload) {
				t.Errorf("Decode() payload mismatch")
			}
		})
	}
}

func TestDecodeTooFewBits(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 16, 31} {
		if _, err := Decode(make([]bool, n)); !errors.Is(err, ErrInsufficientBits) {
			t.Errorf("Decode(%d bits) error = %v, want ErrInsufficientBits", n, err)
		}
	}
}

func TestDecodeIgnoresTrailingBits(t *testing.T) {
	t.Parallel()

	bits, _ := Encode([]byte("trailing"))
	bits = append(bits, true, false, true, true, false, true, false)
	got, err := Decode(bits)
	if err != nil || string(got) != "trailing" {
		t.Errorf("Decode() = %q, %v", got, err)
	}
}

func TestDecodeSingleBitErrors(t *testing.T) {
	t.Parallel()

	message := []byte("single bit flips")
	bits, _ := Encode(message)
	payloadEnd := 16 + len(message)*8

	for i := range payloadEnd {
		corrupted := append([]bool(nil), bits...)
		corrupted[i] = !corrupted[i]

		_, err := Decode(corrupted)
		if err == nil {
			t.Fatalf("flip of bit %d decoded successfully", i)
		}
		if i >= 16 && !errors.Is(err, ErrCrcMismatch) {
			t.Errorf("payload flip %d: error = %v, want ErrCrcMismatch", i, err)
		}
		if i < 16 && !errors.Is(err, ErrCrcMismatch) && !errors.Is(err, ErrInvalidLength) && !errors.Is(err, ErrInsufficientBits) {
			t.Errorf("length flip %d: unexpected error %v", i, err)
		}
	}
}

func TestCrcFieldCorruption(t *testing.T) {
	t.Parallel()

	bits, _ := Encode([]byte("crc"))
	bits[len(bits)-1] = !bits[len(bits)-1]
	if _, err := Decode(bits); !errors.Is(err, ErrCrcMismatch) {
		t.Errorf("Decode() error = %v, want ErrCrcMismatch", err)
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	f, err := New([]byte("parse me"))
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := Parse(f.Bytes())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !reflect.DeepEqual(parsed, f) {
		t.Errorf("Parse() = %+v, want %+v", parsed, f)
	}

	data := f.Bytes()
	data[3] ^= 0x10
	if _, err := Parse(data); !errors.Is(err, ErrCrcMismatch) {
		t.Errorf("Parse(corrupted) error = %v, want ErrCrcMismatch", err)
	}
	if _, err := Parse(data[:3]); !errors.Is(err, ErrInsufficientBits) {
		t.Errorf("Parse(short) error = %v, want ErrInsufficientBits", err)
	}
}

func TestFramePayloadIsCopied(t *testing.T) {
	t.Parallel()

	payload := []byte("abc")
	f, _ := New(payload)
	payload[0] = 'z'
	if string(f.Payload()) != "abc" {
		t.Errorf("frame payload changed with caller buffer: %q", f.Payload())
	}
	if f.Length() != 3 {
		t.Errorf("Length() = %d, want 3", f.Length())
	}
}
