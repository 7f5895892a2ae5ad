// Package device connects the modem to sound hardware, files and
// in-memory channels.
//
// The receive side is a Capture, the transmit side a Playback. Backends
// driven by an audio callback implement Device instead and are adapted
// to both ports by a Stream.
package device

import "time"

// Capture is a source of mono 16-bit samples at 44.1 kHz.
type Capture interface {
	Start() error
	// Read blocks until at least one sample is available or deadline
	// passes. It returns 0, nil when nothing arrived in time and io.EOF
	// once the stream has ended.
	Read(buf []int16, deadline time.Time) (int, error)
	Stop() error
}

// Playback is a sink of mono 16-bit samples at 44.1 kHz.
type Playback interface {
	Open() error
	// Play queues pcm. The returned channel is closed once every sample
	// has been handed to the output.
	Play(pcm []int16) (<-chan struct{}, error)
	Close() error
}

// Realtime is implemented by backends whose output takes wall-clock
// time to leave the speaker.
type Realtime interface {
	Realtime() bool
}

// IsRealtime reports whether v plays or records at the speed of sound.
func IsRealtime(v any) bool {
	r, ok := v.(Realtime)
	return ok && r.Realtime()
}

// Device is a full-duplex callback driven audio interface. Samples are
// 32-bit with the 16-bit signal in the high half.
type Device interface {
	Start(callback func(in, out []int32)) error
	Stop() error
}

const (
	SampleRate = 44100
	BufferSize = 512
)
