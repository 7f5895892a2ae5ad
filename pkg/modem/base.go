// Package modem turns bit sequences into FSK audio and back.
//
// A transmission is laid out as
//
//	[start tone 4000 Hz, 250 ms][silence 50 ms][symbols][end tone 5000 Hz, 100 ms]
//
// with one 40 ms symbol per bit, 2000 Hz for 0 and 3000 Hz for 1.
package modem

import "Aethermodem/pkg/frame"

// EncodeMessage frames message and renders the complete waveform.
// The result is deterministic: every call starts from phase zero.
func EncodeMessage(message []byte) ([]int16, error) {
	bits, err := frame.Encode(message)
	if err != nil {
		return nil, err
	}
	return NewModulator().BuildFrame(bits), nil
}
