// Package receiver listens on a capture stream for a single framed
// transmission and returns its payload.
package receiver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"Aethermodem/pkg/device"
	"Aethermodem/pkg/frame"
	"Aethermodem/pkg/modem"
)

const (
	DefaultTimeout = 30 * time.Second

	discardBuffer = 1024
)

var (
	startWindow  = modem.MsToSamples(modem.PreambleMs / 2)
	startDiscard = modem.MsToSamples(modem.PreambleMs/2 + modem.SilenceMs)
	endWindow    = modem.MsToSamples(modem.EndPreambleMs / 2)
)

// Receiver runs one listening attempt per Run call. It is not safe for
// concurrent use.
type Receiver struct {
	Capture       device.Capture
	Logger        *slog.Logger
	OnStateChange func(State)

	Demodulator modem.Demodulator

	state State
}

// State is the phase the last Run reached.
func (r *Receiver) State() State { return r.state }

func (r *Receiver) setState(s State) {
	r.state = s
	r.logger().Debug("[Receiver] state change", "state", s.String())
	if r.OnStateChange != nil {
		r.OnStateChange(s)
	}
}

func (r *Receiver) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// Run captures until a complete frame has been heard or timeout passes,
// then decodes it. A timeout of zero or less means DefaultTimeout.
func (r *Receiver) Run(timeout time.Duration) (payload []byte, err error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	deadline := time.Now().Add(timeout)
	logger := r.logger()

	r.setState(Idle)
	if err := r.Capture.Start(); err != nil {
		r.setState(Failed)
		return nil, wrapDevice("start capture", err)
	}
	defer func() {
		if stopErr := r.Capture.Stop(); stopErr != nil && err == nil {
			payload, err = nil, wrapDevice("stop capture", stopErr)
		}
		if err != nil {
			r.setState(Failed)
		} else {
			r.setState(Success)
		}
	}()

	r.setState(AwaitStartPreamble)
	if err := r.awaitStart(deadline); err != nil {
		return nil, err
	}

	r.setState(RecordingUntilEndPreamble)
	recording, err := r.record(deadline)
	if err != nil {
		return nil, err
	}

	r.setState(Demodulating)
	demodulator := r.Demodulator
	if demodulator.Logger == nil {
		demodulator.Logger = logger
	}
	bits := demodulator.Demodulate(recording)
	logger.Info("[Demodulation] demodulated bits", "bits", len(bits))
	if len(bits) < frame.MinBits {
		return nil, fmt.Errorf("%w: demodulated %d bits", frame.ErrInsufficientBits, len(bits))
	}

	r.setState(Validating)
	payload, err = frame.Decode(bits)
	if err != nil {
		logger.Info("[Validating] frame rejected", "error", err)
		return nil, err
	}
	logger.Info("[Validating] frame accepted", "length", len(payload))
	return payload, nil
}

func (r *Receiver) awaitStart(deadline time.Time) error {
	window := make([]int16, startWindow)
	for {
		n, err := readFull(r.Capture, window, deadline)
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if n < len(window) {
			r.logger().Info("[Receiver] no start preamble before deadline")
			return ErrTimeout
		}
		if power, ok := modem.StartDetector.Detect(window); ok {
			r.logger().Info("[Receiver] start preamble detected", "power", power)
			return r.discard(startDiscard, deadline)
		}
	}
}

// discard drops the rest of the start tone and the silence gap. A read
// that returns nothing only cuts the skip short.
func (r *Receiver) discard(n int, deadline time.Time) error {
	buf := make([]int16, min(n, discardBuffer))
	for n > 0 {
		got, err := r.Capture.Read(buf[:min(n, len(buf))], deadline)
		if err != nil && !errors.Is(err, io.EOF) {
			return wrapDevice("read", err)
		}
		if got == 0 {
			return nil
		}
		n -= got
	}
	return nil
}

func (r *Receiver) record(deadline time.Time) ([]int16, error) {
	var recording []int16
	window := make([]int16, endWindow)
	for {
		n, err := readFull(r.Capture, window, deadline)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		recording = append(recording, window[:n]...)
		if n > 0 {
			if power, ok := modem.EndDetector.Detect(window[:n]); ok {
				r.logger().Info("[Receiver] end preamble detected", "power", power, "samples", len(recording))
				return recording, nil
			}
		}
		if n < len(window) {
			if len(recording) == 0 {
				r.logger().Info("[Receiver] nothing recorded before deadline")
				return nil, ErrTimeout
			}
			r.logger().Info("[Receiver] no end preamble, decoding what was recorded", "samples", len(recording))
			return recording, nil
		}
	}
}

// readFull reads until buf is full, the deadline passes or the stream
// ends. Device failures come back wrapped in device.ErrDevice.
func readFull(c device.Capture, buf []int16, deadline time.Time) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := c.Read(buf[total:], deadline)
		total += n
		if err != nil {
			if errors.Is(err, io.EOF) {
				return total, err
			}
			return total, wrapDevice("read", err)
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}

func wrapDevice(op string, err error) error {
	if errors.Is(err, device.ErrDevice) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %v", device.ErrDevice, op, err)
}
