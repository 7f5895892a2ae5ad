package receiver

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"Aethermodem/pkg/device"
	"Aethermodem/pkg/frame"
	"Aethermodem/pkg/modem"
)

// countingCapture records how often the receiver starts and stops it.
type countingCapture struct {
	device.Capture
	starts, stops int
}

func (c *countingCapture) Start() error {
	c.starts++
	return c.Capture.Start()
}

func (c *countingCapture) Stop() error {
	c.stops++
	return c.Capture.Stop()
}

func loopbackWith(t *testing.T, lead int, pcm ...[]int16) *device.Loopback {
	t.Helper()
	dev := &device.Loopback{Lead: lead}
	if err := dev.Open(); err != nil {
		t.Fatal(err)
	}
	for _, p := range pcm {
		if _, err := dev.Play(p); err != nil {
			t.Fatal(err)
		}
	}
	return dev
}

func TestReceiveHI(t *testing.T) {
	t.Parallel()

	pcm, err := modem.EncodeMessage([]byte("HI"))
	if err != nil {
		t.Fatal(err)
	}
	capture := &countingCapture{Capture: loopbackWith(t, 3*startWindow, pcm)}

	var states []State
	r := Receiver{
		Capture:       capture,
		OnStateChange: func(s State) { states = append(states, s) },
	}
	payload, err := r.Run(5 * time.Second)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if string(payload) != "HI" {
		t.Errorf("payload = %q, want HI", payload)
	}

	expected := []State{Idle, AwaitStartPreamble, RecordingUntilEndPreamble, Demodulating, Validating, Success}
	if !reflect.DeepEqual(states, expected) {
		t.Errorf("states = %v, want %v", states, expected)
	}
	if capture.starts != 1 || capture.stops != 1 {
		t.Errorf("capture started %d and stopped %d times, want 1 and 1", capture.starts, capture.stops)
	}
}

func TestReceiveWithNoise(t *testing.T) {
	t.Parallel()

	pcm, _ := modem.EncodeMessage([]byte("hello over the air"))
	dev := &device.Loopback{Lead: startWindow, Noise: 2000, Seed: 3}
	dev.Open()
	dev.Play(pcm)

	r := Receiver{Capture: dev}
	payload, err := r.Run(5 * time.Second)
	if err != nil || string(payload) != "hello over the air" {
		t.Errorf("Run() = %q, %v", payload, err)
	}
}

func TestReceiveStartAlignment(t *testing.T) {
	t.Parallel()

	pcm, _ := modem.EncodeMessage([]byte("HI"))

	// The start tone is found in whichever window first holds enough of
	// it. The data then starts lead%startWindow samples into the
	// recording, and only offsets inside one symbol are searched.
	tests := []struct {
		name string
		lead int
		err  error
	}{
		{"aligned", 2 * startWindow, nil},
		{"early in window", 100, nil},
		{"within one symbol", 1000, nil},
		{"half window", startWindow / 2, frame.ErrCrcMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Receiver{Capture: loopbackWith(t, tt.lead, pcm)}
			payload, err := r.Run(5 * time.Second)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Errorf("Run() error = %v, want %v", err, tt.err)
				}
				if r.State() != Failed {
					t.Errorf("State() = %v, want Failed", r.State())
				}
				return
			}
			if err != nil || string(payload) != "HI" {
				t.Errorf("Run() = %q, %v", payload, err)
			}
		})
	}
}

func TestReceiveSilenceTimesOut(t *testing.T) {
	t.Parallel()

	capture := &countingCapture{Capture: &device.Loopback{}}
	r := Receiver{Capture: capture}

	start := time.Now()
	_, err := r.Run(time.Second)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Run() error = %v, want ErrTimeout", err)
	}
	if elapsed < 900*time.Millisecond || elapsed > 2*time.Second {
		t.Errorf("Run() returned after %v, want about 1s", elapsed)
	}
	if r.State() != Failed {
		t.Errorf("State() = %v, want Failed", r.State())
	}
	if capture.stops != 1 {
		t.Errorf("capture stopped %d times, want 1", capture.stops)
	}
}

func TestReceiveWithoutEndPreamble(t *testing.T) {
	t.Parallel()

	bits, _ := frame.Encode([]byte("partial"))
	m := modem.NewModulator()
	signal := m.Tone(modem.PreambleFreq, modem.PreambleMs)
	signal = append(signal, m.Tone(0, modem.SilenceMs)...)
	signal = append(signal, m.ModulateBits(bits)...)
	signal = append(signal, m.Tone(0, modem.SilenceMs)...)

	r := Receiver{Capture: loopbackWith(t, 0, modem.FloatToPCM(signal))}
	payload, err := r.Run(500 * time.Millisecond)
	if err != nil || string(payload) != "partial" {
		t.Errorf("Run() = %q, %v; want best effort decode", payload, err)
	}
}

func TestReceiveStartPreambleOnly(t *testing.T) {
	t.Parallel()

	m := modem.NewModulator()
	tone := modem.FloatToPCM(m.Tone(modem.PreambleFreq, modem.PreambleMs))

	r := Receiver{Capture: loopbackWith(t, 0, tone)}
	if _, err := r.Run(300 * time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Errorf("Run() error = %v, want ErrTimeout", err)
	}
}

func TestReceiveProtocolFailures(t *testing.T) {
	t.Parallel()

	build := func(bits []bool) []int16 {
		return modem.NewModulator().BuildFrame(bits)
	}

	corrupted, _ := frame.Encode([]byte("flip"))
	corrupted[20] = !corrupted[20]

	truncated, _ := frame.Encode([]byte("cut"))
	truncated = truncated[:20]

	tests := []struct {
		name string
		pcm  []int16
		want error
	}{
		{"crc mismatch", build(corrupted), frame.ErrCrcMismatch},
		{"too few bits", build(truncated), frame.ErrInsufficientBits},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var last State
			r := Receiver{
				Capture:       loopbackWith(t, startWindow, tt.pcm),
				OnStateChange: func(s State) { last = s },
			}
			_, err := r.Run(2 * time.Second)
			if !errors.Is(err, tt.want) {
				t.Errorf("Run() error = %v, want %v", err, tt.want)
			}
			if last != Failed {
				t.Errorf("final state = %v, want Failed", last)
			}
		})
	}
}

type failingCapture struct {
	stops int
}

func (c *failingCapture) Start() error { return nil }
func (c *failingCapture) Read([]int16, time.Time) (int, error) {
	return 0, errors.New("input overflow")
}
func (c *failingCapture) Stop() error { c.stops++; return nil }

func TestReceiveDeviceError(t *testing.T) {
	t.Parallel()

	capture := &failingCapture{}
	r := Receiver{Capture: capture}
	_, err := r.Run(time.Second)
	if !errors.Is(err, device.ErrDevice) {
		t.Errorf("Run() error = %v, want ErrDevice", err)
	}
	if capture.stops != 1 {
		t.Errorf("capture stopped %d times, want 1", capture.stops)
	}
}

func TestReceiveFromWAV(t *testing.T) {
	t.Parallel()

	pcm, _ := modem.EncodeMessage([]byte("from a file"))
	path := filepath.Join(t.TempDir(), "message.wav")
	if err := device.WriteWAV(path, pcm); err != nil {
		t.Fatal(err)
	}

	r := Receiver{Capture: &device.WAVCapture{Path: path}}
	payload, err := r.Run(5 * time.Second)
	if err != nil || string(payload) != "from a file" {
		t.Errorf("Run() = %q, %v", payload, err)
	}
}

func TestReceiveFromEmptyWAVStream(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "silence.wav")
	if err := device.WriteWAV(path, make([]int16, 2*startWindow)); err != nil {
		t.Fatal(err)
	}

	r := Receiver{Capture: &device.WAVCapture{Path: path}}
	start := time.Now()
	_, err := r.Run(10 * time.Second)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Run() error = %v, want ErrTimeout", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("end of stream did not end the attempt early")
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	if s := RecordingUntilEndPreamble.String(); s != "RecordingUntilEndPreamble" {
		t.Errorf("String() = %q", s)
	}
	if s := State(42).String(); s != "State(?)" {
		t.Errorf("String() = %q", s)
	}
}
