package device

import (
	"sync"
	"time"

	"golang.org/x/exp/rand"
)

// Loopback is an in-memory channel: whatever is played can be read back
// from the capture side. It does not pace itself, so Play completes at
// once. Audio still unread when capture stops is dropped, like the
// buffer of a real input device.
type Loopback struct {
	Noise float64 // standard deviation of added white noise, in PCM units
	Seed  uint64  // noise seed
	Lead  int     // silence samples queued ahead of every played buffer

	mu      sync.Mutex
	rng     *rand.Rand
	started bool
	open    bool
	queue   Recorder
}

func (d *Loopback) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.started = true
	return nil
}

func (d *Loopback) Read(buf []int16, deadline time.Time) (int, error) {
	d.mu.Lock()
	started := d.started
	d.mu.Unlock()
	if !started {
		return 0, ErrNotStarted
	}
	return d.queue.Read(buf, deadline), nil
}

func (d *Loopback) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return ErrNotStarted
	}
	d.started = false
	d.queue.Reset()
	return nil
}

func (d *Loopback) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = true
	return nil
}

func (d *Loopback) Play(pcm []int16) (<-chan struct{}, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return nil, ErrNotStarted
	}

	signal := make([]int16, d.Lead+len(pcm))
	copy(signal[d.Lead:], pcm)
	if d.Noise > 0 {
		if d.rng == nil {
			d.rng = rand.New(rand.NewSource(d.Seed))
		}
		addNoise(signal, d.Noise, d.rng)
	}
	d.queue.Update(signal)

	done := make(chan struct{})
	close(done)
	return done, nil
}

func (d *Loopback) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return ErrClosed
	}
	d.open = false
	return nil
}

// Buffered is the number of samples waiting on the capture side.
func (d *Loopback) Buffered() int {
	return d.queue.Buffered()
}

// Inject queues pcm on the capture side as if it had been played.
func (d *Loopback) Inject(pcm []int16) {
	d.queue.Update(pcm)
}
