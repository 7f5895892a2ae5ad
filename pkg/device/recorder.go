package device

import (
	"sync"
	"time"

	"Aethermodem/pkg/async"
)

// DefaultRecorderLimit bounds how much unread audio a Recorder keeps.
const DefaultRecorderLimit = 60 * SampleRate

// Recorder buffers samples delivered by an input callback until a
// reader picks them up.
type Recorder struct {
	Limit int // unread samples kept once the backlog doubles it; 0 means DefaultRecorderLimit

	mu      sync.Mutex
	track   []int16
	arrived async.Signal[struct{}]
}

// Update appends in to the track and wakes a blocked reader.
func (r *Recorder) Update(in []int16) {
	if len(in) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.track = append(r.track, in...)
	limit := r.Limit
	if limit <= 0 {
		limit = DefaultRecorderLimit
	}
	if len(r.track) > 2*limit {
		r.track = append(r.track[:0], r.track[len(r.track)-limit:]...)
	}
	r.arrived.Notify()
}

// Read moves buffered samples into buf, waiting up to deadline for the
// first one.
func (r *Recorder) Read(buf []int16, deadline time.Time) int {
	if len(buf) == 0 {
		return 0
	}
	for {
		r.mu.Lock()
		if len(r.track) > 0 {
			n := copy(buf, r.track)
			r.track = r.track[n:]
			r.mu.Unlock()
			return n
		}
		arrived := r.arrived.Signal()
		r.mu.Unlock()

		if !async.Done(arrived, deadline) {
			return 0
		}
	}
}

// Buffered is the number of samples waiting to be read.
func (r *Recorder) Buffered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.track)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.track = nil
}
