package device

import (
	"sync"
	"time"

	"Aethermodem/pkg/async"
)

// Echo is a callback Device whose input is the output it produced on
// the previous callback.
type Echo struct {
	SampleRate float64 // the fake sample rate, 0 means no limit

	mu      sync.Mutex
	done    chan struct{}
	stopped <-chan struct{}
}

func (d *Echo) Start(callback func(in, out []int32)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done != nil {
		return ErrBusy
	}
	d.done = make(chan struct{})
	done := d.done
	d.stopped = async.Job(func() {
		var buf = make([][]int32, 2)
		buf[0] = make([]int32, BufferSize)
		buf[1] = make([]int32, BufferSize)

		swap := true
		update := func() {
			if swap {
				callback(buf[0], buf[1])
			} else {
				callback(buf[1], buf[0])
			}
			swap = !swap
		}

		if d.SampleRate == 0 {
			for {
				select {
				case <-done:
					return
				default:
					update()
				}
			}
		}

		period := time.Duration(float64(time.Second) * BufferSize / d.SampleRate)
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				update()
			}
		}
	})
	return nil
}

// Stop ends the callback loop and waits for the last callback to return.
func (d *Echo) Stop() error {
	d.mu.Lock()
	if d.done == nil {
		d.mu.Unlock()
		return ErrNotStarted
	}
	close(d.done)
	d.done = nil
	stopped := d.stopped
	d.mu.Unlock()
	<-stopped
	return nil
}

func (d *Echo) Realtime() bool { return d.SampleRate != 0 }
