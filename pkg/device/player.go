package device

import "sync"

// Player feeds one track at a time into an output callback.
type Player struct {
	mu    sync.Mutex
	track []int16
	idx   int
	done  chan struct{}
}

// Load schedules pcm for output. It fails with ErrBusy while a previous
// track is still playing.
func (p *Player) Load(pcm []int16) (<-chan struct{}, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		return nil, ErrBusy
	}
	done := make(chan struct{})
	if len(pcm) == 0 {
		close(done)
		return done, nil
	}
	p.track = pcm
	p.idx = 0
	p.done = done
	return done, nil
}

// Update writes the next samples of the track to out and pads it with
// silence once the track runs out.
func (p *Player) Update(out []int16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	if p.done != nil {
		n = copy(out, p.track[p.idx:])
		p.idx += n
		if p.idx == len(p.track) {
			p.finish()
		}
	}
	clear(out[n:])
}

// Playing reports whether a track is in progress.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done != nil
}

// Reset drops the current track and releases anyone waiting on it.
func (p *Player) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		p.finish()
	}
}

func (p *Player) finish() {
	close(p.done)
	p.done = nil
	p.track = nil
	p.idx = 0
}
