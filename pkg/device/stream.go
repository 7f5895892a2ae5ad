package device

import (
	"fmt"
	"sync"
	"time"
)

// Stream shares a callback Device between a capturing and a playing
// user. The device runs while at least one side is active.
type Stream struct {
	Device Device

	life  sync.Mutex // guards users and device start/stop
	users int

	mu        sync.Mutex
	capturing bool

	player   Player
	recorder Recorder

	inPCM  []int16
	outPCM []int16
}

func NewStream(dev Device) *Stream {
	return &Stream{Device: dev}
}

func (s *Stream) acquire() error {
	s.life.Lock()
	defer s.life.Unlock()
	if s.users == 0 {
		if err := s.Device.Start(s.callback); err != nil {
			return fmt.Errorf("%w: start: %v", ErrDevice, err)
		}
	}
	s.users++
	return nil
}

func (s *Stream) release() error {
	s.life.Lock()
	defer s.life.Unlock()
	if s.users == 0 {
		return ErrNotStarted
	}
	s.users--
	if s.users == 0 {
		if err := s.Device.Stop(); err != nil {
			return fmt.Errorf("%w: stop: %v", ErrDevice, err)
		}
	}
	return nil
}

func (s *Stream) callback(in, out []int32) {
	if cap(s.inPCM) < len(in) {
		s.inPCM = make([]int16, len(in))
	}
	if cap(s.outPCM) < len(out) {
		s.outPCM = make([]int16, len(out))
	}

	s.mu.Lock()
	capturing := s.capturing
	s.mu.Unlock()
	if capturing {
		pcm := s.inPCM[:len(in)]
		i32ToPCM(in, pcm)
		s.recorder.Update(pcm)
	}

	pcm := s.outPCM[:len(out)]
	s.player.Update(pcm)
	pcmToI32(pcm, out)
}

func (s *Stream) Realtime() bool {
	if r, ok := s.Device.(Realtime); ok {
		return r.Realtime()
	}
	return true
}

// Capture returns the input side of the stream.
func (s *Stream) Capture() *StreamCapture { return &StreamCapture{s} }

// Playback returns the output side of the stream.
func (s *Stream) Playback() *StreamPlayback { return &StreamPlayback{s: s} }

type StreamCapture struct{ s *Stream }

func (c *StreamCapture) Start() error {
	c.s.recorder.Reset()
	if err := c.s.acquire(); err != nil {
		return err
	}
	c.s.mu.Lock()
	c.s.capturing = true
	c.s.mu.Unlock()
	return nil
}

func (c *StreamCapture) Read(buf []int16, deadline time.Time) (int, error) {
	c.s.mu.Lock()
	capturing := c.s.capturing
	c.s.mu.Unlock()
	if !capturing {
		return 0, ErrNotStarted
	}
	return c.s.recorder.Read(buf, deadline), nil
}

func (c *StreamCapture) Stop() error {
	c.s.mu.Lock()
	if !c.s.capturing {
		c.s.mu.Unlock()
		return ErrNotStarted
	}
	c.s.capturing = false
	c.s.mu.Unlock()
	c.s.recorder.Reset()
	return c.s.release()
}

func (c *StreamCapture) Realtime() bool { return c.s.Realtime() }

type StreamPlayback struct {
	s    *Stream
	open bool
}

func (p *StreamPlayback) Open() error {
	if p.open {
		return nil
	}
	if err := p.s.acquire(); err != nil {
		return err
	}
	p.open = true
	return nil
}

func (p *StreamPlayback) Play(pcm []int16) (<-chan struct{}, error) {
	if !p.open {
		return nil, ErrNotStarted
	}
	return p.s.player.Load(pcm)
}

func (p *StreamPlayback) Close() error {
	if !p.open {
		return nil
	}
	p.open = false
	p.s.player.Reset()
	return p.s.release()
}

func (p *StreamPlayback) Realtime() bool { return p.s.Realtime() }
