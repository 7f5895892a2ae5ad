package device

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
)

// malgoEngine owns a miniaudio context and one device.
type malgoEngine struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device
}

func startMalgo(kind malgo.DeviceType, logger *slog.Logger, data malgo.DataProc) (*malgoEngine, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logger.Debug("[malgo] " + message)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: init context: %v", ErrDevice, err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(kind)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = 1
	deviceConfig.SampleRate = SampleRate
	deviceConfig.Alsa.NoMMap = 1

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: data})
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("%w: init device: %v", ErrDevice, err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("%w: start device: %v", ErrDevice, err)
	}
	return &malgoEngine{ctx: ctx, device: device}, nil
}

func (e *malgoEngine) stop() error {
	err := e.device.Stop()
	e.device.Uninit()
	_ = e.ctx.Uninit()
	e.ctx.Free()
	if err != nil {
		return fmt.Errorf("%w: stop device: %v", ErrDevice, err)
	}
	return nil
}

// MalgoCapture records from the default system input through miniaudio.
type MalgoCapture struct {
	Logger *slog.Logger

	mu       sync.Mutex
	engine   *malgoEngine
	recorder Recorder
}

func (c *MalgoCapture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.engine != nil {
		return nil
	}
	c.recorder.Reset()

	var scratch []int16
	engine, err := startMalgo(malgo.Capture, loggerOr(c.Logger), func(_, in []byte, frames uint32) {
		n := min(int(frames), len(in)/2)
		if cap(scratch) < n {
			scratch = make([]int16, n)
		}
		pcm := scratch[:n]
		for i := range pcm {
			pcm[i] = int16(binary.LittleEndian.Uint16(in[2*i:]))
		}
		c.recorder.Update(pcm)
	})
	if err != nil {
		return err
	}
	c.engine = engine
	return nil
}

func (c *MalgoCapture) Read(buf []int16, deadline time.Time) (int, error) {
	c.mu.Lock()
	started := c.engine != nil
	c.mu.Unlock()
	if !started {
		return 0, ErrNotStarted
	}
	return c.recorder.Read(buf, deadline), nil
}

func (c *MalgoCapture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.engine == nil {
		return ErrNotStarted
	}
	err := c.engine.stop()
	c.engine = nil
	c.recorder.Reset()
	return err
}

func (c *MalgoCapture) Realtime() bool { return true }

// MalgoPlayback plays to the default system output through miniaudio.
type MalgoPlayback struct {
	Logger *slog.Logger

	mu     sync.Mutex
	engine *malgoEngine
	player Player
}

func (p *MalgoPlayback) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.engine != nil {
		return nil
	}

	var scratch []int16
	engine, err := startMalgo(malgo.Playback, loggerOr(p.Logger), func(out, _ []byte, frames uint32) {
		n := min(int(frames), len(out)/2)
		if cap(scratch) < n {
			scratch = make([]int16, n)
		}
		pcm := scratch[:n]
		p.player.Update(pcm)
		for i, v := range pcm {
			binary.LittleEndian.PutUint16(out[2*i:], uint16(v))
		}
	})
	if err != nil {
		return err
	}
	p.engine = engine
	return nil
}

func (p *MalgoPlayback) Play(pcm []int16) (<-chan struct{}, error) {
	p.mu.Lock()
	started := p.engine != nil
	p.mu.Unlock()
	if !started {
		return nil, ErrNotStarted
	}
	return p.player.Load(pcm)
}

func (p *MalgoPlayback) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.engine == nil {
		return nil
	}
	p.player.Reset()
	err := p.engine.stop()
	p.engine = nil
	return err
}

func (p *MalgoPlayback) Realtime() bool { return true }

func loggerOr(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
