package device

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// SampleCapture replays a fixed buffer as captured audio. Read returns
// io.EOF once it is exhausted.
type SampleCapture struct {
	Samples []int16

	mu      sync.Mutex
	pending []int16
	started bool
}

func (c *SampleCapture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = c.Samples
	c.started = true
	return nil
}

func (c *SampleCapture) Read(buf []int16, deadline time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return 0, ErrNotStarted
	}
	if len(c.pending) == 0 {
		return 0, io.EOF
	}
	n := copy(buf, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

func (c *SampleCapture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return ErrNotStarted
	}
	c.started = false
	c.pending = nil
	return nil
}

// WAVCapture replays a 16-bit mono 44.1 kHz WAV file as captured audio.
type WAVCapture struct {
	Path string
	SampleCapture
}

func (c *WAVCapture) Start() error {
	pcm, err := ReadWAV(c.Path)
	if err != nil {
		return err
	}
	c.Samples = pcm
	return c.SampleCapture.Start()
}

// WAVPlayback writes everything played between Open and Close to a
// 16-bit mono 44.1 kHz WAV file.
type WAVPlayback struct {
	Path string

	mu      sync.Mutex
	file    *os.File
	encoder *wav.Encoder
}

func (p *WAVPlayback) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.file != nil {
		return nil
	}
	f, err := os.Create(p.Path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDevice, err)
	}
	p.file = f
	p.encoder = wav.NewEncoder(f, SampleRate, 16, 1, 1)
	return nil
}

func (p *WAVPlayback) Play(pcm []int16) (<-chan struct{}, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.encoder == nil {
		return nil, ErrNotStarted
	}
	if err := p.encoder.Write(intBuffer(pcm)); err != nil {
		return nil, fmt.Errorf("%w: write %s: %v", ErrDevice, p.Path, err)
	}
	done := make(chan struct{})
	close(done)
	return done, nil
}

func (p *WAVPlayback) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.file == nil {
		return nil
	}
	err := p.encoder.Close()
	if cerr := p.file.Close(); err == nil {
		err = cerr
	}
	p.file = nil
	p.encoder = nil
	if err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrDevice, p.Path, err)
	}
	return nil
}

// ReadWAV loads a whole 16-bit mono 44.1 kHz WAV file.
func ReadWAV(path string) ([]int16, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDevice, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: %s is not a PCM WAV file", ErrUnsupportedFormat, path)
	}
	if dec.SampleRate != SampleRate || dec.NumChans != 1 || dec.BitDepth != 16 {
		return nil, fmt.Errorf("%w: %s is %d Hz, %d channels, %d bit",
			ErrUnsupportedFormat, path, dec.SampleRate, dec.NumChans, dec.BitDepth)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrDevice, path, err)
	}
	pcm := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		pcm[i] = int16(v)
	}
	return pcm, nil
}

// WriteWAV stores pcm as a 16-bit mono 44.1 kHz WAV file.
func WriteWAV(path string, pcm []int16) error {
	p := &WAVPlayback{Path: path}
	if err := p.Open(); err != nil {
		return err
	}
	if _, err := p.Play(pcm); err != nil {
		p.Close()
		return err
	}
	return p.Close()
}

func intBuffer(pcm []int16) *audio.IntBuffer {
	data := make([]int, len(pcm))
	for i, v := range pcm {
		data[i] = int(v)
	}
	return &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
}
