// Package layers exposes the modem as a message-level physical layer.
package layers

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"Aethermodem/internal/history"
	"Aethermodem/pkg/async"
	"Aethermodem/pkg/device"
	"Aethermodem/pkg/frame"
	"Aethermodem/pkg/modem"
	"Aethermodem/pkg/pcapfile"
	"Aethermodem/pkg/receiver"
)

// PlaybackSlack is extra time allowed for a realtime device to drain its
// buffers after the last sample was queued.
const PlaybackSlack = 200 * time.Millisecond

// PlaybackTimeout bounds how long Transmit waits beyond the audio
// duration for the device to report completion.
const PlaybackTimeout = 5 * time.Second

const DefaultTimeoutSeconds = 30

// FrameWriter receives a copy of every frame sent or received.
type FrameWriter interface {
	WriteFrame(f frame.Frame, ts time.Time) error
}

var _ FrameWriter = (*pcapfile.Writer)(nil)

type PhysicalLayer struct {
	Capture  device.Capture
	Playback device.Playback
	Logger   *slog.Logger

	History history.Store // optional
	Frames  FrameWriter   // optional

	PlaybackSlack time.Duration // 0 means PlaybackSlack
}

func (p *PhysicalLayer) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

// EncodeMessage renders text as a complete transmission.
func (p *PhysicalLayer) EncodeMessage(text string) ([]int16, error) {
	pcm, err := modem.EncodeMessage([]byte(text))
	if err != nil {
		return nil, err
	}
	p.logger().Info("[Modulation] message encoded", "chars", len(text), "samples", len(pcm), "duration", modem.Duration(pcm))
	return pcm, nil
}

// Transmit plays pcm and returns once it has left the device.
func (p *PhysicalLayer) Transmit(pcm []int16) (err error) {
	if p.Playback == nil {
		return fmt.Errorf("%w: no playback device", device.ErrDevice)
	}
	if err := p.Playback.Open(); err != nil {
		return wrapDevice("open playback", err)
	}
	defer func() {
		if closeErr := p.Playback.Close(); closeErr != nil && err == nil {
			err = wrapDevice("close playback", closeErr)
		}
	}()

	start := time.Now()
	done, err := p.Playback.Play(pcm)
	if err != nil {
		return wrapDevice("play", err)
	}
	if !async.Done(done, start.Add(modem.Duration(pcm)+PlaybackTimeout)) {
		return fmt.Errorf("%w: playback did not complete", device.ErrDevice)
	}

	if device.IsRealtime(p.Playback) {
		slack := p.PlaybackSlack
		if slack <= 0 {
			slack = PlaybackSlack
		}
		if wait := time.Until(start.Add(modem.Duration(pcm) + slack)); wait > 0 {
			time.Sleep(wait)
		}
	}
	p.logger().Debug("[Transmit] playback finished", "samples", len(pcm), "elapsed", time.Since(start))
	return nil
}

// Send encodes and transmits text.
func (p *PhysicalLayer) Send(text string) error {
	f, err := frame.New([]byte(text))
	if err == nil {
		var pcm []int16
		if pcm, err = p.EncodeMessage(text); err == nil {
			err = p.Transmit(pcm)
		}
	}

	entry := history.Entry{Direction: history.Sent, Content: text}
	if err != nil {
		entry.Status, entry.Details = history.Failure, err.Error()
	} else {
		entry.Status, entry.Details = history.Success, history.SentDetails(len(text))
		p.writeFrame(f)
	}
	p.record(entry)
	return err
}

// ReceiveOneMessage listens for one message. A timeout of zero or less
// means DefaultTimeoutSeconds. Protocol failures report ok == false with
// a nil error; err is set only when the device failed.
func (p *PhysicalLayer) ReceiveOneMessage(timeoutSeconds int) (text string, ok bool, err error) {
	if timeoutSeconds <= 0 {
		timeoutSeconds = DefaultTimeoutSeconds
	}
	if p.Capture == nil {
		return "", false, fmt.Errorf("%w: no capture device", device.ErrDevice)
	}

	r := receiver.Receiver{Capture: p.Capture, Logger: p.logger().With("component", "receiver")}
	payload, err := r.Run(time.Duration(timeoutSeconds) * time.Second)
	switch {
	case err == nil:
		text = string(payload)
		if f, ferr := frame.New(payload); ferr == nil {
			p.writeFrame(f)
		}
		p.record(history.Entry{
			Direction: history.Received,
			Status:    history.Success,
			Content:   text,
			Details:   history.ReceivedDetails(len(text)),
		})
		return text, true, nil
	case errors.Is(err, device.ErrDevice):
		p.record(history.Entry{Direction: history.Received, Status: history.Failure, Details: err.Error()})
		return "", false, err
	default:
		p.logger().Info("[Receive] no message", "reason", err)
		p.record(history.Entry{Direction: history.Received, Status: history.Failure, Details: history.ReceiveFailedDetails})
		return "", false, nil
	}
}

func (p *PhysicalLayer) record(e history.Entry) {
	if p.History == nil {
		return
	}
	if _, err := p.History.Insert(e); err != nil {
		p.logger().Warn("history insert failed", "error", err)
	}
}

func (p *PhysicalLayer) writeFrame(f frame.Frame) {
	if p.Frames == nil {
		return
	}
	if err := p.Frames.WriteFrame(f, time.Now()); err != nil {
		p.logger().Warn("frame capture write failed", "error", err)
	}
}

func wrapDevice(op string, err error) error {
	if errors.Is(err, device.ErrDevice) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %v", device.ErrDevice, op, err)
}
