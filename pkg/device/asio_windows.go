//go:build windows

package device

import (
	"fmt"
	"sync"

	"github.com/xsjk/go-asio"
)

// ASIO is a mono view of one input and one output channel of an ASIO
// driver.
type ASIO struct {
	DeviceName string
	SampleRate float64
	InChannel  int
	OutChannel int

	mu      sync.Mutex
	running bool
	device  asio.Device
}

func NewASIO(name string) Device {
	return &ASIO{DeviceName: name, SampleRate: SampleRate}
}

func (a *ASIO) Start(callback func(in, out []int32)) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return fmt.Errorf("%w: asio %q already started", ErrDevice, a.DeviceName)
	}
	if a.DeviceName == "" {
		return fmt.Errorf("%w: asio: no driver name", ErrDevice)
	}
	if a.InChannel < 0 || a.OutChannel < 0 {
		return fmt.Errorf("%w: asio: negative channel", ErrDevice)
	}

	err := asioCall("start "+a.DeviceName, func() {
		a.device.Load(a.DeviceName)
		a.device.SetSampleRate(a.SampleRate)
		a.device.Open()
		a.device.Start(func(in, out [][]int32) {
			if a.InChannel >= len(in) || a.OutChannel >= len(out) {
				return
			}
			callback(in[a.InChannel], out[a.OutChannel])
		})
	})
	if err != nil {
		return err
	}
	a.running = true
	return nil
}

func (a *ASIO) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return ErrNotStarted
	}
	a.running = false
	return asioCall("stop "+a.DeviceName, func() {
		a.device.Stop()
		a.device.Close()
		a.device.Unload()
	})
}

func (a *ASIO) Realtime() bool { return true }

// asioCall turns a driver panic into ErrDevice.
func asioCall(op string, f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: asio %s: %v", ErrDevice, op, r)
		}
	}()
	f()
	return nil
}
