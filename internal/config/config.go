// Package config loads the YAML settings of the modem tool and builds
// the physical layer they describe.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"Aethermodem/internal/history"
	"Aethermodem/pkg/device"
	"Aethermodem/pkg/layers"
	"Aethermodem/pkg/pcapfile"
)

var (
	ErrUnknownBackend = errors.New("unknown device backend")
	ErrMissingPath    = errors.New("missing file path")
)

const (
	BackendMalgo    = "malgo"
	BackendASIO     = "asio"
	BackendWAV      = "wav"
	BackendLoopback = "loopback"
	BackendEcho     = "echo"
)

type Config struct {
	Device struct {
		Backend    string  `yaml:"backend"`
		DeviceName string  `yaml:"device_name"`
		InputPath  string  `yaml:"input_path"`
		OutputPath string  `yaml:"output_path"`
		Noise      float64 `yaml:"noise"`
		Seed       uint64  `yaml:"seed"`
	} `yaml:"device"`

	Receiver struct {
		TimeoutSeconds int `yaml:"timeout_seconds"`
	} `yaml:"receiver"`

	History struct {
		Path string `yaml:"path"`
	} `yaml:"history"`

	Capture struct {
		Path string `yaml:"path"`
	} `yaml:"capture"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func Default() *Config {
	var config Config
	config.Device.Backend = BackendMalgo
	config.Device.InputPath = "in.wav"
	config.Device.OutputPath = "out.wav"
	config.Receiver.TimeoutSeconds = layers.DefaultTimeoutSeconds
	config.History.Path = "history.yaml"
	config.Log.Level = "info"
	return &config
}

// LoadConfig reads filename over the defaults. An empty name yields the
// defaults alone.
func LoadConfig(filename string) (*Config, error) {
	config := Default()
	if filename == "" {
		return config, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return config, nil
}

func (c *Config) Validate() error {
	switch c.Device.Backend {
	case BackendMalgo, BackendASIO, BackendLoopback, BackendEcho:
	case BackendWAV:
		if c.Device.InputPath == "" && c.Device.OutputPath == "" {
			return fmt.Errorf("%w: wav backend needs input_path or output_path", ErrMissingPath)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Device.Backend)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if c.Log.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.Log.Level))); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}

// CreateDevices returns the capture and playback ports of the backend.
func CreateDevices(config *Config, logger *slog.Logger) (device.Capture, device.Playback, error) {
	switch config.Device.Backend {
	case BackendMalgo:
		return &device.MalgoCapture{Logger: logger}, &device.MalgoPlayback{Logger: logger}, nil
	case BackendASIO:
		stream := device.NewStream(device.NewASIO(config.Device.DeviceName))
		return stream.Capture(), stream.Playback(), nil
	case BackendEcho:
		stream := device.NewStream(&device.Echo{SampleRate: device.SampleRate})
		return stream.Capture(), stream.Playback(), nil
	case BackendLoopback:
		dev := &device.Loopback{Noise: config.Device.Noise, Seed: config.Device.Seed}
		return dev, dev, nil
	case BackendWAV:
		var capture device.Capture
		var playback device.Playback
		if config.Device.InputPath != "" {
			capture = &device.WAVCapture{Path: config.Device.InputPath}
		}
		if config.Device.OutputPath != "" {
			playback = &device.WAVPlayback{Path: config.Device.OutputPath}
		}
		return capture, playback, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBackend, config.Device.Backend)
	}
}

func CreateHistory(config *Config) history.Store {
	if config.History.Path == "" {
		return nil
	}
	return &history.FileStore{Path: config.History.Path}
}

// CreatePhysicalLayer wires devices, history and frame capture. The
// returned closer releases the capture file.
func CreatePhysicalLayer(config *Config, logger *slog.Logger) (*layers.PhysicalLayer, io.Closer, error) {
	capture, playback, err := CreateDevices(config, logger)
	if err != nil {
		return nil, nil, err
	}

	p := &layers.PhysicalLayer{
		Capture:  capture,
		Playback: playback,
		Logger:   logger,
	}
	if store := CreateHistory(config); store != nil {
		p.History = store
	}

	var closer io.Closer = nopCloser{}
	if config.Capture.Path != "" {
		file, err := pcapfile.OpenFile(config.Capture.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("frame capture: %w", err)
		}
		p.Frames = file
		closer = file
	}
	return p, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
