// Command aethermodem sends and receives short text messages as sound.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"Aethermodem/internal/config"
	"Aethermodem/internal/history"
	"Aethermodem/internal/utils"
	"Aethermodem/pkg/async"
	"Aethermodem/pkg/device"
	"Aethermodem/pkg/layers"
	"Aethermodem/pkg/receiver"
)

const usage = `Usage: aethermodem [flags] <command> [args]

Commands:
  send <text>             transmit text through the configured device
  receive                 wait for one message
  selftest <text>         send text and receive it back
  encode <text> -o FILE   write the waveform to a .wav, .pcm or .txt file
  decode FILE             decode a recorded .wav, .pcm or .txt file
  history                 list sent and received messages, newest first

Flags:
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("aethermodem", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.StringP("config", "c", "", "YAML configuration file.")
	timeout := flags.IntP("timeout", "t", 0, "Receive timeout in seconds (default from config).")
	logLevel := flags.StringP("log-level", "l", "", "Log level: debug, info, warn or error.")
	output := flags.StringP("output", "o", "", "Output file for encode.")
	flags.Usage = func() {
		fmt.Fprint(stderr, usage)
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return 2
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, "config:", err)
		return 1
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *timeout > 0 {
		cfg.Receiver.TimeoutSeconds = *timeout
	}
	level, err := cfg.LogLevel()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cmd, rest := flags.Arg(0), flags.Args()[1:]
	switch cmd {
	case "send", "receive", "selftest":
		return runPhysical(cmd, rest, cfg, logger, stdout, stderr)
	case "encode":
		if len(rest) == 0 || *output == "" {
			flags.Usage()
			return 2
		}
		return report(stderr, encode(strings.Join(rest, " "), *output, logger))
	case "decode":
		if len(rest) != 1 {
			flags.Usage()
			return 2
		}
		text, err := decode(rest[0], cfg, logger)
		if err != nil {
			return report(stderr, err)
		}
		fmt.Fprintln(stdout, text)
		return 0
	case "history":
		store := config.CreateHistory(cfg)
		if store == nil {
			fmt.Fprintln(stderr, "history is disabled")
			return 1
		}
		return report(stderr, printHistory(stdout, store))
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		flags.Usage()
		return 2
	}
}

func runPhysical(cmd string, args []string, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) int {
	p, closer, err := config.CreatePhysicalLayer(cfg, logger)
	if err != nil {
		return report(stderr, err)
	}
	defer closer.Close()

	text := strings.Join(args, " ")
	if cmd != "receive" && text == "" {
		fmt.Fprintln(stderr, "nothing to send")
		return 2
	}

	var r reception
	switch cmd {
	case "send":
		return report(stderr, p.Send(text))
	case "receive":
		r = receive(p, cfg.Receiver.TimeoutSeconds)
	case "selftest":
		// Listen while sending so full-duplex hardware hears its own output.
		rx := async.Promise(func() reception { return receive(p, cfg.Receiver.TimeoutSeconds) })
		tx := async.Promise(func() error { return p.Send(text) })
		var sendErr error
		r, sendErr = async.Await2(async.Gather2(rx, tx))
		if sendErr != nil {
			return report(stderr, sendErr)
		}
	}

	if r.err != nil {
		return report(stderr, r.err)
	}
	if !r.ok {
		fmt.Fprintln(stderr, "no message received")
		return 1
	}
	fmt.Fprintln(stdout, r.text)
	return 0
}

type reception struct {
	text string
	ok   bool
	err  error
}

func receive(p *layers.PhysicalLayer, timeoutSeconds int) reception {
	text, ok, err := p.ReceiveOneMessage(timeoutSeconds)
	return reception{text, ok, err}
}

func encode(text, path string, logger *slog.Logger) error {
	p := layers.PhysicalLayer{Logger: logger}
	pcm, err := p.EncodeMessage(text)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return device.WriteWAV(path, pcm)
	case ".pcm", ".raw":
		return utils.WriteBinary(path, pcm)
	case ".txt":
		return utils.WriteTxt(path, pcm, func(v int16) int16 { return v })
	default:
		return fmt.Errorf("%w: %s", device.ErrUnsupportedFormat, path)
	}
}

func decode(path string, cfg *config.Config, logger *slog.Logger) (string, error) {
	var pcm []int16
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		pcm, err = device.ReadWAV(path)
	case ".pcm", ".raw":
		pcm, err = utils.ReadBinary[int16](path)
	case ".txt":
		pcm, err = utils.ReadTxt[int16](path)
	default:
		err = fmt.Errorf("%w: %s", device.ErrUnsupportedFormat, path)
	}
	if err != nil {
		return "", err
	}

	r := receiver.Receiver{Capture: &device.SampleCapture{Samples: pcm}, Logger: logger}
	payload, err := r.Run(time.Duration(cfg.Receiver.TimeoutSeconds) * time.Second)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

func printHistory(w io.Writer, store history.Store) error {
	entries, err := store.List()
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %-8s  %-7s  %q  %s\n",
			e.Timestamp.Format(time.DateTime), e.Direction, e.Status, e.Content, e.Details)
	}
	return nil
}

func report(stderr io.Writer, err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintln(stderr, "error:", err)
	return 1
}
