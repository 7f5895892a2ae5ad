package modem

// Protocol constants. Both ends must agree on every one of them.
const (
	SampleRate = 44100

	Freq0           = 2000.0 // bit 0
	Freq1           = 3000.0 // bit 1
	PreambleFreq    = 4000.0
	EndPreambleFreq = 5000.0

	SymbolMs      = 40
	PreambleMs    = 250
	EndPreambleMs = 100
	SilenceMs     = 50

	Amplitude          = 2.0 // overdriven on purpose, clamped at output
	MaxSampleMagnitude = 32767

	// PowerThreshold is the Goertzel power above which either marker
	// tone counts as present.
	PowerThreshold = 2e12

	SearchStep       = 4
	SamplesPerSymbol = SampleRate * SymbolMs / 1000
)
