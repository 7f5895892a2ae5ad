package modem

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"
)

// tieTolerance is the relative margin a later offset must win by. A
// symbol holds a whole number of carrier cycles and the phase runs on
// across repeated bits, so every offset inside a run of equal bits has
// the same energy up to rounding.
const tieTolerance = 1e-9

// Demodulator recovers bits from the samples that follow the start
// marker. It first searches a symbol's worth of offsets for the
// strongest correlation peak, then slices symbols from there.
type Demodulator struct {
	Step   int // offset search stride, 0 means SearchStep
	Logger *slog.Logger
}

// Demodulate uses a default Demodulator.
func Demodulate(pcm []int16) []bool {
	return Demodulator{}.Demodulate(pcm)
}

func (d Demodulator) Demodulate(pcm []int16) []bool {
	bits, _ := d.DemodulateWithOffset(pcm)
	return bits
}

// DemodulateWithOffset also reports the sample offset the search locked
// on to. It returns nil and -1 when pcm is too short to search.
func (d Demodulator) DemodulateWithOffset(pcm []int16) ([]bool, int) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	step := d.Step
	if step <= 0 {
		step = SearchStep
	}

	if len(pcm) < SamplesPerSymbol {
		return nil, -1
	}
	searchSamples := min(len(pcm)-SamplesPerSymbol, MsToSamples(SymbolMs))
	if searchSamples <= 0 {
		return nil, -1
	}

	refs := ReferenceWaves()
	window := make([]float64, SamplesPerSymbol)

	bestOffset := 0
	maxEnergy := -1.0
	for offset := 0; offset < searchSamples; offset += step {
		PCMToFloat(window, pcm[offset:offset+SamplesPerSymbol])
		e0, e1 := refs.energies(window)
		if e := max(e0, e1); e > maxEnergy*(1+tieTolerance) {
			maxEnergy = e
			bestOffset = offset
		}
	}
	logger.Debug("[Demodulation] sync search complete", "offset", bestOffset, "energy", maxEnergy)

	bits := make([]bool, 0, (len(pcm)-bestOffset)/SamplesPerSymbol)
	for offset := bestOffset; offset+SamplesPerSymbol <= len(pcm); offset += SamplesPerSymbol {
		PCMToFloat(window, pcm[offset:offset+SamplesPerSymbol])
		e0, e1 := refs.energies(window)
		bits = append(bits, e1 > e0)
	}
	return bits, bestOffset
}

// energies returns the quadrature energy of window at Freq0 and Freq1.
func (r *References) energies(window []float64) (e0, e1 float64) {
	sin0 := floats.Dot(window, r.Sin0)
	cos0 := floats.Dot(window, r.Cos0)
	sin1 := floats.Dot(window, r.Sin1)
	cos1 := floats.Dot(window, r.Cos1)
	return math.Sqrt(sin0*sin0 + cos0*cos0), math.Sqrt(sin1*sin1 + cos1*cos1)
}
