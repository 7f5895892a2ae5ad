package modem

import (
	"math"
	"sync"
)

type CarrierConfig struct {
	Amplitude  float64
	Freq       float64
	Phase      float64
	SampleRate float64
	Size       int
}

func (p CarrierConfig) New() []float64 {
	signal := make([]float64, p.Size)
	for i := 0; i < p.Size; i++ {
		t := float64(i) / p.SampleRate
		signal[i] = p.Amplitude * math.Sin(2*math.Pi*p.Freq*t+p.Phase)
	}
	return signal
}

// References are the ideal quadrature waves one symbol long. They never
// change after construction and are shared by every demodulation.
type References struct {
	Sin0, Cos0 []float64
	Sin1, Cos1 []float64
}

func newReferences() *References {
	carrier := func(freq, phase float64) []float64 {
		return CarrierConfig{
			Amplitude:  1,
			Freq:       freq,
			Phase:      phase,
			SampleRate: SampleRate,
			Size:       SamplesPerSymbol,
		}.New()
	}
	return &References{
		Sin0: carrier(Freq0, 0),
		Cos0: carrier(Freq0, math.Pi/2),
		Sin1: carrier(Freq1, 0),
		Cos1: carrier(Freq1, math.Pi/2),
	}
}

var referenceWaves = sync.OnceValue(newReferences)

// ReferenceWaves returns the shared read-only reference tables.
func ReferenceWaves() *References {
	return referenceWaves()
}
