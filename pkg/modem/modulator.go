package modem

import "math"

// Modulator renders tones with a running phase accumulator so that
// consecutive segments join without discontinuities. Use one Modulator
// per transmission.
type Modulator struct {
	phase float64
}

func NewModulator() *Modulator {
	return &Modulator{}
}

func (m *Modulator) Phase() float64 { return m.phase }

func (m *Modulator) Reset() { m.phase = 0 }

// Tone returns ms milliseconds of freq. A non-positive frequency yields
// silence and leaves the phase untouched.
func (m *Modulator) Tone(freq float64, ms float64) []float32 {
	return m.appendTone(nil, freq, MsToSamples(ms))
}

func (m *Modulator) appendTone(out []float32, freq float64, n int) []float32 {
	if freq <= 0 {
		return append(out, make([]float32, n)...)
	}
	for i := 0; i < n; i++ {
		out = append(out, float32(math.Sin(m.phase+2*math.Pi*freq*float64(i)/SampleRate)*Amplitude))
	}
	m.phase += 2 * math.Pi * freq * float64(n) / SampleRate
	return out
}

// ModulateBits emits one symbol per bit.
func (m *Modulator) ModulateBits(bits []bool) []float32 {
	out := make([]float32, 0, len(bits)*SamplesPerSymbol)
	for _, bit := range bits {
		out = m.appendTone(out, carrierFreq(bit), SamplesPerSymbol)
	}
	return out
}

// BuildFrame renders start tone, silence, data symbols and end tone as
// 16-bit PCM.
func (m *Modulator) BuildFrame(bits []bool) []int16 {
	out := make([]float32, 0, FrameSamples(len(bits)))
	out = m.appendTone(out, PreambleFreq, MsToSamples(PreambleMs))
	out = m.appendTone(out, 0, MsToSamples(SilenceMs))
	for _, bit := range bits {
		out = m.appendTone(out, carrierFreq(bit), SamplesPerSymbol)
	}
	out = m.appendTone(out, EndPreambleFreq, MsToSamples(EndPreambleMs))
	return FloatToPCM(out)
}

func carrierFreq(bit bool) float64 {
	if bit {
		return Freq1
	}
	return Freq0
}
