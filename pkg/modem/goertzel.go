package modem

import "math"

// GoertzelPower estimates the power of freq in samples with a single
// Goertzel bin. The bin index is rounded to the nearest integer.
func GoertzelPower(samples []int16, freq float64) float64 {
	n := len(samples)
	if n == 0 {
		return 0
	}
	k := int(0.5 + float64(n)*freq/SampleRate)
	w := 2 * math.Pi * float64(k) / float64(n)
	coeff := 2 * math.Cos(w)

	var s1, s2 float64
	for _, x := range samples {
		s0 := coeff*s1 - s2 + float64(x)
		s2 = s1
		s1 = s0
	}
	return s1*s1 + s2*s2 - coeff*s1*s2
}

type ToneDetector struct {
	Freq      float64
	Threshold float64
}

var (
	StartDetector = ToneDetector{Freq: PreambleFreq, Threshold: PowerThreshold}
	EndDetector   = ToneDetector{Freq: EndPreambleFreq, Threshold: PowerThreshold}
)

func (d ToneDetector) Detect(window []int16) (power float64, present bool) {
	power = GoertzelPower(window, d.Freq)
	return power, power > d.Threshold
}
