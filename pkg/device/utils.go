package device

import "golang.org/x/exp/rand"

func pcmToI32(in []int16, out []int32) {
	for i, v := range in {
		out[i] = int32(v) << 16
	}
}

func i32ToPCM(in []int32, out []int16) {
	for i, v := range in {
		out[i] = int16(v >> 16)
	}
}

// addNoise mixes zero-mean gaussian noise of the given standard
// deviation into a, saturating at the 16-bit range.
func addNoise(a []int16, sigma float64, rng *rand.Rand) {
	for i := range a {
		sum := int32(a[i]) + int32(rng.NormFloat64()*sigma)
		if sum > 0x7fff {
			sum = 0x7fff
		} else if sum < -0x8000 {
			sum = -0x8000
		}
		a[i] = int16(sum)
	}
}
