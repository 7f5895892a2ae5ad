package modem

// FloatToPCM scales the working signal by 32767 and clamps it to
// [-32767, 32767].
func FloatToPCM(input []float32) []int16 {
	output := make([]int16, len(input))
	for i, v := range input {
		s := int32(v * MaxSampleMagnitude)
		if s > MaxSampleMagnitude {
			s = MaxSampleMagnitude
		} else if s < -MaxSampleMagnitude {
			s = -MaxSampleMagnitude
		}
		output[i] = int16(s)
	}
	return output
}

// PCMToFloat normalizes input into dst, which must be at least as long.
func PCMToFloat(dst []float64, input []int16) []float64 {
	dst = dst[:len(input)]
	for i, v := range input {
		dst[i] = float64(v) / MaxSampleMagnitude
	}
	return dst
}
