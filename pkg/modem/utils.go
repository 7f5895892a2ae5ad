package modem

import "time"

// MsToSamples converts a duration in milliseconds to a sample count,
// truncating.
func MsToSamples(ms float64) int {
	return int(SampleRate * ms / 1000.0)
}

// Duration is the playback time of pcm at SampleRate.
func Duration(pcm []int16) time.Duration {
	return time.Duration(len(pcm)) * time.Second / SampleRate
}

// FrameSamples is the length of the waveform BuildFrame produces for
// nbits data bits.
func FrameSamples(nbits int) int {
	return MsToSamples(PreambleMs) + MsToSamples(SilenceMs) + nbits*SamplesPerSymbol + MsToSamples(EndPreambleMs)
}
