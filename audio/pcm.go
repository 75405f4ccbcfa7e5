package audio

import "encoding/binary"

// pcm16FullScale is the divisor mapping int16 full scale onto [-1.0, 1.0].
const pcm16FullScale = 32768.0

// BytesToInt16 reinterprets little-endian PCM bytes as int16 samples. A
// trailing odd byte is dropped.
func BytesToInt16(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return samples
}

// Int16ToFloat32 normalizes int16 samples to float32 in [-1.0, 1.0].
func Int16ToFloat32(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, sample := range samples {
		out[i] = float32(sample) / pcm16FullScale
	}
	return out
}

// Float32ToInt16 converts normalized samples back to int16, clipping
// anything outside [-1.0, 1.0].
func Float32ToInt16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, sample := range samples {
		scaled := sample * pcm16FullScale
		switch {
		case scaled > 32767:
			out[i] = 32767
		case scaled < -32768:
			out[i] = -32768
		default:
			out[i] = int16(scaled)
		}
	}
	return out
}

// Resample converts normalized samples from one rate to another using
// linear interpolation. Returns the input unchanged when the rates match.
func Resample(in []float32, fromRate, toRate int) []float32 {
	if fromRate == toRate || len(in) == 0 {
		return in
	}

	outLen := int(int64(len(in)) * int64(toRate) / int64(fromRate))
	if outLen == 0 {
		return nil
	}

	ratio := float64(fromRate) / float64(toRate)
	out := make([]float32, outLen)
	for i := range out {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := float32(srcPos - float64(srcIdx))

		s0 := in[srcIdx]
		s1 := s0
		if srcIdx+1 < len(in) {
			s1 = in[srcIdx+1]
		}
		out[i] = s0 + frac*(s1-s0)
	}
	return out
}
