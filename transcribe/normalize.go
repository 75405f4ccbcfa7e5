package transcribe

import (
	"github.com/voxchat/voxchat/audio"
)

// normalize concatenates the chunks and converts them to the normalized
// float representation every engine consumes: samples in [-1.0, 1.0] at
// engineRate Hz.
//
// A buffer starting with a RIFF header is parsed as a WAV container (16-bit
// only) and the declared rate is honored; anything else is treated as raw
// 16-bit PCM already at engineRate. A rate mismatch is corrected by
// resampling - skipping that silently corrupts the transcript.
//
// An empty buffer returns nil samples and no error; callers must short
// circuit without invoking the engine.
func normalize(chunks [][]byte, engineRate int) ([]float32, error) {
	var total int
	for _, chunk := range chunks {
		total += len(chunk)
	}
	if total == 0 {
		return nil, nil
	}

	buf := make([]byte, 0, total)
	for _, chunk := range chunks {
		buf = append(buf, chunk...)
	}

	var samples []int16
	sourceRate := engineRate

	if audio.IsWAV(buf) {
		decoded, rate, err := audio.DecodeWAV(buf)
		if err != nil {
			return nil, err
		}
		samples = decoded
		sourceRate = rate
	} else {
		samples = audio.BytesToInt16(buf)
	}

	if len(samples) == 0 {
		return nil, nil
	}

	normalized := audio.Int16ToFloat32(samples)
	if sourceRate != engineRate {
		normalized = audio.Resample(normalized, sourceRate, engineRate)
	}
	return normalized, nil
}
