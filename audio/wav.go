package audio

import (
	"bytes"
	"fmt"
	"io"

	wav "github.com/youpy/go-wav"
)

const readSamplesBatch = 2048

// IsWAV reports whether the buffer starts with a RIFF container header.
func IsWAV(data []byte) bool {
	return len(data) >= 4 && bytes.HasPrefix(data, []byte("RIFF"))
}

// DecodeWAV parses a WAV container and returns the sample frames and the
// declared sample rate. Only 16-bit PCM containers are supported; any other
// sample width fails with ErrUnsupportedSampleWidth. Multi-channel audio is
// reduced to the first channel.
func DecodeWAV(data []byte) ([]int16, int, error) {
	reader := wav.NewReader(bytes.NewReader(data))

	format, err := reader.Format()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read WAV header: %w", err)
	}

	if format.BitsPerSample != 16 {
		return nil, 0, fmt.Errorf("%w: %d bits", ErrUnsupportedSampleWidth, format.BitsPerSample)
	}

	var samples []int16
	for {
		batch, err := reader.ReadSamples(readSamplesBatch)
		for _, sample := range batch {
			samples = append(samples, int16(sample.Values[0]))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read WAV samples: %w", err)
		}
	}

	return samples, int(format.SampleRate), nil
}

// EncodeWAV frames 16-bit mono PCM samples as a complete WAV document at
// the given sample rate.
func EncodeWAV(samples []int16, sampleRate int) ([]byte, error) {
	var buf bytes.Buffer
	writer := wav.NewWriter(&buf, uint32(len(samples)), 1, uint32(sampleRate), 16)

	wavSamples := make([]wav.Sample, len(samples))
	for i, sample := range samples {
		wavSamples[i].Values[0] = int(sample)
	}

	if err := writer.WriteSamples(wavSamples); err != nil {
		return nil, fmt.Errorf("failed to write WAV samples: %w", err)
	}

	return buf.Bytes(), nil
}
