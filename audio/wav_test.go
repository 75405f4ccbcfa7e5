package audio

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWAVRoundTrip(t *testing.T) {
	samples := []int16{0, 100, -100, 32767, -32768, 42}

	data, err := EncodeWAV(samples, 16000)
	require.NoError(t, err)
	require.True(t, IsWAV(data))

	decoded, rate, err := DecodeWAV(data)
	require.NoError(t, err)
	require.Equal(t, 16000, rate)
	require.Equal(t, samples, decoded)
}

func TestIsWAV(t *testing.T) {
	require.False(t, IsWAV(nil))
	require.False(t, IsWAV([]byte{1, 2, 3}))
	require.False(t, IsWAV([]byte("RIF")))
	require.False(t, IsWAV(make([]byte, 100)))
}

func TestDecodeWAVRejectsNon16Bit(t *testing.T) {
	data := buildWAV(t, 8, []byte{1, 2, 3, 4})

	_, _, err := DecodeWAV(data)
	require.ErrorIs(t, err, ErrUnsupportedSampleWidth)
}

func TestDecodeWAVDeclaredRate(t *testing.T) {
	samples := []int16{1, 2, 3}

	data, err := EncodeWAV(samples, 44100)
	require.NoError(t, err)

	_, rate, err := DecodeWAV(data)
	require.NoError(t, err)
	require.Equal(t, 44100, rate)
}

// buildWAV assembles a minimal PCM WAV document with an arbitrary declared
// sample width.
func buildWAV(t *testing.T, bitsPerSample uint16, payload []byte) []byte {
	t.Helper()

	const sampleRate = 16000
	bytesPerSample := uint32(bitsPerSample) / 8

	data := make([]byte, 0, 44+len(payload))
	data = append(data, "RIFF"...)
	data = binary.LittleEndian.AppendUint32(data, uint32(36+len(payload)))
	data = append(data, "WAVE"...)
	data = append(data, "fmt "...)
	data = binary.LittleEndian.AppendUint32(data, 16)
	data = binary.LittleEndian.AppendUint16(data, 1) // PCM
	data = binary.LittleEndian.AppendUint16(data, 1) // mono
	data = binary.LittleEndian.AppendUint32(data, sampleRate)
	data = binary.LittleEndian.AppendUint32(data, sampleRate*bytesPerSample)
	data = binary.LittleEndian.AppendUint16(data, uint16(bytesPerSample))
	data = binary.LittleEndian.AppendUint16(data, bitsPerSample)
	data = append(data, "data"...)
	data = binary.LittleEndian.AppendUint32(data, uint32(len(payload)))
	data = append(data, payload...)
	return data
}
