package audio

// SampleFormat identifies the on-the-wire encoding of PCM samples.
type SampleFormat string

const (
	FormatInt16   SampleFormat = "int16"
	FormatFloat32 SampleFormat = "float32"
)

// BytesPerSample returns the width of one sample in bytes, or 0 for an
// unknown format.
func (f SampleFormat) BytesPerSample() int {
	switch f {
	case FormatInt16:
		return 2
	case FormatFloat32:
		return 4
	}
	return 0
}

// Config is shared by all audio sources. Immutable once a source is
// constructed from it.
type Config struct {
	// SampleRate in Hz.
	SampleRate int

	// ChunkSize is the number of bytes yielded per chunk by a buffer
	// source, and the number of frames read per block from a microphone.
	ChunkSize int

	// Channels is the channel count (the pipeline works in mono).
	Channels int

	// Format is the PCM sample encoding.
	Format SampleFormat

	// DeviceIndex selects an input device. Negative means the system
	// default.
	DeviceIndex int
}

// DefaultConfig returns the capture configuration used when nothing is
// specified: 16kHz mono int16, 1024-sample blocks, default device.
func DefaultConfig() Config {
	return Config{
		SampleRate:  16000,
		ChunkSize:   1024,
		Channels:    1,
		Format:      FormatInt16,
		DeviceIndex: -1,
	}
}
