package audio

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"

	"github.com/gordonklaus/portaudio"
)

// Microphone captures live audio through PortAudio using blocking reads.
// The chunk stream is infinite; each pull blocks until one block of frames
// has been captured. The device is exclusively owned between Open and Close.
type Microphone struct {
	cfg Config

	initialized bool
	stream      *portaudio.Stream
	int16Buf    []int16
	float32Buf  []float32
}

// NewMicrophone creates a microphone source. The device is not touched
// until Open.
func NewMicrophone(cfg Config) *Microphone {
	return &Microphone{cfg: cfg}
}

func (m *Microphone) Config() Config { return m.cfg }

// Open initializes PortAudio and opens the input stream. Fails with
// ErrBackendUnavailable when the audio driver cannot be initialized and
// ErrUnsupportedFormat when the configured sample format is not supported.
func (m *Microphone) Open() error {
	if m.stream != nil {
		return nil
	}

	if m.cfg.Format.BytesPerSample() == 0 {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, m.cfg.Format)
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	m.initialized = true

	params, err := m.streamParameters()
	if err != nil {
		m.Close()
		return err
	}

	var stream *portaudio.Stream
	switch m.cfg.Format {
	case FormatInt16:
		m.int16Buf = make([]int16, m.cfg.ChunkSize*m.cfg.Channels)
		stream, err = portaudio.OpenStream(params, m.int16Buf)
	case FormatFloat32:
		m.float32Buf = make([]float32, m.cfg.ChunkSize*m.cfg.Channels)
		stream, err = portaudio.OpenStream(params, m.float32Buf)
	}
	if err != nil {
		m.Close()
		return fmt.Errorf("failed to open audio stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		m.Close()
		return fmt.Errorf("failed to start audio stream: %w", err)
	}

	m.stream = stream
	slog.Debug("Microphone opened",
		"sampleRate", m.cfg.SampleRate,
		"chunkSize", m.cfg.ChunkSize,
		"format", m.cfg.Format)
	return nil
}

func (m *Microphone) streamParameters() (portaudio.StreamParameters, error) {
	var device *portaudio.DeviceInfo
	var err error

	if m.cfg.DeviceIndex >= 0 {
		devices, derr := portaudio.Devices()
		if derr != nil {
			return portaudio.StreamParameters{}, fmt.Errorf("failed to get audio devices: %w", derr)
		}
		if m.cfg.DeviceIndex >= len(devices) {
			return portaudio.StreamParameters{}, fmt.Errorf("invalid device index %d", m.cfg.DeviceIndex)
		}
		device = devices[m.cfg.DeviceIndex]
		if device.MaxInputChannels == 0 {
			return portaudio.StreamParameters{}, fmt.Errorf("device %q is not an input device", device.Name)
		}
	} else {
		device, err = portaudio.DefaultInputDevice()
		if err != nil {
			return portaudio.StreamParameters{}, fmt.Errorf("failed to get default input device: %w", err)
		}
	}

	slog.Debug("Using audio device",
		"deviceName", device.Name,
		"defaultSampleRate", device.DefaultSampleRate)

	return portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: m.cfg.Channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      float64(m.cfg.SampleRate),
		FramesPerBuffer: m.cfg.ChunkSize,
	}, nil
}

// Close releases the stream and terminates PortAudio. Safe to call when
// never opened or more than once.
func (m *Microphone) Close() error {
	if m.stream != nil {
		if err := m.stream.Stop(); err != nil {
			slog.Error("Failed to stop audio stream", "error", err)
		}
		if err := m.stream.Close(); err != nil {
			slog.Error("Failed to close audio stream", "error", err)
		}
		m.stream = nil
	}
	if m.initialized {
		if err := portaudio.Terminate(); err != nil {
			slog.Error("Failed to terminate PortAudio", "error", err)
		}
		m.initialized = false
	}
	return nil
}

// Chunks returns the infinite capture stream. Fails with ErrNotOpen when
// the microphone has not been opened.
func (m *Microphone) Chunks() (Stream, error) {
	if m.stream == nil {
		return nil, ErrNotOpen
	}
	return &microphoneStream{mic: m}, nil
}

type microphoneStream struct {
	mic *Microphone
}

func (s *microphoneStream) Next() ([]byte, error) {
	m := s.mic
	if m.stream == nil {
		return nil, ErrNotOpen
	}
	if err := m.stream.Read(); err != nil {
		return nil, fmt.Errorf("failed to read from audio stream: %w", err)
	}

	switch m.cfg.Format {
	case FormatInt16:
		chunk := make([]byte, len(m.int16Buf)*2)
		for i, sample := range m.int16Buf {
			binary.LittleEndian.PutUint16(chunk[i*2:], uint16(sample))
		}
		return chunk, nil
	case FormatFloat32:
		chunk := make([]byte, len(m.float32Buf)*4)
		for i, sample := range m.float32Buf {
			binary.LittleEndian.PutUint32(chunk[i*4:], math.Float32bits(sample))
		}
		return chunk, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, m.cfg.Format)
}
