package audio

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gordonklaus/portaudio"
	wav "github.com/youpy/go-wav"
)

const playbackFramesPerBuffer = 1024

// Play streams a WAV file to the default output device and blocks until
// the caller presses Enter.
func Play(filename string) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer portaudio.Terminate()

	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	reader := wav.NewReader(file)

	format, err := reader.Format()
	if err != nil {
		return err
	}

	stream, err := portaudio.OpenDefaultStream(
		0,
		int(format.NumChannels),
		float64(format.SampleRate),
		playbackFramesPerBuffer,
		func(out []int16) {
			samples, err := reader.ReadSamples(uint32(len(out)))
			if err == io.EOF {
				for i := range out {
					out[i] = 0
				}
				return
			}
			if err != nil {
				slog.Error("Error reading from WAV file", "error", err)
				return
			}

			for i := 0; i < len(samples) && i < len(out); i++ {
				out[i] = int16(samples[i].Values[0])
			}
			for i := len(samples); i < len(out); i++ {
				out[i] = 0
			}
		},
	)
	if err != nil {
		return fmt.Errorf("failed to open audio stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("failed to start audio stream: %w", err)
	}

	fmt.Println("Playing audio. Press Enter to stop...")
	fmt.Scanln()

	return stream.Stop()
}
