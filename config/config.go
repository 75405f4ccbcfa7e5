// Package config loads and validates the application's TOML configuration
// document.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/voxchat/voxchat/transcribe"
)

// Transcription backend selectors.
const (
	BackendLocal  = "local"
	BackendOpenAI = "openai"
)

// WhisperConfig selects and parameterizes the transcription backend.
type WhisperConfig struct {
	Backend string `toml:"backend"`
	Model   string `toml:"model"`
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	Binary  string `toml:"binary"`
}

// LMStudioConfig parameterizes the completion backend.
type LMStudioConfig struct {
	BaseURL     string  `toml:"base_url"`
	Model       string  `toml:"model"`
	Temperature float64 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
}

// AudioConfig parameterizes capture.
type AudioConfig struct {
	SampleRate int `toml:"sample_rate"`
	ChunkSize  int `toml:"chunk_size"`
	Device     int `toml:"device"`
}

// LoggingConfig locates the transcript output directory.
type LoggingConfig struct {
	OutputDir string `toml:"output_dir"`
}

// Config is the validated application configuration.
type Config struct {
	Whisper  WhisperConfig  `toml:"whisper"`
	LMStudio LMStudioConfig `toml:"lmstudio"`
	Audio    AudioConfig    `toml:"audio"`
	Logging  LoggingConfig  `toml:"logging"`
}

// Load reads the TOML document, applies defaults, and validates the
// resulting settings.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Whisper: WhisperConfig{
			Backend: BackendLocal,
			Binary:  "whisper",
		},
		LMStudio: LMStudioConfig{
			BaseURL:     "http://localhost:1234/v1",
			Model:       "lmstudio",
			Temperature: 0.7,
		},
		Audio: AudioConfig{
			SampleRate: 16000,
			ChunkSize:  1024,
			Device:     -1,
		},
		Logging: LoggingConfig{
			OutputDir: "logs",
		},
	}
}

func (c *Config) validate() error {
	switch c.Whisper.Backend {
	case BackendLocal:
		if c.Whisper.Model == "" {
			c.Whisper.Model = "small"
		}
		if !transcribe.KnownModel(c.Whisper.Model) {
			return fmt.Errorf("unrecognized whisper model %q", c.Whisper.Model)
		}
	case BackendOpenAI:
		if c.Whisper.Model == "" {
			c.Whisper.Model = "whisper-1"
		}
		if c.Whisper.Model != "whisper-1" {
			return fmt.Errorf("unrecognized transcription model %q for the openai backend", c.Whisper.Model)
		}
		if c.Whisper.APIKey == "" {
			return fmt.Errorf("whisper.api_key is required for the openai backend")
		}
	default:
		return fmt.Errorf("unknown transcription backend %q", c.Whisper.Backend)
	}

	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive, got %d", c.Audio.SampleRate)
	}
	if c.Audio.ChunkSize <= 0 {
		return fmt.Errorf("audio.chunk_size must be positive, got %d", c.Audio.ChunkSize)
	}
	if c.LMStudio.MaxTokens < 0 {
		return fmt.Errorf("lmstudio.max_tokens must not be negative, got %d", c.LMStudio.MaxTokens)
	}
	return nil
}
