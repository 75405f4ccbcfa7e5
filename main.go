package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/voxchat/voxchat/audio"
	"github.com/voxchat/voxchat/chat"
	"github.com/voxchat/voxchat/config"
	"github.com/voxchat/voxchat/monitor"
	"github.com/voxchat/voxchat/pipeline"
	"github.com/voxchat/voxchat/transcribe"
	"github.com/voxchat/voxchat/transcript"
)

func main() {
	configPath := flag.String("config", "", "Path to the application TOML configuration")
	audioFile := flag.String("audio-file", "", "WAV or raw PCM file used instead of the microphone")
	conversationID := flag.String("conversation-id", "", "Identifier for the conversation session")
	duration := flag.Float64("duration", 5.0, "Seconds to capture from the microphone (ignored for audio files)")
	systemPrompt := flag.String("system-prompt", "", "Optional system prompt injected before the conversation")
	language := flag.String("language", "", "Optional language hint for transcription")
	listDevices := flag.Bool("list-devices", false, "List available audio input devices")
	playFile := flag.String("play", "", "Play a WAV file and exit")
	monitorMode := flag.Bool("monitor", false, "Serve persisted transcripts over HTTP until interrupted")
	monitorAddr := flag.String("monitor-addr", ":8444", "Monitor HTTP address")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *playFile != "" {
		if err := audio.Play(*playFile); err != nil {
			slog.Error("Failed to play audio file", "error", err)
			os.Exit(1)
		}
		return
	}

	if *listDevices {
		devices, err := audio.ListInputDevices()
		if err != nil {
			slog.Error("Failed to list audio devices", "error", err)
			os.Exit(1)
		}

		fmt.Println("Available audio input devices:")
		for i, device := range devices {
			fmt.Printf("[%d] %s\n", i, device.Name)
			fmt.Printf("    Max Input Channels: %d\n", device.MaxInputChannels)
			fmt.Printf("    Default Sample Rate: %f\n", device.DefaultSampleRate)
			fmt.Println()
		}
		return
	}

	if *configPath == "" {
		slog.Error("A configuration file must be provided")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Debug("Received shutdown signal")
		cancel()
	}()

	if *monitorMode {
		runMonitor(ctx, cfg, *monitorAddr)
		return
	}

	runChat(ctx, cfg, chatOptions{
		audioFile:      *audioFile,
		conversationID: *conversationID,
		duration:       *duration,
		systemPrompt:   *systemPrompt,
		language:       *language,
	})
}

func runMonitor(ctx context.Context, cfg *config.Config, addr string) {
	service, err := monitor.New(monitor.Config{
		TranscriptsDir: cfg.Logging.OutputDir,
		HTTPAddr:       addr,
		Workers:        2,
	})
	if err != nil {
		slog.Error("Failed to initialize monitor", "error", err)
		os.Exit(1)
	}

	if err := service.Start(ctx); err != nil {
		slog.Error("Monitor service failed", "error", err)
	}
	if err := service.Stop(context.Background()); err != nil {
		slog.Error("Failed to stop monitor service", "error", err)
	}
}

type chatOptions struct {
	audioFile      string
	conversationID string
	duration       float64
	systemPrompt   string
	language       string
}

// runChat performs one capture, transcribe, converse, persist exchange.
func runChat(ctx context.Context, cfg *config.Config, opts chatOptions) {
	source, duration, err := resolveAudioSource(cfg, opts)
	if err != nil {
		slog.Error("Failed to prepare audio source", "error", err)
		os.Exit(1)
	}

	transcriber, err := resolveTranscriber(cfg)
	if err != nil {
		slog.Error("Failed to initialize transcription backend", "error", err)
		os.Exit(1)
	}

	tlog, err := transcript.NewLogger(cfg.Logging.OutputDir)
	if err != nil {
		slog.Error("Failed to prepare transcript directory", "error", err)
		os.Exit(1)
	}

	backend := chat.NewLMStudio(cfg.LMStudio.BaseURL, cfg.LMStudio.Model)
	conversation := chat.NewConversation(backend, chat.GenerationConfig{
		Temperature:  float32(cfg.LMStudio.Temperature),
		MaxTokens:    cfg.LMStudio.MaxTokens,
		SystemPrompt: opts.systemPrompt,
	})
	if opts.systemPrompt != "" {
		conversation.AddSystemMessage(opts.systemPrompt)
	}

	p := &pipeline.Pipeline{
		Source:       source,
		Transcriber:  transcriber,
		Conversation: conversation,
		Logger:       tlog,
	}

	result, err := p.Run(ctx, pipeline.Options{
		ConversationID: opts.conversationID,
		Duration:       duration,
		Language:       opts.language,
	})
	if err != nil {
		slog.Error("Pipeline failed", "error", err, "conversationID", result.ConversationID)
		os.Exit(1)
	}

	if result.Outcome == pipeline.OutcomeNoSpeech {
		fmt.Println("No speech detected.")
		os.Exit(1)
	}

	fmt.Println("User: " + result.User.Content)
	fmt.Println("Assistant: " + result.Assistant.Content)
	fmt.Println("Conversation saved to " + result.DocumentPath)
}

// resolveAudioSource picks the replay buffer when a file is given, the live
// microphone otherwise. Replay drains the whole file; live capture is
// bounded by the requested duration.
func resolveAudioSource(cfg *config.Config, opts chatOptions) (audio.Source, float64, error) {
	audioCfg := audio.Config{
		SampleRate:  cfg.Audio.SampleRate,
		ChunkSize:   cfg.Audio.ChunkSize,
		Channels:    1,
		Format:      audio.FormatInt16,
		DeviceIndex: cfg.Audio.Device,
	}

	if opts.audioFile != "" {
		data, err := os.ReadFile(opts.audioFile)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read audio file: %w", err)
		}
		return audio.NewBuffer(data, audioCfg), 0, nil
	}

	return audio.NewMicrophone(audioCfg), opts.duration, nil
}

func resolveTranscriber(cfg *config.Config) (transcribe.Transcriber, error) {
	switch cfg.Whisper.Backend {
	case config.BackendOpenAI:
		return transcribe.NewOpenAI(cfg.Whisper.APIKey, cfg.Whisper.Model, cfg.Whisper.BaseURL)
	default:
		return transcribe.NewWhisper(cfg.Whisper.Binary, cfg.Whisper.Model)
	}
}
