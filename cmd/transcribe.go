package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"attn/internal/config"
	"attn/internal/worker"

	"github.com/spf13/cobra"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <input-file>",
	Short: "Transcribe an audio/video recording into one transcript",
	Long: `Transcribe a recording of any length. Files larger than the provider's
upload budget are split at silence boundaries, transcribed chunk by chunk and
reassembled into a single transcript with a continuous timeline.`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

var (
	configPath  string
	outputPath  string
	format      string
	language    string
	apiKey      string
	model       string
	baseURL     string
	saveJSON    bool
	diarization string

	// Segmentation tuning flags.
	maxUploadMB   float64
	maxChunkSec   float64
	silenceDB     float64
	minSilenceMs  int
	hardSplitSec  float64
	noPreprocess  bool
	preserveTemp  bool

	// Scheduling tuning flags.
	maxAttempts int
	rateLimit   int
	timeoutMin  int
)

func init() {
	defaults := config.Default()

	transcribeCmd.Flags().StringVar(&configPath, "config", "", "YAML config file")
	transcribeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output path (default: <input>.<format>)")
	transcribeCmd.Flags().StringVarP(&format, "format", "f", "txt", "output format: txt, srt, md")
	transcribeCmd.Flags().StringVarP(&language, "language", "l", "", "language hint (default: auto-detect)")
	transcribeCmd.Flags().StringVar(&apiKey, "api-key", os.Getenv("OPENAI_API_KEY"), "API key (or set OPENAI_API_KEY)")
	transcribeCmd.Flags().StringVar(&model, "model", defaults.Model, "transcription model")
	transcribeCmd.Flags().StringVar(&baseURL, "base-url", "", "override provider base URL")
	transcribeCmd.Flags().BoolVar(&saveJSON, "save-json", false, "save full transcript JSON alongside the output")
	transcribeCmd.Flags().StringVar(&diarization, "diarization", "none", "speaker labeling: none, gap")

	transcribeCmd.Flags().Float64Var(&maxUploadMB, "max-upload-mb", defaults.MaxUploadSizeMB, "provider upload size budget in MB")
	transcribeCmd.Flags().Float64Var(&maxChunkSec, "max-chunk-sec", defaults.MaxChunkDurationSec, "target chunk duration in seconds")
	transcribeCmd.Flags().Float64Var(&silenceDB, "silence-threshold", defaults.SilenceThresholdDB, "silence threshold in dB")
	transcribeCmd.Flags().IntVar(&minSilenceMs, "min-silence-ms", defaults.MinSilenceMs, "minimum silence duration in ms")
	transcribeCmd.Flags().Float64Var(&hardSplitSec, "hard-split-window", defaults.HardSplitWindowSec, "hard split window in seconds")
	transcribeCmd.Flags().BoolVar(&noPreprocess, "no-preprocess", false, "skip resample/mono-mix before silence detection")
	transcribeCmd.Flags().BoolVar(&preserveTemp, "preserve-intermediates", false, "keep extracted segment files")

	transcribeCmd.Flags().IntVar(&maxAttempts, "max-attempts", defaults.MaxAttempts, "attempts per chunk before it counts as failed")
	transcribeCmd.Flags().IntVar(&rateLimit, "rate-limit", defaults.RateLimitPerMin, "API requests per minute (0 disables)")
	transcribeCmd.Flags().IntVar(&timeoutMin, "timeout-min", defaults.PipelineTimeoutMin, "whole-pipeline timeout in minutes (0 disables)")

	rootCmd.AddCommand(transcribeCmd)
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	inputPath, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", args[0])
	}

	ext := strings.ToLower(filepath.Ext(inputPath))
	validExts := map[string]bool{
		".mp3": true, ".m4a": true, ".wav": true, ".flac": true,
		".ogg": true, ".aac": true, ".webm": true, ".mp4": true,
	}
	if !validExts[ext] {
		return fmt.Errorf("unsupported file type: %s", ext)
	}

	switch format {
	case "txt", "srt", "md":
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	switch diarization {
	case "none", "gap":
	default:
		return fmt.Errorf("unknown diarization mode: %s", diarization)
	}
	if apiKey == "" {
		return fmt.Errorf("API key is required (set OPENAI_API_KEY or pass --api-key)")
	}

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return worker.Run(ctx, worker.Options{
		InputPath:   inputPath,
		OutputPath:  outputPath,
		Format:      format,
		Language:    language,
		APIKey:      apiKey,
		SaveJSON:    saveJSON,
		Diarization: diarization,
		Config:      cfg,
	})
}

// buildConfig layers defaults, then the config file, then any flag the user
// actually set.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("max-upload-mb") {
		cfg.MaxUploadSizeMB = maxUploadMB
	}
	if flags.Changed("max-chunk-sec") {
		cfg.MaxChunkDurationSec = maxChunkSec
	}
	if flags.Changed("silence-threshold") {
		cfg.SilenceThresholdDB = silenceDB
	}
	if flags.Changed("min-silence-ms") {
		cfg.MinSilenceMs = minSilenceMs
	}
	if flags.Changed("hard-split-window") {
		cfg.HardSplitWindowSec = hardSplitSec
	}
	if noPreprocess {
		cfg.EnablePreprocessing = false
	}
	if preserveTemp {
		cfg.PreserveIntermediates = true
	}
	if flags.Changed("max-attempts") {
		cfg.MaxAttempts = maxAttempts
	}
	if flags.Changed("rate-limit") {
		cfg.RateLimitPerMin = rateLimit
	}
	if flags.Changed("timeout-min") {
		cfg.PipelineTimeoutMin = timeoutMin
	}
	if flags.Changed("model") {
		cfg.Model = model
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return cfg, nil
}
