package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"attn/internal/config"
	"attn/internal/diarize"
	"attn/internal/ffmpeg"
	"attn/internal/output"
	"attn/internal/segment"
	"attn/internal/transcribe"
)

// Options configures one pipeline run.
type Options struct {
	InputPath   string
	OutputPath  string
	Format      string // txt, srt or md
	Language    string
	APIKey      string
	SaveJSON    bool
	Diarization string // none or gap
	Config      *config.Config
}

// Run is the top-level orchestrator: probe, segment, dispatch, merge,
// enhance, write.
func Run(ctx context.Context, opts Options) error {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	outPath := opts.OutputPath
	if outPath == "" {
		base := strings.TrimSuffix(opts.InputPath, filepath.Ext(opts.InputPath))
		outPath = base + "." + opts.Format
	}

	if cfg.PipelineTimeoutMin > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.PipelineTimeoutMin)*time.Minute)
		defer cancel()
	}

	dec := ffmpeg.New()
	segOpts := cfg.Segmentation
	var probed *ffmpeg.Metadata
	if dec.Available() {
		if meta, err := dec.Metadata(ctx, opts.InputPath); err == nil && meta.DurationSec > 0 {
			segOpts = segOpts.ForDuration(meta.DurationSec)
			probed = &meta
			slog.Info("probed input",
				"input", filepath.Base(opts.InputPath),
				"duration_sec", fmt.Sprintf("%.1f", meta.DurationSec),
				"sample_rate", meta.SampleRate,
				"channels", meta.Channels,
				"codec", meta.Codec)
		}
	} else {
		slog.Warn("ffmpeg not found on PATH, silence-aware splitting disabled")
	}

	segmenter := segment.New(dec, segment.NewCache())
	segs, err := segmenter.Segment(ctx, opts.InputPath, probed, segOpts)
	if err != nil {
		return fmt.Errorf("segmentation: %w", err)
	}
	defer segment.Cleanup(segs, segOpts.PreserveIntermediates)

	// A broken timeline must be caught before any chunk is dispatched.
	if err := segment.ValidateTimeline(segs); err != nil {
		return err
	}
	slog.Info("segmentation complete", "segments", len(segs))

	client := transcribe.NewOpenAIClient(opts.APIKey, cfg.Model, cfg.BaseURL, opts.Language)
	scheduler := NewScheduler(client.Transcribe, cfg.MaxAttempts, cfg.RateLimitPerMin)
	chunks, err := scheduler.Process(ctx, segs)
	if err != nil {
		return err
	}

	tr, err := transcribe.Merge(chunks, segs)
	if err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	if tr.Text == "" {
		slog.Warn("every chunk came back empty; writing an empty transcript")
	}

	if opts.Diarization == "gap" {
		tr = diarize.Apply(ctx, diarize.Gap{}, tr, opts.InputPath)
	}

	content, err := output.Render(tr, opts.Format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	slog.Info("transcript saved", "path", outPath)

	if opts.SaveJSON {
		jsonPath := strings.TrimSuffix(outPath, filepath.Ext(outPath)) + ".json"
		if err := output.WriteJSON(jsonPath, tr); err != nil {
			slog.Warn("failed to save JSON", "err", err)
		} else {
			slog.Info("transcript JSON saved", "path", jsonPath)
		}
	}

	return nil
}
