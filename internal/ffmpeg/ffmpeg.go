package ffmpeg

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Tool wraps the external ffmpeg binary. All interaction happens through its
// textual stderr output and extracted files; nothing here depends on how the
// decoder is implemented.
type Tool struct {
	path string
}

// New locates ffmpeg on the PATH. A Tool is still returned when the binary is
// missing; Available reports the difference and callers fall back accordingly.
func New() *Tool {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return &Tool{}
	}
	return &Tool{path: path}
}

// Available returns true if the ffmpeg binary was found.
func (t *Tool) Available() bool {
	return t != nil && t.path != ""
}

// Metadata probes the input and returns its decoded properties. Parse misses
// inside the output degrade to conservative defaults rather than errors; an
// error is returned only when ffmpeg could not be run at all.
func (t *Tool) Metadata(ctx context.Context, input string) (Metadata, error) {
	// No output file: ffmpeg exits non-zero but still prints the stream
	// banner, which is all the probe needs.
	out, err := t.run(ctx, "-hide_banner", "-i", input)
	if err != nil && len(out) == 0 {
		return Metadata{}, fmt.Errorf("ffmpeg probe %s: %w", filepath.Base(input), err)
	}
	return parseMetadata(out), nil
}

// DetectSilence runs one silencedetect pass and returns the detected
// intervals in emission order.
func (t *Tool) DetectSilence(ctx context.Context, input string, thresholdDB, minSilenceSec float64) ([]Interval, error) {
	filter := fmt.Sprintf("silencedetect=noise=%.1fdB:d=%.3f", thresholdDB, minSilenceSec)
	out, err := t.run(ctx, "-hide_banner", "-i", input, "-af", filter, "-f", "null", "-")
	if err != nil && !strings.Contains(out, "silence_") {
		return nil, fmt.Errorf("silencedetect on %s: %w", filepath.Base(input), err)
	}

	meta := parseMetadata(out)
	intervals := parseSilence(out, meta.DurationSec)
	slog.Debug("silence detection pass",
		"input", filepath.Base(input),
		"threshold_db", thresholdDB,
		"min_silence_sec", minSilenceSec,
		"intervals", len(intervals))
	return intervals, nil
}

// Extract copies the [startSec, startSec+durationSec) range of the input into
// outPath using stream copy, so no re-encoding happens.
func (t *Tool) Extract(ctx context.Context, input string, startSec, durationSec float64, outPath string) error {
	out, err := t.run(ctx,
		"-hide_banner",
		"-ss", fmt.Sprintf("%.3f", startSec),
		"-i", input,
		"-t", fmt.Sprintf("%.3f", durationSec),
		"-c", "copy",
		"-y",
		outPath,
	)
	if err != nil {
		return fmt.Errorf("extract [%.1fs,%.1fs) from %s: %w\n%s",
			startSec, startSec+durationSec, filepath.Base(input), err, tail(out))
	}
	return nil
}

// Preprocess resamples and channel-mixes the input to improve silence
// detection accuracy. It is best-effort: on any failure the original input
// path is returned so the caller can continue unchanged.
func (t *Tool) Preprocess(ctx context.Context, input string, sampleRate, channels int) (string, error) {
	outPath := preprocessPath(input)

	_, err := t.run(ctx,
		"-hide_banner",
		"-i", input,
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-ac", fmt.Sprintf("%d", channels),
		"-y",
		outPath,
	)
	if err != nil {
		os.Remove(outPath)
		return input, fmt.Errorf("preprocess %s: %w", filepath.Base(input), err)
	}
	return outPath, nil
}

// preprocessPath builds a per-call temp path so concurrent runs over the same
// input never write the same normalized file.
func preprocessPath(input string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(os.TempDir(), fmt.Sprintf("%s_norm_%s.wav", base, uuid.NewString()[:8]))
}

func (t *Tool) run(ctx context.Context, args ...string) (string, error) {
	if !t.Available() {
		return "", fmt.Errorf("ffmpeg is not available")
	}
	cmd := exec.CommandContext(ctx, t.path, args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// tail returns the last few lines of ffmpeg output for error context.
func tail(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) > 4 {
		lines = lines[len(lines)-4:]
	}
	return strings.Join(lines, "\n")
}
