package segment

import (
	"context"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"attn/internal/ffmpeg"
)

// timelineToleranceSec is the maximum boundary mismatch allowed between
// consecutive segments before the timeline is considered broken.
const timelineToleranceSec = 1.0

// minSegmentSec is the minimum useful segment length; anything shorter is
// dropped during splitting.
const minSegmentSec = 0.1

// Decoder is the capability surface the segmenter needs from the external
// audio tool. *ffmpeg.Tool satisfies it.
type Decoder interface {
	Available() bool
	Metadata(ctx context.Context, input string) (ffmpeg.Metadata, error)
	DetectSilence(ctx context.Context, input string, thresholdDB, minSilenceSec float64) ([]ffmpeg.Interval, error)
	Extract(ctx context.Context, input string, startSec, durationSec float64, outPath string) error
	Preprocess(ctx context.Context, input string, sampleRate, channels int) (string, error)
}

// Segment is one contiguous slice of the source audio. The payload is either
// a file reference (Path) or an owned in-memory buffer (Data), never both.
// Transient marks files created by the segmenter, which are deleted by
// Cleanup unless the caller asked to preserve intermediates.
type Segment struct {
	StartSec  float64
	EndSec    float64
	SizeBytes int64
	Path      string
	Data      []byte
	Transient bool
}

// DurationSec returns the segment length in seconds.
func (s Segment) DurationSec() float64 {
	return s.EndSec - s.StartSec
}

// InMemory reports whether the payload is an owned byte buffer.
func (s Segment) InMemory() bool {
	return s.Path == ""
}

// ValidateTimeline checks that segments are sorted and contiguous: each
// segment starts where the previous one ended, within tolerance. A violation
// is fatal for the whole run and must be caught before transcription starts.
func ValidateTimeline(segs []Segment) error {
	for i, s := range segs {
		if s.EndSec <= s.StartSec {
			return &TimelineGapError{Index: i, PrevEnd: s.StartSec, NextStart: s.EndSec}
		}
		if i == 0 {
			continue
		}
		gap := math.Abs(s.StartSec - segs[i-1].EndSec)
		if gap > timelineToleranceSec {
			return &TimelineGapError{
				Index:     i,
				Gap:       gap,
				PrevEnd:   segs[i-1].EndSec,
				NextStart: s.StartSec,
			}
		}
	}
	return nil
}

// Cleanup deletes transient segment files. It is safe to call on every exit
// path, including partial extraction failures; missing files are ignored.
func Cleanup(segs []Segment, preserve bool) {
	if preserve {
		return
	}
	dirs := make(map[string]struct{})
	for _, s := range segs {
		if !s.Transient || s.Path == "" {
			continue
		}
		if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
			slog.Debug("cleanup segment", "path", filepath.Base(s.Path), "err", err)
		}
		dirs[filepath.Dir(s.Path)] = struct{}{}
	}
	// Parent dirs are per-run; removal fails harmlessly if anything is left.
	for dir := range dirs {
		os.Remove(dir)
	}
}
