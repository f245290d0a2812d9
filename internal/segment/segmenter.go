package segment

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"attn/internal/config"
	"attn/internal/ffmpeg"

	"github.com/google/uuid"
)

const (
	// earlySplitFraction makes the segmenter prefer a silence once the
	// running segment has reached this share of the duration target.
	earlySplitFraction = 0.8

	// edgeGuardSec drops split candidates too close to either end of the
	// recording.
	edgeGuardSec = 5.0

	// hardSplitEndGuardSec keeps forced splits away from the very end.
	hardSplitEndGuardSec = 10.0

	// longIntervalSec decides between splitting at an interval's midpoint
	// (long silence) or its end (short silence, avoid clipping speech).
	longIntervalSec = 1.0
)

// Segmenter splits source audio into provider-sized pieces at silence
// boundaries, with duration-based hard splits as a fallback.
type Segmenter struct {
	dec   Decoder
	det   *Detector
	cache *Cache
}

// New creates a Segmenter. The cache may be nil to disable memoization.
func New(dec Decoder, cache *Cache) *Segmenter {
	return &Segmenter{dec: dec, det: NewDetector(dec), cache: cache}
}

// Segment splits the input according to opts. meta carries an already-probed
// result so the decoder is not invoked twice per run; nil means not probed
// yet. Returned segments are sorted by start time and contiguous. Transient
// segment files are owned by the caller and must be released with Cleanup.
func (s *Segmenter) Segment(ctx context.Context, input string, meta *ffmpeg.Metadata, opts config.Segmentation) ([]Segment, error) {
	fp, fpErr := Fingerprint(input, opts)
	if fpErr == nil && s.cache != nil {
		if segs, ok := s.cache.Get(fp); ok {
			slog.Info("segmentation cache hit", "input", filepath.Base(input), "segments", len(segs))
			return segs, nil
		}
	}

	segs, err := s.split(ctx, input, meta, opts)
	if err != nil {
		return nil, err
	}

	if fpErr == nil && s.cache != nil {
		s.cache.Put(fp, segs)
	}
	return segs, nil
}

func (s *Segmenter) split(ctx context.Context, input string, known *ffmpeg.Metadata, opts config.Segmentation) ([]Segment, error) {
	st, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}

	if !s.dec.Available() {
		slog.Warn("decoder unavailable, falling back to byte-range segmentation")
		return s.fallback(input, st.Size(), 0, opts)
	}

	// Preprocessing feeds silence detection only; extraction always runs
	// against the original input. Failure here is never fatal.
	workPath := input
	if opts.EnablePreprocessing {
		p, err := s.dec.Preprocess(ctx, input, opts.TargetSampleRate, opts.TargetChannels)
		if err != nil {
			slog.Warn("preprocessing failed, continuing with original input", "err", err)
		} else if p != input {
			workPath = p
			defer os.Remove(p)
		}
	}

	var meta ffmpeg.Metadata
	if known != nil && known.DurationSec > 0 {
		meta = *known
	} else {
		meta, err = s.dec.Metadata(ctx, workPath)
		if err != nil {
			slog.Warn("metadata probe failed, falling back to byte-range segmentation", "err", err)
			return s.fallback(input, st.Size(), 0, opts)
		}
	}
	// A parse miss reports duration 0. Splitting on an unknown timeline would
	// produce a zero-length segment, so degrade to the size-based estimate.
	if meta.DurationSec <= 0 {
		slog.Warn("could not determine duration, falling back to byte-range segmentation",
			"input", filepath.Base(input))
		return s.fallback(input, st.Size(), 0, opts)
	}

	sizeMB := float64(st.Size()) / (1024 * 1024)
	if sizeMB <= opts.MaxUploadSizeMB && meta.DurationSec <= opts.MaxChunkDurationSec {
		slog.Info("input fits provider budget, no splitting needed",
			"size_mb", fmt.Sprintf("%.1f", sizeMB),
			"duration_sec", fmt.Sprintf("%.1f", meta.DurationSec))
		return []Segment{{
			StartSec:  0,
			EndSec:    meta.DurationSec,
			SizeBytes: st.Size(),
			Path:      input,
		}}, nil
	}

	intervals := s.det.Detect(ctx, workPath,
		opts.SilenceThresholdDB,
		float64(opts.MinSilenceMs)/1000,
		meta.DurationSec)

	points := chooseSplitPoints(intervals, meta.DurationSec, opts.MaxChunkDurationSec)
	slog.Info("chose split points",
		"silence_intervals", len(intervals),
		"split_points", len(points),
		"duration_sec", fmt.Sprintf("%.1f", meta.DurationSec))

	return s.extractAll(ctx, input, points, meta.DurationSec)
}

// chooseSplitPoints walks the silence intervals in order and picks split
// points so that no segment exceeds the duration target. A silence is used
// once the running segment has covered earlySplitFraction of the target, or
// when waiting for the next candidate would overshoot it. Long intervals
// split at their midpoint, short ones at their end to avoid clipping
// trailing speech. Whatever tail still exceeds the target is divided into
// evenly spaced hard splits.
func chooseSplitPoints(intervals []ffmpeg.Interval, totalDur, maxChunkDur float64) []float64 {
	var points []float64
	lastSplit := 0.0

	for i, iv := range intervals {
		next := totalDur
		if i+1 < len(intervals) {
			next = intervals[i+1].Start
		}
		reachedMargin := iv.Start-lastSplit >= earlySplitFraction*maxChunkDur
		wouldOvershoot := next-lastSplit > maxChunkDur
		if !reachedMargin && !wouldOvershoot {
			continue
		}
		p := iv.End
		if iv.Duration() >= longIntervalSec {
			p = iv.Start + iv.Duration()/2
		}
		if p <= lastSplit {
			continue
		}
		points = append(points, p)
		lastSplit = p
	}

	// Hard splits for any span the silences could not cover, the tail
	// included: each over-long span is divided into evenly spaced pieces,
	// never naive fixed-size windows, and splits stay away from the very
	// end of the recording.
	var final []float64
	lo := 0.0
	for _, p := range append(points, totalDur) {
		span := p - lo
		if span > maxChunkDur {
			n := int(math.Ceil(span / maxChunkDur))
			step := span / float64(n)
			for k := 1; k < n; k++ {
				q := lo + step*float64(k)
				if q > totalDur-hardSplitEndGuardSec {
					break
				}
				final = append(final, q)
			}
		}
		if p != totalDur {
			final = append(final, p)
		}
		lo = p
	}
	points = final

	sort.Float64s(points)

	// Points hugging either edge of the recording produce useless slivers.
	kept := points[:0]
	for _, p := range points {
		if p >= edgeGuardSec && p <= totalDur-edgeGuardSec {
			kept = append(kept, p)
		}
	}
	return kept
}

// extractAll materializes each [start,end) range into a transient file in a
// per-run temp directory. Any extraction failure is fatal; files created so
// far are removed before returning.
func (s *Segmenter) extractAll(ctx context.Context, input string, points []float64, totalDur float64) ([]Segment, error) {
	dir := filepath.Join(os.TempDir(), "attn-"+uuid.NewString()[:8])
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create segment dir: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	ext := filepath.Ext(input)
	bounds := append([]float64{0}, points...)
	bounds = append(bounds, totalDur)

	var segs []Segment
	for i := 0; i+1 < len(bounds); i++ {
		start, end := bounds[i], bounds[i+1]
		if end-start < minSegmentSec {
			continue
		}
		outPath := filepath.Join(dir, fmt.Sprintf("%s_seg_%03d%s", base, i, ext))
		if err := s.dec.Extract(ctx, input, start, end-start, outPath); err != nil {
			Cleanup(segs, false)
			os.Remove(dir)
			return nil, &ExtractError{Index: i, StartSec: start, EndSec: end, Err: err}
		}
		st, err := os.Stat(outPath)
		if err != nil {
			Cleanup(segs, false)
			os.Remove(dir)
			return nil, &ExtractError{Index: i, StartSec: start, EndSec: end, Err: err}
		}
		segs = append(segs, Segment{
			StartSec:  start,
			EndSec:    end,
			SizeBytes: st.Size(),
			Path:      outPath,
			Transient: true,
		})
	}
	return segs, nil
}
