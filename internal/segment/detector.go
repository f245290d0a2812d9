package segment

import (
	"context"
	"log/slog"
	"sort"

	"attn/internal/ffmpeg"
)

const (
	// Below this interval count the first pass is considered too sparse and
	// a second, more sensitive pass is attempted.
	sparseIntervalCount = 5

	// relaxedThresholdDB is the point past which no second pass is run.
	relaxedThresholdDB = -25.0

	// floorThresholdDB caps how deep the second pass threshold can go.
	floorThresholdDB = -40.0

	// mergeGapSec joins intervals from the two passes when they nearly touch.
	mergeGapSec = 0.5

	// syntheticSpacingSec is the spacing of fabricated split candidates when
	// real silence detection is unavailable.
	syntheticSpacingSec = 180.0
)

// Detector finds silence intervals through the decoder, with an adaptive
// second pass and a synthetic fallback so the segmenter always has candidate
// split points.
type Detector struct {
	dec Decoder
}

func NewDetector(dec Decoder) *Detector {
	return &Detector{dec: dec}
}

// Detect returns merged, sorted, non-overlapping silence intervals covering
// the input. Detection never fails: on decoder error it synthesizes evenly
// spaced artificial intervals across totalDur instead.
func (d *Detector) Detect(ctx context.Context, input string, thresholdDB, minSilenceSec, totalDur float64) []ffmpeg.Interval {
	intervals, err := d.dec.DetectSilence(ctx, input, thresholdDB, minSilenceSec)
	if err != nil {
		slog.Warn("silence detection failed, using synthetic intervals", "err", err)
		return syntheticIntervals(totalDur)
	}

	if len(intervals) < sparseIntervalCount && thresholdDB < relaxedThresholdDB {
		secondThreshold := thresholdDB - 5
		if secondThreshold < floorThresholdDB {
			secondThreshold = floorThresholdDB
		}
		second, err := d.dec.DetectSilence(ctx, input, secondThreshold, minSilenceSec*0.7)
		if err != nil {
			slog.Debug("second silence pass failed, keeping first pass", "err", err)
		} else {
			slog.Debug("second silence pass",
				"threshold_db", secondThreshold,
				"first_pass", len(intervals),
				"second_pass", len(second))
			intervals = append(intervals, second...)
		}
	}

	return mergeIntervals(intervals, mergeGapSec)
}

// mergeIntervals sorts intervals by start and merges any pair whose gap is at
// most maxGap, producing a sorted, non-overlapping set.
func mergeIntervals(intervals []ffmpeg.Interval, maxGap float64) []ffmpeg.Interval {
	if len(intervals) == 0 {
		return nil
	}
	sorted := make([]ffmpeg.Interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	merged := []ffmpeg.Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if iv.Start-last.End <= maxGap {
			if iv.End > last.End {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// syntheticIntervals fabricates a 1s window every three minutes so splitting
// can proceed without real silence information.
func syntheticIntervals(totalDur float64) []ffmpeg.Interval {
	var intervals []ffmpeg.Interval
	for t := syntheticSpacingSec; t < totalDur; t += syntheticSpacingSec {
		intervals = append(intervals, ffmpeg.Interval{Start: t - 0.5, End: t + 0.5})
	}
	return intervals
}
