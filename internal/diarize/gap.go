package diarize

import (
	"context"
	"fmt"

	"attn/internal/transcribe"
)

// defaultGapSec is the inter-segment pause that flips the speaker guess.
const defaultGapSec = 1.5

// Gap is a minimal two-speaker heuristic: build a speaker timeline by
// alternating whenever the pause between segments exceeds a threshold, then
// assign labels by overlap. It stands in for an external diarization
// provider and never overwrites labels that are already present.
type Gap struct {
	ThresholdSec float64
}

func (g Gap) Enhance(_ context.Context, tr *transcribe.Transcript, _ string) (*transcribe.Transcript, error) {
	if tr == nil {
		return nil, fmt.Errorf("nil transcript")
	}
	if len(tr.Segments) == 0 {
		return tr, nil
	}
	for _, s := range tr.Segments {
		if s.Speaker != "" {
			return tr, nil
		}
	}

	threshold := g.ThresholdSec
	if threshold <= 0 {
		threshold = defaultGapSec
	}

	var windows []Window
	speaker := 1
	winStart := tr.Segments[0].Start
	for i := 1; i < len(tr.Segments); i++ {
		gap := tr.Segments[i].Start - tr.Segments[i-1].End
		if gap > threshold {
			windows = append(windows, Window{
				Speaker: speakerName(speaker),
				Start:   winStart,
				End:     tr.Segments[i-1].End,
			})
			winStart = tr.Segments[i].Start
			if speaker == 1 {
				speaker = 2
			} else {
				speaker = 1
			}
		}
	}
	windows = append(windows, Window{
		Speaker: speakerName(speaker),
		Start:   winStart,
		End:     tr.Segments[len(tr.Segments)-1].End,
	})

	AssignByOverlap(tr, windows)
	return tr, nil
}

func speakerName(i int) string {
	return fmt.Sprintf("Speaker %d", i)
}
