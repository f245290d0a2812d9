package diarize

import "attn/internal/transcribe"

// Window is one span of a speaker timeline.
type Window struct {
	Speaker string
	Start   float64
	End     float64
}

// AssignByOverlap labels every transcript segment and word with the speaker
// whose window overlaps it the most, and fills the transcript's speaker list
// in order of first appearance. Segments with no overlapping window keep
// their existing label.
func AssignByOverlap(tr *transcribe.Transcript, windows []Window) {
	if len(windows) == 0 {
		return
	}

	seen := make(map[string]bool)
	for i := range tr.Segments {
		seg := &tr.Segments[i]
		if sp := bestSpeaker(seg.Start, seg.End, windows); sp != "" {
			seg.Speaker = sp
		}
		for j := range seg.Words {
			w := &seg.Words[j]
			if sp := bestSpeaker(w.Start, w.End, windows); sp != "" {
				w.Speaker = sp
			} else {
				w.Speaker = seg.Speaker
			}
		}
		if seg.Speaker != "" && !seen[seg.Speaker] {
			seen[seg.Speaker] = true
			tr.Speakers = append(tr.Speakers, transcribe.Speaker{ID: seg.Speaker})
		}
	}
}

// bestSpeaker returns the speaker with the maximum temporal overlap against
// [start,end), or "" when nothing overlaps.
func bestSpeaker(start, end float64, windows []Window) string {
	best := ""
	bestOverlap := 0.0
	for _, w := range windows {
		ov := overlap(start, end, w.Start, w.End)
		if ov > bestOverlap {
			bestOverlap = ov
			best = w.Speaker
		}
	}
	return best
}

func overlap(aStart, aEnd, bStart, bEnd float64) float64 {
	lo := aStart
	if bStart > lo {
		lo = bStart
	}
	hi := aEnd
	if bEnd < hi {
		hi = bEnd
	}
	if hi <= lo {
		return 0
	}
	return hi - lo
}
