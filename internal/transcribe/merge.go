package transcribe

import (
	"fmt"
	"log/slog"
	"strings"

	"attn/internal/segment"
)

// Merge reassembles per-chunk results into one transcript: chunk start times
// become offsets on every sub-segment and word, ids are renumbered densely
// from 0, and empty chunks are dropped. chunks and segs must be aligned by
// index. If every chunk is empty the result is an explicitly empty
// transcript, not an error.
func Merge(chunks []*ChunkResult, segs []segment.Segment) (*Transcript, error) {
	if len(chunks) != len(segs) {
		return nil, fmt.Errorf("merge: %d chunk results for %d segments", len(chunks), len(segs))
	}
	if err := segment.ValidateTimeline(segs); err != nil {
		return nil, err
	}

	out := &Transcript{}
	var parts []string
	nextID := 0

	for i, ch := range chunks {
		if ch == nil {
			return nil, fmt.Errorf("merge: missing result for segment %d", i)
		}
		if ch.Raw != nil {
			out.RawChunks = append(out.RawChunks, ch.Raw)
		}
		if out.Language == "" {
			out.Language = ch.Language
		}

		text, recovered := ch.EffectiveText()
		if recovered {
			slog.Info("recovered chunk text from sub-segments", "chunk", i)
		}
		if text == "" {
			slog.Debug("dropping empty chunk", "chunk", i)
			continue
		}
		parts = append(parts, text)

		offset := segs[i].StartSec
		for _, sub := range ch.Segments {
			sub.ID = nextID
			nextID++
			sub.Start += offset
			sub.End += offset
			if len(sub.Words) > 0 {
				words := make([]Word, len(sub.Words))
				copy(words, sub.Words)
				for j := range words {
					words[j].Start += offset
					words[j].End += offset
				}
				sub.Words = words
			}
			out.Segments = append(out.Segments, sub)
		}
	}

	out.Text = strings.Join(parts, " ")
	if len(segs) > 0 {
		out.Duration = segs[len(segs)-1].EndSec
	}
	return out, nil
}
