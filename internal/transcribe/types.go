package transcribe

import (
	"context"
	"encoding/json"
	"strings"

	"attn/internal/segment"
)

// Word is a single word with timestamps relative to the transcript start.
type Word struct {
	Text    string  `json:"text"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker,omitempty"`
}

// Segment is one timed span of transcript text.
type Segment struct {
	ID      int     `json:"id"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Words   []Word  `json:"words,omitempty"`
	Speaker string  `json:"speaker,omitempty"`
}

// Speaker identifies one speaker in a diarized transcript.
type Speaker struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
}

// ChunkResult is the provider's transcription of one audio segment. Times are
// relative to the chunk, not the source recording; Merge applies the offsets.
type ChunkResult struct {
	Text     string          `json:"text"`
	Language string          `json:"language,omitempty"`
	Duration float64         `json:"duration,omitempty"`
	Segments []Segment       `json:"segments,omitempty"`
	Raw      json.RawMessage `json:"-"`
}

// Transcript is the final reconstructed result for the whole recording.
type Transcript struct {
	Text      string            `json:"text"`
	Language  string            `json:"language,omitempty"`
	Duration  float64           `json:"duration"`
	Segments  []Segment         `json:"segments"`
	Speakers  []Speaker         `json:"speakers,omitempty"`
	RawChunks []json.RawMessage `json:"-"`
}

// Func transcribes a single audio segment. The batch scheduler never
// constructs providers itself; callers inject one of these.
type Func func(ctx context.Context, seg segment.Segment) (*ChunkResult, error)

// EffectiveText returns the chunk's text, reconstructing it from sub-segment
// texts when the provider returned structured segments under an empty
// top-level string. The second return reports whether that salvage fired; it
// is best-effort, not a correctness guarantee.
func (r *ChunkResult) EffectiveText() (string, bool) {
	if strings.TrimSpace(r.Text) != "" {
		return strings.TrimSpace(r.Text), false
	}
	var parts []string
	for _, s := range r.Segments {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, " "), true
}
