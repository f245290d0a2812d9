package transcribe

import (
	"math"
	"testing"

	"attn/internal/segment"
)

func chunkedSegments(ends ...float64) []segment.Segment {
	var segs []segment.Segment
	start := 0.0
	for _, end := range ends {
		segs = append(segs, segment.Segment{StartSec: start, EndSec: end})
		start = end
	}
	return segs
}

func TestMerge_OffsetsAndRenumbering(t *testing.T) {
	segs := chunkedSegments(60, 130)
	chunks := []*ChunkResult{
		{
			Text:     "first chunk",
			Language: "en",
			Segments: []Segment{
				{ID: 0, Start: 0, End: 30, Text: "first"},
				{ID: 1, Start: 30, End: 60, Text: "chunk"},
			},
		},
		{
			Text: "second chunk",
			Segments: []Segment{
				{ID: 0, Start: 0, End: 40, Text: "second chunk",
					Words: []Word{{Text: "second", Start: 1, End: 2}}},
			},
		},
	}

	tr, err := Merge(chunks, segs)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Text != "first chunk second chunk" {
		t.Errorf("Text = %q", tr.Text)
	}
	if tr.Language != "en" {
		t.Errorf("Language = %q, want 'en'", tr.Language)
	}
	if tr.Duration != 130 {
		t.Errorf("Duration = %.1f, want 130", tr.Duration)
	}
	if len(tr.Segments) != 3 {
		t.Fatalf("got %d segments, want 3", len(tr.Segments))
	}
	for i, s := range tr.Segments {
		if s.ID != i {
			t.Errorf("Segments[%d].ID = %d, want dense renumbering", i, s.ID)
		}
	}
	// Second chunk's sub-segment shifted by its 60s offset.
	last := tr.Segments[2]
	if last.Start != 60 || last.End != 100 {
		t.Errorf("offset segment = [%.1f,%.1f], want [60,100]", last.Start, last.End)
	}
	if w := last.Words[0]; w.Start != 61 || w.End != 62 {
		t.Errorf("offset word = [%.1f,%.1f], want [61,62]", w.Start, w.End)
	}
	// Offsetting must not reach back into the caller's chunk data.
	if chunks[1].Segments[0].Words[0].Start != 1 {
		t.Error("merge mutated the source chunk's word timestamps")
	}
}

func TestMerge_EmptyChunksDropped(t *testing.T) {
	segs := chunkedSegments(60, 120, 180)
	chunks := []*ChunkResult{
		{Text: "speech"},
		{Text: "   "},
		{Text: "more speech"},
	}

	tr, err := Merge(chunks, segs)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Text != "speech more speech" {
		t.Errorf("Text = %q, want empty chunk dropped", tr.Text)
	}
}

func TestMerge_AllEmptyYieldsEmptyTranscript(t *testing.T) {
	segs := chunkedSegments(60, 120)
	chunks := []*ChunkResult{{Text: ""}, {Text: ""}}

	tr, err := Merge(chunks, segs)
	if err != nil {
		t.Fatalf("all-silence input must not be an error: %v", err)
	}
	if tr.Text != "" || len(tr.Segments) != 0 {
		t.Errorf("got %q with %d segments, want empty transcript", tr.Text, len(tr.Segments))
	}
}

func TestMerge_CountMismatch(t *testing.T) {
	if _, err := Merge([]*ChunkResult{{Text: "x"}}, chunkedSegments(60, 120)); err == nil {
		t.Error("expected error for chunk/segment count mismatch")
	}
}

func TestMerge_MissingResult(t *testing.T) {
	if _, err := Merge([]*ChunkResult{nil}, chunkedSegments(60)); err == nil {
		t.Error("expected error for a nil chunk result")
	}
}

func TestMerge_TimelineGapRejected(t *testing.T) {
	segs := []segment.Segment{
		{StartSec: 0, EndSec: 60},
		{StartSec: 63, EndSec: 120},
	}
	_, err := Merge([]*ChunkResult{{Text: "a"}, {Text: "b"}}, segs)
	if err == nil {
		t.Fatal("expected error for a 3s gap between segments")
	}
}

func TestMerge_SmallGapTolerated(t *testing.T) {
	segs := []segment.Segment{
		{StartSec: 0, EndSec: 60},
		{StartSec: 60.8, EndSec: 120},
	}
	tr, err := Merge([]*ChunkResult{{Text: "a"}, {Text: "b"}}, segs)
	if err != nil {
		t.Fatalf("sub-tolerance gap must be accepted: %v", err)
	}
	if tr.Text != "a b" {
		t.Errorf("Text = %q", tr.Text)
	}
}

func TestMerge_RecoveredTextUsed(t *testing.T) {
	segs := chunkedSegments(60)
	chunks := []*ChunkResult{{
		Text: "",
		Segments: []Segment{
			{Start: 0, End: 30, Text: "salvaged"},
			{Start: 30, End: 60, Text: "text"},
		},
	}}

	tr, err := Merge(chunks, segs)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Text != "salvaged text" {
		t.Errorf("Text = %q, want text recovered from sub-segments", tr.Text)
	}
}

func TestEffectiveText(t *testing.T) {
	tests := []struct {
		name          string
		chunk         ChunkResult
		want          string
		wantRecovered bool
	}{
		{
			name:  "direct text",
			chunk: ChunkResult{Text: " hello "},
			want:  "hello",
		},
		{
			name: "salvage from segments",
			chunk: ChunkResult{Segments: []Segment{
				{Text: "a"}, {Text: " b "},
			}},
			want:          "a b",
			wantRecovered: true,
		},
		{
			name:  "nothing at all",
			chunk: ChunkResult{},
			want:  "",
		},
		{
			name:  "whitespace segments not salvageable",
			chunk: ChunkResult{Segments: []Segment{{Text: "  "}}},
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, recovered := tt.chunk.EffectiveText()
			if got != tt.want || recovered != tt.wantRecovered {
				t.Errorf("EffectiveText() = (%q, %v), want (%q, %v)",
					got, recovered, tt.want, tt.wantRecovered)
			}
		})
	}
}

func TestMerge_DurationIsLastSegmentEnd(t *testing.T) {
	segs := chunkedSegments(45.5)
	tr, err := Merge([]*ChunkResult{{Text: "x"}}, segs)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(tr.Duration-45.5) > 0.001 {
		t.Errorf("Duration = %.2f, want 45.5", tr.Duration)
	}
}
