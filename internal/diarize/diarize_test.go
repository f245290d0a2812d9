package diarize

import (
	"context"
	"fmt"
	"testing"

	"attn/internal/transcribe"
)

type failingEnhancer struct{}

func (failingEnhancer) Enhance(_ context.Context, _ *transcribe.Transcript, _ string) (*transcribe.Transcript, error) {
	return nil, fmt.Errorf("external service unreachable")
}

func TestApply_FailureKeepsTranscript(t *testing.T) {
	tr := &transcribe.Transcript{Text: "hello"}
	got := Apply(context.Background(), failingEnhancer{}, tr, "in.mp3")
	if got != tr {
		t.Error("a failing enhancer must return the original transcript")
	}
}

func TestApply_NilEnhancer(t *testing.T) {
	tr := &transcribe.Transcript{Text: "hello"}
	if got := Apply(context.Background(), nil, tr, "in.mp3"); got != tr {
		t.Error("nil enhancer must pass the transcript through")
	}
}

func TestGap_AlternatesOnLongPauses(t *testing.T) {
	tr := &transcribe.Transcript{
		Segments: []transcribe.Segment{
			{Start: 0, End: 5, Text: "hi there"},
			{Start: 5.2, End: 10, Text: "how are you"},
			{Start: 13, End: 18, Text: "fine thanks"},
			{Start: 21, End: 25, Text: "good to hear"},
		},
	}

	got, err := Gap{}.Enhance(context.Background(), tr, "in.mp3")
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"Speaker 1", "Speaker 1", "Speaker 2", "Speaker 1"}
	for i, s := range got.Segments {
		if s.Speaker != want[i] {
			t.Errorf("Segments[%d].Speaker = %q, want %q", i, s.Speaker, want[i])
		}
	}
	if len(got.Speakers) != 2 {
		t.Errorf("got %d speakers, want 2", len(got.Speakers))
	}
}

func TestGap_SingleSpeakerWithoutPauses(t *testing.T) {
	tr := &transcribe.Transcript{
		Segments: []transcribe.Segment{
			{Start: 0, End: 5, Text: "a"},
			{Start: 5.5, End: 10, Text: "b"},
		},
	}
	got, err := Gap{}.Enhance(context.Background(), tr, "in.mp3")
	if err != nil {
		t.Fatal(err)
	}
	for i, s := range got.Segments {
		if s.Speaker != "Speaker 1" {
			t.Errorf("Segments[%d].Speaker = %q, want 'Speaker 1'", i, s.Speaker)
		}
	}
	if len(got.Speakers) != 1 {
		t.Errorf("got %d speakers, want 1", len(got.Speakers))
	}
}

func TestGap_PreservesExistingLabels(t *testing.T) {
	tr := &transcribe.Transcript{
		Segments: []transcribe.Segment{
			{Start: 0, End: 5, Text: "a", Speaker: "Alice"},
			{Start: 10, End: 15, Text: "b", Speaker: "Bob"},
		},
	}
	got, err := Gap{}.Enhance(context.Background(), tr, "in.mp3")
	if err != nil {
		t.Fatal(err)
	}
	if got.Segments[0].Speaker != "Alice" || got.Segments[1].Speaker != "Bob" {
		t.Error("existing speaker labels must not be overwritten")
	}
}

func TestGap_EmptyTranscript(t *testing.T) {
	tr := &transcribe.Transcript{}
	if _, err := (Gap{}).Enhance(context.Background(), tr, "in.mp3"); err != nil {
		t.Fatal(err)
	}
}

func TestAssignByOverlap(t *testing.T) {
	tr := &transcribe.Transcript{
		Segments: []transcribe.Segment{
			{Start: 0, End: 10, Words: []transcribe.Word{
				{Text: "early", Start: 1, End: 2},
				{Text: "late", Start: 8, End: 9},
			}},
			{Start: 10, End: 20},
			{Start: 100, End: 110},
		},
	}
	windows := []Window{
		{Speaker: "Speaker 1", Start: 0, End: 7},
		{Speaker: "Speaker 2", Start: 7, End: 20},
	}

	AssignByOverlap(tr, windows)

	// Segment [0,10) overlaps speaker 1 by 7s and speaker 2 by 3s.
	if tr.Segments[0].Speaker != "Speaker 1" {
		t.Errorf("Segments[0].Speaker = %q, want 'Speaker 1'", tr.Segments[0].Speaker)
	}
	if tr.Segments[1].Speaker != "Speaker 2" {
		t.Errorf("Segments[1].Speaker = %q, want 'Speaker 2'", tr.Segments[1].Speaker)
	}
	// Words get their own assignment within the parent segment.
	if tr.Segments[0].Words[0].Speaker != "Speaker 1" {
		t.Errorf("early word speaker = %q, want 'Speaker 1'", tr.Segments[0].Words[0].Speaker)
	}
	if tr.Segments[0].Words[1].Speaker != "Speaker 2" {
		t.Errorf("late word speaker = %q, want 'Speaker 2'", tr.Segments[0].Words[1].Speaker)
	}
	// The segment past every window keeps its empty label.
	if tr.Segments[2].Speaker != "" {
		t.Errorf("out-of-window segment got speaker %q", tr.Segments[2].Speaker)
	}
	if len(tr.Speakers) != 2 {
		t.Errorf("got %d speakers, want 2", len(tr.Speakers))
	}
	if tr.Speakers[0].ID != "Speaker 1" {
		t.Errorf("Speakers[0] = %q, want first-appearance order", tr.Speakers[0].ID)
	}
}
