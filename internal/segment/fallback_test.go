package segment

import (
	"bytes"
	"context"
	"math"
	"os"
	"testing"
)

func TestFallback_WholeFileWhenFitting(t *testing.T) {
	input := writeTempAudio(t, 2*1024*1024)
	dec := &fakeDecoder{available: false}
	opts := testOptions()
	opts.MaxUploadSizeMB = 20

	segs, err := New(dec, nil).Segment(context.Background(), input, nil, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 1 {
		t.Fatalf("got %d segments, want 1", len(segs))
	}
	// Size-based estimate: 2MB at one minute per MB.
	if math.Abs(segs[0].EndSec-120) > 0.01 {
		t.Errorf("estimated duration %.2f, want 120", segs[0].EndSec)
	}
	if segs[0].Path != input {
		t.Errorf("fitting input should be passed through by reference")
	}
}

func TestFallback_ProportionalByteRanges(t *testing.T) {
	// Scenario scaled down: 3MB input against a 1MB budget gives exactly
	// ceil(3/1)=3 proportional pieces covering the estimate contiguously.
	const size = 3 * 1024 * 1024
	input := writeTempAudio(t, size)
	dec := &fakeDecoder{available: false}
	opts := testOptions()
	opts.MaxUploadSizeMB = 1

	segs, err := New(dec, nil).Segment(context.Background(), input, nil, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 3 {
		t.Fatalf("got %d segments, want 3", len(segs))
	}

	var totalBytes int64
	var reassembled []byte
	for _, s := range segs {
		if !s.InMemory() {
			t.Fatalf("fallback segment [%.1f,%.1f) is not an owned buffer", s.StartSec, s.EndSec)
		}
		totalBytes += s.SizeBytes
		reassembled = append(reassembled, s.Data...)
	}
	if totalBytes != size {
		t.Errorf("pieces sum to %d bytes, want %d", totalBytes, size)
	}
	original, _ := os.ReadFile(input)
	if !bytes.Equal(reassembled, original) {
		t.Error("concatenated pieces do not reproduce the input bytes")
	}

	if err := ValidateTimeline(segs); err != nil {
		t.Errorf("fallback timeline not contiguous: %v", err)
	}
	if math.Abs(segs[2].EndSec-180) > 0.01 {
		t.Errorf("last segment ends at %.2f, want estimated 180", segs[2].EndSec)
	}
	if len(dec.detectCalls) != 0 || dec.extracts != 0 {
		t.Error("fallback mode must not touch the decoder")
	}
}

func TestFallback_KnownDurationRaisesPieceCount(t *testing.T) {
	seg := &Segmenter{}
	input := writeTempAudio(t, 2*1024*1024)
	opts := testOptions()
	opts.MaxUploadSizeMB = 1
	opts.MaxChunkDurationSec = 85
	opts.HardSplitWindowSec = 120

	// Known duration of 400s: by size 2 pieces, by duration ceil(400/85)=5,
	// by hard split ceil(400/120)=4. Duration wins.
	segs, err := seg.fallback(input, 2*1024*1024, 400, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 5 {
		t.Fatalf("got %d pieces, want 5", len(segs))
	}
	if math.Abs(segs[4].EndSec-400) > 0.01 {
		t.Errorf("last piece ends at %.2f, want 400", segs[4].EndSec)
	}
}
