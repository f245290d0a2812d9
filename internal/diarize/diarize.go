package diarize

import (
	"context"
	"log/slog"

	"attn/internal/transcribe"
)

// Enhancer adds speaker labels to a merged transcript, given a reference to
// the original audio.
type Enhancer interface {
	Enhance(ctx context.Context, tr *transcribe.Transcript, audioPath string) (*transcribe.Transcript, error)
}

// Apply runs the enhancer and swallows any failure: diarization is an
// enhancement, not a requirement, so the pipeline continues with the
// unlabeled transcript.
func Apply(ctx context.Context, e Enhancer, tr *transcribe.Transcript, audioPath string) *transcribe.Transcript {
	if e == nil {
		return tr
	}
	out, err := e.Enhance(ctx, tr, audioPath)
	if err != nil || out == nil {
		slog.Warn("diarization failed, keeping transcript unlabeled", "err", err)
		return tr
	}
	return out
}

// Noop leaves the transcript unlabeled.
type Noop struct{}

func (Noop) Enhance(_ context.Context, tr *transcribe.Transcript, _ string) (*transcribe.Transcript, error) {
	return tr, nil
}
