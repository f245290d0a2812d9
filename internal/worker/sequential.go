package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"attn/internal/segment"
	"attn/internal/transcribe"
)

// sequentialRetryDelay is the fixed pause before each sequential retry, so a
// failed batch does not immediately pile more pressure onto the provider.
const sequentialRetryDelay = time.Second

// ChunkError reports a segment that failed its sequential retry pass. It is
// fatal for the whole run.
type ChunkError struct {
	Index    int
	StartSec float64
	EndSec   float64
	Err      error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("segment %d [%.1fs,%.1fs) failed after retry pass: %v",
		e.Index, e.StartSec, e.EndSec, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

// repair re-runs the batch's failed items one at a time, in index order. The
// first item that fails again ends the run with a ChunkError naming it.
func (s *Scheduler) repair(ctx context.Context, segs []segment.Segment, failed []int, results []*transcribe.ChunkResult) error {
	for _, idx := range failed {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sequentialRetryDelay):
		}

		slog.Info("sequential retry", "segment", idx)
		res, err := s.attempt(ctx, idx, segs[idx])
		if err != nil {
			return &ChunkError{
				Index:    idx,
				StartSec: segs[idx].StartSec,
				EndSec:   segs[idx].EndSec,
				Err:      err,
			}
		}
		results[idx] = res
	}
	return nil
}
