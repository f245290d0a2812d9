package worker

import (
	"context"

	"attn/internal/segment"
	"attn/internal/transcribe"

	"golang.org/x/sync/errgroup"
)

// outcome is the settled result of one dispatched segment.
type outcome struct {
	index  int
	result *transcribe.ChunkResult
	err    error
}

// runBatch dispatches segs[lo:hi] concurrently and collects every outcome
// before returning. A failing item never aborts the batch; failures are
// handed to the sequential repair pass instead.
func (s *Scheduler) runBatch(ctx context.Context, segs []segment.Segment, lo, hi int) []outcome {
	outcomes := make([]outcome, hi-lo)

	var g errgroup.Group
	g.SetLimit(hi - lo)
	for i := lo; i < hi; i++ {
		i := i
		g.Go(func() error {
			res, err := s.attempt(ctx, i, segs[i])
			outcomes[i-lo] = outcome{index: i, result: res, err: err}
			return nil
		})
	}
	g.Wait()

	return outcomes
}
