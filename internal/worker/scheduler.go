package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"attn/internal/segment"
	"attn/internal/transcribe"

	"golang.org/x/time/rate"
)

// Scheduler executes chunk transcriptions in sequential bounded-concurrency
// batches. Each batch settles completely (successes and failures collected)
// before a sequential repair pass re-tries the failures; batches never
// overlap because the inter-batch delay is part of the rate-limiting
// contract with the provider.
type Scheduler struct {
	transcribe  transcribe.Func
	maxAttempts int
	limiter     *rate.Limiter
}

// NewScheduler builds a scheduler around an injected transcription function.
// rateLimitPerMin caps individual dispatches inside a batch; 0 disables it.
func NewScheduler(fn transcribe.Func, maxAttempts, rateLimitPerMin int) *Scheduler {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	var limiter *rate.Limiter
	if rateLimitPerMin > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(rateLimitPerMin)/60.0), 1)
	}
	return &Scheduler{transcribe: fn, maxAttempts: maxAttempts, limiter: limiter}
}

// batchSizeFor shrinks batches as volume grows: more chunks means more
// sustained provider pressure, so larger jobs trade latency for stability.
func batchSizeFor(total int) int {
	switch {
	case total > 100:
		return 15
	case total > 50:
		return 12
	default:
		return 10
	}
}

// interBatchDelay returns the pause inserted between batches.
func interBatchDelay(batchSize int) time.Duration {
	d := time.Duration(batchSize) * 200 * time.Millisecond
	if d < time.Second {
		d = time.Second
	}
	return d
}

// Process transcribes every segment and returns results ordered by original
// segment index, regardless of completion order or retries. It fails only
// when a segment is still failing after its sequential retry pass.
func (s *Scheduler) Process(ctx context.Context, segs []segment.Segment) ([]*transcribe.ChunkResult, error) {
	results := make([]*transcribe.ChunkResult, len(segs))
	batchSize := batchSizeFor(len(segs))

	slog.Info("dispatching segments", "segments", len(segs), "batch_size", batchSize)

	for lo := 0; lo < len(segs); lo += batchSize {
		// A full-pipeline timeout aborts between batches, never mid-batch.
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("pipeline aborted before batch at segment %d: %w", lo, err)
		}

		hi := lo + batchSize
		if hi > len(segs) {
			hi = len(segs)
		}

		outcomes := s.runBatch(ctx, segs, lo, hi)

		var failed []int
		for _, o := range outcomes {
			if o.err != nil {
				slog.Warn("segment failed in concurrent pass", "segment", o.index, "err", o.err)
				failed = append(failed, o.index)
				continue
			}
			results[o.index] = o.result
		}

		if len(failed) > 0 {
			if err := s.repair(ctx, segs, failed, results); err != nil {
				return nil, err
			}
		}

		if hi < len(segs) {
			delay := interBatchDelay(hi - lo)
			slog.Debug("inter-batch delay", "delay", delay, "completed", hi, "total", len(segs))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return results, nil
}

// attempt runs one rate-limited transcription with its own bounded retry for
// transient errors.
func (s *Scheduler) attempt(ctx context.Context, index int, seg segment.Segment) (*transcribe.ChunkResult, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}
	return withRetry(ctx, s.maxAttempts, index, func() (*transcribe.ChunkResult, error) {
		return s.transcribe(ctx, seg)
	})
}
