package worker

import (
	"context"
	"log/slog"
	"time"

	"attn/internal/transcribe"
)

// withRetry runs fn up to maxAttempts times with exponential backoff
// (1s, 2s, 4s...). Only transient errors are retried; permanent errors
// surface immediately.
func withRetry(ctx context.Context, maxAttempts, index int, fn func() (*transcribe.ChunkResult, error)) (*transcribe.ChunkResult, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			slog.Warn("transcription attempt failed, retrying",
				"segment", index,
				"attempt", attempt,
				"backoff", backoff,
				"err", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		res, err := fn()
		if err == nil {
			return res, nil
		}
		if !transcribe.IsTransient(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}
