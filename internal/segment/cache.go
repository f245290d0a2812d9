package segment

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"attn/internal/config"
)

// Cache memoizes segmentation results by input+options fingerprint, so
// re-segmenting an identical input skips the decoder entirely. Reads are safe
// for concurrent use; writes happen only after a full segmentation completes.
type Cache struct {
	mu      sync.RWMutex
	entries map[string][]Segment
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string][]Segment)}
}

// Get returns the cached segments for key. Entries whose transient files were
// already cleaned up are dropped and reported as a miss.
func (c *Cache) Get(key string) ([]Segment, bool) {
	c.mu.RLock()
	segs, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	for _, s := range segs {
		if s.Path == "" {
			continue
		}
		if _, err := os.Stat(s.Path); err != nil {
			c.mu.Lock()
			delete(c.entries, key)
			c.mu.Unlock()
			return nil, false
		}
	}

	out := make([]Segment, len(segs))
	copy(out, segs)
	return out, true
}

func (c *Cache) Put(key string, segs []Segment) {
	stored := make([]Segment, len(segs))
	copy(stored, segs)
	c.mu.Lock()
	c.entries[key] = stored
	c.mu.Unlock()
}

func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string][]Segment)
	c.mu.Unlock()
}

// fingerprintOptions is the segmentation-relevant subset of the options.
// Fields that cannot change split points (preserve_intermediates and the
// scheduling knobs) must not affect the key.
type fingerprintOptions struct {
	MaxUploadSizeMB     float64 `json:"max_upload_size_mb"`
	MaxChunkDurationSec float64 `json:"max_chunk_duration_sec"`
	SilenceThresholdDB  float64 `json:"silence_threshold_db"`
	MinSilenceMs        int     `json:"min_silence_ms"`
	HardSplitWindowSec  float64 `json:"hard_split_window_sec"`
	TargetSampleRate    int     `json:"target_sample_rate"`
	TargetChannels      int     `json:"target_channels"`
	Preprocessing       bool    `json:"preprocessing"`
}

// Fingerprint derives a stable cache key from the input's identity
// (path, size, mtime) and the canonical encoding of the split-relevant
// options.
func Fingerprint(input string, opts config.Segmentation) (string, error) {
	st, err := os.Stat(input)
	if err != nil {
		return "", fmt.Errorf("fingerprint input: %w", err)
	}

	relevant, err := json.Marshal(fingerprintOptions{
		MaxUploadSizeMB:     opts.MaxUploadSizeMB,
		MaxChunkDurationSec: opts.MaxChunkDurationSec,
		SilenceThresholdDB:  opts.SilenceThresholdDB,
		MinSilenceMs:        opts.MinSilenceMs,
		HardSplitWindowSec:  opts.HardSplitWindowSec,
		TargetSampleRate:    opts.TargetSampleRate,
		TargetChannels:      opts.TargetChannels,
		Preprocessing:       opts.EnablePreprocessing,
	})
	if err != nil {
		return "", err
	}

	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%d|", input, st.Size(), st.ModTime().UnixNano())
	h.Write(relevant)
	return hex.EncodeToString(h.Sum(nil)), nil
}
