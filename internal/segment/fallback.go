package segment

import (
	"fmt"
	"log/slog"
	"math"
	"os"

	"attn/internal/config"
)

// estDurationSecPerMB is the deliberately rough duration estimate used when
// no decoder is available to measure the real duration: one minute of audio
// per megabyte.
const estDurationSecPerMB = 60.0

// fallback slices the input by proportional byte ranges when no decoder can
// split at silence. knownDur is a caller-measured duration in seconds, or 0
// when none is known; the segment count then depends on size alone. Byte
// slicing cannot respect word boundaries and is a last resort.
func (s *Segmenter) fallback(input string, sizeBytes int64, knownDur float64, opts config.Segmentation) ([]Segment, error) {
	sizeMB := float64(sizeBytes) / (1024 * 1024)

	dur := knownDur
	if dur <= 0 {
		dur = sizeMB * estDurationSecPerMB
	}

	if sizeMB <= opts.MaxUploadSizeMB {
		return []Segment{{
			StartSec:  0,
			EndSec:    dur,
			SizeBytes: sizeBytes,
			Path:      input,
		}}, nil
	}

	n := int(math.Ceil(sizeMB / opts.MaxUploadSizeMB))
	if knownDur > 0 {
		byDuration := int(math.Ceil(knownDur / opts.MaxChunkDurationSec))
		byHardSplit := int(math.Ceil(knownDur / opts.HardSplitWindowSec))
		if byDuration > n {
			n = byDuration
		}
		if byHardSplit > n {
			n = byHardSplit
		}
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("read input for byte slicing: %w", err)
	}

	slog.Info("byte-range fallback segmentation",
		"size_mb", fmt.Sprintf("%.1f", sizeMB),
		"pieces", n,
		"estimated_duration_sec", fmt.Sprintf("%.0f", dur))

	segs := make([]Segment, 0, n)
	for i := 0; i < n; i++ {
		lo := len(data) * i / n
		hi := len(data) * (i + 1) / n
		piece := make([]byte, hi-lo)
		copy(piece, data[lo:hi])
		segs = append(segs, Segment{
			StartSec:  dur * float64(i) / float64(n),
			EndSec:    dur * float64(i+1) / float64(n),
			SizeBytes: int64(hi - lo),
			Data:      piece,
		})
	}
	return segs, nil
}
