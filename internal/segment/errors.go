package segment

import "fmt"

// TimelineGapError reports a contiguity violation between two segments.
type TimelineGapError struct {
	Index     int
	Gap       float64
	PrevEnd   float64
	NextStart float64
}

func (e *TimelineGapError) Error() string {
	if e.Gap == 0 && e.NextStart <= e.PrevEnd {
		return fmt.Sprintf("segment %d has an empty or inverted range [%.2fs,%.2fs)", e.Index, e.PrevEnd, e.NextStart)
	}
	return fmt.Sprintf("timeline gap of %.2fs at segment %d (previous ends %.2fs, next starts %.2fs)",
		e.Gap, e.Index, e.PrevEnd, e.NextStart)
}

// ExtractError reports a failed range extraction. Extraction failure is fatal
// for the whole segmentation run.
type ExtractError struct {
	Index    int
	StartSec float64
	EndSec   float64
	Err      error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extracting segment %d [%.2fs,%.2fs): %v", e.Index, e.StartSec, e.EndSec, e.Err)
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}
