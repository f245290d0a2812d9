package ffmpeg

import (
	"regexp"
	"strconv"
	"strings"
)

// Metadata holds the decoded properties of a whole input file.
type Metadata struct {
	DurationSec float64
	SampleRate  int
	Channels    int
	Codec       string
}

// Interval is a detected span of sub-threshold audio, in seconds.
type Interval struct {
	Start float64
	End   float64
}

// Duration returns the interval length in seconds.
func (iv Interval) Duration() float64 {
	return iv.End - iv.Start
}

var (
	durationRe     = regexp.MustCompile(`Duration:\s*(\d+):(\d+):(\d+\.\d+)`)
	audioStreamRe  = regexp.MustCompile(`Audio:\s*(\w+).*?(\d+) Hz`)
	channelCountRe = regexp.MustCompile(`(\d+) channels?`)
	silenceMarkRe  = regexp.MustCompile(`silence_(start|end):\s*(-?\d+(?:\.\d+)?)`)
)

// parseMetadata extracts duration, sample rate, channel count and codec from
// ffmpeg's textual stderr output. Any field that cannot be parsed keeps a
// conservative default (0s, 44100 Hz, 2 channels) instead of failing.
func parseMetadata(output string) Metadata {
	meta := Metadata{
		SampleRate: 44100,
		Channels:   2,
	}

	if m := durationRe.FindStringSubmatch(output); m != nil {
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		sec, _ := strconv.ParseFloat(m[3], 64)
		meta.DurationSec = float64(h)*3600 + float64(min)*60 + sec
	}

	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "Audio:") {
			continue
		}
		if m := audioStreamRe.FindStringSubmatch(line); m != nil {
			meta.Codec = m[1]
			if hz, err := strconv.Atoi(m[2]); err == nil && hz > 0 {
				meta.SampleRate = hz
			}
		}
		if m := channelCountRe.FindStringSubmatch(line); m != nil {
			if ch, err := strconv.Atoi(m[1]); err == nil && ch > 0 {
				meta.Channels = ch
			}
		} else if strings.Contains(line, "mono") {
			meta.Channels = 1
		} else if strings.Contains(line, "stereo") {
			meta.Channels = 2
		}
		break
	}

	return meta
}

// parseSilence pairs silence_start/silence_end markers in the order ffmpeg
// emitted them. A trailing unclosed silence_start is closed at totalDur when
// the total duration is known, otherwise dropped.
func parseSilence(output string, totalDur float64) []Interval {
	var intervals []Interval
	pendingStart := -1.0

	for _, m := range silenceMarkRe.FindAllStringSubmatch(output, -1) {
		val, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		switch m[1] {
		case "start":
			pendingStart = val
		case "end":
			if pendingStart >= 0 && val > pendingStart {
				intervals = append(intervals, Interval{Start: pendingStart, End: val})
			}
			pendingStart = -1
		}
	}

	if pendingStart >= 0 && totalDur > pendingStart {
		intervals = append(intervals, Interval{Start: pendingStart, End: totalDur})
	}

	return intervals
}
