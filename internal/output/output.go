package output

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"attn/internal/transcribe"
)

// Render formats a transcript as txt, srt or md.
func Render(tr *transcribe.Transcript, format string) (string, error) {
	switch format {
	case "txt":
		return renderText(tr), nil
	case "srt":
		return renderSRT(tr), nil
	case "md":
		return renderMarkdown(tr), nil
	default:
		return "", fmt.Errorf("unknown output format: %s", format)
	}
}

// WriteJSON writes the full transcript structure as indented JSON.
func WriteJSON(path string, tr *transcribe.Transcript) error {
	data, err := json.MarshalIndent(tr, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func renderText(tr *transcribe.Transcript) string {
	return strings.TrimSpace(tr.Text) + "\n"
}

func renderSRT(tr *transcribe.Transcript) string {
	var sb strings.Builder
	for i, s := range tr.Segments {
		text := strings.TrimSpace(s.Text)
		if s.Speaker != "" {
			text = s.Speaker + ": " + text
		}
		fmt.Fprintf(&sb, "%d\n%s --> %s\n%s\n", i+1, formatSRTTime(s.Start), formatSRTTime(s.End), text)
		if i < len(tr.Segments)-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func renderMarkdown(tr *transcribe.Transcript) string {
	var sb strings.Builder
	sb.WriteString("# Transcript\n\n")
	if tr.Language != "" {
		fmt.Fprintf(&sb, "- Language: %s\n", tr.Language)
	}
	if tr.Duration > 0 {
		fmt.Fprintf(&sb, "- Duration: %s\n", formatClock(tr.Duration))
	}
	if len(tr.Speakers) > 0 {
		ids := make([]string, len(tr.Speakers))
		for i, sp := range tr.Speakers {
			ids[i] = sp.ID
		}
		fmt.Fprintf(&sb, "- Speakers: %s\n", strings.Join(ids, ", "))
	}
	sb.WriteString("\n---\n\n")

	for _, s := range tr.Segments {
		spk := ""
		if s.Speaker != "" {
			spk = s.Speaker + ": "
		}
		fmt.Fprintf(&sb, "[%s-%s] %s%s\n\n", formatClock(s.Start), formatClock(s.End), spk, strings.TrimSpace(s.Text))
	}
	return sb.String()
}

// formatSRTTime converts seconds to the SRT time format HH:MM:SS,mmm.
func formatSRTTime(seconds float64) string {
	totalSec := math.Abs(seconds)
	hours := int(totalSec / 3600)
	remainder := math.Mod(totalSec, 3600)
	minutes := int(remainder / 60)
	secs := math.Mod(remainder, 60)
	millis := int(math.Mod(secs, 1) * 1000)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, int(secs), millis)
}

// formatClock renders MM:SS, or HH:MM:SS past the hour.
func formatClock(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
