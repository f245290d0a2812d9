package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"attn/internal/segment"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClient transcribes segments through the OpenAI audio transcriptions
// API in verbose_json format, keeping segment and word timestamps.
type OpenAIClient struct {
	client   *openai.Client
	model    string
	language string
}

// NewOpenAIClient builds a client. baseURL may be empty for the default
// endpoint, language may be empty for auto-detection.
func NewOpenAIClient(apiKey, model, baseURL, language string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		client:   openai.NewClientWithConfig(cfg),
		model:    model,
		language: language,
	}
}

// Transcribe sends one segment and maps the provider response onto a
// ChunkResult with chunk-relative timestamps.
func (c *OpenAIClient) Transcribe(ctx context.Context, seg segment.Segment) (*ChunkResult, error) {
	req := openai.AudioRequest{
		Model:    c.model,
		Language: c.language,
		Format:   openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularitySegment,
			openai.TranscriptionTimestampGranularityWord,
		},
	}
	if seg.InMemory() {
		req.Reader = bytes.NewReader(seg.Data)
		req.FilePath = "segment.bin"
	} else {
		req.FilePath = seg.Path
	}

	resp, err := c.client.CreateTranscription(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("transcription request: %w", err)
	}
	return mapResponse(resp), nil
}

func mapResponse(resp openai.AudioResponse) *ChunkResult {
	out := &ChunkResult{
		Text:     resp.Text,
		Language: resp.Language,
		Duration: resp.Duration,
	}
	if raw, err := json.Marshal(resp); err == nil {
		out.Raw = raw
	}

	for _, s := range resp.Segments {
		out.Segments = append(out.Segments, Segment{
			ID:    s.ID,
			Start: s.Start,
			End:   s.End,
			Text:  s.Text,
		})
	}

	// verbose_json reports words flat for the whole chunk; attach each word
	// to the segment containing its midpoint.
	for _, w := range resp.Words {
		mid := (w.Start + w.End) / 2
		for i := range out.Segments {
			if mid >= out.Segments[i].Start && mid < out.Segments[i].End {
				out.Segments[i].Words = append(out.Segments[i].Words, Word{
					Text:  w.Word,
					Start: w.Start,
					End:   w.End,
				})
				break
			}
		}
	}

	return out
}
