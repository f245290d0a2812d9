package transcribe

import (
	"context"
	"fmt"
	"io"
	"syscall"
	"testing"

	"github.com/sashabaranov/go-openai"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"cancelled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"rate limited", &openai.APIError{HTTPStatusCode: 429}, true},
		{"server error", &openai.APIError{HTTPStatusCode: 503}, true},
		{"bad key", &openai.APIError{HTTPStatusCode: 401}, false},
		{"rejected payload", &openai.APIError{HTTPStatusCode: 400}, false},
		{"wrapped api error", fmt.Errorf("chunk 2: %w", &openai.APIError{HTTPStatusCode: 500}), true},
		{"conn reset errno", syscall.ECONNRESET, true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"conn reset message", fmt.Errorf("read tcp 1.2.3.4: connection reset by peer"), true},
		{"io timeout message", fmt.Errorf("dial tcp: i/o timeout"), true},
		{"plain failure", fmt.Errorf("unsupported audio codec"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
