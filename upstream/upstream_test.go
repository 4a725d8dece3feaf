package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/giygas/medcompanion-api/entities"
)

func TestSnippet(t *testing.T) {
	tests := []struct {
		name     string
		body     []byte
		limit    int
		expected string
	}{
		{"short utf8", []byte("  bad request \n"), 200, "bad request"},
		{"truncated to runes", []byte("ééééééé"), 3, "ééé"},
		{"latin1 decoded", []byte{'c', 'a', 'f', 0xe9}, 10, "café"},
		{"empty", nil, 10, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Snippet(strings.NewReader(string(tt.body)), tt.limit)
			if got != tt.expected {
				t.Errorf("Snippet() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSnippetKeepsUTF8SplitByLimit(t *testing.T) {
	// 2 runes of limit reads 8 bytes, splitting the third "€" (3 bytes each)
	got := Snippet(strings.NewReader("€€€€"), 2)
	if got != "€€" {
		t.Errorf("Snippet() = %q, want %q", got, "€€")
	}
}

func TestStatusError(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusTooManyRequests,
		Body:       io.NopCloser(strings.NewReader(strings.Repeat("x", 500))),
	}

	err := StatusError("openfda", resp)
	if err.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d", err.StatusCode)
	}
	if len(err.Detail) != SnippetRunes {
		t.Errorf("Detail has %d chars, want %d", len(err.Detail), SnippetRunes)
	}
	if err.Timeout() {
		t.Error("a status error is not a timeout")
	}
}

func TestTransportError(t *testing.T) {
	err := TransportError("openai", fmt.Errorf("dial: %w", context.DeadlineExceeded))

	var ue *entities.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected *UpstreamError, got %T", err)
	}
	if !ue.Timeout() {
		t.Error("deadline exceeded should be reported as timeout")
	}

	if err := TransportError("openai", context.Canceled); !errors.Is(err, context.Canceled) || errors.As(err, &ue) {
		t.Errorf("cancellation should pass through untouched, got %v", err)
	}
}

func TestIsSuccess(t *testing.T) {
	for status, want := range map[int]bool{199: false, 200: true, 204: true, 299: true, 300: false, 404: false} {
		if got := IsSuccess(status); got != want {
			t.Errorf("IsSuccess(%d) = %v, want %v", status, got, want)
		}
	}
}

func TestNewHTTPClient(t *testing.T) {
	c := NewHTTPClient(0)
	if c.Transport == nil {
		t.Fatal("expected a transport")
	}
	if _, ok := c.Transport.(*http.Transport); !ok {
		t.Errorf("expected *http.Transport, got %T", c.Transport)
	}
}
