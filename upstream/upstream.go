// Package upstream holds the HTTP plumbing shared by the vendor clients:
// client construction, error wrapping and readable error snippets.
package upstream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/giygas/medcompanion-api/entities"
	"github.com/giygas/medcompanion-api/logging"
	"golang.org/x/text/encoding/charmap"
)

// SnippetRunes is how much of an error body is kept for logs and errors
const SnippetRunes = 200

// NewHTTPClient returns a client with the given overall timeout and a
// transport tuned for a handful of long-lived vendor hosts.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 10
	transport.IdleConnTimeout = 90 * time.Second
	transport.DialContext = (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// Snippet reads at most limit runes of text from r. Bodies that are not UTF-8
// are decoded as ISO-8859-1.
func Snippet(r io.Reader, limit int) string {
	maxBytes := limit * utf8.UTFMax
	raw, err := io.ReadAll(io.LimitReader(r, int64(maxBytes)))
	if err != nil && len(raw) == 0 {
		return ""
	}

	text, ok := validPrefix(raw, len(raw) == maxBytes)
	if !ok {
		decoded, err := io.ReadAll(charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(raw)))
		if err != nil {
			return ""
		}
		text = string(decoded)
	}

	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) > limit {
		text = string([]rune(text)[:limit])
	}
	return text
}

// validPrefix accepts raw as UTF-8. When the read was cut short a rune split
// at the end is dropped.
func validPrefix(raw []byte, cutShort bool) (string, bool) {
	if !cutShort {
		return string(raw), utf8.Valid(raw)
	}
	for cut := 0; cut < utf8.UTFMax && cut <= len(raw); cut++ {
		if utf8.Valid(raw[:len(raw)-cut]) {
			return string(raw[:len(raw)-cut]), true
		}
	}
	return "", false
}

// StatusError builds the error for a non-2xx vendor answer, consuming a
// snippet of the body.
func StatusError(vendor string, resp *http.Response) *entities.UpstreamError {
	return &entities.UpstreamError{
		Vendor:     vendor,
		StatusCode: resp.StatusCode,
		Detail:     Snippet(resp.Body, SnippetRunes),
	}
}

// TransportError wraps a failure to reach the vendor or read its answer.
// A cancelled caller context is kept as is so handlers can tell it apart.
func TransportError(vendor string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &entities.UpstreamError{Vendor: vendor, Err: err}
}

// CloseBody closes a response body, logging failures
func CloseBody(vendor string, body io.Closer) {
	if err := body.Close(); err != nil {
		logging.Warn("Failed to close response body", "vendor", vendor, "error", err)
	}
}

// IsSuccess reports a 2xx status
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}
