package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/giygas/medcompanion-api/entities"
	"github.com/giygas/medcompanion-api/interfaces"
	"github.com/giygas/medcompanion-api/metrics"
	"github.com/giygas/medcompanion-api/upstream"
	"github.com/google/uuid"
)

// ResendVendor names the Resend provider in metrics and errors
const ResendVendor = "resend"

// DefaultResendBaseURL is the Resend API root
const DefaultResendBaseURL = "https://api.resend.com"

// ErrMissingAPIKey is returned by NewResendSender without an API key
var ErrMissingAPIKey = errors.New("resend: API key is required")

// ResendSender implements interfaces.EmailSender over the Resend HTTP API.
type ResendSender struct {
	http    *http.Client
	baseURL string
	apiKey  string
	newKey  func() string
}

var _ interfaces.EmailSender = (*ResendSender)(nil)

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text,omitempty"`
}

func NewResendSender(apiKey, baseURL string, timeout time.Duration) (*ResendSender, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if baseURL == "" {
		baseURL = DefaultResendBaseURL
	}

	return &ResendSender{
		http:    upstream.NewHTTPClient(timeout),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		newKey:  uuid.NewString,
	}, nil
}

func (s *ResendSender) Provider() string {
	return ResendVendor
}

// Send posts one email. Each call carries a fresh Idempotency-Key.
func (s *ResendSender) Send(ctx context.Context, msg entities.EmailMessage) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveVendorCall(ResendVendor, start, err) }()

	payload, err := json.Marshal(resendRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("resend: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("resend: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", s.newKey())

	resp, err := s.http.Do(req)
	if err != nil {
		return upstream.TransportError(ResendVendor, err)
	}
	defer upstream.CloseBody(ResendVendor, resp.Body)

	if !upstream.IsSuccess(resp.StatusCode) {
		return upstream.StatusError(ResendVendor, resp)
	}
	return nil
}
