// Package speech streams reminder audio from the ElevenLabs text-to-speech API.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/giygas/medcompanion-api/interfaces"
	"github.com/giygas/medcompanion-api/metrics"
	"github.com/giygas/medcompanion-api/upstream"
)

// Vendor is the name used in errors, metrics and probes
const Vendor = "elevenlabs"

// Defaults
const (
	DefaultBaseURL  = "https://api.elevenlabs.io"
	DefaultVoiceID  = "pNInz6obpgDQGcFmaJgB"
	DefaultModelID  = "eleven_multilingual_v2"
	DefaultTimeout  = 30 * time.Second
	Stability       = 0.5
	SimilarityBoost = 0.8
)

// ErrMissingAPIKey is returned by NewClient without an API key
var ErrMissingAPIKey = errors.New("elevenlabs: API key is required")

type Config struct {
	APIKey  string
	BaseURL string
	VoiceID string
	// Timeout bounds the wait for response headers. The audio body streams
	// for as long as the caller's context allows.
	Timeout time.Duration
}

// Client implements interfaces.SpeechSynthesizer and interfaces.Prober.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	voiceID string
}

var (
	_ interfaces.SpeechSynthesizer = (*Client)(nil)
	_ interfaces.Prober            = (*Client)(nil)
)

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.VoiceID == "" {
		cfg.VoiceID = DefaultVoiceID
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	client := upstream.NewHTTPClient(0)
	client.Transport.(*http.Transport).ResponseHeaderTimeout = cfg.Timeout

	return &Client{
		http:    client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		voiceID: cfg.VoiceID,
	}, nil
}

func (c *Client) Name() string {
	return Vendor
}

func (c *Client) DefaultVoiceID() string {
	return c.voiceID
}

// Stream starts synthesis of script and returns the audio/mpeg body as it
// arrives. The caller must close it.
func (c *Client) Stream(ctx context.Context, voiceID, script string) (body io.ReadCloser, err error) {
	start := time.Now()
	defer func() { metrics.ObserveVendorCall(Vendor, start, err) }()

	if voiceID == "" {
		voiceID = c.voiceID
	}

	payload, err := json.Marshal(ttsRequest{
		Text:    script,
		ModelID: DefaultModelID,
		VoiceSettings: voiceSettings{
			Stability:       Stability,
			SimilarityBoost: SimilarityBoost,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s/stream", c.baseURL, url.PathEscape(voiceID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: create request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, upstream.TransportError(Vendor, err)
	}

	if !upstream.IsSuccess(resp.StatusCode) {
		defer upstream.CloseBody(Vendor, resp.Body)
		return nil, upstream.StatusError(Vendor, resp)
	}

	return resp.Body, nil
}

// Ping lists models to check the key and reachability.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("elevenlabs: create ping request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return upstream.TransportError(Vendor, err)
	}
	defer upstream.CloseBody(Vendor, resp.Body)

	if !upstream.IsSuccess(resp.StatusCode) {
		return upstream.StatusError(Vendor, resp)
	}
	return nil
}
