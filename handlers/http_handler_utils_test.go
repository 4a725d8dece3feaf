package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/giygas/medcompanion-api/entities"
)

// ============================================================================
// MOCK COLLABORATORS
// ============================================================================

type mockDrugInfo struct {
	sections *entities.SummarySections
	err      error
	gotName  string
	calls    int
}

func (m *mockDrugInfo) Lookup(ctx context.Context, name string) (*entities.SummarySections, error) {
	m.calls++
	m.gotName = name
	return m.sections, m.err
}

type mockComposer struct {
	gotReq entities.ReminderRequest
	calls  int
}

func (m *mockComposer) Compose(ctx context.Context, req entities.ReminderRequest) entities.ReminderResult {
	m.calls++
	m.gotReq = req
	return entities.ReminderResult{
		Message: "Hey " + req.UserName + ", it's time to take your " + req.MedicationName + ".",
		Source:  entities.ReminderSourceFallback,
	}
}

type mockSpeech struct {
	audio     string
	err       error
	gotVoice  string
	gotScript string
	closed    bool
}

func (m *mockSpeech) DefaultVoiceID() string { return "defaultVoice" }

func (m *mockSpeech) Stream(ctx context.Context, voiceID, script string) (io.ReadCloser, error) {
	m.gotVoice = voiceID
	m.gotScript = script
	if m.err != nil {
		return nil, m.err
	}
	return &trackingCloser{Reader: strings.NewReader(m.audio), closed: &m.closed}, nil
}

type trackingCloser struct {
	io.Reader
	closed *bool
}

func (t *trackingCloser) Close() error {
	*t.closed = true
	return nil
}

type mockDispatcher struct {
	mu     sync.Mutex
	err    error
	alerts []entities.CaregiverAlert
}

func (m *mockDispatcher) Dispatch(alert entities.CaregiverAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.alerts = append(m.alerts, alert)
	return nil
}

func (m *mockDispatcher) Close(ctx context.Context) error { return nil }

type mockGenerator struct {
	reply       string
	err         error
	gotMessages []entities.ChatMessage
	gotOpts     entities.ChatOptions
}

func (m *mockGenerator) Chat(ctx context.Context, messages []entities.ChatMessage, opts entities.ChatOptions) (string, error) {
	m.gotMessages = messages
	m.gotOpts = opts
	return m.reply, m.err
}

type mockHealthChecker struct {
	status     string
	httpStatus int
}

func (m *mockHealthChecker) HealthCheck() (string, map[string]any, int) {
	return m.status, map[string]any{"vendors": map[string]any{}}, m.httpStatus
}

// ============================================================================
// TEST HELPERS
// ============================================================================

// testDeps returns a fully wired set of mocks
func testDeps() Dependencies {
	return Dependencies{
		DrugInfo:  &mockDrugInfo{},
		Reminders: &mockComposer{},
		Speech:    &mockSpeech{audio: "ID3-audio-bytes"},
		Alerts:    &mockDispatcher{},
		Chat:      &mockGenerator{reply: "Take it with food."},
		ChatModel: "gpt-4.1-mini",
		Health:    &mockHealthChecker{status: "healthy", httpStatus: http.StatusOK},
	}
}

func postJSON(t *testing.T, handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response body %q: %v", rr.Body.String(), err)
	}
	return body
}

func assertErrorResponse(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus int) map[string]any {
	t.Helper()
	if rr.Code != expectedStatus {
		t.Fatalf("Expected status %d, got %d: %s", expectedStatus, rr.Code, rr.Body.String())
	}

	body := decodeBody(t, rr)
	if body["error"] != http.StatusText(expectedStatus) {
		t.Errorf("Expected error %q, got %v", http.StatusText(expectedStatus), body["error"])
	}
	if code, ok := body["code"].(float64); !ok || int(code) != expectedStatus {
		t.Errorf("Expected code %d, got %v", expectedStatus, body["code"])
	}
	if _, ok := body["message"].(string); !ok {
		t.Error("Expected a message field")
	}
	return body
}
