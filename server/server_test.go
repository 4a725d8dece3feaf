package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/giygas/medcompanion-api/config"
	"github.com/giygas/medcompanion-api/logging"
)

// stubHandler answers every route with its own name
type stubHandler struct{}

func reply(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(name))
	}
}

func (stubHandler) Root(w http.ResponseWriter, r *http.Request)        { reply("root")(w, r) }
func (stubHandler) HealthCheck(w http.ResponseWriter, r *http.Request) { reply("health")(w, r) }
func (stubHandler) DrugInfo(w http.ResponseWriter, r *http.Request)    { reply("drug-info")(w, r) }
func (stubHandler) PersonalizedReminder(w http.ResponseWriter, r *http.Request) {
	reply("personalized-reminder")(w, r)
}
func (stubHandler) ReminderAudio(w http.ResponseWriter, r *http.Request)  { reply("reminder-audio")(w, r) }
func (stubHandler) CaregiverAlert(w http.ResponseWriter, r *http.Request) { reply("caregiver-alert")(w, r) }
func (stubHandler) Chat(w http.ResponseWriter, r *http.Request)           { reply("chat")(w, r) }

func testConfig() *config.Config {
	return &config.Config{
		Port:           "8080",
		Address:        "127.0.0.1",
		Env:            config.EnvTest,
		LogLevel:       "info",
		MaxRequestBody: 65536,
		MaxHeaderSize:  1048576,
		AllowedOrigins: []string{"https://app.example.com"},
	}
}

func TestNewServer(t *testing.T) {
	logging.InitLogger(logging.Options{Dir: t.TempDir(), Env: config.EnvTest})
	t.Cleanup(func() { _ = logging.Close() })

	s := NewServer(testConfig(), stubHandler{})

	if s.server.Addr != "127.0.0.1:8080" {
		t.Errorf("Expected addr 127.0.0.1:8080, got %s", s.server.Addr)
	}
	if s.server.WriteTimeout != WriteTimeout {
		t.Errorf("Expected write timeout %v, got %v", WriteTimeout, s.server.WriteTimeout)
	}
	if s.rateLimiter == nil {
		t.Error("Expected a rate limiter")
	}
}

func TestRoutes(t *testing.T) {
	s := NewServer(testConfig(), stubHandler{})

	tests := []struct {
		method   string
		path     string
		code     int
		contains string
	}{
		{http.MethodGet, "/", http.StatusOK, "root"},
		{http.MethodGet, "/health", http.StatusOK, "health"},
		{http.MethodGet, "/metrics", http.StatusOK, "http_request_in_flight"},
		{http.MethodPost, "/api/drug-info", http.StatusOK, "drug-info"},
		{http.MethodPost, "/api/personalized-reminder", http.StatusOK, "personalized-reminder"},
		{http.MethodPost, "/api/reminder-audio", http.StatusOK, "reminder-audio"},
		{http.MethodPost, "/api/caregiver-alert", http.StatusOK, "caregiver-alert"},
		{http.MethodPost, "/api/chat", http.StatusOK, "chat"},
		{http.MethodGet, "/api/drug-info", http.StatusMethodNotAllowed, ""},
		{http.MethodGet, "/missing", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader("{}"))
			req.RemoteAddr = "192.0.2.50:5000"
			rr := httptest.NewRecorder()
			s.Router().ServeHTTP(rr, req)

			if rr.Code != tt.code {
				t.Fatalf("Expected %d, got %d", tt.code, rr.Code)
			}
			if tt.contains != "" && !strings.Contains(rr.Body.String(), tt.contains) {
				t.Errorf("Expected body to contain %q", tt.contains)
			}
		})
	}
}

func TestMiddlewareHeaders(t *testing.T) {
	s := NewServer(testConfig(), stubHandler{})

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{}"))
	req.RemoteAddr = "192.0.2.51:5000"
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	if rr.Header().Get("X-RateLimit-Remaining") != "950" {
		t.Errorf("Expected 950 tokens remaining after a chat call, got %s", rr.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestCORSPreflight(t *testing.T) {
	s := NewServer(testConfig(), stubHandler{})

	req := httptest.NewRequest(http.MethodOptions, "/api/drug-info", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rr := httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Expected allowed origin, got %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/drug-info", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr = httptest.NewRecorder()
	s.Router().ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Expected no CORS header for unknown origin, got %q", got)
	}
}

func TestStartAndShutdown(t *testing.T) {
	cfg := testConfig()
	cfg.Port = "0"
	s := NewServer(cfg, stubHandler{})

	done := make(chan error, 1)
	go func() { done <- s.Start() }()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() should return nil after shutdown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after shutdown")
	}
}
