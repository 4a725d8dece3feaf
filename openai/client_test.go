package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/giygas/medcompanion-api/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(Config{APIKey: "sk-test", BaseURL: server.URL + "/v1/"})
	require.NoError(t, err)
	return c
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	c, err := NewClient(Config{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, DefaultModel, c.model)
	assert.Equal(t, "openai", c.Name())
}

func TestChatSendsRequest(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  Time to take it.  "},"finish_reason":"stop"}]}`))
	})

	reply, err := c.Chat(context.Background(), []entities.ChatMessage{
		{Role: entities.RoleSystem, Content: "be kind"},
		{Role: entities.RoleUser, Content: "hello"},
	}, entities.ChatOptions{Model: "gpt-4.1-mini", Temperature: 0.2, MaxTokens: 50})

	require.NoError(t, err)
	assert.Equal(t, "Time to take it.", reply)
	assert.Equal(t, "gpt-4.1-mini", got["model"])
	assert.InDelta(t, 0.2, got["temperature"], 1e-9)
	assert.EqualValues(t, 50, got["max_tokens"])

	messages, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, map[string]any{"role": "system", "content": "be kind"}, messages[0])
}

func TestChatDefaultsModelAndOmitsZeroOptions(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})

	_, err := c.Chat(context.Background(), []entities.ChatMessage{{Role: entities.RoleUser, Content: "hi"}}, entities.ChatOptions{})
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, got["model"])
	assert.NotContains(t, got, "temperature")
	assert.NotContains(t, got, "max_tokens")
}

func TestChatErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantDetail string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized, "bad key"},
		{"server error", http.StatusInternalServerError, "oops", http.StatusInternalServerError, "oops"},
		{"error object in 200", http.StatusOK, `{"error":{"message":"model overloaded"}}`, http.StatusOK, "model overloaded"},
		{"no choices", http.StatusOK, `{"choices":[]}`, http.StatusOK, "no choices returned"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Chat(context.Background(), []entities.ChatMessage{{Role: entities.RoleUser, Content: "hi"}}, entities.ChatOptions{})

			var ue *entities.UpstreamError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, tt.wantStatus, ue.StatusCode)
			assert.Contains(t, ue.Detail, tt.wantDetail)
		})
	}
}

func TestChatMalformedResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := c.Chat(context.Background(), nil, entities.ChatOptions{})

	var ue *entities.UpstreamError
	assert.ErrorAs(t, err, &ue)
}

func TestPing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":[]}`))
	})
	assert.NoError(t, c.Ping(context.Background()))

	down := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	err := down.Ping(context.Background())

	var ue *entities.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusUnauthorized, ue.StatusCode)
}
