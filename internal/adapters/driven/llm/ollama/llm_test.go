package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/guru-cli/internal/core/ports/driven"
)

func TestLLMService_Chat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.2", req.Model)
		assert.False(t, req.Stream)
		assert.InDelta(t, 0.7, req.Options.Temperature, 1e-9)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"Hello from Ollama"},"done":true}`))
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL})
	reply, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: "persona"},
		{Role: driven.RoleUser, Content: "hello"},
	}, driven.ChatOptions{Temperature: 0.7})

	require.NoError(t, err)
	assert.Equal(t, "Hello from Ollama", reply)
	assert.Equal(t, DefaultLLMModel, svc.ModelName())
}

func TestLLMService_Chat_Errors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "model not found", http.StatusNotFound)
		}))
		defer server.Close()

		_, err := NewLLMService(LLMConfig{BaseURL: server.URL}).Chat(context.Background(), nil, driven.ChatOptions{})
		assert.ErrorContains(t, err, "status 404: model not found")
	})

	t.Run("error field", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"error":"out of memory"}`))
		}))
		defer server.Close()

		_, err := NewLLMService(LLMConfig{BaseURL: server.URL}).Chat(context.Background(), nil, driven.ChatOptions{})
		assert.ErrorContains(t, err, "out of memory")
	})
}

func TestLLMService_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()

	svc := NewLLMService(LLMConfig{BaseURL: server.URL})
	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())

	server.Close()
	assert.Error(t, svc.Ping(context.Background()))
}
