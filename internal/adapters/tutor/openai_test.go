package tutor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursemart/internal/core/domain"
)

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" A goroutine is a lightweight thread. "}}]}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(Config{APIKey: "key", BaseURL: srv.URL, Model: "test-model"})
	reply, err := client.Complete(context.Background(), []domain.ChatMessage{
		{Role: domain.ChatRoleSystem, Content: "You are a tutor."},
		{Role: domain.ChatRoleUser, Content: "What is a goroutine?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "A goroutine is a lightweight thread.", reply)
}

func TestCompleteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad model","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(Config{APIKey: "key", BaseURL: srv.URL})
	_, err := client.Complete(context.Background(), []domain.ChatMessage{{Role: "user", Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad model")
}

func TestNotConfigured(t *testing.T) {
	client := NewOpenAIClient(Config{})
	assert.False(t, client.Configured())

	_, err := client.Complete(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
