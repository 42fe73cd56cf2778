package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/orderlens/orderlens/internal/vision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(chatResponse{
			Message: chatMessage{Role: "assistant", Content: `{"order_id": "112-7366306-1726633"}`},
		})
	}))
	defer srv.Close()

	c, err := New(srv.URL, "llava")
	require.NoError(t, err)

	out, err := c.Extract(context.Background(), vision.Request{
		Image:  []byte{0x89, 0x50},
		MIME:   "image/png",
		Prompt: vision.ExtractionPrompt,
	})
	require.NoError(t, err)
	assert.Contains(t, out, "112-7366306-1726633")

	assert.Equal(t, "llava", got.Model)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, vision.ExtractionPrompt, got.Messages[0].Content)
	assert.Len(t, got.Messages[0].Images, 1)
}

func TestExtractServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := New(srv.URL, "llava")
	require.NoError(t, err)

	_, err = c.Extract(context.Background(), vision.Request{Prompt: "x"})
	assert.ErrorContains(t, err, "status 404")
}

func TestExtractErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(chatResponse{Error: "out of memory"})
	}))
	defer srv.Close()

	c, err := New(srv.URL, "llava")
	require.NoError(t, err)

	_, err = c.Extract(context.Background(), vision.Request{Prompt: "x"})
	assert.ErrorContains(t, err, "out of memory")
}

func TestNewDefaults(t *testing.T) {
	c, err := New("", "")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434", c.url)
	assert.Equal(t, "llava", c.model)
	assert.Equal(t, "ollama", c.Name())
}
