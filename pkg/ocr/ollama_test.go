package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaRecognizeDecodesResponse(t *testing.T) {
	var gotReq ollamaRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(ollamaResponse{Response: "  Hello from vision model\n", Done: true})
	}))
	defer server.Close()

	b := NewOllamaBackend(server.URL, "test-model")
	text, err := b.Recognize(context.Background(), testImage(), Hint{})
	require.NoError(t, err)

	assert.Equal(t, "Hello from vision model", text)
	assert.Equal(t, "test-model", gotReq.Model)
	assert.False(t, gotReq.Stream)
	require.Len(t, gotReq.Images, 1)
	assert.NotEmpty(t, gotReq.Images[0])
}

func TestOllamaRecognizeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	b := NewOllamaBackend(server.URL, "test-model")
	_, err := b.Recognize(context.Background(), testImage(), Hint{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestOllamaAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	b := NewOllamaBackend(server.URL, "")
	assert.True(t, b.Available())

	server.Close()
	assert.False(t, b.Available())
}

func TestOllamaDefaults(t *testing.T) {
	b := NewOllamaBackend("", "")
	assert.Equal(t, defaultOllamaURL, b.BaseURL)
	assert.Equal(t, defaultOllamaModel, b.Model)
}
