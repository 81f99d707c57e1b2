package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"models": [
			{"id": "tts-1", "name": "Standard TTS", "kind": "tts"},
			{"id": "asr-1", "name": "Streaming ASR", "kind": "asr"}
		]}`))
	})
	mux.HandleFunc("/v1/prompts", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"prompts": [{"id": "warm", "name": "Warm interviewer"}]}`))
	})
	return httptest.NewServer(mux)
}

func TestModels(t *testing.T) {
	server := catalogServer(t)
	defer server.Close()

	client, err := NewClient(server.URL, nil)
	require.NoError(t, err)

	models, err := client.Models(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "tts-1", models[0].ID)
	assert.Equal(t, "asr", models[1].Kind)
}

func TestPrompts(t *testing.T) {
	server := catalogServer(t)
	defer server.Close()

	client, err := NewClient(server.URL, nil)
	require.NoError(t, err)

	prompts, err := client.Prompts(context.Background())
	require.NoError(t, err)
	require.Len(t, prompts, 1)
	assert.Equal(t, "Warm interviewer", prompts[0].Name)
}

func TestFetchAll(t *testing.T) {
	server := catalogServer(t)
	defer server.Close()

	client, err := NewClient(server.URL, nil)
	require.NoError(t, err)

	cat, err := client.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, cat.Models, 2)
	assert.Len(t, cat.Prompts, 1)
}

func TestFetchAll_PartialFailureFailsWhole(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"models": []}`))
	})
	mux.HandleFunc("/v1/prompts", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := NewClient(server.URL, nil)
	require.NoError(t, err)

	_, err = client.FetchAll(context.Background())
	require.Error(t, err)

	var catErr *Error
	assert.ErrorAs(t, err, &catErr)
	assert.Contains(t, err.Error(), "502")
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	_, err := NewClient("not-a-valid-url", nil)
	require.Error(t, err)

	var catErr *Error
	assert.ErrorAs(t, err, &catErr)
	assert.Contains(t, err.Error(), "invalid base URL")
}

func TestModels_EmptyBodyYieldsEmptyList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, nil)
	require.NoError(t, err)

	models, err := client.Models(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, models)
	assert.Empty(t, models)
}

func TestModels_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, nil)
	require.NoError(t, err)

	_, err = client.Models(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse response JSON")
}
