package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
)

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions"`
}

func newTestService(t *testing.T, handler http.HandlerFunc, cfg Config) *EmbeddingService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg.APIKey = "sk-test"
	cfg.BaseURL = srv.URL + "/v1"
	svc, err := NewEmbeddingService(cfg)
	require.NoError(t, err)
	return svc
}

func TestNewEmbeddingService(t *testing.T) {
	_, err := NewEmbeddingService(Config{})
	require.Error(t, err)

	svc, err := NewEmbeddingService(Config{APIKey: "sk"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, 1536, svc.Dimensions())

	svc, err = NewEmbeddingService(Config{APIKey: "sk", Model: "text-embedding-3-large", Dimensions: 256})
	require.NoError(t, err)
	assert.Equal(t, 256, svc.Dimensions())

	svc, err = NewEmbeddingService(Config{APIKey: "sk", Model: "text-embedding-ada-002", Dimensions: 256})
	require.NoError(t, err)
	assert.Equal(t, 1536, svc.Dimensions())
}

func TestEmbeddingService_EmbedBatch(t *testing.T) {
	var got embeddingRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","model":"text-embedding-3-small","data":[
			{"object":"embedding","index":1,"embedding":[0.3,0.4]},
			{"object":"embedding","index":0,"embedding":[0.1,0.2]}
		],"usage":{"prompt_tokens":4,"total_tokens":4}}`))
	}, Config{Dimensions: 2})

	vecs, err := svc.EmbedBatch(context.Background(), []string{"Art. 1", "Art. 2"})

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.1, 0.2}, {0.3, 0.4}}, vecs)
	assert.Equal(t, []string{"Art. 1", "Art. 2"}, got.Input)
	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, 2, got.Dimensions)
}

func TestEmbeddingService_EmbedBatch_Empty(t *testing.T) {
	svc := newTestService(t, func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected")
	}, Config{})

	vecs, err := svc.EmbedBatch(context.Background(), nil)

	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestEmbeddingService_RateLimited(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`))
	}, Config{})

	_, err := svc.Embed(context.Background(), "distanze tra edifici")

	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestEmbeddingService_CountMismatch(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[1]}]}`))
	}, Config{})

	_, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})

	assert.ErrorContains(t, err, "got 1 embeddings for 2 texts")
}

func TestEmbeddingService_Ping(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[]}`))
	}, Config{})

	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
}

func TestEmbeddingService_PingUnauthorized(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key","type":"invalid_request_error"}}`))
	}, Config{})

	assert.Error(t, svc.Ping(context.Background()))
}
