package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/uttree-health/platform/pkg/common/config"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		EmbeddingBaseURL:        baseURL,
		EmbeddingModel:          "mxbai-embed-large",
		EmbeddingChunkSize:      2000,
		EmbeddingMaxAttempts:    3,
		EmbeddingBaseDelay:      time.Millisecond,
		EmbeddingRequestTimeout: 2 * time.Second,
		EmbeddingMaxInflight:    2,
	}
}

func TestEmbedReturnsProviderVector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Model != "mxbai-embed-large" {
			t.Errorf("unexpected model %q", req.Model)
		}
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{0.1, 0.2, 0.3}})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	vec, err := client.Embed(context.Background(), "MainDrug_Warfarin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.1 {
		t.Fatalf("unexpected vector: %v", vec)
	}
}

func TestEmbedRejectsEmptyInput(t *testing.T) {
	client := NewClient(testConfig("http://localhost:0"))
	_, err := client.Embed(context.Background(), "")
	if err == nil {
		t.Fatal("expected error for empty input")
	}
	if KindOf(err) != EmptyInput {
		t.Fatalf("expected EmptyInput, got %s", KindOf(err))
	}
}

func TestEmbedRetriesProviderOutage(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{1}})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	vec, err := client.Embed(context.Background(), "MainDrug_Warfarin")
	if err != nil {
		t.Fatalf("expected recovery after retries, got %v", err)
	}
	if len(vec) != 1 || vec[0] != 1 {
		t.Fatalf("unexpected vector: %v", vec)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 provider calls, got %d", calls.Load())
	}
}

func TestEmbedGivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	_, err := client.Embed(context.Background(), "MainDrug_Warfarin")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if KindOf(err) != ProviderUnavailable {
		t.Fatalf("expected ProviderUnavailable, got %s", KindOf(err))
	}
	if calls.Load() != 3 {
		t.Fatalf("expected maxAttempts calls, got %d", calls.Load())
	}
}

func TestEmbedRetriesMalformedResponseOnce(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	_, err := client.Embed(context.Background(), "MainDrug_Warfarin")
	if err == nil {
		t.Fatal("expected error for malformed response")
	}
	if KindOf(err) != MalformedResponse {
		t.Fatalf("expected MalformedResponse, got %s", KindOf(err))
	}
	if calls.Load() != 2 {
		t.Fatalf("malformed responses retry exactly once, got %d calls", calls.Load())
	}
}

func TestEmbedAveragesChunks(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := float64(calls.Add(1))
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{n, n}})
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.EmbeddingChunkSize = 20

	client := NewClient(cfg)
	vec, err := client.Embed(context.Background(), "MainDrug_Warfarin_Creatinine_abnormal")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() < 2 {
		t.Fatalf("expected multiple chunk calls, got %d", calls.Load())
	}
	if len(vec) != 2 || vec[0] != vec[1] {
		t.Fatalf("unexpected averaged vector: %v", vec)
	}
}
