package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/uttree-health/platform/pkg/common/config"
	"github.com/uttree-health/platform/pkg/common/httpclient"
	"github.com/uttree-health/platform/pkg/common/logger"
	"github.com/uttree-health/platform/pkg/observability/metrics"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const maxBackoffDelay = 5 * time.Second

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Client talks to the external embedding provider. It owns the chunking and
// averaging contract, bounded in-flight requests, and the per-kind retry
// policy; the embedding model itself is the provider's business.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	model       string
	apiKey      string
	chunkSize   int
	maxAttempts int
	baseDelay   time.Duration
	inflight    chan struct{}
}

func NewClient(cfg *config.Config) *Client {
	hc := httpclient.New(cfg.EmbeddingRequestTimeout)

	// Provider auth is either a static API key header or OAuth2 client
	// credentials; the token source wraps the tuned transport.
	if cfg.EmbeddingOAuthTokenURL != "" && cfg.EmbeddingOAuthClientID != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.EmbeddingOAuthClientID,
			ClientSecret: cfg.EmbeddingOAuthSecret,
			TokenURL:     cfg.EmbeddingOAuthTokenURL,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, hc)
		hc = cc.Client(ctx)
		hc.Timeout = cfg.EmbeddingRequestTimeout
	}

	maxInflight := cfg.EmbeddingMaxInflight
	if maxInflight <= 0 {
		maxInflight = 1
	}

	return &Client{
		httpClient:  hc,
		baseURL:     cfg.EmbeddingBaseURL,
		model:       cfg.EmbeddingModel,
		apiKey:      cfg.EmbeddingAPIKey,
		chunkSize:   cfg.EmbeddingChunkSize,
		maxAttempts: cfg.EmbeddingMaxAttempts,
		baseDelay:   cfg.EmbeddingBaseDelay,
		inflight:    make(chan struct{}, maxInflight),
	}
}

// Embed converts one canonical document into a single vector. Documents
// longer than the chunk size are embedded per chunk and averaged
// element-wise, so re-runs over the same document yield the same vector.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, newGatewayError(EmptyInput, errors.New("canonical document is empty"))
	}

	chunks := Chunks(text, c.chunkSize)
	vectors := make([][]float64, 0, len(chunks))
	for _, chunk := range chunks {
		vec, err := c.embedChunk(ctx, chunk)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, vec)
	}

	avg, err := Average(vectors)
	if err != nil {
		return nil, newGatewayError(MalformedResponse, err)
	}
	return avg, nil
}

func (c *Client) embedChunk(ctx context.Context, chunk string) ([]float64, error) {
	var malformedRetried bool
	delay := c.baseDelay

	for attempt := 1; ; attempt++ {
		vec, err := c.doRequest(ctx, chunk)
		if err == nil {
			return vec, nil
		}

		switch KindOf(err) {
		case EmptyInput:
			return nil, err
		case MalformedResponse:
			if malformedRetried {
				return nil, err
			}
			malformedRetried = true
		case ProviderUnavailable:
			if attempt >= c.maxAttempts {
				return nil, err
			}
		}

		metrics.EmbeddingRetried()
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"attempt": attempt,
			"kind":    string(KindOf(err)),
		}).Warn("embedding request failed, retrying")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, newGatewayError(ProviderUnavailable, ctx.Err())
		}
		delay *= 2
		if delay > maxBackoffDelay {
			delay = maxBackoffDelay
		}
	}
}

// doRequest performs one provider call under the in-flight semaphore; the
// semaphore is the backpressure on the provider's connection pool.
func (c *Client) doRequest(ctx context.Context, chunk string) ([]float64, error) {
	select {
	case c.inflight <- struct{}{}:
	case <-ctx.Done():
		return nil, newGatewayError(ProviderUnavailable, ctx.Err())
	}
	defer func() { <-c.inflight }()

	body, err := json.Marshal(embedRequest{Model: c.model, Prompt: chunk})
	if err != nil {
		return nil, newGatewayError(MalformedResponse, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, newGatewayError(ProviderUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newGatewayError(ProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return nil, newGatewayError(ProviderUnavailable, fmt.Errorf("provider returned %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, newGatewayError(MalformedResponse, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var decoded embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, newGatewayError(MalformedResponse, err)
	}
	if len(decoded.Embedding) == 0 {
		return nil, newGatewayError(MalformedResponse, errors.New("provider returned empty embedding"))
	}

	return decoded.Embedding, nil
}
