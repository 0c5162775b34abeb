// Package deckapi wraps the DeckLens analysis backend API.
package deckapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/decklens/decklens-cli/internal/model"
)

// Default base URL for the DeckLens API.
const defaultBaseURL = "https://api.decklens.io/v1"

// Client defines the DeckLens API operations.
type Client interface {
	// Deck lifecycle.
	UploadDeck(ctx context.Context, path string) (*Deck, error)
	GetDeck(ctx context.Context, deckID string) (*Deck, error)

	// Artifact reads. Each returns ErrNotReady while the backend is still
	// computing the artifact, and *APIError for any other failure.
	GetSummary(ctx context.Context, deckID string) (*Summary, error)
	GetAnalytics(ctx context.Context, deckID string) (*Analytics, error)
	GetSWOT(ctx context.Context, deckID string) (*SWOT, error)
	GetPESTLE(ctx context.Context, deckID string) (*PESTLE, error)
	GetRecommendation(ctx context.Context, deckID string) (*Recommendation, error)

	// Generate triggers. Fire-and-forget: completion is observed by polling
	// the corresponding artifact read.
	Generate(ctx context.Context, deckID string, kind model.ArtifactKind) (*GenerateResponse, error)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit throttles outgoing requests to rps requests per second, so a
// misconfigured poll interval cannot hammer the backend. Zero disables.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// httpClient implements Client using net/http.
type httpClient struct {
	token   string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a new DeckLens client authenticated with a bearer token.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) UploadDeck(ctx context.Context, path string) (*Deck, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "deckapi: open deck file")
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, eris.Wrap(err, "deckapi: create form file")
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, eris.Wrap(err, "deckapi: copy deck file")
	}
	if err := mw.Close(); err != nil {
		return nil, eris.Wrap(err, "deckapi: close multipart writer")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/decks", &buf)
	if err != nil {
		return nil, eris.Wrap(err, "deckapi: create upload request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.token)

	var deck Deck
	if err := c.do(ctx, req, &deck); err != nil {
		return nil, eris.Wrap(err, "deckapi: upload deck")
	}
	return &deck, nil
}

func (c *httpClient) GetDeck(ctx context.Context, deckID string) (*Deck, error) {
	var deck Deck
	if err := c.get(ctx, fmt.Sprintf("/decks/%s", deckID), &deck); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("deckapi: get deck %s", deckID))
	}
	return &deck, nil
}

func (c *httpClient) GetSummary(ctx context.Context, deckID string) (*Summary, error) {
	var s Summary
	if err := c.getArtifact(ctx, fmt.Sprintf("/decks/%s/summary", deckID), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *httpClient) GetAnalytics(ctx context.Context, deckID string) (*Analytics, error) {
	var a Analytics
	if err := c.getArtifact(ctx, fmt.Sprintf("/decks/%s/analytics", deckID), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *httpClient) GetSWOT(ctx context.Context, deckID string) (*SWOT, error) {
	var s SWOT
	if err := c.getArtifact(ctx, fmt.Sprintf("/decks/%s/swot", deckID), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *httpClient) GetPESTLE(ctx context.Context, deckID string) (*PESTLE, error) {
	var p PESTLE
	if err := c.getArtifact(ctx, fmt.Sprintf("/decks/%s/pestle", deckID), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *httpClient) GetRecommendation(ctx context.Context, deckID string) (*Recommendation, error) {
	var r Recommendation
	if err := c.getArtifact(ctx, fmt.Sprintf("/decks/%s/recommendation", deckID), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *httpClient) Generate(ctx context.Context, deckID string, kind model.ArtifactKind) (*GenerateResponse, error) {
	if !kind.Valid() {
		return nil, eris.Errorf("deckapi: unknown artifact kind %q", kind)
	}
	var resp GenerateResponse
	path := fmt.Sprintf("/decks/%s/%s/generate", deckID, kind)
	if err := c.post(ctx, path, struct{}{}, &resp); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("deckapi: generate %s for deck %s", kind, deckID))
	}
	return &resp, nil
}

// getArtifact is get with 404 mapped to ErrNotReady.
func (c *httpClient) getArtifact(ctx context.Context, path string, out any) error {
	err := c.get(ctx, path, out)
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return ErrNotReady
	}
	return err
}

func (c *httpClient) post(ctx context.Context, path string, body any, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return eris.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	return c.do(ctx, req, out)
}

func (c *httpClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	return c.do(ctx, req, out)
}

func (c *httpClient) do(ctx context.Context, req *http.Request, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "rate limit")
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrap(err, "decode response")
	}

	return nil
}
