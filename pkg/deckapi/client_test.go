package deckapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decklens/decklens-cli/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-token", WithBaseURL(srv.URL))
}

func TestGetDeck(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/decks/deck-1", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(Deck{
			UUID:        "deck-1",
			FileName:    "acme.pdf",
			Status:      "processing",
			CurrentStep: model.Step("swot"),
		})
	})

	deck, err := client.GetDeck(context.Background(), "deck-1")
	require.NoError(t, err)
	assert.Equal(t, "deck-1", deck.UUID)
	assert.Equal(t, "acme.pdf", deck.FileName)
	assert.Equal(t, model.Step("swot"), deck.CurrentStep)
}

func TestGetArtifact_NotFoundMapsToNotReady(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	})

	_, err := client.GetAnalytics(context.Background(), "deck-1")
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = client.GetSWOT(context.Background(), "deck-1")
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestGetArtifact_ServerErrorIsAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"kaboom"}`, http.StatusInternalServerError)
	})

	_, err := client.GetRecommendation(context.Background(), "deck-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotReady)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "kaboom")
}

func TestGetArtifact_Paths(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte(`{}`))
	})

	ctx := context.Background()
	_, err := client.GetSummary(ctx, "d")
	require.NoError(t, err)
	_, err = client.GetAnalytics(ctx, "d")
	require.NoError(t, err)
	_, err = client.GetSWOT(ctx, "d")
	require.NoError(t, err)
	_, err = client.GetPESTLE(ctx, "d")
	require.NoError(t, err)
	_, err = client.GetRecommendation(ctx, "d")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/decks/d/summary",
		"/decks/d/analytics",
		"/decks/d/swot",
		"/decks/d/pestle",
		"/decks/d/recommendation",
	}, paths)
}

func TestUploadDeck(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pitch.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 fake"), 0o644))

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/decks", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "pitch.pdf", header.Filename)

		json.NewEncoder(w).Encode(Deck{UUID: "deck-new", FileName: "pitch.pdf"})
	})

	deck, err := client.UploadDeck(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "deck-new", deck.UUID)
}

func TestGenerate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/decks/deck-1/swot/generate", r.URL.Path)
		json.NewEncoder(w).Encode(GenerateResponse{JobID: "job-7", Status: "queued"})
	})

	resp, err := client.Generate(context.Background(), "deck-1", model.ArtifactSWOT)
	require.NoError(t, err)
	assert.Equal(t, "job-7", resp.JobID)
	assert.Equal(t, "queued", resp.Status)
}

func TestGenerate_RejectsUnknownKind(t *testing.T) {
	client := NewClient("token")
	_, err := client.Generate(context.Background(), "deck-1", model.ArtifactKind("summary"))
	assert.Error(t, err)
}
