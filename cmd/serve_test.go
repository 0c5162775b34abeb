package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decklens/decklens-cli/internal/model"
)

// fakeStore is an in-memory store.Store for router tests.
type fakeStore struct {
	mu        sync.Mutex
	pipelines map[string]model.PipelineSnapshot
	artifacts map[string]model.ArtifactRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		pipelines: make(map[string]model.PipelineSnapshot),
		artifacts: make(map[string]model.ArtifactRecord),
	}
}

func (f *fakeStore) SavePipeline(ctx context.Context, snap model.PipelineSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pipelines[snap.DeckID] = snap.Clone()
	return nil
}

func (f *fakeStore) GetPipeline(ctx context.Context, deckID string) (*model.PipelineSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, ok := f.pipelines[deckID]
	if !ok {
		return nil, nil
	}
	out := snap.Clone()
	return &out, nil
}

func (f *fakeStore) ListPipelines(ctx context.Context) ([]model.PipelineSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.PipelineSnapshot
	for _, snap := range f.pipelines {
		out = append(out, snap.Clone())
	}
	return out, nil
}

func (f *fakeStore) DeletePipeline(ctx context.Context, deckID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pipelines, deckID)
	return nil
}

func (f *fakeStore) SaveArtifact(ctx context.Context, rec model.ArtifactRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.artifacts[rec.DeckID+"/"+string(rec.Kind)] = rec
	return nil
}

func (f *fakeStore) GetArtifact(ctx context.Context, deckID string, kind model.ArtifactKind) (*model.ArtifactRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.artifacts[deckID+"/"+string(kind)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (f *fakeStore) ListArtifacts(ctx context.Context, deckID string) ([]model.ArtifactRecord, error) {
	return nil, nil
}

func (f *fakeStore) Migrate(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                      { return nil }

func TestRouter_Health(t *testing.T) {
	srv := httptest.NewServer(newRouter(newFakeStore()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_GetPipeline(t *testing.T) {
	db := newFakeStore()
	snap := model.NewPipelineSnapshot("deck-1")
	snap.CurrentStage = model.StageAnalytics
	require.NoError(t, db.SavePipeline(context.Background(), snap))

	srv := httptest.NewServer(newRouter(db))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/decks/deck-1/pipeline")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got model.PipelineSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "deck-1", got.DeckID)
	assert.Equal(t, model.StageAnalytics, got.CurrentStage)
}

func TestRouter_GetPipelineNotFound(t *testing.T) {
	srv := httptest.NewServer(newRouter(newFakeStore()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/decks/nope/pipeline")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_ListDecks(t *testing.T) {
	db := newFakeStore()
	require.NoError(t, db.SavePipeline(context.Background(), model.NewPipelineSnapshot("deck-1")))
	require.NoError(t, db.SavePipeline(context.Background(), model.NewPipelineSnapshot("deck-2")))

	srv := httptest.NewServer(newRouter(db))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/decks")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []model.PipelineSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Len(t, got, 2)
}

func TestRouter_GetArtifact(t *testing.T) {
	db := newFakeStore()
	require.NoError(t, db.SaveArtifact(context.Background(), model.ArtifactRecord{
		DeckID: "deck-1",
		Kind:   model.ArtifactSWOT,
		Status: model.ArtifactCompleted,
		Data:   []byte(`{"strengths":["team"]}`),
	}))

	srv := httptest.NewServer(newRouter(db))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/decks/deck-1/artifacts/swot")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got model.ArtifactRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, model.ArtifactSWOT, got.Kind)
	assert.Equal(t, model.ArtifactCompleted, got.Status)
}

func TestRouter_GetArtifactBadKind(t *testing.T) {
	srv := httptest.NewServer(newRouter(newFakeStore()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/decks/deck-1/artifacts/vibes")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/decks/deck-1/artifacts/pestle")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
