package main

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decklens/decklens-cli/internal/model"
	"github.com/decklens/decklens-cli/pkg/deckapi"
)

// stubClient implements deckapi.Client for command tests.
type stubClient struct {
	deck           *deckapi.Deck
	summary        *deckapi.Summary
	analytics      *deckapi.Analytics
	swot           *deckapi.SWOT
	pestle         *deckapi.PESTLE
	recommendation *deckapi.Recommendation
	err            error
}

func (s *stubClient) artifactErr() error {
	if s.err != nil {
		return s.err
	}
	return deckapi.ErrNotReady
}

func (s *stubClient) UploadDeck(context.Context, string) (*deckapi.Deck, error) {
	return s.deck, s.err
}

func (s *stubClient) GetDeck(context.Context, string) (*deckapi.Deck, error) {
	if s.deck == nil {
		return nil, eris.New("no deck")
	}
	return s.deck, nil
}

func (s *stubClient) GetSummary(context.Context, string) (*deckapi.Summary, error) {
	if s.summary == nil {
		return nil, s.artifactErr()
	}
	return s.summary, nil
}

func (s *stubClient) GetAnalytics(context.Context, string) (*deckapi.Analytics, error) {
	if s.analytics == nil {
		return nil, s.artifactErr()
	}
	return s.analytics, nil
}

func (s *stubClient) GetSWOT(context.Context, string) (*deckapi.SWOT, error) {
	if s.swot == nil {
		return nil, s.artifactErr()
	}
	return s.swot, nil
}

func (s *stubClient) GetPESTLE(context.Context, string) (*deckapi.PESTLE, error) {
	if s.pestle == nil {
		return nil, s.artifactErr()
	}
	return s.pestle, nil
}

func (s *stubClient) GetRecommendation(context.Context, string) (*deckapi.Recommendation, error) {
	if s.recommendation == nil {
		return nil, s.artifactErr()
	}
	return s.recommendation, nil
}

func (s *stubClient) Generate(context.Context, string, model.ArtifactKind) (*deckapi.GenerateResponse, error) {
	return nil, eris.New("not implemented")
}

func TestBuildReport_PartialArtifacts(t *testing.T) {
	api := &stubClient{
		deck:      &deckapi.Deck{UUID: "deck-1", FileName: "acme.pdf"},
		summary:   &deckapi.Summary{Content: "summary"},
		analytics: &deckapi.Analytics{OverallScore: 70},
		swot:      &deckapi.SWOT{Strengths: []string{"team"}},
	}
	db := newFakeStore()

	report, err := buildReport(context.Background(), api, db, "deck-1")
	require.NoError(t, err)

	assert.NotNil(t, report.Deck)
	assert.NotNil(t, report.Summary)
	assert.NotNil(t, report.Analytics)
	assert.NotNil(t, report.SWOT)
	assert.Nil(t, report.PESTLE)
	assert.Nil(t, report.Recommendation)
	assert.ElementsMatch(t, []string{"pestle", "recommendation"}, report.Missing)

	// Fetched artifacts land in the cache.
	cached, err := db.GetArtifact(context.Background(), "deck-1", model.ArtifactSWOT)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, model.ArtifactCompleted, cached.Status)

	var swot deckapi.SWOT
	require.NoError(t, json.Unmarshal(cached.Data, &swot))
	assert.Equal(t, []string{"team"}, swot.Strengths)

	// Not-ready artifacts are not cached.
	missing, err := db.GetArtifact(context.Background(), "deck-1", model.ArtifactPESTLE)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBuildReport_HardErrorFails(t *testing.T) {
	api := &stubClient{
		deck: &deckapi.Deck{UUID: "deck-1"},
		err:  &deckapi.APIError{StatusCode: 500, Body: "boom"},
	}

	_, err := buildReport(context.Background(), api, newFakeStore(), "deck-1")
	assert.Error(t, err)
}

func TestLoadArtifact_PrefersCache(t *testing.T) {
	db := newFakeStore()
	require.NoError(t, db.SaveArtifact(context.Background(), model.ArtifactRecord{
		DeckID: "deck-1",
		Kind:   model.ArtifactAnalytics,
		Status: model.ArtifactCompleted,
		Data:   []byte(`{"overall_score":88}`),
	}))

	fetched := false
	got, err := loadArtifact(context.Background(), db, "deck-1", model.ArtifactAnalytics,
		func(ctx context.Context) (*deckapi.Analytics, error) {
			fetched = true
			return &deckapi.Analytics{OverallScore: 1}, nil
		})
	require.NoError(t, err)
	assert.False(t, fetched)
	assert.Equal(t, 88.0, got.OverallScore)
}

func TestLoadArtifact_FallsBackToFetch(t *testing.T) {
	got, err := loadArtifact(context.Background(), newFakeStore(), "deck-1", model.ArtifactAnalytics,
		func(ctx context.Context) (*deckapi.Analytics, error) {
			return &deckapi.Analytics{OverallScore: 42}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, 42.0, got.OverallScore)
}
