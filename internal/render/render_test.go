package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/decklens/decklens-cli/internal/model"
	"github.com/decklens/decklens-cli/pkg/deckapi"
)

func TestStageBoardListsAllStages(t *testing.T) {
	snap := model.NewPipelineSnapshot("deck-1")
	out := StageBoard(snap)

	for _, id := range model.StageOrder {
		assert.Contains(t, out, id.Name())
	}
	assert.Contains(t, out, "waiting")
}

func TestStageBoardShowsProgressAndErrors(t *testing.T) {
	snap := model.NewPipelineSnapshot("deck-1")
	st := snap.Stages[model.StageSWOT]
	st.Status = model.StageFailed
	st.ErrorMessage = "model refused the deck"
	snap.Stages[model.StageSWOT] = st
	snap.OverallStatus = model.OverallRunning
	snap.OverallProgress = 50
	snap.PollCount = 7

	out := StageBoard(snap)
	assert.Contains(t, out, "model refused the deck")
	assert.Contains(t, out, "running")
	assert.Contains(t, out, "50%")
	assert.Contains(t, out, "polls: 7")
}

func TestSummary(t *testing.T) {
	assert.Contains(t, Summary(nil), "not available")

	out := Summary(&deckapi.Summary{Content: "Strong team, weak moat."})
	assert.Contains(t, out, "Executive Summary")
	assert.Contains(t, out, "Strong team, weak moat.")
}

func TestAnalytics(t *testing.T) {
	out := Analytics(&deckapi.Analytics{
		OverallScore: 72.5,
		FundingAsk:   1500000,
		Categories: []deckapi.ScoreCategory{
			{Name: "Team", Score: 80, Weight: 0.3, Rationale: "serial founders"},
			{Name: "Market", Score: 65, Weight: 0.25},
		},
	})
	assert.Contains(t, out, "VC Analytics")
	assert.Contains(t, out, "72.5")
	assert.Contains(t, out, "1,500,000")
	assert.Contains(t, out, "Team")
	assert.Contains(t, out, "serial founders")
}

func TestSWOT(t *testing.T) {
	out := SWOT(&deckapi.SWOT{
		Strengths: []string{"experienced team"},
		Threats:   []string{"incumbent competition"},
	})
	assert.Contains(t, out, "Strengths")
	assert.Contains(t, out, "experienced team")
	assert.Contains(t, out, "incumbent competition")
	// Empty sections are omitted.
	assert.NotContains(t, out, "Weaknesses")
}

func TestPESTLE(t *testing.T) {
	out := PESTLE(&deckapi.PESTLE{
		Political: []string{"regulatory tailwinds"},
		Legal:     []string{"GDPR exposure"},
	})
	assert.Contains(t, out, "PESTLE Analysis")
	assert.Contains(t, out, "regulatory tailwinds")
	assert.Contains(t, out, "GDPR exposure")
}

func TestRecommendation(t *testing.T) {
	out := Recommendation(&deckapi.Recommendation{
		Verdict:    "invest",
		Confidence: 0.85,
		Reasoning:  "Strong fundamentals.",
		NextSteps:  []string{"schedule partner meeting"},
	})
	assert.Contains(t, out, "invest")
	assert.Contains(t, out, "85%")
	assert.Contains(t, out, "Strong fundamentals.")
	assert.Contains(t, out, "schedule partner meeting")
}
