package deckapi

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"

	"github.com/decklens/decklens-cli/internal/model"
)

// ErrNotReady is returned by artifact reads when the backend has not yet
// computed the artifact (HTTP 404). It drives polling and is never terminal.
var ErrNotReady = eris.New("deckapi: artifact not ready")

// Deck is the response from GET /decks/{id}.
type Deck struct {
	UUID        string     `json:"uuid"`
	FileName    string     `json:"file_name"`
	Status      string     `json:"status"`
	CurrentStep model.Step `json:"current_step"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Summary is the final executive summary fetched on pipeline completion.
type Summary struct {
	DeckUUID  string    `json:"deck_uuid"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScoreCategory is one weighted component of the VC score.
type ScoreCategory struct {
	Name      string  `json:"name"`
	Score     float64 `json:"score"`
	Weight    float64 `json:"weight"`
	Rationale string  `json:"rationale,omitempty"`
}

// Analytics is the VC-scoring artifact.
type Analytics struct {
	DeckUUID     string          `json:"deck_uuid"`
	OverallScore float64         `json:"overall_score"`
	Categories   []ScoreCategory `json:"categories"`
	FundingAsk   float64         `json:"funding_ask,omitempty"`
}

// SWOT is the strengths/weaknesses/opportunities/threats artifact.
type SWOT struct {
	DeckUUID      string   `json:"deck_uuid"`
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	Opportunities []string `json:"opportunities"`
	Threats       []string `json:"threats"`
}

// PESTLE is the macro-environment analysis artifact.
type PESTLE struct {
	DeckUUID      string   `json:"deck_uuid"`
	Political     []string `json:"political"`
	Economic      []string `json:"economic"`
	Social        []string `json:"social"`
	Technological []string `json:"technological"`
	Legal         []string `json:"legal"`
	Environmental []string `json:"environmental"`
}

// Recommendation is the investment recommendation artifact.
type Recommendation struct {
	DeckUUID   string   `json:"deck_uuid"`
	Verdict    string   `json:"verdict"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
	NextSteps  []string `json:"next_steps,omitempty"`
}

// GenerateResponse is the response from the POST generate-trigger endpoints.
type GenerateResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// APIError is returned when the backend responds with an unexpected status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("deckapi: HTTP %d: %s", e.StatusCode, e.Body)
}
