package model

import "time"

// StageID identifies one step of the fixed six-step analysis pipeline.
type StageID string

const (
	StageExtract        StageID = "extract"
	StageSummary        StageID = "summary"
	StageAnalytics      StageID = "analytics"
	StageSWOT           StageID = "swot"
	StagePESTLE         StageID = "pestle"
	StageRecommendation StageID = "recommendation"
)

// StageOrder is the fixed, total order of pipeline stages.
var StageOrder = []StageID{
	StageExtract,
	StageSummary,
	StageAnalytics,
	StageSWOT,
	StagePESTLE,
	StageRecommendation,
}

// stageNames maps stage ids to their display labels.
var stageNames = map[StageID]string{
	StageExtract:        "Content Extraction",
	StageSummary:        "Executive Summary",
	StageAnalytics:      "VC Analytics",
	StageSWOT:           "SWOT Analysis",
	StagePESTLE:         "PESTLE Analysis",
	StageRecommendation: "Investment Recommendation",
}

// Index returns the position of the stage in StageOrder, or -1 if unknown.
func (s StageID) Index() int {
	for i, id := range StageOrder {
		if id == s {
			return i
		}
	}
	return -1
}

// Name returns the display label for the stage.
func (s StageID) Name() string {
	return stageNames[s]
}

// Step is the single coarse position of a deck within the pipeline as
// reported by the server: one of the stage ids, or "done".
type Step string

// StepDone indicates the server finished all pipeline stages.
const StepDone Step = "done"

// StageID returns the step as a StageID. Only meaningful when the step is
// not StepDone; callers check Index() >= 0 for validity.
func (s Step) StageID() StageID {
	return StageID(s)
}

// StageStatus is the lifecycle status of a single stage.
type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageRunning   StageStatus = "running"
	StageCompleted StageStatus = "completed"
	StageFailed    StageStatus = "failed"
)

// Stage is one tracked step of the pipeline progress model.
type Stage struct {
	ID           StageID     `json:"id"`
	Name         string      `json:"name"`
	Status       StageStatus `json:"status"`
	Progress     int         `json:"progress"`
	StartedAt    *time.Time  `json:"started_at,omitempty"`
	EndedAt      *time.Time  `json:"ended_at,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
}
