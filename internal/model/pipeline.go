package model

import "time"

// SnapshotSchemaVersion tags persisted pipeline snapshots. Bump on any shape
// change; loaders discard snapshots with a different version.
const SnapshotSchemaVersion = 1

// OverallStatus is the aggregate status of the whole pipeline run.
type OverallStatus string

const (
	OverallNone      OverallStatus = ""
	OverallRunning   OverallStatus = "running"
	OverallCompleted OverallStatus = "completed"
	OverallFailed    OverallStatus = "failed"
)

// PipelineSnapshot is the six-stage progress model for one deck. All six
// stage keys are always present.
type PipelineSnapshot struct {
	DeckID          string            `json:"deck_id"`
	OverallStatus   OverallStatus     `json:"overall_status"`
	OverallProgress int               `json:"overall_progress"`
	Stages          map[StageID]Stage `json:"stages"`
	CurrentStage    StageID           `json:"current_stage"`
	PollCount       int               `json:"poll_count"`
	Error           string            `json:"error,omitempty"`
	SchemaVersion   int               `json:"schema_version"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// NewPipelineSnapshot returns a snapshot with every stage pending.
func NewPipelineSnapshot(deckID string) PipelineSnapshot {
	stages := make(map[StageID]Stage, len(StageOrder))
	for _, id := range StageOrder {
		stages[id] = Stage{
			ID:     id,
			Name:   id.Name(),
			Status: StagePending,
		}
	}
	return PipelineSnapshot{
		DeckID:        deckID,
		Stages:        stages,
		SchemaVersion: SnapshotSchemaVersion,
	}
}

// Clone returns a deep copy of the snapshot.
func (p PipelineSnapshot) Clone() PipelineSnapshot {
	out := p
	out.Stages = make(map[StageID]Stage, len(p.Stages))
	for id, st := range p.Stages {
		out.Stages[id] = st
	}
	return out
}

// CompletedStages counts stages in the completed state.
func (p PipelineSnapshot) CompletedStages() int {
	n := 0
	for _, st := range p.Stages {
		if st.Status == StageCompleted {
			n++
		}
	}
	return n
}
