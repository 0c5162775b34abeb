// Package state holds the shared six-stage pipeline progress snapshot. The
// store performs no network calls; it is mutated by the tracker and read by
// views. Handles are passed in explicitly rather than exposed as a package
// global, so two trackers never collide on shared state.
package state

import (
	"sync"
	"time"

	"github.com/decklens/decklens-cli/internal/model"
	"github.com/decklens/decklens-cli/pkg/deckapi"
)

// StagePatch shallow-merges into an existing stage; nil fields are left
// untouched. Last write wins.
type StagePatch struct {
	Status       *model.StageStatus
	Progress     *int
	StartedAt    *time.Time
	EndedAt      *time.Time
	ErrorMessage *string
}

// Store is the synchronization store for one tracked deck. All mutations are
// synchronous and side-effect free beyond updating the snapshot.
type Store struct {
	mu      sync.Mutex
	snap    model.PipelineSnapshot
	summary *deckapi.Summary
	polling bool
	version uint64
}

// NewStore returns a store with every stage pending and no deck attached.
func NewStore() *Store {
	return &Store{snap: model.NewPipelineSnapshot("")}
}

// Snapshot returns a deep copy of the current pipeline snapshot.
func (s *Store) Snapshot() model.PipelineSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// Version increments on every mutation; views use it to skip redundant
// re-renders.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Summary returns the final summary artifact, if fetched.
func (s *Store) Summary() *deckapi.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

// Polling reports whether the tracker is actively polling deck status.
func (s *Store) Polling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polling
}

// SetDeckID attaches the store to a deck.
func (s *Store) SetDeckID(deckID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.DeckID = deckID
	s.touchLocked()
}

// ClearDeck detaches the deck id without resetting stage state.
func (s *Store) ClearDeck() {
	s.SetDeckID("")
}

// SetStages replaces the full stage map.
func (s *Store) SetStages(stages map[model.StageID]model.Stage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Stages = make(map[model.StageID]model.Stage, len(stages))
	for id, st := range stages {
		s.snap.Stages[id] = st
	}
	s.touchLocked()
}

// UpdateStage shallow-merges patch into the stage. The stage key set is fixed
// and total, so no existence validation is needed.
func (s *Store) UpdateStage(id model.StageID, patch StagePatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.snap.Stages[id]
	st.ID = id
	if st.Name == "" {
		st.Name = id.Name()
	}
	if patch.Status != nil {
		st.Status = *patch.Status
	}
	if patch.Progress != nil {
		st.Progress = clampProgress(*patch.Progress)
	}
	if patch.StartedAt != nil {
		st.StartedAt = patch.StartedAt
	}
	if patch.EndedAt != nil {
		st.EndedAt = patch.EndedAt
	}
	if patch.ErrorMessage != nil {
		st.ErrorMessage = *patch.ErrorMessage
	}
	s.snap.Stages[id] = st
	s.touchLocked()
}

// SetCurrentStage points at the stage currently running; empty clears it.
func (s *Store) SetCurrentStage(id model.StageID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.CurrentStage = id
	s.touchLocked()
}

// SetOverallStatus sets the aggregate pipeline status.
func (s *Store) SetOverallStatus(status model.OverallStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.OverallStatus = status
	s.touchLocked()
}

// SetOverallProgress sets the aggregate progress, clamped to [0,100].
func (s *Store) SetOverallProgress(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.OverallProgress = clampProgress(n)
	s.touchLocked()
}

// SetPolling records whether the tracker loop is active.
func (s *Store) SetPolling(polling bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polling = polling
	s.touchLocked()
}

// IncrementPollCount bumps the poll counter.
func (s *Store) IncrementPollCount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.PollCount++
	s.touchLocked()
}

// ResetPollCount zeroes the poll counter.
func (s *Store) ResetPollCount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.PollCount = 0
	s.touchLocked()
}

// SetError records a pipeline-level error message; empty clears it.
func (s *Store) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Error = msg
	s.touchLocked()
}

// SetSummary stores the final summary artifact.
func (s *Store) SetSummary(summary *deckapi.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = summary
	s.touchLocked()
}

// Reset returns the store to the all-pending initial snapshot, dropping the
// deck id, summary, and all counters.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = model.NewPipelineSnapshot("")
	s.summary = nil
	s.polling = false
	s.touchLocked()
}

// Restore seeds the store from a persisted snapshot: only the durable subset
// (deck id, stages, current stage) is applied; transient fields start fresh.
func (s *Store) Restore(snap model.PipelineSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fresh := model.NewPipelineSnapshot(snap.DeckID)
	for id := range fresh.Stages {
		if st, ok := snap.Stages[id]; ok {
			fresh.Stages[id] = st
		}
	}
	fresh.CurrentStage = snap.CurrentStage
	s.snap = fresh
	s.summary = nil
	s.polling = false
	s.touchLocked()
}

func (s *Store) touchLocked() {
	s.version++
	s.snap.UpdatedAt = time.Now().UTC()
}

func clampProgress(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
