// Package tracker drives the pipeline synchronization store by polling deck
// status and translating the server's single current-step field into the
// richer six-stage breakdown.
package tracker

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/decklens/decklens-cli/internal/model"
	"github.com/decklens/decklens-cli/internal/state"
	"github.com/decklens/decklens-cli/internal/store"
	"github.com/decklens/decklens-cli/pkg/deckapi"
)

const defaultInterval = 2 * time.Second

// Option configures a Tracker.
type Option func(*Tracker)

// WithInterval overrides the deck-status poll interval.
func WithInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithDB enables durable snapshot persistence.
func WithDB(db store.Store) Option {
	return func(t *Tracker) {
		t.db = db
	}
}

// WithOnComplete sets a callback invoked exactly once when the pipeline
// finishes. The summary may be nil if its fetch failed.
func WithOnComplete(fn func(*deckapi.Summary)) Option {
	return func(t *Tracker) {
		t.onComplete = fn
	}
}

// WithOnDeckUpdate sets a callback invoked whenever a poll observes a step
// change.
func WithOnDeckUpdate(fn func(*deckapi.Deck)) Option {
	return func(t *Tracker) {
		t.onDeckUpdate = fn
	}
}

// WithClock overrides the wall clock, for tests.
func WithClock(clock func() time.Time) Option {
	return func(t *Tracker) {
		t.clock = clock
	}
}

// Tracker polls deck detail on a fixed interval and applies stage
// transitions to its state store. The loop is a single sequential goroutine,
// so no two deck fetches ever overlap.
type Tracker struct {
	api   deckapi.Client
	store *state.Store
	db    store.Store

	interval     time.Duration
	onComplete   func(*deckapi.Summary)
	onDeckUpdate func(*deckapi.Deck)
	clock        func() time.Time
	log          *zap.Logger

	deckID    string
	lastStep  model.Step
	completed bool
}

// New creates a tracker writing into st.
func New(api deckapi.Client, st *state.Store, opts ...Option) *Tracker {
	t := &Tracker{
		api:      api,
		store:    st,
		interval: defaultInterval,
		clock:    time.Now,
		log:      zap.L().With(zap.String("component", "tracker")),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run tracks the given deck until the pipeline completes or ctx is
// cancelled. If initialStep is non-empty it is applied immediately as a
// transition hint, avoiding an extra round-trip before the first poll; a
// "done" hint completes without ever starting the timer.
//
// Fetch failures while polling are logged and swallowed: the loop keeps
// retrying on the next tick. This forgiving, unbounded behavior is
// deliberate and differs from the bounded artifact pollers.
func (t *Tracker) Run(ctx context.Context, deckID string, initialStep model.Step) error {
	// Switching decks requires a reset, otherwise the previous deck's stage
	// snapshot leaks into this run.
	if snap := t.store.Snapshot(); snap.DeckID != deckID {
		t.store.Reset()
		t.store.SetDeckID(deckID)
	}
	t.deckID = deckID
	t.lastStep = ""
	t.completed = false

	// Resume the last persisted snapshot so a restart shows the last-known
	// stages while polling re-establishes the live view.
	if t.db != nil {
		if persisted, err := t.db.GetPipeline(ctx, deckID); err != nil {
			t.log.Warn("failed to load persisted pipeline", zap.String("deck_id", deckID), zap.Error(err))
		} else if persisted != nil {
			t.store.Restore(*persisted)
		}
	}

	if initialStep != "" {
		t.applyStep(ctx, initialStep)
		if t.completed {
			return nil
		}
	}

	t.store.SetPolling(true)
	defer t.store.SetPolling(false)

	// Immediate out-of-band poll before the first tick.
	if t.pollOnce(ctx) {
		return nil
	}

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if t.pollOnce(ctx) {
				return nil
			}
		}
	}
}

// pollOnce fetches deck detail and applies a transition when the step
// changed. Returns true when the pipeline completed.
func (t *Tracker) pollOnce(ctx context.Context) bool {
	deck, err := t.api.GetDeck(ctx, t.deckID)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		t.log.Warn("deck status poll failed",
			zap.String("deck_id", t.deckID),
			zap.Error(err),
		)
		return false
	}

	t.store.IncrementPollCount()

	if deck.CurrentStep == t.lastStep {
		return t.completed
	}

	t.applyStep(ctx, deck.CurrentStep)
	if t.onDeckUpdate != nil {
		t.onDeckUpdate(deck)
	}
	return t.completed
}

// applyStep translates the server-reported step into per-stage statuses.
// Re-applying the last-seen step is a no-op, so completion side effects
// cannot fire twice.
func (t *Tracker) applyStep(ctx context.Context, step model.Step) {
	if step == t.lastStep {
		return
	}

	if step == model.StepDone {
		t.lastStep = step
		t.complete(ctx)
		return
	}

	idx := step.StageID().Index()
	if idx < 0 {
		// Defensive no-op: an unknown step likely signals a server/client
		// version mismatch.
		t.log.Warn("unrecognized pipeline step",
			zap.String("deck_id", t.deckID),
			zap.String("step", string(step)),
		)
		return
	}
	t.lastStep = step

	now := t.clock().UTC()
	for i, id := range model.StageOrder {
		switch {
		case i < idx:
			// Backfill: transitions missed between polls are recorded as
			// completed rather than left as gaps.
			t.setStage(id, model.StageCompleted, 100, &now)
		case i == idx:
			t.setStage(id, model.StageRunning, 0, &now)
		default:
			// Rollback: a reused deck may have advanced further in a prior
			// run.
			t.setStage(id, model.StagePending, 0, nil)
		}
	}
	t.store.SetCurrentStage(model.StageID(step))
	t.store.SetOverallStatus(model.OverallRunning)
	t.store.SetOverallProgress(stepProgress(idx))

	t.persist(ctx)
}

// complete marks the whole pipeline finished and runs completion side
// effects exactly once.
func (t *Tracker) complete(ctx context.Context) {
	if t.completed {
		return
	}
	t.completed = true

	now := t.clock().UTC()
	for _, id := range model.StageOrder {
		t.setStage(id, model.StageCompleted, 100, &now)
	}
	t.store.SetCurrentStage("")
	t.store.SetOverallStatus(model.OverallCompleted)
	t.store.SetOverallProgress(100)
	t.persist(ctx)

	summary, err := t.api.GetSummary(ctx, t.deckID)
	if err != nil {
		t.log.Warn("failed to fetch summary after completion",
			zap.String("deck_id", t.deckID),
			zap.Error(err),
		)
	} else {
		t.store.SetSummary(summary)
	}

	if t.onComplete != nil {
		t.onComplete(summary)
	}
}

func (t *Tracker) setStage(id model.StageID, status model.StageStatus, progress int, at *time.Time) {
	patch := state.StagePatch{Status: &status, Progress: &progress}
	switch status {
	case model.StageRunning:
		patch.StartedAt = at
	case model.StageCompleted:
		patch.EndedAt = at
	}
	t.store.UpdateStage(id, patch)
}

func (t *Tracker) persist(ctx context.Context) {
	if t.db == nil {
		return
	}
	if err := t.db.SavePipeline(ctx, t.store.Snapshot()); err != nil {
		t.log.Warn("failed to persist pipeline snapshot",
			zap.String("deck_id", t.deckID),
			zap.Error(err),
		)
	}
}

// stepProgress counts only fully completed prior stages; the running stage
// earns no partial credit.
func stepProgress(idx int) int {
	return int(math.Round(float64(idx) / float64(len(model.StageOrder)) * 100))
}
