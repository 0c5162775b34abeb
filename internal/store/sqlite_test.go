package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decklens/decklens-cli/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLite_PipelineRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	snap := model.NewPipelineSnapshot("deck-1")
	done := snap.Stages[model.StageExtract]
	done.Status = model.StageCompleted
	done.Progress = 100
	snap.Stages[model.StageExtract] = done
	snap.CurrentStage = model.StageSummary

	require.NoError(t, s.SavePipeline(ctx, snap))

	got, err := s.GetPipeline(ctx, "deck-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "deck-1", got.DeckID)
	assert.Equal(t, model.StageCompleted, got.Stages[model.StageExtract].Status)
	assert.Equal(t, 100, got.Stages[model.StageExtract].Progress)
	assert.Equal(t, model.StageSummary, got.CurrentStage)
}

func TestSQLite_GetPipelineMissingReturnsNil(t *testing.T) {
	s := newTestSQLite(t)

	got, err := s.GetPipeline(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_SavePipelineUpserts(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	snap := model.NewPipelineSnapshot("deck-1")
	require.NoError(t, s.SavePipeline(ctx, snap))

	snap.CurrentStage = model.StagePESTLE
	require.NoError(t, s.SavePipeline(ctx, snap))

	got, err := s.GetPipeline(ctx, "deck-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.StagePESTLE, got.CurrentStage)

	all, err := s.ListPipelines(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLite_SavePipelineRequiresDeckID(t *testing.T) {
	s := newTestSQLite(t)
	err := s.SavePipeline(context.Background(), model.PipelineSnapshot{})
	assert.Error(t, err)
}

func TestSQLite_SchemaVersionMismatchDiscardsSnapshot(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	snap := model.NewPipelineSnapshot("deck-1")
	require.NoError(t, s.SavePipeline(ctx, snap))

	// Simulate a snapshot written by an older build.
	_, err := s.db.ExecContext(ctx,
		`UPDATE pipeline_snapshots SET schema_version = ? WHERE deck_id = ?`,
		model.SnapshotSchemaVersion+1, "deck-1",
	)
	require.NoError(t, err)

	got, err := s.GetPipeline(ctx, "deck-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	all, err := s.ListPipelines(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSQLite_DeletePipeline(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.SavePipeline(ctx, model.NewPipelineSnapshot("deck-1")))
	require.NoError(t, s.DeletePipeline(ctx, "deck-1"))

	got, err := s.GetPipeline(ctx, "deck-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_ArtifactRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	rec := model.ArtifactRecord{
		DeckID: "deck-1",
		Kind:   model.ArtifactSWOT,
		Status: model.ArtifactCompleted,
		Data:   []byte(`{"strengths":["team"]}`),
	}
	require.NoError(t, s.SaveArtifact(ctx, rec))

	got, err := s.GetArtifact(ctx, "deck-1", model.ArtifactSWOT)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.ArtifactCompleted, got.Status)
	assert.JSONEq(t, `{"strengths":["team"]}`, string(got.Data))
}

func TestSQLite_SaveArtifactUpsertsPerKind(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.SaveArtifact(ctx, model.ArtifactRecord{
		DeckID: "deck-1", Kind: model.ArtifactSWOT, Status: model.ArtifactProcessing,
	}))
	require.NoError(t, s.SaveArtifact(ctx, model.ArtifactRecord{
		DeckID: "deck-1", Kind: model.ArtifactSWOT, Status: model.ArtifactFailed, Error: "model overloaded",
	}))
	require.NoError(t, s.SaveArtifact(ctx, model.ArtifactRecord{
		DeckID: "deck-1", Kind: model.ArtifactPESTLE, Status: model.ArtifactCompleted, Data: []byte(`{}`),
	}))
	// Same kind for a different deck stays independent.
	require.NoError(t, s.SaveArtifact(ctx, model.ArtifactRecord{
		DeckID: "deck-2", Kind: model.ArtifactSWOT, Status: model.ArtifactCompleted, Data: []byte(`{}`),
	}))

	got, err := s.GetArtifact(ctx, "deck-1", model.ArtifactSWOT)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.ArtifactFailed, got.Status)
	assert.Equal(t, "model overloaded", got.Error)

	list, err := s.ListArtifacts(ctx, "deck-1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	other, err := s.GetArtifact(ctx, "deck-2", model.ArtifactSWOT)
	require.NoError(t, err)
	require.NotNil(t, other)
	assert.Equal(t, model.ArtifactCompleted, other.Status)
}

func TestSQLite_SaveArtifactRejectsUnknownKind(t *testing.T) {
	s := newTestSQLite(t)
	err := s.SaveArtifact(context.Background(), model.ArtifactRecord{
		DeckID: "deck-1", Kind: "hopes-and-dreams",
	})
	assert.Error(t, err)
}

func TestSQLite_GetArtifactMissingReturnsNil(t *testing.T) {
	s := newTestSQLite(t)
	got, err := s.GetArtifact(context.Background(), "deck-1", model.ArtifactPESTLE)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(context.Background(), "oracle", "dsn")
	assert.Error(t, err)
}
