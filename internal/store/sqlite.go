package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/decklens/decklens-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS pipeline_snapshots (
	deck_id        TEXT PRIMARY KEY,
	schema_version INTEGER NOT NULL,
	stages         TEXT NOT NULL,
	current_stage  TEXT NOT NULL DEFAULT '',
	updated_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS artifact_cache (
	id         TEXT PRIMARY KEY,
	deck_id    TEXT NOT NULL,
	kind       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'pending',
	data       TEXT,
	error      TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE(deck_id, kind)
);

CREATE INDEX IF NOT EXISTS idx_artifact_cache_deck_id ON artifact_cache(deck_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SavePipeline(ctx context.Context, snap model.PipelineSnapshot) error {
	if snap.DeckID == "" {
		return eris.New("sqlite: pipeline snapshot has no deck id")
	}
	stagesJSON, err := json.Marshal(snap.Stages)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal stages")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pipeline_snapshots (deck_id, schema_version, stages, current_stage, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(deck_id) DO UPDATE SET
		 	schema_version = excluded.schema_version,
		 	stages = excluded.stages,
		 	current_stage = excluded.current_stage,
		 	updated_at = excluded.updated_at`,
		snap.DeckID, model.SnapshotSchemaVersion, string(stagesJSON), string(snap.CurrentStage), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save pipeline %s", snap.DeckID)
}

func (s *SQLiteStore) GetPipeline(ctx context.Context, deckID string) (*model.PipelineSnapshot, error) {
	var (
		version      int
		stagesJSON   string
		currentStage string
		updatedAt    time.Time
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT schema_version, stages, current_stage, updated_at FROM pipeline_snapshots WHERE deck_id = ?`,
		deckID,
	).Scan(&version, &stagesJSON, &currentStage, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get pipeline %s", deckID)
	}

	// A snapshot written by an incompatible version is discarded rather than
	// migrated by guesswork.
	if version != model.SnapshotSchemaVersion {
		return nil, nil
	}

	snap := model.NewPipelineSnapshot(deckID)
	if err := json.Unmarshal([]byte(stagesJSON), &snap.Stages); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal stages for %s", deckID)
	}
	snap.CurrentStage = model.StageID(currentStage)
	snap.UpdatedAt = updatedAt
	return &snap, nil
}

func (s *SQLiteStore) ListPipelines(ctx context.Context) ([]model.PipelineSnapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT deck_id, schema_version, stages, current_stage, updated_at
		 FROM pipeline_snapshots ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list pipelines")
	}
	defer rows.Close()

	var out []model.PipelineSnapshot
	for rows.Next() {
		var (
			deckID       string
			version      int
			stagesJSON   string
			currentStage string
			updatedAt    time.Time
		)
		if err := rows.Scan(&deckID, &version, &stagesJSON, &currentStage, &updatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan pipeline")
		}
		if version != model.SnapshotSchemaVersion {
			continue
		}
		snap := model.NewPipelineSnapshot(deckID)
		if err := json.Unmarshal([]byte(stagesJSON), &snap.Stages); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal stages for %s", deckID)
		}
		snap.CurrentStage = model.StageID(currentStage)
		snap.UpdatedAt = updatedAt
		out = append(out, snap)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate pipelines")
}

func (s *SQLiteStore) DeletePipeline(ctx context.Context, deckID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pipeline_snapshots WHERE deck_id = ?`, deckID)
	return eris.Wrapf(err, "sqlite: delete pipeline %s", deckID)
}

func (s *SQLiteStore) SaveArtifact(ctx context.Context, rec model.ArtifactRecord) error {
	if !rec.Kind.Valid() {
		return eris.Errorf("sqlite: unknown artifact kind %q", rec.Kind)
	}
	var data any
	if rec.Data != nil {
		data = string(rec.Data)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artifact_cache (id, deck_id, kind, status, data, error, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(deck_id, kind) DO UPDATE SET
		 	status = excluded.status,
		 	data = excluded.data,
		 	error = excluded.error,
		 	updated_at = excluded.updated_at`,
		uuid.New().String(), rec.DeckID, string(rec.Kind), string(rec.Status), data, rec.Error, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save artifact %s/%s", rec.DeckID, rec.Kind)
}

func (s *SQLiteStore) GetArtifact(ctx context.Context, deckID string, kind model.ArtifactKind) (*model.ArtifactRecord, error) {
	var (
		rec    model.ArtifactRecord
		status string
		data   sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT status, data, error, updated_at FROM artifact_cache WHERE deck_id = ? AND kind = ?`,
		deckID, string(kind),
	).Scan(&status, &data, &rec.Error, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get artifact %s/%s", deckID, kind)
	}

	rec.DeckID = deckID
	rec.Kind = kind
	rec.Status = model.ArtifactStatus(status)
	if data.Valid {
		rec.Data = []byte(data.String)
	}
	return &rec, nil
}

func (s *SQLiteStore) ListArtifacts(ctx context.Context, deckID string) ([]model.ArtifactRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, status, data, error, updated_at FROM artifact_cache WHERE deck_id = ? ORDER BY kind`,
		deckID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list artifacts %s", deckID)
	}
	defer rows.Close()

	var out []model.ArtifactRecord
	for rows.Next() {
		var (
			rec    model.ArtifactRecord
			kind   string
			status string
			data   sql.NullString
		)
		if err := rows.Scan(&kind, &status, &data, &rec.Error, &rec.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan artifact")
		}
		rec.DeckID = deckID
		rec.Kind = model.ArtifactKind(kind)
		rec.Status = model.ArtifactStatus(status)
		if data.Valid {
			rec.Data = []byte(data.String)
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate artifacts")
}
