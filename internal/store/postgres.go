package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/decklens/decklens-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore. pgxmock
// satisfies it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 5
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS pipeline_snapshots (
	deck_id        TEXT PRIMARY KEY,
	schema_version INTEGER NOT NULL,
	stages         JSONB NOT NULL,
	current_stage  TEXT NOT NULL DEFAULT '',
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS artifact_cache (
	id         TEXT PRIMARY KEY,
	deck_id    TEXT NOT NULL,
	kind       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'pending',
	data       JSONB,
	error      TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE(deck_id, kind)
);

CREATE INDEX IF NOT EXISTS idx_artifact_cache_deck_id ON artifact_cache(deck_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SavePipeline(ctx context.Context, snap model.PipelineSnapshot) error {
	if snap.DeckID == "" {
		return eris.New("postgres: pipeline snapshot has no deck id")
	}
	stagesJSON, err := json.Marshal(snap.Stages)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal stages")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO pipeline_snapshots (deck_id, schema_version, stages, current_stage, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (deck_id) DO UPDATE SET
		 	schema_version = EXCLUDED.schema_version,
		 	stages = EXCLUDED.stages,
		 	current_stage = EXCLUDED.current_stage,
		 	updated_at = EXCLUDED.updated_at`,
		snap.DeckID, model.SnapshotSchemaVersion, string(stagesJSON), string(snap.CurrentStage), time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: save pipeline %s", snap.DeckID)
}

func (s *PostgresStore) GetPipeline(ctx context.Context, deckID string) (*model.PipelineSnapshot, error) {
	var (
		version      int
		stagesJSON   string
		currentStage string
		updatedAt    time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT schema_version, stages::text, current_stage, updated_at FROM pipeline_snapshots WHERE deck_id = $1`,
		deckID,
	).Scan(&version, &stagesJSON, &currentStage, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get pipeline %s", deckID)
	}

	if version != model.SnapshotSchemaVersion {
		return nil, nil
	}

	snap := model.NewPipelineSnapshot(deckID)
	if err := json.Unmarshal([]byte(stagesJSON), &snap.Stages); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal stages for %s", deckID)
	}
	snap.CurrentStage = model.StageID(currentStage)
	snap.UpdatedAt = updatedAt
	return &snap, nil
}

func (s *PostgresStore) ListPipelines(ctx context.Context) ([]model.PipelineSnapshot, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT deck_id, schema_version, stages::text, current_stage, updated_at
		 FROM pipeline_snapshots ORDER BY updated_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list pipelines")
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
			return nil, eris.Wrap(err, "postgres: scan pipeline")
		}
		if version != model.SnapshotSchemaVersion {
			continue
		}
		snap := model.NewPipelineSnapshot(deckID)
		if err := json.Unmarshal([]byte(stagesJSON), &snap.Stages); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal stages for %s", deckID)
		}
		snap.CurrentStage = model.StageID(currentStage)
		snap.UpdatedAt = updatedAt
		out = append(out, snap)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate pipelines")
}

func (s *PostgresStore) DeletePipeline(ctx context.Context, deckID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM pipeline_snapshots WHERE deck_id = $1`, deckID)
	return eris.Wrapf(err, "postgres: delete pipeline %s", deckID)
}

func (s *PostgresStore) SaveArtifact(ctx context.Context, rec model.ArtifactRecord) error {
	if !rec.Kind.Valid() {
		return eris.Errorf("postgres: unknown artifact kind %q", rec.Kind)
	}
	var data any
	if rec.Data != nil {
		data = string(rec.Data)
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO artifact_cache (id, deck_id, kind, status, data, error, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (deck_id, kind) DO UPDATE SET
		 	status = EXCLUDED.status,
		 	data = EXCLUDED.data,
		 	error = EXCLUDED.error,
		 	updated_at = EXCLUDED.updated_at`,
		uuid.New().String(), rec.DeckID, string(rec.Kind), string(rec.Status), data, rec.Error, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: save artifact %s/%s", rec.DeckID, rec.Kind)
}

func (s *PostgresStore) GetArtifact(ctx context.Context, deckID string, kind model.ArtifactKind) (*model.ArtifactRecord, error) {
	var (
		rec    model.ArtifactRecord
		status string
		data   *string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT status, data::text, error, updated_at FROM artifact_cache WHERE deck_id = $1 AND kind = $2`,
		deckID, string(kind),
	).Scan(&status, &data, &rec.Error, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get artifact %s/%s", deckID, kind)
	}

	rec.DeckID = deckID
	rec.Kind = kind
	rec.Status = model.ArtifactStatus(status)
	if data != nil {
		rec.Data = []byte(*data)
	}
	return &rec, nil
}

func (s *PostgresStore) ListArtifacts(ctx context.Context, deckID string) ([]model.ArtifactRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT kind, status, data::text, error, updated_at FROM artifact_cache WHERE deck_id = $1 ORDER BY kind`,
		deckID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list artifacts %s", deckID)
	}
	defer rows.Close()

	var out []model.ArtifactRecord
	for rows.Next() {
		var (
			rec    model.ArtifactRecord
			kind   string
			status string
			data   *string
		)
		if err := rows.Scan(&kind, &status, &data, &rec.Error, &rec.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan artifact")
		}
		rec.DeckID = deckID
		rec.Kind = model.ArtifactKind(kind)
		rec.Status = model.ArtifactStatus(status)
		if data != nil {
			rec.Data = []byte(*data)
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate artifacts")
}
