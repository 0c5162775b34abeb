// Package store persists pipeline snapshots and artifact caches locally so a
// restarted CLI resumes from the last-known state.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/decklens/decklens-cli/internal/model"
)

// Store defines the durable local state interface.
//
// Pipeline snapshots persist only the durable subset (deck id, stages,
// current stage) plus a schema version; transient fields are never stored.
// A snapshot persisted under a different schema version is treated as absent.
type Store interface {
	SavePipeline(ctx context.Context, snap model.PipelineSnapshot) error
	GetPipeline(ctx context.Context, deckID string) (*model.PipelineSnapshot, error)
	ListPipelines(ctx context.Context) ([]model.PipelineSnapshot, error)
	DeletePipeline(ctx context.Context, deckID string) error

	// Artifact cache, keyed by (deck, kind) with independent entries per deck.
	SaveArtifact(ctx context.Context, rec model.ArtifactRecord) error
	GetArtifact(ctx context.Context, deckID string, kind model.ArtifactKind) (*model.ArtifactRecord, error)
	ListArtifacts(ctx context.Context, deckID string) ([]model.ArtifactRecord, error)

	Migrate(ctx context.Context) error
	Close() error
}

// New opens a store for the given driver ("sqlite" or "postgres").
func New(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite", "":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
