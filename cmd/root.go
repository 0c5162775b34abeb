package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/decklens/decklens-cli/internal/config"
	"github.com/decklens/decklens-cli/internal/store"
	"github.com/decklens/decklens-cli/pkg/deckapi"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "decklens",
	Short: "Pitch deck analysis pipeline dashboard",
	Long:  "Uploads pitch decks to the DeckLens analysis service, tracks the six-stage pipeline, caches computed artifacts locally, and renders read-only reports.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// newAPIClient builds the backend client from config.
func newAPIClient() deckapi.Client {
	opts := []deckapi.Option{}
	if cfg.API.BaseURL != "" {
		opts = append(opts, deckapi.WithBaseURL(cfg.API.BaseURL))
	}
	if cfg.API.RateLimit > 0 {
		opts = append(opts, deckapi.WithRateLimit(cfg.API.RateLimit))
	}
	return deckapi.NewClient(cfg.API.Token, opts...)
}

// openStore opens and migrates the local cache database.
func openStore(ctx context.Context) (store.Store, error) {
	db, err := store.New(ctx, cfg.Store.Driver, cfg.Store.DSN())
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
