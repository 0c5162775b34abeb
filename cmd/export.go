package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/decklens/decklens-cli/internal/export"
	"github.com/decklens/decklens-cli/internal/model"
	"github.com/decklens/decklens-cli/internal/store"
	"github.com/decklens/decklens-cli/pkg/deckapi"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export analysis artifacts to external destinations",
}

var exportXLSXCmd = &cobra.Command{
	Use:   "xlsx <deck-id>",
	Short: "Write the VC analytics scorecard to an XLSX file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		deckID := args[0]

		db, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		analytics, err := loadArtifact(ctx, db, deckID, model.ArtifactAnalytics, func(ctx context.Context) (*deckapi.Analytics, error) {
			return newAPIClient().GetAnalytics(ctx, deckID)
		})
		if err != nil {
			return err
		}

		path := exportOut
		if path == "" {
			path = fmt.Sprintf("scorecard-%s.xlsx", deckID)
		}
		if err := export.WriteScorecard(path, deckID, analytics); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
		return nil
	},
}

var exportNotionCmd = &cobra.Command{
	Use:   "notion <deck-id>",
	Short: "Publish the investment recommendation to Notion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		deckID := args[0]

		if cfg.Notion.Token == "" || cfg.Notion.ReportDB == "" {
			return eris.New("notion export requires notion.token and notion.report_db in config")
		}

		db, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		rec, err := loadArtifact(ctx, db, deckID, model.ArtifactRecommendation, func(ctx context.Context) (*deckapi.Recommendation, error) {
			return newAPIClient().GetRecommendation(ctx, deckID)
		})
		if err != nil {
			return err
		}

		client := export.NewNotionClient(cfg.Notion.Token)
		page, err := export.ExportRecommendation(ctx, client, cfg.Notion.ReportDB, deckID, rec)
		if err != nil {
			return err
		}
		fmt.Printf("created notion page %s\n", page.ID)
		return nil
	},
}

// loadArtifact returns a cached artifact when one is present, falling back
// to a live fetch otherwise.
func loadArtifact[T any](ctx context.Context, db store.Store, deckID string, kind model.ArtifactKind, fetch func(context.Context) (*T, error)) (*T, error) {
	rec, err := db.GetArtifact(ctx, deckID, kind)
	if err != nil {
		return nil, err
	}
	if rec != nil && rec.Status == model.ArtifactCompleted && len(rec.Data) > 0 {
		var out T
		if err := json.Unmarshal(rec.Data, &out); err == nil {
			return &out, nil
		}
		// Corrupt cache entry; refetch.
	}
	return fetch(ctx)
}

func init() {
	exportXLSXCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file path")
	exportCmd.AddCommand(exportXLSXCmd)
	exportCmd.AddCommand(exportNotionCmd)
	rootCmd.AddCommand(exportCmd)
}
