package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/decklens/decklens-cli/internal/model"
	"github.com/decklens/decklens-cli/internal/render"
	"github.com/decklens/decklens-cli/internal/store"
	"github.com/decklens/decklens-cli/pkg/deckapi"
)

var reportFormat string

// deckReport aggregates every artifact available for one deck. Artifacts the
// backend has not computed yet are listed under Missing.
type deckReport struct {
	Deck           *deckapi.Deck           `json:"deck" yaml:"deck"`
	Summary        *deckapi.Summary        `json:"summary,omitempty" yaml:"summary,omitempty"`
	Analytics      *deckapi.Analytics      `json:"analytics,omitempty" yaml:"analytics,omitempty"`
	SWOT           *deckapi.SWOT           `json:"swot,omitempty" yaml:"swot,omitempty"`
	PESTLE         *deckapi.PESTLE         `json:"pestle,omitempty" yaml:"pestle,omitempty"`
	Recommendation *deckapi.Recommendation `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`
	Missing        []string                `json:"missing,omitempty" yaml:"missing,omitempty"`
}

var reportCmd = &cobra.Command{
	Use:   "report <deck-id>",
	Short: "Fetch and render all computed artifacts for a deck",
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

		report, err := buildReport(ctx, newAPIClient(), db, deckID)
		if err != nil {
			return err
		}

		switch reportFormat {
		case "json":
			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
		case "yaml":
			out, err := yaml.Marshal(report)
			if err != nil {
				return err
			}
			fmt.Print(string(out))
		default:
			printReport(report)
		}
		return nil
	},
}

// buildReport fetches the deck and all artifacts concurrently. Not-ready
// artifacts are tolerated; any other fetch error fails the report. Completed
// artifacts are written into the local cache.
func buildReport(ctx context.Context, api deckapi.Client, db store.Store, deckID string) (*deckReport, error) {
	report := &deckReport{}
	var missing []string

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		deck, err := api.GetDeck(ctx, deckID)
		if err != nil {
			return err
		}
		report.Deck = deck
		return nil
	})
	g.Go(func() error {
		s, err := api.GetSummary(ctx, deckID)
		if errors.Is(err, deckapi.ErrNotReady) {
			return nil
		}
		report.Summary = s
		return err
	})
	g.Go(func() error {
		a, err := api.GetAnalytics(ctx, deckID)
		if errors.Is(err, deckapi.ErrNotReady) {
			return nil
		}
		report.Analytics = a
		return err
	})
	g.Go(func() error {
		s, err := api.GetSWOT(ctx, deckID)
		if errors.Is(err, deckapi.ErrNotReady) {
			return nil
		}
		report.SWOT = s
		return err
	})
	g.Go(func() error {
		p, err := api.GetPESTLE(ctx, deckID)
		if errors.Is(err, deckapi.ErrNotReady) {
			return nil
		}
		report.PESTLE = p
		return err
	})
	g.Go(func() error {
		r, err := api.GetRecommendation(ctx, deckID)
		if errors.Is(err, deckapi.ErrNotReady) {
			return nil
		}
		report.Recommendation = r
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	cacheArtifact(ctx, db, deckID, model.ArtifactAnalytics, report.Analytics, &missing)
	cacheArtifact(ctx, db, deckID, model.ArtifactSWOT, report.SWOT, &missing)
	cacheArtifact(ctx, db, deckID, model.ArtifactPESTLE, report.PESTLE, &missing)
	cacheArtifact(ctx, db, deckID, model.ArtifactRecommendation, report.Recommendation, &missing)
	report.Missing = missing

	return report, nil
}

// cacheArtifact persists a fetched artifact, or records it as missing when
// the backend has not computed it yet. Cache failures are logged and ignored.
func cacheArtifact[T any](ctx context.Context, db store.Store, deckID string, kind model.ArtifactKind, artifact *T, missing *[]string) {
	if artifact == nil {
		*missing = append(*missing, string(kind))
		return
	}
	data, err := json.Marshal(artifact)
	if err != nil {
		zap.L().Warn("failed to marshal artifact for cache", zap.String("kind", string(kind)), zap.Error(err))
		return
	}
	rec := model.ArtifactRecord{
		DeckID:    deckID,
		Kind:      kind,
		Status:    model.ArtifactCompleted,
		Data:      data,
		UpdatedAt: time.Now().UTC(),
	}
	if err := db.SaveArtifact(ctx, rec); err != nil {
		zap.L().Warn("failed to cache artifact", zap.String("kind", string(kind)), zap.Error(err))
	}
}

func printReport(report *deckReport) {
	if report.Deck != nil {
		fmt.Printf("Deck %s (%s)\n\n", report.Deck.UUID, report.Deck.FileName)
	}
	if report.Summary != nil {
		fmt.Println(render.Summary(report.Summary))
	}
	if report.Analytics != nil {
		fmt.Println(render.Analytics(report.Analytics))
	}
	if report.SWOT != nil {
		fmt.Println(render.SWOT(report.SWOT))
	}
	if report.PESTLE != nil {
		fmt.Println(render.PESTLE(report.PESTLE))
	}
	if report.Recommendation != nil {
		fmt.Println(render.Recommendation(report.Recommendation))
	}
	if len(report.Missing) > 0 {
		fmt.Printf("not yet computed: %v\n", report.Missing)
	}
}

func init() {
	reportCmd.Flags().StringVar(&reportFormat, "format", "text", "output format: text, json, or yaml")
	rootCmd.AddCommand(reportCmd)
}
