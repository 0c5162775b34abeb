package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/decklens/decklens-cli/internal/model"
	"github.com/decklens/decklens-cli/internal/poll"
	"github.com/decklens/decklens-cli/internal/render"
	"github.com/decklens/decklens-cli/internal/resilience"
	"github.com/decklens/decklens-cli/pkg/deckapi"
)

var generateWait bool

var generateCmd = &cobra.Command{
	Use:   "generate <kind> <deck-id>",
	Short: "Trigger computation of an analysis artifact",
	Long:  "Triggers server-side computation of one artifact (analytics, swot, pestle, recommendation). With --wait, polls until the artifact is ready and renders it.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		kind := model.ArtifactKind(args[0])
		deckID := args[1]
		if !kind.Valid() {
			return fmt.Errorf("unknown artifact kind %q (want one of %v)", kind, model.ArtifactKinds)
		}

		api := newAPIClient()

		retryCfg := resilience.DefaultRetryConfig()
		retryCfg.ShouldRetry = shouldRetryAPI
		retryCfg.OnRetry = resilience.RetryLogger("generate artifact")

		resp, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (*deckapi.GenerateResponse, error) {
			return api.Generate(ctx, deckID, kind)
		})
		if err != nil {
			return err
		}
		fmt.Printf("generation started: job %s (%s)\n", resp.JobID, resp.Status)

		if !generateWait {
			return nil
		}

		pollOpts := []poll.Option{
			poll.WithInterval(cfg.Poll.ArtifactInterval()),
			poll.WithMaxDuration(cfg.Poll.ArtifactTimeout()),
		}

		switch kind {
		case model.ArtifactAnalytics:
			snap, err := awaitPoller(ctx, poll.Analytics(api, deckID, pollOpts...))
			if err != nil {
				return err
			}
			fmt.Println(render.Analytics(snap.Data))
		case model.ArtifactSWOT:
			snap, err := awaitPoller(ctx, poll.SWOT(api, deckID, pollOpts...))
			if err != nil {
				return err
			}
			fmt.Println(render.SWOT(snap.Data))
		case model.ArtifactPESTLE:
			snap, err := awaitPoller(ctx, poll.PESTLE(api, deckID, pollOpts...))
			if err != nil {
				return err
			}
			fmt.Println(render.PESTLE(snap.Data))
		case model.ArtifactRecommendation:
			snap, err := awaitPoller(ctx, poll.Recommendation(api, deckID, pollOpts...))
			if err != nil {
				return err
			}
			fmt.Println(render.Recommendation(snap.Data))
		}
		return nil
	},
}

// awaitPoller starts the poller and blocks until it reaches a terminal
// state.
func awaitPoller[T any](ctx context.Context, p *poll.Poller[T]) (poll.Snapshot[T], error) {
	p.Start(ctx)
	defer p.Stop()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		snap := p.Snapshot()
		switch snap.Status {
		case poll.StatusReady:
			return snap, nil
		case poll.StatusError:
			return snap, snap.Err
		}

		select {
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-ticker.C:
		}
	}
}

func init() {
	generateCmd.Flags().BoolVar(&generateWait, "wait", false, "poll until the artifact is ready")
	rootCmd.AddCommand(generateCmd)
}
