package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/spf13/cobra"

	"github.com/decklens/decklens-cli/internal/model"
	"github.com/decklens/decklens-cli/internal/state"
	"github.com/decklens/decklens-cli/internal/tracker"
	"github.com/decklens/decklens-cli/internal/watchui"
)

var watchCmd = &cobra.Command{
	Use:   "watch <deck-id>",
	Short: "Watch a deck's analysis pipeline live",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return watchDeck(ctx, args[0], "")
	},
}

// watchDeck runs the tracker and the live dashboard until the pipeline
// finishes or the user quits.
func watchDeck(ctx context.Context, deckID string, initialStep model.Step) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	st := state.NewStore()
	tr := tracker.New(newAPIClient(), st,
		tracker.WithInterval(cfg.Poll.DeckInterval()),
		tracker.WithDB(db),
	)

	trackerDone := make(chan error, 1)
	go func() {
		trackerDone <- tr.Run(ctx, deckID, initialStep)
	}()

	program := tea.NewProgram(watchui.New(st))
	if _, err := program.Run(); err != nil {
		return err
	}

	// The UI exited (completion or user quit); stop the tracker if it is
	// still polling.
	cancel()
	if err := <-trackerDone; err != nil && !errors.Is(err, context.Canceled) {
		zap.L().Warn("tracker stopped with error", zap.Error(err))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
