package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/decklens/decklens-cli/internal/render"
)

var statusCmd = &cobra.Command{
	Use:   "status <deck-id>",
	Short: "Show the last-known and live pipeline status for a deck",
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

		snap, err := db.GetPipeline(ctx, deckID)
		if err != nil {
			return err
		}
		if snap != nil {
			fmt.Println(render.StageBoard(*snap))
		} else {
			fmt.Println("no local snapshot for this deck")
		}

		deck, err := newAPIClient().GetDeck(ctx, deckID)
		if err != nil {
			return err
		}
		fmt.Printf("\nserver: %s (current step: %s)\n", deck.Status, deck.CurrentStep)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
