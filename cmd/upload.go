package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/decklens/decklens-cli/internal/resilience"
	"github.com/decklens/decklens-cli/pkg/deckapi"
)

var uploadWatch bool

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a pitch deck for analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		api := newAPIClient()

		retryCfg := resilience.DefaultRetryConfig()
		retryCfg.ShouldRetry = shouldRetryAPI
		retryCfg.OnRetry = resilience.RetryLogger("upload deck")

		deck, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (*deckapi.Deck, error) {
			return api.UploadDeck(ctx, args[0])
		})
		if err != nil {
			return err
		}

		fmt.Printf("uploaded %s\n", deck.FileName)
		fmt.Printf("deck id: %s\n", deck.UUID)

		if uploadWatch {
			return watchDeck(ctx, deck.UUID, deck.CurrentStep)
		}
		return nil
	},
}

// shouldRetryAPI retries transient network failures and retryable HTTP
// statuses; everything else fails fast.
func shouldRetryAPI(err error) bool {
	var apiErr *deckapi.APIError
	if errors.As(err, &apiErr) {
		return resilience.IsTransientHTTPStatus(apiErr.StatusCode)
	}
	return resilience.IsTransient(err)
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadWatch, "watch", false, "watch the analysis pipeline after upload")
	rootCmd.AddCommand(uploadCmd)
}
