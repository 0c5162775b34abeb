package poll

import (
	"context"

	"github.com/decklens/decklens-cli/pkg/deckapi"
)

// The four artifact pollers are thin bindings over one engine; they differ
// only in the fetch operation.

// Analytics creates a poller for the VC-scoring artifact.
func Analytics(c deckapi.Client, deckID string, opts ...Option) *Poller[*deckapi.Analytics] {
	return New(deckID, func(ctx context.Context, id string) (*deckapi.Analytics, error) {
		return c.GetAnalytics(ctx, id)
	}, opts...)
}

// SWOT creates a poller for the SWOT artifact.
func SWOT(c deckapi.Client, deckID string, opts ...Option) *Poller[*deckapi.SWOT] {
	return New(deckID, func(ctx context.Context, id string) (*deckapi.SWOT, error) {
		return c.GetSWOT(ctx, id)
	}, opts...)
}

// PESTLE creates a poller for the PESTLE artifact.
func PESTLE(c deckapi.Client, deckID string, opts ...Option) *Poller[*deckapi.PESTLE] {
	return New(deckID, func(ctx context.Context, id string) (*deckapi.PESTLE, error) {
		return c.GetPESTLE(ctx, id)
	}, opts...)
}

// Recommendation creates a poller for the investment recommendation artifact.
func Recommendation(c deckapi.Client, deckID string, opts ...Option) *Poller[*deckapi.Recommendation] {
	return New(deckID, func(ctx context.Context, id string) (*deckapi.Recommendation, error) {
		return c.GetRecommendation(ctx, id)
	}, opts...)
}
