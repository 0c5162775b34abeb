package model

import "time"

// ArtifactKind identifies one independently fetched analysis artifact.
type ArtifactKind string

const (
	ArtifactAnalytics      ArtifactKind = "analytics"
	ArtifactSWOT           ArtifactKind = "swot"
	ArtifactPESTLE         ArtifactKind = "pestle"
	ArtifactRecommendation ArtifactKind = "recommendation"
)

// ArtifactKinds lists the polled artifact types in display order.
var ArtifactKinds = []ArtifactKind{
	ArtifactAnalytics,
	ArtifactSWOT,
	ArtifactPESTLE,
	ArtifactRecommendation,
}

// Valid reports whether k is a known artifact kind.
func (k ArtifactKind) Valid() bool {
	for _, kind := range ArtifactKinds {
		if kind == k {
			return true
		}
	}
	return false
}

// ArtifactStatus is the cached lifecycle status of an artifact.
type ArtifactStatus string

const (
	ArtifactPending    ArtifactStatus = "pending"
	ArtifactProcessing ArtifactStatus = "processing"
	ArtifactCompleted  ArtifactStatus = "completed"
	ArtifactFailed     ArtifactStatus = "failed"
)

// ArtifactRecord is the locally cached state of one artifact for one deck.
// Data is non-nil iff Status is ArtifactCompleted.
type ArtifactRecord struct {
	DeckID    string         `json:"deck_id"`
	Kind      ArtifactKind   `json:"kind"`
	Status    ArtifactStatus `json:"status"`
	Data      []byte         `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}
