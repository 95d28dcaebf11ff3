package pipeline

import (
	"context"
	"time"

	"curator/internal/anomaly"
	"curator/internal/core"
	"curator/internal/enrich"
)

// AnomalyTagger fingerprints a batch and flags ads, duplicates and
// low-frequency sources without removing anything.
type AnomalyTagger interface {
	Tag(items []core.RawItem) anomaly.Result
}

// EnrichmentRunner produces summaries, embeddings and language labels for
// every tagged item, degrading per-item failures instead of propagating
// them.
type EnrichmentRunner interface {
	Run(ctx context.Context, items []core.TaggedItem) ([]core.EnrichedItem, enrich.Stats, error)
}

// ClusterBuilder groups enriched items into metric-annotated topic clusters
// plus a noise set. A failure here is stage-fatal.
type ClusterBuilder interface {
	Build(ctx context.Context, items []core.EnrichedItem) ([]core.Cluster, []core.EnrichedItem, error)
}

// MemoBuilder assembles the priority memo from the scoring inputs.
type MemoBuilder interface {
	Build(
		items []core.EnrichedItem,
		clusters []core.Cluster,
		flags map[string]core.AnomalyFlags,
		userProfile *core.UserProfile,
		now time.Time,
	) *core.PriorityMemo
}

// DigestSelector runs the editorial stage against the external editor LLM.
// Any schema violation or unknown reference is stage-fatal.
type DigestSelector interface {
	Select(ctx context.Context, m *core.PriorityMemo, interests string) (*core.DigestStructure, error)
}

// Renderer turns the digest structure into its output document.
type Renderer interface {
	Render(structure *core.DigestStructure) (string, error)
}

// ProfileSource supplies the optional reader profile; (nil, nil) means no
// profile, which is a valid state.
type ProfileSource interface {
	Load() (*core.UserProfile, error)
}
