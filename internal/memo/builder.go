// Package memo implements the priority-memo builder: per-item trust
// scoring, recency, priority buckets P0-P3 and the derived pool indices
// handed to the editorial selector.
package memo

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"curator/internal/core"
)

// Config holds the scoring thresholds. Injected so tests can vary them
// without touching global state.
type Config struct {
	FollowedCreatorTrust float64 // Trust at or above this puts an item in P0
	MultiSourceMin       int     // Unique publishers needed for a multi-source signal
	UrgentHours          float64 // Hours-since-published bound for "urgent"
	TimelyHours          float64 // Hours-since-published bound for "timely"
	DefaultTrust         float64 // Trust when no profile and no declared authority
	DeclaredAuthTrust    float64 // Trust when the feed declares authority but no profile matches
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		FollowedCreatorTrust: 0.95,
		MultiSourceMin:       3,
		UrgentHours:          6,
		TimelyHours:          24,
		DefaultTrust:         0.3,
		DeclaredAuthTrust:    0.5,
	}
}

// trustEpsilon guards the exact-equality trust tiers against float noise.
const trustEpsilon = 1e-9

// Builder assembles the priority memo.
type Builder struct {
	config Config
	log    zerolog.Logger
}

// NewBuilder creates a memo builder.
func NewBuilder(config Config, log zerolog.Logger) *Builder {
	return &Builder{config: config, log: log.With().Str("stage", "memo").Logger()}
}

// Build merges enrichment, trust, cluster membership and anomaly flags into
// one read-only memo. now is the memo-build time used for recency. The
// first occurrence of a duplicated fingerprint is authoritative; later
// occurrences do not produce a second snapshot.
func (b *Builder) Build(
	items []core.EnrichedItem,
	clusters []core.Cluster,
	flags map[string]core.AnomalyFlags,
	userProfile *core.UserProfile,
	now time.Time,
) *core.PriorityMemo {
	clusterOf := make(map[string]*core.Cluster, len(items))
	for i := range clusters {
		for _, it := range clusters[i].Items {
			if _, taken := clusterOf[it.Fingerprint]; !taken {
				clusterOf[it.Fingerprint] = &clusters[i]
			}
		}
	}

	m := &core.PriorityMemo{
		Date:    now,
		ByPrint: make(map[string]*core.ItemSnapshot, len(items)),
	}

	for _, it := range items {
		if _, dup := m.ByPrint[it.Fingerprint]; dup {
			continue
		}

		trust := b.resolveTrust(it, userProfile)
		c := clusterOf[it.Fingerprint]
		snapshot := b.buildSnapshot(it, c, trust, flags[it.Fingerprint], now)

		m.Items = append(m.Items, snapshot)
		m.ByPrint[it.Fingerprint] = &m.Items[len(m.Items)-1]
	}

	for _, c := range clusters {
		prints := make([]string, 0, len(c.Items))
		for _, it := range c.Items {
			prints = append(prints, it.Fingerprint)
		}
		m.Clusters = append(m.Clusters, core.ClusterSnapshot{
			ID:                  c.ID,
			Theme:               c.Theme,
			Category:            c.Category,
			Class:               c.Class,
			Confidence:          c.Confidence,
			SemanticConsistency: c.SemanticConsistency,
			TopicEntropy:        c.TopicEntropy,
			PublisherCount:      len(c.Metadata.Publishers),
			Publishers:          c.Metadata.Publishers,
			ItemFingerprints:    prints,
		})
	}

	m.Pools = buildPools(m)
	m.Guidance = Guidance

	b.log.Info().
		Int("items", len(m.Items)).
		Int("clusters", len(m.Clusters)).
		Int("p0", len(m.Pools.P0CreatorPool)).
		Int("p1_clusters", len(m.Pools.P1HotTopicClusters)).
		Int("p2_clusters", len(m.Pools.P2SingleSourceClusters)).
		Int("p3", len(m.Pools.P3NoiseItems)).
		Msg("memo built")

	return m
}

// buildSnapshot computes the bucket set and annotations for one item.
func (b *Builder) buildSnapshot(
	it core.EnrichedItem,
	c *core.Cluster,
	trust float64,
	itemFlags core.AnomalyFlags,
	now time.Time,
) core.ItemSnapshot {
	var buckets []core.Bucket
	if trust >= b.config.FollowedCreatorTrust {
		buckets = append(buckets, core.BucketP0)
	}

	var clusterID string
	var multiSource *core.MultiSourceSignal
	if c != nil {
		clusterID = c.ID
		switch c.Class {
		case core.ClusterHotTopic:
			buckets = append(buckets, core.BucketP1)
		case core.ClusterSingleSource:
			buckets = append(buckets, core.BucketP2)
		}
		if len(c.Metadata.Publishers) >= b.config.MultiSourceMin {
			multiSource = &core.MultiSourceSignal{
				Topic:          c.Theme,
				PublisherCount: len(c.Metadata.Publishers),
				Confidence:     c.Confidence,
			}
		}
	}

	// P3 is the exclusive fallback: assigned iff nothing else applied.
	if len(buckets) == 0 {
		buckets = append(buckets, core.BucketP3)
	}

	hours := hoursSince(it.PublishedAt, now)

	return core.ItemSnapshot{
		Fingerprint: it.Fingerprint,
		Title:       it.Title,
		Link:        it.Link,
		Publisher:   it.Source.Publisher,
		PublishedAt: it.PublishedAt,
		AISummary:   it.AISummary,
		Language:    it.Language,
		ClusterID:   clusterID,
		TrustScore:  trust,
		Buckets:     buckets,
		Annotations: core.Annotations{
			TrustLevel:  trustLevel(trust),
			MultiSource: multiSource,
			Urgency:     b.urgency(hours),
			HoursOld:    hours,
		},
		Flags: itemFlags,
	}
}

// resolveTrust resolves an item's trust score in order: explicit per-URL
// weight in the profile, then named key publisher (full trust), then the
// static defaults.
func (b *Builder) resolveTrust(it core.EnrichedItem, userProfile *core.UserProfile) float64 {
	if userProfile != nil {
		if w, ok := userProfile.SourceWeights[it.Source.URL]; ok {
			return w
		}
		for _, publisher := range userProfile.KeyPublishers {
			if publisher == it.Source.Publisher {
				return 1.0
			}
		}
	}
	if it.Source.Authority > 0 {
		return b.config.DeclaredAuthTrust
	}
	return b.config.DefaultTrust
}

// urgency maps hours since publication to the urgency label.
func (b *Builder) urgency(hours float64) core.Urgency {
	switch {
	case hours <= b.config.UrgentHours:
		return core.UrgencyUrgent
	case hours <= b.config.TimelyHours:
		return core.UrgencyTimely
	default:
		return core.UrgencyEvergreen
	}
}

// trustLevel uses exact-equality tiers: 1.0 is high, 0.8 is medium,
// everything else low.
func trustLevel(trust float64) core.TrustLevel {
	switch {
	case math.Abs(trust-1.0) < trustEpsilon:
		return core.TrustHigh
	case math.Abs(trust-0.8) < trustEpsilon:
		return core.TrustMedium
	default:
		return core.TrustLow
	}
}

// hoursSince returns hours between published and now, rounded to one
// decimal and floored at zero for clock skew.
func hoursSince(published, now time.Time) float64 {
	hours := now.Sub(published).Hours()
	if hours < 0 {
		hours = 0
	}
	return math.Round(hours*10) / 10
}

// buildPools derives the pool index views from the snapshots.
func buildPools(m *core.PriorityMemo) core.MemoPools {
	var pools core.MemoPools
	for _, item := range m.Items {
		if item.HasBucket(core.BucketP0) {
			pools.P0CreatorPool = append(pools.P0CreatorPool, item.Fingerprint)
		}
		if item.HasBucket(core.BucketP3) {
			pools.P3NoiseItems = append(pools.P3NoiseItems, item.Fingerprint)
		}
	}
	for _, c := range m.Clusters {
		switch c.Class {
		case core.ClusterHotTopic:
			pools.P1HotTopicClusters = append(pools.P1HotTopicClusters, c.ID)
		case core.ClusterSingleSource:
			pools.P2SingleSourceClusters = append(pools.P2SingleSourceClusters, c.ID)
		}
	}
	return pools
}
