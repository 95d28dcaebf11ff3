// Package cluster implements the cluster-builder stage. Raw grouping is
// delegated to an external density-based clustering service; this package
// supplies the embeddings, consumes the returned groups and computes the
// per-cluster metrics and classification the memo builder depends on.
package cluster

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"curator/internal/core"
)

// Service is the external clustering collaborator. It receives items with
// embeddings and returns fingerprint groups plus a noise set.
type Service interface {
	Cluster(ctx context.Context, req ServiceRequest) (ServiceResponse, error)
}

// ServiceRequest is the clustering call input.
type ServiceRequest struct {
	Items          []ServiceItem `json:"items"`
	MinClusterSize int           `json:"min_cluster_size"`
	Metric         string        `json:"metric"`
}

// ServiceItem pairs a fingerprint with its embedding.
type ServiceItem struct {
	Fingerprint string    `json:"fingerprint"`
	Embedding   []float64 `json:"embedding"`
}

// ServiceResponse is the clustering call output.
type ServiceResponse struct {
	Clusters []ServiceGroup `json:"clusters"`
	Noise    []string       `json:"noise_items"`
}

// ServiceGroup is one raw cluster of fingerprints.
type ServiceGroup struct {
	ID    int      `json:"cluster_id"`
	Items []string `json:"items"`
}

// Theme is the theme generator's output for one cluster.
type Theme struct {
	Theme     string
	Category  string
	Reasoning string
}

// ThemeGenerator names a cluster from its item summaries. Implementations
// must coerce the category to the fixed set in core.Categories.
type ThemeGenerator interface {
	GenerateTheme(ctx context.Context, items []core.EnrichedItem) (Theme, error)
}

// Config holds the cluster builder's tunables.
type Config struct {
	MinClusterSize  int    // Minimum items per cluster for the service call
	Metric          string // Distance metric passed to the service
	MaxPerPublisher int    // Uniform sampling cap before clustering
	ThemeBatchSize  int    // Theme-generation calls in flight per batch
}

// DefaultConfig mirrors the production clustering parameters.
func DefaultConfig() Config {
	return Config{
		MinClusterSize:  3,
		Metric:          "cosine",
		MaxPerPublisher: 3,
		ThemeBatchSize:  4,
	}
}

// Fallback theme used when theme generation fails. Never an error.
var fallbackTheme = Theme{
	Theme:     "Emerging topic",
	Category:  core.CategoryOther,
	Reasoning: "Theme generation unavailable; grouped by embedding similarity only.",
}

// Builder turns enriched items into metric-annotated clusters.
type Builder struct {
	service Service
	themes  ThemeGenerator
	config  Config
	log     zerolog.Logger
}

// NewBuilder creates a cluster builder.
func NewBuilder(service Service, themes ThemeGenerator, config Config, log zerolog.Logger) *Builder {
	if config.MinClusterSize < 2 {
		config.MinClusterSize = 2
	}
	if config.ThemeBatchSize < 1 {
		config.ThemeBatchSize = 1
	}
	return &Builder{
		service: service,
		themes:  themes,
		config:  config,
		log:     log.With().Str("stage", "cluster").Logger(),
	}
}

// Build groups the items into clusters and computes per-cluster metrics.
// Items without embeddings and items trimmed by per-publisher sampling go
// straight to the noise set without reaching the service. The returned
// clusters are sorted descending by confidence. A service failure is
// stage-fatal and returned to the caller.
func (b *Builder) Build(ctx context.Context, items []core.EnrichedItem) ([]core.Cluster, []core.EnrichedItem, error) {
	byPrint := make(map[string]core.EnrichedItem, len(items))
	var embedded []core.EnrichedItem
	var noise []core.EnrichedItem

	for _, it := range items {
		byPrint[it.Fingerprint] = it
		if len(it.SummaryEmbedding) > 0 {
			embedded = append(embedded, it)
		} else {
			noise = append(noise, it)
		}
	}

	sampled, trimmed := samplePerPublisher(embedded, b.config.MaxPerPublisher)
	noise = append(noise, trimmed...)

	if len(sampled) < b.config.MinClusterSize {
		b.log.Info().
			Int("embedded", len(sampled)).
			Int("min_cluster_size", b.config.MinClusterSize).
			Msg("too few embedded items, skipping clustering call")
		return nil, append(noise, sampled...), nil
	}

	req := ServiceRequest{
		Items:          make([]ServiceItem, 0, len(sampled)),
		MinClusterSize: b.config.MinClusterSize,
		Metric:         b.config.Metric,
	}
	for _, it := range sampled {
		req.Items = append(req.Items, ServiceItem{Fingerprint: it.Fingerprint, Embedding: it.SummaryEmbedding})
	}

	resp, err := b.service.Cluster(ctx, req)
	if err != nil {
		return nil, nil, fmt.Errorf("clustering service: %w", err)
	}

	for _, print := range resp.Noise {
		if it, ok := byPrint[print]; ok {
			noise = append(noise, it)
		}
	}

	clusters := make([]core.Cluster, 0, len(resp.Clusters))
	for _, group := range resp.Clusters {
		members := make([]core.EnrichedItem, 0, len(group.Items))
		for _, print := range group.Items {
			if it, ok := byPrint[print]; ok {
				members = append(members, it)
			}
		}
		if len(members) == 0 {
			continue
		}
		clusters = append(clusters, b.buildCluster(group.ID, members))
	}

	b.generateThemes(ctx, clusters)

	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].Confidence > clusters[j].Confidence
	})

	b.log.Info().
		Int("clusters", len(clusters)).
		Int("noise", len(noise)).
		Int("sampled", len(sampled)).
		Msg("clustering complete")

	return clusters, noise, nil
}

// buildCluster computes the metrics and classification for one raw group.
func (b *Builder) buildCluster(id int, members []core.EnrichedItem) core.Cluster {
	publishers := uniquePublishers(members)
	consistency := semanticConsistency(members)
	entropy := topicEntropy(members)
	authority := avgAuthority(members)

	class := core.ClusterSingleSource
	if len(publishers) >= 2 {
		class = core.ClusterHotTopic
	}

	return core.Cluster{
		ID:                  fmt.Sprintf("cluster_%d", id),
		Confidence:          confidence(consistency, entropy, len(members), authority),
		SemanticConsistency: consistency,
		TopicEntropy:        entropy,
		Class:               class,
		Items:               members,
		Metadata: core.ClusterMetadata{
			Size:         len(members),
			AvgAuthority: authority,
			Publishers:   publishers,
		},
	}
}

// generateThemes fills in theme, category and reasoning for each cluster,
// issuing theme calls in bounded batches. Failures fall back to the fixed
// placeholder; theme generation never fails the stage.
func (b *Builder) generateThemes(ctx context.Context, clusters []core.Cluster) {
	for start := 0; start < len(clusters); start += b.config.ThemeBatchSize {
		end := start + b.config.ThemeBatchSize
		if end > len(clusters) {
			end = len(clusters)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				theme, err := b.themes.GenerateTheme(ctx, clusters[i].Items)
				if err != nil {
					b.log.Warn().
						Err(err).
						Str("cluster", clusters[i].ID).
						Msg("theme generation failed, using placeholder")
					theme = fallbackTheme
				}
				clusters[i].Theme = theme.Theme
				clusters[i].Category = core.NormalizeCategory(theme.Category)
				clusters[i].Reasoning = theme.Reasoning
			}(i)
		}
		wg.Wait()
	}
}

// samplePerPublisher caps items per publisher at max, keeping input order.
// Items over the cap are returned separately and join the noise set.
func samplePerPublisher(items []core.EnrichedItem, max int) (sampled, trimmed []core.EnrichedItem) {
	if max <= 0 {
		return items, nil
	}
	counts := make(map[string]int, len(items))
	for _, it := range items {
		if counts[it.Source.Publisher] < max {
			sampled = append(sampled, it)
			counts[it.Source.Publisher]++
		} else {
			trimmed = append(trimmed, it)
		}
	}
	return sampled, trimmed
}
