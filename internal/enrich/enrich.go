// Package enrich implements the enrichment stage: per-item one-sentence
// summaries, summary embeddings and language detection, produced by an
// external adapter under bounded concurrency. Per-item failures degrade to
// a fallback value instead of failing the batch.
package enrich

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"curator/internal/core"
	"curator/internal/retry"
)

// Enrichment is the adapter's per-item output.
type Enrichment struct {
	Summary   string
	Embedding []float64
	Language  core.Language
}

// Adapter produces an enrichment for a single item. Implementations must be
// safe for concurrent calls.
type Adapter interface {
	Enrich(ctx context.Context, item core.TaggedItem) (Enrichment, error)
}

// Config controls the batch runner.
type Config struct {
	BatchSize int          // Items processed concurrently before the next batch starts
	Retry     retry.Policy // Per-item retry policy
}

// DefaultConfig returns the batching defaults used in production runs.
func DefaultConfig() Config {
	return Config{
		BatchSize: 8,
		Retry:     retry.DefaultPolicy(),
	}
}

// Stats counts the runner's outcomes.
type Stats struct {
	Enriched  int // Items enriched by the adapter
	Fallbacks int // Items that exhausted retries and got the degraded value
}

// Runner drives the adapter over a batch of items.
type Runner struct {
	adapter Adapter
	config  Config
	log     zerolog.Logger
}

// NewRunner creates a batch runner around the given adapter.
func NewRunner(adapter Adapter, config Config, log zerolog.Logger) *Runner {
	if config.BatchSize < 1 {
		config.BatchSize = 1
	}
	return &Runner{
		adapter: adapter,
		config:  config,
		log:     log.With().Str("stage", "enrich").Logger(),
	}
}

// Run enriches every item, processing config.BatchSize items concurrently
// and waiting for each batch to settle before starting the next. Each item
// appears exactly once in the output, in input order. Per-item failures are
// retried per the policy and then degraded (title as summary, empty
// embedding); they never fail the batch. When ctx is cancelled, in-flight
// calls finish, no further batch starts, and ctx.Err() is returned along
// with the items completed so far.
func (r *Runner) Run(ctx context.Context, items []core.TaggedItem) ([]core.EnrichedItem, Stats, error) {
	results := make([]core.EnrichedItem, len(items))
	var (
		mu    sync.Mutex
		stats Stats
	)

	for start := 0; start < len(items); start += r.config.BatchSize {
		if err := ctx.Err(); err != nil {
			return results[:start], stats, err
		}

		end := start + r.config.BatchSize
		if end > len(items) {
			end = len(items)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				enriched, fellBack := r.enrichOne(ctx, items[i])
				mu.Lock()
				results[i] = enriched
				if fellBack {
					stats.Fallbacks++
				} else {
					stats.Enriched++
				}
				mu.Unlock()
			}(i)
		}
		wg.Wait()

		r.log.Debug().
			Int("batch_end", end).
			Int("total", len(items)).
			Msg("batch settled")
	}

	r.log.Info().
		Int("enriched", stats.Enriched).
		Int("fallbacks", stats.Fallbacks).
		Msg("enrichment complete")

	return results, stats, nil
}

// enrichOne runs the adapter with retries and applies the degraded fallback
// on exhaustion: the title stands in for the summary and the embedding stays
// empty, which downstream similarity treats as zero.
func (r *Runner) enrichOne(ctx context.Context, item core.TaggedItem) (core.EnrichedItem, bool) {
	var enrichment Enrichment
	err := r.config.Retry.Do(ctx, func(ctx context.Context) error {
		var callErr error
		enrichment, callErr = r.adapter.Enrich(ctx, item)
		return callErr
	})
	if err != nil {
		r.log.Warn().
			Err(err).
			Str("fingerprint", item.Fingerprint).
			Msg("enrichment exhausted retries, using fallback")
		return core.EnrichedItem{
			TaggedItem: item,
			AISummary:  item.Title,
			Language:   DetectLanguage(item.Title),
		}, true
	}

	language := enrichment.Language
	if language == "" {
		language = DetectLanguage(item.Title + " " + enrichment.Summary)
	}

	return core.EnrichedItem{
		TaggedItem:       item,
		AISummary:        enrichment.Summary,
		SummaryEmbedding: enrichment.Embedding,
		Language:         language,
	}, false
}
