// Package feeds is the thin RSS/Atom ingestion adapter in front of the
// pipeline: it fetches configured feeds and hands back raw items. None of
// the prioritization logic lives here.
package feeds

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"curator/internal/core"
)

// FeedSpec describes one subscribed feed.
type FeedSpec struct {
	URL           string             `json:"url"`
	Publisher     string             `json:"publisher"`      // Overrides the feed's own title when set
	PublisherType core.PublisherType `json:"publisher_type"` // Defaults to "media"
	Authority     float64            `json:"authority"`      // Declared authority in [0,1]
	Weight        float64            `json:"weight"`
	Topics        []string           `json:"topics"`
}

// Fetcher pulls raw items from feeds with bounded concurrency.
type Fetcher struct {
	parser      *gofeed.Parser
	concurrency int
	maxAge      time.Duration
	log         zerolog.Logger
}

// NewFetcher creates a fetcher. maxAge limits how old an entry may be to be
// ingested; zero disables the age cutoff.
func NewFetcher(concurrency int, maxAge time.Duration, log zerolog.Logger) *Fetcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Fetcher{
		parser:      gofeed.NewParser(),
		concurrency: concurrency,
		maxAge:      maxAge,
		log:         log.With().Str("component", "feeds").Logger(),
	}
}

// FetchAll fetches every feed and flattens the results. Per-feed failures
// are logged and skipped; the batch only fails when the context is done.
func (f *Fetcher) FetchAll(ctx context.Context, specs []FeedSpec) ([]core.RawItem, error) {
	sem := make(chan struct{}, f.concurrency)
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		items []core.RawItem
	)

	for _, spec := range specs {
		if err := ctx.Err(); err != nil {
			break
		}
		wg.Add(1)
		go func(spec FeedSpec) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			fetched, err := f.fetchOne(ctx, spec)
			if err != nil {
				f.log.Warn().Err(err).Str("feed", spec.URL).Msg("feed fetch failed, skipping")
				return
			}
			mu.Lock()
			items = append(items, fetched...)
			mu.Unlock()
		}(spec)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return items, err
	}

	f.log.Info().Int("feeds", len(specs)).Int("items", len(items)).Msg("ingestion complete")
	return items, nil
}

// fetchOne parses a single feed into raw items.
func (f *Fetcher) fetchOne(ctx context.Context, spec FeedSpec) ([]core.RawItem, error) {
	feed, err := f.parser.ParseURLWithContext(spec.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", spec.URL, err)
	}

	publisher := spec.Publisher
	if publisher == "" {
		publisher = feed.Title
	}
	publisherType := spec.PublisherType
	if publisherType == "" {
		publisherType = core.PublisherTypeMedia
	}

	source := core.Source{
		URL:           spec.URL,
		Title:         feed.Title,
		Publisher:     publisher,
		PublisherType: publisherType,
		Authority:     spec.Authority,
		Weight:        spec.Weight,
		Topics:        spec.Topics,
	}

	cutoff := time.Time{}
	if f.maxAge > 0 {
		cutoff = time.Now().Add(-f.maxAge)
	}

	var items []core.RawItem
	for _, entry := range feed.Items {
		published := time.Now()
		if entry.PublishedParsed != nil {
			published = *entry.PublishedParsed
		} else if entry.UpdatedParsed != nil {
			published = *entry.UpdatedParsed
		}
		if !cutoff.IsZero() && published.Before(cutoff) {
			continue
		}

		items = append(items, core.RawItem{
			Title:       entry.Title,
			Link:        entry.Link,
			Description: entry.Description,
			Content:     entry.Content,
			PublishedAt: published,
			Source:      source,
		})
	}

	return items, nil
}
