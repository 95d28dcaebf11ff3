// Package pipeline orchestrates the digest-generation run: a linear pass
// through anomaly tagging, enrichment, clustering, memo building, editorial
// selection and rendering. Stages never mutate a prior stage's output; a
// stage failure aborts the run with the failing stage attached.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"curator/internal/core"
)

// Stage identifies a pipeline stage in state and failure reporting.
type Stage string

const (
	StageAnomaly   Stage = "anomaly_tagger"
	StageEnrich    Stage = "enrichment"
	StageCluster   Stage = "cluster_builder"
	StageMemo      Stage = "priority_memo"
	StageEditorial Stage = "editorial_selector"
	StageRender    Stage = "renderer"
)

// State is the pipeline's progress marker. Transitions are linear with no
// cycles and no inter-stage retries.
type State string

const (
	StateIdle          State = "idle"
	StateAnomalyTagged State = "anomaly_tagged"
	StateEnriched      State = "enriched"
	StateClustered     State = "clustered"
	StateMemoBuilt     State = "memo_built"
	StatePlanSelected  State = "plan_selected"
	StateRendered      State = "rendered"
	StateFailed        State = "failed"
)

// Status is the run's terminal outcome.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusEmpty     Status = "empty"     // Zero-content terminal, not an error
	StatusCancelled Status = "cancelled" // Aborted by the caller's context
	StatusFailed    Status = "failed"    // Stage-fatal failure
)

// StageError is the single structured failure a run surfaces: the failing
// stage plus a human-readable cause. Lower-level per-item errors never
// reach this type.
type StageError struct {
	Stage Stage
	Cause error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline stage %s failed: %v", e.Stage, e.Cause)
}

func (e *StageError) Unwrap() error { return e.Cause }

// RunStats counts what the run processed.
type RunStats struct {
	ItemsIn         int
	Ads             int
	Duplicates      int
	LowFrequency    int
	Enriched        int
	EnrichFallbacks int
	Clusters        int
	NoiseItems      int
	Elapsed         time.Duration
}

// Result is the run's outcome. Digest and Output are set only on success.
type Result struct {
	RunID       string
	Status      Status
	State       State
	FailedStage Stage
	Digest      *core.DigestStructure
	Output      string
	Stats       RunStats
}

// Options configure a single run.
type Options struct {
	RunID     string // Caller-assigned run identity for logs
	Interests string // Optional free-text reader interests for the editor
}

// Pipeline wires the stage collaborators together.
type Pipeline struct {
	tagger   AnomalyTagger
	enricher EnrichmentRunner
	clusters ClusterBuilder
	memo     MemoBuilder
	selector DigestSelector
	renderer Renderer
	profiles ProfileSource
	now      func() time.Time
	log      zerolog.Logger
}

// New creates a pipeline from its collaborators.
func New(
	tagger AnomalyTagger,
	enricher EnrichmentRunner,
	clusters ClusterBuilder,
	memoBuilder MemoBuilder,
	selector DigestSelector,
	renderer Renderer,
	profiles ProfileSource,
	log zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		tagger:   tagger,
		enricher: enricher,
		clusters: clusters,
		memo:     memoBuilder,
		selector: selector,
		renderer: renderer,
		profiles: profiles,
		now:      time.Now,
		log:      log.With().Str("component", "pipeline").Logger(),
	}
}

// Run executes the full pipeline over one batch of raw items. On a stage
// failure it returns the partially-populated Result alongside a *StageError;
// zero content and cancellation are statuses, not errors.
func (p *Pipeline) Run(ctx context.Context, items []core.RawItem, opts Options) (*Result, error) {
	start := p.now()
	log := p.log.With().Str("run_id", opts.RunID).Logger()
	result := &Result{
		RunID:  opts.RunID,
		State:  StateIdle,
		Status: StatusFailed,
		Stats:  RunStats{ItemsIn: len(items)},
	}
	defer func() { result.Stats.Elapsed = p.now().Sub(start) }()

	log.Info().Int("items", len(items)).Msg("run started")

	// Stage 1: anomaly tagging. Pure computation, cannot fail; the
	// zero-content condition is checked right after.
	tagged := p.tagger.Tag(items)
	result.Stats.Ads, result.Stats.Duplicates, result.Stats.LowFrequency = tagged.Stats()
	result.State = StateAnomalyTagged

	if !hasContent(tagged.Items) {
		result.Status = StatusEmpty
		log.Info().Msg("no content in batch, empty digest outcome")
		return result, nil
	}

	flags := make(map[string]core.AnomalyFlags, len(tagged.Flags))
	for _, f := range tagged.Flags {
		if _, dup := flags[f.Fingerprint]; !dup {
			flags[f.Fingerprint] = f
		}
	}

	// Stage 2: enrichment. Per-item failures degrade inside the runner;
	// only cancellation surfaces here.
	enriched, enrichStats, err := p.enricher.Run(ctx, tagged.Items)
	if err != nil {
		return p.finish(result, log, StageEnrich, err)
	}
	result.Stats.Enriched = enrichStats.Enriched
	result.Stats.EnrichFallbacks = enrichStats.Fallbacks
	result.State = StateEnriched

	// Stage 3: clustering. Service errors are stage-fatal.
	clusters, noise, err := p.clusters.Build(ctx, enriched)
	if err != nil {
		return p.finish(result, log, StageCluster, err)
	}
	result.Stats.Clusters = len(clusters)
	result.Stats.NoiseItems = len(noise)
	result.State = StateClustered

	// Stage 4: memo building. The profile source may legitimately return
	// no profile; a read error is stage-fatal.
	userProfile, err := p.profiles.Load()
	if err != nil {
		return p.finish(result, log, StageMemo, err)
	}
	m := p.memo.Build(enriched, clusters, flags, userProfile, p.now())
	result.State = StateMemoBuilt

	// Stage 5: editorial selection.
	digest, err := p.selector.Select(ctx, m, opts.Interests)
	if err != nil {
		return p.finish(result, log, StageEditorial, err)
	}
	result.Digest = digest
	result.State = StatePlanSelected

	// Stage 6: rendering.
	output, err := p.renderer.Render(digest)
	if err != nil {
		return p.finish(result, log, StageRender, err)
	}
	result.Output = output
	result.State = StateRendered
	result.Status = StatusSuccess

	log.Info().
		Int("clusters", result.Stats.Clusters).
		Int("enrich_fallbacks", result.Stats.EnrichFallbacks).
		Dur("elapsed", p.now().Sub(start)).
		Msg("run complete")

	return result, nil
}

// finish records a stage failure, mapping context cancellation to the
// cancelled status instead of a hard failure.
func (p *Pipeline) finish(result *Result, log zerolog.Logger, stage Stage, err error) (*Result, error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		result.Status = StatusCancelled
		result.State = StateFailed
		result.FailedStage = stage
		log.Warn().Str("stage", string(stage)).Msg("run cancelled")
		return result, nil
	}

	result.Status = StatusFailed
	result.State = StateFailed
	result.FailedStage = stage
	stageErr := &StageError{Stage: stage, Cause: err}
	log.Error().Err(err).Str("stage", string(stage)).Msg("run failed")
	return result, stageErr
}

// hasContent reports whether any item carries usable text. A batch of
// items with no title and no body is the zero-content terminal condition.
func hasContent(items []core.TaggedItem) bool {
	for _, it := range items {
		if strings.TrimSpace(it.Title) != "" ||
			strings.TrimSpace(it.Description) != "" ||
			strings.TrimSpace(it.Content) != "" {
			return true
		}
	}
	return false
}
