package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"curator/internal/anomaly"
	"curator/internal/core"
	"curator/internal/enrich"
	"curator/internal/fingerprint"
)

// Stub collaborators. Each can be primed to fail so stage attribution and
// status mapping can be exercised without any real external service.

type stubTagger struct{}

func (stubTagger) Tag(items []core.RawItem) anomaly.Result {
	r := anomaly.Result{}
	for _, it := range items {
		print := fingerprint.Compute(it.Title, it.Link)
		r.Items = append(r.Items, core.TaggedItem{RawItem: it, Fingerprint: print})
		r.Flags = append(r.Flags, core.AnomalyFlags{Fingerprint: print})
	}
	return r
}

type stubEnricher struct{ err error }

func (s stubEnricher) Run(ctx context.Context, items []core.TaggedItem) ([]core.EnrichedItem, enrich.Stats, error) {
	if s.err != nil {
		return nil, enrich.Stats{}, s.err
	}
	out := make([]core.EnrichedItem, len(items))
	for i, it := range items {
		out[i] = core.EnrichedItem{
			TaggedItem:       it,
			AISummary:        "summary",
			SummaryEmbedding: []float64{1, 0},
			Language:         core.LanguageEnglish,
		}
	}
	return out, enrich.Stats{Enriched: len(items)}, nil
}

type stubClusters struct{ err error }

func (s stubClusters) Build(ctx context.Context, items []core.EnrichedItem) ([]core.Cluster, []core.EnrichedItem, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return nil, items, nil
}

type stubMemo struct{}

func (stubMemo) Build(
	items []core.EnrichedItem,
	clusters []core.Cluster,
	flags map[string]core.AnomalyFlags,
	userProfile *core.UserProfile,
	now time.Time,
) *core.PriorityMemo {
	m := &core.PriorityMemo{Date: now, ByPrint: map[string]*core.ItemSnapshot{}}
	for _, it := range items {
		m.Items = append(m.Items, core.ItemSnapshot{
			Fingerprint: it.Fingerprint,
			Title:       it.Title,
			Buckets:     []core.Bucket{core.BucketP3},
		})
	}
	for i := range m.Items {
		m.ByPrint[m.Items[i].Fingerprint] = &m.Items[i]
	}
	return m
}

type stubSelector struct{ err error }

func (s stubSelector) Select(ctx context.Context, m *core.PriorityMemo, interests string) (*core.DigestStructure, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &core.DigestStructure{
		Date: m.Date,
		Plan: core.DigestPlan{
			MustRead:      []core.PlanItem{{Fingerprint: m.Items[0].Fingerprint}},
			EditorialNote: "note",
		},
	}, nil
}

type stubRenderer struct{ err error }

func (s stubRenderer) Render(structure *core.DigestStructure) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "<html>digest</html>", nil
}

type stubProfiles struct{ err error }

func (s stubProfiles) Load() (*core.UserProfile, error) { return nil, s.err }

type stubs struct {
	enricher stubEnricher
	clusters stubClusters
	selector stubSelector
	renderer stubRenderer
	profiles stubProfiles
}

func newPipeline(s stubs) *Pipeline {
	return New(stubTagger{}, s.enricher, s.clusters, stubMemo{}, s.selector, s.renderer, s.profiles, zerolog.Nop())
}

func rawBatch() []core.RawItem {
	return []core.RawItem{
		{Title: "one", Link: "https://a.example/1", Source: core.Source{Publisher: "A"}},
		{Title: "two", Link: "https://b.example/2", Source: core.Source{Publisher: "B"}},
	}
}

func TestRunSucceedsEndToEnd(t *testing.T) {
	p := newPipeline(stubs{})

	result, err := p.Run(context.Background(), rawBatch(), Options{RunID: "run-1"})
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if result.Status != StatusSuccess {
		t.Errorf("Status = %s, want %s", result.Status, StatusSuccess)
	}
	if result.State != StateRendered {
		t.Errorf("State = %s, want %s", result.State, StateRendered)
	}
	if result.Output == "" || result.Digest == nil {
		t.Error("Expected digest and output on success")
	}
	if result.Stats.ItemsIn != 2 || result.Stats.Enriched != 2 {
		t.Errorf("Unexpected stats %+v", result.Stats)
	}
}

func TestRunEmptyBatchIsStatusNotError(t *testing.T) {
	p := newPipeline(stubs{})

	cases := []struct {
		name  string
		items []core.RawItem
	}{
		{"no items", nil},
		{"items without text", []core.RawItem{{Link: "https://a.example/1"}, {Title: "  "}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := p.Run(context.Background(), tc.items, Options{})
			if err != nil {
				t.Fatalf("Zero content must not be an error, got %v", err)
			}
			if result.Status != StatusEmpty {
				t.Errorf("Status = %s, want %s", result.Status, StatusEmpty)
			}
			if result.Digest != nil || result.Output != "" {
				t.Error("Empty outcome must not carry a digest")
			}
		})
	}
}

func TestRunStageFailureNamesTheStage(t *testing.T) {
	cause := errors.New("service down")
	cases := []struct {
		name  string
		stubs stubs
		stage Stage
	}{
		{"enrichment", stubs{enricher: stubEnricher{err: cause}}, StageEnrich},
		{"clustering", stubs{clusters: stubClusters{err: cause}}, StageCluster},
		{"profile load", stubs{profiles: stubProfiles{err: cause}}, StageMemo},
		{"editorial", stubs{selector: stubSelector{err: cause}}, StageEditorial},
		{"rendering", stubs{renderer: stubRenderer{err: cause}}, StageRender},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := newPipeline(tc.stubs)
			result, err := p.Run(context.Background(), rawBatch(), Options{})

			var stageErr *StageError
			if !errors.As(err, &stageErr) {
				t.Fatalf("Expected *StageError, got %v", err)
			}
			if stageErr.Stage != tc.stage {
				t.Errorf("Failing stage = %s, want %s", stageErr.Stage, tc.stage)
			}
			if !errors.Is(err, cause) {
				t.Error("StageError should unwrap to the cause")
			}
			if result.Status != StatusFailed || result.State != StateFailed {
				t.Errorf("Result status/state = %s/%s", result.Status, result.State)
			}
			if result.FailedStage != tc.stage {
				t.Errorf("Result failed stage = %s, want %s", result.FailedStage, tc.stage)
			}
		})
	}
}

func TestRunCancellationIsStatusNotError(t *testing.T) {
	p := newPipeline(stubs{enricher: stubEnricher{err: context.Canceled}})

	result, err := p.Run(context.Background(), rawBatch(), Options{})
	if err != nil {
		t.Fatalf("Cancellation must not be an error, got %v", err)
	}
	if result.Status != StatusCancelled {
		t.Errorf("Status = %s, want %s", result.Status, StatusCancelled)
	}
	if result.FailedStage != StageEnrich {
		t.Errorf("Failed stage = %s, want %s", result.FailedStage, StageEnrich)
	}
}

func TestRunDeadlineMapsToCancelled(t *testing.T) {
	p := newPipeline(stubs{selector: stubSelector{err: context.DeadlineExceeded}})

	result, err := p.Run(context.Background(), rawBatch(), Options{})
	if err != nil {
		t.Fatalf("Deadline expiry must not be an error, got %v", err)
	}
	if result.Status != StatusCancelled {
		t.Errorf("Status = %s, want %s", result.Status, StatusCancelled)
	}
}

func TestRunRecordsElapsedTime(t *testing.T) {
	p := newPipeline(stubs{})
	clock := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)
	p.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	result, err := p.Run(context.Background(), rawBatch(), Options{})
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if result.Stats.Elapsed <= 0 {
		t.Errorf("Expected positive elapsed time, got %v", result.Stats.Elapsed)
	}
}
