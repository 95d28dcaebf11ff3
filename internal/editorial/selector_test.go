package editorial

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"curator/internal/core"
	"curator/internal/llm"
)

type mockGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (m *mockGenerator) GenerateText(ctx context.Context, prompt string, options llm.TextGenerationOptions) (string, error) {
	m.lastPrompt = prompt
	return m.response, m.err
}

type mockTranslator struct {
	result map[string]string
	err    error
	calls  int
}

func (m *mockTranslator) Translate(ctx context.Context, texts []string, targetLanguage string) (map[string]string, error) {
	m.calls++
	return m.result, m.err
}

func testMemo(prints ...string) *core.PriorityMemo {
	m := &core.PriorityMemo{
		Date:    time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		ByPrint: make(map[string]*core.ItemSnapshot, len(prints)),
	}
	for _, print := range prints {
		m.Items = append(m.Items, core.ItemSnapshot{
			Fingerprint: print,
			Title:       "title " + print,
			Link:        "https://example.com/" + print,
			Publisher:   "Pub",
			Buckets:     []core.Bucket{core.BucketP1},
		})
	}
	for i := range m.Items {
		m.ByPrint[m.Items[i].Fingerprint] = &m.Items[i]
	}
	return m
}

const validPlanJSON = `{
	"must_read": [{"fingerprint": "aaa", "reason": "big launch"}],
	"topics": [
		{
			"name": "AI releases",
			"priority_items": [{"fingerprint": "bbb", "reason": "widely covered"}],
			"other_items": [{"fingerprint": "ccc"}]
		}
	],
	"nice_to_have": ["ddd"],
	"editorial_note": "A launch-heavy day.",
	"metadata": {"total_selected": 4, "selection_strategy": "breadth"}
}`

func TestSelectAcceptsValidPlan(t *testing.T) {
	generator := &mockGenerator{response: validPlanJSON}
	selector := NewSelector(generator, nil, DefaultConfig(), zerolog.Nop())
	memo := testMemo("aaa", "bbb", "ccc", "ddd")

	structure, err := selector.Select(context.Background(), memo, "")
	if err != nil {
		t.Fatalf("Expected valid plan to be accepted, got %v", err)
	}

	if len(structure.Plan.MustRead) != 1 || structure.Plan.MustRead[0].Fingerprint != "aaa" {
		t.Errorf("Unexpected must_read: %+v", structure.Plan.MustRead)
	}
	group, ok := structure.Plan.Topics["AI releases"]
	if !ok {
		t.Fatalf("Expected topic folded into map, got %v", structure.Plan.Topics)
	}
	if len(group.PriorityItems) != 1 || group.PriorityItems[0].Fingerprint != "bbb" {
		t.Errorf("Unexpected topic group: %+v", group)
	}

	// Every referenced fingerprint must have its snapshot in the structure.
	for _, print := range structure.Plan.Fingerprints() {
		if _, ok := structure.ItemsMetadata[print]; !ok {
			t.Errorf("Referenced fingerprint %s missing from items metadata", print)
		}
	}
	if structure.Date != memo.Date {
		t.Errorf("Structure date = %v, want memo date %v", structure.Date, memo.Date)
	}
}

func TestSelectStripsCodeFences(t *testing.T) {
	generator := &mockGenerator{response: "```json\n" + validPlanJSON + "\n```"}
	selector := NewSelector(generator, nil, DefaultConfig(), zerolog.Nop())

	_, err := selector.Select(context.Background(), testMemo("aaa", "bbb", "ccc", "ddd"), "")
	if err != nil {
		t.Fatalf("Fenced JSON should parse, got %v", err)
	}
}

func TestSelectRejectsMissingRequiredFields(t *testing.T) {
	cases := []struct {
		name     string
		response string
		field    string
	}{
		{
			"empty must_read",
			`{"must_read": [], "topics": [{"name": "T", "priority_items": [{"fingerprint": "aaa"}]}], "editorial_note": "n", "metadata": {"k": 1}}`,
			"must_read",
		},
		{
			"no topics",
			`{"must_read": [{"fingerprint": "aaa"}], "topics": [], "editorial_note": "n", "metadata": {"k": 1}}`,
			"topics",
		},
		{
			"blank editorial note",
			`{"must_read": [{"fingerprint": "aaa"}], "topics": [{"name": "T", "priority_items": [{"fingerprint": "aaa"}]}], "editorial_note": "  ", "metadata": {"k": 1}}`,
			"editorial_note",
		},
		{
			"missing metadata",
			`{"must_read": [{"fingerprint": "aaa"}], "topics": [{"name": "T", "priority_items": [{"fingerprint": "aaa"}]}], "editorial_note": "n"}`,
			"metadata",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			generator := &mockGenerator{response: tc.response}
			selector := NewSelector(generator, nil, DefaultConfig(), zerolog.Nop())

			_, err := selector.Select(context.Background(), testMemo("aaa"), "")

			var violation *SchemaViolation
			if !errors.As(err, &violation) {
				t.Fatalf("Expected SchemaViolation, got %v", err)
			}
			if violation.Field != tc.field {
				t.Errorf("Violation field = %s, want %s", violation.Field, tc.field)
			}
		})
	}
}

func TestSelectRejectsUnknownFingerprint(t *testing.T) {
	response := `{
		"must_read": [{"fingerprint": "aaa"}],
		"topics": [{"name": "T", "priority_items": [{"fingerprint": "fabricated"}]}],
		"editorial_note": "n",
		"metadata": {"k": 1}
	}`
	generator := &mockGenerator{response: response}
	selector := NewSelector(generator, nil, DefaultConfig(), zerolog.Nop())

	_, err := selector.Select(context.Background(), testMemo("aaa"), "")

	var unknown *UnknownFingerprintError
	if !errors.As(err, &unknown) {
		t.Fatalf("Expected UnknownFingerprintError, got %v", err)
	}
	if unknown.Fingerprint != "fabricated" {
		t.Errorf("Error names fingerprint %s, want fabricated", unknown.Fingerprint)
	}
	if !strings.HasPrefix(unknown.Section, "topics/") {
		t.Errorf("Error names section %s, want a topics section", unknown.Section)
	}
}

func TestSelectGeneratorErrorIsFatal(t *testing.T) {
	sentinel := errors.New("quota exceeded")
	generator := &mockGenerator{err: sentinel}
	selector := NewSelector(generator, nil, DefaultConfig(), zerolog.Nop())

	_, err := selector.Select(context.Background(), testMemo("aaa"), "")
	if !errors.Is(err, sentinel) {
		t.Fatalf("Expected wrapped generator error, got %v", err)
	}
}

func TestSelectMalformedJSONIsFatal(t *testing.T) {
	generator := &mockGenerator{response: "the editor refuses to answer in JSON"}
	selector := NewSelector(generator, nil, DefaultConfig(), zerolog.Nop())

	_, err := selector.Select(context.Background(), testMemo("aaa"), "")
	if err == nil {
		t.Fatal("Expected parse error for non-JSON response")
	}
}

func TestSelectTranslatesUserFacingText(t *testing.T) {
	generator := &mockGenerator{response: validPlanJSON}
	translator := &mockTranslator{result: map[string]string{
		"A launch-heavy day.": "发布密集的一天。",
		"big launch":          "重大发布",
	}}
	cfg := DefaultConfig()
	cfg.TargetLanguage = "Chinese"
	selector := NewSelector(generator, translator, cfg, zerolog.Nop())

	structure, err := selector.Select(context.Background(), testMemo("aaa", "bbb", "ccc", "ddd"), "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if structure.Plan.EditorialNote != "发布密集的一天。" {
		t.Errorf("Editorial note not translated: %q", structure.Plan.EditorialNote)
	}
	if structure.Plan.MustRead[0].Reason != "重大发布" {
		t.Errorf("Reason not translated: %q", structure.Plan.MustRead[0].Reason)
	}
	// A reason the translator did not return keeps the original.
	if structure.Plan.Topics["AI releases"].PriorityItems[0].Reason != "widely covered" {
		t.Errorf("Untranslated reason should keep source text")
	}
}

func TestSelectTranslationFailureIsNonFatal(t *testing.T) {
	generator := &mockGenerator{response: validPlanJSON}
	translator := &mockTranslator{err: errors.New("translator down")}
	cfg := DefaultConfig()
	cfg.TargetLanguage = "Chinese"
	selector := NewSelector(generator, translator, cfg, zerolog.Nop())

	structure, err := selector.Select(context.Background(), testMemo("aaa", "bbb", "ccc", "ddd"), "")
	if err != nil {
		t.Fatalf("Translation failure must not fail the stage, got %v", err)
	}
	if translator.calls != 1 {
		t.Errorf("Expected one translation attempt, got %d", translator.calls)
	}
	if structure.Plan.EditorialNote != "A launch-heavy day." {
		t.Errorf("Expected original note kept, got %q", structure.Plan.EditorialNote)
	}
}

func TestSelectSkipsTranslationWithoutTargetLanguage(t *testing.T) {
	generator := &mockGenerator{response: validPlanJSON}
	translator := &mockTranslator{result: map[string]string{}}
	selector := NewSelector(generator, translator, DefaultConfig(), zerolog.Nop())

	_, err := selector.Select(context.Background(), testMemo("aaa", "bbb", "ccc", "ddd"), "")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if translator.calls != 0 {
		t.Errorf("Translator must not be called when no target language is set, got %d calls", translator.calls)
	}
}

func TestBuildPromptIncludesMemoSections(t *testing.T) {
	generator := &mockGenerator{response: validPlanJSON}
	selector := NewSelector(generator, nil, DefaultConfig(), zerolog.Nop())
	memo := testMemo("aaa", "bbb", "ccc", "ddd")
	memo.Guidance = "bucket guidance text"
	memo.Pools.P0CreatorPool = []string{"aaa"}

	if _, err := selector.Select(context.Background(), memo, "distributed systems"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	for _, want := range []string{"bucket guidance text", "distributed systems", "aaa"} {
		if !strings.Contains(generator.lastPrompt, want) {
			t.Errorf("Prompt missing %q", want)
		}
	}
}
