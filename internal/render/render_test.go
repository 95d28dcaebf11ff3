package render

import (
	"strings"
	"testing"
	"time"

	"curator/internal/core"
)

func sampleStructure() *core.DigestStructure {
	return &core.DigestStructure{
		Date: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Plan: core.DigestPlan{
			MustRead: []core.PlanItem{{Fingerprint: "aaa", Reason: "big launch"}},
			Topics: map[string]core.TopicGroup{
				"Zebra topic": {PriorityItems: []core.PlanItem{{Fingerprint: "bbb"}}},
				"Alpha topic": {OtherItems: []core.PlanItem{{Fingerprint: "ccc"}}},
			},
			NiceToHave:    []string{"ddd"},
			EditorialNote: "A launch-heavy day.",
		},
		ItemsMetadata: map[string]core.ItemSnapshot{
			"aaa": {Title: "Launch post", Link: "https://a.example/launch", Publisher: "A", AISummary: "sum a"},
			"bbb": {Title: "Zebra item", Link: "https://b.example/z", Publisher: "B", AISummary: "sum b"},
			"ccc": {Title: "Alpha item", Link: "https://c.example/a", Publisher: "C", AISummary: "sum c"},
			"ddd": {Title: "Extra read", Link: "https://d.example/x", Publisher: "D", AISummary: "sum d"},
		},
		GeneratedAt: time.Date(2025, 3, 14, 8, 30, 0, 0, time.UTC),
	}
}

func TestRenderProducesCompleteDocument(t *testing.T) {
	renderer, err := NewHTMLRenderer()
	if err != nil {
		t.Fatalf("Expected renderer to compile, got %v", err)
	}

	out, err := renderer.Render(sampleStructure())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	for _, want := range []string{
		"2025-03-14",
		"A launch-heavy day.",
		`<a href="https://a.example/launch">Launch post</a>`,
		"big launch",
		"Zebra item",
		"Alpha item",
		"Extra read",
		"Nice to Have",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q", want)
		}
	}
}

func TestRenderOrdersTopicsByName(t *testing.T) {
	renderer, _ := NewHTMLRenderer()
	out, err := renderer.Render(sampleStructure())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	alpha := strings.Index(out, "Alpha topic")
	zebra := strings.Index(out, "Zebra topic")
	if alpha < 0 || zebra < 0 {
		t.Fatal("Topic headings missing from output")
	}
	if alpha > zebra {
		t.Error("Topics should render in sorted name order")
	}
}

func TestRenderEscapesUntrustedText(t *testing.T) {
	structure := sampleStructure()
	structure.Plan.EditorialNote = `<script>alert("x")</script>`

	renderer, _ := NewHTMLRenderer()
	out, err := renderer.Render(structure)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if strings.Contains(out, "<script>alert") {
		t.Error("Untrusted text must be HTML-escaped")
	}
}

func TestRenderOmitsEmptyNiceToHaveSection(t *testing.T) {
	structure := sampleStructure()
	structure.Plan.NiceToHave = nil

	renderer, _ := NewHTMLRenderer()
	out, err := renderer.Render(structure)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if strings.Contains(out, "Nice to Have") {
		t.Error("Empty nice_to_have should omit its section")
	}
}
