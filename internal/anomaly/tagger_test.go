package anomaly

import (
	"testing"

	"github.com/rs/zerolog"

	"curator/internal/core"
)

func rawItem(title, link, publisher string) core.RawItem {
	return core.RawItem{
		Title:  title,
		Link:   link,
		Source: core.Source{Publisher: publisher},
	}
}

func TestTagPassesEveryItemThrough(t *testing.T) {
	tagger := NewTagger(zerolog.Nop())
	items := []core.RawItem{
		rawItem("Sponsored: best VPN deals", "https://a.example/1", "A"),
		rawItem("Go runtime internals", "https://b.example/2", "B"),
		rawItem("Go runtime internals", "https://b.example/2", "B"),
	}

	result := tagger.Tag(items)

	if len(result.Items) != len(items) {
		t.Fatalf("Expected %d items out, got %d", len(items), len(result.Items))
	}
	if len(result.Flags) != len(items) {
		t.Fatalf("Expected %d flag records, got %d", len(items), len(result.Flags))
	}
	for i, it := range result.Items {
		if it.Fingerprint == "" {
			t.Errorf("Expected fingerprint on item %d", i)
		}
		if result.Flags[i].Fingerprint != it.Fingerprint {
			t.Errorf("Flag %d references %s, item carries %s", i, result.Flags[i].Fingerprint, it.Fingerprint)
		}
	}
}

func TestTagDuplicateKeepsFirstAuthoritative(t *testing.T) {
	tagger := NewTagger(zerolog.Nop())
	items := []core.RawItem{
		rawItem("Same story", "https://x.example/story", "A"),
		rawItem("Same story", "https://x.example/story", "B"),
		rawItem("Same story", "https://x.example/story", "C"),
	}

	result := tagger.Tag(items)

	if result.Flags[0].IsDuplicate {
		t.Error("First occurrence must not be flagged as duplicate")
	}
	first := result.Items[0].Fingerprint
	for i := 1; i < 3; i++ {
		if !result.Flags[i].IsDuplicate {
			t.Errorf("Occurrence %d should be flagged as duplicate", i)
		}
		if result.Flags[i].DuplicateOf != first {
			t.Errorf("Occurrence %d duplicate_of = %s, want first fingerprint %s", i, result.Flags[i].DuplicateOf, first)
		}
	}

	_, duplicates, _ := result.Stats()
	if duplicates != 2 {
		t.Errorf("Expected 2 duplicates, got %d", duplicates)
	}
}

func TestTagLowFrequencyIsPerBatch(t *testing.T) {
	tagger := NewTagger(zerolog.Nop())
	items := []core.RawItem{
		rawItem("one", "https://a.example/1", "Solo"),
		rawItem("two", "https://b.example/1", "Busy"),
		rawItem("three", "https://b.example/2", "Busy"),
	}

	result := tagger.Tag(items)

	if !result.Flags[0].IsLowFrequency {
		t.Error("Publisher appearing once should be low-frequency")
	}
	if result.Flags[1].IsLowFrequency || result.Flags[2].IsLowFrequency {
		t.Error("Publisher appearing twice must not be low-frequency")
	}
}

func TestIsAdMatchesBothLocales(t *testing.T) {
	cases := []struct {
		name string
		item core.RawItem
		want bool
	}{
		{"english sponsored", rawItem("Sponsored post from our partner", "l", "p"), true},
		{"english promo code", core.RawItem{Title: "Deal", Description: "Use code SAVE20 at checkout"}, true},
		{"percent off", rawItem("Everything 30% off this weekend", "l", "p"), true},
		{"chinese discount", rawItem("限时优惠：云服务器特价", "l", "p"), true},
		{"chinese promo label", core.RawItem{Title: "新品", Description: "本文为推广内容"}, true},
		{"plain tech news", rawItem("Go 1.24 adds generic type aliases", "l", "p"), false},
		{"word containing pattern", rawItem("The responsored committee met", "l", "p"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isAd(tc.item); got != tc.want {
				t.Errorf("isAd(%q / %q) = %v, want %v", tc.item.Title, tc.item.Description, got, tc.want)
			}
		})
	}
}

func TestIsAdStripsMarkupBeforeMatching(t *testing.T) {
	item := core.RawItem{
		Title:       "Weekly roundup",
		Description: `<p>Brought to you as <b>sponsored</b> content.</p>`,
	}
	if !isAd(item) {
		t.Error("Promotional text inside HTML tags should still match")
	}
}

func TestStripHTML(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "no markup here", "no markup here"},
		{"tags removed", "<p>Hello <b>world</b></p>", "Hello world"},
		{"script dropped", `<div>keep</div><script>alert(1)</script>`, "keep"},
		{"whitespace collapsed", "<p>a</p>\n\n<p>b</p>", "a b"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripHTML(tc.in); got != tc.want {
				t.Errorf("StripHTML(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
