// Package anomaly implements the first pipeline stage: flagging ads,
// duplicates and low-frequency sources. Flags are advisory only; every
// item passes through to enrichment regardless of what gets flagged.
package anomaly

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"curator/internal/core"
	"curator/internal/fingerprint"
)

// adPatterns match promotional language in item titles and descriptions.
// Locale-specific phrasing is deliberate: the ingested feeds mix Chinese
// and English sources.
var adPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bsponsored\b`),
	regexp.MustCompile(`(?i)\bsponsor(ship)? (post|content|message)\b`),
	regexp.MustCompile(`(?i)\bpromo(tion|tional)? code\b`),
	regexp.MustCompile(`(?i)\b\d{1,2}% off\b`),
	regexp.MustCompile(`(?i)\b(limited[- ]time|flash) (offer|sale|deal)\b`),
	regexp.MustCompile(`(?i)\buse code\b`),
	regexp.MustCompile(`(?i)\bpartner content\b`),
	regexp.MustCompile(`(?i)\baffiliate link`),
	regexp.MustCompile(`限时(优惠|特惠|折扣|抢购)`),
	regexp.MustCompile(`(优惠券|优惠码|折扣码)`),
	regexp.MustCompile(`(\d{1,2})折(起|优惠)?`),
	regexp.MustCompile(`(广告|推广|赞助)(内容|文章|合作)?`),
	regexp.MustCompile(`(立即|马上)(购买|抢购|下单)`),
	regexp.MustCompile(`(福利|羊毛)(来了|大放送)`),
}

// Result is the tagger's output: every input item fingerprinted, plus one
// sidecar flag record per item in input order.
type Result struct {
	Items []core.TaggedItem
	Flags []core.AnomalyFlags
}

// Stats summarize what the tagger flagged.
func (r Result) Stats() (ads, duplicates, lowFrequency int) {
	for _, f := range r.Flags {
		if f.IsAd {
			ads++
		}
		if f.IsDuplicate {
			duplicates++
		}
		if f.IsLowFrequency {
			lowFrequency++
		}
	}
	return ads, duplicates, lowFrequency
}

// Tagger flags anomalies within a single batch of raw items.
type Tagger struct {
	log zerolog.Logger
}

// NewTagger creates a tagger emitting progress events to log.
func NewTagger(log zerolog.Logger) *Tagger {
	return &Tagger{log: log.With().Str("stage", "anomaly").Logger()}
}

// Tag fingerprints every item and computes its anomaly flags. Duplicate
// detection keeps the first occurrence in input order authoritative; the
// low-frequency flag is a per-batch computation, true iff the publisher
// appears exactly once in the whole batch.
func (t *Tagger) Tag(items []core.RawItem) Result {
	publisherCounts := make(map[string]int, len(items))
	for _, it := range items {
		publisherCounts[it.Source.Publisher]++
	}

	seen := make(map[string]string, len(items)) // fingerprint → first fingerprint (self)
	result := Result{
		Items: make([]core.TaggedItem, 0, len(items)),
		Flags: make([]core.AnomalyFlags, 0, len(items)),
	}

	for _, it := range items {
		print := fingerprint.Compute(it.Title, it.Link)
		tagged := core.TaggedItem{RawItem: it, Fingerprint: print}

		flags := core.AnomalyFlags{
			Fingerprint:    print,
			IsAd:           isAd(it),
			IsLowFrequency: publisherCounts[it.Source.Publisher] == 1,
		}
		if first, dup := seen[print]; dup {
			flags.IsDuplicate = true
			flags.DuplicateOf = first
		} else {
			seen[print] = print
		}

		result.Items = append(result.Items, tagged)
		result.Flags = append(result.Flags, flags)
	}

	ads, duplicates, lowFreq := result.Stats()
	t.log.Info().
		Int("items", len(items)).
		Int("ads", ads).
		Int("duplicates", duplicates).
		Int("low_frequency", lowFreq).
		Msg("batch tagged")

	return result
}

// isAd reports whether the item's title+description reads as promotional.
// Pure predicate, no state.
func isAd(item core.RawItem) bool {
	text := item.Title + " " + StripHTML(item.Description)
	for _, pattern := range adPatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// StripHTML reduces a feed description to plain text so pattern matching
// and downstream prompts never see markup. Returns the input unchanged
// when it does not parse as HTML.
func StripHTML(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}
