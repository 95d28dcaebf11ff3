package editorial

import (
	"fmt"
	"sort"
	"strings"

	"google.golang.org/genai"

	"curator/internal/core"
)

// planSchema constrains the editor's response. Topics travel as a named
// array on the wire; the selector folds them into the plan's topic map.
func planSchema() *genai.Schema {
	planItem := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"fingerprint": {
				Type:        genai.TypeString,
				Description: "Fingerprint copied exactly from the item list",
			},
			"reason": {
				Type:        genai.TypeString,
				Description: "One line on why this item was selected",
			},
		},
		Required: []string{"fingerprint"},
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"must_read": {
				Type:        genai.TypeArray,
				Description: "3-5 items every reader should open today",
				Items:       planItem,
			},
			"topics": {
				Type:        genai.TypeArray,
				Description: "Topic sections, 6-10 items total across all sections",
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name": {
							Type:        genai.TypeString,
							Description: "Short topic section name",
						},
						"priority_items": {Type: genai.TypeArray, Items: planItem},
						"other_items":    {Type: genai.TypeArray, Items: planItem},
					},
					Required: []string{"name", "priority_items"},
				},
			},
			"nice_to_have": {
				Type:        genai.TypeArray,
				Description: "Up to 8 optional fingerprints worth a look",
				Items:       &genai.Schema{Type: genai.TypeString},
			},
			"editorial_note": {
				Type:        genai.TypeString,
				Description: "2-3 sentences on today's overall picture",
			},
			"metadata": {
				Type:        genai.TypeObject,
				Description: "Selection metadata",
				Properties: map[string]*genai.Schema{
					"total_selected": {Type: genai.TypeInteger},
					"selection_strategy": {
						Type:        genai.TypeString,
						Description: "One line describing how the selection was made",
					},
				},
				Required: []string{"total_selected", "selection_strategy"},
			},
		},
		Required: []string{"must_read", "topics", "editorial_note", "metadata"},
	}
}

// buildPrompt constructs the editor instruction set: bucket stats, a capped
// P0 preview, the strongest multi-source topics, pool sizes, the memo's
// guidance text verbatim, and the full per-item detail list.
func (s *Selector) buildPrompt(m *core.PriorityMemo, interests string) string {
	var sb strings.Builder

	sb.WriteString("You are the editor of a personal daily news digest. From the scored item memo below, select a small structured digest for one reader.\n\n")

	if interests != "" {
		sb.WriteString("READER INTERESTS: ")
		sb.WriteString(interests)
		sb.WriteString("\n\n")
	}

	sb.WriteString(m.Guidance)
	sb.WriteString("\n\n")

	writeOverview(&sb, m)
	writeP0Preview(&sb, m, s.config.MaxP0Preview)
	writeMultiSourceTopics(&sb, m, s.config.MaxTopicsShown)
	writeItemDetail(&sb, m)

	sb.WriteString("\nSELECTION RULES:\n")
	sb.WriteString("- must_read: 3-5 items. Every P0 item belongs here unless flagged as duplicate or ad.\n")
	sb.WriteString("- topics: group 6-10 further items into topic sections of 1-3 items each.\n")
	sb.WriteString("- nice_to_have: up to 8 optional fingerprints, no commentary.\n")
	sb.WriteString("- editorial_note: 2-3 sentences on the day's overall picture.\n")
	sb.WriteString("- Reference items ONLY by the fingerprints listed above, copied exactly.\n")
	sb.WriteString("- Respond with a single JSON object following the schema. No prose outside JSON.\n")

	return sb.String()
}

// writeOverview emits bucket statistics, pool sizes and the urgent count.
func writeOverview(sb *strings.Builder, m *core.PriorityMemo) {
	var urgent int
	bucketCounts := map[core.Bucket]int{}
	for _, item := range m.Items {
		if item.Annotations.Urgency == core.UrgencyUrgent {
			urgent++
		}
		for _, b := range item.Buckets {
			bucketCounts[b]++
		}
	}

	sb.WriteString("TODAY'S MEMO OVERVIEW:\n")
	fmt.Fprintf(sb, "- Items: %d (urgent: %d)\n", len(m.Items), urgent)
	fmt.Fprintf(sb, "- Bucket tags: P0=%d P1=%d P2=%d P3=%d\n",
		bucketCounts[core.BucketP0], bucketCounts[core.BucketP1],
		bucketCounts[core.BucketP2], bucketCounts[core.BucketP3])
	fmt.Fprintf(sb, "- Pools: %d followed-creator items, %d hot-topic clusters, %d single-source clusters, %d noise items\n\n",
		len(m.Pools.P0CreatorPool), len(m.Pools.P1HotTopicClusters),
		len(m.Pools.P2SingleSourceClusters), len(m.Pools.P3NoiseItems))
}

// writeP0Preview lists the top followed-creator items, capped.
func writeP0Preview(sb *strings.Builder, m *core.PriorityMemo, max int) {
	if len(m.Pools.P0CreatorPool) == 0 {
		return
	}

	sb.WriteString("FOLLOWED CREATORS (P0 preview):\n")
	for i, print := range m.Pools.P0CreatorPool {
		if i >= max {
			fmt.Fprintf(sb, "... and %d more\n", len(m.Pools.P0CreatorPool)-max)
			break
		}
		if item := m.Item(print); item != nil {
			fmt.Fprintf(sb, "- [%s] %s — %s\n", item.Fingerprint, item.Publisher, item.Title)
		}
	}
	sb.WriteString("\n")
}

// writeMultiSourceTopics lists the strongest cross-publisher clusters,
// capped, ordered by publisher count then confidence.
func writeMultiSourceTopics(sb *strings.Builder, m *core.PriorityMemo, max int) {
	var multi []core.ClusterSnapshot
	for _, c := range m.Clusters {
		if c.PublisherCount >= 3 {
			multi = append(multi, c)
		}
	}
	if len(multi) == 0 {
		return
	}

	sort.SliceStable(multi, func(i, j int) bool {
		if multi[i].PublisherCount != multi[j].PublisherCount {
			return multi[i].PublisherCount > multi[j].PublisherCount
		}
		return multi[i].Confidence > multi[j].Confidence
	})

	sb.WriteString("MULTI-SOURCE TOPICS:\n")
	for i, c := range multi {
		if i >= max {
			break
		}
		fmt.Fprintf(sb, "- %s (%s): %d publishers, confidence %.2f\n",
			c.Theme, c.Category, c.PublisherCount, c.Confidence)
	}
	sb.WriteString("\n")
}

// writeItemDetail lists every memo item with its fingerprint, buckets and
// annotations. The editor may only reference fingerprints from this list.
func writeItemDetail(sb *strings.Builder, m *core.PriorityMemo) {
	sb.WriteString("ALL ITEMS:\n")
	for _, item := range m.Items {
		buckets := make([]string, 0, len(item.Buckets))
		for _, b := range item.Buckets {
			buckets = append(buckets, string(b))
		}

		fmt.Fprintf(sb, "- fingerprint=%s buckets=%s trust=%s urgency=%s publisher=%q",
			item.Fingerprint, strings.Join(buckets, ","),
			item.Annotations.TrustLevel, item.Annotations.Urgency, item.Publisher)
		if item.ClusterID != "" {
			fmt.Fprintf(sb, " cluster=%s", item.ClusterID)
		}
		if item.Annotations.MultiSource != nil {
			fmt.Fprintf(sb, " multi_source=%d_publishers", item.Annotations.MultiSource.PublisherCount)
		}
		if item.Flags.IsDuplicate {
			sb.WriteString(" flag=duplicate")
		}
		if item.Flags.IsAd {
			sb.WriteString(" flag=ad")
		}
		fmt.Fprintf(sb, "\n  title: %s\n  summary: %s\n", item.Title, item.AISummary)
	}
}
