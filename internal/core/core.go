// Package core defines the domain types shared by all pipeline stages.
// Each stage produces a new snapshot; nothing here is mutated in place
// once a stage has handed it downstream.
package core

import "time"

// PublisherType describes how a source publishes content.
type PublisherType string

const (
	PublisherTypeMedia      PublisherType = "media"      // Editorial outlets
	PublisherTypeIndividual PublisherType = "individual" // Personal blogs, newsletters
	PublisherTypeCorporate  PublisherType = "corporate"  // Company engineering blogs, press rooms
	PublisherTypeAggregator PublisherType = "aggregator" // Link aggregators, planet feeds
)

// Source identifies where an item was fetched from.
type Source struct {
	URL           string        `json:"url"`            // Feed URL
	Title         string        `json:"title"`          // Feed title
	Publisher     string        `json:"publisher"`      // Publisher name, used for frequency and entropy stats
	PublisherType PublisherType `json:"publisher_type"` // Kind of publisher
	Authority     float64       `json:"authority"`      // RSS-declared authority in [0,1], 0 when unknown
	Weight        float64       `json:"weight"`         // Feed-level weight hint, 0 when unset
	Topics        []string      `json:"topics"`         // Topics the feed declares for itself
}

// RawItem is a feed entry as fetched. Immutable once created.
type RawItem struct {
	Title       string    `json:"title"`             // Item title
	Link        string    `json:"link"`              // Item URL
	Description string    `json:"description"`       // Feed-provided description, may contain HTML
	Content     string    `json:"content,omitempty"` // Full content when the feed carries it
	PublishedAt time.Time `json:"published_at"`      // Publication timestamp
	Source      Source    `json:"source"`            // Originating feed
}

// TaggedItem is a RawItem with its stable content fingerprint attached
// by the anomaly tagger.
type TaggedItem struct {
	RawItem
	Fingerprint string `json:"fingerprint"` // Stable identity hash of title+link
}

// AnomalyFlags is a sidecar annotation produced by the anomaly tagger.
// Flags are advisory; no flag removes an item from the pipeline.
type AnomalyFlags struct {
	Fingerprint    string `json:"fingerprint"`            // Item the flags belong to
	IsAd           bool   `json:"is_ad"`                  // Promotional-language match
	IsDuplicate    bool   `json:"is_duplicate"`           // Same fingerprint seen earlier in the batch
	IsLowFrequency bool   `json:"is_low_frequency"`       // Publisher appears exactly once in the batch
	DuplicateOf    string `json:"duplicate_of,omitempty"` // Fingerprint of the first occurrence
}

// Language labels detected for item summaries.
type Language string

const (
	LanguageChinese Language = "zh"
	LanguageEnglish Language = "en"
	LanguageMixed   Language = "mixed"
)

// EnrichedItem extends a tagged item with the enrichment adapter's output.
// SummaryEmbedding may be empty after an enrichment failure; consumers must
// treat an empty vector as zero similarity, never as an error.
type EnrichedItem struct {
	TaggedItem
	AISummary        string    `json:"ai_summary"`        // One-sentence summary
	SummaryEmbedding []float64 `json:"summary_embedding"` // Semantic embedding of the summary
	Language         Language  `json:"language"`          // Detected language of title+summary
}

// ClusterClass partitions clusters by publisher spread.
type ClusterClass string

const (
	// ClusterHotTopic marks clusters spanning at least two distinct publishers.
	ClusterHotTopic ClusterClass = "hot_topic"
	// ClusterSingleSource marks clusters whose items share one publisher.
	ClusterSingleSource ClusterClass = "single_source"
)

// ClusterMetadata carries per-cluster aggregates.
type ClusterMetadata struct {
	Size         int      `json:"size"`          // Number of items
	AvgAuthority float64  `json:"avg_authority"` // Mean source authority across items
	Publishers   []string `json:"publishers"`    // Distinct publishers, sorted
}

// Cluster is a topic group built once per run by the cluster builder and
// immutable afterwards.
type Cluster struct {
	ID                  string          `json:"id"`                   // Cluster identity within the run
	Theme               string          `json:"theme"`                // LLM-generated theme, or placeholder on failure
	Category            string          `json:"category"`             // One of the fixed category set
	Reasoning           string          `json:"reasoning"`            // Why the theme was chosen
	Confidence          float64         `json:"confidence"`           // Weighted score in [0,1]
	SemanticConsistency float64         `json:"semantic_consistency"` // Mean pairwise cosine similarity
	TopicEntropy        float64         `json:"topic_entropy"`        // Normalized publisher entropy in [0,1]
	Class               ClusterClass    `json:"class"`                // hot_topic or single_source
	Items               []EnrichedItem  `json:"items"`                // Member items
	Metadata            ClusterMetadata `json:"metadata"`             // Aggregates
}

// Bucket is a priority tier assigned by the memo builder. An item may carry
// several buckets; P3 is exclusive and applies only when nothing else does.
type Bucket string

const (
	BucketP0 Bucket = "P0" // Followed creator, unconditional include
	BucketP1 Bucket = "P1" // Member of a hot-topic cluster
	BucketP2 Bucket = "P2" // Member of a single-source cluster
	BucketP3 Bucket = "P3" // Fallback tier
)

// Urgency labels derived from hours since publication.
type Urgency string

const (
	UrgencyUrgent    Urgency = "urgent"    // Published within 6 hours
	UrgencyTimely    Urgency = "timely"    // Published within 24 hours
	UrgencyEvergreen Urgency = "evergreen" // Everything older
)

// TrustLevel labels derived from the resolved trust score.
type TrustLevel string

const (
	TrustHigh   TrustLevel = "high"   // Trust score exactly 1.0
	TrustMedium TrustLevel = "medium" // Trust score exactly 0.8
	TrustLow    TrustLevel = "low"    // Everything else
)

// MultiSourceSignal is attached when an item's cluster spans three or more
// distinct publishers. Independent of bucket assignment.
type MultiSourceSignal struct {
	Topic          string  `json:"topic"`           // Cluster theme
	PublisherCount int     `json:"publisher_count"` // Distinct publishers in the cluster
	Confidence     float64 `json:"confidence"`      // Cluster confidence
}

// Annotations carries the memo builder's per-item labels.
type Annotations struct {
	TrustLevel  TrustLevel         `json:"trust_level"`
	MultiSource *MultiSourceSignal `json:"multi_source_signal,omitempty"`
	Urgency     Urgency            `json:"urgency"`
	HoursOld    float64            `json:"hours_old"` // Hours since publication, one decimal
}

// ItemSnapshot merges enrichment, trust, cluster membership and bucket
// assignment for a single item inside the priority memo.
type ItemSnapshot struct {
	Fingerprint string       `json:"fingerprint"`
	Title       string       `json:"title"`
	Link        string       `json:"link"`
	Publisher   string       `json:"publisher"`
	PublishedAt time.Time    `json:"published_at"`
	AISummary   string       `json:"ai_summary"`
	Language    Language     `json:"language"`
	ClusterID   string       `json:"cluster_id,omitempty"` // Empty for noise items
	TrustScore  float64      `json:"trust_score"`
	Buckets     []Bucket     `json:"priority_buckets"`
	Annotations Annotations  `json:"annotations"`
	Flags       AnomalyFlags `json:"flags"` // Advisory anomaly flags carried forward
}

// HasBucket reports whether the snapshot carries the given bucket tag.
func (s ItemSnapshot) HasBucket(b Bucket) bool {
	for _, have := range s.Buckets {
		if have == b {
			return true
		}
	}
	return false
}

// ClusterSnapshot is the memo's read-only view of a cluster.
type ClusterSnapshot struct {
	ID                  string       `json:"id"`
	Theme               string       `json:"theme"`
	Category            string       `json:"category"`
	Class               ClusterClass `json:"class"`
	Confidence          float64      `json:"confidence"`
	SemanticConsistency float64      `json:"semantic_consistency"`
	TopicEntropy        float64      `json:"topic_entropy"`
	PublisherCount      int          `json:"publisher_count"`
	Publishers          []string     `json:"publishers"`
	ItemFingerprints    []string     `json:"item_fingerprints"`
}

// MemoPools are derived index views over the memo's snapshots.
type MemoPools struct {
	P0CreatorPool          []string `json:"P0_creator_pool"`           // Fingerprints of followed-creator items
	P1HotTopicClusters     []string `json:"P1_hot_topic_clusters"`     // Hot-topic cluster ids
	P2SingleSourceClusters []string `json:"P2_single_source_clusters"` // Single-source cluster ids
	P3NoiseItems           []string `json:"P3_noise_items"`            // Fingerprints bucketed only as P3
}

// PriorityMemo is the single hand-off artifact between the scoring core and
// the editorial selector. Built once per run; read-only afterwards.
type PriorityMemo struct {
	Date     time.Time                 `json:"date"`     // Run date
	Items    []ItemSnapshot            `json:"items"`    // All scored items
	Clusters []ClusterSnapshot         `json:"clusters"` // All cluster views
	Pools    MemoPools                 `json:"pools"`    // Derived indices
	Guidance string                    `json:"guidance"` // Deterministic editor guidance text
	ByPrint  map[string]*ItemSnapshot  `json:"-"`        // Fingerprint index over Items
}

// Item returns the snapshot for a fingerprint, or nil when unknown.
func (m *PriorityMemo) Item(fingerprint string) *ItemSnapshot {
	if m.ByPrint == nil {
		return nil
	}
	return m.ByPrint[fingerprint]
}

// PlanItem is a single selection in a digest plan.
type PlanItem struct {
	Fingerprint string `json:"fingerprint"`
	Reason      string `json:"reason,omitempty"` // Editor's one-line rationale
}

// TopicGroup is a named topic section in a digest plan.
type TopicGroup struct {
	PriorityItems []PlanItem `json:"priority_items"`
	OtherItems    []PlanItem `json:"other_items"`
}

// DigestPlan is the validated editorial selection returned by the LLM.
// Every fingerprint it references must exist in the memo.
type DigestPlan struct {
	MustRead      []PlanItem            `json:"must_read"`
	Topics        map[string]TopicGroup `json:"topics"`
	NiceToHave    []string              `json:"nice_to_have,omitempty"` // Fingerprint-only extras
	EditorialNote string                `json:"editorial_note"`
	Metadata      map[string]any        `json:"metadata"`
}

// Fingerprints returns every fingerprint the plan references, in plan order.
func (p DigestPlan) Fingerprints() []string {
	var prints []string
	for _, it := range p.MustRead {
		prints = append(prints, it.Fingerprint)
	}
	for _, group := range p.Topics {
		for _, it := range group.PriorityItems {
			prints = append(prints, it.Fingerprint)
		}
		for _, it := range group.OtherItems {
			prints = append(prints, it.Fingerprint)
		}
	}
	prints = append(prints, p.NiceToHave...)
	return prints
}

// DigestStructure merges the validated plan with the memo metadata the
// renderer needs. This is the pipeline's final data product.
type DigestStructure struct {
	Date          time.Time               `json:"date"`
	Plan          DigestPlan              `json:"plan"`
	ItemsMetadata map[string]ItemSnapshot `json:"items_metadata"` // Fingerprint → snapshot for every referenced item
	GeneratedAt   time.Time               `json:"generated_at"`
}

// UserProfile is the externally supplied reader profile. Absence is a valid
// state; trust scoring falls back to static defaults.
type UserProfile struct {
	KeyPublishers []string           `json:"key_publishers"` // Publishers the reader follows
	SourceWeights map[string]float64 `json:"source_weights"` // Feed URL → trust weight
	Topics        []string           `json:"topics"`         // Declared interests
}
