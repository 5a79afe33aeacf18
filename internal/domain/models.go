package domain

import "time"

// Domain contains core models shared across the aggregation pipeline.

// NewsItem is the canonical record for one classified news story.
// Items are immutable once built; transformations copy.
type NewsItem struct {
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
	Source      string    `json:"source"`
	Category    string    `json:"category"`
	Region      string    `json:"region,omitempty"`
	Sector      string    `json:"sector,omitempty"`
}

// Classification is the label set assigned to one item by the keyword classifier.
type Classification struct {
	Category string
	Region   string
	Sector   string
}

// AggregatedResult is the outcome of one full pipeline invocation: the merged,
// deduplicated, sorted item list plus derived groupings.
type AggregatedResult struct {
	Items       []NewsItem
	Categorized map[string][]NewsItem
	Sources     []string
	Categories  []string
	LastUpdated time.Time
	Elapsed     time.Duration
}
