package aggregate

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/littlelittle-hq/newswire/internal/domain"
	"github.com/littlelittle-hq/newswire/internal/feeds"
	"github.com/littlelittle-hq/newswire/internal/logger"
)

const (
	maxResultItems = 50

	// dedupPrefixLen is the number of lowercase title characters compared
	// when collapsing near-identical headlines. The threshold is part of the
	// response contract: headlines diverging only beyond this prefix are
	// collapsed, differing leads over the same story are not.
	dedupPrefixLen = 50
)

// FeedFetcher retrieves the items of one feed. Errors are informational;
// the aggregator converts any failure into an empty contribution.
type FeedFetcher interface {
	Fetch(ctx context.Context, fd feeds.FeedDescriptor) ([]domain.NewsItem, error)
}

// FetchRecorder observes per-feed fetch outcomes, e.g. for health tracking.
type FetchRecorder interface {
	RecordFetch(source string, items int, err error)
}

// Aggregator fans fetches out across the whole registry, merges the partial
// results, and produces one AggregatedResult per invocation. It holds no state
// between runs.
type Aggregator struct {
	fetcher  FeedFetcher
	registry []feeds.FeedDescriptor
	recorder FetchRecorder
	log      logger.Logger
}

// New builds an Aggregator over the given registry. recorder may be nil.
func New(fetcher FeedFetcher, registry []feeds.FeedDescriptor, recorder FetchRecorder, log logger.Logger) *Aggregator {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Aggregator{
		fetcher:  fetcher,
		registry: registry,
		recorder: recorder,
		log:      log,
	}
}

// Run executes one full aggregation: concurrent fetch of every registered
// feed, merge, dedup, sort, cap, and grouping. Individual feed failures are
// absorbed; the pipeline waits for every fetch to settle, so overall latency
// is bounded by the slowest feed's timeout budget.
func (a *Aggregator) Run(ctx context.Context) domain.AggregatedResult {
	start := time.Now()

	// One goroutine per feed, results indexed by registry position so the
	// merge order is deterministic regardless of completion order.
	results := make([][]domain.NewsItem, len(a.registry))

	var wg sync.WaitGroup
	for i, fd := range a.registry {
		wg.Add(1)
		go func(idx int, fd feeds.FeedDescriptor) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					a.log.ErrorObj("feed task panicked", "feed_task_panic", map[string]any{
						"source": fd.Source,
						"panic":  r,
					})
				}
			}()

			items, err := a.fetcher.Fetch(ctx, fd)
			if a.recorder != nil {
				a.recorder.RecordFetch(fd.Source, len(items), err)
			}
			results[idx] = items
		}(i, fd)
	}
	wg.Wait()

	merged := make([]domain.NewsItem, 0, maxResultItems)
	for _, items := range results {
		merged = append(merged, items...)
	}

	items := dedupe(merged)

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})

	if len(items) > maxResultItems {
		items = items[:maxResultItems]
	}

	categorized := make(map[string][]domain.NewsItem)
	var sources, categories []string
	seenSources := make(map[string]struct{})
	for _, item := range items {
		if _, ok := categorized[item.Category]; !ok {
			categories = append(categories, item.Category)
		}
		categorized[item.Category] = append(categorized[item.Category], item)

		if _, ok := seenSources[item.Source]; !ok {
			seenSources[item.Source] = struct{}{}
			sources = append(sources, item.Source)
		}
	}

	elapsed := time.Since(start)
	a.log.InfoObj("aggregation complete", "aggregate_done", map[string]any{
		"feeds":      len(a.registry),
		"merged":     len(merged),
		"items":      len(items),
		"categories": len(categories),
		"elapsed_ms": elapsed.Milliseconds(),
	})

	return domain.AggregatedResult{
		Items:       items,
		Categorized: categorized,
		Sources:     sources,
		Categories:  categories,
		LastUpdated: time.Now().UTC(),
		Elapsed:     elapsed,
	}
}

// dedupe drops items whose lowercase title prefix matches an already-kept
// item's. First-seen wins; with merge order fixed by the registry, earlier
// feeds take precedence over later ones.
func dedupe(items []domain.NewsItem) []domain.NewsItem {
	seen := make(map[string]struct{}, len(items))
	out := make([]domain.NewsItem, 0, len(items))
	for _, item := range items {
		key := titleKey(item.Title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

// titleKey builds the dedup key: lowercase title, truncated to the prefix bound.
func titleKey(title string) string {
	key := strings.ToLower(title)
	if runes := []rune(key); len(runes) > dedupPrefixLen {
		key = string(runes[:dedupPrefixLen])
	}
	return key
}
