package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/littlelittle-hq/newswire/internal/domain"
	"github.com/littlelittle-hq/newswire/internal/feeds"
)

// stubFetcher serves canned items per source name.
type stubFetcher struct {
	items map[string][]domain.NewsItem
	errs  map[string]error
}

func (s *stubFetcher) Fetch(_ context.Context, fd feeds.FeedDescriptor) ([]domain.NewsItem, error) {
	if err, ok := s.errs[fd.Source]; ok {
		return nil, err
	}
	return s.items[fd.Source], nil
}

func item(title, source string, age time.Duration) domain.NewsItem {
	return domain.NewsItem{
		Title:       title,
		Summary:     "summary of " + title,
		URL:         "https://example.com/" + source,
		PublishedAt: time.Now().Add(-age).UTC(),
		Source:      source,
		Category:    "Markets",
	}
}

func registry(sources ...string) []feeds.FeedDescriptor {
	out := make([]feeds.FeedDescriptor, 0, len(sources))
	for _, s := range sources {
		out = append(out, feeds.FeedDescriptor{
			URL:      "https://example.com/" + s,
			Source:   s,
			Category: "Markets",
		})
	}
	return out
}

func TestRunMergesAndSorts(t *testing.T) {
	fetcher := &stubFetcher{items: map[string][]domain.NewsItem{
		"alpha": {item("Oldest story", "alpha", 3*time.Hour), item("Newest story", "alpha", 0)},
		"beta":  {item("Middle story", "beta", time.Hour)},
	}}
	agg := New(fetcher, registry("alpha", "beta"), nil, nil)

	result := agg.Run(context.Background())

	if len(result.Items) != 3 {
		t.Fatalf("got %d items, want 3", len(result.Items))
	}
	for i := 0; i < len(result.Items)-1; i++ {
		if result.Items[i].PublishedAt.Before(result.Items[i+1].PublishedAt) {
			t.Errorf("items[%d] older than items[%d]: not sorted newest-first", i, i+1)
		}
	}
	if result.Items[0].Title != "Newest story" {
		t.Errorf("first item = %q, want Newest story", result.Items[0].Title)
	}
}

func TestRunDedupByTitlePrefix(t *testing.T) {
	title := "Bitcoin surges past $50,000 as institutional demand grows further"
	a := item(title, "alpha", time.Hour)
	b := item(title, "beta", 2*time.Hour)

	fetcher := &stubFetcher{items: map[string][]domain.NewsItem{
		"alpha": {a},
		"beta":  {b},
	}}
	agg := New(fetcher, registry("alpha", "beta"), nil, nil)

	result := agg.Run(context.Background())

	if len(result.Items) != 1 {
		t.Fatalf("got %d items, want 1 after dedup", len(result.Items))
	}
	// Merge order follows registry order, so the alpha copy survives.
	if result.Items[0].Source != "alpha" {
		t.Errorf("surviving item from %q, want first-seen feed alpha", result.Items[0].Source)
	}
}

func TestRunDedupComparesOnlyPrefix(t *testing.T) {
	base := "Bitcoin surges past $50,000 on institutional flows"
	if len(base) != 50 {
		t.Fatalf("test setup: prefix length = %d, want 50", len(base))
	}

	fetcher := &stubFetcher{items: map[string][]domain.NewsItem{
		"alpha": {
			item(base+" and ETF demand", "alpha", time.Hour),
			item(base+" from funds", "alpha", 2*time.Hour),
			item("Totally different headline about the same event", "alpha", 3*time.Hour),
		},
	}}
	agg := New(fetcher, registry("alpha"), nil, nil)

	result := agg.Run(context.Background())

	// Identical 50-char prefixes collapse; the differing headline survives.
	if len(result.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(result.Items))
	}
}

func TestRunDedupIsCaseInsensitive(t *testing.T) {
	fetcher := &stubFetcher{items: map[string][]domain.NewsItem{
		"alpha": {
			item("Fed Cuts Rates By 0.25%", "alpha", time.Hour),
			item("FED CUTS RATES BY 0.25%", "alpha", 2*time.Hour),
		},
	}}
	agg := New(fetcher, registry("alpha"), nil, nil)

	if result := agg.Run(context.Background()); len(result.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(result.Items))
	}
}

func TestRunCapsResult(t *testing.T) {
	var many []domain.NewsItem
	for i := 0; i < 80; i++ {
		many = append(many, item(fmt.Sprintf("Unique headline number %03d", i), "alpha", time.Duration(i)*time.Minute))
	}
	fetcher := &stubFetcher{items: map[string][]domain.NewsItem{"alpha": many}}
	agg := New(fetcher, registry("alpha"), nil, nil)

	result := agg.Run(context.Background())

	if len(result.Items) != maxResultItems {
		t.Fatalf("got %d items, want cap of %d", len(result.Items), maxResultItems)
	}
	// The cap keeps the newest items.
	if result.Items[0].Title != "Unique headline number 000" {
		t.Errorf("first item = %q, want newest", result.Items[0].Title)
	}
}

func TestRunGroupsByCategoryInGlobalOrder(t *testing.T) {
	a := item("Stocks rally on earnings", "alpha", time.Hour)
	b := item("Bitcoin holds steady", "beta", 30*time.Minute)
	b.Category = "Crypto"
	c := item("Nasdaq closes higher", "alpha", 2*time.Hour)

	fetcher := &stubFetcher{items: map[string][]domain.NewsItem{
		"alpha": {a, c},
		"beta":  {b},
	}}
	agg := New(fetcher, registry("alpha", "beta"), nil, nil)

	result := agg.Run(context.Background())

	total := 0
	for _, group := range result.Categorized {
		total += len(group)
		for i := 0; i < len(group)-1; i++ {
			if group[i].PublishedAt.Before(group[i+1].PublishedAt) {
				t.Error("category group not in global recency order")
			}
		}
	}
	if total != len(result.Items) {
		t.Errorf("categorized holds %d items, want %d (a permutation of data)", total, len(result.Items))
	}

	for _, it := range result.Items {
		found := false
		for _, grouped := range result.Categorized[it.Category] {
			if grouped.Title == it.Title {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("item %q missing from its category group", it.Title)
		}
	}
}

func TestRunFailedFeedContributesNothing(t *testing.T) {
	fetcher := &stubFetcher{
		items: map[string][]domain.NewsItem{
			"alpha": {item("Working feed story", "alpha", time.Hour)},
		},
		errs: map[string]error{"broken": errors.New("connect timeout")},
	}
	agg := New(fetcher, registry("alpha", "broken"), nil, nil)

	result := agg.Run(context.Background())

	if len(result.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(result.Items))
	}
	for _, src := range result.Sources {
		if src == "broken" {
			t.Error("sources must not list a feed that contributed zero items")
		}
	}
}

func TestRunAllFeedsFailing(t *testing.T) {
	fetcher := &stubFetcher{errs: map[string]error{
		"alpha": errors.New("boom"),
		"beta":  errors.New("boom"),
	}}
	agg := New(fetcher, registry("alpha", "beta"), nil, nil)

	result := agg.Run(context.Background())

	if len(result.Items) != 0 {
		t.Fatalf("got %d items, want 0", len(result.Items))
	}
	if len(result.Sources) != 0 || len(result.Categories) != 0 {
		t.Error("sources/categories must be empty when nothing survives")
	}
}

func TestRunDerivesSourcesAndCategories(t *testing.T) {
	a := item("Stocks rally on earnings", "alpha", time.Hour)
	b := item("Bitcoin holds steady", "beta", 30*time.Minute)
	b.Category = "Crypto"

	fetcher := &stubFetcher{items: map[string][]domain.NewsItem{
		"alpha": {a},
		"beta":  {b},
	}}
	agg := New(fetcher, registry("alpha", "beta"), nil, nil)

	result := agg.Run(context.Background())

	if len(result.Sources) != 2 {
		t.Errorf("sources = %v, want 2 distinct", result.Sources)
	}
	if len(result.Categories) != 2 {
		t.Errorf("categories = %v, want 2 distinct", result.Categories)
	}
}

// recordingFetcher notes which sources were fetched, to assert fan-out.
type recordingFetcher struct {
	mu      sync.Mutex
	fetched []string
}

func (r *recordingFetcher) Fetch(_ context.Context, fd feeds.FeedDescriptor) ([]domain.NewsItem, error) {
	r.mu.Lock()
	r.fetched = append(r.fetched, fd.Source)
	r.mu.Unlock()
	return nil, nil
}

type captureRecorder struct {
	mu      sync.Mutex
	records map[string]error
}

func (c *captureRecorder) RecordFetch(source string, _ int, err error) {
	c.mu.Lock()
	c.records[source] = err
	c.mu.Unlock()
}

func TestRunFetchesEveryFeedAndRecords(t *testing.T) {
	fetcher := &recordingFetcher{}
	rec := &captureRecorder{records: make(map[string]error)}
	agg := New(fetcher, registry("alpha", "beta", "gamma"), rec, nil)

	agg.Run(context.Background())

	if len(fetcher.fetched) != 3 {
		t.Errorf("fetched %d feeds, want 3", len(fetcher.fetched))
	}
	if len(rec.records) != 3 {
		t.Errorf("recorded %d outcomes, want 3", len(rec.records))
	}
}

func TestRunResultTimestamps(t *testing.T) {
	agg := New(&stubFetcher{}, registry("alpha"), nil, nil)

	before := time.Now().Add(-time.Second)
	result := agg.Run(context.Background())

	if result.LastUpdated.Before(before) {
		t.Error("lastUpdated not set")
	}
	if result.Elapsed < 0 {
		t.Error("elapsed must be non-negative")
	}
}
