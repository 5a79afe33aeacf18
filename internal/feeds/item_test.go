package feeds

import (
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
)

func TestBuildItemRequiresTitle(t *testing.T) {
	fd := FeedDescriptor{Source: "Test Feed", Category: "Markets"}

	if _, ok := buildItem(fd, &gofeed.Item{Description: "body but no headline"}); ok {
		t.Fatal("item without title must be dropped")
	}
	if _, ok := buildItem(fd, &gofeed.Item{Title: "   "}); ok {
		t.Fatal("item with blank title must be dropped")
	}
}

func TestBuildItemDecodesTitleEntities(t *testing.T) {
	fd := FeedDescriptor{Source: "Test Feed", Category: "Markets"}

	item, ok := buildItem(fd, &gofeed.Item{Title: "Stocks rally &amp; bonds slide"})
	if !ok {
		t.Fatal("expected item")
	}
	if item.Title != "Stocks rally & bonds slide" {
		t.Errorf("title = %q, want entities decoded", item.Title)
	}
}

func TestBuildItemSummaryStrippedAndBounded(t *testing.T) {
	fd := FeedDescriptor{Source: "Test Feed", Category: "Markets"}

	long := "<p>" + strings.Repeat("word ", 100) + "<b>bold</b> &amp; more</p>"
	item, ok := buildItem(fd, &gofeed.Item{Title: "Headline", Description: long})
	if !ok {
		t.Fatal("expected item")
	}

	if n := len([]rune(item.Summary)); n > 300 {
		t.Errorf("summary length = %d, want <= 300", n)
	}
	if strings.ContainsAny(item.Summary, "<>") {
		t.Errorf("summary contains markup: %q", item.Summary)
	}
}

func TestBuildItemURLFallbackChain(t *testing.T) {
	fd := FeedDescriptor{Source: "Test Feed", Category: "Markets"}

	item, _ := buildItem(fd, &gofeed.Item{Title: "A", Link: "https://example.com/a", GUID: "guid-a"})
	if item.URL != "https://example.com/a" {
		t.Errorf("url = %q, want link preferred", item.URL)
	}

	item, _ = buildItem(fd, &gofeed.Item{Title: "B", GUID: "https://example.com/b-guid"})
	if item.URL != "https://example.com/b-guid" {
		t.Errorf("url = %q, want guid fallback", item.URL)
	}

	item, _ = buildItem(fd, &gofeed.Item{Title: "C"})
	if item.URL != "#" {
		t.Errorf("url = %q, want # sentinel", item.URL)
	}
}

func TestBuildItemDateDefaultsToNow(t *testing.T) {
	fd := FeedDescriptor{Source: "Test Feed", Category: "Markets"}

	before := time.Now().Add(-time.Second)
	item, _ := buildItem(fd, &gofeed.Item{Title: "Undated story"})
	after := time.Now().Add(time.Second)

	if item.PublishedAt.Before(before) || item.PublishedAt.After(after) {
		t.Errorf("publishedAt = %v, want roughly now", item.PublishedAt)
	}
}

func TestBuildItemUsesParsedDate(t *testing.T) {
	fd := FeedDescriptor{Source: "Test Feed", Category: "Markets"}

	want := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	item, _ := buildItem(fd, &gofeed.Item{Title: "Dated story", PublishedParsed: &want})
	if !item.PublishedAt.Equal(want) {
		t.Errorf("publishedAt = %v, want %v", item.PublishedAt, want)
	}
}

func TestBuildItemFeedCategoryFallback(t *testing.T) {
	fd := FeedDescriptor{Source: "Niche Blog", Category: "Collectibles", Region: "Europe", Sector: "Retail"}

	// No classifier keyword matches: the descriptor's defaults apply.
	item, _ := buildItem(fd, &gofeed.Item{Title: "Rare stamp auction draws crowds"})
	if item.Category != "Collectibles" {
		t.Errorf("category = %q, want feed default", item.Category)
	}
	if item.Region != "Europe" {
		t.Errorf("region = %q, want feed default", item.Region)
	}
	if item.Sector != "Retail" {
		t.Errorf("sector = %q, want feed default", item.Sector)
	}
}

func TestBuildItemClassifierBeatsFeedDefault(t *testing.T) {
	fd := FeedDescriptor{Source: "General Wire", Category: "Markets"}

	item, _ := buildItem(fd, &gofeed.Item{Title: "Bitcoin and ethereum rally on ETF news"})
	if item.Category != "Crypto" {
		t.Errorf("category = %q, want classifier to override feed default", item.Category)
	}
}

func TestCleanSummaryEmpty(t *testing.T) {
	if got := cleanSummary("   "); got != "" {
		t.Errorf("cleanSummary(blank) = %q, want empty", got)
	}
}
