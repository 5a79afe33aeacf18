package feeds

import (
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"

	"github.com/littlelittle-hq/newswire/internal/domain"
	"github.com/littlelittle-hq/newswire/internal/logger"
	"github.com/littlelittle-hq/newswire/pkg/httpclient"
)

var defaultHeaders = map[string]string{
	"User-Agent": "newswire/1.0 (+https://littlelittle.example)",
	"Accept":     "application/rss+xml, application/atom+xml, application/xml, text/xml",
}

// Fetcher retrieves and parses a single feed. The returned error is
// informational (for logging and health tracking): callers in the pipeline
// treat any failure as "this feed contributed zero items" and move on, so one
// feed cannot abort the aggregation.
type Fetcher struct {
	client   httpclient.Client
	parser   *gofeed.Parser
	log      logger.Logger
	maxItems int
}

// NewFetcher builds a Fetcher. maxItems caps how many entries are taken from
// one feed to keep per-feed cost bounded.
func NewFetcher(client httpclient.Client, log logger.Logger, maxItems int) *Fetcher {
	if log == nil {
		log = logger.NopLogger{}
	}
	if maxItems <= 0 {
		maxItems = 15
	}
	return &Fetcher{
		client:   client,
		parser:   gofeed.NewParser(),
		log:      log,
		maxItems: maxItems,
	}
}

// Fetch retrieves the feed and returns its usable items. Retry and timeout
// policy live in the HTTP client; entries that fail to build are skipped
// without counting as a feed failure.
func (f *Fetcher) Fetch(ctx context.Context, fd FeedDescriptor) ([]domain.NewsItem, error) {
	resp, err := f.client.Get(ctx, fd.URL, defaultHeaders)
	if err != nil {
		f.log.WarnObj("feed fetch failed", "feed_fetch_error", map[string]any{
			"source": fd.Source,
			"url":    fd.URL,
			"error":  err.Error(),
		})
		return nil, fmt.Errorf("fetch feed %s: %w", fd.Source, err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		f.log.WarnObj("feed returned unexpected status", "feed_fetch_status", map[string]any{
			"source":   fd.Source,
			"url":      fd.URL,
			"status":   resp.StatusCode(),
			"attempts": resp.Attempts(),
		})
		return nil, fmt.Errorf("feed %s returned status %d", fd.Source, resp.StatusCode())
	}

	body := resp.Body()
	feed, err := f.parser.ParseString(string(body))
	if err != nil {
		f.log.WarnObj("feed parse failed", "feed_parse_error", map[string]any{
			"source": fd.Source,
			"url":    fd.URL,
			"bytes":  len(body),
			"error":  err.Error(),
		})
		return nil, fmt.Errorf("parse feed %s: %w", fd.Source, err)
	}

	count := len(feed.Items)
	if count > f.maxItems {
		count = f.maxItems
	}

	items := make([]domain.NewsItem, 0, count)
	for _, entry := range feed.Items[:count] {
		item, ok := buildItem(fd, entry)
		if !ok {
			continue
		}
		items = append(items, item)
	}

	f.log.DebugObj("feed fetched", "feed_fetch_done", map[string]any{
		"source":   fd.Source,
		"url":      fd.URL,
		"bytes":    len(body),
		"entries":  len(feed.Items),
		"items":    len(items),
		"attempts": resp.Attempts(),
	})

	return items, nil
}
