package feeds

import (
	"html"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/littlelittle-hq/newswire/internal/classify"
	"github.com/littlelittle-hq/newswire/internal/domain"
)

const (
	summaryMaxLen = 300

	// noLink marks an item whose feed entry carried no usable URL.
	noLink = "#"
)

// buildItem converts one parsed feed entry into a NewsItem. An entry without a
// title is not publishable and is dropped.
func buildItem(fd FeedDescriptor, entry *gofeed.Item) (domain.NewsItem, bool) {
	title := strings.TrimSpace(html.UnescapeString(entry.Title))
	if title == "" {
		return domain.NewsItem{}, false
	}

	raw := entry.Description
	if raw == "" {
		raw = entry.Content
	}
	summary := cleanSummary(raw)

	url := strings.TrimSpace(entry.Link)
	if url == "" {
		url = strings.TrimSpace(entry.GUID)
	}
	if url == "" {
		url = noLink
	}

	// Missing or unparsable dates default to now. This is a deliberate
	// recency bias: an undated story sorts as fresh rather than vanishing
	// to the bottom of the result.
	publishedAt := time.Now().UTC()
	if entry.PublishedParsed != nil {
		publishedAt = *entry.PublishedParsed
	} else if entry.UpdatedParsed != nil {
		publishedAt = *entry.UpdatedParsed
	}

	cls := classify.Classify(title, summary)

	category := cls.Category
	if category == classify.DefaultCategory && fd.Category != "" {
		category = fd.Category
	}

	region := cls.Region
	if region == "" {
		region = fd.Region
	}

	sector := classify.SectorFor(category)
	if sector == "" {
		sector = fd.Sector
	}

	return domain.NewsItem{
		Title:       title,
		Summary:     summary,
		URL:         url,
		PublishedAt: publishedAt,
		Source:      fd.Source,
		Category:    category,
		Region:      region,
		Sector:      sector,
	}, true
}

// cleanSummary strips HTML markup, decodes entities, collapses whitespace,
// and truncates to the summary length bound.
func cleanSummary(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	text := raw
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw)); err == nil {
		text = doc.Text()
	}
	text = html.UnescapeString(text)
	text = strings.Join(strings.Fields(text), " ")

	if runes := []rune(text); len(runes) > summaryMaxLen {
		text = string(runes[:summaryMaxLen])
	}
	return text
}
