package server

import (
	"time"

	"github.com/littlelittle-hq/newswire/internal/config"
	"github.com/littlelittle-hq/newswire/internal/domain"
	"github.com/littlelittle-hq/newswire/pkg/publishers"
)

// newsResponse is the external payload shape. Optional fields are present only
// on the success path; error only on the fallback path.
type newsResponse struct {
	Success          bool                         `json:"success"`
	Data             []domain.NewsItem            `json:"data"`
	Categorized      map[string][]domain.NewsItem `json:"categorized,omitempty"`
	Count            int                          `json:"count"`
	Sources          []string                     `json:"sources,omitempty"`
	Categories       []string                     `json:"categories,omitempty"`
	LastUpdated      time.Time                    `json:"lastUpdated"`
	ProcessingTimeMs int64                        `json:"processingTimeMs"`
	CacheExpiry      *time.Time                   `json:"cacheExpiry,omitempty"`
	Error            string                       `json:"error,omitempty"`
}

// successResponse wraps an aggregation result into the response envelope.
func successResponse(result domain.AggregatedResult) newsResponse {
	expiry := result.LastUpdated.Add(config.DefaultCacheExpiry)
	data := result.Items
	if data == nil {
		data = []domain.NewsItem{}
	}
	return newsResponse{
		Success:          true,
		Data:             data,
		Categorized:      result.Categorized,
		Count:            len(data),
		Sources:          result.Sources,
		Categories:       result.Categories,
		LastUpdated:      result.LastUpdated,
		ProcessingTimeMs: result.Elapsed.Milliseconds(),
		CacheExpiry:      &expiry,
	}
}

// fallbackResponse is the fixed payload returned when the pipeline itself
// fails. Two placeholder items keep client layouts populated; the success flag
// tells callers the content is not live.
func fallbackResponse(errMsg string) newsResponse {
	now := time.Now().UTC()
	items := []domain.NewsItem{
		{
			Title:       "Markets Update: Trading Activity Continues",
			Summary:     "Major exchanges report ongoing trading activity across asset classes. Live headlines are temporarily unavailable.",
			URL:         "#",
			PublishedAt: now,
			Source:      "LITTLE little Newsdesk",
			Category:    "Markets",
		},
		{
			Title:       "Market Overview: Investors Monitor Global Developments",
			Summary:     "Investors continue to monitor economic indicators and global developments. Live headlines are temporarily unavailable.",
			URL:         "#",
			PublishedAt: now,
			Source:      "LITTLE little Newsdesk",
			Category:    "General",
		},
	}

	return newsResponse{
		Success:          false,
		Data:             items,
		Count:            len(items),
		LastUpdated:      now,
		ProcessingTimeMs: 0,
		Error:            errMsg,
	}
}

// digestEvent summarizes a successful aggregation for downstream publishers.
func digestEvent(result domain.AggregatedResult) publishers.Event {
	evt := publishers.Event{
		Kind:             publishers.EventKindDigest,
		Count:            len(result.Items),
		Sources:          result.Sources,
		Categories:       result.Categories,
		LastUpdated:      result.LastUpdated,
		ProcessingTimeMs: result.Elapsed.Milliseconds(),
	}
	if len(result.Items) > 0 {
		evt.TopHeadline = result.Items[0].Title
	}
	return evt
}
