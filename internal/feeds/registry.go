package feeds

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FeedDescriptor describes one RSS/Atom endpoint in the registry. Descriptors
// are configuration: built once at startup and never mutated.
type FeedDescriptor struct {
	URL      string `yaml:"url"`
	Source   string `yaml:"source"`
	Category string `yaml:"category"`
	Region   string `yaml:"region,omitempty"`
	Sector   string `yaml:"sector,omitempty"`
}

// registryFile is the structure of the optional feeds override file.
type registryFile struct {
	Feeds []FeedDescriptor `yaml:"feeds"`
}

// DefaultRegistry is the built-in feed table. Declaration order is the merge
// order of the aggregation, so dedup outcomes stay deterministic.
var DefaultRegistry = []FeedDescriptor{
	{URL: "https://feeds.reuters.com/reuters/businessNews", Source: "Reuters Business", Category: "Markets", Region: "United States"},
	{URL: "https://www.cnbc.com/id/100003114/device/rss/rss.html", Source: "CNBC", Category: "Markets", Region: "United States"},
	{URL: "https://feeds.marketwatch.com/marketwatch/topstories/", Source: "MarketWatch", Category: "Markets", Region: "United States"},
	{URL: "https://www.federalreserve.gov/feeds/press_all.xml", Source: "Federal Reserve", Category: "Monetary Policy", Region: "United States"},
	{URL: "https://www.coindesk.com/arc/outboundfeeds/rss/", Source: "CoinDesk", Category: "Crypto"},
	{URL: "https://cointelegraph.com/rss", Source: "Cointelegraph", Category: "Crypto"},
	{URL: "https://techcrunch.com/feed/", Source: "TechCrunch", Category: "Technology", Region: "United States"},
	{URL: "https://www.theverge.com/rss/index.xml", Source: "The Verge", Category: "Technology"},
	{URL: "https://oilprice.com/rss/main", Source: "OilPrice", Category: "Energy", Sector: "Energy"},
	{URL: "https://www.fiercepharma.com/rss/xml", Source: "FiercePharma", Category: "Pharmaceuticals", Sector: "Pharmaceuticals"},
	{URL: "https://www.autonews.com/feed", Source: "Automotive News", Category: "Automotive", Sector: "Automotive"},
	{URL: "https://aviationweek.com/rss.xml", Source: "Aviation Week", Category: "Aerospace", Sector: "Aerospace"},
	{URL: "https://feeds.bbci.co.uk/news/business/rss.xml", Source: "BBC Business", Category: "Markets", Region: "Europe"},
	{URL: "https://www.scmp.com/rss/92/feed", Source: "South China Morning Post", Category: "Markets", Region: "Asia"},
}

// LoadRegistry loads feed descriptors from a YAML file, expanding environment
// variable references in its content. An empty path returns the built-in table.
func LoadRegistry(path string) ([]FeedDescriptor, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		out := make([]FeedDescriptor, len(DefaultRegistry))
		copy(out, DefaultRegistry)
		return out, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feeds file: %w", err)
	}

	expanded := []byte(os.ExpandEnv(string(raw)))

	var file registryFile
	if err := yaml.Unmarshal(expanded, &file); err != nil {
		return nil, fmt.Errorf("decode feeds file: %w", err)
	}
	if len(file.Feeds) == 0 {
		return nil, errors.New("feeds file contains no feeds entries")
	}

	out := make([]FeedDescriptor, 0, len(file.Feeds))
	for i := range file.Feeds {
		fd := sanitizeDescriptor(file.Feeds[i])
		if err := validateDescriptor(fd); err != nil {
			return nil, fmt.Errorf("feeds[%d]: %w", i, err)
		}
		out = append(out, fd)
	}
	return out, nil
}

// sanitizeDescriptor trims the descriptor fields.
func sanitizeDescriptor(fd FeedDescriptor) FeedDescriptor {
	fd.URL = strings.TrimSpace(fd.URL)
	fd.Source = strings.TrimSpace(fd.Source)
	fd.Category = strings.TrimSpace(fd.Category)
	fd.Region = strings.TrimSpace(fd.Region)
	fd.Sector = strings.TrimSpace(fd.Sector)
	return fd
}

// validateDescriptor checks that required fields are present.
func validateDescriptor(fd FeedDescriptor) error {
	if fd.URL == "" {
		return errors.New("url is required")
	}
	if fd.Source == "" {
		return fmt.Errorf("source is required for feed %q", fd.URL)
	}
	if fd.Category == "" {
		return fmt.Errorf("category is required for feed %q", fd.URL)
	}
	return nil
}
