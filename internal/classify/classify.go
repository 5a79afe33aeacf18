package classify

import (
	"strings"

	"github.com/littlelittle-hq/newswire/internal/domain"
)

// DefaultCategory is assigned when no category keyword matches.
const DefaultCategory = "General"

// keywordSet pairs a label with the lowercase phrases that vote for it.
type keywordSet struct {
	Name     string
	Keywords []string
}

// categoryKeywords is an ordered list, not a map: ties between categories with
// equal match counts resolve to the earlier declaration.
var categoryKeywords = []keywordSet{
	{Name: "Monetary Policy", Keywords: []string{
		"federal reserve", "fed cuts", "fed raises", "fed holds", "interest rate",
		"rate cut", "rate hike", "rates", "central bank", "inflation", "monetary policy",
		"ecb", "bank of england", "quantitative",
	}},
	{Name: "Crypto", Keywords: []string{
		"bitcoin", "ethereum", "blockchain", "crypto", "btc", "solana", "stablecoin",
		"defi", "coinbase", "binance", "altcoin", "token sale", "nft",
	}},
	{Name: "Markets", Keywords: []string{
		"stocks", "s&p 500", "nasdaq", "dow jones", "wall street", "earnings",
		"ipo", "shares", "equities", "bond yields", "stock market", "rally", "sell-off",
	}},
	{Name: "AI", Keywords: []string{
		"artificial intelligence", "machine learning", "openai", "chatgpt",
		"deep learning", "neural network", "large language model", "generative ai",
	}},
	{Name: "Technology", Keywords: []string{
		"software", "semiconductor", "chipmaker", "startup", "apple", "google",
		"microsoft", "amazon", "meta platforms", "cloud computing", "cybersecurity",
	}},
	{Name: "Energy", Keywords: []string{
		"oil", "natural gas", "opec", "crude", "renewable", "solar power",
		"wind power", "energy prices", "barrel", "pipeline", "drilling",
	}},
	{Name: "Pharmaceuticals", Keywords: []string{
		"pharma", "drugmaker", "fda approval", "vaccine", "clinical trial",
		"biotech", "pfizer", "moderna", "prescription",
	}},
	{Name: "Automotive", Keywords: []string{
		"tesla", "electric vehicle", "automaker", "car sales", "ford", "toyota",
		"automotive", "self-driving", "dealership",
	}},
	{Name: "Aerospace", Keywords: []string{
		"boeing", "airbus", "aircraft", "airline", "aviation", "spacex",
		"satellite", "rocket launch", "defense contract",
	}},
	{Name: "Commodities", Keywords: []string{
		"gold prices", "silver", "copper", "wheat", "commodity", "futures contract",
		"soybean", "iron ore",
	}},
	{Name: "Real Estate", Keywords: []string{
		"housing market", "mortgage", "real estate", "property prices",
		"home sales", "commercial property",
	}},
}

// regionKeywords assigns a geographic tag. Unlike categories this is
// first-match-wins, not best-match: the scan stops at the first region with
// any keyword hit.
var regionKeywords = []keywordSet{
	{Name: "United States", Keywords: []string{
		"u.s.", "united states", "america", "washington", "wall street", "federal reserve",
	}},
	{Name: "Europe", Keywords: []string{
		"europe", "eurozone", "ecb", "brussels", "london", "germany", "france",
	}},
	{Name: "Asia", Keywords: []string{
		"china", "japan", "india", "asia", "beijing", "tokyo", "hong kong",
	}},
	{Name: "Middle East", Keywords: []string{
		"middle east", "saudi", "israel", "iran", "gulf states", "uae",
	}},
	{Name: "Latin America", Keywords: []string{
		"brazil", "mexico", "latin america", "argentina", "chile",
	}},
}

// sectorCategories are the categories that double as industry sectors. When the
// winning category is one of these, the item's sector is the category itself.
var sectorCategories = map[string]struct{}{
	"Energy":          {},
	"Pharmaceuticals": {},
	"Automotive":      {},
	"Aerospace":       {},
}

// Classify assigns best-effort topic, region, and sector labels from the item
// text. It is a heuristic: ambiguous text may be mis-bucketed, and the contract
// is single-label best effort rather than ground truth.
func Classify(title, summary string) domain.Classification {
	text := strings.ToLower(title + " " + summary)

	cls := domain.Classification{Category: DefaultCategory}

	best := 0
	for _, set := range categoryKeywords {
		count := 0
		for _, kw := range set.Keywords {
			if strings.Contains(text, kw) {
				count++
			}
		}
		if count > best {
			best = count
			cls.Category = set.Name
		}
	}

	for _, set := range regionKeywords {
		if containsAny(text, set.Keywords) {
			cls.Region = set.Name
			break
		}
	}

	if _, ok := sectorCategories[cls.Category]; ok {
		cls.Sector = cls.Category
	}

	return cls
}

// SectorFor returns the sector label for a category, or empty when the
// category is not sector-equivalent.
func SectorFor(category string) string {
	if _, ok := sectorCategories[category]; ok {
		return category
	}
	return ""
}

// containsAny reports whether text contains any of the given substrings.
func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
