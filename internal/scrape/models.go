// Package scrape implements a bounded, heuristic-driven website crawler
// and content aggregator. Given a single input URL it performs a
// best-first crawl of the origin host, capped at a handful of pages,
// and merges the richest pages into one token-budgeted content summary
// suitable for downstream analysis.
package scrape

import "time"

// PageMeta holds optional metadata extracted from meta tags.
type PageMeta struct {
	Keywords string `json:"keywords,omitempty"`
	Author   string `json:"author,omitempty"`
	Viewport string `json:"viewport,omitempty"`
	Robots   string `json:"robots,omitempty"`
}

// LinkCounts holds counts of same-host vs cross-host anchors on a page.
type LinkCounts struct {
	Internal int `json:"internal"`
	External int `json:"external"`
}

// CandidateLink is an unvisited same-host URL discovered on a parsed
// page, carrying a relevance score. Higher scores are crawled first.
type CandidateLink struct {
	URL    string  `json:"url"`
	Anchor string  `json:"anchor,omitempty"`
	Score  float64 `json:"score"`
}

// ParsedPage is the structured record produced for one fetched page.
// It lives only for the duration of a single crawl invocation.
type ParsedPage struct {
	URL         string   `json:"url"` // final URL after redirects
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Headings    []string `json:"headings"` // h1-h3 in document order, capped

	// Text is the whitespace-normalized body text capped to the
	// configured word budget. WordCount is the word count of the
	// uncapped text and is used for ranking.
	Text        string `json:"text"`
	WordCount   int    `json:"wordCount"`
	TextPreview string `json:"textPreview"`

	Images int        `json:"images"`
	Links  LinkCounts `json:"links"`
	Meta   PageMeta   `json:"meta"`

	HasSSL       bool          `json:"hasSsl"`
	ResponseTime time.Duration `json:"responseTime"`

	// LinksForFollow is sorted by score descending and deduplicated
	// by URL. It never leaves the origin host.
	LinksForFollow []CandidateLink `json:"-"`
}

// BestLinkScore returns the score of the page's strongest outbound
// candidate, or zero when the page has none.
func (p *ParsedPage) BestLinkScore() float64 {
	if len(p.LinksForFollow) == 0 {
		return 0
	}
	return p.LinksForFollow[0].Score
}

// WebsiteContent is the aggregate produced from a completed crawl and
// the sole externally visible artifact of this package.
//
// SampledURLs is never empty; its first element is the primary page,
// whose title, description, meta, SSL flag and response time populate
// the scalar fields. WordCount is the sum of per-page pre-truncation
// word counts, while Text and TextPreview reflect the budget-capped
// concatenation.
type WebsiteContent struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Headings    []string `json:"headings"`

	Text        string `json:"text"`
	WordCount   int    `json:"wordCount"`
	TextPreview string `json:"textPreview"`

	Images int        `json:"images"`
	Links  LinkCounts `json:"links"`
	Meta   PageMeta   `json:"meta"`

	HasSSL       bool          `json:"hasSsl"`
	ResponseTime time.Duration `json:"responseTime"`

	SampledURLs []string `json:"sampledUrls"`
}
