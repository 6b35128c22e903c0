package scrape

import (
	"bytes"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Parser converts raw HTML into a ParsedPage plus a scored list of
// same-host candidate links. Malformed HTML is tolerated: extraction is
// best-effort and only a completely unreadable document fails.
type Parser struct {
	scorer       *LinkScorer
	maxHeadings  int
	textWordCap  int
	previewChars int
}

// NewParser creates a parser with the given extraction budgets.
func NewParser(scorer *LinkScorer, maxHeadings, textWordCap, previewChars int) *Parser {
	return &Parser{
		scorer:       scorer,
		maxHeadings:  maxHeadings,
		textWordCap:  textWordCap,
		previewChars: previewChars,
	}
}

// Parse extracts a structured page record from htmlBody. pageURL must
// be the final post-redirect URL so link resolution and the SSL flag
// reflect the true destination.
func (p *Parser) Parse(htmlBody []byte, pageURL string, responseTime time.Duration) (*ParsedPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlBody))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse %s: invalid page URL: %w", pageURL, err)
	}

	// Candidate links are collected before noise removal since
	// canonical/og:url live in <head>.
	candidates, counts := p.extractLinks(doc, base)

	// Noise removal before text extraction.
	doc.Find("script,style,noscript").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = "Untitled"
	}

	description := strings.TrimSpace(doc.Find(`meta[name="description"]`).AttrOr("content", ""))
	if description == "" {
		description = strings.TrimSpace(doc.Find(`meta[property="og:description"]`).AttrOr("content", ""))
	}

	var headings []string
	doc.Find("h1,h2,h3").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if t := collapseWhitespace(s.Text()); t != "" {
			headings = append(headings, t)
		}
		return len(headings) < p.maxHeadings
	})

	bodyText := doc.Find("body").Text()
	if strings.TrimSpace(bodyText) == "" {
		bodyText = doc.Text()
	}
	words := strings.Fields(bodyText)
	wordCount := len(words)
	if len(words) > p.textWordCap {
		words = words[:p.textWordCap]
	}
	text := strings.Join(words, " ")

	return &ParsedPage{
		URL:            pageURL,
		Title:          title,
		Description:    description,
		Headings:       headings,
		Text:           text,
		WordCount:      wordCount,
		TextPreview:    truncateWithEllipsis(text, p.previewChars),
		Images:         doc.Find("img").Length(),
		Links:          counts,
		Meta:           extractMeta(doc),
		HasSSL:         base.Scheme == "https",
		ResponseTime:   responseTime,
		LinksForFollow: candidates,
	}, nil
}

// canonicalScore is the fixed score given to canonical and og:url
// self-references. These usually point at the representative URL for a
// page and should beat any keyword-scored anchor.
const canonicalScore = 10

// extractLinks classifies every anchor on the page and builds the
// deduplicated, score-sorted follow list. Cross-host links are counted
// but never followed.
func (p *Parser) extractLinks(doc *goquery.Document, base *url.URL) ([]CandidateLink, LinkCounts) {
	var candidates []CandidateLink
	var counts LinkCounts

	// Canonical and og:url come first so the first-occurrence-wins
	// dedup keeps their boosted score.
	for _, href := range []string{
		doc.Find(`link[rel="canonical"]`).AttrOr("href", ""),
		doc.Find(`meta[property="og:url"]`).AttrOr("content", ""),
	} {
		if u := resolveHTTPURL(base, href); u != nil && sameHost(base, u) {
			candidates = append(candidates, CandidateLink{
				URL:    u.String(),
				Anchor: "canonical",
				Score:  canonicalScore,
			})
		}
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		u := resolveHTTPURL(base, href)
		if u == nil {
			return
		}

		if !sameHost(base, u) {
			counts.External++
			return
		}
		counts.Internal++

		anchor := collapseWhitespace(s.Text())
		candidates = append(candidates, CandidateLink{
			URL:    u.String(),
			Anchor: anchor,
			Score:  p.scorer.Score(u.Path, anchor),
		})
	})

	candidates = dedupeByURL(candidates)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	return candidates, counts
}

// resolveHTTPURL resolves href against base and returns it without its
// fragment. Non-navigational schemes (javascript:, mailto:, tel:) and
// bare fragments yield nil and are not counted as links at all.
func resolveHTTPURL(base *url.URL, href string) *url.URL {
	if href == "" || strings.HasPrefix(href, "#") {
		return nil
	}
	lower := strings.ToLower(href)
	for _, scheme := range []string{"javascript:", "mailto:", "tel:"} {
		if strings.HasPrefix(lower, scheme) {
			return nil
		}
	}

	u, err := url.Parse(href)
	if err != nil {
		return nil
	}
	resolved := base.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return nil
	}
	resolved.Fragment = ""
	return resolved
}

// sameHost compares hosts ignoring a leading www prefix, so that
// example.com and www.example.com count as the same origin.
func sameHost(a, b *url.URL) bool {
	return strings.TrimPrefix(strings.ToLower(a.Hostname()), "www.") ==
		strings.TrimPrefix(strings.ToLower(b.Hostname()), "www.")
}

func dedupeByURL(links []CandidateLink) []CandidateLink {
	seen := make(map[string]struct{}, len(links))
	out := links[:0]
	for _, l := range links {
		if _, ok := seen[l.URL]; ok {
			continue
		}
		seen[l.URL] = struct{}{}
		out = append(out, l)
	}
	return out
}

func extractMeta(doc *goquery.Document) PageMeta {
	return PageMeta{
		Keywords: strings.TrimSpace(doc.Find(`meta[name="keywords"]`).AttrOr("content", "")),
		Author:   strings.TrimSpace(doc.Find(`meta[name="author"]`).AttrOr("content", "")),
		Viewport: strings.TrimSpace(doc.Find(`meta[name="viewport"]`).AttrOr("content", "")),
		Robots:   strings.TrimSpace(doc.Find(`meta[name="robots"]`).AttrOr("content", "")),
	}
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateWithEllipsis cuts s at max bytes on a rune boundary and
// appends "..." when anything was removed.
func truncateWithEllipsis(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	for len(cut) > 0 {
		r, size := utf8.DecodeLastRuneInString(cut)
		if r == utf8.RuneError && size == 1 {
			cut = cut[:len(cut)-1]
			continue
		}
		break
	}
	return cut + "..."
}
