package scrape

import (
	"sort"
	"strings"

	"github.com/sajtmaskin/skrapa/internal/config"
)

// Aggregator merges the pages of a completed crawl into one
// WebsiteContent within the configured word and heading budgets.
type Aggregator struct {
	cfg *config.AuditConfig
}

// NewAggregator creates an aggregator with the given budgets.
func NewAggregator(cfg *config.AuditConfig) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// richness ranks pages for primary selection. Link quality and heading
// structure compensate for pages whose word count alone undersells
// them.
func richness(p *ParsedPage) float64 {
	return float64(p.WordCount) + p.BestLinkScore()*15 + float64(len(p.Headings))*8
}

// Aggregate merges pages into a single WebsiteContent. pages must be
// non-empty; the crawl guarantees at least the seed page.
//
// The primary page is the richest page clearing the primary word
// threshold, falling back to the richest page outright. The two-tier
// threshold keeps a thin splash page from becoming primary when a
// deeper page carries the real content.
func (a *Aggregator) Aggregate(pages []*ParsedPage) *WebsiteContent {
	ranked := make([]*ParsedPage, len(pages))
	copy(ranked, pages)
	sort.SliceStable(ranked, func(i, j int) bool {
		return richness(ranked[i]) > richness(ranked[j])
	})

	primary := ranked[0]
	for _, p := range ranked {
		if p.WordCount >= a.cfg.PrimaryMinWords {
			primary = p
			break
		}
	}

	sampled := a.selectSample(ranked, primary)

	content := &WebsiteContent{
		URL:          primary.URL,
		Title:        primary.Title,
		Description:  primary.Description,
		Meta:         primary.Meta,
		HasSSL:       primary.HasSSL,
		ResponseTime: primary.ResponseTime,
	}

	var texts []string
	seenHeadings := make(map[string]struct{})
	for _, p := range sampled {
		content.SampledURLs = append(content.SampledURLs, p.URL)
		content.WordCount += p.WordCount
		content.Images += p.Images
		content.Links.Internal += p.Links.Internal
		content.Links.External += p.Links.External

		for _, h := range p.Headings {
			if len(content.Headings) >= a.cfg.AggregateMaxHeadings {
				break
			}
			if _, dup := seenHeadings[h]; dup {
				continue
			}
			seenHeadings[h] = struct{}{}
			content.Headings = append(content.Headings, h)
		}

		if p.Text != "" {
			texts = append(texts, p.Text)
		}
	}

	merged := strings.Fields(strings.Join(texts, " "))
	if len(merged) > a.cfg.AggregateWordLimit {
		merged = merged[:a.cfg.AggregateWordLimit]
	}
	content.Text = strings.Join(merged, " ")
	content.TextPreview = truncateWithEllipsis(content.Text, a.cfg.PreviewChars)

	return content
}

// selectSample picks the pages contributing to the aggregate: the
// primary first, then pages clearing the aggregation-worthy word
// count, then thinner pages only as filler.
func (a *Aggregator) selectSample(ranked []*ParsedPage, primary *ParsedPage) []*ParsedPage {
	sampled := []*ParsedPage{primary}

	for _, p := range ranked {
		if len(sampled) >= a.cfg.MaxPages {
			return sampled
		}
		if p == primary || p.WordCount < a.cfg.MinAggregationWords {
			continue
		}
		sampled = append(sampled, p)
	}

	for _, p := range ranked {
		if len(sampled) >= a.cfg.MaxPages {
			break
		}
		if p == primary || p.WordCount >= a.cfg.MinAggregationWords {
			continue
		}
		sampled = append(sampled, p)
	}

	return sampled
}
