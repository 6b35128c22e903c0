package scrape

import (
	"context"
	"log/slog"
	"time"

	"github.com/sajtmaskin/skrapa/internal/config"
)

// Scraper is the library-level entry point: one structured content
// summary per input URL. Instances are safe for sequential reuse; each
// ScrapeWebsite call runs an isolated crawl with no shared mutable
// state, so running several independent audits concurrently means one
// Scraper per audit.
type Scraper struct {
	cfg        *config.AuditConfig
	fetcher    *Fetcher
	crawler    *Crawler
	aggregator *Aggregator
}

// New creates a scraper from cfg, which must already be validated.
func New(cfg *config.AuditConfig) *Scraper {
	fetcher := NewFetcher(cfg.UserAgent, cfg.AcceptLanguage, cfg.FetchTimeout, cfg.MaxBodyBytes)
	parser := NewParser(NewLinkScorer(), cfg.MaxHeadings, cfg.TextWordCap, cfg.PreviewChars)
	return &Scraper{
		cfg:        cfg,
		fetcher:    fetcher,
		crawler:    NewCrawler(cfg, fetcher, parser),
		aggregator: NewAggregator(cfg),
	}
}

// ScrapeWebsite validates rawURL, crawls the site and aggregates the
// result. It fails only when the input is invalid or the seed page
// cannot be fetched and parsed; secondary-page failures degrade the
// sample silently. Callers needing a stricter overall deadline than
// max_pages x fetch_timeout should bound ctx themselves.
func (s *Scraper) ScrapeWebsite(ctx context.Context, rawURL string) (*WebsiteContent, error) {
	seedURL, err := ValidateAndNormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	pages, err := s.crawler.Crawl(ctx, seedURL)
	if err != nil {
		return nil, err
	}

	content := s.aggregator.Aggregate(pages)
	slog.Info("Audit content ready",
		"url", content.URL,
		"sampled", len(content.SampledURLs),
		"words", content.WordCount,
		"elapsed", time.Since(start))
	return content, nil
}

// Close releases network resources held by the scraper.
func (s *Scraper) Close() {
	s.fetcher.Close()
}
