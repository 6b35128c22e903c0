package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/time/rate"

	"github.com/sajtmaskin/skrapa/internal/config"
)

// Crawler drives a priority-ordered, capped crawl of a single origin
// host. Fetches are sequential: the best-first ordering requires all
// currently known scores before picking the next fetch, and sequential
// requests avoid bursting a third-party site.
//
// All mutable crawl state (visited set, enqueued set, candidate queue)
// is local to one Crawl call, so concurrent callers each get an
// isolated crawl.
type Crawler struct {
	cfg     *config.AuditConfig
	fetcher *Fetcher
	parser  *Parser
	limiter *rate.Limiter
}

// NewCrawler creates a crawler from its collaborators. The rate
// limiter paces every fetch after the seed.
func NewCrawler(cfg *config.AuditConfig, fetcher *Fetcher, parser *Parser) *Crawler {
	interval := cfg.RequestDelay
	limiter := rate.NewLimiter(rate.Inf, 1)
	if interval > 0 {
		limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
	return &Crawler{
		cfg:     cfg,
		fetcher: fetcher,
		parser:  parser,
		limiter: limiter,
	}
}

// Crawl fetches seedURL and then follows the highest-scored same-host
// candidates until the page budget is reached, the fetch budget is
// spent or the queue is drained. The fetch budget counts every request
// including failures and discarded thin pages; without it a site whose
// thin pages keep generating novel URLs (calendar and session links)
// would never drain the queue. A seed failure is fatal; every later
// failure only drops that candidate. The returned pages are in
// acceptance order, seed first.
func (c *Crawler) Crawl(ctx context.Context, seedURL string) ([]*ParsedPage, error) {
	visited := make(map[string]struct{})
	enqueued := make(map[string]struct{})
	var queue []CandidateLink

	seedPage, err := c.fetchAndParse(ctx, seedURL)
	if err != nil {
		return nil, fmt.Errorf("seed page: %w", err)
	}

	// Both the requested and the resolved URL are marked so a later
	// candidate redirecting back to either form is never refetched.
	visited[seedURL] = struct{}{}
	visited[seedPage.URL] = struct{}{}

	// The seed page is always part of the result set, even when thin:
	// it is the guaranteed fallback for primary selection.
	pages := []*ParsedPage{seedPage}
	queue = c.enqueue(queue, seedPage.LinksForFollow, visited, enqueued)

	attempts := 1 // the seed fetch
	for len(queue) > 0 && len(pages) < c.cfg.MaxPages && attempts < c.cfg.MaxFetchAttempts {
		candidate := queue[0]
		queue = queue[1:]

		if _, seen := visited[candidate.URL]; seen {
			continue
		}
		visited[candidate.URL] = struct{}{}

		if err := c.limiter.Wait(ctx); err != nil {
			slog.Warn("Crawl cancelled while pacing", "url", candidate.URL, "error", err)
			break
		}

		attempts++
		page, err := c.fetchAndParse(ctx, candidate.URL)
		if err != nil {
			slog.Warn("Skipping candidate page", "url", candidate.URL, "score", candidate.Score, "error", err)
			continue
		}

		if _, seen := visited[page.URL]; seen && page.URL != candidate.URL {
			// Redirected onto a page we already have.
			slog.Debug("Candidate redirected to visited URL", "url", candidate.URL, "final_url", page.URL)
			continue
		}
		visited[page.URL] = struct{}{}

		// Thin navigation-only pages are not kept, but their links
		// may still point at richer pages.
		if page.WordCount >= c.cfg.SecondaryMinWords {
			pages = append(pages, page)
			slog.Debug("Accepted page", "url", page.URL, "words", page.WordCount, "score", candidate.Score)
		} else {
			slog.Debug("Discarded thin page", "url", page.URL, "words", page.WordCount)
		}

		queue = c.enqueue(queue, page.LinksForFollow, visited, enqueued)
	}

	slog.Info("Crawl finished", "seed", seedURL, "pages", len(pages), "fetches", attempts, "queued_left", len(queue))
	return pages, nil
}

// fetchAndParse runs one bounded fetch and best-effort parse.
func (c *Crawler) fetchAndParse(ctx context.Context, pageURL string) (*ParsedPage, error) {
	res, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return c.parser.Parse(res.HTML, res.FinalURL, res.ResponseTime)
}

// enqueue merges new candidates into the queue, dropping URLs already
// visited or queued, capping the additions to the per-page link budget
// and re-sorting so the best candidate is always at the front.
func (c *Crawler) enqueue(queue, candidates []CandidateLink, visited, enqueued map[string]struct{}) []CandidateLink {
	added := 0
	for _, cand := range candidates {
		if added >= c.cfg.MaxLinksToConsider {
			break
		}
		if _, seen := visited[cand.URL]; seen {
			continue
		}
		if _, queued := enqueued[cand.URL]; queued {
			continue
		}
		enqueued[cand.URL] = struct{}{}
		queue = append(queue, cand)
		added++
	}

	sort.SliceStable(queue, func(i, j int) bool {
		return queue[i].Score > queue[j].Score
	})
	return queue
}
