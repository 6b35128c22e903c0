package scrape

import "strings"

// ScoreRule awards Weight when any of its Keywords occurs in the
// lowercase concatenation of a link's path and anchor text. Rules are
// evaluated in order and their weights summed, so the table can be
// tuned without touching control flow.
type ScoreRule struct {
	Keywords []string
	Weight   float64
}

// defaultScoreRules ranks page types by how informative they tend to be
// for a business-overview audit. Keywords cover English and Swedish
// since the crawler mostly runs against Swedish small-business sites.
// Legal and auth pages get negative weights large enough to sink them
// below content pages, but small enough that they can still be visited
// when nothing else qualifies.
var defaultScoreRules = []ScoreRule{
	{[]string{"about", "om-oss", "om_oss", "om oss", "foretaget", "företaget"}, 8},
	{[]string{"service", "tjanst", "tjänst", "erbjud"}, 7},
	{[]string{"product", "produkt", "sortiment"}, 6},
	{[]string{"portfolio", "case", "work", "referens", "projekt", "arbeten"}, 5},
	{[]string{"blog", "blogg", "news", "nyhet", "aktuellt"}, 4},
	{[]string{"home", "start", "hem"}, 3},
	{[]string{"contact", "kontakt"}, 2},
	{[]string{"privacy", "policy", "integritet", "personuppgift", "cookie", "gdpr", "terms", "villkor"}, -6},
	{[]string{"login", "logga-in", "logga_in", "signin", "sign-in", "signup", "sign-up", "registrera", "konto"}, -5},
}

// shortPathBonus rewards top-level paths as a proxy for importance.
const shortPathBonus = 1

// LinkScorer assigns relevance scores to candidate links. It is pure
// and deterministic: identical (path, anchor) inputs always yield the
// identical score.
type LinkScorer struct {
	rules []ScoreRule
}

// NewLinkScorer returns a scorer with the default rule table.
func NewLinkScorer() *LinkScorer {
	return &LinkScorer{rules: defaultScoreRules}
}

// NewLinkScorerWithRules returns a scorer with a custom rule table,
// falling back to the defaults when rules is empty.
func NewLinkScorerWithRules(rules []ScoreRule) *LinkScorer {
	if len(rules) == 0 {
		rules = defaultScoreRules
	}
	return &LinkScorer{rules: rules}
}

// Score rates a same-host link given its URL path and anchor text.
func (s *LinkScorer) Score(path, anchor string) float64 {
	haystack := strings.ToLower(path + " " + anchor)

	var score float64
	for _, rule := range s.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(haystack, kw) {
				score += rule.Weight
				break
			}
		}
	}

	if pathSegments(path) <= 2 {
		score += shortPathBonus
	}

	return score
}

// pathSegments counts non-empty segments in a URL path.
func pathSegments(path string) int {
	n := 0
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			n++
		}
	}
	return n
}
