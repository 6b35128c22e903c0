package scrape

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/purell"
)

// normalizeFlags are the purell canonicalization rules applied to every
// input URL. Fragments carry no server-side meaning and are dropped so
// that the visited-set dedup treats "/page" and "/page#top" as one URL.
const normalizeFlags = purell.FlagLowercaseScheme |
	purell.FlagLowercaseHost |
	purell.FlagRemoveDefaultPort |
	purell.FlagRemoveFragment |
	purell.FlagRemoveDuplicateSlashes |
	purell.FlagRemoveDotSegments

// NormalizeURL turns free-form user input into a well-formed absolute
// URL string. It trims whitespace and prefixes https:// when no scheme
// is present. Normalization is idempotent; input it cannot improve is
// returned unchanged.
func NormalizeURL(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return s
	}
	// Schemes are case-insensitive; purell lowercases them afterwards.
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		s = "https://" + s
	}
	normalized, err := purell.NormalizeURLString(s, normalizeFlags)
	if err != nil {
		return s
	}
	return normalized
}

// ValidateAndNormalizeURL normalizes input and verifies that the result
// is a fetchable absolute URL. It returns a *ValidationError describing
// the malformed input, never an HTTP error.
func ValidateAndNormalizeURL(input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", &ValidationError{Input: input, Reason: "URL is empty"}
	}

	normalized := NormalizeURL(input)
	u, err := url.Parse(normalized)
	if err != nil {
		return "", &ValidationError{Input: input, Reason: "not a parseable URL"}
	}
	if u.Hostname() == "" {
		return "", &ValidationError{Input: input, Reason: "URL has no hostname"}
	}
	if !strings.Contains(u.Hostname(), ".") && u.Hostname() != "localhost" {
		return "", &ValidationError{Input: input, Reason: "hostname is not resolvable"}
	}

	return normalized, nil
}
