package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
)

// FetchResult is the outcome of one successful page fetch.
type FetchResult struct {
	HTML         []byte        // response body decoded to UTF-8
	FinalURL     string        // URL after following redirects
	StatusCode   int
	ResponseTime time.Duration
}

// Fetcher performs single bounded HTTP GETs against untrusted sites.
// Every fetch gets its own timeout; responses are size-capped and gated
// to HTML content types before any parsing happens.
type Fetcher struct {
	client         *http.Client
	userAgent      string
	acceptLanguage string
	timeout        time.Duration
	maxBodyBytes   int64
}

// NewFetcher creates a fetcher. The User-Agent and Accept-Language are
// sent on every request; browser-like values reduce bot-blocking false
// negatives but are a heuristic, not a guarantee.
func NewFetcher(userAgent, acceptLanguage string, timeout time.Duration, maxBodyBytes int64) *Fetcher {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	client := &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	return &Fetcher{
		client:         client,
		userAgent:      userAgent,
		acceptLanguage: acceptLanguage,
		timeout:        timeout,
		maxBodyBytes:   maxBodyBytes,
	}
}

// Fetch performs a GET of rawURL and returns the decoded HTML together
// with the post-redirect URL and elapsed time. It fails with a
// *FetchError on network errors, timeouts, non-2xx statuses and
// non-HTML content types.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Kind: FetchErrNetwork, Err: err}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", f.acceptLanguage)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Kind: classifyFetchErr(err), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: rawURL, Kind: FetchErrStatus, StatusCode: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTMLContentType(contentType) {
		return nil, &FetchError{
			URL:  rawURL,
			Kind: FetchErrContentType,
			Err:  fmt.Errorf("unsupported content type %q", contentType),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		return nil, &FetchError{URL: rawURL, Kind: classifyFetchErr(err), Err: err}
	}
	elapsed := time.Since(start)

	return &FetchResult{
		HTML:         decodeToUTF8(body, contentType),
		FinalURL:     resp.Request.URL.String(),
		StatusCode:   resp.StatusCode,
		ResponseTime: elapsed,
	}, nil
}

// Close releases idle connections held by the fetcher.
func (f *Fetcher) Close() {
	f.client.CloseIdleConnections()
}

// isHTMLContentType gates responses to HTML documents. A missing header
// is tolerated since some servers omit it; the body is sniffed during
// decoding instead.
func isHTMLContentType(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// classifyFetchErr distinguishes deadline expiry from other transport
// failures so callers can report timeouts distinctly.
func classifyFetchErr(err error) FetchErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return FetchErrTimeout
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FetchErrTimeout
	}
	return FetchErrNetwork
}

// decodeToUTF8 converts the response body to UTF-8 using the charset
// declared in the Content-Type header or sniffed from the content.
func decodeToUTF8(body []byte, contentType string) []byte {
	enc, _, _ := charset.DetermineEncoding(body, contentType)
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		if utf8.Valid(body) {
			return body
		}
		return []byte(strings.ToValidUTF8(string(body), ""))
	}
	return decoded
}
