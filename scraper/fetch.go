// Package scraper fetches a single page, either with a plain HTTP client or
// through a headless browser for JavaScript-dependent pages.
package scraper

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/use-agent/webgrab/config"
	"github.com/use-agent/webgrab/models"
)

// Page is the raw outcome of a fetch.
type Page struct {
	// Body is the decoded response body, capped at config.MaxBodyBytes.
	Body []byte

	// StatusCode is the HTTP status of the final response. The renderer
	// reports it best-effort and may leave it zero.
	StatusCode int

	// FinalURL is the URL after following redirects.
	FinalURL string
}

// Fetcher issues one HTTP GET with a bounded timeout. It performs no
// retries: a single failed attempt is terminal for the invocation.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher builds a Fetcher. When impersonate is set, TLS connections
// present a Chrome ClientHello instead of Go's native fingerprint.
func NewFetcher(userAgent string, impersonate bool) *Fetcher {
	transport := &http.Transport{
		DialContext:         (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	if impersonate {
		transport.DialTLSContext = dialTLSChrome
		transport.ForceAttemptHTTP2 = false
	}

	return &Fetcher{
		client: &http.Client{
			Timeout:   config.PageTimeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return errors.New("too many redirects")
				}
				return nil
			},
		},
		userAgent: userAgent,
	}
}

// Fetch downloads targetURL and classifies failures:
//
//   - connect/DNS failure        → NETWORK_ERROR
//   - deadline exceeded          → SCRAPE_TIMEOUT
//   - status outside 200-299     → HTTP_STATUS (the Page is still returned
//     alongside the error so the body stays available for diagnostics)
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "build request", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyFetchError(err)
	}

	body, err := readBody(resp)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeNetwork, "read response body", err)
	}

	finalURL := targetURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	page := &Page{Body: body, StatusCode: resp.StatusCode, FinalURL: finalURL}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return page, models.NewScrapeError(models.ErrCodeHTTPStatus,
			fmt.Sprintf("HTTP error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)), nil)
	}
	return page, nil
}

// classifyFetchError maps a transport failure to the scrape error taxonomy.
func classifyFetchError(err error) error {
	var urlErr *url.Error
	if errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &urlErr) && urlErr.Timeout()) {
		return models.NewScrapeError(models.ErrCodeTimeout, "request timed out", err)
	}
	return models.NewScrapeError(models.ErrCodeNetwork, "network error", err)
}

// readBody decodes the response body according to Content-Encoding and caps
// it at config.MaxBodyBytes. Manual decoding is needed because setting
// Accept-Encoding explicitly disables the transport's transparent gzip.
func readBody(resp *http.Response) ([]byte, error) {
	if resp.Body == nil {
		return nil, errors.New("empty response body")
	}

	reader := io.Reader(resp.Body)
	closers := []io.Closer{resp.Body}

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		reader = gz
		closers = append(closers, gz)
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "deflate":
		fl := flate.NewReader(resp.Body)
		reader = fl
		closers = append(closers, fl)
	}

	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()

	return io.ReadAll(io.LimitReader(reader, config.MaxBodyBytes))
}
