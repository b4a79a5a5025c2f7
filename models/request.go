package models

import (
	"fmt"
	"net/url"
)

// Output formats accepted by the formatter.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// DefaultUserAgent identifies webgrab to the sites it fetches.
const DefaultUserAgent = "webgrab/1.0 (+https://github.com/use-agent/webgrab)"

// ScrapeRequest describes one scrape invocation. It is constructed once from
// CLI flags (or an MCP tool call), validated, and never mutated afterwards;
// the whole pipeline is parameterised by this single value.
type ScrapeRequest struct {
	// URL is the target page to scrape. Required, must be absolute.
	URL string

	// Selector is the CSS selector applied to the fetched document. Required.
	Selector string

	// Format controls the output rendering.
	// Allowed: "text" (default), "json", "markdown".
	Format string

	// DelayMs is the courtesy pause in milliseconds before the page fetch.
	// Default: 1000. Zero is legal and performs no wait.
	DelayMs int

	// UserAgent is sent on every outbound request (page and robots.txt).
	UserAgent string

	// IgnoreRobots skips the robots.txt check entirely. No robots request
	// is issued when set.
	IgnoreRobots bool

	// Render fetches the page through a headless browser instead of plain
	// HTTP, for pages that only materialise their DOM via JavaScript.
	Render bool

	// Impersonate uses a Chrome TLS ClientHello for the plain-HTTP fetch.
	// Ignored when Render is set (the browser brings its own fingerprint).
	Impersonate bool
}

// Defaults applies default values to unset fields.
func (r *ScrapeRequest) Defaults() {
	if r.Format == "" {
		r.Format = FormatText
	}
	if r.UserAgent == "" {
		r.UserAgent = DefaultUserAgent
	}
}

// Validate checks the request before any network activity happens.
// Violations are reported as INVALID_INPUT scrape errors.
func (r *ScrapeRequest) Validate() error {
	u, err := url.Parse(r.URL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return NewScrapeError(ErrCodeInvalidInput,
			fmt.Sprintf("invalid URL format: %s", r.URL), err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return NewScrapeError(ErrCodeInvalidInput,
			fmt.Sprintf("unsupported URL scheme: %s", u.Scheme), nil)
	}
	switch r.Format {
	case FormatText, FormatJSON, FormatMarkdown:
	default:
		return NewScrapeError(ErrCodeInvalidInput,
			fmt.Sprintf("unknown output format: %q (want text, json or markdown)", r.Format), nil)
	}
	if r.DelayMs < 0 {
		return NewScrapeError(ErrCodeInvalidInput, "delay must be non-negative", nil)
	}
	return nil
}
