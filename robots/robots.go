// Package robots decides whether a URL may be fetched according to the
// site's robots.txt. The check is best-effort and fail-open: when robots.txt
// cannot be fetched or parsed, scraping proceeds and the failure is surfaced
// as a warning through the decision's Reason.
package robots

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/temoto/robotstxt"

	"github.com/use-agent/webgrab/config"
)

// Decision is the outcome of a robots.txt evaluation.
type Decision struct {
	// Allowed reports whether the path may be fetched.
	Allowed bool

	// Reason carries a diagnostic when the decision did not come from a
	// clean rule evaluation (fetch failure, disallow rule matched).
	Reason string
}

// Checker fetches and evaluates robots.txt for a single request.
type Checker struct {
	client *http.Client
}

// NewChecker constructs a Checker. A nil client gets a default with the
// robots fetch timeout applied.
func NewChecker(client *http.Client) *Checker {
	if client == nil {
		client = &http.Client{Timeout: config.RobotsTimeout}
	}
	return &Checker{client: client}
}

// Check evaluates robots.txt rules for target and userAgent.
//
// The robots URL is derived as scheme://host/robots.txt from the target's
// origin. Any failure along the way (network error, non-2xx status, parse
// failure) yields Allowed=true with the failure recorded in Reason.
func (c *Checker) Check(ctx context.Context, target *url.URL, userAgent string) Decision {
	robotsURL := target.Scheme + "://" + target.Host + "/robots.txt"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return Decision{Allowed: true, Reason: fmt.Sprintf("build robots request: %v", err)}
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Decision{Allowed: true, Reason: fmt.Sprintf("could not fetch %s: %v", robotsURL, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Decision{Allowed: true, Reason: fmt.Sprintf("robots.txt returned status %d", resp.StatusCode)}
	}

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return Decision{Allowed: true, Reason: fmt.Sprintf("parse robots.txt: %v", err)}
	}

	group := data.FindGroup(userAgent)
	if group == nil {
		group = data.FindGroup("*")
		if group == nil {
			return Decision{Allowed: true}
		}
	}

	path := target.Path
	if path == "" {
		path = "/"
	}
	if !group.Test(path) {
		return Decision{
			Allowed: false,
			Reason:  fmt.Sprintf("access to %s is disallowed by robots.txt", path),
		}
	}
	return Decision{Allowed: true}
}
