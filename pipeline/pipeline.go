// Package pipeline sequences the scrape stages: validate → robots →
// courtesy delay → fetch → extract. Control flow is strictly linear; each
// stage fully completes (or fails) before the next begins, and the first
// failure halts the run.
package pipeline

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/use-agent/webgrab/config"
	"github.com/use-agent/webgrab/extract"
	"github.com/use-agent/webgrab/models"
	"github.com/use-agent/webgrab/robots"
	"github.com/use-agent/webgrab/scraper"
)

// Outcome is a completed pipeline run.
type Outcome struct {
	Result *models.ScrapeResult

	// MatchedHTML is the concatenated outer HTML of the matches. Only
	// populated for markdown output, which converts markup rather than
	// extracted text.
	MatchedHTML string

	// RobotsWarning carries the diagnostic when the robots.txt check could
	// not complete and the run proceeded fail-open.
	RobotsWarning string
}

// Run executes the full scrape pipeline for req.
//
// Input validation (URL and selector syntax) happens before any network
// call. A robots.txt disallow is terminal unless req.IgnoreRobots is set, in
// which case the checker is never invoked at all.
func Run(ctx context.Context, req *models.ScrapeRequest) (*Outcome, error) {
	req.Defaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sel, err := extract.CompileSelector(req.Selector)
	if err != nil {
		return nil, err
	}

	page, robotsWarning, err := FetchPage(ctx, req)
	if err != nil {
		return nil, err
	}

	elements, err := extract.Extract(string(page.Body), sel)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{
		Result: &models.ScrapeResult{
			URL:       req.URL,
			Selector:  req.Selector,
			Results:   elements,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
		RobotsWarning: robotsWarning,
	}

	if req.Format == models.FormatMarkdown {
		outcome.MatchedHTML, err = extract.OuterHTML(string(page.Body), sel)
		if err != nil {
			return nil, err
		}
	}
	return outcome, nil
}

// FetchPage runs the pre-extraction stages: robots check, courtesy delay,
// page fetch. The returned warning is non-empty when the robots check failed
// open. Exposed separately so the article command can reuse the same
// fetching etiquette without a selector.
func FetchPage(ctx context.Context, req *models.ScrapeRequest) (*scraper.Page, string, error) {
	target, err := url.Parse(req.URL)
	if err != nil {
		return nil, "", models.NewScrapeError(models.ErrCodeInvalidInput, "invalid URL", err)
	}

	var robotsWarning string
	if req.IgnoreRobots {
		slog.Debug("robots.txt check skipped", "url", req.URL)
	} else {
		rctx, cancel := context.WithTimeout(ctx, config.RobotsTimeout)
		decision := robots.NewChecker(nil).Check(rctx, target, req.UserAgent)
		cancel()

		if !decision.Allowed {
			return nil, "", models.NewScrapeError(models.ErrCodeRobotsDisallowed, decision.Reason, nil)
		}
		if decision.Reason != "" {
			// Fail-open: the check could not complete, scraping proceeds
			// but the user gets told.
			robotsWarning = decision.Reason
			slog.Warn("robots.txt check incomplete, proceeding", "reason", decision.Reason)
		}
	}

	if err := wait(ctx, time.Duration(req.DelayMs)*time.Millisecond); err != nil {
		return nil, "", err
	}

	fctx, cancel := context.WithTimeout(ctx, config.PageTimeout)
	defer cancel()

	start := time.Now()
	var page *scraper.Page
	if req.Render {
		page, err = scraper.NewRenderer(req.UserAgent).Fetch(fctx, req.URL)
	} else {
		page, err = scraper.NewFetcher(req.UserAgent, req.Impersonate).Fetch(fctx, req.URL)
	}
	if err != nil {
		return nil, robotsWarning, err
	}

	slog.Info("fetched page",
		"url", req.URL,
		"status", page.StatusCode,
		"bytes", len(page.Body),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return page, robotsWarning, nil
}

// wait blocks for the courtesy delay before the page fetch. The pause is a
// one-shot rate limit interval so it stays cancellable through ctx. Zero or
// negative delays return immediately.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	lim := rate.NewLimiter(rate.Every(d), 1)
	lim.Allow() // drain the initial token so Wait blocks for one full interval
	if err := lim.Wait(ctx); err != nil {
		return models.NewScrapeError(models.ErrCodeTimeout, "cancelled while waiting for courtesy delay", err)
	}
	return nil
}
