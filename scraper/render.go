package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/webgrab/config"
	"github.com/use-agent/webgrab/models"
)

// blockedResourceTypes lists resource kinds the renderer never needs: the
// selector runs against the DOM, so pixels and glyphs are wasted transfer.
var blockedResourceTypes = map[proto.NetworkResourceType]struct{}{
	proto.NetworkResourceTypeImage: {},
	proto.NetworkResourceTypeFont:  {},
	proto.NetworkResourceTypeMedia: {},
}

// Renderer fetches a page through a headless browser so that
// JavaScript-built DOM is visible to the selector engine. The browser is
// launched per invocation and torn down afterwards; a one-shot CLI has no
// pool to maintain.
type Renderer struct {
	userAgent string
}

// NewRenderer builds a Renderer that identifies as userAgent.
func NewRenderer(userAgent string) *Renderer {
	return &Renderer{userAgent: userAgent}
}

// Fetch renders targetURL and returns the serialised DOM.
//
// The HTTP status code is recovered best-effort from the navigation
// performance entry; when the page does not expose one, StatusCode stays
// zero and is treated as success.
func (r *Renderer) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	l := launcher.New().Headless(true)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeRenderFailed, "failed to launch browser", err)
	}
	defer l.Cleanup()

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeRenderFailed, "failed to connect to browser", err)
	}
	defer func() { _ = browser.Close() }()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeRenderFailed, "failed to open page", err)
	}

	// Stealth must be injected before navigation to take effect.
	if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
	}

	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: proto.NetworkHeaders{"User-Agent": gson.New(r.userAgent)},
	}.Call(page)

	router := setupHijack(page)
	defer func() { _ = router.Stop() }()

	p := page.Context(ctx)

	// Navigation gets its own, tighter deadline so a stalled load still
	// leaves time within the overall fetch budget to serialise the DOM.
	if navErr := p.Timeout(config.RenderNavigationTimeout).Navigate(targetURL); navErr != nil {
		return nil, classifyRenderError(ctx, navErr, "navigation to target URL failed")
	}
	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", stableErr)
	}

	// Recover the HTTP status without CDP event listeners, which would have
	// to be registered before Navigate and conflict with the hijack router.
	statusCode := 0
	if res, evalErr := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`); evalErr == nil {
		statusCode = res.Value.Int()
	}

	rawHTML, err := p.HTML()
	if err != nil {
		return nil, classifyRenderError(ctx, err, "failed to extract page HTML")
	}

	finalURL := targetURL
	if res, evalErr := p.Eval(`() => window.location.href`); evalErr == nil && res.Value.Str() != "" {
		finalURL = res.Value.Str()
	}

	result := &Page{Body: []byte(rawHTML), StatusCode: statusCode, FinalURL: finalURL}

	if statusCode != 0 && (statusCode < 200 || statusCode > 299) {
		return result, models.NewScrapeError(models.ErrCodeHTTPStatus,
			fmt.Sprintf("HTTP error: %d %s", statusCode, http.StatusText(statusCode)), nil)
	}
	return result, nil
}

// classifyRenderError distinguishes a deadline hit from a genuine browser
// failure so the CLI reports the right error category.
func classifyRenderError(ctx context.Context, err error, msg string) error {
	if ctx.Err() == context.DeadlineExceeded || errors.Is(err, context.DeadlineExceeded) {
		return models.NewScrapeError(models.ErrCodeTimeout, "request timed out", err)
	}
	return models.NewScrapeError(models.ErrCodeRenderFailed, msg, err)
}

// setupHijack installs a request interceptor that blocks resource types the
// selector engine never needs. Returns the running router so the caller can
// defer router.Stop().
func setupHijack(page *rod.Page) *rod.HijackRouter {
	router := page.HijackRequests()

	// Pattern "*" + empty resourceType = intercept ALL requests, then
	// decide per-request whether to block or continue.
	_ = router.Add("*", "", func(ctx *rod.Hijack) {
		if _, blocked := blockedResourceTypes[ctx.Request.Type()]; blocked {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})

	// router.Run() blocks, so it must live in its own goroutine.
	// It exits when router.Stop() is called.
	go router.Run()
	return router
}
