package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/use-agent/webgrab/models"
)

// testSite serves robots.txt and a page, counting requests to each.
type testSite struct {
	srv        *httptest.Server
	robotsBody string
	pageBody   string
	robotsHits atomic.Int64
	pageHits   atomic.Int64
}

func newTestSite(t *testing.T, robotsBody, pageBody string) *testSite {
	t.Helper()
	site := &testSite{robotsBody: robotsBody, pageBody: pageBody}
	site.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			site.robotsHits.Add(1)
			if site.robotsBody == "" {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte(site.robotsBody))
		default:
			site.pageHits.Add(1)
			_, _ = w.Write([]byte(site.pageBody))
		}
	}))
	t.Cleanup(site.srv.Close)
	return site
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	var se *models.ScrapeError
	if !errors.As(err, &se) {
		t.Fatalf("want *models.ScrapeError, got %T: %v", err, err)
	}
	return se.Code
}

func TestRun_EndToEnd(t *testing.T) {
	site := newTestSite(t, "User-agent: *\nDisallow: /private\n",
		`<html><body><h1 class="a">Hi</h1><h1>Bye</h1></body></html>`)

	req := &models.ScrapeRequest{URL: site.srv.URL + "/page", Selector: "h1"}
	outcome, err := Run(context.Background(), req)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	res := outcome.Result
	if len(res.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(res.Results))
	}
	if res.Results[0].Text != "Hi" || res.Results[1].Text != "Bye" {
		t.Errorf("results out of order: %+v", res.Results)
	}
	if res.Results[0].Attributes["class"] != "a" {
		t.Errorf("attributes = %+v", res.Results[0].Attributes)
	}
	if _, err := time.Parse(time.RFC3339, res.Timestamp); err != nil {
		t.Errorf("timestamp %q is not RFC 3339: %v", res.Timestamp, err)
	}
	if site.robotsHits.Load() != 1 {
		t.Errorf("robots.txt fetched %d times, want 1", site.robotsHits.Load())
	}
}

func TestRun_RobotsDisallowedIsTerminal(t *testing.T) {
	site := newTestSite(t, "User-agent: *\nDisallow: /private\n", "<h1>secret</h1>")

	req := &models.ScrapeRequest{URL: site.srv.URL + "/private/page", Selector: "h1"}
	_, err := Run(context.Background(), req)
	if err == nil {
		t.Fatal("robots disallow must be terminal")
	}
	if code := errCode(t, err); code != models.ErrCodeRobotsDisallowed {
		t.Errorf("code = %s, want ROBOTS_DISALLOWED", code)
	}
	if site.pageHits.Load() != 0 {
		t.Errorf("page fetched despite robots disallow (%d hits)", site.pageHits.Load())
	}
}

func TestRun_IgnoreRobotsSkipsCheckEntirely(t *testing.T) {
	site := newTestSite(t, "User-agent: *\nDisallow: /\n", "<h1>content</h1>")

	req := &models.ScrapeRequest{
		URL:          site.srv.URL + "/page",
		Selector:     "h1",
		IgnoreRobots: true,
	}
	outcome, err := Run(context.Background(), req)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(outcome.Result.Results) != 1 {
		t.Errorf("got %d results, want 1", len(outcome.Result.Results))
	}
	if site.robotsHits.Load() != 0 {
		t.Errorf("robots.txt fetched %d times, want 0 with IgnoreRobots", site.robotsHits.Load())
	}
}

func TestRun_RobotsFetchFailureFailsOpen(t *testing.T) {
	site := newTestSite(t, "", "<h1>content</h1>") // robots.txt 404s

	req := &models.ScrapeRequest{URL: site.srv.URL + "/page", Selector: "h1"}
	outcome, err := Run(context.Background(), req)
	if err != nil {
		t.Fatalf("robots failure must fail open: %v", err)
	}
	if outcome.RobotsWarning == "" {
		t.Error("fail-open run should surface a robots warning")
	}
	if len(outcome.Result.Results) != 1 {
		t.Errorf("got %d results, want 1", len(outcome.Result.Results))
	}
}

func TestRun_InvalidSelectorHaltsBeforeNetwork(t *testing.T) {
	site := newTestSite(t, "", "<h1>never fetched</h1>")

	req := &models.ScrapeRequest{URL: site.srv.URL + "/page", Selector: ":::"}
	_, err := Run(context.Background(), req)
	if err == nil {
		t.Fatal("invalid selector must fail")
	}
	if code := errCode(t, err); code != models.ErrCodeSelectorInvalid {
		t.Errorf("code = %s, want SELECTOR_INVALID", code)
	}
	if site.robotsHits.Load() != 0 || site.pageHits.Load() != 0 {
		t.Errorf("network touched before selector validation (robots=%d, page=%d)",
			site.robotsHits.Load(), site.pageHits.Load())
	}
}

func TestRun_InvalidURL(t *testing.T) {
	for _, bad := range []string{"not a url", "example.com/relative", "ftp://example.com/x"} {
		_, err := Run(context.Background(), &models.ScrapeRequest{URL: bad, Selector: "h1"})
		if err == nil {
			t.Errorf("URL %q must be rejected", bad)
			continue
		}
		if code := errCode(t, err); code != models.ErrCodeInvalidInput {
			t.Errorf("URL %q: code = %s, want INVALID_INPUT", bad, code)
		}
	}
}

func TestRun_ZeroMatchesIsSuccess(t *testing.T) {
	site := newTestSite(t, "", "<p>nothing matches</p>")

	req := &models.ScrapeRequest{URL: site.srv.URL + "/page", Selector: ".absent"}
	outcome, err := Run(context.Background(), req)
	if err != nil {
		t.Fatalf("zero matches must be a success: %v", err)
	}
	if outcome.Result.Results == nil {
		t.Fatal("results must be an empty slice, not nil")
	}
	if len(outcome.Result.Results) != 0 {
		t.Errorf("got %d results, want 0", len(outcome.Result.Results))
	}
}

func TestRun_MarkdownOutcomeCarriesMatchedHTML(t *testing.T) {
	site := newTestSite(t, "", `<h1 id="title">Hello</h1>`)

	req := &models.ScrapeRequest{
		URL:      site.srv.URL + "/page",
		Selector: "h1",
		Format:   models.FormatMarkdown,
	}
	outcome, err := Run(context.Background(), req)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.MatchedHTML == "" {
		t.Error("markdown runs must carry the matched outer HTML")
	}
}

func TestWait(t *testing.T) {
	start := time.Now()
	if err := wait(context.Background(), 50*time.Millisecond); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 45*time.Millisecond {
		t.Errorf("wait returned after %v, want >= 50ms", elapsed)
	}

	if err := wait(context.Background(), 0); err != nil {
		t.Errorf("zero delay must be a no-op: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := wait(ctx, 5*time.Second); err == nil {
		t.Error("cancelled wait must return an error")
	}
}
