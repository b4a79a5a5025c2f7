package robots

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func robotsServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func pageURL(t *testing.T, base, path string) *url.URL {
	t.Helper()
	u, err := url.Parse(base + path)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	return u
}

func TestCheck_DisallowedPath(t *testing.T) {
	srv := robotsServer(t, "User-agent: *\nDisallow: /private\n", http.StatusOK)

	d := NewChecker(srv.Client()).Check(context.Background(), pageURL(t, srv.URL, "/private/page"), "webgrab")
	if d.Allowed {
		t.Error("disallowed path reported as allowed")
	}
	if d.Reason == "" {
		t.Error("disallow decision should carry a reason")
	}
}

func TestCheck_AllowedPath(t *testing.T) {
	srv := robotsServer(t, "User-agent: *\nDisallow: /private\n", http.StatusOK)

	d := NewChecker(srv.Client()).Check(context.Background(), pageURL(t, srv.URL, "/public"), "webgrab")
	if !d.Allowed {
		t.Errorf("allowed path reported as disallowed: %s", d.Reason)
	}
}

func TestCheck_AgentSpecificGroup(t *testing.T) {
	body := "User-agent: webgrab\nDisallow: /\n\nUser-agent: *\nDisallow:\n"
	srv := robotsServer(t, body, http.StatusOK)

	if d := NewChecker(srv.Client()).Check(context.Background(), pageURL(t, srv.URL, "/anything"), "webgrab"); d.Allowed {
		t.Error("agent-specific disallow not honoured")
	}
	if d := NewChecker(srv.Client()).Check(context.Background(), pageURL(t, srv.URL, "/anything"), "otherbot"); !d.Allowed {
		t.Errorf("wildcard group should allow otherbot: %s", d.Reason)
	}
}

func TestCheck_AllowOverridesDisallow(t *testing.T) {
	body := "User-agent: *\nDisallow: /private\nAllow: /private/ok\n"
	srv := robotsServer(t, body, http.StatusOK)

	if d := NewChecker(srv.Client()).Check(context.Background(), pageURL(t, srv.URL, "/private/ok"), "webgrab"); !d.Allowed {
		t.Errorf("more specific Allow should override Disallow: %s", d.Reason)
	}
}

func TestCheck_MissingRobotsFailsOpen(t *testing.T) {
	srv := robotsServer(t, "not found", http.StatusNotFound)

	d := NewChecker(srv.Client()).Check(context.Background(), pageURL(t, srv.URL, "/page"), "webgrab")
	if !d.Allowed {
		t.Error("missing robots.txt must fail open")
	}
	if d.Reason == "" {
		t.Error("fail-open decision should explain why")
	}
}

func TestCheck_UnreachableHostFailsOpen(t *testing.T) {
	// Grab an address nothing is listening on anymore.
	srv := httptest.NewServer(http.NotFoundHandler())
	dead := srv.URL
	srv.Close()

	d := NewChecker(nil).Check(context.Background(), pageURL(t, dead, "/page"), "webgrab")
	if !d.Allowed {
		t.Error("unreachable robots.txt must fail open")
	}
	if d.Reason == "" {
		t.Error("fail-open decision should explain why")
	}
}

func TestCheck_RootPathDefaultsToSlash(t *testing.T) {
	srv := robotsServer(t, "User-agent: *\nDisallow: /\n", http.StatusOK)

	u, err := url.Parse(srv.URL) // no trailing slash, Path is empty
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if d := NewChecker(srv.Client()).Check(context.Background(), u, "webgrab"); d.Allowed {
		t.Error("blanket disallow should cover the empty path")
	}
}
