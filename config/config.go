package config

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

// Timeouts and limits shared by the fetch stages. The tool issues one
// request per process, so these are fixed constants rather than tunables.
const (
	// PageTimeout bounds the worst-case hang of the page fetch.
	PageTimeout = 30 * time.Second

	// RobotsTimeout bounds the robots.txt fetch. Deliberately shorter than
	// the page timeout: robots is best-effort and fail-open.
	RobotsTimeout = 10 * time.Second

	// RenderNavigationTimeout is the max time for browser navigation alone
	// when the page is fetched through the headless renderer.
	RenderNavigationTimeout = 15 * time.Second

	// MaxBodyBytes caps the response body read to prevent unbounded memory use.
	MaxBodyBytes = 10 << 20 // 10 MB

	// DefaultDelayMs is the courtesy pause before the page fetch.
	DefaultDelayMs = 1000
)

// SetupLogging installs a text slog handler on stderr at the given level.
// Everything the tool logs is diagnostic; stdout stays reserved for the
// formatted scrape result.
func SetupLogging(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelWarn
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
