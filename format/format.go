// Package format renders a scrape result for stdout. All renderers are pure
// functions of their inputs; no I/O happens here.
package format

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/use-agent/webgrab/models"
)

// Render dispatches to the renderer for the requested format. matchedHTML is
// the concatenated outer HTML of the matches and is only consulted by the
// markdown renderer.
func Render(res *models.ScrapeResult, outputFormat string, matchedHTML string) (string, error) {
	switch outputFormat {
	case models.FormatJSON:
		return JSON(res)
	case models.FormatMarkdown:
		return Markdown(res, matchedHTML)
	default:
		return Text(res), nil
	}
}

// Text renders a human-readable report: a header block followed by one
// numbered section per element. Attribute lines are sorted by key so the
// report is deterministic; elements without attributes omit the sub-list.
func Text(res *models.ScrapeResult) string {
	var b strings.Builder

	b.WriteString("=== Web Scraping Results ===\n")
	fmt.Fprintf(&b, "URL: %s\n", res.URL)
	fmt.Fprintf(&b, "Selector: %s\n", res.Selector)
	fmt.Fprintf(&b, "Timestamp: %s\n", res.Timestamp)
	fmt.Fprintf(&b, "Found %d element(s):\n\n", len(res.Results))

	for i, el := range res.Results {
		fmt.Fprintf(&b, "--- Element %d ---\n", i+1)
		if el.Text != "" {
			fmt.Fprintf(&b, "Text: %s\n", el.Text)
		}
		if len(el.Attributes) > 0 {
			b.WriteString("Attributes:\n")
			keys := make([]string, 0, len(el.Attributes))
			for k := range el.Attributes {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(&b, "  %s: %s\n", k, el.Attributes[k])
			}
		}
		b.WriteByte('\n')
	}

	return b.String()
}

// JSON renders the result as a pretty-printed JSON document:
//
//	{"url": ..., "selector": ..., "results": [{"text", "attributes"}], "timestamp": ...}
//
// results is [] (never null) for an empty match set, and each attributes map
// is {} (never null); the models guarantee both are non-nil.
func JSON(res *models.ScrapeResult) (string, error) {
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", models.NewScrapeError(models.ErrCodeInternal, "marshal result", err)
	}
	return string(out), nil
}
