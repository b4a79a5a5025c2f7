package format

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/use-agent/webgrab/models"
)

// newMarkdownConverter creates a Converter configured for readable output:
//
//   - base plugin: strips script, style, iframe, noscript, head, meta, link,
//     input, textarea, HTML comments.
//   - commonmark plugin: standard Markdown rendering (headings, lists, links,
//     code blocks, emphasis, blockquotes, etc.).
//   - table plugin: preserves table structure with minimal cell padding.
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

// Markdown renders the matched elements' HTML as Markdown with a short
// metadata header. The source domain is passed to the converter so relative
// links in the matched markup resolve to absolute URLs.
func Markdown(res *models.ScrapeResult, matchedHTML string) (string, error) {
	md, err := ToMarkdown(newMarkdownConverter(), matchedHTML, domainOf(res.URL))
	if err != nil {
		return "", models.NewScrapeError(models.ErrCodeInternal, "markdown conversion failed", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Scrape of %s\n\n", res.URL)
	fmt.Fprintf(&b, "- Selector: `%s`\n", res.Selector)
	fmt.Fprintf(&b, "- Matches: %d\n", len(res.Results))
	fmt.Fprintf(&b, "- Timestamp: %s\n\n", res.Timestamp)
	b.WriteString(strings.TrimSpace(md))
	b.WriteByte('\n')
	return b.String(), nil
}

// ArticleMarkdown renders extracted article HTML as Markdown with the
// article title as the top-level heading.
func ArticleMarkdown(title, htmlContent, sourceURL string) (string, error) {
	md, err := ToMarkdown(newMarkdownConverter(), htmlContent, domainOf(sourceURL))
	if err != nil {
		return "", models.NewScrapeError(models.ErrCodeInternal, "markdown conversion failed", err)
	}

	var b strings.Builder
	if title != "" {
		fmt.Fprintf(&b, "# %s\n\n", title)
	}
	b.WriteString(strings.TrimSpace(md))
	b.WriteByte('\n')
	return b.String(), nil
}

// ToMarkdown converts HTML to Markdown using html-to-markdown v2.
//
// The domain parameter is used to resolve relative URLs in <a> and <img>
// tags into absolute URLs, so the Markdown output is self-contained.
func ToMarkdown(conv *converter.Converter, htmlContent string, domain string) (string, error) {
	return conv.ConvertString(htmlContent, converter.WithDomain(domain))
}

func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
