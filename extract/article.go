package extract

import (
	nurl "net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"

	"github.com/use-agent/webgrab/models"
)

// minContentLength is the minimum TextContent length (in characters) for
// readability output to be considered valid. Below this threshold we assume
// the algorithm failed to locate the main content.
const minContentLength = 50

// MainContent runs the Mozilla Readability algorithm on rawHTML and returns
// the extracted article (clean HTML in Content, plain text in TextContent,
// plus Title/Byline/Excerpt metadata).
//
// Unlike selector extraction, there is no sensible empty result here: if the
// algorithm cannot locate an article, that is a CONTENT_EXTRACTION_FAILED
// error rather than a silent raw-HTML passthrough.
func MainContent(rawHTML string, sourceURL string) (readability.Article, error) {
	parsedURL, err := nurl.Parse(sourceURL)
	if err != nil {
		return readability.Article{}, models.NewScrapeError(
			models.ErrCodeInvalidInput, "invalid source URL", err)
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		return readability.Article{}, models.NewScrapeError(
			models.ErrCodeExtraction, "readability extraction failed", err)
	}

	if len(strings.TrimSpace(article.TextContent)) < minContentLength {
		return readability.Article{}, models.NewScrapeError(
			models.ErrCodeExtraction, "could not locate main content on the page", nil)
	}

	return article, nil
}
