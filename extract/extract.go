// Package extract evaluates CSS selectors against fetched HTML and turns
// matched nodes into result elements.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/use-agent/webgrab/models"
)

// CompileSelector parses a CSS selector string. A syntactically invalid
// selector is reported as SELECTOR_INVALID; the orchestrator calls this
// before any network activity so bad selectors never cost a fetch.
func CompileSelector(selector string) (cascadia.Selector, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeSelectorInvalid,
			fmt.Sprintf("invalid CSS selector: %s", selector), err)
	}
	return sel, nil
}

// Extract parses rawHTML leniently (standard HTML error recovery, malformed
// markup never aborts extraction) and collects every node matching sel in
// document order. Zero matches is not an error: it yields an empty slice.
func Extract(rawHTML string, sel cascadia.Selector) ([]models.Element, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeExtraction, "failed to parse HTML", err)
	}

	matched := doc.FindMatcher(sel)
	elements := make([]models.Element, 0, len(matched.Nodes))
	for _, node := range matched.Nodes {
		elements = append(elements, elementFromNode(node))
	}
	return elements, nil
}

// OuterHTML renders the outer HTML of every node matching sel, concatenated
// in document order. Used by the markdown formatter, which converts markup
// rather than extracted text.
func OuterHTML(rawHTML string, sel cascadia.Selector) (string, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", models.NewScrapeError(models.ErrCodeExtraction, "failed to parse HTML", err)
	}

	var buf bytes.Buffer
	for _, node := range sel.MatchAll(doc) {
		if err := html.Render(&buf, node); err != nil {
			return "", models.NewScrapeError(models.ErrCodeExtraction, "failed to render matched node", err)
		}
		buf.WriteByte('\n')
	}
	return buf.String(), nil
}

// elementFromNode builds an Element from a matched DOM node.
//
// Text is every descendant text node in document order joined by a single
// space and trimmed at the element boundary; whitespace inside the chunks is
// preserved as it exists in the source. For duplicate attribute names the
// first occurrence wins.
func elementFromNode(node *html.Node) models.Element {
	var chunks []string
	collectText(node, &chunks)

	attrs := make(map[string]string, len(node.Attr))
	for _, a := range node.Attr {
		if _, seen := attrs[a.Key]; !seen {
			attrs[a.Key] = a.Val
		}
	}

	return models.Element{
		Text:       strings.TrimSpace(strings.Join(chunks, " ")),
		Attributes: attrs,
	}
}

func collectText(node *html.Node, chunks *[]string) {
	if node.Type == html.TextNode {
		*chunks = append(*chunks, node.Data)
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, chunks)
	}
}
