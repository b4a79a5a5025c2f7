package models

// Element is one DOM node matched by the selector.
type Element struct {
	// Text is the concatenation of all descendant text nodes in document
	// order, joined by single spaces and trimmed at the element boundary.
	Text string `json:"text"`

	// Attributes maps attribute names to values. When malformed HTML
	// repeats an attribute name, the first occurrence wins. Never nil, so
	// it serialises as {} rather than null.
	Attributes map[string]string `json:"attributes"`
}

// ScrapeResult is the outcome of a successful fetch + match. It is consumed
// exactly once by the formatter and then discarded.
type ScrapeResult struct {
	// URL is the requested page URL.
	URL string `json:"url"`

	// Selector is the CSS selector that produced Results.
	Selector string `json:"selector"`

	// Results holds the matched elements in document order. Never nil: an
	// empty match set serialises as [] rather than null.
	Results []Element `json:"results"`

	// Timestamp records when the result was formatted (RFC 3339, UTC),
	// not when the page was fetched.
	Timestamp string `json:"timestamp"`
}
