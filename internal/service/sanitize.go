package service

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// contentPolicy allows what the rich editor produces. Code blocks are not
// offered by the editor so pre and code collapse to their text.
func contentPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowStandardURLs()
	p.AllowElements("p", "br", "hr", "strong", "b", "em", "i", "u", "s", "strike", "del",
		"h1", "h2", "h3", "blockquote", "ul", "ol", "li", "figure", "figcaption")
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("target").Matching(bluemonday.SpaceSeparatedTokens).OnElements("a")
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.AllowImages()
	return p
}

var sanitizer = contentPolicy()

// SanitizeContent cleans rich-text HTML and trims surrounding whitespace.
func SanitizeContent(html string) string {
	return strings.TrimSpace(sanitizer.Sanitize(html))
}
