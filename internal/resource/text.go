package resource

import (
	"html"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var stripPolicy = bluemonday.StrictPolicy()

// StripTags removes all markup from s and collapses whitespace.
func StripTags(s string) string {
	text := html.UnescapeString(stripPolicy.Sanitize(s))
	return strings.Join(strings.Fields(text), " ")
}

// Limit truncates s to n characters and appends "..." when it was longer.
func Limit(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:n]), " \t\n") + "..."
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
