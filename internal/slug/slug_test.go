package slug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"punctuation and case", "Hello World!", "hello-world"},
		{"polish diacritics", "Zażółć gęślą jaźń", "zazolc-gesla-jazn"},
		{"shelter title", "Podaj Łapę – adopcja psów", "podaj-lape-adopcja-psow"},
		{"underscores become separators", "snake_case_title", "snake-case-title"},
		{"at sign", "Spotkanie @ schronisko", "spotkanie-at-schronisko"},
		{"collapses separators", "  many   --  spaces  ", "many-spaces"},
		{"digits kept", "Top 10 psów 2026", "top-10-psow-2026"},
		{"german sharp s", "Straße", "strasse"},
		{"ligature", "Æsop's fables", "aesops-fables"},
		{"only punctuation", "!!! ???", ""},
		{"empty", "", ""},
		{"russian", "Привет мир", "privet-mir"},
		{"ukrainian", "Їжак і Щука", "yizhak-i-shchuka"},
		{"no ascii form", "日本語", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Make(tt.title))
		})
	}
}

func TestMakeProducesURLSafeOutput(t *testing.T) {
	titles := []string{
		"Hello World!",
		"UPPER lower MiXeD",
		"Tabs\tand\nnewlines",
		"Quotes \"double\" and 'single'",
		"Ends with dash -",
		"- starts with dash",
	}

	for _, title := range titles {
		got := Make(title)
		assert.Equal(t, strings.ToLower(got), got, "slug must be lowercase: %q", got)
		assert.NotContains(t, got, " ")
		assert.NotContains(t, got, "--")
		assert.False(t, strings.HasPrefix(got, "-") || strings.HasSuffix(got, "-"), "slug must be trimmed: %q", got)
		for _, r := range got {
			ok := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-'
			assert.True(t, ok, "unexpected rune %q in %q", r, got)
		}
	}
}

func TestASCII(t *testing.T) {
	assert.Equal(t, "Lodz", ASCII("Łódź"))
	assert.Equal(t, "cafe", ASCII("café"))
	assert.Equal(t, "Moskva", ASCII("Москва"))
}
