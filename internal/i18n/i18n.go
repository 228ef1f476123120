// Package i18n resolves user-facing strings from embedded YAML catalogs.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultLocale is used when no locale or an unknown one is requested.
const DefaultLocale = "pl"

//go:embed lang/*.yml
var catalogFS embed.FS

// Catalog holds every loaded locale.
type Catalog struct {
	locales map[string]map[string]string
}

// Translator resolves keys for a single locale.
type Translator struct {
	locale   string
	messages map[string]string
}

// Load parses all embedded catalogs.
func Load() (*Catalog, error) {
	entries, err := catalogFS.ReadDir("lang")
	if err != nil {
		return nil, fmt.Errorf("read catalogs: %w", err)
	}

	c := &Catalog{locales: make(map[string]map[string]string, len(entries))}
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".yml" {
			continue
		}
		raw, err := catalogFS.ReadFile(path.Join("lang", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", entry.Name(), err)
		}
		messages := map[string]string{}
		if err := yaml.Unmarshal(raw, &messages); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", entry.Name(), err)
		}
		c.locales[strings.TrimSuffix(entry.Name(), ".yml")] = messages
	}

	if _, ok := c.locales[DefaultLocale]; !ok {
		return nil, fmt.Errorf("default locale %q catalog missing", DefaultLocale)
	}
	return c, nil
}

// MustLoad is Load for package-level initialisation; the catalogs are embedded so failure is a build defect.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Locales lists the available locale codes.
func (c *Catalog) Locales() []string {
	out := make([]string, 0, len(c.locales))
	for l := range c.locales {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// For returns a translator for locale, falling back to DefaultLocale.
func (c *Catalog) For(locale string) *Translator {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(locale, "-_"); i > 0 {
		locale = locale[:i]
	}
	messages, ok := c.locales[locale]
	if !ok {
		locale = DefaultLocale
		messages = c.locales[DefaultLocale]
	}
	return &Translator{locale: locale, messages: messages}
}

// Locale returns the resolved locale code.
func (t *Translator) Locale() string {
	return t.locale
}

// T translates key, substituting ":name" placeholders from replace.
// An unknown key is returned unchanged.
func (t *Translator) T(key string, replace ...map[string]string) string {
	msg, ok := t.messages[key]
	if !ok {
		msg = key
	}
	for _, r := range replace {
		// Longest placeholder first so ":max" does not clobber ":maximum".
		names := make([]string, 0, len(r))
		for name := range r {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })
		for _, name := range names {
			msg = strings.ReplaceAll(msg, ":"+name, r[name])
		}
	}
	return msg
}
