// Package resource describes the Post admin resource: labels, pages, the
// create/edit form and the list table. Everything is built per call from a
// translator so no request shares mutable schema state.
package resource

import (
	"strconv"
	"strings"

	"blogadmin/internal/i18n"
)

// BasePath is where the resource pages are mounted.
const BasePath = "/admin/posts"

// Page names.
const (
	PageIndex  = "index"
	PageCreate = "create"
	PageEdit   = "edit"
)

// RecordParam is the placeholder used in page paths.
const RecordParam = "{record}"

// Labels holds the navigation and model labels.
type Labels struct {
	NavigationLabel string `json:"navigation_label"`
	NavigationIcon  string `json:"navigation_icon"`
	ModelLabel      string `json:"model_label"`
	PluralLabel     string `json:"plural_label"`
}

// Page maps a page name to its path relative to BasePath.
type Page struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Definition is the full resource description served to the admin front-end.
type Definition struct {
	Labels Labels      `json:"labels"`
	Form   FormSchema  `json:"form"`
	Table  TableSchema `json:"table"`
	Pages  []Page      `json:"pages"`
}

// GetLabels returns the resource labels in the translator's locale.
func GetLabels(tr *i18n.Translator) Labels {
	return Labels{
		NavigationLabel: tr.T("Posty"),
		NavigationIcon:  "heroicon-o-rectangle-stack",
		ModelLabel:      tr.T("Post"),
		PluralLabel:     tr.T("Posty"),
	}
}

// Pages lists the routable pages in declaration order.
func Pages() []Page {
	return []Page{
		{Name: PageIndex, Path: "/"},
		{Name: PageCreate, Path: "/create"},
		{Name: PageEdit, Path: "/" + RecordParam + "/edit"},
	}
}

// PageURL resolves a page to an absolute path, substituting the record id when needed.
// Unknown page names resolve to the index.
func PageURL(name string, id uint) string {
	for _, p := range Pages() {
		if p.Name != name {
			continue
		}
		path := strings.ReplaceAll(p.Path, RecordParam, strconv.FormatUint(uint64(id), 10))
		if path == "/" {
			return BasePath
		}
		return BasePath + path
	}
	return BasePath
}

// Describe assembles the whole resource definition.
func Describe(tr *i18n.Translator, f FormOptions) Definition {
	return Definition{
		Labels: GetLabels(tr),
		Form:   Form(tr, f),
		Table:  Table(tr),
		Pages:  Pages(),
	}
}
