package resource

import (
	"strings"
	"time"

	"blogadmin/internal/i18n"
	"blogadmin/internal/models"
)

// Column types.
const (
	ColumnImage = "image"
	ColumnText  = "text"
	ColumnBadge = "badge"
)

// Badge colors.
const (
	ColorSuccess = "success"
	ColorDanger  = "danger"
)

// Sorting and pagination defaults of the list page.
const (
	DefaultSortColumn    = FieldPublishedAt
	DefaultSortDirection = "desc"
	DefaultPerPage       = 10
	DescriptionLimit     = 40
)

// DateTimeFormat renders publication dates as DD-MM-YYYY HH:mm.
const DateTimeFormat = "02-01-2006 15:04"

// PerPageOptions are the selectable page sizes.
var PerPageOptions = []int{5, 10, 25, 50}

// TableSchema is the list table.
type TableSchema struct {
	DefaultSort    Sort          `json:"default_sort"`
	Columns        []Column      `json:"columns"`
	Actions        []Action      `json:"actions"`
	BulkActions    []ActionGroup `json:"bulk_actions"`
	PerPageOptions []int         `json:"per_page_options"`
	DefaultPerPage int           `json:"default_per_page"`
}

// Sort is a column and direction pair.
type Sort struct {
	Column    string `json:"column"`
	Direction string `json:"direction"`
}

// Column is a single table column.
type Column struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	Label          string `json:"label"`
	Searchable     bool   `json:"searchable,omitempty"`
	Sortable       bool   `json:"sortable,omitempty"`
	Description    string `json:"description,omitempty"`
	DateTimeFormat string `json:"date_time_format,omitempty"`
}

// Action is a row or bulk action.
type Action struct {
	Name                 string `json:"name"`
	Label                string `json:"label"`
	Icon                 string `json:"icon,omitempty"`
	Color                string `json:"color,omitempty"`
	RequiresConfirmation bool   `json:"requires_confirmation,omitempty"`
}

// ActionGroup bundles bulk actions under one menu.
type ActionGroup struct {
	Label   string   `json:"label"`
	Actions []Action `json:"actions"`
}

// Table builds the table schema.
func Table(tr *i18n.Translator) TableSchema {
	return TableSchema{
		DefaultSort: Sort{Column: DefaultSortColumn, Direction: DefaultSortDirection},
		Columns: []Column{
			{Name: FieldThumbnail, Type: ColumnImage, Label: FieldLabel(tr, FieldThumbnail)},
			{Name: FieldTitle, Type: ColumnText, Label: FieldLabel(tr, FieldTitle), Searchable: true, Description: FieldContent},
			{Name: FieldPublishedAt, Type: ColumnBadge, Label: FieldLabel(tr, FieldPublishedAt), Sortable: true, DateTimeFormat: "d-m-Y H:i"},
		},
		Actions: []Action{
			{Name: "view", Label: tr.T("Wyświetl"), Icon: "heroicon-o-eye"},
			{Name: "edit", Label: tr.T("Edytuj"), Icon: "heroicon-o-pencil-square"},
			{Name: "delete", Label: tr.T("Usuń"), Icon: "heroicon-o-trash", Color: ColorDanger, RequiresConfirmation: true},
		},
		BulkActions: []ActionGroup{
			{
				Label: tr.T("Akcje zbiorcze"),
				Actions: []Action{
					{Name: "delete", Label: tr.T("Usuń zaznaczone"), Icon: "heroicon-o-trash", Color: ColorDanger, RequiresConfirmation: true},
				},
			},
		},
		PerPageOptions: append([]int(nil), PerPageOptions...),
		DefaultPerPage: DefaultPerPage,
	}
}

// NormalizeSort maps a requested sort onto the sortable columns, falling back
// to the default for anything else.
func NormalizeSort(column, direction string) Sort {
	if column != FieldPublishedAt {
		return Sort{Column: DefaultSortColumn, Direction: DefaultSortDirection}
	}
	direction = strings.ToLower(strings.TrimSpace(direction))
	if direction != "asc" {
		direction = "desc"
	}
	return Sort{Column: column, Direction: direction}
}

// NormalizePerPage returns n when it is a selectable page size, DefaultPerPage otherwise.
func NormalizePerPage(n int) int {
	for _, opt := range PerPageOptions {
		if n == opt {
			return n
		}
	}
	return DefaultPerPage
}

// Cell is a rendered table value.
type Cell struct {
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
}

// Row is a rendered table row.
type Row struct {
	ID    uint              `json:"id"`
	Cells map[string]Cell   `json:"cells"`
	URLs  map[string]string `json:"urls"`
}

// RowContext carries what rendering depends on besides the post itself.
type RowContext struct {
	Now      time.Time
	Location *time.Location
	URLFor   func(string) string
}

// RenderRow renders a post as a table row.
func RenderRow(post *models.Post, rc RowContext) Row {
	thumb := post.Thumbnail
	if rc.URLFor != nil && thumb != "" {
		thumb = rc.URLFor(thumb)
	}
	return Row{
		ID: post.ID,
		Cells: map[string]Cell{
			FieldThumbnail: {Value: thumb},
			FieldTitle: {
				Value:       post.Title,
				Description: Limit(StripTags(post.Content), DescriptionLimit),
			},
			FieldPublishedAt: PublishedBadge(post.PublishedAt, rc.Now, rc.Location),
		},
		URLs: map[string]string{
			"view": BasePath + "/" + itoa(post.ID),
			"edit": PageURL(PageEdit, post.ID),
		},
	}
}

// RenderRows renders posts in order.
func RenderRows(posts []*models.Post, rc RowContext) []Row {
	rows := make([]Row, 0, len(posts))
	for _, p := range posts {
		rows = append(rows, RenderRow(p, rc))
	}
	return rows
}

// PublishedBadge formats the publication date and colors it by whether it
// has already passed. A missing date renders empty without color.
func PublishedBadge(publishedAt *time.Time, now time.Time, loc *time.Location) Cell {
	if publishedAt == nil {
		return Cell{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return Cell{
		Value: publishedAt.In(loc).Format(DateTimeFormat),
		Color: BadgeColor(*publishedAt, now),
	}
}

// BadgeColor is success at or before now and danger after it.
func BadgeColor(publishedAt, now time.Time) string {
	if (&models.Post{PublishedAt: &publishedAt}).IsPublished(now) {
		return ColorSuccess
	}
	return ColorDanger
}
