package resource

import (
	"time"

	"blogadmin/internal/i18n"
	"blogadmin/internal/models"
	"blogadmin/internal/slug"
)

// Field types understood by the admin front-end.
const (
	FieldTextInput      = "text_input"
	FieldRichEditor     = "rich_editor"
	FieldFileUpload     = "file_upload"
	FieldDateTimePicker = "date_time_picker"
	FieldToggle         = "toggle"
)

// Form field names.
const (
	FieldTitle       = "title"
	FieldSlug        = "slug"
	FieldContent     = "content"
	FieldThumbnail   = "thumbnail"
	FieldPublishedAt = "published_at"
	FieldFeatured    = "featured"
)

// Title length bounds, counted in characters.
const (
	TitleMinLength = 3
	TitleMaxLength = 255
)

// AspectRatios accepted by the thumbnail editor. The empty value is freeform.
var AspectRatios = []string{"", "16:9", "4:3", "1:1"}

var fieldLabelKeys = map[string]string{
	FieldTitle:       "Tytuł",
	FieldSlug:        "Slug",
	FieldContent:     "Treść posta",
	FieldThumbnail:   "Miniaturka",
	FieldPublishedAt: "Data publikacji",
	FieldFeatured:    "Polecany",
}

// FieldLabel returns the translated label of a form field, or the name itself.
func FieldLabel(tr *i18n.Translator, field string) string {
	if key, ok := fieldLabelKeys[field]; ok {
		return tr.T(key)
	}
	return field
}

// FormOptions carries the values the form depends on at build time.
type FormOptions struct {
	Now                time.Time
	ThumbnailDirectory string
	ThumbnailPrefix    string
	ThumbnailMaxSizeKB int
}

// FormSchema is the create/edit form.
type FormSchema struct {
	Sections []Section `json:"sections"`
}

// Section groups fields under a collapsible heading.
type Section struct {
	Heading     string  `json:"heading"`
	Icon        string  `json:"icon"`
	Collapsible bool    `json:"collapsible"`
	Collapsed   bool    `json:"collapsed"`
	Columns     int     `json:"columns,omitempty"`
	Fields      []Field `json:"fields"`
}

// Field is a single form component.
type Field struct {
	Name                   string       `json:"name"`
	Type                   string       `json:"type"`
	Label                  string       `json:"label"`
	Required               bool         `json:"required"`
	ReadOnly               bool         `json:"read_only,omitempty"`
	MinLength              int          `json:"min_length,omitempty"`
	MaxLength              int          `json:"max_length,omitempty"`
	Unique                 *UniqueRule  `json:"unique,omitempty"`
	Live                   *LiveUpdate  `json:"live,omitempty"`
	AfterStateUpdated      *StateHook   `json:"after_state_updated,omitempty"`
	HelperText             string       `json:"helper_text,omitempty"`
	DisabledToolbarButtons []string     `json:"disabled_toolbar_buttons,omitempty"`
	ColumnSpan             string       `json:"column_span,omitempty"`
	Upload                 *UploadRules `json:"upload,omitempty"`
	Default                any          `json:"default,omitempty"`
	OnIcon                 string       `json:"on_icon,omitempty"`
}

// UniqueRule declares a uniqueness check against the posts table.
type UniqueRule struct {
	Table        string `json:"table"`
	Column       string `json:"column"`
	IgnoreRecord bool   `json:"ignore_record"`
}

// LiveUpdate makes the field report changes while typing.
type LiveUpdate struct {
	DebounceMS int `json:"debounce"`
}

// StateHook names the field recomputed after this one changes.
type StateHook struct {
	Set   string `json:"set"`
	Using string `json:"using"`
}

// AspectRatioOption is a single image editor ratio; a nil value means freeform.
type AspectRatioOption struct {
	Value *string `json:"value"`
	Label string  `json:"label"`
}

// UploadRules describes the thumbnail upload constraints.
type UploadRules struct {
	Image           bool                `json:"image"`
	MaxSizeKB       int                 `json:"max_size"`
	Directory       string              `json:"directory"`
	ImageEditor     bool                `json:"image_editor"`
	AspectRatios    []AspectRatioOption `json:"aspect_ratios"`
	Optimize        string              `json:"optimize"`
	FileNamePattern string              `json:"file_name"`
}

// Form builds the form schema. The publication default is taken from opts.Now.
func Form(tr *i18n.Translator, opts FormOptions) FormSchema {
	ratios := make([]AspectRatioOption, 0, len(AspectRatios))
	for _, r := range AspectRatios {
		if r == "" {
			ratios = append(ratios, AspectRatioOption{Label: tr.T("Swobodne")})
			continue
		}
		value := r
		ratios = append(ratios, AspectRatioOption{Value: &value, Label: r})
	}

	return FormSchema{Sections: []Section{
		{
			Heading:     tr.T("Tytuł oraz treść"),
			Icon:        "heroicon-o-pencil",
			Collapsible: true,
			Collapsed:   true,
			Columns:     2,
			Fields: []Field{
				{
					Name:              FieldTitle,
					Type:              FieldTextInput,
					Label:             FieldLabel(tr, FieldTitle),
					Required:          true,
					MinLength:         TitleMinLength,
					MaxLength:         TitleMaxLength,
					Unique:            &UniqueRule{Table: models.Post{}.TableName(), Column: FieldTitle, IgnoreRecord: true},
					Live:              &LiveUpdate{DebounceMS: 1000},
					AfterStateUpdated: &StateHook{Set: FieldSlug, Using: "slug"},
				},
				{
					Name:       FieldSlug,
					Type:       FieldTextInput,
					Label:      FieldLabel(tr, FieldSlug),
					Required:   true,
					ReadOnly:   true,
					HelperText: tr.T("Przyjazny adres url który wygeneruje się automatycznie"),
				},
				{
					Name:                   FieldContent,
					Type:                   FieldRichEditor,
					Label:                  FieldLabel(tr, FieldContent),
					Required:               true,
					DisabledToolbarButtons: []string{"codeBlock"},
					ColumnSpan:             "full",
				},
			},
		},
		{
			Heading:     tr.T("Miniaturka"),
			Icon:        "heroicon-o-photo",
			Collapsible: true,
			Collapsed:   true,
			Fields: []Field{
				{
					Name:     FieldThumbnail,
					Type:     FieldFileUpload,
					Label:    FieldLabel(tr, FieldThumbnail),
					Required: true,
					Upload: &UploadRules{
						Image:           true,
						MaxSizeKB:       opts.ThumbnailMaxSizeKB,
						Directory:       opts.ThumbnailDirectory,
						ImageEditor:     true,
						AspectRatios:    ratios,
						Optimize:        "webp",
						FileNamePattern: opts.ThumbnailPrefix + "{Ymd_His}.{ext}",
					},
					ColumnSpan: "full",
				},
			},
		},
		{
			Heading:     tr.T("Publikacja"),
			Icon:        "heroicon-o-clock",
			Collapsible: true,
			Collapsed:   true,
			Fields: []Field{
				{
					Name:    FieldPublishedAt,
					Type:    FieldDateTimePicker,
					Label:   FieldLabel(tr, FieldPublishedAt),
					Default: opts.Now,
				},
				{
					Name:   FieldFeatured,
					Type:   FieldToggle,
					Label:  FieldLabel(tr, FieldFeatured),
					OnIcon: "heroicon-o-star",
				},
			},
		},
	}}
}

// State is the field values of the form.
type State struct {
	ID           uint       `json:"id,omitempty"`
	Title        string     `json:"title"`
	Slug         string     `json:"slug"`
	Content      string     `json:"content"`
	Thumbnail    string     `json:"thumbnail"`
	ThumbnailURL string     `json:"thumbnail_url,omitempty"`
	PublishedAt  *time.Time `json:"published_at"`
	Featured     bool       `json:"featured"`
}

// DefaultState is the state of a blank create form.
func DefaultState(now time.Time) State {
	return State{PublishedAt: &now}
}

// FormState fills the form from a stored post. urlFor resolves the thumbnail path.
func FormState(post *models.Post, urlFor func(string) string) State {
	s := State{
		ID:          post.ID,
		Title:       post.Title,
		Slug:        post.Slug,
		Content:     post.Content,
		Thumbnail:   post.Thumbnail,
		PublishedAt: post.PublishedAt,
		Featured:    post.Featured,
	}
	if urlFor != nil && post.Thumbnail != "" {
		s.ThumbnailURL = urlFor(post.Thumbnail)
	}
	return s
}

// DeriveState runs the after-state-updated hook for field and returns every
// value that changed as a result.
func DeriveState(field, value string) map[string]string {
	out := map[string]string{field: value}
	if field == FieldTitle {
		out[FieldSlug] = slug.Make(value)
	}
	return out
}
