package server

import (
	"errors"
	"io"
	"strings"
	"time"

	"blogadmin/internal/models"
	"blogadmin/internal/resource"
	"blogadmin/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

const aspectRatioField = "thumbnail_aspect_ratio"

// Layouts accepted for published_at, tried in order. The last two carry no
// zone and are read in the application timezone.
var publishedAtLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// parseID extracts the record route parameter as a positive uint.
// A malformed record cannot name a post, so it answers 404 and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Post", c.Params(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// postFormInput is the submitted form, read from either multipart or JSON.
type postFormInput struct {
	Title       string
	Content     string
	PublishedAt *time.Time
	Featured    bool
	Thumbnail   *service.ThumbnailUpload
}

type postJSONBody struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	PublishedAt string `json:"published_at"`
	Featured    bool   `json:"featured"`
}

// readPostForm parses the create/edit submission. Thumbnails are only
// accepted as multipart uploads.
func (s *Server) readPostForm(c *fiber.Ctx) (postFormInput, error) {
	var in postFormInput
	var rawDate string

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		in.Title = c.FormValue(resource.FieldTitle)
		in.Content = c.FormValue(resource.FieldContent)
		in.Featured = parseBool(c.FormValue(resource.FieldFeatured))
		rawDate = c.FormValue(resource.FieldPublishedAt)

		upload, err := readThumbnail(c)
		if err != nil {
			return in, err
		}
		in.Thumbnail = upload
	} else {
		var body postJSONBody
		if err := c.BodyParser(&body); err != nil {
			return in, models.NewValidationError("Invalid request body")
		}
		in.Title = body.Title
		in.Content = body.Content
		in.Featured = body.Featured
		rawDate = body.PublishedAt
	}

	publishedAt, err := s.parsePublishedAt(rawDate)
	if err != nil {
		return in, err
	}
	in.PublishedAt = publishedAt
	return in, nil
}

// parsePublishedAt returns nil for an empty value: creates default to now, edits keep the stored date.
func (s *Server) parsePublishedAt(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	loc := s.config.Location()
	for _, layout := range publishedAtLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return &t, nil
		}
	}
	label := resource.FieldLabel(s.tr, resource.FieldPublishedAt)
	msg := s.tr.T("validation.date", map[string]string{"attribute": label})
	return nil, models.NewFieldValidationError(s.tr.T("validation.failed"), map[string][]string{
		resource.FieldPublishedAt: {msg},
	})
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// readThumbnail returns nil when no file was sent.
func readThumbnail(c *fiber.Ctx) (*service.ThumbnailUpload, error) {
	fh, err := c.FormFile(resource.FieldThumbnail)
	if err != nil {
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &service.ThumbnailUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Content:     content,
		AspectRatio: c.FormValue(aspectRatioField),
	}, nil
}

// respondError writes err with the status its code maps to.
func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusFor(err), err)
}
