package service

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"blogadmin/internal/i18n"
	"blogadmin/internal/models"
	"blogadmin/internal/observability"
	"blogadmin/internal/repository"
	"blogadmin/internal/resource"
	"blogadmin/internal/slug"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
)

const reslugBatchSize = 100

type PostService struct {
	postRepo repository.PostRepository
	thumbs   ThumbnailStorage
	tr       *i18n.Translator
	validate *validator.Validate
	now      func() time.Time
}

// postForm is the validated shape of a submitted form.
type postForm struct {
	Title   string `json:"title" validate:"required,min=3,max=255"`
	Slug    string `json:"slug" validate:"required,max=255"`
	Content string `json:"content" validate:"required"`
}

type CreatePostInput struct {
	Title       string
	Content     string
	PublishedAt *time.Time
	Featured    bool
	Thumbnail   *ThumbnailUpload
}

type UpdatePostInput struct {
	PostID      uint
	Title       string
	Content     string
	PublishedAt *time.Time
	Featured    bool
	Thumbnail   *ThumbnailUpload
}

type ListPostsInput struct {
	Search    string
	Sort      string
	Direction string
	Page      int
	PerPage   int
}

// PostPage is one page of the list table.
type PostPage struct {
	Posts    []*models.Post
	Total    int64
	Page     int
	PerPage  int
	LastPage int
	Sort     resource.Sort
}

func NewPostService(postRepo repository.PostRepository, thumbs ThumbnailStorage, tr *i18n.Translator) *PostService {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &PostService{
		postRepo: postRepo,
		thumbs:   thumbs,
		tr:       tr,
		validate: v,
		now:      time.Now,
	}
}

// WithClock replaces the clock used for publication defaults.
func (s *PostService) WithClock(now func() time.Time) *PostService {
	s.now = now
	return s
}

// DeriveSlug is the slug the form shows for title.
func (s *PostService) DeriveSlug(title string) string {
	return slug.Make(strings.TrimSpace(title))
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (post *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "CreatePost")
	defer func() { observability.EndSpan(span, err) }()
	observability.LogServiceCall(ctx, "PostService", "CreatePost", map[string]any{"title": in.Title})

	form, fields, err := s.validateForm(ctx, in.Title, in.Content, 0)
	if err != nil {
		return nil, err
	}
	if in.Thumbnail == nil {
		addField(fields, resource.FieldThumbnail, s.message("validation.required", resource.FieldThumbnail, nil))
	} else if terr := s.thumbs.Validate(*in.Thumbnail); terr != nil {
		if !mergeFieldErrors(fields, terr) {
			return nil, terr
		}
	}
	if len(fields) > 0 {
		return nil, s.failValidation(fields)
	}

	thumbPath, err := s.thumbs.Store(ctx, *in.Thumbnail)
	if err != nil {
		return nil, err
	}

	post = &models.Post{
		Title:       form.Title,
		Slug:        form.Slug,
		Content:     form.Content,
		Thumbnail:   thumbPath,
		PublishedAt: s.publishedAt(in.PublishedAt),
		Featured:    in.Featured,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		_ = s.thumbs.Remove(ctx, thumbPath)
		if repository.IsUniqueViolation(err) {
			return nil, s.titleTaken()
		}
		return nil, models.NewInternalError(err)
	}

	observability.PostMutations.WithLabelValues("create").Inc()
	span.SetAttributes(attribute.Int("post.id", int(post.ID)))
	return post, nil
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (post *models.Post, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "UpdatePost", attribute.Int("post.id", int(in.PostID)))
	defer func() { observability.EndSpan(span, err) }()
	observability.LogServiceCall(ctx, "PostService", "UpdatePost", map[string]any{"post_id": in.PostID})

	post, err = s.GetPost(ctx, in.PostID)
	if err != nil {
		return nil, err
	}

	form, fields, err := s.validateForm(ctx, in.Title, in.Content, post.ID)
	if err != nil {
		return nil, err
	}
	if in.Thumbnail == nil {
		if post.Thumbnail == "" {
			addField(fields, resource.FieldThumbnail, s.message("validation.required", resource.FieldThumbnail, nil))
		}
	} else if terr := s.thumbs.Validate(*in.Thumbnail); terr != nil {
		if !mergeFieldErrors(fields, terr) {
			return nil, terr
		}
	}
	if len(fields) > 0 {
		return nil, s.failValidation(fields)
	}

	var newThumb string
	if in.Thumbnail != nil {
		newThumb, err = s.thumbs.Store(ctx, *in.Thumbnail)
		if err != nil {
			return nil, err
		}
		post.Thumbnail = newThumb
	}

	post.Title = form.Title
	post.Slug = form.Slug
	post.Content = form.Content
	if in.PublishedAt != nil {
		post.PublishedAt = in.PublishedAt
	}
	post.Featured = in.Featured

	if err := s.postRepo.Update(ctx, post); err != nil {
		if newThumb != "" {
			_ = s.thumbs.Remove(ctx, newThumb)
		}
		if repository.IsUniqueViolation(err) {
			return nil, s.titleTaken()
		}
		return nil, wrapRepoError(err)
	}

	observability.PostMutations.WithLabelValues("update").Inc()
	return post, nil
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, wrapRepoError(err)
	}
	return post, nil
}

func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) (*PostPage, error) {
	sort := resource.NormalizeSort(in.Sort, in.Direction)
	perPage := resource.NormalizePerPage(in.PerPage)
	page := in.Page
	if page < 1 {
		page = 1
	}

	posts, total, err := s.postRepo.List(ctx, repository.ListQuery{
		Search:    in.Search,
		Sort:      sort.Column,
		Direction: sort.Direction,
		Limit:     perPage,
		Offset:    (page - 1) * perPage,
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	lastPage := int((total + int64(perPage) - 1) / int64(perPage))
	if lastPage < 1 {
		lastPage = 1
	}
	return &PostPage{
		Posts:    posts,
		Total:    total,
		Page:     page,
		PerPage:  perPage,
		LastPage: lastPage,
		Sort:     sort,
	}, nil
}

func (s *PostService) DeletePost(ctx context.Context, id uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "DeletePost", attribute.Int("post.id", int(id)))
	defer func() { observability.EndSpan(span, err) }()
	observability.LogServiceCall(ctx, "PostService", "DeletePost", map[string]any{"post_id": id})

	if err = s.postRepo.Delete(ctx, id); err != nil {
		return wrapRepoError(err)
	}
	observability.PostMutations.WithLabelValues("delete").Inc()
	return nil
}

// BulkDeletePosts soft-deletes every live post in ids and reports how many were removed.
func (s *PostService) BulkDeletePosts(ctx context.Context, ids []uint) (deleted int64, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "BulkDeletePosts", attribute.Int("post.count", len(ids)))
	defer func() { observability.EndSpan(span, err) }()
	observability.LogServiceCall(ctx, "PostService", "BulkDeletePosts", map[string]any{"ids": ids})

	unique := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return 0, models.NewValidationError("No records selected")
	}

	deleted, err = s.postRepo.BulkDelete(ctx, unique)
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	observability.PostMutations.WithLabelValues("bulk_delete").Add(float64(deleted))
	return deleted, nil
}

// RestorePost undoes a soft delete. A live post holding the same title blocks it.
func (s *PostService) RestorePost(ctx context.Context, id uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "PostService", "RestorePost", attribute.Int("post.id", int(id)))
	defer func() { observability.EndSpan(span, err) }()
	observability.LogServiceCall(ctx, "PostService", "RestorePost", map[string]any{"post_id": id})

	if err = s.postRepo.Restore(ctx, id); err != nil {
		if repository.IsUniqueViolation(err) {
			return s.titleTaken()
		}
		return wrapRepoError(err)
	}
	observability.PostMutations.WithLabelValues("restore").Inc()
	return nil
}

func (s *PostService) ListTrashedPosts(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	posts, err := s.postRepo.ListTrashed(ctx, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// Reslug recomputes every live post's slug from its title and returns how many changed.
func (s *PostService) Reslug(ctx context.Context) (int, error) {
	observability.LogServiceCall(ctx, "PostService", "Reslug", nil)

	changed := 0
	for offset := 0; ; offset += reslugBatchSize {
		posts, _, err := s.postRepo.List(ctx, repository.ListQuery{Limit: reslugBatchSize, Offset: offset})
		if err != nil {
			return changed, models.NewInternalError(err)
		}
		for _, p := range posts {
			want := s.DeriveSlug(p.Title)
			if want == "" || want == p.Slug {
				continue
			}
			p.Slug = want
			if err := s.postRepo.Update(ctx, p); err != nil {
				return changed, models.NewInternalError(err)
			}
			changed++
		}
		if len(posts) < reslugBatchSize {
			return changed, nil
		}
	}
}

// validateForm normalizes the text fields and collects every field error.
// The returned error is only set for failures that are not validation.
func (s *PostService) validateForm(ctx context.Context, title, content string, ignoreID uint) (postForm, map[string][]string, error) {
	form := postForm{
		Title:   strings.TrimSpace(title),
		Content: SanitizeContent(content),
	}
	form.Slug = slug.Make(form.Title)

	fields := map[string][]string{}
	if err := s.validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return form, nil, models.NewInternalError(err)
		}
		for _, fe := range verrs {
			addField(fields, fe.Field(), s.ruleMessage(fe))
		}
	}

	if _, bad := fields[resource.FieldTitle]; !bad {
		taken, err := s.postRepo.TitleExists(ctx, form.Title, ignoreID)
		if err != nil {
			return form, nil, models.NewInternalError(err)
		}
		if taken {
			addField(fields, resource.FieldTitle, s.message("validation.unique", resource.FieldTitle, nil))
		}
	}
	return form, fields, nil
}

func (s *PostService) ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return s.message("validation.min.string", fe.Field(), map[string]string{"min": fe.Param()})
	case "max":
		return s.message("validation.max.string", fe.Field(), map[string]string{"max": fe.Param()})
	default:
		return s.message("validation.required", fe.Field(), nil)
	}
}

func (s *PostService) message(key, field string, replace map[string]string) string {
	r := map[string]string{"attribute": resource.FieldLabel(s.tr, field)}
	for k, v := range replace {
		r[k] = v
	}
	return s.tr.T(key, r)
}

func (s *PostService) titleTaken() error {
	return s.failValidation(map[string][]string{
		resource.FieldTitle: {s.message("validation.unique", resource.FieldTitle, nil)},
	})
}

func (s *PostService) failValidation(fields map[string][]string) error {
	err := models.NewFieldValidationError(s.tr.T("validation.failed"), fields)
	for _, field := range err.FieldNames() {
		observability.PostValidationFailures.WithLabelValues(field).Inc()
	}
	return err
}

// publishedAt fills the create default. Edits keep the stored date when none is submitted.
func (s *PostService) publishedAt(in *time.Time) *time.Time {
	if in != nil {
		return in
	}
	now := s.now()
	return &now
}

func addField(fields map[string][]string, field, msg string) {
	fields[field] = append(fields[field], msg)
}

// mergeFieldErrors copies field messages from err into fields and reports
// whether err was a field validation error.
func mergeFieldErrors(fields map[string][]string, err error) bool {
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code != models.CodeValidation || len(appErr.Fields) == 0 {
		return false
	}
	for field, msgs := range appErr.Fields {
		fields[field] = append(fields[field], msgs...)
	}
	return true
}

func wrapRepoError(err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(err)
}
