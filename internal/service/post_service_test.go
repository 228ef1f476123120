package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"blogadmin/internal/i18n"
	"blogadmin/internal/models"
	"blogadmin/internal/observability"
	"blogadmin/internal/testutil"

	"github.com/jackc/pgx/v5/pgconn"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// thumbStub is a stub for ThumbnailStorage.
type thumbStub struct {
	validateFn func(ThumbnailUpload) error
	stored     []string
	removed    []string
}

func (s *thumbStub) Validate(in ThumbnailUpload) error {
	if s.validateFn != nil {
		return s.validateFn(in)
	}
	return nil
}

func (s *thumbStub) Store(_ context.Context, in ThumbnailUpload) (string, error) {
	p := "blog-thumbnails/" + in.Filename
	s.stored = append(s.stored, p)
	return p, nil
}

func (s *thumbStub) URL(p string) string { return "/storage/" + p }

func (s *thumbStub) Remove(_ context.Context, p string) error {
	s.removed = append(s.removed, p)
	return nil
}

func newPostService(t *testing.T) (*PostService, *testutil.PostRepoStub, *thumbStub) {
	t.Helper()
	repo := testutil.NewPostRepoStub()
	thumbs := &thumbStub{}
	svc := NewPostService(repo, thumbs, i18n.MustLoad().For("pl")).WithClock(func() time.Time { return fixedNow })
	return svc, repo, thumbs
}

func validInput(title string) CreatePostInput {
	return CreatePostInput{
		Title:     title,
		Content:   "<p>Body of " + title + "</p>",
		Thumbnail: &ThumbnailUpload{Filename: "t.webp", Content: []byte("x")},
	}
}

// assertFieldErrors asserts that err is a VALIDATION_ERROR listing exactly fields.
func assertFieldErrors(t *testing.T, err error, fields ...string) *models.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, models.CodeValidation, appErr.Code)
	assert.ElementsMatch(t, fields, appErr.FieldNames())
	return appErr
}

func TestCreatePost(t *testing.T) {
	svc, _, thumbs := newPostService(t)

	post, err := svc.CreatePost(context.Background(), validInput("Hello World!"))
	require.NoError(t, err)
	assert.NotZero(t, post.ID)
	assert.Equal(t, "Hello World!", post.Title)
	assert.Equal(t, "hello-world", post.Slug)
	assert.Equal(t, "blog-thumbnails/t.webp", post.Thumbnail)
	require.NotNil(t, post.PublishedAt)
	assert.Equal(t, fixedNow, *post.PublishedAt, "missing publication date defaults to now")
	assert.Equal(t, []string{"blog-thumbnails/t.webp"}, thumbs.stored)
}

func TestCreatePostKeepsExplicitDate(t *testing.T) {
	svc, _, _ := newPostService(t)
	when := fixedNow.Add(72 * time.Hour)
	in := validInput("Scheduled")
	in.PublishedAt = &when
	in.Featured = true

	post, err := svc.CreatePost(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, when, *post.PublishedAt)
	assert.True(t, post.Featured)
}

func TestCreatePostValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreatePostInput)
		fields []string
		title  string
	}{
		{name: "short title", mutate: func(in *CreatePostInput) { in.Title = "ab" }, fields: []string{"title"}, title: "Pole Tytuł musi mieć co najmniej 3 znaków."},
		{name: "long title", mutate: func(in *CreatePostInput) { in.Title = strings.Repeat("ą", 256) }, fields: []string{"title", "slug"}, title: "Pole Tytuł może mieć maksymalnie 255 znaków."},
		{name: "missing title", mutate: func(in *CreatePostInput) { in.Title = "   " }, fields: []string{"title", "slug"}, title: "Pole Tytuł jest wymagane."},
		{name: "title without slug characters", mutate: func(in *CreatePostInput) { in.Title = "!!!???" }, fields: []string{"slug"}},
		{name: "missing content", mutate: func(in *CreatePostInput) { in.Content = "" }, fields: []string{"content"}},
		{name: "content only script", mutate: func(in *CreatePostInput) { in.Content = "<script>x()</script>" }, fields: []string{"content"}},
		{name: "missing thumbnail", mutate: func(in *CreatePostInput) { in.Thumbnail = nil }, fields: []string{"thumbnail"}},
		{
			name: "everything at once",
			mutate: func(in *CreatePostInput) {
				in.Title = "ab"
				in.Content = ""
				in.Thumbnail = nil
			},
			fields: []string{"title", "content", "thumbnail"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, thumbs := newPostService(t)
			in := validInput("Valid title")
			tt.mutate(&in)

			_, err := svc.CreatePost(context.Background(), in)
			appErr := assertFieldErrors(t, err, tt.fields...)
			if tt.title != "" {
				assert.Equal(t, tt.title, appErr.Fields["title"][0])
			}
			assert.Zero(t, repo.Count(), "nothing is persisted on validation failure")
			assert.Empty(t, thumbs.stored, "nothing is stored on validation failure")
		})
	}
}

func TestCreatePostValidationCountsFailedFields(t *testing.T) {
	svc, _, _ := newPostService(t)
	in := validInput("Valid title")
	in.Content = ""
	in.Thumbnail = nil

	before := promtest.ToFloat64(observability.PostValidationFailures.WithLabelValues("content"))
	_, err := svc.CreatePost(context.Background(), in)
	assertFieldErrors(t, err, "content", "thumbnail")

	assert.Equal(t, before+1, promtest.ToFloat64(observability.PostValidationFailures.WithLabelValues("content")))
}

func TestCreatePostMergesThumbnailErrors(t *testing.T) {
	svc, _, thumbs := newPostService(t)
	thumbs.validateFn = func(ThumbnailUpload) error {
		return models.NewFieldValidationError("invalid", map[string][]string{"thumbnail": {"too big"}})
	}
	in := validInput("ab")

	_, err := svc.CreatePost(context.Background(), in)
	appErr := assertFieldErrors(t, err, "title", "thumbnail")
	assert.Equal(t, []string{"too big"}, appErr.Fields["thumbnail"])
}

func TestCreatePostRejectsDuplicateTitle(t *testing.T) {
	svc, _, _ := newPostService(t)
	ctx := context.Background()

	_, err := svc.CreatePost(ctx, validInput("Hello World"))
	require.NoError(t, err)

	_, err = svc.CreatePost(ctx, validInput("Hello World"))
	appErr := assertFieldErrors(t, err, "title")
	assert.Equal(t, "Taka wartość pola Tytuł już występuje.", appErr.Fields["title"][0])
}

func TestCreatePostMapsUniqueViolation(t *testing.T) {
	svc, repo, thumbs := newPostService(t)
	repo.CreateErr = &pgconn.PgError{Code: "23505"}

	_, err := svc.CreatePost(context.Background(), validInput("Racing"))
	assertFieldErrors(t, err, "title")
	assert.Equal(t, thumbs.stored, thumbs.removed, "orphaned thumbnail is removed")
}

func TestCreatePostSanitizesContent(t *testing.T) {
	svc, _, _ := newPostService(t)
	in := validInput("Sanitized")
	in.Content = `<p onclick="x()">Hi <a href="https://example.com">there</a></p><script>alert(1)</script><pre><code>fmt.Println()</code></pre>`

	post, err := svc.CreatePost(context.Background(), in)
	require.NoError(t, err)
	assert.NotContains(t, post.Content, "script")
	assert.NotContains(t, post.Content, "onclick")
	assert.NotContains(t, post.Content, "<pre>")
	assert.NotContains(t, post.Content, "<code>")
	assert.Contains(t, post.Content, "fmt.Println()")
	assert.Contains(t, post.Content, `href="https://example.com"`)
}

func TestUpdatePost(t *testing.T) {
	svc, _, thumbs := newPostService(t)
	ctx := context.Background()

	original, err := svc.CreatePost(ctx, validInput("First title"))
	require.NoError(t, err)
	other, err := svc.CreatePost(ctx, validInput("Other title"))
	require.NoError(t, err)

	t.Run("keeps own title and stored thumbnail", func(t *testing.T) {
		updated, err := svc.UpdatePost(ctx, UpdatePostInput{
			PostID:  original.ID,
			Title:   "First title",
			Content: "<p>changed</p>",
		})
		require.NoError(t, err)
		assert.Equal(t, "<p>changed</p>", updated.Content)
		assert.Equal(t, original.Thumbnail, updated.Thumbnail)
	})

	t.Run("rejects another post's title", func(t *testing.T) {
		_, err := svc.UpdatePost(ctx, UpdatePostInput{PostID: original.ID, Title: other.Title, Content: "<p>x</p>"})
		assertFieldErrors(t, err, "title")
	})

	t.Run("retitle recomputes slug and replaces thumbnail", func(t *testing.T) {
		updated, err := svc.UpdatePost(ctx, UpdatePostInput{
			PostID:    original.ID,
			Title:     "Brand New Title",
			Content:   "<p>x</p>",
			Thumbnail: &ThumbnailUpload{Filename: "new.webp", Content: []byte("x")},
		})
		require.NoError(t, err)
		assert.Equal(t, "brand-new-title", updated.Slug)
		assert.Equal(t, "blog-thumbnails/new.webp", updated.Thumbnail)
		assert.Empty(t, thumbs.removed, "previous thumbnail is kept")
	})

	t.Run("missing record", func(t *testing.T) {
		_, err := svc.UpdatePost(ctx, UpdatePostInput{PostID: 999, Title: "Whatever", Content: "<p>x</p>"})
		assert.True(t, models.IsCode(err, models.CodeNotFound))
	})
}

func TestDeletedTitleCanBeReused(t *testing.T) {
	svc, _, _ := newPostService(t)
	ctx := context.Background()

	first, err := svc.CreatePost(ctx, validInput("Reusable"))
	require.NoError(t, err)
	require.NoError(t, svc.DeletePost(ctx, first.ID))

	_, err = svc.CreatePost(ctx, validInput("Reusable"))
	assert.NoError(t, err)
}

func TestListPosts(t *testing.T) {
	svc, _, _ := newPostService(t)
	ctx := context.Background()

	for i, title := range []string{"Alpha", "Bravo", "Charlie"} {
		in := validInput(title)
		at := fixedNow.Add(time.Duration(i) * time.Hour)
		in.PublishedAt = &at
		_, err := svc.CreatePost(ctx, in)
		require.NoError(t, err)
	}

	page, err := svc.ListPosts(ctx, ListPostsInput{PerPage: 7})
	require.NoError(t, err)
	assert.Equal(t, 10, page.PerPage, "unsupported page size falls back to default")
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 1, page.LastPage)
	require.Len(t, page.Posts, 3)
	assert.Equal(t, "Charlie", page.Posts[0].Title)
	assert.Equal(t, "Alpha", page.Posts[2].Title)

	page, err = svc.ListPosts(ctx, ListPostsInput{Sort: "title", Direction: "asc", PerPage: 5})
	require.NoError(t, err)
	assert.Equal(t, "published_at", page.Sort.Column)
	assert.Equal(t, "desc", page.Sort.Direction)
	assert.Equal(t, "Charlie", page.Posts[0].Title)

	page, err = svc.ListPosts(ctx, ListPostsInput{Search: "rav", Page: 1, PerPage: 5})
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "Bravo", page.Posts[0].Title)
}

func TestBulkDeletePosts(t *testing.T) {
	svc, _, _ := newPostService(t)
	ctx := context.Background()

	a, err := svc.CreatePost(ctx, validInput("One post"))
	require.NoError(t, err)
	b, err := svc.CreatePost(ctx, validInput("Two post"))
	require.NoError(t, err)

	_, err = svc.BulkDeletePosts(ctx, nil)
	assert.True(t, models.IsCode(err, models.CodeValidation))

	n, err := svc.BulkDeletePosts(ctx, []uint{a.ID, b.ID, a.ID, 0})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = svc.GetPost(ctx, a.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestRestoreAndTrash(t *testing.T) {
	svc, _, _ := newPostService(t)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, validInput("Comeback"))
	require.NoError(t, err)
	require.NoError(t, svc.DeletePost(ctx, post.ID))
	assert.True(t, models.IsCode(svc.DeletePost(ctx, post.ID), models.CodeNotFound))

	trashed, err := svc.ListTrashedPosts(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, trashed, 1)

	require.NoError(t, svc.RestorePost(ctx, post.ID))
	_, err = svc.GetPost(ctx, post.ID)
	assert.NoError(t, err)
	assert.True(t, models.IsCode(svc.RestorePost(ctx, post.ID), models.CodeNotFound))
}

func TestReslug(t *testing.T) {
	svc, repo, _ := newPostService(t)
	ctx := context.Background()

	post, err := svc.CreatePost(ctx, validInput("Zażółć gęślą jaźń"))
	require.NoError(t, err)
	post.Slug = "stale"
	require.NoError(t, repo.Update(ctx, post))

	changed, err := svc.Reslug(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	got, err := svc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "zazolc-gesla-jazn", got.Slug)
}

func TestDeriveSlug(t *testing.T) {
	svc, _, _ := newPostService(t)
	assert.Equal(t, "hello-world", svc.DeriveSlug("  Hello World!  "))
	assert.Equal(t, "", svc.DeriveSlug("???"))
}
