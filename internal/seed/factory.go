// Package seed creates demo posts for development databases.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"blogadmin/internal/models"
	"blogadmin/internal/resource"
	"blogadmin/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

const maxTitleAttempts = 5

// Options configures a seeding run.
type Options struct {
	Count int
	// MaxDays spreads publication dates this many days around now.
	MaxDays int
	// Seed makes the generated content reproducible when non-zero.
	Seed   int64
	DryRun bool
}

// Factory builds post submissions and pushes them through the post service,
// so seeded rows get the same slugs, sanitizing and thumbnails as real ones.
type Factory struct {
	posts *service.PostService
	opts  Options
	faker *gofakeit.Faker
	now   func() time.Time
}

// NewFactory creates a Factory bound to the given post service.
func NewFactory(posts *service.PostService, opts Options) *Factory {
	if opts.MaxDays <= 0 {
		opts.MaxDays = 30
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		posts: posts,
		opts:  opts,
		faker: gofakeit.New(seed),
		now:   time.Now,
	}
}

// BuildPost generates a create submission. Roughly a fifth of the posts are
// scheduled in the future so both badge colors show up in the table.
func (f *Factory) BuildPost() service.CreatePostInput {
	span := time.Duration(f.opts.MaxDays) * 24 * time.Hour
	now := f.now()
	start := now.Add(-span)
	end := now
	if f.faker.Number(1, 5) == 1 {
		start, end = now, now.Add(span)
	}
	publishedAt := f.faker.DateRange(start, end).Truncate(time.Minute)

	ratio := resource.AspectRatios[f.faker.Number(0, len(resource.AspectRatios)-1)]
	return service.CreatePostInput{
		Title:       strings.TrimSuffix(f.faker.Sentence(f.faker.Number(3, 7)), "."),
		Content:     f.content(),
		PublishedAt: &publishedAt,
		Featured:    f.faker.Number(1, 4) == 1,
		Thumbnail: &service.ThumbnailUpload{
			Filename:    f.faker.Word() + ".png",
			ContentType: "image/png",
			Content:     f.faker.ImagePng(640, 360),
			AspectRatio: ratio,
		},
	}
}

func (f *Factory) content() string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>%s</h2>", f.faker.HipsterSentence(4))
	for i := 0; i < f.faker.Number(2, 4); i++ {
		fmt.Fprintf(&b, "<p>%s</p>", f.faker.Paragraph(1, 4, 12, " "))
	}
	if f.faker.Bool() {
		fmt.Fprintf(&b, "<blockquote>%s</blockquote>", f.faker.Quote())
	}
	return b.String()
}

// CreatePost builds and stores one post, regenerating the title when it is
// already taken.
func (f *Factory) CreatePost(ctx context.Context) (*models.Post, error) {
	var lastErr error
	for attempt := 0; attempt < maxTitleAttempts; attempt++ {
		in := f.BuildPost()
		if f.opts.DryRun {
			log.Printf("[dry-run] CreatePost: %q published %s", in.Title, in.PublishedAt.Format(time.RFC3339))
			return &models.Post{Title: in.Title, PublishedAt: in.PublishedAt, Featured: in.Featured}, nil
		}
		post, err := f.posts.CreatePost(ctx, in)
		if err == nil {
			return post, nil
		}
		if !isTitleConflict(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("no free title after %d attempts: %w", maxTitleAttempts, lastErr)
}

// Seed creates opts.Count posts.
func (f *Factory) Seed(ctx context.Context) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, f.opts.Count)
	for i := 0; i < f.opts.Count; i++ {
		post, err := f.CreatePost(ctx)
		if err != nil {
			return posts, fmt.Errorf("seed post %d: %w", i+1, err)
		}
		posts = append(posts, post)
	}
	log.Printf("Seeded %d posts", len(posts))
	return posts, nil
}

func isTitleConflict(err error) bool {
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code != models.CodeValidation {
		return false
	}
	_, ok := appErr.Fields[resource.FieldTitle]
	return ok
}
