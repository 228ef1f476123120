package seed

import (
	"testing"
	"time"

	"blogadmin/internal/config"
	"blogadmin/internal/i18n"
	"blogadmin/internal/service"
	"blogadmin/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func newFactory(t *testing.T, opts Options) (*Factory, *testutil.PostRepoStub) {
	t.Helper()
	tr := i18n.MustLoad().For("pl")
	clock := func() time.Time { return fixedNow }
	repo := testutil.NewPostRepoStub()
	thumbs := service.NewThumbnailService(&config.Config{StorageDir: t.TempDir()}, tr).WithClock(clock)
	f := NewFactory(service.NewPostService(repo, thumbs, tr).WithClock(clock), opts)
	f.now = clock
	return f, repo
}

func TestBuildPostStaysInRange(t *testing.T) {
	f, _ := newFactory(t, Options{Seed: 42, MaxDays: 10})

	for i := 0; i < 50; i++ {
		in := f.BuildPost()
		assert.NotEmpty(t, in.Title)
		assert.Contains(t, in.Content, "<p>")
		require.NotNil(t, in.PublishedAt)
		assert.False(t, in.PublishedAt.Before(fixedNow.Add(-10*24*time.Hour).Truncate(time.Minute)))
		assert.False(t, in.PublishedAt.After(fixedNow.Add(10*24*time.Hour)))
		require.NotNil(t, in.Thumbnail)
		assert.NotEmpty(t, in.Thumbnail.Content)
	}
}

func TestSeedIsReproducible(t *testing.T) {
	a, _ := newFactory(t, Options{Seed: 7})
	b, _ := newFactory(t, Options{Seed: 7})
	assert.Equal(t, a.BuildPost().Title, b.BuildPost().Title)
}

func TestSeedCreatesPosts(t *testing.T) {
	f, repo := newFactory(t, Options{Count: 3, Seed: 1})

	posts, err := f.Seed(t.Context())
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, 3, repo.Count())
	for _, p := range posts {
		assert.NotEmpty(t, p.Slug)
		assert.Contains(t, p.Thumbnail, "blog-thumbnails/")
	}
}

func TestSeedDryRunWritesNothing(t *testing.T) {
	f, repo := newFactory(t, Options{Count: 2, Seed: 1, DryRun: true})

	posts, err := f.Seed(t.Context())
	require.NoError(t, err)
	assert.Len(t, posts, 2)
	assert.Equal(t, 0, repo.Count())
}
