//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"blogadmin/internal/cache"
	"blogadmin/internal/database"
	"blogadmin/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgres starts a PostgreSQL container and returns a migrated connection.
func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:alpine",
		tcpostgres.WithDatabase("blog"),
		tcpostgres.WithUsername("blog"),
		tcpostgres.WithPassword("blog"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(connStr), &gorm.Config{Logger: database.NewGormLogger()})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestPostgresPartialTitleIndex(t *testing.T) {
	cache.SetClient(nil)
	repo := NewPostRepository(setupPostgres(t))
	ctx := context.Background()

	first := seedPost(t, repo, "Unique title", at(1))

	err := repo.Create(ctx, &models.Post{Title: "Unique title", Slug: "unique-title", Content: "x", Thumbnail: "t"})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err), "raw pgconn error should map to a unique violation")

	require.NoError(t, repo.Delete(ctx, first.ID))
	seedPost(t, repo, "Unique title", at(2))
}

func TestPostgresSearchAndOrdering(t *testing.T) {
	cache.SetClient(nil)
	repo := NewPostRepository(setupPostgres(t))
	ctx := context.Background()

	seedPost(t, repo, "Zażółć gęślą", at(3))
	seedPost(t, repo, "Second", at(5))
	seedPost(t, repo, "Third", at(4))

	posts, total, err := repo.List(ctx, ListQuery{Search: "ZAŻ", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Zażółć gęślą", posts[0].Title)

	posts, _, err = repo.List(ctx, ListQuery{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"Second", "Third", "Zażółć gęślą"}, titles(posts))
}
