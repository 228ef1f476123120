package database

import (
	"path/filepath"
	"testing"

	"blogadmin/internal/config"
	"blogadmin/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectorSelectsDriver(t *testing.T) {
	assert.Equal(t, "sqlite", Dialector(&config.Config{DBDriver: "sqlite", SQLitePath: ":memory:"}).Name())
	assert.Equal(t, "postgres", Dialector(&config.Config{DBDriver: "postgres"}).Name())
}

func TestConnectSQLiteMigratesPosts(t *testing.T) {
	cfg := &config.Config{
		Env:        "test",
		DBDriver:   "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "blog.db"),
	}

	db, err := Connect(cfg)
	require.NoError(t, err)

	assert.True(t, db.Migrator().HasTable(&models.Post{}))
	for _, column := range []string{"title", "slug", "content", "thumbnail", "published_at", "featured", "deleted_at"} {
		assert.True(t, db.Migrator().HasColumn(&models.Post{}, column), "missing column %s", column)
	}
}

func TestPersistentModelsIncludesPost(t *testing.T) {
	found := false
	for _, m := range PersistentModels() {
		if _, ok := m.(*models.Post); ok {
			found = true
		}
	}
	assert.True(t, found)
}
