// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"blogadmin/internal/cache"
	"blogadmin/internal/models"
	"blogadmin/internal/observability"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sortable columns and directions understood by List.
const (
	SortPublishedAt = "published_at"
	DirectionAsc    = "asc"
	DirectionDesc   = "desc"
)

// ListQuery narrows and orders a page of posts.
type ListQuery struct {
	Search    string
	Sort      string
	Direction string
	Limit     int
	Offset    int
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, q ListQuery) ([]*models.Post, int64, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	BulkDelete(ctx context.Context, ids []uint) (int64, error)
	TitleExists(ctx context.Context, title string, ignoreID uint) (bool, error)
	Restore(ctx context.Context, id uint) error
	ListTrashed(ctx context.Context, limit, offset int) ([]*models.Post, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{
		db:  db,
		log: observability.NewRepoLogger(models.Post{}.TableName()),
	}
}

// IsUniqueViolation reports whether err came from a unique constraint.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return err
	}
	r.log.LogCreate(ctx, map[string]any{"id": post.ID, "slug": post.Slug})
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		return r.db.WithContext(ctx).First(&post, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("Post", id)
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, q ListQuery) ([]*models.Post, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Post{})
	if search := strings.TrimSpace(q.Search); search != "" {
		base = base.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []*models.Post
	err := applySort(base, q.Sort, q.Direction).
		Limit(q.Limit).
		Offset(q.Offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// applySort orders by published_at, falling back to the default for unknown
// columns, with id as the tie breaker.
func applySort(db *gorm.DB, sort, direction string) *gorm.DB {
	desc := true
	if sort == SortPublishedAt && strings.EqualFold(direction, DirectionAsc) {
		desc = false
	}
	return db.
		Order(clause.OrderByColumn{Column: clause.Column{Name: SortPublishedAt}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true})
}

// updatableColumns are written by Update; zero values included.
var updatableColumns = []string{"title", "slug", "content", "thumbnail", "published_at", "featured", "updated_at"}

// Update writes the editable columns of a live post. A soft-deleted or
// missing row is reported as not found and never recreated.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	result := r.db.WithContext(ctx).
		Model(post).
		Select(updatableColumns).
		Updates(post)
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "update")
		return result.Error
	}
	cache.Invalidate(ctx, cache.PostKey(post.ID))
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	r.log.LogUpdate(ctx, map[string]any{"id": post.ID, "slug": post.Slug})
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "delete")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	cache.Invalidate(ctx, cache.PostKey(id))
	r.log.LogDelete(ctx, map[string]any{"id": id})
	return nil
}

func (r *postRepository) BulkDelete(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Post{})
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "bulk_delete")
		return 0, result.Error
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, cache.PostKey(id))
	}
	cache.Invalidate(ctx, keys...)
	r.log.LogDelete(ctx, map[string]any{"ids": ids, "deleted": result.RowsAffected})
	return result.RowsAffected, nil
}

func (r *postRepository) TitleExists(ctx context.Context, title string, ignoreID uint) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Post{}).Where("title = ?", title)
	if ignoreID != 0 {
		query = query.Where("id <> ?", ignoreID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *postRepository) Restore(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).
		Unscoped().
		Model(&models.Post{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Update("deleted_at", nil)
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "restore")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Trashed post", id)
	}
	cache.Invalidate(ctx, cache.PostKey(id))
	r.log.LogRestore(ctx, map[string]any{"id": id})
	return nil
}

func (r *postRepository) ListTrashed(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Unscoped().
		Where("deleted_at IS NOT NULL").
		Order("deleted_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}
