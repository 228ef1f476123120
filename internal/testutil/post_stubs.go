// Package testutil provides shared test doubles and fixtures for tests.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"blogadmin/internal/models"
	"blogadmin/internal/repository"

	"gorm.io/gorm"
)

// PostRepoStub is an in-memory post repository implementation for tests.
// It keeps soft-deleted rows so Restore and ListTrashed behave like the real thing.
type PostRepoStub struct {
	mu     sync.Mutex
	items  map[uint]*models.Post
	nextID uint

	// CreateErr, when set, is returned by Create instead of storing the post.
	CreateErr error
}

// NewPostRepoStub creates an in-memory post repository stub for tests.
func NewPostRepoStub() *PostRepoStub {
	return &PostRepoStub{items: make(map[uint]*models.Post), nextID: 1}
}

var _ repository.PostRepository = (*PostRepoStub)(nil)

func clonePost(p *models.Post) *models.Post {
	c := *p
	return &c
}

// Create stores a post in-memory.
func (s *PostRepoStub) Create(_ context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	if post.ID == 0 {
		post.ID = s.nextID
		s.nextID++
	}
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now
	s.items[post.ID] = clonePost(post)
	return nil
}

// GetByID fetches a live post.
func (s *PostRepoStub) GetByID(_ context.Context, id uint) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok || item.DeletedAt.Valid {
		return nil, models.NewNotFoundError("Post", id)
	}
	return clonePost(item), nil
}

// List filters, sorts and pages live posts the way the SQL repository does.
func (s *PostRepoStub) List(_ context.Context, q repository.ListQuery) ([]*models.Post, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(q.Search))
	var matched []*models.Post
	for _, item := range s.items {
		if item.DeletedAt.Valid {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(item.Title), search) {
			continue
		}
		matched = append(matched, clonePost(item))
	}

	asc := q.Sort == repository.SortPublishedAt && strings.EqualFold(q.Direction, repository.DirectionAsc)
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := publishedUnix(matched[i]), publishedUnix(matched[j])
		if a != b {
			if asc {
				return a < b
			}
			return a > b
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	start := q.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}
	return matched[start:end], total, nil
}

func publishedUnix(p *models.Post) int64 {
	if p.PublishedAt == nil {
		return 0
	}
	return p.PublishedAt.UnixNano()
}

// Update replaces a stored post.
func (s *PostRepoStub) Update(_ context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[post.ID]; !ok {
		return models.NewNotFoundError("Post", post.ID)
	}
	post.UpdatedAt = time.Now().UTC()
	s.items[post.ID] = clonePost(post)
	return nil
}

// Delete soft-deletes a post.
func (s *PostRepoStub) Delete(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok || item.DeletedAt.Valid {
		return models.NewNotFoundError("Post", id)
	}
	item.DeletedAt = gorm.DeletedAt{Time: time.Now().UTC(), Valid: true}
	return nil
}

// BulkDelete soft-deletes every live post in ids.
func (s *PostRepoStub) BulkDelete(_ context.Context, ids []uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, id := range ids {
		item, ok := s.items[id]
		if !ok || item.DeletedAt.Valid {
			continue
		}
		item.DeletedAt = gorm.DeletedAt{Time: time.Now().UTC(), Valid: true}
		n++
	}
	return n, nil
}

// TitleExists reports whether a live post other than ignoreID has title.
func (s *PostRepoStub) TitleExists(_ context.Context, title string, ignoreID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.DeletedAt.Valid || item.ID == ignoreID {
			continue
		}
		if item.Title == title {
			return true, nil
		}
	}
	return false, nil
}

// Restore clears the soft delete of a trashed post.
func (s *PostRepoStub) Restore(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok || !item.DeletedAt.Valid {
		return models.NewNotFoundError("Trashed post", id)
	}
	item.DeletedAt = gorm.DeletedAt{}
	return nil
}

// ListTrashed returns soft-deleted posts, most recently deleted first.
func (s *PostRepoStub) ListTrashed(_ context.Context, limit, offset int) ([]*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var trashed []*models.Post
	for _, item := range s.items {
		if item.DeletedAt.Valid {
			trashed = append(trashed, clonePost(item))
		}
	}
	sort.Slice(trashed, func(i, j int) bool {
		if !trashed[i].DeletedAt.Time.Equal(trashed[j].DeletedAt.Time) {
			return trashed[i].DeletedAt.Time.After(trashed[j].DeletedAt.Time)
		}
		return trashed[i].ID > trashed[j].ID
	})
	if offset > len(trashed) {
		offset = len(trashed)
	}
	end := len(trashed)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return trashed[offset:end], nil
}

// Count returns the number of stored posts including trashed ones.
func (s *PostRepoStub) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
