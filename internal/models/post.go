// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is a blog entry managed from the admin panel.
type Post struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"type:varchar(255);not null;index:idx_posts_title_live,unique,where:deleted_at IS NULL" json:"title"`
	Slug        string         `gorm:"type:varchar(255);not null;index" json:"slug"`
	Content     string         `gorm:"type:text;not null" json:"content"`
	Thumbnail   string         `gorm:"type:varchar(255);not null" json:"thumbnail"`
	PublishedAt *time.Time     `gorm:"index" json:"published_at"`
	Featured    bool           `gorm:"not null;default:false" json:"featured"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName pins the table name independently of struct renames.
func (Post) TableName() string {
	return "posts"
}

// IsPublished reports whether the post is visible at the given instant.
func (p *Post) IsPublished(now time.Time) bool {
	return p.PublishedAt != nil && !p.PublishedAt.After(now)
}
