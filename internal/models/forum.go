package models

import (
	"time"

	"github.com/lib/pq"
)

// ForumCategories lists the accepted forum post categories.
var ForumCategories = []string{"general", "events", "pets", "recommendations", "lost-found", "announcements", "questions", "services"}

// ForumPost is a discussion thread scoped to one neighborhood.
type ForumPost struct {
	ID             string         `db:"id" json:"id"`
	Title          string         `db:"title" json:"title"`
	Content        string         `db:"content" json:"content"`
	Category       string         `db:"category" json:"category"`
	Tags           pq.StringArray `db:"tags" json:"tags"`
	Images         pq.StringArray `db:"images" json:"images"`
	AuthorID       string         `db:"author_id" json:"authorId"`
	AuthorName     string         `db:"author_name" json:"authorName"`
	NeighborhoodID string         `db:"neighborhood_id" json:"neighborhoodId"`
	LikeCount      int            `db:"like_count" json:"likeCount"`
	CommentCount   int            `db:"comment_count" json:"commentCount"`
	Views          int            `db:"views" json:"views"`
	IsSticky       bool           `db:"is_sticky" json:"isSticky"`
	IsSolved       bool           `db:"is_solved" json:"isSolved"`
	LastActivity   time.Time      `db:"last_activity" json:"lastActivity"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updatedAt"`
}

// ForumComment is a reply on a forum post.
type ForumComment struct {
	ID         string    `db:"id" json:"id"`
	PostID     string    `db:"post_id" json:"postId"`
	AuthorID   string    `db:"author_id" json:"authorId"`
	AuthorName string    `db:"author_name" json:"authorName"`
	Content    string    `db:"content" json:"content"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// ForumFilter narrows a forum listing. IDs, when set, restricts the result
// to those posts (used by text search).
type ForumFilter struct {
	NeighborhoodID string
	Category       string
	Tag            string
	IDs            []string
	SortBy         string
	Limit          int
	Offset         int
}

// ForumPostUpdate carries editable post fields. Nil means unchanged.
type ForumPostUpdate struct {
	Title    *string
	Content  *string
	Category *string
	Tags     []string
	IsSolved *bool
}
