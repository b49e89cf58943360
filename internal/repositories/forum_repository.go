package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"neighborhub/internal/apperr"
	"neighborhub/internal/models"
)

var ErrPostNotFound = fmt.Errorf("post %w", apperr.ErrNotFound)

// ForumRepository abstracts forum persistence.
type ForumRepository interface {
	List(ctx context.Context, filter models.ForumFilter) ([]models.ForumPost, error)
	ListAll(ctx context.Context) ([]models.ForumPost, error)
	Get(ctx context.Context, id string) (models.ForumPost, error)
	Create(ctx context.Context, post models.ForumPost) (models.ForumPost, error)
	Update(ctx context.Context, id string, upd models.ForumPostUpdate) (models.ForumPost, error)
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, postID, userID string) (bool, int, error)
	AddComment(ctx context.Context, comment models.ForumComment) (models.ForumComment, error)
	ListComments(ctx context.Context, postID string) ([]models.ForumComment, error)
}

// ForumRepo is a sqlx implementation of ForumRepository.
type ForumRepo struct {
	db *sqlx.DB
}

// NewForumRepo constructs a ForumRepo.
func NewForumRepo(db *sqlx.DB) *ForumRepo {
	return &ForumRepo{db: db}
}

const forumSelect = `SELECT p.id, p.title, p.content, p.category, p.tags, p.images, p.author_id,
        u.first_name || ' ' || u.last_name AS author_name,
        p.neighborhood_id, p.like_count, p.comment_count, p.views, p.is_sticky, p.is_solved,
        p.last_activity, p.created_at, p.updated_at
    FROM forum_posts p JOIN users u ON u.id = p.author_id`

var forumSort = map[string]string{
	"newest":       "p.created_at DESC",
	"oldest":       "p.created_at ASC",
	"mostLiked":    "p.like_count DESC, p.created_at DESC",
	"mostViewed":   "p.views DESC, p.created_at DESC",
	"lastActivity": "p.last_activity DESC",
}

// List returns posts of one neighborhood, sticky posts first.
func (r *ForumRepo) List(ctx context.Context, filter models.ForumFilter) ([]models.ForumPost, error) {
	query := forumSelect + ` WHERE p.neighborhood_id=$1`
	args := []any{filter.NeighborhoodID}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(` AND p.category=$%d`, len(args))
	}
	if filter.Tag != "" {
		args = append(args, filter.Tag)
		query += fmt.Sprintf(` AND $%d = ANY(p.tags)`, len(args))
	}
	if filter.IDs != nil {
		args = append(args, pq.Array(filter.IDs))
		query += fmt.Sprintf(` AND p.id = ANY($%d::uuid[])`, len(args))
	}
	order, ok := forumSort[filter.SortBy]
	if !ok {
		order = forumSort["lastActivity"]
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(` ORDER BY p.is_sticky DESC, %s LIMIT $%d OFFSET $%d`, order, len(args)-1, len(args))

	var posts []models.ForumPost
	err := r.db.SelectContext(ctx, &posts, query, args...)
	return posts, err
}

// ListAll returns every post; used to rebuild the search index.
func (r *ForumRepo) ListAll(ctx context.Context) ([]models.ForumPost, error) {
	var posts []models.ForumPost
	err := r.db.SelectContext(ctx, &posts, forumSelect)
	return posts, err
}

// Get fetches a post by id.
func (r *ForumRepo) Get(ctx context.Context, id string) (models.ForumPost, error) {
	var post models.ForumPost
	err := r.db.GetContext(ctx, &post, forumSelect+` WHERE p.id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ForumPost{}, ErrPostNotFound
	}
	return post, err
}

// Create stores a post and returns it with the author name resolved.
func (r *ForumRepo) Create(ctx context.Context, post models.ForumPost) (models.ForumPost, error) {
	if post.Tags == nil {
		post.Tags = pq.StringArray{}
	}
	if post.Images == nil {
		post.Images = pq.StringArray{}
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO forum_posts (id, title, content, category, tags, images, author_id, neighborhood_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		post.ID, post.Title, post.Content, post.Category, post.Tags, post.Images, post.AuthorID, post.NeighborhoodID)
	if err != nil {
		return models.ForumPost{}, err
	}
	return r.Get(ctx, post.ID)
}

// Update applies the non-nil fields of upd.
func (r *ForumRepo) Update(ctx context.Context, id string, upd models.ForumPostUpdate) (models.ForumPost, error) {
	var tags any
	if upd.Tags != nil {
		tags = pq.StringArray(upd.Tags)
	}
	res, err := r.db.ExecContext(ctx, `UPDATE forum_posts SET
            title = COALESCE($2, title),
            content = COALESCE($3, content),
            category = COALESCE($4, category),
            tags = COALESCE($5, tags),
            is_solved = COALESCE($6, is_solved),
            updated_at = NOW(),
            last_activity = NOW()
        WHERE id=$1`, id, upd.Title, upd.Content, upd.Category, tags, upd.IsSolved)
	if err != nil {
		return models.ForumPost{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ForumPost{}, ErrPostNotFound
	}
	return r.Get(ctx, id)
}

// Delete removes a post with its likes and comments.
func (r *ForumRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM forum_posts WHERE id=$1`, id)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrPostNotFound
	}
	return nil
}

// IncrementViews bumps the view counter.
func (r *ForumRepo) IncrementViews(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE forum_posts SET views = views + 1 WHERE id=$1`, id)
	return err
}

// ToggleLike likes the post for the user, or removes an existing like.
// It returns whether the post is now liked and the new like count.
func (r *ForumRepo) ToggleLike(ctx context.Context, postID, userID string) (bool, int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM forum_likes WHERE post_id=$1 AND user_id=$2`, postID, userID)
	if err != nil {
		return false, 0, err
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return false, 0, err
	}

	liked := removed == 0
	delta := -1
	if liked {
		if _, err := tx.ExecContext(ctx, `INSERT INTO forum_likes (post_id, user_id) VALUES ($1, $2)`, postID, userID); err != nil {
			return false, 0, err
		}
		delta = 1
	}

	var count int
	err = tx.QueryRowxContext(ctx, `UPDATE forum_posts SET like_count = like_count + $2, last_activity = NOW()
        WHERE id=$1 RETURNING like_count`, postID, delta).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return false, 0, ErrPostNotFound
	}
	if err != nil {
		return false, 0, err
	}
	return liked, count, tx.Commit()
}

// AddComment stores a comment and bumps the post's activity.
func (r *ForumRepo) AddComment(ctx context.Context, comment models.ForumComment) (models.ForumComment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.ForumComment{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE forum_posts SET comment_count = comment_count + 1, last_activity = NOW() WHERE id=$1`, comment.PostID)
	if err != nil {
		return models.ForumComment{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ForumComment{}, ErrPostNotFound
	}

	if err := tx.QueryRowxContext(ctx, `INSERT INTO forum_comments (id, post_id, author_id, content) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		comment.ID, comment.PostID, comment.AuthorID, comment.Content).Scan(&comment.CreatedAt); err != nil {
		return models.ForumComment{}, err
	}
	return comment, tx.Commit()
}

// ListComments returns a post's comments, oldest first.
func (r *ForumRepo) ListComments(ctx context.Context, postID string) ([]models.ForumComment, error) {
	var comments []models.ForumComment
	err := r.db.SelectContext(ctx, &comments, `SELECT c.id, c.post_id, c.author_id,
            u.first_name || ' ' || u.last_name AS author_name, c.content, c.created_at
        FROM forum_comments c JOIN users u ON u.id = c.author_id
        WHERE c.post_id=$1 ORDER BY c.created_at ASC`, postID)
	return comments, err
}
