package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"neighborhub/internal/apperr"
	"neighborhub/internal/models"
	"neighborhub/internal/repositories"
	"neighborhub/internal/services"
	"neighborhub/internal/telemetry"
)

// ForumSearcher resolves free text to forum post ids.
type ForumSearcher interface {
	Index(post models.ForumPost) error
	Remove(id string) error
	Search(ctx context.Context, neighborhoodID, text string, limit int) ([]string, error)
}

// ForumHandler serves forum posts, likes and comments.
type ForumHandler struct {
	auditor
	posts    repositories.ForumRepository
	users    repositories.UserRepository
	search   ForumSearcher
	notifier services.Notifier
}

// NewForumHandler constructs a ForumHandler. search may be nil, in which case
// the search parameter is ignored.
func NewForumHandler(posts repositories.ForumRepository, users repositories.UserRepository, search ForumSearcher, notifier services.Notifier, audit *telemetry.AuditEmitter) *ForumHandler {
	return &ForumHandler{
		auditor:  auditor{audit: audit},
		posts:    posts,
		users:    users,
		search:   search,
		notifier: notifier,
	}
}

// ListPosts handles GET /api/forum/posts.
func (h *ForumHandler) ListPosts(c *gin.Context) {
	limit, offset := parsePage(c)
	filter := models.ForumFilter{
		NeighborhoodID: neighborhoodIDFromContext(c),
		Category:       c.Query("category"),
		Tag:            strings.ToLower(c.Query("tag")),
		SortBy:         c.Query("sortBy"),
		Limit:          limit,
		Offset:         offset,
	}

	if text := strings.TrimSpace(c.Query("search")); text != "" && h.search != nil {
		ids, err := h.search.Search(c.Request.Context(), filter.NeighborhoodID, text, offset+limit)
		if err != nil {
			respondError(c, "search forum", err)
			return
		}
		if len(ids) == 0 {
			c.JSON(http.StatusOK, []models.ForumPost{})
			return
		}
		filter.IDs = ids
	}

	posts, err := h.posts.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, "list forum posts", err)
		return
	}
	if posts == nil {
		posts = []models.ForumPost{}
	}
	c.JSON(http.StatusOK, posts)
}

// GetPost handles GET /api/forum/posts/:id and counts a view.
func (h *ForumHandler) GetPost(c *gin.Context) {
	post, ok := h.loadPost(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.posts.IncrementViews(ctx, post.ID); err != nil {
		respondError(c, "increment views", err)
		return
	}
	post.Views++

	comments, err := h.posts.ListComments(ctx, post.ID)
	if err != nil {
		respondError(c, "list comments", err)
		return
	}
	if comments == nil {
		comments = []models.ForumComment{}
	}
	c.JSON(http.StatusOK, gin.H{"post": post, "comments": comments})
}

// CreatePost handles POST /api/forum/posts and notifies the neighborhood.
func (h *ForumHandler) CreatePost(c *gin.Context) {
	var req struct {
		Title    string   `json:"title" binding:"notblank,max=200"`
		Content  string   `json:"content" binding:"notblank,max=5000"`
		Category string   `json:"category" binding:"required,oneof=general events pets recommendations lost-found announcements questions services"`
		Tags     []string `json:"tags" binding:"omitempty,max=10,dive,max=30"`
		Images   []string `json:"images" binding:"omitempty,max=5"`
	}
	if !bindJSON(c, &req) {
		return
	}

	nid := neighborhoodIDFromContext(c)
	post, err := h.posts.Create(c.Request.Context(), models.ForumPost{
		ID:             uuid.NewString(),
		Title:          strings.TrimSpace(req.Title),
		Content:        strings.TrimSpace(req.Content),
		Category:       req.Category,
		Tags:           pq.StringArray(normalizeTags(req.Tags)),
		Images:         pq.StringArray(req.Images),
		AuthorID:       userIDFromContext(c),
		NeighborhoodID: nid,
	})
	if err != nil {
		respondError(c, "create forum post", err)
		return
	}

	h.index(post)
	if h.notifier != nil {
		h.notifier.BroadcastToNeighborhood(nid, models.EventNewForumMessage, post)
	}
	h.emitAudit(c, "INFO", "forum.create_post", post.ID)
	c.JSON(http.StatusCreated, post)
}

// UpdatePost handles PUT /api/forum/posts/:id. Only the author may edit.
func (h *ForumHandler) UpdatePost(c *gin.Context) {
	var req struct {
		Title    *string  `json:"title" binding:"omitempty,notblank,max=200"`
		Content  *string  `json:"content" binding:"omitempty,notblank,max=5000"`
		Category *string  `json:"category" binding:"omitempty,oneof=general events pets recommendations lost-found announcements questions services"`
		Tags     []string `json:"tags" binding:"omitempty,max=10,dive,max=30"`
		IsSolved *bool    `json:"isSolved"`
	}
	if !bindJSON(c, &req) {
		return
	}

	post, ok := h.loadPost(c)
	if !ok {
		return
	}
	if post.AuthorID != userIDFromContext(c) {
		respondError(c, "update forum post", apperr.AccessDenied("only the author can edit this post"))
		return
	}

	upd := models.ForumPostUpdate{
		Title:    trimPtr(req.Title),
		Content:  trimPtr(req.Content),
		Category: req.Category,
		IsSolved: req.IsSolved,
	}
	if req.Tags != nil {
		upd.Tags = normalizeTags(req.Tags)
	}
	updated, err := h.posts.Update(c.Request.Context(), post.ID, upd)
	if err != nil {
		respondError(c, "update forum post", err)
		return
	}

	h.index(updated)
	h.emitAudit(c, "INFO", "forum.update_post", updated.ID)
	c.JSON(http.StatusOK, updated)
}

// ToggleLike handles POST /api/forum/posts/:id/like.
func (h *ForumHandler) ToggleLike(c *gin.Context) {
	post, ok := h.loadPost(c)
	if !ok {
		return
	}
	liked, count, err := h.posts.ToggleLike(c.Request.Context(), post.ID, userIDFromContext(c))
	if err != nil {
		respondError(c, "toggle like", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked, "likeCount": count})
}

// AddComment handles POST /api/forum/posts/:id/comments.
func (h *ForumHandler) AddComment(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"notblank,max=1000"`
	}
	if !bindJSON(c, &req) {
		return
	}

	post, ok := h.loadPost(c)
	if !ok {
		return
	}
	comment, err := h.posts.AddComment(c.Request.Context(), models.ForumComment{
		ID:       uuid.NewString(),
		PostID:   post.ID,
		AuthorID: userIDFromContext(c),
		Content:  strings.TrimSpace(req.Content),
	})
	if err != nil {
		respondError(c, "add comment", err)
		return
	}

	h.emitAudit(c, "INFO", "forum.add_comment", comment.ID)
	c.JSON(http.StatusCreated, comment)
}

// DeletePost handles DELETE /api/forum/posts/:id. Authors and moderators may delete.
func (h *ForumHandler) DeletePost(c *gin.Context) {
	post, ok := h.loadPost(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	caller := userIDFromContext(c)
	if post.AuthorID != caller {
		user, err := h.users.GetByID(ctx, caller)
		if err != nil {
			respondError(c, "load caller", err)
			return
		}
		if !user.CanModerate() {
			respondError(c, "delete forum post", apperr.AccessDenied("not allowed to delete this post"))
			return
		}
	}

	if err := h.posts.Delete(ctx, post.ID); err != nil {
		respondError(c, "delete forum post", err)
		return
	}
	if h.search != nil {
		if err := h.search.Remove(post.ID); err != nil {
			log.Printf("forum index remove failed: post_id=%s err=%v", post.ID, err)
		}
	}

	h.emitAudit(c, "INFO", "forum.delete_post", post.ID)
	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

// loadPost fetches the :id post, hiding posts of other neighborhoods.
func (h *ForumHandler) loadPost(c *gin.Context) (models.ForumPost, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return models.ForumPost{}, false
	}
	post, err := h.posts.Get(c.Request.Context(), id)
	if err == nil && post.NeighborhoodID != neighborhoodIDFromContext(c) {
		err = repositories.ErrPostNotFound
	}
	if err != nil {
		respondError(c, "get forum post", err)
		return models.ForumPost{}, false
	}
	return post, true
}

func (h *ForumHandler) index(post models.ForumPost) {
	if h.search == nil {
		return
	}
	if err := h.search.Index(post); err != nil {
		log.Printf("forum index update failed: post_id=%s err=%v", post.ID, err)
	}
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]struct{}{}
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
