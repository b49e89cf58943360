package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"neighborhub/internal/mocks"
	"neighborhub/internal/models"
	"neighborhub/internal/repositories"
	"neighborhub/internal/search"
)

type forumFixture struct {
	posts    *mocks.ForumRepositoryMock
	users    *mocks.UserRepositoryMock
	notifier *mocks.NotifierMock
	index    *search.ForumIndex
	router   *gin.Engine
}

func setupForumRouter(t *testing.T) forumFixture {
	t.Helper()
	index, err := search.NewForumIndex()
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	f := forumFixture{
		posts:    new(mocks.ForumRepositoryMock),
		users:    new(mocks.UserRepositoryMock),
		notifier: new(mocks.NotifierMock),
		index:    index,
	}
	handler := NewForumHandler(f.posts, f.users, index, f.notifier, nil)

	f.router = newTestEngine(testUserID, testNeighborhoodID)
	f.router.GET("/api/forum/posts", handler.ListPosts)
	f.router.GET("/api/forum/posts/:id", handler.GetPost)
	f.router.POST("/api/forum/posts", handler.CreatePost)
	f.router.PUT("/api/forum/posts/:id", handler.UpdatePost)
	f.router.POST("/api/forum/posts/:id/like", handler.ToggleLike)
	f.router.POST("/api/forum/posts/:id/comments", handler.AddComment)
	f.router.DELETE("/api/forum/posts/:id", handler.DeletePost)
	return f
}

func TestCreatePostBroadcastsToAuthorNeighborhood(t *testing.T) {
	f := setupForumRouter(t)
	created := models.ForumPost{ID: testResourceID, Title: "Lost dog", Content: "Brown lab", Category: "pets", AuthorID: testUserID, NeighborhoodID: testNeighborhoodID}

	f.posts.On("Create", mock.Anything, mock.MatchedBy(func(p models.ForumPost) bool {
		return p.AuthorID == testUserID && p.NeighborhoodID == testNeighborhoodID && p.Title == "Lost dog" && len(p.Tags) == 1 && p.Tags[0] == "dogs"
	})).Return(created, nil).Once()
	f.notifier.On("BroadcastToNeighborhood", testNeighborhoodID, models.EventNewForumMessage, created).Return(2).Once()

	rec := perform(f.router, http.MethodPost, "/api/forum/posts", `{"title":" Lost dog ","content":"Brown lab","category":"pets","tags":["Dogs","dogs "]}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	f.posts.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
	f.notifier.AssertNotCalled(t, "BroadcastToNeighborhood", testOtherHoodID, mock.Anything, mock.Anything)

	ids, err := f.index.Search(context.Background(), testNeighborhoodID, "lab", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{testResourceID}, ids)
}

func TestCreatePostInvalidCategory(t *testing.T) {
	f := setupForumRouter(t)

	rec := perform(f.router, http.MethodPost, "/api/forum/posts", `{"title":"Hi","content":"There","category":"gossip"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	f.posts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestListPostsSearchScopedToNeighborhood(t *testing.T) {
	f := setupForumRouter(t)
	mine := models.ForumPost{ID: testResourceID, NeighborhoodID: testNeighborhoodID, Title: "Garage sale saturday"}
	require.NoError(t, f.index.Rebuild([]models.ForumPost{
		mine,
		{ID: "c0ffee00-1234-4abc-9def-000000000002", NeighborhoodID: testOtherHoodID, Title: "Garage sale sunday"},
	}))

	f.posts.On("List", mock.Anything, mock.MatchedBy(func(filter models.ForumFilter) bool {
		return filter.NeighborhoodID == testNeighborhoodID && len(filter.IDs) == 1 && filter.IDs[0] == testResourceID
	})).Return([]models.ForumPost{mine}, nil).Once()

	rec := perform(f.router, http.MethodGet, "/api/forum/posts?search=garage", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []models.ForumPost
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp, 1)
	assert.Equal(t, testResourceID, resp[0].ID)
	f.posts.AssertExpectations(t)
}

func TestListPostsSearchWithoutMatches(t *testing.T) {
	f := setupForumRouter(t)

	rec := perform(f.router, http.MethodGet, "/api/forum/posts?search=nothing", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	f.posts.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestListPostsPaging(t *testing.T) {
	f := setupForumRouter(t)

	f.posts.On("List", mock.Anything, models.ForumFilter{NeighborhoodID: testNeighborhoodID, Category: "events", Limit: 100, Offset: 100}).
		Return(nil, nil).Once()

	rec := perform(f.router, http.MethodGet, "/api/forum/posts?category=events&page=2&limit=500", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	f.posts.AssertExpectations(t)
}

func TestGetPostCountsView(t *testing.T) {
	f := setupForumRouter(t)

	f.posts.On("Get", mock.Anything, testResourceID).Return(models.ForumPost{ID: testResourceID, NeighborhoodID: testNeighborhoodID, Views: 4}, nil).Once()
	f.posts.On("IncrementViews", mock.Anything, testResourceID).Return(nil).Once()
	f.posts.On("ListComments", mock.Anything, testResourceID).Return([]models.ForumComment{{ID: "c1", Content: "nice"}}, nil).Once()

	rec := perform(f.router, http.MethodGet, "/api/forum/posts/"+testResourceID, "")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeMap(t, rec)
	post := resp["post"].(map[string]any)
	assert.Equal(t, float64(5), post["views"])
	assert.Len(t, resp["comments"], 1)
}

func TestGetPostOtherNeighborhoodNotFound(t *testing.T) {
	f := setupForumRouter(t)

	f.posts.On("Get", mock.Anything, testResourceID).Return(models.ForumPost{ID: testResourceID, NeighborhoodID: testOtherHoodID}, nil).Once()

	rec := perform(f.router, http.MethodGet, "/api/forum/posts/"+testResourceID, "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	f.posts.AssertNotCalled(t, "IncrementViews", mock.Anything, mock.Anything)
}

func TestGetPostInvalidID(t *testing.T) {
	f := setupForumRouter(t)

	rec := perform(f.router, http.MethodGet, "/api/forum/posts/not-a-uuid", "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdatePostRequiresAuthor(t *testing.T) {
	f := setupForumRouter(t)

	f.posts.On("Get", mock.Anything, testResourceID).Return(models.ForumPost{ID: testResourceID, AuthorID: testOtherUserID, NeighborhoodID: testNeighborhoodID}, nil).Once()

	rec := perform(f.router, http.MethodPut, "/api/forum/posts/"+testResourceID, `{"title":"Mine now"}`)

	require.Equal(t, http.StatusForbidden, rec.Code)
	f.posts.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestToggleLike(t *testing.T) {
	f := setupForumRouter(t)

	f.posts.On("Get", mock.Anything, testResourceID).Return(models.ForumPost{ID: testResourceID, NeighborhoodID: testNeighborhoodID}, nil).Once()
	f.posts.On("ToggleLike", mock.Anything, testResourceID, testUserID).Return(true, 3, nil).Once()

	rec := perform(f.router, http.MethodPost, "/api/forum/posts/"+testResourceID+"/like", "")

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeMap(t, rec)
	assert.Equal(t, true, resp["liked"])
	assert.Equal(t, float64(3), resp["likeCount"])
}

func TestAddComment(t *testing.T) {
	f := setupForumRouter(t)

	f.posts.On("Get", mock.Anything, testResourceID).Return(models.ForumPost{ID: testResourceID, NeighborhoodID: testNeighborhoodID}, nil).Once()
	f.posts.On("AddComment", mock.Anything, mock.MatchedBy(func(cm models.ForumComment) bool {
		return cm.PostID == testResourceID && cm.AuthorID == testUserID && cm.Content == "Welcome"
	})).Return(models.ForumComment{ID: "c1", Content: "Welcome"}, nil).Once()

	rec := perform(f.router, http.MethodPost, "/api/forum/posts/"+testResourceID+"/comments", `{"content":" Welcome "}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	f.posts.AssertExpectations(t)
}

func TestDeletePostByModerator(t *testing.T) {
	f := setupForumRouter(t)
	require.NoError(t, f.index.Index(models.ForumPost{ID: testResourceID, NeighborhoodID: testNeighborhoodID, Title: "spam spam"}))

	f.posts.On("Get", mock.Anything, testResourceID).Return(models.ForumPost{ID: testResourceID, AuthorID: testOtherUserID, NeighborhoodID: testNeighborhoodID}, nil).Once()
	f.users.On("GetByID", mock.Anything, testUserID).Return(models.User{ID: testUserID, Role: models.RoleModerator}, nil).Once()
	f.posts.On("Delete", mock.Anything, testResourceID).Return(nil).Once()

	rec := perform(f.router, http.MethodDelete, "/api/forum/posts/"+testResourceID, "")

	require.Equal(t, http.StatusOK, rec.Code)
	ids, err := f.index.Search(context.Background(), testNeighborhoodID, "spam", 10)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDeletePostByStranger(t *testing.T) {
	f := setupForumRouter(t)

	f.posts.On("Get", mock.Anything, testResourceID).Return(models.ForumPost{ID: testResourceID, AuthorID: testOtherUserID, NeighborhoodID: testNeighborhoodID}, nil).Once()
	f.users.On("GetByID", mock.Anything, testUserID).Return(models.User{ID: testUserID, Role: models.RoleResident}, nil).Once()

	rec := perform(f.router, http.MethodDelete, "/api/forum/posts/"+testResourceID, "")

	require.Equal(t, http.StatusForbidden, rec.Code)
	f.posts.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeletePostMissing(t *testing.T) {
	f := setupForumRouter(t)

	f.posts.On("Get", mock.Anything, testResourceID).Return(nil, repositories.ErrPostNotFound).Once()

	rec := perform(f.router, http.MethodDelete, "/api/forum/posts/"+testResourceID, "")

	require.Equal(t, http.StatusNotFound, rec.Code)
}
