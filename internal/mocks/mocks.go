package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"neighborhub/internal/models"
)

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Create(ctx context.Context, msg models.Message) (models.Message, error) {
	args := m.Called(ctx, msg)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) ListForParticipant(ctx context.Context, userID string) ([]models.Message, error) {
	args := m.Called(ctx, userID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) FirstInConversation(ctx context.Context, conversationID string) (models.Message, error) {
	args := m.Called(ctx, conversationID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListConversation(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	args := m.Called(ctx, conversationID, limit)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) MarkConversationRead(ctx context.Context, conversationID, recipientID string, at time.Time) (int64, error) {
	args := m.Called(ctx, conversationID, recipientID, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MessageRepositoryMock) CountUnread(ctx context.Context, recipientID string) (int, error) {
	args := m.Called(ctx, recipientID)
	return args.Int(0), args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) Create(ctx context.Context, user models.User) (models.User, error) {
	args := m.Called(ctx, user)
	var out models.User
	if val := args.Get(0); val != nil {
		out = val.(models.User)
	}
	return out, args.Error(1)
}

func (m *UserRepositoryMock) GetByID(ctx context.Context, id string) (models.User, error) {
	args := m.Called(ctx, id)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetByEmail(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetMany(ctx context.Context, ids []string) ([]models.User, error) {
	args := m.Called(ctx, ids)
	var users []models.User
	switch val := args.Get(0).(type) {
	case []models.User:
		users = val
	case func(context.Context, []string) []models.User:
		users = val(ctx, ids)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) ListByNeighborhood(ctx context.Context, neighborhoodID, search string, limit, offset int) ([]models.User, error) {
	args := m.Called(ctx, neighborhoodID, search, limit, offset)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (models.User, error) {
	args := m.Called(ctx, id, upd)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *UserRepositoryMock) TouchLastActive(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *UserRepositoryMock) MarkVerified(ctx context.Context, id string) (models.User, error) {
	args := m.Called(ctx, id)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) SetRole(ctx context.Context, id, role string) (models.User, error) {
	args := m.Called(ctx, id, role)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) ActivityStats(ctx context.Context, id string) (models.ActivityStats, error) {
	args := m.Called(ctx, id)
	var stats models.ActivityStats
	if val := args.Get(0); val != nil {
		stats = val.(models.ActivityStats)
	}
	return stats, args.Error(1)
}

type NeighborhoodRepositoryMock struct {
	mock.Mock
}

func (m *NeighborhoodRepositoryMock) GetByID(ctx context.Context, id string) (models.Neighborhood, error) {
	args := m.Called(ctx, id)
	var n models.Neighborhood
	if val := args.Get(0); val != nil {
		n = val.(models.Neighborhood)
	}
	return n, args.Error(1)
}

func (m *NeighborhoodRepositoryMock) FindByZipCode(ctx context.Context, zipCode string) (models.Neighborhood, error) {
	args := m.Called(ctx, zipCode)
	var n models.Neighborhood
	if val := args.Get(0); val != nil {
		n = val.(models.Neighborhood)
	}
	return n, args.Error(1)
}

type ForumRepositoryMock struct {
	mock.Mock
}

func (m *ForumRepositoryMock) List(ctx context.Context, filter models.ForumFilter) ([]models.ForumPost, error) {
	args := m.Called(ctx, filter)
	var posts []models.ForumPost
	if val := args.Get(0); val != nil {
		posts = val.([]models.ForumPost)
	}
	return posts, args.Error(1)
}

func (m *ForumRepositoryMock) ListAll(ctx context.Context) ([]models.ForumPost, error) {
	args := m.Called(ctx)
	var posts []models.ForumPost
	if val := args.Get(0); val != nil {
		posts = val.([]models.ForumPost)
	}
	return posts, args.Error(1)
}

func (m *ForumRepositoryMock) Get(ctx context.Context, id string) (models.ForumPost, error) {
	args := m.Called(ctx, id)
	var post models.ForumPost
	if val := args.Get(0); val != nil {
		post = val.(models.ForumPost)
	}
	return post, args.Error(1)
}

func (m *ForumRepositoryMock) Create(ctx context.Context, post models.ForumPost) (models.ForumPost, error) {
	args := m.Called(ctx, post)
	var out models.ForumPost
	if val := args.Get(0); val != nil {
		out = val.(models.ForumPost)
	}
	return out, args.Error(1)
}

func (m *ForumRepositoryMock) Update(ctx context.Context, id string, upd models.ForumPostUpdate) (models.ForumPost, error) {
	args := m.Called(ctx, id, upd)
	var out models.ForumPost
	if val := args.Get(0); val != nil {
		out = val.(models.ForumPost)
	}
	return out, args.Error(1)
}

func (m *ForumRepositoryMock) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ForumRepositoryMock) IncrementViews(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ForumRepositoryMock) ToggleLike(ctx context.Context, postID, userID string) (bool, int, error) {
	args := m.Called(ctx, postID, userID)
	return args.Bool(0), args.Int(1), args.Error(2)
}

func (m *ForumRepositoryMock) AddComment(ctx context.Context, comment models.ForumComment) (models.ForumComment, error) {
	args := m.Called(ctx, comment)
	var out models.ForumComment
	if val := args.Get(0); val != nil {
		out = val.(models.ForumComment)
	}
	return out, args.Error(1)
}

func (m *ForumRepositoryMock) ListComments(ctx context.Context, postID string) ([]models.ForumComment, error) {
	args := m.Called(ctx, postID)
	var comments []models.ForumComment
	if val := args.Get(0); val != nil {
		comments = val.([]models.ForumComment)
	}
	return comments, args.Error(1)
}

type MarketplaceRepositoryMock struct {
	mock.Mock
}

func (m *MarketplaceRepositoryMock) List(ctx context.Context, filter models.ListingFilter) ([]models.MarketplaceListing, error) {
	args := m.Called(ctx, filter)
	var listings []models.MarketplaceListing
	if val := args.Get(0); val != nil {
		listings = val.([]models.MarketplaceListing)
	}
	return listings, args.Error(1)
}

func (m *MarketplaceRepositoryMock) Get(ctx context.Context, id string) (models.MarketplaceListing, error) {
	args := m.Called(ctx, id)
	var listing models.MarketplaceListing
	if val := args.Get(0); val != nil {
		listing = val.(models.MarketplaceListing)
	}
	return listing, args.Error(1)
}

func (m *MarketplaceRepositoryMock) Create(ctx context.Context, listing models.MarketplaceListing) (models.MarketplaceListing, error) {
	args := m.Called(ctx, listing)
	var out models.MarketplaceListing
	if val := args.Get(0); val != nil {
		out = val.(models.MarketplaceListing)
	}
	return out, args.Error(1)
}

func (m *MarketplaceRepositoryMock) Update(ctx context.Context, id string, upd models.ListingUpdate) (models.MarketplaceListing, error) {
	args := m.Called(ctx, id, upd)
	var out models.MarketplaceListing
	if val := args.Get(0); val != nil {
		out = val.(models.MarketplaceListing)
	}
	return out, args.Error(1)
}

func (m *MarketplaceRepositoryMock) ToggleFavorite(ctx context.Context, listingID, userID string) (bool, int, error) {
	args := m.Called(ctx, listingID, userID)
	return args.Bool(0), args.Int(1), args.Error(2)
}

func (m *MarketplaceRepositoryMock) Bump(ctx context.Context, id string, notSince time.Time) (bool, error) {
	args := m.Called(ctx, id, notSince)
	return args.Bool(0), args.Error(1)
}

func (m *MarketplaceRepositoryMock) ListBySeller(ctx context.Context, sellerID, status string) ([]models.MarketplaceListing, error) {
	args := m.Called(ctx, sellerID, status)
	var listings []models.MarketplaceListing
	if val := args.Get(0); val != nil {
		listings = val.([]models.MarketplaceListing)
	}
	return listings, args.Error(1)
}

func (m *MarketplaceRepositoryMock) ListFavorites(ctx context.Context, userID string) ([]models.MarketplaceListing, error) {
	args := m.Called(ctx, userID)
	var listings []models.MarketplaceListing
	if val := args.Get(0); val != nil {
		listings = val.([]models.MarketplaceListing)
	}
	return listings, args.Error(1)
}

type SafetyRepositoryMock struct {
	mock.Mock
}

func (m *SafetyRepositoryMock) List(ctx context.Context, filter models.SafetyFilter) ([]models.SafetyReport, error) {
	args := m.Called(ctx, filter)
	var reports []models.SafetyReport
	if val := args.Get(0); val != nil {
		reports = val.([]models.SafetyReport)
	}
	return reports, args.Error(1)
}

func (m *SafetyRepositoryMock) Get(ctx context.Context, id string) (models.SafetyReport, error) {
	args := m.Called(ctx, id)
	var report models.SafetyReport
	if val := args.Get(0); val != nil {
		report = val.(models.SafetyReport)
	}
	return report, args.Error(1)
}

func (m *SafetyRepositoryMock) Create(ctx context.Context, report models.SafetyReport) (models.SafetyReport, error) {
	args := m.Called(ctx, report)
	var out models.SafetyReport
	if val := args.Get(0); val != nil {
		out = val.(models.SafetyReport)
	}
	return out, args.Error(1)
}

func (m *SafetyRepositoryMock) Acknowledge(ctx context.Context, reportID, userID string) (int, error) {
	args := m.Called(ctx, reportID, userID)
	return args.Int(0), args.Error(1)
}

func (m *SafetyRepositoryMock) UpdateStatus(ctx context.Context, id, status string) (models.SafetyReport, error) {
	args := m.Called(ctx, id, status)
	var report models.SafetyReport
	if val := args.Get(0); val != nil {
		report = val.(models.SafetyReport)
	}
	return report, args.Error(1)
}

func (m *SafetyRepositoryMock) Update(ctx context.Context, id string, upd models.SafetyReportUpdate) (models.SafetyReport, error) {
	args := m.Called(ctx, id, upd)
	var report models.SafetyReport
	if val := args.Get(0); val != nil {
		report = val.(models.SafetyReport)
	}
	return report, args.Error(1)
}

func (m *SafetyRepositoryMock) ToggleVerified(ctx context.Context, id, verifierID string) (models.SafetyReport, error) {
	args := m.Called(ctx, id, verifierID)
	var report models.SafetyReport
	if val := args.Get(0); val != nil {
		report = val.(models.SafetyReport)
	}
	return report, args.Error(1)
}

func (m *SafetyRepositoryMock) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *SafetyRepositoryMock) AddComment(ctx context.Context, comment models.SafetyComment) (models.SafetyComment, error) {
	args := m.Called(ctx, comment)
	var out models.SafetyComment
	if val := args.Get(0); val != nil {
		out = val.(models.SafetyComment)
	}
	return out, args.Error(1)
}

func (m *SafetyRepositoryMock) ListComments(ctx context.Context, reportID string) ([]models.SafetyComment, error) {
	args := m.Called(ctx, reportID)
	var comments []models.SafetyComment
	if val := args.Get(0); val != nil {
		comments = val.([]models.SafetyComment)
	}
	return comments, args.Error(1)
}

func (m *SafetyRepositoryMock) Stats(ctx context.Context, neighborhoodID string, since time.Time) (models.SafetyStats, error) {
	args := m.Called(ctx, neighborhoodID, since)
	var stats models.SafetyStats
	if val := args.Get(0); val != nil {
		stats = val.(models.SafetyStats)
	}
	return stats, args.Error(1)
}

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) BroadcastToNeighborhood(neighborhoodID, event string, payload any) int {
	args := m.Called(neighborhoodID, event, payload)
	return args.Int(0)
}

func (m *NotifierMock) SendToUser(userID, event string, payload any) bool {
	args := m.Called(userID, event, payload)
	return args.Bool(0)
}
