package models

import (
	"time"

	"github.com/lib/pq"
)

// User roles.
const (
	RoleResident  = "resident"
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleBusiness  = "business"
)

// User is a registered resident of a neighborhood.
type User struct {
	ID             string         `db:"id" json:"id"`
	FirstName      string         `db:"first_name" json:"firstName"`
	LastName       string         `db:"last_name" json:"lastName"`
	Email          string         `db:"email" json:"email"`
	PasswordHash   string         `db:"password_hash" json:"-"`
	Bio            string         `db:"bio" json:"bio"`
	Avatar         string         `db:"avatar" json:"avatar,omitempty"`
	ZipCode        string         `db:"zip_code" json:"zipCode"`
	NeighborhoodID string         `db:"neighborhood_id" json:"neighborhoodId"`
	Role           string         `db:"role" json:"role"`
	IsVerified     bool           `db:"is_verified" json:"isVerified"`
	Skills         pq.StringArray `db:"skills" json:"skills"`
	LastActive     time.Time      `db:"last_active" json:"lastActive"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
}

// DisplayName is the name shown next to posts and messages.
func (u User) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// CanModerate reports whether the user may act on other people's content.
func (u User) CanModerate() bool {
	return u.Role == RoleAdmin || u.Role == RoleModerator
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Public strips private fields for display to other residents.
func (u User) Public() PublicProfile {
	return PublicProfile{
		ID:         u.ID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Avatar:     u.Avatar,
		Bio:        u.Bio,
		Role:       u.Role,
		IsVerified: u.IsVerified,
		Skills:     u.Skills,
		LastActive: u.LastActive,
		JoinedAt:   u.CreatedAt,
	}
}

// PublicProfile is the neighbor-visible view of a user.
type PublicProfile struct {
	ID         string    `json:"id"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Avatar     string    `json:"avatar,omitempty"`
	Bio        string    `json:"bio,omitempty"`
	Role       string    `json:"role"`
	IsVerified bool      `json:"isVerified"`
	Skills     []string  `json:"skills"`
	LastActive time.Time `json:"lastActive"`
	JoinedAt   time.Time `json:"joinedAt"`
}

// ProfileUpdate carries the user-editable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Bio       *string
	Avatar    *string
	Skills    []string
}

// ActivityStats counts what a user has contributed.
type ActivityStats struct {
	ForumPosts          int       `db:"forum_posts" json:"forumPosts"`
	Comments            int       `db:"comments" json:"comments"`
	MarketplaceListings int       `db:"marketplace_listings" json:"marketplaceListings"`
	SafetyReports       int       `db:"safety_reports" json:"safetyReports"`
	JoinedDate          time.Time `db:"created_at" json:"joinedDate"`
	LastActive          time.Time `db:"last_active" json:"lastActive"`
}

// Neighborhood groups users by zip code.
type Neighborhood struct {
	ID          string         `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	City        string         `db:"city" json:"city"`
	State       string         `db:"state" json:"state"`
	ZipCodes    pq.StringArray `db:"zip_codes" json:"zipCodes"`
	MemberCount int            `db:"member_count" json:"memberCount"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
}
