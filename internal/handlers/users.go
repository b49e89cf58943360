package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"neighborhub/internal/apperr"
	"neighborhub/internal/models"
	"neighborhub/internal/repositories"
	"neighborhub/internal/telemetry"
)

const maxSkills = 20

// PresenceReader exposes who is connected right now.
type PresenceReader interface {
	OnlineUsers() []string
	IsOnline(userID string) bool
}

// UserHandler serves profile and neighbor endpoints.
type UserHandler struct {
	auditor
	users    repositories.UserRepository
	presence PresenceReader
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(users repositories.UserRepository, presence PresenceReader, audit *telemetry.AuditEmitter) *UserHandler {
	return &UserHandler{auditor: auditor{audit: audit}, users: users, presence: presence}
}

type neighborResponse struct {
	models.PublicProfile
	IsOnline bool `json:"isOnline"`
}

// GetProfile handles GET /api/users/profile.
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), userIDFromContext(c))
	if err != nil {
		respondError(c, "get profile", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfile handles PUT /api/users/profile.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req struct {
		FirstName *string  `json:"firstName" binding:"omitempty,notblank,max=50"`
		LastName  *string  `json:"lastName" binding:"omitempty,notblank,max=50"`
		Bio       *string  `json:"bio" binding:"omitempty,max=500"`
		Avatar    *string  `json:"avatar" binding:"omitempty,max=500"`
		Skills    []string `json:"skills" binding:"omitempty,max=20,dive,max=50"`
	}
	if !bindJSON(c, &req) {
		return
	}

	upd := models.ProfileUpdate{
		FirstName: trimPtr(req.FirstName),
		LastName:  trimPtr(req.LastName),
		Bio:       req.Bio,
		Avatar:    req.Avatar,
	}
	if req.Skills != nil {
		upd.Skills = lo.Uniq(lo.FilterMap(req.Skills, func(s string, _ int) (string, bool) {
			s = strings.TrimSpace(s)
			return s, s != ""
		}))
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), userIDFromContext(c), upd)
	if err != nil {
		respondError(c, "update profile", err)
		return
	}

	h.emitAudit(c, "INFO", "user.update_profile", user.ID)
	c.JSON(http.StatusOK, user)
}

// ListNeighbors handles GET /api/users/neighbors.
func (h *UserHandler) ListNeighbors(c *gin.Context) {
	limit, offset := parsePage(c)
	users, err := h.users.ListByNeighborhood(c.Request.Context(), neighborhoodIDFromContext(c), strings.TrimSpace(c.Query("search")), limit, offset)
	if err != nil {
		respondError(c, "list neighbors", err)
		return
	}

	self := userIDFromContext(c)
	resp := lo.FilterMap(users, func(u models.User, _ int) (neighborResponse, bool) {
		return h.neighbor(u), u.ID != self
	})
	c.JSON(http.StatusOK, resp)
}

// GetNeighbor handles GET /api/users/neighbors/:id. Users of other
// neighborhoods are reported as not found.
func (h *UserHandler) GetNeighbor(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), id)
	if err == nil && user.NeighborhoodID != neighborhoodIDFromContext(c) {
		err = repositories.ErrUserNotFound
	}
	if err != nil {
		respondError(c, "get neighbor", err)
		return
	}
	c.JSON(http.StatusOK, h.neighbor(user))
}

// ListOnline handles GET /api/users/online.
func (h *UserHandler) ListOnline(c *gin.Context) {
	ids := h.presence.OnlineUsers()
	if len(ids) == 0 {
		c.JSON(http.StatusOK, []models.PublicProfile{})
		return
	}

	users, err := h.users.GetMany(c.Request.Context(), ids)
	if err != nil {
		respondError(c, "list online users", err)
		return
	}

	nid := neighborhoodIDFromContext(c)
	resp := lo.FilterMap(users, func(u models.User, _ int) (models.PublicProfile, bool) {
		return u.Public(), u.NeighborhoodID == nid
	})
	c.JSON(http.StatusOK, resp)
}

// AddSkill handles POST /api/users/add-skill. Skills are stored lower-cased.
func (h *UserHandler) AddSkill(c *gin.Context) {
	var req struct {
		Skill string `json:"skill" binding:"notblank,max=50"`
	}
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.GetByID(ctx, userIDFromContext(c))
	if err != nil {
		respondError(c, "add skill", err)
		return
	}
	skill := strings.ToLower(strings.TrimSpace(req.Skill))
	if lo.Contains(user.Skills, skill) {
		respondError(c, "add skill", apperr.Validation("skill already exists"))
		return
	}
	if len(user.Skills) >= maxSkills {
		respondError(c, "add skill", apperr.Validation("at most %d skills are allowed", maxSkills))
		return
	}

	updated, err := h.users.UpdateProfile(ctx, user.ID, models.ProfileUpdate{Skills: append(lo.Compact([]string(user.Skills)), skill)})
	if err != nil {
		respondError(c, "add skill", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"skills": updated.Skills})
}

// RemoveSkill handles DELETE /api/users/remove-skill/:skill. Removing a
// skill the user does not have is a no-op.
func (h *UserHandler) RemoveSkill(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.users.GetByID(ctx, userIDFromContext(c))
	if err != nil {
		respondError(c, "remove skill", err)
		return
	}

	skill := strings.ToLower(strings.TrimSpace(c.Param("skill")))
	if !lo.Contains(user.Skills, skill) {
		c.JSON(http.StatusOK, gin.H{"skills": user.Skills})
		return
	}
	updated, err := h.users.UpdateProfile(ctx, user.ID, models.ProfileUpdate{Skills: lo.Without([]string(user.Skills), skill)})
	if err != nil {
		respondError(c, "remove skill", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"skills": updated.Skills})
}

// ActivityStats handles GET /api/users/activity-stats.
func (h *UserHandler) ActivityStats(c *gin.Context) {
	stats, err := h.users.ActivityStats(c.Request.Context(), userIDFromContext(c))
	if err != nil {
		respondError(c, "activity stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// UpdateRole handles PUT /api/users/admin/:id/role. Admins only.
func (h *UserHandler) UpdateRole(c *gin.Context) {
	var req struct {
		Role string `json:"role" binding:"required,oneof=resident admin moderator business"`
	}
	if !bindJSON(c, &req) {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	caller, err := h.users.GetByID(ctx, userIDFromContext(c))
	if err != nil {
		respondError(c, "load caller", err)
		return
	}
	if !caller.IsAdmin() {
		respondError(c, "update role", apperr.AccessDenied("admin role required"))
		return
	}

	user, err := h.users.SetRole(ctx, id, req.Role)
	if err != nil {
		respondError(c, "update role", err)
		return
	}

	h.emitAudit(c, "WARN", "user.update_role", user.ID)
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) neighbor(u models.User) neighborResponse {
	return neighborResponse{PublicProfile: u.Public(), IsOnline: h.presence.IsOnline(u.ID)}
}

// NeighborhoodHandler serves neighborhood lookups.
type NeighborhoodHandler struct {
	neighborhoods repositories.NeighborhoodRepository
}

func NewNeighborhoodHandler(neighborhoods repositories.NeighborhoodRepository) *NeighborhoodHandler {
	return &NeighborhoodHandler{neighborhoods: neighborhoods}
}

// Get handles GET /api/neighborhoods/:id.
func (h *NeighborhoodHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	n, err := h.neighborhoods.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, "get neighborhood", err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
