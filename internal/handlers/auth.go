package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"neighborhub/internal/apperr"
	"neighborhub/internal/auth"
	"neighborhub/internal/middleware"
	"neighborhub/internal/models"
	"neighborhub/internal/repositories"
	"neighborhub/internal/telemetry"
)

// AuthHandler serves registration, login and credential endpoints.
type AuthHandler struct {
	auditor
	users         repositories.UserRepository
	neighborhoods repositories.NeighborhoodRepository
	tokens        *auth.TokenService
	hasher        *auth.PasswordHasher
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(users repositories.UserRepository, neighborhoods repositories.NeighborhoodRepository, tokens *auth.TokenService, hasher *auth.PasswordHasher, audit *telemetry.AuditEmitter) *AuthHandler {
	return &AuthHandler{
		auditor:       auditor{audit: audit},
		users:         users,
		neighborhoods: neighborhoods,
		tokens:        tokens,
		hasher:        hasher,
	}
}

type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		FirstName string `json:"firstName" binding:"notblank,max=50"`
		LastName  string `json:"lastName" binding:"notblank,max=50"`
		Email     string `json:"email" binding:"required,email"`
		Password  string `json:"password" binding:"required,min=6"`
		ZipCode   string `json:"zipCode" binding:"notblank"`
	}
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	neighborhood, err := h.neighborhoods.FindByZipCode(ctx, strings.TrimSpace(req.ZipCode))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no neighborhood found for this zip code"})
			return
		}
		respondError(c, "find neighborhood", err)
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		respondError(c, "hash password", err)
		return
	}

	user, err := h.users.Create(ctx, models.User{
		ID:             uuid.NewString(),
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash:   hash,
		ZipCode:        strings.TrimSpace(req.ZipCode),
		NeighborhoodID: neighborhood.ID,
		Role:           models.RoleResident,
	})
	if err != nil {
		respondError(c, "create user", err)
		return
	}

	token, err := h.tokens.Issue(user.ID, user.NeighborhoodID)
	if err != nil {
		respondError(c, "issue token", err)
		return
	}

	c.Set(middleware.UserIDKey, user.ID)
	h.emitAudit(c, "INFO", "auth.register", user.ID)
	c.JSON(http.StatusCreated, authResponse{Token: token, User: user})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			respondError(c, "login", auth.ErrInvalidCredentials)
			return
		}
		respondError(c, "login", err)
		return
	}
	if err := h.hasher.Verify(req.Password, user.PasswordHash); err != nil {
		h.emitAudit(c, "WARN", "auth.login_failed", user.ID)
		respondError(c, "login", err)
		return
	}

	token, err := h.tokens.Issue(user.ID, user.NeighborhoodID)
	if err != nil {
		respondError(c, "issue token", err)
		return
	}
	if err := h.users.TouchLastActive(ctx, user.ID); err != nil {
		respondError(c, "touch last active", err)
		return
	}

	c.JSON(http.StatusOK, authResponse{Token: token, User: user})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), userIDFromContext(c))
	if err != nil {
		respondError(c, "get current user", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// VerifyEmail handles POST /api/auth/verify-email. Verified residents may
// file safety reports.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	user, err := h.users.MarkVerified(c.Request.Context(), userIDFromContext(c))
	if err != nil {
		respondError(c, "verify email", err)
		return
	}

	h.emitAudit(c, "INFO", "auth.verify_email", user.ID)
	c.JSON(http.StatusOK, gin.H{"message": "email verified", "user": user})
}

// ChangePassword handles POST /api/auth/change-password.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required,min=6"`
	}
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.GetByID(ctx, userIDFromContext(c))
	if err != nil {
		respondError(c, "get current user", err)
		return
	}
	if err := h.hasher.Verify(req.CurrentPassword, user.PasswordHash); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "current password is incorrect"})
		return
	}

	hash, err := h.hasher.Hash(req.NewPassword)
	if err != nil {
		respondError(c, "hash password", err)
		return
	}
	if err := h.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		respondError(c, "update password", err)
		return
	}

	h.emitAudit(c, "INFO", "auth.change_password", user.ID)
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}
