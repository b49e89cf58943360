package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"neighborhub/internal/apperr"
	"neighborhub/internal/models"
)

// RoleAssigner is the part of the user store PromoteAdmins needs.
type RoleAssigner interface {
	GetByEmail(ctx context.Context, email string) (models.User, error)
	SetRole(ctx context.Context, id, role string) (models.User, error)
}

// PromoteAdmins grants the admin role to the accounts registered under
// emails. Unknown addresses are logged and skipped so an admin can be
// configured before signing up. It returns how many users were promoted.
func PromoteAdmins(ctx context.Context, users RoleAssigner, emails []string) (int, error) {
	promoted := 0
	for _, email := range emails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" {
			continue
		}
		user, err := users.GetByEmail(ctx, email)
		if errors.Is(err, apperr.ErrNotFound) {
			log.Printf("admin bootstrap skipped: email=%s reason=not_registered", email)
			continue
		}
		if err != nil {
			return promoted, err
		}
		if user.IsAdmin() {
			continue
		}
		if _, err := users.SetRole(ctx, user.ID, models.RoleAdmin); err != nil {
			return promoted, err
		}
		log.Printf("admin bootstrap: user_id=%s", user.ID)
		promoted++
	}
	return promoted, nil
}
