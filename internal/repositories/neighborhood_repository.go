package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"neighborhub/internal/models"
)

// NeighborhoodRepository abstracts neighborhood lookups.
type NeighborhoodRepository interface {
	GetByID(ctx context.Context, id string) (models.Neighborhood, error)
	FindByZipCode(ctx context.Context, zipCode string) (models.Neighborhood, error)
}

// NeighborhoodRepo is a sqlx implementation of NeighborhoodRepository.
type NeighborhoodRepo struct {
	db *sqlx.DB
}

// NewNeighborhoodRepo constructs a NeighborhoodRepo.
func NewNeighborhoodRepo(db *sqlx.DB) *NeighborhoodRepo {
	return &NeighborhoodRepo{db: db}
}

const neighborhoodColumns = `id, name, city, state, zip_codes, member_count, created_at`

// GetByID fetches a neighborhood by id.
func (r *NeighborhoodRepo) GetByID(ctx context.Context, id string) (models.Neighborhood, error) {
	var n models.Neighborhood
	err := r.db.GetContext(ctx, &n, `SELECT `+neighborhoodColumns+` FROM neighborhoods WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Neighborhood{}, ErrNeighborhoodNotFound
	}
	return n, err
}

// FindByZipCode returns the neighborhood covering the zip code.
func (r *NeighborhoodRepo) FindByZipCode(ctx context.Context, zipCode string) (models.Neighborhood, error) {
	var n models.Neighborhood
	err := r.db.GetContext(ctx, &n, `SELECT `+neighborhoodColumns+` FROM neighborhoods WHERE $1 = ANY(zip_codes) LIMIT 1`, zipCode)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Neighborhood{}, ErrNeighborhoodNotFound
	}
	return n, err
}
