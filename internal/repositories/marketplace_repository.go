package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"neighborhub/internal/apperr"
	"neighborhub/internal/models"
)

var ErrListingNotFound = fmt.Errorf("listing %w", apperr.ErrNotFound)

// MarketplaceRepository abstracts marketplace persistence.
type MarketplaceRepository interface {
	List(ctx context.Context, filter models.ListingFilter) ([]models.MarketplaceListing, error)
	Get(ctx context.Context, id string) (models.MarketplaceListing, error)
	Create(ctx context.Context, listing models.MarketplaceListing) (models.MarketplaceListing, error)
	Update(ctx context.Context, id string, upd models.ListingUpdate) (models.MarketplaceListing, error)
	ToggleFavorite(ctx context.Context, listingID, userID string) (bool, int, error)
	Bump(ctx context.Context, id string, notSince time.Time) (bool, error)
	ListBySeller(ctx context.Context, sellerID, status string) ([]models.MarketplaceListing, error)
	ListFavorites(ctx context.Context, userID string) ([]models.MarketplaceListing, error)
}

// MarketplaceRepo is a sqlx implementation of MarketplaceRepository.
type MarketplaceRepo struct {
	db *sqlx.DB
}

// NewMarketplaceRepo constructs a MarketplaceRepo.
func NewMarketplaceRepo(db *sqlx.DB) *MarketplaceRepo {
	return &MarketplaceRepo{db: db}
}

const listingSelect = `SELECT l.id, l.title, l.description, l.category, l.condition, l.price::float8 AS price,
        l.price_type, l.status, l.seller_id, u.first_name || ' ' || u.last_name AS seller_name,
        l.neighborhood_id, l.images, l.tags, l.favorite_count, l.bumped_at, l.created_at, l.updated_at
    FROM marketplace_listings l JOIN users u ON u.id = l.seller_id`

// List returns listings of one neighborhood, most recently bumped first.
func (r *MarketplaceRepo) List(ctx context.Context, filter models.ListingFilter) ([]models.MarketplaceListing, error) {
	query := listingSelect + ` WHERE l.neighborhood_id=$1`
	args := []any{filter.NeighborhoodID}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(` AND l.category=$%d`, len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` AND l.status=$%d`, len(args))
	} else {
		query += ` AND l.status <> 'removed'`
	}
	if filter.MinPrice != nil {
		args = append(args, *filter.MinPrice)
		query += fmt.Sprintf(` AND l.price >= $%d`, len(args))
	}
	if filter.MaxPrice != nil {
		args = append(args, *filter.MaxPrice)
		query += fmt.Sprintf(` AND l.price <= $%d`, len(args))
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(` ORDER BY l.bumped_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	var listings []models.MarketplaceListing
	err := r.db.SelectContext(ctx, &listings, query, args...)
	return listings, err
}

// Get fetches a listing by id.
func (r *MarketplaceRepo) Get(ctx context.Context, id string) (models.MarketplaceListing, error) {
	var listing models.MarketplaceListing
	err := r.db.GetContext(ctx, &listing, listingSelect+` WHERE l.id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MarketplaceListing{}, ErrListingNotFound
	}
	return listing, err
}

// Create stores a listing.
func (r *MarketplaceRepo) Create(ctx context.Context, listing models.MarketplaceListing) (models.MarketplaceListing, error) {
	if listing.Images == nil {
		listing.Images = pq.StringArray{}
	}
	if listing.Tags == nil {
		listing.Tags = pq.StringArray{}
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO marketplace_listings
            (id, title, description, category, condition, price, price_type, seller_id, neighborhood_id, images, tags)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		listing.ID, listing.Title, listing.Description, listing.Category, listing.Condition, listing.Price,
		listing.PriceType, listing.SellerID, listing.NeighborhoodID, listing.Images, listing.Tags)
	if err != nil {
		return models.MarketplaceListing{}, err
	}
	return r.Get(ctx, listing.ID)
}

// Update applies the non-nil fields of upd.
func (r *MarketplaceRepo) Update(ctx context.Context, id string, upd models.ListingUpdate) (models.MarketplaceListing, error) {
	var tags, images any
	if upd.Tags != nil {
		tags = pq.StringArray(upd.Tags)
	}
	if upd.Images != nil {
		images = pq.StringArray(upd.Images)
	}
	res, err := r.db.ExecContext(ctx, `UPDATE marketplace_listings SET
            title = COALESCE($2, title),
            description = COALESCE($3, description),
            price = COALESCE($4, price),
            price_type = COALESCE($5, price_type),
            condition = COALESCE($6, condition),
            status = COALESCE($7, status),
            tags = COALESCE($8, tags),
            images = COALESCE($9, images),
            updated_at = NOW()
        WHERE id=$1`, id, upd.Title, upd.Description, upd.Price, upd.PriceType, upd.Condition, upd.Status, tags, images)
	if err != nil {
		return models.MarketplaceListing{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.MarketplaceListing{}, ErrListingNotFound
	}
	return r.Get(ctx, id)
}

// ToggleFavorite favorites the listing for the user or removes the favorite.
func (r *MarketplaceRepo) ToggleFavorite(ctx context.Context, listingID, userID string) (bool, int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM marketplace_favorites WHERE listing_id=$1 AND user_id=$2`, listingID, userID)
	if err != nil {
		return false, 0, err
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return false, 0, err
	}

	favorited := removed == 0
	delta := -1
	if favorited {
		if _, err := tx.ExecContext(ctx, `INSERT INTO marketplace_favorites (listing_id, user_id) VALUES ($1, $2)`, listingID, userID); err != nil {
			return false, 0, err
		}
		delta = 1
	}

	var count int
	err = tx.QueryRowxContext(ctx, `UPDATE marketplace_listings SET favorite_count = favorite_count + $2
        WHERE id=$1 RETURNING favorite_count`, listingID, delta).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return false, 0, ErrListingNotFound
	}
	if err != nil {
		return false, 0, err
	}
	return favorited, count, tx.Commit()
}

// Bump moves the listing to the top unless it was already bumped at or
// after notSince. It reports whether the bump happened.
func (r *MarketplaceRepo) Bump(ctx context.Context, id string, notSince time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE marketplace_listings SET bumped_at = NOW()
        WHERE id=$1 AND bumped_at < $2`, id, notSince)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListBySeller returns the seller's own listings, newest first. An empty
// status includes removed listings too.
func (r *MarketplaceRepo) ListBySeller(ctx context.Context, sellerID, status string) ([]models.MarketplaceListing, error) {
	query := listingSelect + ` WHERE l.seller_id=$1`
	args := []any{sellerID}
	if status != "" {
		args = append(args, status)
		query += ` AND l.status=$2`
	}
	query += ` ORDER BY l.created_at DESC`

	var listings []models.MarketplaceListing
	err := r.db.SelectContext(ctx, &listings, query, args...)
	return listings, err
}

// ListFavorites returns the listings the user favorited, most recent favorite first.
func (r *MarketplaceRepo) ListFavorites(ctx context.Context, userID string) ([]models.MarketplaceListing, error) {
	var listings []models.MarketplaceListing
	err := r.db.SelectContext(ctx, &listings, listingSelect+`
        JOIN marketplace_favorites f ON f.listing_id = l.id
        WHERE f.user_id=$1 AND l.status <> 'removed'
        ORDER BY f.favorited_at DESC`, userID)
	return listings, err
}
