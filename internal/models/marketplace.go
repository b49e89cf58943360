package models

import (
	"time"

	"github.com/lib/pq"
)

// Listing statuses.
const (
	ListingAvailable = "available"
	ListingReserved  = "reserved"
	ListingSold      = "sold"
	ListingRemoved   = "removed"
)

// MarketplaceListing is an item offered inside a neighborhood.
type MarketplaceListing struct {
	ID             string         `db:"id" json:"id"`
	Title          string         `db:"title" json:"title"`
	Description    string         `db:"description" json:"description"`
	Category       string         `db:"category" json:"category"`
	Condition      string         `db:"condition" json:"condition"`
	Price          float64        `db:"price" json:"price"`
	PriceType      string         `db:"price_type" json:"priceType"`
	Status         string         `db:"status" json:"status"`
	SellerID       string         `db:"seller_id" json:"sellerId"`
	SellerName     string         `db:"seller_name" json:"sellerName"`
	NeighborhoodID string         `db:"neighborhood_id" json:"neighborhoodId"`
	Images         pq.StringArray `db:"images" json:"images"`
	Tags           pq.StringArray `db:"tags" json:"tags"`
	FavoriteCount  int            `db:"favorite_count" json:"favoriteCount"`
	BumpedAt       time.Time      `db:"bumped_at" json:"bumpedAt"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updatedAt"`
}

// ListingFilter narrows a marketplace listing query.
type ListingFilter struct {
	NeighborhoodID string
	Category       string
	Status         string
	MinPrice       *float64
	MaxPrice       *float64
	Limit          int
	Offset         int
}

// ListingUpdate carries editable listing fields. Nil means unchanged.
type ListingUpdate struct {
	Title       *string
	Description *string
	Price       *float64
	PriceType   *string
	Condition   *string
	Status      *string
	Tags        []string
	Images      []string
}
