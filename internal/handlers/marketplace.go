package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/samber/lo"

	"neighborhub/internal/apperr"
	"neighborhub/internal/models"
	"neighborhub/internal/repositories"
	"neighborhub/internal/services"
	"neighborhub/internal/telemetry"
)

// MarketplaceHandler serves marketplace listings.
type MarketplaceHandler struct {
	auditor
	listings repositories.MarketplaceRepository
	notifier services.Notifier
	now      func() time.Time
}

// NewMarketplaceHandler constructs a MarketplaceHandler.
func NewMarketplaceHandler(listings repositories.MarketplaceRepository, notifier services.Notifier, audit *telemetry.AuditEmitter) *MarketplaceHandler {
	return &MarketplaceHandler{auditor: auditor{audit: audit}, listings: listings, notifier: notifier, now: time.Now}
}

// ListListings handles GET /api/marketplace/listings.
func (h *MarketplaceHandler) ListListings(c *gin.Context) {
	limit, offset := parsePage(c)
	filter := models.ListingFilter{
		NeighborhoodID: neighborhoodIDFromContext(c),
		Category:       c.Query("category"),
		Status:         c.Query("status"),
		Limit:          limit,
		Offset:         offset,
	}
	var ok bool
	if filter.MinPrice, ok = priceQuery(c, "minPrice"); !ok {
		return
	}
	if filter.MaxPrice, ok = priceQuery(c, "maxPrice"); !ok {
		return
	}

	listings, err := h.listings.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, "list listings", err)
		return
	}
	if listings == nil {
		listings = []models.MarketplaceListing{}
	}
	c.JSON(http.StatusOK, listings)
}

// GetListing handles GET /api/marketplace/listings/:id.
func (h *MarketplaceHandler) GetListing(c *gin.Context) {
	listing, ok := h.loadListing(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, listing)
}

// CreateListing handles POST /api/marketplace/listings.
func (h *MarketplaceHandler) CreateListing(c *gin.Context) {
	var req struct {
		Title       string   `json:"title" binding:"notblank,max=100"`
		Description string   `json:"description" binding:"notblank,max=2000"`
		Category    string   `json:"category" binding:"notblank"`
		Condition   string   `json:"condition" binding:"omitempty,oneof=new like-new good fair poor"`
		Price       float64  `json:"price" binding:"min=0"`
		PriceType   string   `json:"priceType" binding:"omitempty,oneof=fixed negotiable free trade"`
		Tags        []string `json:"tags" binding:"omitempty,max=10,dive,max=30"`
		Images      []string `json:"images" binding:"omitempty,max=8"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if req.Condition == "" {
		req.Condition = "good"
	}
	if req.PriceType == "" {
		req.PriceType = "fixed"
	}

	nid := neighborhoodIDFromContext(c)
	listing, err := h.listings.Create(c.Request.Context(), models.MarketplaceListing{
		ID:             uuid.NewString(),
		Title:          strings.TrimSpace(req.Title),
		Description:    strings.TrimSpace(req.Description),
		Category:       req.Category,
		Condition:      req.Condition,
		Price:          req.Price,
		PriceType:      req.PriceType,
		Status:         models.ListingAvailable,
		SellerID:       userIDFromContext(c),
		NeighborhoodID: nid,
		Tags:           pq.StringArray(normalizeTags(req.Tags)),
		Images:         pq.StringArray(req.Images),
	})
	if err != nil {
		respondError(c, "create listing", err)
		return
	}

	h.notify(nid, "created", listing)
	h.emitAudit(c, "INFO", "marketplace.create_listing", listing.ID)
	c.JSON(http.StatusCreated, listing)
}

// UpdateListing handles PUT /api/marketplace/listings/:id. Only the seller may edit.
func (h *MarketplaceHandler) UpdateListing(c *gin.Context) {
	var req struct {
		Title       *string  `json:"title" binding:"omitempty,notblank,max=100"`
		Description *string  `json:"description" binding:"omitempty,notblank,max=2000"`
		Price       *float64 `json:"price" binding:"omitempty,min=0"`
		PriceType   *string  `json:"priceType" binding:"omitempty,oneof=fixed negotiable free trade"`
		Condition   *string  `json:"condition" binding:"omitempty,oneof=new like-new good fair poor"`
		Status      *string  `json:"status" binding:"omitempty,oneof=available reserved sold"`
		Tags        []string `json:"tags" binding:"omitempty,max=10,dive,max=30"`
		Images      []string `json:"images" binding:"omitempty,max=8"`
	}
	if !bindJSON(c, &req) {
		return
	}

	listing, ok := h.loadListing(c)
	if !ok {
		return
	}
	if listing.SellerID != userIDFromContext(c) {
		respondError(c, "update listing", apperr.AccessDenied("only the seller can edit this listing"))
		return
	}

	upd := models.ListingUpdate{
		Title:       trimPtr(req.Title),
		Description: trimPtr(req.Description),
		Price:       req.Price,
		PriceType:   req.PriceType,
		Condition:   req.Condition,
		Status:      req.Status,
		Images:      req.Images,
	}
	if req.Tags != nil {
		upd.Tags = normalizeTags(req.Tags)
	}
	updated, err := h.listings.Update(c.Request.Context(), listing.ID, upd)
	if err != nil {
		respondError(c, "update listing", err)
		return
	}

	h.notify(updated.NeighborhoodID, "updated", updated)
	h.emitAudit(c, "INFO", "marketplace.update_listing", updated.ID)
	c.JSON(http.StatusOK, updated)
}

// ToggleFavorite handles POST /api/marketplace/listings/:id/favorite.
func (h *MarketplaceHandler) ToggleFavorite(c *gin.Context) {
	listing, ok := h.loadListing(c)
	if !ok {
		return
	}
	favorited, count, err := h.listings.ToggleFavorite(c.Request.Context(), listing.ID, userIDFromContext(c))
	if err != nil {
		respondError(c, "toggle favorite", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorited": favorited, "favoriteCount": count})
}

// DeleteListing handles DELETE /api/marketplace/listings/:id by marking it removed.
func (h *MarketplaceHandler) DeleteListing(c *gin.Context) {
	listing, ok := h.loadListing(c)
	if !ok {
		return
	}
	if listing.SellerID != userIDFromContext(c) {
		respondError(c, "delete listing", apperr.AccessDenied("only the seller can remove this listing"))
		return
	}

	status := models.ListingRemoved
	removed, err := h.listings.Update(c.Request.Context(), listing.ID, models.ListingUpdate{Status: &status})
	if err != nil {
		respondError(c, "delete listing", err)
		return
	}

	h.notify(removed.NeighborhoodID, "removed", removed)
	h.emitAudit(c, "INFO", "marketplace.remove_listing", removed.ID)
	c.JSON(http.StatusOK, gin.H{"message": "listing removed"})
}

// BumpListing handles POST /api/marketplace/listings/:id/bump. A seller may
// bump a listing once per UTC day.
func (h *MarketplaceHandler) BumpListing(c *gin.Context) {
	listing, ok := h.loadListing(c)
	if !ok {
		return
	}
	if listing.SellerID != userIDFromContext(c) {
		respondError(c, "bump listing", apperr.AccessDenied("only the seller can bump this listing"))
		return
	}

	bumped, err := h.listings.Bump(c.Request.Context(), listing.ID, h.now().UTC().Truncate(24*time.Hour))
	if err != nil {
		respondError(c, "bump listing", err)
		return
	}
	if !bumped {
		respondError(c, "bump listing", apperr.Validation("listing can only be bumped once per day"))
		return
	}

	h.emitAudit(c, "INFO", "marketplace.bump_listing", listing.ID)
	c.JSON(http.StatusOK, gin.H{"message": "listing bumped"})
}

// MyListings handles GET /api/marketplace/my-listings?status=. The default
// status "all" includes removed listings.
func (h *MarketplaceHandler) MyListings(c *gin.Context) {
	status := c.DefaultQuery("status", "all")
	if status == "all" {
		status = ""
	} else if !lo.Contains(listingStatuses, status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	listings, err := h.listings.ListBySeller(c.Request.Context(), userIDFromContext(c), status)
	if err != nil {
		respondError(c, "list my listings", err)
		return
	}
	if listings == nil {
		listings = []models.MarketplaceListing{}
	}
	c.JSON(http.StatusOK, listings)
}

// Favorites handles GET /api/marketplace/favorites.
func (h *MarketplaceHandler) Favorites(c *gin.Context) {
	listings, err := h.listings.ListFavorites(c.Request.Context(), userIDFromContext(c))
	if err != nil {
		respondError(c, "list favorites", err)
		return
	}
	if listings == nil {
		listings = []models.MarketplaceListing{}
	}
	c.JSON(http.StatusOK, listings)
}

var listingStatuses = []string{models.ListingAvailable, models.ListingReserved, models.ListingSold, models.ListingRemoved}

func (h *MarketplaceHandler) loadListing(c *gin.Context) (models.MarketplaceListing, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return models.MarketplaceListing{}, false
	}
	listing, err := h.listings.Get(c.Request.Context(), id)
	if err == nil && (listing.NeighborhoodID != neighborhoodIDFromContext(c) || listing.Status == models.ListingRemoved) {
		err = repositories.ErrListingNotFound
	}
	if err != nil {
		respondError(c, "get listing", err)
		return models.MarketplaceListing{}, false
	}
	return listing, true
}

func (h *MarketplaceHandler) notify(neighborhoodID, action string, listing models.MarketplaceListing) {
	if h.notifier == nil {
		return
	}
	h.notifier.BroadcastToNeighborhood(neighborhoodID, models.EventMarketplaceUpdate, models.MarketplaceUpdateEvent{
		Action:  action,
		Listing: listing,
	})
}

func priceQuery(c *gin.Context, name string) (*float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return nil, false
	}
	return &v, true
}
