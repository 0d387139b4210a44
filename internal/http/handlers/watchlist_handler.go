package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dealradar/offers-backend/internal/alerts"
	"github.com/dealradar/offers-backend/internal/domain"
)

// defaultUserID identifies callers that send no X-User-ID header. The API has
// no authentication layer; the header is a demo-grade identity.
const defaultUserID = "demo-user"

// userID resolves the caller identity from the X-User-ID header and makes it
// visible to the rate limiter via the Gin context.
func userID(c *gin.Context) string {
	uid := strings.TrimSpace(c.GetHeader("X-User-ID"))
	if uid == "" {
		uid = defaultUserID
	}
	c.Set("userID", uid)
	return uid
}

// WatchService is the watch-item surface the watchlist endpoints depend on.
// *alerts.Service satisfies it.
type WatchService interface {
	Watch(ctx context.Context, userID, productID string, p alerts.WatchParams) (*domain.WatchItem, error)
	ListWatches(ctx context.Context, userID string) ([]alerts.WatchView, error)
	Unwatch(ctx context.Context, userID, productID string) error
}

// WatchlistHandler serves the per-user watchlist endpoints.
type WatchlistHandler struct {
	Svc WatchService
}

// NewWatchlistHandler wires a WatchlistHandler to its service.
func NewWatchlistHandler(svc WatchService) *WatchlistHandler {
	return &WatchlistHandler{Svc: svc}
}

// watchRequest is the JSON body of PUT /watchlist/:productId. All fields are
// optional; a zero PctDropThreshold is replaced by the server default.
type watchRequest struct {
	PctDropThreshold      float64 `json:"pct_drop_threshold"`
	TargetPriceCents      *int64  `json:"target_price_cents"`
	ShippingImprovementOn bool    `json:"shipping_improvement_on"`
	PreferredOfferID      *string `json:"preferred_offer_id"`
	PreferredVendorID     *string `json:"preferred_vendor_id"`
	PreferredProductURL   *string `json:"preferred_product_url"`
}

// PutWatch handles PUT /watchlist/:productId, creating or updating the
// caller's watch item for the product.
func (h *WatchlistHandler) PutWatch(c *gin.Context) {
	uid := userID(c)
	productID := strings.TrimSpace(c.Param("productId"))
	if productID == "" {
		fail(c, http.StatusBadRequest, codeBadRequest, "product id is required")
		return
	}

	var req watchRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, codeBadRequest, "invalid request body")
			return
		}
	}
	if req.PctDropThreshold < 0 || req.PctDropThreshold > 100 {
		fail(c, http.StatusBadRequest, codeBadRequest, "pct_drop_threshold must be between 0 and 100")
		return
	}

	item, err := h.Svc.Watch(c.Request.Context(), uid, productID, alerts.WatchParams{
		PctDropThreshold:      req.PctDropThreshold,
		TargetPriceCents:      req.TargetPriceCents,
		ShippingImprovementOn: req.ShippingImprovementOn,
		PreferredOfferID:      req.PreferredOfferID,
		PreferredVendorID:     req.PreferredVendorID,
		PreferredProductURL:   req.PreferredProductURL,
	})
	if err != nil {
		if errors.Is(err, alerts.ErrProductNotFound) {
			fail(c, http.StatusNotFound, codeNotFound, "product not found")
			return
		}
		fail(c, http.StatusInternalServerError, codeInternalError, "failed to save watch item")
		return
	}
	ok(c, http.StatusOK, item)
}

// ListWatches handles GET /watchlist, returning every watch item of the
// caller paired with the current best offer.
func (h *WatchlistHandler) ListWatches(c *gin.Context) {
	uid := userID(c)
	views, err := h.Svc.ListWatches(c.Request.Context(), uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, codeInternalError, "failed to list watch items")
		return
	}
	ok(c, http.StatusOK, gin.H{"items": views})
}

// DeleteWatch handles DELETE /watchlist/:productId.
func (h *WatchlistHandler) DeleteWatch(c *gin.Context) {
	uid := userID(c)
	productID := strings.TrimSpace(c.Param("productId"))
	if productID == "" {
		fail(c, http.StatusBadRequest, codeBadRequest, "product id is required")
		return
	}

	if err := h.Svc.Unwatch(c.Request.Context(), uid, productID); err != nil {
		if errors.Is(err, alerts.ErrWatchNotFound) {
			fail(c, http.StatusNotFound, codeNotFound, "watch item not found")
			return
		}
		fail(c, http.StatusInternalServerError, codeInternalError, "failed to delete watch item")
		return
	}
	noContent(c)
}
