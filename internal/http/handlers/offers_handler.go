package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dealradar/offers-backend/internal/offers"
	"github.com/dealradar/offers-backend/internal/utils"
)

// OffersService is the aggregation surface the offers endpoints depend on.
// *offers.Service satisfies it; tests substitute fakes.
type OffersService interface {
	GetRankedOffers(ctx context.Context, productID, strategy string, refreshLive bool) (*offers.RankedOffers, error)
	SearchOfferCandidates(ctx context.Context, query, brandHint, strategy string, limit int) ([]offers.CandidateBundle, error)
}

// OffersHandler serves the product offer-aggregation endpoints.
type OffersHandler struct {
	Svc OffersService
}

// NewOffersHandler wires an OffersHandler to its service.
func NewOffersHandler(svc OffersService) *OffersHandler {
	return &OffersHandler{Svc: svc}
}

// GetProductOffers handles GET /products/:id/offers.
//
// Query parameters:
//   - strategy: BEST_PRICE | FASTEST_SHIPPING | BALANCED (default BALANCED;
//     unknown values fall back to BALANCED rather than erroring)
//   - refresh:  "true" runs a live provider refresh (served through the
//     shared provider response cache); "force" additionally bypasses that
//     cache and refills it with live results
//
// A product with no stored offers returns an empty list with HTTP 200; the
// endpoint never 404s on unknown product IDs.
func (h *OffersHandler) GetProductOffers(c *gin.Context) {
	productID := strings.TrimSpace(c.Param("id"))
	if productID == "" {
		fail(c, http.StatusBadRequest, codeBadRequest, "product id is required")
		return
	}

	strategy := c.Query("strategy")
	mode := c.Query("refresh")
	force := strings.EqualFold(mode, "force")
	refresh := force || strings.EqualFold(mode, "true")

	ctx := c.Request.Context()
	if force {
		ctx = offers.WithForcedRefresh(ctx)
	}

	res, err := h.Svc.GetRankedOffers(ctx, productID, strategy, refresh)
	if err != nil {
		fail(c, http.StatusInternalServerError, codeInternalError, "failed to aggregate offers")
		return
	}
	ok(c, http.StatusOK, res)
}

// SearchOffers handles GET /offers/search.
//
// Query parameters:
//   - q:        free-text product query (required)
//   - brand:    optional brand hint used when a product has to be created
//   - strategy: ranking strategy, same semantics as GetProductOffers
//   - limit:    max product matches, clamped to [1,20], default 8
func (h *OffersHandler) SearchOffers(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		fail(c, http.StatusBadRequest, codeBadRequest, "query parameter 'q' is required")
		return
	}

	limit := utils.AtoiDefault(c.Query("limit"), 8)
	bundles, err := h.Svc.SearchOfferCandidates(
		c.Request.Context(),
		query,
		strings.TrimSpace(c.Query("brand")),
		c.Query("strategy"),
		limit,
	)
	if err != nil {
		fail(c, http.StatusInternalServerError, codeInternalError, "offer search failed")
		return
	}
	ok(c, http.StatusOK, gin.H{"results": bundles})
}
