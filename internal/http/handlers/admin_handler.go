package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dealradar/offers-backend/internal/alerts"
)

// TickService is the simulation surface the admin endpoint depends on.
// *alerts.Service satisfies it.
type TickService interface {
	RunPriceTick(ctx context.Context) (*alerts.TickResult, error)
}

// AdminHandler serves operational endpoints that are not part of the public
// shopping API.
type AdminHandler struct {
	Svc TickService
}

// NewAdminHandler wires an AdminHandler to its service.
func NewAdminHandler(svc TickService) *AdminHandler {
	return &AdminHandler{Svc: svc}
}

// RunPriceTick handles POST /admin/price-tick, running one price-drift pass
// over all stored offers and evaluating every watch item.
//
// A tick already in flight yields HTTP 409 rather than queueing a second one.
func (h *AdminHandler) RunPriceTick(c *gin.Context) {
	res, err := h.Svc.RunPriceTick(c.Request.Context())
	if err != nil {
		if errors.Is(err, alerts.ErrTickRunning) {
			fail(c, http.StatusConflict, codeConflict, "a price tick is already running")
			return
		}
		fail(c, http.StatusInternalServerError, codeInternalError, "price tick failed")
		return
	}
	ok(c, http.StatusOK, res)
}
