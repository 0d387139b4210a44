package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/dealradar/offers-backend/internal/alerts"
)

type stubTickSvc struct {
	res *alerts.TickResult
	err error
}

func (s *stubTickSvc) RunPriceTick(ctx context.Context) (*alerts.TickResult, error) {
	return s.res, s.err
}

func newAdminRouter(svc TickService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/admin/price-tick", NewAdminHandler(svc).RunPriceTick)
	return r
}

func TestRunPriceTick_ReturnsResult(t *testing.T) {
	svc := &stubTickSvc{res: &alerts.TickResult{
		ChangedItems:  []alerts.ChangedOffer{{OfferID: "o1", OldPriceCents: 100, NewPriceCents: 99}},
		Notifications: nil,
	}}
	r := newAdminRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/price-tick", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var res alerts.TickResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil || len(res.ChangedItems) != 1 {
		t.Fatalf("unexpected body: %s (err=%v)", w.Body.String(), err)
	}
}

func TestRunPriceTick_ConflictWhileRunning(t *testing.T) {
	svc := &stubTickSvc{err: alerts.ErrTickRunning}
	r := newAdminRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/price-tick", nil))

	if w.Code != http.StatusConflict {
		t.Fatalf("in-flight tick should be 409, got %d", w.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil || er.Code != codeConflict {
		t.Fatalf("error envelope wrong: %s", w.Body.String())
	}
}

func TestRunPriceTick_InternalError(t *testing.T) {
	svc := &stubTickSvc{err: errors.New("storage failure")}
	r := newAdminRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/price-tick", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
}
