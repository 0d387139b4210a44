package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/dealradar/offers-backend/internal/alerts"
	"github.com/dealradar/offers-backend/internal/domain"
)

type stubWatchSvc struct {
	item   *domain.WatchItem
	views  []alerts.WatchView
	err    error
	gotUID string
	gotPID string
	gotP   alerts.WatchParams
}

func (s *stubWatchSvc) Watch(ctx context.Context, userID, productID string, p alerts.WatchParams) (*domain.WatchItem, error) {
	s.gotUID, s.gotPID, s.gotP = userID, productID, p
	return s.item, s.err
}

func (s *stubWatchSvc) ListWatches(ctx context.Context, userID string) ([]alerts.WatchView, error) {
	s.gotUID = userID
	return s.views, s.err
}

func (s *stubWatchSvc) Unwatch(ctx context.Context, userID, productID string) error {
	s.gotUID, s.gotPID = userID, productID
	return s.err
}

func newWatchRouter(svc WatchService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewWatchlistHandler(svc)
	r.PUT("/watchlist/:productId", h.PutWatch)
	r.GET("/watchlist", h.ListWatches)
	r.DELETE("/watchlist/:productId", h.DeleteWatch)
	return r
}

func TestPutWatch_BindsBodyAndIdentity(t *testing.T) {
	svc := &stubWatchSvc{item: &domain.WatchItem{ID: "w1", UserID: "alice", ProductID: "p1"}}
	r := newWatchRouter(svc)

	body := bytes.NewBufferString(`{"pct_drop_threshold": 20, "target_price_cents": 4999, "shipping_improvement_on": true}`)
	req := httptest.NewRequest(http.MethodPut, "/watchlist/p1", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "alice")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if svc.gotUID != "alice" || svc.gotPID != "p1" {
		t.Fatalf("identity not passed: %q %q", svc.gotUID, svc.gotPID)
	}
	if svc.gotP.PctDropThreshold != 20 || svc.gotP.TargetPriceCents == nil || *svc.gotP.TargetPriceCents != 4999 || !svc.gotP.ShippingImprovementOn {
		t.Fatalf("params not bound: %+v", svc.gotP)
	}
}

func TestPutWatch_DefaultUserAndEmptyBody(t *testing.T) {
	svc := &stubWatchSvc{item: &domain.WatchItem{ID: "w1"}}
	r := newWatchRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/watchlist/p1", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("empty body should be accepted, got %d: %s", w.Code, w.Body.String())
	}
	if svc.gotUID != "demo-user" {
		t.Fatalf("missing header should fall back to demo-user, got %q", svc.gotUID)
	}
}

func TestPutWatch_Validation(t *testing.T) {
	svc := &stubWatchSvc{}
	r := newWatchRouter(svc)

	// Out-of-range threshold.
	body := bytes.NewBufferString(`{"pct_drop_threshold": 150}`)
	req := httptest.NewRequest(http.MethodPut, "/watchlist/p1", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("threshold 150 should be 400, got %d", w.Code)
	}

	// Malformed JSON.
	body = bytes.NewBufferString(`{nope`)
	req = httptest.NewRequest(http.MethodPut, "/watchlist/p1", body)
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed body should be 400, got %d", w.Code)
	}
	if svc.gotPID != "" {
		t.Fatalf("service must not be called on invalid input")
	}
}

func TestPutWatch_UnknownProductIs404(t *testing.T) {
	svc := &stubWatchSvc{err: alerts.ErrProductNotFound}
	r := newWatchRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/watchlist/p404", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil || er.Code != codeNotFound {
		t.Fatalf("error envelope wrong: %s", w.Body.String())
	}
}

func TestListWatches(t *testing.T) {
	svc := &stubWatchSvc{views: []alerts.WatchView{{Item: domain.WatchItem{ID: "w1"}}}}
	r := newWatchRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/watchlist", nil)
	req.Header.Set("X-User-ID", "bob")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if svc.gotUID != "bob" {
		t.Fatalf("user not passed: %q", svc.gotUID)
	}
	var body struct {
		Items []alerts.WatchView `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || len(body.Items) != 1 {
		t.Fatalf("unexpected body: %s (err=%v)", w.Body.String(), err)
	}
}

func TestDeleteWatch(t *testing.T) {
	svc := &stubWatchSvc{}
	r := newWatchRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/watchlist/p1", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}

	svc.err = alerts.ErrWatchNotFound
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/watchlist/p1", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing watch should be 404, got %d", w.Code)
	}
}
