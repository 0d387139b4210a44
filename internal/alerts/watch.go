// Package alerts – watch-item lifecycle
//
// Watch items are created and updated through explicit watch actions; the
// alert engine only ever advances their baselines. After a local mutation the
// current best offer is pushed to the optional remote watchlist mirror on a
// detached goroutine: mirror failures are logged and never propagate to the
// caller.
package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/dealradar/offers-backend/internal/domain"
	"github.com/dealradar/offers-backend/internal/offers"
	"github.com/dealradar/offers-backend/internal/repo"
)

// WatchParams are the subscriber-editable fields of a watch item.
type WatchParams struct {
	PctDropThreshold      float64 `json:"pct_drop_threshold"`
	TargetPriceCents      *int64  `json:"target_price_cents,omitempty"`
	ShippingImprovementOn bool    `json:"shipping_improvement_on"`
	PreferredOfferID      *string `json:"preferred_offer_id,omitempty"`
	PreferredVendorID     *string `json:"preferred_vendor_id,omitempty"`
	PreferredProductURL   *string `json:"preferred_product_url,omitempty"`
}

// WatchView pairs a watch item with the current best offer for its product.
type WatchView struct {
	Item      domain.WatchItem        `json:"item"`
	BestOffer *domain.NormalizedOffer `json:"best_offer,omitempty"`
}

// Watch creates or updates the (userID, productID) watch item. The product
// must exist; otherwise ErrProductNotFound. A successful write triggers a
// detached mirror push.
func (s *Service) Watch(ctx context.Context, userID, productID string, p WatchParams) (*domain.WatchItem, error) {
	if _, err := repo.GetProduct(ctx, s.DB, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	w := &domain.WatchItem{
		UserID:                userID,
		ProductID:             productID,
		PctDropThreshold:      p.PctDropThreshold,
		TargetPriceCents:      p.TargetPriceCents,
		ShippingImprovementOn: p.ShippingImprovementOn,
		PreferredOfferID:      p.PreferredOfferID,
		PreferredVendorID:     p.PreferredVendorID,
		PreferredProductURL:   p.PreferredProductURL,
	}
	if err := repo.UpsertWatchItem(ctx, s.DB, w); err != nil {
		return nil, err
	}

	// Upsert may have hit an existing row; read back the canonical state.
	saved, err := repo.GetWatchItem(ctx, s.DB, userID, productID)
	if err != nil {
		return nil, err
	}

	if stored, err := repo.ListInStockOffers(ctx, s.DB, productID); err == nil {
		if best := offers.BestOffer(stored, saved); best != nil {
			s.pushMirrorDetached(*saved, best)
		}
	}
	return saved, nil
}

// ListWatches returns the user's watch items, each paired with the current
// best offer for its product.
func (s *Service) ListWatches(ctx context.Context, userID string) ([]WatchView, error) {
	items, err := repo.ListWatchItems(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	out := make([]WatchView, 0, len(items))
	for i := range items {
		v := WatchView{Item: items[i]}
		stored, err := repo.ListInStockOffers(ctx, s.DB, items[i].ProductID)
		if err != nil {
			return nil, err
		}
		if best := offers.BestOffer(stored, &items[i]); best != nil {
			n := offers.Normalize(*best)
			v.BestOffer = &n
		}
		out = append(out, v)
	}
	return out, nil
}

// Unwatch removes the (userID, productID) watch item.
// Returns ErrWatchNotFound when absent.
func (s *Service) Unwatch(ctx context.Context, userID, productID string) error {
	if err := repo.DeleteWatchItem(ctx, s.DB, userID, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrWatchNotFound
		}
		return err
	}
	return nil
}

// mirrorUpdate is the payload pushed to the remote watchlist mirror.
type mirrorUpdate struct {
	UserID         string `json:"user_id"`
	ProductID      string `json:"product_id"`
	BestOfferID    string `json:"best_offer_id"`
	BestPriceCents int64  `json:"best_price_cents"`
	BestEtaDays    int    `json:"best_eta_days"`
}

// pushMirrorDetached pushes the best-offer state for a watch item to the
// configured mirror on its own goroutine. The push carries its own timeout
// and failure isolation; it never blocks or fails the caller.
func (s *Service) pushMirrorDetached(w domain.WatchItem, best *domain.Offer) {
	if s.MirrorURL == "" || best == nil {
		return
	}
	upd := mirrorUpdate{
		UserID:         w.UserID,
		ProductID:      w.ProductID,
		BestOfferID:    best.ID,
		BestPriceCents: best.TotalCents(),
		BestEtaDays:    best.EtaDays,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		body, err := json.Marshal(upd)
		if err != nil {
			log.Error().Err(err).Msg("mirror payload marshal failed")
			return
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.MirrorURL, bytes.NewReader(body))
		if err != nil {
			log.Error().Err(err).Msg("mirror request build failed")
			return
		}
		req.Header.Set("Content-Type", "application/json")

		res, err := s.mirror.Do(req)
		if err != nil {
			log.Warn().Err(err).Str("user_id", upd.UserID).Msg("watchlist mirror push failed")
			return
		}
		defer res.Body.Close()
		io.Copy(io.Discard, res.Body)
		if res.StatusCode < 200 || res.StatusCode > 299 {
			log.Warn().Int("status", res.StatusCode).Str("user_id", upd.UserID).Msg("watchlist mirror push rejected")
		}
	}()
}
