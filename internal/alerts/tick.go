// Package alerts – price-drift simulator
//
// RunPriceTick is a blunt "make some movement happen" mechanism for demos,
// not a market model. One tick perturbs every stored offer's price (and
// occasionally its ETA), then evaluates every watch item against the shared
// best-offer reduction and queues notifications for thresholds that were
// crossed. Baselines advance only when an alert fires, so a slow creeping
// drop across many ticks still eventually crosses the threshold against the
// original baseline.
//
// Failure semantics are deliberately coarse: any storage error aborts the
// whole tick. No partial-success contract is offered.
package alerts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dealradar/offers-backend/internal/domain"
	"github.com/dealradar/offers-backend/internal/offers"
	"github.com/dealradar/offers-backend/internal/repo"
	"github.com/dealradar/offers-backend/internal/utils"
)

// Drift and clamp bounds of the simulation.
const (
	maxDriftPct         = 0.02 // price moves within ±2% per tick
	etaShiftChance      = 0.20 // 20% of offers get a ±1 day ETA shift
	minPriceCents       = 50
	maxPriceCents       = 500000
	minEtaDays          = 1
	maxEtaDaysAfterTick = 10
)

// ChangedOffer records one offer's before/after state within a tick.
type ChangedOffer struct {
	OfferID       string `json:"offer_id"`
	VendorID      string `json:"vendor_id"`
	OldPriceCents int64  `json:"old_price_cents"`
	NewPriceCents int64  `json:"new_price_cents"`
	OldEtaDays    int    `json:"old_eta_days"`
	NewEtaDays    int    `json:"new_eta_days"`
}

// TickResult summarizes one simulation pass.
type TickResult struct {
	ChangedItems  []ChangedOffer               `json:"changed_items"`
	Notifications []domain.PendingNotification `json:"notifications"`
}

// notificationPayload is the structured payload attached to a fired alert.
type notificationPayload struct {
	OfferID    string  `json:"offer_id"`
	VendorID   string  `json:"vendor_id"`
	PriceCents int64   `json:"price_cents"`
	EtaDays    int     `json:"eta_days"`
	DropPct    float64 `json:"drop_pct"`
}

// RunPriceTick executes one simulation pass: drift all offers, then evaluate
// all watch items. Returns ErrTickRunning when a tick is already in flight;
// any storage error aborts the tick.
func (s *Service) RunPriceTick(ctx context.Context) (*TickResult, error) {
	if !s.tickMu.TryLock() {
		return nil, ErrTickRunning
	}
	defer s.tickMu.Unlock()

	tr := otel.Tracer("alerts/Service")
	ctx, span := tr.Start(ctx, "RunPriceTick")
	defer span.End()

	result := &TickResult{
		ChangedItems:  []ChangedOffer{},
		Notifications: []domain.PendingNotification{},
	}

	if err := s.driftOffers(ctx, result); err != nil {
		return nil, err
	}
	if err := s.evaluateWatches(ctx, result); err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("changed_items", len(result.ChangedItems)),
		attribute.Int("notifications", len(result.Notifications)),
	)
	log.Info().
		Int("changed_items", len(result.ChangedItems)).
		Int("notifications", len(result.Notifications)).
		Msg("price tick complete")
	return result, nil
}

// driftOffers applies the random price/ETA perturbation to every stored
// offer and persists the mutations.
func (s *Service) driftOffers(ctx context.Context, result *TickResult) error {
	all, err := repo.ListAllOffers(ctx, s.DB)
	if err != nil {
		return err
	}

	for _, o := range all {
		factor := 1 + (s.rng.Float64()*2-1)*maxDriftPct
		newPrice := utils.ClampInt64(int64(float64(o.PriceCents)*factor+0.5), minPriceCents, maxPriceCents)

		newEta := o.EtaDays
		if s.rng.Float64() < etaShiftChance {
			if s.rng.Intn(2) == 0 {
				newEta--
			} else {
				newEta++
			}
			newEta = utils.ClampInt(newEta, minEtaDays, maxEtaDaysAfterTick)
		}

		if err := repo.UpdateOfferDrift(ctx, s.DB, o.ID, newPrice, newEta); err != nil {
			return err
		}
		result.ChangedItems = append(result.ChangedItems, ChangedOffer{
			OfferID:       o.ID,
			VendorID:      o.VendorID,
			OldPriceCents: o.PriceCents,
			NewPriceCents: newPrice,
			OldEtaDays:    o.EtaDays,
			NewEtaDays:    newEta,
		})
	}
	return nil
}

// evaluateWatches checks every watch item against its product's current best
// offer, queuing a notification and advancing the baseline when a rule fires.
// Items that do not fire are left untouched.
func (s *Service) evaluateWatches(ctx context.Context, result *TickResult) error {
	watches, err := repo.ListAllWatchItems(ctx, s.DB)
	if err != nil {
		return err
	}

	for i := range watches {
		w := watches[i]
		stored, err := repo.ListInStockOffers(ctx, s.DB, w.ProductID)
		if err != nil {
			return err
		}
		best := offers.BestOffer(stored, &w)
		if best == nil {
			continue
		}

		total := best.TotalCents()
		dropPct := 0.0
		if w.LastSeenBestPriceCents > 0 {
			dropPct = float64(w.LastSeenBestPriceCents-total) / float64(w.LastSeenBestPriceCents) * 100
		}

		fired := dropPct >= w.PctDropThreshold
		if !fired && w.TargetPriceCents != nil && total <= *w.TargetPriceCents {
			fired = true
		}
		if !fired && w.ShippingImprovementOn && w.LastSeenBestEtaDays > 0 && best.EtaDays < w.LastSeenBestEtaDays {
			fired = true
		}
		if !fired {
			continue
		}

		payload, err := json.Marshal(notificationPayload{
			OfferID:    best.ID,
			VendorID:   best.VendorID,
			PriceCents: total,
			EtaDays:    best.EtaDays,
			DropPct:    dropPct,
		})
		if err != nil {
			return err
		}
		msg := fmt.Sprintf("Price alert: %s is now $%.2f at %s (ETA %d days, %.1f%% below your last seen price)",
			best.Title, float64(total)/100, best.VendorName, best.EtaDays, dropPct)

		n, err := repo.CreateNotification(ctx, s.DB, w.UserID, w.ProductID,
			domain.NotificationPriceDrop, msg, string(payload))
		if err != nil {
			return err
		}
		result.Notifications = append(result.Notifications, *n)

		if err := repo.UpdateWatchBaseline(ctx, s.DB, w.ID, total, best.EtaDays, s.now().UTC()); err != nil {
			return err
		}
		s.pushMirrorDetached(w, best)
	}
	return nil
}
