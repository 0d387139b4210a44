// Package offers – aggregator
//
// This file implements the orchestration around ranked offers: fan out to
// the configured provider adapters in parallel, merge surviving candidates
// into storage keyed by (product, vendor), top up with synthesized fallback
// offers when live data is too sparse to demo meaningfully, and finally read
// the stored set back and apply the ranking policy.
//
// The operation's contract is that external-provider unreliability never
// surfaces as a caller-visible failure: adapter errors are logged and count
// as zero candidates. Storage failures remain fatal.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// product identifiers and strategy.
package offers

import (
	"context"
	"errors"
	"math"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/dealradar/offers-backend/internal/domain"
	"github.com/dealradar/offers-backend/internal/providers"
	"github.com/dealradar/offers-backend/internal/repo"
	"github.com/dealradar/offers-backend/internal/utils"
)

// fallbackVendor is one well-known retailer offers can be synthesized for.
// Price factors are applied to the cheapest existing price (or the default
// base) and ETAs are fixed per vendor.
type fallbackVendor struct {
	id      string
	name    string
	factor  float64
	etaDays int
	search  string // generic search URL prefix, query gets appended
}

var fallbackVendors = []fallbackVendor{
	{"ebay", "eBay", 0.92, 4, "https://www.ebay.com/sch/i.html?_nkw="},
	{"walmart", "Walmart", 0.98, 5, "https://www.walmart.com/search?q="},
	{"target", "Target", 1.03, 6, "https://www.target.com/s?searchTerm="},
}

const (
	// fallbackBasePriceCents seeds synthesis when no live offer exists.
	fallbackBasePriceCents int64 = 1999
	// minFallbackPriceCents floors every synthesized price.
	minFallbackPriceCents int64 = 99
)

// RankedOffers is the aggregation result returned to callers.
type RankedOffers struct {
	Offers             []domain.NormalizedOffer `json:"offers"`
	RecommendedOfferID string                   `json:"recommended_offer_id,omitempty"`
	Strategy           Strategy                 `json:"strategy"`
}

// CandidateBundle is one entry of the offer-candidate search result.
type CandidateBundle struct {
	Product            domain.Product           `json:"product"`
	Offers             []domain.NormalizedOffer `json:"offers"`
	RecommendedOfferID string                   `json:"recommended_offer_id,omitempty"`
	BestOffer          *domain.NormalizedOffer  `json:"best_offer,omitempty"`
}

// Service aggregates, persists, and ranks offers for products.
type Service struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Providers are the outbound search adapters, run concurrently with
	// individual failure isolation.
	Providers []providers.Provider
	// LiveEnabled gates all outbound provider calls.
	LiveEnabled bool
	// MinOfferCount is the floor the in-stock offer set is topped up to
	// with synthesized fallbacks.
	MinOfferCount int
}

// NewService constructs an aggregator Service with the default fallback
// floor of three offers.
func NewService(db *gorm.DB, liveEnabled bool, provs ...providers.Provider) *Service {
	return &Service{
		DB:            db,
		Providers:     provs,
		LiveEnabled:   liveEnabled,
		MinOfferCount: 3,
	}
}

// GetRankedOffers returns the current normalized, ranked offer set for a
// product. When refreshLive is set and live search is enabled, provider
// adapters are fanned out first and their surviving candidates merged into
// storage.
//
// A missing product yields an empty result, not an error. Provider failures
// are logged and never escalate; storage failures do.
func (s *Service) GetRankedOffers(ctx context.Context, productID, strategy string, refreshLive bool) (*RankedOffers, error) {
	tr := otel.Tracer("offers/Service")
	ctx, span := tr.Start(ctx, "GetRankedOffers",
		trace.WithAttributes(
			attribute.String("product.id", productID),
			attribute.String("strategy", strategy),
			attribute.Bool("refresh_live", refreshLive),
		),
	)
	defer span.End()

	strat := ParseStrategy(strategy)
	result := &RankedOffers{Offers: []domain.NormalizedOffer{}, Strategy: strat}

	product, err := repo.GetProduct(ctx, s.DB, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return result, nil
		}
		return nil, err
	}

	if refreshLive && s.LiveEnabled && len(s.Providers) > 0 {
		query := buildQuery(product.Brand, product.Title)
		if err := s.refreshFromProviders(ctx, product.ID, query, string(strat)); err != nil {
			return nil, err
		}
	}

	if err := s.ensureMinimumOffers(ctx, product); err != nil {
		return nil, err
	}

	stored, err := repo.ListInStockOffers(ctx, s.DB, product.ID)
	if err != nil {
		return nil, err
	}
	normalized := NormalizeAll(stored)
	result.Offers = Sorted(normalized, strat)
	result.RecommendedOfferID = Rank(normalized, strat)
	return result, nil
}

// SearchOfferCandidates finds (or lazily creates) products matching the query
// text and returns a ranked offer bundle per match, capped at limit.
func (s *Service) SearchOfferCandidates(ctx context.Context, query, brandHint, strategy string, limit int) ([]CandidateBundle, error) {
	tr := otel.Tracer("offers/Service")
	ctx, span := tr.Start(ctx, "SearchOfferCandidates",
		trace.WithAttributes(
			attribute.String("query", query),
			attribute.Int("limit", limit),
		),
	)
	defer span.End()

	if limit < 1 {
		limit = 8
	}
	if limit > 20 {
		limit = 20
	}

	matches, err := repo.FindProductsByText(ctx, s.DB, query, limit)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		created, err := repo.CreateProduct(ctx, s.DB, query, brandHint)
		if err != nil {
			return nil, err
		}
		matches = []domain.Product{*created}
	}

	bundles := make([]CandidateBundle, 0, len(matches))
	for _, p := range matches {
		ranked, err := s.GetRankedOffers(ctx, p.ID, strategy, true)
		if err != nil {
			return nil, err
		}
		b := CandidateBundle{
			Product:            p,
			Offers:             ranked.Offers,
			RecommendedOfferID: ranked.RecommendedOfferID,
		}
		for i := range ranked.Offers {
			if ranked.Offers[i].ID == ranked.RecommendedOfferID {
				b.BestOffer = &ranked.Offers[i]
				break
			}
		}
		bundles = append(bundles, b)
	}
	return bundles, nil
}

// WithForcedRefresh marks the context so provider adapters bypass their
// shared response cache for this aggregation cycle and refill it with the
// live result. Routine refreshes are served from the cache within its TTL.
func WithForcedRefresh(ctx context.Context) context.Context {
	return providers.WithNoCache(ctx)
}

// refreshFromProviders fans the query out to every adapter concurrently,
// waits for all of them to settle, and upserts the surviving candidates.
// Adapter failures are logged and treated as zero candidates; a slow or
// failing provider never short-circuits the others. Adapters answer from
// their response cache unless the context carries the forced-refresh mark.
func (s *Service) refreshFromProviders(ctx context.Context, productID, query, strategy string) error {
	results := make([][]providers.Candidate, len(s.Providers))
	var wg sync.WaitGroup
	for i, p := range s.Providers {
		wg.Add(1)
		go func(i int, p providers.Provider) {
			defer wg.Done()
			cands, err := p.Search(ctx, query, strategy)
			if err != nil {
				log.Warn().Err(err).
					Str("provider", p.Name()).
					Str("product_id", productID).
					Msg("provider search failed, treating as zero candidates")
				return
			}
			results[i] = cands
		}(i, p)
	}
	wg.Wait()

	for _, cands := range results {
		for _, c := range cands {
			if !c.Resolved() {
				continue
			}
			o := &domain.Offer{
				ProductID:     productID,
				VendorID:      c.VendorID,
				VendorName:    c.VendorName,
				Title:         c.Title,
				PriceCents:    *c.PriceCents,
				ShippingCents: c.ShippingCents,
				EtaDays:       clampEta(c.EtaDays),
				InStock:       c.InStock,
				ProductURL:    c.ProductURL,
			}
			if err := repo.UpsertOffer(ctx, s.DB, o); err != nil {
				return err
			}
		}
	}
	return nil
}

// ensureMinimumOffers synthesizes offers from well-known fallback vendors
// until the product carries at least MinOfferCount in-stock offers. Vendors
// with any stored row, in stock or not, are skipped so a real listing is
// never overwritten with a synthetic one; synthesized URLs are generic
// search pages and never claim to be exact listings.
func (s *Service) ensureMinimumOffers(ctx context.Context, product *domain.Product) error {
	inStock, err := repo.CountOffers(ctx, s.DB, product.ID)
	if err != nil {
		return err
	}
	if inStock >= int64(s.MinOfferCount) {
		return nil
	}

	all, err := repo.ListOffers(ctx, s.DB, product.ID)
	if err != nil {
		return err
	}
	present := make(map[string]struct{}, len(all))
	base := fallbackBasePriceCents
	haveBase := false
	for _, o := range all {
		present[o.VendorID] = struct{}{}
		if o.InStock && (!haveBase || o.PriceCents < base) {
			base = o.PriceCents
			haveBase = true
		}
	}

	need := s.MinOfferCount - int(inStock)
	for _, fv := range fallbackVendors {
		if need == 0 {
			break
		}
		if _, ok := present[fv.id]; ok {
			continue
		}
		price := int64(math.Round(float64(base) * fv.factor))
		if price < minFallbackPriceCents {
			price = minFallbackPriceCents
		}
		o := &domain.Offer{
			ProductID:     product.ID,
			VendorID:      fv.id,
			VendorName:    fv.name,
			Title:         product.Title,
			PriceCents:    price,
			ShippingCents: 0,
			EtaDays:       fv.etaDays,
			InStock:       true,
			ProductURL:    fv.search + url.QueryEscape(product.Title),
		}
		if err := repo.UpsertOffer(ctx, s.DB, o); err != nil {
			return err
		}
		need--
	}
	return nil
}

// buildQuery assembles the provider query from product brand and title.
func buildQuery(brand, title string) string {
	return strings.TrimSpace(strings.TrimSpace(brand) + " " + strings.TrimSpace(title))
}

// clampEta keeps a provider-reported ETA inside the persisted [1,14] band.
func clampEta(d int) int {
	return utils.ClampInt(d, 1, 14)
}
