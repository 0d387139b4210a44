// Package offers – ranking policy
//
// This file implements the pure offer ranking used by the aggregator and the
// alert engine. Three named strategies exist; BALANCED intentionally orders
// identically to BEST_PRICE and callers depend on that equivalence, so it
// must not grow its own weighting.
package offers

import (
	"sort"
	"strings"

	"github.com/dealradar/offers-backend/internal/domain"
)

// Strategy names a ranking policy.
type Strategy string

// Known strategies. Any unrecognized value behaves as StrategyBalanced.
const (
	StrategyBalanced        Strategy = "BALANCED"
	StrategyBestPrice       Strategy = "BEST_PRICE"
	StrategyFastestShipping Strategy = "FASTEST_SHIPPING"
)

// ParseStrategy maps a caller-supplied string onto a Strategy,
// case-insensitively. Unknown or empty values fall back to BALANCED.
func ParseStrategy(s string) Strategy {
	switch Strategy(strings.ToUpper(strings.TrimSpace(s))) {
	case StrategyBestPrice:
		return StrategyBestPrice
	case StrategyFastestShipping:
		return StrategyFastestShipping
	default:
		return StrategyBalanced
	}
}

// less orders offer a before offer b under the given strategy. Ties beyond
// both keys report false so that stable input order wins.
func less(a, b domain.NormalizedOffer, strategy Strategy) bool {
	switch strategy {
	case StrategyFastestShipping:
		if a.EtaDays != b.EtaDays {
			return a.EtaDays < b.EtaDays
		}
		return a.TotalCents() < b.TotalCents()
	default: // BEST_PRICE and BALANCED share one ordering
		if a.TotalCents() != b.TotalCents() {
			return a.TotalCents() < b.TotalCents()
		}
		return a.EtaDays < b.EtaDays
	}
}

// Rank selects the recommended offer id from a set of normalized offers under
// the given strategy. Only in-stock offers participate; an empty eligible set
// yields "". The function is pure and deterministic for a fixed input order.
func Rank(offers []domain.NormalizedOffer, strategy Strategy) string {
	var best *domain.NormalizedOffer
	for i := range offers {
		if !offers[i].InStock {
			continue
		}
		if best == nil || less(offers[i], *best, strategy) {
			best = &offers[i]
		}
	}
	if best == nil {
		return ""
	}
	return best.ID
}

// Sorted returns a copy of the in-stock offers ordered under the strategy.
// Used to present ranked lists to callers; Rank and Sorted agree on the top
// element.
func Sorted(offers []domain.NormalizedOffer, strategy Strategy) []domain.NormalizedOffer {
	out := make([]domain.NormalizedOffer, 0, len(offers))
	for _, o := range offers {
		if o.InStock {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j], strategy) })
	return out
}

// BestOffer is the single shared "lowest total, tie-break lowest ETA"
// reduction used by every watch-evaluation path. When the watch item pins a
// preferred offer (by offer id, vendor id, or product URL, in that order of
// precedence), a matching in-stock offer wins over the computed best.
//
// Only in-stock offers are considered. Returns nil when none are eligible.
func BestOffer(offers []domain.Offer, w *domain.WatchItem) *domain.Offer {
	inStock := make([]domain.Offer, 0, len(offers))
	for _, o := range offers {
		if o.InStock {
			inStock = append(inStock, o)
		}
	}
	if len(inStock) == 0 {
		return nil
	}

	if w != nil {
		if w.PreferredOfferID != nil && *w.PreferredOfferID != "" {
			for i := range inStock {
				if inStock[i].ID == *w.PreferredOfferID {
					return &inStock[i]
				}
			}
		}
		if w.PreferredVendorID != nil && *w.PreferredVendorID != "" {
			for i := range inStock {
				if inStock[i].VendorID == *w.PreferredVendorID {
					return &inStock[i]
				}
			}
		}
		if w.PreferredProductURL != nil && *w.PreferredProductURL != "" {
			for i := range inStock {
				if inStock[i].ProductURL == *w.PreferredProductURL {
					return &inStock[i]
				}
			}
		}
	}

	best := &inStock[0]
	for i := 1; i < len(inStock); i++ {
		o := &inStock[i]
		if o.TotalCents() < best.TotalCents() ||
			(o.TotalCents() == best.TotalCents() && o.EtaDays < best.EtaDays) {
			best = o
		}
	}
	return best
}
