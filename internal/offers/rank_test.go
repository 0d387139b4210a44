package offers

import (
	"testing"

	"github.com/dealradar/offers-backend/internal/domain"
)

func no(id string, price, shipping int64, eta int, inStock bool) domain.NormalizedOffer {
	return domain.NormalizedOffer{
		ID:            id,
		PriceCents:    price,
		ShippingCents: shipping,
		EtaDays:       eta,
		InStock:       inStock,
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in   string
		want Strategy
	}{
		{"BEST_PRICE", StrategyBestPrice},
		{"best_price", StrategyBestPrice},
		{"  fastest_shipping ", StrategyFastestShipping},
		{"BALANCED", StrategyBalanced},
		{"", StrategyBalanced},
		{"nonsense", StrategyBalanced},
	}
	for _, tc := range tests {
		if got := ParseStrategy(tc.in); got != tc.want {
			t.Fatalf("ParseStrategy(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRank_BestPrice_UsesTotalThenEta(t *testing.T) {
	offers := []domain.NormalizedOffer{
		no("pricey", 2000, 0, 1, true),
		no("cheap-slow", 1000, 0, 9, true),
		no("cheap-fast", 900, 100, 2, true), // same total as cheap-slow
	}
	if got := Rank(offers, StrategyBestPrice); got != "cheap-fast" {
		t.Fatalf("Rank = %q, want cheap-fast (total tie broken by ETA)", got)
	}
}

func TestRank_FastestShipping_UsesEtaThenTotal(t *testing.T) {
	offers := []domain.NormalizedOffer{
		no("slow-cheap", 500, 0, 7, true),
		no("fast-pricey", 3000, 0, 2, true),
		no("fast-cheap", 2500, 0, 2, true),
	}
	if got := Rank(offers, StrategyFastestShipping); got != "fast-cheap" {
		t.Fatalf("Rank = %q, want fast-cheap (ETA tie broken by total)", got)
	}
}

func TestRank_BalancedMatchesBestPrice(t *testing.T) {
	offers := []domain.NormalizedOffer{
		no("a", 1500, 200, 4, true),
		no("b", 1600, 0, 8, true),
		no("c", 1500, 150, 3, true),
	}
	if Rank(offers, StrategyBalanced) != Rank(offers, StrategyBestPrice) {
		t.Fatalf("BALANCED must order identically to BEST_PRICE")
	}
}

func TestRank_SkipsOutOfStockAndHandlesEmpty(t *testing.T) {
	offers := []domain.NormalizedOffer{
		no("oos", 100, 0, 1, false),
		no("available", 5000, 0, 9, true),
	}
	if got := Rank(offers, StrategyBestPrice); got != "available" {
		t.Fatalf("Rank = %q, want available", got)
	}
	if got := Rank(nil, StrategyBestPrice); got != "" {
		t.Fatalf("Rank(nil) = %q, want empty", got)
	}
	if got := Rank([]domain.NormalizedOffer{no("oos", 1, 0, 1, false)}, StrategyBalanced); got != "" {
		t.Fatalf("all-out-of-stock should rank to empty, got %q", got)
	}
}

func TestRank_StableOnFullTie(t *testing.T) {
	offers := []domain.NormalizedOffer{
		no("first", 1000, 0, 5, true),
		no("second", 1000, 0, 5, true),
	}
	if got := Rank(offers, StrategyBestPrice); got != "first" {
		t.Fatalf("full tie must keep input order, got %q", got)
	}
}

func TestSorted_AgreesWithRankAndFiltersStock(t *testing.T) {
	offers := []domain.NormalizedOffer{
		no("oos", 10, 0, 1, false),
		no("mid", 1500, 0, 5, true),
		no("top", 1000, 0, 5, true),
	}
	got := Sorted(offers, StrategyBestPrice)
	if len(got) != 2 {
		t.Fatalf("Sorted should drop out-of-stock, got %d entries", len(got))
	}
	if got[0].ID != Rank(offers, StrategyBestPrice) {
		t.Fatalf("Sorted[0] = %q disagrees with Rank = %q", got[0].ID, Rank(offers, StrategyBestPrice))
	}
	// input untouched
	if offers[1].ID != "mid" {
		t.Fatalf("Sorted must not mutate its input")
	}
}

func off(id, vendor, u string, price int64, eta int, inStock bool) domain.Offer {
	return domain.Offer{ID: id, VendorID: vendor, ProductURL: u, PriceCents: price, EtaDays: eta, InStock: inStock}
}

func TestBestOffer_LowestTotalTieEta(t *testing.T) {
	offers := []domain.Offer{
		off("a", "ebay", "", 1200, 4, true),
		off("b", "walmart", "", 1100, 6, true),
		off("c", "target", "", 1100, 5, true),
	}
	best := BestOffer(offers, nil)
	if best == nil || best.ID != "c" {
		t.Fatalf("BestOffer = %+v, want c", best)
	}
}

func TestBestOffer_EmptyAndOutOfStock(t *testing.T) {
	if BestOffer(nil, nil) != nil {
		t.Fatalf("BestOffer(nil) must be nil")
	}
	offers := []domain.Offer{off("a", "ebay", "", 100, 1, false)}
	if BestOffer(offers, nil) != nil {
		t.Fatalf("all-out-of-stock must yield nil")
	}
}

func TestBestOffer_PinPrecedence(t *testing.T) {
	offers := []domain.Offer{
		off("cheapest", "ebay", "https://e/1", 1000, 4, true),
		off("pinned-id", "walmart", "https://w/1", 2000, 6, true),
		off("pinned-vendor", "target", "https://t/1", 3000, 7, true),
	}

	oid := "pinned-id"
	vid := "target"
	purl := "https://t/1"

	// Offer id beats vendor id and URL.
	w := &domain.WatchItem{PreferredOfferID: &oid, PreferredVendorID: &vid, PreferredProductURL: &purl}
	if best := BestOffer(offers, w); best == nil || best.ID != "pinned-id" {
		t.Fatalf("offer-id pin must win, got %+v", best)
	}

	// Vendor id beats URL.
	w = &domain.WatchItem{PreferredVendorID: &vid, PreferredProductURL: &purl}
	if best := BestOffer(offers, w); best == nil || best.ID != "pinned-vendor" {
		t.Fatalf("vendor pin must win over URL pin, got %+v", best)
	}

	// URL alone.
	w = &domain.WatchItem{PreferredProductURL: &purl}
	if best := BestOffer(offers, w); best == nil || best.ID != "pinned-vendor" {
		t.Fatalf("URL pin must match, got %+v", best)
	}
}

func TestBestOffer_PinIgnoredWhenOutOfStockOrMissing(t *testing.T) {
	offers := []domain.Offer{
		off("cheapest", "ebay", "", 1000, 4, true),
		off("pinned", "walmart", "", 2000, 6, false),
	}
	oid := "pinned"
	w := &domain.WatchItem{PreferredOfferID: &oid}
	if best := BestOffer(offers, w); best == nil || best.ID != "cheapest" {
		t.Fatalf("out-of-stock pin must fall back to computed best, got %+v", best)
	}

	missing := "no-such-offer"
	w = &domain.WatchItem{PreferredOfferID: &missing}
	if best := BestOffer(offers, w); best == nil || best.ID != "cheapest" {
		t.Fatalf("missing pin must fall back to computed best, got %+v", best)
	}
}
