package offers

import (
	"testing"

	"github.com/dealradar/offers-backend/internal/domain"
)

func TestListingVerified_VendorMarkers(t *testing.T) {
	tests := []struct {
		name   string
		vendor string
		url    string
		want   bool
	}{
		{"ebay item page", "ebay", "https://www.ebay.com/itm/123456789012", true},
		{"ebay search page", "ebay", "https://www.ebay.com/sch/i.html?_nkw=router", false},
		{"ebay item with search param", "ebay", "https://www.ebay.com/itm/123456789012?_nkw=router", false},
		{"walmart product page", "walmart", "https://www.walmart.com/ip/Widget/12345", true},
		{"walmart search page", "walmart", "https://www.walmart.com/search?q=widget", false},
		{"target product page", "target", "https://www.target.com/p/widget/-/A-12345", true},
		{"target search page", "target", "https://www.target.com/s?searchTerm=widget", false},
		{"amazon dp page", "amazon", "https://www.amazon.com/dp/B000000000", true},
		{"amazon gp product page", "amazon", "https://www.amazon.com/gp/product/B000000000", true},
		{"bestbuy site page", "bestbuy", "https://www.bestbuy.com/site/widget/12345.p", true},
		{"unknown vendor", "megamart", "https://www.megamart.com/item/123", false},
		{"vendor case-insensitive", "EBAY", "https://www.ebay.com/itm/123456789012", true},
		{"empty url", "ebay", "", false},
		{"non-marker path", "ebay", "https://www.ebay.com/b/Routers/11183", false},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := ListingVerified(tc.vendor, tc.url); got != tc.want {
				t.Fatalf("ListingVerified(%q, %q) = %v, want %v", tc.vendor, tc.url, got, tc.want)
			}
		})
	}
}

func TestListingVerified_GenericSearchKeyBlocksAnyVendor(t *testing.T) {
	// Marker present but query string carries a search key.
	for _, key := range []string{"q", "k", "query", "searchTerm", "_nkw"} {
		u := "https://www.walmart.com/ip/Widget/12345?" + key + "=widget"
		if ListingVerified("walmart", u) {
			t.Fatalf("expected %q to block verification", key)
		}
	}
}

func TestNormalize_ClassifiesListingType(t *testing.T) {
	exact := Normalize(domain.Offer{
		ID:         "o1",
		VendorID:   "walmart",
		ProductURL: "https://www.walmart.com/ip/Widget/12345",
		PriceCents: 1099,
	})
	if !exact.ListingVerified || exact.ListingType != domain.ListingTypeExact {
		t.Fatalf("expected EXACT classification, got %+v", exact)
	}

	est := Normalize(domain.Offer{
		ID:         "o2",
		VendorID:   "walmart",
		ProductURL: "https://www.walmart.com/search?q=widget",
		PriceCents: 1099,
	})
	if est.ListingVerified || est.ListingType != domain.ListingTypeEstimated {
		t.Fatalf("expected ESTIMATED classification, got %+v", est)
	}
}

func TestNormalizeAll_PreservesOrderAndFields(t *testing.T) {
	in := []domain.Offer{
		{ID: "a", VendorID: "ebay", PriceCents: 100, ShippingCents: 50, EtaDays: 3, InStock: true},
		{ID: "b", VendorID: "target", PriceCents: 200, EtaDays: 6},
	}
	out := NormalizeAll(in)
	if len(out) != 2 || out[0].ID != "a" || out[1].ID != "b" {
		t.Fatalf("order not preserved: %+v", out)
	}
	if out[0].TotalCents() != 150 {
		t.Fatalf("TotalCents = %d, want 150", out[0].TotalCents())
	}
	if out[1].InStock {
		t.Fatalf("InStock should carry through as false")
	}
}
