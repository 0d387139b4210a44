// Package offers – normalizer
//
// This file converts persisted offers into the wire shape returned to
// callers, deriving the listing classification. A URL counts as a verified
// listing for a vendor when it contains one of that vendor's known
// product-detail path markers and none of the generic search markers
// (catalog-search path segments or search query parameters). Verified
// listings are reported as EXACT, everything else as ESTIMATED.
//
// Normalization is a pure, total function: every stored offer maps to
// exactly one normalized offer, missing fields degrade to zero values, and
// nothing here can fail.
package offers

import (
	"net/url"
	"strings"

	"github.com/dealradar/offers-backend/internal/domain"
)

// vendorListingMarkers lists, per vendor, the path segments that identify a
// direct product-detail page.
var vendorListingMarkers = map[string][]string{
	"ebay":    {"/itm/"},
	"walmart": {"/ip/"},
	"target":  {"/p/"},
	"amazon":  {"/dp/", "/gp/product/"},
	"bestbuy": {"/site/"},
}

// searchQueryKeys are query-string parameters that mark a search-results
// page regardless of vendor.
var searchQueryKeys = []string{"q", "k", "query", "searchterm", "_nkw"}

// searchPathSegments are path fragments that mark catalog-search pages.
var searchPathSegments = []string{"/sch/", "/search", "/s/"}

// Normalize converts a persisted Offer into its wire shape, classifying the
// listing type from the product URL.
func Normalize(o domain.Offer) domain.NormalizedOffer {
	verified := ListingVerified(o.VendorID, o.ProductURL)
	lt := domain.ListingTypeEstimated
	if verified {
		lt = domain.ListingTypeExact
	}
	return domain.NormalizedOffer{
		ID:              o.ID,
		ProductID:       o.ProductID,
		VendorID:        o.VendorID,
		VendorName:      o.VendorName,
		Title:           o.Title,
		PriceCents:      o.PriceCents,
		ShippingCents:   o.ShippingCents,
		EtaDays:         o.EtaDays,
		InStock:         o.InStock,
		ProductURL:      o.ProductURL,
		ListingVerified: verified,
		ListingType:     lt,
	}
}

// NormalizeAll maps a slice of offers through Normalize, preserving order.
func NormalizeAll(offers []domain.Offer) []domain.NormalizedOffer {
	out := make([]domain.NormalizedOffer, 0, len(offers))
	for _, o := range offers {
		out = append(out, Normalize(o))
	}
	return out
}

// ListingVerified reports whether rawURL structurally matches a known
// product-detail pattern for vendorID. A URL containing any generic search
// marker is never verified, regardless of vendor.
func ListingVerified(vendorID, rawURL string) bool {
	if rawURL == "" {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	markers, ok := vendorListingMarkers[strings.ToLower(strings.TrimSpace(vendorID))]
	if !ok {
		return false
	}
	path := strings.ToLower(u.EscapedPath())
	matched := false
	for _, m := range markers {
		if strings.Contains(path, m) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}

	for _, seg := range searchPathSegments {
		if strings.Contains(path, seg) {
			return false
		}
	}
	for key := range u.Query() {
		k := strings.ToLower(key)
		for _, sk := range searchQueryKeys {
			if k == sk {
				return false
			}
		}
	}
	return true
}
