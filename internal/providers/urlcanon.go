// Package providers – vendor URL canonicalization
//
// Result URLs from search providers arrive with tracking parameters,
// fragments, and mobile hosts. Canonicalization makes them comparable and
// lets the normalizer classify them: https is forced and fragments are
// stripped for every vendor; eBay URLs are rebuilt to the stable
// /itm/<id> form (the item id is the only part that matters); Walmart and
// Target keep their path but lose query strings only when the
// product-detail segment is present, so search URLs pass through unchanged.
package providers

import (
	"net/url"
	"regexp"
	"strings"
)

// ebayItemIDRE captures the numeric item identifier in an /itm/ path.
var ebayItemIDRE = regexp.MustCompile(`/itm/(?:[^/]+/)?(\d{9,15})`)

// EbayItemID extracts the numeric item id from an eBay listing URL,
// or "" when none is present.
func EbayItemID(rawURL string) string {
	m := ebayItemIDRE.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	return m[1]
}

// CanonicalizeURL normalizes a provider result URL for the given vendor.
// Unparseable URLs are returned unchanged.
func CanonicalizeURL(vendorID, rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Scheme = "https"
	u.Fragment = ""

	switch strings.ToLower(strings.TrimSpace(vendorID)) {
	case "ebay":
		if id := EbayItemID(u.Path); id != "" {
			return "https://www.ebay.com/itm/" + id
		}
		// No stable item id: keep the URL but drop tracking params.
		u.RawQuery = ""
	case "walmart":
		if strings.Contains(u.Path, "/ip/") {
			u.RawQuery = ""
		}
	case "target":
		if strings.Contains(u.Path, "/p/") {
			u.RawQuery = ""
		}
	}
	return u.String()
}

// VendorIDFromURL derives a stable vendor id from a result URL's host:
// "www.walmart.com" becomes "walmart". Returns "" for unparseable URLs.
func VendorIDFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")
	if i := strings.IndexByte(host, '.'); i > 0 {
		host = host[:i]
	}
	return host
}
