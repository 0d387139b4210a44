package providers

import "testing"

func TestEbayItemID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.ebay.com/itm/123456789012", "123456789012"},
		{"https://www.ebay.com/itm/Cool-Widget/123456789012", "123456789012"},
		{"https://www.ebay.com/itm/123456789012?hash=abc&_trkparms=x", "123456789012"},
		{"https://www.ebay.com/itm/12345", ""}, // too short
		{"https://www.ebay.com/sch/i.html?_nkw=widget", ""},
		{"", ""},
	}
	for _, tc := range tests {
		if got := EbayItemID(tc.url); got != tc.want {
			t.Fatalf("EbayItemID(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}

func TestCanonicalizeURL(t *testing.T) {
	tests := []struct {
		name   string
		vendor string
		url    string
		want   string
	}{
		{
			"ebay rebuilt from item id",
			"ebay",
			"http://www.ebay.com/itm/Cool-Widget/123456789012?hash=abc#frag",
			"https://www.ebay.com/itm/123456789012",
		},
		{
			"ebay without item id drops query",
			"ebay",
			"https://www.ebay.com/b/Widgets/1234?rt=nc",
			"https://www.ebay.com/b/Widgets/1234",
		},
		{
			"walmart product page drops query",
			"walmart",
			"https://www.walmart.com/ip/Widget/12345?athbdg=L1600",
			"https://www.walmart.com/ip/Widget/12345",
		},
		{
			"walmart search keeps query",
			"walmart",
			"https://www.walmart.com/search?q=widget",
			"https://www.walmart.com/search?q=widget",
		},
		{
			"target product page drops query",
			"target",
			"https://www.target.com/p/widget/-/A-123?ref=tgt",
			"https://www.target.com/p/widget/-/A-123",
		},
		{
			"http upgraded and fragment stripped",
			"bestbuy",
			"http://www.bestbuy.com/site/widget/1.p#reviews",
			"https://www.bestbuy.com/site/widget/1.p",
		},
		{"empty", "ebay", "", ""},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := CanonicalizeURL(tc.vendor, tc.url); got != tc.want {
				t.Fatalf("CanonicalizeURL(%q, %q) = %q, want %q", tc.vendor, tc.url, got, tc.want)
			}
		})
	}
}

func TestVendorIDFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.walmart.com/ip/Widget/1", "walmart"},
		{"https://m.ebay.com/itm/123456789012", "ebay"},
		{"https://shop.example.co.uk/x", "shop"},
		{"not a url", ""},
		{"", ""},
	}
	for _, tc := range tests {
		if got := VendorIDFromURL(tc.url); got != tc.want {
			t.Fatalf("VendorIDFromURL(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}
