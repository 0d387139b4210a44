package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const serpFixture = `{
  "shopping_results": [
    {
      "position": 1,
      "title": "Anker USB Hub",
      "price": "$24.99",
      "extracted_price": 24.99,
      "link": "https://www.walmart.com/ip/Anker-USB-Hub/42?athbdg=L1600",
      "source": "Walmart",
      "delivery": "Delivery in 3 days"
    },
    {
      "position": 2,
      "title": "USB Hub (no price)",
      "link": "https://www.target.com/p/usb-hub/-/A-7"
    }
  ],
  "inline_shopping_results": [
    {
      "position": 1,
      "title": "Anker Hub Inline",
      "price": "$22.00",
      "link": "https://www.ebay.com/itm/123456789012?hash=x",
      "snippet": "2-day shipping"
    }
  ],
  "organic_results": [
    {
      "position": 5,
      "title": "Anker Hub at Best Buy",
      "link": "https://www.bestbuy.com/site/anker-hub/99.p",
      "snippet": "In stock now",
      "rich_snippet": {"top": {"detected_extensions": {"price": 26.5}}}
    },
    {
      "position": 6,
      "title": "Review: the best USB hubs",
      "link": "https://blog.example.com/usb-hubs",
      "snippet": "our favorite picks"
    }
  ]
}`

func newSerpServer(t *testing.T, calls *int, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		if r.URL.Path != "/search.json" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("engine") != "google_shopping" || q.Get("api_key") != "test-key" {
			t.Errorf("missing engine/api_key params: %v", q)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestShoppingSearch_MapsAllResultShapes(t *testing.T) {
	var calls int
	srv := newSerpServer(t, &calls, http.StatusOK, serpFixture)

	p := NewShoppingSearchProvider(ShoppingSearchOptions{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Region:  "us",
		Limit:   10,
		Timeout: 2 * time.Second,
	})

	cands, err := p.Search(context.Background(), "anker usb hub", "BEST_PRICE")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one outbound call, got %d", calls)
	}
	// walmart (shopping), ebay (inline), bestbuy (organic); the priceless
	// target row and the priceless blog row are dropped.
	if len(cands) != 3 {
		t.Fatalf("expected 3 candidates, got %d: %+v", len(cands), cands)
	}

	byVendor := map[string]Candidate{}
	for _, c := range cands {
		byVendor[c.VendorID] = c
	}

	w := byVendor["walmart"]
	if w.PriceCents == nil || *w.PriceCents != 2499 {
		t.Fatalf("walmart price = %v, want 2499", w.PriceCents)
	}
	if w.EtaDays != 3 {
		t.Fatalf("walmart ETA = %d, want 3 (from delivery text)", w.EtaDays)
	}
	if w.ProductURL != "https://www.walmart.com/ip/Anker-USB-Hub/42" {
		t.Fatalf("walmart URL not canonicalized: %q", w.ProductURL)
	}
	if w.VendorName != "Walmart" {
		t.Fatalf("walmart vendor name = %q", w.VendorName)
	}

	e := byVendor["ebay"]
	if e.ProductURL != "https://www.ebay.com/itm/123456789012" {
		t.Fatalf("ebay URL not rebuilt: %q", e.ProductURL)
	}
	if e.EtaDays != 2 {
		t.Fatalf("ebay ETA = %d, want 2 (from snippet)", e.EtaDays)
	}

	b := byVendor["bestbuy"]
	if b.PriceCents == nil || *b.PriceCents != 2650 {
		t.Fatalf("bestbuy price = %v, want 2650 (rich snippet)", b.PriceCents)
	}
	if b.VendorName != "Bestbuy" {
		t.Fatalf("organic vendor name should be title-cased id, got %q", b.VendorName)
	}
}

func TestShoppingSearch_LimitCapsCandidates(t *testing.T) {
	var calls int
	srv := newSerpServer(t, &calls, http.StatusOK, serpFixture)

	p := NewShoppingSearchProvider(ShoppingSearchOptions{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Limit:   1,
	})
	cands, err := p.Search(context.Background(), "q", "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("limit 1 should cap candidates, got %d", len(cands))
	}
}

func TestShoppingSearch_CacheHitSkipsOutboundCall(t *testing.T) {
	var calls int
	srv := newSerpServer(t, &calls, http.StatusOK, serpFixture)

	p := NewShoppingSearchProvider(ShoppingSearchOptions{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Limit:   10,
		Cache:   NewCache(time.Minute, 8),
	})

	if _, err := p.Search(context.Background(), "q", ""); err != nil {
		t.Fatalf("first Search: %v", err)
	}
	if _, err := p.Search(context.Background(), "q", ""); err != nil {
		t.Fatalf("second Search: %v", err)
	}
	if calls != 1 {
		t.Fatalf("second identical search should be served from cache, calls=%d", calls)
	}

	// Marked context bypasses the cache and refreshes it.
	if _, err := p.Search(WithNoCache(context.Background()), "q", ""); err != nil {
		t.Fatalf("no-cache Search: %v", err)
	}
	if calls != 2 {
		t.Fatalf("no-cache search must go outbound, calls=%d", calls)
	}
}

func TestShoppingSearch_NonOKStatusIsTypedError(t *testing.T) {
	var calls int
	srv := newSerpServer(t, &calls, http.StatusServiceUnavailable, `{}`)

	p := NewShoppingSearchProvider(ShoppingSearchOptions{BaseURL: srv.URL, APIKey: "test-key"})
	_, err := p.Search(context.Background(), "q", "")
	if err == nil {
		t.Fatalf("expected error on 503")
	}
	var pe *Error
	if !errors.As(err, &pe) || pe.Status != http.StatusServiceUnavailable || pe.Provider != "serp" {
		t.Fatalf("expected typed provider error with status, got %#v", err)
	}
}

func TestShoppingSearch_MalformedBodyIsTypedError(t *testing.T) {
	var calls int
	srv := newSerpServer(t, &calls, http.StatusOK, `{not json`)

	p := NewShoppingSearchProvider(ShoppingSearchOptions{BaseURL: srv.URL, APIKey: "test-key"})
	_, err := p.Search(context.Background(), "q", "")
	var pe *Error
	if !errors.As(err, &pe) || pe.Op != "decode" {
		t.Fatalf("expected decode error, got %#v", err)
	}
}

func TestShoppingSearch_OutOfStockSnippet(t *testing.T) {
	body := `{"shopping_results":[{"position":1,"title":"X","price":"$10.00",
		"link":"https://www.walmart.com/ip/X/1","snippet":"Currently out of stock"}]}`
	var calls int
	srv := newSerpServer(t, &calls, http.StatusOK, body)

	p := NewShoppingSearchProvider(ShoppingSearchOptions{BaseURL: srv.URL, APIKey: "test-key"})
	cands, err := p.Search(context.Background(), "q", "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(cands) != 1 || cands[0].InStock {
		t.Fatalf("snippet should mark candidate out of stock, got %+v", cands)
	}
}
