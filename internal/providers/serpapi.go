// Package providers – general shopping search adapter
//
// This adapter queries a SerpAPI-compatible search endpoint and maps its
// heterogeneous result shapes (shopping results, inline shopping results,
// organic results) into candidates. The payload is treated as a set of known
// shapes with explicit, total mapping functions: unknown or missing fields
// map to defined defaults and never fail the parse.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const serpEngine = "google_shopping"

// defaultEtaDays is the vendor-agnostic shipping fallback when delivery text
// carries no "<n> day" phrase. eBay listings tend to ship a day faster.
const defaultEtaDays = 5

// ShoppingSearchOptions configures a ShoppingSearchProvider.
type ShoppingSearchOptions struct {
	BaseURL  string
	APIKey   string
	Region   string // country parameter, e.g. "us"
	Language string // language parameter, e.g. "en"
	Limit    int    // max candidates taken from one response
	Timeout  time.Duration
	Cache    *Cache
}

// ShoppingSearchProvider issues one general web-shopping search per
// aggregation cycle.
type ShoppingSearchProvider struct {
	baseURL  string
	apiKey   string
	region   string
	language string
	limit    int
	client   *http.Client
	cache    *Cache
	caser    cases.Caser
}

// NewShoppingSearchProvider constructs the adapter. Limit values below 1 are
// coerced to 5; a nil cache disables caching.
func NewShoppingSearchProvider(opts ShoppingSearchOptions) *ShoppingSearchProvider {
	limit := opts.Limit
	if limit < 1 {
		limit = 5
	}
	to := opts.Timeout
	if to <= 0 {
		to = 8 * time.Second
	}
	return &ShoppingSearchProvider{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		apiKey:   opts.APIKey,
		region:   opts.Region,
		language: opts.Language,
		limit:    limit,
		client:   &http.Client{Timeout: to},
		cache:    opts.Cache,
		caser:    cases.Title(language.English),
	}
}

// Name identifies the adapter in logs and metrics.
func (p *ShoppingSearchProvider) Name() string { return "serp" }

// Search runs the shopping query and maps every known result shape into
// candidates. Failures are returned as *Error for the aggregator to isolate.
func (p *ShoppingSearchProvider) Search(ctx context.Context, query, strategy string) ([]Candidate, error) {
	body, err := p.fetch(ctx, query)
	if err != nil {
		return nil, err
	}

	var resp serpResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &Error{Provider: p.Name(), Op: "decode", Err: err}
	}

	cands := make([]Candidate, 0, p.limit)
	for _, r := range resp.ShoppingResults {
		if c, ok := p.mapShopping(r); ok {
			cands = append(cands, c)
		}
	}
	for _, r := range resp.InlineShoppingResults {
		if c, ok := p.mapShopping(r); ok {
			cands = append(cands, c)
		}
	}
	for _, r := range resp.OrganicResults {
		if c, ok := p.mapOrganic(r); ok {
			cands = append(cands, c)
		}
	}
	if len(cands) > p.limit {
		cands = cands[:p.limit]
	}
	return cands, nil
}

// fetch performs the single outbound call, honoring the response cache
// unless the context is marked no-cache (in which case the cache is
// refreshed with the live body).
func (p *ShoppingSearchProvider) fetch(ctx context.Context, query string) ([]byte, error) {
	key := CacheKey{Engine: serpEngine, Host: p.baseURL, Limit: p.limit, Query: query}
	if p.cache != nil && !noCache(ctx) {
		if body, ok := p.cache.Get(key); ok {
			providerCacheHits.WithLabelValues(p.Name()).Inc()
			return body, nil
		}
	}

	q := url.Values{}
	q.Set("engine", serpEngine)
	q.Set("q", query)
	q.Set("gl", p.region)
	q.Set("hl", p.language)
	q.Set("num", strconv.Itoa(p.limit))
	q.Set("api_key", p.apiKey)

	reqURL := fmt.Sprintf("%s/search.json?%s", p.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &Error{Provider: p.Name(), Op: "request", Err: err}
	}

	res, err := p.client.Do(req)
	observeCall(p.Name(), err)
	if err != nil {
		return nil, &Error{Provider: p.Name(), Op: "search", Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		io.Copy(io.Discard, res.Body)
		return nil, &Error{Provider: p.Name(), Op: "search", Status: res.StatusCode}
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &Error{Provider: p.Name(), Op: "read", Err: err}
	}
	if p.cache != nil {
		p.cache.Put(key, body)
	}
	return body, nil
}

// --- known result shapes ---

type serpResponse struct {
	ShoppingResults       []serpShoppingResult `json:"shopping_results"`
	InlineShoppingResults []serpShoppingResult `json:"inline_shopping_results"`
	OrganicResults        []serpOrganicResult  `json:"organic_results"`
}

type serpShoppingResult struct {
	Position       int     `json:"position"`
	Title          string  `json:"title"`
	Price          string  `json:"price"`
	ExtractedPrice float64 `json:"extracted_price"`
	Link           string  `json:"link"`
	Source         string  `json:"source"`
	Delivery       string  `json:"delivery"`
	Snippet        string  `json:"snippet"`
}

type serpOrganicResult struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	RichSnippet struct {
		Top struct {
			DetectedExtensions struct {
				Price float64 `json:"price"`
			} `json:"detected_extensions"`
		} `json:"top"`
	} `json:"rich_snippet"`
}

// mapShopping converts a shopping-shaped result into a candidate. Results
// without a resolvable price or URL are dropped, not treated as errors.
func (p *ShoppingSearchProvider) mapShopping(r serpShoppingResult) (Candidate, bool) {
	vendorID := VendorIDFromURL(r.Link)
	if vendorID == "" {
		return Candidate{}, false
	}

	var price *int64
	if r.ExtractedPrice > 0 {
		c := int64(r.ExtractedPrice*100 + 0.5)
		price = &c
	} else {
		price = parsePriceCents(r.Price)
	}

	link := CanonicalizeURL(vendorID, r.Link)
	c := Candidate{
		VendorID:      vendorID,
		VendorName:    p.vendorName(vendorID, r.Source),
		Title:         r.Title,
		PriceCents:    price,
		ShippingCents: 0,
		EtaDays:       parseEtaDays(r.Delivery+" "+r.Snippet, etaFallback(vendorID)),
		InStock:       !strings.Contains(strings.ToLower(r.Snippet), "out of stock"),
		ProductURL:    link,
		SourceRank:    r.Position,
	}
	if !c.Resolved() {
		log.Debug().Str("provider", p.Name()).Str("link", r.Link).Msg("dropping unresolved shopping result")
		return Candidate{}, false
	}
	return c, true
}

// mapOrganic converts an organic result into a candidate when a price can be
// recovered from its rich snippet or text.
func (p *ShoppingSearchProvider) mapOrganic(r serpOrganicResult) (Candidate, bool) {
	vendorID := VendorIDFromURL(r.Link)
	if vendorID == "" {
		return Candidate{}, false
	}

	var price *int64
	if v := r.RichSnippet.Top.DetectedExtensions.Price; v > 0 {
		c := int64(v*100 + 0.5)
		price = &c
	} else {
		price = parsePriceCents(r.Snippet)
	}

	c := Candidate{
		VendorID:      vendorID,
		VendorName:    p.vendorName(vendorID, ""),
		Title:         r.Title,
		PriceCents:    price,
		ShippingCents: 0,
		EtaDays:       parseEtaDays(r.Snippet, etaFallback(vendorID)),
		InStock:       !strings.Contains(strings.ToLower(r.Snippet), "out of stock"),
		ProductURL:    CanonicalizeURL(vendorID, r.Link),
		SourceRank:    r.Position,
	}
	if !c.Resolved() {
		return Candidate{}, false
	}
	return c, true
}

// vendorName prefers the source string the provider reported and falls back
// to title-casing the vendor id.
func (p *ShoppingSearchProvider) vendorName(vendorID, source string) string {
	if s := strings.TrimSpace(source); s != "" {
		return s
	}
	return p.caser.String(vendorID)
}

// etaFallback is the vendor-specific shipping default applied when no ETA
// text is present.
func etaFallback(vendorID string) int {
	if vendorID == "ebay" {
		return 4
	}
	return defaultEtaDays
}
