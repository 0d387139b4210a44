// Package providers – marketplace adapter with two-step resolution
//
// eBay is the highest-signal marketplace, so it gets a hydration step: the
// primary search yields a seed candidate (picked under the caller's ranking
// strategy), then a targeted item lookup by the extracted item id fetches
// authoritative price/title/ETA and overwrites the seed's fields. When the
// second call fails the adapter degrades to the original seed, never failing
// the whole search. Per aggregation cycle this adapter makes at most one
// primary call plus at most one hydration call.
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
)

const ebayEngine = "ebay_browse"

// EbayOptions configures an EbayProvider.
type EbayOptions struct {
	BaseURL string
	APIKey  string
	Limit   int
	Timeout time.Duration
	Cache   *Cache
}

// EbayProvider issues a Browse-style item-summary search plus one optional
// item hydration call.
type EbayProvider struct {
	baseURL string
	apiKey  string
	limit   int
	client  *http.Client
	cache   *Cache
}

// NewEbayProvider constructs the adapter. Limit values below 1 are coerced
// to 5; a nil cache disables caching.
func NewEbayProvider(opts EbayOptions) *EbayProvider {
	limit := opts.Limit
	if limit < 1 {
		limit = 5
	}
	to := opts.Timeout
	if to <= 0 {
		to = 3500 * time.Millisecond
	}
	return &EbayProvider{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		limit:   limit,
		client:  &http.Client{Timeout: to},
		cache:   opts.Cache,
	}
}

// Name identifies the adapter in logs and metrics.
func (p *EbayProvider) Name() string { return "ebay" }

// Search runs the primary item-summary search, then hydrates the best seed
// candidate with an item lookup. Hydration failure is logged and degrades to
// the seed; primary failure is returned as *Error.
func (p *EbayProvider) Search(ctx context.Context, query, strategy string) ([]Candidate, error) {
	body, err := p.fetchSearch(ctx, query)
	if err != nil {
		return nil, err
	}

	var resp ebaySearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &Error{Provider: p.Name(), Op: "decode", Err: err}
	}

	cands := make([]Candidate, 0, p.limit)
	for i, it := range resp.ItemSummaries {
		if c, ok := p.mapSummary(it, i+1); ok {
			cands = append(cands, c)
		}
		if len(cands) >= p.limit {
			break
		}
	}

	if seed := bestCandidate(cands, strategy); seed != nil {
		if id := EbayItemID(seed.ProductURL); id != "" {
			if err := p.hydrate(ctx, id, seed); err != nil {
				log.Warn().Err(err).Str("item_id", id).Msg("ebay hydration failed, keeping seed candidate")
			}
		}
	}
	return cands, nil
}

// fetchSearch performs the primary call, honoring the response cache unless
// the context is marked no-cache.
func (p *EbayProvider) fetchSearch(ctx context.Context, query string) ([]byte, error) {
	key := CacheKey{Engine: ebayEngine, Host: p.baseURL, Limit: p.limit, Query: query}
	if p.cache != nil && !noCache(ctx) {
		if body, ok := p.cache.Get(key); ok {
			providerCacheHits.WithLabelValues(p.Name()).Inc()
			return body, nil
		}
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(p.limit))
	reqURL := fmt.Sprintf("%s/buy/browse/v1/item_summary/search?%s", p.baseURL, q.Encode())

	body, err := p.doGET(ctx, "search", reqURL)
	if err != nil {
		return nil, err
	}
	if p.cache != nil {
		p.cache.Put(key, body)
	}
	return body, nil
}

// hydrate fetches authoritative fields for itemID and overwrites the seed
// candidate in place.
func (p *EbayProvider) hydrate(ctx context.Context, itemID string, seed *Candidate) error {
	reqURL := fmt.Sprintf("%s/buy/browse/v1/item/v1|%s|0", p.baseURL, url.PathEscape(itemID))
	body, err := p.doGET(ctx, "item", reqURL)
	if err != nil {
		return err
	}

	var it ebayItem
	if err := json.Unmarshal(body, &it); err != nil {
		return &Error{Provider: p.Name(), Op: "item decode", Err: err}
	}

	if price := parsePriceCents(it.Price.Value); price != nil {
		seed.PriceCents = price
	}
	if it.Title != "" {
		seed.Title = it.Title
	}
	if len(it.ShippingOptions) > 0 {
		opt := it.ShippingOptions[0]
		if c := parsePriceCents(opt.ShippingCost.Value); c != nil {
			seed.ShippingCents = *c
		}
		if d := deliveryDays(opt.MaxEstimatedDeliveryDate); d > 0 {
			seed.EtaDays = d
		}
	}
	return nil
}

// doGET issues one authenticated GET and returns the body, mapping network
// failures and non-2xx responses onto *Error.
func (p *EbayProvider) doGET(ctx context.Context, op, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &Error{Provider: p.Name(), Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Accept", "application/json")

	res, err := p.client.Do(req)
	observeCall(p.Name(), err)
	if err != nil {
		return nil, &Error{Provider: p.Name(), Op: op, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		io.Copy(io.Discard, res.Body)
		return nil, &Error{Provider: p.Name(), Op: op, Status: res.StatusCode}
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &Error{Provider: p.Name(), Op: op, Err: err}
	}
	return body, nil
}

// --- payload shapes ---

type ebaySearchResponse struct {
	ItemSummaries []ebayItemSummary `json:"itemSummaries"`
}

type ebayMoney struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type ebayShippingOption struct {
	ShippingCost             ebayMoney `json:"shippingCost"`
	MaxEstimatedDeliveryDate string    `json:"maxEstimatedDeliveryDate"`
}

type ebayItemSummary struct {
	ItemID          string               `json:"itemId"`
	Title           string               `json:"title"`
	Price           ebayMoney            `json:"price"`
	ItemWebURL      string               `json:"itemWebUrl"`
	ShippingOptions []ebayShippingOption `json:"shippingOptions"`
	Availability    string               `json:"availabilityStatus"`
}

type ebayItem struct {
	ItemID          string               `json:"itemId"`
	Title           string               `json:"title"`
	Price           ebayMoney            `json:"price"`
	ItemWebURL      string               `json:"itemWebUrl"`
	ShippingOptions []ebayShippingOption `json:"shippingOptions"`
}

// mapSummary converts one item summary into a candidate. Summaries without a
// resolvable price or URL are dropped.
func (p *EbayProvider) mapSummary(it ebayItemSummary, rank int) (Candidate, bool) {
	link := CanonicalizeURL("ebay", it.ItemWebURL)
	c := Candidate{
		VendorID:   "ebay",
		VendorName: "eBay",
		Title:      it.Title,
		PriceCents: parsePriceCents(it.Price.Value),
		InStock:    !strings.EqualFold(it.Availability, "OUT_OF_STOCK"),
		ProductURL: link,
		EtaDays:    etaFallback("ebay"),
		SourceRank: rank,
	}
	if len(it.ShippingOptions) > 0 {
		opt := it.ShippingOptions[0]
		if sc := parsePriceCents(opt.ShippingCost.Value); sc != nil {
			c.ShippingCents = *sc
		}
		if d := deliveryDays(opt.MaxEstimatedDeliveryDate); d > 0 {
			c.EtaDays = d
		}
	}
	if !c.Resolved() {
		return Candidate{}, false
	}
	return c, true
}

// deliveryDays converts an RFC3339 max-delivery timestamp into whole days
// from now, clamped to [1,14]. Returns 0 for absent or unparseable input.
func deliveryDays(ts string) int {
	if ts == "" {
		return 0
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return 0
	}
	d := int(time.Until(t).Hours() / 24)
	if d < 1 {
		d = 1
	}
	if d > 14 {
		d = 14
	}
	return d
}
