// Package providers contains the outbound search adapters that turn a
// product query into candidate offers. Each adapter issues a bounded-time
// request against one external search surface and maps its provider-specific
// payload into the common Candidate shape.
//
// Adapters are intentionally isolated: a failing or timed-out adapter
// surfaces a typed error to its own caller (the aggregator), which treats it
// as "zero candidates from this adapter". Nothing in this package escalates
// past that boundary.
package providers

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Candidate is an unpersisted offer parsed from a provider response, pending
// validation. A candidate is dropped entirely when its price or URL cannot
// be resolved.
type Candidate struct {
	VendorID      string
	VendorName    string
	Title         string
	PriceCents    *int64 // nil until parsed
	ShippingCents int64
	EtaDays       int
	InStock       bool
	ProductURL    string

	// SourceRank is the position the provider reported the result at,
	// kept as an adapter-internal ranking hint.
	SourceRank int
}

// Resolved reports whether the candidate carries a vendor identity, a parsed
// price, and a usable URL and may therefore be persisted.
func (c Candidate) Resolved() bool {
	return c.VendorID != "" && c.PriceCents != nil && *c.PriceCents > 0 && c.ProductURL != ""
}

// Provider is one external search surface.
type Provider interface {
	// Name identifies the adapter in logs and metrics.
	Name() string

	// Search issues at most one primary outbound call (plus, for adapters
	// that hydrate, at most one follow-up call) and returns the parsed
	// candidates. The call is bounded by the adapter's configured timeout.
	Search(ctx context.Context, query, strategy string) ([]Candidate, error)
}

// Error is the typed failure an adapter reports to the aggregator.
// Status is the HTTP status code when the provider answered with a non-2xx
// response, zero otherwise.
type Error struct {
	Provider string
	Op       string
	Status   int
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s: unexpected status %d", e.Provider, e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Op, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error { return e.Err }

// bestCandidate picks the seed candidate for hydration under the caller's
// strategy: fastest-shipping keys on ETA, everything else on total cost.
// Ties keep the earlier candidate.
func bestCandidate(cands []Candidate, strategy string) *Candidate {
	var best *Candidate
	for i := range cands {
		c := &cands[i]
		if !c.Resolved() || !c.InStock {
			continue
		}
		if best == nil || candidateLess(c, best, strategy) {
			best = c
		}
	}
	return best
}

func candidateLess(a, b *Candidate, strategy string) bool {
	if strings.EqualFold(strings.TrimSpace(strategy), "FASTEST_SHIPPING") {
		if a.EtaDays != b.EtaDays {
			return a.EtaDays < b.EtaDays
		}
	}
	return *a.PriceCents+a.ShippingCents < *b.PriceCents+b.ShippingCents
}

// --- shared parsing helpers ---

// priceRE extracts the first decimal number from a formatted price string
// ("$1,299.99", "USD 42").
var priceRE = regexp.MustCompile(`(\d+(?:,\d{3})*(?:\.\d{1,2})?)`)

// etaRE matches "<n> day(s)" phrases in delivery or snippet text.
var etaRE = regexp.MustCompile(`(?i)(\d+)[-\s]*day`)

// parsePriceCents converts a formatted price string into integer cents.
// Returns nil when no decimal number is present.
func parsePriceCents(s string) *int64 {
	m := priceRE.FindString(s)
	if m == "" {
		return nil
	}
	m = strings.ReplaceAll(m, ",", "")
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || f <= 0 {
		return nil
	}
	c := int64(f*100 + 0.5)
	return &c
}

// parseEtaDays extracts a shipping ETA from free text, clamped to [1,14].
// Returns fallback when no "<n> day" phrase is present.
func parseEtaDays(text string, fallback int) int {
	m := etaRE.FindStringSubmatch(text)
	if m == nil {
		return fallback
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return fallback
	}
	if n < 1 {
		n = 1
	}
	if n > 14 {
		n = 14
	}
	return n
}

// --- no-cache request marker ---

type noCacheKey struct{}

// WithNoCache marks the request context so adapters bypass the response
// cache and refresh it with the live result.
func WithNoCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, noCacheKey{}, true)
}

func noCache(ctx context.Context) bool {
	v, _ := ctx.Value(noCacheKey{}).(bool)
	return v
}
