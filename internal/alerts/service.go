// Package alerts – service wiring
//
// The Service owns everything downstream of a stored offer set: watch-item
// lifecycle, the periodic price-drift simulation, alert evaluation, and the
// notification queue. It is constructed once at startup and is safe for
// concurrent use; the drift tick itself is single-flight.
package alerts

import (
	"math/rand"
	"net/http"
	"sync"
	"time"

	"gorm.io/gorm"
)

// Service implements watch, tick, and notification use-cases.
type Service struct {
	// DB is the GORM handle used for all persistence.
	DB *gorm.DB

	// MirrorURL is an optional remote watchlist mirror. After a local watch
	// mutation or a fired alert, the current best offer is pushed there on a
	// detached goroutine with its own failure isolation. Empty disables the
	// push.
	MirrorURL string

	// mirror is the HTTP client used for mirror pushes.
	mirror *http.Client

	// rng drives the price/ETA perturbation. Injectable for deterministic
	// tests.
	rng *rand.Rand

	// tickMu makes RunPriceTick single-flight.
	tickMu sync.Mutex

	// now is a clock seam for tests.
	now func() time.Time
}

// NewService constructs an alerts Service. The perturbation source is seeded
// from the wall clock; tests may replace it via SetRand.
func NewService(db *gorm.DB, mirrorURL string) *Service {
	return &Service{
		DB:        db,
		MirrorURL: mirrorURL,
		mirror:    &http.Client{Timeout: 5 * time.Second},
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       time.Now,
	}
}

// SetRand replaces the perturbation source. Intended for tests that need a
// deterministic drift.
func (s *Service) SetRand(r *rand.Rand) { s.rng = r }
