// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS, and
// rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/dealradar/offers-backend/internal/alerts"
	"github.com/dealradar/offers-backend/internal/config"
	"github.com/dealradar/offers-backend/internal/http/handlers"
	"github.com/dealradar/offers-backend/internal/http/middleware"
	"github.com/dealradar/offers-backend/internal/offers"
	"github.com/dealradar/offers-backend/internal/providers"
)

// Services bundles the application services the router mounts endpoints for.
type Services struct {
	Offers *offers.Service
	Alerts *alerts.Service
}

// BuildServices constructs the provider adapters and application services
// from configuration. The provider response cache is shared across adapters.
func BuildServices(db *gorm.DB, cfg config.Config) Services {
	cache := providers.NewCache(cfg.Search.CacheTTL, cfg.Search.CacheCap)

	// An enabled provider without credentials is skipped: live fan-out only
	// makes sense when the adapter can actually authenticate upstream.
	var provs []providers.Provider
	if cfg.Search.Serp.Enabled && cfg.Search.Serp.APIKey != "" {
		provs = append(provs, providers.NewShoppingSearchProvider(providers.ShoppingSearchOptions{
			BaseURL:  cfg.Search.Serp.BaseURL,
			APIKey:   cfg.Search.Serp.APIKey,
			Region:   cfg.Search.SerpRegion,
			Language: cfg.Search.SerpLanguage,
			Limit:    cfg.Search.RetailerLimit,
			Timeout:  cfg.Search.Serp.Timeout,
			Cache:    cache,
		}))
	}
	if cfg.Search.Ebay.Enabled && cfg.Search.Ebay.APIKey != "" {
		provs = append(provs, providers.NewEbayProvider(providers.EbayOptions{
			BaseURL: cfg.Search.Ebay.BaseURL,
			APIKey:  cfg.Search.Ebay.APIKey,
			Limit:   cfg.Search.RetailerLimit,
			Timeout: cfg.Search.Ebay.Timeout,
			Cache:   cache,
		}))
	}

	offerSvc := offers.NewService(db, cfg.Search.LiveEnabled, provs...)
	offerSvc.MinOfferCount = cfg.MinOfferCount

	return Services{
		Offers: offerSvc,
		Alerts: alerts.NewService(db, cfg.Alerts.MirrorURL),
	}
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting,
// CORS, compression, health and metrics endpoints, and then mounts the
// versioned public API under the configured base path.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per user/IP)
//  8. CORS
//  9. Gzip compression
func RegisterRoutes(r *gin.Engine, svcs Services, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured access logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 8) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// 9) Compress responses (offer lists compress well)
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, "not_found", "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	oh := handlers.NewOffersHandler(svcs.Offers)
	wh := handlers.NewWatchlistHandler(svcs.Alerts)
	nh := handlers.NewNotificationsHandler(svcs.Alerts)
	ah := handlers.NewAdminHandler(svcs.Alerts)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Offers
		api.GET("/products/:id/offers", oh.GetProductOffers)
		api.GET("/offers/search", oh.SearchOffers)

		// Watchlist
		api.PUT("/watchlist/:productId", wh.PutWatch)
		api.GET("/watchlist", wh.ListWatches)
		api.DELETE("/watchlist/:productId", wh.DeleteWatch)

		// Notifications
		api.GET("/notifications", nh.ListNotifications)
		api.POST("/notifications/:id/ack", nh.AckNotification)

		// Admin
		api.POST("/admin/price-tick", ah.RunPriceTick)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
