// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server settings,
// logging, database paths, rate limiting, provider credentials and feature
// flags, and the knobs of the offer aggregation and alert simulation.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// ProviderConfig holds the settings of one outbound search provider.
// Values are read once at startup and treated as immutable afterwards.
type ProviderConfig struct {
	Enabled bool
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// SearchConfig groups the live-search feature flags and provider settings.
type SearchConfig struct {
	// LiveEnabled gates all outbound provider calls. When false, aggregation
	// relies purely on stored offers and fallback synthesis.
	LiveEnabled bool

	// Serp is the general shopping search provider.
	Serp ProviderConfig
	// SerpRegion / SerpLanguage are fixed country/language query parameters.
	SerpRegion   string
	SerpLanguage string

	// Ebay is the marketplace provider with two-step hydration.
	Ebay ProviderConfig

	// RetailerLimit caps how many candidates a single provider response
	// contributes per cycle.
	RetailerLimit int

	// CacheTTL / CacheCap bound the process-wide provider response cache.
	CacheTTL time.Duration
	CacheCap int
}

// AlertsConfig groups the price-drift simulation knobs.
type AlertsConfig struct {
	// TickInterval drives the background simulation loop; 0 disables it
	// (ticks can still be triggered via the admin endpoint).
	TickInterval time.Duration
	// MirrorURL is an optional remote watchlist mirror that best-offer
	// updates are pushed to after a fire. Empty disables the push.
	MirrorURL string
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test

	// Logging
	LogLevel    string // debug|info|warn|error|fatal|panic
	LogPretty   bool
	APIBasePath string

	// App
	DBPath string
	// MinOfferCount is the floor the aggregator tops offers up to with
	// synthesized fallbacks.
	MinOfferCount int

	Search SearchConfig
	Alerts AlertsConfig

	// Rate limiting
	RateRPS   float64
	RateBurst int

	CORS CORSConfig
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:   getbool("LOG_PRETTY", false),
		APIBasePath: normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath:        getenv("DB_PATH", "offers.db"),
		MinOfferCount: getint("MIN_OFFER_COUNT", 3),

		Search: SearchConfig{
			LiveEnabled: getbool("LIVE_SEARCH_ENABLED", false),
			Serp: ProviderConfig{
				Enabled: getbool("SERP_ENABLED", true),
				BaseURL: getenv("SERP_BASE_URL", "https://serpapi.com"),
				APIKey:  getenv("SERP_API_KEY", ""),
				Timeout: getdur("SERP_TIMEOUT", 8*time.Second),
			},
			SerpRegion:   getenv("SERP_REGION", "us"),
			SerpLanguage: getenv("SERP_LANGUAGE", "en"),
			Ebay: ProviderConfig{
				Enabled: getbool("EBAY_ENABLED", true),
				BaseURL: getenv("EBAY_BASE_URL", "https://api.ebay.com"),
				APIKey:  getenv("EBAY_API_KEY", ""),
				Timeout: getdur("EBAY_TIMEOUT", 3500*time.Millisecond),
			},
			RetailerLimit: getint("RETAILER_LIMIT", 6),
			CacheTTL:      getdur("PROVIDER_CACHE_TTL", 5*time.Minute),
			CacheCap:      getint("PROVIDER_CACHE_CAP", 128),
		},

		Alerts: AlertsConfig{
			TickInterval: getdur("TICK_INTERVAL", 0),
			MirrorURL:    getenv("WATCH_MIRROR_URL", ""),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "offers-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.MinOfferCount < 0 {
		return cfg, errors.New("MIN_OFFER_COUNT must be >= 0")
	}
	if cfg.Search.Serp.Timeout <= 0 || cfg.Search.Ebay.Timeout <= 0 {
		return cfg, errors.New("provider timeouts must be positive durations")
	}
	if cfg.Search.RetailerLimit < 1 {
		return cfg, errors.New("RETAILER_LIMIT must be >= 1")
	}
	if cfg.Search.CacheTTL <= 0 {
		return cfg, errors.New("PROVIDER_CACHE_TTL must be > 0")
	}
	if cfg.Search.CacheCap < 1 {
		return cfg, errors.New("PROVIDER_CACHE_CAP must be >= 1")
	}
	if cfg.Alerts.TickInterval < 0 {
		return cfg, errors.New("TICK_INTERVAL must be >= 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
