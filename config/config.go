package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment
// variables. Profitability thresholds and cache TTLs are deliberately
// configuration, not constants.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	FrontendURL string

	// Scraping
	EnabledMarketplaces []string
	AdapterDeadline     time.Duration
	ScrapeMaxRetries    int
	ScrapeBaseDelay     time.Duration

	// Result cache
	CacheTTLs       map[string]time.Duration
	DefaultCacheTTL time.Duration

	// Profitability tiers (profit margin percentage cutoffs)
	StrongMarginPct   float64
	MarginalMarginPct float64

	// Analyzer defaults
	DefaultWeightOz      float64
	DefaultPackagingCost float64

	// HTTP rate limiting
	RateLimit       int
	RateLimitWindow time.Duration
}

// Load reads the .env file (if present) and returns a populated Config.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, using environment variables")
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		EnabledMarketplaces: getEnvList("MARKETPLACES", []string{"ebay", "tcgplayer", "mercari"}),
		AdapterDeadline:     getEnvDuration("ADAPTER_DEADLINE_SEC", 30*time.Second),
		ScrapeMaxRetries:    getEnvInt("SCRAPE_MAX_RETRIES", 2),
		ScrapeBaseDelay:     getEnvDuration("SCRAPE_BASE_DELAY_SEC", 1*time.Second),

		CacheTTLs: map[string]time.Duration{
			"ebay":      getEnvDuration("CACHE_TTL_EBAY_SEC", 30*time.Minute),
			"tcgplayer": getEnvDuration("CACHE_TTL_TCGPLAYER_SEC", 60*time.Minute),
			"mercari":   getEnvDuration("CACHE_TTL_MERCARI_SEC", 30*time.Minute),
		},
		DefaultCacheTTL: getEnvDuration("CACHE_TTL_DEFAULT_SEC", 30*time.Minute),

		StrongMarginPct:   getEnvFloat("PROFIT_STRONG_MARGIN", 20.0),
		MarginalMarginPct: getEnvFloat("PROFIT_MARGINAL_MARGIN", 5.0),

		DefaultWeightOz:      getEnvFloat("DEFAULT_WEIGHT_OZ", 16.0),
		DefaultPackagingCost: getEnvFloat("DEFAULT_PACKAGING_COST", 1.50),

		RateLimit:       getEnvInt("RATE_LIMIT", 60),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW_SEC", time.Minute),
	}
}

// CacheTTL returns the TTL for a marketplace's cached scrape results.
func (c *Config) CacheTTL(marketplace string) time.Duration {
	if ttl, ok := c.CacheTTLs[marketplace]; ok {
		return ttl
	}
	return c.DefaultCacheTTL
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

// getEnvDuration reads an env var holding a whole number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
