package config

import "time"

// CacheConfig defines settings for the response cache placed in front of
// the public post listings.  When Enabled is false or no Redis client is
// configured, caching is disabled.  TTL bounds how stale a listing may be;
// writes purge the prefix, so the TTL only matters for writes made by other
// instances.  Listings larger than MaxBodyBytes are served but not stored.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		Prefix:       getenv("CACHE_PREFIX", "fj:posts"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}
