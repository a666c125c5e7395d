// Package config builds the process configuration from environment variables
// so main stays lean.
package config

import (
	"os"
	"strconv"
	"time"
)

// RedisConfig carries connection settings for the optional Redis result cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the full process configuration.
type Server struct {
	Addr string

	// RegistryPath points at the JSON source configuration; when empty the
	// built-in default sources are used.
	RegistryPath string

	CacheTTL      time.Duration
	Redis         RedisConfig
	MaxConcurrent int
	SearchTimeout time.Duration

	// FactoryStrict disables the stub fallback when every real access
	// strategy fails.
	FactoryStrict bool
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr:          envString("TITLESEARCH_ADDR", ":8080"),
		RegistryPath:  os.Getenv("TITLESEARCH_REGISTRY_PATH"),
		CacheTTL:      envDuration("TITLESEARCH_CACHE_TTL", time.Hour),
		MaxConcurrent: envInt("TITLESEARCH_MAX_CONCURRENT", 5),
		SearchTimeout: envDuration("TITLESEARCH_SEARCH_TIMEOUT", 300*time.Second),
		FactoryStrict: os.Getenv("TITLESEARCH_FACTORY_STRICT") == "true",
		Redis: RedisConfig{
			URL:          os.Getenv("TITLESEARCH_REDIS_URL"),
			PoolSize:     envInt("TITLESEARCH_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("TITLESEARCH_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("TITLESEARCH_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("TITLESEARCH_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("TITLESEARCH_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
