package ratelimit

import (
	"fmt"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

type environment struct {
	Enabled         bool   `env:"RATE_LIMIT_ENABLED,default=true"`
	DefaultLimit    int    `env:"RATE_LIMIT_DEFAULT_LIMIT,default=1000"`
	DefaultWindow   string `env:"RATE_LIMIT_DEFAULT_WINDOW,default=1m"`
	CleanupInterval string `env:"RATE_LIMIT_CLEANUP_INTERVAL,default=5m"`
	Whitelist       string `env:"RATE_LIMIT_WHITELIST"`
	Blacklist       string `env:"RATE_LIMIT_BLACKLIST"`
}

// LoadConfig loads rate limiting configuration from environment variables.
func LoadConfig() (*Config, error) {
	var e environment
	if _, err := env.UnmarshalFromEnviron(&e); err != nil {
		return nil, fmt.Errorf("invalid rate limit configuration: %w", err)
	}
	if !e.Enabled {
		return &Config{Enabled: false}, nil
	}

	window, err := time.ParseDuration(e.DefaultWindow)
	if err != nil || window <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_DEFAULT_WINDOW must be a positive duration, got %q", e.DefaultWindow)
	}
	cleanup, err := time.ParseDuration(e.CleanupInterval)
	if err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_CLEANUP_INTERVAL must be a duration, got %q", e.CleanupInterval)
	}
	if e.DefaultLimit < 1 {
		return nil, fmt.Errorf("RATE_LIMIT_DEFAULT_LIMIT must be at least 1, got %d", e.DefaultLimit)
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    e.DefaultLimit,
		DefaultWindow:   window,
		CleanupInterval: cleanup,
		Whitelist:       parseIPList(e.Whitelist),
		Blacklist:       parseIPList(e.Blacklist),
		EndpointConfigs: DefaultEndpointConfigs(),
	}, nil
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Launching spends contact-source credits and LLM calls.
		{Path: "/outreach/launch", Method: "POST", Limit: 10, Window: time.Hour, Burst: 3},

		// Workflow callbacks arrive in bursts while a batch runs.
		{Path: "/outreach/", Method: "POST", Limit: 600, Window: time.Minute, Burst: 60},

		// Status polling and event streams
		{Path: "/outreach/", Method: "GET", Limit: 300, Window: time.Minute, Burst: 30},
	}
}

// parseIPList parses a comma-separated list of IP addresses into a map.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
