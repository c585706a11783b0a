// Package config provides configuration loading and validation for the service and CLI.
package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	env "github.com/Netflix/go-env"
)

// Config holds every setting the outreach service reads from the environment.
// Optional upstreams are disabled when their key is empty.
type Config struct {
	// Storage
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"` // Optional profile page cache

	// HTTP
	Port          int    `env:"PORT,default=8080"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL,default=http://localhost:8080"`
	LogLevel      string `env:"LOG_LEVEL,default=info"`
	CORSOrigins   string `env:"CORS_ALLOWED_ORIGINS,default=*"` // Comma-separated

	// Contact source (Apollo.io)
	ApolloAPIKey            string `env:"APOLLO_API_KEY"`
	ApolloBaseURL           string `env:"APOLLO_BASE_URL,default=https://api.apollo.io/v1"`
	ApolloRequestsPerMinute int    `env:"APOLLO_REQUESTS_PER_MINUTE,default=50"`

	// Profile enrichment (scraping proxy)
	BrightDataAPIKey string `env:"BRIGHT_DATA_API_KEY"`
	BrightDataProxy  string `env:"BRIGHT_DATA_PROXY,default=brd.superproxy.io:33335"`
	EnrichUseBrowser bool   `env:"ENRICH_USE_BROWSER,default=false"`

	// Profile discovery for contacts without a profile URL (Google Custom Search)
	GoogleSearchAPIKey string `env:"GOOGLE_SEARCH_API_KEY"`
	GoogleSearchCX     string `env:"GOOGLE_SEARCH_CX"`

	// Drafting (Gemini)
	GeminiAPIKey string `env:"GEMINI_API_KEY"`

	// Outreach
	MaxContacts      int    `env:"OUTREACH_MAX_CONTACTS,default=5"`
	WebhookURL       string `env:"OUTREACH_WEBHOOK_URL"`     // External workflow replaces the in-process orchestrator when set
	CallbackSecret   string `env:"OUTREACH_CALLBACK_SECRET"` // Signs batch-scoped callback tokens
	RetryMaxAttempts int    `env:"RETRY_MAX_ATTEMPTS,default=3"`
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// It does not require upstream keys; callers check those for the mode they run in.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("config error: DATABASE_URL is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config error: PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.MaxContacts < 1 {
		return fmt.Errorf("config error: OUTREACH_MAX_CONTACTS must be at least 1, got %d", c.MaxContacts)
	}
	if c.RetryMaxAttempts < 1 || c.RetryMaxAttempts > 5 {
		return fmt.Errorf("config error: RETRY_MAX_ATTEMPTS must be between 1 and 5, got %d", c.RetryMaxAttempts)
	}
	if c.ApolloRequestsPerMinute < 1 {
		return fmt.Errorf("config error: APOLLO_REQUESTS_PER_MINUTE must be positive")
	}
	if _, err := url.ParseRequestURI(c.ApolloBaseURL); err != nil {
		return fmt.Errorf("config error: invalid APOLLO_BASE_URL: %w", err)
	}
	if c.BrightDataAPIKey != "" {
		if _, _, err := net.SplitHostPort(c.BrightDataProxy); err != nil {
			return fmt.Errorf("config error: BRIGHT_DATA_PROXY must be host:port: %w", err)
		}
	}
	if c.WebhookURL != "" {
		if _, err := url.ParseRequestURI(c.WebhookURL); err != nil {
			return fmt.Errorf("config error: invalid OUTREACH_WEBHOOK_URL: %w", err)
		}
		if c.CallbackSecret == "" {
			return fmt.Errorf("config error: OUTREACH_CALLBACK_SECRET is required when OUTREACH_WEBHOOK_URL is set")
		}
	}
	return nil
}

// ProxyURL returns the scraping proxy URL with the API key as credentials,
// or an empty string when enrichment through the proxy is not configured.
func (c *Config) ProxyURL() string {
	if c.BrightDataAPIKey == "" || c.BrightDataProxy == "" {
		return ""
	}
	u := &url.URL{
		Scheme: "http",
		User:   url.UserPassword(c.BrightDataAPIKey, ""),
		Host:   c.BrightDataProxy,
	}
	return u.String()
}

// ProfileSearchEnabled reports whether missing profile URLs are looked up via web search.
func (c *Config) ProfileSearchEnabled() bool {
	return c.GoogleSearchAPIKey != "" && c.GoogleSearchCX != ""
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS into a list.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// WorkflowMode reports whether launches are delegated to an external workflow engine.
func (c *Config) WorkflowMode() bool {
	return c.WebhookURL != ""
}
