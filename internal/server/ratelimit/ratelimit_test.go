package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// fixedClock returns a limiter clock that only moves when advanced.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(config *Config) (*Limiter, *fixedClock) {
	clock := &fixedClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	limiter := NewLimiter(config)
	limiter.now = clock.Now
	return limiter, clock
}

func TestLimiter_Allow(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	clientID := "127.0.0.1"

	// Should allow requests up to limit
	for i := 0; i < 10; i++ {
		allowed, rateInfo := limiter.Allow(clientID, "/test", "GET")
		if !allowed {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
		if rateInfo.Limit != 10 {
			t.Errorf("Expected limit 10, got %d", rateInfo.Limit)
		}
		if rateInfo.Remaining != 9-i {
			t.Errorf("Expected remaining %d, got %d", 9-i, rateInfo.Remaining)
		}
	}

	// 11th request should be denied
	allowed, rateInfo := limiter.Allow(clientID, "/test", "GET")
	if allowed {
		t.Error("Expected 11th request to be denied")
	}
	if rateInfo.Remaining != 0 {
		t.Errorf("Expected remaining 0, got %d", rateInfo.Remaining)
	}
	// 10 per minute refills one token every 6 seconds
	if rateInfo.RetryAfter < 5900*time.Millisecond || rateInfo.RetryAfter > 6100*time.Millisecond {
		t.Errorf("Expected retry after 6s, got %v", rateInfo.RetryAfter)
	}
	if !rateInfo.ResetTime.After(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("Reset time should be in the future")
	}
}

func TestLimiter_DeniedRequestDoesNotConsume(t *testing.T) {
	limiter, clock := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Second,
	})
	defer limiter.Stop()

	if allowed, _ := limiter.Allow("c", "/test", "GET"); !allowed {
		t.Fatal("Expected first request to be allowed")
	}
	for i := 0; i < 3; i++ {
		if allowed, _ := limiter.Allow("c", "/test", "GET"); allowed {
			t.Fatal("Expected request to be denied")
		}
	}

	clock.Advance(time.Second)
	if allowed, _ := limiter.Allow("c", "/test", "GET"); !allowed {
		t.Error("Expected request to be allowed after refill")
	}
}

func TestLimiter_Refill(t *testing.T) {
	limiter, clock := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  60,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	for i := 0; i < 60; i++ {
		limiter.Allow("c", "/test", "GET")
	}
	if allowed, _ := limiter.Allow("c", "/test", "GET"); allowed {
		t.Fatal("Expected bucket to be empty")
	}

	clock.Advance(time.Second)

	if allowed, _ := limiter.Allow("c", "/test", "GET"); !allowed {
		t.Error("Expected request to be allowed after refill")
	}
	if allowed, _ := limiter.Allow("c", "/test", "GET"); allowed {
		t.Error("Expected request to be denied after consuming refilled token")
	}
}

func TestLimiter_Whitelist(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"127.0.0.1": true},
	})
	defer limiter.Stop()

	for i := 0; i < 100; i++ {
		allowed, rateInfo := limiter.Allow("127.0.0.1", "/test", "GET")
		if !allowed {
			t.Errorf("Expected whitelisted request %d to be allowed", i+1)
		}
		if rateInfo.Limit != 0 {
			t.Errorf("Expected limit 0 for whitelisted, got %d", rateInfo.Limit)
		}
	}
}

func TestLimiter_Blacklist(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		Blacklist:     map[string]bool{"192.168.1.1": true},
	})
	defer limiter.Stop()

	if allowed, _ := limiter.Allow("192.168.1.1", "/test", "GET"); allowed {
		t.Error("Expected blacklisted request to be denied")
	}
}

func TestLimiter_Disabled(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{Enabled: false})
	defer limiter.Stop()

	for i := 0; i < 100; i++ {
		allowed, rateInfo := limiter.Allow("127.0.0.1", "/test", "GET")
		if !allowed {
			t.Errorf("Expected request %d to be allowed when disabled", i+1)
		}
		if rateInfo.Limit != 0 {
			t.Errorf("Expected limit 0 when disabled, got %d", rateInfo.Limit)
		}
	}
}

func TestLimiter_EndpointSpecific(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		EndpointConfigs: DefaultEndpointConfigs(),
	})
	defer limiter.Stop()

	clientID := "127.0.0.1"

	// Launch allows a burst of 3
	for i := 0; i < 3; i++ {
		allowed, rateInfo := limiter.Allow(clientID, "/outreach/launch", "POST")
		if !allowed {
			t.Errorf("Expected launch %d to be allowed", i+1)
		}
		if rateInfo.Limit != 10 {
			t.Errorf("Expected limit 10, got %d", rateInfo.Limit)
		}
	}
	if allowed, _ := limiter.Allow(clientID, "/outreach/launch", "POST"); allowed {
		t.Error("Expected 4th launch to be denied")
	}

	// Callbacks have their own bucket
	if allowed, rateInfo := limiter.Allow(clientID, "/outreach/abc/update", "POST"); !allowed || rateInfo.Limit != 600 {
		t.Errorf("Expected callback to be allowed with limit 600, got %v %d", allowed, rateInfo.Limit)
	}

	// Other paths use the default limit
	allowed, rateInfo := limiter.Allow(clientID, "/other", "GET")
	if !allowed {
		t.Error("Expected different endpoint to be allowed")
	}
	if rateInfo.Limit != 1000 {
		t.Errorf("Expected default limit 1000, got %d", rateInfo.Limit)
	}
}

func TestLimiter_PrefixRuleSharesBucket(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		EndpointConfigs: []EndpointConfig{
			{Path: "/outreach/", Method: "GET", Limit: 2, Window: time.Minute},
		},
	})
	defer limiter.Stop()

	limiter.Allow("c", "/outreach/a/status", "GET")
	limiter.Allow("c", "/outreach/b/status", "GET")
	if allowed, _ := limiter.Allow("c", "/outreach/c/status", "GET"); allowed {
		t.Error("Expected status polls across batches to share one bucket")
	}
	if allowed, _ := limiter.Allow("other-client", "/outreach/c/status", "GET"); !allowed {
		t.Error("Expected another client to have its own bucket")
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		if allowed, _ := limiter.Allow("c", "/health", "GET"); !allowed {
			t.Fatal("Expected health checks to be unlimited")
		}
		if allowed, _ := limiter.Allow("c", "/metrics", "GET"); !allowed {
			t.Fatal("Expected metrics scrapes to be unlimited")
		}
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0

	// Make 200 concurrent requests (should only allow 100)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _ := limiter.Allow("127.0.0.1", "/test", "GET"); allowed {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowedCount != 100 {
		t.Errorf("Expected 100 allowed requests, got %d", allowedCount)
	}
}

func TestLimiter_CleanupDropsIdleBuckets(t *testing.T) {
	limiter, clock := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		limiter.Allow(fmt.Sprintf("127.0.0.%d", i+1), "/test", "GET")
	}
	clock.Advance(30 * time.Minute)
	for i := 0; i < 5; i++ {
		limiter.Allow(fmt.Sprintf("127.0.0.%d", i+1), "/test", "GET")
	}
	clock.Advance(45 * time.Minute)

	limiter.cleanupBuckets()

	if n := limiter.size(); n != 5 {
		t.Errorf("Expected 5 buckets after cleanup, got %d", n)
	}
}

func TestLimiter_StopTwice(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute, CleanupInterval: time.Minute})
	limiter.Stop()
	limiter.Stop()
}

func TestNewLimiter_NilConfig(t *testing.T) {
	limiter := NewLimiter(nil)
	defer limiter.Stop()

	allowed, rateInfo := limiter.Allow("127.0.0.1", "/test", "GET")
	if !allowed {
		t.Error("Expected request to be allowed with default config")
	}
	if rateInfo.Limit != 1000 {
		t.Errorf("Expected default limit 1000, got %d", rateInfo.Limit)
	}
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs()

	tests := []struct {
		path, method string
		wantPath     string
		wantNil      bool
	}{
		{"/outreach/launch", "POST", "/outreach/launch", false},
		{"/outreach/123/update", "POST", "/outreach/", false},
		{"/outreach/123/status", "GET", "/outreach/", false},
		{"/outreach/launch", "DELETE", "", true},
		{"/unknown", "GET", "", true},
		{"/health", "GET", "/health", false},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.wantNil {
				if got != nil {
					t.Errorf("Expected no match, got %+v", got)
				}
				return
			}
			if got == nil || got.Path != tt.wantPath {
				t.Errorf("Expected match on %q, got %+v", tt.wantPath, got)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "50")
	t.Setenv("RATE_LIMIT_DEFAULT_WINDOW", "30s")
	t.Setenv("RATE_LIMIT_WHITELIST", "10.0.0.1, 10.0.0.2,")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.DefaultLimit != 50 || config.DefaultWindow != 30*time.Second {
		t.Errorf("unexpected defaults: %+v", config)
	}
	if len(config.Whitelist) != 2 || !config.Whitelist["10.0.0.2"] {
		t.Errorf("unexpected whitelist: %v", config.Whitelist)
	}
	if len(config.EndpointConfigs) == 0 {
		t.Error("Expected endpoint configs")
	}
}

func TestLoadConfig_Disabled(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Enabled {
		t.Error("Expected rate limiting to be disabled")
	}
}

func TestLoadConfig_InvalidWindow(t *testing.T) {
	t.Setenv("RATE_LIMIT_DEFAULT_WINDOW", "soon")

	if _, err := LoadConfig(); err == nil {
		t.Error("Expected an error for an invalid window")
	}
}
