// Package research is the profile enrichment client: it fetches a contact's
// public profile through the scraping proxy and turns it into a research summary.
package research

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/pathfinder/internal/fetch"
	"github.com/jonathan/pathfinder/internal/observability"
	"github.com/jonathan/pathfinder/internal/retry"
)

const providerName = "profile_fetch"

// PageFetcher fetches a page, possibly from cache.
type PageFetcher interface {
	Fetch(ctx context.Context, urlStr string) (*fetch.CachedResult, error)
}

// Enricher researches contacts from their public profile URL.
type Enricher struct {
	fetcher PageFetcher
	retry   retry.Config
	logger  *zap.Logger
	metrics *observability.Metrics
}

// EnricherOption configures an Enricher.
type EnricherOption func(*Enricher)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) EnricherOption {
	return func(e *Enricher) { e.logger = observability.OrNop(logger) }
}

// WithMetrics records fetch outcomes.
func WithMetrics(m *observability.Metrics) EnricherOption {
	return func(e *Enricher) { e.metrics = m }
}

// WithRetry overrides the retry policy. Its Retryable func is always replaced.
func WithRetry(cfg retry.Config) EnricherOption {
	return func(e *Enricher) { e.retry = cfg }
}

// NewEnricher creates an Enricher over fetcher.
func NewEnricher(fetcher PageFetcher, opts ...EnricherOption) *Enricher {
	e := &Enricher{
		fetcher: fetcher,
		retry:   retry.DefaultConfig(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.retry.Retryable = isTransientFetch
	e.retry.Logger = e.logger
	return e
}

// ResearchPerson fetches and parses a profile. It never fails: any fetch or
// parse problem is logged and yields nil, which callers treat as "no data".
func (e *Enricher) ResearchPerson(ctx context.Context, profileURL string) *Profile {
	profileURL = strings.TrimSpace(profileURL)
	if profileURL == "" {
		e.logger.Debug("no profile URL provided")
		return nil
	}

	var page *fetch.CachedResult
	err := retry.Do(ctx, e.retry, "profile fetch", func(ctx context.Context, _ int) error {
		var err error
		page, err = e.fetcher.Fetch(ctx, profileURL)
		return err
	})
	if err != nil {
		e.metrics.UpstreamCall(providerName, "error")
		e.logger.Warn("profile research failed", zap.String("url", profileURL), zap.Error(err))
		return nil
	}
	e.metrics.UpstreamCall(providerName, "success")

	profile, err := ParseProfile(page.HTML, fetch.DetectPlatform(profileURL))
	if err != nil || profile.IsEmpty() {
		e.logger.Warn("profile page had no usable content", zap.String("url", profileURL), zap.Error(err))
		return nil
	}
	profile.URL = profileURL

	e.logger.Info("profile research completed",
		zap.String("url", profileURL),
		zap.String("name", profile.FullName),
		zap.Bool("from_cache", page.FromCache))
	return profile
}

// isTransientFetch retries rate limiting, server errors and transport failures.
func isTransientFetch(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var fetchErr *fetch.Error
	if errors.As(err, &fetchErr) {
		switch {
		case fetchErr.StatusCode == http.StatusTooManyRequests:
			return true
		case fetchErr.StatusCode >= http.StatusInternalServerError:
			return true
		case fetchErr.StatusCode > 0:
			return false
		}
		return fetchErr.Message == "HTTP request failed" || fetchErr.Message == "failed to read response body"
	}
	return false
}
