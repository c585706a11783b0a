// Package apollo is the contact source client: it finds hiring contacts at a
// company through the Apollo.io people search API.
package apollo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jonathan/pathfinder/internal/observability"
	"github.com/jonathan/pathfinder/internal/retry"
)

const (
	// DefaultBaseURL is the Apollo API root.
	DefaultBaseURL = "https://api.apollo.io/v1"

	defaultTimeout           = 30 * time.Second
	defaultRequestsPerMinute = 50
	providerName             = "apollo"
)

// Client calls the Apollo API. It is safe for concurrent use.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	retry   retry.Config
	logger  *zap.Logger
	metrics *observability.Metrics
}

// Option configures a Client.
type Option func(*options)

type options struct {
	baseURL           string
	httpClient        *resty.Client
	requestsPerMinute int
	retry             *retry.Config
	logger            *zap.Logger
	metrics           *observability.Metrics
}

// WithBaseURL points the client at another API root (tests, proxies).
func WithBaseURL(baseURL string) Option {
	return func(o *options) { o.baseURL = baseURL }
}

// WithHTTPClient supplies a preconfigured resty client.
func WithHTTPClient(client *resty.Client) Option {
	return func(o *options) { o.httpClient = client }
}

// WithRequestsPerMinute sets outbound pacing. Non-positive values disable pacing.
func WithRequestsPerMinute(n int) Option {
	return func(o *options) { o.requestsPerMinute = n }
}

// WithRetry overrides the retry policy. Its Retryable func is always replaced with IsTransient.
func WithRetry(cfg retry.Config) Option {
	return func(o *options) { o.retry = &cfg }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics records call outcomes.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// New creates a client authenticated with apiKey.
func New(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("APOLLO_API_KEY not configured")
	}

	o := options{
		baseURL:           DefaultBaseURL,
		requestsPerMinute: defaultRequestsPerMinute,
	}
	for _, opt := range opts {
		opt(&o)
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = resty.New()
	}
	if httpClient.GetClient().Timeout == 0 {
		httpClient.SetTimeout(defaultTimeout)
	}
	// Retries are owned by the retry package so pacing applies to every attempt.
	httpClient.SetRetryCount(0)
	httpClient.SetBaseURL(strings.TrimRight(o.baseURL, "/"))
	httpClient.SetHeader("X-Api-Key", apiKey)
	httpClient.SetHeader("Content-Type", "application/json")

	limiter := rate.NewLimiter(rate.Inf, 1)
	if o.requestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(o.requestsPerMinute)), 1)
	}

	retryCfg := retry.DefaultConfig()
	if o.retry != nil {
		retryCfg = *o.retry
	}
	retryCfg.Retryable = IsTransient

	logger := observability.OrNop(o.logger)
	retryCfg.Logger = logger

	return &Client{
		http:    httpClient,
		limiter: limiter,
		retry:   retryCfg,
		logger:  logger,
		metrics: o.metrics,
	}, nil
}

// FindHiringContacts searches for recruiting and hiring people at a company.
// Only contacts with verified or guessed emails are requested.
func (c *Client) FindHiringContacts(ctx context.Context, params SearchParams) ([]Candidate, error) {
	titles := params.Titles
	if len(titles) == 0 {
		titles = DefaultTitles
	}
	seniorities := params.SeniorityLevels
	if len(seniorities) == 0 {
		seniorities = DefaultSeniorities
	}
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	c.logger.Info("searching for hiring contacts",
		zap.String("company", params.CompanyName),
		zap.String("domain", params.CompanyDomain),
		zap.Int("limit", limit))

	body := searchRequest{
		OrganizationDomains:  []string{params.CompanyDomain},
		PersonTitles:         titles,
		PersonSeniorities:    seniorities,
		ContactEmailStatus:   []string{"verified", "guessed"},
		Page:                 1,
		PerPage:              limit,
		RevealPersonalEmails: true,
	}

	var result searchResponse
	if err := c.post(ctx, "people_search", "/mixed_people/search", body, &result); err != nil {
		c.logger.Error("contact search failed", zap.String("company", params.CompanyName), zap.Error(err))
		return nil, err
	}

	c.logger.Info("found contacts", zap.String("company", params.CompanyName), zap.Int("count", len(result.People)))
	if result.People == nil {
		return []Candidate{}, nil
	}
	return result.People, nil
}

// EnrichContact looks up a single person by name and company. Any failure yields nil.
func (c *Client) EnrichContact(ctx context.Context, firstName, lastName, companyDomain string) *Candidate {
	body := matchRequest{
		FirstName:            firstName,
		LastName:             lastName,
		OrganizationName:     companyDomain,
		RevealPersonalEmails: true,
	}

	var result matchResponse
	if err := c.post(ctx, "people_match", "/people/match", body, &result); err != nil {
		c.logger.Warn("contact enrichment failed",
			zap.String("name", strings.TrimSpace(firstName+" "+lastName)),
			zap.Error(err))
		return nil
	}
	return result.Person
}

// VerifyEmail asks Apollo for an address's deliverability. Failures yield unknown at 0.5.
func (c *Client) VerifyEmail(ctx context.Context, email string) EmailVerification {
	var result emailStatusResponse
	if err := c.post(ctx, "email_status", "/emailer_campaigns/email_status", emailStatusRequest{Email: email}, &result); err != nil {
		c.logger.Warn("email verification failed", zap.Error(err))
		return EmailVerification{Status: "unknown", Confidence: 0.5}
	}
	return verificationFor(result.EmailStatus)
}

func verificationFor(emailStatus string) EmailVerification {
	v := EmailVerification{Status: "unknown", Confidence: 0.30}
	switch emailStatus {
	case "verified":
		v = EmailVerification{Status: "valid", Confidence: 0.95}
	case "guessed":
		v.Confidence = 0.70
	case "invalid":
		v.Status = "invalid"
	}
	return v
}

// post sends body to path with pacing and retries, decoding a 2xx response into out.
func (c *Client) post(ctx context.Context, operation, path string, body, out any) error {
	err := retry.Do(ctx, c.retry, "apollo "+operation, func(ctx context.Context, attempt int) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return retry.Permanent(&APIError{Message: "rate limiter wait failed", Cause: err})
		}

		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(body).
			SetResult(out).
			ForceContentType("application/json").
			Post(path)
		if err != nil {
			return &APIError{
				Message:   err.Error(),
				Transient: !errors.Is(err, context.Canceled),
				Cause:     err,
			}
		}
		if code := resp.StatusCode(); code < http.StatusOK || code >= http.StatusMultipleChoices {
			return classifyStatus(code, resp.String())
		}
		return nil
	})

	c.metrics.UpstreamCall(providerName, outcomeLabel(err))
	return err
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrInvalidCredentials):
		return "unauthorized"
	default:
		return "error"
	}
}
