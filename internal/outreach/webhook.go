package outreach

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/pathfinder/internal/observability"
)

const webhookTimeout = 30 * time.Second

// WebhookPayload is posted to the external workflow that runs a batch.
type WebhookPayload struct {
	BatchID        uuid.UUID      `json:"batchId"`
	JobID          uuid.UUID      `json:"jobId"`
	CompanyName    string         `json:"companyName"`
	CompanyDomain  string         `json:"companyDomain"`
	JobTitle       string         `json:"jobTitle"`
	JobDescription string         `json:"jobDescription"`
	MaxContacts    int            `json:"maxContacts"`
	CallbackURL    string         `json:"callbackUrl"`
	CallbackToken  string         `json:"callbackToken"`
	StudentProfile *WebhookSender `json:"studentProfile,omitempty"`
}

// WebhookSender is the sender profile forwarded to the workflow.
type WebhookSender struct {
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	School string   `json:"school,omitempty"`
	Major  string   `json:"major,omitempty"`
	Skills []string `json:"skills"`
}

// WebhookTrigger starts batches on an external workflow engine.
type WebhookTrigger struct {
	http    *resty.Client
	url     string
	baseURL string
	signer  *CallbackSigner
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewWebhookTrigger creates a trigger posting to webhookURL. publicBaseURL is
// where the workflow reaches this service to report progress.
func NewWebhookTrigger(webhookURL, publicBaseURL string, signer *CallbackSigner, logger *zap.Logger, metrics *observability.Metrics) (*WebhookTrigger, error) {
	if webhookURL == "" {
		return nil, fmt.Errorf("webhook URL is required")
	}
	if signer == nil {
		return nil, fmt.Errorf("callback signer is required")
	}

	client := resty.New().
		SetTimeout(webhookTimeout).
		SetHeader("Content-Type", "application/json")

	return &WebhookTrigger{
		http:    client,
		url:     webhookURL,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		signer:  signer,
		logger:  observability.OrNop(logger),
		metrics: metrics,
	}, nil
}

// CallbackURL is the update endpoint for a batch.
func (w *WebhookTrigger) CallbackURL(batchID uuid.UUID) string {
	return fmt.Sprintf("%s/outreach/%s/update", w.baseURL, batchID)
}

// Trigger posts the payload once. The workflow is not idempotent, so failed
// deliveries are reported rather than retried.
func (w *WebhookTrigger) Trigger(ctx context.Context, payload WebhookPayload) error {
	token, err := w.signer.Issue(payload.BatchID)
	if err != nil {
		return &WebhookError{BatchID: payload.BatchID, Cause: err}
	}
	payload.CallbackURL = w.CallbackURL(payload.BatchID)
	payload.CallbackToken = token

	w.logger.Info("triggering outreach workflow",
		zap.String("batch_id", payload.BatchID.String()),
		zap.String("company", payload.CompanyName))

	resp, err := w.http.R().
		SetContext(ctx).
		SetBody(payload).
		Post(w.url)
	if err != nil {
		w.metrics.UpstreamCall("workflow", "error")
		return &WebhookError{BatchID: payload.BatchID, Cause: err}
	}
	if code := resp.StatusCode(); code < http.StatusOK || code >= http.StatusMultipleChoices {
		w.metrics.UpstreamCall("workflow", "error")
		body := resp.String()
		if len(body) > 500 {
			body = body[:500]
		}
		return &WebhookError{BatchID: payload.BatchID, StatusCode: code, Body: body}
	}

	w.metrics.UpstreamCall("workflow", "ok")
	return nil
}
