package outreach

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error steps recorded on failed batches.
const (
	StepOrchestration  = "orchestration"
	StepWebhookTrigger = "webhook_trigger"
)

var (
	// ErrJobNotFound means the requested job does not exist.
	ErrJobNotFound = errors.New("Job not found")
	// ErrCompanyMissing means the job has no company attached.
	ErrCompanyMissing = errors.New("Company data missing for this job")
	// ErrBatchNotFound means the batch id is unknown.
	ErrBatchNotFound = errors.New("Outreach batch not found")
	// ErrNoContacts means the contact search came back empty.
	ErrNoContacts = errors.New("No hiring contacts found at this company")
	// ErrInvalidUpdate means a workflow callback carried unusable data.
	ErrInvalidUpdate = errors.New("invalid batch update")
)

// BatchExistsError is returned when the user already launched outreach for a job.
type BatchExistsError struct {
	BatchID uuid.UUID
	Status  string
}

func (e *BatchExistsError) Error() string {
	return "You have already launched outreach for this job"
}

// WebhookError is returned when the external workflow could not be triggered.
type WebhookError struct {
	BatchID    uuid.UUID
	StatusCode int
	Body       string
	Cause      error
}

func (e *WebhookError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("workflow webhook error: %v", e.Cause)
	}
	return fmt.Sprintf("workflow webhook error: %d - %s", e.StatusCode, e.Body)
}

func (e *WebhookError) Unwrap() error {
	return e.Cause
}
