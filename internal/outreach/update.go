package outreach

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/pathfinder/internal/db"
)

// Update is a progress report from an external workflow.
type Update struct {
	Status             *string         `json:"status,omitempty"`
	CurrentStep        *string         `json:"currentStep,omitempty"`
	Progress           *int            `json:"progress,omitempty"`
	TotalContactsFound *int            `json:"totalContactsFound,omitempty"`
	TotalEmailsDrafted *int            `json:"totalEmailsDrafted,omitempty"`
	ErrorMessage       *string         `json:"errorMessage,omitempty"`
	Contacts           []UpdateContact `json:"contacts,omitempty"`
	Emails             []UpdateEmail   `json:"emails,omitempty"`
}

// UpdateContact is a contact found by the workflow.
type UpdateContact struct {
	FullName        string  `json:"fullName"`
	Email           string  `json:"email"`
	Title           string  `json:"title"`
	LinkedInURL     *string `json:"linkedinUrl,omitempty"`
	ResearchSummary *string `json:"researchSummary,omitempty"`
}

// UpdateEmail is an email drafted by the workflow for a contact it reported.
type UpdateEmail struct {
	RecipientEmail   string               `json:"recipientEmail"`
	Subject          string               `json:"subject"`
	Body             string               `json:"body"`
	Personalizations *db.Personalizations `json:"personalizations,omitempty"`
}

// UpdateResult counts what an Update changed.
type UpdateResult struct {
	ContactsUpserted int `json:"contactsUpserted"`
	EmailsCreated    int `json:"emailsCreated"`
	EmailsUpdated    int `json:"emailsUpdated"`
	EmailsSkipped    int `json:"emailsSkipped"`
}

func (u Update) validate() error {
	if u.Status != nil && !db.BatchStatus(*u.Status).Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidUpdate, *u.Status)
	}
	if u.Progress != nil && (*u.Progress < 0 || *u.Progress > 100) {
		return fmt.Errorf("%w: progress must be between 0 and 100", ErrInvalidUpdate)
	}
	for _, n := range []*int{u.TotalContactsFound, u.TotalEmailsDrafted} {
		if n != nil && *n < 0 {
			return fmt.Errorf("%w: counters cannot be negative", ErrInvalidUpdate)
		}
	}
	return nil
}

// phaseRank orders the in-process phases. Pending comes first; processing
// stands for any running phase and has no rank of its own.
func phaseRank(s db.BatchStatus) int {
	switch s {
	case db.BatchPending:
		return 0
	case db.BatchFindingContacts:
		return 1
	case db.BatchResearching:
		return 2
	case db.BatchDraftingEmails:
		return 3
	default:
		return -1
	}
}

// checkTransition rejects a reported status that moves the batch backwards.
func (u Update) checkTransition(current db.BatchStatus) error {
	if u.Status == nil {
		return nil
	}
	next := db.BatchStatus(*u.Status)
	if next == current || next.Terminal() || next == db.BatchProcessing {
		return nil
	}
	if next == db.BatchPending || (phaseRank(current) > 0 && phaseRank(next) < phaseRank(current)) {
		return fmt.Errorf("%w: cannot move from %s back to %s", ErrInvalidUpdate, current, next)
	}
	return nil
}

// ApplyUpdate records a workflow report on a batch. Contacts are upserted by
// email within the batch; emails are upserted on the batch contact with the
// recipient address and skipped when there is none, so a repeated report does
// not duplicate rows. Contacts and emails are
// written before the batch fields so a report that also completes the batch
// lands in full.
func (l *Launcher) ApplyUpdate(ctx context.Context, batchID uuid.UUID, u Update) (*UpdateResult, error) {
	if err := u.validate(); err != nil {
		return nil, err
	}

	batch, err := l.store.GetBatch(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load batch: %w", err)
	}
	if batch == nil {
		return nil, ErrBatchNotFound
	}
	if batch.Status.Terminal() {
		return nil, fmt.Errorf("%w: batch is already %s", ErrInvalidUpdate, batch.Status)
	}
	if err := u.checkTransition(batch.Status); err != nil {
		return nil, err
	}
	if len(u.Contacts) > 0 && batch.CompanyID == nil {
		return nil, fmt.Errorf("%w: batch has no company", ErrInvalidUpdate)
	}

	logger := l.logger.With(zap.String("batch_id", batchID.String()))
	result := &UpdateResult{}

	for _, c := range u.Contacts {
		email := strings.TrimSpace(c.Email)
		if email == "" {
			logger.Warn("skipping workflow contact without email", zap.String("contact", c.FullName))
			continue
		}
		if _, err := l.store.UpsertContactByEmail(ctx, batchID, *batch.CompanyID, db.ContactUpsertInput{
			FullName:        c.FullName,
			Email:           email,
			Title:           c.Title,
			LinkedInURL:     c.LinkedInURL,
			ResearchSummary: c.ResearchSummary,
		}); err != nil {
			return nil, err
		}
		result.ContactsUpserted++
	}

	for _, e := range u.Emails {
		contact, err := l.store.FindContactByEmail(ctx, batchID, strings.TrimSpace(e.RecipientEmail))
		if err != nil {
			return nil, err
		}
		if contact == nil {
			logger.Warn("no contact for workflow email", zap.String("recipient", MaskEmail(e.RecipientEmail)))
			result.EmailsSkipped++
			continue
		}

		input := db.EmailCreateInput{
			ContactID: contact.ID,
			BatchID:   batchID,
			Subject:   e.Subject,
			Body:      e.Body,
		}
		if e.Personalizations != nil {
			input.Personalizations = *e.Personalizations
		}
		_, created, err := l.store.UpsertEmail(ctx, input)
		if err != nil {
			return nil, err
		}
		if created {
			result.EmailsCreated++
		} else {
			result.EmailsUpdated++
		}
	}

	patch := db.BatchPatch{
		CurrentStep:        u.CurrentStep,
		Progress:           u.Progress,
		TotalContactsFound: u.TotalContactsFound,
		TotalEmailsDrafted: u.TotalEmailsDrafted,
		ErrorMessage:       u.ErrorMessage,
	}
	if u.Status != nil {
		status := db.BatchStatus(*u.Status)
		patch.Status = &status
	}
	updated, err := l.store.PatchBatch(ctx, batchID, patch)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrBatchNotFound
	}
	if updated.Status.Terminal() {
		l.orchestrator.metrics.BatchFinished(string(updated.Status), updated.TotalContactsFound, updated.TotalEmailsDrafted,
			l.orchestrator.now().Sub(updated.StartedAt))
	}

	logger.Info("applied workflow update",
		zap.String("status", string(updated.Status)),
		zap.Int("progress", updated.Progress),
		zap.Int("contacts", result.ContactsUpserted),
		zap.Int("emails_created", result.EmailsCreated),
		zap.Int("emails_updated", result.EmailsUpdated))
	return result, nil
}
