package outreach

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/pathfinder/internal/db"
)

// StatusView is the client-facing projection of a batch.
type StatusView struct {
	ID                 uuid.UUID       `json:"id"`
	Status             db.BatchStatus  `json:"status"`
	CurrentStep        string          `json:"currentStep"`
	Progress           int             `json:"progress"`
	IsComplete         bool            `json:"isComplete"`
	StartedAt          time.Time       `json:"startedAt"`
	CompletedAt        *time.Time      `json:"completedAt"`
	Duration           *int64          `json:"duration"` // seconds, set once completed
	TotalContactsFound int             `json:"totalContactsFound"`
	TotalEmailsDrafted int             `json:"totalEmailsDrafted"`
	ErrorMessage       *string         `json:"errorMessage"`
	Job                *JobSummary     `json:"job"`
	Results            []ContactResult `json:"results"`
}

// JobSummary names the job a batch belongs to.
type JobSummary struct {
	ID      uuid.UUID      `json:"id"`
	Title   string         `json:"title"`
	Company CompanySummary `json:"company"`
}

// CompanySummary names the job's company.
type CompanySummary struct {
	Name string  `json:"name"`
	Logo *string `json:"logo"`
}

// ContactResult pairs a contact with the email drafted for it.
type ContactResult struct {
	Contact ContactView `json:"contact"`
	Email   *EmailView  `json:"email"`
}

// ContactView is a contact with its address masked.
type ContactView struct {
	ID              uuid.UUID `json:"id"`
	FullName        string    `json:"fullName"`
	Title           string    `json:"title"`
	Email           *string   `json:"email"`
	EmailConfidence *float64  `json:"emailConfidence"`
	LinkedInURL     *string   `json:"linkedinUrl"`
	PhotoURL        *string   `json:"photoUrl"`
	Headline        *string   `json:"headline"`
	Location        *string   `json:"location"`
	ResearchSummary *string   `json:"researchSummary"`
}

// EmailView is a drafted email.
type EmailView struct {
	ID               uuid.UUID           `json:"id"`
	Subject          string              `json:"subject"`
	Body             string              `json:"body"`
	Personalizations db.Personalizations `json:"personalizations"`
	Status           db.EmailStatus      `json:"status"`
}

// Status loads the projection for a batch.
func (l *Launcher) Status(ctx context.Context, batchID uuid.UUID) (*StatusView, error) {
	batch, err := l.store.GetBatch(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load batch: %w", err)
	}
	if batch == nil {
		return nil, ErrBatchNotFound
	}

	job, err := l.store.GetJobWithCompany(ctx, batch.JobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load job: %w", err)
	}
	contacts, err := l.store.ListContactsByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	emails, err := l.store.ListEmailsByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	return BuildStatusView(batch, job, contacts, emails), nil
}

// BuildStatusView assembles the projection. Contacts keep their order; each is
// paired with the first email drafted for it.
func BuildStatusView(batch *db.OutreachBatch, job *db.Job, contacts []db.Contact, emails []db.OutreachEmail) *StatusView {
	view := &StatusView{
		ID:                 batch.ID,
		Status:             batch.Status,
		CurrentStep:        batch.CurrentStep,
		Progress:           batch.Progress,
		IsComplete:         batch.Status.Terminal(),
		StartedAt:          batch.StartedAt,
		CompletedAt:        batch.CompletedAt,
		TotalContactsFound: batch.TotalContactsFound,
		TotalEmailsDrafted: batch.TotalEmailsDrafted,
		ErrorMessage:       batch.ErrorMessage,
		Results:            make([]ContactResult, 0, len(contacts)),
	}
	if batch.CompletedAt != nil {
		seconds := int64(batch.CompletedAt.Sub(batch.StartedAt).Round(time.Second) / time.Second)
		view.Duration = &seconds
	}
	if job != nil && job.Company != nil {
		view.Job = &JobSummary{
			ID:    job.ID,
			Title: job.Title,
			Company: CompanySummary{
				Name: job.Company.Name,
				Logo: job.Company.Website,
			},
		}
	}

	byContact := make(map[uuid.UUID]*db.OutreachEmail, len(emails))
	for i := range emails {
		if _, ok := byContact[emails[i].ContactID]; !ok {
			byContact[emails[i].ContactID] = &emails[i]
		}
	}

	for _, c := range contacts {
		result := ContactResult{Contact: contactView(c)}
		if e, ok := byContact[c.ID]; ok {
			result.Email = &EmailView{
				ID:               e.ID,
				Subject:          e.Subject,
				Body:             e.Body,
				Personalizations: e.Personalizations,
				Status:           e.Status,
			}
		}
		view.Results = append(view.Results, result)
	}
	return view
}

func contactView(c db.Contact) ContactView {
	var confidence *float64
	if c.EmailConfidence > 0 {
		value := c.EmailConfidence
		confidence = &value
	}
	return ContactView{
		ID:              c.ID,
		FullName:        c.FullName,
		Title:           c.Title,
		Email:           MaskEmailPtr(c.Email),
		EmailConfidence: confidence,
		LinkedInURL:     c.LinkedInURL,
		PhotoURL:        c.PhotoURL,
		Headline:        c.Headline,
		Location:        c.Location,
		ResearchSummary: c.ResearchSummary,
	}
}
