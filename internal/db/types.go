package db

import (
	"time"

	"github.com/google/uuid"
)

// BatchStatus is the lifecycle state of an outreach batch.
type BatchStatus string

// Batch statuses. Processing is only used when an external workflow runs the batch.
const (
	BatchPending         BatchStatus = "pending"
	BatchFindingContacts BatchStatus = "finding_contacts"
	BatchResearching     BatchStatus = "researching"
	BatchDraftingEmails  BatchStatus = "drafting_emails"
	BatchProcessing      BatchStatus = "processing"
	BatchCompleted       BatchStatus = "completed"
	BatchFailed          BatchStatus = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s BatchStatus) Terminal() bool {
	return s == BatchCompleted || s == BatchFailed
}

// Valid reports whether s is a known status.
func (s BatchStatus) Valid() bool {
	switch s {
	case BatchPending, BatchFindingContacts, BatchResearching, BatchDraftingEmails,
		BatchProcessing, BatchCompleted, BatchFailed:
		return true
	}
	return false
}

// EmailStatus is the drafting/sending state of an outreach email.
type EmailStatus string

// Email statuses
const (
	EmailDraft    EmailStatus = "draft"
	EmailApproved EmailStatus = "approved"
	EmailSent     EmailStatus = "sent"
	EmailReplied  EmailStatus = "replied"
	EmailBounced  EmailStatus = "bounced"
)

// Company is a catalog company. Read-only to the outreach flow.
type Company struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Domain       *string   `json:"domain,omitempty"`
	Website      *string   `json:"website,omitempty"`
	LinkedInURL  *string   `json:"linkedin_url,omitempty"`
	IndustryTags []string  `json:"industry_tags"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SearchDomain returns the domain used for contact search, falling back to the website.
func (c *Company) SearchDomain() string {
	if c.Domain != nil && *c.Domain != "" {
		return *c.Domain
	}
	if c.Website != nil {
		return *c.Website
	}
	return ""
}

// Job is a catalog internship posting. Company is populated when the job has one.
type Job struct {
	ID          uuid.UUID  `json:"id"`
	CompanyID   *uuid.UUID `json:"company_id,omitempty"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Location    *string    `json:"location,omitempty"`
	SourceURL   string     `json:"source_url"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Company     *Company   `json:"company,omitempty"`
}

// User is the sender profile captured at launch time.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	School    string    `json:"school"`
	Major     string    `json:"major"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OutreachBatch is one outreach attempt for a (job, company) pair. Never deleted.
type OutreachBatch struct {
	ID                    uuid.UUID   `json:"id"`
	JobID                 uuid.UUID   `json:"job_id"`
	CompanyID             *uuid.UUID  `json:"company_id,omitempty"`
	UserID                *uuid.UUID  `json:"user_id,omitempty"`
	Status                BatchStatus `json:"status"`
	CurrentStep           string      `json:"current_step"`
	Progress              int         `json:"progress"`
	TotalContactsFound    int         `json:"total_contacts_found"`
	TotalContactsEnriched int         `json:"total_contacts_enriched"`
	TotalEmailsDrafted    int         `json:"total_emails_drafted"`
	StartedAt             time.Time   `json:"started_at"`
	CompletedAt           *time.Time  `json:"completed_at,omitempty"`
	ErrorMessage          *string     `json:"error_message,omitempty"`
	ErrorStep             *string     `json:"error_step,omitempty"`
	CreatedAt             time.Time   `json:"created_at"`
	UpdatedAt             time.Time   `json:"updated_at"`
}

// Contact is a person discovered for a batch's company.
type Contact struct {
	ID              uuid.UUID  `json:"id"`
	CompanyID       uuid.UUID  `json:"company_id"`
	BatchID         uuid.UUID  `json:"batch_id"`
	FullName        string     `json:"full_name"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Title           string     `json:"title"`
	Department      *string    `json:"department,omitempty"`
	Seniority       *string    `json:"seniority,omitempty"`
	Email           *string    `json:"email,omitempty"`
	EmailStatus     string     `json:"email_status"`
	EmailConfidence float64    `json:"email_confidence"`
	LinkedInURL     *string    `json:"linkedin_url,omitempty"`
	PhotoURL        *string    `json:"photo_url,omitempty"`
	Headline        *string    `json:"headline,omitempty"`
	Location        *string    `json:"location,omitempty"`
	ResearchSummary *string    `json:"research_summary,omitempty"`
	Source          string     `json:"source"`
	VerifiedAt      *time.Time `json:"verified_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Personalizations records what a drafted email was tailored on.
type Personalizations struct {
	SpecificMention   string `json:"specificMention"`
	RelevantSkill     string `json:"relevantSkill"`
	CompanyConnection string `json:"companyConnection"`
}

// OutreachEmail is a drafted message tied to one contact and one batch.
type OutreachEmail struct {
	ID               uuid.UUID        `json:"id"`
	ContactID        uuid.UUID        `json:"contact_id"`
	BatchID          uuid.UUID        `json:"batch_id"`
	Subject          string           `json:"subject"`
	Body             string           `json:"body"`
	Personalizations Personalizations `json:"personalizations"`
	AIGeneratedBy    *string          `json:"ai_generated_by,omitempty"`
	Status           EmailStatus      `json:"status"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// -----------------------------------------------------------------------------
// Inputs
// -----------------------------------------------------------------------------

// CompanyCreateInput holds fields for creating a catalog company.
type CompanyCreateInput struct {
	Name         string
	Domain       *string
	Website      *string
	LinkedInURL  *string
	IndustryTags []string
}

// JobCreateInput holds fields for creating a catalog job.
type JobCreateInput struct {
	CompanyID   *uuid.UUID
	Title       string
	Description *string
	Location    *string
	SourceURL   string
}

// UserUpsertInput holds sender profile fields for the user identified by ID.
type UserUpsertInput struct {
	ID        uuid.UUID
	Email     string
	FirstName string
	LastName  string
	School    string
	Major     string
}

// BatchCreateInput holds fields for a new batch. Status defaults to pending.
type BatchCreateInput struct {
	JobID       uuid.UUID
	CompanyID   *uuid.UUID
	UserID      *uuid.UUID
	CurrentStep string
}

// BatchPatch is a partial update applied by workflow callbacks. Nil fields are left unchanged.
type BatchPatch struct {
	Status             *BatchStatus
	CurrentStep        *string
	Progress           *int
	TotalContactsFound *int
	TotalEmailsDrafted *int
	ErrorMessage       *string
}

// ContactCreateInput holds fields for a new contact row.
type ContactCreateInput struct {
	CompanyID       uuid.UUID
	BatchID         uuid.UUID
	FullName        string
	FirstName       string
	LastName        string
	Title           string
	Department      *string
	Seniority       *string
	Email           *string
	EmailStatus     string
	EmailConfidence float64
	LinkedInURL     *string
	PhotoURL        *string
	Headline        *string
	Location        *string
	ResearchSummary *string
	Source          string
	VerifiedAt      *time.Time
}

// ContactUpsertInput is a contact reported by an external workflow, keyed by email within a batch.
type ContactUpsertInput struct {
	FullName        string
	Email           string
	Title           string
	LinkedInURL     *string
	ResearchSummary *string
}

// EmailCreateInput holds fields for a new drafted email.
type EmailCreateInput struct {
	ContactID        uuid.UUID
	BatchID          uuid.UUID
	Subject          string
	Body             string
	Personalizations Personalizations
	AIGeneratedBy    *string
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
