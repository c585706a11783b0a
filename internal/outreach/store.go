package outreach

import (
	"context"

	"github.com/google/uuid"

	"github.com/jonathan/pathfinder/internal/apollo"
	"github.com/jonathan/pathfinder/internal/db"
	"github.com/jonathan/pathfinder/internal/drafting"
	"github.com/jonathan/pathfinder/internal/research"
)

// Store is the persistence the outreach flow needs. *db.DB implements it.
type Store interface {
	GetJobWithCompany(ctx context.Context, jobID uuid.UUID) (*db.Job, error)
	UpsertUser(ctx context.Context, input db.UserUpsertInput) (*db.User, error)

	CreateBatch(ctx context.Context, input db.BatchCreateInput) (*db.OutreachBatch, error)
	GetBatch(ctx context.Context, id uuid.UUID) (*db.OutreachBatch, error)
	FindBatchForUserJob(ctx context.Context, userID, jobID uuid.UUID) (*db.OutreachBatch, error)
	UpdateBatchProgress(ctx context.Context, id uuid.UUID, status db.BatchStatus, step string, progress int) error
	SetContactsFound(ctx context.Context, id uuid.UUID, n int) error
	SetContactsEnriched(ctx context.Context, id uuid.UUID, n int) error
	SetEmailsDrafted(ctx context.Context, id uuid.UUID, n int) error
	FinishBatch(ctx context.Context, id uuid.UUID, step string) error
	FailBatch(ctx context.Context, id uuid.UUID, message, errorStep string) error
	PatchBatch(ctx context.Context, id uuid.UUID, patch db.BatchPatch) (*db.OutreachBatch, error)

	CreateContact(ctx context.Context, input db.ContactCreateInput) (*db.Contact, error)
	UpsertContactByEmail(ctx context.Context, batchID, companyID uuid.UUID, input db.ContactUpsertInput) (*db.Contact, error)
	FindContactByEmail(ctx context.Context, batchID uuid.UUID, email string) (*db.Contact, error)
	ListContactsByBatch(ctx context.Context, batchID uuid.UUID) ([]db.Contact, error)

	CreateEmail(ctx context.Context, input db.EmailCreateInput) (*db.OutreachEmail, error)
	UpsertEmail(ctx context.Context, input db.EmailCreateInput) (*db.OutreachEmail, bool, error)
	ListEmailsByBatch(ctx context.Context, batchID uuid.UUID) ([]db.OutreachEmail, error)
}

// ContactSource finds hiring contacts at a company. *apollo.Client implements it.
type ContactSource interface {
	FindHiringContacts(ctx context.Context, params apollo.SearchParams) ([]apollo.Candidate, error)
}

// ContactEnricher matches a candidate to a fuller person record and checks
// deliverability of an address. *apollo.Client implements it.
type ContactEnricher interface {
	EnrichContact(ctx context.Context, firstName, lastName, companyDomain string) *apollo.Candidate
	VerifyEmail(ctx context.Context, email string) apollo.EmailVerification
}

// Researcher fetches a public profile; nil means nothing usable was found.
// *research.Enricher implements it.
type Researcher interface {
	ResearchPerson(ctx context.Context, profileURL string) *research.Profile
}

// ProfileURLFinder looks up a profile URL for a contact that has none.
// *research.ProfileFinder implements it.
type ProfileURLFinder interface {
	FindProfileURL(ctx context.Context, fullName, companyName string) string
}

// Drafter writes an email for a contact. *drafting.Generator implements it.
type Drafter interface {
	GenerateEmail(ctx context.Context, p drafting.Params) drafting.Email
	Model() string
}

var (
	_ Store           = (*db.DB)(nil)
	_ ContactSource   = (*apollo.Client)(nil)
	_ ContactEnricher = (*apollo.Client)(nil)
)
