// Package outreach runs the outreach workflow for a job: it finds hiring
// contacts, researches them, drafts an email for each and records progress on
// an outreach batch that clients can poll.
package outreach

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/pathfinder/internal/apollo"
	"github.com/jonathan/pathfinder/internal/db"
	"github.com/jonathan/pathfinder/internal/drafting"
	"github.com/jonathan/pathfinder/internal/observability"
	"github.com/jonathan/pathfinder/internal/research"
)

// DefaultMaxContacts is used when a request does not set MaxContacts.
const DefaultMaxContacts = 5

// Step labels written to the batch as the run advances.
const (
	stepInitializing = "Initializing..."
	stepLoadingJob   = "Loading job details..."
	stepSearching    = "Searching for hiring managers..."
	stepFiltering    = "Filtering best contacts..."
	stepResearching  = "Researching contacts..."
	stepDrafting     = "Drafting personalized emails..."
	stepComplete     = "Outreach preparation complete!"
)

const emailConfidenceWithAddress = 0.85

// Request starts one outreach run.
type Request struct {
	JobID       uuid.UUID
	UserID      *uuid.UUID
	MaxContacts int
	Sender      drafting.Sender
}

// Result summarizes a finished run.
type Result struct {
	Success       bool      `json:"success"`
	BatchID       uuid.UUID `json:"batchId"`
	ContactsFound int       `json:"contactsFound"`
	EmailsDrafted int       `json:"emailsDrafted"`
	ErrorMessage  string    `json:"errorMessage,omitempty"`

	// Err is the underlying error of a failed run.
	Err error `json:"-"`
}

// Run is a created batch and the job it belongs to, ready to execute.
type Run struct {
	Batch   *db.OutreachBatch
	Job     *db.Job
	Request Request
}

// Orchestrator sequences the contact source, researcher and drafter for a batch.
// Batches are independent; one Orchestrator can run many concurrently.
type Orchestrator struct {
	store    Store
	contacts ContactSource
	research Researcher
	drafter  Drafter
	finder   ProfileURLFinder
	enricher ContactEnricher

	maxContacts int
	logger      *zap.Logger
	metrics     *observability.Metrics
	now         func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = observability.OrNop(logger) }
}

// WithMetrics records batch outcomes.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithProfileFinder looks up profile URLs for contacts that arrive without one.
func WithProfileFinder(f ProfileURLFinder) Option {
	return func(o *Orchestrator) { o.finder = f }
}

// WithContactEnricher looks up addresses for candidates the search returned
// without one and scores each address by verifying it.
func WithContactEnricher(e ContactEnricher) Option {
	return func(o *Orchestrator) { o.enricher = e }
}

// WithDefaultMaxContacts sets the contact cap used when a request has none.
func WithDefaultMaxContacts(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxContacts = n
		}
	}
}

// New creates an Orchestrator.
func New(store Store, contacts ContactSource, researcher Researcher, drafter Drafter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:       store,
		contacts:    contacts,
		research:    researcher,
		drafter:     drafter,
		maxContacts: DefaultMaxContacts,
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ExecuteOutreachFlow prepares and runs a batch synchronously. It never panics
// and never returns an error: failures are reported in the Result and, once a
// batch exists, recorded on it.
func (o *Orchestrator) ExecuteOutreachFlow(ctx context.Context, req Request) Result {
	run, err := o.Prepare(ctx, req)
	if err != nil {
		return Result{Success: false, ErrorMessage: err.Error(), Err: err}
	}
	return o.Execute(ctx, run)
}

// Prepare validates the job and creates the batch. No batch is created when the
// job is missing or has no company.
func (o *Orchestrator) Prepare(ctx context.Context, req Request) (*Run, error) {
	job, err := o.loadJob(ctx, req.JobID)
	if err != nil {
		return nil, err
	}
	return o.prepareJob(ctx, job, req, stepInitializing)
}

func (o *Orchestrator) prepareJob(ctx context.Context, job *db.Job, req Request, step string) (*Run, error) {
	if req.MaxContacts <= 0 {
		req.MaxContacts = o.maxContacts
	}

	batch, err := o.store.CreateBatch(ctx, db.BatchCreateInput{
		JobID:       job.ID,
		CompanyID:   &job.Company.ID,
		UserID:      req.UserID,
		CurrentStep: step,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create outreach batch: %w", err)
	}
	o.metrics.BatchStarted()

	o.logger.Info("outreach batch created",
		zap.String("batch_id", batch.ID.String()),
		zap.String("job", job.Title),
		zap.String("company", job.Company.Name))
	return &Run{Batch: batch, Job: job, Request: req}, nil
}

func (o *Orchestrator) loadJob(ctx context.Context, jobID uuid.UUID) (*db.Job, error) {
	job, err := o.store.GetJobWithCompany(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load job: %w", err)
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	if job.Company == nil {
		return nil, ErrCompanyMissing
	}
	return job, nil
}

// Execute runs every phase for a prepared batch. Any error marks the batch
// failed with error step "orchestration".
func (o *Orchestrator) Execute(ctx context.Context, run *Run) (result Result) {
	start := o.now()
	batchID := run.Batch.ID
	logger := o.logger.With(zap.String("batch_id", batchID.String()))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("outreach run panicked", zap.Any("panic", r))
			result = o.fail(ctx, batchID, fmt.Errorf("internal error: %v", r), logger)
		}
		o.metrics.BatchFinished(batchOutcome(result), result.ContactsFound, result.EmailsDrafted, o.now().Sub(start))
	}()

	contacts, emails, err := o.execute(ctx, run, logger)
	if err != nil {
		return o.fail(ctx, batchID, err, logger)
	}

	logger.Info("outreach batch completed",
		zap.Int("contacts", contacts),
		zap.Int("emails", emails),
		zap.Duration("duration", o.now().Sub(start)))
	return Result{Success: true, BatchID: batchID, ContactsFound: contacts, EmailsDrafted: emails}
}

func batchOutcome(r Result) string {
	if r.Success {
		return string(db.BatchCompleted)
	}
	return string(db.BatchFailed)
}

func (o *Orchestrator) fail(ctx context.Context, batchID uuid.UUID, err error, logger *zap.Logger) Result {
	logger.Error("outreach orchestration failed", zap.Error(err))

	// The failure must be recorded even when the caller's context is done.
	if failErr := o.store.FailBatch(context.WithoutCancel(ctx), batchID, err.Error(), StepOrchestration); failErr != nil {
		logger.Error("failed to mark batch failed", zap.Error(failErr))
	}
	return Result{Success: false, BatchID: batchID, ErrorMessage: err.Error(), Err: err}
}

func (o *Orchestrator) execute(ctx context.Context, run *Run, logger *zap.Logger) (int, int, error) {
	batchID := run.Batch.ID
	job, company := run.Job, run.Job.Company
	maxContacts := run.Request.MaxContacts

	// Finding contacts
	if err := o.progress(ctx, batchID, db.BatchFindingContacts, stepLoadingJob, 10); err != nil {
		return 0, 0, err
	}
	logger.Info("loaded job", zap.String("job", job.Title), zap.String("company", company.Name))

	if err := o.progress(ctx, batchID, db.BatchFindingContacts, stepSearching, 20); err != nil {
		return 0, 0, err
	}
	candidates, err := o.contacts.FindHiringContacts(ctx, apollo.SearchParams{
		CompanyDomain: company.SearchDomain(),
		CompanyName:   company.Name,
		Limit:         maxContacts * 2,
	})
	if err != nil {
		return 0, 0, err
	}
	if len(candidates) == 0 {
		return 0, 0, ErrNoContacts
	}
	logger.Info("found potential contacts", zap.Int("count", len(candidates)))

	if err := o.progress(ctx, batchID, db.BatchFindingContacts, stepFiltering, 30); err != nil {
		return 0, 0, err
	}
	ranked := RankCandidates(candidates)
	if len(ranked) > maxContacts {
		ranked = ranked[:maxContacts]
	}
	if err := o.store.SetContactsFound(ctx, batchID, len(ranked)); err != nil {
		return 0, 0, err
	}

	// Researching
	if err := o.progress(ctx, batchID, db.BatchResearching, stepResearching, 40); err != nil {
		return 0, 0, err
	}
	contacts := make([]*db.Contact, 0, len(ranked))
	for i, candidate := range ranked {
		name := candidate.DisplayName()
		step := fmt.Sprintf("Researching %s (%d/%d)...", name, i+1, len(ranked))
		if err := o.progress(ctx, batchID, db.BatchResearching, step, phaseProgress(40, 30, i, len(ranked))); err != nil {
			return 0, 0, err
		}

		contact, err := o.store.CreateContact(ctx, o.researchContact(ctx, run, candidate, logger))
		if err != nil {
			return 0, 0, err
		}
		contacts = append(contacts, contact)
	}
	if err := o.store.SetContactsEnriched(ctx, batchID, len(contacts)); err != nil {
		return 0, 0, err
	}
	logger.Info("created contact records", zap.Int("count", len(contacts)))

	// Drafting
	if err := o.progress(ctx, batchID, db.BatchDraftingEmails, stepDrafting, 70); err != nil {
		return 0, 0, err
	}
	drafted := 0
	model := o.drafter.Model()
	for i, contact := range contacts {
		step := fmt.Sprintf("Drafting email for %s (%d/%d)...", contact.FullName, i+1, len(contacts))
		if err := o.progress(ctx, batchID, db.BatchDraftingEmails, step, phaseProgress(70, 25, i, len(contacts))); err != nil {
			return 0, 0, err
		}

		email := o.drafter.GenerateEmail(ctx, draftParams(run, contact))
		_, err := o.store.CreateEmail(ctx, db.EmailCreateInput{
			ContactID: contact.ID,
			BatchID:   batchID,
			Subject:   email.Subject,
			Body:      email.Body,
			Personalizations: db.Personalizations{
				SpecificMention:   email.Personalizations.SpecificMention,
				RelevantSkill:     email.Personalizations.RelevantSkill,
				CompanyConnection: email.Personalizations.CompanyConnection,
			},
			AIGeneratedBy: db.StringPtr(model),
		})
		if err != nil {
			logger.Warn("failed to save drafted email, skipping contact",
				zap.String("contact", contact.FullName), zap.Error(err))
			continue
		}
		drafted++
	}
	if err := o.store.SetEmailsDrafted(ctx, batchID, drafted); err != nil {
		return 0, 0, err
	}

	if err := o.store.FinishBatch(ctx, batchID, stepComplete); err != nil {
		return 0, 0, err
	}
	return len(contacts), drafted, nil
}

func (o *Orchestrator) progress(ctx context.Context, batchID uuid.UUID, status db.BatchStatus, step string, progress int) error {
	if err := o.store.UpdateBatchProgress(ctx, batchID, status, step, progress); err != nil {
		return fmt.Errorf("failed to update batch progress: %w", err)
	}
	return nil
}

// phaseProgress spreads n items over span points starting at base.
func phaseProgress(base, span, i, n int) int {
	if n == 0 {
		return base
	}
	return int(math.Round(float64(base) + float64(i)/float64(n)*float64(span)))
}

// researchContact builds the contact row for a candidate, enriching it from the
// candidate's public profile when one can be found.
func (o *Orchestrator) researchContact(ctx context.Context, run *Run, c apollo.Candidate, logger *zap.Logger) db.ContactCreateInput {
	company := run.Job.Company
	if o.enricher != nil && !c.HasEmail() {
		c = o.matchCandidate(ctx, c, company.SearchDomain(), logger)
	}
	name := c.DisplayName()

	profileURL := ""
	if c.LinkedInURL != nil {
		profileURL = strings.TrimSpace(*c.LinkedInURL)
	}
	if profileURL == "" && o.finder != nil {
		profileURL = o.finder.FindProfileURL(ctx, name, company.Name)
	}

	summary := research.FallbackSummary(company.Name)
	headline := db.Deref(c.Headline)
	photo := db.Deref(c.PhotoURL)
	if profileURL != "" {
		if profile := o.research.ResearchPerson(ctx, profileURL); profile != nil {
			summary = research.GenerateResearchSummary(profile, company.Name, run.Job.Title)
			if profile.Headline != "" {
				headline = profile.Headline
			}
			if photo == "" {
				photo = profile.PhotoURL
			}
		} else {
			logger.Debug("no profile data, using fallback summary", zap.String("contact", name))
		}
	}

	first, last := c.FirstName, c.LastName
	if first == "" && last == "" {
		first, last = db.SplitName(name)
	}

	emailStatus := c.EmailStatus
	if emailStatus == "" {
		emailStatus = "unknown"
	}
	confidence := 0.0
	if c.HasEmail() {
		confidence = emailConfidenceWithAddress
		if o.enricher != nil {
			v := o.enricher.VerifyEmail(ctx, strings.TrimSpace(*c.Email))
			confidence = v.Confidence
			if v.Status == "invalid" {
				emailStatus = "invalid"
			}
		}
	}

	var department *string
	if len(c.Departments) > 0 {
		department = db.StringPtr(c.Departments[0])
	}

	var location *string
	if c.City != nil && c.State != nil && *c.City != "" && *c.State != "" {
		location = db.StringPtr(c.Location())
	}

	verifiedAt := o.now()
	return db.ContactCreateInput{
		CompanyID:       company.ID,
		BatchID:         run.Batch.ID,
		FullName:        name,
		FirstName:       first,
		LastName:        last,
		Title:           c.Title,
		Department:      department,
		Seniority:       c.Seniority,
		Email:           c.Email,
		EmailStatus:     emailStatus,
		EmailConfidence: confidence,
		LinkedInURL:     db.StringPtr(profileURL),
		PhotoURL:        db.StringPtr(photo),
		Headline:        db.StringPtr(headline),
		Location:        location,
		ResearchSummary: db.StringPtr(summary),
		Source:          "apollo",
		VerifiedAt:      &verifiedAt,
	}
}

// matchCandidate fills the address and profile fields of c from a person
// match. c is returned unchanged when the match has no address.
func (o *Orchestrator) matchCandidate(ctx context.Context, c apollo.Candidate, domain string, logger *zap.Logger) apollo.Candidate {
	first, last := c.FirstName, c.LastName
	if first == "" && last == "" {
		first, last = db.SplitName(c.DisplayName())
	}
	match := o.enricher.EnrichContact(ctx, first, last, domain)
	if match == nil || !match.HasEmail() {
		logger.Debug("no address found by person match", zap.String("contact", c.DisplayName()))
		return c
	}

	c.Email = match.Email
	if match.EmailStatus != "" {
		c.EmailStatus = match.EmailStatus
	}
	if c.LinkedInURL == nil {
		c.LinkedInURL = match.LinkedInURL
	}
	if c.PhotoURL == nil {
		c.PhotoURL = match.PhotoURL
	}
	if c.Headline == nil {
		c.Headline = match.Headline
	}
	return c
}

func draftParams(run *Run, contact *db.Contact) drafting.Params {
	job, company := run.Job, run.Job.Company
	return drafting.Params{
		RecipientName:      contact.FullName,
		RecipientTitle:     contact.Title,
		RecipientResearch:  db.Deref(contact.ResearchSummary),
		CompanyName:        company.Name,
		CompanyDescription: strings.Join(company.IndustryTags, ", "),
		JobTitle:           job.Title,
		JobDescription:     db.Deref(job.Description),
		Sender:             run.Request.Sender,
	}
}
