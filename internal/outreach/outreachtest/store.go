// Package outreachtest provides an in-memory outreach.Store for tests.
package outreachtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/pathfinder/internal/db"
)

// ProgressEvent is one UpdateBatchProgress call.
type ProgressEvent struct {
	Status   db.BatchStatus
	Step     string
	Progress int
}

// MemoryStore mirrors the Postgres store's semantics in memory. It is safe for
// concurrent use.
type MemoryStore struct {
	mu sync.Mutex

	companies map[uuid.UUID]*db.Company
	jobs      map[uuid.UUID]*db.Job
	users     map[uuid.UUID]*db.User
	batches   map[uuid.UUID]*db.OutreachBatch
	order     []uuid.UUID // batch creation order
	contacts  []db.Contact
	emails    []db.OutreachEmail
	progress  map[uuid.UUID][]ProgressEvent

	// Errors makes the named method fail, e.g. Errors["CreateEmail"].
	Errors map[string]error
	// FailEmailsFor makes CreateEmail fail for these contact names.
	FailEmailsFor map[string]bool
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		companies:     make(map[uuid.UUID]*db.Company),
		jobs:          make(map[uuid.UUID]*db.Job),
		users:         make(map[uuid.UUID]*db.User),
		batches:       make(map[uuid.UUID]*db.OutreachBatch),
		progress:      make(map[uuid.UUID][]ProgressEvent),
		Errors:        make(map[string]error),
		FailEmailsFor: make(map[string]bool),
	}
}

func (s *MemoryStore) injected(method string) error {
	if err, ok := s.Errors[method]; ok {
		return err
	}
	return nil
}

// AddCompany stores a company.
func (s *MemoryStore) AddCompany(name, domain string, tags ...string) *db.Company {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	c := &db.Company{ID: uuid.New(), Name: name, Domain: db.StringPtr(domain), IndustryTags: tags, CreatedAt: now, UpdatedAt: now}
	s.companies[c.ID] = c
	return c
}

// AddJob stores a job, optionally attached to company.
func (s *MemoryStore) AddJob(title string, company *db.Company) *db.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	j := &db.Job{ID: uuid.New(), Title: title, Description: db.StringPtr("Build things with " + title), Status: "active", CreatedAt: now, UpdatedAt: now}
	if company != nil {
		j.CompanyID = &company.ID
	}
	s.jobs[j.ID] = j
	return j
}

func (s *MemoryStore) GetJobWithCompany(_ context.Context, jobID uuid.UUID) (*db.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("GetJobWithCompany"); err != nil {
		return nil, err
	}

	j, ok := s.jobs[jobID]
	if !ok {
		return nil, nil
	}
	out := *j
	if j.CompanyID != nil {
		if c, ok := s.companies[*j.CompanyID]; ok {
			company := *c
			out.Company = &company
		}
	}
	return &out, nil
}

func (s *MemoryStore) UpsertUser(_ context.Context, input db.UserUpsertInput) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("UpsertUser"); err != nil {
		return nil, err
	}

	id := input.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	now := time.Now()
	u, ok := s.users[id]
	if !ok {
		u = &db.User{ID: id, CreatedAt: now}
		s.users[id] = u
	}
	u.Email = strings.ToLower(strings.TrimSpace(input.Email))
	u.FirstName, u.LastName, u.School, u.Major = input.FirstName, input.LastName, input.School, input.Major
	u.UpdatedAt = now
	out := *u
	return &out, nil
}

func (s *MemoryStore) CreateBatch(_ context.Context, input db.BatchCreateInput) (*db.OutreachBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("CreateBatch"); err != nil {
		return nil, err
	}

	step := input.CurrentStep
	if step == "" {
		step = "Initializing..."
	}
	now := time.Now()
	b := &db.OutreachBatch{
		ID:          uuid.New(),
		JobID:       input.JobID,
		CompanyID:   input.CompanyID,
		UserID:      input.UserID,
		Status:      db.BatchPending,
		CurrentStep: step,
		StartedAt:   now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.batches[b.ID] = b
	s.order = append(s.order, b.ID)
	out := *b
	return &out, nil
}

func (s *MemoryStore) GetBatch(_ context.Context, id uuid.UUID) (*db.OutreachBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("GetBatch"); err != nil {
		return nil, err
	}

	b, ok := s.batches[id]
	if !ok {
		return nil, nil
	}
	out := *b
	return &out, nil
}

func (s *MemoryStore) FindBatchForUserJob(_ context.Context, userID, jobID uuid.UUID) (*db.OutreachBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.order) - 1; i >= 0; i-- {
		b := s.batches[s.order[i]]
		if b.UserID != nil && *b.UserID == userID && b.JobID == jobID {
			out := *b
			return &out, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) batch(id uuid.UUID) (*db.OutreachBatch, error) {
	b, ok := s.batches[id]
	if !ok {
		return nil, fmt.Errorf("batch not found: %s", id)
	}
	return b, nil
}

func (s *MemoryStore) UpdateBatchProgress(_ context.Context, id uuid.UUID, status db.BatchStatus, step string, progress int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("UpdateBatchProgress"); err != nil {
		return err
	}

	b, err := s.batch(id)
	if err != nil {
		return err
	}
	if b.Status.Terminal() {
		return nil
	}
	b.Status, b.CurrentStep = status, step
	b.Progress = max(b.Progress, progress)
	b.UpdatedAt = time.Now()
	s.progress[id] = append(s.progress[id], ProgressEvent{Status: status, Step: step, Progress: progress})
	return nil
}

func (s *MemoryStore) setCounter(id uuid.UUID, method string, set func(*db.OutreachBatch)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(method); err != nil {
		return err
	}

	b, err := s.batch(id)
	if err != nil {
		return err
	}
	set(b)
	return nil
}

func (s *MemoryStore) SetContactsFound(_ context.Context, id uuid.UUID, n int) error {
	return s.setCounter(id, "SetContactsFound", func(b *db.OutreachBatch) { b.TotalContactsFound = n })
}

func (s *MemoryStore) SetContactsEnriched(_ context.Context, id uuid.UUID, n int) error {
	return s.setCounter(id, "SetContactsEnriched", func(b *db.OutreachBatch) { b.TotalContactsEnriched = n })
}

func (s *MemoryStore) SetEmailsDrafted(_ context.Context, id uuid.UUID, n int) error {
	return s.setCounter(id, "SetEmailsDrafted", func(b *db.OutreachBatch) { b.TotalEmailsDrafted = n })
}

func (s *MemoryStore) FinishBatch(_ context.Context, id uuid.UUID, step string) error {
	return s.setCounter(id, "FinishBatch", func(b *db.OutreachBatch) {
		now := time.Now()
		b.Status, b.CurrentStep, b.Progress, b.CompletedAt = db.BatchCompleted, step, 100, &now
	})
}

func (s *MemoryStore) FailBatch(_ context.Context, id uuid.UUID, message, errorStep string) error {
	return s.setCounter(id, "FailBatch", func(b *db.OutreachBatch) {
		now := time.Now()
		b.Status, b.CompletedAt = db.BatchFailed, &now
		b.ErrorMessage, b.ErrorStep = &message, &errorStep
	})
}

func (s *MemoryStore) PatchBatch(_ context.Context, id uuid.UUID, patch db.BatchPatch) (*db.OutreachBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("PatchBatch"); err != nil {
		return nil, err
	}

	b, ok := s.batches[id]
	if !ok {
		return nil, nil
	}
	if patch.Status != nil {
		b.Status = *patch.Status
		if b.Status.Terminal() && b.CompletedAt == nil {
			now := time.Now()
			b.CompletedAt = &now
		}
	}
	if patch.CurrentStep != nil {
		b.CurrentStep = *patch.CurrentStep
	}
	if patch.Progress != nil {
		b.Progress = max(b.Progress, *patch.Progress)
	}
	if patch.TotalContactsFound != nil {
		b.TotalContactsFound = *patch.TotalContactsFound
	}
	if patch.TotalEmailsDrafted != nil {
		b.TotalEmailsDrafted = *patch.TotalEmailsDrafted
	}
	if patch.ErrorMessage != nil {
		b.ErrorMessage = patch.ErrorMessage
	}
	out := *b
	return &out, nil
}

func (s *MemoryStore) CreateContact(_ context.Context, input db.ContactCreateInput) (*db.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("CreateContact"); err != nil {
		return nil, err
	}

	source := input.Source
	if source == "" {
		source = "apollo"
	}
	now := time.Now()
	c := db.Contact{
		ID:              uuid.New(),
		CompanyID:       input.CompanyID,
		BatchID:         input.BatchID,
		FullName:        input.FullName,
		FirstName:       input.FirstName,
		LastName:        input.LastName,
		Title:           input.Title,
		Department:      input.Department,
		Seniority:       input.Seniority,
		Email:           input.Email,
		EmailStatus:     input.EmailStatus,
		EmailConfidence: input.EmailConfidence,
		LinkedInURL:     input.LinkedInURL,
		PhotoURL:        input.PhotoURL,
		Headline:        input.Headline,
		Location:        input.Location,
		ResearchSummary: input.ResearchSummary,
		Source:          source,
		VerifiedAt:      input.VerifiedAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.contacts = append(s.contacts, c)
	return &c, nil
}

func (s *MemoryStore) findContact(batchID uuid.UUID, email string) int {
	for i, c := range s.contacts {
		if c.BatchID == batchID && c.Email != nil && strings.EqualFold(*c.Email, email) {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) UpsertContactByEmail(_ context.Context, batchID, companyID uuid.UUID, input db.ContactUpsertInput) (*db.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("UpsertContactByEmail"); err != nil {
		return nil, err
	}

	if i := s.findContact(batchID, input.Email); i >= 0 {
		c := &s.contacts[i]
		if input.FullName != "" {
			c.FullName = input.FullName
			c.FirstName, c.LastName = db.SplitName(input.FullName)
		}
		if input.Title != "" {
			c.Title = input.Title
		}
		if input.LinkedInURL != nil {
			c.LinkedInURL = input.LinkedInURL
		}
		if input.ResearchSummary != nil {
			c.ResearchSummary = input.ResearchSummary
		}
		c.UpdatedAt = time.Now()
		out := *c
		return &out, nil
	}

	first, last := db.SplitName(input.FullName)
	email := input.Email
	now := time.Now()
	c := db.Contact{
		ID:              uuid.New(),
		CompanyID:       companyID,
		BatchID:         batchID,
		FullName:        input.FullName,
		FirstName:       first,
		LastName:        last,
		Title:           input.Title,
		Email:           &email,
		EmailStatus:     "unknown",
		LinkedInURL:     input.LinkedInURL,
		ResearchSummary: input.ResearchSummary,
		Source:          "workflow",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.contacts = append(s.contacts, c)
	return &c, nil
}

func (s *MemoryStore) FindContactByEmail(_ context.Context, batchID uuid.UUID, email string) (*db.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.findContact(batchID, email); i >= 0 {
		out := s.contacts[i]
		return &out, nil
	}
	return nil, nil
}

func (s *MemoryStore) ListContactsByBatch(_ context.Context, batchID uuid.UUID) ([]db.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []db.Contact
	for _, c := range s.contacts {
		if c.BatchID == batchID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateEmail(_ context.Context, input db.EmailCreateInput) (*db.OutreachEmail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("CreateEmail"); err != nil {
		return nil, err
	}
	for _, c := range s.contacts {
		if c.ID == input.ContactID && s.FailEmailsFor[c.FullName] {
			return nil, fmt.Errorf("failed to create email for %s", c.FullName)
		}
	}

	now := time.Now()
	e := db.OutreachEmail{
		ID:               uuid.New(),
		ContactID:        input.ContactID,
		BatchID:          input.BatchID,
		Subject:          input.Subject,
		Body:             input.Body,
		Personalizations: input.Personalizations,
		AIGeneratedBy:    input.AIGeneratedBy,
		Status:           db.EmailDraft,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.emails = append(s.emails, e)
	return &e, nil
}

func (s *MemoryStore) UpsertEmail(ctx context.Context, input db.EmailCreateInput) (*db.OutreachEmail, bool, error) {
	if e, err := s.updateEmail(input); err != nil || e != nil {
		return e, false, err
	}
	e, err := s.CreateEmail(ctx, input)
	if err != nil {
		return nil, false, err
	}
	return e, true, nil
}

// updateEmail rewrites the batch's draft for input.ContactID, if there is one.
func (s *MemoryStore) updateEmail(input db.EmailCreateInput) (*db.OutreachEmail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("UpsertEmail"); err != nil {
		return nil, err
	}

	for i := range s.emails {
		e := &s.emails[i]
		if e.BatchID != input.BatchID || e.ContactID != input.ContactID {
			continue
		}
		e.Subject, e.Body, e.Personalizations = input.Subject, input.Body, input.Personalizations
		if input.AIGeneratedBy != nil {
			e.AIGeneratedBy = input.AIGeneratedBy
		}
		e.UpdatedAt = time.Now()
		out := *e
		return &out, nil
	}
	return nil, nil
}

func (s *MemoryStore) ListEmailsByBatch(_ context.Context, batchID uuid.UUID) ([]db.OutreachEmail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []db.OutreachEmail
	for _, e := range s.emails {
		if e.BatchID == batchID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Progress returns every progress write for a batch, in order.
func (s *MemoryStore) Progress(id uuid.UUID) []ProgressEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ProgressEvent(nil), s.progress[id]...)
}

// BatchCount returns how many batches exist.
func (s *MemoryStore) BatchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}
