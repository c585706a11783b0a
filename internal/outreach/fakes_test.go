package outreach

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonathan/pathfinder/internal/apollo"
	"github.com/jonathan/pathfinder/internal/db"
	"github.com/jonathan/pathfinder/internal/drafting"
	"github.com/jonathan/pathfinder/internal/outreach/outreachtest"
	"github.com/jonathan/pathfinder/internal/research"
)

var _ Store = (*outreachtest.MemoryStore)(nil)

type fakeContacts struct {
	mu         sync.Mutex
	candidates []apollo.Candidate
	err        error
	calls      []apollo.SearchParams
}

func (f *fakeContacts) FindHiringContacts(_ context.Context, params apollo.SearchParams) ([]apollo.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, params)
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

type fakeEnricher struct {
	mu       sync.Mutex
	matches  map[string]*apollo.Candidate // keyed by "first last"
	verdicts map[string]apollo.EmailVerification
	matched  []string
	verified []string
}

func (f *fakeEnricher) EnrichContact(_ context.Context, firstName, lastName, _ string) *apollo.Candidate {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := firstName + " " + lastName
	f.matched = append(f.matched, name)
	return f.matches[name]
}

func (f *fakeEnricher) VerifyEmail(_ context.Context, email string) apollo.EmailVerification {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verified = append(f.verified, email)
	if v, ok := f.verdicts[email]; ok {
		return v
	}
	return apollo.EmailVerification{Status: "unknown", Confidence: 0.5}
}

type fakeResearcher struct {
	mu       sync.Mutex
	profiles map[string]*research.Profile
	calls    []string
}

func (f *fakeResearcher) ResearchPerson(_ context.Context, profileURL string) *research.Profile {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, profileURL)
	return f.profiles[profileURL]
}

type fakeFinder struct {
	urls map[string]string
}

func (f *fakeFinder) FindProfileURL(_ context.Context, fullName, _ string) string {
	return f.urls[fullName]
}

type fakeDrafter struct {
	mu     sync.Mutex
	params []drafting.Params
}

func (f *fakeDrafter) GenerateEmail(_ context.Context, p drafting.Params) drafting.Email {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params = append(f.params, p)
	return drafting.Email{
		Subject: "Hello " + p.RecipientFirstName(),
		Body:    fmt.Sprintf("Hi %s, about %s at %s.", p.RecipientFirstName(), p.JobTitle, p.CompanyName),
		Personalizations: drafting.Personalizations{
			SpecificMention:   p.RecipientTitle,
			RelevantSkill:     "Go",
			CompanyConnection: p.CompanyName,
		},
	}
}

func (f *fakeDrafter) Model() string { return "fake-model" }

func strPtr(s string) *string { return &s }

// candidate builds a search result; emailStatus "" means no address.
func candidate(name, title, emailStatus string) apollo.Candidate {
	c := apollo.Candidate{Name: name, Title: title, EmailStatus: emailStatus}
	c.FirstName, c.LastName = db.SplitName(name)
	if emailStatus != "" {
		c.Email = strPtr(fmt.Sprintf("%s@acme.com", c.FirstName))
	}
	return c
}

type fixture struct {
	store      *outreachtest.MemoryStore
	contacts   *fakeContacts
	researcher *fakeResearcher
	drafter    *fakeDrafter
	job        *db.Job
	company    *db.Company
}

func newFixture(candidates ...apollo.Candidate) *fixture {
	store := outreachtest.NewMemoryStore()
	company := store.AddCompany("Acme", "acme.com", "Developer tools", "Cloud")
	return &fixture{
		store:      store,
		contacts:   &fakeContacts{candidates: candidates},
		researcher: &fakeResearcher{profiles: map[string]*research.Profile{}},
		drafter:    &fakeDrafter{},
		job:        store.AddJob("Software Engineering Intern", company),
		company:    company,
	}
}

func (f *fixture) orchestrator(opts ...Option) *Orchestrator {
	return New(f.store, f.contacts, f.researcher, f.drafter, opts...)
}
