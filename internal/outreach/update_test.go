package outreach

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/pathfinder/internal/db"
)

func intPtr(n int) *int { return &n }

func newProcessingBatch(t *testing.T, f *fixture) *db.OutreachBatch {
	t.Helper()
	ctx := context.Background()
	batch, err := f.store.CreateBatch(ctx, db.BatchCreateInput{JobID: f.job.ID, CompanyID: &f.company.ID})
	require.NoError(t, err)
	require.NoError(t, f.store.UpdateBatchProgress(ctx, batch.ID, db.BatchProcessing, "Workflow running...", 5))
	return batch
}

func TestApplyUpdate_ProgressOnly(t *testing.T) {
	f := newFixture()
	launcher := NewLauncher(f.orchestrator(), nil)
	batch := newProcessingBatch(t, f)
	ctx := context.Background()

	result, err := launcher.ApplyUpdate(ctx, batch.ID, Update{
		CurrentStep:        strPtr("Researching contacts..."),
		Progress:           intPtr(45),
		TotalContactsFound: intPtr(4),
	})
	require.NoError(t, err)
	assert.Equal(t, UpdateResult{}, *result)

	updated, err := f.store.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, db.BatchProcessing, updated.Status)
	assert.Equal(t, "Researching contacts...", updated.CurrentStep)
	assert.Equal(t, 45, updated.Progress)
	assert.Equal(t, 4, updated.TotalContactsFound)
}

func TestApplyUpdate_ProgressNeverDecreases(t *testing.T) {
	f := newFixture()
	launcher := NewLauncher(f.orchestrator(), nil)
	batch := newProcessingBatch(t, f)
	ctx := context.Background()

	_, err := launcher.ApplyUpdate(ctx, batch.ID, Update{Progress: intPtr(60)})
	require.NoError(t, err)
	_, err = launcher.ApplyUpdate(ctx, batch.ID, Update{Progress: intPtr(30)})
	require.NoError(t, err)

	updated, err := f.store.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, updated.Progress)
}

func TestApplyUpdate_ContactsAndEmails(t *testing.T) {
	f := newFixture()
	launcher := NewLauncher(f.orchestrator(), nil)
	batch := newProcessingBatch(t, f)
	ctx := context.Background()

	result, err := launcher.ApplyUpdate(ctx, batch.ID, Update{
		Status:             strPtr("completed"),
		CurrentStep:        strPtr("Outreach preparation complete!"),
		Progress:           intPtr(100),
		TotalContactsFound: intPtr(2),
		TotalEmailsDrafted: intPtr(1),
		Contacts: []UpdateContact{
			{FullName: "Vera Verified", Email: "vera@acme.com", Title: "Recruiter"},
			{FullName: "No Address", Email: "  ", Title: "Recruiter"},
			{FullName: "Gus Guessed", Email: "gus@acme.com", Title: "Talent Partner"},
		},
		Emails: []UpdateEmail{
			{
				RecipientEmail: "VERA@acme.com",
				Subject:        "Hello Vera",
				Body:           "Hi Vera, I would love to learn about the internship.",
				Personalizations: &db.Personalizations{
					SpecificMention: "Recruiter",
				},
			},
			{RecipientEmail: "stranger@acme.com", Subject: "Hi", Body: "Nobody reported this contact."},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, UpdateResult{ContactsUpserted: 2, EmailsCreated: 1, EmailsSkipped: 1}, *result)

	contacts, err := f.store.ListContactsByBatch(ctx, batch.ID)
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, "Vera", contacts[0].FirstName)
	assert.Equal(t, f.company.ID, contacts[0].CompanyID)

	emails, err := f.store.ListEmailsByBatch(ctx, batch.ID)
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.Equal(t, contacts[0].ID, emails[0].ContactID)
	assert.Equal(t, "Recruiter", emails[0].Personalizations.SpecificMention)

	updated, err := f.store.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, db.BatchCompleted, updated.Status)
	assert.NotNil(t, updated.CompletedAt)
}

func TestApplyUpdate_UpsertsRepeatedContact(t *testing.T) {
	f := newFixture()
	launcher := NewLauncher(f.orchestrator(), nil)
	batch := newProcessingBatch(t, f)
	ctx := context.Background()

	_, err := launcher.ApplyUpdate(ctx, batch.ID, Update{Contacts: []UpdateContact{
		{FullName: "Vera Verified", Email: "vera@acme.com", Title: "Recruiter"},
	}})
	require.NoError(t, err)
	_, err = launcher.ApplyUpdate(ctx, batch.ID, Update{Contacts: []UpdateContact{
		{FullName: "Vera Verified", Email: "vera@acme.com", Title: "Senior Recruiter", ResearchSummary: strPtr("Hires interns")},
	}})
	require.NoError(t, err)

	contacts, err := f.store.ListContactsByBatch(ctx, batch.ID)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Senior Recruiter", contacts[0].Title)
	assert.Equal(t, "Hires interns", db.Deref(contacts[0].ResearchSummary))
}

func TestApplyUpdate_RepeatedReportDoesNotDuplicateEmails(t *testing.T) {
	f := newFixture()
	launcher := NewLauncher(f.orchestrator(), nil)
	batch := newProcessingBatch(t, f)
	ctx := context.Background()

	report := func(subject string) Update {
		return Update{
			TotalContactsFound: intPtr(1),
			TotalEmailsDrafted: intPtr(1),
			Contacts:           []UpdateContact{{FullName: "Vera Verified", Email: "vera@acme.com", Title: "Recruiter"}},
			Emails:             []UpdateEmail{{RecipientEmail: "vera@acme.com", Subject: subject, Body: "Hi Vera"}},
		}
	}

	first, err := launcher.ApplyUpdate(ctx, batch.ID, report("Hello Vera"))
	require.NoError(t, err)
	assert.Equal(t, UpdateResult{ContactsUpserted: 1, EmailsCreated: 1}, *first)

	second, err := launcher.ApplyUpdate(ctx, batch.ID, report("Hello again, Vera"))
	require.NoError(t, err)
	assert.Equal(t, UpdateResult{ContactsUpserted: 1, EmailsUpdated: 1}, *second)

	contacts, err := f.store.ListContactsByBatch(ctx, batch.ID)
	require.NoError(t, err)
	emails, err := f.store.ListEmailsByBatch(ctx, batch.ID)
	require.NoError(t, err)
	updated, err := f.store.GetBatch(ctx, batch.ID)
	require.NoError(t, err)

	require.Len(t, emails, 1)
	assert.Equal(t, "Hello again, Vera", emails[0].Subject)
	assert.Len(t, contacts, updated.TotalContactsFound)
	assert.Len(t, emails, updated.TotalEmailsDrafted)
}

func TestApplyUpdate_StatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    db.BatchStatus
		to      string
		wantErr bool
	}{
		{"processing to phase", db.BatchProcessing, "finding_contacts", false},
		{"phase forward", db.BatchFindingContacts, "drafting_emails", false},
		{"phase to processing", db.BatchResearching, "processing", false},
		{"phase to completed", db.BatchDraftingEmails, "completed", false},
		{"same phase", db.BatchResearching, "researching", false},
		{"phase backwards", db.BatchDraftingEmails, "finding_contacts", true},
		{"back to pending", db.BatchDraftingEmails, "pending", true},
		{"processing to pending", db.BatchProcessing, "pending", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			launcher := NewLauncher(f.orchestrator(), nil)
			batch := newProcessingBatch(t, f)
			ctx := context.Background()
			require.NoError(t, f.store.UpdateBatchProgress(ctx, batch.ID, tt.from, "Working...", 10))

			_, err := launcher.ApplyUpdate(ctx, batch.ID, Update{Status: strPtr(tt.to)})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidUpdate)
				got, getErr := f.store.GetBatch(ctx, batch.ID)
				require.NoError(t, getErr)
				assert.Equal(t, tt.from, got.Status)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestApplyUpdate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		update Update
	}{
		{"unknown status", Update{Status: strPtr("exploded")}},
		{"negative progress", Update{Progress: intPtr(-1)}},
		{"progress over 100", Update{Progress: intPtr(101)}},
		{"negative counter", Update{TotalEmailsDrafted: intPtr(-2)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			launcher := NewLauncher(f.orchestrator(), nil)
			batch := newProcessingBatch(t, f)

			_, err := launcher.ApplyUpdate(context.Background(), batch.ID, tt.update)
			assert.ErrorIs(t, err, ErrInvalidUpdate)
		})
	}
}

func TestApplyUpdate_TerminalBatch(t *testing.T) {
	f := newFixture()
	launcher := NewLauncher(f.orchestrator(), nil)
	batch := newProcessingBatch(t, f)
	ctx := context.Background()
	require.NoError(t, f.store.FailBatch(ctx, batch.ID, "boom", StepOrchestration))

	_, err := launcher.ApplyUpdate(ctx, batch.ID, Update{Progress: intPtr(90)})
	assert.ErrorIs(t, err, ErrInvalidUpdate)
}

func TestApplyUpdate_UnknownBatch(t *testing.T) {
	f := newFixture()
	launcher := NewLauncher(f.orchestrator(), nil)

	_, err := launcher.ApplyUpdate(context.Background(), uuid.New(), Update{Progress: intPtr(10)})
	assert.ErrorIs(t, err, ErrBatchNotFound)
}
