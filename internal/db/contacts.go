package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const contactColumns = `id, company_id, batch_id, full_name, first_name, last_name, title,
	department, seniority, email, email_status, email_confidence, linkedin_url, photo_url,
	headline, location, research_summary, source, verified_at, created_at, updated_at`

func scanContact(row pgx.Row) (*Contact, error) {
	var c Contact
	err := row.Scan(&c.ID, &c.CompanyID, &c.BatchID, &c.FullName, &c.FirstName, &c.LastName, &c.Title,
		&c.Department, &c.Seniority, &c.Email, &c.EmailStatus, &c.EmailConfidence, &c.LinkedInURL, &c.PhotoURL,
		&c.Headline, &c.Location, &c.ResearchSummary, &c.Source, &c.VerifiedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// -----------------------------------------------------------------------------
// Contact Methods
// -----------------------------------------------------------------------------

// CreateContact inserts a contact row for a batch.
func (db *DB) CreateContact(ctx context.Context, input ContactCreateInput) (*Contact, error) {
	source := input.Source
	if source == "" {
		source = "apollo"
	}
	c, err := scanContact(db.pool.QueryRow(ctx,
		`INSERT INTO contacts (company_id, batch_id, full_name, first_name, last_name, title,
		     department, seniority, email, email_status, email_confidence, linkedin_url, photo_url,
		     headline, location, research_summary, source, verified_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		 RETURNING `+contactColumns,
		input.CompanyID, input.BatchID, input.FullName, input.FirstName, input.LastName, input.Title,
		input.Department, input.Seniority, input.Email, input.EmailStatus, input.EmailConfidence,
		input.LinkedInURL, input.PhotoURL, input.Headline, input.Location, input.ResearchSummary, source,
		input.VerifiedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	return c, nil
}

// FindContactByEmail finds a batch's contact by email (case-insensitive). Returns nil, nil when absent.
func (db *DB) FindContactByEmail(ctx context.Context, batchID uuid.UUID, email string) (*Contact, error) {
	c, err := scanContact(db.pool.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts
		 WHERE batch_id = $1 AND lower(email) = lower($2)
		 ORDER BY created_at LIMIT 1`,
		batchID, email))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find contact: %w", err)
	}
	return c, nil
}

// UpsertContactByEmail updates the batch's contact with the same email, or inserts one.
// The lookup and write share a transaction so repeated callbacks do not duplicate rows.
func (db *DB) UpsertContactByEmail(ctx context.Context, batchID, companyID uuid.UUID, input ContactUpsertInput) (*Contact, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" {
		return nil, fmt.Errorf("contact email cannot be empty")
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Serialize upserts per batch.
	if _, err := tx.Exec(ctx, `SELECT id FROM outreach_batches WHERE id = $1 FOR UPDATE`, batchID); err != nil {
		return nil, fmt.Errorf("failed to lock batch: %w", err)
	}

	var existingID uuid.UUID
	err = tx.QueryRow(ctx,
		`SELECT id FROM contacts WHERE batch_id = $1 AND lower(email) = lower($2) ORDER BY created_at LIMIT 1`,
		batchID, email,
	).Scan(&existingID)

	first, last := SplitName(input.FullName)
	var c *Contact
	switch {
	case err == pgx.ErrNoRows:
		c, err = scanContact(tx.QueryRow(ctx,
			`INSERT INTO contacts (company_id, batch_id, full_name, first_name, last_name, title,
			     email, email_status, email_confidence, linkedin_url, research_summary, source)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, 'unknown', 0, $8, $9, 'workflow')
			 RETURNING `+contactColumns,
			companyID, batchID, input.FullName, first, last, input.Title,
			email, input.LinkedInURL, input.ResearchSummary,
		))
		if err != nil {
			return nil, fmt.Errorf("failed to insert contact: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to find contact: %w", err)
	default:
		c, err = scanContact(tx.QueryRow(ctx,
			`UPDATE contacts SET
			     full_name = COALESCE(NULLIF($2, ''), full_name),
			     first_name = COALESCE(NULLIF($3, ''), first_name),
			     last_name = COALESCE(NULLIF($4, ''), last_name),
			     title = COALESCE(NULLIF($5, ''), title),
			     linkedin_url = COALESCE($6, linkedin_url),
			     research_summary = COALESCE($7, research_summary),
			     updated_at = NOW()
			 WHERE id = $1
			 RETURNING `+contactColumns,
			existingID, input.FullName, first, last, input.Title, input.LinkedInURL, input.ResearchSummary,
		))
		if err != nil {
			return nil, fmt.Errorf("failed to update contact: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit contact upsert: %w", err)
	}
	return c, nil
}

// ListContactsByBatch returns a batch's contacts in creation order.
func (db *DB) ListContactsByBatch(ctx context.Context, batchID uuid.UUID) ([]Contact, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE batch_id = $1 ORDER BY created_at, id`,
		batchID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contacts: %w", err)
	}
	return contacts, nil
}

// SplitName splits a full name on the first space.
func SplitName(full string) (first, last string) {
	full = strings.TrimSpace(full)
	if full == "" {
		return "", ""
	}
	parts := strings.SplitN(full, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.TrimSpace(parts[1])
}
