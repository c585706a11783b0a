package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// CreateEmail inserts a drafted email with status draft.
func (db *DB) CreateEmail(ctx context.Context, input EmailCreateInput) (*OutreachEmail, error) {
	personalizations, err := json.Marshal(input.Personalizations)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal personalizations: %w", err)
	}

	var e OutreachEmail
	var raw []byte
	err = db.pool.QueryRow(ctx,
		`INSERT INTO outreach_emails (contact_id, batch_id, subject, body, personalizations, ai_generated_by, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, contact_id, batch_id, subject, body, personalizations, ai_generated_by, status, created_at, updated_at`,
		input.ContactID, input.BatchID, input.Subject, input.Body, personalizations, input.AIGeneratedBy, EmailDraft,
	).Scan(&e.ID, &e.ContactID, &e.BatchID, &e.Subject, &e.Body, &raw, &e.AIGeneratedBy, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create email: %w", err)
	}
	if err := json.Unmarshal(raw, &e.Personalizations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal personalizations: %w", err)
	}
	return &e, nil
}

// UpsertEmail stores the draft for a contact in a batch, replacing the subject,
// body and personalizations of an existing draft. created reports whether a new
// row was inserted.
func (db *DB) UpsertEmail(ctx context.Context, input EmailCreateInput) (email *OutreachEmail, created bool, err error) {
	personalizations, err := json.Marshal(input.Personalizations)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal personalizations: %w", err)
	}

	var e OutreachEmail
	var raw []byte
	err = db.pool.QueryRow(ctx,
		`INSERT INTO outreach_emails (contact_id, batch_id, subject, body, personalizations, ai_generated_by, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (batch_id, contact_id) DO UPDATE SET
		     subject = EXCLUDED.subject,
		     body = EXCLUDED.body,
		     personalizations = EXCLUDED.personalizations,
		     ai_generated_by = COALESCE(EXCLUDED.ai_generated_by, outreach_emails.ai_generated_by),
		     updated_at = NOW()
		 RETURNING id, contact_id, batch_id, subject, body, personalizations, ai_generated_by, status, created_at, updated_at,
		     (xmax = 0) AS inserted`,
		input.ContactID, input.BatchID, input.Subject, input.Body, personalizations, input.AIGeneratedBy, EmailDraft,
	).Scan(&e.ID, &e.ContactID, &e.BatchID, &e.Subject, &e.Body, &raw, &e.AIGeneratedBy, &e.Status, &e.CreatedAt, &e.UpdatedAt, &created)
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert email: %w", err)
	}
	if err := json.Unmarshal(raw, &e.Personalizations); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal personalizations: %w", err)
	}
	return &e, created, nil
}

// ListEmailsByBatch returns a batch's drafted emails in creation order.
func (db *DB) ListEmailsByBatch(ctx context.Context, batchID uuid.UUID) ([]OutreachEmail, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, contact_id, batch_id, subject, body, personalizations, ai_generated_by, status, created_at, updated_at
		 FROM outreach_emails WHERE batch_id = $1 ORDER BY created_at, id`,
		batchID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}
	defer rows.Close()

	var emails []OutreachEmail
	for rows.Next() {
		var e OutreachEmail
		var raw []byte
		if err := rows.Scan(&e.ID, &e.ContactID, &e.BatchID, &e.Subject, &e.Body, &raw, &e.AIGeneratedBy, &e.Status, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan email: %w", err)
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &e.Personalizations); err != nil {
				return nil, fmt.Errorf("failed to unmarshal personalizations for email %s: %w", e.ID, err)
			}
		}
		emails = append(emails, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate emails: %w", err)
	}
	return emails, nil
}
