package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const batchColumns = `id, job_id, company_id, user_id, status, current_step, progress,
	total_contacts_found, total_contacts_enriched, total_emails_drafted,
	started_at, completed_at, error_message, error_step, created_at, updated_at`

func scanBatch(row pgx.Row) (*OutreachBatch, error) {
	var b OutreachBatch
	err := row.Scan(&b.ID, &b.JobID, &b.CompanyID, &b.UserID, &b.Status, &b.CurrentStep, &b.Progress,
		&b.TotalContactsFound, &b.TotalContactsEnriched, &b.TotalEmailsDrafted,
		&b.StartedAt, &b.CompletedAt, &b.ErrorMessage, &b.ErrorStep, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// -----------------------------------------------------------------------------
// Batch Methods
// -----------------------------------------------------------------------------

// CreateBatch inserts a pending batch with progress 0 and started_at set to now.
func (db *DB) CreateBatch(ctx context.Context, input BatchCreateInput) (*OutreachBatch, error) {
	step := input.CurrentStep
	if step == "" {
		step = "Initializing..."
	}
	b, err := scanBatch(db.pool.QueryRow(ctx,
		`INSERT INTO outreach_batches (job_id, company_id, user_id, status, current_step, progress)
		 VALUES ($1, $2, $3, $4, $5, 0)
		 RETURNING `+batchColumns,
		input.JobID, input.CompanyID, input.UserID, BatchPending, step,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create batch: %w", err)
	}
	return b, nil
}

// GetBatch retrieves a batch by ID. Returns nil, nil when it does not exist.
func (db *DB) GetBatch(ctx context.Context, id uuid.UUID) (*OutreachBatch, error) {
	b, err := scanBatch(db.pool.QueryRow(ctx,
		`SELECT `+batchColumns+` FROM outreach_batches WHERE id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}
	return b, nil
}

// FindBatchForUserJob returns the most recent batch a user started for a job, or nil.
func (db *DB) FindBatchForUserJob(ctx context.Context, userID, jobID uuid.UUID) (*OutreachBatch, error) {
	b, err := scanBatch(db.pool.QueryRow(ctx,
		`SELECT `+batchColumns+` FROM outreach_batches
		 WHERE user_id = $1 AND job_id = $2
		 ORDER BY created_at DESC LIMIT 1`,
		userID, jobID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find batch: %w", err)
	}
	return b, nil
}

// UpdateBatchProgress sets status, step label and progress. Progress never moves
// backwards and a completed or failed batch is left untouched.
func (db *DB) UpdateBatchProgress(ctx context.Context, id uuid.UUID, status BatchStatus, step string, progress int) error {
	var found bool
	err := db.pool.QueryRow(ctx,
		`WITH updated AS (
		     UPDATE outreach_batches
		     SET status = $2, current_step = $3, progress = GREATEST(progress, $4), updated_at = NOW()
		     WHERE id = $1 AND status NOT IN ('completed', 'failed')
		     RETURNING id
		 )
		 SELECT EXISTS (SELECT 1 FROM outreach_batches WHERE id = $1)`,
		id, status, step, progress,
	).Scan(&found)
	if err != nil {
		return fmt.Errorf("failed to update batch progress: %w", err)
	}
	if !found {
		return fmt.Errorf("batch not found: %s", id)
	}
	return nil
}

// SetContactsFound records the number of contacts kept after ranking.
func (db *DB) SetContactsFound(ctx context.Context, id uuid.UUID, n int) error {
	return db.setCounter(ctx, id, "total_contacts_found", n)
}

// SetContactsEnriched records the number of contacts persisted after research.
func (db *DB) SetContactsEnriched(ctx context.Context, id uuid.UUID, n int) error {
	return db.setCounter(ctx, id, "total_contacts_enriched", n)
}

// SetEmailsDrafted records the number of emails persisted.
func (db *DB) SetEmailsDrafted(ctx context.Context, id uuid.UUID, n int) error {
	return db.setCounter(ctx, id, "total_emails_drafted", n)
}

// column is one of the fixed counter names above, never user input.
func (db *DB) setCounter(ctx context.Context, id uuid.UUID, column string, n int) error {
	_, err := db.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE outreach_batches SET %s = $2, updated_at = NOW() WHERE id = $1`, column),
		id, n,
	)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", column, err)
	}
	return nil
}

// FinishBatch marks a batch completed at progress 100.
func (db *DB) FinishBatch(ctx context.Context, id uuid.UUID, step string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE outreach_batches
		 SET status = $2, current_step = $3, progress = 100, completed_at = NOW(), updated_at = NOW()
		 WHERE id = $1`,
		id, BatchCompleted, step,
	)
	if err != nil {
		return fmt.Errorf("failed to finish batch: %w", err)
	}
	return nil
}

// FailBatch marks a batch failed with the error message and the step that failed.
// Progress is left where the run stopped.
func (db *DB) FailBatch(ctx context.Context, id uuid.UUID, message, errorStep string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE outreach_batches
		 SET status = $2, error_message = $3, error_step = $4, completed_at = NOW(), updated_at = NOW()
		 WHERE id = $1`,
		id, BatchFailed, message, errorStep,
	)
	if err != nil {
		return fmt.Errorf("failed to fail batch: %w", err)
	}
	return nil
}

// PatchBatch applies a partial update from a workflow callback and returns the updated row.
// Reaching a terminal status stamps completed_at.
func (db *DB) PatchBatch(ctx context.Context, id uuid.UUID, patch BatchPatch) (*OutreachBatch, error) {
	b, err := scanBatch(db.pool.QueryRow(ctx,
		`UPDATE outreach_batches SET
		     status = COALESCE($2, status),
		     current_step = COALESCE($3, current_step),
		     progress = GREATEST(progress, COALESCE($4, progress)),
		     total_contacts_found = COALESCE($5, total_contacts_found),
		     total_emails_drafted = COALESCE($6, total_emails_drafted),
		     error_message = COALESCE($7, error_message),
		     completed_at = CASE
		         WHEN COALESCE($2, status) IN ('completed', 'failed') THEN COALESCE(completed_at, NOW())
		         ELSE completed_at END,
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+batchColumns,
		id, patch.Status, patch.CurrentStep, patch.Progress,
		patch.TotalContactsFound, patch.TotalEmailsDrafted, patch.ErrorMessage,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to patch batch: %w", err)
	}
	return b, nil
}
