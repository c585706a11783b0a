package outreach

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/pathfinder/internal/db"
	"github.com/jonathan/pathfinder/internal/drafting"
)

const (
	stepWorkflowInit    = "Initializing workflow..."
	stepWorkflowRunning = "Workflow running..."
	workflowProgress    = 5
)

// StudentProfile is the sender profile submitted with a launch.
type StudentProfile struct {
	FirstName string
	LastName  string
	Email     string
	School    string
	Major     string
	Skills    []string
}

// Sender converts the profile to the drafting sender identity.
func (p StudentProfile) Sender() drafting.Sender {
	return drafting.Sender{
		Name:   strings.TrimSpace(p.FirstName + " " + p.LastName),
		Email:  p.Email,
		School: p.School,
		Major:  p.Major,
		Skills: p.Skills,
	}
}

// LaunchRequest asks for outreach on a job on behalf of an authenticated user.
type LaunchRequest struct {
	JobID       uuid.UUID
	UserID      uuid.UUID
	Profile     StudentProfile
	MaxContacts int
}

// LaunchResult reports the batch a launch created.
type LaunchResult struct {
	BatchID uuid.UUID
	Status  db.BatchStatus
	Message string
}

// Launcher starts batches in the background, either in this process or on an
// external workflow engine when a WebhookTrigger is configured.
type Launcher struct {
	orchestrator *Orchestrator
	store        Store
	webhook      *WebhookTrigger
	logger       *zap.Logger

	wg sync.WaitGroup
}

// NewLauncher creates a Launcher. A nil webhook runs batches in-process.
func NewLauncher(orchestrator *Orchestrator, webhook *WebhookTrigger) *Launcher {
	return &Launcher{
		orchestrator: orchestrator,
		store:        orchestrator.store,
		webhook:      webhook,
		logger:       orchestrator.logger,
	}
}

// Launch validates the request, creates the batch and starts it. It returns as
// soon as the batch exists; progress is read with Status.
func (l *Launcher) Launch(ctx context.Context, req LaunchRequest) (*LaunchResult, error) {
	job, err := l.orchestrator.loadJob(ctx, req.JobID)
	if err != nil {
		return nil, err
	}

	var userID *uuid.UUID
	if req.UserID != uuid.Nil {
		user, err := l.store.UpsertUser(ctx, db.UserUpsertInput{
			ID:        req.UserID,
			Email:     req.Profile.Email,
			FirstName: req.Profile.FirstName,
			LastName:  req.Profile.LastName,
			School:    req.Profile.School,
			Major:     req.Profile.Major,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to save sender profile: %w", err)
		}
		userID = &user.ID

		existing, err := l.store.FindBatchForUserJob(ctx, user.ID, job.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing batches: %w", err)
		}
		// A failed batch may be relaunched.
		if existing != nil && existing.Status != db.BatchFailed {
			return nil, &BatchExistsError{BatchID: existing.ID, Status: string(existing.Status)}
		}
	}

	orchReq := Request{
		JobID:       job.ID,
		UserID:      userID,
		MaxContacts: req.MaxContacts,
		Sender:      req.Profile.Sender(),
	}
	if l.webhook != nil {
		return l.launchWorkflow(ctx, job, orchReq)
	}
	return l.launchLocal(ctx, job, orchReq)
}

func (l *Launcher) launchLocal(ctx context.Context, job *db.Job, req Request) (*LaunchResult, error) {
	run, err := l.orchestrator.prepareJob(ctx, job, req, stepInitializing)
	if err != nil {
		return nil, err
	}

	// The run outlives the request that started it.
	runCtx := context.WithoutCancel(ctx)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.orchestrator.Execute(runCtx, run)
	}()

	return &LaunchResult{
		BatchID: run.Batch.ID,
		Status:  run.Batch.Status,
		Message: "Outreach started. Poll the status endpoint for progress.",
	}, nil
}

func (l *Launcher) launchWorkflow(ctx context.Context, job *db.Job, req Request) (*LaunchResult, error) {
	run, err := l.orchestrator.prepareJob(ctx, job, req, stepWorkflowInit)
	if err != nil {
		return nil, err
	}
	batchID := run.Batch.ID

	payload := WebhookPayload{
		BatchID:        batchID,
		JobID:          job.ID,
		CompanyName:    job.Company.Name,
		CompanyDomain:  job.Company.SearchDomain(),
		JobTitle:       job.Title,
		JobDescription: db.Deref(job.Description),
		MaxContacts:    run.Request.MaxContacts,
	}
	if sender := req.Sender; sender.Email != "" || sender.Name != "" {
		skills := sender.Skills
		if skills == nil {
			skills = []string{}
		}
		payload.StudentProfile = &WebhookSender{
			Name:   sender.DisplayName(),
			Email:  sender.Email,
			School: sender.School,
			Major:  sender.Major,
			Skills: skills,
		}
	}

	detached := context.WithoutCancel(ctx)
	if err := l.webhook.Trigger(ctx, payload); err != nil {
		l.logger.Error("workflow trigger failed", zap.String("batch_id", batchID.String()), zap.Error(err))
		if failErr := l.store.FailBatch(detached, batchID, err.Error(), StepWebhookTrigger); failErr != nil {
			l.logger.Error("failed to mark batch failed", zap.Error(failErr))
		}
		l.orchestrator.metrics.BatchFinished(string(db.BatchFailed), 0, 0, 0)
		return nil, err
	}

	// The workflow may already have called back; a finished batch keeps its status.
	if err := l.store.UpdateBatchProgress(detached, batchID, db.BatchProcessing, stepWorkflowRunning, workflowProgress); err != nil {
		return nil, fmt.Errorf("failed to update batch progress: %w", err)
	}
	status := db.BatchProcessing
	if batch, err := l.store.GetBatch(detached, batchID); err == nil && batch != nil {
		status = batch.Status
	}
	return &LaunchResult{
		BatchID: batchID,
		Status:  status,
		Message: "Outreach workflow triggered successfully",
	}, nil
}

// VerifyCallback checks a workflow callback token for batchID.
func (l *Launcher) VerifyCallback(token string, batchID uuid.UUID) error {
	if l.webhook == nil {
		return errors.New("workflow callbacks are not enabled")
	}
	return l.webhook.signer.Verify(token, batchID)
}

// Wait blocks until every in-process run has finished.
func (l *Launcher) Wait() {
	l.wg.Wait()
}
