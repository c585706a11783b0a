package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/pathfinder/internal/drafting"
	"github.com/jonathan/pathfinder/internal/observability"
	"github.com/jonathan/pathfinder/internal/outreach"
)

var (
	runJobID       string
	runMaxContacts int
	runSenderName  string
	runSenderEmail string
	runTimeout     time.Duration
)

var outreachCmd = &cobra.Command{
	Use:   "outreach",
	Short: "Run outreach batches from the command line",
}

var outreachRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run outreach for a job and wait for it to finish",
	Long: `Finds hiring contacts at the job's company, researches each one and drafts an email,
recording progress on a new outreach batch. Runs in this process even when a workflow webhook is configured.`,
	RunE: runOutreach,
}

func init() {
	outreachRunCmd.Flags().StringVar(&runJobID, "job-id", "", "Job ID to run outreach for (required)")
	outreachRunCmd.Flags().IntVar(&runMaxContacts, "max-contacts", 0, "Maximum contacts to keep (defaults to OUTREACH_MAX_CONTACTS)")
	outreachRunCmd.Flags().StringVar(&runSenderName, "sender-name", "", "Name to sign the drafts with")
	outreachRunCmd.Flags().StringVar(&runSenderEmail, "sender-email", "", "Sender email address")
	outreachRunCmd.Flags().DurationVar(&runTimeout, "timeout", 30*time.Minute, "Give up after this long")
	_ = outreachRunCmd.MarkFlagRequired("job-id")

	outreachCmd.AddCommand(outreachRunCmd)
	rootCmd.AddCommand(outreachCmd)
}

func runOutreach(cmd *cobra.Command, _ []string) error {
	jobID, err := uuid.Parse(runJobID)
	if err != nil {
		return fmt.Errorf("invalid --job-id: %w", err)
	}
	if runMaxContacts < 0 {
		return fmt.Errorf("--max-contacts must not be negative")
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	// The CLI always runs in-process.
	cfg.WebhookURL = ""

	ctx := cmd.Context()
	if runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runTimeout)
		defer cancel()
	}

	a, err := newApp(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	result := a.orchestrator.ExecuteOutreachFlow(ctx, outreach.Request{
		JobID:       jobID,
		MaxContacts: runMaxContacts,
		Sender:      drafting.Sender{Name: runSenderName, Email: runSenderEmail},
	})

	summary := &observability.OutreachSummary{
		Success:       result.Success,
		ContactsFound: result.ContactsFound,
		EmailsDrafted: result.EmailsDrafted,
		ErrorMessage:  result.ErrorMessage,
	}
	if result.BatchID != uuid.Nil {
		summary.BatchID = result.BatchID.String()
		view, err := a.launcher.Status(cmd.Context(), result.BatchID)
		if err != nil {
			logger.Warn("failed to load batch for summary", zap.Error(err))
		} else {
			fillSummary(summary, view)
		}
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintOutreachSummary(summary)
	if !result.Success {
		return fmt.Errorf("outreach failed: %s", result.ErrorMessage)
	}
	return nil
}

// fillSummary adds the job and per-contact draft lines from a batch projection.
func fillSummary(summary *observability.OutreachSummary, view *outreach.StatusView) {
	if view.Job != nil {
		summary.JobTitle = view.Job.Title
		summary.CompanyName = view.Job.Company.Name
	}
	for _, r := range view.Results {
		line := observability.DraftLine{
			Name:  r.Contact.FullName,
			Title: r.Contact.Title,
		}
		if r.Contact.Email != nil {
			line.Email = *r.Contact.Email
		}
		if r.Email != nil {
			line.Subject = r.Email.Subject
		}
		summary.Drafts = append(summary.Drafts, line)
	}
}
