package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/openrecords/foiad/internal/model"
)

// PlanRepository persists submission-plan entries so in-flight staggered
// plans survive process restarts. Only pending entries are ever handed back
// for submission, which makes resumption safe against double-filing.
type PlanRepository interface {
	SavePlan(ctx context.Context, plan *model.SubmissionPlan) error
	ReadyEntries(ctx context.Context, now time.Time) ([]model.PlanEntry, error)
	MarkSubmitted(ctx context.Context, entryID string, requestID int) error
	MarkFailed(ctx context.Context, entryID, lastError string) error
	RecordAttempt(ctx context.Context, entryID, lastError string) error
	CancelPending(ctx context.Context, campaignID string) (int, error)
}

// CampaignRepository persists campaigns and their member requests.
type CampaignRepository interface {
	Get(ctx context.Context, id string) (*model.Campaign, error)
	AddMember(ctx context.Context, campaignID string, req *model.FOIARequest) error
}

// RunStats tracks one submission pass.
type RunStats struct {
	Ready     int
	Submitted int
	Deferred  int // transient failure, entry stays pending for retry
	Failed    int // permanent rejection
}

// Runner executes persisted submission plans against the platform. Entries
// are independent: a failure submitting to one agency never blocks or rolls
// back another, and a cancelled campaign only stops entries not yet
// submitted.
type Runner struct {
	platform  Platform
	plans     PlanRepository
	campaigns CampaignRepository
	machine   *StateMachine
	logger    *log.Logger
	errLogger *log.Logger
}

// NewRunner creates a Runner.
func NewRunner(platform Platform, plans PlanRepository, campaigns CampaignRepository, machine *StateMachine) *Runner {
	return &Runner{
		platform:  platform,
		plans:     plans,
		campaigns: campaigns,
		machine:   machine,
		logger:    log.New(os.Stdout, "", log.LstdFlags),
		errLogger: log.New(os.Stderr, "ERROR: ", log.LstdFlags),
	}
}

// SubmitReady files every pending plan entry whose scheduled time has
// arrived. Transient platform failures leave the entry pending with its
// attempt recorded; the same idempotency key is reused on retry so the
// platform files at most one request per entry. Permanent rejections mark
// the entry failed and are surfaced in the stats, never retried.
func (r *Runner) SubmitReady(ctx context.Context, now time.Time) (*RunStats, error) {
	entries, err := r.plans.ReadyEntries(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load ready plan entries: %w", err)
	}

	stats := &RunStats{Ready: len(entries)}
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		if err := r.submitEntry(ctx, entry, now, stats); err != nil {
			r.errLogger.Printf("Plan entry %s (agency %d): %v", entry.ID, entry.AgencyID, err)
		}
	}
	return stats, nil
}

// submitEntry files one entry. Errors are classified here; the caller only
// logs them so the remaining entries keep going.
func (r *Runner) submitEntry(ctx context.Context, entry model.PlanEntry, now time.Time, stats *RunStats) error {
	campaign, err := r.campaigns.Get(ctx, entry.CampaignID)
	if err != nil {
		stats.Deferred++
		return fmt.Errorf("failed to load campaign: %w", err)
	}
	if campaign == nil {
		stats.Failed++
		if markErr := r.plans.MarkFailed(ctx, entry.ID, "campaign not found"); markErr != nil {
			return fmt.Errorf("entry not marked failed: %w", markErr)
		}
		return fmt.Errorf("campaign %s not found: %w", entry.CampaignID, ErrNotFound)
	}

	req, err := r.platform.SubmitRequest(ctx, Submission{
		Title:            campaign.Title,
		Body:             campaign.Body,
		AgencyID:         entry.AgencyID,
		OrganizationID:   campaign.OrganizationID,
		Embargo:          campaign.Embargo,
		RequestFeeWaiver: campaign.RequestFeeWaiver,
		IdempotencyKey:   entry.IdempotencyKey,
	})
	if err != nil {
		if errors.Is(err, ErrSubmissionRejected) {
			stats.Failed++
			if markErr := r.plans.MarkFailed(ctx, entry.ID, err.Error()); markErr != nil {
				return fmt.Errorf("submission rejected and entry not marked failed: %v: %w", markErr, err)
			}
			return err
		}
		// Transient: keep the entry pending, it retries next pass with the
		// same idempotency key.
		stats.Deferred++
		if recErr := r.plans.RecordAttempt(ctx, entry.ID, err.Error()); recErr != nil {
			return fmt.Errorf("attempt not recorded: %v: %w", recErr, err)
		}
		return err
	}

	r.machine.Initialize(req, now)
	if err := r.campaigns.AddMember(ctx, entry.CampaignID, req); err != nil {
		stats.Deferred++
		return fmt.Errorf("request %d filed but not recorded in campaign: %w", req.ID, err)
	}
	if err := r.plans.MarkSubmitted(ctx, entry.ID, req.ID); err != nil {
		stats.Deferred++
		return fmt.Errorf("request %d filed but entry not marked submitted: %w", req.ID, err)
	}

	stats.Submitted++
	r.logger.Printf("Filed request %d with agency %d (campaign %s)", req.ID, entry.AgencyID, entry.CampaignID)
	return nil
}

// Cancel stops a campaign's staggered execution: entries not yet submitted
// are marked cancelled. Already-submitted member requests are untouched.
func (r *Runner) Cancel(ctx context.Context, campaignID string) (int, error) {
	cancelled, err := r.plans.CancelPending(ctx, campaignID)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel campaign %s: %w", campaignID, err)
	}
	r.logger.Printf("Cancelled %d pending submissions for campaign %s", cancelled, campaignID)
	return cancelled, nil
}

// PrintSummary logs a run's outcome in one place, for CLI use.
func (r *Runner) PrintSummary(stats *RunStats) {
	r.logger.Println("=== Submission Run ===")
	r.logger.Printf("Ready entries: %d", stats.Ready)
	r.logger.Printf("Submitted:     %d", stats.Submitted)
	r.logger.Printf("Deferred:      %d", stats.Deferred)
	r.logger.Printf("Failed:        %d", stats.Failed)
}
