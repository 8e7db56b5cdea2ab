package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/openrecords/foiad/internal/model"
)

// PlanStore persists submission plan entries so staggered campaigns survive
// process restarts without double-filing.
type PlanStore struct {
	db *sql.DB
}

// NewPlanStore creates a new PlanStore
func NewPlanStore(db *sql.DB) *PlanStore {
	return &PlanStore{db: db}
}

// SavePlan stores every entry of a freshly built plan
func (s *PlanStore) SavePlan(ctx context.Context, plan *model.SubmissionPlan) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO plan_entries (id, campaign_id, agency_id, scheduled_at, state,
		                          idempotency_key, attempts, last_error)
		VALUES ($1, $2, $3, $4, $5, $6, 0, '')
	`

	for _, entry := range plan.Entries {
		_, err := tx.ExecContext(ctx, query,
			entry.ID,
			entry.CampaignID,
			entry.AgencyID,
			entry.ScheduledAt,
			string(entry.State),
			entry.IdempotencyKey,
		)
		if err != nil {
			return fmt.Errorf("failed to save plan entry %s: %w", entry.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ReadyEntries retrieves pending entries whose scheduled time has arrived,
// oldest first
func (s *PlanStore) ReadyEntries(ctx context.Context, now time.Time) ([]model.PlanEntry, error) {
	query := `
		SELECT id, campaign_id, agency_id, scheduled_at, state,
		       idempotency_key, COALESCE(request_id, 0), attempts, last_error
		FROM plan_entries
		WHERE state = $1 AND scheduled_at <= $2
		ORDER BY scheduled_at, id
	`

	rows, err := s.db.QueryContext(ctx, query, string(model.PlanPending), now)
	if err != nil {
		return nil, fmt.Errorf("failed to get ready plan entries: %w", err)
	}
	defer rows.Close()

	var entries []model.PlanEntry
	for rows.Next() {
		var e model.PlanEntry
		var state string
		err := rows.Scan(
			&e.ID,
			&e.CampaignID,
			&e.AgencyID,
			&e.ScheduledAt,
			&state,
			&e.IdempotencyKey,
			&e.RequestID,
			&e.Attempts,
			&e.LastError,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan entry: %w", err)
		}
		e.State = model.PlanEntryState(state)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// ForCampaign retrieves all plan entries for a campaign in schedule order
func (s *PlanStore) ForCampaign(ctx context.Context, campaignID string) ([]model.PlanEntry, error) {
	query := `
		SELECT id, campaign_id, agency_id, scheduled_at, state,
		       idempotency_key, COALESCE(request_id, 0), attempts, last_error
		FROM plan_entries
		WHERE campaign_id = $1
		ORDER BY scheduled_at, id
	`

	rows, err := s.db.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan entries for campaign %s: %w", campaignID, err)
	}
	defer rows.Close()

	var entries []model.PlanEntry
	for rows.Next() {
		var e model.PlanEntry
		var state string
		err := rows.Scan(
			&e.ID,
			&e.CampaignID,
			&e.AgencyID,
			&e.ScheduledAt,
			&state,
			&e.IdempotencyKey,
			&e.RequestID,
			&e.Attempts,
			&e.LastError,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan entry: %w", err)
		}
		e.State = model.PlanEntryState(state)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// MarkSubmitted records the platform-assigned request id for an entry
func (s *PlanStore) MarkSubmitted(ctx context.Context, entryID string, requestID int) error {
	query := `
		UPDATE plan_entries
		SET state = $2, request_id = $3
		WHERE id = $1
	`

	_, err := s.db.ExecContext(ctx, query, entryID, string(model.PlanSubmitted), requestID)
	if err != nil {
		return fmt.Errorf("failed to mark plan entry %s submitted: %w", entryID, err)
	}
	return nil
}

// MarkFailed records a permanent rejection; the entry is never retried
func (s *PlanStore) MarkFailed(ctx context.Context, entryID, lastError string) error {
	query := `
		UPDATE plan_entries
		SET state = $2, last_error = $3
		WHERE id = $1
	`

	_, err := s.db.ExecContext(ctx, query, entryID, string(model.PlanFailed), lastError)
	if err != nil {
		return fmt.Errorf("failed to mark plan entry %s failed: %w", entryID, err)
	}
	return nil
}

// RecordAttempt logs a transient failure; the entry stays pending
func (s *PlanStore) RecordAttempt(ctx context.Context, entryID, lastError string) error {
	query := `
		UPDATE plan_entries
		SET attempts = attempts + 1, last_error = $2
		WHERE id = $1
	`

	_, err := s.db.ExecContext(ctx, query, entryID, lastError)
	if err != nil {
		return fmt.Errorf("failed to record attempt for plan entry %s: %w", entryID, err)
	}
	return nil
}

// CancelPending cancels a campaign's not-yet-submitted entries and reports
// how many were stopped
func (s *PlanStore) CancelPending(ctx context.Context, campaignID string) (int, error) {
	query := `
		UPDATE plan_entries
		SET state = $3
		WHERE campaign_id = $1 AND state = $2
	`

	result, err := s.db.ExecContext(ctx, query, campaignID,
		string(model.PlanPending), string(model.PlanCancelled))
	if err != nil {
		return 0, fmt.Errorf("failed to cancel plan entries for campaign %s: %w", campaignID, err)
	}

	cancelled, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count cancelled entries: %w", err)
	}
	return int(cancelled), nil
}
