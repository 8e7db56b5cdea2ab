package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/openrecords/foiad/internal/model"
)

// RequestStore handles database operations for tracked records requests.
// History events are append-only: Save inserts entries it has not seen and
// never updates or deletes one.
type RequestStore struct {
	db *sql.DB
}

// NewRequestStore creates a new RequestStore
func NewRequestStore(db *sql.DB) *RequestStore {
	return &RequestStore{db: db}
}

// Insert stores a newly filed request with its initial history
func (s *RequestStore) Insert(ctx context.Context, req *model.FOIARequest, campaignID sql.NullString) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO requests (id, campaign_id, title, body, agency_id, organization_id,
		                      jurisdiction, filed_at, status, fee, embargo, permanent_embargo)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = tx.ExecContext(ctx, query,
		req.ID,
		campaignID,
		req.Title,
		req.Body,
		req.AgencyID,
		req.OrganizationID,
		req.Jurisdiction,
		req.FiledAt,
		string(req.Status),
		req.Fee,
		req.Embargo,
		req.PermanentEmbargo,
	)
	if err != nil {
		return fmt.Errorf("failed to insert request %d: %w", req.ID, err)
	}

	if err := syncHistory(ctx, tx, req); err != nil {
		return err
	}
	if err := syncDenialReasons(ctx, tx, req); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Get retrieves a request with its history and denial reasons
func (s *RequestStore) Get(ctx context.Context, id int) (*model.FOIARequest, error) {
	query := `
		SELECT id, title, body, agency_id, organization_id, jurisdiction,
		       filed_at, status, fee, embargo, permanent_embargo
		FROM requests
		WHERE id = $1
	`

	var req model.FOIARequest
	var status string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&req.ID,
		&req.Title,
		&req.Body,
		&req.AgencyID,
		&req.OrganizationID,
		&req.Jurisdiction,
		&req.FiledAt,
		&status,
		&req.Fee,
		&req.Embargo,
		&req.PermanentEmbargo,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request %d: %w", id, err)
	}

	req.Status, err = model.ParseStatus(status)
	if err != nil {
		return nil, fmt.Errorf("request %d has invalid status: %w", id, err)
	}

	if err := s.loadHistory(ctx, &req); err != nil {
		return nil, err
	}
	if err := s.loadDenialReasons(ctx, &req); err != nil {
		return nil, err
	}

	return &req, nil
}

// OpenRequests retrieves every tracked request not yet in a terminal status
func (s *RequestStore) OpenRequests(ctx context.Context) ([]*model.FOIARequest, error) {
	query := `
		SELECT id FROM requests
		WHERE status NOT IN ('completed', 'no_records', 'rejected', 'abandoned')
		ORDER BY filed_at
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get open requests: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan request id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var open []*model.FOIARequest
	for _, id := range ids {
		req, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if req != nil {
			open = append(open, req)
		}
	}
	return open, nil
}

// ForCampaign retrieves a campaign's member requests in filing order
func (s *RequestStore) ForCampaign(ctx context.Context, campaignID string) ([]*model.FOIARequest, error) {
	query := `
		SELECT id FROM requests
		WHERE campaign_id = $1
		ORDER BY filed_at
	`

	rows, err := s.db.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign requests: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan request id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var members []*model.FOIARequest
	for _, id := range ids {
		req, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if req != nil {
			members = append(members, req)
		}
	}
	return members, nil
}

// Save persists the request's mutable state: current status, fee, any new
// history entries, and any newly cited denial reasons
func (s *RequestStore) Save(ctx context.Context, req *model.FOIARequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE requests
		SET status = $2, fee = $3
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, query, req.ID, string(req.Status), req.Fee); err != nil {
		return fmt.Errorf("failed to update request %d: %w", req.ID, err)
	}

	if err := syncHistory(ctx, tx, req); err != nil {
		return err
	}
	if err := syncDenialReasons(ctx, tx, req); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *RequestStore) loadHistory(ctx context.Context, req *model.FOIARequest) error {
	query := `
		SELECT status, occurred_at
		FROM request_events
		WHERE request_id = $1
		ORDER BY occurred_at, id
	`

	rows, err := s.db.QueryContext(ctx, query, req.ID)
	if err != nil {
		return fmt.Errorf("failed to get history for request %d: %w", req.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var change model.StatusChange
		var status string
		if err := rows.Scan(&status, &change.At); err != nil {
			return fmt.Errorf("failed to scan history entry: %w", err)
		}
		change.Status, err = model.ParseStatus(status)
		if err != nil {
			return fmt.Errorf("request %d has invalid history entry: %w", req.ID, err)
		}
		req.History = append(req.History, change)
	}

	return rows.Err()
}

func (s *RequestStore) loadDenialReasons(ctx context.Context, req *model.FOIARequest) error {
	query := `
		SELECT exemption_code, justification
		FROM denial_reasons
		WHERE request_id = $1
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query, req.ID)
	if err != nil {
		return fmt.Errorf("failed to get denial reasons for request %d: %w", req.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var reason model.DenialReason
		if err := rows.Scan(&reason.ExemptionCode, &reason.Justification); err != nil {
			return fmt.Errorf("failed to scan denial reason: %w", err)
		}
		req.DenialReasons = append(req.DenialReasons, reason)
	}

	return rows.Err()
}

// syncHistory inserts history entries not yet stored; existing rows are
// never touched
func syncHistory(ctx context.Context, tx *sql.Tx, req *model.FOIARequest) error {
	query := `
		INSERT INTO request_events (request_id, status, occurred_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (request_id, status, occurred_at) DO NOTHING
	`
	for _, change := range req.History {
		if _, err := tx.ExecContext(ctx, query, req.ID, string(change.Status), change.At); err != nil {
			return fmt.Errorf("failed to insert history entry for request %d: %w", req.ID, err)
		}
	}
	return nil
}

// syncDenialReasons inserts newly cited exemptions, keeping earlier rows
func syncDenialReasons(ctx context.Context, tx *sql.Tx, req *model.FOIARequest) error {
	query := `
		INSERT INTO denial_reasons (request_id, exemption_code, justification)
		VALUES ($1, $2, $3)
		ON CONFLICT (request_id, exemption_code) DO NOTHING
	`
	for _, reason := range req.DenialReasons {
		if _, err := tx.ExecContext(ctx, query, req.ID, reason.ExemptionCode, reason.Justification); err != nil {
			return fmt.Errorf("failed to insert denial reason for request %d: %w", req.ID, err)
		}
	}
	return nil
}
