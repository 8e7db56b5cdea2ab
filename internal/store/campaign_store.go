package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/openrecords/foiad/internal/model"
)

// CampaignStore handles database operations for campaigns and their member
// requests.
type CampaignStore struct {
	db       *sql.DB
	requests *RequestStore
}

// NewCampaignStore creates a new CampaignStore
func NewCampaignStore(db *sql.DB) *CampaignStore {
	return &CampaignStore{db: db, requests: NewRequestStore(db)}
}

// Save stores a new campaign
func (s *CampaignStore) Save(ctx context.Context, c *model.Campaign) error {
	query := `
		INSERT INTO campaigns (id, title, body, created_at, stagger_seconds,
		                       organization_id, embargo, request_fee_waiver)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.ExecContext(ctx, query,
		c.ID,
		c.Title,
		c.Body,
		c.CreatedAt,
		int64(c.Stagger/time.Second),
		c.OrganizationID,
		c.Embargo,
		c.RequestFeeWaiver,
	)
	if err != nil {
		return fmt.Errorf("failed to save campaign %s: %w", c.ID, err)
	}

	return nil
}

// Get retrieves a campaign with its member requests
func (s *CampaignStore) Get(ctx context.Context, id string) (*model.Campaign, error) {
	query := `
		SELECT id, title, body, created_at, stagger_seconds,
		       organization_id, embargo, request_fee_waiver
		FROM campaigns
		WHERE id = $1
	`

	var c model.Campaign
	var staggerSeconds int64
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID,
		&c.Title,
		&c.Body,
		&c.CreatedAt,
		&staggerSeconds,
		&c.OrganizationID,
		&c.Embargo,
		&c.RequestFeeWaiver,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign %s: %w", id, err)
	}
	c.Stagger = time.Duration(staggerSeconds) * time.Second

	c.Members, err = s.requests.ForCampaign(ctx, id)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

// GetAll retrieves all campaigns with their member requests, newest first
func (s *CampaignStore) GetAll(ctx context.Context) ([]*model.Campaign, error) {
	query := `SELECT id FROM campaigns ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaigns: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan campaign id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var campaigns []*model.Campaign
	for _, id := range ids {
		c, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if c != nil {
			campaigns = append(campaigns, c)
		}
	}
	return campaigns, nil
}

// AddMember records a filed request as a campaign member
func (s *CampaignStore) AddMember(ctx context.Context, campaignID string, req *model.FOIARequest) error {
	err := s.requests.Insert(ctx, req, sql.NullString{String: campaignID, Valid: true})
	if err != nil {
		return fmt.Errorf("failed to add request %d to campaign %s: %w", req.ID, campaignID, err)
	}
	return nil
}
