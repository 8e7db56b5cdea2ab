package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/openrecords/foiad/internal/model"
)

// AgencyStore caches agency snapshots fetched from the records platform so
// lookups and campaign planning work without a round trip per agency.
type AgencyStore struct {
	db *sql.DB
}

// NewAgencyStore creates a new AgencyStore
func NewAgencyStore(db *sql.DB) *AgencyStore {
	return &AgencyStore{db: db}
}

// GetByID retrieves a cached agency by its platform id
func (s *AgencyStore) GetByID(ctx context.Context, id int) (*model.Agency, error) {
	query := `
		SELECT id, agency_name, jurisdiction, average_response_days,
		       per_page_rate, free_page_allowance, success_rate
		FROM agencies
		WHERE id = $1
	`

	var a model.Agency
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID,
		&a.Name,
		&a.Jurisdiction,
		&a.AverageResponseDays,
		&a.PerPageRate,
		&a.FreePageAllowance,
		&a.SuccessRate,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agency %d: %w", id, err)
	}

	return &a, nil
}

// Search retrieves cached agencies whose name matches the query
func (s *AgencyStore) Search(ctx context.Context, name string, limit int) ([]model.Agency, error) {
	query := `
		SELECT id, agency_name, jurisdiction, average_response_days,
		       per_page_rate, free_page_allowance, success_rate
		FROM agencies
		WHERE agency_name ILIKE '%' || $1 || '%'
		ORDER BY agency_name
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, name, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search agencies: %w", err)
	}
	defer rows.Close()

	var agencies []model.Agency
	for rows.Next() {
		var a model.Agency
		err := rows.Scan(
			&a.ID,
			&a.Name,
			&a.Jurisdiction,
			&a.AverageResponseDays,
			&a.PerPageRate,
			&a.FreePageAllowance,
			&a.SuccessRate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agency: %w", err)
		}
		agencies = append(agencies, a)
	}

	return agencies, rows.Err()
}

// Upsert inserts or refreshes a cached agency snapshot
func (s *AgencyStore) Upsert(ctx context.Context, a *model.Agency) error {
	query := `
		INSERT INTO agencies (id, agency_name, jurisdiction, average_response_days,
		                      per_page_rate, free_page_allowance, success_rate, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			agency_name = EXCLUDED.agency_name,
			jurisdiction = EXCLUDED.jurisdiction,
			average_response_days = EXCLUDED.average_response_days,
			per_page_rate = EXCLUDED.per_page_rate,
			free_page_allowance = EXCLUDED.free_page_allowance,
			success_rate = EXCLUDED.success_rate,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		a.ID,
		a.Name,
		a.Jurisdiction,
		a.AverageResponseDays,
		a.PerPageRate,
		a.FreePageAllowance,
		a.SuccessRate,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert agency %d: %w", a.ID, err)
	}

	return nil
}

// CountAgencies returns the number of cached agencies
func (s *AgencyStore) CountAgencies(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM agencies").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count agencies: %w", err)
	}
	return count, nil
}
