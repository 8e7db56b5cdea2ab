package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// MetricsService calculates and stores system-wide request metrics
type MetricsService struct {
	db *sql.DB
}

// NewMetricsService creates a new MetricsService
func NewMetricsService(db *sql.DB) *MetricsService {
	return &MetricsService{db: db}
}

// SystemMetrics represents calculated system-wide metrics
type SystemMetrics struct {
	TotalRequests  int
	OpenRequests   int
	TotalCampaigns int
	CompletionRate float64 // completed / closed requests
	TotalFees      float64
	BusiestAgency  int
	BusiestCount   int
}

// CalculateAndStore calculates system metrics and stores them
func (m *MetricsService) CalculateAndStore(ctx context.Context) (*SystemMetrics, error) {
	metrics := &SystemMetrics{}

	// Request counts and assessed fees
	requestQuery := `
		SELECT
			COUNT(*) as total_requests,
			COUNT(*) FILTER (WHERE status NOT IN ('completed', 'no_records', 'rejected', 'abandoned')) as open_requests,
			COALESCE(SUM(fee), 0) as total_fees
		FROM requests
	`
	err := m.db.QueryRowContext(ctx, requestQuery).Scan(
		&metrics.TotalRequests,
		&metrics.OpenRequests,
		&metrics.TotalFees,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate request metrics: %w", err)
	}

	// Completion rate over closed requests
	var completed, closed int
	closedQuery := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status IN ('completed', 'no_records', 'rejected', 'abandoned'))
		FROM requests
	`
	err = m.db.QueryRowContext(ctx, closedQuery).Scan(&completed, &closed)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate completion rate: %w", err)
	}
	if closed > 0 {
		metrics.CompletionRate = float64(completed) / float64(closed)
	}

	// Count campaigns
	campaignCountQuery := `SELECT COUNT(*) FROM campaigns`
	err = m.db.QueryRowContext(ctx, campaignCountQuery).Scan(&metrics.TotalCampaigns)
	if err != nil {
		return nil, fmt.Errorf("failed to count campaigns: %w", err)
	}

	// Find agency with the most tracked requests
	busiestQuery := `
		SELECT agency_id, COUNT(*)
		FROM requests
		GROUP BY agency_id
		ORDER BY COUNT(*) DESC
		LIMIT 1
	`
	err = m.db.QueryRowContext(ctx, busiestQuery).Scan(
		&metrics.BusiestAgency,
		&metrics.BusiestCount,
	)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to find busiest agency: %w", err)
	}

	// Store metrics
	if err := m.storeMetric(ctx, "total_requests", fmt.Sprintf("%d", metrics.TotalRequests)); err != nil {
		return nil, err
	}
	if err := m.storeMetric(ctx, "open_requests", fmt.Sprintf("%d", metrics.OpenRequests)); err != nil {
		return nil, err
	}
	if err := m.storeMetric(ctx, "total_campaigns", fmt.Sprintf("%d", metrics.TotalCampaigns)); err != nil {
		return nil, err
	}
	if err := m.storeMetric(ctx, "completion_rate", fmt.Sprintf("%.2f", metrics.CompletionRate)); err != nil {
		return nil, err
	}
	if err := m.storeMetric(ctx, "total_fees", fmt.Sprintf("%.2f", metrics.TotalFees)); err != nil {
		return nil, err
	}
	if err := m.storeMetric(ctx, "busiest_agency", fmt.Sprintf("%d", metrics.BusiestAgency)); err != nil {
		return nil, err
	}

	return metrics, nil
}

// storeMetric stores a single metric value
func (m *MetricsService) storeMetric(ctx context.Context, name, value string) error {
	query := `
		INSERT INTO metrics (metric_name, metric_value, calculated_at)
		VALUES ($1, $2, $3)
	`

	_, err := m.db.ExecContext(ctx, query, name, value, time.Now())
	if err != nil {
		return fmt.Errorf("failed to store metric %s: %w", name, err)
	}

	return nil
}

// GetLatestMetrics retrieves the most recent system metrics
func (m *MetricsService) GetLatestMetrics(ctx context.Context) (map[string]string, error) {
	query := `
		SELECT DISTINCT ON (metric_name) metric_name, metric_value
		FROM metrics
		ORDER BY metric_name, calculated_at DESC
	`

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics: %w", err)
	}
	defer rows.Close()

	metrics := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan metric: %w", err)
		}
		metrics[name] = value
	}

	return metrics, rows.Err()
}
