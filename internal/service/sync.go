package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/openrecords/foiad/internal/model"
)

// RequestRepository persists tracked requests and their status history.
type RequestRepository interface {
	Get(ctx context.Context, id int) (*model.FOIARequest, error)
	OpenRequests(ctx context.Context) ([]*model.FOIARequest, error)
	Save(ctx context.Context, req *model.FOIARequest) error
}

// SyncStats tracks one synchronization pass.
type SyncStats struct {
	Total     int
	Updated   int
	Unchanged int
	Failed    int
}

// Syncer reconciles locally tracked requests with the platform's view. Every
// remote status still passes through the transition table, so a malformed or
// out-of-order remote update can never corrupt a request's history.
type Syncer struct {
	platform  Platform
	requests  RequestRepository
	machine   *StateMachine
	logger    *log.Logger
	errLogger *log.Logger
}

// NewSyncer creates a Syncer.
func NewSyncer(platform Platform, requests RequestRepository, machine *StateMachine) *Syncer {
	return &Syncer{
		platform:  platform,
		requests:  requests,
		machine:   machine,
		logger:    log.New(os.Stdout, "", log.LstdFlags),
		errLogger: log.New(os.Stderr, "ERROR: ", log.LstdFlags),
	}
}

// SyncAll refreshes every open request from the platform. Requests are
// independent: one failed fetch never blocks the rest of the pass.
func (s *Syncer) SyncAll(ctx context.Context, now time.Time) (*SyncStats, error) {
	open, err := s.requests.OpenRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load open requests: %w", err)
	}

	stats := &SyncStats{Total: len(open)}
	s.logger.Printf("Syncing %d open requests", stats.Total)

	for _, req := range open {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		changed, err := s.SyncRequest(ctx, req, now)
		if err != nil {
			s.errLogger.Printf("Failed to sync request %d: %v", req.ID, err)
			stats.Failed++
			continue
		}
		if changed {
			stats.Updated++
		} else {
			stats.Unchanged++
		}
	}

	return stats, nil
}

// SyncRequest refreshes one request from the platform and reports whether
// anything changed. Status movement goes through the transition table;
// fees and denial reasons are attached even when the status stands still.
func (s *Syncer) SyncRequest(ctx context.Context, req *model.FOIARequest, now time.Time) (bool, error) {
	update, err := s.platform.FetchRequestStatus(ctx, req.ID)
	if err != nil {
		return false, fmt.Errorf("failed to fetch request status: %w", err)
	}

	changed := false

	if update.Status != req.Status {
		if err := s.machine.Apply(req, update.Status, now); err != nil {
			return false, fmt.Errorf("remote status %q not applied: %w", update.Status, err)
		}
		s.logger.Printf("Request %d: %s", req.ID, update.Status)
		changed = true
	}

	if update.Fee != nil {
		fee := sql.NullFloat64{Float64: *update.Fee, Valid: true}
		if req.Fee != fee {
			req.Fee = fee
			changed = true
		}
	}

	if merged := mergeDenialReasons(req.DenialReasons, update.DenialReasons); len(merged) != len(req.DenialReasons) {
		req.DenialReasons = merged
		changed = true
	}

	if !changed {
		return false, nil
	}

	if err := s.requests.Save(ctx, req); err != nil {
		return false, fmt.Errorf("failed to save request: %w", err)
	}
	return true, nil
}

// mergeDenialReasons appends newly cited exemptions, keeping the order the
// agency first raised them and never dropping one already recorded.
func mergeDenialReasons(have, incoming []model.DenialReason) []model.DenialReason {
	seen := make(map[string]bool, len(have))
	for _, r := range have {
		seen[r.ExemptionCode] = true
	}
	merged := have
	for _, r := range incoming {
		if !seen[r.ExemptionCode] {
			seen[r.ExemptionCode] = true
			merged = append(merged, r)
		}
	}
	return merged
}

// PrintSummary logs a sync pass's outcome in one place, for CLI use.
func (s *Syncer) PrintSummary(stats *SyncStats) {
	s.logger.Println("=== Sync Summary ===")
	s.logger.Printf("Open requests: %d", stats.Total)
	s.logger.Printf("Updated:       %d", stats.Updated)
	s.logger.Printf("Unchanged:     %d", stats.Unchanged)
	s.logger.Printf("Failed:        %d", stats.Failed)
}
