package service

import (
	"context"
	"time"

	"github.com/openrecords/foiad/internal/model"
)

// Submission carries everything the platform needs to file one request with
// one agency.
type Submission struct {
	Title            string
	Body             string
	AgencyID         int
	OrganizationID   int // 0 = filed as individual
	Embargo          bool
	PermanentEmbargo bool
	RequestFeeWaiver bool
	// IdempotencyKey makes retries after transient failures safe: the
	// platform files at most one request per key.
	IdempotencyKey string
}

// RequestUpdate is the platform's view of a request at fetch time: its
// current status string (mapped at this boundary into the closed Status
// set), assessed fees, structured denial reasons, and the correspondence
// timeline.
type RequestUpdate struct {
	Status         model.Status
	Fee            *float64
	DenialReasons  []model.DenialReason
	Communications []model.Communication
}

// Platform is the remote records-request collaborator. The core performs no
// I/O of its own; every network interaction goes through this interface, and
// implementations classify failures as ErrTransientNetwork (retriable),
// ErrSubmissionRejected (permanent), or ErrNotFound.
type Platform interface {
	LookupAgency(ctx context.Context, id int) (*model.Agency, error)
	SearchAgencies(ctx context.Context, query string, limit int) ([]model.Agency, error)
	ListUserOrganizations(ctx context.Context) ([]model.Organization, error)
	SubmitRequest(ctx context.Context, sub Submission) (*model.FOIARequest, error)
	FetchRequestStatus(ctx context.Context, id int) (*RequestUpdate, error)
	PostFollowup(ctx context.Context, id int, message string) error
	PostAppeal(ctx context.Context, id int, appealText string) error
}

// Clock abstracts time for deterministic tests.
type Clock func() time.Time
