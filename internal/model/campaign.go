package model

import "time"

// Campaign groups the per-agency requests that make up one logical inquiry.
// The campaign owns the grouping and scheduling metadata only; each member
// request exists on the platform independent of it.
type Campaign struct {
	ID        string
	Title     string
	Body      string
	CreatedAt time.Time
	// Stagger is the delay between consecutive member submissions.
	// Zero means simultaneous.
	Stagger time.Duration
	// OrganizationID is the filer for every member request; zero files as
	// an individual. A campaign has exactly one filer, chosen at creation.
	OrganizationID int
	// Embargo and RequestFeeWaiver apply to every member submission.
	Embargo          bool
	RequestFeeWaiver bool
	// Members holds the campaign's requests in agency targeting order.
	Members []*FOIARequest
}

// MemberFor returns the member request targeting the given agency, or nil.
func (c *Campaign) MemberFor(agencyID int) *FOIARequest {
	for _, m := range c.Members {
		if m.AgencyID == agencyID {
			return m
		}
	}
	return nil
}

// CampaignStatus is the read-only roll-up of a campaign's member verdicts.
type CampaignStatus string

const (
	CampaignAttentionNeeded CampaignStatus = "attention_needed"
	CampaignInProgress      CampaignStatus = "in_progress"
	CampaignComplete        CampaignStatus = "complete"
)

// PlanEntryState tracks one scheduled submission through its life. An entry
// is submittable only while pending, so resumption after a restart never
// double-submits.
type PlanEntryState string

const (
	PlanPending   PlanEntryState = "pending"
	PlanSubmitted PlanEntryState = "submitted"
	PlanSkipped   PlanEntryState = "skipped"
	PlanCancelled PlanEntryState = "cancelled"
	PlanFailed    PlanEntryState = "failed"
)

// PlanEntry is one scheduled submission within a campaign's plan. Entries
// are independent: submitting, retrying, or abandoning one never blocks
// another.
type PlanEntry struct {
	ID             string
	CampaignID     string
	AgencyID       int
	ScheduledAt    time.Time
	State          PlanEntryState
	IdempotencyKey string
	// RequestID is set once the platform accepts the submission.
	RequestID int
	Attempts  int
	LastError string
}

// SubmissionPlan is the ordered output of campaign planning. Entry order
// equals agency input order.
type SubmissionPlan struct {
	CampaignID string
	Entries    []PlanEntry
	// Skipped reports agencies dropped as duplicate targets, in input order.
	Skipped []DuplicateTarget
}

// DuplicateTarget reports an agency skipped during planning because the
// campaign already has an open request filed with it.
type DuplicateTarget struct {
	AgencyID int
	Reason   string
}
