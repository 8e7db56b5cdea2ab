package model

import (
	"database/sql"
	"time"
)

// StatusChange is one entry in a request's append-only status history.
type StatusChange struct {
	Status Status
	At     time.Time
}

// DenialReason is a structured withholding justification attached to a
// request when a denial or partial-grant communication is recorded.
type DenialReason struct {
	// ExemptionCode is the statutory citation the agency invoked, e.g.
	// "b(5)" or "b(7)(E)".
	ExemptionCode string
	// Justification is the agency's free-text explanation, if any.
	Justification string
}

// FOIARequest represents one records request against one agency. ID is zero
// until the platform accepts the submission and assigns one. Status and
// History are written only through service.StateMachine transitions.
type FOIARequest struct {
	ID             int
	Title          string
	Body           string
	AgencyID       int
	OrganizationID sql.NullInt64 // invalid = filed as individual
	Jurisdiction   string
	FiledAt        time.Time
	Status         Status
	History        []StatusChange
	Fee            sql.NullFloat64 // unset until assessed by the agency
	Embargo        bool
	// PermanentEmbargo keeps the request non-public indefinitely. Both flags
	// are lifted only by an explicit user action, never automatically.
	PermanentEmbargo bool
	DenialReasons    []DenialReason
}

// Submitted reports whether the platform has accepted the request.
func (r *FOIARequest) Submitted() bool {
	return r.ID != 0
}

// LastChange returns the most recent status-history entry, or nil for a
// request with no recorded transitions yet.
func (r *FOIARequest) LastChange() *StatusChange {
	if len(r.History) == 0 {
		return nil
	}
	return &r.History[len(r.History)-1]
}

// Communication is one message on a request's correspondence thread, as
// reported by the platform.
type Communication struct {
	Date     time.Time
	FromUser string
	Body     string
}
