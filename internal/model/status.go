package model

import "fmt"

// Status is the closed set of lifecycle states for a FOIA request.
type Status string

const (
	StatusSubmitted       Status = "submitted"
	StatusAcknowledged    Status = "acknowledged"
	StatusProcessing      Status = "processing"
	StatusFixRequired     Status = "fix_required"
	StatusPaymentRequired Status = "payment_required"
	StatusAppealing       Status = "appealing"
	StatusPartial         Status = "partial"
	StatusRejected        Status = "rejected"
	StatusNoRecords       Status = "no_records"
	StatusCompleted       Status = "completed"
	StatusAbandoned       Status = "abandoned"
)

// wireStatus maps the loosely-typed status strings the platform returns onto
// the closed Status set. The platform's short codes (ack, fix, done, ...) come
// from the MuckRock API; the long forms let our own serialized values round-trip.
var wireStatus = map[string]Status{
	"submitted":        StatusSubmitted,
	"ack":              StatusAcknowledged,
	"acknowledged":     StatusAcknowledged,
	"processed":        StatusProcessing,
	"processing":       StatusProcessing,
	"fix":              StatusFixRequired,
	"fix_required":     StatusFixRequired,
	"payment":          StatusPaymentRequired,
	"payment_required": StatusPaymentRequired,
	"appealing":        StatusAppealing,
	"partial":          StatusPartial,
	"rejected":         StatusRejected,
	"no_docs":          StatusNoRecords,
	"no_records":       StatusNoRecords,
	"done":             StatusCompleted,
	"completed":        StatusCompleted,
	"abandoned":        StatusAbandoned,
}

// UnknownStatusError reports a platform status string outside the closed set.
// Unknown statuses fail closed rather than silently widening the state machine.
type UnknownStatusError struct {
	Value string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown request status %q", e.Value)
}

// ParseStatus maps a platform status string into the closed Status set.
func ParseStatus(s string) (Status, error) {
	if st, ok := wireStatus[s]; ok {
		return st, nil
	}
	return "", &UnknownStatusError{Value: s}
}

// Terminal reports whether the status ends the request lifecycle. A rejected
// request leaves the terminal set only by opening an appeal.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusNoRecords, StatusRejected, StatusAbandoned:
		return true
	}
	return false
}

// Paused reports whether the statutory response clock is stopped while the
// request sits in this status.
func (s Status) Paused() bool {
	return s == StatusFixRequired || s == StatusPaymentRequired
}
