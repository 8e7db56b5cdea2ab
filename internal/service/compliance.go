package service

import (
	"time"

	"github.com/openrecords/foiad/internal/model"
)

// Action is the recommended next step for a scanned request.
type Action string

const (
	ActionNone     Action = "none"
	ActionFollowUp Action = "follow_up"
	ActionAppeal   Action = "appeal"
)

// Finding is the compliance result for one request: its verdict, statutory
// due date, and the recommended action. Callers decide whether to act.
type Finding struct {
	Request *model.FOIARequest
	Verdict Verdict
	DueDate time.Time
	Action  Action
}

// ComplianceMonitor scans collections of requests for statutory
// non-compliance. It is side-effect-free and never mutates request state.
type ComplianceMonitor struct {
	calc *DeadlineCalculator
}

// NewComplianceMonitor creates a monitor over the given calculator.
func NewComplianceMonitor(calc *DeadlineCalculator) *ComplianceMonitor {
	return &ComplianceMonitor{calc: calc}
}

// Scan assesses every request and returns one finding per input, preserving
// input order. Overdue requests that already carry denial reasons escalate
// to an appeal recommendation; other overdue or due-soon requests get a
// follow-up.
func (m *ComplianceMonitor) Scan(reqs []*model.FOIARequest, now time.Time) ([]Finding, error) {
	findings := make([]Finding, 0, len(reqs))
	for _, req := range reqs {
		verdict, due, err := m.calc.Assess(req, now)
		if err != nil {
			return nil, err
		}
		findings = append(findings, Finding{
			Request: req,
			Verdict: verdict,
			DueDate: due,
			Action:  recommend(req, verdict),
		})
	}
	return findings, nil
}

func recommend(req *model.FOIARequest, verdict Verdict) Action {
	switch verdict {
	case VerdictOverdue:
		if len(req.DenialReasons) > 0 {
			return ActionAppeal
		}
		return ActionFollowUp
	case VerdictDueSoon:
		return ActionFollowUp
	default:
		return ActionNone
	}
}
