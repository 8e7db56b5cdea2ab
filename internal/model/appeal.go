package model

import "time"

// AppealArgument is the generated response to a single denial reason:
// the matched precedent citations plus the argument text built from them.
// Unmatched is set when no precedent covered the exemption code or its
// family; such reasons are surfaced, never silently dropped.
type AppealArgument struct {
	Reason    DenialReason
	Citations []string
	Argument  string
	Unmatched bool
}

// Appeal is one generated escalation for a denied or partially granted
// request. Appeals are append-only: a re-denial after an appeal produces a
// new Appeal rather than mutating the old one.
type Appeal struct {
	RequestID   int
	Arguments   []AppealArgument // preserves DenialReason input order
	GeneratedAt time.Time
}

// Unmatched returns the exemption codes no precedent could be found for.
func (a *Appeal) Unmatched() []string {
	var codes []string
	for _, arg := range a.Arguments {
		if arg.Unmatched {
			codes = append(codes, arg.Reason.ExemptionCode)
		}
	}
	return codes
}
