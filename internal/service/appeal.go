package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/openrecords/foiad/internal/model"
	"github.com/openrecords/foiad/internal/rules"
)

// AppealGenerator assembles structured appeals from a request's denial
// reasons and the precedent catalog. Generating an appeal never transitions
// the request; the caller drives the appealing transition separately so
// drafts can be previewed without committing a state change.
type AppealGenerator struct {
	catalog *rules.PrecedentCatalog
}

// NewAppealGenerator creates a generator over the precedent catalog.
func NewAppealGenerator(catalog *rules.PrecedentCatalog) *AppealGenerator {
	return &AppealGenerator{catalog: catalog}
}

// Generate builds one appeal covering all of the request's denial reasons in
// their original order. Reasons with no cataloged precedent (after family
// fallback) are included with the Unmatched flag set, never dropped. The
// request must be rejected or partially granted and carry at least one
// denial reason; anything else is malformed input.
func (g *AppealGenerator) Generate(req *model.FOIARequest, now time.Time) (*model.Appeal, error) {
	if req.Status != model.StatusRejected && req.Status != model.StatusPartial {
		return nil, fmt.Errorf("cannot appeal request %d in status %s", req.ID, req.Status)
	}
	if len(req.DenialReasons) == 0 {
		return nil, fmt.Errorf("request %d has no denial reasons to appeal", req.ID)
	}

	appeal := &model.Appeal{RequestID: req.ID, GeneratedAt: now}
	for _, reason := range req.DenialReasons {
		appeal.Arguments = append(appeal.Arguments, g.argueReason(reason))
	}
	return appeal, nil
}

func (g *AppealGenerator) argueReason(reason model.DenialReason) model.AppealArgument {
	precedent, ok := g.catalog.Lookup(reason.ExemptionCode)
	if !ok {
		return model.AppealArgument{
			Reason:    reason,
			Unmatched: true,
			Argument: fmt.Sprintf("The agency's reliance on exemption %s is noted for the record; "+
				"no controlling precedent is cataloged and this ground requires individual review.",
				reason.ExemptionCode),
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The agency invoked exemption %s", reason.ExemptionCode)
	if reason.Justification != "" {
		fmt.Fprintf(&b, ", stating: %q", reason.Justification)
	}
	b.WriteString(". ")
	b.WriteString(precedent.Argument)

	return model.AppealArgument{
		Reason:    reason,
		Citations: precedent.Citations,
		Argument:  b.String(),
	}
}

// RenderAppealText flattens a structured appeal into the letter body posted
// to the platform.
func RenderAppealText(req *model.FOIARequest, appeal *model.Appeal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "This is an administrative appeal of the response to request %d (%q).\n\n", req.ID, req.Title)
	for i, arg := range appeal.Arguments {
		fmt.Fprintf(&b, "%d. %s\n", i+1, arg.Argument)
		if len(arg.Citations) > 0 {
			fmt.Fprintf(&b, "   Authorities: %s\n", strings.Join(arg.Citations, "; "))
		}
		b.WriteString("\n")
	}
	b.WriteString("For the foregoing reasons, the withheld records should be released.\n")
	return b.String()
}
