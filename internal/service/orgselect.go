package service

import (
	"strings"

	"github.com/openrecords/foiad/internal/model"
)

// SelectionOutcome tags the result of organization selection. Ambiguity and
// the absence of organizations are valid outcomes, not errors; the caller's
// UI layer owns how to ask the user for more input.
type SelectionOutcome string

const (
	// SelectionSelected means exactly one organization was chosen.
	SelectionSelected SelectionOutcome = "selected"
	// SelectionAmbiguous means the hint matched more than one organization.
	SelectionAmbiguous SelectionOutcome = "ambiguous"
	// SelectionNeedsChoice means multiple organizations exist and no hint
	// narrowed them down.
	SelectionNeedsChoice SelectionOutcome = "needs_choice"
	// SelectionIndividual means the user has no organizations and files as
	// an individual.
	SelectionIndividual SelectionOutcome = "individual"
)

// SelectionResult is the tagged outcome of SelectOrganization. Organization
// is set only for SelectionSelected; Candidates lists the options requiring
// disambiguation for SelectionAmbiguous and SelectionNeedsChoice.
type SelectionResult struct {
	Outcome      SelectionOutcome
	Organization *model.Organization
	Candidates   []model.Organization
}

// SelectOrganization resolves which filing organization to use for the
// user's snapshot of organizations and an optional free-text name hint.
// Pure function: no network access, no mutation of the snapshot.
//
// Policy, in order: a sole organization is auto-selected regardless of hint;
// a hint is matched case-insensitively as a substring of display names;
// multiple organizations without a narrowing hint require the caller to
// disambiguate; zero organizations file as an individual.
func SelectOrganization(orgs []model.Organization, hint string) SelectionResult {
	if len(orgs) == 0 {
		return SelectionResult{Outcome: SelectionIndividual}
	}
	if len(orgs) == 1 {
		org := orgs[0]
		return SelectionResult{Outcome: SelectionSelected, Organization: &org}
	}

	if hint != "" {
		var matches []model.Organization
		needle := strings.ToLower(hint)
		for _, org := range orgs {
			if strings.Contains(strings.ToLower(org.Name), needle) {
				matches = append(matches, org)
			}
		}
		switch len(matches) {
		case 1:
			org := matches[0]
			return SelectionResult{Outcome: SelectionSelected, Organization: &org}
		case 0:
			// A hint that matches nothing leaves the full list to choose from.
			return SelectionResult{Outcome: SelectionNeedsChoice, Candidates: orgs}
		default:
			return SelectionResult{Outcome: SelectionAmbiguous, Candidates: matches}
		}
	}

	return SelectionResult{Outcome: SelectionNeedsChoice, Candidates: orgs}
}
