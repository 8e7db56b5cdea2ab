package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openrecords/foiad/internal/model"
)

// CampaignOrchestrator coordinates one logical inquiry across many agencies.
// It selects a filing organization once per campaign, deduplicates targets,
// and emits an ordered submission plan; the actual network submission is the
// platform collaborator's job, driven by the Runner.
type CampaignOrchestrator struct {
	monitor *ComplianceMonitor
}

// NewCampaignOrchestrator creates an orchestrator that rolls up member
// verdicts through the given monitor.
func NewCampaignOrchestrator(monitor *ComplianceMonitor) *CampaignOrchestrator {
	return &CampaignOrchestrator{monitor: monitor}
}

// NewCampaign creates the grouping for one inquiry. The filing organization
// is selected exactly once here, for the whole campaign: when selection
// requires disambiguation the campaign is not created and the returned
// result carries the candidates for the caller to resolve.
func (o *CampaignOrchestrator) NewCampaign(title, body string, stagger time.Duration, now time.Time, orgs []model.Organization, orgHint string) (*model.Campaign, SelectionResult) {
	selection := SelectOrganization(orgs, orgHint)
	if selection.Outcome == SelectionAmbiguous || selection.Outcome == SelectionNeedsChoice {
		return nil, selection
	}

	campaign := &model.Campaign{
		ID:        uuid.NewString(),
		Title:     title,
		Body:      body,
		CreatedAt: now,
		Stagger:   stagger,
	}
	if selection.Outcome == SelectionSelected {
		campaign.OrganizationID = selection.Organization.ID
	}
	return campaign, selection
}

// BuildPlan produces the ordered submission plan for the campaign's target
// agencies. Duplicates are skipped and reported, never raised: an agency is
// a duplicate when it appears earlier in the same target list or when the
// campaign already holds an open (non-terminal) request filed with it.
// Entry i is scheduled at start + i*stagger, counting planned entries only.
func (o *CampaignOrchestrator) BuildPlan(campaign *model.Campaign, agencyIDs []int, start time.Time) *model.SubmissionPlan {
	plan := &model.SubmissionPlan{CampaignID: campaign.ID}
	planned := make(map[int]struct{})

	for _, agencyID := range agencyIDs {
		if _, dup := planned[agencyID]; dup {
			plan.Skipped = append(plan.Skipped, model.DuplicateTarget{
				AgencyID: agencyID,
				Reason:   "agency appears more than once in the target list",
			})
			continue
		}
		if member := campaign.MemberFor(agencyID); member != nil && !member.Status.Terminal() {
			plan.Skipped = append(plan.Skipped, model.DuplicateTarget{
				AgencyID: agencyID,
				Reason:   fmt.Sprintf("campaign already has open request %d with this agency", member.ID),
			})
			continue
		}

		planned[agencyID] = struct{}{}
		plan.Entries = append(plan.Entries, model.PlanEntry{
			ID:             uuid.NewString(),
			CampaignID:     campaign.ID,
			AgencyID:       agencyID,
			ScheduledAt:    start.Add(time.Duration(len(plan.Entries)) * campaign.Stagger),
			State:          model.PlanPending,
			IdempotencyKey: uuid.NewString(),
		})
	}

	return plan
}

// Record adds an externally submitted request to the campaign's member set,
// preserving submission order. A second open request for the same agency
// violates the campaign's uniqueness invariant.
func (o *CampaignOrchestrator) Record(campaign *model.Campaign, req *model.FOIARequest) error {
	if !req.Submitted() {
		return fmt.Errorf("cannot record unsubmitted request for campaign %s", campaign.ID)
	}
	if member := campaign.MemberFor(req.AgencyID); member != nil && !member.Status.Terminal() {
		return fmt.Errorf("campaign %s already has open request %d for agency %d",
			campaign.ID, member.ID, req.AgencyID)
	}
	campaign.Members = append(campaign.Members, req)
	return nil
}

// CampaignReport is the roll-up of a campaign's member verdicts.
type CampaignReport struct {
	Campaign *model.Campaign
	Status   model.CampaignStatus
	Findings []Finding
}

// RollUp derives the campaign's aggregate status: attention_needed when any
// member is overdue, in_progress while any member is non-terminal, complete
// otherwise. Findings preserve member order.
func (o *CampaignOrchestrator) RollUp(campaign *model.Campaign, now time.Time) (*CampaignReport, error) {
	findings, err := o.monitor.Scan(campaign.Members, now)
	if err != nil {
		return nil, fmt.Errorf("failed to scan campaign %s: %w", campaign.ID, err)
	}

	status := model.CampaignComplete
	for _, f := range findings {
		if f.Verdict == VerdictOverdue {
			status = model.CampaignAttentionNeeded
			break
		}
		if !f.Request.Status.Terminal() {
			status = model.CampaignInProgress
		}
	}

	return &CampaignReport{Campaign: campaign, Status: status, Findings: findings}, nil
}
