package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrecords/foiad/internal/model"
)

func newOrchestrator(t *testing.T) *CampaignOrchestrator {
	t.Helper()
	return NewCampaignOrchestrator(NewComplianceMonitor(newCalculator(t)))
}

// newTestCampaign creates a campaign filed under a single auto-selected org.
func newTestCampaign(t *testing.T, o *CampaignOrchestrator, title, body string, stagger time.Duration, now time.Time) *model.Campaign {
	t.Helper()
	campaign, selection := o.NewCampaign(title, body, stagger, now,
		[]model.Organization{{ID: 1, Name: "Acme Org"}}, "")
	require.Equal(t, SelectionSelected, selection.Outcome)
	require.NotNil(t, campaign)
	return campaign
}

func TestCampaignOrchestrator_BuildPlanDeduplicates(t *testing.T) {
	o := newOrchestrator(t)
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	campaign := newTestCampaign(t, o, "Use-of-force policies", "All current use-of-force policy documents.", 0, start)

	plan := o.BuildPlan(campaign, []int{101, 102, 101}, start)

	require.Len(t, plan.Entries, 2)
	assert.Equal(t, 101, plan.Entries[0].AgencyID)
	assert.Equal(t, 102, plan.Entries[1].AgencyID)

	require.Len(t, plan.Skipped, 1)
	assert.Equal(t, 101, plan.Skipped[0].AgencyID)
}

func TestCampaignOrchestrator_BuildPlanSkipsOpenMembers(t *testing.T) {
	o := newOrchestrator(t)
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	campaign := newTestCampaign(t, o, "Budget records", "FY2026 budget worksheets.", 0, start)

	open := openRequest("federal", start.AddDate(0, 0, -10))
	open.ID = 500
	open.AgencyID = 101
	require.NoError(t, o.Record(campaign, open))

	closed := openRequest("federal", start.AddDate(0, 0, -30))
	closed.ID = 501
	closed.AgencyID = 103
	closed.Status = model.StatusCompleted
	require.NoError(t, o.Record(campaign, closed))

	plan := o.BuildPlan(campaign, []int{101, 102, 103}, start)

	// 101 has an open member; 103's member is terminal, so refiling is allowed.
	require.Len(t, plan.Entries, 2)
	assert.Equal(t, 102, plan.Entries[0].AgencyID)
	assert.Equal(t, 103, plan.Entries[1].AgencyID)
	require.Len(t, plan.Skipped, 1)
	assert.Equal(t, 101, plan.Skipped[0].AgencyID)
}

func TestCampaignOrchestrator_StaggeredSchedule(t *testing.T) {
	o := newOrchestrator(t)
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	campaign := newTestCampaign(t, o, "Surveillance contracts", "Vendor contracts for ALPR systems.", 48*time.Hour, start)

	plan := o.BuildPlan(campaign, []int{1, 2, 3}, start)

	require.Len(t, plan.Entries, 3)
	assert.Equal(t, start, plan.Entries[0].ScheduledAt)
	assert.Equal(t, start.Add(48*time.Hour), plan.Entries[1].ScheduledAt)
	assert.Equal(t, start.Add(96*time.Hour), plan.Entries[2].ScheduledAt)

	// Each entry carries its own idempotency key.
	assert.NotEqual(t, plan.Entries[0].IdempotencyKey, plan.Entries[1].IdempotencyKey)
	for _, e := range plan.Entries {
		assert.Equal(t, model.PlanPending, e.State)
		assert.NotEmpty(t, e.IdempotencyKey)
	}
}

func TestCampaignOrchestrator_RecordPreservesOrderAndUniqueness(t *testing.T) {
	o := newOrchestrator(t)
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	campaign := newTestCampaign(t, o, "Inspection reports", "All inspection reports since 2024.", 0, start)

	first := openRequest("federal", start)
	first.ID = 1
	first.AgencyID = 11
	second := openRequest("california", start)
	second.ID = 2
	second.AgencyID = 12

	require.NoError(t, o.Record(campaign, first))
	require.NoError(t, o.Record(campaign, second))
	require.Len(t, campaign.Members, 2)
	assert.Equal(t, 1, campaign.Members[0].ID)
	assert.Equal(t, 2, campaign.Members[1].ID)

	// Unsubmitted requests cannot be recorded.
	draft := &model.FOIARequest{AgencyID: 13}
	assert.Error(t, o.Record(campaign, draft))

	// A second open request for the same agency breaks the invariant.
	dup := openRequest("federal", start)
	dup.ID = 3
	dup.AgencyID = 11
	assert.Error(t, o.Record(campaign, dup))
}

func TestCampaignOrchestrator_RollUp(t *testing.T) {
	o := newOrchestrator(t)
	filed := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	now := time.Date(2026, 4, 6, 9, 0, 0, 0, time.UTC) // past the federal due date

	build := func(statuses ...model.Status) *model.Campaign {
		campaign := newTestCampaign(t, o, "test", "body", 0, filed)
		for i, st := range statuses {
			req := openRequest("federal", filed)
			req.ID = i + 1
			req.AgencyID = 100 + i
			req.Status = st
			require.NoError(t, o.Record(campaign, req))
		}
		return campaign
	}

	tests := []struct {
		name     string
		statuses []model.Status
		want     model.CampaignStatus
	}{
		{
			name:     "one overdue member needs attention even among completed",
			statuses: []model.Status{model.StatusCompleted, model.StatusProcessing, model.StatusCompleted},
			want:     model.CampaignAttentionNeeded,
		},
		{
			name:     "all terminal is complete",
			statuses: []model.Status{model.StatusCompleted, model.StatusNoRecords},
			want:     model.CampaignComplete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := o.RollUp(build(tt.statuses...), now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, report.Status)
		})
	}

	// Non-terminal members on track: in_progress.
	fresh := newTestCampaign(t, o, "fresh", "body", 0, now)
	req := openRequest("federal", now.AddDate(0, 0, -1))
	req.ID = 9
	req.AgencyID = 300
	require.NoError(t, o.Record(fresh, req))

	report, err := o.RollUp(fresh, now)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignInProgress, report.Status)
}

func TestCampaignOrchestrator_NewCampaignSelectsFilerOnce(t *testing.T) {
	o := newOrchestrator(t)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	orgs := []model.Organization{{ID: 1, Name: "Acme Org"}, {ID: 2, Name: "Beacon Press"}}

	// Ambiguity blocks campaign creation and surfaces the candidates.
	campaign, selection := o.NewCampaign("t", "b", 0, now, orgs, "")
	assert.Nil(t, campaign)
	assert.Equal(t, SelectionNeedsChoice, selection.Outcome)
	assert.Len(t, selection.Candidates, 2)

	// A narrowing hint resolves to one filer for the whole campaign.
	campaign, selection = o.NewCampaign("t", "b", 0, now, orgs, "beacon")
	require.NotNil(t, campaign)
	assert.Equal(t, SelectionSelected, selection.Outcome)
	assert.Equal(t, 2, campaign.OrganizationID)

	// No organizations: file as an individual.
	campaign, selection = o.NewCampaign("t", "b", 0, now, nil, "")
	require.NotNil(t, campaign)
	assert.Equal(t, SelectionIndividual, selection.Outcome)
	assert.Equal(t, 0, campaign.OrganizationID)
}
