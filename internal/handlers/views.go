package handlers

import (
	"time"

	"github.com/openrecords/foiad/internal/model"
	"github.com/openrecords/foiad/internal/service"
)

// AgencyView is the JSON shape of a cached agency.
type AgencyView struct {
	ID                  int      `json:"id"`
	Name                string   `json:"name"`
	Jurisdiction        string   `json:"jurisdiction"`
	AverageResponseDays int      `json:"average_response_days"`
	PerPageRate         *float64 `json:"per_page_rate,omitempty"`
	FreePageAllowance   *int64   `json:"free_page_allowance,omitempty"`
	SuccessRate         float64  `json:"success_rate"`
}

func agencyView(a *model.Agency) AgencyView {
	view := AgencyView{
		ID:                  a.ID,
		Name:                a.Name,
		Jurisdiction:        a.Jurisdiction,
		AverageResponseDays: a.AverageResponseDays,
		SuccessRate:         a.SuccessRate,
	}
	if a.PerPageRate.Valid {
		view.PerPageRate = &a.PerPageRate.Float64
	}
	if a.FreePageAllowance.Valid {
		view.FreePageAllowance = &a.FreePageAllowance.Int64
	}
	return view
}

func agencyViews(agencies []model.Agency) []AgencyView {
	views := make([]AgencyView, 0, len(agencies))
	for i := range agencies {
		views = append(views, agencyView(&agencies[i]))
	}
	return views
}

// StatusChangeView is one history entry.
type StatusChangeView struct {
	Status string    `json:"status"`
	At     time.Time `json:"at"`
}

// DenialReasonView is one cited exemption.
type DenialReasonView struct {
	ExemptionCode string `json:"exemption_code"`
	Justification string `json:"justification,omitempty"`
}

// RequestView is the JSON shape of a tracked request.
type RequestView struct {
	ID             int                `json:"id"`
	Title          string             `json:"title"`
	AgencyID       int                `json:"agency_id"`
	OrganizationID *int64             `json:"organization_id,omitempty"`
	Jurisdiction   string             `json:"jurisdiction"`
	FiledAt        time.Time          `json:"filed_at"`
	Status         string             `json:"status"`
	Fee            *float64           `json:"fee,omitempty"`
	Embargo        bool               `json:"embargo"`
	History        []StatusChangeView `json:"history,omitempty"`
	DenialReasons  []DenialReasonView `json:"denial_reasons,omitempty"`
}

func requestView(req *model.FOIARequest) RequestView {
	view := RequestView{
		ID:           req.ID,
		Title:        req.Title,
		AgencyID:     req.AgencyID,
		Jurisdiction: req.Jurisdiction,
		FiledAt:      req.FiledAt,
		Status:       string(req.Status),
		Embargo:      req.Embargo,
	}
	if req.OrganizationID.Valid {
		view.OrganizationID = &req.OrganizationID.Int64
	}
	if req.Fee.Valid {
		view.Fee = &req.Fee.Float64
	}
	for _, change := range req.History {
		view.History = append(view.History, StatusChangeView{
			Status: string(change.Status),
			At:     change.At,
		})
	}
	for _, reason := range req.DenialReasons {
		view.DenialReasons = append(view.DenialReasons, DenialReasonView{
			ExemptionCode: reason.ExemptionCode,
			Justification: reason.Justification,
		})
	}
	return view
}

// FindingView is one compliance finding.
type FindingView struct {
	Request RequestView `json:"request"`
	Verdict string      `json:"verdict"`
	DueDate *time.Time  `json:"due_date,omitempty"`
	Action  string      `json:"action"`
}

func findingView(f service.Finding) FindingView {
	view := FindingView{
		Request: requestView(f.Request),
		Verdict: string(f.Verdict),
		Action:  string(f.Action),
	}
	if f.Verdict != service.VerdictNotApplicable {
		due := f.DueDate
		view.DueDate = &due
	}
	return view
}

func findingViews(findings []service.Finding) []FindingView {
	views := make([]FindingView, 0, len(findings))
	for _, f := range findings {
		views = append(views, findingView(f))
	}
	return views
}

// PlanEntryView is one scheduled submission in a campaign's plan.
type PlanEntryView struct {
	ID          string    `json:"id"`
	AgencyID    int       `json:"agency_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	State       string    `json:"state"`
	RequestID   int       `json:"request_id,omitempty"`
	Attempts    int       `json:"attempts"`
	LastError   string    `json:"last_error,omitempty"`
}

func planEntryViews(entries []model.PlanEntry) []PlanEntryView {
	views := make([]PlanEntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, PlanEntryView{
			ID:          e.ID,
			AgencyID:    e.AgencyID,
			ScheduledAt: e.ScheduledAt,
			State:       string(e.State),
			RequestID:   e.RequestID,
			Attempts:    e.Attempts,
			LastError:   e.LastError,
		})
	}
	return views
}

// CampaignView is the JSON shape of a campaign roll-up.
type CampaignView struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	CreatedAt      time.Time     `json:"created_at"`
	OrganizationID int           `json:"organization_id,omitempty"`
	Status         string        `json:"status"`
	Members        []FindingView `json:"members,omitempty"`
}

func campaignView(report *service.CampaignReport) CampaignView {
	return CampaignView{
		ID:             report.Campaign.ID,
		Title:          report.Campaign.Title,
		CreatedAt:      report.Campaign.CreatedAt,
		OrganizationID: report.Campaign.OrganizationID,
		Status:         string(report.Status),
		Members:        findingViews(report.Findings),
	}
}
