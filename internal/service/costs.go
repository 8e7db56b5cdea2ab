package service

import (
	"fmt"

	"github.com/openrecords/foiad/internal/model"
	"github.com/openrecords/foiad/internal/rules"
)

// RequesterCategory is the fee classification of the requester.
type RequesterCategory string

const (
	CategoryIndividual  RequesterCategory = "individual"
	CategoryNewsMedia   RequesterCategory = "news_media"
	CategoryEducational RequesterCategory = "educational"
	CategoryCommercial  RequesterCategory = "commercial"
)

// CostEstimate is a duplication-fee estimate, not a guarantee: agencies
// assess actual fees after processing.
type CostEstimate struct {
	Fee float64
	// WaiverEligible reports presumptive eligibility for reduced or waived
	// search fees. News media and educational requesters qualify under the
	// standard rule; commercial requesters never do.
	WaiverEligible  bool
	WaiverRequested bool
	PerPageRate     float64
	FreePages       int
	Note            string
}

// CostEstimator computes fee estimates from agency fee metadata, falling
// back to jurisdiction-level defaults when an agency publishes no rates.
type CostEstimator struct {
	table *rules.JurisdictionTable
}

// NewCostEstimator creates an estimator over the statutory table.
func NewCostEstimator(table *rules.JurisdictionTable) *CostEstimator {
	return &CostEstimator{table: table}
}

// Estimate computes the fee for the expected page count:
// max(0, pages - free allowance) * per-page rate. A negative page count is
// malformed input.
func (e *CostEstimator) Estimate(agency *model.Agency, pageCount int, category RequesterCategory, waiverRequested bool) (*CostEstimate, error) {
	if pageCount < 0 {
		return nil, fmt.Errorf("page count must not be negative, got %d", pageCount)
	}

	j, err := e.table.Get(agency.Jurisdiction)
	if err != nil {
		return nil, err
	}

	rate := j.PerPageRate
	if agency.PerPageRate.Valid {
		rate = agency.PerPageRate.Float64
	}
	freePages := j.FreePageAllowance
	if agency.FreePageAllowance.Valid {
		freePages = int(agency.FreePageAllowance.Int64)
	}

	billable := pageCount - freePages
	if billable < 0 {
		billable = 0
	}

	est := &CostEstimate{
		Fee:             float64(billable) * rate,
		WaiverEligible:  category == CategoryNewsMedia || category == CategoryEducational,
		WaiverRequested: waiverRequested,
		PerPageRate:     rate,
		FreePages:       freePages,
		Note:            "estimate only; the agency assesses actual fees after processing",
	}
	return est, nil
}
