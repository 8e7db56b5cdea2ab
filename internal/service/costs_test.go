package service

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrecords/foiad/internal/model"
	"github.com/openrecords/foiad/internal/rules"
)

func newEstimator(t *testing.T) *CostEstimator {
	t.Helper()
	table, err := rules.LoadJurisdictions()
	require.NoError(t, err)
	return NewCostEstimator(table)
}

func TestCostEstimator_AgencyRates(t *testing.T) {
	estimator := newEstimator(t)
	agency := &model.Agency{
		ID:                101,
		Jurisdiction:      "federal",
		PerPageRate:       sql.NullFloat64{Float64: 0.10, Valid: true},
		FreePageAllowance: sql.NullInt64{Int64: 100, Valid: true},
	}

	tests := []struct {
		name    string
		pages   int
		wantFee float64
	}{
		{"pages over allowance", 250, 15.00},
		{"pages under allowance", 50, 0.00},
		{"exactly at allowance", 100, 0.00},
		{"zero pages", 0, 0.00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est, err := estimator.Estimate(agency, tt.pages, CategoryIndividual, false)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantFee, est.Fee, 0.001)
		})
	}
}

func TestCostEstimator_JurisdictionDefaultsWhenAgencySilent(t *testing.T) {
	estimator := newEstimator(t)
	// Agency publishes no rates; federal defaults are 0.10/page past 100 pages.
	agency := &model.Agency{ID: 102, Jurisdiction: "federal"}

	est, err := estimator.Estimate(agency, 250, CategoryIndividual, false)
	require.NoError(t, err)
	assert.InDelta(t, 15.00, est.Fee, 0.001)
	assert.Equal(t, 0.10, est.PerPageRate)
	assert.Equal(t, 100, est.FreePages)
}

func TestCostEstimator_WaiverEligibility(t *testing.T) {
	estimator := newEstimator(t)
	agency := &model.Agency{ID: 103, Jurisdiction: "federal"}

	tests := []struct {
		category RequesterCategory
		eligible bool
	}{
		{CategoryNewsMedia, true},
		{CategoryEducational, true},
		{CategoryIndividual, false},
		{CategoryCommercial, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			est, err := estimator.Estimate(agency, 10, tt.category, true)
			require.NoError(t, err)
			assert.Equal(t, tt.eligible, est.WaiverEligible)
			assert.True(t, est.WaiverRequested)
		})
	}
}

func TestCostEstimator_MalformedInput(t *testing.T) {
	estimator := newEstimator(t)

	_, err := estimator.Estimate(&model.Agency{Jurisdiction: "federal"}, -1, CategoryIndividual, false)
	assert.Error(t, err)

	_, err = estimator.Estimate(&model.Agency{Jurisdiction: "narnia"}, 10, CategoryIndividual, false)
	var unknown *rules.UnknownJurisdictionError
	assert.ErrorAs(t, err, &unknown)
}
