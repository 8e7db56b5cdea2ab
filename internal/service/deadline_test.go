package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrecords/foiad/internal/model"
	"github.com/openrecords/foiad/internal/rules"
)

func newCalculator(t *testing.T) *DeadlineCalculator {
	t.Helper()
	table, err := rules.LoadJurisdictions()
	require.NoError(t, err)
	return NewDeadlineCalculator(table)
}

func openRequest(jurisdiction string, filed time.Time) *model.FOIARequest {
	return &model.FOIARequest{
		ID:           101,
		Jurisdiction: jurisdiction,
		FiledAt:      filed,
		Status:       model.StatusProcessing,
		History: []model.StatusChange{
			{Status: model.StatusSubmitted, At: filed},
			{Status: model.StatusProcessing, At: filed.Add(24 * time.Hour)},
		},
	}
}

func TestDeadlineCalculator_FederalWindow(t *testing.T) {
	calc := newCalculator(t)
	// Monday 2026-03-02; 20 business days with no intervening federal
	// holidays lands on Monday 2026-03-30.
	filed := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	req := openRequest("federal", filed)

	due, err := calc.DueDate(req, filed)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 30, 0, 0, 0, 0, time.UTC), due)
}

func TestDeadlineCalculator_DueDateAlwaysAfterFiling(t *testing.T) {
	calc := newCalculator(t)
	table, err := rules.LoadJurisdictions()
	require.NoError(t, err)

	codes := []string{"federal", "california", "new_york", "massachusetts", "texas", "illinois", "washington"}
	// Sweep filing dates across several weeks, including weekends and holidays.
	for _, code := range codes {
		j, err := table.Get(code)
		require.NoError(t, err)
		for day := 0; day < 30; day++ {
			filed := time.Date(2025, 12, 20, 9, 0, 0, 0, time.UTC).AddDate(0, 0, day)
			req := openRequest(code, filed)

			due, err := calc.DueDate(req, filed)
			require.NoError(t, err)
			assert.True(t, due.After(filed.Truncate(24*time.Hour)),
				"%s filed %s: due %s not after filing", code, filed, due)
			assert.True(t, j.IsBusinessDay(due),
				"%s filed %s: due %s is not a business day", code, filed, due)
		}
	}
}

func TestDeadlineCalculator_PauseExtendsDueDateExactly(t *testing.T) {
	calc := newCalculator(t)
	filed := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)

	baseline := openRequest("federal", filed)
	baseDue, err := calc.DueDate(baseline, now)
	require.NoError(t, err)

	// Identical request that spent exactly 4 business days in fix_required:
	// entered Wednesday 2026-03-04, resumed Tuesday 2026-03-10.
	paused := openRequest("federal", filed)
	paused.History = append(paused.History,
		model.StatusChange{Status: model.StatusFixRequired, At: time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)},
		model.StatusChange{Status: model.StatusProcessing, At: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)},
	)

	pausedDue, err := calc.DueDate(paused, now)
	require.NoError(t, err)

	table, err := rules.LoadJurisdictions()
	require.NoError(t, err)
	fed, err := table.Get("federal")
	require.NoError(t, err)
	assert.Equal(t, 4, businessDaysBetween(fed, baseDue, pausedDue),
		"4 paused business days must push the due date by exactly 4 business days")
}

func TestDeadlineCalculator_OpenPausedIntervalCountsUntilNow(t *testing.T) {
	calc := newCalculator(t)
	filed := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	req := openRequest("federal", filed)
	req.Status = model.StatusPaymentRequired
	req.History = append(req.History,
		model.StatusChange{Status: model.StatusPaymentRequired, At: time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)})

	// Still paused two business days later.
	now := time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC)
	due, err := calc.DueDate(req, now)
	require.NoError(t, err)

	baseline := openRequest("federal", filed)
	baseDue, err := calc.DueDate(baseline, now)
	require.NoError(t, err)
	assert.True(t, due.After(baseDue), "an open paused interval must already extend the due date")
}

func TestDeadlineCalculator_Assess(t *testing.T) {
	calc := newCalculator(t)
	filed := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) // due 2026-03-30

	tests := []struct {
		name   string
		status model.Status
		now    time.Time
		want   Verdict
	}{
		{"on track", model.StatusProcessing, time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC), VerdictOnTrack},
		{"due soon", model.StatusProcessing, time.Date(2026, 3, 26, 9, 0, 0, 0, time.UTC), VerdictDueSoon},
		{"due date itself is due soon", model.StatusProcessing, time.Date(2026, 3, 30, 9, 0, 0, 0, time.UTC), VerdictDueSoon},
		{"overdue", model.StatusProcessing, time.Date(2026, 3, 31, 9, 0, 0, 0, time.UTC), VerdictOverdue},
		{"completed is not applicable", model.StatusCompleted, time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC), VerdictNotApplicable},
		{"rejected is not applicable", model.StatusRejected, time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC), VerdictNotApplicable},
		{"abandoned is not applicable", model.StatusAbandoned, time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC), VerdictNotApplicable},
		{"open appeal still has a clock", model.StatusAppealing, time.Date(2026, 3, 31, 9, 0, 0, 0, time.UTC), VerdictOverdue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := openRequest("federal", filed)
			req.Status = tt.status

			verdict, _, err := calc.Assess(req, tt.now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, verdict)
		})
	}
}

func TestDeadlineCalculator_UnknownJurisdiction(t *testing.T) {
	calc := newCalculator(t)
	req := openRequest("gotham", time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))

	_, err := calc.DueDate(req, time.Now())
	var unknown *rules.UnknownJurisdictionError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "gotham", unknown.Code)
}
