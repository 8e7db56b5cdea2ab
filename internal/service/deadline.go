package service

import (
	"time"

	"github.com/openrecords/foiad/internal/model"
	"github.com/openrecords/foiad/internal/rules"
)

// Verdict is the derived judgment of whether an agency is meeting its
// statutory deadline for a request.
type Verdict string

const (
	VerdictOnTrack       Verdict = "on_track"
	VerdictDueSoon       Verdict = "due_soon"
	VerdictOverdue       Verdict = "overdue"
	VerdictNotApplicable Verdict = "not_applicable"
)

// defaultWarningDays is the due-soon window in business days.
const defaultWarningDays = 3

// DeadlineCalculator computes statutory due dates and compliance verdicts
// from a request's filing date, jurisdiction, and status history.
type DeadlineCalculator struct {
	table       *rules.JurisdictionTable
	warningDays int
}

// NewDeadlineCalculator creates a calculator with the default 3-business-day
// warning window.
func NewDeadlineCalculator(table *rules.JurisdictionTable) *DeadlineCalculator {
	return &DeadlineCalculator{table: table, warningDays: defaultWarningDays}
}

// WithWarningDays overrides the due-soon window.
func (c *DeadlineCalculator) WithWarningDays(days int) *DeadlineCalculator {
	c.warningDays = days
	return c
}

// DueDate computes the statutory response due date for the request: the
// jurisdiction's response window in business days walked forward from the
// filing date, extended by every business day the clock spent paused in
// fix_required or payment_required. now closes a still-open paused interval.
func (c *DeadlineCalculator) DueDate(req *model.FOIARequest, now time.Time) (time.Time, error) {
	j, err := c.table.Get(req.Jurisdiction)
	if err != nil {
		return time.Time{}, err
	}

	due := addBusinessDays(j, dateOf(req.FiledAt), j.ResponseDays)
	if paused := pausedBusinessDays(j, req.History, now); paused > 0 {
		due = addBusinessDays(j, due, paused)
	}
	return due, nil
}

// Assess returns the compliance verdict and due date for a request. Requests
// in a terminal status are not_applicable regardless of date math.
func (c *DeadlineCalculator) Assess(req *model.FOIARequest, now time.Time) (Verdict, time.Time, error) {
	if req.Status.Terminal() {
		return VerdictNotApplicable, time.Time{}, nil
	}

	due, err := c.DueDate(req, now)
	if err != nil {
		return "", time.Time{}, err
	}

	j, err := c.table.Get(req.Jurisdiction)
	if err != nil {
		return "", time.Time{}, err
	}

	today := dateOf(now)
	if today.After(due) {
		return VerdictOverdue, due, nil
	}
	if businessDaysBetween(j, today, due) <= c.warningDays {
		return VerdictDueSoon, due, nil
	}
	return VerdictOnTrack, due, nil
}

// dateOf truncates a timestamp to its calendar date in UTC.
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// addBusinessDays returns the n-th business day after start under the
// jurisdiction's calendar. The result always falls strictly after start and
// on a business day.
func addBusinessDays(j *rules.Jurisdiction, start time.Time, n int) time.Time {
	d := start
	for counted := 0; counted < n; {
		d = d.AddDate(0, 0, 1)
		if j.IsBusinessDay(d) {
			counted++
		}
	}
	return d
}

// businessDaysBetween counts the business days in (from, to] by calendar
// date. Zero when to is not after from.
func businessDaysBetween(j *rules.Jurisdiction, from, to time.Time) int {
	count := 0
	for d := from.AddDate(0, 0, 1); !d.After(to); d = d.AddDate(0, 0, 1) {
		if j.IsBusinessDay(d) {
			count++
		}
	}
	return count
}

// pausedBusinessDays sums the business days spent in clock-pausing statuses
// across the status history. An interval still open at the end of the
// history is closed by now.
func pausedBusinessDays(j *rules.Jurisdiction, history []model.StatusChange, now time.Time) int {
	total := 0
	for i, change := range history {
		if !change.Status.Paused() {
			continue
		}
		end := now
		if i+1 < len(history) {
			end = history[i+1].At
		}
		total += businessDaysBetween(j, dateOf(change.At), dateOf(end))
	}
	return total
}
