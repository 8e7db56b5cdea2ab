package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrecords/foiad/internal/model"
)

var allStatuses = []model.Status{
	model.StatusSubmitted, model.StatusAcknowledged, model.StatusProcessing,
	model.StatusFixRequired, model.StatusPaymentRequired, model.StatusAppealing,
	model.StatusPartial, model.StatusRejected, model.StatusNoRecords,
	model.StatusCompleted, model.StatusAbandoned,
}

func TestStateMachine_LegalTransitionsAppendOneEntry(t *testing.T) {
	m := NewStateMachine()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	for from, tos := range transitions {
		for _, to := range tos {
			req := &model.FOIARequest{ID: 7, Status: from,
				History: []model.StatusChange{{Status: from, At: now.Add(-time.Hour)}}}

			err := m.Apply(req, to, now)
			require.NoError(t, err, "%s -> %s should be legal", from, to)
			assert.Equal(t, to, req.Status)
			require.Len(t, req.History, 2)
			assert.Equal(t, to, req.History[1].Status)
			assert.Equal(t, now, req.History[1].At)
		}
	}
}

func TestStateMachine_IllegalTransitionsRejected(t *testing.T) {
	m := NewStateMachine()
	now := time.Now()

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			if CanTransition(from, to) {
				continue
			}
			req := &model.FOIARequest{ID: 42, Status: from,
				History: []model.StatusChange{{Status: from, At: now.Add(-time.Hour)}}}

			err := m.Apply(req, to, now)
			require.Error(t, err, "%s -> %s should be illegal", from, to)

			var invalid *InvalidTransitionError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, from, invalid.From)
			assert.Equal(t, to, invalid.To)
			assert.Equal(t, 42, invalid.RequestID)

			// State and history untouched on failure.
			assert.Equal(t, from, req.Status)
			assert.Len(t, req.History, 1)
		}
	}
}

func TestStateMachine_TerminalStatesAllowNothing(t *testing.T) {
	for _, terminal := range []model.Status{model.StatusCompleted, model.StatusNoRecords, model.StatusAbandoned} {
		assert.Empty(t, transitions[terminal], "%s must have no outgoing transitions", terminal)
	}
	// Rejected is terminal unless an appeal reopens it.
	assert.ElementsMatch(t,
		[]model.Status{model.StatusAppealing, model.StatusAbandoned},
		transitions[model.StatusRejected])
}

func TestStateMachine_Initialize(t *testing.T) {
	m := NewStateMachine()
	filed := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	req := &model.FOIARequest{ID: 9, FiledAt: filed}

	m.Initialize(req, filed)

	assert.Equal(t, model.StatusSubmitted, req.Status)
	require.Len(t, req.History, 1)
	assert.Equal(t, model.StatusSubmitted, req.History[0].Status)
}

func TestStateMachine_LastChangeTracksApply(t *testing.T) {
	m := NewStateMachine()
	filed := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	req := &model.FOIARequest{ID: 9, FiledAt: filed}

	assert.Nil(t, req.LastChange())

	m.Initialize(req, filed)
	require.NotNil(t, req.LastChange())
	assert.Equal(t, model.StatusSubmitted, req.LastChange().Status)

	require.NoError(t, m.Apply(req, model.StatusAcknowledged, filed.Add(time.Hour)))
	assert.Equal(t, model.StatusAcknowledged, req.LastChange().Status)
	assert.Equal(t, filed.Add(time.Hour), req.LastChange().At)
}

func TestStateMachine_ConcurrentTransitionsSerialized(t *testing.T) {
	m := NewStateMachine()
	now := time.Now()
	req := &model.FOIARequest{ID: 5, Status: model.StatusSubmitted,
		History: []model.StatusChange{{Status: model.StatusSubmitted, At: now.Add(-time.Hour)}}}

	// Only one of the racing acknowledged transitions can win; the loser must
	// fail with InvalidTransition since acknowledged -> acknowledged is illegal.
	done := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			done <- m.Apply(req, model.StatusAcknowledged, time.Now())
		}()
	}
	errs := []error{<-done, <-done}

	var failures int
	for _, err := range errs {
		if err != nil {
			failures++
		}
	}
	assert.Equal(t, 1, failures)
	assert.Len(t, req.History, 2)
}
