package service

import (
	"sync"
	"time"

	"github.com/openrecords/foiad/internal/model"
)

// transitions is the canonical legal-transition table. Any (from, to) pair
// absent here is illegal. Terminal states (completed, no_records, abandoned)
// allow nothing; rejected allows only appealing or abandoned.
var transitions = map[model.Status][]model.Status{
	model.StatusSubmitted: {
		model.StatusAcknowledged, model.StatusProcessing, model.StatusFixRequired,
		model.StatusRejected, model.StatusAbandoned,
	},
	model.StatusAcknowledged: {
		model.StatusProcessing, model.StatusFixRequired, model.StatusPaymentRequired,
		model.StatusRejected, model.StatusPartial, model.StatusCompleted, model.StatusNoRecords,
	},
	model.StatusProcessing: {
		model.StatusFixRequired, model.StatusPaymentRequired, model.StatusPartial,
		model.StatusCompleted, model.StatusRejected, model.StatusNoRecords,
	},
	model.StatusFixRequired: {
		model.StatusProcessing, model.StatusAbandoned,
	},
	model.StatusPaymentRequired: {
		model.StatusProcessing, model.StatusAbandoned,
	},
	model.StatusPartial: {
		model.StatusAppealing, model.StatusCompleted,
	},
	model.StatusRejected: {
		model.StatusAppealing, model.StatusAbandoned,
	},
	model.StatusAppealing: {
		model.StatusProcessing, model.StatusPartial, model.StatusCompleted, model.StatusRejected,
	},
}

// StateMachine validates and applies status changes. It is the sole writer
// of FOIARequest.Status and History. Transitions on the same request id are
// serialized; snapshots (agencies, organizations) are never touched.
type StateMachine struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

// NewStateMachine creates a StateMachine.
func NewStateMachine() *StateMachine {
	return &StateMachine{locks: make(map[int]*sync.Mutex)}
}

// lockFor returns the per-request mutex, creating it on first use.
func (m *StateMachine) lockFor(requestID int) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[requestID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[requestID] = l
	}
	return l
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to model.Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Initialize marks a freshly accepted request as submitted and records the
// first history entry. It must be called exactly once, when the platform
// assigns the request its id.
func (m *StateMachine) Initialize(req *model.FOIARequest, at time.Time) {
	lock := m.lockFor(req.ID)
	lock.Lock()
	defer lock.Unlock()

	req.Status = model.StatusSubmitted
	req.History = append(req.History, model.StatusChange{Status: model.StatusSubmitted, At: at})
}

// Apply transitions the request to the given status, appending exactly one
// history entry. Illegal pairs return an InvalidTransitionError; history is
// never rewritten.
func (m *StateMachine) Apply(req *model.FOIARequest, to model.Status, at time.Time) error {
	lock := m.lockFor(req.ID)
	lock.Lock()
	defer lock.Unlock()

	if !CanTransition(req.Status, to) {
		return &InvalidTransitionError{RequestID: req.ID, From: req.Status, To: to}
	}

	req.Status = to
	req.History = append(req.History, model.StatusChange{Status: to, At: at})
	return nil
}
