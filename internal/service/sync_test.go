package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrecords/foiad/internal/model"
)

type fakeSyncPlatform struct {
	Platform

	updates map[int]*RequestUpdate
}

func (f *fakeSyncPlatform) FetchRequestStatus(_ context.Context, id int) (*RequestUpdate, error) {
	update, ok := f.updates[id]
	if !ok {
		return nil, ErrNotFound
	}
	return update, nil
}

type fakeRequestRepo struct {
	requests map[int]*model.FOIARequest
	saved    []int
}

func newFakeRequestRepo(reqs ...*model.FOIARequest) *fakeRequestRepo {
	repo := &fakeRequestRepo{requests: make(map[int]*model.FOIARequest)}
	for _, r := range reqs {
		repo.requests[r.ID] = r
	}
	return repo
}

func (r *fakeRequestRepo) Get(_ context.Context, id int) (*model.FOIARequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return req, nil
}

func (r *fakeRequestRepo) OpenRequests(_ context.Context) ([]*model.FOIARequest, error) {
	var open []*model.FOIARequest
	for _, req := range r.requests {
		if !req.Status.Terminal() {
			open = append(open, req)
		}
	}
	return open, nil
}

func (r *fakeRequestRepo) Save(_ context.Context, req *model.FOIARequest) error {
	r.requests[req.ID] = req
	r.saved = append(r.saved, req.ID)
	return nil
}

func trackedRequest(id int, status model.Status) *model.FOIARequest {
	filed := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	return &model.FOIARequest{
		ID:           id,
		Title:        "Inspection records",
		AgencyID:     14,
		Jurisdiction: "federal",
		FiledAt:      filed,
		Status:       status,
		History:      []model.StatusChange{{Status: status, At: filed}},
	}
}

func TestSyncerAppliesRemoteStatus(t *testing.T) {
	now := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	req := trackedRequest(77, model.StatusSubmitted)
	repo := newFakeRequestRepo(req)
	platform := &fakeSyncPlatform{updates: map[int]*RequestUpdate{
		77: {Status: model.StatusAcknowledged},
	}}
	syncer := NewSyncer(platform, repo, NewStateMachine())

	changed, err := syncer.SyncRequest(context.Background(), req, now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, model.StatusAcknowledged, req.Status)
	require.Len(t, req.History, 2)
	assert.Equal(t, now, req.History[1].At)
	assert.Equal(t, []int{77}, repo.saved)
}

func TestSyncerRejectsIllegalRemoteJump(t *testing.T) {
	now := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	req := trackedRequest(77, model.StatusSubmitted)
	repo := newFakeRequestRepo(req)
	platform := &fakeSyncPlatform{updates: map[int]*RequestUpdate{
		77: {Status: model.StatusAppealing},
	}}
	syncer := NewSyncer(platform, repo, NewStateMachine())

	changed, err := syncer.SyncRequest(context.Background(), req, now)
	require.Error(t, err)

	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.False(t, changed)
	assert.Equal(t, model.StatusSubmitted, req.Status)
	require.Len(t, req.History, 1)
	assert.Empty(t, repo.saved)
}

func TestSyncerAttachesFeesAndDenialReasons(t *testing.T) {
	now := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	req := trackedRequest(77, model.StatusProcessing)
	req.DenialReasons = []model.DenialReason{{ExemptionCode: "b(5)"}}
	repo := newFakeRequestRepo(req)

	fee := 42.50
	platform := &fakeSyncPlatform{updates: map[int]*RequestUpdate{
		77: {
			Status: model.StatusProcessing, // unchanged
			Fee:    &fee,
			DenialReasons: []model.DenialReason{
				{ExemptionCode: "b(5)"},
				{ExemptionCode: "b(7)(C)", Justification: "personal privacy"},
			},
		},
	}}
	syncer := NewSyncer(platform, repo, NewStateMachine())

	changed, err := syncer.SyncRequest(context.Background(), req, now)
	require.NoError(t, err)
	assert.True(t, changed)
	require.True(t, req.Fee.Valid)
	assert.Equal(t, 42.50, req.Fee.Float64)
	require.Len(t, req.DenialReasons, 2)
	assert.Equal(t, "b(5)", req.DenialReasons[0].ExemptionCode)
	assert.Equal(t, "b(7)(C)", req.DenialReasons[1].ExemptionCode)
	// Unchanged status appends no history.
	require.Len(t, req.History, 1)
}

func TestSyncerSyncAllIsolatesFailures(t *testing.T) {
	now := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	healthy := trackedRequest(1, model.StatusSubmitted)
	missing := trackedRequest(2, model.StatusProcessing)
	done := trackedRequest(3, model.StatusCompleted)
	repo := newFakeRequestRepo(healthy, missing, done)
	platform := &fakeSyncPlatform{updates: map[int]*RequestUpdate{
		1: {Status: model.StatusAcknowledged},
	}}
	syncer := NewSyncer(platform, repo, NewStateMachine())

	stats, err := syncer.SyncAll(context.Background(), now)
	require.NoError(t, err)

	// Terminal requests never appear in the pass.
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, model.StatusAcknowledged, healthy.Status)
	assert.Equal(t, model.StatusProcessing, missing.Status)
}
