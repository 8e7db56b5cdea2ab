package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrecords/foiad/internal/model"
	"github.com/openrecords/foiad/internal/rules"
)

func newAppealGenerator(t *testing.T) *AppealGenerator {
	t.Helper()
	catalog, err := rules.LoadPrecedents()
	require.NoError(t, err)
	return NewAppealGenerator(catalog)
}

func deniedRequest(reasons ...model.DenialReason) *model.FOIARequest {
	return &model.FOIARequest{
		ID:            77,
		Title:         "Processing records for drone procurement",
		Status:        model.StatusRejected,
		DenialReasons: reasons,
	}
}

func TestAppealGenerator_MatchedAndUnmatchedReasons(t *testing.T) {
	gen := newAppealGenerator(t)
	// b(5) is cataloged; x(9) has no entry and no cataloged family.
	req := deniedRequest(
		model.DenialReason{ExemptionCode: "b(5)", Justification: "deliberative process"},
		model.DenialReason{ExemptionCode: "x(9)"},
	)

	appeal, err := gen.Generate(req, time.Now())
	require.NoError(t, err, "unmatched reasons must not raise")
	require.Len(t, appeal.Arguments, 2)

	matched := appeal.Arguments[0]
	assert.False(t, matched.Unmatched)
	assert.NotEmpty(t, matched.Citations)
	assert.Contains(t, matched.Argument, "deliberative process")

	unmatched := appeal.Arguments[1]
	assert.True(t, unmatched.Unmatched)
	assert.Empty(t, unmatched.Citations)

	assert.Equal(t, []string{"x(9)"}, appeal.Unmatched())
}

func TestAppealGenerator_FamilyFallback(t *testing.T) {
	gen := newAppealGenerator(t)
	req := deniedRequest(model.DenialReason{ExemptionCode: "b(7)(E)"})

	appeal, err := gen.Generate(req, time.Now())
	require.NoError(t, err)
	require.Len(t, appeal.Arguments, 1)
	assert.False(t, appeal.Arguments[0].Unmatched, "b(7)(E) must fall back to the b(7) family")
	assert.NotEmpty(t, appeal.Arguments[0].Citations)
}

func TestAppealGenerator_PreservesReasonOrder(t *testing.T) {
	gen := newAppealGenerator(t)
	req := deniedRequest(
		model.DenialReason{ExemptionCode: "b(6)"},
		model.DenialReason{ExemptionCode: "b(5)"},
		model.DenialReason{ExemptionCode: "b(1)"},
	)

	appeal, err := gen.Generate(req, time.Now())
	require.NoError(t, err)
	require.Len(t, appeal.Arguments, 3)
	assert.Equal(t, "b(6)", appeal.Arguments[0].Reason.ExemptionCode)
	assert.Equal(t, "b(5)", appeal.Arguments[1].Reason.ExemptionCode)
	assert.Equal(t, "b(1)", appeal.Arguments[2].Reason.ExemptionCode)
}

func TestAppealGenerator_DoesNotTransitionRequest(t *testing.T) {
	gen := newAppealGenerator(t)
	req := deniedRequest(model.DenialReason{ExemptionCode: "b(5)"})

	_, err := gen.Generate(req, time.Now())
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, req.Status)
	assert.Empty(t, req.History)
}

func TestAppealGenerator_MalformedInput(t *testing.T) {
	gen := newAppealGenerator(t)

	// Wrong status.
	req := deniedRequest(model.DenialReason{ExemptionCode: "b(5)"})
	req.Status = model.StatusProcessing
	_, err := gen.Generate(req, time.Now())
	assert.Error(t, err)

	// Partial grants are appealable.
	req.Status = model.StatusPartial
	_, err = gen.Generate(req, time.Now())
	assert.NoError(t, err)

	// No denial reasons attached.
	empty := deniedRequest()
	_, err = gen.Generate(empty, time.Now())
	assert.Error(t, err)
}

func TestRenderAppealText(t *testing.T) {
	gen := newAppealGenerator(t)
	req := deniedRequest(model.DenialReason{ExemptionCode: "b(5)"})

	appeal, err := gen.Generate(req, time.Now())
	require.NoError(t, err)

	text := RenderAppealText(req, appeal)
	assert.Contains(t, text, "administrative appeal")
	assert.Contains(t, text, "Sears")
}
