package workflow_test

import (
	"bytes"
	"context"
	"encoding/gob"
	"io"
	"testing"
	"time"

	"github.com/justibot/justibot/internal/ai"
	"github.com/justibot/justibot/internal/errors"
	"github.com/justibot/justibot/internal/failure"
	"github.com/justibot/justibot/internal/models"
	"github.com/justibot/justibot/internal/testhelpers"
	"github.com/justibot/justibot/internal/workflow"
	"github.com/stretchr/testify/require"
)

const losartan = "EPS denied Losartan for 3 months"

var juan = models.CitizenIdentity{Name: "Juan Pérez", NationalID: "1234567890", City: "Bogotá", Email: ""}

// stubCases records calls and answers with canned results.
type stubCases struct {
	createErr   error
	finalizeErr error
	block       bool
	creates     int
	finalizes   int
}

func (s *stubCases) CreateCase(ctx context.Context, category models.Category, description string) (*models.Case, error) {
	s.creates++
	if s.block {
		<-ctx.Done()
		return nil, errors.Join(ai.ErrGenerationFailed, ctx.Err())
	}
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &models.Case{
		ID:            1,
		Category:      category,
		Description:   description,
		GeneratedText: "Señor Juez ...",
		Status:        models.StatusDrafted,
	}, nil
}

func (s *stubCases) FinalizeCase(_ context.Context, id int64, identity models.CitizenIdentity) (*models.Case, error) {
	s.finalizes++
	if s.finalizeErr != nil {
		return nil, s.finalizeErr
	}
	return &models.Case{
		ID:                id,
		Category:          models.CategoryHealthAccess,
		Description:       losartan,
		GeneratedText:     "Señor Juez ...",
		Identity:          &identity,
		DocumentReference: "case_1.pdf",
		Status:            models.StatusFinalized,
	}, nil
}

func newController(cases workflow.CaseService, timeout time.Duration) *workflow.Controller {
	return workflow.NewController(cases, timeout, testhelpers.NewLogger(io.Discard))
}

// toPreview walks a fresh controller to the preview step.
func toPreview(t *testing.T, c *workflow.Controller) {
	t.Helper()
	require.NoError(t, c.Begin())
	require.NoError(t, c.SelectCategory(models.CategoryHealthAccess))
	require.NoError(t, c.SubmitFacts("  "+losartan+"  "))
	require.NoError(t, c.GenerateDraft(context.Background()))
}

func TestController_HappyPath(t *testing.T) {
	t.Parallel()
	cases := &stubCases{}
	c := newController(cases, 0)
	require.Equal(t, workflow.StepIntro, c.State().Step())

	require.NoError(t, c.Begin())
	require.Equal(t, workflow.TypeSelection{}, c.State())

	require.NoError(t, c.SelectCategory(models.CategoryHealthAccess))
	require.NoError(t, c.SubmitFacts(losartan))
	require.Equal(t, workflow.GeneratingDraft{Category: models.CategoryHealthAccess, Description: losartan}, c.State())

	require.NoError(t, c.GenerateDraft(context.Background()))
	preview, ok := c.State().(workflow.Preview)
	require.True(t, ok)
	require.Equal(t, int64(1), preview.Case.ID)

	require.NoError(t, c.AcceptDraft())
	require.NoError(t, c.SubmitIdentity(context.Background(), juan))
	completed, ok := c.State().(workflow.Completed)
	require.True(t, ok)
	require.Equal(t, "case_1.pdf", completed.Case.DocumentReference)
	require.Equal(t, 1, cases.creates)
	require.Equal(t, 1, cases.finalizes)
}

func TestController_InvalidTransitions(t *testing.T) {
	t.Parallel()
	c := newController(&stubCases{}, 0)

	require.ErrorIs(t, c.AcceptDraft(), workflow.ErrInvalidTransition)
	require.ErrorIs(t, c.SelectCategory(models.CategoryTrafficFine), workflow.ErrInvalidTransition)
	require.ErrorIs(t, c.GenerateDraft(context.Background()), workflow.ErrInvalidTransition)
	require.ErrorIs(t, c.SubmitIdentity(context.Background(), juan), workflow.ErrInvalidTransition)
	require.Equal(t, workflow.StepIntro, c.State().Step())

	require.NoError(t, c.Begin())
	require.ErrorIs(t, c.Begin(), workflow.ErrInvalidTransition)
	require.ErrorIs(t, c.SelectCategory("divorce"), models.ErrValidation)
	require.Equal(t, workflow.StepTypeSelection, c.State().Step())
}

func TestController_ShortDescriptionStaysOnFacts(t *testing.T) {
	t.Parallel()
	cases := &stubCases{}
	c := newController(cases, 0)
	require.NoError(t, c.Begin())
	require.NoError(t, c.SelectCategory(models.CategoryTrafficFine))

	err := c.SubmitFacts("short")
	require.ErrorIs(t, err, models.ErrValidation)
	facts, ok := c.State().(workflow.Facts)
	require.True(t, ok)
	require.Equal(t, "short", facts.Description)
	require.Equal(t, failure.CodeValidation, facts.LastError.Code)
	require.Zero(t, cases.creates)
}

func TestController_GenerationFailureReturnsToFacts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cases    *stubCases
		timeout  time.Duration
		wantCode failure.Code
	}{
		{
			name:     "generation failed",
			cases:    &stubCases{createErr: errors.Join(ai.ErrGenerationFailed, errors.New("quota"))},
			timeout:  0,
			wantCode: failure.CodeGenerationFailed,
		},
		{
			name:     "no usable model",
			cases:    &stubCases{createErr: ai.ErrNoUsableModel},
			timeout:  0,
			wantCode: failure.CodeNoUsableModel,
		},
		{
			name:     "timeout",
			cases:    &stubCases{block: true},
			timeout:  20 * time.Millisecond,
			wantCode: failure.CodeTimeout,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newController(tt.cases, tt.timeout)
			require.NoError(t, c.Begin())
			require.NoError(t, c.SelectCategory(models.CategoryHealthAccess))
			require.NoError(t, c.SubmitFacts(losartan))

			require.Error(t, c.GenerateDraft(context.Background()))
			facts, ok := c.State().(workflow.Facts)
			require.True(t, ok)
			require.Equal(t, losartan, facts.Description)
			require.Equal(t, models.CategoryHealthAccess, facts.Category)
			require.Equal(t, tt.wantCode, facts.LastError.Code)

			// The citizen can retry from the facts step.
			require.NoError(t, c.SubmitFacts(facts.Description))
			require.Equal(t, workflow.StepGeneratingDraft, c.State().Step())
		})
	}
}

func TestController_ReviseFacts(t *testing.T) {
	t.Parallel()
	c := newController(&stubCases{}, 0)
	toPreview(t, c)

	require.NoError(t, c.ReviseFacts())
	require.Equal(t, workflow.Facts{Category: models.CategoryHealthAccess, Description: losartan, LastError: nil}, c.State())
}

func TestController_IdentityFailuresStayOnIdentity(t *testing.T) {
	t.Parallel()
	cases := &stubCases{}
	c := newController(cases, 0)
	toPreview(t, c)
	require.NoError(t, c.AcceptDraft())

	err := c.SubmitIdentity(context.Background(), models.CitizenIdentity{Name: "Juan Pérez"})
	require.ErrorIs(t, err, models.ErrValidation)
	identity, ok := c.State().(workflow.Identity)
	require.True(t, ok)
	require.Equal(t, failure.CodeValidation, identity.LastError.Code)
	require.Len(t, identity.LastError.Fields, 2)
	require.Zero(t, cases.finalizes)

	cases.finalizeErr = errors.Wrap(models.ErrInvalidState, "finalize")
	require.ErrorIs(t, c.SubmitIdentity(context.Background(), juan), models.ErrInvalidState)
	identity, ok = c.State().(workflow.Identity)
	require.True(t, ok)
	require.Equal(t, failure.CodeInvalidState, identity.LastError.Code)

	cases.finalizeErr = nil
	require.NoError(t, c.SubmitIdentity(context.Background(), juan))
	require.Equal(t, workflow.StepCompleted, c.State().Step())
}

func TestController_Restart(t *testing.T) {
	t.Parallel()
	c := newController(&stubCases{}, 0)
	toPreview(t, c)

	c.Restart()
	require.Equal(t, workflow.Intro{}, c.State())
	require.NoError(t, c.Begin())
}

func TestSnapshot_Resume(t *testing.T) {
	t.Parallel()
	cases := &stubCases{}
	c := newController(cases, 0)
	toPreview(t, c)
	require.NoError(t, c.AcceptDraft())
	require.Error(t, c.SubmitIdentity(context.Background(), models.CitizenIdentity{}))

	// Session stores keep snapshots gob-encoded behind an interface.
	var buf bytes.Buffer
	var stored any = c.Snapshot()
	require.NoError(t, gob.NewEncoder(&buf).Encode(&stored))
	var decoded any
	require.NoError(t, gob.NewDecoder(&buf).Decode(&decoded))
	snap, ok := decoded.(workflow.Snapshot)
	require.True(t, ok)

	resumed, err := workflow.Resume(cases, 0, testhelpers.NewLogger(io.Discard), snap)
	require.NoError(t, err)
	identity, ok := resumed.State().(workflow.Identity)
	require.True(t, ok)
	require.Equal(t, int64(1), identity.Case.ID)
	require.Equal(t, failure.CodeValidation, identity.LastError.Code)

	require.NoError(t, resumed.SubmitIdentity(context.Background(), juan))
	require.Equal(t, workflow.StepCompleted, resumed.State().Step())
}

func TestResume_Rejects(t *testing.T) {
	t.Parallel()
	logger := testhelpers.NewLogger(io.Discard)

	c, err := workflow.Resume(&stubCases{}, 0, logger, workflow.Snapshot{})
	require.NoError(t, err)
	require.Equal(t, workflow.StepIntro, c.State().Step())

	_, err = workflow.Resume(&stubCases{}, 0, logger, workflow.Snapshot{Step: workflow.StepPreview})
	require.ErrorIs(t, err, workflow.ErrInvalidSnapshot)
	_, err = workflow.Resume(&stubCases{}, 0, logger, workflow.Snapshot{Step: "lost"})
	require.ErrorIs(t, err, workflow.ErrInvalidSnapshot)
}
