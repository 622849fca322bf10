package services

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixworks/intake/pkg/channels/gochannel"
	"github.com/helixworks/intake/pkg/eventbus"
	"github.com/helixworks/intake/pkg/models"
	"github.com/helixworks/intake/pkg/persistence"
	"github.com/helixworks/intake/pkg/persistence/file"
	"github.com/helixworks/intake/pkg/recommend"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestEnv wires a file store, an in-process event bus with the autosave
// subscriber attached, and a session with synchronous transitions.
func newTestEnv(t *testing.T) (*Session, persistence.Persistence, eventbus.EventBus) {
	t.Helper()

	store := file.NewPersistence(t.TempDir())

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	require.NoError(t, RegisterAutosave(bus, store, testLogger()))
	require.NoError(t, bus.Subscribe(context.Background()))

	t.Cleanup(func() {
		_ = bus.Close()
	})

	session := NewSession(store, bus, testLogger(), WithTransitionDelay(0))
	t.Cleanup(session.Close)

	return session, store, bus
}

func fillContextStep(ctx context.Context, session *Session) {
	industry := "catering"
	teamSize := models.TeamSizeSmall
	tools := models.TriStateNo

	session.UpdateAnswers(ctx, models.AnswersUpdate{
		Industry:         &industry,
		TeamSize:         &teamSize,
		UsesDigitalTools: &tools,
	})
}

func walkToPreview(ctx context.Context, t *testing.T, session *Session) {
	t.Helper()

	fillContextStep(ctx, session)
	require.NoError(t, session.Advance(ctx))

	session.UpdateAnswers(ctx, models.AnswersUpdate{
		PainPoints: []models.PainPoint{models.PainPointClientCommunicationOverload},
	})
	require.NoError(t, session.Advance(ctx))

	narrative := strings.Repeat("quotes are written by hand ", 2)
	session.UpdateAnswers(ctx, models.AnswersUpdate{WorkflowNarrative: &narrative})
	require.NoError(t, session.Advance(ctx))

	priority := models.PrioritySaveTime
	session.UpdateAnswers(ctx, models.AnswersUpdate{Priority: &priority})
	require.NoError(t, session.Advance(ctx))
}

func TestSession_FullFlow(t *testing.T) {
	ctx := context.Background()
	session, _, _ := newTestEnv(t)

	state := session.State()
	assert.Equal(t, models.StepContext, state.Step)
	assert.Equal(t, 6, state.TotalSteps)

	walkToPreview(ctx, t, session)
	assert.Equal(t, models.StepPreview, session.State().Step)

	solution := session.Preview(ctx)
	require.NotNil(t, solution)
	assert.Equal(t, recommend.CommunicationHubName, solution.Name)

	// The preview snapshot is visible in the state.
	state = session.State()
	require.NotNil(t, state.Solution)
	assert.Equal(t, solution.Name, state.Solution.Name)

	require.NoError(t, session.Advance(ctx))
	assert.Equal(t, models.StepExit, session.State().Step)

	err := session.Advance(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAtTerminalStep)
}

func TestSession_AdvanceRefusedByGate(t *testing.T) {
	ctx := context.Background()
	session, _, _ := newTestEnv(t)

	err := session.Advance(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStepGateNotSatisfied)
	assert.True(t, IsConflictError(err))
	assert.Equal(t, models.StepContext, session.State().Step)
}

func TestSession_RetreatAtFirstStep(t *testing.T) {
	ctx := context.Background()
	session, _, _ := newTestEnv(t)

	err := session.Retreat(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAtFirstStep)
}

func TestSession_TransitionPendingRefusesSecondRequest(t *testing.T) {
	ctx := context.Background()

	store := file.NewPersistence(t.TempDir())

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)

	session := NewSession(store, bus, testLogger(), WithTransitionDelay(40*time.Millisecond))
	t.Cleanup(session.Close)

	fillContextStep(ctx, session)
	require.NoError(t, session.Advance(ctx))

	err = session.Advance(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransitionPending)

	err = session.Retreat(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransitionPending)

	assert.Eventually(t, func() bool {
		return session.State().Step == models.StepPainPoints
	}, time.Second, 5*time.Millisecond)
}

func TestSession_AutosaveWritesDraft(t *testing.T) {
	ctx := context.Background()
	session, store, _ := newTestEnv(t)

	fillContextStep(ctx, session)

	draft, err := store.Drafts().Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "catering", draft.Answers.Industry)
	assert.Equal(t, models.StepContext, draft.CurrentStep)

	require.NoError(t, session.Advance(ctx))

	draft, err = store.Drafts().Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StepPainPoints, draft.CurrentStep)
}

func TestSession_RehydratesFromDraft(t *testing.T) {
	ctx := context.Background()
	session, store, bus := newTestEnv(t)

	walkToPreview(ctx, t, session)
	session.Close()

	restored := NewSession(store, bus, testLogger(), WithTransitionDelay(0))
	t.Cleanup(restored.Close)

	assert.True(t, restored.Start(ctx))

	state := restored.State()
	assert.Equal(t, models.StepPreview, state.Step)
	assert.Equal(t, "catering", state.Answers.Industry)
	assert.Equal(t, models.PrioritySaveTime, state.Answers.Priority)
}

func TestSession_StartWithoutDraft(t *testing.T) {
	session, _, _ := newTestEnv(t)

	assert.False(t, session.Start(context.Background()))
	assert.Equal(t, models.StepContext, session.State().Step)
}

func TestSession_ResetClearsEverything(t *testing.T) {
	ctx := context.Background()
	session, store, _ := newTestEnv(t)

	walkToPreview(ctx, t, session)
	session.Preview(ctx)

	session.Reset(ctx)

	state := session.State()
	assert.Equal(t, models.StepContext, state.Step)
	assert.Empty(t, state.Answers.Industry)
	assert.Empty(t, state.Answers.PainPoints)
	assert.Nil(t, state.Solution)

	_, err := store.Drafts().Load(ctx)
	assert.True(t, persistence.IsDraftNotFound(err))
}

func TestSession_PreviewIsStableAcrossRecomputes(t *testing.T) {
	ctx := context.Background()
	session, _, _ := newTestEnv(t)

	walkToPreview(ctx, t, session)

	first := session.Preview(ctx)
	second := session.Preview(ctx)

	assert.Equal(t, first, second)
}

func TestSession_UpdateAnswersMergesPartially(t *testing.T) {
	ctx := context.Background()
	session, _, _ := newTestEnv(t)

	fillContextStep(ctx, session)

	tools := models.TriStateYes
	snapshot := session.UpdateAnswers(ctx, models.AnswersUpdate{UsesDigitalTools: &tools})

	assert.Equal(t, "catering", snapshot.Industry, "untouched fields survive the merge")
	assert.Equal(t, models.TriStateYes, snapshot.UsesDigitalTools)
}
