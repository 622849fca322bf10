package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixworks/intake/pkg/clients"
	"github.com/helixworks/intake/pkg/models"
	"github.com/helixworks/intake/pkg/persistence"
	"github.com/helixworks/intake/pkg/recommend"
)

// previewedSession returns a session that has walked to the preview step and
// computed its solution, the state every exit action starts from.
func previewedSession(ctx context.Context, t *testing.T) (*Session, persistence.Persistence, *Exit) {
	t.Helper()

	session, store, bus := newTestEnv(t)
	walkToPreview(ctx, t, session)
	session.Preview(ctx)

	return session, store, NewExit(store, nil, nil, bus, nil, testLogger())
}

func provisioningServer(t *testing.T, calls *atomic.Int32, status int) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		var req clients.ProvisionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if status != http.StatusOK {
			w.WriteHeader(status)

			return
		}

		_ = json.NewEncoder(w).Encode(map[string]string{"project_id": "proj-42"})
	}))
	t.Cleanup(server.Close)

	return server
}

func TestExit_SelfServe(t *testing.T) {
	ctx := context.Background()
	session, store, _ := previewedSession(ctx, t)

	var calls atomic.Int32

	server := provisioningServer(t, &calls, http.StatusOK)
	exit := NewExit(store, clients.NewProvisioning(server.URL), nil, session.bus, nil, testLogger())

	record, err := exit.SelfServe(ctx, session)
	require.NoError(t, err)

	assert.Equal(t, "proj-42", record.ID)
	assert.Equal(t, recommend.CommunicationHubName, record.Name)
	assert.Equal(t, models.CategoryTypeA, record.Category)
	assert.Equal(t, models.ProjectStatusCreated, record.Status)
	assert.Len(t, record.Benefits, 3)
	assert.NotEmpty(t, record.NextSteps)
	assert.Equal(t, int32(1), calls.Load())

	// The active draft is gone once the project exists.
	_, err = store.Drafts().Load(ctx)
	assert.True(t, persistence.IsDraftNotFound(err))

	// A second terminal action is a typed no-op.
	_, err = exit.SelfServe(ctx, session)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionCompleted)
	assert.Equal(t, int32(1), calls.Load(), "the guard must prevent double provisioning")
}

func TestExit_SelfServe_WithoutSolution(t *testing.T) {
	ctx := context.Background()
	session, store, bus := newTestEnv(t)

	var calls atomic.Int32

	server := provisioningServer(t, &calls, http.StatusOK)
	exit := NewExit(store, clients.NewProvisioning(server.URL), nil, bus, nil, testLogger())

	_, err := exit.SelfServe(ctx, session)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoSolution)
	assert.True(t, IsValidationError(err))
	assert.Equal(t, int32(0), calls.Load())

	assert.False(t, exit.Completed(), "a failed action must release the guard")
}

func TestExit_SelfServe_ProvisioningFailureKeepsDraft(t *testing.T) {
	ctx := context.Background()
	session, store, _ := previewedSession(ctx, t)

	var calls atomic.Int32

	server := provisioningServer(t, &calls, http.StatusInternalServerError)
	exit := NewExit(store, clients.NewProvisioning(server.URL), nil, session.bus, nil, testLogger())

	_, err := exit.SelfServe(ctx, session)
	require.Error(t, err)
	assert.True(t, IsDownstreamError(err))

	// The draft survives, the guard is released, a retry is allowed.
	_, err = store.Drafts().Load(ctx)
	require.NoError(t, err)
	assert.False(t, exit.Completed())

	_, err = exit.SelfServe(ctx, session)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionCompleted)
	assert.Equal(t, int32(2), calls.Load())
}

func TestExit_Expert(t *testing.T) {
	ctx := context.Background()
	session, store, exit := previewedSession(ctx, t)

	contact, err := exit.Expert(ctx, session)
	require.NoError(t, err)

	assert.Equal(t, recommend.CommunicationHubName, contact.SolutionName)
	assert.Equal(t, models.CategoryTypeA, contact.Category)
	require.NotNil(t, contact.Answers)
	assert.Equal(t, "catering", contact.Answers.Industry)

	_, err = store.Drafts().Load(ctx)
	assert.True(t, persistence.IsDraftNotFound(err))

	_, err = exit.Expert(ctx, session)
	assert.ErrorIs(t, err, ErrSessionCompleted)
}

func TestExit_Expert_WithoutSolution(t *testing.T) {
	ctx := context.Background()
	session, store, bus := newTestEnv(t)
	exit := NewExit(store, nil, nil, bus, nil, testLogger())

	_, err := exit.Expert(ctx, session)
	assert.ErrorIs(t, err, ErrNoSolution)
}

func TestExit_SaveForLater(t *testing.T) {
	ctx := context.Background()
	session, store, _ := previewedSession(ctx, t)

	var reports atomic.Int32

	reportServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req clients.ReportRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "owner@example.com", req.Email)

		reports.Add(1)
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(reportServer.Close)

	exit := NewExit(store, nil, clients.NewReport(reportServer.URL), session.bus, nil, testLogger())

	saved, err := exit.SaveForLater(ctx, session, "owner@example.com")
	require.NoError(t, err)

	assert.NotEmpty(t, saved.Key)
	assert.Equal(t, "owner@example.com", saved.Email)
	require.NotNil(t, saved.Solution)
	assert.Equal(t, recommend.CommunicationHubName, saved.Solution.Name)

	listed, err := store.Saved().List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, saved.Key, listed[0].Key)

	// Save-for-later keeps the active draft so the session remains resumable.
	_, err = store.Drafts().Load(ctx)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return reports.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Not terminal: the user can keep going and save again.
	assert.False(t, exit.Completed())

	again, err := exit.SaveForLater(ctx, session, "owner@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, saved.Key, again.Key)
}

func TestExit_SaveForLater_InvalidEmail(t *testing.T) {
	ctx := context.Background()
	session, store, exit := previewedSession(ctx, t)

	for _, email := range []string{"", "not-an-email", "double@@example.com"} {
		_, err := exit.SaveForLater(ctx, session, email)
		require.Error(t, err, "email %q", email)
		assert.ErrorIs(t, err, ErrInvalidEmail)
	}

	listed, err := store.Saved().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed, "a rejected save must write nothing")
}

func TestExit_SaveForLater_WorksWithoutReportClient(t *testing.T) {
	ctx := context.Background()
	session, store, exit := previewedSession(ctx, t)

	saved, err := exit.SaveForLater(ctx, session, "owner@example.com")
	require.NoError(t, err)

	listed, err := store.Saved().List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, saved.Key, listed[0].Key)
}

func TestExit_MutuallyExclusiveActions(t *testing.T) {
	ctx := context.Background()
	session, _, exit := previewedSession(ctx, t)

	_, err := exit.Expert(ctx, session)
	require.NoError(t, err)

	_, err = exit.SaveForLater(ctx, session, "owner@example.com")
	assert.ErrorIs(t, err, ErrSessionCompleted)

	_, err = exit.SelfServe(ctx, session)
	assert.ErrorIs(t, err, ErrSessionCompleted)
}
