package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixworks/intake/pkg/channels/gochannel"
	"github.com/helixworks/intake/pkg/clients"
	"github.com/helixworks/intake/pkg/eventbus"
	"github.com/helixworks/intake/pkg/models"
	"github.com/helixworks/intake/pkg/persistence/file"
	"github.com/helixworks/intake/pkg/recommend"
	"github.com/helixworks/intake/pkg/services"
	"github.com/helixworks/intake/pkg/web"
)

func setupTestApp(t *testing.T, provisioningURL string) *fiber.App {
	return setupTestAppWithCodegen(t, provisioningURL, "")
}

func setupTestAppWithCodegen(t *testing.T, provisioningURL, codegenURL string) *fiber.App {
	t.Helper()

	store := file.NewPersistence(t.TempDir())

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	require.NoError(t, services.RegisterAutosave(bus, store, logger))
	require.NoError(t, bus.Subscribe(context.Background()))

	t.Cleanup(func() {
		_ = bus.Close()
	})

	var provisioning *clients.Provisioning
	if provisioningURL != "" {
		provisioning = clients.NewProvisioning(provisioningURL)
	}

	var codegen *clients.Codegen
	if codegenURL != "" {
		codegen = clients.NewCodegen(codegenURL)
	}

	handlers := web.NewAPIHandlers(
		store,
		bus,
		codegen,
		provisioning,
		nil,
		nil,
		validator.New(validator.WithRequiredStructEnabled()),
		logger,
		services.WithTransitionDelay(0),
	)

	app := fiber.New()

	s := app.Group("/sessions")
	s.Post("/", handlers.StartSession)
	s.Get("/current", handlers.GetSession)
	s.Patch("/current/answers", handlers.UpdateAnswers)
	s.Post("/current/advance", handlers.Advance)
	s.Post("/current/retreat", handlers.Retreat)
	s.Post("/current/reset", handlers.Reset)
	s.Get("/current/preview", handlers.Preview)
	s.Post("/current/preview/regenerate", handlers.RegeneratePreview)
	s.Post("/current/exit/self-serve", handlers.ExitSelfServe)
	s.Post("/current/exit/expert", handlers.ExitExpert)
	s.Post("/current/exit/save-for-later", handlers.ExitSaveForLater)

	app.Get("/saved", handlers.ListSaved)
	app.Get("/saved/:key", handlers.GetSaved)
	app.Get("/health", handlers.HealthCheck)

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, payload
}

func startSession(t *testing.T, app *fiber.App) {
	t.Helper()

	resp, _ := doJSON(t, app, http.MethodPost, "/sessions/", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func patchAnswers(t *testing.T, app *fiber.App, body map[string]any) {
	t.Helper()

	resp, _ := doJSON(t, app, http.MethodPatch, "/sessions/current/answers", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func advance(t *testing.T, app *fiber.App) {
	t.Helper()

	resp, _ := doJSON(t, app, http.MethodPost, "/sessions/current/advance", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func walkToPreview(t *testing.T, app *fiber.App) {
	t.Helper()

	patchAnswers(t, app, map[string]any{
		"industry":           "florist",
		"team_size":          "solo",
		"uses_digital_tools": "no",
	})
	advance(t, app)

	patchAnswers(t, app, map[string]any{
		"pain_points": []string{"client-communication-overload"},
	})
	advance(t, app)

	patchAnswers(t, app, map[string]any{
		"workflow_narrative": strings.Repeat("orders are taken by phone ", 2),
	})
	advance(t, app)

	patchAnswers(t, app, map[string]any{"priority": "save-time"})
	advance(t, app)
}

func TestStartSession(t *testing.T) {
	app := setupTestApp(t, "")

	resp, body := doJSON(t, app, http.MethodPost, "/sessions/", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result web.StartSessionResponse
	require.NoError(t, json.Unmarshal(body, &result))
	assert.False(t, result.Resumed)
	assert.Equal(t, models.StepContext, result.State.Step)
	assert.Equal(t, 6, result.State.TotalSteps)

	// Starting again returns the existing session instead of a new one.
	resp, _ = doJSON(t, app, http.MethodPost, "/sessions/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetSession_WithoutStart(t *testing.T) {
	app := setupTestApp(t, "")

	resp, _ := doJSON(t, app, http.MethodGet, "/sessions/current", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateAnswers_Validation(t *testing.T) {
	app := setupTestApp(t, "")
	startSession(t, app)

	tests := []struct {
		name           string
		body           map[string]any
		expectedStatus int
	}{
		{
			name:           "valid_partial_update",
			body:           map[string]any{"industry": "florist"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid_team_size",
			body:           map[string]any{"team_size": "gigantic"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid_pain_point",
			body:           map[string]any{"pain_points": []string{"bad-weather"}},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid_priority",
			body:           map[string]any{"priority": "world-domination"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := doJSON(t, app, http.MethodPatch, "/sessions/current/answers", tt.body)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestAdvance_GateRefusal(t *testing.T) {
	app := setupTestApp(t, "")
	startSession(t, app)

	resp, body := doJSON(t, app, http.MethodPost, "/sessions/current/advance", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(body), "not complete")
}

func TestRetreat_AtFirstStep(t *testing.T) {
	app := setupTestApp(t, "")
	startSession(t, app)

	resp, _ := doJSON(t, app, http.MethodPost, "/sessions/current/retreat", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestPreview(t *testing.T) {
	app := setupTestApp(t, "")
	startSession(t, app)
	walkToPreview(t, app)

	resp, body := doJSON(t, app, http.MethodGet, "/sessions/current/preview", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result web.PreviewResponse
	require.NoError(t, json.Unmarshal(body, &result))
	require.NotNil(t, result.Solution)
	assert.Equal(t, recommend.CommunicationHubName, result.Solution.Name)
	assert.Len(t, result.Solution.Summary, 3)
	assert.Empty(t, result.Code)
}

func TestPreview_WithGeneration(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt string `json:"prompt"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Prompt, "florist")

		_ = json.NewEncoder(w).Encode(map[string]string{"code": "<html>preview</html>"})
	}))
	t.Cleanup(server.Close)

	app := setupTestAppWithCodegen(t, "", server.URL)
	startSession(t, app)
	walkToPreview(t, app)

	resp, body := doJSON(t, app, http.MethodGet, "/sessions/current/preview?generate=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result web.PreviewResponse
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, "<html>preview</html>", result.Code)
}

func TestRegeneratePreview(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/generate/section", r.URL.Path)

		var req struct {
			Code    string `json:"code"`
			Section string `json:"section"`
			Prompt  string `json:"prompt"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hero", req.Section)

		_ = json.NewEncoder(w).Encode(map[string]string{"code": "<html>v2</html>"})
	}))
	t.Cleanup(server.Close)

	app := setupTestAppWithCodegen(t, "", server.URL)
	startSession(t, app)

	resp, _ := doJSON(t, app, http.MethodPost, "/sessions/current/preview/regenerate",
		map[string]string{"section": "hero"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, "/sessions/current/preview/regenerate",
		map[string]string{"code": "<html>v1</html>", "section": "hero", "prompt": "brighter colors"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "<html>v2</html>")
}

func TestRegeneratePreview_CodegenNotConfigured(t *testing.T) {
	app := setupTestApp(t, "")
	startSession(t, app)

	resp, _ := doJSON(t, app, http.MethodPost, "/sessions/current/preview/regenerate",
		map[string]string{"code": "<html></html>", "section": "hero", "prompt": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReset(t *testing.T) {
	app := setupTestApp(t, "")
	startSession(t, app)
	walkToPreview(t, app)

	resp, body := doJSON(t, app, http.MethodPost, "/sessions/current/reset", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var state services.SessionState
	require.NoError(t, json.Unmarshal(body, &state))
	assert.Equal(t, models.StepContext, state.Step)
	assert.Empty(t, state.Answers.Industry)
}

func TestExitSelfServe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"project_id": "proj-9"})
	}))
	t.Cleanup(server.Close)

	app := setupTestApp(t, server.URL)
	startSession(t, app)
	walkToPreview(t, app)

	resp, _ := doJSON(t, app, http.MethodGet, "/sessions/current/preview", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, "/sessions/current/exit/self-serve", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var record models.ProjectRecord
	require.NoError(t, json.Unmarshal(body, &record))
	assert.Equal(t, "proj-9", record.ID)
	assert.Equal(t, models.ProjectStatusCreated, record.Status)

	// The guard turns a repeated exit into a conflict.
	resp, _ = doJSON(t, app, http.MethodPost, "/sessions/current/exit/self-serve", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestExitSelfServe_WithoutPreview(t *testing.T) {
	app := setupTestApp(t, "")
	startSession(t, app)

	resp, _ := doJSON(t, app, http.MethodPost, "/sessions/current/exit/self-serve", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExitSaveForLater(t *testing.T) {
	app := setupTestApp(t, "")
	startSession(t, app)
	walkToPreview(t, app)

	resp, _ := doJSON(t, app, http.MethodGet, "/sessions/current/preview", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/sessions/current/exit/save-for-later",
		map[string]string{"email": "nope"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, "/sessions/current/exit/save-for-later",
		map[string]string{"email": "owner@example.com"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var saved models.SavedDraft
	require.NoError(t, json.Unmarshal(body, &saved))
	assert.NotEmpty(t, saved.Key)

	resp, body = doJSON(t, app, http.MethodGet, "/saved", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Saved []models.SavedDraft `json:"saved"`
		Count int                 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(body, &listing))
	assert.Equal(t, 1, listing.Count)
	require.Len(t, listing.Saved, 1)
	assert.Equal(t, "owner@example.com", listing.Saved[0].Email)

	resp, body = doJSON(t, app, http.MethodGet, "/saved/"+saved.Key, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched models.SavedDraft
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, saved.Key, fetched.Key)

	resp, _ = doJSON(t, app, http.MethodGet, "/saved/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExitExpert(t *testing.T) {
	app := setupTestApp(t, "")
	startSession(t, app)
	walkToPreview(t, app)

	resp, _ := doJSON(t, app, http.MethodGet, "/sessions/current/preview", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, "/sessions/current/exit/expert", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var contact models.ContactContext
	require.NoError(t, json.Unmarshal(body, &contact))
	assert.Equal(t, recommend.CommunicationHubName, contact.SolutionName)
	assert.Equal(t, "florist", contact.Answers.Industry)
}

func TestHealthCheck(t *testing.T) {
	app := setupTestApp(t, "")

	resp, body := doJSON(t, app, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "ok")
}
