// Package web provides HTTP handlers and REST API endpoints for the guided
// intake session.
package web

import (
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"go.opentelemetry.io/otel/trace"

	"github.com/helixworks/intake/pkg/clients"
	"github.com/helixworks/intake/pkg/eventbus"
	"github.com/helixworks/intake/pkg/persistence"
	"github.com/helixworks/intake/pkg/services"
)

// APIHandlers serves the wizard over HTTP. The API is single-owner: one
// active session at a time, matching the one-draft-per-owner persistence
// model.
type APIHandlers struct {
	mu      sync.Mutex
	session *services.Session
	exit    *services.Exit

	store        persistence.Persistence
	bus          eventbus.EventBus
	codegen      *clients.Codegen
	provisioning *clients.Provisioning
	report       *clients.Report
	tracer       trace.Tracer
	validator    *validator.Validate
	logger       *slog.Logger
	sessionOpts  []services.SessionOption
}

func NewAPIHandlers(
	store persistence.Persistence,
	bus eventbus.EventBus,
	codegen *clients.Codegen,
	provisioning *clients.Provisioning,
	report *clients.Report,
	tracer trace.Tracer,
	validator *validator.Validate,
	logger *slog.Logger,
	sessionOpts ...services.SessionOption,
) *APIHandlers {
	return &APIHandlers{
		store:        store,
		bus:          bus,
		codegen:      codegen,
		provisioning: provisioning,
		report:       report,
		tracer:       tracer,
		validator:    validator,
		logger:       logger.With("module", "web"),
		sessionOpts:  sessionOpts,
	}
}

// StartSession begins a session, resuming from a persisted draft when one
// exists. Starting while a session is already active returns that session
// unchanged.
func (h *APIHandlers) StartSession(c fiber.Ctx) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.session != nil && !h.exit.Completed() {
		return c.JSON(StartSessionResponse{Resumed: false, State: h.session.State()})
	}

	if h.session != nil {
		h.session.Close()
	}

	session := services.NewSession(h.store, h.bus, h.logger, h.sessionOpts...)
	resumed := session.Start(c.Context())

	h.session = session
	h.exit = services.NewExit(h.store, h.provisioning, h.report, h.bus, h.tracer, h.logger)

	return c.Status(fiber.StatusCreated).JSON(StartSessionResponse{
		Resumed: resumed,
		State:   session.State(),
	})
}

// GetSession returns the current session state.
func (h *APIHandlers) GetSession(c fiber.Ctx) error {
	session, _, ok := h.current()
	if !ok {
		return notFound(c, "No active session")
	}

	return c.JSON(session.State())
}

// UpdateAnswers merges one step's fields into the answer record.
func (h *APIHandlers) UpdateAnswers(c fiber.Ctx) error {
	session, _, ok := h.current()
	if !ok {
		return notFound(c, "No active session")
	}

	var req UpdateAnswersRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, "Validation failed: "+err.Error())
	}

	session.UpdateAnswers(c.Context(), req.ToUpdate())

	return c.JSON(session.State())
}

// Advance moves the wizard one step forward.
func (h *APIHandlers) Advance(c fiber.Ctx) error {
	session, _, ok := h.current()
	if !ok {
		return notFound(c, "No active session")
	}

	if err := session.Advance(c.Context()); err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(session.State())
}

// Retreat moves the wizard one step back.
func (h *APIHandlers) Retreat(c fiber.Ctx) error {
	session, _, ok := h.current()
	if !ok {
		return notFound(c, "No active session")
	}

	if err := session.Retreat(c.Context()); err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(session.State())
}

// Reset returns the wizard to the first step with an empty answer record and
// discards the persisted draft. The terminal-action guard starts over too.
func (h *APIHandlers) Reset(c fiber.Ctx) error {
	session, _, ok := h.current()
	if !ok {
		return notFound(c, "No active session")
	}

	session.Reset(c.Context())

	h.mu.Lock()
	h.exit = services.NewExit(h.store, h.provisioning, h.report, h.bus, h.tracer, h.logger)
	h.mu.Unlock()

	return c.JSON(session.State())
}

// Preview computes the recommendation for the current answers. With
// ?generate=true it also asks the code-generation service for a rendered
// preview document.
func (h *APIHandlers) Preview(c fiber.Ctx) error {
	session, _, ok := h.current()
	if !ok {
		return notFound(c, "No active session")
	}

	solution := session.Preview(c.Context())
	response := PreviewResponse{Solution: solution}

	if c.Query("generate") == "true" && h.codegen != nil {
		prompt := clients.BuildSitePrompt(session.Snapshot(), solution)

		code, err := h.codegen.Generate(c.Context(), prompt)
		if err != nil {
			return handleServiceError(c, err)
		}

		response.Code = code
	}

	return c.JSON(response)
}

// RegeneratePreview rewrites one section of a generated preview document.
func (h *APIHandlers) RegeneratePreview(c fiber.Ctx) error {
	_, _, ok := h.current()
	if !ok {
		return notFound(c, "No active session")
	}

	if h.codegen == nil {
		return badRequest(c, "Code generation is not configured")
	}

	var req RegeneratePreviewRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, "Validation failed: "+err.Error())
	}

	code, err := h.codegen.RegenerateSection(c.Context(), req.Code, req.Section, req.Prompt)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"code": code})
}

// ExitSelfServe provisions a project from the computed solution.
func (h *APIHandlers) ExitSelfServe(c fiber.Ctx) error {
	session, exit, ok := h.current()
	if !ok {
		return notFound(c, "No active session")
	}

	record, err := exit.SelfServe(c.Context(), session)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(record)
}

// ExitExpert packages the intake for the host's contact flow.
func (h *APIHandlers) ExitExpert(c fiber.Ctx) error {
	session, exit, ok := h.current()
	if !ok {
		return notFound(c, "No active session")
	}

	contact, err := exit.Expert(c.Context(), session)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(contact)
}

// ExitSaveForLater writes a save-for-later record and mails it.
func (h *APIHandlers) ExitSaveForLater(c fiber.Ctx) error {
	session, exit, ok := h.current()
	if !ok {
		return notFound(c, "No active session")
	}

	var req SaveForLaterRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, "Validation failed: "+err.Error())
	}

	saved, err := exit.SaveForLater(c.Context(), session, req.Email)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(saved)
}

// ListSaved returns all save-for-later records, oldest first.
func (h *APIHandlers) ListSaved(c fiber.Ctx) error {
	saved, err := h.store.Saved().List(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"saved": saved,
		"count": len(saved),
	})
}

// GetSaved returns one save-for-later record by key.
func (h *APIHandlers) GetSaved(c fiber.Ctx) error {
	key := c.Params("key")
	if key == "" {
		return badRequest(c, "Saved draft key is required")
	}

	saved, err := h.store.Saved().Get(c.Context(), key)
	if err != nil {
		if persistence.IsSavedDraftNotFound(err) {
			return notFound(c, "Saved draft not found")
		}

		return internalError(c, err)
	}

	return c.JSON(saved)
}

// HealthCheck reports whether the draft store is reachable.
func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	if err := h.store.HealthCheck(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

// current returns the active session and exit dispatcher. The third result
// is false when no session has been started.
func (h *APIHandlers) current() (*services.Session, *services.Exit, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.session == nil {
		return nil, nil, false
	}

	return h.session, h.exit, true
}
