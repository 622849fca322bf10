package services

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/helixworks/intake/pkg/clients"
	"github.com/helixworks/intake/pkg/eventbus"
	"github.com/helixworks/intake/pkg/events"
	"github.com/helixworks/intake/pkg/models"
	"github.com/helixworks/intake/pkg/otelhelper"
	"github.com/helixworks/intake/pkg/persistence"
)

// exitState is the terminal-action guard. A session performs at most one of
// the three exit actions to completion; save-for-later returns to idle so
// the user can keep going or save again.
type exitState int

const (
	exitIdle exitState = iota
	exitInFlight
	exitCompleted
)

// Exit dispatches the three mutually exclusive ways out of the wizard:
// self-serve provisioning, hand-off to an expert, and save-for-later. The
// guard makes a second dispatch a typed no-op, so a double-click can never
// provision two projects.
type Exit struct {
	mu    sync.Mutex
	state exitState

	store        persistence.Persistence
	provisioning *clients.Provisioning
	report       *clients.Report
	bus          eventbus.EventBus
	validate     *validator.Validate
	tracer       trace.Tracer
	logger       *slog.Logger
}

// NewExit creates the dispatcher. A nil tracer disables span recording.
func NewExit(
	store persistence.Persistence,
	provisioning *clients.Provisioning,
	report *clients.Report,
	bus eventbus.EventBus,
	tracer trace.Tracer,
	logger *slog.Logger,
) *Exit {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("intake")
	}

	return &Exit{
		store:        store,
		provisioning: provisioning,
		report:       report,
		bus:          bus,
		validate:     validator.New(),
		tracer:       tracer,
		logger:       logger.With("module", "exit"),
	}
}

// begin claims the guard for one action. The caller must follow with either
// finish or abort.
func (e *Exit) begin(op string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case exitInFlight:
		return NewConflictError(op, "exit_in_flight", ErrExitInFlight)
	case exitCompleted:
		return NewConflictError(op, "session_completed", ErrSessionCompleted)
	}

	e.state = exitInFlight

	return nil
}

// finish releases the guard. Terminal actions move to completed; a
// save-for-later returns to idle.
func (e *Exit) finish(terminal bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if terminal {
		e.state = exitCompleted
	} else {
		e.state = exitIdle
	}
}

// abort releases the guard after a failed action, leaving the session free
// to retry.
func (e *Exit) abort() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = exitIdle
}

// Completed reports whether a terminal action already ran to completion.
func (e *Exit) Completed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state == exitCompleted
}

// SelfServe provisions a project from the computed solution and clears the
// active draft. It fails without side effects when no solution has been
// computed, and leaves the draft intact when provisioning fails.
func (e *Exit) SelfServe(ctx context.Context, session *Session) (*models.ProjectRecord, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "exit.self_serve",
		attribute.String(otelhelper.SessionIDKey, session.ID()),
		attribute.String(otelhelper.ActionKey, "self-serve"),
	)
	defer span.End()

	if err := e.begin("exit.self_serve"); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	answers := session.Snapshot()
	if answers.Solution == nil {
		e.abort()
		otelhelper.SetError(span, ErrNoSolution)

		return nil, &ServiceError{Op: "exit.self_serve", Code: "no_solution", Err: ErrNoSolution}
	}

	record := buildProjectRecord(answers.Solution)
	span.SetAttributes(
		attribute.String(otelhelper.SolutionKey, answers.Solution.Name),
		attribute.String(otelhelper.CategoryKey, string(answers.Solution.Category)),
	)

	projectID, err := e.provisioning.Provision(ctx, clients.ProvisionRequest{
		Answers:  answers,
		Solution: answers.Solution,
		Record:   record,
	})
	if err != nil {
		e.abort()
		otelhelper.SetError(span, err)

		return nil, &ServiceError{Op: "exit.self_serve", Code: "provisioning_failed", Err: err}
	}

	record.ID = projectID
	span.SetAttributes(attribute.String(otelhelper.ProjectIDKey, projectID))

	if err := e.store.Drafts().Clear(ctx); err != nil {
		e.logger.WarnContext(ctx, "Failed to clear draft after provisioning", "error", err)
	}

	e.publish(ctx, session.ID(), events.IntakeCompleted{
		BaseEvent: events.NewBase(events.IntakeCompletedEvent, session.ID()),
		Action:    "self-serve",
		ProjectID: projectID,
	})

	e.finish(true)

	return record, nil
}

// Expert packages the intake for the host's contact flow and clears the
// active draft. No downstream call is involved; the host routes the context
// to its own contact surface.
func (e *Exit) Expert(ctx context.Context, session *Session) (*models.ContactContext, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "exit.expert",
		attribute.String(otelhelper.SessionIDKey, session.ID()),
		attribute.String(otelhelper.ActionKey, "expert"),
	)
	defer span.End()

	if err := e.begin("exit.expert"); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	answers := session.Snapshot()
	if answers.Solution == nil {
		e.abort()
		otelhelper.SetError(span, ErrNoSolution)

		return nil, &ServiceError{Op: "exit.expert", Code: "no_solution", Err: ErrNoSolution}
	}

	contact := &models.ContactContext{
		SolutionName: answers.Solution.Name,
		Category:     answers.Solution.Category,
		Answers:      answers,
	}

	if err := e.store.Drafts().Clear(ctx); err != nil {
		e.logger.WarnContext(ctx, "Failed to clear draft after expert hand-off", "error", err)
	}

	e.publish(ctx, session.ID(), events.IntakeCompleted{
		BaseEvent: events.NewBase(events.IntakeCompletedEvent, session.ID()),
		Action:    "expert",
	})

	e.finish(true)

	return contact, nil
}

// SaveForLater writes a save-for-later record keyed by creation time and
// asks the report mailer to deliver it. The active draft stays in place and
// the session returns to idle, so the user can keep working or save again.
// An invalid email fails before anything is written.
func (e *Exit) SaveForLater(ctx context.Context, session *Session, email string) (*models.SavedDraft, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "exit.save_for_later",
		attribute.String(otelhelper.SessionIDKey, session.ID()),
		attribute.String(otelhelper.ActionKey, "save-for-later"),
	)
	defer span.End()

	if err := e.begin("exit.save_for_later"); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if err := e.validate.Var(email, "required,email"); err != nil {
		e.abort()
		otelhelper.SetError(span, ErrInvalidEmail)

		return nil, &ServiceError{Op: "exit.save_for_later", Code: "invalid_email", Err: ErrInvalidEmail}
	}

	answers := session.Snapshot()
	now := time.Now().UTC()

	saved := &models.SavedDraft{
		Key:       strconv.FormatInt(now.UnixNano(), 10),
		Email:     email,
		Answers:   answers,
		Solution:  answers.Solution,
		CreatedAt: now,
	}

	if err := e.store.Saved().Save(ctx, saved); err != nil {
		e.abort()
		otelhelper.SetError(span, err)

		return nil, &ServiceError{Op: "exit.save_for_later", Code: "save_failed", Err: err}
	}

	span.SetAttributes(attribute.String(otelhelper.SavedKeyKey, saved.Key))

	if e.report != nil {
		// Delivery is best-effort; the save already succeeded.
		go func() {
			sendCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			err := e.report.Send(sendCtx, clients.ReportRequest{
				Email:    email,
				Answers:  saved.Answers,
				Solution: saved.Solution,
			})
			if err != nil {
				e.logger.Warn("Failed to send saved intake report", "key", saved.Key, "error", err)
			}
		}()
	}

	e.publish(ctx, session.ID(), events.IntakeCompleted{
		BaseEvent: events.NewBase(events.IntakeCompletedEvent, session.ID()),
		Action:    "save-for-later",
	})

	e.finish(false)

	return saved, nil
}

func (e *Exit) publish(ctx context.Context, key string, event eventbus.Event) {
	if err := e.bus.Publish(ctx, key, event); err != nil {
		e.logger.ErrorContext(ctx, "Failed to publish event",
			"event_type", event.GetType(), "error", err)
	}
}

// buildProjectRecord derives the tracked-item record from a solution. Next
// steps depend on the category: built solutions start with a configuration
// walkthrough, hybrid ones with a discovery call.
func buildProjectRecord(solution *models.Solution) *models.ProjectRecord {
	record := &models.ProjectRecord{
		Name:      solution.Name,
		Category:  solution.Category,
		Status:    models.ProjectStatusCreated,
		Progress:  0,
		Benefits:  append([]string{}, solution.Summary...),
		CreatedAt: time.Now().UTC(),
	}

	switch solution.Category {
	case models.CategoryHybrid:
		record.NextSteps = []string{
			"Schedule a discovery call to scope the custom portion",
			"Review the packaged capabilities included out of the box",
			"Confirm which add-ons to enable at launch",
		}
	default:
		record.NextSteps = []string{
			"Complete the initial configuration walkthrough",
			"Invite your team and assign roles",
			"Connect the tools you already use",
		}
	}

	return record
}
