package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/helixworks/intake/pkg/catalog"
	"github.com/helixworks/intake/pkg/eventbus"
	"github.com/helixworks/intake/pkg/events"
	"github.com/helixworks/intake/pkg/models"
	"github.com/helixworks/intake/pkg/persistence"
	"github.com/helixworks/intake/pkg/recommend"
	"github.com/helixworks/intake/pkg/sequencer"
)

// Session owns one wizard run: the answer record, the step sequencer, and
// the recommendation engine. All mutation goes through its methods under a
// single mutex; everything it hands out is a snapshot.
type Session struct {
	mu sync.Mutex

	id      string
	answers *models.Answers
	catalog *catalog.Catalog
	seq     *sequencer.Sequencer
	engine  *recommend.Engine
	store   persistence.Persistence
	bus     eventbus.EventBus
	logger  *slog.Logger
}

// SessionState is the read model handed to the API layer.
type SessionState struct {
	SessionID  string           `json:"session_id"`
	Step       models.StepName  `json:"step"`
	StepIndex  int              `json:"step_index"`
	TotalSteps int              `json:"total_steps"`
	Progress   float64          `json:"progress"`
	Pending    bool             `json:"transition_pending"`
	Answers    *models.Answers  `json:"answers"`
	Solution   *models.Solution `json:"solution,omitempty"`
}

// SessionOption configures a session at construction time.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	catalog *catalog.Catalog
	engine  *recommend.Engine
	delay   time.Duration
	setD    bool
}

// WithCatalog overrides the default step catalog.
func WithCatalog(c *catalog.Catalog) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.catalog = c
	}
}

// WithEngine overrides the default recommendation engine.
func WithEngine(e *recommend.Engine) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.engine = e
	}
}

// WithTransitionDelay overrides the sequencer's transition delay. Zero
// commits transitions synchronously.
func WithTransitionDelay(d time.Duration) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.delay = d
		cfg.setD = true
	}
}

// NewSession creates a session positioned at the first step with an empty
// answer record.
func NewSession(
	store persistence.Persistence,
	bus eventbus.EventBus,
	logger *slog.Logger,
	opts ...SessionOption,
) *Session {
	cfg := sessionConfig{
		catalog: catalog.New(),
		engine:  recommend.NewEngine(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Session{
		id:      bus.GenerateID(),
		answers: models.NewAnswers(),
		catalog: cfg.catalog,
		engine:  cfg.engine,
		store:   store,
		bus:     bus,
		logger:  logger.With("module", "session"),
	}

	seqOpts := []sequencer.Option{
		sequencer.WithTransitionHook(s.onTransition),
	}

	if cfg.setD {
		seqOpts = append(seqOpts, sequencer.WithDelay(cfg.delay))
	}

	s.seq = sequencer.New(cfg.catalog, seqOpts...)

	return s
}

// ID returns the session identifier stamped on every published event.
func (s *Session) ID() string {
	return s.id
}

// Start rehydrates the session from a persisted draft if one exists and
// reports whether it did. A missing or undecodable draft means a fresh
// session; that is never an error the caller has to handle.
func (s *Session) Start(ctx context.Context) bool {
	draft, err := s.store.Drafts().Load(ctx)
	if err != nil {
		if !persistence.IsDraftNotFound(err) {
			s.logger.WarnContext(ctx, "Failed to load draft, starting fresh", "error", err)
		}

		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.answers = draft.Answers
	if s.answers == nil {
		s.answers = models.NewAnswers()
	}

	if !s.seq.Restore(draft.CurrentStep) {
		s.logger.WarnContext(ctx, "Draft references unknown step, staying at first step",
			"step", draft.CurrentStep)
	}

	return true
}

// State returns a snapshot of the session for the API layer.
func (s *Session) State() *SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	answers := s.answers.Clone()

	return &SessionState{
		SessionID:  s.id,
		Step:       s.seq.Step().Name,
		StepIndex:  s.seq.Index(),
		TotalSteps: s.catalog.Len(),
		Progress:   s.seq.Progress(),
		Pending:    s.seq.Pending(),
		Answers:    answers,
		Solution:   answers.Solution,
	}
}

// UpdateAnswers merges one step's fields into the answer record and
// publishes the post-merge snapshot. The merge itself cannot fail; a
// publish failure is logged and never rolls the merge back.
func (s *Session) UpdateAnswers(ctx context.Context, update models.AnswersUpdate) *models.Answers {
	s.mu.Lock()
	s.answers.Apply(update)
	snapshot := s.answers.Clone()
	step := s.seq.Step().Name
	s.mu.Unlock()

	s.publish(ctx, events.AnswersUpdated{
		BaseEvent: events.NewBase(events.AnswersUpdatedEvent, s.id),
		Step:      step,
		Answers:   snapshot,
	})

	return snapshot
}

// Advance requests a forward transition. The sequencer refuses silently;
// this layer names the reason so the API can explain it.
func (s *Session) Advance(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seq.Pending() {
		return NewConflictError("session.advance", "transition_pending", ErrTransitionPending)
	}

	if s.seq.AtTerminal() {
		return NewConflictError("session.advance", "at_terminal_step", ErrAtTerminalStep)
	}

	if !s.seq.CanAdvance(s.answers) {
		return &ServiceError{
			Op:      "session.advance",
			Code:    "step_incomplete",
			Message: "step " + string(s.seq.Step().Name) + " is not complete",
			Err:     ErrStepGateNotSatisfied,
		}
	}

	if !s.seq.Advance(s.answers) {
		return NewConflictError("session.advance", "transition_pending", ErrTransitionPending)
	}

	return nil
}

// Retreat requests a backward transition.
func (s *Session) Retreat(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seq.Pending() {
		return NewConflictError("session.retreat", "transition_pending", ErrTransitionPending)
	}

	if s.seq.Index() == 0 {
		return NewConflictError("session.retreat", "at_first_step", ErrAtFirstStep)
	}

	if !s.seq.Retreat(s.answers) {
		return NewConflictError("session.retreat", "transition_pending", ErrTransitionPending)
	}

	return nil
}

// Reset returns the wizard to the first step, clears the answer record, and
// discards the persisted draft. Resetting an already-fresh session is a
// no-op with the same outcome.
func (s *Session) Reset(ctx context.Context) {
	s.mu.Lock()
	s.seq.Reset()
	s.answers.Reset()
	s.mu.Unlock()

	if err := s.store.Drafts().Clear(ctx); err != nil {
		s.logger.WarnContext(ctx, "Failed to clear draft on reset", "error", err)
	}

	s.publish(ctx, events.SessionReset{
		BaseEvent: events.NewBase(events.SessionResetEvent, s.id),
	})
}

// Preview computes the recommendation for the current answers and snapshots
// it into the answer record, so the preview and any later terminal action
// see the same value. Recomputing over unchanged answers yields an
// identical solution.
func (s *Session) Preview(ctx context.Context) *models.Solution {
	s.mu.Lock()
	solution := s.engine.Recommend(s.answers)
	s.answers.Solution = &solution
	snapshot := s.answers.Clone()
	step := s.seq.Step().Name
	s.mu.Unlock()

	s.publish(ctx, events.AnswersUpdated{
		BaseEvent: events.NewBase(events.AnswersUpdatedEvent, s.id),
		Step:      step,
		Answers:   snapshot,
	})
	s.publish(ctx, events.SolutionComputed{
		BaseEvent: events.NewBase(events.SolutionComputedEvent, s.id),
		Solution:  snapshot.Solution,
	})

	return snapshot.Solution
}

// Snapshot returns a deep copy of the answer record.
func (s *Session) Snapshot() *models.Answers {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.answers.Clone()
}

// Step returns the current step definition.
func (s *Session) Step() catalog.StepDefinition {
	return s.seq.Step()
}

// Close cancels any pending transition and stops the sequencer. The session
// refuses transitions afterwards; answers and the persisted draft survive.
func (s *Session) Close() {
	s.seq.Stop()
}

// onTransition runs when the sequencer commits a transition. It only sees
// snapshots, never the live session, because with a non-zero delay it runs
// on the timer goroutine.
func (s *Session) onTransition(from, to catalog.StepDefinition, advanced bool, answers *models.Answers) {
	ctx := context.Background()

	if advanced {
		s.publish(ctx, events.StepAdvanced{
			BaseEvent: events.NewBase(events.StepAdvancedEvent, s.id),
			From:      from.Name,
			To:        to.Name,
			Answers:   answers,
		})

		return
	}

	s.publish(ctx, events.StepRetreated{
		BaseEvent: events.NewBase(events.StepRetreatedEvent, s.id),
		From:      from.Name,
		To:        to.Name,
		Answers:   answers,
	})
}

func (s *Session) publish(ctx context.Context, event eventbus.Event) {
	if err := s.bus.Publish(ctx, s.id, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event",
			"event_type", event.GetType(), "error", err)
	}
}
