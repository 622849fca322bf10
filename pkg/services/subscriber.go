package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/helixworks/intake/pkg/eventbus"
	"github.com/helixworks/intake/pkg/events"
	"github.com/helixworks/intake/pkg/models"
	"github.com/helixworks/intake/pkg/persistence"
)

// RegisterAutosave subscribes the draft store to the session lifecycle:
// every answer merge and committed step transition writes the draft. A
// failed write is logged and swallowed, never retried into the session's
// path, so persistence can lag but never block the wizard.
func RegisterAutosave(bus eventbus.EventSubscriber, store persistence.Persistence, logger *slog.Logger) error {
	a := &autosave{
		drafts: store.Drafts(),
		logger: logger.With("module", "autosave"),
	}

	if err := bus.Handle(events.AnswersUpdatedEvent, a.onAnswersUpdated); err != nil {
		return err
	}

	if err := bus.Handle(events.StepAdvancedEvent, a.onStepAdvanced); err != nil {
		return err
	}

	return bus.Handle(events.StepRetreatedEvent, a.onStepRetreated)
}

type autosave struct {
	drafts persistence.DraftRepository
	logger *slog.Logger
}

func (a *autosave) onAnswersUpdated(ctx context.Context, event any) error {
	e, ok := event.(*events.AnswersUpdated)
	if !ok {
		return nil
	}

	a.save(ctx, e.Answers, e.Step)

	return nil
}

func (a *autosave) onStepAdvanced(ctx context.Context, event any) error {
	e, ok := event.(*events.StepAdvanced)
	if !ok {
		return nil
	}

	a.save(ctx, e.Answers, e.To)

	return nil
}

func (a *autosave) onStepRetreated(ctx context.Context, event any) error {
	e, ok := event.(*events.StepRetreated)
	if !ok {
		return nil
	}

	a.save(ctx, e.Answers, e.To)

	return nil
}

func (a *autosave) save(ctx context.Context, answers *models.Answers, step models.StepName) {
	draft := &models.Draft{
		Answers:     answers,
		CurrentStep: step,
		Timestamp:   time.Now().UTC(),
	}

	if err := a.drafts.Save(ctx, draft); err != nil {
		a.logger.WarnContext(ctx, "Failed to autosave draft", "step", step, "error", err)
	}
}
