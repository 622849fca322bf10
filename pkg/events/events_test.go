package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixworks/intake/pkg/models"
)

func TestNewBase(t *testing.T) {
	base := NewBase(StepAdvancedEvent, "session-1")

	assert.NotEmpty(t, base.ID)
	assert.Equal(t, StepAdvancedEvent, base.Type)
	assert.Equal(t, "session-1", base.SessionID)
	assert.False(t, base.Timestamp.IsZero())

	other := NewBase(StepAdvancedEvent, "session-1")
	assert.NotEqual(t, base.ID, other.ID)
}

func TestGetType(t *testing.T) {
	answers := models.NewAnswers()

	tests := []struct {
		name  string
		event interface{ GetType() EventType }
		want  EventType
	}{
		{name: "answers_updated", event: AnswersUpdated{Answers: answers}, want: AnswersUpdatedEvent},
		{name: "step_advanced", event: StepAdvanced{Answers: answers}, want: StepAdvancedEvent},
		{name: "step_retreated", event: StepRetreated{Answers: answers}, want: StepRetreatedEvent},
		{name: "session_reset", event: SessionReset{}, want: SessionResetEvent},
		{name: "solution_computed", event: SolutionComputed{}, want: SolutionComputedEvent},
		{name: "intake_completed", event: IntakeCompleted{Action: "expert"}, want: IntakeCompletedEvent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.event.GetType())
		})
	}
}
