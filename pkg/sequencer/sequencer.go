// Package sequencer implements the wizard step state machine: an index into
// the fixed step catalog, advanced and retreated under gate control, with a
// debounced transition delay for consumers that animate between steps.
package sequencer

import (
	"sync"
	"time"

	"github.com/helixworks/intake/pkg/catalog"
	"github.com/helixworks/intake/pkg/models"
)

// DefaultTransitionDelay is how long a transition stays pending before the
// index commit. It exists purely so a consumer can animate; it never blocks
// the caller.
const DefaultTransitionDelay = 200 * time.Millisecond

// TransitionHook is invoked after a transition commits. It receives the
// steps involved and a snapshot of the answers taken when the transition was
// requested. With a non-zero delay the hook runs on the timer goroutine, so
// it must not call back into the sequencer's owner under the same lock.
type TransitionHook func(from, to catalog.StepDefinition, advanced bool, answers *models.Answers)

// Sequencer walks the step catalog. States are the step indices 0..N-1;
// transitions are Advance and Retreat; Reset returns to 0. A transition
// requested while another is still pending is dropped, so a rapid
// double-click can never skip two steps.
type Sequencer struct {
	mu      sync.Mutex
	catalog *catalog.Catalog
	index   int
	delay   time.Duration
	pending *time.Timer
	hook    TransitionHook
	stopped bool
}

// Option configures a sequencer.
type Option func(*Sequencer)

// WithDelay overrides the transition delay. Zero commits synchronously,
// which tests rely on.
func WithDelay(d time.Duration) Option {
	return func(s *Sequencer) {
		s.delay = d
	}
}

// WithTransitionHook registers the commit callback.
func WithTransitionHook(hook TransitionHook) Option {
	return func(s *Sequencer) {
		s.hook = hook
	}
}

// New creates a sequencer positioned at the first step.
func New(c *catalog.Catalog, opts ...Option) *Sequencer {
	s := &Sequencer{
		catalog: c,
		delay:   DefaultTransitionDelay,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Index returns the current step index.
func (s *Sequencer) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.index
}

// Step returns the current step definition.
func (s *Sequencer) Step() catalog.StepDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()

	step, _ := s.catalog.StepAt(s.index)

	return step
}

// Progress returns (index+1)/total, recomputed on every call.
func (s *Sequencer) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return float64(s.index+1) / float64(s.catalog.Len())
}

// AtTerminal reports whether the sequencer sits on the last step.
func (s *Sequencer) AtTerminal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.index == s.catalog.Len()-1
}

// Pending reports whether a transition is awaiting its delayed commit.
func (s *Sequencer) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pending != nil
}

// CanAdvance evaluates the current step's gate against the answers. The
// same predicate gates Advance, so a UI can explain a refused transition.
func (s *Sequencer) CanAdvance(a *models.Answers) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.canAdvanceLocked(a)
}

func (s *Sequencer) canAdvanceLocked(a *models.Answers) bool {
	step, ok := s.catalog.StepAt(s.index)
	if !ok || step.CanAdvance == nil {
		return false
	}

	return step.CanAdvance(a)
}

// Advance requests a forward transition. It returns false, without any
// state change, when the gate fails, the sequencer is at the terminal step,
// a previous transition is still pending, or the sequencer is stopped.
func (s *Sequencer) Advance(a *models.Answers) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.pending != nil {
		return false
	}

	if s.index >= s.catalog.Len()-1 {
		return false
	}

	if !s.canAdvanceLocked(a) {
		return false
	}

	s.scheduleLocked(s.index, s.index+1, true, a.Clone())

	return true
}

// Retreat requests a backward transition. Always permitted except at the
// first step or while another transition is pending.
func (s *Sequencer) Retreat(a *models.Answers) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.pending != nil {
		return false
	}

	if s.index == 0 {
		return false
	}

	s.scheduleLocked(s.index, s.index-1, false, a.Clone())

	return true
}

// scheduleLocked arranges the index commit. A zero delay commits inline;
// otherwise a timer fires after the delay, during which further transitions
// are refused.
func (s *Sequencer) scheduleLocked(from, to int, advanced bool, snapshot *models.Answers) {
	if s.delay == 0 {
		s.commitLocked(from, to, advanced, snapshot)

		return
	}

	s.pending = time.AfterFunc(s.delay, func() {
		s.mu.Lock()

		if s.stopped {
			s.mu.Unlock()

			return
		}

		s.commitLocked(from, to, advanced, snapshot)
		s.mu.Unlock()
	})
}

func (s *Sequencer) commitLocked(from, to int, advanced bool, snapshot *models.Answers) {
	s.index = to
	s.pending = nil

	if s.hook == nil {
		return
	}

	fromStep, _ := s.catalog.StepAt(from)
	toStep, _ := s.catalog.StepAt(to)

	// The hook runs outside our state transition but inside the lock window;
	// it only sees immutable snapshots, never the live sequencer.
	s.hook(fromStep, toStep, advanced, snapshot)
}

// Reset cancels any pending transition and returns to the first step.
// Calling it twice in a row is the same as calling it once.
func (s *Sequencer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}

	s.index = 0
}

// Restore positions the sequencer on the named step during rehydration.
// Unknown names leave the index untouched.
func (s *Sequencer) Restore(name models.StepName) bool {
	index := s.catalog.IndexOf(name)
	if index < 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.index = index

	return true
}

// Stop cancels any pending transition and refuses further ones. Used when
// the wizard is closed mid-animation.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true

	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}
