package update

import (
	"context"
	"fmt"
	"sync"

	"repoup/internal/debug"
	appErrors "repoup/internal/errors"
	"repoup/internal/helper"
)

// Phase is a state of the apply sequence.
type Phase int

const (
	// PhaseIdle means no update is running and no result is waiting.
	PhaseIdle Phase = iota
	// PhaseUpdating means pull and rebuild are in progress.
	PhaseUpdating
	// PhaseFailedUpdate means the pull failed; rebuild was not attempted.
	PhaseFailedUpdate
	// PhaseFailedRebuild means the pull succeeded but the build failed.
	PhaseFailedRebuild
	// PhaseAwaitingRestart means both steps succeeded and the user is asked
	// whether to relaunch.
	PhaseAwaitingRestart
)

// String returns the string representation of a Phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseUpdating:
		return "updating"
	case PhaseFailedUpdate:
		return "failed-update"
	case PhaseFailedRebuild:
		return "failed-rebuild"
	case PhaseAwaitingRestart:
		return "awaiting-restart"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Event moves the Machine between phases.
type Event int

const (
	EventStart Event = iota
	EventUpdateFailed
	EventRebuildFailed
	EventBuilt
	EventDismiss
	EventConfirm
)

func (e Event) String() string {
	switch e {
	case EventStart:
		return "start"
	case EventUpdateFailed:
		return "update-failed"
	case EventRebuildFailed:
		return "rebuild-failed"
	case EventBuilt:
		return "built"
	case EventDismiss:
		return "dismiss"
	case EventConfirm:
		return "confirm"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

var transitions = map[Phase]map[Event]Phase{
	PhaseIdle: {
		EventStart: PhaseUpdating,
	},
	PhaseUpdating: {
		EventUpdateFailed:  PhaseFailedUpdate,
		EventRebuildFailed: PhaseFailedRebuild,
		EventBuilt:         PhaseAwaitingRestart,
	},
	PhaseFailedUpdate: {
		EventDismiss: PhaseIdle,
	},
	PhaseFailedRebuild: {
		EventDismiss: PhaseIdle,
	},
	PhaseAwaitingRestart: {
		EventConfirm: PhaseIdle,
		EventDismiss: PhaseIdle,
	},
}

// Machine tracks the apply sequence. The zero Machine is idle.
type Machine struct {
	mu    sync.Mutex
	phase Phase
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Busy reports whether an update is running. Action buttons are disabled
// while it is true.
func (m *Machine) Busy() bool {
	return m.Phase() == PhaseUpdating
}

// Fire applies an event. Events not valid in the current phase are
// rejected and leave the phase unchanged.
func (m *Machine) Fire(ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next, ok := transitions[m.phase][ev]
	if !ok {
		return appErrors.New(appErrors.CodeInvalidTransition,
			fmt.Sprintf("cannot %s while %s", ev, m.phase), nil)
	}
	debug.Logf("apply: %s --%s--> %s", m.phase, ev, next)
	m.phase = next
	return nil
}

// Outcome is the result of running the update and rebuild steps.
type Outcome struct {
	// Event is what the caller fires on its Machine after Run returns.
	Event Event
	// Failure is set for EventUpdateFailed and EventRebuildFailed.
	Failure helper.Failure
}

// Phase is the phase the Machine reaches once Event is fired from
// PhaseUpdating.
func (o Outcome) Phase() Phase {
	return transitions[PhaseUpdating][o.Event]
}

// Step names a stage of the apply sequence for progress reporting.
type Step string

const (
	StepUpdate  Step = "update"
	StepRebuild Step = "rebuild"
)

// Run pulls and then rebuilds. Rebuild is skipped when the pull fails.
// Run does not touch any Machine, so it can run off the UI loop.
func Run(ctx context.Context, h helper.Helper) Outcome {
	return RunSteps(ctx, h, nil)
}

// RunSteps is Run with a callback invoked before each step starts.
func RunSteps(ctx context.Context, h helper.Helper, onStep func(Step)) Outcome {
	if onStep == nil {
		onStep = func(Step) {}
	}
	onStep(StepUpdate)
	if res := h.Update(ctx); !res.Ok() {
		failure, _ := res.Failure()
		debug.LogFailure(string(StepUpdate), failure.Cmd, failure.Message)
		return Outcome{Event: EventUpdateFailed, Failure: failure}
	}
	onStep(StepRebuild)
	if res := h.Rebuild(ctx); !res.Ok() {
		failure, _ := res.Failure()
		debug.LogFailure(string(StepRebuild), failure.Cmd, failure.Message)
		return Outcome{Event: EventRebuildFailed, Failure: failure}
	}
	debug.Log("update and rebuild succeeded")
	return Outcome{Event: EventBuilt}
}

// Applier runs the whole sequence against its own Machine. It is used by
// the non-interactive apply command; the TUI drives a Machine directly.
type Applier struct {
	helper  helper.Helper
	machine *Machine
	onStep  func(Step)
}

// NewApplier wraps a helper.
func NewApplier(h helper.Helper) *Applier {
	return &Applier{helper: h, machine: &Machine{}}
}

// OnStep registers a callback run before each step of Apply.
func (a *Applier) OnStep(fn func(Step)) {
	a.onStep = fn
}

// Machine exposes the applier's state.
func (a *Applier) Machine() *Machine {
	return a.machine
}

// Apply runs update then rebuild. It returns an invalid_transition error
// if an apply is already in progress or an earlier result has not been
// dismissed.
func (a *Applier) Apply(ctx context.Context) (Outcome, error) {
	if err := a.machine.Fire(EventStart); err != nil {
		return Outcome{}, err
	}
	outcome := RunSteps(ctx, a.helper, a.onStep)
	if err := a.machine.Fire(outcome.Event); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// Restart confirms the restart prompt and relaunches.
func (a *Applier) Restart() error {
	if err := a.machine.Fire(EventConfirm); err != nil {
		return err
	}
	return a.helper.Relaunch()
}

// Dismiss clears a failure or declines the restart prompt.
func (a *Applier) Dismiss() error {
	return a.machine.Fire(EventDismiss)
}
