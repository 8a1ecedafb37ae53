// Package lifecycle provides the statekit statechart behind a control session.
//
//	NotStarted --START--> Running --STOP--> Stopped
//	     |                   |
//	     +------FAIL-------> Failed
//
// Stopped and Failed are final. The machine only moves forward; a session
// never returns to NotStarted.
package lifecycle

import (
	"errors"
	"fmt"
	"sync"

	"github.com/felixgeelhaar/statekit"
)

// State is a session lifecycle state.
type State string

// Lifecycle states.
const (
	NotStarted State = "not-started"
	Running    State = "running"
	Stopped    State = "stopped"
	Failed     State = "failed"
)

// Events driving the machine.
const (
	eventStart statekit.EventType = "START"
	eventStop  statekit.EventType = "STOP"
	eventFail  statekit.EventType = "FAIL"
)

// ErrWrongState is returned when an operation is invoked in a state that
// does not allow it.
var ErrWrongState = errors.New("invalid lifecycle state")

// history records the events applied to the machine.
type history struct {
	events []string
}

func recordTransition(h **history, event statekit.Event) {
	if h == nil || *h == nil {
		return
	}
	(*h).events = append((*h).events, string(event.Type))
}

// Machine tracks the lifecycle of one session. Safe for concurrent use.
type Machine struct {
	mu     sync.Mutex
	interp *statekit.Interpreter[*history]
	hist   *history
}

// New builds and starts a machine in NotStarted.
func New(name string) (*Machine, error) {
	hist := &history{}

	cfg, err := statekit.NewMachine[*history](name).
		WithInitial(statekit.StateID(NotStarted)).
		WithContext(hist).
		WithAction("recordTransition", recordTransition).
		State(statekit.StateID(NotStarted)).
			On(eventStart).Target(statekit.StateID(Running)).Do("recordTransition").
			On(eventFail).Target(statekit.StateID(Failed)).Do("recordTransition").
			Done().
		State(statekit.StateID(Running)).
			On(eventStop).Target(statekit.StateID(Stopped)).Do("recordTransition").
			On(eventFail).Target(statekit.StateID(Failed)).Do("recordTransition").
			Done().
		State(statekit.StateID(Stopped)).
			Final().
			Done().
		State(statekit.StateID(Failed)).
			Final().
			Done().
		Build()
	if err != nil {
		return nil, fmt.Errorf("building lifecycle machine: %w", err)
	}

	interp := statekit.NewInterpreter(cfg)
	interp.Start()

	return &Machine{interp: interp, hist: hist}, nil
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current()
}

// Require returns ErrWrongState unless the machine is in want.
// op names the rejected operation in the error message.
func (m *Machine) Require(want State, op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if got := m.current(); got != want {
		return fmt.Errorf("%w: %s requires %s session, current state is %s", ErrWrongState, op, want, got)
	}
	return nil
}

// Start moves NotStarted to Running.
func (m *Machine) Start() error {
	return m.send(eventStart, NotStarted)
}

// Stop moves Running to Stopped.
func (m *Machine) Stop() error {
	return m.send(eventStop, Running)
}

// Fail moves NotStarted or Running to Failed. Failing an already final
// machine is a no-op.
func (m *Machine) Fail() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.interp.Done() {
		return
	}
	m.interp.Send(statekit.Event{Type: eventFail})
}

// History returns the events applied so far, oldest first.
func (m *Machine) History() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.hist.events))
	copy(out, m.hist.events)
	return out
}

// send applies ev only when the machine is in from; statekit panics on
// events the current state does not handle.
func (m *Machine) send(ev statekit.EventType, from State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if got := m.current(); got != from {
		return fmt.Errorf("%w: cannot apply %s in state %s", ErrWrongState, ev, got)
	}
	m.interp.Send(statekit.Event{Type: ev})
	return nil
}

func (m *Machine) current() State {
	return State(m.interp.State().Value)
}
