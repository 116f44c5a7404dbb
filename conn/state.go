package conn

import (
	"context"
	"fmt"

	"github.com/qmuntal/stateless"
)

// State is the lifecycle state of a [Connection], exposed for
// observability only; it never drives the segment-level algorithm.
type State int

const (
	StateIdle State = iota
	StateHandshaking
	StateEstablished
	StateClosingActive
	StateClosingPassive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHandshaking:
		return "handshaking"
	case StateEstablished:
		return "established"
	case StateClosingActive:
		return "closing_active"
	case StateClosingPassive:
		return "closing_passive"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type trigger int

const (
	triggerHandshakeStart trigger = iota
	triggerEstablished
	triggerCloseActive
	triggerClosePassive
	triggerClosed
	triggerAbort
)

// newLifecycle builds the stateless machine backing Connection.State().
// OnEntry callbacks only record the new state; they never touch the
// queues or the network, matching the restriction in the design this
// implements: the machine records transitions, it does not make them.
func newLifecycle(setter func(State)) *stateless.StateMachine {
	sm := stateless.NewStateMachine(StateIdle)

	record := func(s State) func(context.Context, ...any) error {
		return func(context.Context, ...any) error {
			setter(s)
			return nil
		}
	}

	sm.Configure(StateIdle).
		OnEntry(record(StateIdle)).
		Permit(triggerHandshakeStart, StateHandshaking).
		Permit(triggerCloseActive, StateClosingActive).
		Permit(triggerClosePassive, StateClosingPassive).
		Permit(triggerAbort, StateClosed)

	sm.Configure(StateHandshaking).
		OnEntry(record(StateHandshaking)).
		Permit(triggerEstablished, StateEstablished).
		Permit(triggerCloseActive, StateClosingActive).
		Permit(triggerClosePassive, StateClosingPassive).
		Permit(triggerAbort, StateClosed)

	sm.Configure(StateEstablished).
		OnEntry(record(StateEstablished)).
		Permit(triggerCloseActive, StateClosingActive).
		Permit(triggerClosePassive, StateClosingPassive).
		Permit(triggerAbort, StateClosed)

	sm.Configure(StateClosingActive).
		OnEntry(record(StateClosingActive)).
		Permit(triggerClosed, StateClosed).
		Permit(triggerAbort, StateClosed)

	sm.Configure(StateClosingPassive).
		OnEntry(record(StateClosingPassive)).
		Permit(triggerClosed, StateClosed).
		Permit(triggerAbort, StateClosed)

	sm.Configure(StateClosed).
		OnEntry(record(StateClosed))

	return sm
}

// fireTrigger drives trigger, panicking on a transition the machine does
// not permit; per this codebase's convention, FSM misuse is a bug, not a
// recoverable runtime condition.
func fireTrigger(sm *stateless.StateMachine, ctx context.Context, t trigger) {
	if err := sm.FireCtx(ctx, t); err != nil {
		panic(fmt.Sprintf("conn: invalid lifecycle transition: %v", err))
	}
}
