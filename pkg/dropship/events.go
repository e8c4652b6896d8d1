package dropship

import "github.com/bft-labs/dropship/internal/app"

// State is the run state of a Forwarder.
type State int

const (
	StateIdle State = iota
	StateScanning
	StateSending
	StateRollingBack
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	return app.State(s).String()
}

// StateChangeEvent describes a run state transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// EventHandler receives run state transitions.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
}

// eventEmitterWrapper adapts EventHandler to the internal emitter interface.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func convertState(s app.State) State {
	switch s {
	case app.StateScanning:
		return StateScanning
	case app.StateSending:
		return StateSending
	case app.StateRollingBack:
		return StateRollingBack
	default:
		return StateIdle
	}
}
