package app

import (
	"context"
	"sync"
	"time"

	"github.com/bft-labs/dropship/internal/domain"
	"github.com/bft-labs/dropship/internal/ports"
)

// ShutdownTimeout is the maximum time to wait for an in-flight run on close.
const ShutdownTimeout = 30 * time.Second

// State is the run state of a transfer orchestrator.
type State int

const (
	StateIdle State = iota
	StateScanning
	StateSending
	StateRollingBack
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateScanning:
		return "Scanning"
	case StateSending:
		return "Sending"
	case StateRollingBack:
		return "RollingBack"
	default:
		return "Unknown"
	}
}

// Lifecycle guards a transfer so at most one run is active at a time.
//
//	Idle -> Scanning -> Sending -> Idle
//	           |           |
//	           +-> RollingBack <-+
//	           |       |
//	           +-------+-> Idle
type Lifecycle struct {
	mu           sync.RWMutex
	state        State
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	logger       ports.Logger
	eventEmitter EventEmitter
}

// EventEmitter is called when the run state changes.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// NewLifecycle creates an idle lifecycle.
func NewLifecycle(logger ports.Logger, emitter EventEmitter) *Lifecycle {
	return &Lifecycle{
		state:        StateIdle,
		logger:       logger,
		eventEmitter: emitter,
	}
}

// State returns the current run state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Busy reports whether a run is in progress.
func (l *Lifecycle) Busy() bool {
	return l.State() != StateIdle
}

// Begin claims the lifecycle for a new run.
// Returns domain.ErrAlreadyRunning if another run holds it.
func (l *Lifecycle) Begin(reason string) error {
	return l.TransitionTo(StateScanning, reason)
}

// End releases the lifecycle from any active state.
func (l *Lifecycle) End(reason string) error {
	return l.TransitionTo(StateIdle, reason)
}

// TransitionTo attempts to move to newState.
func (l *Lifecycle) TransitionTo(newState State, reason string) error {
	l.mu.Lock()
	oldState := l.state

	if err := checkTransition(oldState, newState); err != nil {
		l.mu.Unlock()
		return err
	}

	l.state = newState
	l.mu.Unlock()

	// Emit outside the lock.
	if l.eventEmitter != nil {
		l.eventEmitter.OnStateChange(oldState, newState, reason)
	}

	l.logger.Debug("run state transition",
		ports.String("from", oldState.String()),
		ports.String("to", newState.String()),
		ports.String("reason", reason),
	)
	return nil
}

func checkTransition(from, to State) error {
	switch from {
	case StateIdle:
		if to != StateScanning {
			return domain.ErrNotRunning
		}
	case StateScanning:
		switch to {
		case StateSending, StateRollingBack, StateIdle:
		case StateScanning:
			return domain.ErrAlreadyRunning
		default:
			return domain.ErrInvalidTransition
		}
	case StateSending:
		switch to {
		case StateRollingBack, StateIdle:
		case StateScanning:
			return domain.ErrAlreadyRunning
		default:
			return domain.ErrInvalidTransition
		}
	case StateRollingBack:
		switch to {
		case StateIdle:
		case StateScanning:
			return domain.ErrAlreadyRunning
		default:
			return domain.ErrInvalidTransition
		}
	default:
		return domain.ErrInvalidTransition
	}
	return nil
}

// SetCancel stores the cancel function of the active run.
func (l *Lifecycle) SetCancel(cancel context.CancelFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancel = cancel
}

// Cancel aborts the active run, if any.
func (l *Lifecycle) Cancel() {
	l.mu.Lock()
	cancel := l.cancel
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// AddWorker marks a run as in flight.
func (l *Lifecycle) AddWorker() {
	l.wg.Add(1)
}

// WorkerDone marks a run as finished.
func (l *Lifecycle) WorkerDone() {
	l.wg.Done()
}

// WaitWithTimeout waits for in-flight runs to finish.
// Returns domain.ErrShutdownTimeout if the timeout expires.
func (l *Lifecycle) WaitWithTimeout(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		l.logger.Warn("shutdown timeout, run still in progress",
			ports.Duration("timeout", timeout),
		)
		return domain.ErrShutdownTimeout
	}
}
