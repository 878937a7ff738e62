package transport

import (
	"slices"
	"sync"

	"github.com/backkem/mediasoupclient/pkg/transportparam"
)

// stateMachine tracks the connection state reported by the handler.
//
// Repeated states are dropped. Closed is terminal and silent: it is entered
// by the transport itself and nothing is reported afterwards. Failed is
// terminal until an ICE restart re-arms the machine.
type stateMachine struct {
	mu        sync.Mutex
	state     transportparam.ConnectionState
	rearmed   bool
	observers []func(transportparam.ConnectionState)
}

func (s *stateMachine) current() transportparam.ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *stateMachine) observe(fn func(transportparam.ConnectionState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// set applies a state reported by the handler and notifies observers. It
// returns false if the state was dropped.
func (s *stateMachine) set(state transportparam.ConnectionState) bool {
	s.mu.Lock()
	switch {
	case s.state == transportparam.ConnectionStateClosed,
		state == transportparam.ConnectionStateClosed,
		state == s.state,
		s.state == transportparam.ConnectionStateFailed && !s.rearmed:
		s.mu.Unlock()
		return false
	}
	s.state = state
	s.rearmed = false
	observers := slices.Clone(s.observers)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(state)
	}
	return true
}

// rearm lets a failed machine leave the failed state again.
func (s *stateMachine) rearm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == transportparam.ConnectionStateFailed {
		s.rearmed = true
	}
}

// close enters the closed state without notifying anyone.
func (s *stateMachine) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = transportparam.ConnectionStateClosed
	s.observers = nil
}
