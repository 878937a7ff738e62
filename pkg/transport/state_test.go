package transport

import (
	"testing"

	"github.com/backkem/mediasoupclient/pkg/transportparam"
	"github.com/stretchr/testify/assert"
)

func TestStateMachine(t *testing.T) {
	var (
		s    stateMachine
		seen []transportparam.ConnectionState
	)
	s.observe(func(state transportparam.ConnectionState) { seen = append(seen, state) })

	assert.False(t, s.set(transportparam.ConnectionStateNew), "initial state repeated")
	assert.True(t, s.set(transportparam.ConnectionStateConnecting))
	assert.False(t, s.set(transportparam.ConnectionStateConnecting), "duplicate")
	assert.True(t, s.set(transportparam.ConnectionStateConnected))
	assert.True(t, s.set(transportparam.ConnectionStateFailed))

	t.Run("failed is terminal", func(t *testing.T) {
		assert.False(t, s.set(transportparam.ConnectionStateConnected))
		assert.Equal(t, transportparam.ConnectionStateFailed, s.current())
	})

	t.Run("rearm", func(t *testing.T) {
		s.rearm()
		assert.True(t, s.set(transportparam.ConnectionStateConnecting))
		assert.True(t, s.set(transportparam.ConnectionStateFailed))
		assert.False(t, s.set(transportparam.ConnectionStateConnected), "rearm is single use")
	})

	t.Run("closed is silent", func(t *testing.T) {
		n := len(seen)
		s.close()
		assert.Equal(t, transportparam.ConnectionStateClosed, s.current())
		s.rearm()
		assert.False(t, s.set(transportparam.ConnectionStateConnected))
		assert.Len(t, seen, n)
	})

	assert.Equal(t, []transportparam.ConnectionState{
		transportparam.ConnectionStateConnecting,
		transportparam.ConnectionStateConnected,
		transportparam.ConnectionStateFailed,
		transportparam.ConnectionStateConnecting,
		transportparam.ConnectionStateFailed,
	}, seen)
}

func TestStateMachineReportedClosed(t *testing.T) {
	var s stateMachine
	assert.False(t, s.set(transportparam.ConnectionStateClosed), "closed is entered by the transport only")
	assert.Equal(t, transportparam.ConnectionStateNew, s.current())
}

func TestStateMachineObserverAddedDuringNotify(t *testing.T) {
	var (
		s     stateMachine
		late  []transportparam.ConnectionState
		early []transportparam.ConnectionState
	)
	s.observe(func(state transportparam.ConnectionState) {
		early = append(early, state)
		if len(early) == 1 {
			s.observe(func(state transportparam.ConnectionState) { late = append(late, state) })
		}
	})

	assert.True(t, s.set(transportparam.ConnectionStateConnecting))
	assert.Empty(t, late, "observers added while notifying see the next state only")

	assert.True(t, s.set(transportparam.ConnectionStateConnected))
	assert.Equal(t, []transportparam.ConnectionState{
		transportparam.ConnectionStateConnecting,
		transportparam.ConnectionStateConnected,
	}, early)
	assert.Equal(t, []transportparam.ConnectionState{transportparam.ConnectionStateConnected}, late)
}
