package transportparam

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionStateString(t *testing.T) {
	tests := []struct {
		state ConnectionState
		want  string
	}{
		{ConnectionStateNew, "new"},
		{ConnectionStateConnecting, "connecting"},
		{ConnectionStateConnected, "connected"},
		{ConnectionStateDisconnected, "disconnected"},
		{ConnectionStateFailed, "failed"},
		{ConnectionStateClosed, "closed"},
		{ConnectionState(42), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			parsed, ok := ParseConnectionState(tt.want)
			if tt.state.IsValid() {
				assert.True(t, ok)
				assert.Equal(t, tt.state, parsed)
			} else {
				assert.False(t, ok)
			}
		})
	}
}

func TestSctpStreamParameters(t *testing.T) {
	s := &SctpStreamParameters{StreamID: 3}
	assert.True(t, s.IsOrdered())

	unordered := false
	retransmits := uint16(2)
	s.Ordered = &unordered
	s.MaxRetransmits = &retransmits

	clone := s.Clone()
	*clone.MaxRetransmits = 5
	assert.False(t, clone.IsOrdered())
	assert.Equal(t, uint16(2), *s.MaxRetransmits)
}

func TestSctpParametersJSON(t *testing.T) {
	var p SctpParameters
	require.NoError(t, json.Unmarshal([]byte(`{"port":5000,"OS":1024,"MIS":1024,"maxMessageSize":262144}`), &p))
	assert.Equal(t, SctpParameters{Port: 5000, OS: 1024, MIS: 1024, MaxMessageSize: 262144}, p)
}

func TestDtlsParametersClone(t *testing.T) {
	d := &DtlsParameters{Role: DtlsRoleAuto, Fingerprints: []DtlsFingerprint{{Algorithm: "sha-256", Value: "AB"}}}
	c := d.Clone()
	c.Fingerprints[0].Value = "CD"
	assert.Equal(t, "AB", d.Fingerprints[0].Value)
}
