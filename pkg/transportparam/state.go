package transportparam

// ConnectionState is the aggregated ICE/DTLS state of a transport.
type ConnectionState uint8

const (
	// ConnectionStateNew is the state before ICE starts checking.
	ConnectionStateNew ConnectionState = iota
	ConnectionStateConnecting
	ConnectionStateConnected
	ConnectionStateDisconnected
	ConnectionStateFailed
	// ConnectionStateClosed is terminal.
	ConnectionStateClosed
)

// String returns the state name.
func (s ConnectionState) String() string {
	switch s {
	case ConnectionStateNew:
		return "new"
	case ConnectionStateConnecting:
		return "connecting"
	case ConnectionStateConnected:
		return "connected"
	case ConnectionStateDisconnected:
		return "disconnected"
	case ConnectionStateFailed:
		return "failed"
	case ConnectionStateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// IsValid returns true if the state is a known value.
func (s ConnectionState) IsValid() bool {
	return s <= ConnectionStateClosed
}

// ParseConnectionState returns the state for a name produced by String.
func ParseConnectionState(name string) (ConnectionState, bool) {
	for s := ConnectionStateNew; s <= ConnectionStateClosed; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}
