// Package transportparam holds the ICE, DTLS and SCTP parameter types the
// remote endpoint hands out when a transport is created, and the connection
// state values a transport reports.
package transportparam

// IceParameters are the remote ICE credentials.
type IceParameters struct {
	UsernameFragment string `json:"usernameFragment"`
	Password         string `json:"password"`
	IceLite          bool   `json:"iceLite,omitempty"`
}

// IceCandidate is a remote ICE candidate.
type IceCandidate struct {
	Foundation string `json:"foundation"`
	Priority   uint32 `json:"priority"`
	IP         string `json:"ip"`
	Protocol   string `json:"protocol"`
	Port       uint16 `json:"port"`
	Type       string `json:"type"`
	TCPType    string `json:"tcpType,omitempty"`
}

// IceServer is a STUN or TURN server used by the local ICE agent.
type IceServer struct {
	URLs       []string `json:"urls" mapstructure:"urls"`
	Username   string   `json:"username,omitempty" mapstructure:"username"`
	Credential string   `json:"credential,omitempty" mapstructure:"credential"`
}

// IceTransportPolicy restricts the candidates the local ICE agent gathers.
type IceTransportPolicy string

const (
	// IceTransportPolicyAll gathers every candidate type.
	IceTransportPolicyAll IceTransportPolicy = "all"
	// IceTransportPolicyRelay gathers TURN relay candidates only.
	IceTransportPolicyRelay IceTransportPolicy = "relay"
)

// DtlsRole is the DTLS role of an endpoint.
type DtlsRole string

const (
	// DtlsRoleAuto lets the answerer pick the role.
	DtlsRoleAuto DtlsRole = "auto"
	// DtlsRoleClient initiates the DTLS handshake.
	DtlsRoleClient DtlsRole = "client"
	// DtlsRoleServer waits for the peer to initiate.
	DtlsRoleServer DtlsRole = "server"
)

// DtlsFingerprint is a certificate fingerprint.
type DtlsFingerprint struct {
	Algorithm string `json:"algorithm"`
	Value     string `json:"value"`
}

// DtlsParameters are the DTLS role and fingerprints of an endpoint.
type DtlsParameters struct {
	Role         DtlsRole          `json:"role,omitempty"`
	Fingerprints []DtlsFingerprint `json:"fingerprints"`
}

// Clone returns a deep copy.
func (d *DtlsParameters) Clone() *DtlsParameters {
	if d == nil {
		return nil
	}
	out := &DtlsParameters{Role: d.Role}
	out.Fingerprints = append([]DtlsFingerprint(nil), d.Fingerprints...)
	return out
}

// NumSctpStreams is the number of outgoing (OS) and maximum incoming (MIS)
// SCTP streams.
type NumSctpStreams struct {
	OS  uint16 `json:"OS"`
	MIS uint16 `json:"MIS"`
}

// SctpCapabilities are the local SCTP capabilities.
type SctpCapabilities struct {
	NumStreams NumSctpStreams `json:"numStreams"`
}

// SctpParameters are the remote SCTP association parameters. A transport
// without SCTP parameters cannot carry data flows.
type SctpParameters struct {
	Port           uint16 `json:"port"`
	OS             uint16 `json:"OS"`
	MIS            uint16 `json:"MIS"`
	MaxMessageSize uint32 `json:"maxMessageSize"`
}

// SctpStreamParameters describe one data channel stream.
type SctpStreamParameters struct {
	StreamID          uint16  `json:"streamId"`
	Ordered           *bool   `json:"ordered,omitempty"`
	MaxPacketLifeTime *uint16 `json:"maxPacketLifeTime,omitempty"`
	MaxRetransmits    *uint16 `json:"maxRetransmits,omitempty"`
	Label             string  `json:"label,omitempty"`
	Protocol          string  `json:"protocol,omitempty"`
}

// IsOrdered returns the effective ordering. Unset means ordered.
func (s *SctpStreamParameters) IsOrdered() bool {
	return s.Ordered == nil || *s.Ordered
}

// Clone returns a deep copy.
func (s *SctpStreamParameters) Clone() *SctpStreamParameters {
	if s == nil {
		return nil
	}
	out := *s
	if s.Ordered != nil {
		v := *s.Ordered
		out.Ordered = &v
	}
	if s.MaxPacketLifeTime != nil {
		v := *s.MaxPacketLifeTime
		out.MaxPacketLifeTime = &v
	}
	if s.MaxRetransmits != nil {
		v := *s.MaxRetransmits
		out.MaxRetransmits = &v
	}
	return &out
}
