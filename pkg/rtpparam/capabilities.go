package rtpparam

import "strings"

// RtcpFeedback is an RTCP feedback mechanism supported by a codec.
type RtcpFeedback struct {
	Type      string `json:"type"`
	Parameter string `json:"parameter,omitempty"`
}

// RtpCodecCapability describes a codec an endpoint can handle.
type RtpCodecCapability struct {
	Kind                 MediaKind       `json:"kind"`
	MimeType             string          `json:"mimeType"`
	PreferredPayloadType uint8           `json:"preferredPayloadType"`
	ClockRate            uint32          `json:"clockRate"`
	Channels             uint8           `json:"channels,omitempty"`
	Parameters           CodecParameters `json:"parameters,omitempty"`
	RtcpFeedback         []RtcpFeedback  `json:"rtcpFeedback,omitempty"`
}

// IsRtx returns true if the codec is a retransmission codec.
func (c *RtpCodecCapability) IsRtx() bool {
	return IsRtxMimeType(c.MimeType)
}

// Clone returns a deep copy of the codec.
func (c *RtpCodecCapability) Clone() *RtpCodecCapability {
	if c == nil {
		return nil
	}
	out := *c
	out.Parameters = c.Parameters.Clone()
	out.RtcpFeedback = cloneFeedback(c.RtcpFeedback)
	return &out
}

// RtpHeaderExtension describes a header extension an endpoint can handle.
type RtpHeaderExtension struct {
	Kind             MediaKind      `json:"kind"`
	URI              string         `json:"uri"`
	PreferredID      uint8          `json:"preferredId"`
	PreferredEncrypt bool           `json:"preferredEncrypt,omitempty"`
	Direction        MediaDirection `json:"direction,omitempty"`
}

// Clone returns a copy of the header extension.
func (h *RtpHeaderExtension) Clone() *RtpHeaderExtension {
	if h == nil {
		return nil
	}
	out := *h
	return &out
}

// RtpCapabilities is the set of codecs and header extensions an endpoint
// supports.
type RtpCapabilities struct {
	Codecs           []*RtpCodecCapability `json:"codecs,omitempty"`
	HeaderExtensions []*RtpHeaderExtension `json:"headerExtensions,omitempty"`
}

// Clone returns a deep copy of the capabilities.
func (c *RtpCapabilities) Clone() *RtpCapabilities {
	if c == nil {
		return nil
	}
	out := &RtpCapabilities{}
	if c.Codecs != nil {
		out.Codecs = make([]*RtpCodecCapability, len(c.Codecs))
		for i, codec := range c.Codecs {
			out.Codecs[i] = codec.Clone()
		}
	}
	if c.HeaderExtensions != nil {
		out.HeaderExtensions = make([]*RtpHeaderExtension, len(c.HeaderExtensions))
		for i, ext := range c.HeaderExtensions {
			out.HeaderExtensions[i] = ext.Clone()
		}
	}
	return out
}

// IsRtxMimeType returns true for "audio/rtx" and "video/rtx" in any case.
func IsRtxMimeType(mimeType string) bool {
	_, sub, ok := strings.Cut(mimeType, "/")
	return ok && strings.EqualFold(sub, "rtx")
}

// IsFecMimeType returns true for the redundancy and FEC codecs that are not
// negotiated as primary codecs (red, ulpfec, flexfec).
func IsFecMimeType(mimeType string) bool {
	_, sub, ok := strings.Cut(mimeType, "/")
	if !ok {
		return false
	}
	switch strings.ToLower(sub) {
	case "red", "ulpfec", "flexfec", "flexfec-03":
		return true
	default:
		return false
	}
}

func cloneFeedback(in []RtcpFeedback) []RtcpFeedback {
	if in == nil {
		return nil
	}
	out := make([]RtcpFeedback, len(in))
	copy(out, in)
	return out
}
