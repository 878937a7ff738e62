package rtpparam

// RtpCodecParameters describes a codec in use by a flow.
type RtpCodecParameters struct {
	MimeType     string          `json:"mimeType"`
	PayloadType  uint8           `json:"payloadType"`
	ClockRate    uint32          `json:"clockRate"`
	Channels     uint8           `json:"channels,omitempty"`
	Parameters   CodecParameters `json:"parameters,omitempty"`
	RtcpFeedback []RtcpFeedback  `json:"rtcpFeedback,omitempty"`
}

// IsRtx returns true if the codec is a retransmission codec.
func (c *RtpCodecParameters) IsRtx() bool {
	return IsRtxMimeType(c.MimeType)
}

// Clone returns a deep copy of the codec.
func (c *RtpCodecParameters) Clone() *RtpCodecParameters {
	if c == nil {
		return nil
	}
	out := *c
	out.Parameters = c.Parameters.Clone()
	out.RtcpFeedback = cloneFeedback(c.RtcpFeedback)
	return &out
}

// RtpHeaderExtensionParameters is a header extension in use by a flow.
type RtpHeaderExtensionParameters struct {
	URI        string          `json:"uri"`
	ID         uint8           `json:"id"`
	Encrypt    bool            `json:"encrypt,omitempty"`
	Parameters CodecParameters `json:"parameters,omitempty"`
}

// Clone returns a deep copy of the header extension.
func (h *RtpHeaderExtensionParameters) Clone() *RtpHeaderExtensionParameters {
	if h == nil {
		return nil
	}
	out := *h
	out.Parameters = h.Parameters.Clone()
	return &out
}

// RtpEncodingRtx carries the retransmission SSRC of an encoding.
type RtpEncodingRtx struct {
	Ssrc uint32 `json:"ssrc"`
}

// RtpEncodingParameters describes one encoding (layer) of a flow.
type RtpEncodingParameters struct {
	Ssrc                  uint32          `json:"ssrc,omitempty"`
	Rid                   string          `json:"rid,omitempty"`
	CodecPayloadType      *uint8          `json:"codecPayloadType,omitempty"`
	Rtx                   *RtpEncodingRtx `json:"rtx,omitempty"`
	Dtx                   bool            `json:"dtx,omitempty"`
	ScalabilityMode       string          `json:"scalabilityMode,omitempty"`
	ScaleResolutionDownBy float64         `json:"scaleResolutionDownBy,omitempty"`
	MaxBitrate            uint32          `json:"maxBitrate,omitempty"`
	MaxFramerate          float64         `json:"maxFramerate,omitempty"`
	Active                *bool           `json:"active,omitempty"`
	Priority              string          `json:"priority,omitempty"`
	NetworkPriority       string          `json:"networkPriority,omitempty"`
}

// IsActive returns false only if Active is explicitly set to false.
func (e *RtpEncodingParameters) IsActive() bool {
	return e.Active == nil || *e.Active
}

// Clone returns a deep copy of the encoding.
func (e *RtpEncodingParameters) Clone() *RtpEncodingParameters {
	if e == nil {
		return nil
	}
	out := *e
	if e.CodecPayloadType != nil {
		pt := *e.CodecPayloadType
		out.CodecPayloadType = &pt
	}
	if e.Rtx != nil {
		rtx := *e.Rtx
		out.Rtx = &rtx
	}
	if e.Active != nil {
		active := *e.Active
		out.Active = &active
	}
	return &out
}

// RtcpParameters describes the RTCP settings of a flow.
type RtcpParameters struct {
	Cname       string `json:"cname,omitempty"`
	ReducedSize *bool  `json:"reducedSize,omitempty"`
	Mux         *bool  `json:"mux,omitempty"`
}

// Clone returns a deep copy of the RTCP parameters.
func (r *RtcpParameters) Clone() *RtcpParameters {
	if r == nil {
		return nil
	}
	out := *r
	if r.ReducedSize != nil {
		v := *r.ReducedSize
		out.ReducedSize = &v
	}
	if r.Mux != nil {
		v := *r.Mux
		out.Mux = &v
	}
	return &out
}

// RtpParameters fully describes what a flow sends or receives.
type RtpParameters struct {
	Mid              string                          `json:"mid,omitempty"`
	Codecs           []*RtpCodecParameters           `json:"codecs"`
	HeaderExtensions []*RtpHeaderExtensionParameters `json:"headerExtensions,omitempty"`
	Encodings        []*RtpEncodingParameters        `json:"encodings,omitempty"`
	Rtcp             *RtcpParameters                 `json:"rtcp,omitempty"`
}

// Clone returns a deep copy of the parameters.
func (p *RtpParameters) Clone() *RtpParameters {
	if p == nil {
		return nil
	}
	out := &RtpParameters{Mid: p.Mid, Rtcp: p.Rtcp.Clone()}
	if p.Codecs != nil {
		out.Codecs = make([]*RtpCodecParameters, len(p.Codecs))
		for i, c := range p.Codecs {
			out.Codecs[i] = c.Clone()
		}
	}
	if p.HeaderExtensions != nil {
		out.HeaderExtensions = make([]*RtpHeaderExtensionParameters, len(p.HeaderExtensions))
		for i, h := range p.HeaderExtensions {
			out.HeaderExtensions[i] = h.Clone()
		}
	}
	if p.Encodings != nil {
		out.Encodings = make([]*RtpEncodingParameters, len(p.Encodings))
		for i, e := range p.Encodings {
			out.Encodings[i] = e.Clone()
		}
	}
	return out
}

// Bool returns a pointer to v, for the optional boolean fields.
func Bool(v bool) *bool {
	return &v
}

// PayloadType returns a pointer to pt, for RtpEncodingParameters.CodecPayloadType.
func PayloadType(pt uint8) *uint8 {
	return &pt
}
