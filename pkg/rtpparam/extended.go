package rtpparam

// ExtendedCodec is a codec both endpoints support, with the payload types and
// parameters each side uses for it.
//
// RTX payload types are 0 until an RTX pairing is found; 0 is never a valid
// dynamic payload type for RTX.
type ExtendedCodec struct {
	Kind                 MediaKind       `json:"kind"`
	MimeType             string          `json:"mimeType"`
	ClockRate            uint32          `json:"clockRate"`
	Channels             uint8           `json:"channels,omitempty"`
	LocalPayloadType     uint8           `json:"localPayloadType"`
	LocalRtxPayloadType  uint8           `json:"localRtxPayloadType,omitempty"`
	RemotePayloadType    uint8           `json:"remotePayloadType"`
	RemoteRtxPayloadType uint8           `json:"remoteRtxPayloadType,omitempty"`
	LocalParameters      CodecParameters `json:"localParameters"`
	RemoteParameters     CodecParameters `json:"remoteParameters"`
	RtcpFeedback         []RtcpFeedback  `json:"rtcpFeedback"`
}

// HasRtx returns true if an RTX pairing was negotiated for the codec.
func (c *ExtendedCodec) HasRtx() bool {
	return c.LocalRtxPayloadType != 0 && c.RemoteRtxPayloadType != 0
}

// Clone returns a deep copy of the codec.
func (c *ExtendedCodec) Clone() *ExtendedCodec {
	if c == nil {
		return nil
	}
	out := *c
	out.LocalParameters = c.LocalParameters.Clone()
	out.RemoteParameters = c.RemoteParameters.Clone()
	if c.RtcpFeedback != nil {
		out.RtcpFeedback = append([]RtcpFeedback{}, c.RtcpFeedback...)
	}
	return &out
}

// MergedParameters returns local parameters overlaid with remote ones.
func (c *ExtendedCodec) MergedParameters() CodecParameters {
	return c.LocalParameters.Merge(c.RemoteParameters)
}

// ExtendedHeaderExtension is a header extension both endpoints support.
// Direction is from the local point of view.
type ExtendedHeaderExtension struct {
	Kind      MediaKind      `json:"kind"`
	URI       string         `json:"uri"`
	SendID    uint8          `json:"sendId"`
	RecvID    uint8          `json:"recvId"`
	Encrypt   bool           `json:"encrypt,omitempty"`
	Direction MediaDirection `json:"direction"`
}

// ExtendedRtpCapabilities is the negotiated intersection of a local and a
// remote capability set.
type ExtendedRtpCapabilities struct {
	Codecs           []*ExtendedCodec           `json:"codecs"`
	HeaderExtensions []*ExtendedHeaderExtension `json:"headerExtensions"`
}

// Clone returns a deep copy of the capabilities.
func (c *ExtendedRtpCapabilities) Clone() *ExtendedRtpCapabilities {
	if c == nil {
		return nil
	}
	out := &ExtendedRtpCapabilities{}
	if c.Codecs != nil {
		out.Codecs = make([]*ExtendedCodec, len(c.Codecs))
		for i, codec := range c.Codecs {
			out.Codecs[i] = codec.Clone()
		}
	}
	if c.HeaderExtensions != nil {
		out.HeaderExtensions = make([]*ExtendedHeaderExtension, len(c.HeaderExtensions))
		for i, ext := range c.HeaderExtensions {
			if ext != nil {
				h := *ext
				out.HeaderExtensions[i] = &h
			}
		}
	}
	return out
}

// CanProduceByKind records, per media kind, whether at least one codec of
// that kind was negotiated.
type CanProduceByKind struct {
	Audio bool `json:"audio"`
	Video bool `json:"video"`
}

// Get returns the value for kind. Returns false for an unknown kind.
func (c CanProduceByKind) Get(kind MediaKind) bool {
	switch kind {
	case MediaKindAudio:
		return c.Audio
	case MediaKindVideo:
		return c.Video
	default:
		return false
	}
}
