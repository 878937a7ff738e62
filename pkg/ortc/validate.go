package ortc

import (
	"strings"

	"github.com/backkem/mediasoupclient/pkg/mediaerr"
	"github.com/backkem/mediasoupclient/pkg/rtpparam"
	"github.com/backkem/mediasoupclient/pkg/transportparam"
)

// ValidateRtpCapabilities checks caps and fills in missing optional fields
// with their defaults. caps is modified in place.
func ValidateRtpCapabilities(caps *rtpparam.RtpCapabilities) error {
	if caps == nil {
		return mediaerr.InvalidArgument("missing rtp capabilities")
	}
	for _, codec := range caps.Codecs {
		if err := ValidateRtpCodecCapability(codec); err != nil {
			return err
		}
	}
	for _, ext := range caps.HeaderExtensions {
		if err := ValidateRtpHeaderExtension(ext); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRtpCodecCapability checks a codec capability. The kind is derived
// from the mimeType and audio channels default to 1.
func ValidateRtpCodecCapability(codec *rtpparam.RtpCodecCapability) error {
	if codec == nil {
		return mediaerr.InvalidArgument("missing codec")
	}

	kind := rtpparam.KindFromMimeType(codec.MimeType)
	if kind == "" {
		return mediaerr.InvalidArgument("invalid codec.mimeType %q", codec.MimeType)
	}
	if codec.Kind != "" && codec.Kind != kind {
		return mediaerr.InvalidArgument("codec.kind %q does not match mimeType %q", codec.Kind, codec.MimeType)
	}
	codec.Kind = kind

	if codec.ClockRate == 0 {
		return mediaerr.InvalidArgument("missing codec.clockRate")
	}

	if kind == rtpparam.MediaKindAudio {
		if codec.Channels == 0 {
			codec.Channels = 1
		}
	} else {
		codec.Channels = 0
	}

	if codec.Parameters == nil {
		codec.Parameters = rtpparam.CodecParameters{}
	}
	if codec.IsRtx() {
		if _, ok := codec.Parameters.Uint(rtpparam.ParamApt); !ok {
			return mediaerr.InvalidArgument("invalid codec apt parameter")
		}
	}

	return validateRtcpFeedback(codec.RtcpFeedback)
}

func validateRtcpFeedback(fbs []rtpparam.RtcpFeedback) error {
	for _, fb := range fbs {
		if fb.Type == "" {
			return mediaerr.InvalidArgument("missing fb.type")
		}
	}
	return nil
}

// ValidateRtpHeaderExtension checks a header extension capability. The
// direction defaults to sendrecv.
func ValidateRtpHeaderExtension(ext *rtpparam.RtpHeaderExtension) error {
	if ext == nil {
		return mediaerr.InvalidArgument("missing header extension")
	}
	if !ext.Kind.IsValid() {
		return mediaerr.InvalidArgument("invalid ext.kind %q", ext.Kind)
	}
	if ext.URI == "" {
		return mediaerr.InvalidArgument("missing ext.uri")
	}
	if ext.PreferredID == 0 {
		return mediaerr.InvalidArgument("missing ext.preferredId")
	}
	if ext.Direction == "" {
		ext.Direction = rtpparam.DirectionSendRecv
	}
	if !ext.Direction.IsValid() {
		return mediaerr.InvalidArgument("invalid ext.direction %q", ext.Direction)
	}
	return nil
}

// ValidateRtpParameters checks RTP parameters and fills in defaults.
// params is modified in place.
func ValidateRtpParameters(params *rtpparam.RtpParameters) error {
	if params == nil {
		return mediaerr.InvalidArgument("missing rtp parameters")
	}

	for _, codec := range params.Codecs {
		if err := ValidateRtpCodecParameters(codec); err != nil {
			return err
		}
	}

	for _, ext := range params.HeaderExtensions {
		if ext == nil || ext.URI == "" {
			return mediaerr.InvalidArgument("missing ext.uri")
		}
		if ext.ID == 0 {
			return mediaerr.InvalidArgument("missing ext.id")
		}
		if ext.Parameters == nil {
			ext.Parameters = rtpparam.CodecParameters{}
		}
	}

	for _, enc := range params.Encodings {
		if enc == nil {
			return mediaerr.InvalidArgument("missing encoding")
		}
	}

	if params.Rtcp == nil {
		params.Rtcp = &rtpparam.RtcpParameters{}
	}
	if params.Rtcp.ReducedSize == nil {
		params.Rtcp.ReducedSize = rtpparam.Bool(true)
	}

	return nil
}

// ValidateRtpCodecParameters checks a codec in use by a flow.
func ValidateRtpCodecParameters(codec *rtpparam.RtpCodecParameters) error {
	if codec == nil {
		return mediaerr.InvalidArgument("missing codec")
	}

	kind := rtpparam.KindFromMimeType(codec.MimeType)
	if kind == "" {
		return mediaerr.InvalidArgument("invalid codec.mimeType %q", codec.MimeType)
	}
	if codec.ClockRate == 0 {
		return mediaerr.InvalidArgument("missing codec.clockRate")
	}

	if kind == rtpparam.MediaKindAudio {
		if codec.Channels == 0 {
			codec.Channels = 1
		}
	} else {
		codec.Channels = 0
	}

	if codec.Parameters == nil {
		codec.Parameters = rtpparam.CodecParameters{}
	}
	if codec.IsRtx() {
		if _, ok := codec.Parameters.Uint(rtpparam.ParamApt); !ok {
			return mediaerr.InvalidArgument("invalid codec apt parameter")
		}
	}

	return validateRtcpFeedback(codec.RtcpFeedback)
}

// ValidateSctpCapabilities checks local SCTP capabilities.
func ValidateSctpCapabilities(caps *transportparam.SctpCapabilities) error {
	if caps == nil {
		return mediaerr.InvalidArgument("missing sctp capabilities")
	}
	if caps.NumStreams.OS == 0 {
		return mediaerr.InvalidArgument("missing numStreams.OS")
	}
	if caps.NumStreams.MIS == 0 {
		return mediaerr.InvalidArgument("missing numStreams.MIS")
	}
	return nil
}

// ValidateSctpParameters checks remote SCTP parameters.
func ValidateSctpParameters(params *transportparam.SctpParameters) error {
	if params == nil {
		return mediaerr.InvalidArgument("missing sctp parameters")
	}
	switch {
	case params.Port == 0:
		return mediaerr.InvalidArgument("missing params.port")
	case params.OS == 0:
		return mediaerr.InvalidArgument("missing params.OS")
	case params.MIS == 0:
		return mediaerr.InvalidArgument("missing params.MIS")
	case params.MaxMessageSize == 0:
		return mediaerr.InvalidArgument("missing params.maxMessageSize")
	}
	return nil
}

// ValidateSctpStreamParameters checks stream parameters. Ordered defaults to
// true, or to false when a partial reliability limit is given.
func ValidateSctpStreamParameters(params *transportparam.SctpStreamParameters) error {
	if params == nil {
		return mediaerr.InvalidArgument("missing sctp stream parameters")
	}

	partial := params.MaxPacketLifeTime != nil || params.MaxRetransmits != nil
	if params.MaxPacketLifeTime != nil && params.MaxRetransmits != nil {
		return mediaerr.InvalidArgument("cannot provide both maxPacketLifeTime and maxRetransmits")
	}

	if params.Ordered == nil {
		params.Ordered = rtpparam.Bool(!partial)
	} else if *params.Ordered && partial {
		return mediaerr.InvalidArgument("cannot be ordered with maxPacketLifeTime or maxRetransmits")
	}
	return nil
}

func isMimeType(codecMime, mime string) bool {
	return strings.EqualFold(codecMime, mime)
}
