package ortc

import (
	"github.com/backkem/mediasoupclient/pkg/rtpparam"
)

// Header extension URIs that select the bandwidth estimation feedback.
const (
	URITransportWideCC = "http://www.ietf.org/id/draft-holmer-rmcat-transport-wide-cc-extensions-01"
	URIAbsSendTime     = "http://www.webrtc.org/experiments/rtp-hdrext/abs-send-time"
)

// GetRecvRtpCapabilities returns the capabilities to announce to the remote
// side for receiving media. Payload types and extension ids are the remote
// ones.
func GetRecvRtpCapabilities(ext *rtpparam.ExtendedRtpCapabilities) *rtpparam.RtpCapabilities {
	caps := &rtpparam.RtpCapabilities{
		Codecs:           []*rtpparam.RtpCodecCapability{},
		HeaderExtensions: []*rtpparam.RtpHeaderExtension{},
	}

	for _, c := range ext.Codecs {
		caps.Codecs = append(caps.Codecs, &rtpparam.RtpCodecCapability{
			Kind:                 c.Kind,
			MimeType:             c.MimeType,
			PreferredPayloadType: c.RemotePayloadType,
			ClockRate:            c.ClockRate,
			Channels:             c.Channels,
			Parameters:           c.LocalParameters.Clone(),
			RtcpFeedback:         cloneFeedback(c.RtcpFeedback),
		})
		if !c.HasRtx() {
			continue
		}
		caps.Codecs = append(caps.Codecs, &rtpparam.RtpCodecCapability{
			Kind:                 c.Kind,
			MimeType:             rtxMimeType(c.Kind),
			PreferredPayloadType: c.RemoteRtxPayloadType,
			ClockRate:            c.ClockRate,
			Parameters:           rtxParameters(c.RemotePayloadType),
			RtcpFeedback:         []rtpparam.RtcpFeedback{},
		})
	}

	for _, h := range ext.HeaderExtensions {
		if !h.Direction.CanReceive() {
			continue
		}
		caps.HeaderExtensions = append(caps.HeaderExtensions, &rtpparam.RtpHeaderExtension{
			Kind:             h.Kind,
			URI:              h.URI,
			PreferredID:      h.RecvID,
			PreferredEncrypt: h.Encrypt,
			Direction:        h.Direction,
		})
	}

	return caps
}

// GetSendingRtpParameters returns the parameters a send flow of kind offers
// locally: local payload types, local codec parameters and send-capable
// header extensions. Encodings are left empty.
func GetSendingRtpParameters(kind rtpparam.MediaKind, ext *rtpparam.ExtendedRtpCapabilities) *rtpparam.RtpParameters {
	params := newRtpParameters()

	for _, c := range ext.Codecs {
		if c.Kind != kind {
			continue
		}
		params.Codecs = append(params.Codecs, &rtpparam.RtpCodecParameters{
			MimeType:     c.MimeType,
			PayloadType:  c.LocalPayloadType,
			ClockRate:    c.ClockRate,
			Channels:     c.Channels,
			Parameters:   c.LocalParameters.Clone(),
			RtcpFeedback: cloneFeedback(c.RtcpFeedback),
		})
		if c.HasRtx() {
			params.Codecs = append(params.Codecs, &rtpparam.RtpCodecParameters{
				MimeType:     rtxMimeType(c.Kind),
				PayloadType:  c.LocalRtxPayloadType,
				ClockRate:    c.ClockRate,
				Parameters:   rtxParameters(c.LocalPayloadType),
				RtcpFeedback: []rtpparam.RtcpFeedback{},
			})
		}
	}

	params.HeaderExtensions = sendHeaderExtensions(kind, ext)
	return params
}

// GetSendingRemoteRtpParameters returns the parameters the remote answer for
// a send flow of kind is built from. It differs from GetSendingRtpParameters
// in using the remote codec parameters and in keeping only the RTCP feedback
// that fits the negotiated bandwidth estimation extension.
func GetSendingRemoteRtpParameters(kind rtpparam.MediaKind, ext *rtpparam.ExtendedRtpCapabilities) *rtpparam.RtpParameters {
	params := newRtpParameters()

	for _, c := range ext.Codecs {
		if c.Kind != kind {
			continue
		}
		params.Codecs = append(params.Codecs, &rtpparam.RtpCodecParameters{
			MimeType:     c.MimeType,
			PayloadType:  c.LocalPayloadType,
			ClockRate:    c.ClockRate,
			Channels:     c.Channels,
			Parameters:   c.RemoteParameters.Clone(),
			RtcpFeedback: cloneFeedback(c.RtcpFeedback),
		})
		if c.HasRtx() {
			params.Codecs = append(params.Codecs, &rtpparam.RtpCodecParameters{
				MimeType:     rtxMimeType(c.Kind),
				PayloadType:  c.LocalRtxPayloadType,
				ClockRate:    c.ClockRate,
				Parameters:   rtxParameters(c.LocalPayloadType),
				RtcpFeedback: []rtpparam.RtcpFeedback{},
			})
		}
	}

	params.HeaderExtensions = sendHeaderExtensions(kind, ext)

	var drop func(rtpparam.RtcpFeedback) bool
	switch {
	case hasHeaderExtension(params.HeaderExtensions, URITransportWideCC):
		drop = func(fb rtpparam.RtcpFeedback) bool { return fb.Type == "goog-remb" }
	case hasHeaderExtension(params.HeaderExtensions, URIAbsSendTime):
		drop = func(fb rtpparam.RtcpFeedback) bool { return fb.Type == "transport-cc" }
	default:
		drop = func(fb rtpparam.RtcpFeedback) bool { return fb.Type == "transport-cc" || fb.Type == "goog-remb" }
	}
	for _, c := range params.Codecs {
		c.RtcpFeedback = filterRtcpFeedback(c.RtcpFeedback, drop)
	}

	return params
}

// GetReceivingRtpParameters returns a template for a receive flow of kind:
// remote payload types, merged codec parameters and receive-capable header
// extensions with their remote ids.
func GetReceivingRtpParameters(kind rtpparam.MediaKind, ext *rtpparam.ExtendedRtpCapabilities) *rtpparam.RtpParameters {
	params := newRtpParameters()

	for _, c := range ext.Codecs {
		if c.Kind != kind {
			continue
		}
		params.Codecs = append(params.Codecs, &rtpparam.RtpCodecParameters{
			MimeType:     c.MimeType,
			PayloadType:  c.RemotePayloadType,
			ClockRate:    c.ClockRate,
			Channels:     c.Channels,
			Parameters:   c.MergedParameters(),
			RtcpFeedback: cloneFeedback(c.RtcpFeedback),
		})
		if c.HasRtx() {
			params.Codecs = append(params.Codecs, &rtpparam.RtpCodecParameters{
				MimeType:     rtxMimeType(c.Kind),
				PayloadType:  c.RemoteRtxPayloadType,
				ClockRate:    c.ClockRate,
				Parameters:   rtxParameters(c.RemotePayloadType),
				RtcpFeedback: []rtpparam.RtcpFeedback{},
			})
		}
	}

	for _, h := range ext.HeaderExtensions {
		if h.Kind != kind || !h.Direction.CanReceive() {
			continue
		}
		params.HeaderExtensions = append(params.HeaderExtensions, &rtpparam.RtpHeaderExtensionParameters{
			URI:        h.URI,
			ID:         h.RecvID,
			Encrypt:    h.Encrypt,
			Parameters: rtpparam.CodecParameters{},
		})
	}

	return params
}

func newRtpParameters() *rtpparam.RtpParameters {
	return &rtpparam.RtpParameters{
		Codecs:           []*rtpparam.RtpCodecParameters{},
		HeaderExtensions: []*rtpparam.RtpHeaderExtensionParameters{},
		Encodings:        []*rtpparam.RtpEncodingParameters{},
		Rtcp:             &rtpparam.RtcpParameters{},
	}
}

func sendHeaderExtensions(kind rtpparam.MediaKind, ext *rtpparam.ExtendedRtpCapabilities) []*rtpparam.RtpHeaderExtensionParameters {
	out := []*rtpparam.RtpHeaderExtensionParameters{}
	for _, h := range ext.HeaderExtensions {
		if h.Kind != kind || !h.Direction.CanSend() {
			continue
		}
		out = append(out, &rtpparam.RtpHeaderExtensionParameters{
			URI:        h.URI,
			ID:         h.SendID,
			Encrypt:    h.Encrypt,
			Parameters: rtpparam.CodecParameters{},
		})
	}
	return out
}

func hasHeaderExtension(exts []*rtpparam.RtpHeaderExtensionParameters, uri string) bool {
	for _, h := range exts {
		if h.URI == uri {
			return true
		}
	}
	return false
}

func filterRtcpFeedback(fbs []rtpparam.RtcpFeedback, drop func(rtpparam.RtcpFeedback) bool) []rtpparam.RtcpFeedback {
	out := make([]rtpparam.RtcpFeedback, 0, len(fbs))
	for _, fb := range fbs {
		if !drop(fb) {
			out = append(out, fb)
		}
	}
	return out
}

func cloneFeedback(in []rtpparam.RtcpFeedback) []rtpparam.RtcpFeedback {
	out := make([]rtpparam.RtcpFeedback, len(in))
	copy(out, in)
	return out
}
