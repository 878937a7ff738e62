package fake

import (
	"github.com/backkem/mediasoupclient/pkg/rtpparam"
	"github.com/backkem/mediasoupclient/pkg/transportparam"
)

// DefaultRtpCapabilities returns the native capabilities the fake reports
// unless configured otherwise: Opus, VP8 with RTX and H264 with RTX, plus the
// usual header extensions.
func DefaultRtpCapabilities() *rtpparam.RtpCapabilities {
	videoFeedback := []rtpparam.RtcpFeedback{
		{Type: "goog-remb"},
		{Type: "transport-cc"},
		{Type: "ccm", Parameter: "fir"},
		{Type: "nack"},
		{Type: "nack", Parameter: "pli"},
	}
	return &rtpparam.RtpCapabilities{
		Codecs: []*rtpparam.RtpCodecCapability{
			{
				Kind:                 rtpparam.MediaKindAudio,
				MimeType:             "audio/opus",
				PreferredPayloadType: 111,
				ClockRate:            48000,
				Channels:             2,
				Parameters:           rtpparam.CodecParameters{"minptime": "10", "useinbandfec": "1"},
				RtcpFeedback:         []rtpparam.RtcpFeedback{{Type: "transport-cc"}},
			},
			{
				Kind:                 rtpparam.MediaKindVideo,
				MimeType:             "video/VP8",
				PreferredPayloadType: 96,
				ClockRate:            90000,
				RtcpFeedback:         videoFeedback,
			},
			{
				Kind:                 rtpparam.MediaKindVideo,
				MimeType:             "video/rtx",
				PreferredPayloadType: 97,
				ClockRate:            90000,
				Parameters:           rtpparam.CodecParameters{rtpparam.ParamApt: "96"},
			},
			{
				Kind:                 rtpparam.MediaKindVideo,
				MimeType:             "video/H264",
				PreferredPayloadType: 102,
				ClockRate:            90000,
				Parameters: rtpparam.CodecParameters{
					rtpparam.ParamLevelAsymmetryAllowed: "1",
					rtpparam.ParamPacketizationMode:     "1",
					rtpparam.ParamProfileLevelID:        "42e01f",
				},
				RtcpFeedback: videoFeedback,
			},
			{
				Kind:                 rtpparam.MediaKindVideo,
				MimeType:             "video/rtx",
				PreferredPayloadType: 103,
				ClockRate:            90000,
				Parameters:           rtpparam.CodecParameters{rtpparam.ParamApt: "102"},
			},
		},
		HeaderExtensions: []*rtpparam.RtpHeaderExtension{
			{Kind: rtpparam.MediaKindAudio, URI: "urn:ietf:params:rtp-hdrext:sdes:mid", PreferredID: 1},
			{Kind: rtpparam.MediaKindVideo, URI: "urn:ietf:params:rtp-hdrext:sdes:mid", PreferredID: 1},
			{Kind: rtpparam.MediaKindVideo, URI: "http://www.webrtc.org/experiments/rtp-hdrext/abs-send-time", PreferredID: 4},
			{Kind: rtpparam.MediaKindVideo, URI: "http://www.ietf.org/id/draft-holmer-rmcat-transport-wide-cc-extensions-01", PreferredID: 5},
			{Kind: rtpparam.MediaKindAudio, URI: "urn:ietf:params:rtp-hdrext:ssrc-audio-level", PreferredID: 10},
		},
	}
}

// DefaultSctpCapabilities returns 1024 streams in each direction.
func DefaultSctpCapabilities() *transportparam.SctpCapabilities {
	return &transportparam.SctpCapabilities{
		NumStreams: transportparam.NumSctpStreams{OS: 1024, MIS: 1024},
	}
}
