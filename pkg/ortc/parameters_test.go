package ortc

import (
	"testing"

	"github.com/backkem/mediasoupclient/pkg/rtpparam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func videoExt(t *testing.T, remoteExts ...*rtpparam.RtpHeaderExtension) *rtpparam.ExtendedRtpCapabilities {
	t.Helper()

	remoteVP8 := vp8(101)
	remoteVP8.Parameters = rtpparam.CodecParameters{"x-google-start-bitrate": "1000"}

	local := &rtpparam.RtpCapabilities{
		Codecs: []*rtpparam.RtpCodecCapability{opus(111), vp8(96), rtx(97, 96)},
		HeaderExtensions: []*rtpparam.RtpHeaderExtension{
			hdrExt(rtpparam.MediaKindVideo, "urn:ietf:params:rtp-hdrext:sdes:mid", 4, rtpparam.DirectionSendRecv),
			hdrExt(rtpparam.MediaKindVideo, URIAbsSendTime, 2, rtpparam.DirectionSendRecv),
			hdrExt(rtpparam.MediaKindVideo, URITransportWideCC, 3, rtpparam.DirectionSendRecv),
		},
	}
	remote := &rtpparam.RtpCapabilities{
		Codecs:           []*rtpparam.RtpCodecCapability{opus(100), remoteVP8, rtx(102, 101)},
		HeaderExtensions: remoteExts,
	}

	ext, err := GetExtendedRtpCapabilities(local, remote)
	require.NoError(t, err)
	return ext
}

func TestGetSendingRtpParameters(t *testing.T) {
	ext := videoExt(t, hdrExt(rtpparam.MediaKindVideo, "urn:ietf:params:rtp-hdrext:sdes:mid", 9, rtpparam.DirectionSendRecv))

	params := GetSendingRtpParameters(rtpparam.MediaKindVideo, ext)
	require.Len(t, params.Codecs, 2)
	assert.Equal(t, uint8(96), params.Codecs[0].PayloadType)
	assert.Empty(t, params.Codecs[0].Parameters)
	assert.Equal(t, "video/rtx", params.Codecs[1].MimeType)
	assert.Equal(t, uint8(97), params.Codecs[1].PayloadType)
	assert.Equal(t, "96", params.Codecs[1].Parameters[rtpparam.ParamApt])

	require.Len(t, params.HeaderExtensions, 1)
	assert.Equal(t, uint8(4), params.HeaderExtensions[0].ID)
	assert.Empty(t, params.Encodings)
	assert.NotNil(t, params.Rtcp)

	audio := GetSendingRtpParameters(rtpparam.MediaKindAudio, ext)
	require.Len(t, audio.Codecs, 1)
	assert.Equal(t, uint8(111), audio.Codecs[0].PayloadType)
	assert.Empty(t, audio.HeaderExtensions)
}

func TestGetSendingRemoteRtpParameters(t *testing.T) {
	t.Run("transport-cc drops remb", func(t *testing.T) {
		ext := videoExt(t,
			hdrExt(rtpparam.MediaKindVideo, URIAbsSendTime, 2, rtpparam.DirectionSendRecv),
			hdrExt(rtpparam.MediaKindVideo, URITransportWideCC, 3, rtpparam.DirectionSendRecv),
		)
		params := GetSendingRemoteRtpParameters(rtpparam.MediaKindVideo, ext)
		require.NotEmpty(t, params.Codecs)
		assert.Equal(t, "1000", params.Codecs[0].Parameters["x-google-start-bitrate"])
		assert.Equal(t, []string{"nack", "nack", "transport-cc"}, feedbackTypes(params.Codecs[0].RtcpFeedback))
	})

	t.Run("abs-send-time drops transport-cc", func(t *testing.T) {
		ext := videoExt(t, hdrExt(rtpparam.MediaKindVideo, URIAbsSendTime, 2, rtpparam.DirectionSendRecv))
		params := GetSendingRemoteRtpParameters(rtpparam.MediaKindVideo, ext)
		assert.Equal(t, []string{"nack", "nack", "goog-remb"}, feedbackTypes(params.Codecs[0].RtcpFeedback))
	})

	t.Run("no bwe extension drops both", func(t *testing.T) {
		ext := videoExt(t)
		params := GetSendingRemoteRtpParameters(rtpparam.MediaKindVideo, ext)
		assert.Equal(t, []string{"nack", "nack"}, feedbackTypes(params.Codecs[0].RtcpFeedback))
		assert.Len(t, ext.Codecs[1].RtcpFeedback, 4, "extended capabilities must not be modified")
	})
}

func feedbackTypes(fbs []rtpparam.RtcpFeedback) []string {
	out := []string{}
	for _, fb := range fbs {
		out = append(out, fb.Type)
	}
	return out
}

func TestGetRecvRtpCapabilities(t *testing.T) {
	ext := videoExt(t,
		hdrExt(rtpparam.MediaKindVideo, "urn:ietf:params:rtp-hdrext:sdes:mid", 9, rtpparam.DirectionSendRecv),
		hdrExt(rtpparam.MediaKindVideo, URIAbsSendTime, 8, rtpparam.DirectionRecvOnly),
	)

	caps := GetRecvRtpCapabilities(ext)
	require.Len(t, caps.Codecs, 3)
	assert.Equal(t, uint8(100), caps.Codecs[0].PreferredPayloadType)
	assert.Equal(t, uint8(101), caps.Codecs[1].PreferredPayloadType)
	assert.Equal(t, uint8(102), caps.Codecs[2].PreferredPayloadType)
	assert.Equal(t, "101", caps.Codecs[2].Parameters[rtpparam.ParamApt])

	// The remote only receives abs-send-time, so it is send only locally.
	require.Len(t, caps.HeaderExtensions, 1)
	assert.Equal(t, uint8(9), caps.HeaderExtensions[0].PreferredID)
}

func TestGetReceivingRtpParameters(t *testing.T) {
	ext := videoExt(t, hdrExt(rtpparam.MediaKindVideo, "urn:ietf:params:rtp-hdrext:sdes:mid", 9, rtpparam.DirectionSendRecv))

	params := GetReceivingRtpParameters(rtpparam.MediaKindVideo, ext)
	require.Len(t, params.Codecs, 2)
	assert.Equal(t, uint8(101), params.Codecs[0].PayloadType)
	assert.Equal(t, "1000", params.Codecs[0].Parameters["x-google-start-bitrate"])
	assert.Equal(t, uint8(102), params.Codecs[1].PayloadType)
	require.Len(t, params.HeaderExtensions, 1)
	assert.Equal(t, uint8(9), params.HeaderExtensions[0].ID)

	assert.True(t, CanReceive(params, ext))
}

func TestCanReceive(t *testing.T) {
	ext := videoExt(t)

	tests := []struct {
		name   string
		params *rtpparam.RtpParameters
		want   bool
	}{
		{"nil", nil, false},
		{"no codecs", &rtpparam.RtpParameters{}, false},
		{"known codec", &rtpparam.RtpParameters{Codecs: []*rtpparam.RtpCodecParameters{
			{MimeType: "video/VP8", PayloadType: 101, ClockRate: 90000},
		}}, true},
		{"known codec and rtx", &rtpparam.RtpParameters{Codecs: []*rtpparam.RtpCodecParameters{
			{MimeType: "video/VP8", PayloadType: 101, ClockRate: 90000},
			{MimeType: "video/rtx", PayloadType: 102, ClockRate: 90000},
		}}, true},
		{"local payload type", &rtpparam.RtpParameters{Codecs: []*rtpparam.RtpCodecParameters{
			{MimeType: "video/VP8", PayloadType: 96, ClockRate: 90000},
		}}, false},
		{"mimeType mismatch", &rtpparam.RtpParameters{Codecs: []*rtpparam.RtpCodecParameters{
			{MimeType: "video/H264", PayloadType: 101, ClockRate: 90000},
		}}, false},
		{"unknown rtx", &rtpparam.RtpParameters{Codecs: []*rtpparam.RtpCodecParameters{
			{MimeType: "video/VP8", PayloadType: 101, ClockRate: 90000},
			{MimeType: "video/rtx", PayloadType: 120, ClockRate: 90000},
		}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanReceive(tt.params, ext))
		})
	}
}

func TestGenerateProbatorRtpParameters(t *testing.T) {
	video := &rtpparam.RtpParameters{
		Mid: "3",
		Codecs: []*rtpparam.RtpCodecParameters{
			{MimeType: "video/VP8", PayloadType: 101, ClockRate: 90000},
			{MimeType: "video/rtx", PayloadType: 102, ClockRate: 90000, Parameters: rtpparam.CodecParameters{"apt": "101"}},
		},
		HeaderExtensions: []*rtpparam.RtpHeaderExtensionParameters{{URI: URIAbsSendTime, ID: 2}},
		Encodings: []*rtpparam.RtpEncodingParameters{
			{Ssrc: 11, ScalabilityMode: "L1T3"},
			{Ssrc: 12},
		},
	}

	params, err := GenerateProbatorRtpParameters(video)
	require.NoError(t, err)
	assert.Equal(t, ProbatorMid, params.Mid)
	require.Len(t, params.Codecs, 1)
	assert.Equal(t, uint8(ProbatorPayloadType), params.Codecs[0].PayloadType)
	assert.Equal(t, "video/VP8", params.Codecs[0].MimeType)
	assert.Equal(t, []*rtpparam.RtpEncodingParameters{{Ssrc: ProbatorSsrc}}, params.Encodings)
	assert.Equal(t, ProbatorCname, params.Rtcp.Cname)
	require.Len(t, params.HeaderExtensions, 1)

	assert.Equal(t, uint8(101), video.Codecs[0].PayloadType, "source must not be modified")

	_, err = GenerateProbatorRtpParameters(&rtpparam.RtpParameters{})
	assert.Error(t, err)
}

func TestReduceCodecs(t *testing.T) {
	codecs := []*rtpparam.RtpCodecParameters{
		{MimeType: "video/VP8", PayloadType: 96, ClockRate: 90000},
		{MimeType: "video/rtx", PayloadType: 97, ClockRate: 90000, Parameters: rtpparam.CodecParameters{"apt": "96"}},
		{MimeType: "video/H264", PayloadType: 102, ClockRate: 90000, Parameters: rtpparam.CodecParameters{
			"profile-level-id": "42e01f", "packetization-mode": "1",
		}},
		{MimeType: "video/rtx", PayloadType: 103, ClockRate: 90000, Parameters: rtpparam.CodecParameters{"apt": "102"}},
	}

	got, err := ReduceCodecs(codecs, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint8(96), got[0].PayloadType)
	assert.Equal(t, uint8(97), got[1].PayloadType)

	got, err = ReduceCodecs(codecs, h264Codec(0, "42e01f", "1"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint8(102), got[0].PayloadType)
	assert.Equal(t, uint8(103), got[1].PayloadType)

	_, err = ReduceCodecs(codecs, opus(111))
	assert.Error(t, err)

	_, err = ReduceCodecs(nil, nil)
	assert.Error(t, err)
}
