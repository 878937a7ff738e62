package ortc

import (
	"errors"
	"strconv"
	"testing"

	"github.com/backkem/mediasoupclient/pkg/mediaerr"
	"github.com/backkem/mediasoupclient/pkg/rtpparam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func opus(pt uint8) *rtpparam.RtpCodecCapability {
	return &rtpparam.RtpCodecCapability{
		Kind:                 rtpparam.MediaKindAudio,
		MimeType:             "audio/opus",
		PreferredPayloadType: pt,
		ClockRate:            48000,
		Channels:             2,
		Parameters:           rtpparam.CodecParameters{"useinbandfec": "1"},
		RtcpFeedback:         []rtpparam.RtcpFeedback{{Type: "transport-cc"}},
	}
}

func vp8(pt uint8) *rtpparam.RtpCodecCapability {
	return &rtpparam.RtpCodecCapability{
		Kind:                 rtpparam.MediaKindVideo,
		MimeType:             "video/VP8",
		PreferredPayloadType: pt,
		ClockRate:            90000,
		RtcpFeedback: []rtpparam.RtcpFeedback{
			{Type: "nack"},
			{Type: "nack", Parameter: "pli"},
			{Type: "goog-remb"},
			{Type: "transport-cc"},
		},
	}
}

func h264Codec(pt uint8, profileLevelID, packetizationMode string) *rtpparam.RtpCodecCapability {
	return &rtpparam.RtpCodecCapability{
		Kind:                 rtpparam.MediaKindVideo,
		MimeType:             "video/H264",
		PreferredPayloadType: pt,
		ClockRate:            90000,
		Parameters: rtpparam.CodecParameters{
			rtpparam.ParamProfileLevelID:        profileLevelID,
			rtpparam.ParamPacketizationMode:     packetizationMode,
			rtpparam.ParamLevelAsymmetryAllowed: "1",
		},
	}
}

func rtx(pt, apt uint8) *rtpparam.RtpCodecCapability {
	return &rtpparam.RtpCodecCapability{
		Kind:                 rtpparam.MediaKindVideo,
		MimeType:             "video/rtx",
		PreferredPayloadType: pt,
		ClockRate:            90000,
		Parameters:           rtpparam.CodecParameters{rtpparam.ParamApt: itoa(apt)},
	}
}

func itoa(v uint8) string {
	return strconv.Itoa(int(v))
}

func hdrExt(kind rtpparam.MediaKind, uri string, id uint8, dir rtpparam.MediaDirection) *rtpparam.RtpHeaderExtension {
	return &rtpparam.RtpHeaderExtension{Kind: kind, URI: uri, PreferredID: id, Direction: dir}
}

func TestGetExtendedRtpCapabilitiesCanProduce(t *testing.T) {
	local := &rtpparam.RtpCapabilities{Codecs: []*rtpparam.RtpCodecCapability{vp8(96), opus(111)}}
	remote := &rtpparam.RtpCapabilities{Codecs: []*rtpparam.RtpCodecCapability{vp8(101)}}

	ext, err := GetExtendedRtpCapabilities(local, remote)
	require.NoError(t, err)

	canProduce := CanProduceByKind(ext)
	assert.False(t, canProduce.Audio)
	assert.True(t, canProduce.Video)
	assert.False(t, CanSend(rtpparam.MediaKindAudio, ext))
	assert.True(t, CanSend(rtpparam.MediaKindVideo, ext))

	require.Len(t, ext.Codecs, 1)
	c := ext.Codecs[0]
	assert.Equal(t, uint8(96), c.LocalPayloadType)
	assert.Equal(t, uint8(101), c.RemotePayloadType)
	assert.False(t, c.HasRtx())
}

func TestGetExtendedRtpCapabilitiesLocalOrder(t *testing.T) {
	local := &rtpparam.RtpCapabilities{Codecs: []*rtpparam.RtpCodecCapability{opus(111), vp8(96), h264Codec(102, "42e01f", "1")}}
	remote := &rtpparam.RtpCapabilities{Codecs: []*rtpparam.RtpCodecCapability{h264Codec(125, "42e01f", "1"), vp8(101), opus(100)}}

	ext, err := GetExtendedRtpCapabilities(local, remote)
	require.NoError(t, err)
	require.Len(t, ext.Codecs, 3)
	assert.Equal(t, "audio/opus", ext.Codecs[0].MimeType)
	assert.Equal(t, "video/VP8", ext.Codecs[1].MimeType)
	assert.Equal(t, "video/H264", ext.Codecs[2].MimeType)

	again, err := GetExtendedRtpCapabilities(local, remote)
	require.NoError(t, err)
	assert.Equal(t, ext, again)
}

func TestGetExtendedRtpCapabilitiesDeterministic(t *testing.T) {
	local := &rtpparam.RtpCapabilities{
		Codecs: []*rtpparam.RtpCodecCapability{
			opus(111), vp8(96), rtx(97, 96), h264Codec(102, "42e01f", "1"), rtx(103, 102),
		},
		HeaderExtensions: []*rtpparam.RtpHeaderExtension{
			hdrExt(rtpparam.MediaKindAudio, "urn:ietf:params:rtp-hdrext:sdes:mid", 1, ""),
			hdrExt(rtpparam.MediaKindVideo, URITransportWideCC, 5, rtpparam.DirectionSendRecv),
		},
	}
	remote := &rtpparam.RtpCapabilities{
		Codecs: []*rtpparam.RtpCodecCapability{
			h264Codec(125, "42e00d", "1"), rtx(126, 125), vp8(101), rtx(102, 101), opus(100),
		},
		HeaderExtensions: []*rtpparam.RtpHeaderExtension{
			hdrExt(rtpparam.MediaKindVideo, URITransportWideCC, 3, rtpparam.DirectionRecvOnly),
			hdrExt(rtpparam.MediaKindAudio, "urn:ietf:params:rtp-hdrext:sdes:mid", 9, rtpparam.DirectionSendRecv),
		},
	}
	localBefore, remoteBefore := local.Clone(), remote.Clone()

	first, err := GetExtendedRtpCapabilities(local, remote)
	require.NoError(t, err)
	second, err := GetExtendedRtpCapabilities(local, remote)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, localBefore, local, "local capabilities must not be modified")
	assert.Equal(t, remoteBefore, remote, "remote capabilities must not be modified")

	mimeTypes := []string{}
	for _, c := range first.Codecs {
		mimeTypes = append(mimeTypes, c.MimeType)
	}
	assert.Equal(t, []string{"audio/opus", "video/VP8", "video/H264"}, mimeTypes, "local order")
	assert.Equal(t, uint8(126), first.Codecs[2].RemoteRtxPayloadType)

	require.Len(t, first.HeaderExtensions, 2)
	assert.Equal(t, rtpparam.DirectionSendOnly, first.HeaderExtensions[1].Direction)
}

func TestGetExtendedRtpCapabilitiesFirstMatch(t *testing.T) {
	local := &rtpparam.RtpCapabilities{Codecs: []*rtpparam.RtpCodecCapability{vp8(96), vp8(98)}}
	remote := &rtpparam.RtpCapabilities{Codecs: []*rtpparam.RtpCodecCapability{vp8(101), vp8(103)}}

	ext, err := GetExtendedRtpCapabilities(local, remote)
	require.NoError(t, err)
	require.Len(t, ext.Codecs, 2)
	assert.Equal(t, uint8(101), ext.Codecs[0].RemotePayloadType)
	assert.Equal(t, uint8(103), ext.Codecs[1].RemotePayloadType)
}

func TestGetExtendedRtpCapabilitiesFeedback(t *testing.T) {
	local := &rtpparam.RtpCapabilities{Codecs: []*rtpparam.RtpCodecCapability{vp8(96)}}
	remoteVP8 := vp8(101)
	remoteVP8.RtcpFeedback = []rtpparam.RtcpFeedback{{Type: "nack", Parameter: "pli"}, {Type: "ccm", Parameter: "fir"}}
	remote := &rtpparam.RtpCapabilities{Codecs: []*rtpparam.RtpCodecCapability{remoteVP8}}

	ext, err := GetExtendedRtpCapabilities(local, remote)
	require.NoError(t, err)
	require.Len(t, ext.Codecs, 1)
	assert.Equal(t, []rtpparam.RtcpFeedback{{Type: "nack", Parameter: "pli"}}, ext.Codecs[0].RtcpFeedback)
}

func TestGetExtendedRtpCapabilitiesRtx(t *testing.T) {
	local := &rtpparam.RtpCapabilities{Codecs: []*rtpparam.RtpCodecCapability{
		vp8(96), rtx(97, 96),
		h264Codec(102, "42e01f", "1"), rtx(103, 102),
	}}
	remote := &rtpparam.RtpCapabilities{Codecs: []*rtpparam.RtpCodecCapability{
		vp8(101), rtx(102, 101),
		// Ends up unpaired: no remote H264 exists.
		rtx(104, 110),
	}}

	ext, err := GetExtendedRtpCapabilities(local, remote)
	require.NoError(t, err)
	require.Len(t, ext.Codecs, 1, "RTX is never a primary codec")

	c := ext.Codecs[0]
	assert.Equal(t, uint8(97), c.LocalRtxPayloadType)
	assert.Equal(t, uint8(102), c.RemoteRtxPayloadType)
	assert.True(t, c.HasRtx())
}

func TestGetExtendedRtpCapabilitiesSkipsFec(t *testing.T) {
	red := &rtpparam.RtpCodecCapability{MimeType: "video/red", ClockRate: 90000, PreferredPayloadType: 120}
	local := &rtpparam.RtpCapabilities{Codecs: []*rtpparam.RtpCodecCapability{red.Clone(), vp8(96)}}
	remote := &rtpparam.RtpCapabilities{Codecs: []*rtpparam.RtpCodecCapability{red.Clone(), vp8(101)}}

	ext, err := GetExtendedRtpCapabilities(local, remote)
	require.NoError(t, err)
	require.Len(t, ext.Codecs, 1)
	assert.Equal(t, "video/VP8", ext.Codecs[0].MimeType)
}

func TestGetExtendedRtpCapabilitiesH264(t *testing.T) {
	t.Run("profile mismatch", func(t *testing.T) {
		local := &rtpparam.RtpCapabilities{Codecs: []*rtpparam.RtpCodecCapability{h264Codec(102, "42e01f", "1")}}
		remote := &rtpparam.RtpCapabilities{Codecs: []*rtpparam.RtpCodecCapability{h264Codec(125, "640c1f", "1")}}

		ext, err := GetExtendedRtpCapabilities(local, remote)
		require.NoError(t, err)
		assert.Empty(t, ext.Codecs)
	})

	t.Run("packetization mode mismatch", func(t *testing.T) {
		local := &rtpparam.RtpCapabilities{Codecs: []*rtpparam.RtpCodecCapability{h264Codec(102, "42e01f", "1")}}
		remote := &rtpparam.RtpCapabilities{Codecs: []*rtpparam.RtpCodecCapability{h264Codec(125, "42e01f", "0")}}

		ext, err := GetExtendedRtpCapabilities(local, remote)
		require.NoError(t, err)
		assert.Empty(t, ext.Codecs)
	})

	t.Run("answer profile level id", func(t *testing.T) {
		localCodec := h264Codec(102, "42e01f", "1")
		delete(localCodec.Parameters, rtpparam.ParamLevelAsymmetryAllowed)
		local := &rtpparam.RtpCapabilities{Codecs: []*rtpparam.RtpCodecCapability{localCodec}}
		remote := &rtpparam.RtpCapabilities{Codecs: []*rtpparam.RtpCodecCapability{h264Codec(125, "42e00d", "1")}}

		ext, err := GetExtendedRtpCapabilities(local, remote)
		require.NoError(t, err)
		require.Len(t, ext.Codecs, 1)
		assert.Equal(t, "42e00d", ext.Codecs[0].LocalParameters[rtpparam.ParamProfileLevelID])
		assert.Equal(t, "42e01f", localCodec.Parameters[rtpparam.ParamProfileLevelID], "input must not be modified")
	})
}

func TestGetExtendedRtpCapabilitiesVP9Profile(t *testing.T) {
	vp9 := func(pt uint8, profile string) *rtpparam.RtpCodecCapability {
		return &rtpparam.RtpCodecCapability{
			MimeType:             "video/VP9",
			PreferredPayloadType: pt,
			ClockRate:            90000,
			Parameters:           rtpparam.CodecParameters{rtpparam.ParamProfileID: profile},
		}
	}
	local := &rtpparam.RtpCapabilities{Codecs: []*rtpparam.RtpCodecCapability{vp9(98, "2"), vp9(100, "0")}}
	remote := &rtpparam.RtpCapabilities{Codecs: []*rtpparam.RtpCodecCapability{vp9(103, "0")}}

	ext, err := GetExtendedRtpCapabilities(local, remote)
	require.NoError(t, err)
	require.Len(t, ext.Codecs, 1)
	assert.Equal(t, uint8(100), ext.Codecs[0].LocalPayloadType)
}

func TestGetExtendedRtpCapabilitiesHeaderExtensions(t *testing.T) {
	const (
		uriMid   = "urn:ietf:params:rtp-hdrext:sdes:mid"
		uriLevel = "urn:ietf:params:rtp-hdrext:ssrc-audio-level"
		uriOrien = "urn:3gpp:video-orientation"
	)
	local := &rtpparam.RtpCapabilities{
		Codecs: []*rtpparam.RtpCodecCapability{opus(111)},
		HeaderExtensions: []*rtpparam.RtpHeaderExtension{
			hdrExt(rtpparam.MediaKindAudio, uriMid, 1, ""),
			hdrExt(rtpparam.MediaKindAudio, uriLevel, 2, rtpparam.DirectionSendRecv),
			hdrExt(rtpparam.MediaKindVideo, uriOrien, 3, rtpparam.DirectionSendOnly),
			hdrExt(rtpparam.MediaKindVideo, URITransportWideCC, 4, rtpparam.DirectionSendRecv),
		},
	}
	remote := &rtpparam.RtpCapabilities{
		Codecs: []*rtpparam.RtpCodecCapability{opus(100)},
		HeaderExtensions: []*rtpparam.RtpHeaderExtension{
			hdrExt(rtpparam.MediaKindAudio, uriMid, 10, rtpparam.DirectionSendRecv),
			// The remote only sends: locally that means receive only.
			hdrExt(rtpparam.MediaKindAudio, uriLevel, 11, rtpparam.DirectionSendOnly),
			// Local send only against remote send only leaves nothing.
			hdrExt(rtpparam.MediaKindVideo, uriOrien, 12, rtpparam.DirectionSendOnly),
			// Same URI, wrong kind.
			hdrExt(rtpparam.MediaKindAudio, URITransportWideCC, 13, rtpparam.DirectionSendRecv),
		},
	}

	ext, err := GetExtendedRtpCapabilities(local, remote)
	require.NoError(t, err)
	require.Len(t, ext.HeaderExtensions, 2)

	assert.Equal(t, &rtpparam.ExtendedHeaderExtension{
		Kind: rtpparam.MediaKindAudio, URI: uriMid, SendID: 1, RecvID: 10, Direction: rtpparam.DirectionSendRecv,
	}, ext.HeaderExtensions[0])
	assert.Equal(t, &rtpparam.ExtendedHeaderExtension{
		Kind: rtpparam.MediaKindAudio, URI: uriLevel, SendID: 2, RecvID: 11, Direction: rtpparam.DirectionRecvOnly,
	}, ext.HeaderExtensions[1])

	assert.Equal(t, rtpparam.MediaDirection(""), local.HeaderExtensions[0].Direction, "input must not be modified")
}

func TestGetExtendedRtpCapabilitiesInvalid(t *testing.T) {
	tests := []struct {
		name   string
		local  *rtpparam.RtpCapabilities
		remote *rtpparam.RtpCapabilities
	}{
		{"nil local", nil, &rtpparam.RtpCapabilities{}},
		{"bad mimeType", &rtpparam.RtpCapabilities{}, &rtpparam.RtpCapabilities{
			Codecs: []*rtpparam.RtpCodecCapability{{MimeType: "foo", ClockRate: 1}},
		}},
		{"missing clockRate", &rtpparam.RtpCapabilities{
			Codecs: []*rtpparam.RtpCodecCapability{{MimeType: "audio/opus"}},
		}, &rtpparam.RtpCapabilities{}},
		{"rtx without apt", &rtpparam.RtpCapabilities{
			Codecs: []*rtpparam.RtpCodecCapability{{MimeType: "video/rtx", ClockRate: 90000}},
		}, &rtpparam.RtpCapabilities{}},
		{"missing ext uri", &rtpparam.RtpCapabilities{}, &rtpparam.RtpCapabilities{
			HeaderExtensions: []*rtpparam.RtpHeaderExtension{{Kind: rtpparam.MediaKindAudio, PreferredID: 1}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GetExtendedRtpCapabilities(tt.local, tt.remote)
			assert.True(t, errors.Is(err, mediaerr.ErrNegotiation), "err = %v", err)
		})
	}
}

func TestGetExtendedRtpCapabilitiesEmpty(t *testing.T) {
	ext, err := GetExtendedRtpCapabilities(
		&rtpparam.RtpCapabilities{Codecs: []*rtpparam.RtpCodecCapability{opus(111)}},
		&rtpparam.RtpCapabilities{Codecs: []*rtpparam.RtpCodecCapability{vp8(96)}},
	)
	require.NoError(t, err)
	assert.Empty(t, ext.Codecs)
	assert.Equal(t, rtpparam.CanProduceByKind{}, CanProduceByKind(ext))
}
