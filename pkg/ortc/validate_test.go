package ortc

import (
	"testing"

	"github.com/backkem/mediasoupclient/pkg/mediaerr"
	"github.com/backkem/mediasoupclient/pkg/rtpparam"
	"github.com/backkem/mediasoupclient/pkg/transportparam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRtpCodecCapabilityDefaults(t *testing.T) {
	codec := &rtpparam.RtpCodecCapability{MimeType: "audio/opus", ClockRate: 48000}
	require.NoError(t, ValidateRtpCodecCapability(codec))
	assert.Equal(t, rtpparam.MediaKindAudio, codec.Kind)
	assert.Equal(t, uint8(1), codec.Channels)
	assert.NotNil(t, codec.Parameters)

	video := &rtpparam.RtpCodecCapability{MimeType: "video/VP8", ClockRate: 90000, Channels: 2}
	require.NoError(t, ValidateRtpCodecCapability(video))
	assert.Equal(t, uint8(0), video.Channels)

	wrongKind := &rtpparam.RtpCodecCapability{Kind: rtpparam.MediaKindAudio, MimeType: "video/VP8", ClockRate: 90000}
	assert.True(t, mediaerr.IsInvalidArgument(ValidateRtpCodecCapability(wrongKind)))
}

func TestValidateRtpHeaderExtension(t *testing.T) {
	ext := &rtpparam.RtpHeaderExtension{Kind: rtpparam.MediaKindVideo, URI: URIAbsSendTime, PreferredID: 3}
	require.NoError(t, ValidateRtpHeaderExtension(ext))
	assert.Equal(t, rtpparam.DirectionSendRecv, ext.Direction)

	ext.Direction = "sideways"
	assert.Error(t, ValidateRtpHeaderExtension(ext))

	assert.Error(t, ValidateRtpHeaderExtension(&rtpparam.RtpHeaderExtension{URI: URIAbsSendTime, PreferredID: 3}))
}

func TestValidateRtpParameters(t *testing.T) {
	params := &rtpparam.RtpParameters{
		Codecs: []*rtpparam.RtpCodecParameters{{MimeType: "audio/opus", PayloadType: 100, ClockRate: 48000}},
	}
	require.NoError(t, ValidateRtpParameters(params))
	require.NotNil(t, params.Rtcp)
	assert.True(t, *params.Rtcp.ReducedSize)
	assert.Equal(t, uint8(1), params.Codecs[0].Channels)

	bad := &rtpparam.RtpParameters{HeaderExtensions: []*rtpparam.RtpHeaderExtensionParameters{{URI: "x"}}}
	assert.True(t, mediaerr.IsInvalidArgument(ValidateRtpParameters(bad)))
	assert.True(t, mediaerr.IsInvalidArgument(ValidateRtpParameters(nil)))
}

func TestValidateSctpStreamParameters(t *testing.T) {
	u16 := func(v uint16) *uint16 { return &v }

	t.Run("default ordered", func(t *testing.T) {
		p := &transportparam.SctpStreamParameters{StreamID: 1}
		require.NoError(t, ValidateSctpStreamParameters(p))
		assert.True(t, *p.Ordered)
	})

	t.Run("partial reliability unordered", func(t *testing.T) {
		p := &transportparam.SctpStreamParameters{StreamID: 1, MaxRetransmits: u16(3)}
		require.NoError(t, ValidateSctpStreamParameters(p))
		assert.False(t, *p.Ordered)
	})

	t.Run("ordered with limit", func(t *testing.T) {
		p := &transportparam.SctpStreamParameters{StreamID: 1, Ordered: rtpparam.Bool(true), MaxPacketLifeTime: u16(100)}
		assert.Error(t, ValidateSctpStreamParameters(p))
	})

	t.Run("both limits", func(t *testing.T) {
		p := &transportparam.SctpStreamParameters{StreamID: 1, MaxPacketLifeTime: u16(100), MaxRetransmits: u16(3)}
		assert.Error(t, ValidateSctpStreamParameters(p))
	})
}

func TestValidateSctp(t *testing.T) {
	assert.NoError(t, ValidateSctpCapabilities(&transportparam.SctpCapabilities{
		NumStreams: transportparam.NumSctpStreams{OS: 1024, MIS: 1024},
	}))
	assert.Error(t, ValidateSctpCapabilities(&transportparam.SctpCapabilities{}))

	assert.NoError(t, ValidateSctpParameters(&transportparam.SctpParameters{Port: 5000, OS: 1024, MIS: 1024, MaxMessageSize: 262144}))
	assert.Error(t, ValidateSctpParameters(&transportparam.SctpParameters{Port: 5000, OS: 1024, MIS: 1024}))
}
