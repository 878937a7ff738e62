package pionhandler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/backkem/mediasoupclient/pkg/handler"
	"github.com/backkem/mediasoupclient/pkg/mediaerr"
	"github.com/backkem/mediasoupclient/pkg/ortc"
	"github.com/backkem/mediasoupclient/pkg/rtpparam"
	"github.com/backkem/mediasoupclient/pkg/transportparam"
	"github.com/pion/sdp/v3"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEvents struct {
	mu         sync.Mutex
	dtls       []transportparam.DtlsParameters
	connectErr error
	states     []transportparam.ConnectionState
}

func (e *recordingEvents) OnConnect(ctx context.Context, dtls transportparam.DtlsParameters) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dtls = append(e.dtls, dtls)
	return e.connectErr
}

func (e *recordingEvents) OnConnectionStateChange(state transportparam.ConnectionState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.states = append(e.states, state)
}

func (e *recordingEvents) connects() []transportparam.DtlsParameters {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]transportparam.DtlsParameters(nil), e.dtls...)
}

func remoteFingerprint() transportparam.DtlsFingerprint {
	parts := make([]string, 32)
	for i := range parts {
		parts[i] = "AB"
	}
	return transportparam.DtlsFingerprint{Algorithm: "sha-256", Value: strings.Join(parts, ":")}
}

func newTestHandler(t *testing.T, dir handler.Direction, events *recordingEvents) *Handler {
	t.Helper()

	f := NewFactory(Config{})
	native, err := f.NativeRtpCapabilities(context.Background())
	require.NoError(t, err)
	ext, err := ortc.GetExtendedRtpCapabilities(native, native)
	require.NoError(t, err)

	h, err := f.New(handler.Options{
		Direction: dir,
		IceParameters: transportparam.IceParameters{
			UsernameFragment: "remoteufrag1234",
			Password:         "remotepassword0123456789",
			IceLite:          true,
		},
		IceCandidates: []transportparam.IceCandidate{{
			Foundation: "udpcandidate",
			Priority:   1076302079,
			IP:         "127.0.0.1",
			Protocol:   "udp",
			Port:       40000,
			Type:       "host",
		}},
		DtlsParameters: transportparam.DtlsParameters{
			Role:         transportparam.DtlsRoleAuto,
			Fingerprints: []transportparam.DtlsFingerprint{remoteFingerprint()},
		},
		SctpParameters:          &transportparam.SctpParameters{Port: 5000, OS: 1024, MIS: 1024, MaxMessageSize: 262144},
		ExtendedRtpCapabilities: ext,
		Events:                  events,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h.(*Handler)
}

func newAudioTrack(t *testing.T) *Track {
	t.Helper()
	local, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, "audio", "stream")
	require.NoError(t, err)
	return NewTrack(local)
}

func hasCodec(caps *rtpparam.RtpCapabilities, mimeType string) bool {
	for _, c := range caps.Codecs {
		if strings.EqualFold(c.MimeType, mimeType) {
			return true
		}
	}
	return false
}

func TestNativeCapabilities(t *testing.T) {
	f := NewFactory(Config{})
	assert.Equal(t, Name, f.Name())

	caps, err := f.NativeRtpCapabilities(context.Background())
	require.NoError(t, err)
	require.NoError(t, ortc.ValidateRtpCapabilities(caps))
	assert.True(t, hasCodec(caps, "audio/opus"))
	assert.True(t, hasCodec(caps, "video/VP8"))
	assert.True(t, hasCodec(caps, "video/rtx"))

	var mid bool
	for _, ext := range caps.HeaderExtensions {
		if ext.URI == sdp.SDESMidURI {
			mid = true
		}
	}
	assert.True(t, mid, "mid header extension registered")

	sctp, err := f.NativeSctpCapabilities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint16(sctpNumStreams), sctp.NumStreams.OS)
	assert.Equal(t, uint16(sctpNumStreams), sctp.NumStreams.MIS)
}

func TestFactoryNewValidation(t *testing.T) {
	f := NewFactory(Config{})
	ext := &rtpparam.ExtendedRtpCapabilities{}

	_, err := f.New(handler.Options{Direction: "sideways", Events: &recordingEvents{}, ExtendedRtpCapabilities: ext})
	assert.True(t, mediaerr.IsInvalidArgument(err))

	_, err = f.New(handler.Options{Direction: handler.DirectionSend, ExtendedRtpCapabilities: ext})
	assert.True(t, mediaerr.IsInvalidArgument(err))

	_, err = f.New(handler.Options{Direction: handler.DirectionSend, Events: &recordingEvents{}})
	assert.True(t, mediaerr.IsInvalidArgument(err))
}

func TestConnectionStateMapping(t *testing.T) {
	cases := []struct {
		in   webrtc.PeerConnectionState
		want transportparam.ConnectionState
	}{
		{webrtc.PeerConnectionStateNew, transportparam.ConnectionStateNew},
		{webrtc.PeerConnectionStateConnecting, transportparam.ConnectionStateConnecting},
		{webrtc.PeerConnectionStateConnected, transportparam.ConnectionStateConnected},
		{webrtc.PeerConnectionStateDisconnected, transportparam.ConnectionStateDisconnected},
		{webrtc.PeerConnectionStateFailed, transportparam.ConnectionStateFailed},
		{webrtc.PeerConnectionStateClosed, transportparam.ConnectionStateClosed},
	}
	for _, c := range cases {
		t.Run(c.in.String(), func(t *testing.T) {
			got, ok := connectionState(c.in)
			require.True(t, ok)
			assert.Equal(t, c.want, got)
		})
	}

	_, ok := connectionState(webrtc.PeerConnectionStateUnknown)
	assert.False(t, ok)
}

func TestIceConfiguration(t *testing.T) {
	servers := iceServers([]transportparam.IceServer{
		{URLs: []string{"stun:stun.example.org:3478"}},
		{URLs: []string{"turn:turn.example.org:3478"}, Username: "u", Credential: "p"},
	})
	require.Len(t, servers, 2)
	assert.Nil(t, servers[0].Credential)
	assert.Equal(t, "p", servers[1].Credential)
	assert.Equal(t, webrtc.ICECredentialTypePassword, servers[1].CredentialType)

	assert.Equal(t, webrtc.ICETransportPolicyRelay, iceTransportPolicy(transportparam.IceTransportPolicyRelay))
	assert.Equal(t, webrtc.ICETransportPolicyAll, iceTransportPolicy(""))
}

func TestApplyCodecOptions(t *testing.T) {
	params := &rtpparam.RtpParameters{Codecs: []*rtpparam.RtpCodecParameters{
		{MimeType: "audio/opus", PayloadType: 111, ClockRate: 48000, Channels: 2},
		{MimeType: "video/VP8", PayloadType: 96, ClockRate: 90000},
		{MimeType: "video/rtx", PayloadType: 97, ClockRate: 90000, Parameters: rtpparam.CodecParameters{"apt": "96"}},
	}}
	stereo, dtx := true, false
	ptime, start := uint32(20), uint32(1000)

	applyCodecOptions(params, &handler.CodecOptions{
		OpusStereo:              &stereo,
		OpusDtx:                 &dtx,
		OpusPtime:               &ptime,
		VideoGoogleStartBitrate: &start,
	})

	assert.Equal(t, rtpparam.CodecParameters{
		"stereo":       "1",
		"sprop-stereo": "1",
		"usedtx":       "0",
		"ptime":        "20",
	}, params.Codecs[0].Parameters)
	assert.Equal(t, rtpparam.CodecParameters{"x-google-start-bitrate": "1000"}, params.Codecs[1].Parameters)
	assert.Equal(t, rtpparam.CodecParameters{"apt": "96"}, params.Codecs[2].Parameters)

	applyCodecOptions(params, nil)
	assert.Len(t, params.Codecs[0].Parameters, 4)
}

func TestTrack(t *testing.T) {
	track := newAudioTrack(t)
	assert.Equal(t, "audio", track.ID())
	assert.Equal(t, rtpparam.MediaKindAudio, track.Kind())
	assert.False(t, track.Ended())

	assert.True(t, track.Enabled())
	track.SetEnabled(false)
	assert.False(t, track.Enabled())
	require.NoError(t, track.WriteSample(media.Sample{Data: []byte{0x01}, Duration: 20 * time.Millisecond}))
	track.SetEnabled(true)
	require.NoError(t, track.WriteSample(media.Sample{Data: []byte{0x01}, Duration: 20 * time.Millisecond}))

	track.Stop()
	assert.True(t, track.Ended())

	rtpTrack, err := webrtc.NewTrackLocalStaticRTP(webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "video", "stream")
	require.NoError(t, err)
	assert.ErrorIs(t, NewTrack(rtpTrack).WriteSample(media.Sample{}), ErrNotSampleTrack)
}

func TestSend(t *testing.T) {
	events := &recordingEvents{}
	h := newTestHandler(t, handler.DirectionSend, events)
	ctx := context.Background()

	res, err := h.Send(ctx, handler.SendOptions{Track: newAudioTrack(t)})
	require.NoError(t, err)
	assert.Equal(t, res.RtpParameters.Mid, res.LocalID)
	assert.IsType(t, &webrtc.RTPSender{}, res.RtpSender)

	params := res.RtpParameters
	require.NotEmpty(t, params.Codecs)
	assert.True(t, strings.EqualFold(params.Codecs[0].MimeType, "audio/opus"))
	require.Len(t, params.Encodings, 1)
	assert.NotZero(t, params.Encodings[0].Ssrc)
	assert.NotEmpty(t, params.Rtcp.Cname)

	dtls := events.connects()
	require.Len(t, dtls, 1)
	assert.Equal(t, transportparam.DtlsRoleServer, dtls[0].Role)
	assert.NotEmpty(t, dtls[0].Fingerprints)

	assert.True(t, mediaerr.IsUnsupported(h.SetMaxSpatialLayer(ctx, res.LocalID, 0)))
	assert.True(t, mediaerr.IsUnsupported(h.SetRtpEncodingParameters(ctx, res.LocalID, handler.EncodingUpdate{})))
	assert.ErrorIs(t, h.SetMaxSpatialLayer(ctx, "missing", 0), handler.ErrUnknownLocalID)

	_, err = h.GetSenderStats(ctx, res.LocalID)
	require.NoError(t, err)

	require.NoError(t, h.StopSending(ctx, res.LocalID))
	assert.ErrorIs(t, h.StopSending(ctx, res.LocalID), handler.ErrUnknownLocalID)
	assert.Len(t, events.connects(), 1, "connect is raised once")
}

func TestSendRejects(t *testing.T) {
	ctx := context.Background()

	h := newTestHandler(t, handler.DirectionSend, &recordingEvents{})
	_, err := h.Send(ctx, handler.SendOptions{
		Track:     newAudioTrack(t),
		Encodings: []*rtpparam.RtpEncodingParameters{{Rid: "r0"}, {Rid: "r1"}},
	})
	assert.True(t, mediaerr.IsUnsupported(err))

	_, err = h.Send(ctx, handler.SendOptions{})
	assert.True(t, mediaerr.IsInvalidArgument(err))

	recv := newTestHandler(t, handler.DirectionRecv, &recordingEvents{})
	_, err = recv.Send(ctx, handler.SendOptions{Track: newAudioTrack(t)})
	assert.True(t, mediaerr.IsUnsupported(err))
}

func TestSendConnectFailure(t *testing.T) {
	errDenied := errors.New("denied")
	h := newTestHandler(t, handler.DirectionSend, &recordingEvents{connectErr: errDenied})

	_, err := h.Send(context.Background(), handler.SendOptions{Track: newAudioTrack(t)})
	assert.ErrorIs(t, err, errDenied)
	assert.False(t, h.transportReady)
}

func TestReceive(t *testing.T) {
	events := &recordingEvents{}
	h := newTestHandler(t, handler.DirectionRecv, events)
	ctx := context.Background()

	params := ortc.GetReceivingRtpParameters(rtpparam.MediaKindAudio, h.ext)
	codecs, err := ortc.ReduceCodecs(params.Codecs, nil)
	require.NoError(t, err)
	params.Codecs = codecs
	params.Encodings = []*rtpparam.RtpEncodingParameters{{Ssrc: 11111111}}
	params.Rtcp = &rtpparam.RtcpParameters{Cname: "remote"}

	res, err := h.Receive(ctx, handler.ReceiveOptions{TrackID: "consumer-1", Kind: rtpparam.MediaKindAudio, RtpParameters: params})
	require.NoError(t, err)
	assert.Equal(t, "0", res.LocalID)
	assert.NotNil(t, res.RtpReceiver)

	dtls := events.connects()
	require.Len(t, dtls, 1)
	assert.Equal(t, transportparam.DtlsRoleClient, dtls[0].Role)

	_, err = h.GetReceiverStats(ctx, res.LocalID)
	require.NoError(t, err)

	require.NoError(t, h.StopReceiving(ctx, res.LocalID))
	assert.ErrorIs(t, h.StopReceiving(ctx, res.LocalID), handler.ErrUnknownLocalID)
}

func TestClose(t *testing.T) {
	h := newTestHandler(t, handler.DirectionSend, &recordingEvents{})
	require.NoError(t, h.Close())
	require.NoError(t, h.Close())

	_, err := h.GetTransportStats(context.Background())
	assert.ErrorIs(t, err, handler.ErrClosed)
	_, err = h.Send(context.Background(), handler.SendOptions{Track: newAudioTrack(t)})
	assert.ErrorIs(t, err, handler.ErrClosed)
	_, err = h.SendDataChannel(context.Background(), handler.SendDataChannelOptions{Label: "x"})
	assert.ErrorIs(t, err, handler.ErrClosed)
}
