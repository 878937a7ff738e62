package fake

import (
	"context"
	"errors"
	"testing"

	"github.com/backkem/mediasoupclient/pkg/handler"
	"github.com/backkem/mediasoupclient/pkg/mediaerr"
	"github.com/backkem/mediasoupclient/pkg/ortc"
	"github.com/backkem/mediasoupclient/pkg/rtpparam"
	"github.com/backkem/mediasoupclient/pkg/transportparam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEvents struct {
	connects   int
	connectErr error
	states     []transportparam.ConnectionState
}

func (e *recordingEvents) OnConnect(ctx context.Context, dtls transportparam.DtlsParameters) error {
	e.connects++
	return e.connectErr
}

func (e *recordingEvents) OnConnectionStateChange(state transportparam.ConnectionState) {
	e.states = append(e.states, state)
}

func newTestHandler(t *testing.T, dir handler.Direction, events *recordingEvents) *Handler {
	t.Helper()

	ext, err := ortc.GetExtendedRtpCapabilities(DefaultRtpCapabilities(), DefaultRtpCapabilities())
	require.NoError(t, err)

	f := &Factory{}
	h, err := f.New(handler.Options{
		Direction:               dir,
		ExtendedRtpCapabilities: ext,
		SctpParameters:          &transportparam.SctpParameters{Port: 5000, OS: 2, MIS: 2, MaxMessageSize: 262144},
		Events:                  events,
	})
	require.NoError(t, err)
	assert.Same(t, h, f.Last())
	return h.(*Handler)
}

func TestHandlerSend(t *testing.T) {
	events := &recordingEvents{}
	h := newTestHandler(t, handler.DirectionSend, events)

	res, err := h.Send(context.Background(), handler.SendOptions{
		Track:     NewTrack(rtpparam.MediaKindVideo),
		Encodings: []*rtpparam.RtpEncodingParameters{{Rid: "r0"}, {Rid: "r1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "0", res.LocalID)
	assert.Equal(t, 1, events.connects)
	assert.Equal(t, transportparam.DtlsRoleServer, h.dtls.Role)

	params := res.RtpParameters
	require.Len(t, params.Codecs, 2)
	assert.Equal(t, "video/VP8", params.Codecs[0].MimeType)
	require.Len(t, params.Encodings, 2)
	assert.NotNil(t, params.Encodings[0].Rtx)
	assert.NotEqual(t, params.Encodings[0].Ssrc, params.Encodings[1].Ssrc)

	_, err = h.Send(context.Background(), handler.SendOptions{Track: NewTrack(rtpparam.MediaKindAudio)})
	require.NoError(t, err)
	assert.Equal(t, 1, events.connects, "connect is raised once")
	assert.Equal(t, 2, h.Senders())

	require.NoError(t, h.SetMaxSpatialLayer(context.Background(), "0", 0))
	encs := h.SenderEncodings("0")
	assert.True(t, encs[0].IsActive())
	assert.False(t, encs[1].IsActive())

	require.NoError(t, h.StopSending(context.Background(), "0"))
	assert.ErrorIs(t, h.StopSending(context.Background(), "0"), handler.ErrUnknownLocalID)
}

func TestHandlerSendPreferredCodec(t *testing.T) {
	h := newTestHandler(t, handler.DirectionSend, &recordingEvents{})

	res, err := h.Send(context.Background(), handler.SendOptions{
		Track: NewTrack(rtpparam.MediaKindVideo),
		Codec: DefaultRtpCapabilities().Codecs[3],
	})
	require.NoError(t, err)
	assert.Equal(t, "video/H264", res.RtpParameters.Codecs[0].MimeType)
}

func TestHandlerConnectFailure(t *testing.T) {
	errDenied := errors.New("denied")
	h := newTestHandler(t, handler.DirectionRecv, &recordingEvents{connectErr: errDenied})

	_, err := h.Receive(context.Background(), handler.ReceiveOptions{
		TrackID:       "t1",
		Kind:          rtpparam.MediaKindAudio,
		RtpParameters: &rtpparam.RtpParameters{},
	})
	assert.ErrorIs(t, err, errDenied)
	assert.False(t, h.Connected())
}

func TestHandlerDirection(t *testing.T) {
	h := newTestHandler(t, handler.DirectionRecv, &recordingEvents{})
	_, err := h.Send(context.Background(), handler.SendOptions{Track: NewTrack(rtpparam.MediaKindAudio)})
	assert.True(t, mediaerr.IsUnsupported(err))
}

func TestHandlerHooks(t *testing.T) {
	h := newTestHandler(t, handler.DirectionRecv, &recordingEvents{})

	errBoom := errors.New("boom")
	h.SetError(MethodReceive, errBoom)
	_, err := h.Receive(context.Background(), handler.ReceiveOptions{RtpParameters: &rtpparam.RtpParameters{}})
	assert.ErrorIs(t, err, errBoom)

	h.SetError(MethodReceive, nil)
	res, err := h.Receive(context.Background(), handler.ReceiveOptions{
		TrackID:       "t1",
		Kind:          rtpparam.MediaKindVideo,
		RtpParameters: &rtpparam.RtpParameters{Mid: "probator"},
	})
	require.NoError(t, err)
	assert.Equal(t, "probator", res.LocalID)
	assert.Equal(t, 2, h.CallCount(MethodReceive))

	require.NoError(t, h.Close())
	assert.True(t, h.Closed())
	assert.Equal(t, 0, h.Receivers())
	_, err = h.GetTransportStats(context.Background())
	assert.ErrorIs(t, err, handler.ErrClosed)
	assert.Equal(t, []string{MethodReceive, MethodReceive, MethodClose, MethodGetTransportStats}, h.Calls())
}

func TestHandlerDataChannels(t *testing.T) {
	h := newTestHandler(t, handler.DirectionSend, &recordingEvents{})

	ids := []uint16{}
	for i := 0; i < 3; i++ {
		res, err := h.SendDataChannel(context.Background(), handler.SendDataChannelOptions{Ordered: true, Label: "chat"})
		require.NoError(t, err)
		ids = append(ids, res.SctpStreamParameters.StreamID)
		assert.Equal(t, "chat", res.DataChannel.Label())
	}
	assert.Equal(t, []uint16{0, 1, 0}, ids, "stream ids wrap at OS")

	res, err := h.ReceiveDataChannel(context.Background(), handler.ReceiveDataChannelOptions{Label: "in"})
	require.NoError(t, err)
	require.NoError(t, h.Close())
	assert.True(t, res.DataChannel.(*DataChannel).Closed())
}

func TestFactoryCapabilities(t *testing.T) {
	f := &Factory{}
	caps, err := f.NativeRtpCapabilities(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, caps.Codecs)

	sctp, err := f.NativeSctpCapabilities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint16(1024), sctp.NumStreams.OS)

	f.CapabilitiesErr = errors.New("no engine")
	_, err = f.NativeRtpCapabilities(context.Background())
	assert.Error(t, err)
}
