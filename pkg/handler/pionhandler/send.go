package pionhandler

import (
	"context"

	"github.com/backkem/mediasoupclient/pkg/handler"
	"github.com/backkem/mediasoupclient/pkg/mediaerr"
	"github.com/backkem/mediasoupclient/pkg/ortc"
	"github.com/backkem/mediasoupclient/pkg/rtpparam"
	"github.com/backkem/mediasoupclient/pkg/sdputil"
	"github.com/backkem/mediasoupclient/pkg/transportparam"
	"github.com/pion/webrtc/v4"
)

// Send implements handler.Handler.
func (h *Handler) Send(ctx context.Context, opts handler.SendOptions) (*handler.SendResult, error) {
	if err := h.checkDirection(handler.DirectionSend); err != nil {
		return nil, err
	}
	track, ok := opts.Track.(*Track)
	if !ok || track == nil {
		return nil, mediaerr.InvalidArgument("track is not a pion track")
	}
	if len(opts.Encodings) > 1 {
		return nil, mediaerr.Unsupported("simulcast is not supported by the pion handler")
	}
	kind := track.Kind()
	h.log.Debugf("send() [kind:%s, track.id:%s]", kind, track.ID())

	sending := ortc.GetSendingRtpParameters(kind, h.ext)
	codecs, err := ortc.ReduceCodecs(sending.Codecs, opts.Codec)
	if err != nil {
		return nil, err
	}
	sending.Codecs = codecs

	remote := ortc.GetSendingRemoteRtpParameters(kind, h.ext)
	if remote.Codecs, err = ortc.ReduceCodecs(remote.Codecs, opts.Codec); err != nil {
		return nil, err
	}
	applyCodecOptions(remote, opts.CodecOptions)

	tr, err := h.pc.AddTransceiverFromTrack(track.TrackLocal(), webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionSendonly,
	})
	if err != nil {
		return nil, h.wrap(err, "add transceiver")
	}

	offer, err := h.pc.CreateOffer(nil)
	if err != nil {
		h.dropSender(tr)
		return nil, h.wrap(err, "create offer")
	}
	local, err := sdputil.Parse(offer.SDP)
	if err != nil {
		h.dropSender(tr)
		return nil, err
	}
	if err := h.setupTransportOnce(ctx, transportparam.DtlsRoleServer, local); err != nil {
		h.dropSender(tr)
		return nil, err
	}
	if err := h.pc.SetLocalDescription(offer); err != nil {
		h.dropSender(tr)
		return nil, h.wrap(err, "set local description")
	}

	mid := tr.Mid()
	offerMedia, ok := sdputil.FindMedia(local, mid)
	if !ok {
		return nil, mediaerr.InvalidState("no offer section for mid %q", mid)
	}
	encodings, err := sdputil.GetRtpEncodings(offerMedia)
	if err != nil {
		return nil, err
	}
	if len(opts.Encodings) == 1 {
		mergeEncoding(encodings[0], opts.Encodings[0])
	}

	sending.Mid = mid
	sending.Encodings = encodings
	sending.Rtcp.Cname = sdputil.GetCname(offerMedia)
	remote.Mid = mid

	if err := h.remoteSdp.Send(sdputil.SendOptions{OfferMedia: offerMedia, AnswerRtpParameters: remote}); err != nil {
		return nil, err
	}
	if err := h.applyRemoteAnswer(); err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.senders[mid] = &sendMedia{transceiver: tr, answer: remote, ssrcs: encodingSsrcs(encodings)}
	h.mu.Unlock()

	return &handler.SendResult{
		LocalID:       mid,
		RtpParameters: sending,
		RtpSender:     tr.Sender(),
	}, nil
}

// dropSender detaches the track of a transceiver that was never negotiated.
func (h *Handler) dropSender(tr *webrtc.RTPTransceiver) {
	if err := h.pc.RemoveTrack(tr.Sender()); err != nil {
		h.log.Warnf("remove track after failed send: %v", err)
	}
}

// StopSending implements handler.Handler. The section stays in the SDP as
// inactive.
func (h *Handler) StopSending(ctx context.Context, localID string) error {
	if err := h.checkDirection(handler.DirectionSend); err != nil {
		return err
	}
	m, err := h.sender(localID)
	if err != nil {
		return err
	}
	h.log.Debugf("stopSending() [localId:%s]", localID)

	h.mu.Lock()
	delete(h.senders, localID)
	h.mu.Unlock()

	if err := h.pc.RemoveTrack(m.transceiver.Sender()); err != nil {
		return h.wrap(err, "remove track")
	}

	offer, err := h.pc.CreateOffer(nil)
	if err != nil {
		return h.wrap(err, "create offer")
	}
	local, err := sdputil.Parse(offer.SDP)
	if err != nil {
		return err
	}
	if err := h.pc.SetLocalDescription(offer); err != nil {
		return h.wrap(err, "set local description")
	}
	offerMedia, ok := sdputil.FindMedia(local, localID)
	if !ok {
		return mediaerr.InvalidState("no offer section for mid %q", localID)
	}
	if err := h.remoteSdp.Send(sdputil.SendOptions{OfferMedia: offerMedia, AnswerRtpParameters: m.answer}); err != nil {
		return err
	}
	return h.applyRemoteAnswer()
}

// ReplaceTrack implements handler.Handler.
func (h *Handler) ReplaceTrack(ctx context.Context, localID string, track handler.Track) error {
	if err := h.checkDirection(handler.DirectionSend); err != nil {
		return err
	}
	m, err := h.sender(localID)
	if err != nil {
		return err
	}
	t, ok := track.(*Track)
	if !ok || t == nil {
		return mediaerr.InvalidArgument("track is not a pion track")
	}
	if err := m.transceiver.Sender().ReplaceTrack(t.TrackLocal()); err != nil {
		return h.wrap(err, "replace track")
	}
	return nil
}

// SetMaxSpatialLayer implements handler.Handler.
func (h *Handler) SetMaxSpatialLayer(ctx context.Context, localID string, spatialLayer uint8) error {
	if err := h.checkDirection(handler.DirectionSend); err != nil {
		return err
	}
	if _, err := h.sender(localID); err != nil {
		return err
	}
	return mediaerr.Unsupported("spatial layers are not supported by the pion handler")
}

// SetRtpEncodingParameters implements handler.Handler.
func (h *Handler) SetRtpEncodingParameters(ctx context.Context, localID string, params handler.EncodingUpdate) error {
	if err := h.checkDirection(handler.DirectionSend); err != nil {
		return err
	}
	if _, err := h.sender(localID); err != nil {
		return err
	}
	return mediaerr.Unsupported("encoding updates are not supported by the pion handler")
}

// GetSenderStats implements handler.Handler.
func (h *Handler) GetSenderStats(ctx context.Context, localID string) (handler.StatsReport, error) {
	if err := h.checkDirection(handler.DirectionSend); err != nil {
		return nil, err
	}
	m, err := h.sender(localID)
	if err != nil {
		return nil, err
	}
	return filterStats(h.pc.GetStats(), func(s webrtc.Stats) bool {
		ssrc, ok := streamSsrc(s)
		return ok && m.ssrcs[ssrc]
	}), nil
}

func (h *Handler) sender(localID string) (*sendMedia, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.senders[localID]
	if !ok {
		return nil, handler.ErrUnknownLocalID
	}
	return m, nil
}

// mergeEncoding copies the application settings of want onto the encoding
// read from the local offer. SSRCs are kept.
func mergeEncoding(enc, want *rtpparam.RtpEncodingParameters) {
	if want == nil {
		return
	}
	enc.Dtx = want.Dtx
	enc.ScalabilityMode = want.ScalabilityMode
	enc.ScaleResolutionDownBy = want.ScaleResolutionDownBy
	enc.MaxBitrate = want.MaxBitrate
	enc.MaxFramerate = want.MaxFramerate
	enc.Priority = want.Priority
	enc.NetworkPriority = want.NetworkPriority
	if want.Active != nil {
		enc.Active = rtpparam.Bool(*want.Active)
	}
}
