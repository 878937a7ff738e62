package pionhandler

import (
	"context"

	"github.com/backkem/mediasoupclient/pkg/handler"
	"github.com/backkem/mediasoupclient/pkg/mediaerr"
	"github.com/backkem/mediasoupclient/pkg/sdputil"
	"github.com/backkem/mediasoupclient/pkg/transportparam"
	"github.com/pion/webrtc/v4"
)

// Receive implements handler.Handler. The local id is the mid of the offered
// section: the one in the parameters if set, a fresh one otherwise.
func (h *Handler) Receive(ctx context.Context, opts handler.ReceiveOptions) (*handler.ReceiveResult, error) {
	if err := h.checkDirection(handler.DirectionRecv); err != nil {
		return nil, err
	}
	params := opts.RtpParameters
	if params == nil {
		return nil, mediaerr.InvalidArgument("missing RTP parameters")
	}
	h.log.Debugf("receive() [trackId:%s, kind:%s]", opts.TrackID, opts.Kind)

	localID := params.Mid
	if localID == "" {
		localID = h.remoteSdp.NextMid()
	}
	streamID := "-"
	if params.Rtcp != nil && params.Rtcp.Cname != "" {
		streamID = params.Rtcp.Cname
	}

	if err := h.remoteSdp.Receive(sdputil.ReceiveOptions{
		Mid:                localID,
		Kind:               opts.Kind,
		OfferRtpParameters: params,
		StreamID:           streamID,
		TrackID:            opts.TrackID,
	}); err != nil {
		return nil, err
	}
	if err := h.applyRemoteOffer(); err != nil {
		return nil, err
	}

	answer, err := h.pc.CreateAnswer(nil)
	if err != nil {
		return nil, h.wrap(err, "create answer")
	}
	local, err := sdputil.Parse(answer.SDP)
	if err != nil {
		return nil, err
	}
	if err := h.setupTransportOnce(ctx, transportparam.DtlsRoleClient, local); err != nil {
		return nil, err
	}
	if err := h.pc.SetLocalDescription(answer); err != nil {
		return nil, h.wrap(err, "set local description")
	}

	tr := h.transceiver(localID)
	if tr == nil {
		return nil, mediaerr.InvalidState("no transceiver for mid %q", localID)
	}

	h.mu.Lock()
	h.receivers[localID] = &recvMedia{transceiver: tr, ssrcs: encodingSsrcs(params.Encodings)}
	h.mu.Unlock()

	res := &handler.ReceiveResult{LocalID: localID}
	if receiver := tr.Receiver(); receiver != nil {
		res.RtpReceiver = receiver
		if track := receiver.Track(); track != nil {
			res.Track = track
		}
	}
	return res, nil
}

// StopReceiving implements handler.Handler. The section stays in the SDP as
// inactive.
func (h *Handler) StopReceiving(ctx context.Context, localID string) error {
	if err := h.checkDirection(handler.DirectionRecv); err != nil {
		return err
	}
	if _, err := h.receiver(localID); err != nil {
		return err
	}
	h.log.Debugf("stopReceiving() [localId:%s]", localID)

	h.mu.Lock()
	delete(h.receivers, localID)
	h.mu.Unlock()

	if err := h.remoteSdp.DisableMediaSection(localID); err != nil {
		return err
	}
	if err := h.applyRemoteOffer(); err != nil {
		return err
	}
	_, err := h.answer()
	return err
}

// GetReceiverStats implements handler.Handler.
func (h *Handler) GetReceiverStats(ctx context.Context, localID string) (handler.StatsReport, error) {
	if err := h.checkDirection(handler.DirectionRecv); err != nil {
		return nil, err
	}
	m, err := h.receiver(localID)
	if err != nil {
		return nil, err
	}
	return filterStats(h.pc.GetStats(), func(s webrtc.Stats) bool {
		ssrc, ok := streamSsrc(s)
		return ok && m.ssrcs[ssrc]
	}), nil
}

func (h *Handler) receiver(localID string) (*recvMedia, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.receivers[localID]
	if !ok {
		return nil, handler.ErrUnknownLocalID
	}
	return m, nil
}

func (h *Handler) transceiver(mid string) *webrtc.RTPTransceiver {
	for _, tr := range h.pc.GetTransceivers() {
		if tr.Mid() == mid {
			return tr
		}
	}
	return nil
}
