package pionhandler

import (
	"context"

	"github.com/backkem/mediasoupclient/pkg/handler"
	"github.com/backkem/mediasoupclient/pkg/mediaerr"
	"github.com/backkem/mediasoupclient/pkg/sdputil"
	"github.com/backkem/mediasoupclient/pkg/transportparam"
	"github.com/pion/webrtc/v4"
)

// SendDataChannel implements handler.Handler. Channels are negotiated out of
// band, so the stream id is picked here and handed to the remote side.
func (h *Handler) SendDataChannel(ctx context.Context, opts handler.SendDataChannelOptions) (*handler.SendDataChannelResult, error) {
	if err := h.checkDirection(handler.DirectionSend); err != nil {
		return nil, err
	}
	if h.sctp == nil {
		return nil, handler.ErrNoSctp
	}

	h.mu.Lock()
	streamID := h.nextSctpStreamID
	h.nextSctpStreamID = (streamID + 1) % sctpNumStreams
	h.mu.Unlock()
	h.log.Debugf("sendDataChannel() [label:%s, streamId:%d]", opts.Label, streamID)

	ordered := opts.Ordered
	negotiated := true
	protocol := opts.Protocol
	dc, err := h.pc.CreateDataChannel(opts.Label, &webrtc.DataChannelInit{
		Ordered:           &ordered,
		MaxPacketLifeTime: opts.MaxPacketLifeTime,
		MaxRetransmits:    opts.MaxRetransmits,
		Protocol:          &protocol,
		Negotiated:        &negotiated,
		ID:                &streamID,
	})
	if err != nil {
		return nil, h.wrap(err, "create data channel")
	}

	if err := h.negotiateSendSctp(ctx); err != nil {
		h.closeDataChannel(dc)
		return nil, err
	}

	return &handler.SendDataChannelResult{
		DataChannel: dc,
		SctpStreamParameters: &transportparam.SctpStreamParameters{
			StreamID:          streamID,
			Ordered:           &ordered,
			MaxPacketLifeTime: opts.MaxPacketLifeTime,
			MaxRetransmits:    opts.MaxRetransmits,
			Label:             opts.Label,
			Protocol:          opts.Protocol,
		},
	}, nil
}

// negotiateSendSctp adds the application section on first use.
func (h *Handler) negotiateSendSctp(ctx context.Context) error {
	h.mu.Lock()
	done := h.hasDataChannelMedia
	h.mu.Unlock()
	if done {
		return nil
	}

	offer, err := h.pc.CreateOffer(nil)
	if err != nil {
		return h.wrap(err, "create offer")
	}
	local, err := sdputil.Parse(offer.SDP)
	if err != nil {
		return err
	}
	if err := h.setupTransportOnce(ctx, transportparam.DtlsRoleServer, local); err != nil {
		return err
	}
	if err := h.pc.SetLocalDescription(offer); err != nil {
		return h.wrap(err, "set local description")
	}
	app, ok := findMediaByKind(local, "application")
	if !ok {
		return mediaerr.InvalidState("local offer has no application section")
	}
	if err := h.remoteSdp.SendSctpAssociation(app); err != nil {
		return err
	}
	if err := h.applyRemoteAnswer(); err != nil {
		return err
	}

	h.mu.Lock()
	h.hasDataChannelMedia = true
	h.mu.Unlock()
	return nil
}

// ReceiveDataChannel implements handler.Handler.
func (h *Handler) ReceiveDataChannel(ctx context.Context, opts handler.ReceiveDataChannelOptions) (*handler.ReceiveDataChannelResult, error) {
	if err := h.checkDirection(handler.DirectionRecv); err != nil {
		return nil, err
	}
	if h.sctp == nil {
		return nil, handler.ErrNoSctp
	}
	params := opts.SctpStreamParameters
	if params == nil {
		return nil, mediaerr.InvalidArgument("missing SCTP stream parameters")
	}
	h.log.Debugf("receiveDataChannel() [label:%s, streamId:%d]", opts.Label, params.StreamID)

	streamID := params.StreamID
	ordered := params.IsOrdered()
	negotiated := true
	protocol := opts.Protocol
	dc, err := h.pc.CreateDataChannel(opts.Label, &webrtc.DataChannelInit{
		Ordered:           &ordered,
		MaxPacketLifeTime: params.MaxPacketLifeTime,
		MaxRetransmits:    params.MaxRetransmits,
		Protocol:          &protocol,
		Negotiated:        &negotiated,
		ID:                &streamID,
	})
	if err != nil {
		return nil, h.wrap(err, "create data channel")
	}

	if err := h.negotiateRecvSctp(ctx); err != nil {
		h.closeDataChannel(dc)
		return nil, err
	}
	return &handler.ReceiveDataChannelResult{DataChannel: dc}, nil
}

// negotiateRecvSctp offers the application section on first use.
func (h *Handler) negotiateRecvSctp(ctx context.Context) error {
	h.mu.Lock()
	done := h.hasDataChannelMedia
	h.mu.Unlock()
	if done {
		return nil
	}

	if _, err := h.remoteSdp.ReceiveSctpAssociation(); err != nil {
		return err
	}
	if err := h.applyRemoteOffer(); err != nil {
		return err
	}
	answer, err := h.pc.CreateAnswer(nil)
	if err != nil {
		return h.wrap(err, "create answer")
	}
	local, err := sdputil.Parse(answer.SDP)
	if err != nil {
		return err
	}
	if err := h.setupTransportOnce(ctx, transportparam.DtlsRoleClient, local); err != nil {
		return err
	}
	if err := h.pc.SetLocalDescription(answer); err != nil {
		return h.wrap(err, "set local description")
	}

	h.mu.Lock()
	h.hasDataChannelMedia = true
	h.mu.Unlock()
	return nil
}

func (h *Handler) closeDataChannel(dc *webrtc.DataChannel) {
	if err := dc.Close(); err != nil {
		h.log.Warnf("close data channel: %v", err)
	}
}
