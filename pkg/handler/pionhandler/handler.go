package pionhandler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/backkem/mediasoupclient/pkg/handler"
	"github.com/backkem/mediasoupclient/pkg/mediaerr"
	"github.com/backkem/mediasoupclient/pkg/rtpparam"
	"github.com/backkem/mediasoupclient/pkg/sdputil"
	"github.com/backkem/mediasoupclient/pkg/transportparam"
	"github.com/pion/logging"
	"github.com/pion/sdp/v3"
	"github.com/pion/webrtc/v4"
)

// Handler drives one PeerConnection.
//
// Negotiating methods must not run concurrently with each other; the owning
// transport serializes them. Close and the stats getters may be called at
// any time.
type Handler struct {
	direction handler.Direction
	events    handler.Events
	ext       *rtpparam.ExtendedRtpCapabilities
	sctp      *transportparam.SctpParameters
	log       logging.LeveledLogger

	pc        *webrtc.PeerConnection
	remoteSdp *sdputil.RemoteSdp

	mu                  sync.Mutex
	closed              bool
	transportReady      bool
	hasDataChannelMedia bool
	nextSctpStreamID    uint16
	senders             map[string]*sendMedia
	receivers           map[string]*recvMedia
}

type sendMedia struct {
	transceiver *webrtc.RTPTransceiver
	answer      *rtpparam.RtpParameters
	ssrcs       map[uint32]bool
}

type recvMedia struct {
	transceiver *webrtc.RTPTransceiver
	ssrcs       map[uint32]bool
}

var _ handler.Handler = (*Handler)(nil)

func newHandler(api *webrtc.API, opts handler.Options) (*Handler, error) {
	pc, err := api.NewPeerConnection(webrtc.Configuration{
		ICEServers:         iceServers(opts.IceServers),
		ICETransportPolicy: iceTransportPolicy(opts.IceTransportPolicy),
		BundlePolicy:       webrtc.BundlePolicyMaxBundle,
		RTCPMuxPolicy:      webrtc.RTCPMuxPolicyRequire,
	})
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}

	h := &Handler{
		direction: opts.Direction,
		events:    opts.Events,
		ext:       opts.ExtendedRtpCapabilities,
		sctp:      opts.SctpParameters,
		log:       opts.LoggerFactory.NewLogger("pionhandler"),
		pc:        pc,
		remoteSdp: sdputil.NewRemoteSdp(sdputil.RemoteSdpConfig{
			IceParameters:  opts.IceParameters,
			IceCandidates:  opts.IceCandidates,
			DtlsParameters: opts.DtlsParameters,
			SctpParameters: opts.SctpParameters,
		}),
		senders:   make(map[string]*sendMedia),
		receivers: make(map[string]*recvMedia),
	}
	pc.OnConnectionStateChange(h.onConnectionStateChange)

	h.log.Debugf("created %s handler", opts.Direction)
	return h, nil
}

// PeerConnection returns the underlying connection.
func (h *Handler) PeerConnection() *webrtc.PeerConnection { return h.pc }

// Name implements handler.Handler.
func (h *Handler) Name() string { return Name }

// Close implements handler.Handler.
func (h *Handler) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.senders = map[string]*sendMedia{}
	h.receivers = map[string]*recvMedia{}
	h.mu.Unlock()

	h.log.Debug("close()")
	return h.pc.Close()
}

// GetTransportStats implements handler.Handler.
func (h *Handler) GetTransportStats(ctx context.Context) (handler.StatsReport, error) {
	if err := h.checkOpen(); err != nil {
		return nil, err
	}
	return filterStats(h.pc.GetStats(), func(webrtc.Stats) bool { return true }), nil
}

// UpdateIceServers implements handler.Handler.
func (h *Handler) UpdateIceServers(ctx context.Context, servers []transportparam.IceServer) error {
	if err := h.checkOpen(); err != nil {
		return err
	}
	config := h.pc.GetConfiguration()
	config.ICEServers = iceServers(servers)
	if err := h.pc.SetConfiguration(config); err != nil {
		return h.wrap(err, "set configuration")
	}
	return nil
}

// RestartIce implements handler.Handler.
func (h *Handler) RestartIce(ctx context.Context, params transportparam.IceParameters) error {
	if err := h.checkOpen(); err != nil {
		return err
	}
	h.remoteSdp.UpdateIceParameters(params)

	h.mu.Lock()
	ready := h.transportReady
	h.mu.Unlock()
	if !ready {
		return nil
	}

	if h.direction == handler.DirectionSend {
		offer, err := h.pc.CreateOffer(&webrtc.OfferOptions{ICERestart: true})
		if err != nil {
			return h.wrap(err, "create offer")
		}
		if err := h.pc.SetLocalDescription(offer); err != nil {
			return h.wrap(err, "set local description")
		}
		return h.applyRemoteAnswer()
	}

	if err := h.applyRemoteOffer(); err != nil {
		return err
	}
	_, err := h.answer()
	return err
}

// setupTransport raises the connect event with the local DTLS parameters
// and fixes the remote DTLS role to the opposite one.
func (h *Handler) setupTransport(ctx context.Context, role transportparam.DtlsRole, local *sdp.SessionDescription) error {
	dtls, err := sdputil.ExtractDtlsParameters(local)
	if err != nil {
		return err
	}
	dtls.Role = role

	remoteRole := transportparam.DtlsRoleClient
	if role == transportparam.DtlsRoleClient {
		remoteRole = transportparam.DtlsRoleServer
	}
	h.remoteSdp.UpdateDtlsRole(remoteRole)

	if err := h.events.OnConnect(ctx, dtls); err != nil {
		return err
	}

	h.mu.Lock()
	h.transportReady = true
	h.mu.Unlock()
	return nil
}

// setupTransportOnce calls setupTransport on first use.
func (h *Handler) setupTransportOnce(ctx context.Context, role transportparam.DtlsRole, local *sdp.SessionDescription) error {
	h.mu.Lock()
	ready := h.transportReady
	h.mu.Unlock()
	if ready {
		return nil
	}
	return h.setupTransport(ctx, role, local)
}

// applyRemoteAnswer renders the remote answer and applies it.
func (h *Handler) applyRemoteAnswer() error {
	raw, err := h.remoteSdp.SDP()
	if err != nil {
		return err
	}
	if err := h.pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: raw}); err != nil {
		return h.wrap(err, "set remote answer")
	}
	return nil
}

// applyRemoteOffer renders the remote offer and applies it.
func (h *Handler) applyRemoteOffer() error {
	raw, err := h.remoteSdp.SDP()
	if err != nil {
		return err
	}
	if err := h.pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: raw}); err != nil {
		return h.wrap(err, "set remote offer")
	}
	return nil
}

// answer creates the local answer, applies it and returns it parsed.
func (h *Handler) answer() (*sdp.SessionDescription, error) {
	answer, err := h.pc.CreateAnswer(nil)
	if err != nil {
		return nil, h.wrap(err, "create answer")
	}
	if err := h.pc.SetLocalDescription(answer); err != nil {
		return nil, h.wrap(err, "set local description")
	}
	return sdputil.Parse(answer.SDP)
}

func (h *Handler) onConnectionStateChange(s webrtc.PeerConnectionState) {
	state, ok := connectionState(s)
	if !ok {
		return
	}
	h.log.Debugf("connection state %s", state)
	h.events.OnConnectionStateChange(state)
}

func (h *Handler) checkOpen() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return handler.ErrClosed
	}
	return nil
}

func (h *Handler) checkDirection(want handler.Direction) error {
	if err := h.checkOpen(); err != nil {
		return err
	}
	if h.direction != want {
		return mediaerr.Unsupported("method not supported in %s direction", h.direction)
	}
	return nil
}

// wrap reports engine failures after Close as handler.ErrClosed.
func (h *Handler) wrap(err error, op string) error {
	if errors.Is(err, webrtc.ErrConnectionClosed) || h.checkOpen() != nil {
		return handler.ErrClosed
	}
	return fmt.Errorf("%s: %w", op, err)
}

func connectionState(s webrtc.PeerConnectionState) (transportparam.ConnectionState, bool) {
	switch s {
	case webrtc.PeerConnectionStateNew:
		return transportparam.ConnectionStateNew, true
	case webrtc.PeerConnectionStateConnecting:
		return transportparam.ConnectionStateConnecting, true
	case webrtc.PeerConnectionStateConnected:
		return transportparam.ConnectionStateConnected, true
	case webrtc.PeerConnectionStateDisconnected:
		return transportparam.ConnectionStateDisconnected, true
	case webrtc.PeerConnectionStateFailed:
		return transportparam.ConnectionStateFailed, true
	case webrtc.PeerConnectionStateClosed:
		return transportparam.ConnectionStateClosed, true
	default:
		return 0, false
	}
}

func iceServers(servers []transportparam.IceServer) []webrtc.ICEServer {
	out := make([]webrtc.ICEServer, 0, len(servers))
	for _, s := range servers {
		server := webrtc.ICEServer{
			URLs:     append([]string(nil), s.URLs...),
			Username: s.Username,
		}
		if s.Credential != "" {
			server.Credential = s.Credential
			server.CredentialType = webrtc.ICECredentialTypePassword
		}
		out = append(out, server)
	}
	return out
}

func iceTransportPolicy(p transportparam.IceTransportPolicy) webrtc.ICETransportPolicy {
	if p == transportparam.IceTransportPolicyRelay {
		return webrtc.ICETransportPolicyRelay
	}
	return webrtc.ICETransportPolicyAll
}

// findMediaByKind returns the first section of media type kind.
func findMediaByKind(s *sdp.SessionDescription, kind string) (*sdp.MediaDescription, bool) {
	for _, md := range s.MediaDescriptions {
		if md.MediaName.Media == kind {
			return md, true
		}
	}
	return nil, false
}

func encodingSsrcs(encodings []*rtpparam.RtpEncodingParameters) map[uint32]bool {
	ssrcs := map[uint32]bool{}
	for _, enc := range encodings {
		if enc == nil {
			continue
		}
		if enc.Ssrc != 0 {
			ssrcs[enc.Ssrc] = true
		}
		if enc.Rtx != nil && enc.Rtx.Ssrc != 0 {
			ssrcs[enc.Rtx.Ssrc] = true
		}
	}
	return ssrcs
}

func filterStats(report webrtc.StatsReport, keep func(webrtc.Stats) bool) handler.StatsReport {
	out := make(handler.StatsReport, len(report))
	for id, s := range report {
		if keep(s) {
			out[id] = s
		}
	}
	return out
}

// streamSsrc returns the SSRC of RTP stream stats.
func streamSsrc(s webrtc.Stats) (uint32, bool) {
	switch v := s.(type) {
	case webrtc.OutboundRTPStreamStats:
		return uint32(v.SSRC), true
	case *webrtc.OutboundRTPStreamStats:
		return uint32(v.SSRC), true
	case webrtc.InboundRTPStreamStats:
		return uint32(v.SSRC), true
	case *webrtc.InboundRTPStreamStats:
		return uint32(v.SSRC), true
	case webrtc.RemoteInboundRTPStreamStats:
		return uint32(v.SSRC), true
	case *webrtc.RemoteInboundRTPStreamStats:
		return uint32(v.SSRC), true
	case webrtc.RemoteOutboundRTPStreamStats:
		return uint32(v.SSRC), true
	case *webrtc.RemoteOutboundRTPStreamStats:
		return uint32(v.SSRC), true
	}
	return 0, false
}
