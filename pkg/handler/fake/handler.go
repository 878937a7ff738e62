package fake

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/backkem/mediasoupclient/pkg/handler"
	"github.com/backkem/mediasoupclient/pkg/mediaerr"
	"github.com/backkem/mediasoupclient/pkg/ortc"
	"github.com/backkem/mediasoupclient/pkg/rtpparam"
	"github.com/backkem/mediasoupclient/pkg/transportparam"
	"github.com/google/uuid"
	"github.com/pion/logging"
)

// Method names used for hooks and call recording.
const (
	MethodClose                    = "Close"
	MethodGetTransportStats        = "GetTransportStats"
	MethodUpdateIceServers         = "UpdateIceServers"
	MethodRestartIce               = "RestartIce"
	MethodSend                     = "Send"
	MethodStopSending              = "StopSending"
	MethodReplaceTrack             = "ReplaceTrack"
	MethodSetMaxSpatialLayer       = "SetMaxSpatialLayer"
	MethodSetRtpEncodingParameters = "SetRtpEncodingParameters"
	MethodGetSenderStats           = "GetSenderStats"
	MethodReceive                  = "Receive"
	MethodStopReceiving            = "StopReceiving"
	MethodGetReceiverStats         = "GetReceiverStats"
	MethodSendDataChannel          = "SendDataChannel"
	MethodReceiveDataChannel       = "ReceiveDataChannel"
)

// Hook runs at the start of a call. A non-nil error fails the call.
type Hook func(ctx context.Context) error

const firstSsrc = 1111000

type sender struct {
	track  handler.Track
	params *rtpparam.RtpParameters
	layer  *uint8
}

type receiver struct {
	trackID string
	kind    rtpparam.MediaKind
	params  *rtpparam.RtpParameters
}

// Handler is an in-memory handler.Handler.
type Handler struct {
	opts handler.Options
	log  logging.LeveledLogger
	dtls transportparam.DtlsParameters

	mu           sync.Mutex
	closed       bool
	connected    bool
	nextMid      int
	nextSsrc     uint32
	nextStreamID uint16
	senders      map[string]*sender
	receivers    map[string]*receiver
	channels     []*DataChannel
	calls        []string
	hooks        map[string]Hook
	iceServers   []transportparam.IceServer
	iceParams    transportparam.IceParameters
}

var _ handler.Handler = (*Handler)(nil)

// NewHandler creates a fake handler.
func NewHandler(opts handler.Options) (*Handler, error) {
	if !opts.Direction.IsValid() {
		return nil, mediaerr.InvalidArgument("invalid direction %q", opts.Direction)
	}
	if opts.Events == nil {
		return nil, mediaerr.InvalidArgument("missing events")
	}
	if opts.ExtendedRtpCapabilities == nil {
		return nil, mediaerr.InvalidArgument("missing extended rtp capabilities")
	}

	factory := opts.LoggerFactory
	if factory == nil {
		factory = logging.NewDefaultLoggerFactory()
	}

	role := transportparam.DtlsRoleServer
	if opts.Direction == handler.DirectionRecv {
		role = transportparam.DtlsRoleClient
	}

	return &Handler{
		opts: opts,
		log:  factory.NewLogger("fakehandler"),
		dtls: transportparam.DtlsParameters{
			Role:         role,
			Fingerprints: []transportparam.DtlsFingerprint{{Algorithm: "sha-256", Value: "00:11:22:33"}},
		},
		nextSsrc:   firstSsrc,
		senders:    make(map[string]*sender),
		receivers:  make(map[string]*receiver),
		hooks:      make(map[string]Hook),
		iceServers: opts.IceServers,
		iceParams:  opts.IceParameters,
	}, nil
}

// SetHook installs fn for method. A nil fn removes the hook.
func (h *Handler) SetHook(method string, fn Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if fn == nil {
		delete(h.hooks, method)
		return
	}
	h.hooks[method] = fn
}

// SetError makes every call to method fail with err. A nil err clears it.
func (h *Handler) SetError(method string, err error) {
	if err == nil {
		h.SetHook(method, nil)
		return
	}
	h.SetHook(method, func(context.Context) error { return err })
}

// Calls returns the recorded method names in call order.
func (h *Handler) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

// CallCount returns how often method was called.
func (h *Handler) CallCount(method string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, c := range h.calls {
		if c == method {
			n++
		}
	}
	return n
}

// Options returns the options the handler was created with.
func (h *Handler) Options() handler.Options {
	return h.opts
}

// Closed returns true once Close was called.
func (h *Handler) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Connected returns true once the connect event was answered.
func (h *Handler) Connected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.connected
}

// Senders returns the number of live senders.
func (h *Handler) Senders() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.senders)
}

// Receivers returns the number of live receivers.
func (h *Handler) Receivers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.receivers)
}

// ReceiverParameters returns the parameters of a live receiver.
func (h *Handler) ReceiverParameters(localID string) (*rtpparam.RtpParameters, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.receivers[localID]
	if !ok {
		return nil, false
	}
	return r.params.Clone(), true
}

// IceServers returns the ICE servers last set.
func (h *Handler) IceServers() []transportparam.IceServer {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]transportparam.IceServer(nil), h.iceServers...)
}

// EmitConnectionState raises a connection state event as the engine would.
func (h *Handler) EmitConnectionState(state transportparam.ConnectionState) {
	h.opts.Events.OnConnectionStateChange(state)
}

// enter records the call and runs its hook.
func (h *Handler) enter(ctx context.Context, method string) error {
	h.mu.Lock()
	h.calls = append(h.calls, method)
	hook := h.hooks[method]
	closed := h.closed
	h.mu.Unlock()

	if closed && method != MethodClose {
		return handler.ErrClosed
	}
	if hook != nil {
		return hook(ctx)
	}
	return nil
}

// connect raises the connect event on first use.
func (h *Handler) connect(ctx context.Context) error {
	h.mu.Lock()
	connected := h.connected
	h.mu.Unlock()
	if connected {
		return nil
	}

	h.log.Debug("raising connect event")
	if err := h.opts.Events.OnConnect(ctx, *h.dtls.Clone()); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	h.mu.Lock()
	h.connected = true
	h.mu.Unlock()
	h.opts.Events.OnConnectionStateChange(transportparam.ConnectionStateConnecting)
	return nil
}

func (h *Handler) allocMid() string {
	mid := strconv.Itoa(h.nextMid)
	h.nextMid++
	return mid
}

func (h *Handler) allocSsrc() uint32 {
	ssrc := h.nextSsrc
	h.nextSsrc++
	return ssrc
}

// Close implements handler.Handler.
func (h *Handler) Close() error {
	if err := h.enter(context.Background(), MethodClose); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	h.senders = make(map[string]*sender)
	h.receivers = make(map[string]*receiver)
	for _, dc := range h.channels {
		_ = dc.Close()
	}
	h.channels = nil
	return nil
}

// Name implements handler.Handler.
func (h *Handler) Name() string {
	return Name
}

// GetTransportStats implements handler.Handler.
func (h *Handler) GetTransportStats(ctx context.Context) (handler.StatsReport, error) {
	if err := h.enter(ctx, MethodGetTransportStats); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return handler.StatsReport{
		"transport": map[string]any{"senders": len(h.senders), "receivers": len(h.receivers)},
	}, nil
}

// UpdateIceServers implements handler.Handler.
func (h *Handler) UpdateIceServers(ctx context.Context, servers []transportparam.IceServer) error {
	if err := h.enter(ctx, MethodUpdateIceServers); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.iceServers = append([]transportparam.IceServer(nil), servers...)
	return nil
}

// RestartIce implements handler.Handler.
func (h *Handler) RestartIce(ctx context.Context, params transportparam.IceParameters) error {
	if err := h.enter(ctx, MethodRestartIce); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.iceParams = params
	return nil
}

// Send implements handler.Handler.
func (h *Handler) Send(ctx context.Context, opts handler.SendOptions) (*handler.SendResult, error) {
	if err := h.enter(ctx, MethodSend); err != nil {
		return nil, err
	}
	if h.opts.Direction != handler.DirectionSend {
		return nil, mediaerr.Unsupported("not a sending handler")
	}
	if opts.Track == nil {
		return nil, mediaerr.InvalidArgument("missing track")
	}

	kind := opts.Track.Kind()
	params := ortc.GetSendingRtpParameters(kind, h.opts.ExtendedRtpCapabilities)
	codecs, err := ortc.ReduceCodecs(params.Codecs, opts.Codec)
	if err != nil {
		return nil, err
	}
	params.Codecs = codecs

	if err := h.connect(ctx); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	hasRtx := len(codecs) > 1
	encodings := opts.Encodings
	if len(encodings) == 0 {
		encodings = []*rtpparam.RtpEncodingParameters{{}}
	}
	for _, enc := range encodings {
		e := enc.Clone()
		e.Ssrc = h.allocSsrc()
		if hasRtx {
			e.Rtx = &rtpparam.RtpEncodingRtx{Ssrc: h.allocSsrc()}
		}
		params.Encodings = append(params.Encodings, e)
	}

	localID := h.allocMid()
	params.Mid = localID
	params.Rtcp = &rtpparam.RtcpParameters{Cname: uuid.NewString(), ReducedSize: rtpparam.Bool(true)}

	h.senders[localID] = &sender{track: opts.Track, params: params}
	h.log.Debugf("send() [kind:%s, localId:%s]", kind, localID)

	return &handler.SendResult{LocalID: localID, RtpParameters: params.Clone(), RtpSender: localID}, nil
}

// StopSending implements handler.Handler.
func (h *Handler) StopSending(ctx context.Context, localID string) error {
	if err := h.enter(ctx, MethodStopSending); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.senders[localID]; !ok {
		return handler.ErrUnknownLocalID
	}
	delete(h.senders, localID)
	return nil
}

// ReplaceTrack implements handler.Handler.
func (h *Handler) ReplaceTrack(ctx context.Context, localID string, track handler.Track) error {
	if err := h.enter(ctx, MethodReplaceTrack); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.senders[localID]
	if !ok {
		return handler.ErrUnknownLocalID
	}
	s.track = track
	return nil
}

// SetMaxSpatialLayer implements handler.Handler.
func (h *Handler) SetMaxSpatialLayer(ctx context.Context, localID string, spatialLayer uint8) error {
	if err := h.enter(ctx, MethodSetMaxSpatialLayer); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.senders[localID]
	if !ok {
		return handler.ErrUnknownLocalID
	}
	s.layer = &spatialLayer
	for i, enc := range s.params.Encodings {
		enc.Active = rtpparam.Bool(i <= int(spatialLayer))
	}
	return nil
}

// SetRtpEncodingParameters implements handler.Handler.
func (h *Handler) SetRtpEncodingParameters(ctx context.Context, localID string, update handler.EncodingUpdate) error {
	if err := h.enter(ctx, MethodSetRtpEncodingParameters); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.senders[localID]
	if !ok {
		return handler.ErrUnknownLocalID
	}
	for _, enc := range s.params.Encodings {
		if update.MaxBitrate != nil {
			enc.MaxBitrate = *update.MaxBitrate
		}
		if update.MaxFramerate != nil {
			enc.MaxFramerate = *update.MaxFramerate
		}
		if update.ScaleResolutionDownBy != nil {
			enc.ScaleResolutionDownBy = *update.ScaleResolutionDownBy
		}
		if update.Priority != nil {
			enc.Priority = *update.Priority
		}
		if update.NetworkPriority != nil {
			enc.NetworkPriority = *update.NetworkPriority
		}
	}
	return nil
}

// SenderEncodings returns the current encodings of a sender.
func (h *Handler) SenderEncodings(localID string) []*rtpparam.RtpEncodingParameters {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.senders[localID]
	if !ok {
		return nil
	}
	return s.params.Clone().Encodings
}

// SenderTrack returns the track of a sender.
func (h *Handler) SenderTrack(localID string) handler.Track {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.senders[localID]; ok {
		return s.track
	}
	return nil
}

// GetSenderStats implements handler.Handler.
func (h *Handler) GetSenderStats(ctx context.Context, localID string) (handler.StatsReport, error) {
	if err := h.enter(ctx, MethodGetSenderStats); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.senders[localID]
	if !ok {
		return nil, handler.ErrUnknownLocalID
	}
	report := handler.StatsReport{}
	for _, enc := range s.params.Encodings {
		report["outbound-rtp-"+strconv.FormatUint(uint64(enc.Ssrc), 10)] = map[string]any{"ssrc": enc.Ssrc}
	}
	return report, nil
}

// Receive implements handler.Handler.
func (h *Handler) Receive(ctx context.Context, opts handler.ReceiveOptions) (*handler.ReceiveResult, error) {
	if err := h.enter(ctx, MethodReceive); err != nil {
		return nil, err
	}
	if h.opts.Direction != handler.DirectionRecv {
		return nil, mediaerr.Unsupported("not a receiving handler")
	}
	if err := h.connect(ctx); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	localID := opts.RtpParameters.Mid
	if localID == "" {
		localID = h.allocMid()
	}
	if _, exists := h.receivers[localID]; exists {
		return nil, mediaerr.InvalidState("mid %q in use", localID)
	}
	h.receivers[localID] = &receiver{trackID: opts.TrackID, kind: opts.Kind, params: opts.RtpParameters.Clone()}
	h.log.Debugf("receive() [trackId:%s, kind:%s, localId:%s]", opts.TrackID, opts.Kind, localID)

	return &handler.ReceiveResult{
		LocalID:     localID,
		Track:       &RemoteTrack{ID: opts.TrackID, Kind: opts.Kind},
		RtpReceiver: localID,
	}, nil
}

// StopReceiving implements handler.Handler.
func (h *Handler) StopReceiving(ctx context.Context, localID string) error {
	if err := h.enter(ctx, MethodStopReceiving); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.receivers[localID]; !ok {
		return handler.ErrUnknownLocalID
	}
	delete(h.receivers, localID)
	return nil
}

// GetReceiverStats implements handler.Handler.
func (h *Handler) GetReceiverStats(ctx context.Context, localID string) (handler.StatsReport, error) {
	if err := h.enter(ctx, MethodGetReceiverStats); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.receivers[localID]
	if !ok {
		return nil, handler.ErrUnknownLocalID
	}
	return handler.StatsReport{"inbound-rtp-" + localID: map[string]any{"trackId": r.trackID}}, nil
}

// SendDataChannel implements handler.Handler.
func (h *Handler) SendDataChannel(ctx context.Context, opts handler.SendDataChannelOptions) (*handler.SendDataChannelResult, error) {
	if err := h.enter(ctx, MethodSendDataChannel); err != nil {
		return nil, err
	}
	if h.opts.SctpParameters == nil {
		return nil, handler.ErrNoSctp
	}
	if err := h.connect(ctx); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	os := h.opts.SctpParameters.OS
	if os == 0 {
		os = DefaultSctpCapabilities().NumStreams.OS
	}
	streamID := h.nextStreamID
	h.nextStreamID = (h.nextStreamID + 1) % os

	dc := &DataChannel{label: opts.Label, protocol: opts.Protocol}
	h.channels = append(h.channels, dc)

	return &handler.SendDataChannelResult{
		DataChannel: dc,
		SctpStreamParameters: &transportparam.SctpStreamParameters{
			StreamID:          streamID,
			Ordered:           rtpparam.Bool(opts.Ordered),
			MaxPacketLifeTime: opts.MaxPacketLifeTime,
			MaxRetransmits:    opts.MaxRetransmits,
			Label:             opts.Label,
			Protocol:          opts.Protocol,
		},
	}, nil
}

// ReceiveDataChannel implements handler.Handler.
func (h *Handler) ReceiveDataChannel(ctx context.Context, opts handler.ReceiveDataChannelOptions) (*handler.ReceiveDataChannelResult, error) {
	if err := h.enter(ctx, MethodReceiveDataChannel); err != nil {
		return nil, err
	}
	if h.opts.SctpParameters == nil {
		return nil, handler.ErrNoSctp
	}
	if err := h.connect(ctx); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	dc := &DataChannel{label: opts.Label, protocol: opts.Protocol}
	h.channels = append(h.channels, dc)
	return &handler.ReceiveDataChannelResult{DataChannel: dc}, nil
}
