package handler

import (
	"context"

	"github.com/backkem/mediasoupclient/pkg/rtpparam"
	"github.com/backkem/mediasoupclient/pkg/transportparam"
	"github.com/pion/logging"
)

// Direction is the direction of a transport.
type Direction string

const (
	// DirectionSend carries local tracks to the remote endpoint.
	DirectionSend Direction = "send"
	// DirectionRecv carries remote tracks to the local endpoint.
	DirectionRecv Direction = "recv"
)

// IsValid returns true for send and recv.
func (d Direction) IsValid() bool {
	return d == DirectionSend || d == DirectionRecv
}

// Factory creates handlers for one engine.
type Factory interface {
	// Name identifies the engine, e.g. "pion".
	Name() string

	// NativeRtpCapabilities reports the codecs and header extensions the
	// engine supports.
	NativeRtpCapabilities(ctx context.Context) (*rtpparam.RtpCapabilities, error)

	// NativeSctpCapabilities reports the engine's SCTP stream limits.
	NativeSctpCapabilities(ctx context.Context) (*transportparam.SctpCapabilities, error)

	// New creates a handler for one transport.
	New(opts Options) (Handler, error)
}

// Events is implemented by the transport owning a handler. A handler raises
// exactly these two event kinds.
type Events interface {
	// OnConnect is raised once, the first time the handler needs the remote
	// side to learn its DTLS parameters. The handler blocks until the
	// returned error is known.
	OnConnect(ctx context.Context, dtls transportparam.DtlsParameters) error

	// OnConnectionStateChange reports the aggregated ICE/DTLS state.
	OnConnectionStateChange(state transportparam.ConnectionState)
}

// Options configures a Handler.
type Options struct {
	Direction          Direction
	IceParameters      transportparam.IceParameters
	IceCandidates      []transportparam.IceCandidate
	DtlsParameters     transportparam.DtlsParameters
	SctpParameters     *transportparam.SctpParameters // nil disables data channels
	IceServers         []transportparam.IceServer
	IceTransportPolicy transportparam.IceTransportPolicy

	// ExtendedRtpCapabilities is the negotiated capability set of the Device.
	// Handlers must treat it as read-only.
	ExtendedRtpCapabilities *rtpparam.ExtendedRtpCapabilities

	// Events receives connect and connection state events. Required.
	Events Events

	// LoggerFactory is the factory for creating loggers.
	// If nil, the default pion logger factory is used.
	LoggerFactory logging.LoggerFactory
}

// Handler is the engine adapter of one transport.
type Handler interface {
	// Name identifies the engine.
	Name() string

	// Close releases every sender, receiver and data channel at once.
	Close() error

	GetTransportStats(ctx context.Context) (StatsReport, error)
	UpdateIceServers(ctx context.Context, servers []transportparam.IceServer) error
	RestartIce(ctx context.Context, params transportparam.IceParameters) error

	// Send allocates a sender for a local track.
	Send(ctx context.Context, opts SendOptions) (*SendResult, error)
	StopSending(ctx context.Context, localID string) error
	ReplaceTrack(ctx context.Context, localID string, track Track) error
	SetMaxSpatialLayer(ctx context.Context, localID string, spatialLayer uint8) error
	SetRtpEncodingParameters(ctx context.Context, localID string, params EncodingUpdate) error
	GetSenderStats(ctx context.Context, localID string) (StatsReport, error)

	// Receive allocates a receiver for a remote flow.
	Receive(ctx context.Context, opts ReceiveOptions) (*ReceiveResult, error)
	StopReceiving(ctx context.Context, localID string) error
	GetReceiverStats(ctx context.Context, localID string) (StatsReport, error)

	// SendDataChannel allocates an outgoing data channel.
	SendDataChannel(ctx context.Context, opts SendDataChannelOptions) (*SendDataChannelResult, error)
	// ReceiveDataChannel allocates an incoming data channel.
	ReceiveDataChannel(ctx context.Context, opts ReceiveDataChannelOptions) (*ReceiveDataChannelResult, error)
}

// StatsReport maps stats ids to engine-specific stats values.
type StatsReport map[string]any
