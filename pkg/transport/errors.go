package transport

import "github.com/backkem/mediasoupclient/pkg/mediaerr"

// Transport errors.
var (
	// ErrClosed is returned for operations on a closed transport or flow.
	ErrClosed = mediaerr.InvalidState("transport: closed")

	// ErrNoConnectHandler is returned when a flow is created on a transport
	// that was never connected and has no OnConnect callback.
	ErrNoConnectHandler = mediaerr.InvalidArgument(`transport: no "connect" handler set into this transport`)

	// ErrNoProduceHandler is returned by Produce without an OnProduce callback.
	ErrNoProduceHandler = mediaerr.InvalidArgument(`transport: no "produce" handler set into this transport`)

	// ErrNoProduceDataHandler is returned by ProduceData without an
	// OnProduceData callback.
	ErrNoProduceDataHandler = mediaerr.InvalidArgument(`transport: no "producedata" handler set into this transport`)

	// ErrTrackEnded is returned for tracks that no longer produce media.
	ErrTrackEnded = mediaerr.InvalidState("transport: track ended")

	// ErrSctpDisabled is returned for data flows on a transport the remote
	// side created without SCTP.
	ErrSctpDisabled = mediaerr.Unsupported("transport: SCTP not enabled by remote Transport")
)
