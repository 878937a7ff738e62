package transport

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/backkem/mediasoupclient/pkg/handler"
	"github.com/backkem/mediasoupclient/pkg/mediaerr"
	"github.com/backkem/mediasoupclient/pkg/queue"
	"github.com/backkem/mediasoupclient/pkg/rtpparam"
	"github.com/backkem/mediasoupclient/pkg/transportparam"
	"github.com/pion/logging"
)

// ConnectFunc delivers the local DTLS parameters to the remote transport.
// The transport starts connecting once it returns nil.
type ConnectFunc func(ctx context.Context, dtls transportparam.DtlsParameters) error

// ProduceRequest asks the application to create the remote producer.
type ProduceRequest struct {
	Kind          rtpparam.MediaKind
	RtpParameters *rtpparam.RtpParameters
	AppData       AppData
}

// ProduceFunc creates the remote producer and returns its id.
type ProduceFunc func(ctx context.Context, req ProduceRequest) (id string, err error)

// ProduceDataRequest asks the application to create the remote data producer.
type ProduceDataRequest struct {
	SctpStreamParameters *transportparam.SctpStreamParameters
	Label                string
	Protocol             string
	AppData              AppData
}

// ProduceDataFunc creates the remote data producer and returns its id.
type ProduceDataFunc func(ctx context.Context, req ProduceDataRequest) (id string, err error)

// Transport is a send or receive transport. All methods are safe for
// concurrent use.
type Transport struct {
	id          string
	direction   handler.Direction
	appData     AppData
	handlerName string
	log         logging.LeveledLogger

	handler          handler.Handler
	queue            *queue.Queue
	state            stateMachine
	ext              *rtpparam.ExtendedRtpCapabilities
	canProduceByKind rtpparam.CanProduceByKind
	sctpParameters   *transportparam.SctpParameters

	// closed is shared with the flows of the transport.
	closed atomic.Bool

	mu                sync.Mutex
	onConnect         ConnectFunc
	onProduce         ProduceFunc
	onProduceData     ProduceDataFunc
	onClose           []func()
	probatorRequested bool

	producers     *registry[*Producer]
	consumers     *registry[*Consumer]
	dataProducers *registry[*DataProducer]
	dataConsumers *registry[*DataConsumer]
}

// New creates a transport and its handler.
func New(config Config) (*Transport, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.applyDefaults()

	factory := config.LoggerFactory
	if factory == nil {
		factory = logging.NewDefaultLoggerFactory()
	}

	t := &Transport{
		id:               config.ID,
		direction:        config.Direction,
		appData:          config.AppData,
		handlerName:      config.Handler.Name(),
		log:              factory.NewLogger("transport"),
		ext:              config.ExtendedRtpCapabilities,
		canProduceByKind: config.CanProduceByKind,
		producers:        newRegistry[*Producer](),
		consumers:        newRegistry[*Consumer](),
		dataProducers:    newRegistry[*DataProducer](),
		dataConsumers:    newRegistry[*DataConsumer](),
	}
	if config.SctpParameters != nil {
		sctp := *config.SctpParameters
		t.sctpParameters = &sctp
	}

	h, err := config.Handler.New(handler.Options{
		Direction:               config.Direction,
		IceParameters:           config.IceParameters,
		IceCandidates:           config.IceCandidates,
		DtlsParameters:          *config.DtlsParameters.Clone(),
		SctpParameters:          config.SctpParameters,
		IceServers:              config.IceServers,
		IceTransportPolicy:      config.IceTransportPolicy,
		ExtendedRtpCapabilities: config.ExtendedRtpCapabilities,
		Events:                  &handlerEvents{t: t},
		LoggerFactory:           factory,
	})
	if err != nil {
		return nil, err
	}
	t.handler = h
	t.queue = queue.New(queue.Config{Name: "transport " + config.ID, LoggerFactory: factory})

	t.log.Debugf("created %s transport %s", t.direction, t.id)
	return t, nil
}

// ID returns the transport id.
func (t *Transport) ID() string { return t.id }

// Direction returns send or recv.
func (t *Transport) Direction() handler.Direction { return t.direction }

// HandlerName returns the name of the engine handler.
func (t *Transport) HandlerName() string { return t.handlerName }

// AppData returns the application data of the transport.
func (t *Transport) AppData() AppData { return t.appData }

// Closed returns true once Close was called.
func (t *Transport) Closed() bool { return t.closed.Load() }

// ConnectionState returns the current connection state.
func (t *Transport) ConnectionState() transportparam.ConnectionState {
	return t.state.current()
}

// OnConnect sets the callback that connects the transport. It is required
// before the first flow is created.
func (t *Transport) OnConnect(fn ConnectFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onConnect = fn
}

// OnProduce sets the callback that creates remote producers. Required by
// Produce.
func (t *Transport) OnProduce(fn ProduceFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onProduce = fn
}

// OnProduceData sets the callback that creates remote data producers.
// Required by ProduceData.
func (t *Transport) OnProduceData(fn ProduceDataFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onProduceData = fn
}

// OnConnectionStateChange adds an observer of connection state changes.
// Observers are not called after Close.
func (t *Transport) OnConnectionStateChange(fn func(transportparam.ConnectionState)) {
	t.state.observe(fn)
}

// OnClose adds an observer called once when the transport closes.
func (t *Transport) OnClose(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onClose = append(t.onClose, fn)
}

// Close closes the transport. A running command finishes, queued commands
// fail with an InvalidState error. Every flow is closed and the registries
// are empty when Close returns. Calling Close again is a no-op.
func (t *Transport) Close() {
	t.mu.Lock()
	if t.closed.Load() {
		t.mu.Unlock()
		return
	}
	t.closed.Store(true)
	observers := t.onClose
	t.onClose = nil
	t.mu.Unlock()

	t.log.Debugf("close() [id:%s]", t.id)

	t.state.close()
	t.queue.Close()
	if err := t.handler.Close(); err != nil {
		t.log.Warnf("handler close failed: %v", err)
	}

	for _, p := range t.producers.drain() {
		p.transportClosed()
	}
	for _, c := range t.consumers.drain() {
		c.transportClosed()
	}
	for _, dp := range t.dataProducers.drain() {
		dp.transportClosed()
	}
	for _, dc := range t.dataConsumers.drain() {
		dc.transportClosed()
	}

	for _, fn := range observers {
		fn()
	}
}

// GetStats returns the transport stats of the handler.
func (t *Transport) GetStats(ctx context.Context) (handler.StatsReport, error) {
	if t.Closed() {
		return nil, ErrClosed
	}
	return t.handler.GetTransportStats(ctx)
}

// RestartIce restarts ICE with new remote ICE parameters.
func (t *Transport) RestartIce(ctx context.Context, params transportparam.IceParameters) error {
	t.log.Debug("restartIce()")

	if t.Closed() {
		return ErrClosed
	}
	if params.UsernameFragment == "" || params.Password == "" {
		return mediaerr.InvalidArgument("missing iceParameters")
	}

	_, err := t.queue.Push(ctx, "restartIce", func(ctx context.Context) (any, error) {
		return nil, t.handler.RestartIce(ctx, params)
	})
	if err == nil {
		t.state.rearm()
	}
	return err
}

// UpdateIceServers replaces the ICE servers of the local ICE agent.
func (t *Transport) UpdateIceServers(ctx context.Context, servers []transportparam.IceServer) error {
	t.log.Debug("updateIceServers()")

	if t.Closed() {
		return ErrClosed
	}
	if servers == nil {
		return mediaerr.InvalidArgument("missing iceServers")
	}

	_, err := t.queue.Push(ctx, "updateIceServers", func(ctx context.Context) (any, error) {
		return nil, t.handler.UpdateIceServers(ctx, servers)
	})
	return err
}

// Producer returns a live producer by id.
func (t *Transport) Producer(id string) (*Producer, bool) { return t.producers.get(id) }

// Consumer returns a live consumer by id.
func (t *Transport) Consumer(id string) (*Consumer, bool) { return t.consumers.get(id) }

// DataProducer returns a live data producer by id.
func (t *Transport) DataProducer(id string) (*DataProducer, bool) { return t.dataProducers.get(id) }

// DataConsumer returns a live data consumer by id.
func (t *Transport) DataConsumer(id string) (*DataConsumer, bool) { return t.dataConsumers.get(id) }

// Producers returns the live producers sorted by id.
func (t *Transport) Producers() []*Producer { return t.producers.list() }

// Consumers returns the live consumers sorted by id.
func (t *Transport) Consumers() []*Consumer { return t.consumers.list() }

// DataProducers returns the live data producers sorted by id.
func (t *Transport) DataProducers() []*DataProducer { return t.dataProducers.list() }

// DataConsumers returns the live data consumers sorted by id.
func (t *Transport) DataConsumers() []*DataConsumer { return t.dataConsumers.list() }

func (t *Transport) hasSctp() bool { return t.sctpParameters != nil }

// checkConnectable fails if the transport was never connected and nobody can
// connect it.
func (t *Transport) checkConnectable() error {
	t.mu.Lock()
	hasConnect := t.onConnect != nil
	t.mu.Unlock()
	if !hasConnect && t.state.current() == transportparam.ConnectionStateNew {
		return ErrNoConnectHandler
	}
	return nil
}

// register adds a flow unless the transport closed meanwhile.
func register[T identified](t *Transport, r *registry[T], item T) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed.Load() {
		return ErrClosed
	}
	return r.add(item)
}

// newLink returns the link of a flow to this transport. unregister removes
// the flow from its registry.
func (t *Transport) newLink(unregister func()) *link {
	return &link{
		queue:      t.queue,
		handler:    t.handler,
		log:        t.log,
		closed:     &t.closed,
		unregister: unregister,
	}
}

// handlerEvents receives the events of the handler.
type handlerEvents struct {
	t *Transport
}

func (e *handlerEvents) OnConnect(ctx context.Context, dtls transportparam.DtlsParameters) error {
	t := e.t
	if t.Closed() {
		return ErrClosed
	}

	t.mu.Lock()
	fn := t.onConnect
	t.mu.Unlock()
	if fn == nil {
		return ErrNoConnectHandler
	}

	t.log.Debugf("connect [id:%s]", t.id)
	return fn(ctx, dtls)
}

func (e *handlerEvents) OnConnectionStateChange(state transportparam.ConnectionState) {
	if e.t.state.set(state) {
		e.t.log.Debugf("connection state changed to %s", state)
	}
}
