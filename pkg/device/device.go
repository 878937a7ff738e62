package device

import (
	"context"
	"fmt"
	"sync"

	"github.com/backkem/mediasoupclient/pkg/handler"
	"github.com/backkem/mediasoupclient/pkg/mediaerr"
	"github.com/backkem/mediasoupclient/pkg/ortc"
	"github.com/backkem/mediasoupclient/pkg/rtpparam"
	"github.com/backkem/mediasoupclient/pkg/transport"
	"github.com/backkem/mediasoupclient/pkg/transportparam"
	"github.com/pion/logging"
)

// Config configures a Device.
type Config struct {
	// Handler creates the engine handlers of the transports. Required.
	Handler handler.Factory

	// LoggerFactory is the factory for creating loggers.
	// If nil, the default pion logger factory is used.
	LoggerFactory logging.LoggerFactory
}

// Device negotiates capabilities and creates transports.
type Device struct {
	handler       handler.Factory
	loggerFactory logging.LoggerFactory
	log           logging.LeveledLogger

	mu               sync.Mutex
	loading          bool
	loaded           bool
	ext              *rtpparam.ExtendedRtpCapabilities
	recvCaps         *rtpparam.RtpCapabilities
	sctpCaps         *transportparam.SctpCapabilities
	canProduceByKind rtpparam.CanProduceByKind
}

// New creates an unloaded device.
func New(config Config) (*Device, error) {
	if config.Handler == nil {
		return nil, ErrNotSupported
	}

	factory := config.LoggerFactory
	if factory == nil {
		factory = logging.NewDefaultLoggerFactory()
	}

	d := &Device{
		handler:       config.Handler,
		loggerFactory: factory,
		log:           factory.NewLogger("device"),
	}
	d.log.Debugf("new() [handler:%s]", config.Handler.Name())
	return d, nil
}

// HandlerName returns the name of the engine handler.
func (d *Device) HandlerName() string { return d.handler.Name() }

// Loaded returns true once Load succeeded.
func (d *Device) Loaded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loaded
}

// Load negotiates the native capabilities of the handler against the RTP
// capabilities of the remote router. It succeeds at most once. A failed
// Load leaves the device unloaded and may be retried.
func (d *Device) Load(ctx context.Context, routerCaps *rtpparam.RtpCapabilities) error {
	d.log.Debug("load()")

	d.mu.Lock()
	if d.loaded || d.loading {
		d.mu.Unlock()
		return ErrAlreadyLoaded
	}
	d.loading = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.loading = false
		d.mu.Unlock()
	}()

	if routerCaps == nil {
		return mediaerr.InvalidArgument("missing routerRtpCapabilities")
	}
	remote := routerCaps.Clone()
	if err := ortc.ValidateRtpCapabilities(remote); err != nil {
		return err
	}

	native, err := d.handler.NativeRtpCapabilities(ctx)
	if err != nil {
		return fmt.Errorf("native rtp capabilities: %w", err)
	}
	d.log.Debugf("load() | got native RTP capabilities: %d codecs", len(native.Codecs))
	if err := ortc.ValidateRtpCapabilities(native); err != nil {
		return err
	}

	ext, err := ortc.GetExtendedRtpCapabilities(native, remote)
	if err != nil {
		return err
	}

	recvCaps := ortc.GetRecvRtpCapabilities(ext)
	if err := ortc.ValidateRtpCapabilities(recvCaps); err != nil {
		return err
	}

	sctpCaps, err := d.handler.NativeSctpCapabilities(ctx)
	if err != nil {
		return fmt.Errorf("native sctp capabilities: %w", err)
	}
	if err := ortc.ValidateSctpCapabilities(sctpCaps); err != nil {
		return err
	}

	canProduce := ortc.CanProduceByKind(ext)

	d.mu.Lock()
	d.ext = ext
	d.recvCaps = recvCaps
	d.sctpCaps = sctpCaps
	d.canProduceByKind = canProduce
	d.loaded = true
	d.mu.Unlock()

	d.log.Debugf("load() succeeded [audio:%t, video:%t]", canProduce.Audio, canProduce.Video)
	return nil
}

// RtpCapabilities returns the capabilities to announce to the remote side
// for receiving.
func (d *Device) RtpCapabilities() (*rtpparam.RtpCapabilities, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.loaded {
		return nil, ErrNotLoaded
	}
	return d.recvCaps.Clone(), nil
}

// SctpCapabilities returns the native SCTP capabilities.
func (d *Device) SctpCapabilities() (*transportparam.SctpCapabilities, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.loaded {
		return nil, ErrNotLoaded
	}
	caps := *d.sctpCaps
	return &caps, nil
}

// ExtendedRtpCapabilities returns a copy of the negotiated capability set.
// The set itself is fixed once the device is loaded.
func (d *Device) ExtendedRtpCapabilities() (*rtpparam.ExtendedRtpCapabilities, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.loaded {
		return nil, ErrNotLoaded
	}
	return d.ext.Clone(), nil
}

// CanProduce reports whether media of kind can be sent.
func (d *Device) CanProduce(kind rtpparam.MediaKind) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.loaded {
		return false, ErrNotLoaded
	}
	if !kind.IsValid() {
		return false, mediaerr.InvalidArgument("invalid kind %q", kind)
	}
	return d.canProduceByKind.Get(kind), nil
}

// CreateSendTransport creates a transport for producing.
func (d *Device) CreateSendTransport(opts transport.Options) (*transport.Transport, error) {
	d.log.Debug("createSendTransport()")
	return d.createTransport(handler.DirectionSend, opts)
}

// CreateRecvTransport creates a transport for consuming.
func (d *Device) CreateRecvTransport(opts transport.Options) (*transport.Transport, error) {
	d.log.Debug("createRecvTransport()")
	return d.createTransport(handler.DirectionRecv, opts)
}

func (d *Device) createTransport(dir handler.Direction, opts transport.Options) (*transport.Transport, error) {
	d.mu.Lock()
	loaded := d.loaded
	ext := d.ext
	canProduce := d.canProduceByKind
	d.mu.Unlock()

	if !loaded {
		return nil, ErrNotLoaded
	}

	return transport.New(transport.Config{
		Options:                 opts,
		Direction:               dir,
		Handler:                 d.handler,
		ExtendedRtpCapabilities: ext,
		CanProduceByKind:        canProduce,
		LoggerFactory:           d.loggerFactory,
	})
}
