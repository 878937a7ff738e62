package pionhandler

import (
	"context"
	"fmt"

	"github.com/backkem/mediasoupclient/pkg/handler"
	"github.com/backkem/mediasoupclient/pkg/mediaerr"
	"github.com/backkem/mediasoupclient/pkg/ortc"
	"github.com/backkem/mediasoupclient/pkg/rtpparam"
	"github.com/backkem/mediasoupclient/pkg/sdputil"
	"github.com/backkem/mediasoupclient/pkg/transportparam"
	"github.com/pion/interceptor"
	"github.com/pion/logging"
	"github.com/pion/sdp/v3"
	"github.com/pion/webrtc/v4"
)

// Name is the engine name reported by the factory and its handlers.
const Name = "pion"

// sctpNumStreams is the number of SCTP streams announced in both directions.
const sctpNumStreams = 1024

const uriAudioLevel = "urn:ietf:params:rtp-hdrext:ssrc-audio-level"

// headerExtensions are registered on top of the ones the default
// interceptors add.
var headerExtensions = []struct {
	uri  string
	kind webrtc.RTPCodecType
}{
	{sdp.SDESMidURI, webrtc.RTPCodecTypeAudio},
	{sdp.SDESMidURI, webrtc.RTPCodecTypeVideo},
	{uriAudioLevel, webrtc.RTPCodecTypeAudio},
	{ortc.URIAbsSendTime, webrtc.RTPCodecTypeVideo},
}

// Config configures a Factory.
type Config struct {
	// LoggerFactory is the factory for creating loggers. It is also handed to
	// the pion engine.
	// If nil, the default pion logger factory is used.
	LoggerFactory logging.LoggerFactory
}

// Factory creates pion handlers.
type Factory struct {
	loggerFactory logging.LoggerFactory
	log           logging.LeveledLogger
}

var _ handler.Factory = (*Factory)(nil)

// NewFactory creates a Factory.
func NewFactory(config Config) *Factory {
	lf := config.LoggerFactory
	if lf == nil {
		lf = logging.NewDefaultLoggerFactory()
	}
	return &Factory{
		loggerFactory: lf,
		log:           lf.NewLogger("pionhandler"),
	}
}

// Name implements handler.Factory.
func (f *Factory) Name() string {
	return Name
}

// NativeRtpCapabilities implements handler.Factory. The capabilities are read
// from an offer of a throwaway PeerConnection, so they reflect exactly what
// the engine will put in its own offers.
func (f *Factory) NativeRtpCapabilities(ctx context.Context) (*rtpparam.RtpCapabilities, error) {
	api, err := f.newAPI(f.loggerFactory)
	if err != nil {
		return nil, err
	}
	pc, err := api.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}
	defer func() {
		if cerr := pc.Close(); cerr != nil {
			f.log.Warnf("close capabilities peer connection: %v", cerr)
		}
	}()

	for _, kind := range []webrtc.RTPCodecType{webrtc.RTPCodecTypeAudio, webrtc.RTPCodecTypeVideo} {
		if _, err := pc.AddTransceiverFromKind(kind, webrtc.RTPTransceiverInit{
			Direction: webrtc.RTPTransceiverDirectionRecvonly,
		}); err != nil {
			return nil, fmt.Errorf("add %s transceiver: %w", kind, err)
		}
	}

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		return nil, fmt.Errorf("create offer: %w", err)
	}
	parsed, err := sdputil.Parse(offer.SDP)
	if err != nil {
		return nil, err
	}
	caps, err := sdputil.ExtractRtpCapabilities(parsed)
	if err != nil {
		return nil, err
	}
	f.log.Debugf("native capabilities: %d codecs, %d header extensions", len(caps.Codecs), len(caps.HeaderExtensions))
	return caps, nil
}

// NativeSctpCapabilities implements handler.Factory.
func (f *Factory) NativeSctpCapabilities(ctx context.Context) (*transportparam.SctpCapabilities, error) {
	return &transportparam.SctpCapabilities{
		NumStreams: transportparam.NumSctpStreams{OS: sctpNumStreams, MIS: sctpNumStreams},
	}, nil
}

// New implements handler.Factory.
func (f *Factory) New(opts handler.Options) (handler.Handler, error) {
	if !opts.Direction.IsValid() {
		return nil, mediaerr.InvalidArgument("invalid direction %q", opts.Direction)
	}
	if opts.Events == nil {
		return nil, mediaerr.InvalidArgument("missing events")
	}
	if opts.ExtendedRtpCapabilities == nil {
		return nil, mediaerr.InvalidArgument("missing extended RTP capabilities")
	}
	if opts.LoggerFactory == nil {
		opts.LoggerFactory = f.loggerFactory
	}

	api, err := f.newAPI(opts.LoggerFactory)
	if err != nil {
		return nil, err
	}
	return newHandler(api, opts)
}

// newAPI builds an engine with the default codecs and interceptors. Every
// handler gets its own MediaEngine.
func (f *Factory) newAPI(lf logging.LoggerFactory) (*webrtc.API, error) {
	m := &webrtc.MediaEngine{}
	if err := m.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("register codecs: %w", err)
	}
	for _, ext := range headerExtensions {
		if err := m.RegisterHeaderExtension(webrtc.RTPHeaderExtensionCapability{URI: ext.uri}, ext.kind); err != nil {
			return nil, fmt.Errorf("register header extension %s: %w", ext.uri, err)
		}
	}

	registry := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(m, registry); err != nil {
		return nil, fmt.Errorf("register interceptors: %w", err)
	}

	se := webrtc.SettingEngine{LoggerFactory: lf}
	if err := se.SetAnsweringDTLSRole(webrtc.DTLSRoleClient); err != nil {
		return nil, fmt.Errorf("set answering DTLS role: %w", err)
	}

	return webrtc.NewAPI(
		webrtc.WithMediaEngine(m),
		webrtc.WithInterceptorRegistry(registry),
		webrtc.WithSettingEngine(se),
	), nil
}
