package transport

import (
	"github.com/backkem/mediasoupclient/pkg/handler"
	"github.com/backkem/mediasoupclient/pkg/mediaerr"
	"github.com/backkem/mediasoupclient/pkg/ortc"
	"github.com/backkem/mediasoupclient/pkg/rtpparam"
	"github.com/backkem/mediasoupclient/pkg/transportparam"
	"github.com/pion/logging"
)

// AppData is application data attached to a transport or flow.
type AppData map[string]any

// Options are the parameters of a transport as created by the remote side.
type Options struct {
	ID                 string                           // Required.
	IceParameters      transportparam.IceParameters     // Required.
	IceCandidates      []transportparam.IceCandidate    // Required, may be empty.
	DtlsParameters     *transportparam.DtlsParameters   // Required.
	SctpParameters     *transportparam.SctpParameters   // nil disables data flows
	IceServers         []transportparam.IceServer       // optional
	IceTransportPolicy transportparam.IceTransportPolicy // default: all
	AppData            AppData
}

// Validate checks the options.
func (o *Options) Validate() error {
	if o.ID == "" {
		return mediaerr.InvalidArgument("missing id")
	}
	if o.IceParameters.UsernameFragment == "" || o.IceParameters.Password == "" {
		return mediaerr.InvalidArgument("missing iceParameters")
	}
	if o.IceCandidates == nil {
		return mediaerr.InvalidArgument("missing iceCandidates")
	}
	if o.DtlsParameters == nil || len(o.DtlsParameters.Fingerprints) == 0 {
		return mediaerr.InvalidArgument("missing dtlsParameters")
	}
	if o.SctpParameters != nil {
		if err := ortc.ValidateSctpParameters(o.SctpParameters); err != nil {
			return err
		}
	}
	switch o.IceTransportPolicy {
	case "", transportparam.IceTransportPolicyAll, transportparam.IceTransportPolicyRelay:
	default:
		return mediaerr.InvalidArgument("invalid iceTransportPolicy %q", o.IceTransportPolicy)
	}
	return nil
}

func (o *Options) applyDefaults() {
	if o.IceTransportPolicy == "" {
		o.IceTransportPolicy = transportparam.IceTransportPolicyAll
	}
	if o.AppData == nil {
		o.AppData = AppData{}
	}
}

// Config is what a Device hands to New.
type Config struct {
	Options

	Direction               handler.Direction
	Handler                 handler.Factory
	ExtendedRtpCapabilities *rtpparam.ExtendedRtpCapabilities
	CanProduceByKind        rtpparam.CanProduceByKind

	// LoggerFactory is the factory for creating loggers.
	// If nil, the default pion logger factory is used.
	LoggerFactory logging.LoggerFactory
}

// Validate checks the config.
func (c *Config) Validate() error {
	if !c.Direction.IsValid() {
		return mediaerr.InvalidArgument("invalid direction %q", c.Direction)
	}
	if c.Handler == nil {
		return mediaerr.InvalidArgument("missing handler factory")
	}
	if c.ExtendedRtpCapabilities == nil {
		return mediaerr.InvalidArgument("missing extended rtp capabilities")
	}
	return c.Options.Validate()
}

// ProduceOptions are the arguments of Produce.
type ProduceOptions struct {
	Track        handler.Track                     // Required.
	Encodings    []*rtpparam.RtpEncodingParameters // simulcast layers, empty for one
	CodecOptions *handler.CodecOptions
	Codec        *rtpparam.RtpCodecCapability // preferred codec, nil for the first negotiated one

	// KeepTrack leaves the track running when Produce fails and when the
	// producer is closed or replaces it.
	KeepTrack bool

	AppData AppData
}

// normalizeEncodings copies the fields of each encoding the handler may act
// on. Active defaults to true.
func normalizeEncodings(in []*rtpparam.RtpEncodingParameters) ([]*rtpparam.RtpEncodingParameters, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]*rtpparam.RtpEncodingParameters, 0, len(in))
	for _, enc := range in {
		if enc == nil {
			return nil, mediaerr.InvalidArgument("nil encoding")
		}
		out = append(out, &rtpparam.RtpEncodingParameters{
			Rid:                   enc.Rid,
			Active:                rtpparam.Bool(enc.IsActive()),
			MaxBitrate:            enc.MaxBitrate,
			MaxFramerate:          enc.MaxFramerate,
			ScaleResolutionDownBy: enc.ScaleResolutionDownBy,
			Dtx:                   enc.Dtx,
			ScalabilityMode:       enc.ScalabilityMode,
			Priority:              enc.Priority,
			NetworkPriority:       enc.NetworkPriority,
		})
	}
	return out, nil
}

// ConsumeOptions are the arguments of Consume. They come from the remote
// side's consumer.
type ConsumeOptions struct {
	ID            string                  // Required.
	ProducerID    string                  // Required.
	Kind          rtpparam.MediaKind      // Required.
	RtpParameters *rtpparam.RtpParameters // Required.
	AppData       AppData
}

// Validate checks the options. RtpParameters receive their defaults.
func (o *ConsumeOptions) Validate() error {
	switch {
	case o.ID == "":
		return mediaerr.InvalidArgument("missing id")
	case o.ProducerID == "":
		return mediaerr.InvalidArgument("missing producerId")
	case !o.Kind.IsValid():
		return mediaerr.InvalidArgument("invalid kind %q", o.Kind)
	case o.RtpParameters == nil:
		return mediaerr.InvalidArgument("missing rtpParameters")
	}
	return ortc.ValidateRtpParameters(o.RtpParameters)
}

// Data channel priorities.
const (
	PriorityVeryLow = "very-low"
	PriorityLow     = "low"
	PriorityMedium  = "medium"
	PriorityHigh    = "high"
)

// ProduceDataOptions are the arguments of ProduceData.
type ProduceDataOptions struct {
	Ordered           *bool   // default: true, false if a reliability limit is set
	MaxPacketLifeTime *uint16 // milliseconds
	MaxRetransmits    *uint16
	Priority          string // default: low
	Label             string
	Protocol          string
	AppData           AppData
}

// Validate checks the options.
func (o *ProduceDataOptions) Validate() error {
	switch o.Priority {
	case "", PriorityVeryLow, PriorityLow, PriorityMedium, PriorityHigh:
	default:
		return mediaerr.InvalidArgument("wrong priority %q", o.Priority)
	}
	if o.MaxPacketLifeTime != nil && o.MaxRetransmits != nil {
		return mediaerr.InvalidArgument("cannot provide both maxPacketLifeTime and maxRetransmits")
	}
	return nil
}

func (o *ProduceDataOptions) applyDefaults() {
	if o.Priority == "" {
		o.Priority = PriorityLow
	}
	if o.MaxPacketLifeTime != nil || o.MaxRetransmits != nil {
		o.Ordered = rtpparam.Bool(false)
	} else if o.Ordered == nil {
		o.Ordered = rtpparam.Bool(true)
	}
	if o.AppData == nil {
		o.AppData = AppData{}
	}
}

// ConsumeDataOptions are the arguments of ConsumeData.
type ConsumeDataOptions struct {
	ID                   string                               // Required.
	DataProducerID       string                               // Required.
	SctpStreamParameters *transportparam.SctpStreamParameters // Required.
	Label                string
	Protocol             string
	AppData              AppData
}

// Validate checks the options. SctpStreamParameters receive their defaults.
func (o *ConsumeDataOptions) Validate() error {
	switch {
	case o.ID == "":
		return mediaerr.InvalidArgument("missing id")
	case o.DataProducerID == "":
		return mediaerr.InvalidArgument("missing dataProducerId")
	case o.SctpStreamParameters == nil:
		return mediaerr.InvalidArgument("missing sctpStreamParameters")
	}
	return ortc.ValidateSctpStreamParameters(o.SctpStreamParameters)
}
