package ortc

import (
	"github.com/backkem/mediasoupclient/pkg/mediaerr"
	"github.com/backkem/mediasoupclient/pkg/rtpparam"
)

// Probation flow constants. The SSRC and payload type are reserved and never
// used by a real flow.
const (
	ProbatorMid         = "probator"
	ProbatorSsrc        = 1234
	ProbatorPayloadType = 127
	ProbatorCname       = "probator"
)

// GenerateProbatorRtpParameters derives the parameters of the bandwidth
// probation receive flow from the parameters of a video receive flow. The
// result has a single codec on the reserved payload type and a single
// encoding on the reserved SSRC, with no simulcast or SVC layering.
func GenerateProbatorRtpParameters(video *rtpparam.RtpParameters) (*rtpparam.RtpParameters, error) {
	source := video.Clone()
	if err := ValidateRtpParameters(source); err != nil {
		return nil, err
	}

	var codec *rtpparam.RtpCodecParameters
	for _, c := range source.Codecs {
		if !c.IsRtx() {
			codec = c
			break
		}
	}
	if codec == nil {
		return nil, mediaerr.InvalidArgument("no media codec in video rtp parameters")
	}
	codec.PayloadType = ProbatorPayloadType

	return &rtpparam.RtpParameters{
		Mid:              ProbatorMid,
		Codecs:           []*rtpparam.RtpCodecParameters{codec},
		HeaderExtensions: source.HeaderExtensions,
		Encodings:        []*rtpparam.RtpEncodingParameters{{Ssrc: ProbatorSsrc}},
		Rtcp:             &rtpparam.RtcpParameters{Cname: ProbatorCname, ReducedSize: rtpparam.Bool(true)},
	}, nil
}
