package ortc

import (
	"github.com/backkem/mediasoupclient/pkg/mediaerr"
	"github.com/backkem/mediasoupclient/pkg/ortc/h264"
	"github.com/backkem/mediasoupclient/pkg/rtpparam"
)

const (
	mimeH264 = "video/h264"
	mimeVP9  = "video/vp9"
)

// codecShape is the subset of codec fields matching looks at. Both capability
// and parameter codecs are reduced to it.
type codecShape struct {
	MimeType   string
	ClockRate  uint32
	Channels   uint8
	Parameters rtpparam.CodecParameters
}

func capabilityShape(c *rtpparam.RtpCodecCapability) *codecShape {
	return &codecShape{MimeType: c.MimeType, ClockRate: c.ClockRate, Channels: c.Channels, Parameters: c.Parameters}
}

func parametersShape(c *rtpparam.RtpCodecParameters) *codecShape {
	return &codecShape{MimeType: c.MimeType, ClockRate: c.ClockRate, Channels: c.Channels, Parameters: c.Parameters}
}

type matchOptions struct {
	strict bool
	modify bool
}

// matchCodecs reports whether a and b describe the same codec. With
// modify, a.Parameters receives the H264 profile-level-id to answer with; the
// caller must pass a shape whose Parameters it owns.
func matchCodecs(a, b *codecShape, opts matchOptions) bool {
	if !isMimeType(a.MimeType, b.MimeType) {
		return false
	}
	if a.ClockRate != b.ClockRate {
		return false
	}
	if rtpparam.KindFromMimeType(a.MimeType) == rtpparam.MediaKindAudio &&
		a.Channels != 0 && b.Channels != 0 && a.Channels != b.Channels {
		return false
	}

	switch {
	case isMimeType(a.MimeType, mimeH264):
		if a.Parameters.UintOr(rtpparam.ParamPacketizationMode, 0) != b.Parameters.UintOr(rtpparam.ParamPacketizationMode, 0) {
			return false
		}
		if !opts.strict {
			return true
		}

		aID := a.Parameters[rtpparam.ParamProfileLevelID]
		bID := b.Parameters[rtpparam.ParamProfileLevelID]
		if !h264.IsSameProfile(aID, bID) {
			return false
		}
		selected, err := h264.GenerateProfileLevelIDForAnswer(
			h264.Params{ProfileLevelID: aID, LevelAsymmetryAllowed: a.Parameters.UintOr(rtpparam.ParamLevelAsymmetryAllowed, 0) == 1},
			h264.Params{ProfileLevelID: bID, LevelAsymmetryAllowed: b.Parameters.UintOr(rtpparam.ParamLevelAsymmetryAllowed, 0) == 1},
		)
		if err != nil {
			return false
		}
		if opts.modify {
			if selected != "" {
				a.Parameters[rtpparam.ParamProfileLevelID] = selected
			} else {
				delete(a.Parameters, rtpparam.ParamProfileLevelID)
			}
		}

	case isMimeType(a.MimeType, mimeVP9):
		if opts.strict && a.Parameters.UintOr(rtpparam.ParamProfileID, 0) != b.Parameters.UintOr(rtpparam.ParamProfileID, 0) {
			return false
		}
	}

	return true
}

// reduceRtcpFeedback keeps the entries of local that remote also supports.
func reduceRtcpFeedback(local, remote []rtpparam.RtcpFeedback) []rtpparam.RtcpFeedback {
	out := []rtpparam.RtcpFeedback{}
	for _, a := range local {
		for _, b := range remote {
			if a.Type == b.Type && a.Parameter == b.Parameter {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

// ReduceCodecs picks the codec to send from a list of sending codecs. With a
// nil preferred codec the first codec is used. The RTX codec that follows the
// chosen one is kept alongside it.
func ReduceCodecs(codecs []*rtpparam.RtpCodecParameters, preferred *rtpparam.RtpCodecCapability) ([]*rtpparam.RtpCodecParameters, error) {
	if len(codecs) == 0 {
		return nil, mediaerr.InvalidArgument("no codecs to reduce")
	}

	idx := 0
	if preferred != nil {
		idx = -1
		want := capabilityShape(preferred)
		want.Parameters = preferred.Parameters.Clone()
		for i, c := range codecs {
			if c.IsRtx() {
				continue
			}
			if matchCodecs(want, parametersShape(c), matchOptions{strict: true}) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, mediaerr.InvalidArgument("no matching codec found for %s", preferred.MimeType)
		}
	}

	out := []*rtpparam.RtpCodecParameters{codecs[idx].Clone()}
	if idx+1 < len(codecs) {
		next := codecs[idx+1]
		if apt, ok := next.Parameters.Uint(rtpparam.ParamApt); next.IsRtx() && ok && apt == uint64(codecs[idx].PayloadType) {
			out = append(out, next.Clone())
		}
	}
	return out, nil
}
