package pionhandler

import (
	"strconv"
	"strings"

	"github.com/backkem/mediasoupclient/pkg/handler"
	"github.com/backkem/mediasoupclient/pkg/rtpparam"
)

// applyCodecOptions writes codec options into the codec parameters of the
// remote answer, where the local engine picks them up as the receiver's
// preferences.
func applyCodecOptions(params *rtpparam.RtpParameters, opts *handler.CodecOptions) {
	if opts == nil {
		return
	}
	for _, c := range params.Codecs {
		if c.IsRtx() {
			continue
		}
		if c.Parameters == nil {
			c.Parameters = rtpparam.CodecParameters{}
		}
		switch {
		case strings.EqualFold(c.MimeType, "audio/opus"):
			if opts.OpusStereo != nil {
				c.Parameters["stereo"] = flag(*opts.OpusStereo)
				c.Parameters["sprop-stereo"] = flag(*opts.OpusStereo)
			}
			if opts.OpusFec != nil {
				c.Parameters["useinbandfec"] = flag(*opts.OpusFec)
			}
			if opts.OpusDtx != nil {
				c.Parameters["usedtx"] = flag(*opts.OpusDtx)
			}
			setUint(c.Parameters, "maxplaybackrate", opts.OpusMaxPlaybackRate)
			setUint(c.Parameters, "maxaveragebitrate", opts.OpusMaxAverageBitrate)
			setUint(c.Parameters, "ptime", opts.OpusPtime)
		case rtpparam.KindFromMimeType(c.MimeType) == rtpparam.MediaKindVideo:
			setUint(c.Parameters, "x-google-start-bitrate", opts.VideoGoogleStartBitrate)
			setUint(c.Parameters, "x-google-max-bitrate", opts.VideoGoogleMaxBitrate)
			setUint(c.Parameters, "x-google-min-bitrate", opts.VideoGoogleMinBitrate)
		}
	}
}

func flag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func setUint(params rtpparam.CodecParameters, key string, v *uint32) {
	if v != nil {
		params[key] = strconv.FormatUint(uint64(*v), 10)
	}
}
