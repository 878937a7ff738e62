package ortc

import (
	"strconv"

	"github.com/backkem/mediasoupclient/pkg/mediaerr"
	"github.com/backkem/mediasoupclient/pkg/rtpparam"
)

// GetExtendedRtpCapabilities matches local (native engine) capabilities
// against remote capabilities.
//
// Codecs are matched in local order: each local primary codec pairs with the
// first remote codec it matches that is not paired yet. RTX and FEC codecs are
// skipped in that pass; RTX codecs are paired afterwards through their apt
// parameter on both sides. Header extensions pair by kind and URI, and keep
// the usable direction seen from the local side. Extensions with no usable
// direction are left out.
//
// An empty result is valid. Structurally invalid input returns an
// ErrNegotiation error.
func GetExtendedRtpCapabilities(local, remote *rtpparam.RtpCapabilities) (*rtpparam.ExtendedRtpCapabilities, error) {
	local = local.Clone()
	remote = remote.Clone()

	if err := ValidateRtpCapabilities(local); err != nil {
		return nil, mediaerr.WrapNegotiation(err, "local capabilities")
	}
	if err := ValidateRtpCapabilities(remote); err != nil {
		return nil, mediaerr.WrapNegotiation(err, "remote capabilities")
	}

	ext := &rtpparam.ExtendedRtpCapabilities{
		Codecs:           []*rtpparam.ExtendedCodec{},
		HeaderExtensions: []*rtpparam.ExtendedHeaderExtension{},
	}

	paired := make([]bool, len(remote.Codecs))
	for _, localCodec := range local.Codecs {
		if localCodec.IsRtx() || rtpparam.IsFecMimeType(localCodec.MimeType) {
			continue
		}

		shape := capabilityShape(localCodec)
		shape.Parameters = localCodec.Parameters.Clone()

		for i, remoteCodec := range remote.Codecs {
			if paired[i] || remoteCodec.IsRtx() {
				continue
			}
			if !matchCodecs(shape, capabilityShape(remoteCodec), matchOptions{strict: true, modify: true}) {
				continue
			}
			paired[i] = true
			ext.Codecs = append(ext.Codecs, &rtpparam.ExtendedCodec{
				Kind:              localCodec.Kind,
				MimeType:          localCodec.MimeType,
				ClockRate:         localCodec.ClockRate,
				Channels:          localCodec.Channels,
				LocalPayloadType:  localCodec.PreferredPayloadType,
				RemotePayloadType: remoteCodec.PreferredPayloadType,
				LocalParameters:   shape.Parameters,
				RemoteParameters:  remoteCodec.Parameters.Clone(),
				RtcpFeedback:      reduceRtcpFeedback(localCodec.RtcpFeedback, remoteCodec.RtcpFeedback),
			})
			break
		}
	}

	for _, extCodec := range ext.Codecs {
		localRtx := findRtx(local.Codecs, extCodec.LocalPayloadType)
		remoteRtx := findRtx(remote.Codecs, extCodec.RemotePayloadType)
		if localRtx != nil && remoteRtx != nil {
			extCodec.LocalRtxPayloadType = localRtx.PreferredPayloadType
			extCodec.RemoteRtxPayloadType = remoteRtx.PreferredPayloadType
		}
	}

	for _, localExt := range local.HeaderExtensions {
		for _, remoteExt := range remote.HeaderExtensions {
			if localExt.Kind != remoteExt.Kind || localExt.URI != remoteExt.URI {
				continue
			}
			direction := localExt.Direction.Intersect(remoteExt.Direction.Reverse())
			if direction == rtpparam.DirectionInactive {
				break
			}
			ext.HeaderExtensions = append(ext.HeaderExtensions, &rtpparam.ExtendedHeaderExtension{
				Kind:      localExt.Kind,
				URI:       localExt.URI,
				SendID:    localExt.PreferredID,
				RecvID:    remoteExt.PreferredID,
				Encrypt:   localExt.PreferredEncrypt,
				Direction: direction,
			})
			break
		}
	}

	return ext, nil
}

// findRtx returns the RTX codec whose apt points at payloadType.
func findRtx(codecs []*rtpparam.RtpCodecCapability, payloadType uint8) *rtpparam.RtpCodecCapability {
	for _, c := range codecs {
		if !c.IsRtx() {
			continue
		}
		if apt, ok := c.Parameters.Uint(rtpparam.ParamApt); ok && apt == uint64(payloadType) {
			return c
		}
	}
	return nil
}

// CanSend reports whether ext holds at least one codec of kind.
func CanSend(kind rtpparam.MediaKind, ext *rtpparam.ExtendedRtpCapabilities) bool {
	if ext == nil {
		return false
	}
	for _, c := range ext.Codecs {
		if c.Kind == kind && !rtpparam.IsRtxMimeType(c.MimeType) {
			return true
		}
	}
	return false
}

// CanReceive reports whether every codec in params has a negotiated
// counterpart in ext. Primary codecs match by remote payload type and
// mimeType, RTX codecs by the remote RTX payload type.
func CanReceive(params *rtpparam.RtpParameters, ext *rtpparam.ExtendedRtpCapabilities) bool {
	if params == nil || len(params.Codecs) == 0 || ext == nil {
		return false
	}
	for _, codec := range params.Codecs {
		if codec == nil || !hasReceiveCodec(codec, ext) {
			return false
		}
	}
	return true
}

func hasReceiveCodec(codec *rtpparam.RtpCodecParameters, ext *rtpparam.ExtendedRtpCapabilities) bool {
	for _, c := range ext.Codecs {
		if codec.IsRtx() {
			if c.HasRtx() && c.RemoteRtxPayloadType == codec.PayloadType {
				return true
			}
			continue
		}
		if c.RemotePayloadType == codec.PayloadType && isMimeType(c.MimeType, codec.MimeType) {
			return true
		}
	}
	return false
}

// CanProduceByKind evaluates CanSend for audio and video.
func CanProduceByKind(ext *rtpparam.ExtendedRtpCapabilities) rtpparam.CanProduceByKind {
	return rtpparam.CanProduceByKind{
		Audio: CanSend(rtpparam.MediaKindAudio, ext),
		Video: CanSend(rtpparam.MediaKindVideo, ext),
	}
}

func rtxParameters(apt uint8) rtpparam.CodecParameters {
	return rtpparam.CodecParameters{rtpparam.ParamApt: strconv.Itoa(int(apt))}
}

func rtxMimeType(kind rtpparam.MediaKind) string {
	return string(kind) + "/rtx"
}
