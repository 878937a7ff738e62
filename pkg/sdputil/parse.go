package sdputil

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/backkem/mediasoupclient/pkg/mediaerr"
	"github.com/backkem/mediasoupclient/pkg/rtpparam"
	"github.com/backkem/mediasoupclient/pkg/transportparam"
	"github.com/pion/sdp/v3"
)

// Attribute keys not exported by pion/sdp.
const (
	attrRtpmap      = "rtpmap"
	attrFmtp        = "fmtp"
	attrRtcpFb      = "rtcp-fb"
	attrExtmap      = "extmap"
	attrFingerprint = "fingerprint"
	attrSsrcGroup   = "ssrc-group"
	attrIceUfrag    = "ice-ufrag"
	attrIcePwd      = "ice-pwd"
	attrSctpPort    = "sctp-port"
	attrMaxMsgSize  = "max-message-size"
)

// Parse unmarshals an SDP blob.
func Parse(raw string) (*sdp.SessionDescription, error) {
	s := &sdp.SessionDescription{}
	if err := s.Unmarshal([]byte(raw)); err != nil {
		return nil, fmt.Errorf("parse sdp: %w", err)
	}
	return s, nil
}

// FindMedia returns the media section with the given mid.
func FindMedia(s *sdp.SessionDescription, mid string) (*sdp.MediaDescription, bool) {
	for _, md := range s.MediaDescriptions {
		if v, ok := md.Attribute(sdp.AttrKeyMID); ok && v == mid {
			return md, true
		}
	}
	return nil, false
}

// ExtractRtpCapabilities collects the codecs and header extensions of the
// audio and video sections. Codecs are deduplicated by kind and payload type,
// extensions by kind and id.
func ExtractRtpCapabilities(s *sdp.SessionDescription) (*rtpparam.RtpCapabilities, error) {
	caps := &rtpparam.RtpCapabilities{
		Codecs:           []*rtpparam.RtpCodecCapability{},
		HeaderExtensions: []*rtpparam.RtpHeaderExtension{},
	}
	seenCodec := map[string]*rtpparam.RtpCodecCapability{}
	seenExt := map[string]bool{}

	for _, md := range s.MediaDescriptions {
		kind := rtpparam.MediaKind(md.MediaName.Media)
		if !kind.IsValid() {
			continue
		}

		codecs, err := parseCodecs(kind, md)
		if err != nil {
			return nil, err
		}
		for _, c := range codecs {
			key := string(kind) + "/" + strconv.Itoa(int(c.PreferredPayloadType))
			if _, ok := seenCodec[key]; ok {
				continue
			}
			seenCodec[key] = c
			caps.Codecs = append(caps.Codecs, c)
		}

		for _, attr := range md.Attributes {
			if attr.Key != attrExtmap {
				continue
			}
			id, _, uri, err := parseExtmap(attr.Value)
			if err != nil {
				return nil, err
			}
			key := string(kind) + "/" + strconv.Itoa(int(id))
			if seenExt[key] {
				continue
			}
			seenExt[key] = true
			caps.HeaderExtensions = append(caps.HeaderExtensions, &rtpparam.RtpHeaderExtension{
				Kind:        kind,
				URI:         uri,
				PreferredID: id,
				Direction:   rtpparam.DirectionSendRecv,
			})
		}
	}
	return caps, nil
}

// parseCodecs reads rtpmap, fmtp and rtcp-fb lines of one section in rtpmap
// order.
func parseCodecs(kind rtpparam.MediaKind, md *sdp.MediaDescription) ([]*rtpparam.RtpCodecCapability, error) {
	var codecs []*rtpparam.RtpCodecCapability
	byPT := map[uint8]*rtpparam.RtpCodecCapability{}

	for _, attr := range md.Attributes {
		if attr.Key != attrRtpmap {
			continue
		}
		pt, rest, err := splitPayloadType(attr.Value)
		if err != nil {
			return nil, err
		}
		parts := strings.Split(rest, "/")
		if len(parts) < 2 {
			return nil, mediaerr.InvalidArgument("invalid rtpmap %q", attr.Value)
		}
		clockRate, err := strconv.ParseUint(parts[1], 10, 32)
		if err != nil {
			return nil, mediaerr.InvalidArgument("invalid rtpmap clock rate %q", attr.Value)
		}
		c := &rtpparam.RtpCodecCapability{
			Kind:                 kind,
			MimeType:             string(kind) + "/" + parts[0],
			PreferredPayloadType: pt,
			ClockRate:            uint32(clockRate),
			Parameters:           rtpparam.CodecParameters{},
			RtcpFeedback:         []rtpparam.RtcpFeedback{},
		}
		if kind == rtpparam.MediaKindAudio {
			c.Channels = 1
			if len(parts) > 2 {
				ch, err := strconv.ParseUint(parts[2], 10, 8)
				if err != nil {
					return nil, mediaerr.InvalidArgument("invalid rtpmap channels %q", attr.Value)
				}
				c.Channels = uint8(ch)
			}
		}
		codecs = append(codecs, c)
		byPT[pt] = c
	}

	for _, attr := range md.Attributes {
		switch attr.Key {
		case attrFmtp:
			pt, rest, err := splitPayloadType(attr.Value)
			if err != nil {
				return nil, err
			}
			if c, ok := byPT[pt]; ok {
				c.Parameters = c.Parameters.Merge(ParseFmtp(rest))
			}
		case attrRtcpFb:
			pt, rest, err := splitPayloadType(attr.Value)
			if err != nil {
				continue
			}
			c, ok := byPT[pt]
			if !ok {
				continue
			}
			fb := rtpparam.RtcpFeedback{Type: rest}
			if i := strings.IndexByte(rest, ' '); i >= 0 {
				fb = rtpparam.RtcpFeedback{Type: rest[:i], Parameter: rest[i+1:]}
			}
			c.RtcpFeedback = append(c.RtcpFeedback, fb)
		}
	}
	return codecs, nil
}

func splitPayloadType(value string) (uint8, string, error) {
	head, rest, _ := strings.Cut(value, " ")
	pt, err := strconv.ParseUint(head, 10, 8)
	if err != nil {
		return 0, "", mediaerr.InvalidArgument("invalid payload type in %q", value)
	}
	return uint8(pt), strings.TrimSpace(rest), nil
}

// ParseFmtp parses "a=b;c=d" into codec parameters.
func ParseFmtp(line string) rtpparam.CodecParameters {
	params := rtpparam.CodecParameters{}
	for _, kv := range strings.Split(line, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(kv), "=")
		if !ok || k == "" {
			continue
		}
		params[k] = v
	}
	return params
}

// FormatFmtp is the inverse of ParseFmtp. Keys are sorted.
func FormatFmtp(params rtpparam.CodecParameters) string {
	keys := params.Keys()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	return strings.Join(parts, ";")
}

// parseExtmap parses "1 uri" and "1/sendrecv uri".
func parseExtmap(value string) (uint8, string, string, error) {
	head, uri, ok := strings.Cut(value, " ")
	if !ok {
		return 0, "", "", mediaerr.InvalidArgument("invalid extmap %q", value)
	}
	idStr, direction, _ := strings.Cut(head, "/")
	id, err := strconv.ParseUint(idStr, 10, 8)
	if err != nil || id == 0 {
		return 0, "", "", mediaerr.InvalidArgument("invalid extmap id %q", value)
	}
	uri, _, _ = strings.Cut(uri, " ")
	return uint8(id), direction, uri, nil
}

// ExtractDtlsParameters returns the fingerprints and DTLS role of an SDP. The
// first section carrying a setup attribute decides the role.
func ExtractDtlsParameters(s *sdp.SessionDescription) (transportparam.DtlsParameters, error) {
	var (
		params  transportparam.DtlsParameters
		setup   string
		haveSet bool
	)

	collect := func(attrs []sdp.Attribute) {
		for _, attr := range attrs {
			switch attr.Key {
			case attrFingerprint:
				alg, value, ok := strings.Cut(attr.Value, " ")
				if ok && !hasFingerprint(params.Fingerprints, alg, value) {
					params.Fingerprints = append(params.Fingerprints, transportparam.DtlsFingerprint{
						Algorithm: strings.ToLower(alg),
						Value:     value,
					})
				}
			case sdp.AttrKeyConnectionSetup:
				if !haveSet {
					setup, haveSet = attr.Value, true
				}
			}
		}
	}

	collect(s.Attributes)
	for _, md := range s.MediaDescriptions {
		if md.MediaName.Port.Value == 0 {
			continue
		}
		collect(md.Attributes)
	}

	if len(params.Fingerprints) == 0 {
		return params, mediaerr.InvalidArgument("no DTLS fingerprint in sdp")
	}
	switch setup {
	case "active":
		params.Role = transportparam.DtlsRoleClient
	case "passive":
		params.Role = transportparam.DtlsRoleServer
	default:
		params.Role = transportparam.DtlsRoleAuto
	}
	return params, nil
}

func hasFingerprint(fps []transportparam.DtlsFingerprint, alg, value string) bool {
	for _, fp := range fps {
		if strings.EqualFold(fp.Algorithm, alg) && fp.Value == value {
			return true
		}
	}
	return false
}

// GetCname returns the CNAME of the first SSRC of a section.
func GetCname(md *sdp.MediaDescription) string {
	for _, attr := range md.Attributes {
		if attr.Key != sdp.AttrKeySSRC {
			continue
		}
		_, rest, _ := strings.Cut(attr.Value, " ")
		if v, ok := strings.CutPrefix(rest, "cname:"); ok {
			return v
		}
	}
	return ""
}

// GetRtpEncodings returns one encoding per media SSRC of a section, with the
// RTX SSRC paired through FID groups.
func GetRtpEncodings(md *sdp.MediaDescription) ([]*rtpparam.RtpEncodingParameters, error) {
	var ssrcs []uint32
	seen := map[uint32]bool{}
	for _, attr := range md.Attributes {
		if attr.Key != sdp.AttrKeySSRC {
			continue
		}
		head, _, _ := strings.Cut(attr.Value, " ")
		v, err := strconv.ParseUint(head, 10, 32)
		if err != nil {
			return nil, mediaerr.InvalidArgument("invalid ssrc %q", attr.Value)
		}
		if ssrc := uint32(v); !seen[ssrc] {
			seen[ssrc] = true
			ssrcs = append(ssrcs, ssrc)
		}
	}
	if len(ssrcs) == 0 {
		return nil, mediaerr.InvalidArgument("no a=ssrc lines found")
	}

	rtx := map[uint32]uint32{}
	secondary := map[uint32]bool{}
	for _, attr := range md.Attributes {
		if attr.Key != attrSsrcGroup {
			continue
		}
		fields := strings.Fields(attr.Value)
		if len(fields) != 3 || fields[0] != "FID" {
			continue
		}
		primary, err1 := strconv.ParseUint(fields[1], 10, 32)
		repair, err2 := strconv.ParseUint(fields[2], 10, 32)
		if err1 != nil || err2 != nil {
			return nil, mediaerr.InvalidArgument("invalid ssrc-group %q", attr.Value)
		}
		rtx[uint32(primary)] = uint32(repair)
		secondary[uint32(repair)] = true
	}

	var encodings []*rtpparam.RtpEncodingParameters
	for _, ssrc := range ssrcs {
		if secondary[ssrc] {
			continue
		}
		enc := &rtpparam.RtpEncodingParameters{Ssrc: ssrc}
		if r, ok := rtx[ssrc]; ok {
			enc.Rtx = &rtpparam.RtpEncodingRtx{Ssrc: r}
		}
		encodings = append(encodings, enc)
	}
	return encodings, nil
}
