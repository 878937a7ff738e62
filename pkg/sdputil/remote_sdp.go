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

const (
	activePort    = 7
	sctpFormat    = "webrtc-datachannel"
	sessionID     = 10000
	originAddress = "0.0.0.0"
	mediaAddress  = "127.0.0.1"
)

// RemoteSdpConfig holds the transport parameters of the remote side.
type RemoteSdpConfig struct {
	IceParameters  transportparam.IceParameters
	IceCandidates  []transportparam.IceCandidate
	DtlsParameters transportparam.DtlsParameters
	SctpParameters *transportparam.SctpParameters
}

// RemoteSdp builds the SDP of the remote side of one transport. Media
// sections keep their position once added, as BUNDLE and the local engine
// expect. It is not safe for concurrent use.
type RemoteSdp struct {
	ice        transportparam.IceParameters
	candidates []transportparam.IceCandidate
	dtls       transportparam.DtlsParameters
	sctp       *transportparam.SctpParameters
	version    uint64

	sections []*section
	byMid    map[string]int
}

// section is a media section without its transport attributes, which are
// added when the SDP is rendered.
type section struct {
	mid      string
	media    string
	protos   []string
	formats  []string
	attrs    []sdp.Attribute
	offer    bool
	closed   bool
	disabled bool
}

// NewRemoteSdp creates an empty remote SDP.
func NewRemoteSdp(config RemoteSdpConfig) *RemoteSdp {
	r := &RemoteSdp{
		ice:        config.IceParameters,
		candidates: config.IceCandidates,
		dtls:       *config.DtlsParameters.Clone(),
		byMid:      make(map[string]int),
	}
	if config.SctpParameters != nil {
		sctp := *config.SctpParameters
		r.sctp = &sctp
	}
	return r
}

// UpdateIceParameters replaces the remote ICE credentials, for ICE restarts.
func (r *RemoteSdp) UpdateIceParameters(params transportparam.IceParameters) {
	r.ice = params
}

// UpdateDtlsRole sets the DTLS role the remote side announces in answers.
func (r *RemoteSdp) UpdateDtlsRole(role transportparam.DtlsRole) {
	r.dtls.Role = role
}

// NextMid returns a mid not used by any section.
func (r *RemoteSdp) NextMid() string {
	for i := len(r.sections); ; i++ {
		mid := strconv.Itoa(i)
		if _, used := r.byMid[mid]; !used {
			return mid
		}
	}
}

// SendOptions describe the answer to a local offer section.
type SendOptions struct {
	// OfferMedia is the section of the local offer being answered.
	OfferMedia *sdp.MediaDescription
	// AnswerRtpParameters are the parameters the remote side receives with.
	AnswerRtpParameters *rtpparam.RtpParameters
}

// Send adds or replaces the answer section for a local send section.
func (r *RemoteSdp) Send(opts SendOptions) error {
	if opts.OfferMedia == nil || opts.AnswerRtpParameters == nil {
		return mediaerr.InvalidArgument("missing offer media or answer parameters")
	}
	mid, ok := opts.OfferMedia.Attribute(sdp.AttrKeyMID)
	if !ok {
		return mediaerr.InvalidArgument("offer media without mid")
	}

	offerExt := map[string]bool{}
	for _, attr := range opts.OfferMedia.Attributes {
		if attr.Key == attrExtmap {
			if _, _, uri, err := parseExtmap(attr.Value); err == nil {
				offerExt[uri] = true
			}
		}
	}

	s := &section{
		mid:    mid,
		media:  opts.OfferMedia.MediaName.Media,
		protos: opts.OfferMedia.MediaName.Protos,
	}
	params := opts.AnswerRtpParameters
	s.formats, s.attrs = codecAttributes(params.Codecs)
	for _, ext := range params.HeaderExtensions {
		if offerExt[ext.URI] {
			s.attrs = append(s.attrs, sdp.NewAttribute(attrExtmap, formatExtmap(ext)))
		}
	}

	direction := "recvonly"
	if isDirection(opts.OfferMedia, "inactive") || isDirection(opts.OfferMedia, "recvonly") {
		direction = "inactive"
	}
	s.attrs = append(s.attrs, sdp.NewPropertyAttribute(direction))
	s.attrs = append(s.attrs, rtcpAttributes(params)...)

	r.put(s)
	return nil
}

// ReceiveOptions describe an offer section for a remote send flow.
type ReceiveOptions struct {
	Mid                string
	Kind               rtpparam.MediaKind
	OfferRtpParameters *rtpparam.RtpParameters
	StreamID           string
	TrackID            string
}

// Receive adds an offer section sending a remote flow to the local engine.
func (r *RemoteSdp) Receive(opts ReceiveOptions) error {
	params := opts.OfferRtpParameters
	if opts.Mid == "" || params == nil || len(params.Codecs) == 0 {
		return mediaerr.InvalidArgument("missing mid or offer parameters")
	}
	if _, used := r.byMid[opts.Mid]; used {
		return mediaerr.InvalidState("mid %q already in use", opts.Mid)
	}

	s := &section{
		mid:    opts.Mid,
		media:  string(opts.Kind),
		protos: []string{"UDP", "TLS", "RTP", "SAVPF"},
		offer:  true,
	}
	s.formats, s.attrs = codecAttributes(params.Codecs)
	for _, ext := range params.HeaderExtensions {
		s.attrs = append(s.attrs, sdp.NewAttribute(attrExtmap, formatExtmap(ext)))
	}
	s.attrs = append(s.attrs, sdp.NewPropertyAttribute("sendonly"))
	s.attrs = append(s.attrs, rtcpAttributes(params)...)

	cname := ""
	if params.Rtcp != nil {
		cname = params.Rtcp.Cname
	}
	msid := opts.StreamID + " " + opts.TrackID
	for _, enc := range params.Encodings {
		if enc.Ssrc == 0 {
			continue
		}
		s.attrs = append(s.attrs, ssrcAttributes(enc.Ssrc, cname, msid)...)
		if enc.Rtx != nil && enc.Rtx.Ssrc != 0 {
			s.attrs = append(s.attrs, ssrcAttributes(enc.Rtx.Ssrc, cname, msid)...)
			s.attrs = append(s.attrs, sdp.NewAttribute(attrSsrcGroup, fmt.Sprintf("FID %d %d", enc.Ssrc, enc.Rtx.Ssrc)))
		}
	}

	r.put(s)
	return nil
}

// SendSctpAssociation answers the application section of a local offer.
func (r *RemoteSdp) SendSctpAssociation(offerMedia *sdp.MediaDescription) error {
	if offerMedia == nil {
		return mediaerr.InvalidArgument("missing offer media")
	}
	mid, ok := offerMedia.Attribute(sdp.AttrKeyMID)
	if !ok {
		return mediaerr.InvalidArgument("offer media without mid")
	}
	return r.sctpSection(mid, false)
}

// ReceiveSctpAssociation adds an application offer section and returns its
// mid.
func (r *RemoteSdp) ReceiveSctpAssociation() (string, error) {
	mid := r.NextMid()
	return mid, r.sctpSection(mid, true)
}

func (r *RemoteSdp) sctpSection(mid string, offer bool) error {
	if r.sctp == nil {
		return mediaerr.InvalidState("no sctp parameters")
	}
	s := &section{
		mid:     mid,
		media:   "application",
		protos:  []string{"UDP", "DTLS", "SCTP"},
		formats: []string{sctpFormat},
		offer:   offer,
		attrs: []sdp.Attribute{
			sdp.NewAttribute(attrSctpPort, strconv.Itoa(int(r.sctp.Port))),
			sdp.NewAttribute(attrMaxMsgSize, strconv.FormatUint(uint64(r.sctp.MaxMessageSize), 10)),
		},
	}
	r.put(s)
	return nil
}

// CloseMediaSection rejects a section. The first section carries the BUNDLE
// transport and is only disabled.
func (r *RemoteSdp) CloseMediaSection(mid string) error {
	idx, ok := r.byMid[mid]
	if !ok {
		return mediaerr.InvalidArgument("unknown mid %q", mid)
	}
	if idx == 0 {
		r.sections[idx].disabled = true
		return nil
	}
	r.sections[idx].closed = true
	return nil
}

// DisableMediaSection keeps a section in the BUNDLE but marks it inactive
// and drops its SSRCs.
func (r *RemoteSdp) DisableMediaSection(mid string) error {
	idx, ok := r.byMid[mid]
	if !ok {
		return mediaerr.InvalidArgument("unknown mid %q", mid)
	}
	r.sections[idx].disabled = true
	return nil
}

// MediaSectionCount returns the number of sections, closed ones included.
func (r *RemoteSdp) MediaSectionCount() int { return len(r.sections) }

func (r *RemoteSdp) put(s *section) {
	if idx, ok := r.byMid[s.mid]; ok {
		r.sections[idx] = s
		return
	}
	r.byMid[s.mid] = len(r.sections)
	r.sections = append(r.sections, s)
}

// SDP renders the current remote description. Each call bumps the session
// version.
func (r *RemoteSdp) SDP() (string, error) {
	r.version++

	desc := &sdp.SessionDescription{
		Version: 0,
		Origin: sdp.Origin{
			Username:       "mediasoup-client",
			SessionID:      sessionID,
			SessionVersion: r.version,
			NetworkType:    "IN",
			AddressType:    "IP4",
			UnicastAddress: originAddress,
		},
		SessionName:      "-",
		TimeDescriptions: []sdp.TimeDescription{{Timing: sdp.Timing{}}},
	}
	if r.ice.IceLite {
		desc.WithPropertyAttribute(sdp.AttrKeyICELite)
	}

	var bundle []string
	for _, s := range r.sections {
		if !s.closed {
			bundle = append(bundle, s.mid)
		}
	}
	if len(bundle) > 0 {
		desc.WithValueAttribute(sdp.AttrKeyGroup, "BUNDLE "+strings.Join(bundle, " "))
	}
	desc.WithValueAttribute("msid-semantic", "WMS *")

	for _, s := range r.sections {
		desc.WithMedia(r.render(s))
	}

	raw, err := desc.Marshal()
	if err != nil {
		return "", fmt.Errorf("marshal remote sdp: %w", err)
	}
	return string(raw), nil
}

func (r *RemoteSdp) render(s *section) *sdp.MediaDescription {
	md := &sdp.MediaDescription{
		MediaName: sdp.MediaName{
			Media:   s.media,
			Port:    sdp.RangedPort{Value: activePort},
			Protos:  s.protos,
			Formats: s.formats,
		},
		ConnectionInformation: &sdp.ConnectionInformation{
			NetworkType: "IN",
			AddressType: "IP4",
			Address:     &sdp.Address{Address: mediaAddress},
		},
	}
	md.WithValueAttribute(sdp.AttrKeyMID, s.mid)

	if s.closed {
		md.MediaName.Port = sdp.RangedPort{Value: 0}
		md.WithPropertyAttribute("inactive")
		return md
	}

	md.WithICECredentials(r.ice.UsernameFragment, r.ice.Password)
	for _, fp := range r.dtls.Fingerprints {
		md.WithValueAttribute(attrFingerprint, fp.Algorithm+" "+fp.Value)
	}
	md.WithValueAttribute(sdp.AttrKeyConnectionSetup, setupFor(r.dtls.Role, s.offer))
	for _, c := range r.candidates {
		md.WithValueAttribute("candidate", formatCandidate(c))
	}
	md.WithPropertyAttribute("end-of-candidates")

	for _, attr := range s.attrs {
		if s.disabled && isDirectionKey(attr.Key) {
			continue
		}
		if s.disabled && attr.Key == sdp.AttrKeySSRC {
			continue
		}
		md.Attributes = append(md.Attributes, attr)
	}
	if s.disabled {
		md.WithPropertyAttribute("inactive")
	}
	return md
}

func setupFor(role transportparam.DtlsRole, offer bool) string {
	if offer {
		return "actpass"
	}
	switch role {
	case transportparam.DtlsRoleServer:
		return "passive"
	case transportparam.DtlsRoleClient:
		return "active"
	default:
		return "active"
	}
}

func codecAttributes(codecs []*rtpparam.RtpCodecParameters) ([]string, []sdp.Attribute) {
	formats := make([]string, 0, len(codecs))
	var attrs []sdp.Attribute
	for _, c := range codecs {
		pt := strconv.Itoa(int(c.PayloadType))
		formats = append(formats, pt)

		_, name, _ := strings.Cut(c.MimeType, "/")
		rtpmap := pt + " " + name + "/" + strconv.FormatUint(uint64(c.ClockRate), 10)
		if c.Channels > 1 {
			rtpmap += "/" + strconv.Itoa(int(c.Channels))
		}
		attrs = append(attrs, sdp.NewAttribute(attrRtpmap, rtpmap))

		if len(c.Parameters) > 0 {
			attrs = append(attrs, sdp.NewAttribute(attrFmtp, pt+" "+FormatFmtp(c.Parameters)))
		}
		for _, fb := range c.RtcpFeedback {
			value := pt + " " + fb.Type
			if fb.Parameter != "" {
				value += " " + fb.Parameter
			}
			attrs = append(attrs, sdp.NewAttribute(attrRtcpFb, value))
		}
	}
	return formats, attrs
}

func rtcpAttributes(params *rtpparam.RtpParameters) []sdp.Attribute {
	attrs := []sdp.Attribute{sdp.NewPropertyAttribute(sdp.AttrKeyRTCPMux)}
	if params.Rtcp == nil || params.Rtcp.ReducedSize == nil || *params.Rtcp.ReducedSize {
		attrs = append(attrs, sdp.NewPropertyAttribute(sdp.AttrKeyRTCPRsize))
	}
	return attrs
}

func ssrcAttributes(ssrc uint32, cname, msid string) []sdp.Attribute {
	id := strconv.FormatUint(uint64(ssrc), 10)
	attrs := []sdp.Attribute{sdp.NewAttribute(sdp.AttrKeySSRC, id+" cname:"+cname)}
	if strings.TrimSpace(msid) != "" {
		attrs = append(attrs, sdp.NewAttribute(sdp.AttrKeySSRC, id+" msid:"+msid))
	}
	return attrs
}

func formatExtmap(ext *rtpparam.RtpHeaderExtensionParameters) string {
	return strconv.Itoa(int(ext.ID)) + " " + ext.URI
}

func formatCandidate(c transportparam.IceCandidate) string {
	protocol := strings.ToLower(c.Protocol)
	value := fmt.Sprintf("%s 1 %s %d %s %d typ %s", c.Foundation, protocol, c.Priority, c.IP, c.Port, c.Type)
	if protocol == "tcp" && c.TCPType != "" {
		value += " tcptype " + c.TCPType
	}
	return value
}

func isDirectionKey(key string) bool {
	switch key {
	case "sendrecv", "sendonly", "recvonly", "inactive":
		return true
	}
	return false
}

func isDirection(md *sdp.MediaDescription, direction string) bool {
	_, ok := md.Attribute(direction)
	return ok
}
