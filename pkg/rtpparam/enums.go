package rtpparam

import "strings"

// MediaKind is the kind of a media flow.
type MediaKind string

const (
	// MediaKindAudio is an audio flow.
	MediaKindAudio MediaKind = "audio"
	// MediaKindVideo is a video flow.
	MediaKindVideo MediaKind = "video"
)

// String returns the kind as used in mimeTypes ("audio" or "video").
func (k MediaKind) String() string {
	return string(k)
}

// IsValid returns true for audio and video.
func (k MediaKind) IsValid() bool {
	return k == MediaKindAudio || k == MediaKindVideo
}

// KindFromMimeType returns the media kind prefix of a mimeType such as
// "video/VP8". Returns "" if the prefix is neither audio nor video.
func KindFromMimeType(mimeType string) MediaKind {
	prefix, _, ok := strings.Cut(strings.ToLower(mimeType), "/")
	if !ok {
		return ""
	}
	kind := MediaKind(prefix)
	if !kind.IsValid() {
		return ""
	}
	return kind
}

// MediaDirection is the direction of an RTP header extension.
type MediaDirection string

const (
	// DirectionSendRecv allows sending and receiving.
	DirectionSendRecv MediaDirection = "sendrecv"
	// DirectionSendOnly allows sending only.
	DirectionSendOnly MediaDirection = "sendonly"
	// DirectionRecvOnly allows receiving only.
	DirectionRecvOnly MediaDirection = "recvonly"
	// DirectionInactive allows neither.
	DirectionInactive MediaDirection = "inactive"
)

// IsValid returns true if the direction is one of the four known values.
func (d MediaDirection) IsValid() bool {
	switch d {
	case DirectionSendRecv, DirectionSendOnly, DirectionRecvOnly, DirectionInactive:
		return true
	default:
		return false
	}
}

// CanSend returns true if the direction allows sending.
func (d MediaDirection) CanSend() bool {
	return d == DirectionSendRecv || d == DirectionSendOnly
}

// CanReceive returns true if the direction allows receiving.
func (d MediaDirection) CanReceive() bool {
	return d == DirectionSendRecv || d == DirectionRecvOnly
}

// Reverse returns the direction as seen from the other endpoint.
func (d MediaDirection) Reverse() MediaDirection {
	switch d {
	case DirectionSendOnly:
		return DirectionRecvOnly
	case DirectionRecvOnly:
		return DirectionSendOnly
	default:
		return d
	}
}

// Intersect returns the direction usable by both sides, where d and other are
// expressed from the same (local) point of view.
func (d MediaDirection) Intersect(other MediaDirection) MediaDirection {
	send := d.CanSend() && other.CanSend()
	recv := d.CanReceive() && other.CanReceive()
	switch {
	case send && recv:
		return DirectionSendRecv
	case send:
		return DirectionSendOnly
	case recv:
		return DirectionRecvOnly
	default:
		return DirectionInactive
	}
}
